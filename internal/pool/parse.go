package pool

import (
	"fmt"
	"strconv"
)

// Parse reads a term in the canonical textual syntax produced by
// Term.String and interns it through the session. Quoted atoms without an
// argument list parse as string leaves; a quoted atom directly followed
// by '(' is an application with a quoted symbol name.
//
// The parser keeps its own frame stack, so arbitrarily deep inputs do not
// grow the call stack.
func (s *Session) Parse(text string) (*Term, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	lx := &lexer{input: text}

	var stack []parseFrame
	t, err := s.parseTermStart(lx, &stack)
	if err != nil {
		return nil, err
	}

	for {
		if t != nil {
			// A term just completed; hand it to the enclosing frame, or
			// finish if there is none.
			if len(stack) == 0 {
				tok, err := lx.next()
				if err != nil {
					return nil, err
				}
				if tok.kind != tokEOF {
					return nil, parseError(tok.pos, "unexpected trailing input")
				}
				return t, nil
			}

			top := &stack[len(stack)-1]
			if top.sawBar {
				if top.tail != nil {
					return nil, parseError(lx.pos, "multiple tail terms after '|'")
				}
				top.tail = t
			} else {
				top.elems = append(top.elems, t)
			}
		}

		top := &stack[len(stack)-1]
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}

		switch tok.kind {
		case tokComma:
			if top.sawBar {
				return nil, parseError(tok.pos, "',' after list tail")
			}
			t, err = s.parseTermStart(lx, &stack)
			if err != nil {
				return nil, err
			}

		case tokBar:
			if !top.list || top.sawBar || len(top.elems) == 0 {
				return nil, parseError(tok.pos, "unexpected '|'")
			}
			top.sawBar = true
			t, err = s.parseTermStart(lx, &stack)
			if err != nil {
				return nil, err
			}

		case tokRParen:
			if top.list {
				return nil, parseError(tok.pos, "')' closes '['")
			}
			sym := s.InternSymbol(top.name, len(top.elems))
			t, err = s.MakeApplication(sym, top.elems...)
			if err != nil {
				return nil, err
			}
			stack = stack[:len(stack)-1]

		case tokRBrack:
			if !top.list {
				return nil, parseError(tok.pos, "']' closes '('")
			}
			if top.sawBar && top.tail == nil {
				return nil, parseError(tok.pos, "missing tail term after '|'")
			}
			tail := top.tail
			if tail == nil {
				tail = s.pool.emptyList
			}
			for i := len(top.elems) - 1; i >= 0; i-- {
				tail = s.MakeListCons(top.elems[i], tail)
			}
			t = tail
			stack = stack[:len(stack)-1]

		default:
			return nil, parseError(tok.pos, fmt.Sprintf("expected ',', ')', ']' or '|', got %s", tok.kind))
		}
	}
}

// parseFrame is an application or list under construction.
type parseFrame struct {
	list   bool
	name   string // application head symbol
	elems  []*Term
	tail   *Term
	sawBar bool
}

// parseTermStart parses up to the start of the next complete-able term:
// it consumes leaf terms directly and keeps descending while openers push
// new frames, returning once a leaf has completed.
func (s *Session) parseTermStart(lx *lexer, stack *[]parseFrame) (*Term, error) {
	for {
		t, err := s.parseLeaf(lx, stack)
		if err != nil {
			return nil, err
		}
		if t != nil {
			return t, nil
		}
	}
}

// parseLeaf consumes one term opener. Leaves complete immediately and are
// returned; compound openers push a frame and return nil.
func (s *Session) parseLeaf(lx *lexer, stack *[]parseFrame) (*Term, error) {
	tok, err := lx.next()
	if err != nil {
		return nil, err
	}

	switch tok.kind {
	case tokInt:
		return s.MakeInt(tok.num), nil

	case tokString:
		if lx.peekByte() == '(' {
			lx.pos++
			*stack = append(*stack, parseFrame{name: tok.text})
			return nil, nil
		}
		return s.MakeString(tok.text), nil

	case tokIdent:
		if lx.peekByte() == '(' {
			lx.pos++
			*stack = append(*stack, parseFrame{name: tok.text})
			return nil, nil
		}
		return s.MakeConstant(tok.text), nil

	case tokLBrack:
		if lx.peekByte() == ']' {
			lx.pos++
			return s.pool.emptyList, nil
		}
		*stack = append(*stack, parseFrame{list: true})
		return nil, nil

	default:
		return nil, parseError(tok.pos, fmt.Sprintf("expected a term, got %s", tok.kind))
	}
}

type tokKind int

const (
	tokEOF tokKind = iota
	tokIdent
	tokInt
	tokString
	tokRParen
	tokLBrack
	tokRBrack
	tokComma
	tokBar
)

func (k tokKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIdent:
		return "identifier"
	case tokInt:
		return "integer"
	case tokString:
		return "string"
	case tokRParen:
		return "')'"
	case tokLBrack:
		return "'['"
	case tokRBrack:
		return "']'"
	case tokComma:
		return "','"
	case tokBar:
		return "'|'"
	default:
		return "unknown token"
	}
}

type token struct {
	kind tokKind
	text string
	num  int64
	pos  int
}

type lexer struct {
	input string
	pos   int
}

// peekByte returns the next significant byte without consuming it, or 0
// at end of input.
func (lx *lexer) peekByte() byte {
	lx.skipSpace()
	if lx.pos >= len(lx.input) {
		return 0
	}
	return lx.input[lx.pos]
}

func (lx *lexer) skipSpace() {
	for lx.pos < len(lx.input) {
		switch lx.input[lx.pos] {
		case ' ', '\t', '\n', '\r':
			lx.pos++
		default:
			return
		}
	}
}

func (lx *lexer) next() (token, error) {
	lx.skipSpace()
	if lx.pos >= len(lx.input) {
		return token{kind: tokEOF, pos: lx.pos}, nil
	}

	start := lx.pos
	c := lx.input[lx.pos]
	switch {
	case c == ')':
		lx.pos++
		return token{kind: tokRParen, pos: start}, nil
	case c == '[':
		lx.pos++
		return token{kind: tokLBrack, pos: start}, nil
	case c == ']':
		lx.pos++
		return token{kind: tokRBrack, pos: start}, nil
	case c == ',':
		lx.pos++
		return token{kind: tokComma, pos: start}, nil
	case c == '|':
		lx.pos++
		return token{kind: tokBar, pos: start}, nil

	case c == '"':
		return lx.lexString()

	case c == '-' || (c >= '0' && c <= '9'):
		return lx.lexInt()

	case c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		for lx.pos < len(lx.input) && isIdentByte(lx.input[lx.pos]) {
			lx.pos++
		}
		return token{kind: tokIdent, text: lx.input[start:lx.pos], pos: start}, nil

	default:
		return token{}, parseError(start, fmt.Sprintf("unexpected character %q", c))
	}
}

func (lx *lexer) lexString() (token, error) {
	start := lx.pos
	lx.pos++ // opening quote
	for lx.pos < len(lx.input) {
		switch lx.input[lx.pos] {
		case '\\':
			lx.pos += 2
		case '"':
			lx.pos++
			text, err := strconv.Unquote(lx.input[start:lx.pos])
			if err != nil {
				return token{}, parseError(start, "invalid string escape")
			}
			return token{kind: tokString, text: text, pos: start}, nil
		default:
			lx.pos++
		}
	}
	return token{}, parseError(start, "unterminated string")
}

func (lx *lexer) lexInt() (token, error) {
	start := lx.pos
	if lx.input[lx.pos] == '-' {
		lx.pos++
	}
	digits := 0
	for lx.pos < len(lx.input) && lx.input[lx.pos] >= '0' && lx.input[lx.pos] <= '9' {
		lx.pos++
		digits++
	}
	if digits == 0 {
		return token{}, parseError(start, "expected digits after '-'")
	}
	num, err := strconv.ParseInt(lx.input[start:lx.pos], 10, 64)
	if err != nil {
		return token{}, parseError(start, "integer out of range")
	}
	return token{kind: tokInt, num: num, pos: start}, nil
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func parseError(pos int, msg string) *Error {
	return &Error{Code: ErrCodeParse, Message: msg, Pos: pos}
}

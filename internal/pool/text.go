package pool

import (
	"io"
	"strconv"
	"strings"
)

// String renders the term in the canonical textual syntax: applications
// as name(arg,...), proper lists as [e1,e2], improper lists as [e1|tail],
// integers as decimal digits, strings quoted. Symbol names that are not
// plain identifiers are quoted.
//
// Rendering is iterative over an explicit work stack. Recursing on the
// term structure instead would overflow the call stack on long lists; that
// is a known defect class in this kind of structure, not a theoretical
// concern.
func (t *Term) String() string {
	var sb strings.Builder
	renderTerm(&sb, t)
	return sb.String()
}

// ToText writes the canonical rendering of t to w.
func ToText(w io.Writer, t *Term) error {
	var sb strings.Builder
	renderTerm(&sb, t)
	_, err := io.WriteString(w, sb.String())
	return err
}

// renderItem is one pending unit of rendering work: either a literal to
// emit or a term to expand.
type renderItem struct {
	term *Term
	lit  string
}

func renderTerm(sb *strings.Builder, root *Term) {
	stack := []renderItem{{term: root}}

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if item.term == nil {
			sb.WriteString(item.lit)
			continue
		}

		t := item.term
		switch t.tag {
		case TagInt:
			sb.WriteString(strconv.FormatInt(t.num, 10))

		case TagString:
			sb.WriteString(strconv.Quote(t.text))

		case TagEmptyList:
			sb.WriteString("[]")

		case TagList:
			elems, tail := listSpine(t)
			sb.WriteByte('[')
			stack = append(stack, renderItem{lit: "]"})
			if tail != nil {
				stack = append(stack, renderItem{term: tail})
				stack = append(stack, renderItem{lit: "|"})
			}
			for i := len(elems) - 1; i >= 0; i-- {
				stack = append(stack, renderItem{term: elems[i]})
				if i > 0 {
					stack = append(stack, renderItem{lit: ","})
				}
			}

		case TagApplication:
			sb.WriteString(renderName(t.sym.name))
			if len(t.args) > 0 {
				sb.WriteByte('(')
				stack = append(stack, renderItem{lit: ")"})
				for i := len(t.args) - 1; i >= 0; i-- {
					stack = append(stack, renderItem{term: t.args[i]})
					if i > 0 {
						stack = append(stack, renderItem{lit: ","})
					}
				}
			}
		}
	}
}

// listSpine walks the tail pointers of a list cell iteratively and
// returns the element sequence plus the trailing non-list tail, or nil
// when the list is proper.
func listSpine(t *Term) (elems []*Term, tail *Term) {
	for t.tag == TagList {
		elems = append(elems, t.args[0])
		t = t.args[1]
	}
	if t.tag == TagEmptyList {
		return elems, nil
	}
	return elems, t
}

// renderName emits a symbol name, quoting it unless it is a plain
// identifier.
func renderName(name string) string {
	if isIdent(name) {
		return name
	}
	return strconv.Quote(name)
}

func isIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

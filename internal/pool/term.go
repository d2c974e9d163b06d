package pool

import "sync/atomic"

// Tag discriminates the shapes a term can take.
type Tag uint8

const (
	// TagApplication is a function symbol applied to arity arguments.
	TagApplication Tag = iota
	// TagList is a list cons cell with a head and a tail.
	TagList
	// TagEmptyList is the unique empty-list sentinel.
	TagEmptyList
	// TagInt is an immutable integer leaf.
	TagInt
	// TagString is an immutable string leaf.
	TagString
)

// String returns the tag name.
func (t Tag) String() string {
	switch t {
	case TagApplication:
		return "application"
	case TagList:
		return "list"
	case TagEmptyList:
		return "empty_list"
	case TagInt:
		return "int"
	case TagString:
		return "string"
	default:
		return "unknown"
	}
}

// Term is an immutable, hash-consed term. Terms are created through a
// Session and are canonical: structurally equal terms are pointer-equal.
// The pointer is stable between creation and reclamation, so it can be
// cached as a cheap identity key by code that keeps the term rooted.
type Term struct {
	tag Tag
	sym *Symbol // TagApplication only
	// args holds the arguments of an application (len == arity) or the
	// head and tail of a list cell (len == 2).
	args []*Term
	num  int64  // TagInt payload
	text string // TagString payload

	id   uint64
	key  string // content key in the term table, see table.go
	mark atomic.Uint32
}

// Tag returns the term's shape.
func (t *Term) Tag() Tag { return t.tag }

// Symbol returns the head symbol of an application, or nil for any other
// shape.
func (t *Term) Symbol() *Symbol { return t.sym }

// IsApplication reports whether the term is a function application.
func (t *Term) IsApplication() bool { return t.tag == TagApplication }

// IsList reports whether the term is a list cons cell.
func (t *Term) IsList() bool { return t.tag == TagList }

// IsEmptyList reports whether the term is the empty-list sentinel.
func (t *Term) IsEmptyList() bool { return t.tag == TagEmptyList }

// IsInt reports whether the term is an integer leaf.
func (t *Term) IsInt() bool { return t.tag == TagInt }

// IsString reports whether the term is a string leaf.
func (t *Term) IsString() bool { return t.tag == TagString }

// Int returns the integer payload. Valid only when IsInt reports true;
// any other shape returns zero.
func (t *Term) Int() int64 {
	if t.tag != TagInt {
		return 0
	}
	return t.num
}

// Text returns the string payload. Valid only when IsString reports true;
// any other shape returns the empty string.
func (t *Term) Text() string {
	if t.tag != TagString {
		return ""
	}
	return t.text
}

// Arity returns the number of addressable arguments: the symbol's arity
// for applications, two (head, tail) for list cells, zero otherwise.
func (t *Term) Arity() int {
	return len(t.args)
}

// Argument returns the index-th child of an application or list cell.
// For list cells index 0 is the head and index 1 is the tail. Accessing
// past the term's bounds fails with INDEX_OUT_OF_RANGE; in particular the
// empty-list sentinel has no head or tail.
//
// The returned term needs no separate protection while the parent is
// rooted: the collector traces through live terms.
func (t *Term) Argument(index int) (*Term, error) {
	if index < 0 || index >= len(t.args) {
		return nil, indexOutOfRange(index, len(t.args))
	}
	return t.args[index], nil
}

// Head returns the head of a list cell.
func (t *Term) Head() (*Term, error) {
	if t.tag != TagList {
		return nil, indexOutOfRange(0, len(t.args))
	}
	return t.args[0], nil
}

// Tail returns the tail of a list cell. The tail of the empty list is an
// INDEX_OUT_OF_RANGE error, not the sentinel.
func (t *Term) Tail() (*Term, error) {
	if t.tag != TagList {
		return nil, indexOutOfRange(1, len(t.args))
	}
	return t.args[1], nil
}

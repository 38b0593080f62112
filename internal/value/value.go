package value

import (
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindString Kind = iota + 1
	KindInt
	KindBool
	KindPointer
	KindPointerSeq
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "integer"
	case KindBool:
		return "boolean"
	case KindPointer:
		return "pointer"
	case KindPointerSeq:
		return "sequence"
	default:
		return "unknown"
	}
}

// ParseKind maps a wire name back to its Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "string":
		return KindString, true
	case "integer":
		return KindInt, true
	case "boolean":
		return KindBool, true
	case "pointer":
		return KindPointer, true
	case "sequence":
		return KindPointerSeq, true
	default:
		return 0, false
	}
}

// Value is a sealed interface. Only the types in this file implement it.
type Value interface {
	Kind() Kind
	String() string
	value()
}

// String is a text value.
type String string

func (String) value()            {}
func (String) Kind() Kind        { return KindString }
func (s String) String() string { return string(s) }

// Int is an integer value.
type Int int64

func (Int) value()            {}
func (Int) Kind() Kind        { return KindInt }
func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

// Bool is a boolean value.
type Bool bool

func (Bool) value()     {}
func (Bool) Kind() Kind { return KindBool }
func (b Bool) String() string {
	return strconv.FormatBool(bool(b))
}

// Pointer is an opaque handle owned by a window collaborator.
// Zero is the null handle.
type Pointer uintptr

func (Pointer) value()            {}
func (Pointer) Kind() Kind        { return KindPointer }
func (p Pointer) String() string { return strconv.FormatUint(uint64(p), 10) }

// IsNull reports whether p is the zero handle.
func (p Pointer) IsNull() bool { return p == 0 }

// PointerSeq is an ordered list of handles.
type PointerSeq []Pointer

func (PointerSeq) value()     {}
func (PointerSeq) Kind() Kind { return KindPointerSeq }

// String renders the sequence as "[a, b, c]".
func (s PointerSeq) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, p := range s {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteByte(']')
	return b.String()
}

// Equal reports whether a and b hold the same kind and contents.
// Nil values are equal only to each other.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	as, ok := a.(PointerSeq)
	if !ok {
		return a == b
	}
	bs := b.(PointerSeq)
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

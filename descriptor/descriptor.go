// Package descriptor renders Java field and method types as JVM descriptor
// strings, and parses them back.
package descriptor

import (
	"fmt"
	"strings"
)

// Kind is the category of a Type.
type Kind uint8

const (
	KindVoid Kind = iota
	KindBoolean
	KindByte
	KindChar
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindObject
	KindArray
)

var baseCodes = map[Kind]byte{
	KindVoid:    'V',
	KindBoolean: 'Z',
	KindByte:    'B',
	KindChar:    'C',
	KindShort:   'S',
	KindInt:     'I',
	KindLong:    'J',
	KindFloat:   'F',
	KindDouble:  'D',
}

// Type is a Java type as it appears in a descriptor.
type Type struct {
	kind  Kind
	class string
	elem  *Type
}

var (
	Void    = Type{kind: KindVoid}
	Boolean = Type{kind: KindBoolean}
	Byte    = Type{kind: KindByte}
	Char    = Type{kind: KindChar}
	Short   = Type{kind: KindShort}
	Int     = Type{kind: KindInt}
	Long    = Type{kind: KindLong}
	Float   = Type{kind: KindFloat}
	Double  = Type{kind: KindDouble}
)

// Object returns the reference type for the class with the given internal
// name (e.g. java/lang/String).
func Object(class string) Type {
	return Type{kind: KindObject, class: class}
}

// Array returns the array type with the given element type.
func Array(elem Type) Type {
	e := elem
	return Type{kind: KindArray, elem: &e}
}

// Kind returns the category of t.
func (t Type) Kind() Kind { return t.kind }

// ClassName returns the internal class name of an object type, or "" for any
// other kind.
func (t Type) ClassName() string { return t.class }

// Elem returns the element type of an array type.
func (t Type) Elem() (Type, bool) {
	if t.kind != KindArray || t.elem == nil {
		return Type{}, false
	}
	return *t.elem, true
}

// IsReference reports whether values of t are object or array references.
func (t Type) IsReference() bool {
	return t.kind == KindObject || t.kind == KindArray
}

// Slots is the number of local variable or operand stack words t occupies.
func (t Type) Slots() int {
	switch t.kind {
	case KindVoid:
		return 0
	case KindLong, KindDouble:
		return 2
	default:
		return 1
	}
}

// Equal reports whether t and u denote the same type.
func (t Type) Equal(u Type) bool {
	return t.Descriptor() == u.Descriptor()
}

// Descriptor returns the field descriptor of t.
func (t Type) Descriptor() string {
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t Type) String() string {
	return t.Descriptor()
}

func (t Type) write(sb *strings.Builder) {
	switch t.kind {
	case KindObject:
		sb.WriteByte('L')
		sb.WriteString(t.class)
		sb.WriteByte(';')
	case KindArray:
		sb.WriteByte('[')
		if t.elem != nil {
			t.elem.write(sb)
		}
	default:
		sb.WriteByte(baseCodes[t.kind])
	}
}

// Method returns the method descriptor for the given argument and return types.
func Method(args []Type, ret Type) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, a := range args {
		a.write(&sb)
	}
	sb.WriteByte(')')
	ret.write(&sb)
	return sb.String()
}

// Parse parses a single field descriptor.
func Parse(desc string) (Type, error) {
	t, n, err := parseType(desc, 0)
	if err != nil {
		return Type{}, err
	}
	if n != len(desc) {
		return Type{}, fmt.Errorf("descriptor %q: trailing characters", desc)
	}
	return t, nil
}

// ParseMethod parses a method descriptor into its argument and return types.
func ParseMethod(desc string) ([]Type, Type, error) {
	if len(desc) == 0 || desc[0] != '(' {
		return nil, Type{}, fmt.Errorf("method descriptor %q: missing '('", desc)
	}

	var args []Type
	i := 1
	for i < len(desc) && desc[i] != ')' {
		t, n, err := parseType(desc, i)
		if err != nil {
			return nil, Type{}, err
		}
		if t.kind == KindVoid {
			return nil, Type{}, fmt.Errorf("method descriptor %q: void argument", desc)
		}
		args = append(args, t)
		i = n
	}
	if i >= len(desc) {
		return nil, Type{}, fmt.Errorf("method descriptor %q: missing ')'", desc)
	}

	ret, n, err := parseType(desc, i+1)
	if err != nil {
		return nil, Type{}, err
	}
	if n != len(desc) {
		return nil, Type{}, fmt.Errorf("method descriptor %q: trailing characters", desc)
	}
	return args, ret, nil
}

// parseType parses one type starting at desc[start] and returns the index
// just past it.
func parseType(desc string, start int) (Type, int, error) {
	if start >= len(desc) {
		return Type{}, 0, fmt.Errorf("descriptor %q: unexpected end", desc)
	}

	switch c := desc[start]; c {
	case '[':
		elem, n, err := parseType(desc, start+1)
		if err != nil {
			return Type{}, 0, err
		}
		if elem.kind == KindVoid {
			return Type{}, 0, fmt.Errorf("descriptor %q: array of void", desc)
		}
		return Array(elem), n, nil
	case 'L':
		semicolon := strings.IndexByte(desc[start:], ';')
		if semicolon <= 1 {
			return Type{}, 0, fmt.Errorf("descriptor %q: bad class name", desc)
		}
		return Object(desc[start+1 : start+semicolon]), start + semicolon + 1, nil
	default:
		for k, code := range baseCodes {
			if code == c {
				return Type{kind: k}, start + 1, nil
			}
		}
		return Type{}, 0, fmt.Errorf("descriptor %q: unknown type code %q", desc, c)
	}
}

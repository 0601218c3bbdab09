// Package valtype describes host-level value types: the type a SQL expression
// produces once it is read back into the application. Type mappings in the
// typemap package pair these with a store type.
package valtype

import (
	"fmt"
	"strings"

	"github.com/shibukawa/pgxlate"
)

// Kind enumerates the host value types.
type Kind int

const (
	Unknown Kind = iota
	Null
	Bool
	Int16
	Int32
	Int64
	Float64
	Decimal
	String
	Bytes
	UUID
	DateTime
	DateTimeOffset
	Date
	TimeSpan
	Document
	Array
	List
)

var kindNames = map[Kind]string{
	Unknown:        "unknown",
	Null:           "null",
	Bool:           "bool",
	Int16:          "short",
	Int32:          "int",
	Int64:          "long",
	Float64:        "double",
	Decimal:        "decimal",
	String:         "string",
	Bytes:          "bytes",
	UUID:           "uuid",
	DateTime:       "datetime",
	DateTimeOffset: "datetimeoffset",
	Date:           "date",
	TimeSpan:       "timespan",
	Document:       "document",
	Array:          "array",
	List:           "list",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		m[name] = k
	}
	// aliases
	m["boolean"] = Bool
	m["int16"] = Int16
	m["int32"] = Int32
	m["integer"] = Int32
	m["int64"] = Int64
	m["float"] = Float64
	m["float64"] = Float64
	m["text"] = String
	m["timestamp"] = DateTime
	m["timestamptz"] = DateTimeOffset
	m["duration"] = TimeSpan
	m["json"] = Document

	return m
}()

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// Type is a host value type. Elem is set only for Array and List.
type Type struct {
	Kind Kind
	Elem *Type
}

// Scalar type values.
var (
	TypeUnknown        = Type{Kind: Unknown}
	TypeNull           = Type{Kind: Null}
	TypeBool           = Type{Kind: Bool}
	TypeInt16          = Type{Kind: Int16}
	TypeInt32          = Type{Kind: Int32}
	TypeInt64          = Type{Kind: Int64}
	TypeFloat64        = Type{Kind: Float64}
	TypeDecimal        = Type{Kind: Decimal}
	TypeString         = Type{Kind: String}
	TypeBytes          = Type{Kind: Bytes}
	TypeUUID           = Type{Kind: UUID}
	TypeDateTime       = Type{Kind: DateTime}
	TypeDateTimeOffset = Type{Kind: DateTimeOffset}
	TypeDate           = Type{Kind: Date}
	TypeTimeSpan       = Type{Kind: TimeSpan}
	TypeDocument       = Type{Kind: Document}
)

// ArrayOf returns the array type with the given element type.
func ArrayOf(elem Type) Type {
	return Type{Kind: Array, Elem: &elem}
}

// ListOf returns the list type with the given element type.
func ListOf(elem Type) Type {
	return Type{Kind: List, Elem: &elem}
}

// IsCollection reports whether the type is collection-shaped on the host.
// A byte sequence counts, even though it is usually stored as a scalar.
func (t Type) IsCollection() bool {
	return t.Kind == Array || t.Kind == List || t.Kind == Bytes
}

// IsTemporal reports whether the type is a date/time type.
func (t Type) IsTemporal() bool {
	switch t.Kind {
	case DateTime, DateTimeOffset, Date:
		return true
	default:
		return false
	}
}

// IsInteger reports whether the type is an integral numeric type.
func (t Type) IsInteger() bool {
	return t.Kind == Int16 || t.Kind == Int32 || t.Kind == Int64
}

// ElementType returns the element type of a collection. It returns
// TypeUnknown for non-collections.
func (t Type) ElementType() Type {
	switch t.Kind {
	case Array, List:
		if t.Elem == nil {
			return TypeUnknown
		}

		return *t.Elem
	case Bytes:
		return TypeInt16
	default:
		return TypeUnknown
	}
}

// Equal reports whether two types are identical.
func (t Type) Equal(other Type) bool {
	if t.Kind != other.Kind {
		return false
	}

	if t.Elem == nil || other.Elem == nil {
		return t.Elem == other.Elem
	}

	return t.Elem.Equal(*other.Elem)
}

func (t Type) String() string {
	switch t.Kind {
	case Array, List:
		return fmt.Sprintf("%s<%s>", t.Kind, t.ElementType())
	default:
		return t.Kind.String()
	}
}

// Parse parses a host type name such as "int", "list<string>" or
// "array<list<int>>". Names are case-insensitive.
func Parse(name string) (Type, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return TypeUnknown, fmt.Errorf("%w: empty type name", pgxlate.ErrUnknownHostType)
	}

	if open := strings.IndexByte(s, '<'); open >= 0 {
		if !strings.HasSuffix(s, ">") {
			return TypeUnknown, fmt.Errorf("%w: unterminated type parameter in %q", pgxlate.ErrUnknownHostType, name)
		}

		elem, err := Parse(s[open+1 : len(s)-1])
		if err != nil {
			return TypeUnknown, err
		}

		switch strings.TrimSpace(s[:open]) {
		case "array":
			return ArrayOf(elem), nil
		case "list":
			return ListOf(elem), nil
		default:
			return TypeUnknown, fmt.Errorf("%w: type %q does not take a parameter", pgxlate.ErrUnknownHostType, s[:open])
		}
	}

	// "string[]" is shorthand for array<string>
	if elemName, ok := strings.CutSuffix(s, "[]"); ok {
		elem, err := Parse(elemName)
		if err != nil {
			return TypeUnknown, err
		}

		return ArrayOf(elem), nil
	}

	kind, ok := kindsByName[s]
	if !ok || kind == Array || kind == List {
		return TypeUnknown, fmt.Errorf("%w: %q", pgxlate.ErrUnknownHostType, name)
	}

	return Type{Kind: kind}, nil
}

// MustParse is like Parse but panics on error. It is meant for package-level
// catalog declarations.
func MustParse(name string) Type {
	t, err := Parse(name)
	if err != nil {
		panic(err)
	}

	return t
}

// Package typemap is the type mapping catalog: it pairs host value types with
// the dialect's store types and records whether storage is array-shaped,
// document-shaped (json/jsonb) or scalar.
//
// A Catalog is built once and is read-only afterwards, so it can be shared by
// any number of concurrent translation passes.
package typemap

import (
	"github.com/shibukawa/pgxlate/valtype"
)

// Shape describes how a store type lays out a value.
type Shape int

const (
	// ShapeScalar is a single value column, including byte strings.
	ShapeScalar Shape = iota
	// ShapeArray is a native ordered array (PostgreSQL ARRAY).
	ShapeArray
	// ShapeDocument is semi-structured storage such as json or jsonb.
	ShapeDocument
)

func (s Shape) String() string {
	switch s {
	case ShapeScalar:
		return "scalar"
	case ShapeArray:
		return "array"
	case ShapeDocument:
		return "document"
	default:
		return "unknown"
	}
}

// ParseShape parses the configuration spelling of a shape. The empty string
// means scalar.
func ParseShape(s string) (Shape, bool) {
	switch s {
	case "", "scalar":
		return ShapeScalar, true
	case "array":
		return ShapeArray, true
	case "document":
		return ShapeDocument, true
	default:
		return ShapeScalar, false
	}
}

// TypeMapping is the storage representation of a host type.
type TypeMapping struct {
	StoreType string
	Type      valtype.Type
	Shape     Shape
	Element   *TypeMapping // element mapping of an array
}

// IsArray reports whether storage is a native array. A nil mapping is not.
func (m *TypeMapping) IsArray() bool {
	return m != nil && m.Shape == ShapeArray
}

// IsDocument reports whether storage is a json/jsonb document.
func (m *TypeMapping) IsDocument() bool {
	return m != nil && m.Shape == ShapeDocument
}

// ElementMapping returns the element mapping of an array mapping, or nil.
func (m *TypeMapping) ElementMapping() *TypeMapping {
	if m == nil {
		return nil
	}

	return m.Element
}

// WithType returns a copy of the mapping that reports a different host type.
func (m *TypeMapping) WithType(t valtype.Type) *TypeMapping {
	clone := *m
	clone.Type = t

	return &clone
}

func (m *TypeMapping) String() string {
	if m == nil {
		return "<unmapped>"
	}

	return m.StoreType + " (" + m.Type.String() + ", " + m.Shape.String() + ")"
}

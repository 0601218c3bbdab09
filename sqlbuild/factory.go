// Package sqlbuild constructs well-formed sqlexpr nodes: it looks up function
// null propagation for the dialect and infers type mappings for operands that
// have none.
package sqlbuild

import (
	"fmt"

	"github.com/shibukawa/pgxlate"
	"github.com/shibukawa/pgxlate/sqlexpr"
	"github.com/shibukawa/pgxlate/typemap"
	"github.com/shibukawa/pgxlate/valtype"
)

// Factory builds expression nodes for one dialect. It holds only immutable
// collaborators and is safe for concurrent use.
type Factory struct {
	dialect pgxlate.Dialect
	catalog *typemap.Catalog
}

// NewFactory creates a factory. A nil catalog means typemap.Default().
func NewFactory(dialect pgxlate.Dialect, catalog *typemap.Catalog) *Factory {
	if catalog == nil {
		catalog = typemap.Default()
	}

	return &Factory{dialect: dialect, catalog: catalog}
}

// Dialect returns the target dialect.
func (f *Factory) Dialect() pgxlate.Dialect { return f.dialect }

// Catalog returns the type mapping catalog.
func (f *Factory) Catalog() *typemap.Catalog { return f.catalog }

// Supports reports whether the target dialect has the feature.
func (f *Factory) Supports(feature pgxlate.Feature) bool {
	return f.dialect.Supports(feature)
}

// Constant builds a literal. The mapping is left unset so that binary
// builders can infer it from the other operand; use ApplyDefaultTypeMapping
// to force the default.
func (f *Factory) Constant(value any, t valtype.Type) *sqlexpr.Constant {
	if value == nil && t.Kind == valtype.Unknown {
		t = valtype.TypeNull
	}

	return &sqlexpr.Constant{Typed: sqlexpr.Typed{ResultType: t}, Value: value}
}

// Column builds a column reference. A nil mapping falls back to the default
// mapping of t.
func (f *Factory) Column(table, name string, t valtype.Type, mapping *typemap.TypeMapping, nullable bool) *sqlexpr.Column {
	if mapping == nil {
		mapping = f.catalog.FindMapping(t)
	}

	return &sqlexpr.Column{
		Typed:    sqlexpr.Typed{ResultType: t, Mapping: mapping},
		Table:    table,
		Name:     name,
		Nullable: nullable,
	}
}

// Parameter builds a parameter reference. Like constants, parameters pick up
// a mapping from the expression they are compared with.
func (f *Factory) Parameter(name string, t valtype.Type) *sqlexpr.Parameter {
	return &sqlexpr.Parameter{Typed: sqlexpr.Typed{ResultType: t}, Name: name}
}

// Function builds a function call whose nullability comes from the dialect's
// function signature catalog. Unknown functions are treated as nullable and
// propagating every argument. An unknown resultType is taken from the
// signature's return type when it has one.
func (f *Factory) Function(name string, args []sqlexpr.Expr, resultType valtype.Type) *sqlexpr.FunctionCall {
	sig, ok := pgxlate.LookupFunction(f.dialect, name)
	if !ok {
		sig = pgxlate.FunctionSignature{Nullable: true, NullableByArg: true}
	}

	if resultType.Kind == valtype.Unknown && sig.ReturnType != "" {
		resultType = valtype.MustParse(sig.ReturnType)
	}

	return f.FunctionWithNullability(name, args, resultType, sig.Nullable, sig.Propagation(len(args)))
}

// FunctionWithNullability builds a function call with explicit nullability.
func (f *Factory) FunctionWithNullability(name string, args []sqlexpr.Expr, resultType valtype.Type, nullable bool, argNullability []bool) *sqlexpr.FunctionCall {
	if len(argNullability) != len(args) {
		panic(fmt.Sprintf("sqlbuild: %s has %d arguments but %d nullability flags", name, len(args), len(argNullability)))
	}

	return &sqlexpr.FunctionCall{
		Typed:          sqlexpr.Typed{ResultType: resultType, Mapping: f.catalog.FindMapping(resultType)},
		Name:           name,
		Args:           args,
		Nullable:       nullable,
		ArgNullability: argNullability,
	}
}

func (f *Factory) comparison(op sqlexpr.BinaryOp, left, right sqlexpr.Expr) *sqlexpr.Binary {
	left, right = f.inferPair(left, right)

	return &sqlexpr.Binary{
		Typed: sqlexpr.Typed{ResultType: valtype.TypeBool, Mapping: f.catalog.FindMapping(valtype.TypeBool)},
		Op:    op,
		Left:  left,
		Right: right,
	}
}

func (f *Factory) Equal(left, right sqlexpr.Expr) *sqlexpr.Binary {
	return f.comparison(sqlexpr.OpEqual, left, right)
}

func (f *Factory) NotEqual(left, right sqlexpr.Expr) *sqlexpr.Binary {
	return f.comparison(sqlexpr.OpNotEqual, left, right)
}

func (f *Factory) LessThan(left, right sqlexpr.Expr) *sqlexpr.Binary {
	return f.comparison(sqlexpr.OpLessThan, left, right)
}

func (f *Factory) LessThanOrEqual(left, right sqlexpr.Expr) *sqlexpr.Binary {
	return f.comparison(sqlexpr.OpLessThanOrEqual, left, right)
}

func (f *Factory) GreaterThan(left, right sqlexpr.Expr) *sqlexpr.Binary {
	return f.comparison(sqlexpr.OpGreaterThan, left, right)
}

func (f *Factory) GreaterThanOrEqual(left, right sqlexpr.Expr) *sqlexpr.Binary {
	return f.comparison(sqlexpr.OpGreaterThanOrEqual, left, right)
}

// Contains builds left @> right.
func (f *Factory) Contains(left, right sqlexpr.Expr) *sqlexpr.Binary {
	return f.comparison(sqlexpr.OpContains, left, right)
}

// And builds a conjunction.
func (f *Factory) And(left, right sqlexpr.Expr) *sqlexpr.Binary {
	return f.comparison(sqlexpr.OpAnd, left, right)
}

// Or builds a disjunction.
func (f *Factory) Or(left, right sqlexpr.Expr) *sqlexpr.Binary {
	return f.comparison(sqlexpr.OpOr, left, right)
}

func (f *Factory) arithmetic(op sqlexpr.BinaryOp, left, right sqlexpr.Expr) *sqlexpr.Binary {
	left, right = f.inferPair(left, right)

	result := left
	if left.Type().Kind == valtype.Unknown || left.Type().Kind == valtype.Null {
		result = right
	}

	return &sqlexpr.Binary{
		Typed: sqlexpr.Typed{ResultType: result.Type(), Mapping: result.TypeMapping()},
		Op:    op,
		Left:  left,
		Right: right,
	}
}

// Add builds left + right typed as the left operand.
func (f *Factory) Add(left, right sqlexpr.Expr) *sqlexpr.Binary {
	return f.arithmetic(sqlexpr.OpAdd, left, right)
}

// Subtract builds left - right typed as the left operand.
func (f *Factory) Subtract(left, right sqlexpr.Expr) *sqlexpr.Binary {
	return f.arithmetic(sqlexpr.OpSubtract, left, right)
}

// Multiply builds left * right typed as the left operand.
func (f *Factory) Multiply(left, right sqlexpr.Expr) *sqlexpr.Binary {
	return f.arithmetic(sqlexpr.OpMultiply, left, right)
}

// Divide builds left / right typed as the left operand.
func (f *Factory) Divide(left, right sqlexpr.Expr) *sqlexpr.Binary {
	return f.arithmetic(sqlexpr.OpDivide, left, right)
}

func (f *Factory) unary(op sqlexpr.UnaryOp, operand sqlexpr.Expr, t valtype.Type, mapping *typemap.TypeMapping) *sqlexpr.Unary {
	return &sqlexpr.Unary{Typed: sqlexpr.Typed{ResultType: t, Mapping: mapping}, Op: op, Operand: operand}
}

// Not builds NOT operand.
func (f *Factory) Not(operand sqlexpr.Expr) *sqlexpr.Unary {
	return f.unary(sqlexpr.OpNot, operand, valtype.TypeBool, f.catalog.FindMapping(valtype.TypeBool))
}

// Negate builds -operand.
func (f *Factory) Negate(operand sqlexpr.Expr) *sqlexpr.Unary {
	return f.unary(sqlexpr.OpNegate, operand, operand.Type(), operand.TypeMapping())
}

// IsNull builds operand IS NULL.
func (f *Factory) IsNull(operand sqlexpr.Expr) *sqlexpr.Unary {
	return f.unary(sqlexpr.OpIsNull, operand, valtype.TypeBool, f.catalog.FindMapping(valtype.TypeBool))
}

// IsNotNull builds operand IS NOT NULL.
func (f *Factory) IsNotNull(operand sqlexpr.Expr) *sqlexpr.Unary {
	return f.unary(sqlexpr.OpIsNotNull, operand, valtype.TypeBool, f.catalog.FindMapping(valtype.TypeBool))
}

// Convert builds CAST(operand AS store) where store comes from mapping, or
// from the default mapping of t when mapping is nil. Converting to a type the
// catalog cannot store is a programming error.
func (f *Factory) Convert(operand sqlexpr.Expr, t valtype.Type, mapping *typemap.TypeMapping) *sqlexpr.Cast {
	if mapping == nil {
		mapping = f.catalog.FindMapping(t)
	}

	if mapping == nil {
		panic(fmt.Sprintf("sqlbuild: no store type for %s on %s", t, f.dialect))
	}

	return &sqlexpr.Cast{
		Typed:     sqlexpr.Typed{ResultType: t, Mapping: mapping},
		Operand:   operand,
		StoreType: mapping.StoreType,
	}
}

// ArrayIndex builds array[index]. The index must already be one-based. The
// result is nullable because an out-of-range subscript yields NULL.
func (f *Factory) ArrayIndex(array, index sqlexpr.Expr, elemType valtype.Type) *sqlexpr.ArrayIndex {
	mapping := array.TypeMapping().ElementMapping()
	if mapping == nil {
		mapping = f.catalog.FindMapping(elemType)
	}

	return &sqlexpr.ArrayIndex{
		Typed:    sqlexpr.Typed{ResultType: elemType, Mapping: mapping},
		Array:    array,
		Index:    index,
		Nullable: true,
	}
}

// NewArray builds ARRAY[elements...]. Unmapped elements take the element
// mapping of the array mapping.
func (f *Factory) NewArray(elements []sqlexpr.Expr, t valtype.Type, mapping *typemap.TypeMapping) *sqlexpr.ArrayConstructor {
	if mapping == nil {
		mapping = f.catalog.FindMapping(t)
	}

	mapped := make([]sqlexpr.Expr, len(elements))
	for i, elem := range elements {
		mapped[i] = f.ApplyTypeMapping(elem, mapping.ElementMapping())
	}

	return &sqlexpr.ArrayConstructor{
		Typed:    sqlexpr.Typed{ResultType: t, Mapping: mapping},
		Elements: mapped,
	}
}

// Any builds item = ANY(array). An unmapped item takes the array's element
// mapping.
func (f *Factory) Any(item, array sqlexpr.Expr) *sqlexpr.AnyOperator {
	if array.TypeMapping() == nil {
		array = f.ApplyDefaultTypeMapping(array)
	}

	return &sqlexpr.AnyOperator{
		Typed: sqlexpr.Typed{ResultType: valtype.TypeBool, Mapping: f.catalog.FindMapping(valtype.TypeBool)},
		Item:  f.ApplyTypeMapping(item, array.TypeMapping().ElementMapping()),
		Array: array,
	}
}

// AtTimeZone builds operand AT TIME ZONE 'zone'.
func (f *Factory) AtTimeZone(operand sqlexpr.Expr, zone string, resultType valtype.Type) *sqlexpr.Binary {
	zoneExpr := f.ApplyDefaultTypeMapping(f.Constant(zone, valtype.TypeString))

	return &sqlexpr.Binary{
		Typed: sqlexpr.Typed{ResultType: resultType, Mapping: f.catalog.FindMapping(resultType)},
		Op:    sqlexpr.OpAtTimeZone,
		Left:  operand,
		Right: zoneExpr,
	}
}

// JSONElement builds doc -> key, or doc ->> key when asText is set. A nil
// mapping falls back to the default mapping of resultType.
func (f *Factory) JSONElement(doc, key sqlexpr.Expr, asText bool, resultType valtype.Type, mapping *typemap.TypeMapping) *sqlexpr.Binary {
	op := sqlexpr.OpJSONElement
	if asText {
		op = sqlexpr.OpJSONElementText
	}

	if mapping == nil {
		mapping = f.catalog.FindMapping(resultType)
	}

	return &sqlexpr.Binary{
		Typed: sqlexpr.Typed{ResultType: resultType, Mapping: mapping},
		Op:    op,
		Left:  doc,
		Right: f.ApplyDefaultTypeMapping(key),
	}
}

// InList builds item IN (values...), or NOT IN when negated. Mappings flow
// from the item to unmapped values, or from the first mapped value to an
// unmapped item.
func (f *Factory) InList(item sqlexpr.Expr, values []sqlexpr.Expr, negated bool) *sqlexpr.InList {
	mapping := item.TypeMapping()
	if mapping == nil {
		for _, v := range values {
			if mapping = v.TypeMapping(); mapping != nil {
				break
			}
		}
	}

	if mapping == nil {
		mapping = f.catalog.FindMapping(item.Type())
	}

	mapped := make([]sqlexpr.Expr, len(values))
	for i, v := range values {
		mapped[i] = f.ApplyTypeMapping(v, mapping)
	}

	return &sqlexpr.InList{
		Typed:   sqlexpr.Typed{ResultType: valtype.TypeBool, Mapping: f.catalog.FindMapping(valtype.TypeBool)},
		Item:    f.ApplyTypeMapping(item, mapping),
		Values:  mapped,
		Negated: negated,
	}
}

// ApplyDefaultTypeMapping sets the catalog's default mapping on an unmapped
// expression.
func (f *Factory) ApplyDefaultTypeMapping(expr sqlexpr.Expr) sqlexpr.Expr {
	if expr.TypeMapping() != nil {
		return expr
	}

	return f.ApplyTypeMapping(expr, f.catalog.FindMapping(expr.Type()))
}

// ApplyTypeMapping returns expr with mapping set when expr has none. The input
// node is never modified; a shallow copy carries the mapping.
func (f *Factory) ApplyTypeMapping(expr sqlexpr.Expr, mapping *typemap.TypeMapping) sqlexpr.Expr {
	if mapping == nil || expr.TypeMapping() != nil {
		return expr
	}

	switch e := expr.(type) {
	case *sqlexpr.Constant:
		c := *e
		c.Mapping = mapping

		return &c
	case *sqlexpr.Parameter:
		c := *e
		c.Mapping = mapping

		return &c
	case *sqlexpr.Column:
		c := *e
		c.Mapping = mapping

		return &c
	case *sqlexpr.FunctionCall:
		c := *e
		c.Mapping = mapping

		return &c
	case *sqlexpr.Binary:
		c := *e
		c.Mapping = mapping

		return &c
	case *sqlexpr.Unary:
		c := *e
		c.Mapping = mapping

		return &c
	case *sqlexpr.Cast:
		c := *e
		c.Mapping = mapping

		return &c
	case *sqlexpr.ArrayIndex:
		c := *e
		c.Mapping = mapping

		return &c
	case *sqlexpr.ArrayConstructor:
		return f.NewArray(e.Elements, e.Type(), mapping)
	case *sqlexpr.AnyOperator:
		c := *e
		c.Mapping = mapping

		return &c
	case *sqlexpr.InList:
		c := *e
		c.Mapping = mapping

		return &c
	default:
		return expr
	}
}

// inferPair pushes the mapping of one operand onto the other when only one
// side is mapped.
func (f *Factory) inferPair(left, right sqlexpr.Expr) (sqlexpr.Expr, sqlexpr.Expr) {
	switch {
	case left.TypeMapping() == nil && right.TypeMapping() != nil:
		left = f.ApplyTypeMapping(left, right.TypeMapping())
	case right.TypeMapping() == nil && left.TypeMapping() != nil:
		right = f.ApplyTypeMapping(right, left.TypeMapping())
	}

	return left, right
}

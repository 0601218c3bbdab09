// Package sqlexpr is the SQL expression model: a closed set of node variants
// that translators build and the printer renders as PostgreSQL.
//
// Expr is a sealed interface. Only types in this package implement it, so a
// type switch over the variants below is exhaustive.
//
// Variants:
//   - Column: a table column reference
//   - Constant: an inline literal (NULL when Value is nil)
//   - Parameter: a bound query parameter
//   - FunctionCall: a function with per-argument null propagation
//   - Binary, Unary: operators
//   - Cast: CAST(x AS store_type)
//   - ArrayIndex: one-based array subscript
//   - ArrayConstructor: ARRAY[...]
//   - AnyOperator: item = ANY(array)
//   - InList: item IN (...)
//
// Nodes are never mutated after construction.
package sqlexpr

import (
	"github.com/shibukawa/pgxlate/typemap"
	"github.com/shibukawa/pgxlate/valtype"
)

// Expr is a typed SQL expression.
type Expr interface {
	Type() valtype.Type
	TypeMapping() *typemap.TypeMapping
	exprNode() // Marker method - seals interface to this package
}

// Typed carries the host result type and the optional store type mapping
// shared by every variant.
type Typed struct {
	ResultType valtype.Type
	Mapping    *typemap.TypeMapping
}

func (t Typed) Type() valtype.Type { return t.ResultType }

func (t Typed) TypeMapping() *typemap.TypeMapping { return t.Mapping }

// BinaryOp is a binary operator spelled as PostgreSQL spells it.
type BinaryOp string

const (
	OpEqual              BinaryOp = "="
	OpNotEqual           BinaryOp = "<>"
	OpLessThan           BinaryOp = "<"
	OpLessThanOrEqual    BinaryOp = "<="
	OpGreaterThan        BinaryOp = ">"
	OpGreaterThanOrEqual BinaryOp = ">="
	OpAdd                BinaryOp = "+"
	OpSubtract           BinaryOp = "-"
	OpMultiply           BinaryOp = "*"
	OpDivide             BinaryOp = "/"
	OpAnd                BinaryOp = "AND"
	OpOr                 BinaryOp = "OR"
	OpContains           BinaryOp = "@>"
	OpContainedBy        BinaryOp = "<@"
	OpOverlap            BinaryOp = "&&"
	OpAtTimeZone         BinaryOp = "AT TIME ZONE"
	OpJSONElement        BinaryOp = "->"
	OpJSONElementText    BinaryOp = "->>"
)

// IsComparison reports whether the operator yields a boolean by comparing
// its operands.
func (op BinaryOp) IsComparison() bool {
	switch op {
	case OpEqual, OpNotEqual, OpLessThan, OpLessThanOrEqual, OpGreaterThan, OpGreaterThanOrEqual:
		return true
	default:
		return false
	}
}

// UnaryOp is a prefix or postfix operator.
type UnaryOp string

const (
	OpNot       UnaryOp = "NOT"
	OpNegate    UnaryOp = "-"
	OpIsNull    UnaryOp = "IS NULL"
	OpIsNotNull UnaryOp = "IS NOT NULL"
)

// Column references a table column.
type Column struct {
	Typed
	Table    string // optional qualifier
	Name     string
	Nullable bool
}

// Constant is an inline literal. A nil Value is SQL NULL.
type Constant struct {
	Typed
	Value any
}

// Parameter is a bound query parameter.
type Parameter struct {
	Typed
	Name string
}

// FunctionCall invokes a SQL function.
//
// Nullable reports whether the function can produce NULL at all.
// ArgNullability holds, per argument, whether a NULL argument forces a NULL
// result.
type FunctionCall struct {
	Typed
	Name           string
	Args           []Expr
	Nullable       bool
	ArgNullability []bool
}

// Binary applies a binary operator.
type Binary struct {
	Typed
	Op    BinaryOp
	Left  Expr
	Right Expr
}

// Unary applies NOT, negation or a null test.
type Unary struct {
	Typed
	Op      UnaryOp
	Operand Expr
}

// Cast converts Operand to StoreType.
type Cast struct {
	Typed
	Operand   Expr
	StoreType string
}

// ArrayIndex subscripts an array. Index is already one-based.
type ArrayIndex struct {
	Typed
	Array    Expr
	Index    Expr
	Nullable bool
}

// ArrayConstructor builds ARRAY[e1, e2, ...].
type ArrayConstructor struct {
	Typed
	Elements []Expr
}

// AnyOperator tests Item = ANY(Array).
type AnyOperator struct {
	Typed
	Item  Expr
	Array Expr
}

// InList tests Item IN (Values...).
type InList struct {
	Typed
	Item    Expr
	Values  []Expr
	Negated bool
}

func (*Column) exprNode()           {}
func (*Constant) exprNode()         {}
func (*Parameter) exprNode()        {}
func (*FunctionCall) exprNode()     {}
func (*Binary) exprNode()           {}
func (*Unary) exprNode()            {}
func (*Cast) exprNode()             {}
func (*ArrayIndex) exprNode()       {}
func (*ArrayConstructor) exprNode() {}
func (*AnyOperator) exprNode()      {}
func (*InList) exprNode()           {}

// IsNullConstant reports whether expr is the NULL literal.
func IsNullConstant(expr Expr) bool {
	c, ok := expr.(*Constant)
	return ok && c.Value == nil
}

// IsNullable reports whether expr can evaluate to NULL.
//
// A function that propagates every argument is nullable only through a
// nullable argument; a function with at least one non-propagating argument
// is nullable whenever Nullable is set.
func IsNullable(expr Expr) bool {
	switch e := expr.(type) {
	case nil:
		return false
	case *Column:
		return e.Nullable
	case *Constant:
		return e.Value == nil
	case *Parameter:
		return true
	case *FunctionCall:
		if !e.Nullable {
			return false
		}

		if len(e.ArgNullability) != len(e.Args) || len(e.Args) == 0 {
			return true
		}

		for i, propagates := range e.ArgNullability {
			if !propagates {
				return true
			}

			if IsNullable(e.Args[i]) {
				return true
			}
		}

		return false
	case *Binary:
		return IsNullable(e.Left) || IsNullable(e.Right)
	case *Unary:
		if e.Op == OpIsNull || e.Op == OpIsNotNull {
			return false
		}

		return IsNullable(e.Operand)
	case *Cast:
		return IsNullable(e.Operand)
	case *ArrayIndex:
		return e.Nullable
	case *ArrayConstructor:
		return false
	case *AnyOperator:
		return IsNullable(e.Item) || IsNullable(e.Array)
	case *InList:
		if IsNullable(e.Item) {
			return true
		}

		for _, v := range e.Values {
			if IsNullable(v) {
				return true
			}
		}

		return false
	default:
		return true
	}
}

// Children returns the direct operands of expr in evaluation order.
func Children(expr Expr) []Expr {
	switch e := expr.(type) {
	case *FunctionCall:
		return e.Args
	case *Binary:
		return []Expr{e.Left, e.Right}
	case *Unary:
		return []Expr{e.Operand}
	case *Cast:
		return []Expr{e.Operand}
	case *ArrayIndex:
		return []Expr{e.Array, e.Index}
	case *ArrayConstructor:
		return e.Elements
	case *AnyOperator:
		return []Expr{e.Item, e.Array}
	case *InList:
		return append([]Expr{e.Item}, e.Values...)
	default:
		return nil
	}
}

// Walk calls fn for expr and each descendant, depth first. Returning false
// skips the children of that node.
func Walk(expr Expr, fn func(Expr) bool) {
	if expr == nil || !fn(expr) {
		return
	}

	for _, child := range Children(expr) {
		Walk(child, fn)
	}
}

package sqlexpr

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shibukawa/pgxlate/valtype"
)

func TestIsNullable(t *testing.T) {
	notNullCol := &Column{Name: "a"}
	nullCol := &Column{Name: "b", Nullable: true}

	tests := []struct {
		name     string
		expr     Expr
		expected bool
	}{
		{"non-nullable column", notNullCol, false},
		{"nullable column", nullCol, true},
		{"null constant", &Constant{}, true},
		{"value constant", &Constant{Value: 1}, false},
		{"parameter", &Parameter{Name: "p"}, true},
		{"non-nullable function", &FunctionCall{Name: "now"}, false},
		{
			"propagating function over non-nullable argument",
			&FunctionCall{Name: "cardinality", Args: []Expr{notNullCol}, Nullable: true, ArgNullability: []bool{true}},
			false,
		},
		{
			"propagating function over nullable argument",
			&FunctionCall{Name: "cardinality", Args: []Expr{nullCol}, Nullable: true, ArgNullability: []bool{true}},
			true,
		},
		{
			"non-propagating function",
			&FunctionCall{Name: "array_position", Args: []Expr{notNullCol, &Constant{Value: 1}}, Nullable: true, ArgNullability: []bool{false, false}},
			true,
		},
		{"binary", &Binary{Op: OpEqual, Left: notNullCol, Right: nullCol}, true},
		{"is null", &Unary{Op: OpIsNull, Operand: nullCol}, false},
		{"not", &Unary{Op: OpNot, Operand: nullCol}, true},
		{"cast", &Cast{Operand: notNullCol, StoreType: "int"}, false},
		{"array index", &ArrayIndex{Array: notNullCol, Index: &Constant{Value: 1}, Nullable: true}, true},
		{"array constructor", &ArrayConstructor{Elements: []Expr{&Constant{}}}, false},
		{"any", &AnyOperator{Item: notNullCol, Array: notNullCol}, false},
		{"in list with null", &InList{Item: notNullCol, Values: []Expr{&Constant{}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsNullable(tt.expr))
		})
	}
}

func TestWalk(t *testing.T) {
	expr := &Binary{
		Op:    OpAnd,
		Left:  &Unary{Op: OpIsNull, Operand: &Column{Name: "a"}},
		Right: &FunctionCall{Name: "f", Args: []Expr{&Parameter{Name: "p"}, &Constant{Value: 1}}},
	}

	var names []string

	Walk(expr, func(e Expr) bool {
		switch n := e.(type) {
		case *Column:
			names = append(names, n.Name)
		case *Parameter:
			names = append(names, "@"+n.Name)
		case *FunctionCall:
			names = append(names, n.Name+"()")
		}

		return true
	})

	assert.Equal(t, []string{"a", "f()", "@p"}, names)

	count := 0

	Walk(expr, func(e Expr) bool {
		count++
		_, isCall := e.(*FunctionCall)

		return !isCall
	})

	// binary, unary, column, function; the call's arguments are skipped
	assert.Equal(t, 4, count)
}

func TestDescribe(t *testing.T) {
	expr := &Cast{
		Typed:     Typed{ResultType: valtype.TypeInt32},
		StoreType: "int",
		Operand: &FunctionCall{
			Typed: Typed{ResultType: valtype.TypeFloat64},
			Name:  "date_part",
			Args: []Expr{
				&Constant{Typed: Typed{ResultType: valtype.TypeString}, Value: "year"},
				&Column{Typed: Typed{ResultType: valtype.TypeDateTime}, Name: "created_at"},
			},
			Nullable:       true,
			ArgNullability: []bool{true, true},
		},
	}

	node := Describe(expr)
	assert.Equal(t, "cast", node.Kind)
	assert.Equal(t, "int", node.Detail)
	assert.Equal(t, "int", node.Type)
	assert.False(t, node.Nullable)
	assert.Equal(t, 1, len(node.Children))

	call := node.Children[0]
	assert.Equal(t, "function", call.Kind)
	assert.Equal(t, "date_part", call.Detail)
	assert.Equal(t, "double", call.Type)
	assert.Equal(t, "'year'", call.Children[0].Detail)
	assert.Equal(t, "created_at", call.Children[1].Detail)

	assert.Zero(t, Describe(nil))
}

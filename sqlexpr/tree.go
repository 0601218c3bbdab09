package sqlexpr

import (
	"fmt"
)

// Node is a serializable view of an expression tree, used for debugging
// output.
type Node struct {
	Kind      string  `json:"kind" yaml:"kind"`
	Detail    string  `json:"detail,omitempty" yaml:"detail,omitempty"`
	Type      string  `json:"type" yaml:"type"`
	StoreType string  `json:"storeType,omitempty" yaml:"storeType,omitempty"`
	Nullable  bool    `json:"nullable" yaml:"nullable"`
	Children  []*Node `json:"children,omitempty" yaml:"children,omitempty"`
}

// Describe converts expr into a Node tree.
func Describe(expr Expr) *Node {
	if expr == nil {
		return nil
	}

	node := &Node{
		Type:      expr.Type().String(),
		StoreType: storeTypeOf(expr),
		Nullable:  IsNullable(expr),
	}

	switch e := expr.(type) {
	case *Column:
		node.Kind = "column"
		node.Detail = e.Name
	case *Constant:
		node.Kind = "constant"
		node.Detail = FormatValue(e.Value, e.Type(), node.StoreType)
	case *Parameter:
		node.Kind = "parameter"
		node.Detail = e.Name
	case *FunctionCall:
		node.Kind = "function"
		node.Detail = e.Name
	case *Binary:
		node.Kind = "binary"
		node.Detail = string(e.Op)
	case *Unary:
		node.Kind = "unary"
		node.Detail = string(e.Op)
	case *Cast:
		node.Kind = "cast"
		node.Detail = e.StoreType
	case *ArrayIndex:
		node.Kind = "arrayIndex"
	case *ArrayConstructor:
		node.Kind = "array"
	case *AnyOperator:
		node.Kind = "any"
	case *InList:
		node.Kind = "in"
		if e.Negated {
			node.Detail = "NOT"
		}
	default:
		node.Kind = fmt.Sprintf("%T", expr)
	}

	for _, child := range Children(expr) {
		node.Children = append(node.Children, Describe(child))
	}

	return node
}

// Package arrays translates operations on collection values stored as native
// PostgreSQL arrays: indexing, length, emptiness tests, membership tests and
// sequence equality.
//
// Receivers stored as json/jsonb documents are handed to a DocumentTranslator
// for element access and length and are otherwise declined. Receivers whose
// mapping is scalar (bytea for a byte sequence) are always declined.
package arrays

import (
	"fmt"
	"math"
	"math/big"

	"github.com/shibukawa/pgxlate"
	"github.com/shibukawa/pgxlate/sqlbuild"
	"github.com/shibukawa/pgxlate/sqlexpr"
	"github.com/shibukawa/pgxlate/translate/ops"
	"github.com/shibukawa/pgxlate/valtype"
	"github.com/shopspring/decimal"
)

// DocumentTranslator lowers collection access on document-shaped storage.
type DocumentTranslator interface {
	TranslateElementAccess(instance, index sqlexpr.Expr, elemType valtype.Type) (sqlexpr.Expr, bool)
	TranslateArrayLength(instance sqlexpr.Expr) (sqlexpr.Expr, bool)
}

// Translator is the collection operation translator.
type Translator struct {
	factory   *sqlbuild.Factory
	documents DocumentTranslator
}

// New creates a translator. documents may be nil, in which case document
// receivers are declined.
func New(factory *sqlbuild.Factory, documents DocumentTranslator) *Translator {
	return &Translator{factory: factory, documents: documents}
}

// Translate lowers a collection method call.
func (t *Translator) Translate(instance sqlexpr.Expr, method *ops.MethodDescriptor, args []sqlexpr.Expr) (sqlexpr.Expr, bool) {
	if method == nil || method.HasPredicate || !t.factory.Supports(pgxlate.FeatureArray) {
		return nil, false
	}

	switch method.DeclaringType {
	case ops.TypeList, ops.TypeArray, ops.TypeEnumerable:
	default:
		return nil, false
	}

	if method.Static {
		// Enumerable.X(source, rest...) becomes source.X(rest...)
		if instance != nil || len(args) == 0 || !args[0].Type().IsCollection() {
			return nil, false
		}

		instance, args = args[0], args[1:]
	} else if instance == nil {
		return nil, false
	}

	if len(args) != method.Arity-boolToInt(method.Static) {
		return nil, false
	}

	switch method.Method {
	case ops.MethodGetItem, ops.MethodElementAt:
		elemType := method.ResultType
		if elemType.Kind == valtype.Unknown {
			elemType = instance.Type().ElementType()
		}

		return t.elementAt(instance, args[0], elemType)
	case ops.MethodSequenceEqual:
		if !isArrayLike(instance) || !isArrayLike(args[0]) {
			return nil, false
		}

		return t.factory.Equal(instance, args[0]), true
	case ops.MethodCount:
		return t.length(instance)
	case ops.MethodAny:
		length, ok := t.length(instance)
		if !ok {
			return nil, false
		}

		return t.factory.GreaterThan(length, t.factory.Constant(0, valtype.TypeInt32)), true
	case ops.MethodContains:
		return t.contains(instance, args[0])
	default:
		return nil, false
	}
}

// TranslateMember lowers List.Count and Array.Length.
func (t *Translator) TranslateMember(instance sqlexpr.Expr, member *ops.MemberDescriptor, resultType valtype.Type) (sqlexpr.Expr, bool) {
	if member == nil || instance == nil || !t.factory.Supports(pgxlate.FeatureArray) {
		return nil, false
	}

	switch {
	case member.DeclaringType == ops.TypeList && member.Member == ops.MemberCount,
		member.DeclaringType == ops.TypeArray && member.Member == ops.MemberLength:
		return t.length(instance)
	default:
		return nil, false
	}
}

func (t *Translator) elementAt(instance, index sqlexpr.Expr, elemType valtype.Type) (sqlexpr.Expr, bool) {
	if instance.TypeMapping().IsDocument() {
		if t.documents == nil {
			return nil, false
		}

		return t.documents.TranslateElementAccess(instance, index, elemType)
	}

	if !isArrayLike(instance) {
		return nil, false
	}

	return t.factory.ArrayIndex(instance, t.oneBased(index), elemType), true
}

func (t *Translator) length(instance sqlexpr.Expr) (sqlexpr.Expr, bool) {
	if instance.TypeMapping().IsDocument() {
		if t.documents == nil {
			return nil, false
		}

		return t.documents.TranslateArrayLength(instance)
	}

	if !isArrayLike(instance) {
		return nil, false
	}

	return t.factory.Function("cardinality", []sqlexpr.Expr{instance}, valtype.TypeUnknown), true
}

func (t *Translator) contains(instance, item sqlexpr.Expr) (sqlexpr.Expr, bool) {
	if !isArrayLike(instance) {
		return nil, false
	}

	switch receiver := instance.(type) {
	case *sqlexpr.Column:
		// col @> ARRAY[NULL] is never true, so a NULL item is searched by position
		if sqlexpr.IsNullConstant(item) {
			item = t.factory.ApplyTypeMapping(item, receiver.TypeMapping().ElementMapping())
			position := t.factory.Function("array_position", []sqlexpr.Expr{receiver, item}, valtype.TypeUnknown)

			return t.factory.IsNotNull(position), true
		}

		array := t.factory.NewArray([]sqlexpr.Expr{item}, receiver.Type(), receiver.TypeMapping())

		return t.factory.Contains(receiver, array), true
	case *sqlexpr.Constant:
		// left to the generic IN-list handling
		return nil, false
	default:
		return t.factory.Any(item, instance), true
	}
}

// oneBased converts a zero-based host index into a PostgreSQL subscript.
// Constants are folded; anything else gets an explicit + 1.
func (t *Translator) oneBased(index sqlexpr.Expr) sqlexpr.Expr {
	if c, ok := index.(*sqlexpr.Constant); ok {
		return &sqlexpr.Constant{Typed: c.Typed, Value: incrementIndex(c.Value)}
	}

	return t.factory.Add(index, t.factory.Constant(1, valtype.TypeInt32))
}

// incrementIndex adds one to an integral constant, keeping its Go type.
// A value at the top of its type's range is widened to int64, or to a
// decimal past int64. Anything else means the expression tree was built wrong.
func incrementIndex(value any) any {
	switch v := value.(type) {
	case int:
		if v == math.MaxInt {
			return decimal.NewFromInt(int64(v)).Add(decimal.NewFromInt(1))
		}

		return v + 1
	case int8:
		if v == math.MaxInt8 {
			return int64(v) + 1
		}

		return v + 1
	case int16:
		if v == math.MaxInt16 {
			return int64(v) + 1
		}

		return v + 1
	case int32:
		if v == math.MaxInt32 {
			return int64(v) + 1
		}

		return v + 1
	case int64:
		if v == math.MaxInt64 {
			return decimal.NewFromInt(v).Add(decimal.NewFromInt(1))
		}

		return v + 1
	case uint:
		return incrementUnsigned(uint64(v), uint64(math.MaxUint), func(n uint64) any { return uint(n) })
	case uint8:
		return incrementUnsigned(uint64(v), math.MaxUint8, func(n uint64) any { return uint8(n) })
	case uint16:
		return incrementUnsigned(uint64(v), math.MaxUint16, func(n uint64) any { return uint16(n) })
	case uint32:
		return incrementUnsigned(uint64(v), math.MaxUint32, func(n uint64) any { return uint32(n) })
	case uint64:
		return incrementUnsigned(v, math.MaxUint64, func(n uint64) any { return n })
	case decimal.Decimal:
		if v.IsInteger() {
			return v.Add(decimal.NewFromInt(1))
		}
	case nil:
		panic(fmt.Errorf("%w: array index is NULL", pgxlate.ErrMalformedConstant))
	}

	panic(fmt.Errorf("%w: array index %v (%T) is not an integer", pgxlate.ErrMalformedConstant, value, value))
}

func incrementUnsigned(v, limit uint64, same func(uint64) any) any {
	switch {
	case v < limit:
		return same(v + 1)
	case v < math.MaxInt64:
		return int64(v) + 1
	default:
		return decimal.NewFromBigInt(new(big.Int).Add(new(big.Int).SetUint64(v), big.NewInt(1)), 0)
	}
}

// isArrayLike reports whether expr is a collection stored as a native array,
// or an unmapped list/array whose storage is decided later.
func isArrayLike(expr sqlexpr.Expr) bool {
	mapping := expr.TypeMapping()
	if mapping == nil {
		kind := expr.Type().Kind
		return kind == valtype.Array || kind == valtype.List
	}

	return mapping.IsArray() && expr.Type().IsCollection()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}

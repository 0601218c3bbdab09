// Package jsondoc translates collection access on values stored as json or
// jsonb documents.
package jsondoc

import (
	"github.com/shibukawa/pgxlate"
	"github.com/shibukawa/pgxlate/sqlbuild"
	"github.com/shibukawa/pgxlate/sqlexpr"
	"github.com/shibukawa/pgxlate/translate/ops"
	"github.com/shibukawa/pgxlate/valtype"
)

// Translator is the nested-document translator. It satisfies
// arrays.DocumentTranslator and can also sit in a dispatcher on its own.
type Translator struct {
	factory *sqlbuild.Factory
}

func New(factory *sqlbuild.Factory) *Translator {
	return &Translator{factory: factory}
}

func (t *Translator) accepts(instance sqlexpr.Expr) bool {
	return instance != nil && instance.TypeMapping().IsDocument() && t.factory.Supports(pgxlate.FeatureJson)
}

// TranslateElementAccess lowers doc[index]. JSON arrays are zero-based, so the
// index is passed through unchanged.
func (t *Translator) TranslateElementAccess(instance, index sqlexpr.Expr, elemType valtype.Type) (sqlexpr.Expr, bool) {
	if !t.accepts(instance) || index == nil || !isIndexType(index.Type()) {
		return nil, false
	}

	switch {
	case elemType.Kind == valtype.Bytes, elemType.Kind == valtype.Unknown:
		return nil, false
	case elemType.IsCollection(), elemType.Kind == valtype.Document:
		// the element is itself a document, of the same store type
		mapping := instance.TypeMapping().WithType(elemType)
		return t.factory.JSONElement(instance, index, false, elemType, mapping), true
	}

	mapping := t.factory.Catalog().FindMapping(elemType)
	if mapping == nil {
		return nil, false
	}

	if elemType.Kind == valtype.String {
		return t.factory.JSONElement(instance, index, true, elemType, mapping), true
	}

	text := t.factory.JSONElement(instance, index, true, valtype.TypeString, nil)

	return t.factory.Convert(text, elemType, mapping), true
}

// TranslateArrayLength lowers the length of a document array.
func (t *Translator) TranslateArrayLength(instance sqlexpr.Expr) (sqlexpr.Expr, bool) {
	if !t.accepts(instance) {
		return nil, false
	}

	name := "jsonb_array_length"
	if instance.TypeMapping().StoreType == "json" {
		name = "json_array_length"
	}

	return t.factory.Function(name, []sqlexpr.Expr{instance}, valtype.TypeUnknown), true
}

// Translate lowers indexing and predicate-less Count over a document.
func (t *Translator) Translate(instance sqlexpr.Expr, method *ops.MethodDescriptor, args []sqlexpr.Expr) (sqlexpr.Expr, bool) {
	if method == nil || method.HasPredicate {
		return nil, false
	}

	if method.Static {
		if instance != nil || len(args) == 0 {
			return nil, false
		}

		instance, args = args[0], args[1:]
	}

	if !t.accepts(instance) {
		return nil, false
	}

	switch method.Method {
	case ops.MethodGetItem, ops.MethodElementAt:
		if len(args) != 1 {
			return nil, false
		}

		elemType := method.ResultType
		if elemType.Kind == valtype.Unknown {
			elemType = instance.Type().ElementType()
		}

		return t.TranslateElementAccess(instance, args[0], elemType)
	case ops.MethodCount:
		if len(args) != 0 {
			return nil, false
		}

		return t.TranslateArrayLength(instance)
	default:
		return nil, false
	}
}

// TranslateMember lowers List.Count and Array.Length over a document.
func (t *Translator) TranslateMember(instance sqlexpr.Expr, member *ops.MemberDescriptor, resultType valtype.Type) (sqlexpr.Expr, bool) {
	if member == nil {
		return nil, false
	}

	if member.Member != ops.MemberCount && member.Member != ops.MemberLength {
		return nil, false
	}

	if member.DeclaringType != ops.TypeList && member.DeclaringType != ops.TypeArray {
		return nil, false
	}

	return t.TranslateArrayLength(instance)
}

func isIndexType(t valtype.Type) bool {
	return t.IsInteger() || t.Kind == valtype.Unknown
}

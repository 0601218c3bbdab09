// Package celquery compiles CEL predicates written against a configured
// table into SQL expression trees. Collection indexing, sizes, membership
// and date/time members are not lowered here: they are handed to a
// translator as method and member operations, so the same rewrite rules
// apply as for any other query front end.
package celquery

import (
	"fmt"
	"math"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/operators"
	"github.com/google/cel-go/common/overloads"
	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"

	"github.com/shibukawa/pgxlate"
	"github.com/shibukawa/pgxlate/sqlbuild"
	"github.com/shibukawa/pgxlate/sqlexpr"
	"github.com/shibukawa/pgxlate/translate"
	"github.com/shibukawa/pgxlate/translate/ops"
	"github.com/shibukawa/pgxlate/valtype"
)

// Translator resolves method calls and member accesses. *translate.Dispatcher
// implements it.
type Translator interface {
	translate.MethodCallTranslator
	translate.MemberTranslator
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithParameter declares a query parameter that expressions may reference by
// name.
func WithParameter(name string, t valtype.Type) Option {
	return func(c *Compiler) {
		c.params[name] = t
	}
}

// WithParamStyle selects the placeholder style used by CompileSQL. The
// default is sqlexpr.ParamDollar.
func WithParamStyle(style sqlexpr.ParamStyle) Option {
	return func(c *Compiler) {
		c.printer.ParamStyle = style
	}
}

// Compiler lowers CEL source into sqlexpr trees. A Compiler is immutable
// after construction and safe for concurrent use.
type Compiler struct {
	env        *cel.Env
	table      *pgxlate.TableInfo
	factory    *sqlbuild.Factory
	translator Translator
	columns    map[string]*sqlexpr.Column
	params     map[string]valtype.Type
	printer    sqlexpr.Printer
}

// NewCompiler creates a compiler for expressions over table. Column types are
// resolved through the factory's type mapping catalog.
func NewCompiler(table *pgxlate.TableInfo, translator Translator, factory *sqlbuild.Factory, opts ...Option) (*Compiler, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: no table", pgxlate.ErrUnknownTable)
	}

	c := &Compiler{
		table:      table,
		factory:    factory,
		translator: translator,
		columns:    make(map[string]*sqlexpr.Column, len(table.Columns)),
		params:     make(map[string]valtype.Type),
		printer:    sqlexpr.Printer{ParamStyle: sqlexpr.ParamDollar},
	}

	for _, opt := range opts {
		opt(c)
	}

	qualifier := table.Alias

	for _, key := range table.ColumnNames() {
		col := table.Columns[key]
		if col == nil {
			return nil, fmt.Errorf("%w: column %s.%s has no definition", pgxlate.ErrConfigValidation, table.Name, key)
		}

		mapping, err := factory.Catalog().ForColumn(col.DataType, col.HostType)
		if err != nil {
			return nil, fmt.Errorf("column %s.%s: %w", table.Name, key, err)
		}

		name := col.Name
		if name == "" {
			name = key
		}

		c.columns[key] = factory.Column(qualifier, name, mapping.Type, mapping, col.Nullable)
	}

	for name := range c.params {
		if _, ok := c.columns[name]; ok {
			return nil, fmt.Errorf("%w: parameter %q shadows a column of %s", pgxlate.ErrConfigValidation, name, table.Name)
		}
	}

	env, err := cel.NewEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	c.env = env

	return c, nil
}

// Compile parses src and lowers it into an expression tree.
func (c *Compiler) Compile(src string) (sqlexpr.Expr, error) {
	ast, issues := c.env.Parse(src)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to parse expression: %w", issues.Err())
	}

	parsed, err := cel.AstToParsedExpr(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to read expression: %w", err)
	}

	return c.lower(parsed.GetExpr())
}

// CompileSQL compiles src and renders it. params lists the parameter names in
// placeholder order.
func (c *Compiler) CompileSQL(src string) (sql string, params []string, err error) {
	expr, err := c.Compile(src)
	if err != nil {
		return "", nil, err
	}

	sql, params = c.Render(expr)

	return sql, params, nil
}

// Render prints an expression returned by Compile with the configured
// placeholder style.
func (c *Compiler) Render(expr sqlexpr.Expr) (sql string, params []string) {
	return c.printer.Print(expr)
}

// Table returns the table the compiler resolves identifiers against.
func (c *Compiler) Table() *pgxlate.TableInfo {
	return c.table
}

func (c *Compiler) lower(e *exprpb.Expr) (sqlexpr.Expr, error) {
	switch e.GetExprKind().(type) {
	case *exprpb.Expr_ConstExpr:
		return c.constant(e.GetConstExpr())
	case *exprpb.Expr_IdentExpr:
		return c.ident(e.GetIdentExpr().GetName())
	case *exprpb.Expr_ListExpr:
		return c.list(e.GetListExpr().GetElements())
	case *exprpb.Expr_CallExpr:
		return c.call(e.GetCallExpr())
	case *exprpb.Expr_SelectExpr:
		return nil, fmt.Errorf("%w: field selection .%s", pgxlate.ErrUnsupportedExpression, e.GetSelectExpr().GetField())
	case *exprpb.Expr_ComprehensionExpr:
		return nil, fmt.Errorf("%w: comprehension macros", pgxlate.ErrUnsupportedExpression)
	case *exprpb.Expr_StructExpr:
		return nil, fmt.Errorf("%w: map and message literals", pgxlate.ErrUnsupportedExpression)
	default:
		return nil, fmt.Errorf("%w: empty expression", pgxlate.ErrUnsupportedExpression)
	}
}

func (c *Compiler) constant(k *exprpb.Constant) (sqlexpr.Expr, error) {
	switch v := k.GetConstantKind().(type) {
	case *exprpb.Constant_NullValue:
		return c.factory.Constant(nil, valtype.TypeNull), nil
	case *exprpb.Constant_BoolValue:
		return c.factory.Constant(v.BoolValue, valtype.TypeBool), nil
	case *exprpb.Constant_Int64Value:
		return c.factory.Constant(v.Int64Value, valtype.TypeInt64), nil
	case *exprpb.Constant_Uint64Value:
		if v.Uint64Value > math.MaxInt64 {
			return nil, fmt.Errorf("%w: %du is out of bigint range", pgxlate.ErrUnsupportedExpression, v.Uint64Value)
		}

		return c.factory.Constant(int64(v.Uint64Value), valtype.TypeInt64), nil
	case *exprpb.Constant_DoubleValue:
		return c.factory.Constant(v.DoubleValue, valtype.TypeFloat64), nil
	case *exprpb.Constant_StringValue:
		return c.factory.Constant(v.StringValue, valtype.TypeString), nil
	case *exprpb.Constant_BytesValue:
		return c.factory.Constant(v.BytesValue, valtype.TypeBytes), nil
	default:
		return nil, fmt.Errorf("%w: literal %v", pgxlate.ErrUnsupportedExpression, k)
	}
}

func (c *Compiler) ident(name string) (sqlexpr.Expr, error) {
	if col, ok := c.columns[name]; ok {
		return col, nil
	}

	if t, ok := c.params[name]; ok {
		return c.factory.Parameter(name, t), nil
	}

	return nil, fmt.Errorf("%w: %s.%s", pgxlate.ErrUnknownColumn, c.table.Name, name)
}

// list lowers a list literal. A literal made only of constants becomes one
// constant so that membership tests over it can fall back to IN.
func (c *Compiler) list(elements []*exprpb.Expr) (sqlexpr.Expr, error) {
	items, err := c.lowerAll(elements)
	if err != nil {
		return nil, err
	}

	elemType := valtype.TypeUnknown
	allConstant := true

	for _, item := range items {
		if elemType.Kind == valtype.Unknown && item.Type().Kind != valtype.Null {
			elemType = item.Type()
		}

		if _, ok := item.(*sqlexpr.Constant); !ok {
			allConstant = false
		}
	}

	listType := valtype.ListOf(elemType)

	if allConstant {
		values := make([]any, len(items))
		for i, item := range items {
			values[i] = item.(*sqlexpr.Constant).Value
		}

		return c.factory.Constant(values, listType), nil
	}

	return c.factory.NewArray(items, listType, nil), nil
}

func (c *Compiler) call(call *exprpb.Expr_Call) (sqlexpr.Expr, error) {
	fn := call.GetFunction()

	if call.GetTarget() != nil {
		target, err := c.lower(call.GetTarget())
		if err != nil {
			return nil, err
		}

		args, err := c.lowerAll(call.GetArgs())
		if err != nil {
			return nil, err
		}

		return c.memberCall(fn, target, args)
	}

	switch fn {
	case operators.Conditional, operators.Modulo:
		return nil, fmt.Errorf("%w: operator %s", pgxlate.ErrUnsupportedExpression, fn)
	}

	args, err := c.lowerAll(call.GetArgs())
	if err != nil {
		return nil, err
	}

	switch fn {
	case operators.LogicalNot:
		return c.factory.Not(args[0]), nil
	case operators.Negate:
		return c.factory.Negate(args[0]), nil
	case operators.LogicalAnd:
		return c.factory.And(args[0], args[1]), nil
	case operators.LogicalOr:
		return c.factory.Or(args[0], args[1]), nil
	case operators.Equals, operators.NotEquals:
		return c.equality(fn == operators.Equals, args[0], args[1]), nil
	case operators.Less:
		return c.factory.LessThan(args[0], args[1]), nil
	case operators.LessEquals:
		return c.factory.LessThanOrEqual(args[0], args[1]), nil
	case operators.Greater:
		return c.factory.GreaterThan(args[0], args[1]), nil
	case operators.GreaterEquals:
		return c.factory.GreaterThanOrEqual(args[0], args[1]), nil
	case operators.Add:
		return c.factory.Add(args[0], args[1]), nil
	case operators.Subtract:
		return c.factory.Subtract(args[0], args[1]), nil
	case operators.Multiply:
		return c.factory.Multiply(args[0], args[1]), nil
	case operators.Divide:
		return c.factory.Divide(args[0], args[1]), nil
	case operators.Index:
		return c.index(args[0], args[1])
	case operators.In:
		return c.in(args[0], args[1])
	case overloads.Size:
		if len(args) != 1 {
			return nil, arityError(fn, 1, len(args))
		}

		return c.size(args[0])
	case "sequenceEqual":
		if len(args) != 2 {
			return nil, arityError(fn, 2, len(args))
		}

		return c.method(nil, ops.EnumerableSequenceEqual, args)
	case "now", "utcNow", "today":
		if len(args) != 0 {
			return nil, arityError(fn, 0, len(args))
		}

		member, _ := ops.LookupMember(string(ops.TypeDateTime), fn)

		return c.member(nil, member)
	case overloads.TypeConvertTimestamp, overloads.TypeConvertDuration:
		return c.temporalLiteral(fn, args)
	default:
		return nil, fmt.Errorf("%w: function %s", pgxlate.ErrUnsupportedExpression, fn)
	}
}

// memberCall handles receiver-style calls such as tags.contains(x) and
// created_at.year().
func (c *Compiler) memberCall(fn string, target sqlexpr.Expr, args []sqlexpr.Expr) (sqlexpr.Expr, error) {
	t := target.Type()

	switch {
	case fn == overloads.Size:
		if len(args) != 0 {
			return nil, arityError(fn, 0, len(args))
		}

		return c.size(target)
	case t.Kind == valtype.List || t.Kind == valtype.Array:
		switch fn {
		case "contains":
			if len(args) != 1 {
				return nil, arityError(fn, 1, len(args))
			}

			if t.Kind == valtype.List {
				return c.method(target, ops.ListContains, args)
			}

			return c.method(nil, ops.EnumerableContains, []sqlexpr.Expr{target, args[0]})
		case "any", "count":
			if len(args) != 0 {
				return nil, fmt.Errorf("%w: %s() with a predicate", pgxlate.ErrUnsupportedExpression, fn)
			}

			method := ops.EnumerableAny
			if fn == "count" {
				method = ops.EnumerableCount
			}

			return c.method(nil, method, []sqlexpr.Expr{target})
		}
	case t.IsTemporal():
		declaring := ops.TypeDateTime
		if t.Kind == valtype.DateTimeOffset {
			declaring = ops.TypeDateTimeOffset
		}

		member, ok := ops.LookupMember(string(declaring), fn)
		if !ok || member.Static {
			break
		}

		if len(args) != 0 {
			return nil, arityError(fn, 0, len(args))
		}

		return c.member(target, member)
	}

	return nil, fmt.Errorf("%w: %s.%s()", pgxlate.ErrUnsupportedExpression, t, fn)
}

func (c *Compiler) equality(equal bool, left, right sqlexpr.Expr) sqlexpr.Expr {
	operand := left
	if sqlexpr.IsNullConstant(left) {
		operand = right
	}

	if sqlexpr.IsNullConstant(left) || sqlexpr.IsNullConstant(right) {
		if equal {
			return c.factory.IsNull(operand)
		}

		return c.factory.IsNotNull(operand)
	}

	if equal {
		return c.factory.Equal(left, right)
	}

	return c.factory.NotEqual(left, right)
}

func (c *Compiler) index(list, index sqlexpr.Expr) (sqlexpr.Expr, error) {
	if err := checkIndex(index); err != nil {
		return nil, err
	}

	switch list.Type().Kind {
	case valtype.Array:
		return c.method(list, ops.ArrayGetItem, []sqlexpr.Expr{index})
	case valtype.List:
		return c.method(list, ops.ListGetItem, []sqlexpr.Expr{index})
	default:
		return nil, fmt.Errorf("%w: indexing a value of type %s", pgxlate.ErrUnsupportedExpression, list.Type())
	}
}

// checkIndex rejects indexes that cannot address a collection element.
func checkIndex(index sqlexpr.Expr) error {
	if c, ok := index.(*sqlexpr.Constant); ok {
		if _, ok := c.Value.(int64); ok {
			return nil
		}

		return fmt.Errorf("%w: index %s is not an integer", pgxlate.ErrUnsupportedExpression, sqlexpr.Print(c))
	}

	if t := index.Type(); !t.IsInteger() {
		return fmt.Errorf("%w: index of type %s", pgxlate.ErrUnsupportedExpression, t)
	}

	return nil
}

// in lowers item in list. Membership in a list literal is not a collection
// operation on the database side, so it becomes an IN list.
func (c *Compiler) in(item, list sqlexpr.Expr) (sqlexpr.Expr, error) {
	if !list.Type().IsCollection() {
		return nil, fmt.Errorf("%w: membership in a value of type %s", pgxlate.ErrUnsupportedExpression, list.Type())
	}

	if expr, ok := c.translator.Translate(nil, ops.EnumerableContains, []sqlexpr.Expr{list, item}); ok {
		return expr, nil
	}

	constant, ok := list.(*sqlexpr.Constant)
	if !ok {
		return nil, untranslatable(ops.EnumerableContains)
	}

	values, ok := constant.Value.([]any)
	if !ok {
		return nil, untranslatable(ops.EnumerableContains)
	}

	if len(values) == 0 {
		return c.factory.Constant(false, valtype.TypeBool), nil
	}

	elemType := list.Type().ElementType()
	exprs := make([]sqlexpr.Expr, len(values))

	for i, v := range values {
		exprs[i] = c.factory.Constant(v, elemType)
	}

	return c.factory.InList(item, exprs, false), nil
}

func (c *Compiler) size(x sqlexpr.Expr) (sqlexpr.Expr, error) {
	switch x.Type().Kind {
	case valtype.String:
		return c.factory.Function("char_length", []sqlexpr.Expr{x}, valtype.TypeUnknown), nil
	case valtype.Array:
		return c.member(x, ops.ArrayLength)
	case valtype.List:
		return c.member(x, ops.ListCount)
	default:
		return nil, fmt.Errorf("%w: size of a value of type %s", pgxlate.ErrUnsupportedExpression, x.Type())
	}
}

func (c *Compiler) temporalLiteral(fn string, args []sqlexpr.Expr) (sqlexpr.Expr, error) {
	if len(args) != 1 {
		return nil, arityError(fn, 1, len(args))
	}

	lit, ok := args[0].(*sqlexpr.Constant)
	if !ok {
		return nil, fmt.Errorf("%w: %s() of a non-literal", pgxlate.ErrUnsupportedExpression, fn)
	}

	s, ok := lit.Value.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s() takes a string", pgxlate.ErrUnsupportedExpression, fn)
	}

	if fn == overloads.TypeConvertDuration {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", pgxlate.ErrUnsupportedExpression, err)
		}

		return c.factory.Constant(d, valtype.TypeTimeSpan), nil
	}

	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pgxlate.ErrUnsupportedExpression, err)
	}

	return c.factory.Constant(ts, valtype.TypeDateTimeOffset), nil
}

func (c *Compiler) method(instance sqlexpr.Expr, method *ops.MethodDescriptor, args []sqlexpr.Expr) (sqlexpr.Expr, error) {
	expr, ok := c.translator.Translate(instance, method, args)
	if !ok {
		return nil, untranslatable(method)
	}

	return expr, nil
}

func (c *Compiler) member(instance sqlexpr.Expr, member *ops.MemberDescriptor) (sqlexpr.Expr, error) {
	expr, ok := c.translator.TranslateMember(instance, member, member.ResultType)
	if !ok {
		return nil, untranslatable(member)
	}

	return expr, nil
}

func (c *Compiler) lowerAll(exprs []*exprpb.Expr) ([]sqlexpr.Expr, error) {
	result := make([]sqlexpr.Expr, len(exprs))

	for i, e := range exprs {
		lowered, err := c.lower(e)
		if err != nil {
			return nil, err
		}

		result[i] = lowered
	}

	return result, nil
}

func untranslatable(op fmt.Stringer) error {
	return fmt.Errorf("%w: %s", pgxlate.ErrUntranslatable, op)
}

func arityError(fn string, want, got int) error {
	return fmt.Errorf("%w: %s takes %d argument(s), got %d", pgxlate.ErrUnsupportedExpression, fn, want, got)
}

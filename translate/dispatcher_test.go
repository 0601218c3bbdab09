package translate

import (
	"sync"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shibukawa/pgxlate"
	"github.com/shibukawa/pgxlate/sqlbuild"
	"github.com/shibukawa/pgxlate/sqlexpr"
	"github.com/shibukawa/pgxlate/translate/ops"
	"github.com/shibukawa/pgxlate/typemap"
	"github.com/shibukawa/pgxlate/valtype"
)

type recordingTranslator struct {
	mu     sync.Mutex
	calls  int
	result sqlexpr.Expr
}

func (r *recordingTranslator) Translate(sqlexpr.Expr, *ops.MethodDescriptor, []sqlexpr.Expr) (sqlexpr.Expr, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls++

	return r.result, r.result != nil
}

func (r *recordingTranslator) TranslateMember(sqlexpr.Expr, *ops.MemberDescriptor, valtype.Type) (sqlexpr.Expr, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls++

	return r.result, r.result != nil
}

func TestDispatcher_FirstSuccessWins(t *testing.T) {
	declining := &recordingTranslator{}
	first := &recordingTranslator{result: &sqlexpr.Constant{Value: 1}}
	second := &recordingTranslator{result: &sqlexpr.Constant{Value: 2}}

	var events []TraceEvent

	d := NewDispatcher(
		WithMethodTranslator("declining", declining),
		WithMethodTranslator("first", first),
		WithMethodTranslator("second", second),
		WithTrace(func(e TraceEvent) { events = append(events, e) }),
	)

	expr, ok := d.Translate(nil, ops.EnumerableAny, nil)
	assert.True(t, ok)
	assert.Equal(t, any(1), expr.(*sqlexpr.Constant).Value)
	assert.Equal(t, 1, declining.calls)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)

	assert.Equal(t, []TraceEvent{{Operation: "Enumerable.Any/1", Translator: "first", Accepted: true}}, events)
}

func TestDispatcher_AllDecline(t *testing.T) {
	var events []TraceEvent

	d := NewDispatcher(
		WithMemberTranslator("a", &recordingTranslator{}),
		WithMemberTranslator("b", &recordingTranslator{}),
		WithTrace(func(e TraceEvent) { events = append(events, e) }),
	)

	expr, ok := d.TranslateMember(nil, ops.DateTimeNow, valtype.TypeDateTime)
	assert.False(t, ok)
	assert.Zero(t, expr)
	assert.Equal(t, []TraceEvent{{Operation: "DateTime.Now"}}, events)

	_, ok = d.TranslateMember(nil, nil, valtype.TypeUnknown)
	assert.False(t, ok)
	assert.Equal(t, "<nil>", events[1].Operation)
}

func TestNewDefaultDispatcher(t *testing.T) {
	factory := sqlbuild.NewFactory(pgxlate.DialectPostgres, typemap.Default())
	d := NewDefaultDispatcher(factory)

	methods, members := d.Translators()
	assert.Equal(t, []string{"jsondoc", "arrays"}, methods)
	assert.Equal(t, []string{"jsondoc", "arrays", "datetime"}, members)

	tags := factory.Column("", "tags", valtype.ListOf(valtype.TypeString), nil, false)
	someDate := factory.Column("", "someDateColumn", valtype.TypeDateTime, nil, false)
	docMapping, err := typemap.Default().ForColumn("jsonb", "list<string>")
	assert.NoError(t, err)

	doc := factory.Column("", "doc", docMapping.Type, docMapping, false)

	tests := []struct {
		name      string
		translate func() (sqlexpr.Expr, bool)
		expected  string
	}{
		{
			name: "contains value",
			translate: func() (sqlexpr.Expr, bool) {
				return d.Translate(tags, ops.ListContains, []sqlexpr.Expr{factory.Constant("x", valtype.TypeString)})
			},
			expected: "tags @> ARRAY['x']",
		},
		{
			name: "contains null",
			translate: func() (sqlexpr.Expr, bool) {
				return d.Translate(tags, ops.ListContains, []sqlexpr.Expr{factory.Constant(nil, valtype.TypeString)})
			},
			expected: "array_position(tags, NULL) IS NOT NULL",
		},
		{
			name: "any",
			translate: func() (sqlexpr.Expr, bool) {
				return d.Translate(nil, ops.EnumerableAny, []sqlexpr.Expr{tags})
			},
			expected: "cardinality(tags) > 0",
		},
		{
			name: "day of week",
			translate: func() (sqlexpr.Expr, bool) {
				return d.TranslateMember(someDate, ops.DateTimeDayOfWeek, valtype.TypeInt32)
			},
			expected: "CAST(floor(date_part('dow', someDateColumn)) AS int)",
		},
		{
			name: "document element",
			translate: func() (sqlexpr.Expr, bool) {
				return d.Translate(doc, ops.ListGetItem, []sqlexpr.Expr{factory.Constant(1, valtype.TypeInt32)})
			},
			expected: "doc ->> 1",
		},
		{
			name: "document emptiness",
			translate: func() (sqlexpr.Expr, bool) {
				return d.Translate(nil, ops.EnumerableAny, []sqlexpr.Expr{doc})
			},
			expected: "jsonb_array_length(doc) > 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, ok := tt.translate()
			assert.True(t, ok)
			assert.Equal(t, tt.expected, sqlexpr.Print(expr))
		})
	}
}

func TestDefaultOptions_WithoutDocuments(t *testing.T) {
	factory := sqlbuild.NewFactory(pgxlate.DialectPostgres, nil)
	d := NewDispatcher(DefaultOptions(factory, false)...)

	methods, _ := d.Translators()
	assert.Equal(t, []string{"arrays"}, methods)

	docMapping, err := typemap.Default().ForColumn("jsonb", "list<int>")
	assert.NoError(t, err)

	doc := factory.Column("", "doc", docMapping.Type, docMapping, false)

	_, ok := d.Translate(doc, ops.ListGetItem, []sqlexpr.Expr{factory.Constant(0, valtype.TypeInt32)})
	assert.False(t, ok)

	_, ok = d.TranslateMember(doc, ops.ListCount, valtype.TypeInt32)
	assert.False(t, ok)
}

func TestDispatcher_OutOfScopeDeclinesRepeatedly(t *testing.T) {
	factory := sqlbuild.NewFactory(pgxlate.DialectPostgres, nil)
	d := NewDefaultDispatcher(factory)

	constantList := factory.Constant([]string{"a", "b"}, valtype.ListOf(valtype.TypeString))
	ts := factory.Column("", "ts", valtype.TypeDateTime, nil, false)

	for range 3 {
		_, ok := d.Translate(constantList, ops.ListContains, []sqlexpr.Expr{factory.Parameter("p", valtype.TypeString)})
		assert.False(t, ok)

		_, ok = d.TranslateMember(ts, ops.DateTimeTicks, valtype.TypeInt64)
		assert.False(t, ok)
	}

	assert.Zero(t, constantList.TypeMapping())
}

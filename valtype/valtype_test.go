package valtype

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shibukawa/pgxlate"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		expected Type
	}{
		{"int", TypeInt32},
		{" Integer ", TypeInt32},
		{"timestamptz", TypeDateTimeOffset},
		{"json", TypeDocument},
		{"string[]", ArrayOf(TypeString)},
		{"list<int>", ListOf(TypeInt32)},
		{"array<list<long>>", ArrayOf(ListOf(TypeInt64))},
		{"LIST<DateTime>", ListOf(TypeDateTime)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			actual, err := Parse(tt.input)
			assert.NoError(t, err)
			assert.True(t, tt.expected.Equal(actual), "got %s", actual)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, input := range []string{"", "list", "list<int", "map<int>", "list<nope>", "nope[]", "varchar"} {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			assert.IsError(t, err, pgxlate.ErrUnknownHostType)
		})
	}

	assert.Panics(t, func() { MustParse("list<") })
}

func TestType_String(t *testing.T) {
	assert.Equal(t, "int", TypeInt32.String())
	assert.Equal(t, "list<array<string>>", ListOf(ArrayOf(TypeString)).String())
	assert.Equal(t, "array<unknown>", Type{Kind: Array}.String())
	assert.Equal(t, "Kind(99)", Kind(99).String())
}

func TestType_Predicates(t *testing.T) {
	assert.True(t, ArrayOf(TypeInt32).IsCollection())
	assert.True(t, TypeBytes.IsCollection())
	assert.False(t, TypeDocument.IsCollection())

	assert.True(t, TypeDate.IsTemporal())
	assert.False(t, TypeTimeSpan.IsTemporal())

	assert.True(t, TypeInt16.IsInteger())
	assert.False(t, TypeDecimal.IsInteger())
}

func TestType_ElementType(t *testing.T) {
	assert.Equal(t, TypeString, ListOf(TypeString).ElementType())
	assert.Equal(t, TypeInt16, TypeBytes.ElementType())
	assert.Equal(t, TypeUnknown, Type{Kind: List}.ElementType())
	assert.Equal(t, TypeUnknown, TypeInt32.ElementType())
}

func TestType_Equal(t *testing.T) {
	assert.True(t, ListOf(TypeInt32).Equal(ListOf(TypeInt32)))
	assert.False(t, ListOf(TypeInt32).Equal(ArrayOf(TypeInt32)))
	assert.False(t, ListOf(TypeInt32).Equal(ListOf(TypeInt64)))
	assert.False(t, ListOf(TypeInt32).Equal(Type{Kind: List}))
	assert.True(t, TypeBool.Equal(Type{Kind: Bool}))
}

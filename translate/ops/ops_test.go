package ops

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shibukawa/pgxlate/valtype"
)

func TestLookupMethod(t *testing.T) {
	d, ok := LookupMethod("enumerable", "ANY", 1)
	assert.True(t, ok)
	assert.True(t, d == EnumerableAny)

	d, ok = LookupMethod("Enumerable", "Any", 2)
	assert.True(t, ok)
	assert.True(t, d.HasPredicate)

	d, ok = LookupMethod(" List ", "get_item", 1)
	assert.True(t, ok)
	assert.True(t, d == ListGetItem)

	_, ok = LookupMethod("List", "Contains", 2)
	assert.False(t, ok)

	_, ok = LookupMethod("Dictionary", "ContainsKey", 1)
	assert.False(t, ok)
}

func TestLookupMember(t *testing.T) {
	d, ok := LookupMember("datetimeoffset", "dayofweek")
	assert.True(t, ok)
	assert.True(t, d == DateTimeOffsetDayOfWeek)
	assert.True(t, d.IsTemporal())
	assert.False(t, d.Static)

	d, ok = LookupMember("DateTime", "Today")
	assert.True(t, ok)
	assert.True(t, d.Static)

	// DateTimeOffset has no Today
	_, ok = LookupMember("DateTimeOffset", "Today")
	assert.False(t, ok)

	d, ok = LookupMember("Array", "Length")
	assert.True(t, ok)
	assert.False(t, d.IsTemporal())
}

func TestDescriptors(t *testing.T) {
	assert.Equal(t, "Enumerable.SequenceEqual/2", EnumerableSequenceEqual.String())
	assert.Equal(t, "DateTime.UtcNow", DateTimeUtcNow.String())
	assert.Equal(t, valtype.TypeUnknown, ListGetItem.ResultType)
	assert.Equal(t, valtype.TypeInt64, DateTimeTicks.ResultType)

	methods := Methods()
	assert.Equal(t, len(allMethods), len(methods))

	// the returned slice is a copy
	methods[0] = nil
	assert.True(t, allMethods[0] == ListGetItem)

	for _, m := range Members() {
		found, ok := LookupMember(string(m.DeclaringType), m.Name)
		assert.True(t, ok, m.String())
		assert.True(t, found == m)
	}
}

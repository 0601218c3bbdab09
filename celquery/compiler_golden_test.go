package celquery

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

func TestCompileSQL_Golden(t *testing.T) {
	compiler := newTestCompiler(t)

	tests := []struct {
		name string
		src  string
	}{
		{"contains_value", `tags.contains('x')`},
		{"contains_null", `tags.contains(null)`},
		{"any", `tags.any()`},
		{"day_of_week", `someDateColumn.dayOfWeek() == 1`},
		{"list_index", `labels[0] == 'a'`},
		{"parameter_receiver", `name in names`},
		{"in_literal", `name in ['a', 'b']`},
		{"size_and_year", `size(tags) > 2 && created_at.year() >= 2024`},
		{"document", `scores[0] > 10 && size(scores) > 1`},
		{"today", `someDateColumn.date() == today()`},
		{"null_check", `created_at != null || qty + 1 > limit`},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, _, err := compiler.CompileSQL(tt.src)
			require.NoError(t, err)

			g.Assert(t, tt.name, []byte(sql+"\n"))
		})
	}
}

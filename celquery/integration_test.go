package celquery

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/alecthomas/assert/v2"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver (pgx)
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const itemsSchema = `
CREATE TABLE items (
	id serial PRIMARY KEY,
	tags text[] NOT NULL,
	labels text[] NOT NULL,
	created_at timestamptz,
	someDateColumn timestamp NOT NULL,
	scores jsonb NOT NULL,
	name varchar(40) NOT NULL,
	qty integer NOT NULL
);

INSERT INTO items (tags, labels, created_at, someDateColumn, scores, name, qty) VALUES
	('{x,y}', '{a}', '2024-03-05 10:00:00+00', '2024-03-04 00:00:00', '[5, 20]', 'a', 1),
	('{NULL,z}', '{b}', NULL, '2023-12-31 00:00:00', '[15]', 'b', 5),
	('{}', '{}', '2025-01-01 00:00:00+00', '2024-01-07 00:00:00', '[]', 'c', 10);
`

// TestPostgreSQLIntegration runs compiled predicates against a real database
func TestPostgreSQLIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := t.Context()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		postgres.BasicWaitStrategies(),
	)
	assert.NoError(t, err)

	defer func() {
		assert.NoError(t, postgresContainer.Terminate(ctx))
	}()

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	assert.NoError(t, err)

	db, err := sql.Open("pgx", connStr)
	assert.NoError(t, err)

	defer db.Close()

	_, err = db.ExecContext(ctx, itemsSchema)
	assert.NoError(t, err)

	compiler := newTestCompiler(t)
	values := map[string]any{"limit": 8}

	tests := []struct {
		src      string
		expected int
	}{
		{`tags.contains('x')`, 1},
		{`tags.contains(null)`, 1},
		{`tags.any()`, 2},
		{`someDateColumn.dayOfWeek() == 1`, 1},
		{`labels[0] == 'a'`, 1},
		{`name in ['a', 'b']`, 2},
		{`size(tags) > 1 && created_at.year() >= 2024`, 1},
		{`scores[0] > 10`, 1},
		{`size(scores) > 1`, 1},
		{`created_at != null || qty + 1 > limit`, 2},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			where, params, err := compiler.CompileSQL(tt.src)
			assert.NoError(t, err)

			args := make([]any, len(params))
			for i, name := range params {
				args[i] = values[name]
			}

			var count int

			err = db.QueryRowContext(ctx, fmt.Sprintf("SELECT count(*) FROM items WHERE %s", where), args...).Scan(&count)
			assert.NoError(t, err, where)
			assert.Equal(t, tt.expected, count, where)
		})
	}
}

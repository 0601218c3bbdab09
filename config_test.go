package pgxlate

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestLoadConfig_DefaultValues(t *testing.T) {
	// Test loading config with non-existent file (should return defaults)
	config, err := LoadConfig("non-existent-file.yaml")
	assert.NoError(t, err)
	assert.True(t, config != nil)

	assert.Equal(t, DialectPostgres, config.DialectValue())
	assert.Equal(t, ParamStyleDollar, config.Render.ParamStyle)
	assert.Equal(t, "development", config.Query.DefaultEnvironment)
	assert.Equal(t, 30, config.Query.Timeout)
	assert.False(t, config.Translation.DisableDocument)
}

func TestParseConfig_AppliesDefaults(t *testing.T) {
	config, err := ParseConfig([]byte(`
tables:
  events:
    alias: e
    columns:
      happened_at:
        dataType: timestamp
`))
	assert.NoError(t, err)
	assert.Equal(t, "postgres", config.Dialect)
	assert.Equal(t, ParamStyleDollar, config.Render.ParamStyle)
	assert.Equal(t, 30, config.Query.Timeout)

	table, err := config.Table("events")
	assert.NoError(t, err)
	assert.Equal(t, "events", table.Name)
	assert.Equal(t, "e", table.Alias)
	assert.Equal(t, "happened_at", table.Columns["happened_at"].Name)
}

func TestConfig_Table(t *testing.T) {
	config := getDefaultConfig()
	config.Tables["items"] = &TableInfo{Name: "items"}
	config.Tables["broken"] = nil

	table, err := config.Table("items")
	assert.NoError(t, err)
	assert.Equal(t, "items", table.Name)

	_, err = config.Table("broken")
	assert.IsError(t, err, ErrUnknownTable)

	_, err = config.Table("missing")
	assert.IsError(t, err, ErrUnknownTable)
}

func TestConfig_Database(t *testing.T) {
	config := getDefaultConfig()
	config.Databases["development"] = Database{Driver: "pgx", Connection: "postgres://localhost/dev"}
	config.Databases["ci"] = Database{Driver: "pgx", Connection: "postgres://ci/test"}

	db, err := config.Database("")
	assert.NoError(t, err)
	assert.Equal(t, "postgres://localhost/dev", db.Connection)

	db, err = config.Database("ci")
	assert.NoError(t, err)
	assert.Equal(t, "postgres://ci/test", db.Connection)

	_, err = config.Database("production")
	assert.IsError(t, err, ErrEnvironmentNotFound)
}

func TestConfig_ExpandsEnvironment(t *testing.T) {
	t.Setenv("PGXLATE_TEST_HOST", "db.internal")
	t.Setenv("PGXLATE_TEST_USER", "reader")

	config, err := ParseConfig([]byte(`
databases:
  development:
    driver: pgx
    connection: postgres://$PGXLATE_TEST_USER@${PGXLATE_TEST_HOST}/app
`))
	assert.NoError(t, err)

	db, err := config.Database("development")
	assert.NoError(t, err)
	assert.Equal(t, "postgres://reader@db.internal/app", db.Connection)
}

func TestConfig_DialectValue(t *testing.T) {
	config := &Config{Dialect: "SQLite3"}
	assert.Equal(t, DialectSQLite, config.DialectValue())

	config.Dialect = "oracle"
	assert.Equal(t, DialectPostgres, config.DialectValue())
}

func TestParseDialect(t *testing.T) {
	for _, name := range []string{"postgres", "PostgreSQL", " pg "} {
		dialect, err := ParseDialect(name)
		assert.NoError(t, err)
		assert.Equal(t, DialectPostgres, dialect)
	}

	dialect, err := ParseDialect("mariadb")
	assert.NoError(t, err)
	assert.Equal(t, DialectMySQL, dialect)
	assert.True(t, dialect.Supports(FeatureJson))
	assert.False(t, dialect.Supports(FeatureArray))

	_, err = ParseDialect("oracle")
	assert.IsError(t, err, ErrUnknownDialect)
}

func TestLookupFunction(t *testing.T) {
	sig, ok := LookupFunction(DialectPostgres, "ARRAY_POSITION")
	assert.True(t, ok)
	assert.Equal(t, []bool{false, false, false}, sig.Propagation(3))

	sig, ok = LookupFunction(DialectPostgres, "cardinality")
	assert.True(t, ok)
	assert.Equal(t, []bool{true}, sig.Propagation(1))

	_, ok = LookupFunction(DialectSQLite, "cardinality")
	assert.False(t, ok)

	_, ok = LookupFunction(Dialect("oracle"), "now")
	assert.False(t, ok)
}

func TestLoadConfig_Example(t *testing.T) {
	t.Setenv("PGXLATE_USER", "postgres")

	config, err := LoadConfig("examples/pgxlate.yaml")
	assert.NoError(t, err)
	assert.Equal(t, ParamStyleDollar, config.Render.ParamStyle)
	assert.Equal(t, 10, config.Query.Timeout)

	db, err := config.Database("")
	assert.NoError(t, err)
	assert.Equal(t, "postgres://postgres@localhost:5432/pgxlate?sslmode=disable", db.Connection)

	table, err := config.Table("items")
	assert.NoError(t, err)
	assert.Equal(t, "public.items", table.QualifiedName())
	assert.Equal(t, 6, len(table.Columns))
	assert.Equal(t, "list<int>", table.Columns["scores"].HostType)
}

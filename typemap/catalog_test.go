package typemap

import (
	"sync"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shibukawa/pgxlate"
	"github.com/shibukawa/pgxlate/valtype"
)

func TestFindMapping_Postgres(t *testing.T) {
	catalog := Default()

	tests := []struct {
		name      string
		typ       valtype.Type
		storeType string
		shape     Shape
	}{
		{"bool", valtype.TypeBool, "boolean", ShapeScalar},
		{"int", valtype.TypeInt32, "int", ShapeScalar},
		{"long", valtype.TypeInt64, "bigint", ShapeScalar},
		{"double", valtype.TypeFloat64, "double precision", ShapeScalar},
		{"string", valtype.TypeString, "text", ShapeScalar},
		{"bytes are scalar", valtype.TypeBytes, "bytea", ShapeScalar},
		{"timestamptz", valtype.TypeDateTimeOffset, "timestamp with time zone", ShapeScalar},
		{"document", valtype.TypeDocument, "jsonb", ShapeDocument},
		{"list", valtype.ListOf(valtype.TypeString), "text[]", ShapeArray},
		{"array", valtype.ArrayOf(valtype.TypeInt32), "int[]", ShapeArray},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapping := catalog.FindMapping(tt.typ)
			assert.NotZero(t, mapping)
			assert.Equal(t, tt.storeType, mapping.StoreType)
			assert.Equal(t, tt.shape, mapping.Shape)
			assert.True(t, mapping.Type.Equal(tt.typ))
		})
	}
}

func TestFindMapping_ArrayElement(t *testing.T) {
	mapping := Default().FindMapping(valtype.ListOf(valtype.TypeString))

	assert.True(t, mapping.IsArray())
	assert.False(t, mapping.IsDocument())
	assert.Equal(t, "text", mapping.ElementMapping().StoreType)
}

func TestFindMapping_Unmappable(t *testing.T) {
	catalog := Default()
	assert.Zero(t, catalog.FindMapping(valtype.TypeNull))
	assert.Zero(t, catalog.FindMapping(valtype.TypeUnknown))
	assert.Zero(t, catalog.FindMapping(valtype.ListOf(valtype.ListOf(valtype.TypeInt32))))

	sqlite, err := NewCatalog(pgxlate.DialectSQLite)
	assert.NoError(t, err)
	assert.Zero(t, sqlite.FindMapping(valtype.ListOf(valtype.TypeString)))
	assert.Equal(t, "blob", sqlite.FindMapping(valtype.TypeBytes).StoreType)
}

func TestFindStoreType(t *testing.T) {
	catalog := Default()

	tests := []struct {
		input    string
		expected string
		hostType string
	}{
		{"integer", "int", "int"},
		{"INT4", "int", "int"},
		{"varchar(255)", "text", "string"},
		{"Character  Varying", "text", "string"},
		{"timestamptz", "timestamp with time zone", "datetimeoffset"},
		{"numeric(10, 2)", "numeric", "decimal"},
		{"text[]", "text[]", "array<string>"},
		{"_int4", "int[]", "array<int>"},
		{"json", "json", "document"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mapping, err := catalog.FindStoreType(tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, mapping.StoreType)
			assert.Equal(t, tt.hostType, mapping.Type.String())
		})
	}
}

func TestFindStoreType_Errors(t *testing.T) {
	_, err := Default().FindStoreType("geometry")
	assert.IsError(t, err, pgxlate.ErrUnknownStoreType)

	mysql, err := NewCatalog(pgxlate.DialectMySQL)
	assert.NoError(t, err)

	_, err = mysql.FindStoreType("text[]")
	assert.IsError(t, err, pgxlate.ErrUnknownStoreType)

	mapping, err := mysql.FindStoreType("TINYINT(1)")
	assert.NoError(t, err)
	assert.Equal(t, valtype.TypeBool, mapping.Type)
}

func TestForColumn(t *testing.T) {
	catalog := Default()

	t.Run("document with host type", func(t *testing.T) {
		mapping, err := catalog.ForColumn("jsonb", "list<int>")
		assert.NoError(t, err)
		assert.True(t, mapping.IsDocument())
		assert.Equal(t, "list<int>", mapping.Type.String())

		// the shared catalog entry is untouched
		assert.Equal(t, valtype.TypeDocument, catalog.FindMapping(valtype.TypeDocument).Type)
	})

	t.Run("array read as list", func(t *testing.T) {
		mapping, err := catalog.ForColumn("text[]", "list<string>")
		assert.NoError(t, err)
		assert.True(t, mapping.IsArray())
		assert.Equal(t, valtype.List, mapping.Type.Kind)
	})

	t.Run("array with scalar host type", func(t *testing.T) {
		_, err := catalog.ForColumn("text[]", "string")
		assert.IsError(t, err, pgxlate.ErrConfigValidation)
	})

	t.Run("unknown host type", func(t *testing.T) {
		_, err := catalog.ForColumn("text", "widget")
		assert.IsError(t, err, pgxlate.ErrUnknownHostType)
	})
}

func TestNewCatalog_Overrides(t *testing.T) {
	overrides, err := OverridesFromConfig([]pgxlate.TypeMappingConfig{
		{StoreType: "citext", HostType: "string"},
		{StoreType: "hstore", HostType: "document", Shape: "document"},
		{StoreType: "int_list", HostType: "list<int>", Shape: "array"},
	})
	assert.NoError(t, err)

	catalog, err := NewCatalog(pgxlate.DialectPostgres, overrides...)
	assert.NoError(t, err)

	citext, err := catalog.FindStoreType("citext")
	assert.NoError(t, err)
	assert.Equal(t, valtype.TypeString, citext.Type)

	hstore, err := catalog.FindStoreType("hstore")
	assert.NoError(t, err)
	assert.True(t, hstore.IsDocument())

	intList, err := catalog.FindStoreType("int_list")
	assert.NoError(t, err)
	assert.True(t, intList.IsArray())
	assert.Equal(t, "int", intList.ElementMapping().StoreType)

	// overrides never replace the default mapping of a kind
	assert.Equal(t, "text", catalog.FindMapping(valtype.TypeString).StoreType)
}

func TestNewCatalog_Errors(t *testing.T) {
	_, err := NewCatalog(pgxlate.Dialect("oracle"))
	assert.IsError(t, err, pgxlate.ErrUnknownDialect)

	_, err = NewCatalog(pgxlate.DialectPostgres, Override{StoreType: "x", HostType: "string", Shape: ShapeArray})
	assert.IsError(t, err, pgxlate.ErrConfigValidation)

	_, err = OverridesFromConfig([]pgxlate.TypeMappingConfig{{StoreType: "x", HostType: "string", Shape: "tree"}})
	assert.IsError(t, err, pgxlate.ErrConfigValidation)
}

func TestDefault_Concurrent(t *testing.T) {
	var wg sync.WaitGroup

	catalogs := make([]*Catalog, 16)
	for i := range catalogs {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			catalogs[i] = Default()
		}(i)
	}

	wg.Wait()

	for _, c := range catalogs {
		assert.True(t, c == catalogs[0])
	}
}

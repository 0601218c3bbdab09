package typemap

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/shibukawa/pgxlate"
	"github.com/shibukawa/pgxlate/valtype"
)

// Override registers an additional store type, typically from the
// type_mappings section of the configuration.
type Override struct {
	StoreType string
	HostType  string
	Shape     Shape
}

// OverridesFromConfig converts configuration entries into overrides.
func OverridesFromConfig(entries []pgxlate.TypeMappingConfig) ([]Override, error) {
	overrides := make([]Override, 0, len(entries))

	for _, entry := range entries {
		shape, ok := ParseShape(entry.Shape)
		if !ok {
			return nil, fmt.Errorf("%w: shape %q of %s", pgxlate.ErrConfigValidation, entry.Shape, entry.StoreType)
		}

		overrides = append(overrides, Override{
			StoreType: entry.StoreType,
			HostType:  entry.HostType,
			Shape:     shape,
		})
	}

	return overrides, nil
}

// Catalog resolves mappings for one dialect.
type Catalog struct {
	dialect pgxlate.Dialect
	byStore map[string]*TypeMapping
	aliases map[string]string
	byKind  map[valtype.Kind]*TypeMapping
}

type builtin struct {
	store   string
	kind    valtype.Kind
	shape   Shape
	aliases []string
}

// The first entry for a kind is its default store type.
var builtins = map[pgxlate.Dialect][]builtin{
	pgxlate.DialectPostgres: {
		{store: "boolean", kind: valtype.Bool, aliases: []string{"bool"}},
		{store: "smallint", kind: valtype.Int16, aliases: []string{"int2", "smallserial"}},
		{store: "int", kind: valtype.Int32, aliases: []string{"integer", "int4", "serial"}},
		{store: "bigint", kind: valtype.Int64, aliases: []string{"int8", "bigserial"}},
		{store: "double precision", kind: valtype.Float64, aliases: []string{"float8", "float", "real", "float4"}},
		{store: "numeric", kind: valtype.Decimal, aliases: []string{"decimal", "money"}},
		{store: "text", kind: valtype.String, aliases: []string{"varchar", "character varying", "char", "character", "bpchar", "name"}},
		{store: "bytea", kind: valtype.Bytes},
		{store: "uuid", kind: valtype.UUID},
		{store: "timestamp without time zone", kind: valtype.DateTime, aliases: []string{"timestamp"}},
		{store: "timestamp with time zone", kind: valtype.DateTimeOffset, aliases: []string{"timestamptz"}},
		{store: "date", kind: valtype.Date},
		{store: "interval", kind: valtype.TimeSpan},
		{store: "jsonb", kind: valtype.Document, shape: ShapeDocument},
		{store: "json", kind: valtype.Document, shape: ShapeDocument},
	},
	pgxlate.DialectMySQL: {
		{store: "tinyint(1)", kind: valtype.Bool, aliases: []string{"bool", "boolean"}},
		{store: "smallint", kind: valtype.Int16},
		{store: "int", kind: valtype.Int32, aliases: []string{"integer"}},
		{store: "bigint", kind: valtype.Int64},
		{store: "double", kind: valtype.Float64, aliases: []string{"float", "real"}},
		{store: "decimal", kind: valtype.Decimal, aliases: []string{"numeric"}},
		{store: "text", kind: valtype.String, aliases: []string{"varchar", "char", "longtext"}},
		{store: "blob", kind: valtype.Bytes, aliases: []string{"varbinary", "binary", "longblob"}},
		{store: "char(36)", kind: valtype.UUID},
		{store: "datetime", kind: valtype.DateTime},
		{store: "timestamp", kind: valtype.DateTimeOffset},
		{store: "date", kind: valtype.Date},
		{store: "time", kind: valtype.TimeSpan},
		{store: "json", kind: valtype.Document, shape: ShapeDocument},
	},
	pgxlate.DialectSQLite: {
		{store: "integer", kind: valtype.Int64, aliases: []string{"int", "bigint", "smallint"}},
		{store: "integer", kind: valtype.Int32},
		{store: "integer", kind: valtype.Int16},
		{store: "integer", kind: valtype.Bool, aliases: []string{"boolean", "bool"}},
		{store: "real", kind: valtype.Float64, aliases: []string{"double", "float"}},
		{store: "text", kind: valtype.String, aliases: []string{"varchar"}},
		{store: "text", kind: valtype.Decimal},
		{store: "text", kind: valtype.UUID},
		{store: "text", kind: valtype.DateTime, aliases: []string{"datetime", "timestamp"}},
		{store: "text", kind: valtype.DateTimeOffset},
		{store: "text", kind: valtype.Date, aliases: []string{"date"}},
		{store: "blob", kind: valtype.Bytes},
	},
}

var (
	modifierPattern = regexp.MustCompile(`\s*\([^)]*\)`)
	spacePattern    = regexp.MustCompile(`\s+`)

	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// Default returns the PostgreSQL catalog without overrides. It is built on
// first use and shared afterwards.
func Default() *Catalog {
	defaultCatalogOnce.Do(func() {
		catalog, err := NewCatalog(pgxlate.DialectPostgres)
		if err != nil {
			panic(fmt.Sprintf("typemap: building default catalog: %v", err))
		}

		defaultCatalog = catalog
	})

	return defaultCatalog
}

// NewCatalog builds the catalog of a dialect and registers the overrides.
func NewCatalog(dialect pgxlate.Dialect, overrides ...Override) (*Catalog, error) {
	entries, ok := builtins[dialect]
	if !ok {
		return nil, fmt.Errorf("%w: %q", pgxlate.ErrUnknownDialect, dialect)
	}

	c := &Catalog{
		dialect: dialect,
		byStore: make(map[string]*TypeMapping),
		aliases: make(map[string]string),
		byKind:  make(map[valtype.Kind]*TypeMapping),
	}

	for _, entry := range entries {
		mapping := &TypeMapping{StoreType: entry.store, Type: valtype.Type{Kind: entry.kind}, Shape: entry.shape}
		c.register(mapping, entry.aliases)
	}

	for _, override := range overrides {
		t, err := valtype.Parse(override.HostType)
		if err != nil {
			return nil, fmt.Errorf("type mapping %q: %w", override.StoreType, err)
		}

		if override.Shape == ShapeArray && !t.IsCollection() {
			return nil, fmt.Errorf("%w: array store type %q needs a collection host type, got %s", pgxlate.ErrConfigValidation, override.StoreType, t)
		}

		mapping := &TypeMapping{StoreType: normalizeStoreType(override.StoreType), Type: t, Shape: override.Shape}
		if override.Shape == ShapeArray {
			mapping.Element = c.FindMapping(t.ElementType())
		}

		// Overrides replace builtins with the same store type but never become
		// the default for a kind.
		c.byStore[mapping.StoreType] = mapping
	}

	return c, nil
}

func (c *Catalog) register(mapping *TypeMapping, aliases []string) {
	if _, exists := c.byKind[mapping.Type.Kind]; !exists {
		c.byKind[mapping.Type.Kind] = mapping
	}

	if _, exists := c.byStore[mapping.StoreType]; !exists {
		c.byStore[mapping.StoreType] = mapping
	}

	for _, alias := range aliases {
		c.aliases[alias] = mapping.StoreType
	}
}

// Dialect returns the dialect of the catalog.
func (c *Catalog) Dialect() pgxlate.Dialect {
	return c.dialect
}

// FindMapping returns the default mapping of a host type, or nil when the
// dialect cannot store it. Lists and arrays map to native arrays on dialects
// with pgxlate.FeatureArray.
func (c *Catalog) FindMapping(t valtype.Type) *TypeMapping {
	switch t.Kind {
	case valtype.Array, valtype.List:
		if !c.dialect.Supports(pgxlate.FeatureArray) {
			return nil
		}

		elem := c.FindMapping(t.ElementType())
		if elem == nil || elem.IsArray() {
			// no arrays of arrays: PostgreSQL arrays are rectangular
			// and have no distinct nested type
			return nil
		}

		return &TypeMapping{StoreType: elem.StoreType + "[]", Type: t, Shape: ShapeArray, Element: elem}
	case valtype.Unknown, valtype.Null:
		return nil
	}

	return c.byKind[t.Kind]
}

// FindStoreType resolves a store type name such as "integer", "varchar(20)",
// "text[]" or "_int4".
func (c *Catalog) FindStoreType(storeType string) (*TypeMapping, error) {
	name := normalizeStoreType(storeType)

	elemName, isArray := strings.CutSuffix(name, "[]")
	if !isArray && strings.HasPrefix(name, "_") && c.dialect == pgxlate.DialectPostgres {
		elemName, isArray = name[1:], true
	}

	if isArray {
		if !c.dialect.Supports(pgxlate.FeatureArray) {
			return nil, fmt.Errorf("%w: %q (dialect %s has no arrays)", pgxlate.ErrUnknownStoreType, storeType, c.dialect)
		}

		elem, err := c.FindStoreType(elemName)
		if err != nil {
			return nil, err
		}

		if elem.IsArray() {
			return elem, nil
		}

		return &TypeMapping{
			StoreType: elem.StoreType + "[]",
			Type:      valtype.ArrayOf(elem.Type),
			Shape:     ShapeArray,
			Element:   elem,
		}, nil
	}

	if mapping, ok := c.byStore[name]; ok {
		return mapping, nil
	}

	if canonical, ok := c.aliases[name]; ok {
		return c.byStore[canonical], nil
	}

	return nil, fmt.Errorf("%w: %q", pgxlate.ErrUnknownStoreType, storeType)
}

// ForColumn resolves the mapping of a column declared with a store type and
// an optional host type. The host type lets a document column describe the
// collection it holds (jsonb + list<int>) and a text[] column be read as a
// list rather than an array.
func (c *Catalog) ForColumn(storeType, hostType string) (*TypeMapping, error) {
	mapping, err := c.FindStoreType(storeType)
	if err != nil {
		return nil, err
	}

	if hostType == "" {
		return mapping, nil
	}

	t, err := valtype.Parse(hostType)
	if err != nil {
		return nil, err
	}

	if mapping.IsArray() && !t.IsCollection() {
		return nil, fmt.Errorf("%w: column of type %s cannot be read as %s", pgxlate.ErrConfigValidation, mapping.StoreType, t)
	}

	return mapping.WithType(t), nil
}

func normalizeStoreType(storeType string) string {
	s := strings.ToLower(strings.TrimSpace(storeType))

	// keep tinyint(1) and char(36) which are distinct store types
	if _, ok := builtinWithModifier[s]; !ok {
		s = modifierPattern.ReplaceAllString(s, "")
	}

	return spacePattern.ReplaceAllString(s, " ")
}

var builtinWithModifier = map[string]struct{}{
	"tinyint(1)": {},
	"char(36)":   {},
}

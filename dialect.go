package pgxlate

import (
	"fmt"
	"strings"
)

// Dialect represents supported database dialects
// This type is shared across all packages
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
)

// Feature represents DB-specific feature flags
type Feature int

const (
	// FeatureArray covers the native ARRAY type, cardinality(), ANY and @>.
	FeatureArray Feature = iota + 1
	// FeatureJson covers json/jsonb traversal operators.
	FeatureJson
	// FeatureDatePart covers date_part() and date_trunc().
	FeatureDatePart
	// FeatureTimeZoneConversion covers AT TIME ZONE.
	FeatureTimeZoneConversion
)

// ParseDialect normalizes a dialect name from configuration or CLI flags.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "pg":
		return DialectPostgres, nil
	case "mysql", "mariadb":
		return DialectMySQL, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDialect, name)
	}
}

// Supports reports whether the dialect has the given feature.
func (d Dialect) Supports(f Feature) bool {
	return Capabilities[d][f]
}

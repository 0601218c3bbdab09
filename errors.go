package pgxlate

import "errors"

// Common errors used throughout the pgxlate packages
var (
	// ErrConfigValidation is returned when configuration validation fails.
	// Configuration errors
	ErrConfigValidation = errors.New("configuration validation failed")
	// ErrUnknownDialect indicates a dialect name that is not in the dialect catalog.
	ErrUnknownDialect = errors.New("unknown dialect")
	// ErrEnvironmentNotFound indicates a database environment missing from the configuration.
	ErrEnvironmentNotFound = errors.New("environment not found")

	// ErrUnknownStoreType indicates a store type the type mapping catalog cannot resolve.
	// Type mapping errors
	ErrUnknownStoreType = errors.New("unknown store type")
	// ErrUnknownHostType indicates a host type name that cannot be parsed.
	ErrUnknownHostType = errors.New("unknown host type")

	// ErrUnknownTable indicates a table that is not described in the schema.
	// Schema errors
	ErrUnknownTable = errors.New("unknown table")
	// ErrUnknownColumn indicates a column that is not described in the schema.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrUntranslatable indicates that no translator accepted an operation.
	// Translation errors
	ErrUntranslatable = errors.New("operation cannot be translated")
	// ErrUnsupportedExpression indicates a front-end construct with no SQL lowering.
	ErrUnsupportedExpression = errors.New("unsupported expression")
	// ErrMalformedConstant indicates a constant that a rewrite rule cannot convert.
	// It signals an internal invariant violation and is raised with panic.
	ErrMalformedConstant = errors.New("malformed constant")
)

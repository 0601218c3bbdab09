package pgxlate

import (
	"fmt"
	"os"
	"regexp"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Config represents the pgxlate configuration
type Config struct {
	Dialect      string                `yaml:"dialect"`
	Databases    map[string]Database   `yaml:"databases"`
	Tables       map[string]*TableInfo `yaml:"tables"`
	TypeMappings []TypeMappingConfig   `yaml:"type_mappings"`
	Render       RenderConfig          `yaml:"render"`
	Translation  TranslationConfig     `yaml:"translation"`
	Query        QueryConfig           `yaml:"query"`
}

// Database represents database connection configuration
type Database struct {
	Driver     string `yaml:"driver"`
	Connection string `yaml:"connection"`
	Schema     string `yaml:"schema"`
	Database   string `yaml:"database"`
}

// TypeMappingConfig registers an additional store type with the type mapping catalog
type TypeMappingConfig struct {
	StoreType string `yaml:"store_type"`
	HostType  string `yaml:"host_type"`
	Shape     string `yaml:"shape"` // scalar (default), array or document
}

// RenderConfig represents SQL rendering settings
type RenderConfig struct {
	ParamStyle string `yaml:"param_style"` // dollar ($1, $2) or named (@name)
}

// TranslationConfig represents translator wiring settings
type TranslationConfig struct {
	// DisableDocument removes the json/jsonb document translator from the dispatcher
	DisableDocument bool `yaml:"disable_document"`
}

// QueryConfig represents settings for commands that talk to a database
type QueryConfig struct {
	DefaultEnvironment string `yaml:"default_environment"`
	Timeout            int    `yaml:"timeout"` // seconds
}

const (
	ParamStyleDollar = "dollar"
	ParamStyleNamed  = "named"
)

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// LoadConfig loads configuration from the specified file
func LoadConfig(configPath string) (*Config, error) {
	// Load .env files first
	err := loadEnvFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	// Check if config file exists
	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		// Return default configuration if file doesn't exist
		config := getDefaultConfig()
		expandConfigEnvVars(config)

		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig parses YAML configuration data, applies defaults and validates it
func ParseConfig(data []byte) (*Config, error) {
	var config Config

	// Parse YAML with strict mode to detect unknown fields
	err := yaml.UnmarshalWithOptions(data, &config, yaml.Strict())
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	expandConfigEnvVars(&config)

	return &config, nil
}

// validateConfig validates the configuration for common errors and inconsistencies
func validateConfig(config *Config) error {
	if _, err := ParseDialect(config.Dialect); err != nil {
		return fmt.Errorf("%w: invalid dialect '%s': must be one of postgres, mysql, sqlite", ErrConfigValidation, config.Dialect)
	}

	switch config.Render.ParamStyle {
	case ParamStyleDollar, ParamStyleNamed:
	default:
		return fmt.Errorf("%w: render.param_style '%s' is invalid: must be one of dollar, named", ErrConfigValidation, config.Render.ParamStyle)
	}

	for i, mapping := range config.TypeMappings {
		if mapping.StoreType == "" {
			return fmt.Errorf("%w: type_mappings[%d]: store_type is required", ErrConfigValidation, i)
		}

		if mapping.HostType == "" {
			return fmt.Errorf("%w: type_mappings[%d] (%s): host_type is required", ErrConfigValidation, i, mapping.StoreType)
		}

		switch mapping.Shape {
		case "", "scalar", "array", "document":
		default:
			return fmt.Errorf("%w: type_mappings[%d] (%s): invalid shape '%s': must be one of scalar, array, document", ErrConfigValidation, i, mapping.StoreType, mapping.Shape)
		}
	}

	for tableName, table := range config.Tables {
		if table == nil {
			return fmt.Errorf("%w: tables.%s: table definition is empty", ErrConfigValidation, tableName)
		}

		if len(table.Columns) == 0 {
			return fmt.Errorf("%w: tables.%s: at least one column is required", ErrConfigValidation, tableName)
		}

		for columnName, column := range table.Columns {
			if column == nil || column.DataType == "" {
				return fmt.Errorf("%w: tables.%s.columns.%s: dataType is required", ErrConfigValidation, tableName, columnName)
			}
		}
	}

	if config.Query.Timeout < 0 {
		return fmt.Errorf("%w: query.timeout must be non-negative, got %d", ErrConfigValidation, config.Query.Timeout)
	}

	return nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	return &Config{
		Dialect:   string(DialectPostgres),
		Databases: make(map[string]Database),
		Tables:    make(map[string]*TableInfo),
		Render: RenderConfig{
			ParamStyle: ParamStyleDollar,
		},
		Query: QueryConfig{
			DefaultEnvironment: "development",
			Timeout:            30,
		},
	}
}

// applyDefaults fills in values that were omitted from the configuration file
func applyDefaults(config *Config) {
	defaults := getDefaultConfig()

	if config.Dialect == "" {
		config.Dialect = defaults.Dialect
	}

	if config.Databases == nil {
		config.Databases = defaults.Databases
	}

	if config.Tables == nil {
		config.Tables = defaults.Tables
	}

	if config.Render.ParamStyle == "" {
		config.Render.ParamStyle = defaults.Render.ParamStyle
	}

	if config.Query.DefaultEnvironment == "" {
		config.Query.DefaultEnvironment = defaults.Query.DefaultEnvironment
	}

	if config.Query.Timeout == 0 {
		config.Query.Timeout = defaults.Query.Timeout
	}

	// Names default to their map keys
	for tableName, table := range config.Tables {
		if table == nil {
			continue
		}

		if table.Name == "" {
			table.Name = tableName
		}

		for columnName, column := range table.Columns {
			if column != nil && column.Name == "" {
				column.Name = columnName
			}
		}
	}
}

// loadEnvFiles loads .env files if they exist
func loadEnvFiles() error {
	// Try to load .env file from current directory
	if fileExists(".env") {
		err := godotenv.Load(".env")
		if err != nil {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	return nil
}

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envPattern.FindStringSubmatch(match)
		if groups[1] != "" {
			return os.Getenv(groups[1])
		}

		return os.Getenv(groups[2])
	})
}

// expandConfigEnvVars expands environment variables in database settings
func expandConfigEnvVars(config *Config) {
	for name, db := range config.Databases {
		db.Connection = expandEnvVars(db.Connection)
		db.Driver = expandEnvVars(db.Driver)
		db.Schema = expandEnvVars(db.Schema)
		db.Database = expandEnvVars(db.Database)
		config.Databases[name] = db
	}
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// DialectValue returns the configured dialect
func (c *Config) DialectValue() Dialect {
	dialect, err := ParseDialect(c.Dialect)
	if err != nil {
		return DialectPostgres
	}

	return dialect
}

// Table returns the table definition with the given name
func (c *Config) Table(name string) (*TableInfo, error) {
	table, ok := c.Tables[name]
	if !ok || table == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}

	return table, nil
}

// Database returns the database settings for an environment, falling back to
// query.default_environment when env is empty
func (c *Config) Database(env string) (Database, error) {
	if env == "" {
		env = c.Query.DefaultEnvironment
	}

	db, ok := c.Databases[env]
	if !ok {
		return Database{}, fmt.Errorf("%w: %s", ErrEnvironmentNotFound, env)
	}

	return db, nil
}

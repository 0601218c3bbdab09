package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/shibukawa/pgxlate"
	"github.com/shibukawa/pgxlate/celquery"
	"github.com/shibukawa/pgxlate/sqlbuild"
	"github.com/shibukawa/pgxlate/sqlexpr"
	"github.com/shibukawa/pgxlate/translate"
	"github.com/shibukawa/pgxlate/typemap"
	"github.com/shibukawa/pgxlate/valtype"
)

// Sentinel errors
var (
	ErrInvalidParam     = errors.New("invalid parameter declaration")
	ErrNotPredicate     = errors.New("expression is not a boolean predicate")
	ErrUnsupportedDB    = errors.New("database driver is not supported")
	ErrUnknownOperation = errors.New("operation not found in catalog")
)

// session holds the translation pipeline built from a configuration file
type session struct {
	config     *pgxlate.Config
	factory    *sqlbuild.Factory
	dispatcher *translate.Dispatcher
}

// newSession loads the configuration and wires the catalog, factory and
// dispatcher it describes
func newSession(ctx *Context) (*session, error) {
	config, err := pgxlate.LoadConfig(ctx.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	overrides, err := typemap.OverridesFromConfig(config.TypeMappings)
	if err != nil {
		return nil, err
	}

	catalog, err := typemap.NewCatalog(config.DialectValue(), overrides...)
	if err != nil {
		return nil, err
	}

	factory := sqlbuild.NewFactory(config.DialectValue(), catalog)

	opts := translate.DefaultOptions(factory, !config.Translation.DisableDocument)
	if ctx.Verbose {
		color.Blue("Dialect: %s", config.DialectValue())

		opts = append(opts, translate.WithTrace(traceEvent))
	}

	return &session{
		config:     config,
		factory:    factory,
		dispatcher: translate.NewDispatcher(opts...),
	}, nil
}

// compiler creates a compiler for a configured table
func (s *session) compiler(tableName string, params []string, opts ...celquery.Option) (*celquery.Compiler, error) {
	table, err := s.config.Table(tableName)
	if err != nil {
		return nil, err
	}

	compilerOpts := []celquery.Option{celquery.WithParamStyle(paramStyle(s.config.Render.ParamStyle))}

	for _, decl := range params {
		name, t, err := parseParam(decl)
		if err != nil {
			return nil, err
		}

		compilerOpts = append(compilerOpts, celquery.WithParameter(name, t))
	}

	return celquery.NewCompiler(table, s.dispatcher, s.factory, append(compilerOpts, opts...)...)
}

// parseParam parses a name:type parameter declaration
func parseParam(decl string) (string, valtype.Type, error) {
	name, typeName, ok := strings.Cut(decl, ":")
	name = strings.TrimSpace(name)

	if !ok || name == "" {
		return "", valtype.TypeUnknown, fmt.Errorf("%w: %q (expected name:type)", ErrInvalidParam, decl)
	}

	t, err := valtype.Parse(typeName)
	if err != nil {
		return "", valtype.TypeUnknown, fmt.Errorf("%w: %s: %w", ErrInvalidParam, name, err)
	}

	return name, t, nil
}

func paramStyle(name string) sqlexpr.ParamStyle {
	if name == pgxlate.ParamStyleNamed {
		return sqlexpr.ParamNamed
	}

	return sqlexpr.ParamDollar
}

func traceEvent(e translate.TraceEvent) {
	if e.Accepted {
		color.Blue("%s translated by %s", e.Operation, e.Translator)
		return
	}

	color.Yellow("%s declined by every translator", e.Operation)
}

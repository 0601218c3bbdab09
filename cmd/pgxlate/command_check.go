package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jackc/pgx/v5"
	"github.com/shibukawa/pgxlate"
	"github.com/shibukawa/pgxlate/celquery"
	"github.com/shibukawa/pgxlate/sqlexpr"
	"github.com/shibukawa/pgxlate/valtype"
)

// CheckCmd represents the check command
type CheckCmd struct {
	Expression string   `arg:"" help:"CEL expression over the table's columns"`
	Table      string   `help:"Table the expression refers to" short:"t" required:""`
	Param      []string `help:"Parameter declaration as name:type" short:"p"`
	Env        string   `help:"Database environment from config (defaults to query.default_environment)" short:"e"`
}

// Run executes the check command
func (cmd *CheckCmd) Run(ctx *Context) error {
	s, err := newSession(ctx)
	if err != nil {
		return err
	}

	db, err := s.config.Database(cmd.Env)
	if err != nil {
		return err
	}

	if !isPostgresDriver(db.Driver) {
		return fmt.Errorf("%w: %s", ErrUnsupportedDB, db.Driver)
	}

	// the server sees the statement, so placeholders must be positional
	compiler, err := s.compiler(cmd.Table, cmd.Param, celquery.WithParamStyle(sqlexpr.ParamDollar))
	if err != nil {
		return err
	}

	expr, err := compiler.Compile(cmd.Expression)
	if err != nil {
		return fmt.Errorf("failed to translate expression: %w", err)
	}

	if expr.Type().Kind != valtype.Bool {
		return fmt.Errorf("%w: %s", ErrNotPredicate, expr.Type())
	}

	where, params := compiler.Render(expr)
	query := selectStatement(compiler.Table(), where)

	if ctx.Verbose {
		color.Blue("Statement: %s", query)
	}

	checkCtx, cancel := context.WithTimeout(context.Background(), time.Duration(s.config.Query.Timeout)*time.Second)
	defer cancel()

	conn, err := pgx.Connect(checkCtx, db.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close(checkCtx)

	desc, err := conn.Prepare(checkCtx, "pgxlate_check", query)
	if err != nil {
		return fmt.Errorf("database rejected the statement: %w", err)
	}

	if !ctx.Quiet {
		color.Green("OK: %s", where)

		for i, oid := range desc.ParamOIDs {
			typeName := fmt.Sprintf("oid %d", oid)
			if t, ok := conn.TypeMap().TypeForOID(oid); ok {
				typeName = t.Name
			}

			name := "?"
			if i < len(params) {
				name = params[i]
			}

			fmt.Fprintf(ctx.Stdout, "$%d %s: %s\n", i+1, name, typeName)
		}
	}

	return nil
}

// selectStatement builds the statement the database is asked to prepare
func selectStatement(table *pgxlate.TableInfo, where string) string {
	parts := []string{table.Name}
	if table.Schema != "" {
		parts = []string{table.Schema, table.Name}
	}

	for i, part := range parts {
		parts[i] = sqlexpr.QuoteIdentifier(part)
	}

	from := strings.Join(parts, ".")
	if table.Alias != "" {
		from += " AS " + sqlexpr.QuoteIdentifier(table.Alias)
	}

	return fmt.Sprintf("SELECT 1 FROM %s WHERE %s", from, where)
}

func isPostgresDriver(driver string) bool {
	switch strings.ToLower(driver) {
	case "postgres", "postgresql", "pgx":
		return true
	default:
		return false
	}
}

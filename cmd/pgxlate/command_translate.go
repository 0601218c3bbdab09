package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/shibukawa/pgxlate/sqlexpr"
	"gopkg.in/yaml.v3"
)

// TranslateCmd represents the translate command
type TranslateCmd struct {
	Expression string   `arg:"" help:"CEL expression over the table's columns"`
	Table      string   `help:"Table the expression refers to" short:"t" required:""`
	Param      []string `help:"Parameter declaration as name:type (e.g. ids:list<int>)" short:"p"`
	Tree       bool     `help:"Print the expression tree as YAML"`
}

// Run executes the translate command
func (cmd *TranslateCmd) Run(ctx *Context) error {
	s, err := newSession(ctx)
	if err != nil {
		return err
	}

	compiler, err := s.compiler(cmd.Table, cmd.Param)
	if err != nil {
		return err
	}

	expr, err := compiler.Compile(cmd.Expression)
	if err != nil {
		return fmt.Errorf("failed to translate expression: %w", err)
	}

	sql, params := compiler.Render(expr)
	fmt.Fprintln(ctx.Stdout, sql)

	if len(params) > 0 && !ctx.Quiet {
		color.Blue("Parameters: %s", strings.Join(params, ", "))
	}

	if cmd.Tree {
		encoder := yaml.NewEncoder(ctx.Stdout)
		encoder.SetIndent(2)

		if err := encoder.Encode(sqlexpr.Describe(expr)); err != nil {
			return fmt.Errorf("failed to write expression tree: %w", err)
		}

		return encoder.Close()
	}

	return nil
}

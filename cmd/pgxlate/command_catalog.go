package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/shibukawa/pgxlate/sqlbuild"
	"github.com/shibukawa/pgxlate/sqlexpr"
	"github.com/shibukawa/pgxlate/translate"
	"github.com/shibukawa/pgxlate/translate/ops"
	"github.com/shibukawa/pgxlate/valtype"
)

// CatalogCmd represents the catalog command
type CatalogCmd struct {
	Lookup string `help:"Show one entry, e.g. DateTime.DayOfWeek or Enumerable.Any/1" short:"l"`
}

// Run executes the catalog command
func (cmd *CatalogCmd) Run(ctx *Context) error {
	s, err := newSession(ctx)
	if err != nil {
		return err
	}

	if cmd.Lookup != "" {
		method, member, err := lookupOperation(cmd.Lookup)
		if err != nil {
			return err
		}

		if method != nil {
			printEntry(ctx, method.String(), probeMethod(s.factory, s.dispatcher, method))
		} else {
			printEntry(ctx, member.String(), probeMember(s.factory, s.dispatcher, member))
		}

		return nil
	}

	if !ctx.Quiet {
		color.Blue("Methods")
	}

	for _, method := range ops.Methods() {
		printEntry(ctx, method.String(), probeMethod(s.factory, s.dispatcher, method))
	}

	if !ctx.Quiet {
		color.Blue("Members")
	}

	for _, member := range ops.Members() {
		printEntry(ctx, member.String(), probeMember(s.factory, s.dispatcher, member))
	}

	return nil
}

func printEntry(ctx *Context, name, sql string) {
	if sql == "" {
		fmt.Fprintf(ctx.Stdout, "%-32s %s\n", name, color.YellowString("not translated"))
		return
	}

	fmt.Fprintf(ctx.Stdout, "%-32s %s\n", name, sql)
}

// lookupOperation resolves Type.Name or Type.Name/arity
func lookupOperation(ref string) (*ops.MethodDescriptor, *ops.MemberDescriptor, error) {
	typeName, rest, ok := strings.Cut(ref, ".")
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q (expected Type.Name)", ErrUnknownOperation, ref)
	}

	name, arityText, hasArity := strings.Cut(rest, "/")
	if hasArity {
		arity, err := strconv.Atoi(arityText)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %q has an invalid arity", ErrUnknownOperation, ref)
		}

		if method, ok := ops.LookupMethod(typeName, name, arity); ok {
			return method, nil, nil
		}

		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownOperation, ref)
	}

	if member, ok := ops.LookupMember(typeName, name); ok {
		return nil, member, nil
	}

	// without an arity the first overload in catalog order wins
	for _, candidate := range ops.Methods() {
		if method, ok := ops.LookupMethod(typeName, name, candidate.Arity); ok {
			return method, nil, nil
		}
	}

	return nil, nil, fmt.Errorf("%w: %s", ErrUnknownOperation, ref)
}

// sampleSource returns the receiver a catalog entry is demonstrated on
func sampleSource(f *sqlbuild.Factory, declaring ops.DeclaringType) sqlexpr.Expr {
	switch declaring {
	case ops.TypeArray:
		return f.Column("", "xs", valtype.ArrayOf(valtype.TypeInt32), nil, false)
	case ops.TypeDateTime:
		return f.Column("", "ts", valtype.TypeDateTime, nil, false)
	case ops.TypeDateTimeOffset:
		return f.Column("", "ts", valtype.TypeDateTimeOffset, nil, false)
	default:
		return f.Column("", "xs", valtype.ListOf(valtype.TypeInt32), nil, false)
	}
}

// probeMethod translates a sample call and returns its SQL, or "" when every
// translator declines
func probeMethod(f *sqlbuild.Factory, d *translate.Dispatcher, method *ops.MethodDescriptor) string {
	source := sampleSource(f, method.DeclaringType)

	var (
		instance sqlexpr.Expr
		args     []sqlexpr.Expr
	)

	if method.Static {
		args = append(args, source)
	} else {
		instance = source
	}

	switch method.Method {
	case ops.MethodGetItem, ops.MethodElementAt:
		args = append(args, f.Parameter("i", valtype.TypeInt32))
	case ops.MethodContains:
		args = append(args, f.Parameter("item", valtype.TypeInt32))
	case ops.MethodSequenceEqual:
		args = append(args, f.Parameter("other", source.Type()))
	case ops.MethodAny, ops.MethodCount:
		if method.HasPredicate {
			args = append(args, f.Parameter("predicate", valtype.TypeBool))
		}
	}

	expr, ok := d.Translate(instance, method, args)
	if !ok {
		return ""
	}

	return sqlexpr.Print(expr)
}

// probeMember translates a sample member access and returns its SQL, or ""
// when every translator declines
func probeMember(f *sqlbuild.Factory, d *translate.Dispatcher, member *ops.MemberDescriptor) string {
	var instance sqlexpr.Expr
	if !member.Static {
		instance = sampleSource(f, member.DeclaringType)
	}

	expr, ok := d.TranslateMember(instance, member, member.ResultType)
	if !ok {
		return ""
	}

	return sqlexpr.Print(expr)
}

// Package translate routes host method calls and member accesses to the
// translators that lower them into SQL expressions.
//
// A translator returns (expr, true) when it handles an operation and
// (nil, false) when it declines. The Dispatcher asks translators in
// registration order and the first success wins.
package translate

import (
	"github.com/shibukawa/pgxlate/sqlbuild"
	"github.com/shibukawa/pgxlate/sqlexpr"
	"github.com/shibukawa/pgxlate/translate/arrays"
	"github.com/shibukawa/pgxlate/translate/datetime"
	"github.com/shibukawa/pgxlate/translate/jsondoc"
	"github.com/shibukawa/pgxlate/translate/ops"
	"github.com/shibukawa/pgxlate/valtype"
)

// MethodCallTranslator lowers a method call. instance is nil for static
// methods.
type MethodCallTranslator interface {
	Translate(instance sqlexpr.Expr, method *ops.MethodDescriptor, args []sqlexpr.Expr) (sqlexpr.Expr, bool)
}

// MemberTranslator lowers a property access. instance is nil for static
// members.
type MemberTranslator interface {
	TranslateMember(instance sqlexpr.Expr, member *ops.MemberDescriptor, resultType valtype.Type) (sqlexpr.Expr, bool)
}

// TraceEvent reports the outcome of one dispatch. Translator is empty when
// every translator declined.
type TraceEvent struct {
	Operation  string
	Translator string
	Accepted   bool
}

// TraceFunc receives dispatch outcomes. It must be safe for concurrent use
// when the dispatcher is shared.
type TraceFunc func(TraceEvent)

type namedMethodTranslator struct {
	name       string
	translator MethodCallTranslator
}

type namedMemberTranslator struct {
	name       string
	translator MemberTranslator
}

// Dispatcher holds ordered translator lists. It is immutable after
// construction.
type Dispatcher struct {
	methods []namedMethodTranslator
	members []namedMemberTranslator
	trace   TraceFunc
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMethodTranslator appends a method translator.
func WithMethodTranslator(name string, t MethodCallTranslator) Option {
	return func(d *Dispatcher) {
		d.methods = append(d.methods, namedMethodTranslator{name: name, translator: t})
	}
}

// WithMemberTranslator appends a member translator.
func WithMemberTranslator(name string, t MemberTranslator) Option {
	return func(d *Dispatcher) {
		d.members = append(d.members, namedMemberTranslator{name: name, translator: t})
	}
}

// WithTrace installs a trace hook.
func WithTrace(fn TraceFunc) Option {
	return func(d *Dispatcher) {
		d.trace = fn
	}
}

// NewDispatcher creates a dispatcher from options, in order.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// DefaultOptions wires the built-in translators: documents first, then
// native arrays, then date/time members. withDocuments=false leaves json
// receivers untranslated.
func DefaultOptions(factory *sqlbuild.Factory, withDocuments bool) []Option {
	var (
		documents arrays.DocumentTranslator
		opts      []Option
	)

	if withDocuments {
		doc := jsondoc.New(factory)
		documents = doc
		opts = append(opts, WithMethodTranslator("jsondoc", doc), WithMemberTranslator("jsondoc", doc))
	}

	arr := arrays.New(factory, documents)
	dt := datetime.New(factory)

	return append(opts,
		WithMethodTranslator("arrays", arr),
		WithMemberTranslator("arrays", arr),
		WithMemberTranslator("datetime", dt),
	)
}

// NewDefaultDispatcher creates a dispatcher with the built-in translators.
// Extra options are applied after them.
func NewDefaultDispatcher(factory *sqlbuild.Factory, opts ...Option) *Dispatcher {
	return NewDispatcher(append(DefaultOptions(factory, true), opts...)...)
}

// Translate asks each method translator in turn.
func (d *Dispatcher) Translate(instance sqlexpr.Expr, method *ops.MethodDescriptor, args []sqlexpr.Expr) (sqlexpr.Expr, bool) {
	for _, entry := range d.methods {
		if expr, ok := entry.translator.Translate(instance, method, args); ok {
			d.reportMethod(method, entry.name)
			return expr, true
		}
	}

	d.reportMethod(method, "")

	return nil, false
}

// TranslateMember asks each member translator in turn.
func (d *Dispatcher) TranslateMember(instance sqlexpr.Expr, member *ops.MemberDescriptor, resultType valtype.Type) (sqlexpr.Expr, bool) {
	for _, entry := range d.members {
		if expr, ok := entry.translator.TranslateMember(instance, member, resultType); ok {
			d.reportMember(member, entry.name)
			return expr, true
		}
	}

	d.reportMember(member, "")

	return nil, false
}

// Translators returns the registered method and member translator names in
// dispatch order.
func (d *Dispatcher) Translators() (methods, members []string) {
	for _, entry := range d.methods {
		methods = append(methods, entry.name)
	}

	for _, entry := range d.members {
		members = append(members, entry.name)
	}

	return methods, members
}

func (d *Dispatcher) reportMethod(method *ops.MethodDescriptor, translator string) {
	if d.trace == nil {
		return
	}

	operation := "<nil>"
	if method != nil {
		operation = method.String()
	}

	d.trace(TraceEvent{Operation: operation, Translator: translator, Accepted: translator != ""})
}

func (d *Dispatcher) reportMember(member *ops.MemberDescriptor, translator string) {
	if d.trace == nil {
		return
	}

	operation := "<nil>"
	if member != nil {
		operation = member.String()
	}

	d.trace(TraceEvent{Operation: operation, Translator: translator, Accepted: translator != ""})
}

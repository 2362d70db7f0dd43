// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package sqlstmt

import (
	"database/sql"
	"fmt"
	"maps"

	"go.uber.org/zap"

	"github.com/canonical/sqlstmt/descriptor"
	"github.com/canonical/sqlstmt/internal/expr"
	"github.com/canonical/sqlstmt/internal/resolve"
	"github.com/canonical/sqlstmt/internal/sqlerr"
	"github.com/canonical/sqlstmt/internal/typeinfo"
)

var (
	// ErrConfiguration is returned for malformed descriptors.
	ErrConfiguration = sqlerr.ErrConfiguration
	// ErrValueRequired is returned when a required param has neither a
	// value nor a default.
	ErrValueRequired = sqlerr.ErrValueRequired
	// ErrInvalidArgument is returned when a predicate or value cannot be
	// rendered.
	ErrInvalidArgument = sqlerr.ErrInvalidArgument
	// ErrNotAllowed is returned for an UPDATE or DELETE without a WHERE
	// clause.
	ErrNotAllowed = sqlerr.ErrNotAllowed
)

// Error is the concrete type of the errors above. Name holds the
// placeholder or column the error was raised for.
type Error = sqlerr.Error

// Statement is a statement built from a descriptor. A Statement is not safe
// for concurrent use; the Rendered values it returns are.
type Statement interface {
	// SetValue sets the value of a placeholder. The name may be given with
	// or without the leading colon.
	SetValue(name string, value any)
	// SetValues sets the values of several placeholders.
	SetValues(values map[string]any)
	// SetStruct sets values from the "db" tagged fields of a struct, or
	// from a map with string keys.
	SetStruct(v any) error
	// RemoveValue clears the value of a placeholder.
	RemoveValue(name string)

	// Params describes every placeholder of the statement, nested
	// statements included, in declaration order.
	Params() []ParamInfo
	// RequiredParams returns the placeholders of the required params.
	RequiredParams() []string
	// OptionalParams returns the placeholders of the other params.
	OptionalParams() []string

	// SQL renders the statement text.
	SQL() (string, error)
	// PrettySQL renders the statement text with one clause per line.
	PrettySQL() (string, error)
	// Bindings renders the statement and returns the placeholder values.
	Bindings() (map[string]any, error)
	// Render renders the statement text and placeholder values.
	Render() (*Rendered, error)
	// RenderPretty is Render with one clause per line.
	RenderPretty() (*Rendered, error)
}

// ParamInfo describes a placeholder of a statement.
type ParamInfo struct {
	Placeholder string
	Required    bool
	Nullable    bool
	Default     any
	Type        string
	Value       any
	HasValue    bool
}

// Rendered is the text of a statement and the values of its placeholders.
// Every key of Bindings appears in SQL.
type Rendered struct {
	SQL      string
	Bindings map[string]any
}

// NamedArgs returns the bindings as database/sql named arguments, in the
// order the placeholders first appear in the SQL text.
func (r *Rendered) NamedArgs() []any {
	var args []any
	for _, ph := range expr.Placeholders(r.SQL) {
		if v, ok := r.Bindings[ph]; ok {
			args = append(args, sql.Named(ph[1:], v))
		}
	}
	return args
}

// Option configures a Statement.
type Option func(*options)

type options struct {
	quote          rune
	logger         *zap.Logger
	checkInjection bool
}

// WithQuote sets the character used to quote string literals written into
// the SQL text. The default is the single quote.
func WithQuote(quote rune) Option {
	return func(o *options) {
		o.quote = quote
	}
}

// WithLogger sets the logger. Skipped predicates and rendered statements
// are logged at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithInjectionCheck rejects string values written into the SQL text by
// inline params when they look like SQL injection. Bound values are never
// written into the text and are not checked.
func WithInjectionCheck() Option {
	return func(o *options) {
		o.checkInjection = true
	}
}

func (o *options) env() resolve.Env {
	return resolve.Env{
		Factory:        expr.NewFactory(o.quote),
		CheckInjection: o.checkInjection,
	}
}

// New returns the Statement described by d. The descriptor is validated
// here; missing values are only reported when the statement renders.
func New(d descriptor.Statement, opts ...Option) (_ Statement, err error) {
	kind := descriptor.Kind(d)
	defer func() {
		if err == nil {
			return
		}
		if kind == "" {
			err = fmt.Errorf("cannot build statement: %w", err)
		} else {
			err = fmt.Errorf("cannot build %s statement: %w", kind, err)
		}
	}()

	o := &options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	if kind == "" {
		return nil, sqlerr.New(sqlerr.ErrConfiguration, "", "unsupported descriptor %T", d)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	var impl statement
	switch d := d.(type) {
	case *descriptor.Select:
		impl, err = newSelect(o, d)
	case *descriptor.Insert:
		impl, err = newInsert(o, d)
	case *descriptor.Update:
		impl, err = newUpdate(o, d)
	case *descriptor.Delete:
		impl, err = newDelete(o, d)
	case *descriptor.Execute:
		impl, err = newExecute(o, d)
	case *descriptor.Union:
		impl, err = newUnion(o, d)
	}
	if err != nil {
		return nil, err
	}
	return &builtStatement{kind: kind, logger: o.logger, impl: impl}, nil
}

// MustNew is like New but panics on error.
func MustNew(d descriptor.Statement, opts ...Option) Statement {
	s, err := New(d, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// statement is implemented by each statement kind.
type statement interface {
	SetValue(name string, value any)
	RemoveValue(name string)
	// canonicalParams returns the canonical param of every placeholder.
	canonicalParams() []*resolve.Param
	// render returns the statement text and the values of the
	// placeholders it contains.
	render(pretty bool) (string, map[string]any, error)
}

// builtStatement implements Statement on top of a statement kind.
type builtStatement struct {
	kind   string
	logger *zap.Logger
	impl   statement
}

func (s *builtStatement) SetValue(name string, value any) {
	s.impl.SetValue(name, value)
}

func (s *builtStatement) SetValues(values map[string]any) {
	for name, v := range values {
		s.impl.SetValue(name, v)
	}
}

func (s *builtStatement) SetStruct(v any) error {
	values, err := typeinfo.Values(v)
	if err != nil {
		return err
	}
	s.SetValues(values)
	return nil
}

func (s *builtStatement) RemoveValue(name string) {
	s.impl.RemoveValue(name)
}

func (s *builtStatement) Params() []ParamInfo {
	var infos []ParamInfo
	for _, p := range s.impl.canonicalParams() {
		v, ok := p.Value()
		infos = append(infos, ParamInfo{
			Placeholder: p.Placeholder(),
			Required:    p.Required(),
			Nullable:    p.Nullable(),
			Default:     p.Default(),
			Type:        p.DataType().String(),
			Value:       v,
			HasValue:    ok,
		})
	}
	return infos
}

func (s *builtStatement) RequiredParams() []string {
	var names []string
	for _, p := range s.impl.canonicalParams() {
		if p.Required() {
			names = append(names, p.Placeholder())
		}
	}
	return names
}

func (s *builtStatement) OptionalParams() []string {
	var names []string
	for _, p := range s.impl.canonicalParams() {
		if !p.Required() {
			names = append(names, p.Placeholder())
		}
	}
	return names
}

func (s *builtStatement) SQL() (string, error) {
	r, err := s.Render()
	if err != nil {
		return "", err
	}
	return r.SQL, nil
}

func (s *builtStatement) PrettySQL() (string, error) {
	r, err := s.RenderPretty()
	if err != nil {
		return "", err
	}
	return r.SQL, nil
}

func (s *builtStatement) Bindings() (map[string]any, error) {
	r, err := s.Render()
	if err != nil {
		return nil, err
	}
	return r.Bindings, nil
}

func (s *builtStatement) Render() (*Rendered, error) {
	return s.render(false)
}

func (s *builtStatement) RenderPretty() (*Rendered, error) {
	return s.render(true)
}

func (s *builtStatement) render(pretty bool) (_ *Rendered, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("cannot render %s statement: %w", s.kind, err)
		}
	}()

	text, bindings, err := s.impl.render(pretty)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("rendered statement",
		zap.String("kind", s.kind),
		zap.String("sql", text),
		zap.Int("bindings", len(bindings)))
	return &Rendered{SQL: text, Bindings: maps.Clone(bindings)}, nil
}

// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package resolve turns the params, conditions and columns of a statement
// descriptor into SQL fragments. A Param carries a value set by the caller
// and binds it to a placeholder. A Condition renders fixed arguments. A
// Column computes the SQL expression the params and conditions filter on.
package resolve

import (
	"maps"

	"github.com/corazawaf/libinjection-go"

	"github.com/canonical/sqlstmt/internal/expr"
	"github.com/canonical/sqlstmt/internal/sqlerr"
)

// Env holds the rendering settings shared by all parts of a statement.
type Env struct {
	Factory *expr.Factory
	// CheckInjection rejects inlined string values that look like SQL
	// injection.
	CheckInjection bool
}

// Fragment is rendered SQL together with the values of the placeholders it
// introduces.
type Fragment struct {
	SQL      string
	Bindings map[string]any
}

// bind records the value of a placeholder.
func (f *Fragment) bind(placeholder string, v any) {
	if f.Bindings == nil {
		f.Bindings = map[string]any{}
	}
	f.Bindings[placeholder] = v
}

// merge adds the bindings of other.
func (f *Fragment) merge(other Fragment) {
	if len(other.Bindings) == 0 {
		return
	}
	if f.Bindings == nil {
		f.Bindings = map[string]any{}
	}
	maps.Copy(f.Bindings, other.Bindings)
}

// Subquery is a nested statement rendered inside a param, condition, column
// or table.
type Subquery interface {
	// SetValue sets the value of a placeholder of the subquery, if it has
	// one of that name.
	SetValue(placeholder string, v any)
	// SetValues sets several values.
	SetValues(values map[string]any)
	// RemoveValue clears the value of a placeholder.
	RemoveValue(placeholder string)
	// Fragment renders the subquery.
	Fragment() (Fragment, error)
}

// Predicate is a Param or Condition placed in a WHERE, HAVING or ON
// clause.
type Predicate interface {
	// Render returns the predicate SQL. An empty fragment means the
	// predicate is left out.
	Render(env Env) (Fragment, error)
	// SetColumn anchors the predicate on a column. name is used instead of
	// expression when the predicate asks for the column name.
	SetColumn(expression, name string)
	// Combined is the OR group of the predicate, zero if none.
	Combined() int
	// Having reports whether the predicate belongs in HAVING.
	Having() bool
	// Skipped reports whether the predicate is left out because of the
	// emptiness of its value.
	Skipped() bool
	// Label names the predicate in errors and logs.
	Label() string
}

// Canonical returns name as a ":name" placeholder.
func Canonical(name string) string {
	if len(name) > 0 && name[0] == ':' {
		return name
	}
	return ":" + name
}

// checkInjection rejects s if it looks like an SQL injection attempt.
func checkInjection(name string, s string) error {
	if ok, fingerprint := libinjection.IsSQLi(s); ok {
		return sqlerr.New(sqlerr.ErrInvalidArgument, name, "value rejected as SQL injection (fingerprint %s)", string(fingerprint))
	}
	return nil
}

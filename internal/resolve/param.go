// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package resolve

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/canonical/sqlstmt/descriptor"
	"github.com/canonical/sqlstmt/internal/expr"
	"github.com/canonical/sqlstmt/internal/keyword"
	"github.com/canonical/sqlstmt/internal/sqlerr"
)

// Param is a placeholder-backed predicate or value. Its value is set after
// the statement is built and is resolved every time the statement renders.
type Param struct {
	d           descriptor.Param
	placeholder string
	op          expr.Operator
	dataType    keyword.DataType
	// typed is false when the descriptor declares no data type. Values of
	// untyped params are used as given.
	typed bool
	sub   Subquery

	value any
	set   bool

	onEmpty    bool
	onNotEmpty bool

	expression string
	name       string
}

// NewParam returns the param described by d. sub is the rendered form of
// d.Subquery, if any.
func NewParam(d descriptor.Param, sub Subquery) (*Param, error) {
	name := strings.TrimSpace(strings.TrimPrefix(d.Name, ":"))
	if name == "" {
		return nil, sqlerr.New(sqlerr.ErrConfiguration, "", "param has no name")
	}
	t, ok := keyword.DataTypeOf(d.Type)
	if !ok {
		return nil, sqlerr.New(sqlerr.ErrConfiguration, d.Name, "unknown data type %q", d.Type)
	}
	p := &Param{
		d:           d,
		placeholder: ":" + name,
		op:          expr.ParseOperator(d.Operator),
		dataType:    t,
		typed:       d.Type != "",
		sub:         sub,
	}
	p.SetOnEmpty(d.OnEmpty)
	if d.OnNotEmpty {
		p.SetOnNotEmpty(true)
	}
	return p, nil
}

// Placeholder returns the ":name" placeholder of the param.
func (p *Param) Placeholder() string { return p.placeholder }

// Label returns the placeholder.
func (p *Param) Label() string { return p.placeholder }

func (p *Param) Required() bool { return p.d.Required }

func (p *Param) Nullable() bool { return p.d.Nullable }

func (p *Param) Default() any { return p.d.Default }

func (p *Param) DataType() keyword.DataType { return p.dataType }

func (p *Param) Operator() expr.Operator { return p.op }

func (p *Param) Combined() int { return p.d.Combined }

func (p *Param) Having() bool { return p.d.Having }

// Field returns the name of the param when it is used on its own, as a
// named procedure argument. It defaults to the placeholder without its
// colon.
func (p *Param) Field() string {
	if p.d.Field != "" {
		return p.d.Field
	}
	return p.placeholder[1:]
}

// Bindable reports whether the value is bound to the placeholder rather
// than written into the SQL text. Expression values are always written.
func (p *Param) Bindable() bool {
	return !p.d.Inline && p.dataType != keyword.Expression
}

// IsFilter reports whether the param of an UPDATE is a WHERE predicate. Any
// param whose operator is not equals is a filter.
func (p *Param) IsFilter() bool {
	return p.d.Filter || p.op != expr.OpEquals
}

// SetValue sets the value of the param.
func (p *Param) SetValue(v any) {
	p.value, p.set = v, true
}

// RemoveValue clears the value of the param.
func (p *Param) RemoveValue() {
	p.value, p.set = nil, false
}

// HasValue reports whether a value has been set, nil included.
func (p *Param) HasValue() bool { return p.set }

// Value returns the value as set by the caller.
func (p *Param) Value() (any, bool) { return p.value, p.set }

// ExplicitNull reports whether the value was set to nil.
func (p *Param) ExplicitNull() bool { return p.set && p.value == nil }

// SetOnEmpty restricts the param to empty values. Setting it clears
// OnNotEmpty.
func (p *Param) SetOnEmpty(b bool) {
	p.onEmpty = b
	if b {
		p.onNotEmpty = false
	}
}

// SetOnNotEmpty restricts the param to non-empty values. Setting it clears
// OnEmpty.
func (p *Param) SetOnNotEmpty(b bool) {
	p.onNotEmpty = b
	if b {
		p.onEmpty = false
	}
}

func (p *Param) OnEmpty() bool { return p.onEmpty }

func (p *Param) OnNotEmpty() bool { return p.onNotEmpty }

// IsEmpty reports whether the current value is unset, nil, the empty
// string or an empty list.
func (p *Param) IsEmpty() bool {
	return !p.set || isEmpty(p.value)
}

// Skipped reports whether the param is left out of its clause: a param
// restricted to non-empty values is skipped while empty, and the other way
// round.
func (p *Param) Skipped() bool {
	empty := p.IsEmpty()
	return (p.onNotEmpty && empty) || (p.onEmpty && !empty)
}

// SetColumn anchors the param on a column expression. name is used instead
// when the param asks for the column name.
func (p *Param) SetColumn(expression, name string) {
	p.expression, p.name = expression, name
}

func (p *Param) anchor() string {
	if p.d.UseColumnName && p.name != "" {
		return p.name
	}
	if p.expression != "" {
		return p.expression
	}
	return p.d.Field
}

// Resolve returns the coerced value of the param. An unset required param
// falls back to its default; an unset optional param has no value. null is
// true when there is no value; that is an error for a required param that
// is not nullable.
func (p *Param) Resolve() (v any, null bool, err error) {
	v = p.value
	if !p.set && p.d.Required {
		v = p.d.Default
	}
	if v == nil {
		if p.d.Required && !p.d.Nullable {
			return nil, true, sqlerr.New(sqlerr.ErrValueRequired, p.placeholder, "no value and no default")
		}
		return nil, true, nil
	}
	if p.op == expr.OpBetween || p.op == expr.OpNotBetween {
		if s, ok := v.(string); ok && strings.Contains(s, ",") {
			v = splitList(s)
		}
	}
	if p.typed {
		c, err := coerce(v, p.dataType, p.d.Format)
		if err != nil {
			return nil, false, sqlerr.New(sqlerr.ErrInvalidArgument, p.placeholder, "cannot convert to %s: %s", p.dataType, err)
		}
		if c == nil {
			return nil, true, nil
		}
		v = c
	}
	return v, false, nil
}

// operands returns the nodes standing for the resolved value v: one
// placeholder per element of a list, index suffixed, or the inlined value
// when the param is not bindable.
func (p *Param) operands(env Env, v any) ([]expr.Node, Fragment, error) {
	var f Fragment
	list := isList(v)
	vals := []any{v}
	if list {
		vals = elements(v)
	}
	nodes := make([]expr.Node, 0, len(vals))
	for i, e := range vals {
		if p.Bindable() {
			ph := p.placeholder
			if list {
				ph = fmt.Sprintf("%s_%d", p.placeholder, i)
			}
			nodes = append(nodes, expr.Placeholder(ph))
			f.bind(ph, e)
			continue
		}
		n, err := p.inline(env, e)
		if err != nil {
			return nil, Fragment{}, err
		}
		nodes = append(nodes, n)
	}
	return nodes, f, nil
}

// inline writes a value into the SQL text. Bools, nulls, numbers and
// expressions are written as they are, everything else is quoted.
func (p *Param) inline(env Env, v any) (expr.Node, error) {
	if p.dataType == keyword.Expression {
		return expr.Raw(cast.ToString(v)), nil
	}
	if s, ok := v.(string); ok && env.CheckInjection {
		if err := checkInjection(p.placeholder, s); err != nil {
			return nil, err
		}
	}
	if p.typed && p.dataType.Unquoted() {
		return expr.Raw(cast.ToString(v)), nil
	}
	return env.Factory.Literal(v), nil
}

// Render returns the predicate SQL of the param and the values bound to its
// placeholders. A param resolving to null renders nothing.
func (p *Param) Render(env Env) (f Fragment, err error) {
	v, null, err := p.Resolve()
	if err != nil || null {
		return Fragment{}, err
	}
	anchor := p.anchor()
	if anchor == "" {
		return Fragment{}, sqlerr.New(sqlerr.ErrInvalidArgument, p.placeholder, "param is not attached to a column")
	}
	nodes, f, err := p.operands(env, v)
	if err != nil {
		return Fragment{}, err
	}
	if p.sub != nil {
		sf, err := p.sub.Fragment()
		if err != nil {
			return Fragment{}, err
		}
		f.merge(sf)
		text := expr.Substitute(sf.SQL, map[string]string{":colname": anchor})
		nodes = []expr.Node{expr.Subquery(text)}
	}
	if p.d.Template != "" {
		f.SQL = p.fill(anchor, nodes)
		return f, nil
	}

	args := []expr.Node{expr.Raw(anchor)}
	if len(nodes) == 1 {
		args = append(args, nodes[0])
	} else {
		l, err := expr.NewArgumentList(nodes...)
		if err != nil {
			return Fragment{}, err
		}
		args = append(args, l)
	}
	n, err := env.Factory.Build(p.op, p.d.Operator, args...)
	if err != nil {
		return Fragment{}, err
	}
	f.SQL = n.String()
	return f, nil
}

// fill substitutes the template tokens. :param and the placeholder itself
// stand for the value.
func (p *Param) fill(anchor string, nodes []expr.Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	value := strings.Join(parts, ", ")
	return expr.Substitute(p.d.Template, map[string]string{
		":colname":    anchor,
		":param":      value,
		p.placeholder: value,
	})
}

// Operand renders the value side of the param, as used by assignments,
// inserted values and procedure arguments. A value resolving to null
// renders as NULL and null is true.
func (p *Param) Operand(env Env) (f Fragment, null bool, err error) {
	v, null, err := p.Resolve()
	if err != nil {
		return Fragment{}, false, err
	}
	if null {
		return Fragment{SQL: string(keyword.Null)}, true, nil
	}
	nodes, f, err := p.operands(env, v)
	if err != nil {
		return Fragment{}, false, err
	}
	if p.d.Template != "" {
		f.SQL = p.fill(p.anchor(), nodes)
		return f, false, nil
	}
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	f.SQL = strings.Join(parts, ", ")
	return f, false, nil
}

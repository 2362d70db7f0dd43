// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package resolve

import (
	"strings"

	"github.com/canonical/sqlstmt/descriptor"
	"github.com/canonical/sqlstmt/internal/expr"
	"github.com/canonical/sqlstmt/internal/keyword"
	"github.com/canonical/sqlstmt/internal/sqlerr"
)

// Condition is a predicate on a column with arguments fixed by the
// descriptor.
type Condition struct {
	d        descriptor.Condition
	op       expr.Operator
	dataType keyword.DataType
	sub      Subquery

	expression string
	name       string
}

// NewCondition returns the condition described by d. Arguments of a
// condition without a data type are raw SQL.
func NewCondition(d descriptor.Condition, sub Subquery) (*Condition, error) {
	t := keyword.Expression
	if d.Type != "" {
		var ok bool
		if t, ok = keyword.DataTypeOf(d.Type); !ok {
			return nil, sqlerr.New(sqlerr.ErrConfiguration, d.Operator, "unknown data type %q", d.Type)
		}
	}
	return &Condition{
		d:        d,
		op:       expr.ParseOperator(d.Operator),
		dataType: t,
		sub:      sub,
	}, nil
}

func (c *Condition) Combined() int { return c.d.Combined }

func (c *Condition) Having() bool { return c.d.Having }

// Skipped is always false: a condition has no value.
func (c *Condition) Skipped() bool { return false }

// Label describes the condition by its operator and column.
func (c *Condition) Label() string {
	op := c.d.Operator
	if op == "" {
		op = c.op.String()
	}
	return op + " condition on " + c.expression
}

// SetColumn anchors the condition on a column expression. name is used
// instead when the condition asks for the column name.
func (c *Condition) SetColumn(expression, name string) {
	c.expression, c.name = expression, name
}

// Render returns the condition SQL: the operator applied to the column, the
// descriptor arguments and the subquery.
func (c *Condition) Render(env Env) (Fragment, error) {
	anchor := c.expression
	if c.d.UseColumnName && c.name != "" {
		anchor = c.name
	}
	if anchor == "" {
		return Fragment{}, sqlerr.New(sqlerr.ErrInvalidArgument, c.Label(), "condition is not attached to a column")
	}

	var f Fragment
	var args []expr.Node
	for _, a := range c.d.Args {
		if c.dataType == keyword.Expression {
			args = append(args, expr.Raw(a))
		} else {
			args = append(args, env.Factory.Literal(a))
		}
	}
	if c.sub != nil {
		sf, err := c.sub.Fragment()
		if err != nil {
			return Fragment{}, err
		}
		f.merge(sf)
		text := expr.Substitute(sf.SQL, map[string]string{":colname": anchor})
		args = append(args, expr.Subquery(text))
	}

	if c.d.Template != "" {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.String()
		}
		f.SQL = expr.Substitute(c.d.Template, map[string]string{
			":colname": anchor,
			":param":   strings.Join(parts, ", "),
		})
		return f, nil
	}

	n, err := env.Factory.Build(c.op, c.d.Operator, append([]expr.Node{expr.Raw(anchor)}, args...)...)
	if err != nil {
		return Fragment{}, err
	}
	f.SQL = n.String()
	return f, nil
}

// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package resolve

import (
	"github.com/google/uuid"

	"github.com/canonical/sqlstmt/descriptor"
	"github.com/canonical/sqlstmt/internal/expr"
	"github.com/canonical/sqlstmt/internal/keyword"
)

// Column is a column of a statement. The indices refer to the params and
// conditions of the owning statement.
type Column struct {
	// ID tells apart columns with the same expression reached through
	// different joins.
	ID         uuid.UUID
	d          *descriptor.Column
	tableAlias string
	sub        Subquery

	expression string
	name       string

	Params         []int
	Conditions     []int
	JoinParams     []int
	JoinConditions []int
}

// NewColumn returns the column described by d on the table aliased
// tableAlias. sub is the rendered form of d.Subquery, if any.
func NewColumn(d *descriptor.Column, tableAlias string, sub Subquery) *Column {
	return &Column{
		ID:         uuid.New(),
		d:          d,
		tableAlias: tableAlias,
		sub:        sub,
	}
}

// Resolve computes the column expression. It must run before Expression
// and Name are used and runs again on every render, since a subquery
// column depends on the current values.
func (c *Column) Resolve(env Env) (Fragment, error) {
	var f Fragment
	var base string
	switch {
	case c.sub != nil:
		sf, err := c.sub.Fragment()
		if err != nil {
			return Fragment{}, err
		}
		f.merge(sf)
		base = expr.Subquery(sf.SQL).String()
	case c.d.Literal || c.tableAlias == "" || c.d.Name == "":
		base = c.d.Name
	default:
		base = c.tableAlias + "." + c.d.Name
	}
	c.name = base
	if c.d.Alias != "" {
		c.name = c.d.Alias
	}

	if c.d.Template != "" {
		base = expr.Substitute(c.d.Template, map[string]string{
			":alias":   c.tableAlias,
			":colname": base,
		})
	}
	if fn := c.d.Function; fn != nil {
		var args []expr.Node
		if !fn.ExcludeColName && base != "" {
			args = append(args, expr.Raw(base))
		}
		for _, a := range fn.Args {
			args = append(args, expr.Raw(a))
		}
		n, err := env.Factory.Function(fn.Name, args...)
		if err != nil {
			return Fragment{}, err
		}
		base = n.String()
	}
	c.expression = base
	f.SQL = base
	return f, nil
}

// Expression returns the SQL expression of the column.
func (c *Column) Expression() string { return c.expression }

// Name returns the alias of the column, or its qualified name when it has
// none.
func (c *Column) Name() string { return c.name }

// Target returns the bare column name as used in INSERT and UPDATE column
// lists.
func (c *Column) Target() string { return c.d.Name }

// Alias returns the declared alias.
func (c *Column) Alias() string { return c.d.Alias }

// SelectText returns the column as written in the select list.
func (c *Column) SelectText() string {
	if c.d.Alias == "" {
		return c.expression
	}
	return c.expression + " " + string(keyword.As) + " " + c.d.Alias
}

// Visible reports whether the column is part of the select list.
func (c *Column) Visible() bool { return !c.d.Hidden }

// Grouped reports whether the column is part of GROUP BY.
func (c *Column) Grouped() bool { return c.d.Group }

// Order returns the ORDER BY placement of the column, or nil.
func (c *Column) Order() *descriptor.Order { return c.d.Order }

// HasSubquery reports whether the column is computed by a subquery.
func (c *Column) HasSubquery() bool { return c.sub != nil }

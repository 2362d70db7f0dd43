// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package sqlstmt

import (
	"strings"

	"github.com/canonical/sqlstmt/descriptor"
	"github.com/canonical/sqlstmt/internal/expr"
	"github.com/canonical/sqlstmt/internal/keyword"
	"github.com/canonical/sqlstmt/internal/resolve"
	"github.com/canonical/sqlstmt/internal/sqlerr"
)

// insertStatement generates INSERT statements. Values come from the params
// of the columns or from a SELECT.
type insertStatement struct {
	*processor
	d       *descriptor.Insert
	columns []*resolve.Column
	source  *subquery
}

func newInsert(opts *options, d *descriptor.Insert) (*insertStatement, error) {
	s := &insertStatement{processor: newProcessor(opts), d: d}
	for i := range d.Columns {
		col, err := s.newColumn(&d.Columns[i], "", false)
		if err != nil {
			return nil, err
		}
		s.columns = append(s.columns, col)
	}
	if d.Select != nil {
		src, err := s.addSubquery(&descriptor.Subquery{Select: d.Select})
		if err != nil {
			return nil, err
		}
		s.source = src
	}
	return s, nil
}

func (s *insertStatement) render(pretty bool) (string, map[string]any, error) {
	s.reset()
	b := expr.NewSQLBuilder(pretty)
	b.WriteKeyword(keyword.InsertInto)
	b.Write(" " + s.d.Table.Name)

	if s.source != nil {
		if err := s.renderSource(b, pretty); err != nil {
			return "", nil, err
		}
	} else {
		names, values, err := s.insertValues()
		if err != nil {
			return "", nil, err
		}
		b.WriteInsert(names, values)
	}
	sql := b.SQL()
	return sql, s.bound(sql), nil
}

// insertValues returns the columns with a non-null value and the operands
// writing them. The first applicable param of a column gives its value.
func (s *insertStatement) insertValues() (names, values []string, err error) {
	for _, col := range s.columns {
		for _, i := range col.Params {
			prm := s.params[i]
			if prm.Skipped() {
				continue
			}
			prm.SetColumn(col.Target(), col.Target())
			f, null, err := prm.Operand(s.env)
			if err != nil {
				return nil, nil, err
			}
			if null {
				continue
			}
			names = append(names, col.Target())
			values = append(values, s.collect(f))
			break
		}
	}
	if len(names) == 0 {
		return nil, nil, sqlerr.New(sqlerr.ErrConfiguration, s.d.Table.Name, "no values to insert")
	}
	return names, values, nil
}

// renderSource writes "(columns) SELECT ...". The column count must match
// the select list unless either side is left implicit.
func (s *insertStatement) renderSource(b *expr.SQLBuilder, pretty bool) error {
	sql, bindings, err := s.source.stmt.render(pretty)
	if err != nil {
		return err
	}
	s.collect(resolve.Fragment{Bindings: bindings})
	var names []string
	for _, col := range s.columns {
		names = append(names, col.Target())
	}
	if width := s.source.stmt.width; len(names) > 0 && width > 0 && width != len(names) {
		return sqlerr.New(sqlerr.ErrConfiguration, s.d.Table.Name,
			"insert has %d columns but its select has %d", len(names), width)
	}
	if len(names) > 0 {
		b.Write(" (" + strings.Join(names, ", ") + ")")
	}
	b.WriteClause(keyword.None, sql)
	return nil
}

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

// updateStatement generates UPDATE statements. Equality params of the
// columns are assignments, every other param and condition filters.
type updateStatement struct {
	*processor
	d       *descriptor.Update
	table   *tableRef
	columns []*resolve.Column
}

func newUpdate(opts *options, d *descriptor.Update) (*updateStatement, error) {
	s := &updateStatement{processor: newProcessor(opts), d: d}
	var err error
	if s.table, err = s.newTable(d.Table); err != nil {
		return nil, err
	}
	for i := range d.Columns {
		col, err := s.newColumn(&d.Columns[i], d.Table.Alias, false)
		if err != nil {
			return nil, err
		}
		s.columns = append(s.columns, col)
	}
	return s, nil
}

func (s *updateStatement) render(pretty bool) (string, map[string]any, error) {
	s.reset()
	ps := newPredicates()
	var sets []string
	for _, col := range s.columns {
		if err := s.resolveColumn(col); err != nil {
			return "", nil, err
		}
		for _, i := range col.Params {
			prm := s.params[i]
			if prm.IsFilter() {
				ps.add(prm)
				continue
			}
			set, ok, err := s.assignment(col, prm)
			if err != nil {
				return "", nil, err
			}
			if ok {
				sets = append(sets, set)
			}
		}
		for _, i := range col.Conditions {
			ps.add(s.conditions[i])
		}
	}
	if len(sets) == 0 {
		return "", nil, sqlerr.New(sqlerr.ErrInvalidArgument, s.d.Table.Name, "update has no values to set")
	}
	where := expr.NewConjunction().Unwrapped()
	if err := s.fill(ps, where, nil); err != nil {
		return "", nil, err
	}
	if where.Count() == 0 {
		return "", nil, sqlerr.New(sqlerr.ErrNotAllowed, s.d.Table.Name, "update without a where clause")
	}

	table, err := s.table.render(s.processor)
	if err != nil {
		return "", nil, err
	}
	sep := ", "
	if pretty {
		sep = ",\n  "
	}
	b := expr.NewSQLBuilder(pretty)
	b.WriteKeyword(keyword.Update)
	b.Write(" " + table)
	b.WriteClause(keyword.Set, strings.Join(sets, sep))
	b.WriteClause(keyword.Where, clause(where, pretty))
	sql := b.SQL()
	return sql, s.bound(sql), nil
}

// assignment returns "column = value" for prm. ok is false when the param
// is left out: it is skipped, or it is unset and optional, or it resolves
// to null without being set to nil.
func (s *updateStatement) assignment(col *resolve.Column, prm *resolve.Param) (set string, ok bool, err error) {
	if prm.Skipped() {
		return "", false, nil
	}
	if !prm.HasValue() && !prm.Required() {
		return "", false, nil
	}
	f, null, err := prm.Operand(s.env)
	if err != nil {
		return "", false, err
	}
	if null && !prm.ExplicitNull() {
		return "", false, nil
	}
	return col.Target() + " = " + s.collect(f), true, nil
}

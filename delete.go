// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package sqlstmt

import (
	"github.com/canonical/sqlstmt/descriptor"
	"github.com/canonical/sqlstmt/internal/expr"
	"github.com/canonical/sqlstmt/internal/keyword"
	"github.com/canonical/sqlstmt/internal/resolve"
	"github.com/canonical/sqlstmt/internal/sqlerr"
)

// deleteStatement generates DELETE statements.
type deleteStatement struct {
	*processor
	d       *descriptor.Delete
	table   *tableRef
	columns []*resolve.Column
}

func newDelete(opts *options, d *descriptor.Delete) (*deleteStatement, error) {
	s := &deleteStatement{processor: newProcessor(opts), d: d}
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

func (s *deleteStatement) render(pretty bool) (string, map[string]any, error) {
	s.reset()
	ps := newPredicates()
	for _, col := range s.columns {
		if err := s.resolveColumn(col); err != nil {
			return "", nil, err
		}
		s.addPredicates(ps, col)
	}
	where := expr.NewConjunction().Unwrapped()
	having := expr.NewConjunction().Unwrapped()
	if err := s.fill(ps, where, having); err != nil {
		return "", nil, err
	}
	if where.Count() == 0 {
		return "", nil, sqlerr.New(sqlerr.ErrNotAllowed, s.d.Table.Name, "delete without a where clause")
	}

	table, err := s.table.render(s.processor)
	if err != nil {
		return "", nil, err
	}
	b := expr.NewSQLBuilder(pretty)
	b.WriteKeyword(keyword.DeleteFrom)
	b.Write(" " + table)
	b.WriteClause(keyword.Where, clause(where, pretty))
	b.WriteClause(keyword.Having, clause(having, pretty))
	sql := b.SQL()
	return sql, s.bound(sql), nil
}

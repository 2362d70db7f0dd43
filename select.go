// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package sqlstmt

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"

	"github.com/canonical/sqlstmt/descriptor"
	"github.com/canonical/sqlstmt/internal/expr"
	"github.com/canonical/sqlstmt/internal/keyword"
	"github.com/canonical/sqlstmt/internal/resolve"
	"github.com/canonical/sqlstmt/internal/sqlerr"
)

// tableRef is a table or derived table of a statement.
type tableRef struct {
	name  string
	alias string
	sub   *subquery
}

func (p *processor) newTable(d descriptor.Table) (*tableRef, error) {
	t := &tableRef{name: d.Name, alias: d.Alias}
	if d.Subquery != nil {
		s, err := p.addSubquery(d.Subquery)
		if err != nil {
			return nil, err
		}
		t.sub = s
	}
	return t, nil
}

// qualifier is the prefix of the columns of the table.
func (t *tableRef) qualifier() string {
	if t.alias != "" {
		return t.alias
	}
	return t.name
}

func (t *tableRef) render(p *processor) (string, error) {
	text := t.name
	if t.sub != nil {
		f, err := t.sub.Fragment()
		if err != nil {
			return "", err
		}
		text = expr.Subquery(p.collect(f)).String()
	}
	if t.alias != "" {
		text += " " + t.alias
	}
	return text, nil
}

type joinRef struct {
	kind    keyword.Keyword
	table   *tableRef
	columns []*resolve.Column
}

// selectStatement generates SELECT statements.
type selectStatement struct {
	*processor
	d       *descriptor.Select
	table   *tableRef
	columns []*resolve.Column
	joins   []*joinRef

	// width is the number of columns in the select list of the last
	// render, zero for "*".
	width int
}

func newSelect(opts *options, d *descriptor.Select) (*selectStatement, error) {
	if d == nil {
		return nil, sqlerr.New(sqlerr.ErrConfiguration, "", "missing select")
	}
	s := &selectStatement{processor: newProcessor(opts), d: d}
	var err error
	if s.table, err = s.newTable(d.Table); err != nil {
		return nil, err
	}
	// Columns of the main table are only qualified when it has an alias.
	for i := range d.Columns {
		col, err := s.newColumn(&d.Columns[i], d.Table.Alias, false)
		if err != nil {
			return nil, err
		}
		s.columns = append(s.columns, col)
	}
	for i := range d.Joins {
		jd := &d.Joins[i]
		kind := keyword.Join(jd.Type)
		if kind == keyword.None {
			return nil, sqlerr.New(sqlerr.ErrConfiguration, jd.Table.Name, "unknown join type %q", jd.Type)
		}
		j := &joinRef{kind: kind}
		if j.table, err = s.newTable(jd.Table); err != nil {
			return nil, err
		}
		for k := range jd.Columns {
			col, err := s.newColumn(&jd.Columns[k], j.table.qualifier(), true)
			if err != nil {
				return nil, err
			}
			j.columns = append(j.columns, col)
		}
		s.joins = append(s.joins, j)
	}
	return s, nil
}

// selectParts accumulates the clauses of a SELECT during a render.
type selectParts struct {
	list    *columnSet
	groupBy *expr.GroupByList
	orderBy *expr.OrderByList
	where   *predicates
}

// addColumn resolves col and places it in the select list, GROUP BY and
// ORDER BY, and its predicates in WHERE.
func (s *selectStatement) addColumn(parts *selectParts, col *resolve.Column) error {
	if err := s.resolveColumn(col); err != nil {
		return err
	}
	if col.Visible() {
		parts.list.Set(col.ID, col.SelectText())
	}
	if col.Grouped() {
		if _, err := parts.groupBy.AddUnique(expr.Raw(col.Expression())); err != nil {
			return err
		}
	}
	if o := col.Order(); o != nil {
		parts.orderBy.Insert(o.Position, col.Expression(), keyword.Direction(o.Direction))
	}
	s.addPredicates(parts.where, col)
	return nil
}

func (s *selectStatement) render(pretty bool) (string, map[string]any, error) {
	s.reset()
	parts := &selectParts{
		list:    orderedmap.New[uuid.UUID, string](),
		groupBy: expr.NewGroupByList(),
		orderBy: expr.NewOrderByList(),
		where:   newPredicates(),
	}
	for _, col := range s.columns {
		if err := s.addColumn(parts, col); err != nil {
			return "", nil, err
		}
	}
	for _, j := range s.joins {
		for _, col := range j.columns {
			if err := s.addColumn(parts, col); err != nil {
				return "", nil, err
			}
		}
	}

	b := expr.NewSQLBuilder(pretty)
	b.WriteKeyword(keyword.Select)
	for _, m := range s.d.Modifiers {
		kw := keyword.For(m)
		if kw == keyword.None {
			s.logger.Debug("ignoring unknown modifier", zap.String("modifier", m))
			continue
		}
		b.WriteKeyword(kw)
	}
	s.width = parts.list.Len()
	if s.width == 0 {
		b.Write(" *")
	} else {
		sep := ", "
		if pretty {
			sep = ",\n  "
		}
		var list []string
		for pair := parts.list.Oldest(); pair != nil; pair = pair.Next() {
			list = append(list, pair.Value)
		}
		b.Write(" " + strings.Join(list, sep))
	}

	from, err := s.table.render(s.processor)
	if err != nil {
		return "", nil, err
	}
	b.WriteClause(keyword.From, from)
	for _, j := range s.joins {
		text, err := s.renderJoin(j, pretty)
		if err != nil {
			return "", nil, err
		}
		b.WriteClause(keyword.None, text)
	}

	where := expr.NewConjunction().Unwrapped()
	having := expr.NewConjunction().Unwrapped()
	if err := s.fill(parts.where, where, having); err != nil {
		return "", nil, err
	}
	b.WriteClause(keyword.Where, clause(where, pretty))
	b.WriteClause(keyword.GroupBy, clause(parts.groupBy, pretty))
	b.WriteClause(keyword.Having, clause(having, pretty))
	b.WriteClause(keyword.OrderBy, clause(parts.orderBy, pretty))
	if s.d.Limit != nil {
		b.WriteClause(keyword.Limit, strconv.Itoa(*s.d.Limit))
	}
	if s.d.Offset != nil {
		b.WriteClause(keyword.Offset, strconv.Itoa(*s.d.Offset))
	}
	for _, t := range s.d.Trailing {
		kw := keyword.For(t)
		if kw == keyword.None {
			s.logger.Debug("ignoring unknown modifier", zap.String("modifier", t))
			continue
		}
		b.WriteClause(keyword.None, string(kw))
	}

	sql := b.SQL()
	return sql, s.bound(sql), nil
}

// renderJoin returns "<kind> <table> ON <predicates>". The ON clause is
// left out when no join predicate applies.
func (s *selectStatement) renderJoin(j *joinRef, pretty bool) (string, error) {
	table, err := j.table.render(s.processor)
	if err != nil {
		return "", err
	}
	ps := newPredicates()
	for _, col := range j.columns {
		s.addJoinPredicates(ps, col)
	}
	on := expr.NewConjunction().Unwrapped()
	if err := s.fill(ps, on, nil); err != nil {
		return "", err
	}
	text := string(j.kind) + " " + table
	if on.Count() > 0 {
		text += " " + string(keyword.On) + " " + clause(on, pretty)
	}
	return text, nil
}

// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package sqlstmt

import (
	"maps"

	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"

	"github.com/canonical/sqlstmt/descriptor"
	"github.com/canonical/sqlstmt/internal/expr"
	"github.com/canonical/sqlstmt/internal/resolve"
	"github.com/canonical/sqlstmt/internal/sqlerr"
)

// processor holds the params, conditions and subqueries of a statement and
// the values set on it. The statement kinds embed it.
type processor struct {
	opts   *options
	env    resolve.Env
	logger *zap.Logger

	// values holds every value set on the statement, keyed by placeholder.
	values map[string]any

	params     []*resolve.Param
	conditions []*resolve.Condition
	// index maps a placeholder to the params declaring it.
	index map[string][]int
	// canonical holds the first param declared for each placeholder, the
	// params of subqueries included.
	canonical *orderedmap.OrderedMap[string, *resolve.Param]

	subqueries []*subquery

	// bindings accumulates the placeholder values of the current render.
	bindings map[string]any
}

func newProcessor(opts *options) *processor {
	return &processor{
		opts:      opts,
		env:       opts.env(),
		logger:    opts.logger,
		values:    map[string]any{},
		index:     map[string][]int{},
		canonical: orderedmap.New[string, *resolve.Param](),
	}
}

// SetValue sets the value of a placeholder on every param declaring it and
// on every subquery.
func (p *processor) SetValue(name string, v any) {
	ph := resolve.Canonical(name)
	p.values[ph] = v
	for _, i := range p.index[ph] {
		p.params[i].SetValue(v)
	}
	for _, s := range p.subqueries {
		s.SetValue(ph, v)
	}
}

// RemoveValue clears the value of a placeholder everywhere.
func (p *processor) RemoveValue(name string) {
	ph := resolve.Canonical(name)
	delete(p.values, ph)
	for _, i := range p.index[ph] {
		p.params[i].RemoveValue()
	}
	for _, s := range p.subqueries {
		s.RemoveValue(ph)
	}
}

func (p *processor) canonicalParams() []*resolve.Param {
	var params []*resolve.Param
	for pair := p.canonical.Oldest(); pair != nil; pair = pair.Next() {
		params = append(params, pair.Value)
	}
	return params
}

// declare records prm as the canonical param of its placeholder unless one
// was declared before.
func (p *processor) declare(prm *resolve.Param) {
	if _, ok := p.canonical.Get(prm.Placeholder()); !ok {
		p.canonical.Set(prm.Placeholder(), prm)
	}
}

// addSubquery builds the nested SELECT of d and makes its params visible on
// this statement.
func (p *processor) addSubquery(d *descriptor.Subquery) (*subquery, error) {
	s, err := newSubquery(p.opts, d)
	if err != nil {
		return nil, err
	}
	for _, prm := range s.stmt.canonicalParams() {
		p.declare(prm)
	}
	s.SetValues(p.values)
	p.subqueries = append(p.subqueries, s)
	return s, nil
}

// subqueryOf returns the subquery of d, or nil. The result is a nil
// interface when d is nil.
func (p *processor) subqueryOf(d *descriptor.Subquery) (resolve.Subquery, error) {
	if d == nil {
		return nil, nil
	}
	s, err := p.addSubquery(d)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (p *processor) addParam(d descriptor.Param) (int, error) {
	sub, err := p.subqueryOf(d.Subquery)
	if err != nil {
		return 0, err
	}
	prm, err := resolve.NewParam(d, sub)
	if err != nil {
		return 0, err
	}
	i := len(p.params)
	p.params = append(p.params, prm)
	ph := prm.Placeholder()
	p.index[ph] = append(p.index[ph], i)
	p.declare(prm)
	if v, ok := p.values[ph]; ok {
		prm.SetValue(v)
	}
	return i, nil
}

func (p *processor) addCondition(d descriptor.Condition) (int, error) {
	sub, err := p.subqueryOf(d.Subquery)
	if err != nil {
		return 0, err
	}
	cond, err := resolve.NewCondition(d, sub)
	if err != nil {
		return 0, err
	}
	p.conditions = append(p.conditions, cond)
	return len(p.conditions) - 1, nil
}

// newColumn builds the column described by d on the table aliased alias,
// together with its params and conditions.
func (p *processor) newColumn(d *descriptor.Column, alias string, join bool) (*resolve.Column, error) {
	sub, err := p.subqueryOf(d.Subquery)
	if err != nil {
		return nil, err
	}
	if !join && (len(d.JoinParams) > 0 || len(d.JoinConditions) > 0) {
		return nil, sqlerr.New(sqlerr.ErrConfiguration, d.Name, "join params are only allowed on join columns")
	}
	col := resolve.NewColumn(d, alias, sub)
	for _, pd := range d.Params {
		i, err := p.addParam(pd)
		if err != nil {
			return nil, err
		}
		col.Params = append(col.Params, i)
	}
	for _, cd := range d.Conditions {
		i, err := p.addCondition(cd)
		if err != nil {
			return nil, err
		}
		col.Conditions = append(col.Conditions, i)
	}
	for _, pd := range d.JoinParams {
		i, err := p.addParam(pd)
		if err != nil {
			return nil, err
		}
		col.JoinParams = append(col.JoinParams, i)
	}
	for _, cd := range d.JoinConditions {
		i, err := p.addCondition(cd)
		if err != nil {
			return nil, err
		}
		col.JoinConditions = append(col.JoinConditions, i)
	}
	return col, nil
}

// reset starts a render. Values are pushed down to the subqueries again so
// that values preset on a subquery and later overridden stay consistent.
func (p *processor) reset() {
	p.bindings = map[string]any{}
	for _, s := range p.subqueries {
		s.SetValues(p.values)
	}
}

// collect keeps the bindings of f and returns its SQL.
func (p *processor) collect(f resolve.Fragment) string {
	maps.Copy(p.bindings, f.Bindings)
	return f.SQL
}

// bound returns the bindings of the placeholders appearing in sql.
func (p *processor) bound(sql string) map[string]any {
	bindings := map[string]any{}
	for _, ph := range expr.Placeholders(sql) {
		if v, ok := p.bindings[ph]; ok {
			bindings[ph] = v
		}
	}
	return bindings
}

// resolveColumn computes the expression of col and anchors its params and
// conditions on it.
func (p *processor) resolveColumn(col *resolve.Column) error {
	f, err := col.Resolve(p.env)
	if err != nil {
		return err
	}
	p.collect(f)
	for _, ids := range [][]int{col.Params, col.JoinParams} {
		for _, i := range ids {
			p.params[i].SetColumn(col.Expression(), col.Name())
		}
	}
	for _, ids := range [][]int{col.Conditions, col.JoinConditions} {
		for _, i := range ids {
			p.conditions[i].SetColumn(col.Expression(), col.Name())
		}
	}
	return nil
}

// predicates collects the predicates of a clause. Predicates sharing a
// combined group are joined with OR.
type predicates struct {
	and    []resolve.Predicate
	groups *orderedmap.OrderedMap[int, []resolve.Predicate]
}

func newPredicates() *predicates {
	return &predicates{groups: orderedmap.New[int, []resolve.Predicate]()}
}

func (ps *predicates) add(pr resolve.Predicate) {
	g := pr.Combined()
	if g == 0 {
		ps.and = append(ps.and, pr)
		return
	}
	members, _ := ps.groups.Get(g)
	ps.groups.Set(g, append(members, pr))
}

// addPredicates adds the params and conditions of col.
func (p *processor) addPredicates(ps *predicates, col *resolve.Column) {
	for _, i := range col.Params {
		ps.add(p.params[i])
	}
	for _, i := range col.Conditions {
		ps.add(p.conditions[i])
	}
}

// addJoinPredicates adds the join params and conditions of col.
func (p *processor) addJoinPredicates(ps *predicates, col *resolve.Column) {
	for _, i := range col.JoinParams {
		ps.add(p.params[i])
	}
	for _, i := range col.JoinConditions {
		ps.add(p.conditions[i])
	}
}

// renderPredicate renders pr. skip is true when the predicate is left out.
func (p *processor) renderPredicate(pr resolve.Predicate) (sql string, skip bool, err error) {
	if pr.Skipped() {
		p.logger.Debug("skipping predicate", zap.String("predicate", pr.Label()))
		return "", true, nil
	}
	f, err := pr.Render(p.env)
	if err != nil {
		return "", false, err
	}
	if f.SQL == "" {
		return "", true, nil
	}
	return p.collect(f), false, nil
}

// fill renders the predicates of ps into where and having. Predicates are
// only routed to having when it is not nil.
func (p *processor) fill(ps *predicates, where, having *expr.Conjunction) error {
	target := func(pr resolve.Predicate) bool {
		return having != nil && pr.Having()
	}
	for _, pr := range ps.and {
		sql, skip, err := p.renderPredicate(pr)
		if err != nil {
			return err
		}
		if skip {
			continue
		}
		c := where
		if target(pr) {
			c = having
		}
		if _, err := c.AddUnique(expr.Raw(sql)); err != nil {
			return err
		}
	}
	for pair := ps.groups.Oldest(); pair != nil; pair = pair.Next() {
		whereOr, havingOr := expr.NewDisjunction(), expr.NewDisjunction()
		for _, pr := range pair.Value {
			sql, skip, err := p.renderPredicate(pr)
			if err != nil {
				return err
			}
			if skip {
				continue
			}
			d := whereOr
			if target(pr) {
				d = havingOr
			}
			if _, err := d.AddUnique(expr.Raw(sql)); err != nil {
				return err
			}
		}
		if err := addGroup(where, whereOr); err != nil {
			return err
		}
		if having != nil {
			if err := addGroup(having, havingOr); err != nil {
				return err
			}
		}
	}
	return nil
}

// addGroup adds a non-empty OR group to c. A group of one is added as its
// only member so that c can enclose it when needed.
func addGroup(c *expr.Conjunction, or *expr.Disjunction) error {
	var err error
	switch or.Count() {
	case 0:
	case 1:
		_, err = c.AddUnique(or.Children()[0])
	default:
		_, err = c.AddUnique(or)
	}
	return err
}

// clause returns the text of a combinator in plain or pretty form.
func clause(n interface {
	String() string
	Pretty() string
}, pretty bool) string {
	if pretty {
		return n.Pretty()
	}
	return n.String()
}

// subquery is a nested SELECT rendered within another statement.
type subquery struct {
	stmt *selectStatement
}

func newSubquery(opts *options, d *descriptor.Subquery) (*subquery, error) {
	stmt, err := newSelect(opts, d.Select)
	if err != nil {
		return nil, err
	}
	for name, v := range d.Args {
		stmt.SetValue(name, v)
	}
	return &subquery{stmt: stmt}, nil
}

// SetValue sets the value if the subquery has a param of that name.
func (s *subquery) SetValue(ph string, v any) {
	if _, ok := s.stmt.canonical.Get(ph); ok {
		s.stmt.SetValue(ph, v)
	}
}

func (s *subquery) SetValues(values map[string]any) {
	for ph, v := range values {
		s.SetValue(ph, v)
	}
}

func (s *subquery) RemoveValue(ph string) {
	if _, ok := s.stmt.canonical.Get(ph); ok {
		s.stmt.RemoveValue(ph)
	}
}

func (s *subquery) Fragment() (resolve.Fragment, error) {
	sql, bindings, err := s.stmt.render(false)
	if err != nil {
		return resolve.Fragment{}, err
	}
	return resolve.Fragment{SQL: sql, Bindings: bindings}, nil
}

// columnSet is the select list of a render, keyed by column so that equal
// expressions from different tables are kept apart.
type columnSet = orderedmap.OrderedMap[uuid.UUID, string]

// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package sqlstmt

import (
	"maps"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/canonical/sqlstmt/descriptor"
	"github.com/canonical/sqlstmt/internal/keyword"
	"github.com/canonical/sqlstmt/internal/resolve"
)

// unionStatement combines SELECT statements. Values set on the union reach
// every member.
type unionStatement struct {
	d       *descriptor.Union
	members []*selectStatement
}

func newUnion(opts *options, d *descriptor.Union) (*unionStatement, error) {
	u := &unionStatement{d: d}
	for _, sd := range d.Selects {
		s, err := newSelect(opts, sd)
		if err != nil {
			return nil, err
		}
		u.members = append(u.members, s)
	}
	return u, nil
}

func (u *unionStatement) SetValue(name string, v any) {
	for _, s := range u.members {
		s.SetValue(name, v)
	}
}

func (u *unionStatement) RemoveValue(name string) {
	for _, s := range u.members {
		s.RemoveValue(name)
	}
}

func (u *unionStatement) canonicalParams() []*resolve.Param {
	all := orderedmap.New[string, *resolve.Param]()
	for _, s := range u.members {
		for _, p := range s.canonicalParams() {
			if _, ok := all.Get(p.Placeholder()); !ok {
				all.Set(p.Placeholder(), p)
			}
		}
	}
	var params []*resolve.Param
	for pair := all.Oldest(); pair != nil; pair = pair.Next() {
		params = append(params, pair.Value)
	}
	return params
}

func (u *unionStatement) render(pretty bool) (string, map[string]any, error) {
	op := keyword.Union
	if u.d.All {
		op = keyword.UnionAll
	}
	sep := " " + string(op) + " "
	if pretty {
		sep = "\n" + string(op) + "\n"
	}
	bindings := map[string]any{}
	parts := make([]string, len(u.members))
	for i, s := range u.members {
		sql, b, err := s.render(pretty)
		if err != nil {
			return "", nil, err
		}
		parts[i] = sql
		maps.Copy(bindings, b)
	}
	return strings.Join(parts, sep), bindings, nil
}

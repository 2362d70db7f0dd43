// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package expr

import (
	"strings"

	"github.com/canonical/sqlstmt/internal/keyword"
	"github.com/canonical/sqlstmt/internal/sqlerr"
)

// frame holds the text written before, between and after the children of a
// combinator.
type frame struct {
	pre, sep, post string
}

// list is the ordered child container shared by all combinators. Children
// are de-duplicated on their rendered text, not their structure.
type list struct {
	kind     string
	children []Node
	seen     map[string]bool
	plain    frame
	pretty   frame
	accepts  func(Node) bool
	// guard wraps raw children holding a top level AND/OR in parentheses
	// when the list has more than one child.
	guard bool
}

func newList(kind string, plain, pretty frame, accepts func(Node) bool) list {
	return list{
		kind:    kind,
		seen:    map[string]bool{},
		plain:   plain,
		pretty:  pretty,
		accepts: accepts,
	}
}

// Count returns the number of children.
func (l *list) Count() int {
	return len(l.children)
}

// Children returns the children in insertion order.
func (l *list) Children() []Node {
	return l.children
}

// Add appends a child. Children that render to the empty string are
// dropped. It is an error to add a node of a type the combinator does not
// accept.
func (l *list) Add(n Node) error {
	if n == nil {
		return nil
	}
	if !l.accepts(n) {
		return sqlerr.New(sqlerr.ErrInvalidArgument, l.kind, "cannot contain %T", n)
	}
	s := n.String()
	if s == "" {
		return nil
	}
	l.children = append(l.children, n)
	l.seen[s] = true
	return nil
}

// AddUnique appends a child unless a child with the same rendered text is
// already present. It reports whether the child was added.
func (l *list) AddUnique(n Node) (bool, error) {
	if n == nil || l.PartExists(n) {
		return false, nil
	}
	before := l.Count()
	if err := l.Add(n); err != nil {
		return false, err
	}
	return l.Count() > before, nil
}

// PartExists reports whether a child rendering to the same text as n is
// present.
func (l *list) PartExists(n Node) bool {
	return l.seen[n.String()]
}

func (l *list) render(f frame) string {
	switch len(l.children) {
	case 0:
		return ""
	case 1:
		return l.children[0].String()
	}
	parts := make([]string, len(l.children))
	for i, c := range l.children {
		parts[i] = l.child(c)
	}
	return f.pre + strings.Join(parts, f.sep) + f.post
}

func (l *list) child(c Node) string {
	s := c.String()
	if l.guard {
		if _, ok := c.(Raw); ok && HasBooleanOperator(s) && !Enclosed(s) {
			return "(" + s + ")"
		}
	}
	return s
}

func (l *list) String() string {
	return l.render(l.plain)
}

// Pretty renders the combinator with its pretty-print frame.
func (l *list) Pretty() string {
	return l.render(l.pretty)
}

func predicateNode(n Node) bool {
	switch n.(type) {
	case Raw, *Infix, *Prefix, *Postfix, *Call, *Range, *Membership, *Conjunction, *Disjunction:
		return true
	}
	return false
}

// Conjunction joins predicates with AND.
type Conjunction struct {
	list
}

// NewConjunction returns an empty conjunction that renders enclosed in
// parentheses when it has more than one child.
func NewConjunction() *Conjunction {
	c := &Conjunction{newList("conjunction",
		frame{"(", " AND ", ")"},
		frame{"(", "\n    AND ", ")"},
		predicateNode)}
	c.guard = true
	return c
}

// Unwrapped drops the enclosing parentheses. It is used for the top level
// conjunction of a WHERE, HAVING or ON clause.
func (c *Conjunction) Unwrapped() *Conjunction {
	c.plain.pre, c.plain.post = "", ""
	c.pretty = frame{"", "\n  AND ", ""}
	return c
}

// Marker function for Node.
func (c *Conjunction) node() {}

// Disjunction joins predicates with OR.
type Disjunction struct {
	list
}

// NewDisjunction returns an empty disjunction.
func NewDisjunction() *Disjunction {
	d := &Disjunction{newList("disjunction",
		frame{"(", " OR ", ")"},
		frame{"(", "\n    OR ", ")"},
		predicateNode)}
	d.guard = true
	return d
}

// Marker function for Node.
func (d *Disjunction) node() {}

// ArgumentList is a comma separated list of function or operator arguments.
type ArgumentList struct {
	list
}

// NewArgumentList returns an argument list holding args.
func NewArgumentList(args ...Node) (*ArgumentList, error) {
	a := &ArgumentList{newList("argument list",
		frame{"", ", ", ""},
		frame{"", ", ", ""},
		func(n Node) bool {
			switch n.(type) {
			case *GroupByList, *OrderByList:
				return false
			}
			return true
		})}
	for _, n := range args {
		if err := a.Add(n); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *ArgumentList) String() string {
	switch len(a.children) {
	case 0:
		return ""
	case 1:
		return a.argument(a.children[0])
	}
	parts := make([]string, len(a.children))
	for i, c := range a.children {
		parts[i] = a.argument(c)
	}
	return strings.Join(parts, ", ")
}

// argument renders a single argument. Nested lists of several elements are
// parenthesised as a unit, and so are raw fragments holding a top level
// AND/OR, so that the surrounding operator cannot change their meaning.
func (a *ArgumentList) argument(n Node) string {
	switch n := n.(type) {
	case *ArgumentList:
		if n.Count() > 1 {
			return "(" + n.String() + ")"
		}
	case Raw:
		s := string(n)
		if HasBooleanOperator(s) && !Enclosed(s) {
			return "(" + s + ")"
		}
	}
	return n.String()
}

// Marker function for Node.
func (a *ArgumentList) node() {}

// GroupByList is the list of GROUP BY expressions.
type GroupByList struct {
	list
}

// NewGroupByList returns an empty GROUP BY list.
func NewGroupByList() *GroupByList {
	return &GroupByList{newList("group by list",
		frame{"", ", ", ""},
		frame{"", ",\n    ", ""},
		func(n Node) bool {
			switch n.(type) {
			case Raw, *Call, *Infix:
				return true
			}
			return false
		})}
}

// Marker function for Node.
func (g *GroupByList) node() {}

type orderEntry struct {
	position int
	expr     string
}

// OrderByList is the list of ORDER BY entries. Each entry is stored as
// "<expr> <ASC|DESC>" together with its position. Positions are priorities:
// a new entry is placed before every entry with the same or a higher
// position, so among entries sharing a position the most recently inserted
// one comes first.
type OrderByList struct {
	list
	entries []orderEntry
}

// NewOrderByList returns an empty ORDER BY list.
func NewOrderByList() *OrderByList {
	return &OrderByList{list: newList("order by list",
		frame{"", ", ", ""},
		frame{"", ",\n    ", ""},
		func(n Node) bool {
			_, ok := n.(Raw)
			return ok
		})}
}

// Insert adds expr sorted in the given direction at position. It reports
// false, leaving the list unchanged, if expr is already ordered on.
func (o *OrderByList) Insert(position int, expr string, dir keyword.Keyword) bool {
	if expr == "" {
		return false
	}
	if _, ok := o.Exists(expr); ok {
		return false
	}
	if dir != keyword.Desc {
		dir = keyword.Asc
	}
	at := len(o.entries)
	for i, e := range o.entries {
		if e.position >= position {
			at = i
			break
		}
	}
	o.entries = append(o.entries, orderEntry{})
	copy(o.entries[at+1:], o.entries[at:])
	o.entries[at] = orderEntry{position: position, expr: expr}

	entry := Raw(expr + " " + string(dir))
	o.children = append(o.children, nil)
	copy(o.children[at+1:], o.children[at:])
	o.children[at] = entry
	o.seen[entry.String()] = true
	return true
}

// Exists reports whether expr is already ordered on, in either direction,
// and returns its current index.
func (o *OrderByList) Exists(expr string) (int, bool) {
	for i, e := range o.entries {
		if e.expr == expr {
			return i, true
		}
	}
	return 0, false
}

// Add appends a preformatted "<expr> <direction>" entry after all others.
func (o *OrderByList) Add(n Node) error {
	if !o.accepts(n) {
		return sqlerr.New(sqlerr.ErrInvalidArgument, o.kind, "cannot contain %T", n)
	}
	s := n.String()
	expr, dir := s, keyword.Asc
	if i := strings.LastIndexByte(s, ' '); i > 0 {
		if d := keyword.For(s[i+1:]); d == keyword.Asc || d == keyword.Desc {
			expr, dir = s[:i], d
		}
	}
	position := 0
	if k := len(o.entries); k > 0 {
		position = o.entries[k-1].position + 1
	}
	o.Insert(position, expr, dir)
	return nil
}

// AddUnique is Add guarded by a duplicate check on the ordered expression.
func (o *OrderByList) AddUnique(n Node) (bool, error) {
	before := o.Count()
	if err := o.Add(n); err != nil {
		return false, err
	}
	return o.Count() > before, nil
}

// Marker function for Node.
func (o *OrderByList) node() {}

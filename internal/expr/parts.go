// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package expr

import (
	"strings"
)

// A Node is an element of a statement AST. Every node renders itself to
// SQL text with String.
type Node interface {
	// String returns the SQL text of the node.
	String() string

	// node is a marker method.
	node()
}

// Raw is a fragment of SQL passed through verbatim.
type Raw string

func (r Raw) String() string { return string(r) }

// Marker function for Node.
func (r Raw) node() {}

// Placeholder is a named parameter marker such as ":name".
type Placeholder string

func (p Placeholder) String() string { return string(p) }

// Marker function for Node.
func (p Placeholder) node() {}

// Subquery is the SQL of a nested statement. It renders enclosed in
// parentheses.
type Subquery string

func (s Subquery) String() string {
	text := string(s)
	if Enclosed(text) {
		return text
	}
	return "(" + text + ")"
}

// Marker function for Node.
func (s Subquery) node() {}

// Literal is a value already quoted for inclusion in SQL text. Literals are
// created with Factory.Literal.
type Literal struct {
	text string
}

func (l Literal) String() string { return l.text }

// Marker function for Node.
func (l Literal) node() {}

// Infix is a binary operation such as "a = b" or "a + b".
type Infix struct {
	Left  Node
	Op    string
	Right Node
}

func (n *Infix) String() string {
	return n.Left.String() + " " + n.Op + " " + n.Right.String()
}

// Marker function for Node.
func (n *Infix) node() {}

// Prefix is a unary operation written before its operand, such as NOT or
// EXISTS.
type Prefix struct {
	Op      string
	Operand Node
}

func (n *Prefix) String() string {
	return n.Op + " " + n.Operand.String()
}

// Marker function for Node.
func (n *Prefix) node() {}

// Postfix is a unary operation written after its operand, such as IS NULL.
type Postfix struct {
	Operand Node
	Op      string
}

func (n *Postfix) String() string {
	return n.Operand.String() + " " + n.Op
}

// Marker function for Node.
func (n *Postfix) node() {}

// Call is a function call NAME(args...).
type Call struct {
	Name     string
	Distinct bool
	Args     *ArgumentList
}

func (n *Call) String() string {
	var b strings.Builder
	b.WriteString(n.Name)
	b.WriteString("(")
	if n.Distinct {
		b.WriteString("DISTINCT ")
	}
	if n.Args != nil {
		b.WriteString(n.Args.String())
	}
	b.WriteString(")")
	return b.String()
}

// Marker function for Node.
func (n *Call) node() {}

// Range is a BETWEEN or NOT BETWEEN predicate.
type Range struct {
	Expr      Node
	Not       bool
	Low, High Node
}

func (n *Range) String() string {
	op := " BETWEEN "
	if n.Not {
		op = " NOT BETWEEN "
	}
	return n.Expr.String() + op + n.Low.String() + " AND " + n.High.String()
}

// Marker function for Node.
func (n *Range) node() {}

// Membership is an IN or NOT IN predicate.
type Membership struct {
	Expr Node
	Not  bool
	List *ArgumentList
}

func (n *Membership) String() string {
	op := " IN "
	if n.Not {
		op = " NOT IN "
	}
	if n.List.Count() == 1 {
		if sq, ok := n.List.children[0].(Subquery); ok {
			return n.Expr.String() + op + sq.String()
		}
	}
	return n.Expr.String() + op + "(" + n.List.String() + ")"
}

// Marker function for Node.
func (n *Membership) node() {}

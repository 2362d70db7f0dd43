// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package expr

import (
	"strings"

	"github.com/canonical/sqlstmt/internal/sqlerr"
)

// Factory builds expression nodes for operators. The only configuration is
// the character used to quote string literals.
type Factory struct {
	quoteChar rune
}

// NewFactory returns a Factory quoting literals with quote. A zero quote
// selects the single quote.
func NewFactory(quote rune) *Factory {
	if quote == 0 {
		quote = '\''
	}
	return &Factory{quoteChar: quote}
}

// QuoteChar returns the literal quote character.
func (f *Factory) QuoteChar() rune {
	return f.quoteChar
}

// builder builds the node for one operator family. name is the operator name
// as written in the descriptor and is only used by OpFunction.
type builder func(f *Factory, name string, args []Node) (Node, error)

var builders map[Operator]builder

func init() {
	builders = map[Operator]builder{
		OpEquals:              infix("="),
		OpNotEquals:           infix("<>"),
		OpLessThan:            infix("<"),
		OpLessThanOrEquals:    infix("<="),
		OpGreaterThan:         infix(">"),
		OpGreaterThanOrEquals: infix(">="),
		OpLike:                infix("LIKE"),
		OpNotLike:             infix("NOT LIKE"),
		OpBetween:             between(false),
		OpNotBetween:          between(true),
		OpIn:                  in(false),
		OpNotIn:               in(true),
		OpIsNull:              postfix("IS NULL"),
		OpIsNotNull:           postfix("IS NOT NULL"),
		OpNot:                 not,
		OpExists:              exists("EXISTS"),
		OpNotExists:           exists("NOT EXISTS"),
		OpAny:                 quantified("ANY"),
		OpAll:                 quantified("ALL"),
		OpSome:                quantified("SOME"),
		OpCount:               call("COUNT", false),
		OpCountDistinct:       call("COUNT", true),
		OpSum:                 call("SUM", false),
		OpAvg:                 call("AVG", false),
		OpMin:                 call("MIN", false),
		OpMax:                 call("MAX", false),
		OpConcat:              call("CONCAT", false),
		OpLower:               call("LOWER", false),
		OpUpper:               call("UPPER", false),
		OpTrim:                call("TRIM", false),
		OpLength:              call("LENGTH", false),
		OpSubstring:           call("SUBSTRING", false),
		OpCoalesce:            call("COALESCE", false),
		OpAdd:                 arithmetic("+"),
		OpSubtract:            arithmetic("-"),
		OpMultiply:            arithmetic("*"),
		OpDivide:              arithmetic("/"),
		OpModulo:              arithmetic("%"),
		OpFunction:            function,
	}
}

// Build returns the node for op applied to args. name is the operator name
// from the descriptor; it names the function for OpFunction.
func (f *Factory) Build(op Operator, name string, args ...Node) (Node, error) {
	b, ok := builders[op]
	if !ok {
		return nil, sqlerr.New(sqlerr.ErrInvalidArgument, name, "unsupported operator %s", op)
	}
	return b(f, name, args)
}

// Function parses name as an operator and builds it.
func (f *Factory) Function(name string, args ...Node) (Node, error) {
	return f.Build(ParseOperator(name), name, args...)
}

func argCountError(name string, want int, got int) error {
	return sqlerr.New(sqlerr.ErrInvalidArgument, name, "need at least %d arguments, got %d", want, got)
}

func infix(op string) builder {
	return func(f *Factory, name string, args []Node) (Node, error) {
		if len(args) < 2 {
			return nil, argCountError(op, 2, len(args))
		}
		return &Infix{Left: args[0], Op: op, Right: args[1]}, nil
	}
}

func postfix(op string) builder {
	return func(f *Factory, name string, args []Node) (Node, error) {
		if len(args) < 1 {
			return nil, argCountError(op, 1, len(args))
		}
		return &Postfix{Operand: args[0], Op: op}, nil
	}
}

// not negates its first argument.
func not(f *Factory, name string, args []Node) (Node, error) {
	if len(args) < 1 {
		return nil, argCountError("NOT", 1, len(args))
	}
	operand := args[0]
	if l, ok := operand.(*ArgumentList); ok && l.Count() > 1 {
		operand = Raw("(" + l.String() + ")")
	}
	return &Prefix{Op: "NOT", Operand: operand}, nil
}

// exists applies EXISTS to its last argument, normally a subquery. Earlier
// arguments are the anchoring column and are not rendered.
func exists(op string) builder {
	return func(f *Factory, name string, args []Node) (Node, error) {
		if len(args) < 1 {
			return nil, argCountError(op, 1, len(args))
		}
		operand := args[len(args)-1]
		if _, ok := operand.(Subquery); !ok {
			operand = Subquery(operand.String())
		}
		return &Prefix{Op: op, Operand: operand}, nil
	}
}

// quantified renders "a = ANY (b)". With a single argument only the
// quantifier and its operand are written.
func quantified(op string) builder {
	return func(f *Factory, name string, args []Node) (Node, error) {
		if len(args) < 1 {
			return nil, argCountError(op, 1, len(args))
		}
		operand := args[len(args)-1]
		if _, ok := operand.(Subquery); !ok {
			operand = Subquery(operand.String())
		}
		q := &Prefix{Op: op, Operand: operand}
		if len(args) == 1 {
			return q, nil
		}
		return &Infix{Left: args[0], Op: "=", Right: q}, nil
	}
}

func call(fn string, distinct bool) builder {
	return func(f *Factory, name string, args []Node) (Node, error) {
		l, err := NewArgumentList(args...)
		if err != nil {
			return nil, err
		}
		return &Call{Name: fn, Distinct: distinct, Args: l}, nil
	}
}

// function is the fallback for operators that are not recognised. The
// descriptor name is upper cased and used as the function name.
func function(f *Factory, name string, args []Node) (Node, error) {
	fn := strings.ToUpper(strings.TrimSpace(name))
	if fn == "" {
		return nil, sqlerr.New(sqlerr.ErrInvalidArgument, "", "function has no name")
	}
	return call(fn, false)(f, name, args)
}

func arithmetic(op string) builder {
	return func(f *Factory, name string, args []Node) (Node, error) {
		if len(args) < 2 {
			return nil, argCountError(op, 2, len(args))
		}
		var n Node = args[0]
		for _, a := range args[1:] {
			n = &Infix{Left: n, Op: op, Right: a}
		}
		return n, nil
	}
}

// between accepts either two explicit bounds or a single argument holding
// both, as a comma joined raw string or a two element argument list.
func between(negate bool) builder {
	return func(f *Factory, name string, args []Node) (Node, error) {
		if len(args) < 2 {
			return nil, argCountError("BETWEEN", 2, len(args))
		}
		bounds := args[1:]
		if len(bounds) == 1 {
			bounds = f.splitBounds(bounds[0])
		}
		if len(bounds) != 2 {
			return nil, sqlerr.New(sqlerr.ErrInvalidArgument, "BETWEEN", "need 2 bounds, got %d", len(bounds))
		}
		return &Range{Expr: args[0], Not: negate, Low: bounds[0], High: bounds[1]}, nil
	}
}

func (f *Factory) splitBounds(n Node) []Node {
	switch n := n.(type) {
	case *ArgumentList:
		var bounds []Node
		for _, c := range n.Children() {
			bounds = append(bounds, f.element(c))
		}
		return bounds
	case Raw:
		var bounds []Node
		for _, s := range strings.Split(string(n), ",") {
			bounds = append(bounds, f.element(Raw(strings.TrimSpace(s))))
		}
		return bounds
	}
	return []Node{n}
}

// element prepares a list element. Placeholders, literals and subqueries
// pass through; raw text is quoted as a literal.
func (f *Factory) element(n Node) Node {
	if r, ok := n.(Raw); ok {
		if IsPlaceholder(string(r)) {
			return Placeholder(r)
		}
		return f.Literal(string(r))
	}
	return n
}

func in(negate bool) builder {
	return func(f *Factory, name string, args []Node) (Node, error) {
		if len(args) < 2 {
			return nil, argCountError("IN", 2, len(args))
		}
		l, err := NewArgumentList()
		if err != nil {
			return nil, err
		}
		for _, a := range args[1:] {
			elems := []Node{a}
			if sub, ok := a.(*ArgumentList); ok {
				elems = sub.Children()
			}
			for _, e := range elems {
				if err := l.Add(f.element(e)); err != nil {
					return nil, err
				}
			}
		}
		if l.Count() == 0 {
			return nil, sqlerr.New(sqlerr.ErrInvalidArgument, "IN", "empty list")
		}
		return &Membership{Expr: args[0], Not: negate, List: l}, nil
	}
}

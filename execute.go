// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package sqlstmt

import (
	"github.com/canonical/sqlstmt/descriptor"
	"github.com/canonical/sqlstmt/internal/expr"
	"github.com/canonical/sqlstmt/internal/keyword"
)

// executeStatement generates stored procedure calls.
type executeStatement struct {
	*processor
	d         *descriptor.Execute
	kw        keyword.Keyword
	arguments []int
}

func newExecute(opts *options, d *descriptor.Execute) (*executeStatement, error) {
	s := &executeStatement{processor: newProcessor(opts), d: d, kw: keyword.Exec}
	if d.Keyword != "" {
		s.kw = keyword.For(d.Keyword)
	}
	for _, a := range d.Arguments {
		i, err := s.addParam(a)
		if err != nil {
			return nil, err
		}
		s.arguments = append(s.arguments, i)
	}
	return s, nil
}

// render writes "<keyword> <procedure> (<arguments>)". Optional arguments
// without a value are left out. A required nullable argument without a
// value is passed as NULL.
func (s *executeStatement) render(pretty bool) (string, map[string]any, error) {
	s.reset()
	var args []string
	for _, i := range s.arguments {
		prm := s.params[i]
		if !prm.Required() && !prm.HasValue() {
			continue
		}
		f, _, err := prm.Operand(s.env)
		if err != nil {
			return "", nil, err
		}
		arg := s.collect(f)
		if s.d.NamedArguments {
			arg = prm.Field() + " = " + arg
		}
		args = append(args, arg)
	}

	b := expr.NewSQLBuilder(pretty)
	b.WriteKeyword(s.kw)
	b.Write(" " + s.d.Procedure + " (")
	b.WriteCommaSeparatedList(args, func(_ int, arg string) string { return arg })
	b.Write(")")
	sql := b.SQL()
	return sql, s.bound(sql), nil
}

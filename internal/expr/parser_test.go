// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package expr_test

import (
	. "gopkg.in/check.v1"

	"github.com/canonical/sqlstmt/internal/expr"
	"github.com/canonical/sqlstmt/internal/keyword"
)

type ScannerSuite struct{}

var _ = Suite(&ScannerSuite{})

var substituteTests = []struct {
	summary      string
	template     string
	replacements map[string]string
	expected     string
}{{
	summary:      "column and param",
	template:     "LOWER(:colname) = LOWER(:param)",
	replacements: map[string]string{":colname": "t.name", ":param": ":name"},
	expected:     "LOWER(t.name) = LOWER(:name)",
}, {
	summary:      "tokens in string literals are kept",
	template:     "concat(:colname, ':colname')",
	replacements: map[string]string{":colname": "t.a"},
	expected:     "concat(t.a, ':colname')",
}, {
	summary:      "tokens in comments are kept",
	template:     ":colname -- :colname\n + /* :colname */ 1",
	replacements: map[string]string{":colname": "t.a"},
	expected:     "t.a -- :colname\n + /* :colname */ 1",
}, {
	summary:      "casts are not tokens",
	template:     ":param::int",
	replacements: map[string]string{":param": ":id", ":int": "x"},
	expected:     ":id::int",
}, {
	summary:      "longer names are not prefixes",
	template:     ":col + :colname",
	replacements: map[string]string{":col": "a"},
	expected:     "a + :colname",
}, {
	summary:      "escaped quotes",
	template:     "'it''s :param' || :param",
	replacements: map[string]string{":param": "'x'"},
	expected:     "'it''s :param' || 'x'",
}, {
	summary:      "multibyte text",
	template:     "'ünï' = :param",
	replacements: map[string]string{":param": ":v"},
	expected:     "'ünï' = :v",
}}

func (s *ScannerSuite) TestSubstitute(c *C) {
	for i, t := range substituteTests {
		c.Check(expr.Substitute(t.template, t.replacements), Equals, t.expected,
			Commentf("test %d failed (%s)", i, t.summary))
	}
}

func (s *ScannerSuite) TestPlaceholders(c *C) {
	sql := "SELECT * FROM t WHERE a = :a AND b IN (:b_0, :b_1) AND c = ':c' AND d = :a"
	c.Assert(expr.Placeholders(sql), DeepEquals, []string{":a", ":b_0", ":b_1"})
	c.Assert(expr.Placeholders("SELECT 1"), HasLen, 0)
}

func (s *ScannerSuite) TestIsPlaceholder(c *C) {
	c.Assert(expr.IsPlaceholder(":a"), Equals, true)
	c.Assert(expr.IsPlaceholder(":a_1"), Equals, true)
	c.Assert(expr.IsPlaceholder("?"), Equals, true)
	c.Assert(expr.IsPlaceholder(":"), Equals, false)
	c.Assert(expr.IsPlaceholder(":1"), Equals, false)
	c.Assert(expr.IsPlaceholder(":a b"), Equals, false)
	c.Assert(expr.IsPlaceholder("a"), Equals, false)
}

func (s *ScannerSuite) TestEnclosed(c *C) {
	c.Assert(expr.Enclosed("(a OR b)"), Equals, true)
	c.Assert(expr.Enclosed(" ((a) OR (b)) "), Equals, true)
	c.Assert(expr.Enclosed("(a) OR (b)"), Equals, false)
	c.Assert(expr.Enclosed("(')')"), Equals, true)
	c.Assert(expr.Enclosed("a"), Equals, false)
}

func (s *ScannerSuite) TestHasBooleanOperator(c *C) {
	c.Assert(expr.HasBooleanOperator("a = 1 OR b = 2"), Equals, true)
	c.Assert(expr.HasBooleanOperator("a = 1 and b = 2"), Equals, true)
	c.Assert(expr.HasBooleanOperator("(a = 1 OR b = 2)"), Equals, false)
	c.Assert(expr.HasBooleanOperator("a = 'x or y'"), Equals, false)
	c.Assert(expr.HasBooleanOperator("a BETWEEN 1 AND 2"), Equals, false)
	c.Assert(expr.HasBooleanOperator("a BETWEEN 1 AND 2 AND b = 3"), Equals, true)
	c.Assert(expr.HasBooleanOperator("orders.id = brand.id"), Equals, false)
}

func (s *ScannerSuite) TestSQLBuilder(c *C) {
	b := expr.NewSQLBuilder(false)
	b.WriteKeyword(keyword.Select)
	b.Write(" a")
	b.WriteClause(keyword.From, "t")
	b.WriteClause(keyword.Where, "")
	b.WriteClause(keyword.OrderBy, "a ASC")
	c.Assert(b.SQL(), Equals, "SELECT a FROM t ORDER BY a ASC")

	p := expr.NewSQLBuilder(true)
	p.WriteKeyword(keyword.InsertInto)
	p.Write(" t")
	p.WriteInsert([]string{"a", "b"}, []string{":a", ":b"})
	c.Assert(p.Pretty(), Equals, true)
	c.Assert(p.SQL(), Equals, "INSERT INTO t (a, b)\nVALUES (:a, :b)")
}

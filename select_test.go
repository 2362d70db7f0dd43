// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package sqlstmt_test

import (
	"errors"

	. "gopkg.in/check.v1"

	"github.com/canonical/sqlstmt"
	"github.com/canonical/sqlstmt/descriptor"
)

type SelectSuite struct{}

var _ = Suite(&SelectSuite{})

func intPtr(i int) *int {
	return &i
}

var selectTests = []struct {
	summary  string
	d        *descriptor.Select
	values   map[string]any
	sql      string
	bindings map[string]any
}{{
	summary: "required param falls back to its default",
	d: &descriptor.Select{
		Table: descriptor.Table{Name: "t", Alias: "a"},
		Columns: []descriptor.Column{
			{Name: "id"},
			{Name: "status", Hidden: true, Params: []descriptor.Param{
				{Name: "status", Operator: "equals", Required: true, Default: 1},
			}},
		},
	},
	sql:      "SELECT a.id FROM t a WHERE a.status = :status",
	bindings: map[string]any{":status": 1},
}, {
	summary: "optional param without a value is left out",
	d: &descriptor.Select{
		Table: descriptor.Table{Name: "orders", Alias: "o"},
		Columns: []descriptor.Column{
			{Name: "id", Params: []descriptor.Param{{Name: "id"}}},
		},
	},
	sql:      "SELECT o.id FROM orders o",
	bindings: map[string]any{},
}, {
	summary: "optional param ignores its default",
	d: &descriptor.Select{
		Table: descriptor.Table{Name: "t", Alias: "a"},
		Columns: []descriptor.Column{
			{Name: "id"},
			{Name: "status", Hidden: true, Params: []descriptor.Param{
				{Name: "status", Default: 1},
			}},
		},
	},
	sql:      "SELECT a.id FROM t a",
	bindings: map[string]any{},
}, {
	summary: "no visible column selects everything",
	d: &descriptor.Select{
		Table: descriptor.Table{Name: "orders"},
		Columns: []descriptor.Column{
			{Name: "id", Hidden: true, Params: []descriptor.Param{{Name: "id"}}},
		},
	},
	values:   map[string]any{"id": 3},
	sql:      "SELECT * FROM orders WHERE id = :id",
	bindings: map[string]any{":id": 3},
}, {
	summary: "params of one combined group are joined with OR",
	d: &descriptor.Select{
		Table: descriptor.Table{Name: "users", Alias: "u"},
		Columns: []descriptor.Column{
			{Name: "id"},
			{Name: "name", Hidden: true, Params: []descriptor.Param{{Name: "name", Combined: 1}}},
			{Name: "email", Hidden: true, Params: []descriptor.Param{{Name: "email", Combined: 1}}},
			{Name: "status", Hidden: true, Params: []descriptor.Param{{Name: "status"}}},
		},
	},
	values:   map[string]any{":name": "ann", ":email": "ann@example.com", ":status": 1},
	sql:      "SELECT u.id FROM users u WHERE u.status = :status AND (u.name = :name OR u.email = :email)",
	bindings: map[string]any{":name": "ann", ":email": "ann@example.com", ":status": 1},
}, {
	summary: "a combined group with one member is a plain predicate",
	d: &descriptor.Select{
		Table: descriptor.Table{Name: "users", Alias: "u"},
		Columns: []descriptor.Column{
			{Name: "id"},
			{Name: "name", Hidden: true, Params: []descriptor.Param{{Name: "name", Combined: 1}}},
			{Name: "email", Hidden: true, Params: []descriptor.Param{{Name: "email", Combined: 1}}},
		},
	},
	values:   map[string]any{":name": "ann"},
	sql:      "SELECT u.id FROM users u WHERE u.name = :name",
	bindings: map[string]any{":name": "ann"},
}, {
	summary: "equal predicates are written once",
	d: &descriptor.Select{
		Table: descriptor.Table{Name: "orders", Alias: "o"},
		Columns: []descriptor.Column{
			{Name: "id"},
			{Name: "status", Hidden: true, Params: []descriptor.Param{{Name: "status"}}},
			{Name: "status", Hidden: true, Params: []descriptor.Param{{Name: "status"}}},
		},
	},
	values:   map[string]any{"status": "open"},
	sql:      "SELECT o.id FROM orders o WHERE o.status = :status",
	bindings: map[string]any{":status": "open"},
}, {
	summary: "list values get one placeholder per element",
	d: &descriptor.Select{
		Table: descriptor.Table{Name: "orders", Alias: "o"},
		Columns: []descriptor.Column{
			{Name: "id", Params: []descriptor.Param{{Name: "ids", Operator: "in"}}},
		},
	},
	values:   map[string]any{"ids": []int{4, 5}},
	sql:      "SELECT o.id FROM orders o WHERE o.id IN (:ids_0, :ids_1)",
	bindings: map[string]any{":ids_0": 4, ":ids_1": 5},
}, {
	summary: "inline params are written into the text and not bound",
	d: &descriptor.Select{
		Table: descriptor.Table{Name: "products", Alias: "p"},
		Columns: []descriptor.Column{
			{Name: "id"},
			{Name: "kind", Hidden: true, Params: []descriptor.Param{{Name: "kind", Inline: true}}},
		},
	},
	values:   map[string]any{"kind": "O'Brien"},
	sql:      "SELECT p.id FROM products p WHERE p.kind = 'O''Brien'",
	bindings: map[string]any{},
}, {
	summary: "onNotEmpty params are skipped while empty",
	d: &descriptor.Select{
		Table: descriptor.Table{Name: "products", Alias: "p"},
		Columns: []descriptor.Column{
			{Name: "id"},
			{Name: "name", Hidden: true, Params: []descriptor.Param{{Name: "q", Operator: "like", OnNotEmpty: true}}},
		},
	},
	values:   map[string]any{"q": ""},
	sql:      "SELECT p.id FROM products p",
	bindings: map[string]any{},
}, {
	summary: "order by positions with splice on collision",
	d: &descriptor.Select{
		Table: descriptor.Table{Name: "t"},
		Columns: []descriptor.Column{
			{Name: "a", Order: &descriptor.Order{Position: 2}},
			{Name: "b", Order: &descriptor.Order{Position: 1, Direction: "desc"}},
			{Name: "c", Alias: "cc", Order: &descriptor.Order{Position: 2}},
		},
	},
	sql:      "SELECT a, b, c AS cc FROM t ORDER BY b DESC, c ASC, a ASC",
	bindings: map[string]any{},
}, {
	summary: "order by an expression once whatever its alias",
	d: &descriptor.Select{
		Table: descriptor.Table{Name: "t"},
		Columns: []descriptor.Column{
			{Name: "a", Order: &descriptor.Order{Position: 1}},
			{Name: "a", Alias: "x", Order: &descriptor.Order{Position: 2, Direction: "desc"}},
		},
	},
	sql:      "SELECT a, a AS x FROM t ORDER BY a ASC",
	bindings: map[string]any{},
}, {
	summary: "group by with a having predicate on an aggregate",
	d: &descriptor.Select{
		Table: descriptor.Table{Name: "employees", Alias: "e"},
		Columns: []descriptor.Column{
			{Name: "dept", Group: true},
			{Name: "salary", Alias: "total", Function: &descriptor.Function{Name: "sum"}, Params: []descriptor.Param{
				{Name: "min", Operator: "greaterThan", Having: true},
			}},
		},
	},
	values:   map[string]any{"min": 1000},
	sql:      "SELECT e.dept, SUM(e.salary) AS total FROM employees e GROUP BY e.dept HAVING SUM(e.salary) > :min",
	bindings: map[string]any{":min": 1000},
}, {
	summary: "join with an ON condition",
	d: &descriptor.Select{
		Table: descriptor.Table{Name: "orders", Alias: "o"},
		Columns: []descriptor.Column{
			{Name: "id"},
		},
		Joins: []descriptor.Join{{
			Type:  "left",
			Table: descriptor.Table{Name: "customers", Alias: "c"},
			Columns: []descriptor.Column{
				{Name: "name", Alias: "customer"},
				{Name: "id", Hidden: true, JoinConditions: []descriptor.Condition{
					{Operator: "equals", Args: []string{"o.customer_id"}},
				}},
			},
		}},
	},
	sql:      "SELECT o.id, c.name AS customer FROM orders o LEFT JOIN customers c ON c.id = o.customer_id",
	bindings: map[string]any{},
}, {
	summary: "join params go into the ON clause, column params into WHERE",
	d: &descriptor.Select{
		Table: descriptor.Table{Name: "orders", Alias: "o"},
		Columns: []descriptor.Column{
			{Name: "id"},
		},
		Joins: []descriptor.Join{{
			Table: descriptor.Table{Name: "customers", Alias: "c"},
			Columns: []descriptor.Column{
				{Name: "id", Hidden: true,
					JoinConditions: []descriptor.Condition{{Args: []string{"o.customer_id"}}},
					JoinParams:     []descriptor.Param{{Name: "region"}},
				},
				{Name: "vip", Hidden: true, Params: []descriptor.Param{{Name: "vip"}}},
			},
		}},
	},
	values:   map[string]any{"region": 2, "vip": true},
	sql:      "SELECT o.id FROM orders o INNER JOIN customers c ON c.id = :region AND c.id = o.customer_id WHERE c.vip = :vip",
	bindings: map[string]any{":region": 2, ":vip": true},
}, {
	summary: "condition with a subquery",
	d: &descriptor.Select{
		Table: descriptor.Table{Name: "employees", Alias: "e"},
		Columns: []descriptor.Column{
			{Name: "id"},
			{Name: "dept_id", Hidden: true, Conditions: []descriptor.Condition{{
				Operator: "in",
				Subquery: &descriptor.Subquery{Select: &descriptor.Select{
					Table: descriptor.Table{Name: "departments", Alias: "d"},
					Columns: []descriptor.Column{
						{Name: "id"},
						{Name: "region", Hidden: true, Params: []descriptor.Param{{Name: "region"}}},
					},
				}},
			}}},
		},
	},
	values:   map[string]any{"region": "emea"},
	sql:      "SELECT e.id FROM employees e WHERE e.dept_id IN (SELECT d.id FROM departments d WHERE d.region = :region)",
	bindings: map[string]any{":region": "emea"},
}, {
	summary: "derived table",
	d: &descriptor.Select{
		Table: descriptor.Table{Alias: "x", Subquery: &descriptor.Subquery{
			Select: &descriptor.Select{
				Table:   descriptor.Table{Name: "orders"},
				Columns: []descriptor.Column{{Name: "id"}, {Name: "total"}},
			},
		}},
		Columns: []descriptor.Column{{Name: "total", Function: &descriptor.Function{Name: "max"}}},
	},
	sql:      "SELECT MAX(x.total) FROM (SELECT id, total FROM orders) x",
	bindings: map[string]any{},
}, {
	summary: "template column and template param",
	d: &descriptor.Select{
		Table: descriptor.Table{Name: "users", Alias: "u"},
		Columns: []descriptor.Column{
			{Name: "name", Alias: "name", Template: "LOWER(:colname)", Params: []descriptor.Param{
				{Name: "name", Template: ":colname = LOWER(:param)"},
			}},
		},
	},
	values:   map[string]any{"name": "Ann"},
	sql:      "SELECT LOWER(u.name) AS name FROM users u WHERE LOWER(u.name) = LOWER(:name)",
	bindings: map[string]any{":name": "Ann"},
}, {
	summary: "modifiers limit offset and trailing keywords",
	d: &descriptor.Select{
		Table:     descriptor.Table{Name: "jobs"},
		Columns:   []descriptor.Column{{Name: "id", Order: &descriptor.Order{Position: 1}}},
		Modifiers: []string{"distinct", "unknown"},
		Limit:     intPtr(10),
		Offset:    intPtr(20),
		Trailing:  []string{"forUpdate"},
	},
	sql:      "SELECT DISTINCT id FROM jobs ORDER BY id ASC LIMIT 10 OFFSET 20 FOR UPDATE",
	bindings: map[string]any{},
}, {
	summary: "typed between param",
	d: &descriptor.Select{
		Table: descriptor.Table{Name: "orders", Alias: "o"},
		Columns: []descriptor.Column{
			{Name: "id"},
			{Name: "total", Hidden: true, Params: []descriptor.Param{{Name: "range", Operator: "between", Type: "int"}}},
		},
	},
	values:   map[string]any{"range": "10,20"},
	sql:      "SELECT o.id FROM orders o WHERE o.total BETWEEN :range_0 AND :range_1",
	bindings: map[string]any{":range_0": 10, ":range_1": 20},
}}

func (s *SelectSuite) TestRender(c *C) {
	for i, t := range selectTests {
		stmt, err := sqlstmt.New(t.d)
		c.Assert(err, IsNil, Commentf("test %d failed (%s)", i, t.summary))
		stmt.SetValues(t.values)
		r, err := stmt.Render()
		c.Assert(err, IsNil, Commentf("test %d failed (%s)", i, t.summary))
		c.Check(r.SQL, Equals, t.sql, Commentf("test %d failed (%s)", i, t.summary))
		c.Check(r.Bindings, DeepEquals, t.bindings, Commentf("test %d failed (%s)", i, t.summary))
	}
}

func (s *SelectSuite) TestRenderIsRepeatable(c *C) {
	for i, t := range selectTests {
		stmt := sqlstmt.MustNew(t.d)
		stmt.SetValues(t.values)
		first, err := stmt.Render()
		c.Assert(err, IsNil)
		second, err := stmt.Render()
		c.Assert(err, IsNil)
		c.Check(second, DeepEquals, first, Commentf("test %d failed (%s)", i, t.summary))
	}
}

func (s *SelectSuite) TestValuesChangeBetweenRenders(c *C) {
	stmt := sqlstmt.MustNew(&descriptor.Select{
		Table: descriptor.Table{Name: "orders", Alias: "o"},
		Columns: []descriptor.Column{
			{Name: "id", Params: []descriptor.Param{{Name: "id"}}},
		},
	})
	stmt.SetValue("id", 1)
	sql, err := stmt.SQL()
	c.Assert(err, IsNil)
	c.Assert(sql, Equals, "SELECT o.id FROM orders o WHERE o.id = :id")

	stmt.RemoveValue(":id")
	sql, err = stmt.SQL()
	c.Assert(err, IsNil)
	c.Assert(sql, Equals, "SELECT o.id FROM orders o")

	stmt.SetValue("id", []string{"a", "b"})
	bindings, err := stmt.Bindings()
	c.Assert(err, IsNil)
	c.Assert(bindings, DeepEquals, map[string]any{":id_0": "a", ":id_1": "b"})
}

func (s *SelectSuite) TestPretty(c *C) {
	stmt := sqlstmt.MustNew(selectTests[0].d)
	sql, err := stmt.PrettySQL()
	c.Assert(err, IsNil)
	c.Assert(sql, Equals, "SELECT a.id\nFROM t a\nWHERE a.status = :status")

	stmt = sqlstmt.MustNew(selectTests[4].d)
	stmt.SetValues(selectTests[4].values)
	sql, err = stmt.PrettySQL()
	c.Assert(err, IsNil)
	c.Assert(sql, Equals, "SELECT u.id\nFROM users u\nWHERE u.status = :status\n  AND (u.name = :name OR u.email = :email)")
}

func (s *SelectSuite) TestSubqueryParamsAreElevated(c *C) {
	stmt := sqlstmt.MustNew(&descriptor.Select{
		Table: descriptor.Table{Name: "employees", Alias: "e"},
		Columns: []descriptor.Column{
			{Name: "id"},
			{Name: "dept", Alias: "dept", Subquery: &descriptor.Subquery{Select: &descriptor.Select{
				Table: descriptor.Table{Name: "departments", Alias: "d"},
				Columns: []descriptor.Column{
					{Name: "name"},
					{Name: "id", Hidden: true, Params: []descriptor.Param{{Name: "dept", Required: true}}},
				},
			}}},
		},
	})
	c.Assert(stmt.RequiredParams(), DeepEquals, []string{":dept"})

	_, err := stmt.Render()
	c.Assert(errors.Is(err, sqlstmt.ErrValueRequired), Equals, true)

	stmt.SetValue(":dept", 7)
	r, err := stmt.Render()
	c.Assert(err, IsNil)
	c.Assert(r.SQL, Equals, "SELECT e.id, (SELECT d.name FROM departments d WHERE d.id = :dept) AS dept FROM employees e")
	c.Assert(r.Bindings, DeepEquals, map[string]any{":dept": 7})
}

func (s *SelectSuite) TestSubqueryArgs(c *C) {
	d := &descriptor.Select{
		Table: descriptor.Table{Name: "employees", Alias: "e"},
		Columns: []descriptor.Column{
			{Name: "id"},
			{Name: "dept_id", Hidden: true, Conditions: []descriptor.Condition{{
				Operator: "in",
				Subquery: &descriptor.Subquery{
					Select: &descriptor.Select{
						Table: descriptor.Table{Name: "departments", Alias: "d"},
						Columns: []descriptor.Column{
							{Name: "id"},
							{Name: "region", Hidden: true, Params: []descriptor.Param{{Name: "region"}}},
						},
					},
					Args: map[string]any{"region": "apac"},
				},
			}}},
		},
	}
	stmt := sqlstmt.MustNew(d)
	bindings, err := stmt.Bindings()
	c.Assert(err, IsNil)
	c.Assert(bindings, DeepEquals, map[string]any{":region": "apac"})

	stmt.SetValue("region", "emea")
	bindings, err = stmt.Bindings()
	c.Assert(err, IsNil)
	c.Assert(bindings, DeepEquals, map[string]any{":region": "emea"})
}

func (s *SelectSuite) TestParams(c *C) {
	stmt := sqlstmt.MustNew(&descriptor.Select{
		Table: descriptor.Table{Name: "t"},
		Columns: []descriptor.Column{
			{Name: "a", Params: []descriptor.Param{{Name: "a", Required: true, Type: "int", Default: 3}}},
			{Name: "b", Params: []descriptor.Param{{Name: ":b", Nullable: true}}},
			{Name: "c", Params: []descriptor.Param{{Name: "a", Operator: "greaterThan"}}},
		},
	})
	stmt.SetValue("b", "x")
	c.Assert(stmt.Params(), DeepEquals, []sqlstmt.ParamInfo{{
		Placeholder: ":a",
		Required:    true,
		Default:     3,
		Type:        "int",
	}, {
		Placeholder: ":b",
		Nullable:    true,
		Type:        "string",
		Value:       "x",
		HasValue:    true,
	}})
	c.Assert(stmt.RequiredParams(), DeepEquals, []string{":a"})
	c.Assert(stmt.OptionalParams(), DeepEquals, []string{":b"})
}

func (s *SelectSuite) TestSetStruct(c *C) {
	type filter struct {
		Status string `db:"status"`
		Name   string `db:"name,omitempty"`
	}
	stmt := sqlstmt.MustNew(&descriptor.Select{
		Table: descriptor.Table{Name: "users"},
		Columns: []descriptor.Column{
			{Name: "id"},
			{Name: "status", Hidden: true, Params: []descriptor.Param{{Name: "status"}}},
			{Name: "name", Hidden: true, Params: []descriptor.Param{{Name: "name"}}},
		},
	})
	c.Assert(stmt.SetStruct(filter{Status: "active"}), IsNil)
	r, err := stmt.Render()
	c.Assert(err, IsNil)
	c.Assert(r.SQL, Equals, "SELECT id FROM users WHERE status = :status")
	c.Assert(r.Bindings, DeepEquals, map[string]any{":status": "active"})

	c.Assert(stmt.SetStruct(5), ErrorMatches, "cannot get values of int: .*")
}

func (s *SelectSuite) TestInjectionCheck(c *C) {
	d := &descriptor.Select{
		Table: descriptor.Table{Name: "products", Alias: "p"},
		Columns: []descriptor.Column{
			{Name: "id"},
			{Name: "name", Hidden: true, Params: []descriptor.Param{{Name: "name", Inline: true}}},
		},
	}
	stmt := sqlstmt.MustNew(d, sqlstmt.WithInjectionCheck())
	stmt.SetValue("name", "laptop computers")
	sql, err := stmt.SQL()
	c.Assert(err, IsNil)
	c.Assert(sql, Equals, "SELECT p.id FROM products p WHERE p.name = 'laptop computers'")

	stmt.SetValue("name", "' OR '1'='1")
	_, err = stmt.SQL()
	c.Assert(errors.Is(err, sqlstmt.ErrInvalidArgument), Equals, true)
	c.Assert(err, ErrorMatches, `cannot render select statement: invalid argument: :name: value rejected as SQL injection .*`)
}

func (s *SelectSuite) TestQuote(c *C) {
	stmt := sqlstmt.MustNew(&descriptor.Select{
		Table: descriptor.Table{Name: "products"},
		Columns: []descriptor.Column{
			{Name: "kind", Params: []descriptor.Param{{Name: "kind", Inline: true}}},
		},
	}, sqlstmt.WithQuote('"'))
	stmt.SetValue("kind", "book")
	sql, err := stmt.SQL()
	c.Assert(err, IsNil)
	c.Assert(sql, Equals, `SELECT kind FROM products WHERE kind = "book"`)
}

var selectErrorTests = []struct {
	summary string
	d       *descriptor.Select
	values  map[string]any
	err     string
	kind    error
}{{
	summary: "required param without value or default",
	d: &descriptor.Select{
		Table: descriptor.Table{Name: "t"},
		Columns: []descriptor.Column{
			{Name: "id", Params: []descriptor.Param{{Name: "id", Required: true}}},
		},
	},
	err:  "cannot render select statement: value required: :id: no value and no default",
	kind: sqlstmt.ErrValueRequired,
}, {
	summary: "value not convertible to the param type",
	d: &descriptor.Select{
		Table: descriptor.Table{Name: "t"},
		Columns: []descriptor.Column{
			{Name: "id", Params: []descriptor.Param{{Name: "id", Type: "int"}}},
		},
	},
	values: map[string]any{"id": "abc"},
	err:    "cannot render select statement: invalid argument: :id: cannot convert to int: .*",
	kind:   sqlstmt.ErrInvalidArgument,
}}

func (s *SelectSuite) TestRenderErrors(c *C) {
	for i, t := range selectErrorTests {
		stmt, err := sqlstmt.New(t.d)
		c.Assert(err, IsNil, Commentf("test %d failed (%s)", i, t.summary))
		stmt.SetValues(t.values)
		_, err = stmt.Render()
		c.Check(err, ErrorMatches, t.err, Commentf("test %d failed (%s)", i, t.summary))
		c.Check(errors.Is(err, t.kind), Equals, true, Commentf("test %d failed (%s)", i, t.summary))
	}
}

func (s *SelectSuite) TestNewErrors(c *C) {
	_, err := sqlstmt.New(&descriptor.Select{})
	c.Assert(err, ErrorMatches, "cannot build select statement: configuration error: .*")
	c.Assert(errors.Is(err, sqlstmt.ErrConfiguration), Equals, true)

	_, err = sqlstmt.New(&descriptor.Select{
		Table: descriptor.Table{Name: "t"},
		Joins: []descriptor.Join{{Type: "sideways", Table: descriptor.Table{Name: "u"}}},
	})
	c.Assert(errors.Is(err, sqlstmt.ErrConfiguration), Equals, true)

	c.Assert(func() { sqlstmt.MustNew(&descriptor.Select{}) }, PanicMatches, "cannot build select statement: .*")
}

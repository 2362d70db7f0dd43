// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package sqlstmt_test

import (
	"database/sql"
	"errors"

	. "gopkg.in/check.v1"

	"github.com/canonical/sqlstmt"
	"github.com/canonical/sqlstmt/descriptor"
)

type StatementSuite struct{}

var _ = Suite(&StatementSuite{})

var statementTests = []struct {
	summary  string
	d        descriptor.Statement
	values   map[string]any
	sql      string
	bindings map[string]any
}{{
	summary: "insert from params",
	d: &descriptor.Insert{
		Table: descriptor.Table{Name: "users"},
		Columns: []descriptor.Column{
			{Name: "name", Params: []descriptor.Param{{Name: "name"}}},
			{Name: "email", Params: []descriptor.Param{{Name: "email"}}},
		},
	},
	values:   map[string]any{"name": "ann", "email": "ann@example.com"},
	sql:      "INSERT INTO users (name, email) VALUES (:name, :email)",
	bindings: map[string]any{":name": "ann", ":email": "ann@example.com"},
}, {
	summary: "insert leaves out null values",
	d: &descriptor.Insert{
		Table: descriptor.Table{Name: "users"},
		Columns: []descriptor.Column{
			{Name: "name", Params: []descriptor.Param{{Name: "name"}}},
			{Name: "email", Params: []descriptor.Param{{Name: "email", Nullable: true}}},
			{Name: "created", Params: []descriptor.Param{{Name: "created", Required: true, Type: "expression", Default: "CURRENT_TIMESTAMP"}}},
		},
	},
	values:   map[string]any{"name": "ann", "email": nil},
	sql:      "INSERT INTO users (name, created) VALUES (:name, CURRENT_TIMESTAMP)",
	bindings: map[string]any{":name": "ann"},
}, {
	summary: "insert from a select",
	d: &descriptor.Insert{
		Table:   descriptor.Table{Name: "archive"},
		Columns: []descriptor.Column{{Name: "id"}, {Name: "name"}},
		Select: &descriptor.Select{
			Table: descriptor.Table{Name: "users", Alias: "u"},
			Columns: []descriptor.Column{
				{Name: "id"},
				{Name: "name"},
				{Name: "active", Hidden: true, Params: []descriptor.Param{{Name: "active"}}},
			},
		},
	},
	values:   map[string]any{"active": false},
	sql:      "INSERT INTO archive (id, name) SELECT u.id, u.name FROM users u WHERE u.active = :active",
	bindings: map[string]any{":active": false},
}, {
	summary: "update assigns equality params and filters on the others",
	d: &descriptor.Update{
		Table: descriptor.Table{Name: "users"},
		Columns: []descriptor.Column{
			{Name: "name", Params: []descriptor.Param{{Name: "name"}}},
			{Name: "email", Params: []descriptor.Param{{Name: "email"}}},
			{Name: "age", Params: []descriptor.Param{{Name: "age", Operator: "greaterThan"}}},
			{Name: "id", Params: []descriptor.Param{{Name: "id", Filter: true}}},
		},
	},
	values:   map[string]any{"name": "bob", "age": 30, "id": 2},
	sql:      "UPDATE users SET name = :name WHERE age > :age AND id = :id",
	bindings: map[string]any{":name": "bob", ":age": 30, ":id": 2},
}, {
	summary: "update with an explicit null",
	d: &descriptor.Update{
		Table: descriptor.Table{Name: "users", Alias: "u"},
		Columns: []descriptor.Column{
			{Name: "email", Params: []descriptor.Param{{Name: "email", Nullable: true}}},
			{Name: "id", Params: []descriptor.Param{{Name: "id", Filter: true}}},
		},
	},
	values:   map[string]any{"email": nil, "id": 2},
	sql:      "UPDATE users u SET email = NULL WHERE u.id = :id",
	bindings: map[string]any{":id": 2},
}, {
	summary: "update leaves out unset optional params with a default",
	d: &descriptor.Update{
		Table: descriptor.Table{Name: "users"},
		Columns: []descriptor.Column{
			{Name: "name", Params: []descriptor.Param{{Name: "name"}}},
			{Name: "status", Params: []descriptor.Param{{Name: "status", Default: "active"}}},
			{Name: "id", Params: []descriptor.Param{{Name: "id", Filter: true}}},
		},
	},
	values:   map[string]any{"name": "bob", "id": 2},
	sql:      "UPDATE users SET name = :name WHERE id = :id",
	bindings: map[string]any{":name": "bob", ":id": 2},
}, {
	summary: "delete",
	d: &descriptor.Delete{
		Table: descriptor.Table{Name: "sessions"},
		Columns: []descriptor.Column{
			{Name: "expires", Params: []descriptor.Param{{Name: "now", Operator: "lessThan"}}},
			{Name: "user_id", Conditions: []descriptor.Condition{{Operator: "isNotNull"}}},
		},
	},
	values:   map[string]any{"now": 1700000000},
	sql:      "DELETE FROM sessions WHERE expires < :now AND user_id IS NOT NULL",
	bindings: map[string]any{":now": 1700000000},
}, {
	summary: "delete routes having predicates to HAVING",
	d: &descriptor.Delete{
		Table: descriptor.Table{Name: "carts"},
		Columns: []descriptor.Column{
			{Name: "user_id", Params: []descriptor.Param{{Name: "user"}}},
			{Name: "total", Params: []descriptor.Param{{Name: "min", Operator: "greaterThan", Having: true}}},
		},
	},
	values:   map[string]any{"user": 5, "min": 100},
	sql:      "DELETE FROM carts WHERE user_id = :user HAVING total > :min",
	bindings: map[string]any{":user": 5, ":min": 100},
}, {
	summary: "procedure call",
	d: &descriptor.Execute{
		Procedure: "refresh_stats",
		Arguments: []descriptor.Param{
			{Name: "from", Required: true},
			{Name: "to"},
			{Name: "region", Required: true, Nullable: true},
		},
	},
	values:   map[string]any{"from": 1},
	sql:      "EXEC refresh_stats (:from, NULL)",
	bindings: map[string]any{":from": 1},
}, {
	summary: "procedure call with named arguments",
	d: &descriptor.Execute{
		Procedure:      "refresh_stats",
		Keyword:        "call",
		NamedArguments: true,
		Arguments: []descriptor.Param{
			{Name: "from", Required: true},
			{Name: "to", Field: "until"},
		},
	},
	values:   map[string]any{"from": 1, "to": 2},
	sql:      "CALL refresh_stats (from = :from, until = :to)",
	bindings: map[string]any{":from": 1, ":to": 2},
}, {
	summary: "union all",
	d: &descriptor.Union{
		All: true,
		Selects: []*descriptor.Select{{
			Table: descriptor.Table{Name: "customers", Alias: "c"},
			Columns: []descriptor.Column{
				{Name: "email"},
				{Name: "status", Hidden: true, Params: []descriptor.Param{{Name: "status"}}},
			},
		}, {
			Table: descriptor.Table{Name: "suppliers", Alias: "s"},
			Columns: []descriptor.Column{
				{Name: "email"},
				{Name: "status", Hidden: true, Params: []descriptor.Param{{Name: "status"}}},
			},
		}},
	},
	values:   map[string]any{"status": "active"},
	sql:      "SELECT c.email FROM customers c WHERE c.status = :status UNION ALL SELECT s.email FROM suppliers s WHERE s.status = :status",
	bindings: map[string]any{":status": "active"},
}}

func (s *StatementSuite) TestRender(c *C) {
	for i, t := range statementTests {
		stmt, err := sqlstmt.New(t.d)
		c.Assert(err, IsNil, Commentf("test %d failed (%s)", i, t.summary))
		stmt.SetValues(t.values)
		r, err := stmt.Render()
		c.Assert(err, IsNil, Commentf("test %d failed (%s)", i, t.summary))
		c.Check(r.SQL, Equals, t.sql, Commentf("test %d failed (%s)", i, t.summary))
		c.Check(r.Bindings, DeepEquals, t.bindings, Commentf("test %d failed (%s)", i, t.summary))

		again, err := stmt.Render()
		c.Assert(err, IsNil)
		c.Check(again, DeepEquals, r, Commentf("test %d failed (%s)", i, t.summary))
	}
}

var statementErrorTests = []struct {
	summary string
	d       descriptor.Statement
	values  map[string]any
	err     string
	kind    error
}{{
	summary: "insert column count differs from its select",
	d: &descriptor.Insert{
		Table:   descriptor.Table{Name: "archive"},
		Columns: []descriptor.Column{{Name: "a"}, {Name: "b"}},
		Select: &descriptor.Select{
			Table:   descriptor.Table{Name: "users"},
			Columns: []descriptor.Column{{Name: "x"}, {Name: "y"}, {Name: "z"}},
		},
	},
	err:  "cannot render insert statement: configuration error: archive: insert has 2 columns but its select has 3",
	kind: sqlstmt.ErrConfiguration,
}, {
	summary: "insert without values",
	d: &descriptor.Insert{
		Table: descriptor.Table{Name: "users"},
		Columns: []descriptor.Column{
			{Name: "name", Params: []descriptor.Param{{Name: "name"}}},
		},
	},
	err:  "cannot render insert statement: configuration error: users: no values to insert",
	kind: sqlstmt.ErrConfiguration,
}, {
	summary: "update whose only filter is skipped",
	d: &descriptor.Update{
		Table: descriptor.Table{Name: "users"},
		Columns: []descriptor.Column{
			{Name: "name", Params: []descriptor.Param{{Name: "name"}}},
			{Name: "id", Params: []descriptor.Param{{Name: "id", Filter: true, OnNotEmpty: true}}},
		},
	},
	values: map[string]any{"name": "bob", "id": ""},
	err:    "cannot render update statement: operation not allowed: users: update without a where clause",
	kind:   sqlstmt.ErrNotAllowed,
}, {
	summary: "update without assignments",
	d: &descriptor.Update{
		Table: descriptor.Table{Name: "users"},
		Columns: []descriptor.Column{
			{Name: "name", Params: []descriptor.Param{{Name: "name"}}},
			{Name: "id", Params: []descriptor.Param{{Name: "id", Filter: true}}},
		},
	},
	values: map[string]any{"id": 1},
	err:    "cannot render update statement: invalid argument: users: update has no values to set",
	kind:   sqlstmt.ErrInvalidArgument,
}, {
	summary: "delete without a where clause",
	d: &descriptor.Delete{
		Table: descriptor.Table{Name: "sessions"},
		Columns: []descriptor.Column{
			{Name: "user_id", Params: []descriptor.Param{{Name: "user", OnEmpty: true}}},
		},
	},
	values: map[string]any{"user": 3},
	err:    "cannot render delete statement: operation not allowed: sessions: delete without a where clause",
	kind:   sqlstmt.ErrNotAllowed,
}, {
	summary: "required procedure argument",
	d: &descriptor.Execute{
		Procedure: "p",
		Arguments: []descriptor.Param{{Name: "a", Required: true}},
	},
	err:  "cannot render execute statement: value required: :a: no value and no default",
	kind: sqlstmt.ErrValueRequired,
}}

func (s *StatementSuite) TestRenderErrors(c *C) {
	for i, t := range statementErrorTests {
		stmt, err := sqlstmt.New(t.d)
		c.Assert(err, IsNil, Commentf("test %d failed (%s)", i, t.summary))
		stmt.SetValues(t.values)
		_, err = stmt.Render()
		c.Check(err, ErrorMatches, t.err, Commentf("test %d failed (%s)", i, t.summary))
		c.Check(errors.Is(err, t.kind), Equals, true, Commentf("test %d failed (%s)", i, t.summary))
	}
}

func (s *StatementSuite) TestNewErrors(c *C) {
	_, err := sqlstmt.New(&descriptor.Insert{Table: descriptor.Table{Name: "t"}})
	c.Assert(err, ErrorMatches, "cannot build insert statement: configuration error: t: insert needs params or a select source")

	_, err = sqlstmt.New(&descriptor.Execute{Procedure: "p", Keyword: "run"})
	c.Assert(errors.Is(err, sqlstmt.ErrConfiguration), Equals, true)

	_, err = sqlstmt.New(&descriptor.Union{})
	c.Assert(errors.Is(err, sqlstmt.ErrConfiguration), Equals, true)

	_, err = sqlstmt.New(nil)
	c.Assert(err, ErrorMatches, "cannot build statement: configuration error: unsupported descriptor <nil>")
}

func (s *StatementSuite) TestUnionParams(c *C) {
	stmt := sqlstmt.MustNew(statementTests[10].d)
	c.Assert(stmt.OptionalParams(), DeepEquals, []string{":status"})
	stmt.RemoveValue("status")
	sql, err := stmt.PrettySQL()
	c.Assert(err, IsNil)
	c.Assert(sql, Equals, "SELECT c.email\nFROM customers c\nUNION ALL\nSELECT s.email\nFROM suppliers s")
}

func (s *StatementSuite) TestNamedArgs(c *C) {
	r := &sqlstmt.Rendered{
		SQL:      "SELECT * FROM t WHERE b = :b AND a IN (:a_0, :a_1) AND b <> :b",
		Bindings: map[string]any{":a_0": 1, ":a_1": 2, ":b": "x"},
	}
	c.Assert(r.NamedArgs(), DeepEquals, []any{
		sql.Named("b", "x"),
		sql.Named("a_0", 1),
		sql.Named("a_1", 2),
	})
}

// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

/*
Package sqlstmt generates SQL statements with named placeholders from
statement descriptors.

A descriptor (package descriptor) declares the table, columns, joins and
the params and conditions filtering on each column. New turns it into a
Statement. Values are set on the Statement by placeholder name and the
Statement renders SQL text together with the values bound to the
placeholders appearing in it:

	stmt, err := sqlstmt.New(&descriptor.Select{
		Table: descriptor.Table{Name: "orders", Alias: "o"},
		Columns: []descriptor.Column{
			{Name: "id"},
			{Name: "status", Hidden: true, Params: []descriptor.Param{
				{Name: "status", Required: true, Default: 1},
			}},
		},
	})
	...
	r, err := stmt.Render()
	// r.SQL:      SELECT o.id FROM orders o WHERE o.status = :status
	// r.Bindings: map[:status:1]

# Params and conditions

A param is a predicate bound to a placeholder. Params without a value are
left out unless they are required, in which case their default is used.
Rendering fails with ErrValueRequired when a required param has neither a
value nor a default. Params sharing a combined group are joined with OR.
Conditions are predicates with fixed arguments.

# Subqueries

Columns, tables, params and conditions may hold a nested SELECT. The params
of nested statements are visible on the enclosing Statement and values set
on it reach every nested statement.

# Statements

SELECT, INSERT, UPDATE, DELETE, procedure calls and UNIONs are supported.
An UPDATE or DELETE without a WHERE clause fails with ErrNotAllowed.

Rendering is repeatable: a Statement can be rendered, given new values and
rendered again.
*/
package sqlstmt

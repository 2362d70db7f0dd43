// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

/*
Package expr contains the expression tree used to assemble SQL statements.

# Nodes

A Node is a rendered fragment of SQL: a raw string, a placeholder, a quoted
literal, an operator application or a function call. Nodes are immutable
once built.

# Combinators

Conjunction, Disjunction, ArgumentList, GroupByList and OrderByList hold an
ordered list of child nodes and render them with their own prefix,
separator and suffix. Each combinator accepts only the node kinds that make
sense in its position and remembers the rendered text of its children so
that duplicates can be skipped.

# Factory

Factory turns an operator name and its arguments into a Node using a single
dispatch table keyed by Operator. Names that are not operators become plain
function calls.

# Templates

Substitute and Placeholders scan SQL text for ":name" tokens, stepping over
string literals and comments.
*/
package expr

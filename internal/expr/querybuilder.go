// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package expr

import (
	"bytes"

	"github.com/canonical/sqlstmt/internal/keyword"
)

// SQLBuilder accumulates the clauses of a statement. In pretty mode every
// clause starts on its own line.
type SQLBuilder struct {
	buf    bytes.Buffer
	pretty bool
}

// NewSQLBuilder returns an empty builder.
func NewSQLBuilder(pretty bool) *SQLBuilder {
	return &SQLBuilder{pretty: pretty}
}

// Pretty reports whether the builder lays clauses out on separate lines.
func (b *SQLBuilder) Pretty() bool {
	return b.pretty
}

// Write writes the SQL to the builder.
func (b *SQLBuilder) Write(sql string) {
	b.buf.WriteString(sql)
}

// WriteKeyword writes kw, separated from anything already written by a
// space.
func (b *SQLBuilder) WriteKeyword(kw keyword.Keyword) {
	if kw == keyword.None {
		return
	}
	b.space()
	b.buf.WriteString(string(kw))
}

// WriteClause starts a new clause with the keyword kw followed by body. The
// clause is omitted entirely when body is empty.
func (b *SQLBuilder) WriteClause(kw keyword.Keyword, body string) {
	if body == "" {
		return
	}
	b.newClause()
	if kw != keyword.None {
		b.buf.WriteString(string(kw))
		b.buf.WriteString(" ")
	}
	b.buf.WriteString(body)
}

// WriteCommaSeparatedList writes out the provided list using the writer to
// write each element into the SQL.
func (b *SQLBuilder) WriteCommaSeparatedList(list []string, writer func(i int, s string) string) {
	for i, s := range list {
		if i != 0 {
			b.buf.WriteString(", ")
		}
		b.buf.WriteString(writer(i, s))
	}
}

// WriteInsert writes "(columns) VALUES (values)".
func (b *SQLBuilder) WriteInsert(columns []string, values []string) {
	b.space()
	b.buf.WriteString("(")
	b.WriteCommaSeparatedList(columns, identity)
	b.buf.WriteString(")")
	b.newClause()
	b.buf.WriteString(string(keyword.Values))
	b.buf.WriteString(" (")
	b.WriteCommaSeparatedList(values, identity)
	b.buf.WriteString(")")
}

// SQL returns the generated SQL string.
func (b *SQLBuilder) SQL() string {
	return b.buf.String()
}

func (b *SQLBuilder) space() {
	if b.buf.Len() > 0 {
		b.buf.WriteString(" ")
	}
}

func (b *SQLBuilder) newClause() {
	if b.buf.Len() == 0 {
		return
	}
	if b.pretty {
		b.buf.WriteString("\n")
	} else {
		b.buf.WriteString(" ")
	}
}

func identity(_ int, s string) string {
	return s
}

// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package keyword maps the tokens used in statement descriptors to SQL
// keywords and to the data type classification used for value coercion.
// Lookups never fail: an unknown token resolves to None.
package keyword

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Keyword is a SQL keyword as written into the generated statement.
type Keyword string

// None is returned for tokens that are not recognised.
const None Keyword = ""

const (
	Select     Keyword = "SELECT"
	InsertInto Keyword = "INSERT INTO"
	Update     Keyword = "UPDATE"
	DeleteFrom Keyword = "DELETE FROM"
	From       Keyword = "FROM"
	Where      Keyword = "WHERE"
	Having     Keyword = "HAVING"
	GroupBy    Keyword = "GROUP BY"
	OrderBy    Keyword = "ORDER BY"
	Set        Keyword = "SET"
	Values     Keyword = "VALUES"
	On         Keyword = "ON"
	As         Keyword = "AS"
	And        Keyword = "AND"
	Or         Keyword = "OR"
	Not        Keyword = "NOT"
	Null       Keyword = "NULL"
	Union      Keyword = "UNION"
	UnionAll   Keyword = "UNION ALL"
	Asc        Keyword = "ASC"
	Desc       Keyword = "DESC"
	Limit      Keyword = "LIMIT"
	Offset     Keyword = "OFFSET"
	Exec       Keyword = "EXEC"
	Execute    Keyword = "EXECUTE"
	Call       Keyword = "CALL"
	JoinWord   Keyword = "JOIN"
	Distinct   Keyword = "DISTINCT"
)

// known holds every keyword the registry can produce. The table is indexed
// by the normalised form of the keyword, see normalise.
var known = map[string]Keyword{}

// aliases are alternative spellings that do not normalise to the keyword
// text itself.
var aliases = map[string]Keyword{
	"ASCENDING":         Asc,
	"DESCENDING":        Desc,
	"INSERT":            InsertInto,
	"DELETE":            DeleteFrom,
	"EXECUTE PROCEDURE": Execute,
}

func init() {
	for _, k := range []Keyword{
		Select, InsertInto, Update, DeleteFrom, From, Where, Having, GroupBy,
		OrderBy, Set, Values, On, As, And, Or, Not, Null, Union, UnionAll,
		Asc, Desc, Limit, Offset, Exec, Execute, Call, JoinWord, Distinct,
		"ALL", "IS", "IS NOT", "IN", "NOT IN", "LIKE", "BETWEEN", "EXISTS",
		"DISTINCTROW", "HIGH_PRIORITY", "STRAIGHT_JOIN", "SQL_SMALL_RESULT",
		"SQL_BIG_RESULT", "SQL_BUFFER_RESULT", "SQL_NO_CACHE", "SQL_CACHE",
		"FOR UPDATE", "FOR SHARE", "LOCK IN SHARE MODE", "WITH ROLLUP",
		"SKIP LOCKED", "NOWAIT", "TOP", "TRUE", "FALSE", "INTO",
		"SQL_CALC_FOUND_ROWS",
	} {
		known[normalise(string(k))] = k
	}
}

// For returns the keyword for the given token. Matching is case insensitive
// and accepts camelCase or snake_case spellings, so "groupBy", "group_by"
// and "GROUP BY" all resolve to GroupBy. Unknown tokens resolve to None.
func For(token string) Keyword {
	n := normalise(splitCamel(token))
	if n == "" {
		return None
	}
	if k, ok := known[n]; ok {
		return k
	}
	if k, ok := aliases[n]; ok {
		return k
	}
	return None
}

// Join returns the full join keyword for a join kind such as "left",
// "leftOuter" or "CROSS". An empty kind is an inner join.
func Join(kind string) Keyword {
	n := normalise(splitCamel(kind))
	n = strings.TrimSuffix(n, " JOIN")
	switch n {
	case "", "INNER":
		return "INNER JOIN"
	case "LEFT", "RIGHT", "FULL", "CROSS", "NATURAL",
		"LEFT OUTER", "RIGHT OUTER", "FULL OUTER",
		"NATURAL LEFT", "NATURAL RIGHT":
		return Keyword(n + " JOIN")
	}
	return None
}

// Direction returns ASC or DESC for an ordering token. Anything that is not
// recognised as descending sorts ascending.
func Direction(token string) Keyword {
	if For(token) == Desc {
		return Desc
	}
	return Asc
}

// IsDirection reports whether token names a sort direction. The empty token
// is accepted and means ascending.
func IsDirection(token string) bool {
	if token == "" {
		return true
	}
	k := For(token)
	return k == Asc || k == Desc
}

// splitCamel inserts a space at every lower-to-upper case transition.
func splitCamel(s string) string {
	var b strings.Builder
	var prev rune
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

// normalise upper-cases the token and collapses underscores and runs of
// white space into single spaces.
func normalise(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.Join(strings.Fields(s), " ")
	return cases.Upper(language.Und).String(s)
}

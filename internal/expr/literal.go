// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package expr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var numericLiteral = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// IsNumeric reports whether s is written as a decimal number.
func IsNumeric(s string) bool {
	return numericLiteral.MatchString(s)
}

// QuoteLiteral renders v as an SQL literal. Numbers, including strings
// written as decimal numbers, are unquoted. nil and the string "NULL" in any
// case render as NULL and booleans as true or false. Everything else is
// enclosed in the factory's quote character with embedded quote characters
// doubled.
func (f *Factory) QuoteLiteral(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case Literal:
		return v.text
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case decimal.Decimal:
		return v.String()
	case string:
		if strings.EqualFold(v, "NULL") {
			return "NULL"
		}
		if IsNumeric(v) {
			return v
		}
		return f.quote(v)
	case fmt.Stringer:
		return f.quote(v.String())
	}
	return f.quote(fmt.Sprint(v))
}

// Literal returns v quoted as a Literal node.
func (f *Factory) Literal(v any) Literal {
	return Literal{text: f.QuoteLiteral(v)}
}

func (f *Factory) quote(s string) string {
	q := string(f.quoteChar)
	return q + strings.ReplaceAll(s, q, q+q) + q
}

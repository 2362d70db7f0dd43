// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package resolve

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// DefaultDateFormat and DefaultDateTimeFormat are the input patterns
	// used for date params without a format.
	DefaultDateFormat     = "d-m-Y"
	DefaultDateTimeFormat = "d-m-Y H:i:s"

	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// datePatternLayouts maps the letters of a date pattern to the matching
// element of a time layout.
var datePatternLayouts = map[rune]string{
	'd': "02",
	'j': "2",
	'D': "Mon",
	'l': "Monday",
	'm': "01",
	'n': "1",
	'M': "Jan",
	'F': "January",
	'Y': "2006",
	'y': "06",
	'H': "15",
	'G': "15",
	'h': "03",
	'g': "3",
	'i': "04",
	's': "05",
	'a': "pm",
	'A': "PM",
	'T': "MST",
	'P': "-07:00",
	'O': "-0700",
}

// layoutOf converts a date pattern such as "d-m-Y H:i:s" to a time layout.
// A backslash escapes the next character. Characters without a meaning
// are copied.
func layoutOf(pattern string) string {
	var b strings.Builder
	escaped := false
	for _, r := range pattern {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		if l, ok := datePatternLayouts[r]; ok {
			b.WriteString(l)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// numberFormat is a parsed number pattern such as "#,##0.00".
type numberFormat struct {
	places    int
	decimal   string
	thousands string
}

// parseNumberFormat reads a pattern such as "#,##0.00". The separator before
// the trailing run of '#' and '0' characters is the decimal separator when a
// different separator appears earlier, or when it is the only separator and
// the run is not three digits long. Otherwise it groups thousands, as in
// "#,###", and there are no decimal places.
func parseNumberFormat(pattern string) numberFormat {
	runes := []rune(pattern)
	end := len(runes)
	i := end
	for i > 0 && isDigitMark(runes[i-1]) {
		i--
	}
	if i == 0 {
		// Digits only: no decimal part.
		return numberFormat{}
	}
	last := string(runes[i-1])
	var earlier string
	for _, r := range runes[:i-1] {
		if !isDigitMark(r) {
			earlier = string(r)
			break
		}
	}
	run := end - i
	switch {
	case earlier != "" && earlier != last:
		return numberFormat{places: run, decimal: last, thousands: earlier}
	case earlier == "" && run != 3:
		return numberFormat{places: run, decimal: last}
	}
	return numberFormat{thousands: last}
}

func isDigitMark(r rune) bool {
	return r == '#' || r == '0'
}

// format renders f with the pattern's decimal places and separators.
func (nf numberFormat) format(f float64) string {
	s := decimal.NewFromFloat(f).StringFixed(int32(nf.places))
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	integer, fraction, _ := strings.Cut(s, ".")
	if nf.thousands != "" {
		var b strings.Builder
		for i, r := range integer {
			if i > 0 && (len(integer)-i)%3 == 0 {
				b.WriteString(nf.thousands)
			}
			b.WriteRune(r)
		}
		integer = b.String()
	}
	if fraction == "" {
		return sign + integer
	}
	return sign + integer + nf.decimal + fraction
}

// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package resolve

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/canonical/sqlstmt/internal/keyword"
)

// isList reports whether v is a slice or array of values. Byte slices are
// single values.
func isList(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.([]byte); ok {
		return false
	}
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// elements returns the elements of a list value.
func elements(v any) []any {
	rv := reflect.ValueOf(v)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// isEmpty reports whether v counts as empty for onEmpty and onNotEmpty:
// nil, the empty string and empty lists are empty.
func isEmpty(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	}
	if isList(v) {
		return reflect.ValueOf(v).Len() == 0
	}
	return false
}

// splitList splits a comma joined string into its trimmed elements.
func splitList(s string) []any {
	parts := strings.Split(s, ",")
	out := make([]any, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

// coerce converts v to the data type t. format is the date or number
// pattern of the param.
func coerce(v any, t keyword.DataType, format string) (any, error) {
	if v == nil {
		return nil, nil
	}
	if isList(v) {
		elems := elements(v)
		for i, e := range elems {
			c, err := coerce(e, t, format)
			if err != nil {
				return nil, err
			}
			elems[i] = c
		}
		return elems, nil
	}
	switch t {
	case keyword.String, keyword.Expression:
		return cast.ToStringE(v)
	case keyword.Int:
		return cast.ToIntE(v)
	case keyword.Bool:
		return cast.ToBoolE(v)
	case keyword.NullType:
		return nil, nil
	case keyword.Date:
		return coerceTime(v, format, DefaultDateFormat, dateLayout)
	case keyword.DateTime:
		return coerceTime(v, format, DefaultDateTimeFormat, dateTimeLayout)
	case keyword.Numeric:
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, err
		}
		if format == "" {
			return f, nil
		}
		return parseNumberFormat(format).format(f), nil
	}
	return v, nil
}

// coerceTime parses v with the pattern, falling back to the common date
// formats, and renders it with layout.
func coerceTime(v any, pattern, defaultPattern, layout string) (any, error) {
	if pattern == "" {
		pattern = defaultPattern
	}
	var t time.Time
	switch v := v.(type) {
	case time.Time:
		t = v
	case string:
		var err error
		t, err = time.Parse(layoutOf(pattern), strings.TrimSpace(v))
		if err != nil {
			if t, err = cast.ToTimeE(v); err != nil {
				return nil, fmt.Errorf("cannot parse %q with pattern %q", v, pattern)
			}
		}
	default:
		var err error
		if t, err = cast.ToTimeE(v); err != nil {
			return nil, err
		}
	}
	return t.Format(layout), nil
}

// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package typeinfo

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
)

var cacheMutex sync.RWMutex
var cache = make(map[reflect.Type]*Info)

// GetTypeInfo will return the Info of a given struct type, generating and
// caching as required.
func GetTypeInfo(value any) (*Info, error) {
	if value == (any)(nil) {
		return nil, fmt.Errorf("cannot reflect nil value")
	}

	v := reflect.Indirect(reflect.ValueOf(value))
	if !v.IsValid() {
		return nil, fmt.Errorf("cannot reflect nil pointer")
	}

	cacheMutex.RLock()
	info, found := cache[v.Type()]
	cacheMutex.RUnlock()
	if found {
		return info, nil
	}

	info, err := generate(v.Type())
	if err != nil {
		return nil, err
	}

	cacheMutex.Lock()
	cache[v.Type()] = info
	cacheMutex.Unlock()

	return info, nil
}

// generate produces the reflection information for a struct type. Fields
// of embedded structs without a tag of their own are promoted.
func generate(typ reflect.Type) (*Info, error) {
	// Reflection information is only generated for structs.
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("can only reflect struct type, got %s", typ.Kind())
	}

	info := Info{
		TagToField: make(map[string]Field),
		Type:       typ,
	}
	if err := addFields(&info, typ, nil); err != nil {
		return nil, err
	}
	return &info, nil
}

func addFields(info *Info, typ reflect.Type, index []int) error {
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag := field.Tag.Get("db")
		fieldIndex := append(append([]int{}, index...), i)
		if tag == "" {
			if field.Anonymous && field.Type.Kind() == reflect.Struct {
				if err := addFields(info, field.Type, fieldIndex); err != nil {
					return err
				}
			}
			// Fields without a "db" tag are not parameters.
			continue
		}
		if !field.IsExported() {
			return fmt.Errorf("field %q with db tag is not exported", field.Name)
		}
		name, omitEmpty, err := parseTag(tag)
		if err != nil {
			return fmt.Errorf("cannot parse tag for field %s.%s: %s", typ.Name(), field.Name, err)
		}
		if _, ok := info.TagToField[name]; ok {
			return fmt.Errorf("db tag %q appears in more than one field", name)
		}
		info.Tags = append(info.Tags, name)
		info.TagToField[name] = Field{
			Name:      field.Name,
			Index:     fieldIndex,
			OmitEmpty: omitEmpty,
			Type:      field.Type,
		}
	}
	return nil
}

var validColNameRx = regexp.MustCompile(`^([a-zA-Z_])+([a-zA-Z_0-9])*$`)

// parseTag parses the input tag string and returns its
// name and whether it contains the "omitempty" option.
func parseTag(tag string) (string, bool, error) {
	options := strings.Split(tag, ",")

	var omitEmpty bool
	// Refuse to parse if there are more than 2 items.
	if len(options) > 2 {
		return "", false, fmt.Errorf("too many options in 'db' tag")
	}
	if len(options) == 2 {
		if strings.ToLower(options[1]) != "omitempty" {
			return "", false, fmt.Errorf("unexpected tag value %q", options[1])
		}
		omitEmpty = true
	}

	name := options[0]
	if len(name) == 0 {
		return "", false, fmt.Errorf("empty db tag")
	}

	if !validColNameRx.MatchString(name) {
		return "", false, fmt.Errorf("invalid column name in 'db' tag")
	}

	return name, omitEmpty, nil
}

// Values returns the values of the tagged fields of a struct, or of a
// map with string keys, keyed by tag name. Fields tagged omitempty are left
// out when they hold their zero value.
func Values(value any) (values map[string]any, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("cannot get values of %T: %s", value, err)
		}
	}()

	v := reflect.Indirect(reflect.ValueOf(value))
	if !v.IsValid() {
		return nil, fmt.Errorf("nil value")
	}
	if v.Kind() == reflect.Map {
		if v.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("map keys must be strings")
		}
		values = make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			values[iter.Key().String()] = iter.Value().Interface()
		}
		return values, nil
	}

	info, err := GetTypeInfo(value)
	if err != nil {
		return nil, err
	}
	values = make(map[string]any, len(info.Tags))
	for _, tag := range info.Tags {
		field := info.TagToField[tag]
		fv := v.FieldByIndex(field.Index)
		if field.OmitEmpty && fv.IsZero() {
			continue
		}
		values[tag] = fv.Interface()
	}
	return values, nil
}

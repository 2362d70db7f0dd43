// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package descriptor

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/canonical/sqlstmt/internal/sqlerr"
)

// Load decodes a statement descriptor from YAML. The document is a mapping
// whose "kind" key names the statement: select, insert, update, delete,
// execute or union. The other keys are the fields of that statement type.
// The descriptor is validated before it is returned.
func Load(data []byte) (st Statement, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("cannot load descriptor: %w", err)
		}
	}()

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, sqlerr.New(sqlerr.ErrConfiguration, "", "%s", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, sqlerr.New(sqlerr.ErrConfiguration, "", "expected a mapping")
	}
	body := doc.Content[0]

	kind := ""
	var content []*yaml.Node
	for i := 0; i+1 < len(body.Content); i += 2 {
		if body.Content[i].Value == "kind" {
			kind = body.Content[i+1].Value
			continue
		}
		content = append(content, body.Content[i], body.Content[i+1])
	}
	body.Content = content

	switch strings.ToLower(kind) {
	case "select":
		st = &Select{}
	case "insert":
		st = &Insert{}
	case "update":
		st = &Update{}
	case "delete":
		st = &Delete{}
	case "execute":
		st = &Execute{}
	case "union":
		st = &Union{}
	case "":
		return nil, sqlerr.New(sqlerr.ErrConfiguration, "kind", "missing")
	default:
		return nil, sqlerr.New(sqlerr.ErrConfiguration, "kind", "unknown statement kind %q", kind)
	}
	if err := body.Decode(st); err != nil {
		return nil, sqlerr.New(sqlerr.ErrConfiguration, kind, "%s", err)
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}
	return st, nil
}

// LoadFile reads and decodes the descriptor in the named file.
func LoadFile(path string) (Statement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot load descriptor: %w", err)
	}
	return Load(data)
}

// Kind returns the name of the statement kind of st as used by Load.
func Kind(st Statement) string {
	switch st.(type) {
	case *Select:
		return "select"
	case *Insert:
		return "insert"
	case *Update:
		return "update"
	case *Delete:
		return "delete"
	case *Execute:
		return "execute"
	case *Union:
		return "union"
	}
	return ""
}

// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package descriptor

import (
	"fmt"
	"strings"

	"github.com/canonical/sqlstmt/internal/keyword"
	"github.com/canonical/sqlstmt/internal/sqlerr"
)

func configError(name string, format string, args ...any) error {
	return sqlerr.New(sqlerr.ErrConfiguration, name, format, args...)
}

// Validate checks the table, columns and joins of the SELECT.
func (s *Select) Validate() error {
	if err := s.Table.validate(); err != nil {
		return err
	}
	for i := range s.Columns {
		if err := s.Columns[i].validate(false); err != nil {
			return err
		}
	}
	for i := range s.Joins {
		if err := s.Joins[i].validate(); err != nil {
			return err
		}
	}
	if s.Limit != nil && *s.Limit < 0 {
		return configError("limit", "cannot be negative")
	}
	if s.Offset != nil && *s.Offset < 0 {
		return configError("offset", "cannot be negative")
	}
	return nil
}

// Validate checks the target table and the source of the inserted values.
func (s *Insert) Validate() error {
	if err := s.Table.validate(); err != nil {
		return err
	}
	if s.Table.Subquery != nil {
		return configError(s.Table.Name, "cannot insert into a subquery")
	}
	params := 0
	for i := range s.Columns {
		if err := s.Columns[i].validate(false); err != nil {
			return err
		}
		params += len(s.Columns[i].Params)
	}
	if s.Select != nil {
		return s.Select.Validate()
	}
	if params == 0 {
		return configError(s.Table.Name, "insert needs params or a select source")
	}
	return nil
}

// Validate checks the target table and columns.
func (s *Update) Validate() error {
	return validateTarget(s.Table, s.Columns)
}

// Validate checks the target table and columns.
func (s *Delete) Validate() error {
	return validateTarget(s.Table, s.Columns)
}

func validateTarget(t Table, columns []Column) error {
	if err := t.validate(); err != nil {
		return err
	}
	if t.Subquery != nil {
		return configError(t.Name, "target cannot be a subquery")
	}
	for i := range columns {
		if err := columns[i].validate(false); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the procedure name, keyword and arguments.
func (s *Execute) Validate() error {
	if strings.TrimSpace(s.Procedure) == "" {
		return configError("", "procedure has no name")
	}
	if s.Keyword != "" {
		switch keyword.For(s.Keyword) {
		case keyword.Exec, keyword.Execute, keyword.Call:
		default:
			return configError(s.Procedure, "unknown execute keyword %q", s.Keyword)
		}
	}
	for i := range s.Arguments {
		if err := s.Arguments[i].validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks every member SELECT.
func (s *Union) Validate() error {
	if len(s.Selects) == 0 {
		return configError("", "union has no select statements")
	}
	for i, sel := range s.Selects {
		if sel == nil {
			return configError(fmt.Sprintf("select %d", i), "missing")
		}
		if err := sel.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (t Table) validate() error {
	if t.Subquery != nil {
		if t.Alias == "" {
			return configError("", "subquery table needs an alias")
		}
		return t.Subquery.validate()
	}
	if strings.TrimSpace(t.Name) == "" {
		return configError("", "table has no name")
	}
	return nil
}

func (s *Subquery) validate() error {
	if s.Select == nil {
		return configError("", "subquery has no select statement")
	}
	return s.Select.Validate()
}

func (c *Column) validate(join bool) error {
	if c.Name == "" && c.Subquery == nil && c.Template == "" &&
		(c.Function == nil || !c.Function.ExcludeColName) {
		return configError("", "column has no name")
	}
	if c.Subquery != nil {
		if err := c.Subquery.validate(); err != nil {
			return err
		}
	}
	if c.Function != nil && strings.TrimSpace(c.Function.Name) == "" {
		return configError(c.Name, "function has no name")
	}
	if c.Order != nil && !keyword.IsDirection(c.Order.Direction) {
		return configError(c.Name, "invalid order direction %q", c.Order.Direction)
	}
	if !join && (len(c.JoinParams) > 0 || len(c.JoinConditions) > 0) {
		return configError(c.Name, "join params and conditions are only allowed on join columns")
	}
	for _, ps := range [][]Param{c.Params, c.JoinParams} {
		for i := range ps {
			if err := ps[i].validate(); err != nil {
				return err
			}
		}
	}
	for _, cs := range [][]Condition{c.Conditions, c.JoinConditions} {
		for i := range cs {
			if err := cs[i].validate(c.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

func (j *Join) validate() error {
	if keyword.Join(j.Type) == keyword.None {
		return configError(j.Table.Name, "unknown join type %q", j.Type)
	}
	if err := j.Table.validate(); err != nil {
		return err
	}
	for i := range j.Columns {
		if err := j.Columns[i].validate(true); err != nil {
			return err
		}
	}
	return nil
}

func (p *Param) validate() error {
	if strings.TrimSpace(strings.TrimPrefix(p.Name, ":")) == "" {
		return configError("", "param has no name")
	}
	if _, ok := keyword.DataTypeOf(p.Type); !ok {
		return configError(p.Name, "unknown data type %q", p.Type)
	}
	if p.OnEmpty && p.OnNotEmpty {
		return configError(p.Name, "onEmpty and onNotEmpty are mutually exclusive")
	}
	if p.Subquery != nil {
		return p.Subquery.validate()
	}
	return nil
}

func (c *Condition) validate(column string) error {
	if _, ok := keyword.DataTypeOf(c.Type); !ok {
		return configError(column, "unknown data type %q", c.Type)
	}
	if c.Subquery != nil {
		return c.Subquery.validate()
	}
	return nil
}

// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package descriptor defines the statement descriptors from which SQL
// statements are generated. A descriptor is plain data: it is built by hand
// or loaded from YAML with Load, and is never modified by the statement
// builders that read it.
package descriptor

// Statement is one of *Select, *Insert, *Update, *Delete, *Execute or
// *Union.
type Statement interface {
	// Validate checks the descriptor for configuration errors.
	Validate() error

	// statement is a marker method.
	statement()
}

// Table is the table a statement or join reads from. When Subquery is set
// the table is the derived table produced by it and Name is ignored.
type Table struct {
	Name     string    `yaml:"name"`
	Alias    string    `yaml:"alias,omitempty"`
	Subquery *Subquery `yaml:"subquery,omitempty"`
}

// Subquery is a nested SELECT. Args holds values preset on the nested
// statement before any value of the enclosing statement is applied.
type Subquery struct {
	Select *Select         `yaml:"select"`
	Args   map[string]any `yaml:"args,omitempty"`
}

// Function wraps a column in an SQL function. The column expression is
// passed as the first argument unless ExcludeColName is set.
type Function struct {
	Name           string   `yaml:"name"`
	Args           []string `yaml:"args,omitempty"`
	ExcludeColName bool     `yaml:"excludeColName,omitempty"`
}

// Order places a column in the ORDER BY clause. Position is a priority:
// lower positions sort first.
type Order struct {
	Position  int    `yaml:"position"`
	Direction string `yaml:"direction,omitempty"`
}

// Column describes a column of a statement together with the parameters
// and conditions filtering on it.
type Column struct {
	Name string `yaml:"name"`
	// Alias is written as "AS alias" in the select list.
	Alias string `yaml:"alias,omitempty"`
	// Literal columns are not qualified with the table alias.
	Literal bool `yaml:"literal,omitempty"`
	// Template replaces the column expression. The tokens :alias and
	// :colname stand for the table alias and the qualified column name.
	Template string    `yaml:"template,omitempty"`
	Function *Function `yaml:"function,omitempty"`
	Subquery *Subquery `yaml:"subquery,omitempty"`
	// Hidden columns are left out of the select list.
	Hidden bool   `yaml:"hidden,omitempty"`
	Group  bool   `yaml:"group,omitempty"`
	Order  *Order `yaml:"order,omitempty"`

	Params     []Param     `yaml:"params,omitempty"`
	Conditions []Condition `yaml:"conditions,omitempty"`

	// JoinParams and JoinConditions go into the ON clause of the join the
	// column belongs to. They are only valid on join columns.
	JoinParams     []Param     `yaml:"joinParams,omitempty"`
	JoinConditions []Condition `yaml:"joinConditions,omitempty"`
}

// Param is a predicate or value bound to a named placeholder.
type Param struct {
	// Name is the placeholder name, with or without the leading colon.
	Name string `yaml:"name"`
	// Operator defaults to equals.
	Operator string `yaml:"operator,omitempty"`
	Required bool   `yaml:"required,omitempty"`
	Nullable bool   `yaml:"nullable,omitempty"`
	Default  any    `yaml:"default,omitempty"`
	// Type is the data type the value is coerced to. Values of a param
	// without a type are bound as given.
	Type string `yaml:"type,omitempty"`
	// Format is a date pattern such as "d-m-Y" for date types, or a
	// number pattern such as "#,##0.00" for numeric types.
	Format string `yaml:"format,omitempty"`
	// Combined places the param in an OR group. Zero is no group.
	Combined int  `yaml:"combined,omitempty"`
	Having   bool `yaml:"having,omitempty"`
	// Template replaces the operator. The tokens :colname and :param stand
	// for the column and the value.
	Template string    `yaml:"template,omitempty"`
	Subquery *Subquery `yaml:"subquery,omitempty"`
	// Inline params write their value into the SQL text instead of binding
	// it.
	Inline     bool `yaml:"inline,omitempty"`
	OnEmpty    bool `yaml:"onEmpty,omitempty"`
	OnNotEmpty bool `yaml:"onNotEmpty,omitempty"`
	// Filter marks an equality param of an UPDATE as a WHERE predicate
	// rather than an assignment.
	Filter bool `yaml:"filter,omitempty"`
	// Field names the value when the param is not attached to a column, as
	// for named procedure arguments.
	Field         string `yaml:"field,omitempty"`
	UseColumnName bool   `yaml:"useColumnName,omitempty"`
}

// Condition is a predicate with fixed arguments.
type Condition struct {
	Operator string   `yaml:"operator,omitempty"`
	Args     []string `yaml:"args,omitempty"`
	// Type defaults to expression: arguments are raw SQL.
	Type          string    `yaml:"type,omitempty"`
	Combined      int       `yaml:"combined,omitempty"`
	Having        bool      `yaml:"having,omitempty"`
	Template      string    `yaml:"template,omitempty"`
	Subquery      *Subquery `yaml:"subquery,omitempty"`
	UseColumnName bool      `yaml:"useColumnName,omitempty"`
}

// Join adds a table to a SELECT. Type is inner, left, right, full, cross
// or one of the outer variants.
type Join struct {
	Type    string   `yaml:"type,omitempty"`
	Table   Table    `yaml:"table"`
	Columns []Column `yaml:"columns,omitempty"`
}

// Select describes a SELECT statement.
type Select struct {
	Table   Table    `yaml:"table"`
	Columns []Column `yaml:"columns,omitempty"`
	Joins   []Join   `yaml:"joins,omitempty"`
	// Modifiers follow the SELECT keyword, such as DISTINCT.
	Modifiers []string `yaml:"modifiers,omitempty"`
	// Trailing modifiers end the statement, such as FOR UPDATE.
	Trailing []string          `yaml:"trailing,omitempty"`
	Limit    *int              `yaml:"limit,omitempty"`
	Offset   *int              `yaml:"offset,omitempty"`
	Metadata map[string]string `yaml:"metadata,omitempty"`
}

// Insert describes an INSERT statement. Values come from the params of
// Columns, or from Select when set.
type Insert struct {
	Table    Table             `yaml:"table"`
	Columns  []Column          `yaml:"columns,omitempty"`
	Select   *Select           `yaml:"select,omitempty"`
	Metadata map[string]string `yaml:"metadata,omitempty"`
}

// Update describes an UPDATE statement.
type Update struct {
	Table    Table             `yaml:"table"`
	Columns  []Column          `yaml:"columns,omitempty"`
	Metadata map[string]string `yaml:"metadata,omitempty"`
}

// Delete describes a DELETE statement.
type Delete struct {
	Table    Table             `yaml:"table"`
	Columns  []Column          `yaml:"columns,omitempty"`
	Metadata map[string]string `yaml:"metadata,omitempty"`
}

// Execute describes a stored procedure call.
type Execute struct {
	Procedure string `yaml:"procedure"`
	// Keyword is EXEC, EXECUTE or CALL. It defaults to EXEC.
	Keyword string `yaml:"keyword,omitempty"`
	// NamedArguments writes arguments as "name = :placeholder".
	NamedArguments bool              `yaml:"namedArguments,omitempty"`
	Arguments      []Param           `yaml:"arguments,omitempty"`
	Metadata       map[string]string `yaml:"metadata,omitempty"`
}

// Union combines SELECT statements.
type Union struct {
	Selects  []*Select         `yaml:"selects"`
	All      bool              `yaml:"all,omitempty"`
	Metadata map[string]string `yaml:"metadata,omitempty"`
}

func (*Select) statement()  {}
func (*Insert) statement()  {}
func (*Update) statement()  {}
func (*Delete) statement()  {}
func (*Execute) statement() {}
func (*Union) statement()   {}

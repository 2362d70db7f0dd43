// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package keyword

// DataType classifies parameter values for coercion and literal quoting.
type DataType int

const (
	String DataType = iota
	Bool
	NullType
	Int
	Date
	DateTime
	Numeric
	Expression
)

var dataTypeNames = map[DataType]string{
	String:     "string",
	Bool:       "bool",
	NullType:   "null",
	Int:        "int",
	Date:       "date",
	DateTime:   "datetime",
	Numeric:    "numeric",
	Expression: "expression",
}

func (t DataType) String() string {
	if n, ok := dataTypeNames[t]; ok {
		return n
	}
	return "unknown"
}

// Unquoted reports whether values of this type are written into SQL text
// without surrounding quotes.
func (t DataType) Unquoted() bool {
	switch t {
	case Bool, NullType, Numeric, Int, Expression:
		return true
	}
	return false
}

var dataTypes = map[string]DataType{
	"":           String,
	"STRING":     String,
	"STR":        String,
	"TEXT":       String,
	"CHAR":       String,
	"VARCHAR":    String,
	"BOOL":       Bool,
	"BOOLEAN":    Bool,
	"NULL":       NullType,
	"INT":        Int,
	"INTEGER":    Int,
	"BIGINT":     Int,
	"SMALLINT":   Int,
	"TINYINT":    Int,
	"DATE":       Date,
	"DATETIME":   DateTime,
	"DATE TIME":  DateTime,
	"TIMESTAMP":  DateTime,
	"NUMERIC":    Numeric,
	"NUMBER":     Numeric,
	"DECIMAL":    Numeric,
	"FLOAT":      Numeric,
	"DOUBLE":     Numeric,
	"REAL":       Numeric,
	"EXPRESSION": Expression,
	"EXPR":       Expression,
	"RAW":        Expression,
}

// DataTypeOf returns the data type named by name. The empty name is a
// string. The second result is false when the name is not recognised.
func DataTypeOf(name string) (DataType, bool) {
	t, ok := dataTypes[normalise(splitCamel(name))]
	return t, ok
}

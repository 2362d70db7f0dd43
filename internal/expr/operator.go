// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package expr

import (
	"strings"
)

// Operator identifies an SQL operator or function family understood by the
// Factory.
type Operator int

const (
	OpEquals Operator = iota
	OpNotEquals
	OpLessThan
	OpLessThanOrEquals
	OpGreaterThan
	OpGreaterThanOrEquals
	OpLike
	OpNotLike
	OpBetween
	OpNotBetween
	OpIn
	OpNotIn
	OpIsNull
	OpIsNotNull
	OpNot
	OpExists
	OpNotExists
	OpAny
	OpAll
	OpSome
	OpCount
	OpCountDistinct
	OpSum
	OpAvg
	OpMin
	OpMax
	OpConcat
	OpLower
	OpUpper
	OpTrim
	OpLength
	OpSubstring
	OpCoalesce
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	// OpFunction is any other function, rendered as NAME(args...).
	OpFunction
)

var operatorNames = [...]string{
	OpEquals:              "equals",
	OpNotEquals:           "notEquals",
	OpLessThan:            "lessThan",
	OpLessThanOrEquals:    "lessThanOrEquals",
	OpGreaterThan:         "greaterThan",
	OpGreaterThanOrEquals: "greaterThanOrEquals",
	OpLike:                "like",
	OpNotLike:             "notLike",
	OpBetween:             "between",
	OpNotBetween:          "notBetween",
	OpIn:                  "in",
	OpNotIn:               "notIn",
	OpIsNull:              "isNull",
	OpIsNotNull:           "isNotNull",
	OpNot:                 "not",
	OpExists:              "exists",
	OpNotExists:           "notExists",
	OpAny:                 "any",
	OpAll:                 "all",
	OpSome:                "some",
	OpCount:               "count",
	OpCountDistinct:       "countDistinct",
	OpSum:                 "sum",
	OpAvg:                 "avg",
	OpMin:                 "min",
	OpMax:                 "max",
	OpConcat:              "concat",
	OpLower:               "lower",
	OpUpper:               "upper",
	OpTrim:                "trim",
	OpLength:              "length",
	OpSubstring:           "substring",
	OpCoalesce:            "coalesce",
	OpAdd:                 "add",
	OpSubtract:            "subtract",
	OpMultiply:            "multiply",
	OpDivide:              "divide",
	OpModulo:              "modulo",
	OpFunction:            "function",
}

func (op Operator) String() string {
	if op >= 0 && int(op) < len(operatorNames) {
		return operatorNames[op]
	}
	return "unknown"
}

// operatorAliases maps folded operator spellings to operators. Keys are
// lower case with underscores and spaces removed.
var operatorAliases = map[string]Operator{
	"": OpEquals, "equals": OpEquals, "equal": OpEquals, "eq": OpEquals, "=": OpEquals, "==": OpEquals,
	"notequals": OpNotEquals, "notequal": OpNotEquals, "ne": OpNotEquals, "neq": OpNotEquals, "<>": OpNotEquals, "!=": OpNotEquals,
	"lessthan": OpLessThan, "lt": OpLessThan, "<": OpLessThan,
	"lessthanorequals": OpLessThanOrEquals, "lessthanorequal": OpLessThanOrEquals, "lte": OpLessThanOrEquals, "le": OpLessThanOrEquals, "<=": OpLessThanOrEquals,
	"greaterthan": OpGreaterThan, "gt": OpGreaterThan, ">": OpGreaterThan,
	"greaterthanorequals": OpGreaterThanOrEquals, "greaterthanorequal": OpGreaterThanOrEquals, "gte": OpGreaterThanOrEquals, "ge": OpGreaterThanOrEquals, ">=": OpGreaterThanOrEquals,
	"like": OpLike, "notlike": OpNotLike,
	"between": OpBetween, "notbetween": OpNotBetween,
	"in": OpIn, "notin": OpNotIn,
	"isnull": OpIsNull, "isnotnull": OpIsNotNull,
	"not": OpNot, "exists": OpExists, "notexists": OpNotExists,
	"any": OpAny, "all": OpAll, "some": OpSome,
	"count": OpCount, "countdistinct": OpCountDistinct,
	"sum": OpSum, "avg": OpAvg, "average": OpAvg, "min": OpMin, "max": OpMax,
	"concat": OpConcat, "lower": OpLower, "upper": OpUpper, "trim": OpTrim,
	"length": OpLength, "len": OpLength, "substring": OpSubstring, "substr": OpSubstring,
	"coalesce": OpCoalesce,
	"add": OpAdd, "plus": OpAdd, "+": OpAdd,
	"subtract": OpSubtract, "minus": OpSubtract, "-": OpSubtract,
	"multiply": OpMultiply, "times": OpMultiply, "*": OpMultiply,
	"divide": OpDivide, "/": OpDivide,
	"modulo": OpModulo, "mod": OpModulo, "%": OpModulo,
}

// ParseOperator returns the operator named by name. Matching ignores case,
// underscores and spaces. The empty name is OpEquals. Names that are not
// recognised are OpFunction; the Factory renders them as a call to a
// function of that name.
func ParseOperator(name string) Operator {
	folded := strings.ToLower(name)
	folded = strings.ReplaceAll(folded, "_", "")
	folded = strings.ReplaceAll(folded, " ", "")
	if op, ok := operatorAliases[folded]; ok {
		return op
	}
	return OpFunction
}

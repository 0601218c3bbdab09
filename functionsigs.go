package pgxlate

import "strings"

// FunctionSignature defines the return type and nullability for a SQL function
// ReturnType: host type name of the result, empty when it follows the arguments
// Nullable: whether the function can return NULL at all
// NullableByArg: a NULL argument forces a NULL result (every argument)
// ArgNullability: per-argument override of NullableByArg
type FunctionSignature struct {
	ReturnType     string
	Nullable       bool
	NullableByArg  bool
	ArgNullability []bool
}

// Propagation returns, for each of argCount arguments, whether a NULL in that
// argument forces the result to NULL.
func (s FunctionSignature) Propagation(argCount int) []bool {
	result := make([]bool, argCount)
	for i := range result {
		if i < len(s.ArgNullability) {
			result[i] = s.ArgNullability[i]
		} else {
			result[i] = s.NullableByArg
		}
	}

	return result
}

// FunctionSignatures maps Dialect to function name to signature
var FunctionSignatures = map[Dialect]map[string]FunctionSignature{
	DialectPostgres: {
		"now":                {ReturnType: "datetimeoffset", Nullable: false},
		"cardinality":        {ReturnType: "int", Nullable: true, NullableByArg: true},
		"char_length":        {ReturnType: "int", Nullable: true, NullableByArg: true},
		"array_position":     {ReturnType: "int", Nullable: true, ArgNullability: []bool{false, false}},
		"date_part":          {ReturnType: "double", Nullable: true, NullableByArg: true},
		"date_trunc":         {Nullable: true, NullableByArg: true},
		"floor":              {ReturnType: "double", Nullable: true, NullableByArg: true},
		"jsonb_array_length": {ReturnType: "int", Nullable: true, NullableByArg: true},
		"json_array_length":  {ReturnType: "int", Nullable: true, NullableByArg: true},
	},
	DialectMySQL: {
		"now":         {ReturnType: "datetime", Nullable: false},
		"floor":       {ReturnType: "double", Nullable: true, NullableByArg: true},
		"json_length": {ReturnType: "int", Nullable: true, NullableByArg: true},
	},
	DialectSQLite: {
		"floor": {ReturnType: "double", Nullable: true, NullableByArg: true},
	},
}

// LookupFunction returns the signature registered for a function name.
// Names are matched case-insensitively.
func LookupFunction(dialect Dialect, name string) (FunctionSignature, bool) {
	sigs, ok := FunctionSignatures[dialect]
	if !ok {
		return FunctionSignature{}, false
	}

	sig, ok := sigs[strings.ToLower(name)]

	return sig, ok
}

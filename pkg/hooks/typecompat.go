package hooks

import (
	"strings"

	"github.com/publicrust/rust-analyzer-sub000/pkg/plugin"
)

// primitiveAliases maps C# keyword aliases to their CLR type names so that
// int and Int32 compare equal in either position.
var primitiveAliases = map[string]string{
	"bool":    "Boolean",
	"byte":    "Byte",
	"sbyte":   "SByte",
	"char":    "Char",
	"decimal": "Decimal",
	"double":  "Double",
	"float":   "Single",
	"int":     "Int32",
	"uint":    "UInt32",
	"long":    "Int64",
	"ulong":   "UInt64",
	"object":  "Object",
	"short":   "Int16",
	"ushort":  "UInt16",
	"string":  "String",
}

// NormalizeTypeName strips one trailing nullability marker and maps keyword
// aliases to CLR names. Comparison of normalized names is exact.
func NormalizeTypeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimSuffix(name, "?")
	if mapped, ok := primitiveAliases[name]; ok {
		return mapped
	}
	return name
}

// Compatible reports whether a parameter declared as actualName satisfies a
// catalog parameter of type expectedName. Checks run in order: normalized
// name equality, the actual type's base chain containing the expected name,
// then the expected type's base chain containing the actual name. The
// reverse walk accepts a declared parameter that is a base of the expected
// type. A name that resolves nowhere fails closed; the function never errors.
func Compatible(model *plugin.Model, actualName, expectedName string) bool {
	actual := NormalizeTypeName(actualName)
	expected := NormalizeTypeName(expectedName)
	if actual == "" || expected == "" {
		return false
	}
	if actual == expected {
		return true
	}
	if model == nil {
		return false
	}

	if _, ok := model.ResolveType(actual); ok {
		for _, base := range model.BaseChain(actual) {
			if NormalizeTypeName(base) == expected {
				return true
			}
		}
	}

	if _, ok := model.ResolveType(expected); ok {
		for _, base := range model.BaseChain(expected) {
			if NormalizeTypeName(base) == actual {
				return true
			}
		}
	}

	return false
}

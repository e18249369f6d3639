// Package convert holds the field-mapping helpers between the backend wire
// format and the client's in-memory representation.
package convert

import "github.com/iancoleman/strcase"

// KeysToCamel returns a copy of v with every map key converted to lowerCamelCase.
// Maps and slices are walked recursively, other values are returned unchanged.
func KeysToCamel(v any) any {
	return convertKeys(v, strcase.ToLowerCamel)
}

// KeysToSnake returns a copy of v with every map key converted to snake_case.
func KeysToSnake(v any) any {
	return convertKeys(v, strcase.ToSnake)
}

func convertKeys(v any, convert func(string) string) any {
	switch value := v.(type) {
	case map[string]any:
		converted := make(map[string]any, len(value))
		for key, nested := range value {
			converted[convert(key)] = convertKeys(nested, convert)
		}
		return converted
	case []any:
		converted := make([]any, len(value))
		for i, nested := range value {
			converted[i] = convertKeys(nested, convert)
		}
		return converted
	default:
		return v
	}
}

package convert

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"
)

// FrontendSettingsFromJSON decodes the frontend settings blob stored by the
// backend into a camelCase keyed map. An empty blob yields an empty map.
func FrontendSettingsFromJSON(blob string) (map[string]any, error) {
	if strings.TrimSpace(blob) == "" {
		return map[string]any{}, nil
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		return nil, fmt.Errorf("invalid frontend settings: %w", err)
	}

	camel, _ := KeysToCamel(raw).(map[string]any)
	return camel, nil
}

// FrontendSettingsToJSON encodes camelCase frontend settings into the
// snake_case blob the backend stores.
func FrontendSettingsToJSON(settings map[string]any) (string, error) {
	if settings == nil {
		settings = map[string]any{}
	}

	encoded, err := json.Marshal(KeysToSnake(settings))
	if err != nil {
		return "", fmt.Errorf("failed to encode frontend settings: %w", err)
	}
	return string(encoded), nil
}

// SettingsUpdate converts a camelCase settings change set into the snake_case
// map sent to the backend. Only top-level keys are renamed, values are kept.
func SettingsUpdate(changes map[string]any) map[string]any {
	update := make(map[string]any, len(changes))
	for key, value := range changes {
		update[strcase.ToSnake(key)] = value
	}
	return update
}

// ParseSettingValue interprets a textual value given on the command line.
// JSON literals (numbers, booleans, arrays, objects, quoted strings) are
// decoded, anything else is kept as a plain string.
func ParseSettingValue(text string) any {
	var decoded any
	if err := json.Unmarshal([]byte(text), &decoded); err == nil {
		return decoded
	}
	return text
}

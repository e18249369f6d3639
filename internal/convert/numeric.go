package convert

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// ParseDecimal reads a decimal from a JSON string or number.
func ParseDecimal(v any) (decimal.Decimal, error) {
	switch value := v.(type) {
	case string:
		return decimal.NewFromString(value)
	case json.Number:
		return decimal.NewFromString(value.String())
	case float64:
		return decimal.NewFromFloat(value), nil
	case int:
		return decimal.NewFromInt(int64(value)), nil
	case int64:
		return decimal.NewFromInt(value), nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported numeric value of type %T", v)
	}
}

// NormalizeNumbers rewrites every value stored under one of keys as a
// canonical decimal string, at any depth of the document. Objects found under
// a numeric key are walked instead of converted. Null values are left alone.
func NormalizeNumbers(raw json.RawMessage, keys []string) (json.RawMessage, error) {
	if len(keys) == 0 || len(bytes.TrimSpace(raw)) == 0 {
		return raw, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var document any
	if err := decoder.Decode(&document); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}

	numeric := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		numeric[key] = struct{}{}
	}

	normalized, err := normalize(document, numeric, "")
	if err != nil {
		return nil, err
	}

	out, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return out, nil
}

func normalize(v any, numeric map[string]struct{}, path string) (any, error) {
	switch value := v.(type) {
	case map[string]any:
		for key, nested := range value {
			nestedPath := key
			if path != "" {
				nestedPath = path + "." + key
			}

			if _, ok := numeric[key]; ok {
				switch nested.(type) {
				case string, json.Number:
					parsed, err := ParseDecimal(nested)
					if err != nil {
						return nil, fmt.Errorf("invalid number at %s: %w", nestedPath, err)
					}
					value[key] = parsed.String()
					continue
				}
			}

			converted, err := normalize(nested, numeric, nestedPath)
			if err != nil {
				return nil, err
			}
			value[key] = converted
		}
		return value, nil
	case []any:
		for i, nested := range value {
			converted, err := normalize(nested, numeric, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			value[i] = converted
		}
		return value, nil
	default:
		return v, nil
	}
}

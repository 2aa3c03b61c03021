package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var noColonOffsetRe = regexp.MustCompile(`(.*)([+-]\d{2})(\d{2})$`)

// NormalizeTimestamp rewrites upstream datetime strings into a single
// canonical offset form: a trailing Z becomes +00:00 and a no-colon numeric
// offset like +0530 becomes +05:30. Anything else passes through unchanged.
func NormalizeTimestamp(value string) string {
	if strings.HasSuffix(value, "Z") {
		return strings.TrimSuffix(value, "Z") + "+00:00"
	}
	if m := noColonOffsetRe.FindStringSubmatch(value); m != nil {
		return fmt.Sprintf("%s%s:%s", m[1], m[2], m[3])
	}
	return value
}

// normalizeTimestampField rewrites the named field in place when it holds a
// non-empty string.
func normalizeTimestampField(item map[string]any, field string) {
	if s, ok := item[field].(string); ok && s != "" {
		item[field] = NormalizeTimestamp(s)
	}
}

// coerceInt converts upstream numeric strings to integers. Missing, nil, or
// empty values are zero; a non-numeric value is an error and the caller
// drops the record.
func coerceInt(value any) (int64, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		if v == "" {
			return 0, nil
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("coercing %q to integer: %w", v, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("coercing %T to integer", value)
	}
}

// coerceFloat converts upstream numeric strings to floats with the same
// empty-is-zero rule as coerceInt.
func coerceFloat(value any) (float64, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		if v == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("coercing %q to number: %w", v, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("coercing %T to number", value)
	}
}

// coerceDecimal converts money-like values without float rounding.
func coerceDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case nil:
		return decimal.Zero, nil
	case decimal.Decimal:
		return v, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case string:
		if v == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("coercing %q to decimal: %w", v, err)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("coercing %T to decimal", value)
	}
}

// optString returns a pointer to the field's string value, or nil when the
// field is absent, nil, or not a string.
func optString(item map[string]any, field string) *string {
	if s, ok := item[field].(string); ok {
		return &s
	}
	return nil
}

// optInt64 returns a pointer to the field's integer value, or nil when the
// field is absent, nil, or not numeric.
func optInt64(item map[string]any, field string) *int64 {
	value, ok := item[field]
	if !ok || value == nil {
		return nil
	}
	n, err := coerceInt(value)
	if err != nil {
		return nil
	}
	return &n
}

// optBool returns a pointer to the field's boolean value when present.
func optBool(item map[string]any, field string) *bool {
	if b, ok := item[field].(bool); ok {
		return &b
	}
	return nil
}

// optText returns the field as text for a TEXT column: strings pass through,
// structured values are serialized to JSON.
func optText(item map[string]any, field string) *string {
	value, ok := item[field]
	if !ok || value == nil {
		return nil
	}
	if s, ok := value.(string); ok {
		return &s
	}
	return optJSON(item, field)
}

// optJSON serializes a structured field to its JSON text for an opaque
// document column, or nil when the field is absent or nil.
func optJSON(item map[string]any, field string) *string {
	value, ok := item[field]
	if !ok || value == nil {
		return nil
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	s := string(encoded)
	return &s
}

// rawJSON serializes the whole record for the raw_data column.
func rawJSON(item map[string]any) string {
	encoded, err := json.Marshal(item)
	if err != nil {
		return "{}"
	}
	return string(encoded)
}

// Package schema validates raw Graph API records against declarative field
// specs before they are shaped into warehouse rows.
package schema

import (
	"fmt"
	"strings"
	"time"
)

// Field types understood by the validator. Numeric types are declared for
// documentation but carry no runtime check; only string and array shapes are
// enforced.
const (
	TypeString  = "string"
	TypeArray   = "array"
	TypeInteger = "integer"
	TypeNumber  = "number"
)

// Formats attachable to string fields.
const (
	FormatDatetime = "datetime"
	FormatDate     = "date"
)

// FieldSpec describes the expected shape of one record field.
type FieldSpec struct {
	Type     string
	Required bool
	Nullable bool
	Format   string
}

// Schema maps field names to their specs.
type Schema map[string]FieldSpec

// Report groups validation messages by failure class. An empty report means
// the record is valid.
type Report map[string][]string

const (
	groupRequired = "required"
	groupType     = "type"
	groupFormat   = "format"
)

// OK reports whether the record passed validation.
func (r Report) OK() bool {
	return len(r) == 0
}

// Summary flattens the grouped messages for logging.
func (r Report) Summary() string {
	if r.OK() {
		return ""
	}
	var parts []string
	for _, group := range []string{groupRequired, groupType, groupFormat} {
		for _, msg := range r[group] {
			parts = append(parts, msg)
		}
	}
	return strings.Join(parts, "; ")
}

// Validate checks a record against the schema without mutating it. Missing
// required fields, string/array type mismatches, and malformed datetime
// strings are reported; extra fields not in the schema are ignored.
func Validate(record map[string]any, schema Schema) Report {
	report := Report{}

	for field, spec := range schema {
		if _, ok := record[field]; !ok && spec.Required {
			report[groupRequired] = append(report[groupRequired],
				fmt.Sprintf("missing required field: %s", field))
		}
	}

	for field, value := range record {
		spec, ok := schema[field]
		if !ok {
			continue
		}
		if value == nil && spec.Nullable {
			continue
		}

		switch spec.Type {
		case TypeString:
			if isDateLike(value) {
				continue
			}
			str, isStr := value.(string)
			if !isStr {
				report[groupType] = append(report[groupType],
					fmt.Sprintf("field %q should be a string, got %T", field, value))
				continue
			}
			if spec.Format == FormatDatetime && !validDatetime(str) {
				report[groupFormat] = append(report[groupFormat],
					fmt.Sprintf("field %q should be a valid datetime", field))
			}
		case TypeArray:
			if _, isList := value.([]any); !isList {
				report[groupType] = append(report[groupType],
					fmt.Sprintf("field %q should be an array, got %T", field, value))
			}
		}
	}

	return report
}

func isDateLike(value any) bool {
	_, ok := value.(time.Time)
	return ok
}

// validDatetime accepts RFC 3339 strings, tolerating the Graph API's
// Z suffix and colon-less +0000 offsets.
func validDatetime(value string) bool {
	normalized := value
	if strings.HasSuffix(normalized, "Z") {
		normalized = strings.TrimSuffix(normalized, "Z") + "+00:00"
	}
	if len(normalized) > 5 && strings.HasSuffix(normalized, "+0000") {
		normalized = normalized[:len(normalized)-5] + "+00:00"
	}
	_, err := time.Parse(time.RFC3339, normalized)
	return err == nil
}

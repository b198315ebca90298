package dtdl

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrNotFound is returned when a DTMI is not in the catalog.
var ErrNotFound = errors.New("interface not found")

// Severity classifies validation issues.
type Severity string

// Issue severities. Errors block compatibility; warnings are recommended
// fixes; infos are suggestions.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue is one validation finding.
type Issue struct {
	Severity   Severity `json:"severity"`
	Field      string   `json:"field"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// DeviceData is the telemetry and property values of a device being
// checked against an interface.
type DeviceData struct {
	Telemetry  map[string]any `json:"telemetry"`
	Properties map[string]any `json:"properties"`
}

// ValidationResult reports how well a device fits an interface.
type ValidationResult struct {
	Compatible        bool     `json:"is_compatible"`
	Score             float64  `json:"compatibility_score"`
	DTMI              string   `json:"dtmi"`
	InterfaceName     string   `json:"interface_name"`
	Issues            []Issue  `json:"issues"`
	MatchedTelemetry  []string `json:"matched_telemetry"`
	MatchedProperties []string `json:"matched_properties"`
	MissingTelemetry  []string `json:"missing_telemetry"`
	MissingProperties []string `json:"missing_properties"`
	ExtraFields       []string `json:"extra_fields"`
}

// compatibleThreshold is the minimum score for a device to be considered
// compatible, given no error issues.
const compatibleThreshold = 60

// Validator scores device data against catalog interfaces.
type Validator struct {
	registry *Registry
}

// NewValidator creates a validator over the given catalog.
func NewValidator(registry *Registry) *Validator {
	return &Validator{registry: registry}
}

// Validate checks device data against one interface. With strict set,
// fields the interface does not define are errors instead of infos.
func (v *Validator) Validate(device DeviceData, dtmi string, strict bool) ValidationResult {
	entry, ok := v.registry.Get(dtmi)
	if !ok {
		return ValidationResult{
			DTMI:          dtmi,
			InterfaceName: "Unknown",
			Issues: []Issue{{
				Severity: SeverityError,
				Field:    "dtmi",
				Message:  fmt.Sprintf("Interface not found: %s", dtmi),
			}},
		}
	}

	result := ValidationResult{
		DTMI:          dtmi,
		InterfaceName: interfaceName(entry),
	}

	telemetryDefs := entry.Interface.ContentsOf(TelemetryContent)
	propertyDefs := entry.Interface.ContentsOf(PropertyContent)

	for _, def := range telemetryDefs {
		value, present := device.Telemetry[def.Name]
		if !present {
			result.MissingTelemetry = append(result.MissingTelemetry, def.Name)
			result.Issues = append(result.Issues, Issue{
				Severity:   SeverityWarning,
				Field:      "telemetry." + def.Name,
				Message:    fmt.Sprintf("Missing telemetry: %s", def.Name),
				Suggestion: addFieldSuggestion("telemetry", def),
			})
			continue
		}
		if issues := checkValue("telemetry", def.Name, value, def.Schema); len(issues) > 0 {
			result.Issues = append(result.Issues, issues...)
		} else {
			result.MatchedTelemetry = append(result.MatchedTelemetry, def.Name)
		}
	}

	for _, def := range propertyDefs {
		value, present := device.Properties[def.Name]
		if !present {
			// A writable property is something the device must accept,
			// so its absence blocks compatibility.
			severity := SeverityWarning
			if def.Writable {
				severity = SeverityError
			}
			result.MissingProperties = append(result.MissingProperties, def.Name)
			result.Issues = append(result.Issues, Issue{
				Severity:   severity,
				Field:      "property." + def.Name,
				Message:    fmt.Sprintf("Missing property: %s", def.Name),
				Suggestion: addFieldSuggestion("property", def),
			})
			continue
		}
		if issues := checkValue("property", def.Name, value, def.Schema); len(issues) > 0 {
			result.Issues = append(result.Issues, issues...)
		} else {
			result.MatchedProperties = append(result.MatchedProperties, def.Name)
		}
	}

	extraSeverity := SeverityInfo
	if strict {
		extraSeverity = SeverityError
	}
	for _, name := range sortedKeys(device.Telemetry) {
		if !hasContent(telemetryDefs, name) {
			result.ExtraFields = append(result.ExtraFields, "telemetry."+name)
			result.Issues = append(result.Issues, Issue{
				Severity:   extraSeverity,
				Field:      "telemetry." + name,
				Message:    fmt.Sprintf("Extra telemetry not defined in interface: %s", name),
				Suggestion: "Remove this field or extend the interface to include it",
			})
		}
	}
	for _, name := range sortedKeys(device.Properties) {
		if !hasContent(propertyDefs, name) {
			result.ExtraFields = append(result.ExtraFields, "property."+name)
			result.Issues = append(result.Issues, Issue{
				Severity:   extraSeverity,
				Field:      "property." + name,
				Message:    fmt.Sprintf("Extra property not defined in interface: %s", name),
				Suggestion: "Remove this field or extend the interface to include it",
			})
		}
	}

	errorCount := 0
	for _, issue := range result.Issues {
		if issue.Severity == SeverityError {
			errorCount++
		}
	}

	result.Score = compatibilityScore(
		len(result.MatchedTelemetry)+len(result.MatchedProperties),
		len(result.MissingTelemetry)+len(result.MissingProperties),
		len(result.ExtraFields),
		errorCount,
	)
	result.Compatible = result.Score >= compatibleThreshold && errorCount == 0
	return result
}

// compatibilityScore maps match counts to a 0-100 score: the matched
// fraction of required fields, minus 2 per extra field and 10 per error.
func compatibilityScore(matched, missing, extra, errorCount int) float64 {
	required := matched + missing

	score := 100.0
	if required > 0 {
		score = float64(matched) / float64(required) * 100
	}

	score -= float64(extra) * 2
	score -= float64(errorCount) * 10

	return math.Max(0, math.Min(100, score))
}

// checkValue validates one field value against its schema. Placeholder
// values from an unfilled form skip the check entirely.
func checkValue(fieldType, name string, value any, schema *Schema) []Issue {
	if schema == nil || isPlaceholder(value) {
		return nil
	}
	field := fieldType + "." + name

	switch schema.Kind {
	case KindPrimitive:
		expected, ok := primitiveMatches(schema.Primitive, value)
		if !ok {
			return []Issue{{
				Severity:   SeverityWarning,
				Field:      field,
				Message:    fmt.Sprintf("Type mismatch: expected %s, got %s", expected, typeName(value)),
				Suggestion: fmt.Sprintf("Convert value to %s", expected),
			}}
		}

	case KindEnum:
		for _, ev := range schema.Enum.Values {
			if looseEqual(value, ev.EnumValue) {
				return nil
			}
		}
		return []Issue{{
			Severity:   SeverityWarning,
			Field:      field,
			Message:    fmt.Sprintf("Invalid enum value: %v", value),
			Suggestion: "Use one of: " + schema.String(),
		}}

	case KindObject:
		if _, ok := value.(map[string]any); !ok {
			return []Issue{{
				Severity:   SeverityWarning,
				Field:      field,
				Message:    fmt.Sprintf("Expected object, got %s", typeName(value)),
				Suggestion: "Provide an object value",
			}}
		}

	case KindArray, KindRef:
		// Not checked: arrays carry free-form data and refs point at
		// other interfaces.
	}
	return nil
}

// isPlaceholder reports whether a value is an unfilled-form default that
// should not be type checked: nil, empty string, zero, 0.1, or false.
func isPlaceholder(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case bool:
		return !v
	case float64:
		return v == 0 || v == 0.1
	case float32:
		return v == 0 || v == 0.1
	case int:
		return v == 0
	case int64:
		return v == 0
	}
	return false
}

// primitiveMatches reports whether value is acceptable for the primitive
// type, returning the expected type name for messages. Integers are
// accepted where floats are expected, and JSON numbers (float64) with an
// integral value are accepted for integer types.
func primitiveMatches(p Primitive, value any) (expected string, ok bool) {
	switch p {
	case Boolean:
		_, ok = value.(bool)
		return "boolean", ok
	case Date, DateTime, Duration, String, Time:
		_, ok = value.(string)
		return "string", ok
	case Double, Float:
		switch value.(type) {
		case float64, float32, int, int64:
			return "float", true
		}
		return "float", false
	case Integer, Long:
		switch v := value.(type) {
		case int, int64:
			return "integer", true
		case float64:
			return "integer", v == math.Trunc(v)
		}
		return "integer", false
	}
	return string(p), true
}

// looseEqual compares an incoming value with an enum value, treating all
// numeric types as equal when their values match.
func looseEqual(a, b any) bool {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
		return false
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func typeName(value any) string {
	switch value.(type) {
	case nil:
		return "nil"
	case bool:
		return "boolean"
	case string:
		return "string"
	case int, int64:
		return "integer"
	case float32, float64:
		return "float"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	return fmt.Sprintf("%T", value)
}

func addFieldSuggestion(fieldType string, def Content) string {
	schema := "unknown"
	if def.Schema != nil {
		schema = def.Schema.String()
	}
	return fmt.Sprintf("Add %s field '%s' with schema %s", fieldType, def.Name, schema)
}

func hasContent(defs []Content, name string) bool {
	for _, d := range defs {
		if d.Name == name {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func interfaceName(entry *Entry) string {
	if entry.Interface != nil && entry.Interface.DisplayName != "" {
		return string(entry.Interface.DisplayName)
	}
	if entry.DisplayName != "" {
		return entry.DisplayName
	}
	return "Unknown"
}

package dtdl

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Primitive is a DTDL v2 primitive schema type.
type Primitive string

// DTDL v2 primitive schemas.
const (
	Boolean  Primitive = "boolean"
	Date     Primitive = "date"
	DateTime Primitive = "dateTime"
	Double   Primitive = "double"
	Duration Primitive = "duration"
	Float    Primitive = "float"
	Integer  Primitive = "integer"
	Long     Primitive = "long"
	String   Primitive = "string"
	Time     Primitive = "time"
)

func isPrimitive(s string) bool {
	switch Primitive(s) {
	case Boolean, Date, DateTime, Double, Duration, Float, Integer, Long, String, Time:
		return true
	}
	return false
}

// SchemaKind discriminates the schema union.
type SchemaKind int

const (
	// KindPrimitive is one of the DTDL primitive types.
	KindPrimitive SchemaKind = iota
	// KindEnum is an enumeration over a primitive value schema.
	KindEnum
	// KindObject is a structured object with named fields.
	KindObject
	// KindArray is a homogeneous list.
	KindArray
	// KindRef is a DTMI reference to another schema or interface,
	// as used by Component contents.
	KindRef
)

// Schema is a DTDL schema: exactly one variant is populated, selected by
// Kind.
type Schema struct {
	Kind      SchemaKind
	Primitive Primitive // KindPrimitive
	Ref       string    // KindRef
	Enum      *EnumSchema
	Object    *ObjectSchema
	Array     *ArraySchema
}

// EnumValue is one member of an enum schema.
type EnumValue struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	EnumValue   any    `json:"enumValue"`
}

// EnumSchema is a DTDL Enum.
type EnumSchema struct {
	ValueSchema Primitive   `json:"valueSchema"`
	Values      []EnumValue `json:"enumValues"`
}

// ObjectField is one field of an object schema.
type ObjectField struct {
	Name   string `json:"name"`
	Schema Schema `json:"schema"`
}

// ObjectSchema is a DTDL Object.
type ObjectSchema struct {
	Fields []ObjectField `json:"fields"`
}

// ArraySchema is a DTDL Array.
type ArraySchema struct {
	ElementSchema Schema `json:"elementSchema"`
}

// UnmarshalJSON decodes the two wire forms a schema takes: a bare string
// (primitive or DTMI reference) or an object discriminated by @type.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		if isPrimitive(name) {
			*s = Schema{Kind: KindPrimitive, Primitive: Primitive(name)}
		} else {
			*s = Schema{Kind: KindRef, Ref: name}
		}
		return nil
	}

	var head struct {
		Type string `json:"@type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("decode schema: %w", err)
	}

	switch head.Type {
	case "Enum":
		var enum EnumSchema
		if err := json.Unmarshal(data, &enum); err != nil {
			return fmt.Errorf("decode enum schema: %w", err)
		}
		*s = Schema{Kind: KindEnum, Enum: &enum}
	case "Object":
		var obj ObjectSchema
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("decode object schema: %w", err)
		}
		*s = Schema{Kind: KindObject, Object: &obj}
	case "Array":
		var arr ArraySchema
		if err := json.Unmarshal(data, &arr); err != nil {
			return fmt.Errorf("decode array schema: %w", err)
		}
		*s = Schema{Kind: KindArray, Array: &arr}
	default:
		return fmt.Errorf("decode schema: unsupported @type %q", head.Type)
	}
	return nil
}

// MarshalJSON writes the schema back in its wire form.
func (s Schema) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case KindPrimitive:
		return json.Marshal(string(s.Primitive))
	case KindRef:
		return json.Marshal(s.Ref)
	case KindEnum:
		return json.Marshal(struct {
			Type string `json:"@type"`
			*EnumSchema
		}{"Enum", s.Enum})
	case KindObject:
		return json.Marshal(struct {
			Type string `json:"@type"`
			*ObjectSchema
		}{"Object", s.Object})
	case KindArray:
		return json.Marshal(struct {
			Type string `json:"@type"`
			*ArraySchema
		}{"Array", s.Array})
	}
	return nil, fmt.Errorf("marshal schema: unknown kind %d", s.Kind)
}

// String renders the schema for issue suggestions.
func (s Schema) String() string {
	switch s.Kind {
	case KindPrimitive:
		return string(s.Primitive)
	case KindRef:
		return s.Ref
	case KindEnum:
		names := make([]string, 0, len(s.Enum.Values))
		for _, v := range s.Enum.Values {
			names = append(names, fmt.Sprint(v.EnumValue))
		}
		return "enum(" + strings.Join(names, ", ") + ")"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	}
	return "unknown"
}

// Package dtdl loads a DTDL v2 interface catalog and scores device data
// against it. The registry keeps an immutable snapshot behind an atomic
// pointer so lookups never block a reload.
package dtdl

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// ContentType discriminates interface contents.
type ContentType string

// DTDL v2 content types.
const (
	TelemetryContent ContentType = "Telemetry"
	PropertyContent  ContentType = "Property"
	CommandContent   ContentType = "Command"
	ComponentContent ContentType = "Component"
)

// localized decodes a DTDL display string, which may arrive as a plain
// string or a language-tagged map. The "en" entry wins, then any entry.
type localized string

func (l *localized) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = localized(s)
		return nil
	}

	var tagged map[string]string
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("decode display string: %w", err)
	}
	if v, ok := tagged["en"]; ok {
		*l = localized(v)
		return nil
	}
	for _, v := range tagged {
		*l = localized(v)
		return nil
	}
	return nil
}

// stringList decodes a JSON value that is either a string or a list of
// strings, as DTDL allows for @type and extends.
type stringList []string

func (sl *stringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*sl = stringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("decode string list: %w", err)
	}
	*sl = many
	return nil
}

// Content is one entry of an interface's contents array.
type Content struct {
	types       stringList
	Name        string
	DisplayName string
	Description string
	Schema      *Schema
	Unit        string
	Writable    bool
}

// UnmarshalJSON handles @type being a single string or a list (DTDL
// allows semantic co-types like ["Telemetry", "Temperature"]).
func (c *Content) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type        stringList `json:"@type"`
		Name        string     `json:"name"`
		DisplayName localized  `json:"displayName"`
		Description localized  `json:"description"`
		Schema      *Schema    `json:"schema"`
		Unit        string     `json:"unit"`
		Writable    bool       `json:"writable"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode content: %w", err)
	}
	*c = Content{
		types:       raw.Type,
		Name:        raw.Name,
		DisplayName: string(raw.DisplayName),
		Description: string(raw.Description),
		Schema:      raw.Schema,
		Unit:        raw.Unit,
		Writable:    raw.Writable,
	}
	return nil
}

// Is reports whether the content carries the given type, ignoring
// semantic co-types.
func (c *Content) Is(t ContentType) bool {
	for _, ct := range c.types {
		if ct == string(t) {
			return true
		}
	}
	return false
}

// Interface is a parsed DTDL v2 interface document.
type Interface struct {
	ID          string     `json:"@id"`
	DisplayName localized  `json:"displayName"`
	Description localized  `json:"description"`
	Extends     stringList `json:"extends"`
	Contents    []Content  `json:"contents"`
}

// ContentsOf returns the contents carrying the given type.
func (i *Interface) ContentsOf(t ContentType) []Content {
	var out []Content
	for _, c := range i.Contents {
		if c.Is(t) {
			out = append(out, c)
		}
	}
	return out
}

// Summary counts the interface's contents by type.
type Summary struct {
	TelemetryCount int `json:"telemetryCount"`
	PropertyCount  int `json:"propertyCount"`
	CommandCount   int `json:"commandCount"`
	ComponentCount int `json:"componentCount"`
	TotalContents  int `json:"totalContents"`
}

// Summarize counts contents by type.
func (i *Interface) Summarize() Summary {
	s := Summary{TotalContents: len(i.Contents)}
	for _, c := range i.Contents {
		switch {
		case c.Is(TelemetryContent):
			s.TelemetryCount++
		case c.Is(PropertyContent):
			s.PropertyCount++
		case c.Is(CommandContent):
			s.CommandCount++
		case c.Is(ComponentContent):
			s.ComponentCount++
		}
	}
	return s
}

// Entry is one catalog entry: the registry index metadata plus the parsed
// interface document.
type Entry struct {
	DTMI        string   `json:"dtmi"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	ThingType   string   `json:"thingType,omitempty"`
	Telemetry   []string `json:"telemetry,omitempty"`
	Properties  []string `json:"properties,omitempty"`

	Interface *Interface `json:"-"`
}

// dtmiPattern matches DTDL v2 identifiers: "dtmi:" followed by one or
// more colon-separated segments (letter start, letter or digit end) and a
// positive version with no leading zero.
var dtmiPattern = regexp.MustCompile(
	`^dtmi:[A-Za-z](?:[A-Za-z0-9_]*[A-Za-z0-9])?(?::[A-Za-z](?:[A-Za-z0-9_]*[A-Za-z0-9])?)*;[1-9][0-9]{0,8}$`)

// ValidateDTMI reports whether s is a well-formed DTMI.
func ValidateDTMI(s string) bool {
	return dtmiPattern.MatchString(s)
}

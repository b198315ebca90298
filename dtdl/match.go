package dtdl

import (
	"fmt"
	"sort"
	"strings"
)

// Match pairs a validation result with its combined ranking score.
type Match struct {
	Result        ValidationResult `json:"validation"`
	CombinedScore float64          `json:"combined_score"`
}

// Metadata bonus per exact thing-type or domain match when ranking.
const metadataBonus = 10

// FindBestMatch validates device data against every catalog interface
// matching the optional thing-type and domain filters and returns the
// top candidates. The combined score weighs compatibility at 0.8 and
// metadata agreement (thing type, domain membership) at 0.2; ties keep
// catalog order.
func (v *Validator) FindBestMatch(device DeviceData, thingType, domain string, topN int) []Match {
	if topN <= 0 {
		topN = 5
	}

	candidates := v.registry.Search(Filter{ThingType: thingType, Domain: domain})
	if len(candidates) == 0 {
		return nil
	}

	matches := make([]Match, 0, len(candidates))
	for _, candidate := range candidates {
		result := v.Validate(device, candidate.DTMI, false)

		metadataScore := 0.0
		if thingType != "" && candidate.ThingType == thingType {
			metadataScore += metadataBonus
		}
		if domain != "" && v.registry.InDomain(candidate.DTMI, domain) {
			metadataScore += metadataBonus
		}

		matches = append(matches, Match{
			Result:        result,
			CombinedScore: result.Score*0.8 + metadataScore*0.2,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].CombinedScore > matches[j].CombinedScore
	})

	if len(matches) > topN {
		matches = matches[:topN]
	}
	return matches
}

// FieldRequirement describes one telemetry or property field an
// interface expects.
type FieldRequirement struct {
	Name        string  `json:"name"`
	DisplayName string  `json:"displayName"`
	Schema      *Schema `json:"schema"`
	Unit        string  `json:"unit,omitempty"`
	Writable    bool    `json:"writable,omitempty"`
}

// Requirements summarizes what a device needs to implement an interface.
// All telemetry is required; writable properties are required, read-only
// ones optional.
type Requirements struct {
	DTMI               string             `json:"dtmi"`
	DisplayName        string             `json:"displayName"`
	Description        string             `json:"description,omitempty"`
	RequiredTelemetry  []FieldRequirement `json:"required_telemetry"`
	OptionalTelemetry  []FieldRequirement `json:"optional_telemetry"`
	RequiredProperties []FieldRequirement `json:"required_properties"`
	OptionalProperties []FieldRequirement `json:"optional_properties"`
	TotalRequirements  int                `json:"total_requirements"`
}

// Requirements returns the requirements summary for an interface.
func (v *Validator) Requirements(dtmi string) (*Requirements, error) {
	entry, ok := v.registry.Get(dtmi)
	if !ok {
		return nil, ErrNotFound
	}

	req := &Requirements{
		DTMI:               dtmi,
		DisplayName:        interfaceName(entry),
		Description:        string(entry.Interface.Description),
		RequiredTelemetry:  []FieldRequirement{},
		OptionalTelemetry:  []FieldRequirement{},
		RequiredProperties: []FieldRequirement{},
		OptionalProperties: []FieldRequirement{},
	}

	for _, c := range entry.Interface.ContentsOf(TelemetryContent) {
		req.RequiredTelemetry = append(req.RequiredTelemetry, fieldRequirement(c))
	}
	for _, c := range entry.Interface.ContentsOf(PropertyContent) {
		fr := fieldRequirement(c)
		if c.Writable {
			req.RequiredProperties = append(req.RequiredProperties, fr)
		} else {
			req.OptionalProperties = append(req.OptionalProperties, fr)
		}
	}

	req.TotalRequirements = len(req.RequiredTelemetry) + len(req.RequiredProperties)
	return req, nil
}

func fieldRequirement(c Content) FieldRequirement {
	displayName := c.DisplayName
	if displayName == "" {
		displayName = c.Name
	}
	return FieldRequirement{
		Name:        c.Name,
		DisplayName: displayName,
		Schema:      c.Schema,
		Unit:        c.Unit,
		Writable:    c.Writable,
	}
}

// SuggestRequest describes a device being designed, before it has data.
type SuggestRequest struct {
	ThingType  string   `json:"thing_type"`
	Domain     string   `json:"domain,omitempty"`
	Properties []string `json:"properties,omitempty"`
	Telemetry  []string `json:"telemetry,omitempty"`
	Keywords   string   `json:"keywords,omitempty"`
}

// Suggestion is one ranked interface suggestion.
type Suggestion struct {
	Entry        *Entry   `json:"interface"`
	MatchScore   int      `json:"matchScore"`
	MatchReasons []string `json:"matchReasons"`
}

// SuggestResponse carries ranked suggestions and the recommended base
// interface for the thing type.
type SuggestResponse struct {
	Suggested     []Suggestion `json:"suggested"`
	BaseInterface string       `json:"base_interface,omitempty"`
}

// Suggest ranks catalog interfaces for a device sketch: exact thing-type
// and domain matches score 10 each, every overlapping telemetry name 5,
// every overlapping property name 3, and a keyword hit 5 in the display
// name or 3 in the description.
func (v *Validator) Suggest(req SuggestRequest) *SuggestResponse {
	resp := &SuggestResponse{}
	if base, ok := v.registry.BaseForThingType(req.ThingType); ok {
		resp.BaseInterface = base
	}

	candidates := v.registry.Search(Filter{
		ThingType: req.ThingType,
		Domain:    req.Domain,
		Keywords:  req.Keywords,
	})

	for _, candidate := range candidates {
		score := 0
		var reasons []string

		if candidate.ThingType == req.ThingType {
			score += 10
			reasons = append(reasons, "thing_type match")
		}
		if req.Domain != "" && v.registry.InDomain(candidate.DTMI, req.Domain) {
			score += 10
			reasons = append(reasons, "domain match")
		}
		if n := overlap(req.Telemetry, candidate.Telemetry); n > 0 {
			score += n * 5
			reasons = append(reasons, pluralMatches(n, "telemetry"))
		}
		if n := overlap(req.Properties, candidate.Properties); n > 0 {
			score += n * 3
			reasons = append(reasons, pluralMatches(n, "property"))
		}
		if req.Keywords != "" {
			keywords := strings.ToLower(req.Keywords)
			if strings.Contains(strings.ToLower(candidate.DisplayName), keywords) {
				score += 5
				reasons = append(reasons, "keyword in displayName")
			} else if strings.Contains(strings.ToLower(candidate.Description), keywords) {
				score += 3
				reasons = append(reasons, "keyword in description")
			}
		}

		resp.Suggested = append(resp.Suggested, Suggestion{
			Entry:        candidate,
			MatchScore:   score,
			MatchReasons: reasons,
		})
	}

	sort.SliceStable(resp.Suggested, func(i, j int) bool {
		return resp.Suggested[i].MatchScore > resp.Suggested[j].MatchScore
	})
	return resp
}

func overlap(want, have []string) int {
	n := 0
	for _, w := range want {
		for _, h := range have {
			if w == h {
				n++
				break
			}
		}
	}
	return n
}

func pluralMatches(n int, kind string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s match", kind)
	}
	return fmt.Sprintf("%d %s matches", n, kind)
}

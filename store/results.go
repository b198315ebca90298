package store

import (
	"encoding/json"
	"fmt"
)

// Binding is one variable binding in a SPARQL JSON result row.
type Binding struct {
	Type     string `json:"type"` // uri, literal, or bnode
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

// Results is a SPARQL SELECT result set in application/sparql-results+json
// form.
type Results struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]Binding `json:"bindings"`
	} `json:"results"`
}

// ParseResults decodes a SPARQL JSON results document.
func ParseResults(data []byte) (*Results, error) {
	var r Results
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode sparql results: %w", err)
	}
	return &r, nil
}

// Rows flattens the result set into one map per solution, keyed by
// variable name. Unbound variables are simply absent from their row.
func (r *Results) Rows() []map[string]string {
	rows := make([]map[string]string, 0, len(r.Results.Bindings))
	for _, binding := range r.Results.Bindings {
		row := make(map[string]string, len(binding))
		for name, b := range binding {
			row[name] = b.Value
		}
		rows = append(rows, row)
	}
	return rows
}

// Len returns the number of solutions.
func (r *Results) Len() int {
	return len(r.Results.Bindings)
}

package rdf

import (
	"fmt"
	"strings"

	"github.com/iodt2/twincatalog/vocabulary/twin"
)

// Turtle serializes the graph as Turtle: a prefix block followed by one
// statement per line. Terms are written with full IRIs, which every
// Turtle parser accepts and keeps the output trivially diffable.
func Turtle(g *Graph) string {
	var sb strings.Builder

	for _, p := range twin.PrefixDeclarations() {
		fmt.Fprintf(&sb, "@prefix %s: <%s> .\n", p.Abbrev, p.IRI)
	}
	sb.WriteString("\n")

	writeStatements(&sb, g)
	return sb.String()
}

// NTriples serializes the graph as N-Triples.
func NTriples(g *Graph) string {
	var sb strings.Builder
	writeStatements(&sb, g)
	return sb.String()
}

func writeStatements(sb *strings.Builder, g *Graph) {
	for _, t := range g.Triples() {
		sb.WriteString(formatTerm(t.Subject))
		sb.WriteString(" ")
		sb.WriteString(formatTerm(t.Predicate))
		sb.WriteString(" ")
		sb.WriteString(formatTerm(t.Object))
		sb.WriteString(" .\n")
	}
}

func formatTerm(t Term) string {
	switch t.Kind {
	case KindIRI:
		return "<" + t.Value + ">"
	case KindBlank:
		return "_:" + t.Value
	default:
		if t.Datatype != "" {
			return fmt.Sprintf("\"%s\"^^<%s>", escapeString(t.Value), t.Datatype)
		}
		return fmt.Sprintf("\"%s\"", escapeString(t.Value))
	}
}

// escapeString escapes special characters in literal lexical forms.
func escapeString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}

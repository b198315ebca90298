// Package rdf provides the in-memory triple model for twin definitions,
// the mapper that converts parsed definitions into triples, and the
// Turtle/N-Triples serializers used when talking to the triplestore.
package rdf

import (
	"strconv"
	"time"

	"github.com/iodt2/twincatalog/vocabulary/twin"
)

// TermKind distinguishes the three kinds of RDF terms.
type TermKind int

const (
	// KindIRI is a resource identifier.
	KindIRI TermKind = iota
	// KindBlank is an anonymous node with a graph-local label.
	KindBlank
	// KindLiteral is a value, optionally carrying an XSD datatype.
	KindLiteral
)

// Term is one node of a triple.
type Term struct {
	Kind     TermKind
	Value    string // IRI, blank label, or lexical form
	Datatype string // literal datatype IRI, empty for plain literals
}

// IRI returns an IRI term.
func IRI(value string) Term {
	return Term{Kind: KindIRI, Value: value}
}

// Blank returns a blank node term with the given label.
func Blank(label string) Term {
	return Term{Kind: KindBlank, Value: label}
}

// Literal returns a plain string literal.
func Literal(value string) Term {
	return Term{Kind: KindLiteral, Value: value}
}

// TypedLiteral returns a literal with an explicit datatype IRI.
func TypedLiteral(value, datatype string) Term {
	return Term{Kind: KindLiteral, Value: value, Datatype: datatype}
}

// BoolLiteral returns an xsd:boolean literal.
func BoolLiteral(v bool) Term {
	return TypedLiteral(strconv.FormatBool(v), twin.XSDBoolean)
}

// IntLiteral returns an xsd:integer literal.
func IntLiteral(v int64) Term {
	return TypedLiteral(strconv.FormatInt(v, 10), twin.XSDInteger)
}

// DecimalLiteral returns an xsd:decimal literal with the shortest
// lexical form that round-trips, keeping serialization deterministic.
func DecimalLiteral(v float64) Term {
	return TypedLiteral(strconv.FormatFloat(v, 'f', -1, 64), twin.XSDDecimal)
}

// TimeLiteral returns an xsd:dateTime literal in RFC 3339 form.
func TimeLiteral(t time.Time) Term {
	return TypedLiteral(t.UTC().Format(time.RFC3339), twin.XSDDateTime)
}

// Triple is a single RDF statement.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// Graph is an ordered collection of triples. Order is insertion order,
// which the mapper keeps deterministic so identical input yields an
// identical serialization.
type Graph struct {
	triples []Triple
	blanks  int
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// Add appends one triple.
func (g *Graph) Add(subject, predicate, object Term) {
	g.triples = append(g.triples, Triple{Subject: subject, Predicate: predicate, Object: object})
}

// NewBlank returns a fresh blank node. Labels are positional (b0, b1, ...)
// so re-mapping the same input produces the same labels.
func (g *Graph) NewBlank() Term {
	label := "b" + strconv.Itoa(g.blanks)
	g.blanks++
	return Blank(label)
}

// Len returns the number of triples.
func (g *Graph) Len() int {
	return len(g.triples)
}

// Triples returns the triples in insertion order.
func (g *Graph) Triples() []Triple {
	return g.triples
}

// Has reports whether the graph contains the exact triple.
func (g *Graph) Has(subject, predicate, object Term) bool {
	for _, t := range g.triples {
		if t.Subject == subject && t.Predicate == predicate && t.Object == object {
			return true
		}
	}
	return false
}

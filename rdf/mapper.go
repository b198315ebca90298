package rdf

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/iodt2/twincatalog/model"
	"github.com/iodt2/twincatalog/vocabulary/twin"
)

// MappingError reports a definition that cannot be mapped to triples.
type MappingError struct {
	Kind string // TwinInterface or TwinInstance
	Name string
	Err  error
}

func (e *MappingError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("map %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("map %s %q: %v", e.Kind, e.Name, e.Err)
}

func (e *MappingError) Unwrap() error { return e.Err }

// MapInterface converts a TwinInterface definition into triples, appending
// them to g. Optional attributes yield triples only when present in the
// definition, so absence in the input means absence in the graph.
func MapInterface(g *Graph, def *model.InterfaceDefinition) error {
	if err := def.Validate(); err != nil {
		return &MappingError{Kind: model.KindInterface, Name: def.Metadata.Name, Err: err}
	}

	name := def.Metadata.Name
	iface := IRI(twin.InterfaceURI(name))

	g.Add(iface, IRI(twin.RDFType), IRI(twin.ClassInterface))
	g.Add(iface, IRI(twin.PropName), Literal(name))

	addProvenance(g, iface, def.Metadata)
	addAnnotations(g, iface, def.Metadata.Annotations)

	for _, p := range def.Spec.Properties {
		prop := IRI(twin.PropertyURI(name, p.Name))
		g.Add(prop, IRI(twin.RDFType), IRI(twin.ClassProperty))
		g.Add(prop, IRI(twin.PropPropertyName), Literal(p.Name))
		g.Add(prop, IRI(twin.PropPropertyType), Literal(p.Type))

		if p.Description != "" {
			g.Add(prop, IRI(twin.PropDescription), Literal(p.Description))
		}
		if p.Writable != nil {
			g.Add(prop, IRI(twin.PropWritable), BoolLiteral(*p.Writable))
		}
		if p.Minimum != nil {
			g.Add(prop, IRI(twin.PropMinimum), numericLiteral(*p.Minimum))
		}
		if p.Maximum != nil {
			g.Add(prop, IRI(twin.PropMaximum), numericLiteral(*p.Maximum))
		}
		if p.Unit != "" {
			g.Add(prop, IRI(twin.PropUnit), Literal(p.Unit))
		}

		g.Add(iface, IRI(twin.PropHasProperty), prop)
	}

	for _, r := range def.Spec.Relationships {
		rel := IRI(twin.RelationshipURI(name, r.Name))
		g.Add(rel, IRI(twin.RDFType), IRI(twin.ClassRelationship))
		g.Add(rel, IRI(twin.PropRelationshipName), Literal(r.Name))
		g.Add(rel, IRI(twin.PropTargetInterface), Literal(r.Interface))

		if r.Description != "" {
			g.Add(rel, IRI(twin.PropDescription), Literal(r.Description))
		}

		g.Add(iface, IRI(twin.PropHasRelationship), rel)
	}

	for _, c := range def.Spec.Commands {
		cmd := IRI(twin.CommandURI(name, c.Name))
		g.Add(cmd, IRI(twin.RDFType), IRI(twin.ClassCommand))
		g.Add(cmd, IRI(twin.PropCommandName), Literal(c.Name))

		if c.Description != "" {
			g.Add(cmd, IRI(twin.PropDescription), Literal(c.Description))
		}
		if c.Schema != nil {
			// encoding/json sorts map keys, so the literal is stable
			// across runs of the same definition.
			schema, err := json.Marshal(c.Schema)
			if err != nil {
				return &MappingError{Kind: model.KindInterface, Name: name,
					Err: fmt.Errorf("command %q schema: %w", c.Name, err)}
			}
			g.Add(cmd, IRI(twin.PropSchema), Literal(string(schema)))
		}

		g.Add(iface, IRI(twin.PropHasCommand), cmd)
	}

	return nil
}

// MapInstance converts a TwinInstance definition into triples, appending
// them to g. Instance relationships become blank nodes owned by the
// instance, each pointing at the target instance IRI.
func MapInstance(g *Graph, def *model.InstanceDefinition) error {
	if err := def.Validate(); err != nil {
		return &MappingError{Kind: model.KindInstance, Name: def.Metadata.Name, Err: err}
	}

	name := def.Metadata.Name
	inst := IRI(twin.InstanceURI(name))

	g.Add(inst, IRI(twin.RDFType), IRI(twin.ClassInstance))
	g.Add(inst, IRI(twin.PropName), Literal(name))
	g.Add(inst, IRI(twin.PropInstanceOf), IRI(twin.InterfaceURI(def.Spec.Interface)))

	addProvenance(g, inst, def.Metadata)

	for _, r := range def.Spec.Relationships {
		node := g.NewBlank()
		g.Add(node, IRI(twin.RDFType), IRI(twin.ClassInstanceRelationship))
		g.Add(node, IRI(twin.PropRelationshipName), Literal(r.Name))
		g.Add(node, IRI(twin.PropTargetInstance), IRI(twin.InstanceURI(r.Instance)))
		g.Add(inst, IRI(twin.PropHasInstanceRelationship), node)
	}

	return nil
}

// MapThing builds the combined graph for one stored thing: the interface
// definition plus its instance. This is the unit that lands in a single
// named graph.
func MapThing(iface *model.InterfaceDefinition, inst *model.InstanceDefinition) (*Graph, error) {
	g := NewGraph()
	if err := MapInterface(g, iface); err != nil {
		return nil, err
	}
	if err := MapInstance(g, inst); err != nil {
		return nil, err
	}
	return g, nil
}

func addProvenance(g *Graph, subject Term, meta model.Metadata) {
	if v, ok := meta.Labels[model.LabelGeneratedBy]; ok {
		g.Add(subject, IRI(twin.PropGeneratedBy), Literal(v))
	}
	if v, ok := meta.Labels[model.LabelGeneratedAt]; ok {
		// The label value is kept verbatim; definitions carry RFC 3339
		// timestamps already.
		g.Add(subject, IRI(twin.PropGeneratedAt), TypedLiteral(v, twin.XSDDateTime))
	}
	if v, ok := meta.Labels[model.LabelThingType]; ok {
		g.Add(subject, IRI(twin.PropThingType), Literal(v))
	}
}

func addAnnotations(g *Graph, subject Term, annotations map[string]string) {
	ordered := []struct {
		key  string
		pred string
	}{
		{model.AnnotationSource, twin.PropSourceFormat},
		{model.AnnotationOriginalID, twin.PropOriginalID},
		{model.AnnotationManufacturer, twin.PropManufacturer},
		{model.AnnotationModel, twin.PropModel},
		{model.AnnotationSerialNumber, twin.PropSerialNumber},
		{model.AnnotationFirmwareVersion, twin.PropFirmwareVersion},
		{model.AnnotationDTDLInterface, twin.PropDTDLInterface},
		{model.AnnotationDTDLInterfaceName, twin.PropDTDLInterfaceName},
		{model.AnnotationDTDLCategory, twin.PropDTDLCategory},
	}
	for _, a := range ordered {
		if v, ok := annotations[a.key]; ok {
			g.Add(subject, IRI(a.pred), Literal(v))
		}
	}
}

// numericLiteral picks xsd:integer for whole values and xsd:decimal
// otherwise, matching how YAML numbers arrive.
func numericLiteral(v float64) Term {
	if v == math.Trunc(v) && !math.IsInf(v, 0) {
		return IntLiteral(int64(v))
	}
	return DecimalLiteral(v)
}

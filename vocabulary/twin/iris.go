// Package twin defines the RDF vocabulary for the twin catalog.
//
// Two namespaces are exposed: the schema namespace (classes and predicates
// describing interfaces, instances, and their parts) and the data namespace
// (IRIs of the stored things themselves). The vocabulary is fixed; nothing
// here touches the network.
package twin

// Namespace is the base IRI for the twin ontology (prefix "ts").
const Namespace = "http://twin.dtd/ontology#"

// DataNamespace is the base IRI for twin data entities (prefix "tsd").
const DataNamespace = "http://iodt2.com/"

// Standard namespaces used in serialization and prefix completion.
const (
	RDFNamespace  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNamespace = "http://www.w3.org/2000/01/rdf-schema#"
	XSDNamespace  = "http://www.w3.org/2001/XMLSchema#"
)

// RDFType is the rdf:type predicate.
const RDFType = RDFNamespace + "type"

// XSD datatype IRIs for typed literals.
const (
	XSDBoolean  = XSDNamespace + "boolean"
	XSDInteger  = XSDNamespace + "integer"
	XSDDecimal  = XSDNamespace + "decimal"
	XSDDateTime = XSDNamespace + "dateTime"
)

// Class IRIs.
const (
	// ClassInterface is a blueprint/template for digital twins.
	ClassInterface = Namespace + "TwinInterface"

	// ClassInstance is a concrete instance of a digital twin.
	ClassInstance = Namespace + "TwinInstance"

	// ClassProperty is a data property of an interface.
	ClassProperty = Namespace + "Property"

	// ClassRelationship is a link between interfaces.
	ClassRelationship = Namespace + "Relationship"

	// ClassCommand is an actionable command on an interface.
	ClassCommand = Namespace + "Command"

	// ClassInstanceRelationship is a link between instances,
	// modeled as a blank node owned by the source instance.
	ClassInstanceRelationship = Namespace + "InstanceRelationship"
)

// Structural predicates linking owners to their parts.
const (
	PropHasProperty             = Namespace + "hasProperty"
	PropHasRelationship         = Namespace + "hasRelationship"
	PropHasCommand              = Namespace + "hasCommand"
	PropInstanceOf              = Namespace + "instanceOf"
	PropHasInstanceRelationship = Namespace + "hasInstanceRelationship"
)

// Common metadata predicates.
const (
	PropName        = Namespace + "name"
	PropDescription = Namespace + "description"
)

// Property attribute predicates.
const (
	PropPropertyName = Namespace + "propertyName"
	PropPropertyType = Namespace + "propertyType"
	PropWritable     = Namespace + "writable"
	PropMinimum      = Namespace + "minimum"
	PropMaximum      = Namespace + "maximum"
	PropUnit         = Namespace + "unit"
)

// Relationship attribute predicates.
const (
	PropRelationshipName = Namespace + "relationshipName"
	PropTargetInterface  = Namespace + "targetInterface"
)

// Command attribute predicates.
const (
	PropCommandName = Namespace + "commandName"

	// PropSchema carries the command input schema as a JSON string literal.
	PropSchema = Namespace + "schema"
)

// Instance relationship attribute predicates.
const (
	PropTargetInstance = Namespace + "targetInstance"
)

// Provenance predicates.
const (
	PropGeneratedBy  = Namespace + "generatedBy"
	PropGeneratedAt  = Namespace + "generatedAt"
	PropSourceFormat = Namespace + "sourceFormat"
	PropOriginalID   = Namespace + "originalId"
)

// Domain metadata predicates carried through from definition annotations.
const (
	PropThingType       = Namespace + "thingType"
	PropManufacturer    = Namespace + "manufacturer"
	PropModel           = Namespace + "model"
	PropSerialNumber    = Namespace + "serialNumber"
	PropFirmwareVersion = Namespace + "firmwareVersion"
)

// DTDL linkage predicates recording which catalog interface a stored
// definition was derived from.
const (
	PropDTDLInterface     = Namespace + "dtdlInterface"
	PropDTDLInterfaceName = Namespace + "dtdlInterfaceName"
	PropDTDLCategory      = Namespace + "dtdlCategory"
)

// Lifecycle event predicates published to the message stream when a
// thing is stored or dropped.
const (
	PropTenant     = Namespace + "tenant"
	PropGraph      = Namespace + "graph"
	PropEvent      = Namespace + "event"
	PropOccurredAt = Namespace + "occurredAt"
)

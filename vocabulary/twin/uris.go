package twin

// URI constructors for twin data entities. All constructors are pure:
// the same inputs always yield the same IRI, which is what makes
// re-storing a definition overwrite its previous triples instead of
// accumulating new nodes.

// InterfaceURI returns the IRI of a TwinInterface.
func InterfaceURI(interfaceName string) string {
	return DataNamespace + interfaceName
}

// InstanceURI returns the IRI of a TwinInstance.
func InstanceURI(instanceName string) string {
	return DataNamespace + "instance/" + instanceName
}

// PropertyURI returns the IRI of a Property owned by an interface.
func PropertyURI(interfaceName, propertyName string) string {
	return DataNamespace + interfaceName + "/property/" + propertyName
}

// RelationshipURI returns the IRI of a Relationship owned by an interface.
func RelationshipURI(interfaceName, relationshipName string) string {
	return DataNamespace + interfaceName + "/relationship/" + relationshipName
}

// CommandURI returns the IRI of a Command owned by an interface.
func CommandURI(interfaceName, commandName string) string {
	return DataNamespace + interfaceName + "/command/" + commandName
}

// PrefixDeclarations maps prefix abbreviations to their namespace IRIs,
// in the order they appear in serialized output and completed queries.
func PrefixDeclarations() []Prefix {
	return []Prefix{
		{Abbrev: "ts", IRI: Namespace},
		{Abbrev: "tsd", IRI: DataNamespace},
		{Abbrev: "rdf", IRI: RDFNamespace},
		{Abbrev: "rdfs", IRI: RDFSNamespace},
		{Abbrev: "xsd", IRI: XSDNamespace},
	}
}

// Prefix pairs a namespace abbreviation with its IRI.
type Prefix struct {
	Abbrev string
	IRI    string
}

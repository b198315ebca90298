// Package model defines the twin definition types accepted by the catalog.
//
// Definitions arrive as Kubernetes-style custom resources
// (apiVersion/kind/metadata/spec) in YAML. The types here mirror that wire
// format; the rdf package maps them to triples.
package model

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Kind values for twin definitions.
const (
	KindInterface = "TwinInterface"
	KindInstance  = "TwinInstance"
)

// Metadata is the Kubernetes-style metadata block of a twin definition.
type Metadata struct {
	Name        string            `yaml:"name"`
	Namespace   string            `yaml:"namespace,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty"`
	Annotations map[string]string `yaml:"annotations,omitempty"`
}

// Well-known label keys carried into provenance triples.
const (
	LabelGeneratedBy = "generated-by"
	LabelGeneratedAt = "generated-at"
	LabelThingType   = "thing-type"
)

// Well-known annotation keys carried into provenance triples.
const (
	AnnotationSource            = "source"
	AnnotationOriginalID        = "original-id"
	AnnotationManufacturer      = "manufacturer"
	AnnotationModel             = "model"
	AnnotationSerialNumber      = "serialNumber"
	AnnotationFirmwareVersion   = "firmwareVersion"
	AnnotationDTDLInterface     = "dtdl-interface"
	AnnotationDTDLInterfaceName = "dtdl-interface-name"
	AnnotationDTDLCategory      = "dtdl-category"
)

// Property is a data property declared on a TwinInterface.
// The x- keys are wire-format extensions from the Twin DTD spec.
type Property struct {
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"` // float, integer, string, boolean, object, array
	Description string   `yaml:"description,omitempty"`
	Writable    *bool    `yaml:"x-writable,omitempty"`
	Minimum     *float64 `yaml:"x-minimum,omitempty"`
	Maximum     *float64 `yaml:"x-maximum,omitempty"`
	Unit        string   `yaml:"x-unit,omitempty"`
}

// Relationship links a TwinInterface to a target interface.
type Relationship struct {
	Name        string `yaml:"name"`
	Interface   string `yaml:"interface"` // target interface name
	Description string `yaml:"description,omitempty"`
}

// Command is an actionable operation declared on a TwinInterface.
// Schema is free-form; it is stored as a JSON string literal.
type Command struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Schema      map[string]any `yaml:"schema,omitempty"`
}

// ServiceResources describes container resource requirements.
type ServiceResources struct {
	CPU    string `yaml:"cpu,omitempty"`
	Memory string `yaml:"memory,omitempty"`
}

// ServiceAutoscaling describes autoscaling bounds.
type ServiceAutoscaling struct {
	Min int `yaml:"min,omitempty"`
	Max int `yaml:"max,omitempty"`
}

// ServiceSpec is the optional service container specification.
type ServiceSpec struct {
	Image       string              `yaml:"image,omitempty"`
	Resources   *ServiceResources   `yaml:"resources,omitempty"`
	Autoscaling *ServiceAutoscaling `yaml:"autoscaling,omitempty"`
}

// EventStoreSpec configures real-event persistence.
type EventStoreSpec struct {
	PersistRealEvent bool `yaml:"persistRealEvent"`
}

// InterfaceSpec is the spec block of a TwinInterface definition.
type InterfaceSpec struct {
	Name            string          `yaml:"name"`
	Properties      []Property      `yaml:"properties,omitempty"`
	Relationships   []Relationship  `yaml:"relationships,omitempty"`
	Commands        []Command       `yaml:"commands,omitempty"`
	Service         *ServiceSpec    `yaml:"service,omitempty"`
	EventStore      *EventStoreSpec `yaml:"eventStore,omitempty"`
	HistoricalStore *EventStoreSpec `yaml:"historicalStore,omitempty"`
}

// InterfaceDefinition is a TwinInterface custom resource.
type InterfaceDefinition struct {
	APIVersion string        `yaml:"apiVersion,omitempty"`
	Kind       string        `yaml:"kind,omitempty"`
	Metadata   Metadata      `yaml:"metadata"`
	Spec       InterfaceSpec `yaml:"spec"`
}

// Validate checks the fields the mapper depends on.
func (d *InterfaceDefinition) Validate() error {
	if d.Metadata.Name == "" {
		return fmt.Errorf("interface definition: metadata.name is required")
	}
	for i, p := range d.Spec.Properties {
		if p.Name == "" {
			return fmt.Errorf("interface %q: properties[%d].name is required", d.Metadata.Name, i)
		}
	}
	for i, r := range d.Spec.Relationships {
		if r.Name == "" {
			return fmt.Errorf("interface %q: relationships[%d].name is required", d.Metadata.Name, i)
		}
	}
	for i, c := range d.Spec.Commands {
		if c.Name == "" {
			return fmt.Errorf("interface %q: commands[%d].name is required", d.Metadata.Name, i)
		}
	}
	return nil
}

// InstanceRelationship is a concrete relationship between two instances.
type InstanceRelationship struct {
	Name      string `yaml:"name"`
	Interface string `yaml:"interface,omitempty"` // target interface name
	Instance  string `yaml:"instance"`            // target instance name
}

// InstanceSpec is the spec block of a TwinInstance definition.
type InstanceSpec struct {
	Name          string                 `yaml:"name"`
	Interface     string                 `yaml:"interface"` // owning interface name
	Relationships []InstanceRelationship `yaml:"twinInstanceRelationships,omitempty"`
}

// InstanceDefinition is a TwinInstance custom resource.
type InstanceDefinition struct {
	APIVersion string       `yaml:"apiVersion,omitempty"`
	Kind       string       `yaml:"kind,omitempty"`
	Metadata   Metadata     `yaml:"metadata"`
	Spec       InstanceSpec `yaml:"spec"`
}

// Validate checks the fields the mapper depends on.
func (d *InstanceDefinition) Validate() error {
	if d.Metadata.Name == "" {
		return fmt.Errorf("instance definition: metadata.name is required")
	}
	if d.Spec.Interface == "" {
		return fmt.Errorf("instance %q: spec.interface is required", d.Metadata.Name)
	}
	for i, r := range d.Spec.Relationships {
		if r.Name == "" || r.Instance == "" {
			return fmt.Errorf("instance %q: twinInstanceRelationships[%d] needs name and instance", d.Metadata.Name, i)
		}
	}
	return nil
}

// ParseInterfaceYAML decodes and validates a TwinInterface definition.
func ParseInterfaceYAML(data []byte) (*InterfaceDefinition, error) {
	var def InterfaceDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse interface yaml: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// ParseInstanceYAML decodes and validates a TwinInstance definition.
func ParseInstanceYAML(data []byte) (*InstanceDefinition, error) {
	var def InstanceDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse instance yaml: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

package model_test

import (
	"strings"
	"testing"

	"github.com/iodt2/twincatalog/model"
)

const interfaceYAML = `
apiVersion: dtd.twin/v0
kind: TwinInterface
metadata:
  name: iodt2-temperature-sensor
  labels:
    generated-by: dtdl-converter
    generated-at: "2024-03-01T12:00:00Z"
    thing-type: sensor
  annotations:
    source: "DTDL v2"
    original-id: "temp-sensor-001"
spec:
  name: iodt2-temperature-sensor
  properties:
    - name: temperature
      type: float
      description: Ambient temperature
      x-writable: false
      x-minimum: -40
      x-maximum: 85
      x-unit: celsius
    - name: reportingInterval
      type: integer
      x-writable: true
  relationships:
    - name: locatedIn
      interface: iodt2-room
  commands:
    - name: recalibrate
      description: Trigger sensor recalibration
      schema:
        type: object
`

const instanceYAML = `
apiVersion: dtd.twin/v0
kind: TwinInstance
metadata:
  name: iodt2-temperature-sensor-1
spec:
  name: iodt2-temperature-sensor-1
  interface: iodt2-temperature-sensor
  twinInstanceRelationships:
    - name: locatedIn
      interface: iodt2-room
      instance: iodt2-room-12
`

func TestParseInterfaceYAML(t *testing.T) {
	def, err := model.ParseInterfaceYAML([]byte(interfaceYAML))
	if err != nil {
		t.Fatalf("ParseInterfaceYAML: %v", err)
	}

	if def.Metadata.Name != "iodt2-temperature-sensor" {
		t.Errorf("metadata.name = %q", def.Metadata.Name)
	}
	if def.Metadata.Labels[model.LabelThingType] != "sensor" {
		t.Errorf("thing-type label = %q", def.Metadata.Labels[model.LabelThingType])
	}
	if len(def.Spec.Properties) != 2 {
		t.Fatalf("expected 2 properties, got %d", len(def.Spec.Properties))
	}

	temp := def.Spec.Properties[0]
	if temp.Type != "float" || temp.Unit != "celsius" {
		t.Errorf("temperature property decoded wrong: %+v", temp)
	}
	if temp.Writable == nil || *temp.Writable {
		t.Error("temperature x-writable should decode as false")
	}
	if temp.Minimum == nil || *temp.Minimum != -40 {
		t.Error("temperature x-minimum should decode as -40")
	}

	if len(def.Spec.Commands) != 1 || def.Spec.Commands[0].Schema == nil {
		t.Error("command schema should be decoded")
	}
}

func TestParseInstanceYAML(t *testing.T) {
	def, err := model.ParseInstanceYAML([]byte(instanceYAML))
	if err != nil {
		t.Fatalf("ParseInstanceYAML: %v", err)
	}
	if def.Spec.Interface != "iodt2-temperature-sensor" {
		t.Errorf("spec.interface = %q", def.Spec.Interface)
	}
	if len(def.Spec.Relationships) != 1 || def.Spec.Relationships[0].Instance != "iodt2-room-12" {
		t.Errorf("instance relationships decoded wrong: %+v", def.Spec.Relationships)
	}
}

func TestParseInterfaceYAMLMissingName(t *testing.T) {
	_, err := model.ParseInterfaceYAML([]byte("metadata: {}\nspec: {}"))
	if err == nil {
		t.Fatal("expected error for missing metadata.name")
	}
	if !strings.Contains(err.Error(), "metadata.name") {
		t.Errorf("error should mention metadata.name: %v", err)
	}
}

func TestParseInstanceYAMLMissingInterface(t *testing.T) {
	_, err := model.ParseInstanceYAML([]byte("metadata:\n  name: x\nspec:\n  name: x"))
	if err == nil {
		t.Fatal("expected error for missing spec.interface")
	}
}

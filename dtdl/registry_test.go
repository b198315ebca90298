package dtdl

import (
	"os"
	"path/filepath"
	"testing"
)

func newEmbeddedRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func TestEmbeddedLibraryLoads(t *testing.T) {
	reg := newEmbeddedRegistry(t)

	if reg.Len() != 6 {
		t.Fatalf("expected 6 interfaces, got %d", reg.Len())
	}

	entry, ok := reg.Get("dtmi:iodt2:TemperatureSensor;1")
	if !ok {
		t.Fatal("TemperatureSensor not found")
	}
	if entry.DisplayName != "Temperature Sensor" {
		t.Errorf("displayName = %q", entry.DisplayName)
	}
	if entry.Interface == nil {
		t.Fatal("interface document not loaded")
	}

	summary := entry.Interface.Summarize()
	if summary.TelemetryCount != 1 || summary.PropertyCount != 2 || summary.CommandCount != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
}

func TestSearchIsConjunctive(t *testing.T) {
	reg := newEmbeddedRegistry(t)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"by thing type", Filter{ThingType: "sensor"}, 3},
		{"by domain", Filter{Domain: "environmental"}, 3},
		{"thing type and domain", Filter{ThingType: "sensor", Domain: "environmental"}, 2},
		{"by category", Filter{Category: "base"}, 3},
		{"by tags", Filter{Tags: []string{"climate"}}, 2},
		{"by multiple tags", Filter{Tags: []string{"climate", "humidity"}}, 1},
		{"by keywords", Filter{Keywords: "weather"}, 1},
		{"keywords in description", Filter{Keywords: "relative humidity"}, 1},
		{"no match", Filter{ThingType: "sensor", Domain: "nope"}, 0},
		{"empty filter matches all", Filter{}, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reg.Search(tt.filter)
			if len(got) != tt.want {
				t.Errorf("Search(%+v) returned %d entries, want %d", tt.filter, len(got), tt.want)
			}
		})
	}
}

func TestSearchKeepsCatalogOrder(t *testing.T) {
	reg := newEmbeddedRegistry(t)

	sensors := reg.Search(Filter{ThingType: "sensor"})
	want := []string{
		"dtmi:iodt2:base:Sensor;1",
		"dtmi:iodt2:TemperatureSensor;1",
		"dtmi:iodt2:HumiditySensor;1",
	}
	for i, dtmi := range want {
		if sensors[i].DTMI != dtmi {
			t.Errorf("sensors[%d] = %s, want %s", i, sensors[i].DTMI, dtmi)
		}
	}
}

func TestMappingsAndBase(t *testing.T) {
	reg := newEmbeddedRegistry(t)

	domains := reg.Domains()
	if len(domains["environmental"]) != 3 {
		t.Errorf("environmental domain should have 3 members: %v", domains)
	}

	thingTypes := reg.ThingTypes()
	if len(thingTypes["sensor"]) != 3 {
		t.Errorf("sensor thing type should have 3 members: %v", thingTypes)
	}

	base, ok := reg.BaseForThingType("sensor")
	if !ok || base != "dtmi:iodt2:base:Sensor;1" {
		t.Errorf("BaseForThingType(sensor) = %q, %v", base, ok)
	}
	if _, ok := reg.BaseForThingType("spaceship"); ok {
		t.Error("unknown thing type should have no base interface")
	}

	if !reg.InDomain("dtmi:iodt2:TemperatureSensor;1", "environmental") {
		t.Error("TemperatureSensor should be in environmental domain")
	}
	if reg.InDomain("dtmi:iodt2:base:Sensor;1", "environmental") {
		t.Error("base Sensor should not be in environmental domain")
	}
}

func TestValidateDTMI(t *testing.T) {
	valid := []string{
		"dtmi:iodt2:TemperatureSensor;1",
		"dtmi:com:example:Thermostat;12",
		"dtmi:a;1",
		"dtmi:foo_bar:Baz;999",
	}
	for _, dtmi := range valid {
		if !ValidateDTMI(dtmi) {
			t.Errorf("ValidateDTMI(%q) = false, want true", dtmi)
		}
	}

	// Missing version, wrong scheme, zero or zero-padded version, segment
	// starting with a digit or ending with an underscore, empty segment.
	invalid := []string{
		"dtmi:invalid",
		"notadtmi:test;1",
		"dtmi:test;0",
		"dtmi:test;01",
		"dtmi:1abc;1",
		"dtmi:abc_;1",
		"dtmi:;1",
		"",
	}
	for _, dtmi := range invalid {
		if ValidateDTMI(dtmi) {
			t.Errorf("ValidateDTMI(%q) = true, want false", dtmi)
		}
	}
}

func TestReloadFromDirectory(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "registry.json", `{
		"interfaces": [
			{"dtmi": "dtmi:test:Thing;1", "file": "thing.json", "displayName": "Thing", "thingType": "device"}
		]
	}`)
	writeFile(t, dir, "thing.json", `{
		"@id": "dtmi:test:Thing;1",
		"@type": "Interface",
		"displayName": "Thing",
		"contents": [{"@type": "Property", "name": "serial", "schema": "string"}]
	}`)

	reg, err := NewRegistry(WithLibraryDir(dir))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("expected 1 interface, got %d", reg.Len())
	}

	// An interface file dropped in without an index entry is picked up
	// on the next reload.
	writeFile(t, dir, "extra.json", `{
		"@id": "dtmi:test:Extra;1",
		"@type": "Interface",
		"displayName": "Extra",
		"contents": [{"@type": "Telemetry", "name": "level", "schema": "double"}]
	}`)
	if err := reg.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if reg.Len() != 2 {
		t.Fatalf("expected 2 interfaces after reload, got %d", reg.Len())
	}

	extra, ok := reg.Get("dtmi:test:Extra;1")
	if !ok {
		t.Fatal("unindexed interface not loaded")
	}
	if len(extra.Telemetry) != 1 || extra.Telemetry[0] != "level" {
		t.Errorf("derived telemetry list wrong: %v", extra.Telemetry)
	}
}

func TestFailedReloadKeepsSnapshot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "registry.json", `{"interfaces": []}`)

	reg, err := NewRegistry(WithLibraryDir(dir))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	writeFile(t, dir, "registry.json", "{broken")
	if err := reg.Reload(); err == nil {
		t.Fatal("expected reload error for broken index")
	}

	// The old snapshot must keep serving.
	if reg.Len() != 0 {
		t.Errorf("snapshot changed after failed reload: len=%d", reg.Len())
	}
	if got := reg.Search(Filter{}); got != nil {
		t.Errorf("search should still work after failed reload: %v", got)
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

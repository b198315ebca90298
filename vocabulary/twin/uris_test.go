package twin_test

import (
	"testing"

	"github.com/iodt2/twincatalog/vocabulary/twin"
)

func TestURIConstructorsDeterministic(t *testing.T) {
	if twin.InterfaceURI("iodt2-sensor1") != twin.InterfaceURI("iodt2-sensor1") {
		t.Error("InterfaceURI not deterministic")
	}
	if twin.PropertyURI("a", "b") != twin.PropertyURI("a", "b") {
		t.Error("PropertyURI not deterministic")
	}
}

func TestURIConstructorsDistinct(t *testing.T) {
	uris := []string{
		twin.InterfaceURI("sensor"),
		twin.InstanceURI("sensor"),
		twin.PropertyURI("sensor", "temp"),
		twin.RelationshipURI("sensor", "temp"),
		twin.CommandURI("sensor", "temp"),
		twin.PropertyURI("sensor", "hum"),
		twin.PropertyURI("other", "temp"),
	}

	seen := make(map[string]bool, len(uris))
	for _, u := range uris {
		if seen[u] {
			t.Errorf("duplicate URI for distinct inputs: %s", u)
		}
		seen[u] = true
	}
}

func TestURIShapes(t *testing.T) {
	if got, want := twin.InterfaceURI("iodt2-pump"), "http://iodt2.com/iodt2-pump"; got != want {
		t.Errorf("InterfaceURI = %s, want %s", got, want)
	}
	if got, want := twin.InstanceURI("iodt2-pump-1"), "http://iodt2.com/instance/iodt2-pump-1"; got != want {
		t.Errorf("InstanceURI = %s, want %s", got, want)
	}
	if got, want := twin.PropertyURI("iodt2-pump", "pressure"), "http://iodt2.com/iodt2-pump/property/pressure"; got != want {
		t.Errorf("PropertyURI = %s, want %s", got, want)
	}
}

func TestPrefixDeclarationsOrder(t *testing.T) {
	prefixes := twin.PrefixDeclarations()
	if len(prefixes) != 5 {
		t.Fatalf("expected 5 prefixes, got %d", len(prefixes))
	}
	if prefixes[0].Abbrev != "ts" || prefixes[0].IRI != twin.Namespace {
		t.Errorf("first prefix should be ts, got %s", prefixes[0].Abbrev)
	}
}

package store

import (
	"context"
	"errors"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, queryJSON string) (*GraphStore, *fakeFuseki) {
	t.Helper()
	fake := &fakeFuseki{queryJSON: queryJSON}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	return NewGraphStore(NewClient(srv.URL, "twins")), fake
}

func binding(value string) string {
	return `{"type":"literal","value":"` + value + `"}`
}

func TestInterfacesParsesRows(t *testing.T) {
	gs, fake := newTestStore(t, `{
		"head": {"vars": ["interface","name","description","generatedAt","graph"]},
		"results": {"bindings": [
			{"interface": `+binding("http://iodt2.com/iodt2-pump")+`,
			 "name": `+binding("iodt2-pump")+`,
			 "graph": `+binding("http://twin.io/graphs/default/pump")+`}
		]}
	}`)

	interfaces, err := gs.Interfaces(context.Background(), "pump", 10, "acme")
	require.NoError(t, err)
	require.Len(t, interfaces, 1)
	assert.Equal(t, "iodt2-pump", interfaces[0].Name)
	assert.Equal(t, "http://iodt2.com/iodt2-pump", interfaces[0].URI)

	reqs := fake.recorded()
	require.Len(t, reqs, 1)
	query := decodeForm(t, reqs[0].Body)
	assert.Contains(t, query, "ts:TwinInterface")
	// Tenant filter is asymmetric: acme reads also see default graphs.
	assert.Contains(t, query, "http://twin.io/graphs/acme/")
	assert.Contains(t, query, "http://twin.io/graphs/default/")
}

func TestInterfaceDetailsFoldsCrossProduct(t *testing.T) {
	// Two properties and one relationship produce a cross-product; the
	// fold must keep one entry per distinct part name.
	gs, _ := newTestStore(t, `{
		"head": {"vars": []},
		"results": {"bindings": [
			{"name": `+binding("iodt2-pump")+`,
			 "generatedBy": `+binding("dtdl-converter")+`,
			 "propName": `+binding("pressure")+`,
			 "propType": `+binding("float")+`,
			 "writable": `+binding("true")+`,
			 "relName": `+binding("locatedIn")+`,
			 "relTarget": `+binding("iodt2-room")+`},
			{"name": `+binding("iodt2-pump")+`,
			 "generatedBy": `+binding("dtdl-converter")+`,
			 "propName": `+binding("status")+`,
			 "propType": `+binding("string")+`,
			 "relName": `+binding("locatedIn")+`,
			 "relTarget": `+binding("iodt2-room")+`},
			{"name": `+binding("iodt2-pump")+`,
			 "generatedBy": `+binding("dtdl-converter")+`,
			 "propName": `+binding("pressure")+`,
			 "propType": `+binding("float")+`,
			 "writable": `+binding("true")+`}
		]}
	}`)

	detail, err := gs.InterfaceDetails(context.Background(), "iodt2-pump", "")
	require.NoError(t, err)

	assert.Equal(t, "iodt2-pump", detail.Name)
	assert.Equal(t, "dtdl-converter", detail.GeneratedBy)

	require.Len(t, detail.Properties, 2)
	assert.Equal(t, "pressure", detail.Properties[0].Name)
	assert.True(t, detail.Properties[0].Writable)
	assert.Equal(t, "status", detail.Properties[1].Name)
	assert.False(t, detail.Properties[1].Writable)

	require.Len(t, detail.Relationships, 1)
	assert.Equal(t, "iodt2-room", detail.Relationships[0].TargetInterface)
	assert.Empty(t, detail.Commands)
}

func TestInterfaceDetailsNotFound(t *testing.T) {
	gs, _ := newTestStore(t, "")

	_, err := gs.InterfaceDetails(context.Background(), "iodt2-missing", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestThingByIDDeduplicatesProperties(t *testing.T) {
	gs, _ := newTestStore(t, `{
		"head": {"vars": []},
		"results": {"bindings": [
			{"uri": `+binding("http://iodt2.com/iodt2-pump")+`,
			 "name": `+binding("iodt2-pump")+`,
			 "type": `+binding("http://twin.dtd/ontology#TwinInterface")+`,
			 "graph": `+binding("http://twin.io/graphs/default/pump")+`,
			 "propName": `+binding("pressure")+`,
			 "propType": `+binding("float")+`},
			{"uri": `+binding("http://iodt2.com/iodt2-pump")+`,
			 "name": `+binding("iodt2-pump")+`,
			 "type": `+binding("http://twin.dtd/ontology#TwinInterface")+`,
			 "graph": `+binding("http://twin.io/graphs/default/pump")+`,
			 "propName": `+binding("pressure")+`,
			 "propType": `+binding("float")+`},
			{"uri": `+binding("http://iodt2.com/iodt2-pump")+`,
			 "name": `+binding("iodt2-pump")+`,
			 "type": `+binding("http://twin.dtd/ontology#TwinInterface")+`,
			 "graph": `+binding("http://twin.io/graphs/default/pump")+`,
			 "propName": `+binding("status")+`}
		]}
	}`)

	thing, err := gs.ThingByID(context.Background(), "iodt2-pump", "")
	require.NoError(t, err)

	assert.Equal(t, "TwinInterface", thing.Type)
	require.Len(t, thing.Properties, 2)
	assert.Equal(t, "float", thing.Properties["pressure"].Type)
	// Missing propType defaults to string.
	assert.Equal(t, "string", thing.Properties["status"].Type)
}

func TestThingByIDNotFound(t *testing.T) {
	gs, _ := newTestStore(t, "")

	_, err := gs.ThingByID(context.Background(), "nope", "")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSearchEscapesInput(t *testing.T) {
	gs, fake := newTestStore(t, "")

	_, err := gs.Search(context.Background(), `pump" || true`, "", 10)
	require.NoError(t, err)

	reqs := fake.recorded()
	require.Len(t, reqs, 1)
	// The quote arrives escaped inside the SPARQL string literal.
	decoded := decodeForm(t, reqs[0].Body)
	assert.Contains(t, decoded, `pump\" || true`)
	assert.NotContains(t, decoded, `"pump" || true"`)
}

func TestSearchByPropertyOperators(t *testing.T) {
	gs, fake := newTestStore(t, "")

	result, err := gs.SearchByProperty(context.Background(), "temperature", "gte", 21.5, "", 50)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Count)
	assert.Equal(t, "gte", result.Operator)

	decoded := decodeForm(t, fake.recorded()[0].Body)
	assert.Contains(t, decoded, "?propMax >= 21.5 || !BOUND(?propMax)")
}

func TestCheckHealth(t *testing.T) {
	gs, _ := newTestStore(t, `{
		"head": {"vars": ["count"]},
		"results": {"bindings": [{"count": `+binding("42")+`}]}
	}`)

	health := gs.CheckHealth(context.Background())
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "42", health.TripleCount)
}

func TestCheckHealthUnreachable(t *testing.T) {
	gs := NewGraphStore(NewClient("http://127.0.0.1:1", "twins"))

	health := gs.CheckHealth(context.Background())
	assert.Equal(t, "unhealthy", health.Status)
	assert.NotEmpty(t, health.Error)
}

// decodeForm extracts the query text from a form-encoded request body.
func decodeForm(t *testing.T, body string) string {
	t.Helper()
	values, err := url.ParseQuery(body)
	require.NoError(t, err)
	return values.Get("query")
}

package store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iodt2/twincatalog/model"
)

type recordedRequest struct {
	Method      string
	Path        string
	GraphParam  string
	ContentType string
	Body        string
	HasAuth     bool
	RequestID   string
}

// fakeFuseki records every request and answers the three dataset
// endpoints with canned responses.
type fakeFuseki struct {
	mu        sync.Mutex
	requests  []recordedRequest
	queryJSON string
}

func (f *fakeFuseki) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := new(strings.Builder)
		if r.Body != nil {
			buf := make([]byte, 64*1024)
			for {
				n, err := r.Body.Read(buf)
				body.Write(buf[:n])
				if err != nil {
					break
				}
			}
		}
		_, _, hasAuth := r.BasicAuth()

		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			GraphParam:  r.URL.Query().Get("graph"),
			ContentType: r.Header.Get("Content-Type"),
			Body:        body.String(),
			HasAuth:     hasAuth,
			RequestID:   r.Header.Get("X-Request-ID"),
		})
		f.mu.Unlock()

		switch {
		case strings.HasSuffix(r.URL.Path, "/query"):
			w.Header().Set("Content-Type", "application/sparql-results+json")
			resp := f.queryJSON
			if resp == "" {
				resp = `{"head":{"vars":[]},"results":{"bindings":[]}}`
			}
			w.Write([]byte(resp))
		case strings.HasSuffix(r.URL.Path, "/update"):
			w.WriteHeader(http.StatusNoContent)
		case strings.HasSuffix(r.URL.Path, "/data"):
			w.WriteHeader(http.StatusCreated)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func (f *fakeFuseki) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func testDefinitions() (*model.InterfaceDefinition, *model.InstanceDefinition) {
	iface := &model.InterfaceDefinition{
		Metadata: model.Metadata{Name: "iodt2-pump"},
		Spec: model.InterfaceSpec{
			Name: "iodt2-pump",
			Properties: []model.Property{
				{Name: "pressure", Type: "float"},
			},
		},
	}
	inst := &model.InstanceDefinition{
		Metadata: model.Metadata{Name: "iodt2-pump-1"},
		Spec:     model.InstanceSpec{Name: "iodt2-pump-1", Interface: "iodt2-pump"},
	}
	return iface, inst
}

func TestStoreThingReplacesNamedGraph(t *testing.T) {
	fake := &fakeFuseki{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := NewClient(srv.URL, "twins", WithCredentials("admin", "pw"))
	gs := NewGraphStore(client)

	iface, inst := testDefinitions()
	graphURI, err := gs.StoreThing(context.Background(), "", "pump-1", iface, inst)
	require.NoError(t, err)
	assert.Equal(t, "http://twin.io/graphs/default/pump-1", graphURI)

	reqs := fake.recorded()
	require.Len(t, reqs, 1)
	put := reqs[0]
	assert.Equal(t, http.MethodPut, put.Method)
	assert.Equal(t, "/twins/data", put.Path)
	assert.Equal(t, graphURI, put.GraphParam)
	assert.Equal(t, "text/turtle", put.ContentType)
	assert.True(t, put.HasAuth)
	assert.NotEmpty(t, put.RequestID)
	assert.Contains(t, put.Body, "@prefix ts: <http://twin.dtd/ontology#> .")
	assert.Contains(t, put.Body, "<http://iodt2.com/iodt2-pump>")
	assert.Contains(t, put.Body, "<http://iodt2.com/instance/iodt2-pump-1>")
}

func TestStoreThingTenantGraph(t *testing.T) {
	fake := &fakeFuseki{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	gs := NewGraphStore(NewClient(srv.URL, "twins"))
	iface, inst := testDefinitions()

	graphURI, err := gs.StoreThing(context.Background(), "acme", "acme:pump-1", iface, inst)
	require.NoError(t, err)
	assert.Equal(t, "http://twin.io/graphs/acme/acme:pump-1", graphURI)
}

func TestStoreDropRoundTrip(t *testing.T) {
	fake := &fakeFuseki{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	gs := NewGraphStore(NewClient(srv.URL, "twins"))
	iface, inst := testDefinitions()

	// Storing under the derived thing ID and dropping by interface name
	// must address the same graph.
	thingID := ThingIDFromInterface(iface.Metadata.Name)
	graphURI, err := gs.StoreThing(context.Background(), "", thingID, iface, inst)
	require.NoError(t, err)
	assert.Equal(t, "http://twin.io/graphs/default/pump", graphURI)

	require.NoError(t, gs.DropThing(context.Background(), "", iface.Metadata.Name))

	dropped := false
	for _, req := range fake.recorded() {
		if strings.Contains(req.Body, "DROP SILENT GRAPH <"+graphURI+">") {
			dropped = true
		}
	}
	assert.True(t, dropped, "drop never targeted the stored graph %s", graphURI)
}

func TestDropThingIsIdempotent(t *testing.T) {
	fake := &fakeFuseki{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	gs := NewGraphStore(NewClient(srv.URL, "twins"))

	// Dropping twice must succeed both times: DROP SILENT never errors
	// on a missing graph.
	require.NoError(t, gs.DropThing(context.Background(), "acme", "iodt2-pump"))
	require.NoError(t, gs.DropThing(context.Background(), "acme", "iodt2-pump"))

	reqs := fake.recorded()
	require.Len(t, reqs, 4) // two candidate graphs per drop

	assert.Contains(t, reqs[0].Body, "DROP SILENT GRAPH <http://twin.io/graphs/acme/acme:pump>")
	assert.Contains(t, reqs[1].Body, "DROP SILENT GRAPH <http://twin.io/graphs/acme/pump>")
	for _, req := range reqs {
		assert.Equal(t, "application/sparql-update", req.ContentType)
	}
}

func TestSelectRejectsBeforeNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("rejected query must not reach the server")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "twins")

	_, err := client.Select(context.Background(), "INSERT DATA { <a> <b> <c> }")
	require.Error(t, err)
	assert.True(t, IsRejected(err))
}

func TestSelectCompletesPrefixes(t *testing.T) {
	fake := &fakeFuseki{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := NewClient(srv.URL, "twins")
	_, err := client.Select(context.Background(), "SELECT ?s WHERE { ?s a ts:TwinInterface }")
	require.NoError(t, err)

	reqs := fake.recorded()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Body, "PREFIX+ts%3A") // form-encoded declaration
}

func TestQueryTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "parse error at line 1", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "twins")
	_, err := client.Query(context.Background(), "SELECT ?s WHERE { ?s ?p ?o }")
	require.Error(t, err)
	require.True(t, IsTransport(err))

	var transport *TransportError
	require.ErrorAs(t, err, &transport)
	assert.Equal(t, http.StatusBadRequest, transport.Status)
	assert.Contains(t, transport.Body, "parse error")
}

func TestTenantFilterAsymmetry(t *testing.T) {
	gs := NewGraphStore(NewClient("http://localhost:3030", "twins"))

	filter := gs.TenantFilter("acme")
	assert.Contains(t, filter, "http://twin.io/graphs/acme/")
	assert.Contains(t, filter, "http://twin.io/graphs/default/")

	assert.Empty(t, gs.TenantFilter(""))
	assert.Empty(t, gs.TenantFilter("default"))

	strict := gs.strictTenantFilter("acme")
	assert.Contains(t, strict, "http://twin.io/graphs/acme/")
	assert.NotContains(t, strict, "http://twin.io/graphs/default/")
}

type captureSink struct {
	stored  []string
	dropped []string
}

func (c *captureSink) ThingStored(_ context.Context, _, _, graphURI string) {
	c.stored = append(c.stored, graphURI)
}

func (c *captureSink) ThingDropped(_ context.Context, _, graphURI string) {
	c.dropped = append(c.dropped, graphURI)
}

func TestLifecycleEvents(t *testing.T) {
	fake := &fakeFuseki{}
	fake.queryJSON = `{"head":{"vars":["s"]},"results":{"bindings":[{"s":{"type":"uri","value":"http://iodt2.com/iodt2-pump"}}]}}`
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	sink := &captureSink{}
	gs := NewGraphStore(NewClient(srv.URL, "twins"), WithEventSink(sink))

	iface, inst := testDefinitions()
	_, err := gs.StoreThing(context.Background(), "", "pump-1", iface, inst)
	require.NoError(t, err)
	require.NoError(t, gs.DropThing(context.Background(), "", "iodt2-pump"))

	assert.Equal(t, []string{"http://twin.io/graphs/default/pump-1"}, sink.stored)
	assert.Len(t, sink.dropped, 2)
}

func TestDropSkipsEventsForMissingGraphs(t *testing.T) {
	fake := &fakeFuseki{} // existence probes find nothing
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	sink := &captureSink{}
	gs := NewGraphStore(NewClient(srv.URL, "twins"), WithEventSink(sink))

	require.NoError(t, gs.DropThing(context.Background(), "", "iodt2-pump"))
	assert.Empty(t, sink.dropped)
}

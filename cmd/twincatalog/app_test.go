package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iodt2/twincatalog/config"
)

// Catalog reads invoked with --tenant must carry the tenant graph filter
// all the way into the outgoing SPARQL query.
func TestTenantFlagScopesCatalogReads(t *testing.T) {
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		queries = append(queries, r.PostFormValue("query"))
		w.Header().Set("Content-Type", "application/sparql-results+json")
		w.Write([]byte(`{"head":{"vars":[]},"results":{"bindings":[]}}`))
	}))
	defer srv.Close()

	cfg := config.DefaultConfig()
	cfg.Store.URL = srv.URL

	opts := &globalOptions{tenant: "acme"}
	a := &app{cfg: cfg, logger: slog.Default()}

	gs, err := a.graphStore(context.Background(), false)
	require.NoError(t, err)

	_, err = gs.Interfaces(context.Background(), "", 10, opts.tenant)
	require.NoError(t, err)

	require.Len(t, queries, 1)
	assert.Contains(t, queries[0], "STRSTARTS(STR(?graph), 'http://twin.io/graphs/acme/')")
	assert.Contains(t, queries[0], "STRSTARTS(STR(?graph), 'http://twin.io/graphs/default/')")
}

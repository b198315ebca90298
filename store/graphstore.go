package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/iodt2/twincatalog/model"
	"github.com/iodt2/twincatalog/rdf"
)

// DefaultGraphBase is the base URI under which named graphs are created.
const DefaultGraphBase = "http://twin.io/graphs"

// DefaultTenant is the tenant that owns graphs stored without an explicit
// tenant.
const DefaultTenant = "default"

// EventSink receives lifecycle notifications for stored things. A nil
// sink disables notifications.
type EventSink interface {
	ThingStored(ctx context.Context, tenant, thingID, graphURI string)
	ThingDropped(ctx context.Context, tenant, graphURI string)
}

// GraphStore manages twin definitions as tenant-scoped named graphs.
// Each stored thing owns exactly one graph at {base}/{tenant}/{thing-id},
// so re-storing replaces its triples instead of accumulating them.
type GraphStore struct {
	client        *Client
	graphBase     string
	defaultTenant string
	events        EventSink
	logger        *slog.Logger
}

// StoreOption configures a GraphStore.
type StoreOption func(*GraphStore)

// WithGraphBase sets the base URI for named graphs.
func WithGraphBase(base string) StoreOption {
	return func(s *GraphStore) {
		s.graphBase = strings.TrimRight(base, "/")
	}
}

// WithDefaultTenant sets the tenant used when none is given.
func WithDefaultTenant(tenant string) StoreOption {
	return func(s *GraphStore) {
		s.defaultTenant = tenant
	}
}

// WithEventSink sets the lifecycle event sink.
func WithEventSink(sink EventSink) StoreOption {
	return func(s *GraphStore) {
		s.events = sink
	}
}

// WithStoreLogger sets the logger.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *GraphStore) {
		s.logger = logger
	}
}

// NewGraphStore creates a GraphStore backed by the given SPARQL client.
func NewGraphStore(client *Client, opts ...StoreOption) *GraphStore {
	s := &GraphStore{
		client:        client,
		graphBase:     DefaultGraphBase,
		defaultTenant: DefaultTenant,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Client returns the underlying SPARQL client, for ad-hoc queries.
func (s *GraphStore) Client() *Client {
	return s.client
}

// GraphURI returns the named graph URI for a thing owned by a tenant.
func (s *GraphStore) GraphURI(tenant, thingID string) string {
	return s.graphBase + "/" + s.tenantOrDefault(tenant) + "/" + thingID
}

// StoreThing maps the interface and instance definitions to triples and
// replaces the thing's named graph with them. It returns the graph URI.
func (s *GraphStore) StoreThing(
	ctx context.Context,
	tenant, thingID string,
	iface *model.InterfaceDefinition,
	inst *model.InstanceDefinition,
) (string, error) {
	g, err := rdf.MapThing(iface, inst)
	if err != nil {
		return "", err
	}

	tenant = s.tenantOrDefault(tenant)
	graphURI := s.GraphURI(tenant, thingID)

	if err := s.client.PutGraph(ctx, graphURI, rdf.Turtle(g)); err != nil {
		return "", fmt.Errorf("store thing %q: %w", thingID, err)
	}

	s.logger.Info("stored twin graph",
		"thing_id", thingID,
		"tenant", tenant,
		"graph", graphURI,
		"triples", g.Len())

	if s.events != nil {
		s.events.ThingStored(ctx, tenant, thingID, graphURI)
	}
	return graphURI, nil
}

// ThingIDFromInterface derives the thing ID a twin graph is stored under
// from its interface name. Store and drop share this derivation so a
// stored graph is always one of drop's candidate graphs.
func ThingIDFromInterface(interfaceName string) string {
	return strings.TrimPrefix(interfaceName, "iodt2-")
}

// DropThing removes the graphs holding an interface's twin data. Thing IDs
// were historically written both with and without a tenant qualifier, so
// both candidate graphs are dropped. DROP SILENT makes the operation
// idempotent: dropping a missing graph succeeds. Lifecycle events are
// emitted only for graphs that held data; if the existence probe fails
// the event is emitted anyway, so delivery is at-least-once.
func (s *GraphStore) DropThing(ctx context.Context, tenant, interfaceName string) error {
	tenant = s.tenantOrDefault(tenant)
	idPart := ThingIDFromInterface(interfaceName)

	candidates := []string{
		tenant + ":" + idPart,
		idPart,
	}

	for _, thingID := range candidates {
		graphURI := s.GraphURI(tenant, thingID)

		existed := s.events != nil && s.graphExists(ctx, graphURI)

		if err := s.client.Update(ctx, fmt.Sprintf("DROP SILENT GRAPH <%s>", graphURI)); err != nil {
			return fmt.Errorf("drop thing %q: %w", interfaceName, err)
		}
		s.logger.Info("dropped twin graph", "tenant", tenant, "graph", graphURI)

		if existed {
			s.events.ThingDropped(ctx, tenant, graphURI)
		}
	}
	return nil
}

// graphExists probes whether a named graph holds any triples. An unknown
// state reads as present, so a failed probe never loses a drop event.
func (s *GraphStore) graphExists(ctx context.Context, graphURI string) bool {
	query := fmt.Sprintf("SELECT ?s WHERE { GRAPH <%s> { ?s ?p ?o } } LIMIT 1", graphURI)
	results, err := s.client.Query(ctx, query)
	if err != nil {
		return true
	}
	return results.Len() > 0
}

// TenantFilter returns the SPARQL FILTER clause restricting ?graph to the
// tenant's graphs. Reads also see default-tenant graphs, since things may
// be stored under default; for the default tenant (or none) no filter is
// applied. Writes never use this: they address one graph URI directly.
func (s *GraphStore) TenantFilter(tenant string) string {
	if tenant == "" || tenant == s.defaultTenant {
		return ""
	}
	return fmt.Sprintf(
		"FILTER(STRSTARTS(STR(?graph), '%s/%s/') || STRSTARTS(STR(?graph), '%s/%s/'))",
		s.graphBase, escapeLiteral(tenant),
		s.graphBase, s.defaultTenant,
	)
}

// strictTenantFilter restricts ?graph to exactly one tenant, without the
// default-tenant fallback.
func (s *GraphStore) strictTenantFilter(tenant string) string {
	if tenant == "" {
		return ""
	}
	return fmt.Sprintf("FILTER(STRSTARTS(STR(?graph), '%s/%s/'))",
		s.graphBase, escapeLiteral(tenant))
}

func (s *GraphStore) tenantOrDefault(tenant string) string {
	if tenant == "" {
		return s.defaultTenant
	}
	return tenant
}

// escapeLiteral escapes a value for embedding in a SPARQL string literal.
// Every user-supplied string passes through here before interpolation.
func escapeLiteral(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "'", "\\'")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	return s
}

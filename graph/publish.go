// Package graph publishes twin lifecycle events to the knowledge graph
// ingestion stream.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/c360studio/semstreams/message"
	"github.com/c360studio/semstreams/natsclient"

	"github.com/iodt2/twincatalog/store"
	"github.com/iodt2/twincatalog/vocabulary/twin"
)

// TwinIngestSubject is the stream subject for twin lifecycle events.
const TwinIngestSubject = "graph.ingest.twin"

// tripleSource identifies this service as the origin of published triples.
const tripleSource = "twincatalog.store"

// EntityIngestMessage is the message format for graph ingestion.
// Matches the format used by other semstreams components.
type EntityIngestMessage struct {
	ID        string           `json:"id"`
	Triples   []message.Triple `json:"triples"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Publisher emits lifecycle events for stored things. It implements
// store.EventSink; with a nil NATS client every publish is a no-op, so
// the store works unchanged when messaging is not configured.
type Publisher struct {
	nc     *natsclient.Client
	logger *slog.Logger
}

var _ store.EventSink = (*Publisher)(nil)

// NewPublisher creates a publisher over the given NATS client. The
// client may be nil.
func NewPublisher(nc *natsclient.Client, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{nc: nc, logger: logger}
}

// ThingStored publishes a stored event for a thing's named graph.
func (p *Publisher) ThingStored(ctx context.Context, tenant, thingID, graphURI string) {
	entityID := ThingEntityID(tenant, thingID)
	now := time.Now()

	triples := []message.Triple{
		{
			Subject:    entityID,
			Predicate:  twin.PropEvent,
			Object:     "stored",
			Source:     tripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
		{
			Subject:    entityID,
			Predicate:  twin.PropName,
			Object:     thingID,
			Source:     tripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
		{
			Subject:    entityID,
			Predicate:  twin.PropTenant,
			Object:     tenant,
			Source:     tripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
		{
			Subject:    entityID,
			Predicate:  twin.PropGraph,
			Object:     graphURI,
			Source:     tripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
		{
			Subject:    entityID,
			Predicate:  twin.PropOccurredAt,
			Object:     now.Format(time.RFC3339),
			Source:     tripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
	}

	if err := p.publish(ctx, entityID, triples, now); err != nil {
		p.logger.Error("failed to publish stored event",
			"tenant", tenant,
			"thing_id", thingID,
			"error", err)
	}
}

// ThingDropped publishes a dropped event for a removed named graph.
func (p *Publisher) ThingDropped(ctx context.Context, tenant, graphURI string) {
	entityID := GraphEntityID(graphURI)
	now := time.Now()

	triples := []message.Triple{
		{
			Subject:    entityID,
			Predicate:  twin.PropEvent,
			Object:     "dropped",
			Source:     tripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
		{
			Subject:    entityID,
			Predicate:  twin.PropTenant,
			Object:     tenant,
			Source:     tripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
		{
			Subject:    entityID,
			Predicate:  twin.PropGraph,
			Object:     graphURI,
			Source:     tripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
		{
			Subject:    entityID,
			Predicate:  twin.PropOccurredAt,
			Object:     now.Format(time.RFC3339),
			Source:     tripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
	}

	if err := p.publish(ctx, entityID, triples, now); err != nil {
		p.logger.Error("failed to publish dropped event",
			"tenant", tenant,
			"graph", graphURI,
			"error", err)
	}
}

func (p *Publisher) publish(ctx context.Context, entityID string, triples []message.Triple, now time.Time) error {
	if p.nc == nil {
		return nil
	}

	msg := EntityIngestMessage{
		ID:        entityID,
		Triples:   triples,
		UpdatedAt: now,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal twin entity: %w", err)
	}

	if err := p.nc.PublishToStream(ctx, TwinIngestSubject, data); err != nil {
		return fmt.Errorf("publish twin entity: %w", err)
	}
	return nil
}

// ThingEntityID generates a consistent entity ID for a stored thing.
// Format: twincatalog.local.store.thing.<tenant>.<thing-id>
func ThingEntityID(tenant, thingID string) string {
	if tenant == "" {
		tenant = store.DefaultTenant
	}
	return fmt.Sprintf("twincatalog.local.store.thing.%s.%s", tenant, thingID)
}

// GraphEntityID generates an entity ID from a graph URI by keeping its
// tenant and thing segments.
// Format: twincatalog.local.store.thing.<tenant>.<thing-id>
func GraphEntityID(graphURI string) string {
	segments := strings.Split(strings.TrimSuffix(graphURI, "/"), "/")
	if len(segments) >= 2 {
		tenant := segments[len(segments)-2]
		thingID := segments[len(segments)-1]
		return fmt.Sprintf("twincatalog.local.store.thing.%s.%s", tenant, thingID)
	}
	return "twincatalog.local.store.thing." + graphURI
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/c360studio/semstreams/natsclient"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iodt2/twincatalog/config"
	"github.com/iodt2/twincatalog/dtdl"
	"github.com/iodt2/twincatalog/graph"
	"github.com/iodt2/twincatalog/store"
)

// app bundles the wired components a subcommand works with. Components
// are built lazily: catalog commands never touch NATS, and dtdl commands
// never touch the store.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	nats *natsclient.Client
}

// newApp loads configuration for a command invocation.
func newApp(opts *globalOptions) (*app, error) {
	logger := slog.Default()

	var cfg *config.Config
	var err error
	if opts.configPath != "" {
		cfg, err = config.LoadFromFile(opts.configPath)
		if err == nil {
			err = cfg.Validate()
		}
	} else {
		cfg, err = config.NewLoader(logger).Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return &app{cfg: cfg, logger: logger}, nil
}

// graphStore builds the SPARQL client and graph store. When a NATS URL
// is configured the lifecycle publisher is attached; without one the
// store works the same, just silently.
func (a *app) graphStore(ctx context.Context, withEvents bool) (*store.GraphStore, error) {
	metrics := store.NewMetrics()
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		a.logger.Warn("failed to register store metrics", "error", err)
		metrics = nil
	}

	clientOpts := []store.ClientOption{
		store.WithLogger(a.logger),
	}
	if a.cfg.Store.Timeout > 0 {
		clientOpts = append(clientOpts, store.WithHTTPClient(&http.Client{Timeout: a.cfg.Store.Timeout}))
	}
	if metrics != nil {
		clientOpts = append(clientOpts, store.WithMetrics(metrics))
	}
	if a.cfg.Store.Username != "" {
		clientOpts = append(clientOpts, store.WithCredentials(a.cfg.Store.Username, a.cfg.Store.Password))
	}

	client := store.NewClient(a.cfg.Store.URL, a.cfg.Store.Dataset, clientOpts...)

	storeOpts := []store.StoreOption{
		store.WithGraphBase(a.cfg.Store.GraphBase),
		store.WithDefaultTenant(a.cfg.Store.DefaultTenant),
		store.WithStoreLogger(a.logger),
	}

	if withEvents && a.cfg.NATS.URL != "" {
		nc, err := a.connectNATS(ctx)
		if err != nil {
			return nil, err
		}
		storeOpts = append(storeOpts, store.WithEventSink(graph.NewPublisher(nc, a.logger)))
	}

	return store.NewGraphStore(client, storeOpts...), nil
}

// registry builds the DTDL catalog, from the configured library
// directory or the embedded default.
func (a *app) registry() (*dtdl.Registry, error) {
	regOpts := []dtdl.RegistryOption{
		dtdl.WithRegistryLogger(a.logger),
	}
	if a.cfg.DTDL.LibraryDir != "" {
		regOpts = append(regOpts, dtdl.WithLibraryDir(a.cfg.DTDL.LibraryDir))
	}
	return dtdl.NewRegistry(regOpts...)
}

func (a *app) validator() (*dtdl.Validator, error) {
	reg, err := a.registry()
	if err != nil {
		return nil, err
	}
	return dtdl.NewValidator(reg), nil
}

func (a *app) connectNATS(ctx context.Context) (*natsclient.Client, error) {
	url := a.cfg.NATS.URL
	a.logger.Info("Connecting to NATS", "url", url)

	client, err := natsclient.NewClient(url,
		natsclient.WithName(appName),
		natsclient.WithMaxReconnects(-1),
		natsclient.WithReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	if err := client.Connect(ctx); err != nil {
		return nil, wrapNATSError(err, url)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.WaitForConnection(connCtx); err != nil {
		return nil, wrapNATSError(err, url)
	}

	a.nats = client
	return client, nil
}

func (a *app) close(ctx context.Context) {
	if a.nats != nil {
		a.nats.Close(ctx)
	}
}

// wrapNATSError provides guidance when the NATS connection fails.
func wrapNATSError(err error, url string) error {
	errStr := err.Error()

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no servers available") ||
		strings.Contains(errStr, "timeout") {
		return fmt.Errorf(`NATS connection failed: %w

NATS is not running at %s.

Set nats.url in the config or leave it empty to skip event publishing.`, err, url)
	}

	return fmt.Errorf("NATS connection failed: %w", err)
}

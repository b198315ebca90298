package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iodt2/twincatalog/dtdl"
	"github.com/iodt2/twincatalog/model"
	"github.com/iodt2/twincatalog/store"
)

// run wraps a subcommand body with app construction and shutdown signal
// handling.
func run(opts *globalOptions, fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		a, err := newApp(opts)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		return fn(ctx, a, args)
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func storeCmd(opts *globalOptions) *cobra.Command {
	var thingID string

	cmd := &cobra.Command{
		Use:   "store <interface.yaml> <instance.yaml>",
		Short: "Store a twin definition as a named graph",
		Long: `Store parses a TwinInterface and a TwinInstance definition, maps them
to triples, and replaces the thing's named graph in the store. The thing
ID defaults to the interface name with its catalog prefix stripped, the
same derivation drop uses, so a stored graph is always one of drop's
targets. When a NATS URL is configured a stored event is published.`,
		Args: cobra.ExactArgs(2),
		RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
			ifaceData, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read interface definition: %w", err)
			}
			iface, err := model.ParseInterfaceYAML(ifaceData)
			if err != nil {
				return err
			}

			instData, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read instance definition: %w", err)
			}
			inst, err := model.ParseInstanceYAML(instData)
			if err != nil {
				return err
			}

			gs, err := a.graphStore(ctx, true)
			if err != nil {
				return err
			}

			id := thingID
			if id == "" {
				id = store.ThingIDFromInterface(iface.Metadata.Name)
			}

			graphURI, err := gs.StoreThing(ctx, opts.tenant, id, iface, inst)
			if err != nil {
				return err
			}

			fmt.Println(graphURI)
			return nil
		}),
	}

	cmd.Flags().StringVar(&thingID, "thing-id", "", "Thing ID for the named graph (default: derived from the interface name)")
	return cmd
}

func dropCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <interface-name>",
		Short: "Drop a thing's named graphs",
		Long: `Drop removes the named graphs holding a thing's twin data. Dropping a
thing that was never stored succeeds.`,
		Args: cobra.ExactArgs(1),
		RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
			gs, err := a.graphStore(ctx, true)
			if err != nil {
				return err
			}
			return gs.DropThing(ctx, opts.tenant, args[0])
		}),
	}
}

func queryCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query <sparql | ->",
		Short: "Run a SPARQL SELECT query",
		Long: `Query runs a SELECT query against the store. Missing well-known
prefixes (ts, tsd, rdf, rdfs, xsd) are added automatically; anything
other than SELECT is rejected before it reaches the store. Pass - to
read the query from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
			query := args[0]
			if query == "-" {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("read query from stdin: %w", err)
				}
				query = string(data)
			}

			gs, err := a.graphStore(ctx, false)
			if err != nil {
				return err
			}
			results, err := gs.Client().Select(ctx, query)
			if err != nil {
				return err
			}
			return printJSON(results.Rows())
		}),
	}
}

func thingsCmd(opts *globalOptions) *cobra.Command {
	var (
		page     int
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "things [thing-id]",
		Short: "List stored things or show one by ID",
		Args:  cobra.MaximumNArgs(1),
		RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
			gs, err := a.graphStore(ctx, false)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				detail, err := gs.ThingByID(ctx, args[0], opts.tenant)
				if err != nil {
					return err
				}
				return printJSON(detail)
			}

			result, err := gs.Things(ctx, page, pageSize, opts.tenant)
			if err != nil {
				return err
			}
			return printJSON(result)
		}),
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number (1-based)")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "Things per page")
	return cmd
}

func searchCmd(opts *globalOptions) *cobra.Command {
	var (
		limit    int
		property string
		operator string
		value    float64
	)

	cmd := &cobra.Command{
		Use:   "search [text]",
		Short: "Search stored things",
		Long: `Search matches things by name, description, original ID, or graph URI.
With --property it instead finds interfaces declaring a matching
property, optionally constrained by --op and --value against the
property's declared range.`,
		Args: cobra.MaximumNArgs(1),
		RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
			gs, err := a.graphStore(ctx, false)
			if err != nil {
				return err
			}

			if property != "" {
				result, err := gs.SearchByProperty(ctx, property, operator, value, opts.tenant, limit)
				if err != nil {
					return err
				}
				return printJSON(result)
			}

			if len(args) == 0 {
				return fmt.Errorf("search text or --property is required")
			}
			things, err := gs.Search(ctx, args[0], opts.tenant, limit)
			if err != nil {
				return err
			}
			return printJSON(things)
		}),
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum results")
	cmd.Flags().StringVar(&property, "property", "", "Property name to search interfaces by")
	cmd.Flags().StringVar(&operator, "op", "", "Range comparison: gt, gte, lt, lte, eq")
	cmd.Flags().Float64Var(&value, "value", 0, "Value for the range comparison")
	return cmd
}

func interfacesCmd(opts *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "interfaces [name-filter]",
		Short: "List stored twin interfaces",
		Args:  cobra.MaximumNArgs(1),
		RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
			gs, err := a.graphStore(ctx, false)
			if err != nil {
				return err
			}

			filter := ""
			if len(args) == 1 {
				filter = args[0]
			}
			summaries, err := gs.Interfaces(ctx, filter, limit, opts.tenant)
			if err != nil {
				return err
			}
			return printJSON(summaries)
		}),
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum results")
	return cmd
}

func interfaceCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "interface <name>",
		Short: "Show a stored interface with its properties, relationships, and commands",
		Args:  cobra.ExactArgs(1),
		RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
			gs, err := a.graphStore(ctx, false)
			if err != nil {
				return err
			}
			detail, err := gs.InterfaceDetails(ctx, args[0], opts.tenant)
			if err != nil {
				return err
			}
			return printJSON(detail)
		}),
	}
}

func instancesCmd(opts *globalOptions) *cobra.Command {
	var (
		limit         int
		relationships bool
	)

	cmd := &cobra.Command{
		Use:   "instances [interface-or-instance-name]",
		Short: "List stored twin instances",
		Args:  cobra.MaximumNArgs(1),
		RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
			gs, err := a.graphStore(ctx, false)
			if err != nil {
				return err
			}

			name := ""
			if len(args) == 1 {
				name = args[0]
			}

			if relationships {
				if name == "" {
					return fmt.Errorf("--relationships requires an instance name")
				}
				rels, err := gs.InstanceRelationships(ctx, name, opts.tenant)
				if err != nil {
					return err
				}
				return printJSON(rels)
			}

			summaries, err := gs.Instances(ctx, name, limit, opts.tenant)
			if err != nil {
				return err
			}
			return printJSON(summaries)
		}),
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum results")
	cmd.Flags().BoolVar(&relationships, "relationships", false, "Show an instance's relationships instead")
	return cmd
}

// readDeviceData loads a device data JSON file:
// {"telemetry": {...}, "properties": {...}}.
func readDeviceData(path string) (dtdl.DeviceData, error) {
	var device dtdl.DeviceData
	data, err := os.ReadFile(path)
	if err != nil {
		return device, fmt.Errorf("read device data: %w", err)
	}
	if err := json.Unmarshal(data, &device); err != nil {
		return device, fmt.Errorf("parse device data: %w", err)
	}
	return device, nil
}

func validateCmd(opts *globalOptions) *cobra.Command {
	var (
		dtmi   string
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "validate <device.json>",
		Short: "Score device data against a DTDL interface",
		Args:  cobra.ExactArgs(1),
		RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
			device, err := readDeviceData(args[0])
			if err != nil {
				return err
			}
			v, err := a.validator()
			if err != nil {
				return err
			}
			return printJSON(v.Validate(device, dtmi, strict))
		}),
	}

	cmd.Flags().StringVar(&dtmi, "dtmi", "", "Interface DTMI to validate against")
	cmd.Flags().BoolVar(&strict, "strict", false, "Treat fields the interface does not define as errors")
	_ = cmd.MarkFlagRequired("dtmi")
	return cmd
}

func matchCmd(opts *globalOptions) *cobra.Command {
	var (
		thingType string
		domain    string
		topN      int
	)

	cmd := &cobra.Command{
		Use:   "match <device.json>",
		Short: "Rank catalog interfaces by fit for device data",
		Args:  cobra.ExactArgs(1),
		RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
			device, err := readDeviceData(args[0])
			if err != nil {
				return err
			}
			v, err := a.validator()
			if err != nil {
				return err
			}
			return printJSON(v.FindBestMatch(device, thingType, domain, topN))
		}),
	}

	cmd.Flags().StringVar(&thingType, "thing-type", "", "Restrict candidates to a thing type")
	cmd.Flags().StringVar(&domain, "domain", "", "Restrict candidates to a domain")
	cmd.Flags().IntVar(&topN, "top", 5, "Number of matches to return")
	return cmd
}

func suggestCmd(opts *globalOptions) *cobra.Command {
	req := dtdl.SuggestRequest{}

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest catalog interfaces for a device being designed",
		RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
			v, err := a.validator()
			if err != nil {
				return err
			}
			return printJSON(v.Suggest(req))
		}),
	}

	cmd.Flags().StringVar(&req.ThingType, "thing-type", "", "Thing type of the device")
	cmd.Flags().StringVar(&req.Domain, "domain", "", "Domain of the device")
	cmd.Flags().StringSliceVar(&req.Telemetry, "telemetry", nil, "Telemetry field names the device will emit")
	cmd.Flags().StringSliceVar(&req.Properties, "properties", nil, "Property field names the device will carry")
	cmd.Flags().StringVar(&req.Keywords, "keywords", "", "Keywords to match in names and descriptions")
	_ = cmd.MarkFlagRequired("thing-type")
	return cmd
}

func dtdlCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dtdl",
		Short: "Inspect the DTDL interface catalog",
	}
	cmd.AddCommand(
		dtdlListCmd(opts),
		dtdlGetCmd(opts),
		dtdlRequirementsCmd(opts),
		dtdlReloadCmd(opts),
		dtdlWatchCmd(opts),
	)
	return cmd
}

func dtdlWatchCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the library directory and reload on changes",
		RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
			if a.cfg.DTDL.LibraryDir == "" {
				return fmt.Errorf("dtdl.libraryDir must be set to watch")
			}

			reg, err := a.registry()
			if err != nil {
				return err
			}

			watcher, err := dtdl.NewWatcher(reg, dtdl.WatcherConfig{
				LibraryDir:    a.cfg.DTDL.LibraryDir,
				DebounceDelay: a.cfg.DTDL.Debounce,
				Logger:        a.logger,
			})
			if err != nil {
				return err
			}
			if err := watcher.Start(ctx); err != nil {
				return err
			}
			defer watcher.Stop()

			<-ctx.Done()
			return nil
		}),
	}
}

func dtdlListCmd(opts *globalOptions) *cobra.Command {
	filter := dtdl.Filter{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog interfaces",
		RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			return printJSON(reg.Search(filter))
		}),
	}

	cmd.Flags().StringVar(&filter.ThingType, "thing-type", "", "Filter by thing type")
	cmd.Flags().StringVar(&filter.Domain, "domain", "", "Filter by domain")
	cmd.Flags().StringVar(&filter.Category, "category", "", "Filter by category")
	cmd.Flags().StringSliceVar(&filter.Tags, "tag", nil, "Filter by tag (all must match)")
	cmd.Flags().StringVar(&filter.Keywords, "keywords", "", "Filter by keyword in name or description")
	return cmd
}

func dtdlGetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <dtmi>",
		Short: "Show one catalog interface",
		Args:  cobra.ExactArgs(1),
		RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			entry, ok := reg.Get(args[0])
			if !ok {
				return fmt.Errorf("interface not found: %s", args[0])
			}
			return printJSON(entry)
		}),
	}
}

func dtdlRequirementsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "requirements <dtmi>",
		Short: "Show what a device needs to implement an interface",
		Args:  cobra.ExactArgs(1),
		RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
			v, err := a.validator()
			if err != nil {
				return err
			}
			req, err := v.Requirements(args[0])
			if err != nil {
				return err
			}
			return printJSON(req)
		}),
	}
}

func dtdlReloadCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Reload the catalog from the library directory",
		RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			if err := reg.Reload(); err != nil {
				return err
			}
			fmt.Printf("catalog reloaded: %d interfaces\n", reg.Len())
			return nil
		}),
	}
}

func healthCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check store connectivity",
		RunE: run(opts, func(ctx context.Context, a *app, args []string) error {
			gs, err := a.graphStore(ctx, false)
			if err != nil {
				return err
			}
			return printJSON(gs.CheckHealth(ctx))
		}),
	}
}

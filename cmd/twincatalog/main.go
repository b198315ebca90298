// Package main provides the twincatalog binary entry point.
// Twincatalog manages digital twin definitions as tenant-scoped named
// graphs in a SPARQL store and scores device data against a DTDL
// interface catalog.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "twincatalog"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "twincatalog",
		Short: "Digital twin catalog",
		Long: `Twincatalog stores digital twin definitions as tenant-scoped named
graphs in a SPARQL store and validates device data against a DTDL
interface catalog.

It provides:
- Twin interface/instance storage over SPARQL named graphs
- Catalog queries (things, search, details, relationships)
- DTDL interface registry with compatibility scoring`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(opts.logLevel)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	pf.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVarP(&opts.tenant, "tenant", "t", "", "Tenant scope (default from config)")

	cmd.AddCommand(
		storeCmd(opts),
		dropCmd(opts),
		queryCmd(opts),
		thingsCmd(opts),
		searchCmd(opts),
		interfacesCmd(opts),
		interfaceCmd(opts),
		instancesCmd(opts),
		validateCmd(opts),
		matchCmd(opts),
		suggestCmd(opts),
		dtdlCmd(opts),
		healthCmd(opts),
		versionCmd(),
	)

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
	tenant     string
}

func configureLogging(logLevel string) {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

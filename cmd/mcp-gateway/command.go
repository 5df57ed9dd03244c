package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/converge-ai/mcp-gateway/pkg/gateway"
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

func rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "mcp-gateway",
		Short:        "Central router for Model Context Protocol communications",
		SilenceUsage: true,
		Version:      Version,
	}
	cmd.SetVersionTemplate("{{.Version}}\n")

	cmd.AddCommand(runCommand())

	return cmd
}

func runCommand() *cobra.Command {
	config := gateway.Config{
		Options: gateway.Options{
			Port:          envInt("PORT", 8005),
			CallTimeout:   30 * time.Second,
			HealthTimeout: 5 * time.Second,
			Concurrency:   16,
		},
	}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return gateway.New(config).Run(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&config.Port, "port", config.Port, "TCP port to listen on")
	flags.StringVar(&config.CatalogPath, "catalog", "", "path to a YAML catalog of extra servers to register at startup")
	flags.StringVar(&config.MirrorPath, "mirror", "", "path to a JSON file mirroring the registry (best effort)")
	flags.DurationVar(&config.CallTimeout, "call-timeout", config.CallTimeout, "timeout for tool calls and resource reads")
	flags.DurationVar(&config.HealthTimeout, "health-timeout", config.HealthTimeout, "timeout for server health probes")
	flags.IntVar(&config.Concurrency, "concurrency", config.Concurrency, "concurrency limit for batch calls and health sweeps")
	flags.BoolVar(&config.SkipDefaults, "no-defaults", config.SkipDefaults, "don't register the built-in default servers")
	flags.BoolVar(&config.Watch, "watch", config.Watch, "watch the catalog file and reconfigure the gateway on change")
	flags.BoolVar(&config.Verbose, "verbose", config.Verbose, "verbose output")

	return cmd
}

func envInt(name string, fallback int) int {
	if v := os.Getenv(name); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
		fmt.Fprintf(os.Stderr, "ignoring %s=%q: %s\n", name, v, err)
	}
	return fallback
}

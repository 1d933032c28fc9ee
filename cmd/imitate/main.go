package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/imitate/internal/config"
)

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:   "imitate",
		Short: "Run scripted sessions and query learned statements",
		Long: `imitate executes statement scripts against the text domain, records
feedback in the configured store, and reports which statement it would
choose next for a given state.`,
		SilenceUsage: true,
	}
	runCmd = &cobra.Command{
		Use:   "run [fixture]",
		Short: "Replay a fixture through a fresh session",
		Args:  cobra.ExactArgs(1),
		RunE:  runFixture,
	}
	bestCmd = &cobra.Command{
		Use:   "best [state]",
		Short: "Print the best known statement after a state",
		Args:  cobra.ExactArgs(1),
		RunE:  runBest,
	}
	functionsCmd = &cobra.Command{
		Use:   "functions",
		Short: "List the registered functions and sequences with their arity",
		Args:  cobra.NoArgs,
		RunE:  runFunctions,
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Expose the configured feedback store over gRPC",
		RunE:  runServe,
	}

	repeat      int
	jsonOut     bool
	minObs      int
	metricsAddr string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("IMITATE_CONFIG"), "YAML config file")

	runCmd.Flags().IntVar(&repeat, "repeat", 1, "replay the fixture N times against the same store")
	runCmd.Flags().BoolVar(&jsonOut, "json", false, "output results as JSON")
	bestCmd.Flags().IntVar(&minObs, "min", 0, "minimum observations (default from config)")
	serveCmd.Flags().StringVar(&metricsAddr, "metrics", "", "serve Prometheus metrics on this address")

	rootCmd.AddCommand(runCmd, bestCmd, functionsCmd, serveCmd)
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

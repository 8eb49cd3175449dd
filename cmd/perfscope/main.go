package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/studiowebux/perfscope/internal/cli"
	"github.com/studiowebux/perfscope/internal/config"
	"github.com/studiowebux/perfscope/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "perfscope",
	Short: "Page load performance analyzer",
	Long: `perfscope reads navigation and resource timing from a browser tab and
reports the load waterfall, per-domain statistics, cross-origin (opaque)
resources and the slowest requests.

The live source talks to a Chromium-based browser started with
--remote-debugging-port=9222. When the tab cannot be read, the report
falls back to synthetic data and says so.

Examples:
  perfscope analyze                        # Analyze the active tab
  perfscope analyze --file snap.json -o json
  perfscope analyze --har page.har -q "slowResources.slowAjax[].url"
  perfscope domains --page 2
  perfscope tui --synthetic
  perfscope chart --format svg --dir ./charts
  perfscope serve --addr 127.0.0.1:8787`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		return nil
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Collect and print a performance report",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Analyze(cmd.Context(), runOptions())
	},
}

var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "Print one page of the per-domain table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Domains(cmd.Context(), runOptions())
	},
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse the report interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.TUI(cmd.Context(), runOptions())
	},
}

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Export the report charts as PNG or SVG",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Chart(cmd.Context(), runOptions(), flagChartDir, flagChartFormat)
	},
}

var copyDomainsCmd = &cobra.Command{
	Use:   "copy-domains",
	Short: "Copy the distinct request domains to the clipboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.CopyDomains(cmd.Context(), runOptions(), flagDomain)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Serve(cmd.Context(), runOptions(), flagAddr)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.ConfigInit(flagConfig, flagForce, cmd.OutOrStdout())
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.ConfigShow(runOptions())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Version(cmd.Context(), flagCheck, cmd.OutOrStdout())
	},
}

// Global flags
var (
	flagConfig   string
	flagLogLevel string
)

// Source and output flags shared by the analysis commands
var (
	flagLive      bool
	flagFile      string
	flagHAR       string
	flagSynthetic bool
	flagSeed      uint64
	flagOutput    string
	flagQuery     string
	flagSave      string
	flagPage      int
	flagPageSize  int
)

// Command-specific flags
var (
	flagChartDir    string
	flagChartFormat string
	flagDomain      string
	flagAddr        string
	flagForce       bool
	flagCheck       bool
)

func runOptions() cli.RunOptions {
	return cli.RunOptions{
		Source: cli.SourceOptions{
			Live:      flagLive,
			File:      flagFile,
			HAR:       flagHAR,
			Synthetic: flagSynthetic,
			Seed:      flagSeed,
		},
		ConfigPath:   flagConfig,
		OutputFormat: flagOutput,
		Query:        flagQuery,
		SavePath:     flagSave,
		Page:         flagPage,
		PageSize:     flagPageSize,
		LogLevel:     flagLogLevel,
	}
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&flagLive, "live", false, "Read the active browser tab (default)")
	cmd.Flags().StringVarP(&flagFile, "file", "f", "", "Read a saved snapshot (json, jsonc, yaml)")
	cmd.Flags().StringVar(&flagHAR, "har", "", "Read a HAR export")
	cmd.Flags().BoolVar(&flagSynthetic, "synthetic", false, "Use generated data")
	cmd.Flags().Uint64Var(&flagSeed, "seed", 0, "Seed for generated data (0 = random)")
	cmd.MarkFlagsMutuallyExclusive("live", "file", "har", "synthetic")
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Config file (default: ./.perfscope.yaml, then ~/.perfscope/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug/info/warn/error)")

	for _, cmd := range []*cobra.Command{analyzeCmd, domainsCmd, tuiCmd, chartCmd, copyDomainsCmd} {
		addSourceFlags(cmd)
		cmd.Flags().IntVar(&flagPageSize, "page-size", 0, "Domains per page (default from config)")
	}
	for _, cmd := range []*cobra.Command{analyzeCmd, domainsCmd, tuiCmd} {
		cmd.Flags().IntVarP(&flagPage, "page", "p", 1, "Domain table page")
	}

	analyzeCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output format (text/json/yaml)")
	analyzeCmd.Flags().StringVarP(&flagQuery, "query", "q", "", "JMESPath query or $(shell command) over the JSON report")
	analyzeCmd.Flags().StringVarP(&flagSave, "save", "s", "", "Save the fetched snapshot to a file")

	domainsCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output format (text/json/yaml)")

	chartCmd.Flags().StringVar(&flagChartDir, "dir", "", "Output directory (default: ~/.perfscope/charts)")
	chartCmd.Flags().StringVar(&flagChartFormat, "format", "png", "Image format (png/svg)")

	copyDomainsCmd.Flags().StringVar(&flagDomain, "domain", "", "Copy only this domain")

	serveCmd.Flags().StringVar(&flagAddr, "addr", "127.0.0.1:8787", "Listen address")

	configInitCmd.Flags().BoolVar(&flagForce, "force", false, "Overwrite an existing file")

	versionCmd.Flags().BoolVar(&flagCheck, "check", false, "Check GitHub for a newer release")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(domainsCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(chartCmd)
	rootCmd.AddCommand(copyDomainsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/williampepple1/spa-monkey/internal/config"
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

// options holds the command line overrides for the config file
type options struct {
	configFile string
	input      string
	output     string
	format     string
	duration   time.Duration
	workers    int
	engine     string
	outputDir  string
	headless   bool
	json       bool
	seed       int64
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "spa-monkey",
		Short:         "Monkey-tests single page applications and writes PDF reports",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}

// loadConfig reads the config file (or the defaults) and applies every
// flag the user set explicitly.
func loadConfig(cmd *cobra.Command, opts *options) (*config.AppConfig, error) {
	cfg := config.Default()
	if opts.configFile != "" {
		var err error
		if cfg, err = config.Load(opts.configFile); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.IO.InputFile = opts.input
	}
	if flags.Changed("output") {
		cfg.IO.OutputFile = opts.output
	}
	if flags.Changed("format") {
		cfg.IO.OutputFormat = opts.format
	}
	if flags.Changed("duration") {
		cfg.Monkey.Duration = opts.duration
	}
	if flags.Changed("workers") {
		cfg.Scraper.Workers = opts.workers
	}
	if flags.Changed("engine") {
		cfg.Monkey.Engine = opts.engine
	}
	if flags.Changed("output-dir") {
		cfg.Report.OutputDir = opts.outputDir
	}
	if flags.Changed("headless") {
		cfg.Browser.Headless = opts.headless
	}
	if flags.Changed("json") {
		cfg.Report.JSON = opts.json
	}
	if flags.Changed("seed") {
		cfg.Monkey.Seed = opts.seed
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/williampepple1/spa-monkey/internal/browser"
	"github.com/williampepple1/spa-monkey/internal/config"
	"github.com/williampepple1/spa-monkey/internal/io"
	"github.com/williampepple1/spa-monkey/internal/loader"
	"github.com/williampepple1/spa-monkey/internal/observability"
	"github.com/williampepple1/spa-monkey/internal/proxy"
	"github.com/williampepple1/spa-monkey/internal/worker"
	"github.com/williampepple1/spa-monkey/pkg/models"
	"go.uber.org/zap"
)

func newRunCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "run [urls...]",
		Short: "Monkey-test every target and write one PDF report per session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			observability.InitializeLogger(cfg.Logger)

			urls, err := io.NewURLReader(&cfg.IO).GetURLs(args)
			if err != nil {
				return err
			}
			return runTargets(cmd, cfg, urls)
		},
	}

	defaults := config.Default()
	flags := cmd.Flags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "path to a YAML configuration file")
	flags.StringVarP(&opts.input, "input", "i", "", "file with target URLs, one per line")
	flags.StringVarP(&opts.output, "output", "o", defaults.IO.OutputFile, "file to save the run summary to")
	flags.StringVar(&opts.format, "format", defaults.IO.OutputFormat, "summary format: json or csv")
	flags.DurationVarP(&opts.duration, "duration", "d", defaults.Monkey.Duration, "how long each session runs")
	flags.IntVarP(&opts.workers, "workers", "w", defaults.Scraper.Workers, "number of concurrent sessions")
	flags.StringVar(&opts.engine, "engine", defaults.Monkey.Engine, "fuzz engine: gremlins or native")
	flags.StringVar(&opts.outputDir, "output-dir", defaults.Report.OutputDir, "directory for the PDF reports")
	flags.BoolVar(&opts.headless, "headless", defaults.Browser.Headless, "run Chrome headless")
	flags.BoolVar(&opts.json, "json", defaults.Report.JSON, "also dump each session report as JSON")
	flags.Int64Var(&opts.seed, "seed", 0, "seed for the random choices (0 picks one)")
	return cmd
}

// runTargets starts Chrome, runs one session per target on the worker pool
// and prints a summary.
func runTargets(cmd *cobra.Command, cfg *config.AppConfig, urls []string) error {
	ctx := cmd.Context()
	logger := observability.GetLogger()

	proxies, err := proxy.NewManager(&cfg.Proxies)
	if err != nil {
		return fmt.Errorf("proxy: %w", err)
	}
	ld := loader.NewLoader(loader.NewFetcher(&cfg.Loader, cfg.Scraper.UserAgents, proxies, logger), logger)

	b := browser.NewBrowser(ctx, &cfg.Browser, proxies.ChromeProxyServer(), logger)
	defer b.Close()
	open := func() (browser.Page, func(), error) {
		p, err := b.NewPage()
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	}

	logger.Info("Starting monkey tests.",
		zap.Int("targets", len(urls)),
		zap.Int("workers", cfg.Scraper.Workers),
		zap.Duration("duration", cfg.Monkey.Duration),
		zap.String("engine", cfg.Monkey.Engine))

	runner := worker.NewSessionRunner(cfg, open, ld, logger)
	pool := worker.NewPool(cfg, runner.Run, urls, logger)
	pool.Start(ctx)
	pool.AddJobs(urls)

	results := make([]models.Result, 0, len(urls))
	for res := range pool.Results {
		results = append(results, res)
	}
	printSummary(cmd, results)

	if cfg.IO.OutputFile != "" {
		if err := io.NewResultWriter(&cfg.IO).SaveToFile(results); err != nil {
			return fmt.Errorf("save results: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Results saved to %s\n", cfg.IO.OutputFile)
	}
	return ctx.Err()
}

func printSummary(cmd *cobra.Command, results []models.Result) {
	out := cmd.OutOrStdout()
	failures := 0
	for _, r := range results {
		if r.Err != "" {
			failures++
			fmt.Fprintf(out, "FAIL %s: %s\n", r.Target, r.Err)
			if r.ReportPath == "" {
				continue
			}
		} else {
			fmt.Fprintf(out, "OK   %s in %v\n", r.Target, r.Duration.Round(time.Millisecond))
		}
		fmt.Fprintf(out, "     errors: %d, console logs: %d, visited: %d, screenshots: %d\n",
			r.Errors, r.ConsoleLogs, r.Visited, r.Screenshots)
		fmt.Fprintf(out, "     report: %s\n", r.ReportPath)
		if r.JSONPath != "" {
			fmt.Fprintf(out, "     json:   %s\n", r.JSONPath)
		}
	}
	fmt.Fprintf(out, "All targets have been processed. Success: %d, Failures: %d\n", len(results)-failures, failures)
}

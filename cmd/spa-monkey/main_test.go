package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/williampepple1/spa-monkey/internal/config"
	spaio "github.com/williampepple1/spa-monkey/internal/io"
	"github.com/williampepple1/spa-monkey/pkg/models"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func createTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)

	out, err = execute(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)
}

// runCmdWithFlags parses args onto a fresh run command without executing it.
func runCmdWithFlags(t *testing.T, args ...string) (*cobra.Command, *options) {
	t.Helper()
	cmd := newRunCmd()
	require.NoError(t, cmd.ParseFlags(args))

	// The options live in the RunE closure, so read them back from the flags.
	opts := &options{}
	flags := cmd.Flags()
	opts.configFile, _ = flags.GetString("config")
	opts.input, _ = flags.GetString("input")
	opts.output, _ = flags.GetString("output")
	opts.format, _ = flags.GetString("format")
	opts.duration, _ = flags.GetDuration("duration")
	opts.workers, _ = flags.GetInt("workers")
	opts.engine, _ = flags.GetString("engine")
	opts.outputDir, _ = flags.GetString("output-dir")
	opts.headless, _ = flags.GetBool("headless")
	opts.json, _ = flags.GetBool("json")
	opts.seed, _ = flags.GetInt64("seed")
	return cmd, opts
}

func TestLoadConfig_Defaults(t *testing.T) {
	cmd, opts := runCmdWithFlags(t)
	cfg, err := loadConfig(cmd, opts)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Monkey, cfg.Monkey)
	assert.Equal(t, config.Default().Report, cfg.Report)
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := createTempConfig(t, `
scraper:
  workers: 4
monkey:
  duration: 30s
  engine: native
report:
  output_dir: from-file
`)
	cmd, opts := runCmdWithFlags(t, "--config", path, "--duration", "5s", "--json", "--headless=false")
	cfg, err := loadConfig(cmd, opts)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Monkey.Duration)
	assert.Equal(t, 4, cfg.Scraper.Workers, "unset flags keep the file value")
	assert.Equal(t, config.EngineNative, cfg.Monkey.Engine)
	assert.Equal(t, "from-file", cfg.Report.OutputDir)
	assert.True(t, cfg.Report.JSON)
	assert.False(t, cfg.Browser.Headless)
}

func TestLoadConfig_Invalid(t *testing.T) {
	cmd, opts := runCmdWithFlags(t, "--engine", "chaos")
	_, err := loadConfig(cmd, opts)
	assert.ErrorContains(t, err, "invalid config")

	cmd, opts = runCmdWithFlags(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = loadConfig(cmd, opts)
	assert.ErrorContains(t, err, "load config")
}

func TestRun_NoTargets(t *testing.T) {
	_, err := execute(t, "run", "--output", "")
	assert.ErrorIs(t, err, spaio.ErrNoTargets)
}

func TestRun_InvalidWorkers(t *testing.T) {
	_, err := execute(t, "run", "--workers", "0", "https://app.test/")
	assert.ErrorContains(t, err, "invalid config")
}

func TestPrintSummary(t *testing.T) {
	cmd := &cobra.Command{}
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)

	printSummary(cmd, []models.Result{
		{Target: "https://a.test/", Duration: 2 * time.Second, Errors: 1, ConsoleLogs: 4, Visited: 2, Screenshots: 8, ReportPath: "r.pdf"},
		{Target: "https://b.test/", Err: "chrome not found"},
	})

	out := buf.String()
	assert.Contains(t, out, "OK   https://a.test/ in 2s")
	assert.Contains(t, out, "errors: 1, console logs: 4, visited: 2, screenshots: 8")
	assert.Contains(t, out, "FAIL https://b.test/: chrome not found")
	assert.Contains(t, out, "Success: 1, Failures: 1")
}

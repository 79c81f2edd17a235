package io

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/williampepple1/spa-monkey/internal/config"
)

// ErrNoTargets is returned when no source yields a target URL
var ErrNoTargets = errors.New("no target URLs")

// URLReader reads target URLs from the command line, a file or the config
type URLReader struct {
	Config *config.IOConfig
}

// NewURLReader creates a new URL reader
func NewURLReader(config *config.IOConfig) *URLReader {
	return &URLReader{
		Config: config,
	}
}

// ReadFromFile reads URLs from a file, one URL per line. Blank lines and
// lines starting with # are skipped.
func (r *URLReader) ReadFromFile(filename string) ([]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var urls []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return urls, nil
}

// GetURLs returns the targets to test. Explicit args win over the input
// file, which wins over the targets listed in the config.
func (r *URLReader) GetURLs(args []string) ([]string, error) {
	var urls []string
	switch {
	case len(args) > 0:
		urls = args
	case r.Config.InputFile != "":
		var err error
		if urls, err = r.ReadFromFile(r.Config.InputFile); err != nil {
			return nil, fmt.Errorf("read targets from %s: %w", r.Config.InputFile, err)
		}
	default:
		urls = r.Config.Targets
	}

	if len(urls) == 0 {
		return nil, ErrNoTargets
	}
	for _, u := range urls {
		if err := checkTarget(u); err != nil {
			return nil, err
		}
	}
	return urls, nil
}

func checkTarget(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid target %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid target %q: want an absolute http(s) URL", raw)
	}
	return nil
}

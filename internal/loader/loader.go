package loader

import (
	"context"
	"fmt"

	"github.com/williampepple1/spa-monkey/internal/browser"
	"go.uber.org/zap"
)

// Loader injects external scripts into a page, one after another
type Loader struct {
	fetcher *Fetcher
	logger  *zap.Logger
}

// NewLoader creates a script loader
func NewLoader(fetcher *Fetcher, logger *zap.Logger) *Loader {
	return &Loader{
		fetcher: fetcher,
		logger:  logger.Named("loader"),
	}
}

// Load downloads each script in order and injects it into p. A script is
// registered for every future document before it is evaluated in the current
// one, so libraries survive full-page navigations. The next script is only
// fetched once the previous one has been evaluated; the first failure stops
// the sequence.
func (l *Loader) Load(ctx context.Context, p browser.Page, urls []string) error {
	for i, url := range urls {
		src, err := l.fetcher.Fetch(ctx, url)
		if err != nil {
			return fmt.Errorf("load script %d (%s): %w", i+1, url, err)
		}
		if err := p.AddScript(ctx, string(src)); err != nil {
			return fmt.Errorf("register script %s: %w", url, err)
		}
		if err := p.Evaluate(ctx, string(src), nil); err != nil {
			return fmt.Errorf("evaluate script %s: %w", url, err)
		}
		l.logger.Debug("Script injected.", zap.String("url", url), zap.Int("bytes", len(src)))
	}
	return nil
}

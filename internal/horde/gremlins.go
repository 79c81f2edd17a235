package horde

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/williampepple1/spa-monkey/internal/browser"
	"go.uber.org/zap"
)

// gremlinsSpecies maps species names to their gremlins.js constructors.
var gremlinsSpecies = map[string]string{
	"clicker":    "gremlins.species.clicker()",
	"formFiller": "gremlins.species.formFiller()",
	"typer":      "gremlins.species.typer({ allAtOnce: false })",
	"scroller":   "gremlins.species.scroller()",
}

// hordeHandle is where the running horde is kept so it can be stopped.
const hordeHandle = "window.__spaMonkeyHorde"

const stopJS = `(function(){ if (` + hordeHandle + `) { ` + hordeHandle + `.stop(); ` + hordeHandle + ` = null; } })()`

// stopTimeout bounds the stop call made after the session context ended.
const stopTimeout = 5 * time.Second

// Gremlins unleashes a gremlins.js horde inside the page. gremlins.js must
// already be injected (see the loader).
type Gremlins struct {
	page   browser.Page
	delay  time.Duration
	script func(nb int) string
	logger *zap.Logger
}

// NewGremlins creates an in-page horde with the given species
func NewGremlins(p browser.Page, species []string, delay time.Duration, logger *zap.Logger) (*Gremlins, error) {
	ctors := make([]string, 0, len(species))
	for _, s := range species {
		ctor, ok := gremlinsSpecies[s]
		if !ok {
			return nil, fmt.Errorf("unknown species %q", s)
		}
		ctors = append(ctors, ctor)
	}
	list := strings.Join(ctors, ",\n\t\t")
	delayMs := delay.Milliseconds()

	return &Gremlins{
		page:  p,
		delay: delay,
		script: func(nb int) string {
			return fmt.Sprintf(`(function() {
	const horde = gremlins.createHorde({
		species: [
		%s
		],
		strategies: [gremlins.strategies.distribution({ delay: %d, nb: %d })]
	});
	%s = horde;
	return horde.unleash().then(function() { return true; });
})()`, list, delayMs, nb, hordeHandle)
		},
		logger: logger.Named("gremlins"),
	}, nil
}

// Script returns the horde script for the given number of actions
func (g *Gremlins) Script(nb int) string {
	return g.script(nb)
}

// Unleash starts the horde and waits for it to finish. A navigation destroys
// the running horde with its document; it is then started again in the new
// document for the remaining time.
func (g *Gremlins) Unleash(ctx context.Context, duration time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()
	deadline, _ := ctx.Deadline()

	for {
		remaining := time.Until(deadline)
		nb := int(remaining / g.delay)
		if nb <= 0 {
			return nil
		}

		var done bool
		err := g.page.EvaluateAwait(ctx, g.script(nb), &done)
		if ctx.Err() != nil {
			g.stop()
			return nil
		}
		if err == nil {
			return nil
		}

		g.logger.Debug("Horde interrupted, restarting in the current document.", zap.Error(err))
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			g.stop()
			return nil
		}
	}
}

// stop halts the in-page horde. The session context is already done, so
// a fresh one is used.
func (g *Gremlins) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := g.page.Evaluate(ctx, stopJS, nil); err != nil {
		g.logger.Debug("Failed to stop horde.", zap.Error(err))
	}
}

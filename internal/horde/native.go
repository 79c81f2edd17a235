package horde

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/williampepple1/spa-monkey/internal/browser"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Native drives the species from Go. Each action is one species picked
// uniformly at random, with actions spaced by delay.
type Native struct {
	page    browser.Page
	species []Species
	limiter *rate.Limiter
	rng     *rand.Rand
	logger  *zap.Logger

	actions map[string]int
}

// NewNative creates a Go-driven horde
func NewNative(p browser.Page, species []Species, delay time.Duration, rng *rand.Rand, logger *zap.Logger) *Native {
	return &Native{
		page:    p,
		species: species,
		limiter: rate.NewLimiter(rate.Every(delay), 1),
		rng:     rng,
		logger:  logger.Named("horde"),
		actions: make(map[string]int),
	}
}

// Actions returns how many times each species acted
func (n *Native) Actions() map[string]int {
	out := make(map[string]int, len(n.actions))
	for k, v := range n.actions {
		out[k] = v
	}
	return out
}

// Unleash runs species until duration elapses or ctx ends. Failing actions
// are logged and the horde carries on.
func (n *Native) Unleash(ctx context.Context, duration time.Duration) error {
	if len(n.species) == 0 {
		return errors.New("horde has no species")
	}
	ctx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	for {
		if err := n.limiter.Wait(ctx); err != nil {
			// Wait fails once the deadline is closer than the next action.
			return nil
		}

		target := &Target{Page: n.page, Rand: n.rng}
		if err := n.page.Evaluate(ctx, viewportJS, &target.Viewport); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			n.logger.Debug("Viewport probe failed.", zap.Error(err))
			continue
		}

		s := n.species[n.rng.Intn(len(n.species))]
		if err := s.Act(ctx, target); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			n.logger.Debug("Species action failed.", zap.String("species", s.Name()), zap.Error(err))
			continue
		}
		n.actions[s.Name()]++
	}
}

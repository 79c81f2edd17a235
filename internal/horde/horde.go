// Package horde unleashes randomized UI interactions ("species") on a page.
package horde

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/williampepple1/spa-monkey/internal/browser"
	"github.com/williampepple1/spa-monkey/internal/config"
	"go.uber.org/zap"
)

// Engine runs a horde against a page until duration elapses or ctx ends
type Engine interface {
	Unleash(ctx context.Context, duration time.Duration) error
}

// New builds the engine selected by cfg.Engine
func New(cfg *config.MonkeyConfig, p browser.Page, logger *zap.Logger) (Engine, error) {
	switch cfg.Engine {
	case config.EngineGremlins:
		return NewGremlins(p, cfg.Species, cfg.HordeDelay, logger)
	case config.EngineNative:
		species, err := SpeciesByName(cfg.Species)
		if err != nil {
			return nil, err
		}
		return NewNative(p, species, cfg.HordeDelay, newRand(cfg.Seed), logger), nil
	default:
		return nil, fmt.Errorf("unknown horde engine %q", cfg.Engine)
	}
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

package session

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/williampepple1/spa-monkey/internal/browser"
	"github.com/williampepple1/spa-monkey/internal/capture"
	"github.com/williampepple1/spa-monkey/internal/config"
	"github.com/williampepple1/spa-monkey/internal/extraction"
	"github.com/williampepple1/spa-monkey/internal/forms"
	"github.com/williampepple1/spa-monkey/internal/horde"
	"github.com/williampepple1/spa-monkey/internal/loader"
	"github.com/williampepple1/spa-monkey/internal/report"
	"github.com/williampepple1/spa-monkey/pkg/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Session monkey-tests one page for a fixed duration
type Session struct {
	Config *config.AppConfig
	// Engine overrides the horde built from Config.Monkey when set.
	Engine horde.Engine

	page      browser.Page
	loader    *loader.Loader
	seeder    *forms.Seeder
	extractor *extraction.Extractor
	logger    *zap.Logger

	// Set up by Run for the lifetime of one session.
	recorder *report.Recorder
	console  *capture.Console

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New creates a session driving p. ld may be nil when no scripts need injecting.
func New(cfg *config.AppConfig, p browser.Page, ld *loader.Loader, logger *zap.Logger) *Session {
	seed := cfg.Monkey.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Session{
		Config:    cfg,
		page:      p,
		loader:    ld,
		seeder:    forms.NewSeeder(&cfg.Forms, logger),
		extractor: extraction.NewExtractor(),
		logger:    logger.Named("session"),
		rng:       rand.New(rand.NewSource(seed)),
	}
}

func (s *Session) float64() float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64()
}

func (s *Session) intn(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

// Run opens target, prepares the page and unleashes the horde plus the
// periodic screenshot, navigation and interaction tasks. When the configured
// duration elapses everything is cancelled at once and the report is
// returned. A report is returned even when err is non-nil.
func (s *Session) Run(ctx context.Context, target string) (*models.SessionReport, error) {
	id := uuid.NewString()
	log := s.logger.With(zap.String("session", id), zap.String("target", target))

	s.begin(id, target)

	if err := s.prepare(ctx, target); err != nil {
		return s.recorder.Close(), err
	}

	engine := s.Engine
	if engine == nil {
		var err error
		if engine, err = horde.New(&s.Config.Monkey, s.page, s.logger); err != nil {
			return s.recorder.Close(), err
		}
	}

	duration := s.Config.Monkey.Duration
	log.Info("Starting SPA + Dynamic Content Monkey Test.", zap.Duration("duration", duration))

	runCtx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		if err := engine.Unleash(gctx, duration); err != nil {
			return fmt.Errorf("horde: %w", err)
		}
		return nil
	})
	g.Go(func() error { return s.every(gctx, "screenshot", s.Config.Monkey.ScreenshotInterval, s.CaptureScreenshot) })
	g.Go(func() error { return s.every(gctx, "navigate", s.Config.Monkey.NavigateInterval, s.NavigateRandom) })
	g.Go(func() error { return s.every(gctx, "interact", s.Config.Monkey.InteractInterval, s.Interact) })

	<-gctx.Done()
	// Nothing recorded after this point, even by tasks still in flight.
	s.recorder.Seal()
	err := g.Wait()

	final := s.recorder.Close()
	log.Info("Monkey Test Finished!",
		zap.Int("errors", len(final.Errors)),
		zap.Int("console_logs", len(final.Console)),
		zap.Int("visited", len(final.Visited)),
		zap.Int("screenshots", len(final.Screenshots)))

	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	return final, err
}

// begin sets up the recorder and attaches the capture layer to the page.
func (s *Session) begin(id, target string) {
	s.recorder = report.NewRecorder(id, target, s.logger)
	s.recorder.Start()
	s.console = capture.NewConsole(s.recorder, s.logger, s.Config.Capture.Suppress, target)
	capture.Attach(s.page, s.console)
}

// prepare navigates to target, injects the configured scripts and seeds forms.
func (s *Session) prepare(ctx context.Context, target string) error {
	if err := s.page.Navigate(ctx, target); err != nil {
		return fmt.Errorf("navigate to %s: %w", target, err)
	}
	if loc, err := s.page.Location(ctx); err == nil && loc != target {
		// Redirects land on a different start URL.
		s.recorder.Visit(loc)
		s.console.SetURL(loc)
	}

	if s.loader != nil && len(s.Config.Loader.Scripts) > 0 {
		if err := s.loader.Load(ctx, s.page, s.Config.Loader.Scripts); err != nil {
			return fmt.Errorf("load dependencies: %w", err)
		}
	}

	if _, err := s.seeder.Seed(ctx, s.page); err != nil {
		return fmt.Errorf("seed forms: %w", err)
	}
	return nil
}

// every runs fn each interval until ctx ends. The first run happens one
// interval after the start; task failures are logged and never stop the session.
func (s *Session) every(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) error {
	if ctx.Err() != nil {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if ctx.Err() != nil {
				return nil
			}
			if err := fn(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("Periodic task failed.", zap.String("task", name), zap.Error(err))
			}
		}
	}
}

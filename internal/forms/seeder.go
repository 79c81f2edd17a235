package forms

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/williampepple1/spa-monkey/internal/browser"
	"github.com/williampepple1/spa-monkey/internal/config"
	"go.uber.org/zap"
)

const formExistsJS = `document.querySelector('form') !== null`

// fillFormsJS overwrites every input of every form and returns how many it touched.
const fillFormsJS = `(function(values) {
	let n = 0;
	document.querySelectorAll('form').forEach(function(form) {
		form.querySelectorAll('input').forEach(function(input) {
			if (input.type === 'email') input.value = values.email;
			else if (input.type === 'password') input.value = values.password;
			else input.value = values.placeholder;
			n++;
		});
	});
	return n;
})(%s)`

// Seeder pre-fills sign-up and login forms before the horde starts
type Seeder struct {
	Config *config.FormsConfig
	logger *zap.Logger
}

// NewSeeder creates a form seeder
func NewSeeder(cfg *config.FormsConfig, logger *zap.Logger) *Seeder {
	return &Seeder{
		Config: cfg,
		logger: logger.Named("forms"),
	}
}

// Seed waits for a form to appear and fills every input inside every form.
// If no form shows up within the wait timeout it does nothing and returns 0.
func (s *Seeder) Seed(ctx context.Context, p browser.Page) (int, error) {
	found, err := s.waitForForm(ctx, p)
	if err != nil {
		return 0, err
	}
	if !found {
		s.logger.Debug("No form appeared, skipping form seeding.", zap.Duration("waited", s.Config.WaitTimeout))
		return 0, nil
	}

	values, err := json.Marshal(map[string]string{
		"email":       s.Config.Email,
		"password":    s.Config.Password,
		"placeholder": s.Config.Placeholder,
	})
	if err != nil {
		return 0, err
	}

	var filled int
	if err := p.Evaluate(ctx, fmt.Sprintf(fillFormsJS, values), &filled); err != nil {
		return 0, fmt.Errorf("fill forms: %w", err)
	}
	s.logger.Info("Forms seeded.", zap.Int("inputs", filled))
	return filled, nil
}

// waitForForm polls for a form every PollInterval until WaitTimeout elapses.
// Only cancellation of ctx is reported as an error.
func (s *Seeder) waitForForm(ctx context.Context, p browser.Page) (bool, error) {
	ticker := time.NewTicker(s.Config.PollInterval)
	defer ticker.Stop()
	timeout := time.NewTimer(s.Config.WaitTimeout)
	defer timeout.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timeout.C:
			return false, nil
		case <-ticker.C:
			var exists bool
			if err := p.Evaluate(ctx, formExistsJS, &exists); err != nil {
				if ctx.Err() != nil {
					return false, ctx.Err()
				}
				s.logger.Debug("Form probe failed.", zap.Error(err))
				continue
			}
			if exists {
				return true, nil
			}
		}
	}
}

package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/williampepple1/spa-monkey/pkg/models"
	"go.uber.org/zap"
)

// interactJS clicks every visible button, fills empty visible text inputs
// and scrolls to a fraction of the page height.
const interactJS = `(function(placeholder, ratio) {
	let clicked = 0, filled = 0;
	document.querySelectorAll('button, input[type="button"], input[type="submit"]').forEach(function(btn) {
		if (btn.offsetParent !== null) { btn.click(); clicked++; }
	});
	document.querySelectorAll('input[type="text"], input[type="email"], textarea').forEach(function(input) {
		if (input.offsetParent !== null && !input.value) { input.value = placeholder; filled++; }
	});
	window.scrollTo(0, ratio * document.body.scrollHeight);
	return { clicked: clicked, filled: filled };
})(%s, %f)`

// InteractResult counts what one interaction sweep touched
type InteractResult struct {
	Clicked int `json:"clicked"`
	Filled  int `json:"filled"`
}

// CaptureScreenshot takes a full-page screenshot and records it
func (s *Session) CaptureScreenshot(ctx context.Context) error {
	png, err := s.page.FullScreenshot(ctx)
	if err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	url := s.console.URL()
	s.recorder.AddScreenshot(models.Screenshot{URL: url, PNG: png})
	s.console.Log("Screenshot captured at " + url)
	return nil
}

// NavigateRandom moves to a random internal link that has not been visited yet.
// It does nothing when every internal link was already visited.
func (s *Session) NavigateRandom(ctx context.Context) error {
	current, err := s.page.Location(ctx)
	if err != nil {
		return fmt.Errorf("read location: %w", err)
	}
	html, err := s.page.OuterHTML(ctx)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	links, err := s.extractor.InternalLinks(html, current)
	if err != nil {
		return fmt.Errorf("extract links: %w", err)
	}

	candidates := s.recorder.Unvisited(links)
	if len(candidates) == 0 {
		return nil
	}
	next := candidates[s.intn(len(candidates))]

	s.console.Log("Navigating to:", next)
	s.recorder.Visit(next)
	if err := s.page.Navigate(ctx, next); err != nil {
		return fmt.Errorf("navigate to %s: %w", next, err)
	}
	s.console.SetURL(next)
	return nil
}

// Interact clicks visible controls, fills empty inputs and scrolls randomly
func (s *Session) Interact(ctx context.Context) error {
	placeholder, err := json.Marshal(s.Config.Forms.Placeholder)
	if err != nil {
		return err
	}
	var res InteractResult
	script := fmt.Sprintf(interactJS, placeholder, s.float64())
	if err := s.page.Evaluate(ctx, script, &res); err != nil {
		return fmt.Errorf("interact: %w", err)
	}
	s.logger.Debug("Interaction sweep done.", zap.Int("clicked", res.Clicked), zap.Int("filled", res.Filled))
	return nil
}

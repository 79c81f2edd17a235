// Package browsertest provides an in-memory browser.Page for tests.
package browsertest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/williampepple1/spa-monkey/internal/browser"
)

// Click is one recorded mouse click
type Click struct {
	X, Y float64
}

// FakePage records every call and answers from its fields. EvalFunc, when
// set, produces the result of Evaluate and EvaluateAwait.
type FakePage struct {
	mu sync.Mutex

	URL        string
	HTML       string
	PNG        []byte
	EvalFunc   func(expression string) (interface{}, error)
	NavigateFn func(url string) error
	ShotErr    error
	// Redirects maps a requested URL to the URL the page lands on.
	Redirects map[string]string

	Evaluated   []string
	Navigations []string
	Scripts     []string
	Clicks      []Click
	Keys        []string
	Screenshots int

	listeners []func(ev interface{})
}

var _ browser.Page = (*FakePage)(nil)

// NewFakePage returns a page sitting at url
func NewFakePage(url string) *FakePage {
	return &FakePage{URL: url}
}

func (p *FakePage) eval(ctx context.Context, expression string, res interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.Evaluated = append(p.Evaluated, expression)
	fn := p.EvalFunc
	p.mu.Unlock()

	if fn == nil {
		return nil
	}
	v, err := fn(expression)
	if err != nil || res == nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, res)
}

func (p *FakePage) Evaluate(ctx context.Context, expression string, res interface{}) error {
	return p.eval(ctx, expression, res)
}

func (p *FakePage) EvaluateAwait(ctx context.Context, expression string, res interface{}) error {
	return p.eval(ctx, expression, res)
}

func (p *FakePage) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.Navigations = append(p.Navigations, url)
	fn := p.NavigateFn
	p.mu.Unlock()

	if fn != nil {
		if err := fn(url); err != nil {
			return err
		}
	}
	p.mu.Lock()
	p.URL = url
	if to, ok := p.Redirects[url]; ok {
		p.URL = to
	}
	p.mu.Unlock()
	return nil
}

func (p *FakePage) Location(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.URL, ctx.Err()
}

func (p *FakePage) OuterHTML(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.HTML, ctx.Err()
}

func (p *FakePage) FullScreenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ShotErr != nil {
		return nil, p.ShotErr
	}
	p.Screenshots++
	return p.PNG, nil
}

func (p *FakePage) AddScript(ctx context.Context, source string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Scripts = append(p.Scripts, source)
	return ctx.Err()
}

func (p *FakePage) Listen(fn func(ev interface{})) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Emit delivers ev to every listener, like a CDP event from the tab
func (p *FakePage) Emit(ev interface{}) {
	p.mu.Lock()
	listeners := append([]func(ev interface{}){}, p.listeners...)
	p.mu.Unlock()
	for _, fn := range listeners {
		fn(ev)
	}
}

func (p *FakePage) MouseClick(ctx context.Context, x, y float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Clicks = append(p.Clicks, Click{X: x, Y: y})
	return ctx.Err()
}

func (p *FakePage) SendKeys(ctx context.Context, keys string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Keys = append(p.Keys, keys)
	return ctx.Err()
}

// Snapshot returns copies of the recorded calls under the lock
func (p *FakePage) Snapshot() (evaluated, navigations, scripts []string, screenshots int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.Evaluated...),
		append([]string(nil), p.Navigations...),
		append([]string(nil), p.Scripts...),
		p.Screenshots
}

// SetHTML replaces the document returned by OuterHTML
func (p *FakePage) SetHTML(html string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.HTML = html
}

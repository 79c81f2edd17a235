package horde

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/williampepple1/spa-monkey/internal/browser"
)

// Viewport is the visible area and scrollable size of a document
type Viewport struct {
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	ScrollWidth  float64 `json:"scrollWidth"`
	ScrollHeight float64 `json:"scrollHeight"`
}

const viewportJS = `({
	width: window.innerWidth,
	height: window.innerHeight,
	scrollWidth: document.documentElement.scrollWidth,
	scrollHeight: document.documentElement.scrollHeight
})`

// Target is what a species acts on
type Target struct {
	Page     browser.Page
	Rand     *rand.Rand
	Viewport Viewport
}

func (t *Target) point() (float64, float64) {
	return t.Rand.Float64() * t.Viewport.Width, t.Rand.Float64() * t.Viewport.Height
}

// Species is one kind of random interaction
type Species interface {
	Name() string
	Act(ctx context.Context, t *Target) error
}

// SpeciesByName resolves configured species names in order
func SpeciesByName(names []string) ([]Species, error) {
	out := make([]Species, 0, len(names))
	for _, n := range names {
		switch n {
		case "clicker":
			out = append(out, Clicker{})
		case "formFiller":
			out = append(out, FormFiller{})
		case "typer":
			out = append(out, Typer{})
		case "scroller":
			out = append(out, Scroller{})
		default:
			return nil, fmt.Errorf("unknown species %q", n)
		}
	}
	return out, nil
}

// Clicker clicks a random point of the viewport
type Clicker struct{}

func (Clicker) Name() string { return "clicker" }

func (Clicker) Act(ctx context.Context, t *Target) error {
	x, y := t.point()
	return t.Page.MouseClick(ctx, x, y)
}

// typerChars is the alphabet the typer draws from.
const typerChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 "

// Typer focuses the element under a random point and types one character
type Typer struct{}

func (Typer) Name() string { return "typer" }

func (Typer) Act(ctx context.Context, t *Target) error {
	x, y := t.point()
	focus := fmt.Sprintf(`(function(){ const el = document.elementFromPoint(%f, %f); if (el && el.focus) el.focus(); })()`, x, y)
	if err := t.Page.Evaluate(ctx, focus, nil); err != nil {
		return err
	}
	return t.Page.SendKeys(ctx, string(typerChars[t.Rand.Intn(len(typerChars))]))
}

// fillOneJS fills a single random visible form control, choosing a value
// appropriate for its type. The argument picks the element.
const fillOneJS = `(function(pick) {
	const els = Array.from(document.querySelectorAll('input, textarea, select'))
		.filter(function(el) { return el.offsetParent !== null && !el.disabled && !el.readOnly; });
	if (!els.length) return '';
	const el = els[Math.floor(pick * els.length)];
	const rnd = Math.random().toString(36).slice(2, 10);
	if (el.tagName === 'SELECT') {
		if (el.options.length) el.selectedIndex = Math.floor(Math.random() * el.options.length);
	} else if (el.type === 'checkbox' || el.type === 'radio') {
		el.checked = !el.checked;
	} else if (el.type === 'email') {
		el.value = rnd + '@example.com';
	} else if (el.type === 'number' || el.type === 'tel') {
		el.value = String(Math.floor(Math.random() * 1000000));
	} else {
		el.value = rnd;
	}
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return el.tagName.toLowerCase() + (el.type ? ':' + el.type : '');
})(%f)`

// FormFiller fills a random visible form control with a random value
type FormFiller struct{}

func (FormFiller) Name() string { return "formFiller" }

func (FormFiller) Act(ctx context.Context, t *Target) error {
	return t.Page.Evaluate(ctx, fmt.Sprintf(fillOneJS, t.Rand.Float64()), nil)
}

// Scroller scrolls to a random position of the document
type Scroller struct{}

func (Scroller) Name() string { return "scroller" }

func (Scroller) Act(ctx context.Context, t *Target) error {
	maxX := t.Viewport.ScrollWidth - t.Viewport.Width
	maxY := t.Viewport.ScrollHeight - t.Viewport.Height
	if maxX < 0 {
		maxX = 0
	}
	if maxY < 0 {
		maxY = 0
	}
	x, y := t.Rand.Float64()*maxX, t.Rand.Float64()*maxY
	return t.Page.Evaluate(ctx, fmt.Sprintf(`window.scrollTo(%f, %f)`, x, y), nil)
}

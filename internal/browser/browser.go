package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/williampepple1/spa-monkey/internal/config"
	"go.uber.org/zap"
)

// Page is the set of browser operations the monkey session needs.
// It is implemented by ChromePage and faked in tests.
type Page interface {
	// Evaluate runs expression in the current document and decodes the result into res (may be nil)
	Evaluate(ctx context.Context, expression string, res interface{}) error
	// EvaluateAwait is Evaluate for expressions returning a promise
	EvaluateAwait(ctx context.Context, expression string, res interface{}) error
	Navigate(ctx context.Context, url string) error
	Location(ctx context.Context) (string, error)
	OuterHTML(ctx context.Context) (string, error)
	// FullScreenshot captures the whole page as PNG
	FullScreenshot(ctx context.Context) ([]byte, error)
	// AddScript registers source to run in every new document
	AddScript(ctx context.Context, source string) error
	// Listen subscribes fn to every CDP event of the tab
	Listen(fn func(ev interface{}))
	MouseClick(ctx context.Context, x, y float64) error
	SendKeys(ctx context.Context, keys string) error
}

// Browser owns one Chrome process shared by every session tab
type Browser struct {
	Config *config.BrowserConfig
	logger *zap.Logger

	allocCtx    context.Context
	cancelAlloc context.CancelFunc
}

// NewBrowser configures a Chrome allocator. Chrome itself starts lazily
// when the first tab runs an action.
func NewBrowser(ctx context.Context, cfg *config.BrowserConfig, proxyServer string, logger *zap.Logger) *Browser {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.UserAgent(cfg.UserAgent),
	)
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if proxyServer != "" {
		opts = append(opts, chromedp.ProxyServer(proxyServer))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	return &Browser{
		Config:      cfg,
		logger:      logger.Named("browser"),
		allocCtx:    allocCtx,
		cancelAlloc: cancel,
	}
}

// NewPage opens a new tab. The caller must Close it.
func (b *Browser) NewPage() (*ChromePage, error) {
	tabCtx, cancel := chromedp.NewContext(b.allocCtx,
		chromedp.WithLogf(b.logger.Sugar().Debugf),
		chromedp.WithErrorf(b.logger.Sugar().Debugf),
	)
	// The first Run starts Chrome (on first use) and attaches the tab.
	// Runtime must be enabled for console and exception events.
	if err := chromedp.Run(tabCtx, runtime.Enable()); err != nil {
		cancel()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	return &ChromePage{ctx: tabCtx, cancel: cancel}, nil
}

// Close shuts Chrome down
func (b *Browser) Close() {
	b.cancelAlloc()
}

// ChromePage is a Page backed by a chromedp tab
type ChromePage struct {
	ctx    context.Context
	cancel context.CancelFunc
}

var _ Page = (*ChromePage)(nil)

// Close closes the tab
func (p *ChromePage) Close() {
	p.cancel()
}

// run executes actions on the tab, aborting when either ctx or the tab ends.
func (p *ChromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (p *ChromePage) Evaluate(ctx context.Context, expression string, res interface{}) error {
	return p.run(ctx, chromedp.Evaluate(expression, res))
}

func (p *ChromePage) EvaluateAwait(ctx context.Context, expression string, res interface{}) error {
	return p.run(ctx, chromedp.Evaluate(expression, res, func(ep *runtime.EvaluateParams) *runtime.EvaluateParams {
		return ep.WithAwaitPromise(true)
	}))
}

func (p *ChromePage) Navigate(ctx context.Context, url string) error {
	return p.run(ctx, chromedp.Navigate(url))
}

func (p *ChromePage) Location(ctx context.Context) (string, error) {
	var url string
	err := p.run(ctx, chromedp.Location(&url))
	return url, err
}

func (p *ChromePage) OuterHTML(ctx context.Context) (string, error) {
	var html string
	err := p.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (p *ChromePage) FullScreenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	// Quality 100 makes chromedp emit PNG instead of JPEG.
	err := p.run(ctx, chromedp.FullScreenshot(&buf, 100))
	return buf, err
}

func (p *ChromePage) AddScript(ctx context.Context, source string) error {
	return p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(source).Do(ctx)
		return err
	}))
}

func (p *ChromePage) Listen(fn func(ev interface{})) {
	chromedp.ListenTarget(p.ctx, fn)
}

func (p *ChromePage) MouseClick(ctx context.Context, x, y float64) error {
	return p.run(ctx, chromedp.MouseClickXY(x, y))
}

func (p *ChromePage) SendKeys(ctx context.Context, keys string) error {
	return p.run(ctx, chromedp.KeyEvent(keys))
}

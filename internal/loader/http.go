package loader

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/williampepple1/spa-monkey/internal/config"
	"github.com/williampepple1/spa-monkey/internal/proxy"
	"go.uber.org/zap"
)

// Fetcher downloads script sources over HTTP. It is shared by every
// session and safe for concurrent use: the client is never mutated after
// construction.
type Fetcher struct {
	Config     *config.LoaderConfig
	UserAgents []string
	logger     *zap.Logger
	client     *http.Client
}

// NewFetcher creates a fetcher honouring the proxy configuration
func NewFetcher(cfg *config.LoaderConfig, userAgents []string, proxies *proxy.Manager, logger *zap.Logger) *Fetcher {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}

	f := &Fetcher{
		Config:     cfg,
		UserAgents: userAgents,
		logger:     logger.Named("fetcher"),
	}
	if proxies != nil && proxies.Enabled() {
		// Picked per request, so retries rotate when rotation is on.
		transport.Proxy = func(req *http.Request) (*url.URL, error) {
			u, err := proxies.Proxy(req)
			if u != nil {
				f.logger.Debug("Fetching through proxy.", zap.String("url", req.URL.String()), zap.String("proxy", u.Redacted()))
			}
			return u, err
		}
	}
	// A zero timeout waits as long as the caller's context allows.
	f.client = &http.Client{Transport: transport, Timeout: cfg.Timeout}
	return f
}

// Fetch downloads url, retrying up to MaxRetries times with a linearly growing delay
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for retries := 0; retries <= f.Config.MaxRetries; retries++ {
		if retries > 0 {
			retryWait := f.Config.RetryDelay * time.Duration(retries)
			f.logger.Info("Retrying script download.",
				zap.String("url", url),
				zap.Duration("wait", retryWait),
				zap.Int("attempt", retries),
				zap.Int("max_retries", f.Config.MaxRetries),
				zap.Error(lastErr))
			select {
			case <-time.After(retryWait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, err := f.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, fmt.Errorf("fetch %s after %d retries: %w", url, f.Config.MaxRetries, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if len(f.UserAgents) > 0 {
		req.Header.Set("User-Agent", f.UserAgents[rand.Intn(len(f.UserAgents))])
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

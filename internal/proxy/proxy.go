package proxy

import (
	"fmt"
	"math/rand"
	"net/http"
	"net/url"

	"github.com/williampepple1/spa-monkey/internal/config"
)

// Manager picks proxies from the configured list. The list is parsed once,
// so a Manager is safe for concurrent use.
type Manager struct {
	Config  *config.ProxyConfig
	proxies []*url.URL
}

// NewManager parses the proxy list and attaches the configured credentials
func NewManager(config *config.ProxyConfig) (*Manager, error) {
	m := &Manager{Config: config}
	if !config.Enabled {
		return m, nil
	}
	for _, raw := range config.List {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %q: %w", raw, err)
		}
		if config.Auth.Username != "" && config.Auth.Password != "" {
			u.User = url.UserPassword(config.Auth.Username, config.Auth.Password)
		}
		m.proxies = append(m.proxies, u)
	}
	return m, nil
}

// Enabled reports whether requests go through a configured proxy
func (m *Manager) Enabled() bool {
	return len(m.proxies) > 0
}

// Pick returns the proxy for one connection: the first entry, or a random
// one when rotation is on. It returns nil when proxies are off.
func (m *Manager) Pick() *url.URL {
	if !m.Enabled() {
		return nil
	}
	i := 0
	if m.Config.Rotate && len(m.proxies) > 1 {
		i = rand.Intn(len(m.proxies))
	}
	u := *m.proxies[i]
	return &u
}

// Proxy is an http.Transport Proxy func. With rotation every request may
// use a different proxy, so retries rotate without touching the transport.
// Without configured proxies it falls back to the environment.
func (m *Manager) Proxy(req *http.Request) (*url.URL, error) {
	if u := m.Pick(); u != nil {
		return u, nil
	}
	return http.ProxyFromEnvironment(req)
}

// ChromeProxyServer returns the --proxy-server value for Chrome, or "" when
// proxies are off. Chrome does not accept credentials in the flag, so they
// are stripped.
func (m *Manager) ChromeProxyServer() string {
	u := m.Pick()
	if u == nil {
		return ""
	}
	u.User = nil
	return u.String()
}

// Package httpaction performs one HTTP request per account, authenticated by
// the account's session cookie.
package httpaction

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/bnema/cyclerun/internal/domain"
	"github.com/bnema/cyclerun/internal/ports"
)

const (
	DefaultCookieName = "harbor-session"
	maxBodyBytes      = 1 << 20
)

var DefaultLoginPaths = []string{"/onboarding/login", "/onboarding/confirm"}

type Config struct {
	URL        string
	Method     string
	Body       string
	CookieName string
	UserAgent  string
	Headers    map[string]string
	// LoginPaths mark an expired session when the final URL contains one of them.
	LoginPaths []string
	// SuccessSelector, when set, must match at least one element of the HTML response.
	SuccessSelector string
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return errors.New("http action url is required")
	}
	parsed, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("parse http action url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("http action url must be http or https, got %q", c.URL)
	}
	switch strings.ToUpper(c.Method) {
	case "", http.MethodGet, http.MethodPost:
	default:
		return fmt.Errorf("http action method must be GET or POST, got %q", c.Method)
	}

	return nil
}

type Action struct {
	cfg Config

	mu      sync.Mutex
	clients map[string]*http.Client
	// newTransport is replaced in tests.
	newTransport func(proxy *url.URL) http.RoundTripper
}

var _ ports.Action = (*Action)(nil)

func New(cfg Config) (*Action, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Method == "" {
		cfg.Method = http.MethodGet
	}
	cfg.Method = strings.ToUpper(cfg.Method)
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.LoginPaths == nil {
		cfg.LoginPaths = DefaultLoginPaths
	}

	return &Action{
		cfg:          cfg,
		clients:      map[string]*http.Client{},
		newTransport: defaultTransport,
	}, nil
}

func (a *Action) Perform(ctx context.Context, account domain.Account) error {
	client, err := a.clientFor(account.Proxy)
	if err != nil {
		return err
	}

	var body io.Reader
	if a.cfg.Body != "" {
		body = strings.NewReader(a.cfg.Body)
	}

	request, err := http.NewRequestWithContext(ctx, a.cfg.Method, a.cfg.URL, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	request.AddCookie(&http.Cookie{Name: a.cfg.CookieName, Value: account.SessionToken})
	if a.cfg.UserAgent != "" {
		request.Header.Set("User-Agent", a.cfg.UserAgent)
	}
	for key, value := range a.cfg.Headers {
		request.Header.Set(key, value)
	}

	response, err := client.Do(request)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer response.Body.Close()

	if path := a.loginPath(response); path != "" {
		return fmt.Errorf("%w: redirected to %s", domain.ErrAuthExpired, path)
	}

	payload, err := io.ReadAll(io.LimitReader(response.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		if response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden {
			return fmt.Errorf("%w: status %d", domain.ErrAuthExpired, response.StatusCode)
		}
		return fmt.Errorf("status %d: %s", response.StatusCode, truncate(strings.TrimSpace(string(payload)), 200))
	}

	if a.cfg.SuccessSelector == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(payload)))
	if err != nil {
		return fmt.Errorf("parse response html: %w", err)
	}
	if doc.Find(a.cfg.SuccessSelector).Length() == 0 {
		return fmt.Errorf("%w: selector %q matched nothing", domain.ErrNothingToDo, a.cfg.SuccessSelector)
	}

	return nil
}

func (a *Action) loginPath(response *http.Response) string {
	if response.Request == nil || response.Request.URL == nil {
		return ""
	}

	finalPath := response.Request.URL.Path
	for _, loginPath := range a.cfg.LoginPaths {
		if loginPath != "" && strings.Contains(finalPath, loginPath) {
			return loginPath
		}
	}

	return ""
}

// clientFor reuses one client per proxy so connections are pooled per exit address.
func (a *Action) clientFor(proxy string) (*http.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if client, ok := a.clients[proxy]; ok {
		return client, nil
	}

	var proxyURL *url.URL
	if proxy != "" {
		parsed, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		proxyURL = parsed
	}

	client := &http.Client{Transport: a.newTransport(proxyURL)}
	a.clients[proxy] = client
	return client, nil
}

func defaultTransport(proxy *url.URL) http.RoundTripper {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxy != nil {
		transport.Proxy = http.ProxyURL(proxy)
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}
	return transport
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max] + "..."
}

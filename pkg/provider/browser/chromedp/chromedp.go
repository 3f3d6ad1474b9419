// Package chromedp provides a browser.Provider backed by a real headless
// Chrome instance via github.com/chromedp/chromedp.
package chromedp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/solpercival/thoth/pkg/provider/browser"
)

// Provider launches new headless Chrome tabs.
type Provider struct {
	actionTimeout time.Duration
	allocOpts     []chromedp.ExecAllocatorOption
}

// Option configures a Provider.
type Option func(*Provider)

// WithActionTimeout bounds every Session action (Navigate, Fill, Click,
// WaitVisible). Defaults to 10s when unset.
func WithActionTimeout(d time.Duration) Option {
	return func(p *Provider) { p.actionTimeout = d }
}

// New creates a Provider. headless controls whether Chrome runs with a
// visible window; production deployments always pass true.
func New(headless bool, opts ...Option) *Provider {
	p := &Provider{
		actionTimeout: 10 * time.Second,
		allocOpts: append(chromedp.DefaultExecAllocatorOptions[:0:0],
			chromedp.DefaultExecAllocatorOptions...),
	}
	p.allocOpts = append(p.allocOpts, chromedp.Flag("headless", headless))
	for _, o := range opts {
		o(p)
	}
	return p
}

// NewSession implements browser.Provider.
func (p *Provider) NewSession(ctx context.Context) (browser.Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, p.allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("chromedp: launch browser: %w", err)
	}

	return &session{
		ctx:     tabCtx,
		cancels: []context.CancelFunc{tabCancel, allocCancel},
		timeout: p.actionTimeout,
	}, nil
}

// session is one browser.Session backed by a single chromedp tab context.
type session struct {
	ctx     context.Context
	cancels []context.CancelFunc
	timeout time.Duration
}

// withTimeout derives a bounded context from the session's tab context
// (which carries chromedp's target metadata) rather than from the ctx
// argument directly: the caller's ctx cancellation already propagates into
// s.ctx because s.ctx was allocated from the same ancestor in NewSession.
func (s *session) withTimeout(_ context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(s.ctx, s.timeout)
}

// Navigate implements browser.Session.
func (s *session) Navigate(ctx context.Context, url string) error {
	actx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := chromedp.Run(actx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("chromedp: navigate %q: %w", url, err)
	}
	return nil
}

// CurrentURL implements browser.Session.
func (s *session) CurrentURL(ctx context.Context) (string, error) {
	actx, cancel := s.withTimeout(ctx)
	defer cancel()
	var url string
	if err := chromedp.Run(actx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("chromedp: current url: %w", err)
	}
	return url, nil
}

// Fill implements browser.Session.
func (s *session) Fill(ctx context.Context, selector, value string) error {
	actx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := chromedp.Run(actx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.SetValue(selector, value, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("chromedp: fill %q: %w", selector, err)
	}
	return nil
}

// Click implements browser.Session.
func (s *session) Click(ctx context.Context, selector string) error {
	actx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := chromedp.Run(actx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("chromedp: click %q: %w", selector, err)
	}
	return nil
}

// WaitVisible implements browser.Session.
func (s *session) WaitVisible(ctx context.Context, selector string) error {
	actx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := chromedp.Run(actx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("chromedp: wait visible %q: %w", selector, err)
	}
	return nil
}

// ReadRows implements browser.Session. It builds a small JS snippet that
// reads, for every element matching rowSelector, the trimmed text content of
// the first descendant matching each of cellSelectors.
func (s *session) ReadRows(ctx context.Context, rowSelector string, cellSelectors []string) ([][]string, error) {
	actx, cancel := s.withTimeout(ctx)
	defer cancel()

	rowJSON, err := json.Marshal(rowSelector)
	if err != nil {
		return nil, fmt.Errorf("chromedp: encode row selector: %w", err)
	}
	cellsJSON, err := json.Marshal(cellSelectors)
	if err != nil {
		return nil, fmt.Errorf("chromedp: encode cell selectors: %w", err)
	}

	script := fmt.Sprintf(`(() => {
		const rowSel = %s;
		const cellSels = %s;
		return Array.from(document.querySelectorAll(rowSel)).map(row =>
			cellSels.map(sel => {
				const el = row.querySelector(sel);
				return el ? el.textContent.trim() : "";
			})
		);
	})()`, rowJSON, cellsJSON)

	var rows [][]string
	if err := chromedp.Run(actx, chromedp.Evaluate(script, &rows)); err != nil {
		return nil, fmt.Errorf("chromedp: read rows %q: %w", rowSelector, err)
	}
	return rows, nil
}

// Cookies implements browser.Session.
func (s *session) Cookies(ctx context.Context) ([]browser.Cookie, error) {
	actx, cancel := s.withTimeout(ctx)
	defer cancel()

	var cdpCookies []*network.Cookie
	if err := chromedp.Run(actx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cdpCookies, err = network.GetCookies().Do(ctx)
		return err
	})); err != nil {
		return nil, fmt.Errorf("chromedp: get cookies: %w", err)
	}

	cookies := make([]browser.Cookie, 0, len(cdpCookies))
	for _, c := range cdpCookies {
		cookies = append(cookies, browser.Cookie{
			Name:    c.Name,
			Value:   c.Value,
			Domain:  c.Domain,
			Path:    c.Path,
			Expires: time.Unix(int64(c.Expires), 0),
		})
	}
	return cookies, nil
}

// SetCookies implements browser.Session.
func (s *session) SetCookies(ctx context.Context, cookies []browser.Cookie) error {
	actx, cancel := s.withTimeout(ctx)
	defer cancel()

	return chromedp.Run(actx, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range cookies {
			params := network.SetCookie(c.Name, c.Value).
				WithDomain(c.Domain).
				WithPath(c.Path)
			if !c.Expires.IsZero() {
				params = params.WithExpires(network.TimeSinceEpoch(float64(c.Expires.Unix())))
			}
			if _, err := params.Do(ctx); err != nil {
				return fmt.Errorf("chromedp: set cookie %q: %w", c.Name, err)
			}
		}
		return nil
	}))
}

// Close implements browser.Session.
func (s *session) Close() error {
	for i := len(s.cancels) - 1; i >= 0; i-- {
		s.cancels[i]()
	}
	return nil
}

// Compile-time assertions.
var (
	_ browser.Provider = (*Provider)(nil)
	_ browser.Session  = (*session)(nil)
)

// Package mock provides test doubles for the browser.Provider and
// browser.Session interfaces.
package mock

import (
	"context"
	"sync"

	"github.com/solpercival/thoth/pkg/provider/browser"
)

// Provider always returns Session (or NewSessionErr, if set).
type Provider struct {
	Session      *Session
	NewSessionErr error
}

// NewSession implements browser.Provider.
func (p *Provider) NewSession(ctx context.Context) (browser.Session, error) {
	if p.NewSessionErr != nil {
		return nil, p.NewSessionErr
	}
	if p.Session == nil {
		p.Session = &Session{}
	}
	return p.Session, nil
}

// Session is a scriptable mock implementation of browser.Session. Tests
// drive it by pre-loading Rows/URL/Cookies and reading back recorded calls.
type Session struct {
	mu sync.Mutex

	// URL is returned by CurrentURL.
	URL string

	// Rows is returned by ReadRows, regardless of selector arguments.
	Rows [][]string

	// JarCookies is returned by Cookies and updated by SetCookies.
	JarCookies []browser.Cookie

	NavigateErr    error
	FillErr        error
	ClickErr       error
	WaitVisibleErr error
	ReadRowsErr    error

	NavigateCalls    []string
	FillCalls        []FillCall
	ClickCalls       []string
	WaitVisibleCalls []string
	CloseCalls       int
}

// FillCall records a single Fill invocation.
type FillCall struct {
	Selector string
	Value    string
}

func (s *Session) Navigate(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NavigateCalls = append(s.NavigateCalls, url)
	return s.NavigateErr
}

func (s *Session) CurrentURL(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.URL, nil
}

func (s *Session) Fill(_ context.Context, selector, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FillCalls = append(s.FillCalls, FillCall{Selector: selector, Value: value})
	return s.FillErr
}

func (s *Session) Click(_ context.Context, selector string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ClickCalls = append(s.ClickCalls, selector)
	return s.ClickErr
}

func (s *Session) WaitVisible(_ context.Context, selector string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.WaitVisibleCalls = append(s.WaitVisibleCalls, selector)
	return s.WaitVisibleErr
}

func (s *Session) ReadRows(_ context.Context, _ string, _ []string) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReadRowsErr != nil {
		return nil, s.ReadRowsErr
	}
	return s.Rows, nil
}

func (s *Session) Cookies(_ context.Context) ([]browser.Cookie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.JarCookies, nil
}

func (s *Session) SetCookies(_ context.Context, cookies []browser.Cookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.JarCookies = cookies
	return nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCalls++
	return nil
}

var (
	_ browser.Provider = (*Provider)(nil)
	_ browser.Session  = (*Session)(nil)
)

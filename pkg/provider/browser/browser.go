// Package browser defines the Session interface driving the Shift Workflow's
// interaction with the shift-management website: login, staff search, and
// date-filtered shift search. The concrete implementation drives a real
// headless browser; callers never depend on it directly.
package browser

import (
	"context"
	"time"
)

// Cookie is a single browser cookie, used to persist and restore a logged-in
// session across process restarts.
type Cookie struct {
	Name    string
	Value   string
	Domain  string
	Path    string
	Expires time.Time
}

// Session is one live browser tab/context. All methods respect ctx
// cancellation. Implementations need not be safe for concurrent use; the
// Shift Workflow serializes access to a single Session for the duration of
// one lookup.
type Session interface {
	// Navigate loads url and waits for the page to finish loading.
	Navigate(ctx context.Context, url string) error

	// CurrentURL returns the URL of the page currently loaded, after any
	// redirects. Used to detect a redirect-to-login on a stale cached
	// session.
	CurrentURL(ctx context.Context) (string, error)

	// Fill sets the value of the input matching selector.
	Fill(ctx context.Context, selector, value string) error

	// Click clicks the element matching selector.
	Click(ctx context.Context, selector string) error

	// WaitVisible blocks until an element matching selector is visible in
	// the DOM, or ctx is done.
	WaitVisible(ctx context.Context, selector string) error

	// ReadRows reads every element matching rowSelector and, within each,
	// the text content of every element matching one of cellSelectors (in
	// order), returning one []string per row.
	ReadRows(ctx context.Context, rowSelector string, cellSelectors []string) ([][]string, error)

	// Cookies returns the session's current cookie jar.
	Cookies(ctx context.Context) ([]Cookie, error)

	// SetCookies replaces the session's cookie jar with cookies, restoring
	// a previously cached login.
	SetCookies(ctx context.Context, cookies []Cookie) error

	// Close releases the underlying browser tab/context. Safe to call more
	// than once.
	Close() error
}

// Provider opens new browser Sessions.
type Provider interface {
	// NewSession opens a new Session. Callers must Close it when done.
	NewSession(ctx context.Context) (Session, error)
}

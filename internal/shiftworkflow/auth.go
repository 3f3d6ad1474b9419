package shiftworkflow

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/pquerna/otp/totp"

	"github.com/solpercival/thoth/pkg/provider/browser"
)

const cookieFileName = "session_cookies.json"

// landingPathMarker is a substring present in the post-login landing page's
// URL but never present in the login page's URL. A cached session is
// considered valid if navigating to the landing page does not redirect back
// to a URL lacking this marker.
const landingPathMarker = "/dashboard"

const loginPath = "/login"

// authenticate acquires a browser.Session against the configured site,
// trying a disk-cached cookie jar first and falling back to a fresh
// username/password/TOTP login. The returned Session is ready for
// subsequent navigation.
func (w *Workflow) authenticate(ctx context.Context) (browser.Session, error) {
	loginCtx, cancel := context.WithTimeout(ctx, w.loginTimeout())
	defer cancel()

	sess, err := w.browsers.NewSession(loginCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: open browser session: %w", ErrAuthFailed, err)
	}

	if cookies, ok := w.loadCachedCookies(); ok {
		if err := sess.SetCookies(loginCtx, cookies); err != nil {
			w.logger.Warn("shiftworkflow: restore cached cookies failed", "err", err)
		} else if w.probeSession(loginCtx, sess) {
			return sess, nil
		}
		w.logger.Info("shiftworkflow: cached session invalid, logging in fresh")
	}

	if err := w.login(loginCtx, sess); err != nil {
		sess.Close()
		return nil, err
	}
	return sess, nil
}

// probeSession navigates to the post-login landing page and reports whether
// the site accepted the current cookies rather than redirecting to the login
// page.
func (w *Workflow) probeSession(ctx context.Context, sess browser.Session) bool {
	if err := sess.Navigate(ctx, w.site.BaseURL+landingPathMarker); err != nil {
		return false
	}
	url, err := sess.CurrentURL(ctx)
	if err != nil {
		return false
	}
	return !strings.Contains(url, loginPath)
}

// login performs a fresh username/password/TOTP login and, on success, saves
// the resulting cookies to the on-disk cache.
func (w *Workflow) login(ctx context.Context, sess browser.Session) error {
	if err := sess.Navigate(ctx, w.site.BaseURL+loginPath); err != nil {
		return fmt.Errorf("%w: navigate to login page: %w", ErrAuthFailed, err)
	}
	if err := sess.Fill(ctx, "#username", w.site.Username); err != nil {
		return fmt.Errorf("%w: fill username: %w", ErrAuthFailed, err)
	}
	if err := sess.Fill(ctx, "#password", w.site.Password); err != nil {
		return fmt.Errorf("%w: fill password: %w", ErrAuthFailed, err)
	}
	if err := sess.Click(ctx, "#login-submit"); err != nil {
		return fmt.Errorf("%w: submit credentials: %w", ErrAuthFailed, err)
	}

	code, err := totp.GenerateCode(w.site.TOTPSecret, time.Now())
	if err != nil {
		return fmt.Errorf("%w: generate totp code: %w", ErrAuthFailed, err)
	}
	if err := sess.WaitVisible(ctx, "#totp-code"); err != nil {
		return fmt.Errorf("%w: wait for totp prompt: %w", ErrAuthFailed, err)
	}
	if err := sess.Fill(ctx, "#totp-code", code); err != nil {
		return fmt.Errorf("%w: fill totp code: %w", ErrAuthFailed, err)
	}
	if err := sess.Click(ctx, "#totp-submit"); err != nil {
		return fmt.Errorf("%w: submit totp code: %w", ErrAuthFailed, err)
	}
	if err := sess.WaitVisible(ctx, "#staff-search"); err != nil {
		return fmt.Errorf("%w: wait for landing page: %w", ErrAuthFailed, err)
	}

	cookies, err := sess.Cookies(ctx)
	if err != nil {
		w.logger.Warn("shiftworkflow: read cookies after login failed", "err", err)
		return nil
	}
	if err := w.saveCachedCookies(cookies); err != nil {
		w.logger.Warn("shiftworkflow: cache cookies failed", "err", err)
	}
	return nil
}

func (w *Workflow) loginTimeout() time.Duration {
	if w.site.LoginTimeout > 0 {
		return w.site.LoginTimeout
	}
	return defaultLoginTimeout
}

func (w *Workflow) cookiePath() string {
	return filepath.Join(w.site.CookieDir, cookieFileName)
}

// loadCachedCookies reads the on-disk cookie jar under an advisory file
// lock. Absence of the file, or any read/parse error, is treated as a cache
// miss rather than a failure.
func (w *Workflow) loadCachedCookies() ([]browser.Cookie, bool) {
	if w.site.CookieDir == "" {
		return nil, false
	}
	lock := flock.New(w.cookiePath() + ".lock")
	locked, err := lock.TryLock()
	if err != nil || !locked {
		return nil, false
	}
	defer lock.Unlock()

	data, err := os.ReadFile(w.cookiePath())
	if err != nil {
		return nil, false
	}
	var cookies []browser.Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, false
	}
	return cookies, true
}

// saveCachedCookies writes cookies to the on-disk cache under an advisory
// file lock, creating CookieDir if necessary.
func (w *Workflow) saveCachedCookies(cookies []browser.Cookie) error {
	if w.site.CookieDir == "" {
		return nil
	}
	if err := os.MkdirAll(w.site.CookieDir, 0o700); err != nil {
		return fmt.Errorf("shiftworkflow: create cookie dir: %w", err)
	}

	lock := flock.New(w.cookiePath() + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("shiftworkflow: lock cookie cache: %w", err)
	}
	defer lock.Unlock()

	data, err := json.Marshal(cookies)
	if err != nil {
		return fmt.Errorf("shiftworkflow: marshal cookies: %w", err)
	}
	if err := os.WriteFile(w.cookiePath(), data, 0o600); err != nil {
		return fmt.Errorf("shiftworkflow: write cookie cache: %w", err)
	}
	return nil
}

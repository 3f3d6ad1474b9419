// Package smtp provides a Mailer implementation backed by
// gopkg.in/gomail.v2, dialing a configured SMTP relay for each send.
package smtp

import (
	"context"
	"fmt"
	"time"

	gomail "gopkg.in/gomail.v2"

	"github.com/solpercival/thoth/pkg/provider/mailer"
)

// Provider implements mailer.Mailer over SMTP.
type Provider struct {
	dialer  *gomail.Dialer
	timeout time.Duration
}

// config holds optional configuration for the provider.
type config struct {
	timeout time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithTimeout bounds how long a single Send may take before it is abandoned.
// Defaults to 15s.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// New constructs a Provider that authenticates to host:port with username and
// password. appPassword is expected for providers (e.g., Gmail) that require
// an application-specific password rather than the account password.
func New(host string, port int, username, appPassword string, opts ...Option) (*Provider, error) {
	if host == "" {
		return nil, fmt.Errorf("smtp: host must not be empty")
	}
	if username == "" {
		return nil, fmt.Errorf("smtp: username must not be empty")
	}

	cfg := &config{timeout: 15 * time.Second}
	for _, o := range opts {
		o(cfg)
	}

	return &Provider{
		dialer:  gomail.NewDialer(host, port, username, appPassword),
		timeout: cfg.timeout,
	}, nil
}

// Send implements mailer.Mailer. The dial-and-send round trip runs on its own
// goroutine so that context cancellation can be honoured even though gomail's
// DialAndSend call is itself not context-aware.
func (p *Provider) Send(ctx context.Context, msg mailer.Message) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	errCh := make(chan error, 1)
	go func() {
		errCh <- p.dialer.DialAndSend(m)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("smtp: send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp: send: %w", ctx.Err())
	}
}

// Compile-time interface assertion.
var _ mailer.Mailer = (*Provider)(nil)

// Package mock provides a test double for the mailer.Mailer interface.
package mock

import (
	"context"
	"sync"

	"github.com/solpercival/thoth/pkg/provider/mailer"
)

// SendCall records a single invocation of Send.
type SendCall struct {
	Ctx context.Context
	Msg mailer.Message
}

// Provider is a mock implementation of mailer.Mailer.
type Provider struct {
	mu sync.Mutex

	// SendErr, if non-nil, is returned by every call to Send.
	SendErr error

	// SendCalls records every invocation of Send in order.
	SendCalls []SendCall
}

// Send records the call and returns SendErr.
func (p *Provider) Send(ctx context.Context, msg mailer.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SendCalls = append(p.SendCalls, SendCall{Ctx: ctx, Msg: msg})
	return p.SendErr
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SendCalls = nil
}

// Compile-time interface assertion.
var _ mailer.Mailer = (*Provider)(nil)

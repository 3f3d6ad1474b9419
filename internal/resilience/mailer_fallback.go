package resilience

import (
	"context"

	"github.com/solpercival/thoth/pkg/provider/mailer"
)

// MailerFallback implements [mailer.Mailer] through a dedicated circuit
// breaker, so that a run of SMTP failures during cancellation submission
// trips independently of the Chat breaker.
type MailerFallback struct {
	group *FallbackGroup[mailer.Mailer]
}

// Compile-time interface assertion.
var _ mailer.Mailer = (*MailerFallback)(nil)

// NewMailerFallback creates a [MailerFallback] with primary as the preferred transport.
func NewMailerFallback(primary mailer.Mailer, primaryName string, cfg FallbackConfig) *MailerFallback {
	return &MailerFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional mail transport as a fallback.
func (f *MailerFallback) AddFallback(name string, m mailer.Mailer) {
	f.group.AddFallback(name, m)
}

// Send delivers msg through the first healthy transport.
func (f *MailerFallback) Send(ctx context.Context, msg mailer.Message) error {
	return f.group.Execute(func(m mailer.Mailer) error {
		return m.Send(ctx, msg)
	})
}

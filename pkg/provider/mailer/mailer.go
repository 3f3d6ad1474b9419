// Package mailer defines the Mailer interface used by the Shift Workflow to
// submit shift-cancellation notifications by email.
//
// Implementors must be safe for concurrent use; a single Mailer instance is
// shared across all active Sessions.
package mailer

import "context"

// Message is a single outbound email.
type Message struct {
	// To is the recipient address (the shift-cancellation collector mailbox).
	To string

	// From is the sender address presented on the envelope and header.
	From string

	// Subject is the email subject line.
	Subject string

	// Body is the plain-text email body.
	Body string
}

// Mailer sends a single email and reports delivery failure. There is no
// retry contract at this level — callers that need retries wrap a Mailer in
// [resilience.MailerFallback].
type Mailer interface {
	// Send delivers msg, blocking until the underlying transport accepts or
	// rejects it. Returns a non-nil error if the message could not be sent
	// before ctx is done or the transport refuses it.
	Send(ctx context.Context, msg Message) error
}

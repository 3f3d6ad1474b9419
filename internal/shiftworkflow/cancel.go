package shiftworkflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/solpercival/thoth/internal/shift"
	"github.com/solpercival/thoth/pkg/provider/mailer"
)

const defaultSubject = "SHIFT CANCELLATION REQUEST"

// Cancel composes a cancellation notification email for sh on behalf of
// staff, with the given reason, and sends it via the configured Mailer. It
// does not mutate the shift-management site; the email is the authoritative
// submission.
func (w *Workflow) Cancel(ctx context.Context, staff shift.Staff, sh shift.Record, reason string) error {
	msg := mailer.Message{
		To:      w.mail.Collector,
		From:    w.mail.Sender,
		Subject: w.subject(),
		Body:    cancellationBody(staff, sh, reason),
	}

	sendCtx, cancel := context.WithTimeout(ctx, w.sendTimeout())
	defer cancel()

	if err := w.mailer.Send(sendCtx, msg); err != nil {
		return fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}
	return nil
}

func (w *Workflow) subject() string {
	if w.mail.SubjectOverride != "" {
		return w.mail.SubjectOverride
	}
	return defaultSubject
}

// cancellationBody renders the plaintext email layout. The REASON: block is
// omitted entirely when reason is empty.
func cancellationBody(staff shift.Staff, sh shift.Record, reason string) string {
	var b strings.Builder

	b.WriteString("Requested cancellation of shift.\n\n")
	b.WriteString("    STAFF:\n")
	fmt.Fprintf(&b, "        · Name: %s\n", staff.FullName)
	fmt.Fprintf(&b, "        · ID: %s\n", staff.ID)
	fmt.Fprintf(&b, "        · Email: %s\n\n", staff.Email)

	b.WriteString("    SHIFT(S):\n")
	fmt.Fprintf(&b, "        · %s at %s %s\n", sh.ClientName, sh.Time, shiftDisplayDate(sh))

	if reason != "" {
		b.WriteString("\n    REASON:\n")
		fmt.Fprintf(&b, "        %s\n", reason)
	}

	b.WriteString("\nThis is an auto-generated email. Please do not reply.\n")
	return b.String()
}

func shiftDisplayDate(sh shift.Record) string {
	if !sh.HasDate {
		return "unknown date"
	}
	return sh.Date.Format(shift.DisplayDateLayout)
}

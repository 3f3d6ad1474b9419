package conversation

import (
	"context"

	"github.com/solpercival/thoth/internal/shift"
)

// LookupResult is the aggregate returned by Workflow.Lookup.
type LookupResult struct {
	Staff          shift.Staff
	Interval       shift.Interval
	AllShifts      []shift.Record
	FilteredShifts []shift.Record
	Intent         shift.Intent
}

// Workflow is the narrow interface the Conversation Core needs from the
// Shift Workflow. Defining it here, rather than depending on the
// shiftworkflow package directly, keeps the dialogue loop testable with a
// stub and avoids a dependency from this package onto the browser- and
// mail-backed implementation.
type Workflow interface {
	// Lookup authenticates, resolves callerPhone to a staff record, reasons
	// about the date range in utterance, and returns the filtered shifts in
	// that range.
	Lookup(ctx context.Context, callerPhone, utterance string) (LookupResult, error)

	// Cancel submits a cancellation notification for sh on behalf of staff,
	// with the given reason (which may be empty for a non-cancellation
	// submission).
	Cancel(ctx context.Context, staff shift.Staff, sh shift.Record, reason string) error
}

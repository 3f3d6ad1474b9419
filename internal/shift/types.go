// Package shift holds the data types shared by the Date Reasoner, the Shift
// Workflow, and the Conversation Core's per-session context. Keeping them in
// a single leaf package lets all three depend on the same shapes without
// importing one another.
package shift

import "time"

// DateLayout is the internal calendar-date representation used everywhere
// except the two sites that require the site's own DD-MM-YYYY display
// format: the shift-search filter and the cancellation email.
const DateLayout = "2006-01-02"

// DisplayDateLayout is the DD-MM-YYYY format required by the
// shift-management website's date filter and by the cancellation email.
const DisplayDateLayout = "02-01-2006"

// Intent classifies whether the caller wants to cancel or merely view their
// shifts, as determined by the Date Reasoner.
type Intent string

const (
	IntentCancel  Intent = "cancel"
	IntentView    Intent = "view"
	IntentUnknown Intent = "unknown"
)

// Interval is a closed date range [Start, End] with Start <= End, both
// calendar dates in the service's local timezone.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Record is a single shift as returned by the shift-search page. A Record
// with a zero Date was unparseable on the site and is retained in
// current_shifts but excluded from date-range filtering.
type Record struct {
	ShiftID    string
	ClientName string
	Date       time.Time
	HasDate    bool
	Time       string
	Type       string
}

// Staff is the identity payload returned by the staff-by-phone lookup.
// Ownership is exclusive to the Session that created it; never shared
// across sessions.
type Staff struct {
	ID       string
	FullName string
	Email    string
	Team     string
	Mobile   string
}

// InInterval reports whether r has a parseable date within iv, inclusive.
func (r Record) InInterval(iv Interval) bool {
	if !r.HasDate {
		return false
	}
	d := dateOnly(r.Date)
	return !d.Before(dateOnly(iv.Start)) && !d.After(dateOnly(iv.End))
}

// dateOnly floors t to midnight in t's own location, discarding its
// time-of-day component without crossing a UTC day boundary. Record.Date and
// Interval endpoints are both produced by time.ParseInLocation against
// time.Local, so dateOnly compares calendar days the same way the site
// itself displays them — unlike Truncate(24*time.Hour), which floors
// against the UTC epoch and silently rolls local midnight back a day in any
// positive UTC offset.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

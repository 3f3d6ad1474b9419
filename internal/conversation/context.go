package conversation

import "github.com/solpercival/thoth/internal/shift"

// Context is a session's working memory for the action-tag handlers. It is
// owned exclusively by one Core; Core never shares a Context across
// sessions.
type Context struct {
	// CurrentShifts is the ordered result of the most recent Workflow
	// lookup, possibly empty.
	CurrentShifts []shift.Record

	// SelectedShift is the target of a pending cancellation, set by
	// <CONFIRM_CANCEL> and cleared on submission or reset.
	SelectedShift *shift.Record

	// StaffInfo is populated after a successful staff lookup.
	StaffInfo *shift.Staff

	// IsCancellation reflects the Date Reasoner's classification of the
	// caller's intent for the most recent lookup.
	IsCancellation bool
}

// Reset clears every field, returning the Context to its session-start
// state. Called on session start, after a successful cancellation
// submission, and whenever a handler fails unrecoverably.
func (c *Context) Reset() {
	c.CurrentShifts = nil
	c.SelectedShift = nil
	c.StaffInfo = nil
	c.IsCancellation = false
}

// findShift returns the record in CurrentShifts with the given id, if any.
func (c *Context) findShift(id string) (shift.Record, bool) {
	for _, r := range c.CurrentShifts {
		if r.ShiftID == id {
			return r, true
		}
	}
	return shift.Record{}, false
}

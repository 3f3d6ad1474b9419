package conversation

import "strings"

// Action is the closed sum type that a model reply's action tag parses into.
// Handlers in core.go switch exhaustively on the concrete type.
type Action interface {
	action()
}

// GetShifts is emitted by <GETSHIFTS>. Query is the free-form text following
// the tag to end of line, passed verbatim to the Shift Workflow.
type GetShifts struct {
	Query string
}

// ConfirmCancel is emitted by <CONFIRM_CANCEL>. ShiftID is the first
// whitespace-delimited token following the tag.
type ConfirmCancel struct {
	ShiftID string
}

// Reason is emitted by <REASON>. Text is the rest-of-line cancellation
// reason.
type Reason struct {
	Text string
}

// Login is emitted by <LOGIN>; it carries no payload.
type Login struct{}

// Real is emitted by <REAL>; it carries no payload.
type Real struct{}

// Deny is emitted by <DENY>; it carries no payload.
type Deny struct{}

func (GetShifts) action()     {}
func (ConfirmCancel) action() {}
func (Reason) action()        {}
func (Login) action()         {}
func (Real) action()          {}
func (Deny) action()          {}

// tagMarkers lists the recognised tags in priority order: when a reply
// contains more than one, the earliest entry in this list wins regardless of
// where each tag occurs in the text.
var tagMarkers = []string{
	"<GETSHIFTS>",
	"<CONFIRM_CANCEL>",
	"<REASON>",
	"<LOGIN>",
	"<REAL>",
	"<DENY>",
}

// ParseAction scans raw for the first (by priority) recognised action tag
// and returns the corresponding Action with its payload extracted. Unknown
// or absent tags return (nil, false), leaving raw to fall through to
// sanitization as plain speech.
func ParseAction(raw string) (Action, bool) {
	for _, marker := range tagMarkers {
		idx := strings.Index(raw, marker)
		if idx < 0 {
			continue
		}
		payload := payloadAfter(raw, idx+len(marker))
		switch marker {
		case "<GETSHIFTS>":
			return GetShifts{Query: payload}, true
		case "<CONFIRM_CANCEL>":
			return ConfirmCancel{ShiftID: firstField(payload)}, true
		case "<REASON>":
			return Reason{Text: payload}, true
		case "<LOGIN>":
			return Login{}, true
		case "<REAL>":
			return Real{}, true
		case "<DENY>":
			return Deny{}, true
		}
	}
	return nil, false
}

// payloadAfter returns the text from offset to the end of its line, trimmed.
func payloadAfter(raw string, offset int) string {
	rest := raw[offset:]
	if nl := strings.IndexAny(rest, "\r\n"); nl >= 0 {
		rest = rest[:nl]
	}
	return strings.TrimSpace(rest)
}

// firstField returns the first whitespace-delimited token of s.
func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

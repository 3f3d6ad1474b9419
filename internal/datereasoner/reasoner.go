// Package datereasoner converts a free-form time expression, together with
// the caller's utterance, into a concrete closed date interval plus an
// intent classification. It is a small, separately-prompted Chat client: its
// history is never shared with the Conversation Core's.
package datereasoner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/solpercival/thoth/internal/shift"
	"github.com/solpercival/thoth/pkg/provider/chat"
	"github.com/solpercival/thoth/pkg/types"
)

// defaultRequestTimeout bounds a single inference attempt.
const defaultRequestTimeout = 30 * time.Second

// defaultWindowDays is the span of the documented default interval.
const defaultWindowDays = 7

// Result is the Date Reasoner's output.
type Result struct {
	IsShiftQuery bool
	Intent       shift.Intent
	Interval     shift.Interval
	Rationale    string
}

// Reasoner resolves natural-language time expressions against a fixed
// "today" using its own Chat instance.
type Reasoner struct {
	chat    chat.Provider
	history []types.Message
	today   time.Time
	prompt  string
	timeout time.Duration
	logger  *slog.Logger
}

// ResolveToday picks "today" per the documented precedence: an explicit
// override, then configToday (format "2006-01-02"), then the system clock.
// Two deployments given identical override/configToday values must produce
// identical Reasoner outputs; this indirection is what makes that possible.
func ResolveToday(override *time.Time, configToday string) (time.Time, error) {
	if override != nil {
		return override.Truncate(24 * time.Hour), nil
	}
	if configToday != "" {
		t, err := time.ParseInLocation(shift.DateLayout, configToday, time.Local)
		if err != nil {
			return time.Time{}, fmt.Errorf("datereasoner: parse configured today %q: %w", configToday, err)
		}
		return t, nil
	}
	return time.Now().Local().Truncate(24 * time.Hour), nil
}

// New constructs a Reasoner anchored at today. The day-of-week and the
// coming Sunday are derived from today and baked into the system prompt so
// the model can resolve phrases like "tomorrow" or "next week" without
// needing its own notion of the current date.
func New(chatProvider chat.Provider, today time.Time, timeout time.Duration, logger *slog.Logger) *Reasoner {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reasoner{
		chat:    chatProvider,
		today:   today,
		prompt:  buildSystemPrompt(today),
		timeout: timeout,
		logger:  logger,
	}
}

// comingSunday returns the nearest Sunday on or after today.
func comingSunday(today time.Time) time.Time {
	offset := (int(time.Sunday) - int(today.Weekday()) + 7) % 7
	return today.AddDate(0, 0, offset)
}

func buildSystemPrompt(today time.Time) string {
	return fmt.Sprintf(`You are a date-resolution assistant for a shift-management phone system. You do not speak to the caller directly; you receive one utterance and must return a single JSON object describing the date range and intent it implies.

Today's date is %s (%s). The coming Sunday is %s.

Return exactly one JSON object, with no other text, shaped like:
{"is_shift_query": true, "intent": "cancel", "start": "YYYY-MM-DD", "end": "YYYY-MM-DD", "rationale": "one short sentence"}

"intent" must be one of "cancel", "view", or "unknown". "is_shift_query" is false only when the utterance is not about shifts at all. "start" and "end" are calendar dates with start <= end, resolved relative to today given above.`,
		today.Format(shift.DateLayout), today.Weekday(), comingSunday(today).Format(shift.DateLayout))
}

// jsonResult is the wire shape of the model's JSON reply.
type jsonResult struct {
	IsShiftQuery bool   `json:"is_shift_query"`
	Intent       string `json:"intent"`
	Start        string `json:"start"`
	End          string `json:"end"`
	Rationale    string `json:"rationale"`
}

// Infer runs the two-attempt inference protocol and returns a documented
// default if both attempts fail.
func (r *Reasoner) Infer(ctx context.Context, utterance string) Result {
	for attempt := 0; attempt < 2; attempt++ {
		result, ok := r.attempt(ctx, utterance)
		if ok {
			return result
		}
		// Clear history (retaining the system message) and retry once.
		r.history = r.history[:0]
	}
	r.logger.Warn("date reasoner: both inference attempts failed, returning default interval")
	return r.defaultResult()
}

func (r *Reasoner) attempt(ctx context.Context, utterance string) (Result, bool) {
	r.ensureSystemMessage()
	r.history = append(r.history, types.Message{Role: "user", Content: utterance})

	reqCtx, cancel := context.WithTimeout(ctx, r.timeout)
	resp, err := r.chat.Complete(reqCtx, chat.CompletionRequest{Messages: r.history})
	cancel()
	if err != nil {
		r.logger.Warn("date reasoner: chat call failed", "err", err)
		return Result{}, false
	}
	r.history = append(r.history, types.Message{Role: "assistant", Content: resp.Content})

	raw, ok := extractJSON(resp.Content)
	if !ok {
		return Result{}, false
	}

	var jr jsonResult
	if err := json.Unmarshal([]byte(raw), &jr); err != nil {
		return Result{}, false
	}

	return r.validate(jr)
}

func (r *Reasoner) validate(jr jsonResult) (Result, bool) {
	start, err := time.ParseInLocation(shift.DateLayout, jr.Start, time.Local)
	if err != nil {
		return Result{}, false
	}
	end, err := time.ParseInLocation(shift.DateLayout, jr.End, time.Local)
	if err != nil {
		return Result{}, false
	}
	if start.After(end) {
		return Result{}, false
	}

	var intent shift.Intent
	switch jr.Intent {
	case string(shift.IntentCancel):
		intent = shift.IntentCancel
	case string(shift.IntentView):
		intent = shift.IntentView
	default:
		intent = shift.IntentUnknown
	}

	return Result{
		IsShiftQuery: jr.IsShiftQuery,
		Intent:       intent,
		Interval:     shift.Interval{Start: start, End: end},
		Rationale:    jr.Rationale,
	}, true
}

func (r *Reasoner) defaultResult() Result {
	return Result{
		IsShiftQuery: false,
		Intent:       shift.IntentUnknown,
		Interval:     shift.Interval{Start: r.today, End: r.today.AddDate(0, 0, defaultWindowDays)},
		Rationale:    "default",
	}
}

func (r *Reasoner) ensureSystemMessage() {
	if len(r.history) > 0 && r.history[0].Role == "system" {
		return
	}
	sys := types.Message{Role: "system", Content: r.prompt}
	r.history = append([]types.Message{sys}, r.history...)
}

// extractJSON returns the first balanced {...} substring of s, tracking
// quoted-string state so that braces inside string values do not upset the
// depth count.
func extractJSON(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// Package conversation implements the Conversation Core: the model-driven
// dialogue loop that turns one transcribed utterance into at most one
// spoken reply, dispatching structured action tags to the Shift Workflow
// along the way.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/solpercival/thoth/internal/shift"
	"github.com/solpercival/thoth/pkg/provider/chat"
	"github.com/solpercival/thoth/pkg/types"
)

// maxDepth bounds the recursive process chain. A bound of 4 admits the
// longest legitimate tag chain (get → confirm → reason → final speech) with
// one slot to spare; deeper chains are treated as model runaway and
// collapsed to speech.
const maxDepth = 4

// defaultRequestTimeout bounds a single Chat call when the caller does not
// override it.
const defaultRequestTimeout = 30 * time.Second

const (
	loginTransferText = "One moment, please — I'm transferring you to one of our team members who can help with that."
	realTransferText  = "Of course, let me get a real person on the line for you right now."
	denyText          = "I'm only able to help with shift bookings and cancellations, I'm afraid I can't help with that."
)

// Core owns one session's Chat history and dispatches action tags found in
// the model's replies. A Core is used by exactly one Session; it is not
// safe to share across sessions or to call concurrently, matching the
// single-threaded-per-session processing model.
type Core struct {
	chat         chat.Provider
	workflow     Workflow
	callerPhone  string
	history      []types.Message
	ctx          Context
	timeout      time.Duration
	logger       *slog.Logger
}

// New creates a Core for one session. callerPhone is passed through to the
// Workflow on every <GETSHIFTS> lookup.
func New(chatProvider chat.Provider, workflow Workflow, callerPhone string, timeout time.Duration, logger *slog.Logger) *Core {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Core{
		chat:        chatProvider,
		workflow:    workflow,
		callerPhone: callerPhone,
		timeout:     timeout,
		logger:      logger,
	}
}

// Context returns the session's working memory. Session reads it after a
// <GETSHIFTS>/<CONFIRM_CANCEL> round trip and resets it on handler failure.
func (c *Core) Context() *Context {
	return &c.ctx
}

// OnUtterance runs the full entry point for one completed utterance: it
// calls process at depth 0 and returns the final text to be spoken, or an
// empty string if nothing should be spoken. Acquiring the Transcriber pause
// token around this call and handing the result to the Synthesizer is the
// Session's responsibility (see internal/session), keeping Core testable
// without any audio I/O dependency.
func (c *Core) OnUtterance(ctx context.Context, text string) (string, error) {
	return c.Process(ctx, text, 0)
}

// Process recursively drives the dialogue: submit input to the Chat, scan
// the reply for an action tag, dispatch to the matching handler, and either
// return the handler's plain-text reply or recurse into the handler's
// synthetic observation.
func (c *Core) Process(ctx context.Context, input string, depth int) (string, error) {
	if depth > maxDepth {
		return Sanitize(input), nil
	}

	c.ensureSystemMessage()
	c.history = append(c.history, types.Message{Role: "user", Content: input})

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	resp, err := c.chat.Complete(reqCtx, chat.CompletionRequest{Messages: c.history})
	cancel()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrChatFailed, err)
	}

	raw := resp.Content
	c.history = append(c.history, types.Message{Role: "assistant", Content: raw})

	action, ok := ParseAction(raw)
	if !ok {
		return Sanitize(raw), nil
	}

	return c.dispatch(ctx, action, depth)
}

// ensureSystemMessage restores the Chat history invariant: the first
// message is always the component's system prompt. It must run before every
// model call.
func (c *Core) ensureSystemMessage() {
	if len(c.history) > 0 && c.history[0].Role == "system" {
		return
	}
	sys := types.Message{Role: "system", Content: SystemPrompt}
	c.history = append([]types.Message{sys}, c.history...)
}

// dispatch invokes the handler for action and returns the final spoken
// text, recursing through process where the handler composes an
// observation.
func (c *Core) dispatch(ctx context.Context, action Action, depth int) (string, error) {
	switch a := action.(type) {
	case GetShifts:
		return c.handleGetShifts(ctx, a, depth)
	case ConfirmCancel:
		return c.handleConfirmCancel(ctx, a, depth)
	case Reason:
		return c.handleReason(ctx, a, depth)
	case Login:
		return loginTransferText, nil
	case Real:
		return realTransferText, nil
	case Deny:
		return denyText, nil
	default:
		// Unreachable: ParseAction only produces the cases above.
		return "", nil
	}
}

func (c *Core) handleGetShifts(ctx context.Context, a GetShifts, depth int) (string, error) {
	result, err := c.workflow.Lookup(ctx, c.callerPhone, a.Query)
	if err != nil {
		c.logger.Warn("shift workflow lookup failed", "err", err)
		c.ctx.Reset()
		return "", fmt.Errorf("%w: %w", ErrWorkflowFailed, err)
	}

	c.ctx.StaffInfo = &result.Staff
	c.ctx.CurrentShifts = result.FilteredShifts
	c.ctx.IsCancellation = result.Intent == shift.IntentCancel
	c.ctx.SelectedShift = nil

	observation := fmt.Sprintf(
		"Observation: the shift lookup found %d matching shift(s) for the caller. The caller's intent is %q.",
		len(result.FilteredShifts), string(result.Intent),
	)
	return c.Process(ctx, observation, depth+1)
}

func (c *Core) handleConfirmCancel(ctx context.Context, a ConfirmCancel, depth int) (string, error) {
	rec, ok := c.ctx.findShift(a.ShiftID)
	if !ok {
		observation := "Observation: the confirmed shift id was not recognised. Ask the caller again which shift they mean."
		return c.Process(ctx, observation, depth+1)
	}
	c.ctx.SelectedShift = &rec
	observation := "Observation: the caller confirmed the shift to cancel. Ask them for the reason for the cancellation."
	return c.Process(ctx, observation, depth+1)
}

func (c *Core) handleReason(ctx context.Context, a Reason, depth int) (string, error) {
	if c.ctx.SelectedShift == nil || c.ctx.StaffInfo == nil {
		observation := "Observation: no shift is currently selected for cancellation. Ask the caller which shift they want to cancel."
		return c.Process(ctx, observation, depth+1)
	}

	err := c.workflow.Cancel(ctx, *c.ctx.StaffInfo, *c.ctx.SelectedShift, a.Text)
	if err != nil {
		c.logger.Warn("cancellation submission failed", "err", err)
		observation := "Observation: the cancellation submission failed. Apologize to the caller and suggest they try again shortly."
		return c.Process(ctx, observation, depth+1)
	}

	c.ctx.SelectedShift = nil
	c.ctx.CurrentShifts = nil
	observation := "Observation: the cancellation was submitted successfully. Thank the caller and ask if there is anything else you can help with."
	return c.Process(ctx, observation, depth+1)
}

// ResetContext clears the session's working memory without touching the
// Chat history. Session calls this after a handler failure, per the
// documented failure semantics.
func (c *Core) ResetContext() {
	c.ctx.Reset()
}

package conversation

import "errors"

// ErrChatFailed wraps any error returned by the Chat provider during
// process. Session treats it as non-fatal: it resets the Context and speaks
// a generic apology rather than tearing down the call.
var ErrChatFailed = errors.New("conversation: chat call failed")

// ErrWorkflowFailed wraps a Shift Workflow failure surfaced from a handler.
var ErrWorkflowFailed = errors.New("conversation: workflow call failed")

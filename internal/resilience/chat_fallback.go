package resilience

import (
	"context"

	"github.com/solpercival/thoth/pkg/provider/chat"
	"github.com/solpercival/thoth/pkg/types"
)

// ChatFallback implements [chat.Provider] by retrying a single chat backend
// through a dedicated circuit breaker. The Conversation Core and Date
// Reasoner each wrap their chat.Provider in one of these rather than share a
// breaker, so a run of failures on one does not trip the other.
//
// A second entry may be registered with AddFallback for deployments that do
// configure an actual secondary backend; absent that, the group degrades to a
// single breaker-gated provider.
type ChatFallback struct {
	group *FallbackGroup[chat.Provider]
}

// Compile-time interface assertion.
var _ chat.Provider = (*ChatFallback)(nil)

// NewChatFallback creates a [ChatFallback] with primary as the preferred backend.
func NewChatFallback(primary chat.Provider, primaryName string, cfg FallbackConfig) *ChatFallback {
	return &ChatFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional chat provider as a fallback.
func (f *ChatFallback) AddFallback(name string, provider chat.Provider) {
	f.group.AddFallback(name, provider)
}

// Complete sends the request to the first healthy provider and returns its response.
func (f *ChatFallback) Complete(ctx context.Context, req chat.CompletionRequest) (*chat.CompletionResponse, error) {
	return ExecuteWithResult(f.group, func(p chat.Provider) (*chat.CompletionResponse, error) {
		return p.Complete(ctx, req)
	})
}

// StreamCompletion sends the request to the first healthy provider and returns
// a streaming chunk channel. Only the initial connection attempt is covered by
// failover; once a stream is established, mid-stream errors are the caller's
// responsibility.
func (f *ChatFallback) StreamCompletion(ctx context.Context, req chat.CompletionRequest) (<-chan chat.Chunk, error) {
	return ExecuteWithResult(f.group, func(p chat.Provider) (<-chan chat.Chunk, error) {
		return p.StreamCompletion(ctx, req)
	})
}

// CountTokens delegates to the first healthy provider's token counter.
func (f *ChatFallback) CountTokens(messages []types.Message) (int, error) {
	return ExecuteWithResult(f.group, func(p chat.Provider) (int, error) {
		return p.CountTokens(messages)
	})
}

// Capabilities returns the capabilities of the first entry (the primary). This
// does not participate in failover because capabilities are static metadata.
func (f *ChatFallback) Capabilities() types.ModelCapabilities {
	if len(f.group.entries) > 0 {
		return f.group.entries[0].value.Capabilities()
	}
	return types.ModelCapabilities{}
}

package resilience

import (
	"context"
	"errors"
	"testing"

	"github.com/solpercival/thoth/pkg/provider/chat"
	chatmock "github.com/solpercival/thoth/pkg/provider/chat/mock"
	"github.com/solpercival/thoth/pkg/types"
)

func TestChatFallback_Complete_PrimarySuccess(t *testing.T) {
	primary := &chatmock.Provider{
		CompleteResponse: &chat.CompletionResponse{Content: "hello from primary"},
	}
	secondary := &chatmock.Provider{
		CompleteResponse: &chat.CompletionResponse{Content: "hello from secondary"},
	}

	fb := NewChatFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	resp, err := fb.Complete(context.Background(), chat.CompletionRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "hello from primary" {
		t.Fatalf("content = %q, want 'hello from primary'", resp.Content)
	}
	if len(secondary.CompleteCalls) != 0 {
		t.Fatalf("secondary called %d times, want 0", len(secondary.CompleteCalls))
	}
}

func TestChatFallback_Complete_Failover(t *testing.T) {
	primary := &chatmock.Provider{CompleteErr: errors.New("primary down")}
	secondary := &chatmock.Provider{
		CompleteResponse: &chat.CompletionResponse{Content: "hello from secondary"},
	}

	fb := NewChatFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	resp, err := fb.Complete(context.Background(), chat.CompletionRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "hello from secondary" {
		t.Fatalf("content = %q, want 'hello from secondary'", resp.Content)
	}
}

func TestChatFallback_Complete_AllFail(t *testing.T) {
	primary := &chatmock.Provider{CompleteErr: errors.New("primary down")}
	secondary := &chatmock.Provider{CompleteErr: errors.New("secondary down")}

	fb := NewChatFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	_, err := fb.Complete(context.Background(), chat.CompletionRequest{})
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}

func TestChatFallback_CountTokens(t *testing.T) {
	primary := &chatmock.Provider{CountTokensErr: errors.New("count failed")}
	secondary := &chatmock.Provider{TokenCount: 42}

	fb := NewChatFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	count, err := fb.CountTokens([]types.Message{{Role: "user", Content: "test"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 42 {
		t.Fatalf("count = %d, want 42", count)
	}
}

func TestChatFallback_Capabilities(t *testing.T) {
	primary := &chatmock.Provider{
		ModelCapabilities: types.ModelCapabilities{
			ContextWindow:       128000,
			SupportsToolCalling: true,
		},
	}

	fb := NewChatFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})

	caps := fb.Capabilities()
	if caps.ContextWindow != 128000 {
		t.Fatalf("ContextWindow = %d, want 128000", caps.ContextWindow)
	}
}

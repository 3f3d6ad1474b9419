package datereasoner

import (
	"context"
	"testing"
	"time"

	"github.com/solpercival/thoth/internal/shift"
	"github.com/solpercival/thoth/pkg/provider/chat"
	"github.com/solpercival/thoth/pkg/provider/chat/mock"
)

func mustToday(t *testing.T) time.Time {
	t.Helper()
	today, err := time.ParseInLocation(shift.DateLayout, "2025-12-16", time.Local)
	if err != nil {
		t.Fatalf("parse today: %v", err)
	}
	return today
}

func TestResolveToday_PrecedenceOverrideThenConfigThenClock(t *testing.T) {
	override := mustToday(t)
	got, err := ResolveToday(&override, "2020-01-01")
	if err != nil {
		t.Fatalf("ResolveToday: %v", err)
	}
	if !got.Equal(override) {
		t.Fatalf("override not honoured: got %v", got)
	}

	got, err = ResolveToday(nil, "2020-01-01")
	if err != nil {
		t.Fatalf("ResolveToday: %v", err)
	}
	want, _ := time.ParseInLocation(shift.DateLayout, "2020-01-01", time.Local)
	if !got.Equal(want) {
		t.Fatalf("config value not honoured: got %v, want %v", got, want)
	}

	if _, err := ResolveToday(nil, ""); err != nil {
		t.Fatalf("ResolveToday with no override/config: %v", err)
	}
}

func TestInfer_ValidReplySucceedsOnFirstAttempt(t *testing.T) {
	today := mustToday(t)
	chatMock := &mock.Provider{
		CompleteResponse: &chat.CompletionResponse{
			Content: `Sure thing. {"is_shift_query": true, "intent": "cancel", "start": "2025-12-17", "end": "2025-12-17", "rationale": "tomorrow"}`,
		},
	}
	r := New(chatMock, today, 0, nil)

	result := r.Infer(context.Background(), "cancel my shift tomorrow")
	if len(chatMock.CompleteCalls) != 1 {
		t.Fatalf("expected 1 chat call, got %d", len(chatMock.CompleteCalls))
	}
	if result.Intent != shift.IntentCancel || !result.IsShiftQuery {
		t.Fatalf("unexpected result: %+v", result)
	}
	wantDate, _ := time.ParseInLocation(shift.DateLayout, "2025-12-17", time.Local)
	if !result.Interval.Start.Equal(wantDate) || !result.Interval.End.Equal(wantDate) {
		t.Fatalf("unexpected interval: %+v", result.Interval)
	}
}

func TestInfer_RetriesOnceOnMalformedReply(t *testing.T) {
	today := mustToday(t)
	chatMock := &mock.Provider{
		CompleteResponse: &chat.CompletionResponse{Content: "not json at all"},
	}
	r := New(chatMock, today, 0, nil)

	result := r.Infer(context.Background(), "cancel my shift tomorrow")
	if len(chatMock.CompleteCalls) != 2 {
		t.Fatalf("expected 2 chat calls (one retry), got %d", len(chatMock.CompleteCalls))
	}
	if result.Rationale != "default" {
		t.Fatalf("expected default result, got %+v", result)
	}
	if result.Interval.Start != today || !result.Interval.End.Equal(today.AddDate(0, 0, 7)) {
		t.Fatalf("default interval not [today, today+7]: %+v", result.Interval)
	}
	if result.IsShiftQuery || result.Intent != shift.IntentUnknown {
		t.Fatalf("default classification wrong: %+v", result)
	}
}

func TestInfer_RejectsStartAfterEnd(t *testing.T) {
	today := mustToday(t)
	chatMock := &mock.Provider{
		CompleteResponse: &chat.CompletionResponse{
			Content: `{"is_shift_query": true, "intent": "view", "start": "2025-12-20", "end": "2025-12-17", "rationale": "bad range"}`,
		},
	}
	r := New(chatMock, today, 0, nil)
	result := r.Infer(context.Background(), "what shifts next week")
	if result.Rationale != "default" {
		t.Fatalf("expected fallback to default for start > end, got %+v", result)
	}
}

func TestEnsureSystemMessage_AlwaysFirst(t *testing.T) {
	today := mustToday(t)
	chatMock := &mock.Provider{
		CompleteResponse: &chat.CompletionResponse{
			Content: `{"is_shift_query": false, "intent": "unknown", "start": "2025-12-16", "end": "2025-12-23", "rationale": "n/a"}`,
		},
	}
	r := New(chatMock, today, 0, nil)
	r.Infer(context.Background(), "hello")
	msgs := chatMock.CompleteCalls[0].Req.Messages
	if len(msgs) == 0 || msgs[0].Role != "system" {
		t.Fatalf("first message not system: %+v", msgs)
	}
}

package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/solpercival/thoth/internal/conversation"
	"github.com/solpercival/thoth/pkg/provider/chat"
	chatmock "github.com/solpercival/thoth/pkg/provider/chat/mock"
	"github.com/solpercival/thoth/pkg/provider/synth"
	synthmock "github.com/solpercival/thoth/pkg/provider/synth/mock"
	"github.com/solpercival/thoth/pkg/provider/transcriber"
	transcribermock "github.com/solpercival/thoth/pkg/provider/transcriber/mock"
)

func newTestSynthesizer(t *testing.T) (*synth.Synthesizer, *synthmock.Device) {
	t.Helper()
	device := &synthmock.Device{}
	provider := &synthmock.Provider{SynthesizeChunks: [][]byte{[]byte("pcm")}}
	s, err := synth.New(provider, map[string]synth.Device{"default": device}, "default", nil)
	if err != nil {
		t.Fatalf("synth.New: %v", err)
	}
	return s, device
}

func newTestCore(reply string, replyErr error) *conversation.Core {
	chatProvider := &chatmock.Provider{
		CompleteResponse: &chat.CompletionResponse{Content: reply},
		CompleteErr:      replyErr,
	}
	return conversation.New(chatProvider, nil, "0431256441", time.Second, nil)
}

func TestOnUtterance_PausesAndResumesAroundProcessing(t *testing.T) {
	synthesizer, device := newTestSynthesizer(t)
	transcriberSess := &transcribermock.Session{}
	core := newTestCore("a plain reply with no tag", nil)

	sess := &Session{
		callID:          "call-1",
		transcriberSess: transcriberSess,
		core:            core,
		synth:           synthesizer,
	}
	if err := transcriberSess.Start(context.Background(), nil, sess.onUtterance(context.Background())); err != nil {
		t.Fatalf("Start: %v", err)
	}

	transcriberSess.Emit(transcriber.Utterance{Text: "what shift do I have"})

	if transcriberSess.PauseCalls != 1 || transcriberSess.ResumeCalls != 1 {
		t.Errorf("PauseCalls=%d ResumeCalls=%d, want 1 each", transcriberSess.PauseCalls, transcriberSess.ResumeCalls)
	}
	if transcriberSess.IsPaused() {
		t.Error("session left paused after onUtterance returned")
	}
	if len(device.Written) != 1 {
		t.Fatalf("device.Written = %d writes, want 1", len(device.Written))
	}
}

func TestOnUtterance_CoreErrorSpeaksApologyAndResetsContext(t *testing.T) {
	synthesizer, device := newTestSynthesizer(t)
	transcriberSess := &transcribermock.Session{}
	core := newTestCore("", errors.New("boom"))

	sess := &Session{
		callID:          "call-2",
		transcriberSess: transcriberSess,
		core:            core,
		synth:           synthesizer,
	}
	if err := transcriberSess.Start(context.Background(), nil, sess.onUtterance(context.Background())); err != nil {
		t.Fatalf("Start: %v", err)
	}

	transcriberSess.Emit(transcriber.Utterance{Text: "cancel my shift"})

	if len(device.Written) != 1 {
		t.Fatalf("device.Written = %d writes, want 1 (the apology)", len(device.Written))
	}
}

func TestOnUtterance_SynthesizerErrorIsDroppedNotFatal(t *testing.T) {
	device := &synthmock.Device{WriteErr: synthmock.ErrWrite}
	provider := &synthmock.Provider{SynthesizeChunks: [][]byte{[]byte("pcm")}}
	synthesizer, err := synth.New(provider, map[string]synth.Device{"default": device}, "default", nil)
	if err != nil {
		t.Fatalf("synth.New: %v", err)
	}

	transcriberSess := &transcribermock.Session{}
	core := newTestCore("a plain reply", nil)
	sess := &Session{callID: "call-3", transcriberSess: transcriberSess, core: core, synth: synthesizer}

	if err := transcriberSess.Start(context.Background(), nil, sess.onUtterance(context.Background())); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Must not panic or otherwise propagate; the handler just logs and drops.
	transcriberSess.Emit(transcriber.Utterance{Text: "hello"})
}

func TestRun_ReturnsWhenStopSignalFires(t *testing.T) {
	synthesizer, _ := newTestSynthesizer(t)
	transcriberSess := &transcribermock.Session{}
	core := newTestCore("ok", nil)

	sess := &Session{
		callID:          "call-4",
		transcriberSess: transcriberSess,
		core:            core,
		synth:           synthesizer,
		audioTerminated: make(chan struct{}), // never closes
	}

	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- sess.Run(context.Background(), stop) }()

	close(stop)

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after stop signal fired")
	}
	if transcriberSess.CloseCalls == 0 {
		t.Error("expected Close to have been called on the transcriber session")
	}
}

func TestRun_ReturnsWhenTranscriberTerminates(t *testing.T) {
	synthesizer, _ := newTestSynthesizer(t)
	transcriberSess := &transcribermock.Session{}
	core := newTestCore("ok", nil)

	terminated := make(chan struct{})
	close(terminated) // audio source already exhausted

	sess := &Session{
		callID:          "call-5",
		transcriberSess: transcriberSess,
		core:            core,
		synth:           synthesizer,
		audioTerminated: terminated,
	}

	stop := make(chan struct{}) // never closed in this test
	done := make(chan error, 1)
	go func() { done <- sess.Run(context.Background(), stop) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after transcriber termination")
	}
}

func TestTerminationSignalingReader_ClosesDoneOnFirstError(t *testing.T) {
	r := newTerminationSignalingReader(bytes.NewReader(nil))

	buf := make([]byte, 16)
	_, err := r.Read(buf)
	if err != io.EOF {
		t.Fatalf("Read err = %v, want io.EOF", err)
	}

	select {
	case <-r.done:
	default:
		t.Fatal("done channel not closed after Read returned an error")
	}

	// A second Read (also erroring) must not panic from a double close.
	if _, err := r.Read(buf); err != io.EOF {
		t.Fatalf("second Read err = %v, want io.EOF", err)
	}
}

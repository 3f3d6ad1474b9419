package synth_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/solpercival/thoth/pkg/provider/synth"
	"github.com/solpercival/thoth/pkg/provider/synth/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_UnknownDeviceFallsBackToDefault(t *testing.T) {
	def := &mock.Device{}
	named := &mock.Device{}
	devices := map[string]synth.Device{"default": def, "speaker-1": named}

	s, err := synth.New(&mock.Provider{}, devices, "nonexistent", discardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := s.Speak(context.Background(), "hi"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if named.WriteCalls != 0 {
		t.Fatalf("named device should not have been written to, got %d calls", named.WriteCalls)
	}
}

func TestNew_RequiresDefaultDevice(t *testing.T) {
	devices := map[string]synth.Device{"speaker-1": &mock.Device{}}
	if _, err := synth.New(&mock.Provider{}, devices, "speaker-1", discardLogger()); err == nil {
		t.Fatal("expected error when devices lacks a default entry")
	}
}

func TestSpeak_WritesChunksInOrder(t *testing.T) {
	def := &mock.Device{}
	devices := map[string]synth.Device{"default": def}
	provider := &mock.Provider{SynthesizeChunks: [][]byte{[]byte("one"), []byte("two"), []byte("three")}}

	s, err := synth.New(provider, devices, "default", discardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Speak(context.Background(), "hello there"); err != nil {
		t.Fatalf("Speak: %v", err)
	}

	var got bytes.Buffer
	for _, chunk := range def.Written {
		got.Write(chunk)
	}
	if got.String() != "onetwothree" {
		t.Fatalf("Written = %q, want %q", got.String(), "onetwothree")
	}
	if len(provider.SynthesizeCalls) != 1 || provider.SynthesizeCalls[0] != "hello there" {
		t.Fatalf("SynthesizeCalls = %v", provider.SynthesizeCalls)
	}
}

func TestSpeak_PropagatesSynthesizeError(t *testing.T) {
	devices := map[string]synth.Device{"default": &mock.Device{}}
	provider := &mock.Provider{SynthesizeErr: io.ErrUnexpectedEOF}

	s, err := synth.New(provider, devices, "default", discardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Speak(context.Background(), "hi"); err == nil {
		t.Fatal("expected error from Speak")
	}
}

func TestSpeak_PropagatesDeviceWriteError(t *testing.T) {
	def := &mock.Device{WriteErr: mock.ErrWrite}
	devices := map[string]synth.Device{"default": def}
	provider := &mock.Provider{SynthesizeChunks: [][]byte{[]byte("chunk")}}

	s, err := synth.New(provider, devices, "default", discardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Speak(context.Background(), "hi"); err == nil {
		t.Fatal("expected error from Speak")
	}
}

// Package transcriber defines the Transcriber interface driving the
// Audio I/O adapters. A Transcriber wraps a speech-to-text backend and
// delivers completed utterances — never partial fragments — to a single
// per-session callback, one at a time, on a single logical thread.
package transcriber

import (
	"context"
	"errors"
	"io"
	"time"
)

// Utterance is one completed phrase delivered to a session's handler.
type Utterance struct {
	// Text is the transcribed content of the utterance.
	Text string

	// Duration is how long the utterance lasted.
	Duration time.Duration
}

// Config configures a transcription session.
type Config struct {
	// AudioSource provides the raw 16-bit signed little-endian PCM audio for
	// this call leg. The session owns reading from it until Close; it is
	// the caller's responsibility to ensure AudioSource unblocks (e.g. by
	// closing the underlying connection) when the call ends.
	AudioSource io.Reader

	// SampleRate is the PCM sample rate, in Hz, of audio read from AudioSource.
	SampleRate int

	// Channels is the channel count of the inbound audio (1 for mono
	// telephony audio).
	Channels int

	// SilenceTimeout is the trailing-silence duration that delimits the end
	// of an utterance. Zero selects the provider default of 5s.
	SilenceTimeout time.Duration

	// MaxUtteranceDuration is a hard cap on a single utterance's length,
	// forcing a flush even without detected silence. Zero selects the
	// provider default of 15s.
	MaxUtteranceDuration time.Duration
}

// DefaultSilenceTimeout is applied when Config.SilenceTimeout is zero.
const DefaultSilenceTimeout = 5 * time.Second

// DefaultMaxUtteranceDuration is applied when Config.MaxUtteranceDuration is zero.
const DefaultMaxUtteranceDuration = 15 * time.Second

// ErrAlreadyStarted is returned by Start when called on a session that has
// already been started.
var ErrAlreadyStarted = errors.New("transcriber: session already started")

// ErrNotStarted is returned by Pause, Resume, or Close when called before Start.
var ErrNotStarted = errors.New("transcriber: session not started")

// Session represents one call's live transcription session. All methods are
// safe for concurrent use; Pause and Resume are idempotent.
type Session interface {
	// Start begins producing Utterance events, invoking onUtterance once per
	// completed phrase in arrival order on a single logical thread — the
	// caller's handler never needs to deal with concurrent utterances for
	// this session. Start returns immediately; delivery happens in the
	// background until stopSignal is done or Close is called.
	//
	// Calling Start more than once returns ErrAlreadyStarted.
	Start(ctx context.Context, stopSignal <-chan struct{}, onUtterance func(Utterance)) error

	// Pause suppresses utterance delivery. Audio capture need not stop;
	// buffered or in-flight audio is simply not delivered as an utterance
	// while paused. Calling Pause while already paused is a no-op.
	Pause() error

	// Resume reverses Pause. Calling Resume while not paused is a no-op.
	Resume() error

	// Close terminates the session and releases all associated resources.
	// Calling Close more than once is safe and returns nil.
	Close() error
}

// Provider opens new transcription sessions against a concrete backend.
type Provider interface {
	// NewSession opens a new transcription [Session] using cfg. The
	// returned Session is not started until Start is called.
	NewSession(cfg Config) (Session, error)
}

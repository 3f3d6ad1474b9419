package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/solpercival/thoth/internal/conversation"
	"github.com/solpercival/thoth/pkg/provider/synth"
	"github.com/solpercival/thoth/pkg/provider/transcriber"
)

// apologyText is spoken, once, whenever a handler error reaches the Session
// boundary.
const apologyText = "Sorry, I had a problem — let's start over."

// Session owns one call's live resources: a Transcriber session, a
// Conversation Core (which in turn owns the Chat history and the Workflow
// handle), and a shared Synthesizer. Run blocks until the cooperative stop
// signal fires or the Transcriber terminates.
type Session struct {
	callID      string
	callerPhone string
	startedAt   time.Time

	transcriberSess transcriber.Session
	core            *conversation.Core
	synth           *synth.Synthesizer

	audioTerminated <-chan struct{}

	logger *slog.Logger
}

// New constructs a Session for one call. transcriberCfg.AudioSource is
// wrapped internally so the Session can detect the Transcriber's
// termination even though transcriber.Session itself exposes no
// termination-notification channel.
func New(callID, callerPhone string, transcriberProvider transcriber.Provider, transcriberCfg transcriber.Config, core *conversation.Core, synthesizer *synth.Synthesizer, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}

	wrapped := newTerminationSignalingReader(transcriberCfg.AudioSource)
	transcriberCfg.AudioSource = wrapped

	transcriberSess, err := transcriberProvider.NewSession(transcriberCfg)
	if err != nil {
		return nil, fmt.Errorf("session: open transcriber session for %q: %w", callID, err)
	}

	return &Session{
		callID:          callID,
		callerPhone:     callerPhone,
		startedAt:       time.Now(),
		transcriberSess: transcriberSess,
		core:            core,
		synth:           synthesizer,
		audioTerminated: wrapped.done,
		logger:          logger,
	}, nil
}

// CallID returns the call_id this Session was created for.
func (s *Session) CallID() string { return s.callID }

// StartedAt returns when the Session was created.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Run starts the Transcriber and blocks until stopSignal fires or the
// Transcriber terminates on its own (its audio source reached EOF or
// errored). Either way, it releases the Transcriber before returning; the
// Synthesizer and Chat/Workflow handles are simply dropped by the caller
// once Run returns, per the documented termination behavior.
func (s *Session) Run(ctx context.Context, stopSignal <-chan struct{}) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-stopSignal:
			cancel()
		case <-runCtx.Done():
		}
	}()

	if err := s.transcriberSess.Start(runCtx, stopSignal, s.onUtterance(runCtx)); err != nil {
		return fmt.Errorf("session: start transcriber for %q: %w", s.callID, err)
	}

	select {
	case <-stopSignal:
	case <-s.audioTerminated:
		s.logger.Info("session: transcriber terminated", "call_id", s.callID)
	}

	return s.Close()
}

// Close releases the Transcriber. Safe to call more than once.
func (s *Session) Close() error {
	return s.transcriberSess.Close()
}

// onUtterance returns the per-utterance handler passed to the Transcriber.
// Utterances for one session are delivered one at a time on a single
// logical thread, so no additional synchronization is needed here; pausing
// the Transcriber for the duration of handler execution is what enforces
// that ordering upstream.
func (s *Session) onUtterance(ctx context.Context) func(transcriber.Utterance) {
	return func(u transcriber.Utterance) {
		if err := s.transcriberSess.Pause(); err != nil {
			s.logger.Warn("session: pause transcriber failed", "call_id", s.callID, "err", err)
		}
		defer func() {
			if err := s.transcriberSess.Resume(); err != nil {
				s.logger.Warn("session: resume transcriber failed", "call_id", s.callID, "err", err)
			}
		}()

		reply, err := s.core.OnUtterance(ctx, u.Text)
		if err != nil {
			s.logger.Warn("session: conversation core error, resetting context", "call_id", s.callID, "err", err)
			s.core.ResetContext()
			reply = apologyText
		}
		if reply == "" {
			return
		}

		if err := s.synth.Speak(ctx, reply); err != nil {
			s.logger.Warn("session: synthesizer speak failed, dropping reply", "call_id", s.callID, "err", err)
		}
	}
}

// terminationSignalingReader wraps an io.Reader and closes done the first
// time a Read call returns a non-nil error (including io.EOF). The
// transcriber's internal read loop exits silently on such an error with no
// externally observable signal; this wrapper is what lets Run notice.
type terminationSignalingReader struct {
	io.Reader
	done chan struct{}
	once sync.Once
}

func newTerminationSignalingReader(r io.Reader) *terminationSignalingReader {
	return &terminationSignalingReader{Reader: r, done: make(chan struct{})}
}

func (r *terminationSignalingReader) Read(p []byte) (int, error) {
	n, err := r.Reader.Read(p)
	if err != nil {
		r.once.Do(func() { close(r.done) })
	}
	return n, err
}

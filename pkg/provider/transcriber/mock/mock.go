// Package mock provides test doubles for the transcriber.Provider and
// transcriber.Session interfaces.
package mock

import (
	"context"
	"sync"

	"github.com/solpercival/thoth/pkg/provider/transcriber"
)

// Provider is a mock implementation of transcriber.Provider that always
// returns Session (or NewSessionErr, if set).
type Provider struct {
	Session      *Session
	NewSessionErr error
}

// NewSession implements transcriber.Provider.
func (p *Provider) NewSession(cfg transcriber.Config) (transcriber.Session, error) {
	if p.NewSessionErr != nil {
		return nil, p.NewSessionErr
	}
	if p.Session == nil {
		p.Session = &Session{}
	}
	return p.Session, nil
}

// Session is a mock implementation of transcriber.Session. Tests drive it by
// calling Emit to simulate an utterance arriving.
type Session struct {
	mu          sync.Mutex
	onUtterance func(transcriber.Utterance)
	paused      bool
	started     bool
	closed      bool

	StartErr error

	// PauseCalls / ResumeCalls / CloseCalls count invocations.
	PauseCalls  int
	ResumeCalls int
	CloseCalls  int
}

// Start implements transcriber.Session.
func (s *Session) Start(ctx context.Context, stopSignal <-chan struct{}, onUtterance func(transcriber.Utterance)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.StartErr != nil {
		return s.StartErr
	}
	if s.started {
		return transcriber.ErrAlreadyStarted
	}
	s.started = true
	s.onUtterance = onUtterance
	return nil
}

// Pause implements transcriber.Session.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return transcriber.ErrNotStarted
	}
	s.PauseCalls++
	s.paused = true
	return nil
}

// Resume implements transcriber.Session.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return transcriber.ErrNotStarted
	}
	s.ResumeCalls++
	s.paused = false
	return nil
}

// Close implements transcriber.Session.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCalls++
	s.closed = true
	return nil
}

// Emit simulates an utterance arriving. It is a no-op if the session is
// paused or not started, matching real Session semantics.
func (s *Session) Emit(u transcriber.Utterance) {
	s.mu.Lock()
	cb := s.onUtterance
	paused := s.paused
	started := s.started
	s.mu.Unlock()
	if !started || paused || cb == nil {
		return
	}
	cb(u)
}

// IsPaused reports whether the session is currently paused.
func (s *Session) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Compile-time assertions.
var (
	_ transcriber.Provider = (*Provider)(nil)
	_ transcriber.Session  = (*Session)(nil)
)

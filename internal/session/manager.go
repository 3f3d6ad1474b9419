// Package session owns the per-call Session Manager and the Session it
// creates: the registry that maps a telephony call_id to its live
// Conversation Core, Transcriber, and Synthesizer, and the per-call
// object that routes utterances between them.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/solpercival/thoth/internal/conversation"
	"github.com/solpercival/thoth/pkg/provider/chat"
	"github.com/solpercival/thoth/pkg/provider/synth"
	"github.com/solpercival/thoth/pkg/provider/transcriber"
)

// defaultStopGrace bounds how long Stop waits for a session to shut down
// cleanly before force-releasing its resources.
const defaultStopGrace = 5 * time.Second

// defaultMaxSessionAge bounds how long a session may stay registered before
// GarbageCollect force-stops it. No legitimate shift-inquiry call runs
// anywhere near this long; it exists purely to reap sessions whose
// Transcriber died without ever signalling termination.
const defaultMaxSessionAge = 4 * time.Hour

// ErrAlreadyExists is returned by Start when call_id already has a live
// session.
var ErrAlreadyExists = errors.New("session: call already active")

// ErrNotFound is returned by Stop when call_id names no live session.
var ErrNotFound = errors.New("session: call not found")

// AudioSourceFactory resolves a live call's inbound PCM audio stream. It is
// the narrow boundary onto the telephony leg the Session Manager never
// manages directly: main.go supplies an implementation that is wired to
// whatever carries the call's audio into this process.
type AudioSourceFactory func(ctx context.Context, callID string) (io.Reader, error)

// ManagerConfig holds the collaborators shared by every Session the Manager
// creates.
type ManagerConfig struct {
	AudioSources        AudioSourceFactory
	TranscriberProvider transcriber.Provider
	ChatProvider        chat.Provider
	Workflow            conversation.Workflow
	Synthesizer         *synth.Synthesizer

	// SampleRate and Channels describe the inbound PCM format for every
	// call; telephony audio is uniformly 8kHz mono.
	SampleRate int
	Channels   int

	// RequestTimeout bounds each Conversation Core Chat call.
	RequestTimeout time.Duration

	// StopGrace bounds how long Stop waits for clean shutdown before
	// force-releasing resources. Defaults to 5s when zero.
	StopGrace time.Duration

	// MaxSessionAge bounds how long a session may remain registered before
	// GarbageCollect force-stops it. Defaults to 4h when zero.
	MaxSessionAge time.Duration

	Logger *slog.Logger
}

// SessionStatus is one entry in a Status snapshot.
type SessionStatus struct {
	CallID    string
	Uptime    time.Duration
	StartedAt time.Time
}

// Status is a point-in-time snapshot of every live session.
type Status struct {
	Count    int
	Sessions []SessionStatus
}

// entry is the registry's bookkeeping for one live session.
type entry struct {
	session     *Session
	stop        chan struct{}
	done        chan struct{}
	stopped     bool
	startedAt   time.Time
	callerPhone string
}

// Manager is the process-wide registry of live Sessions, keyed by call_id.
// The registry itself is protected by a single mutex; all per-session work
// (audio resolution, Session construction, the Session's own run loop) runs
// outside that mutex — Sessions never reach back into the registry.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry

	cfg ManagerConfig
}

// NewManager constructs a Manager from cfg.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.StopGrace <= 0 {
		cfg.StopGrace = defaultStopGrace
	}
	if cfg.MaxSessionAge <= 0 {
		cfg.MaxSessionAge = defaultMaxSessionAge
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	return &Manager{
		sessions: make(map[string]*entry),
		cfg:      cfg,
	}
}

// Start constructs and registers a Session for call_id, failing with
// ErrAlreadyExists if one is already live. The Session's Transcriber is
// started synchronously as part of Start; the Session's event loop then
// runs on a background goroutine.
func (m *Manager) Start(ctx context.Context, callID, callerPhone string) error {
	if m.exists(callID) {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, callID)
	}

	audioSource, err := m.cfg.AudioSources(ctx, callID)
	if err != nil {
		return fmt.Errorf("session: resolve audio source for %q: %w", callID, err)
	}

	core := conversation.New(m.cfg.ChatProvider, m.cfg.Workflow, callerPhone, m.cfg.RequestTimeout, m.cfg.Logger)
	transcriberCfg := transcriber.Config{
		AudioSource: audioSource,
		SampleRate:  m.cfg.SampleRate,
		Channels:    m.cfg.Channels,
	}

	sess, err := New(callID, callerPhone, m.cfg.TranscriberProvider, transcriberCfg, core, m.cfg.Synthesizer, m.cfg.Logger)
	if err != nil {
		return fmt.Errorf("session: create session %q: %w", callID, err)
	}

	e := &entry{
		session:     sess,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
		startedAt:   time.Now(),
		callerPhone: callerPhone,
	}

	m.mu.Lock()
	if _, exists := m.sessions[callID]; exists {
		m.mu.Unlock()
		sess.Close()
		return fmt.Errorf("%w: %s", ErrAlreadyExists, callID)
	}
	m.sessions[callID] = e
	m.mu.Unlock()

	go m.run(callID, e)

	m.cfg.Logger.Info("session started", "call_id", callID, "caller_phone", callerPhone)
	return nil
}

// run drives one session's Run loop to completion and deregisters it,
// regardless of whether it terminated cooperatively (Stop) or because its
// Transcriber stopped producing.
func (m *Manager) run(callID string, e *entry) {
	defer close(e.done)
	if err := e.session.Run(context.Background(), e.stop); err != nil {
		m.cfg.Logger.Warn("session: run ended with error", "call_id", callID, "err", err)
	}
	m.mu.Lock()
	delete(m.sessions, callID)
	m.mu.Unlock()
	m.cfg.Logger.Info("session stopped", "call_id", callID)
}

// Stop signals call_id's session to shut down, waits up to StopGrace for it
// to exit cleanly, then force-releases its audio resources. Fails with
// ErrNotFound if call_id is unknown.
func (m *Manager) Stop(callID string) error {
	m.mu.Lock()
	e, ok := m.sessions[callID]
	if ok && !e.stopped {
		e.stopped = true
		close(e.stop)
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, callID)
	}

	select {
	case <-e.done:
		return nil
	case <-time.After(m.cfg.StopGrace):
		m.cfg.Logger.Warn("session: stop grace period elapsed, force-releasing resources", "call_id", callID)
		return e.session.Close()
	}
}

// StopAll concurrently stops every live session, bounded by StopGrace each.
// Call sites are few — it exists for process shutdown, where every call
// should hang up cleanly before the process exits rather than being dropped
// one at a time. Errors from individual stops are collected and joined; a
// slow or stuck session does not delay the others.
func (m *Manager) StopAll() error {
	m.mu.Lock()
	callIDs := make([]string, 0, len(m.sessions))
	for callID := range m.sessions {
		callIDs = append(callIDs, callID)
	}
	m.mu.Unlock()

	var eg errgroup.Group
	for _, callID := range callIDs {
		callID := callID
		eg.Go(func() error {
			if err := m.Stop(callID); err != nil && !errors.Is(err, ErrNotFound) {
				return fmt.Errorf("stop %q: %w", callID, err)
			}
			return nil
		})
	}
	return eg.Wait()
}

// GarbageCollect force-stops every session older than MaxSessionAge. It
// exists for the case Stop alone can't cover: a Transcriber whose internal
// read loop dies without its AudioSource ever returning an error never
// closes the Session's termination signal, so nothing short of an external
// sweep notices the call is dead. cmd/thothcall invokes this periodically;
// it is not triggered by any webhook event.
func (m *Manager) GarbageCollect() error {
	now := time.Now()
	m.mu.Lock()
	var stale []string
	for callID, e := range m.sessions {
		if now.Sub(e.startedAt) > m.cfg.MaxSessionAge {
			stale = append(stale, callID)
		}
	}
	m.mu.Unlock()

	var eg errgroup.Group
	for _, callID := range stale {
		callID := callID
		eg.Go(func() error {
			m.cfg.Logger.Warn("session: garbage-collecting stale session", "call_id", callID, "max_age", m.cfg.MaxSessionAge)
			if err := m.Stop(callID); err != nil && !errors.Is(err, ErrNotFound) {
				return fmt.Errorf("garbage collect %q: %w", callID, err)
			}
			return nil
		})
	}
	return eg.Wait()
}

// Status returns a snapshot view of every live session, safe to call
// concurrently with Start/Stop.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	st := Status{Count: len(m.sessions), Sessions: make([]SessionStatus, 0, len(m.sessions))}
	for callID, e := range m.sessions {
		st.Sessions = append(st.Sessions, SessionStatus{
			CallID:    callID,
			Uptime:    now.Sub(e.startedAt),
			StartedAt: e.startedAt,
		})
	}
	return st
}

func (m *Manager) exists(callID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[callID]
	return ok
}

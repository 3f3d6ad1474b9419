// Package streaming provides a transcriber.Provider that streams PCM audio
// to a remote speech-to-text endpoint over a websocket, for deployments that
// prefer a hosted transcription backend over local whisper.cpp inference.
//
// The wire protocol is a single websocket connection per session: binary
// frames carry raw PCM audio outbound, and text frames carry
// newline-delimited JSON `{"text":"...","final":true}` messages inbound. A
// message is treated as a completed utterance only when "final" is true;
// non-final messages are discarded, since this package has no use for
// interim partials.
package streaming

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/solpercival/thoth/pkg/provider/transcriber"
)

// Provider implements transcriber.Provider backed by a remote websocket STT endpoint.
type Provider struct {
	url string
}

// New creates a new Provider that dials url (e.g., "wss://stt.example.com/stream") per session.
func New(url string) (*Provider, error) {
	if url == "" {
		return nil, fmt.Errorf("streaming: url must not be empty")
	}
	return &Provider{url: url}, nil
}

// NewSession implements transcriber.Provider.
func (p *Provider) NewSession(cfg transcriber.Config) (transcriber.Session, error) {
	if cfg.AudioSource == nil {
		return nil, fmt.Errorf("streaming: cfg.AudioSource must not be nil")
	}
	return &session{
		url:    p.url,
		source: cfg.AudioSource,
		done:   make(chan struct{}),
	}, nil
}

type inboundMessage struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
}

type session struct {
	url    string
	source io.Reader
	conn   *websocket.Conn

	mu      sync.Mutex
	paused  bool
	started bool

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// Start implements transcriber.Session.
func (s *session) Start(ctx context.Context, stopSignal <-chan struct{}, onUtterance func(transcriber.Utterance)) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return transcriber.ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	conn, _, err := websocket.Dial(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("streaming: dial: %w", err)
	}
	s.conn = conn

	s.wg.Add(2)
	go s.writeLoop(ctx, stopSignal)
	go s.readLoop(ctx, stopSignal, onUtterance)
	return nil
}

// Pause implements transcriber.Session.
func (s *session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return transcriber.ErrNotStarted
	}
	s.paused = true
	return nil
}

// Resume implements transcriber.Session.
func (s *session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return transcriber.ErrNotStarted
	}
	s.paused = false
	return nil
}

// Close implements transcriber.Session.
func (s *session) Close() error {
	s.once.Do(func() {
		close(s.done)
		if s.conn != nil {
			s.conn.Close(websocket.StatusNormalClosure, "session closed")
		}
		s.wg.Wait()
	})
	return nil
}

func (s *session) isPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// writeLoop forwards audio chunks from source onto the websocket as binary frames.
func (s *session) writeLoop(ctx context.Context, stopSignal <-chan struct{}) {
	defer s.wg.Done()
	buf := make([]byte, 320)
	for {
		select {
		case <-s.done:
			return
		case <-stopSignal:
			return
		default:
		}
		n, err := s.source.Read(buf)
		if n > 0 {
			wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			werr := s.conn.Write(wctx, websocket.MessageBinary, buf[:n])
			cancel()
			if werr != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// readLoop receives transcript messages and dispatches completed utterances.
func (s *session) readLoop(ctx context.Context, stopSignal <-chan struct{}, onUtterance func(transcriber.Utterance)) {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case <-stopSignal:
			return
		default:
		}

		_, data, err := s.conn.Read(ctx)
		if err != nil {
			return
		}
		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if !msg.Final || msg.Text == "" {
			continue
		}
		if s.isPaused() {
			continue
		}
		onUtterance(transcriber.Utterance{Text: msg.Text})
	}
}

// Compile-time assertion that Provider implements transcriber.Provider.
var _ transcriber.Provider = (*Provider)(nil)

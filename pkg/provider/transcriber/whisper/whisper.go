// Package whisper provides a transcriber.Provider backed by a local
// whisper.cpp server.
//
// It connects to a running whisper-server binary (exposing a REST API at
// POST /inference) and simulates streaming behaviour by reading PCM audio
// from the session's AudioSource, applying an energy-based silence detector
// to segment utterances, and submitting each completed utterance as a batch
// inference request.
package whisper

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"github.com/solpercival/thoth/pkg/provider/transcriber"
)

const (
	bitsPerSample = 16

	// defaultRMSThreshold is the root-mean-square energy level (in 16-bit
	// PCM units) below which audio is considered silent.
	defaultRMSThreshold = 300.0

	defaultSampleRate = 8000
	readChunkBytes    = 320 // 20ms at 8kHz mono 16-bit
)

// Provider implements transcriber.Provider backed by a whisper.cpp HTTP server.
type Provider struct {
	serverURL  string
	model      string
	language   string
	httpClient *http.Client
}

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithModel sets the model identifier forwarded to the whisper.cpp server.
// Empty leaves the server's own default model in place.
func WithModel(model string) Option {
	return func(p *Provider) { p.model = model }
}

// WithLanguage sets the BCP-47 language code sent to the server. Defaults to "en".
func WithLanguage(lang string) Option {
	return func(p *Provider) { p.language = lang }
}

// New creates a new Provider that connects to the whisper.cpp HTTP server at
// serverURL (e.g., "http://localhost:8080").
func New(serverURL string, opts ...Option) (*Provider, error) {
	if serverURL == "" {
		return nil, fmt.Errorf("whisper: serverURL must not be empty")
	}
	p := &Provider{
		serverURL:  serverURL,
		language:   "en",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// NewSession implements transcriber.Provider.
func (p *Provider) NewSession(cfg transcriber.Config) (transcriber.Session, error) {
	if cfg.AudioSource == nil {
		return nil, fmt.Errorf("whisper: cfg.AudioSource must not be nil")
	}
	sr := cfg.SampleRate
	if sr <= 0 {
		sr = defaultSampleRate
	}
	ch := cfg.Channels
	if ch <= 0 {
		ch = 1
	}
	silence := cfg.SilenceTimeout
	if silence <= 0 {
		silence = transcriber.DefaultSilenceTimeout
	}
	maxDur := cfg.MaxUtteranceDuration
	if maxDur <= 0 {
		maxDur = transcriber.DefaultMaxUtteranceDuration
	}

	return &session{
		serverURL:  p.serverURL,
		model:      p.model,
		language:   p.language,
		httpClient: p.httpClient,
		source:     cfg.AudioSource,
		sampleRate: sr,
		channels:   ch,
		silence:    silence,
		maxDur:     maxDur,
		done:       make(chan struct{}),
	}, nil
}

// session is a live whisper transcription session implementing transcriber.Session.
type session struct {
	serverURL  string
	model      string
	language   string
	httpClient *http.Client
	source     io.Reader
	sampleRate int
	channels   int
	silence    time.Duration
	maxDur     time.Duration

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

	s.wg.Add(1)
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
		s.wg.Wait()
	})
	return nil
}

func (s *session) isPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// readLoop pulls fixed-size PCM chunks from source, applies silence
// detection, and dispatches completed utterances to onUtterance. Confining
// all mutable buffer state to this goroutine avoids additional synchronisation.
func (s *session) readLoop(ctx context.Context, stopSignal <-chan struct{}, onUtterance func(transcriber.Utterance)) {
	defer s.wg.Done()

	var (
		buffer      []byte
		hadSpeech   bool
		silenceTime time.Duration
		utterStart  time.Time
	)

	bytesPerMs := s.sampleRate * s.channels * (bitsPerSample / 8) / 1000
	if bytesPerMs <= 0 {
		bytesPerMs = 16
	}
	maxBufferBytes := int(s.maxDur.Milliseconds()) * bytesPerMs

	flush := func(flushCtx context.Context) {
		if len(buffer) == 0 || !hadSpeech {
			buffer = nil
			hadSpeech = false
			silenceTime = 0
			return
		}
		pcm := buffer
		dur := time.Since(utterStart)
		buffer = nil
		hadSpeech = false
		silenceTime = 0

		text, err := s.infer(flushCtx, pcm)
		if err != nil || text == "" {
			return
		}
		if s.isPaused() {
			return
		}
		onUtterance(transcriber.Utterance{Text: text, Duration: dur})
	}

	chunk := make([]byte, readChunkBytes)
	chunkDur := time.Duration(readChunkBytes) * time.Second / time.Duration(bytesPerMs*1000)

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopSignal:
			return
		case <-s.done:
			return
		default:
		}

		n, err := s.source.Read(chunk)
		if n > 0 {
			data := chunk[:n]
			rms := computeRMS(data)
			if rms < defaultRMSThreshold {
				if hadSpeech {
					silenceTime += chunkDur
					buffer = append(buffer, data...)
					if silenceTime >= s.silence {
						flush(ctx)
					}
				}
			} else {
				if !hadSpeech {
					utterStart = time.Now()
				}
				hadSpeech = true
				silenceTime = 0
				buffer = append(buffer, data...)
				if maxBufferBytes > 0 && len(buffer) >= maxBufferBytes {
					flush(ctx)
				}
			}
		}
		if err != nil {
			fc, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			flush(fc)
			cancel()
			return
		}
	}
}

// infer encodes pcm as a WAV file and POSTs it to the whisper.cpp /inference endpoint.
func (s *session) infer(ctx context.Context, pcm []byte) (string, error) {
	wav := encodeWAV(pcm, s.sampleRate, s.channels)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("whisper: create form file: %w", err)
	}
	if _, err := fw.Write(wav); err != nil {
		return "", fmt.Errorf("whisper: write wav data: %w", err)
	}
	if s.language != "" {
		if err := mw.WriteField("language", s.language); err != nil {
			return "", fmt.Errorf("whisper: write language field: %w", err)
		}
	}
	if s.model != "" {
		if err := mw.WriteField("model", s.model); err != nil {
			return "", fmt.Errorf("whisper: write model field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("whisper: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.serverURL+"/inference", &body)
	if err != nil {
		return "", fmt.Errorf("whisper: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("whisper: server returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("whisper: read response body: %w", err)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("whisper: parse JSON response: %w", err)
	}
	return result.Text, nil
}

// encodeWAV wraps raw 16-bit signed little-endian PCM data in a RIFF/WAV container.
func encodeWAV(pcm []byte, sampleRate, channels int) []byte {
	bps := bitsPerSample
	byteRate := sampleRate * channels * bps / 8
	blockAlign := channels * bps / 8
	dataSize := len(pcm)

	buf := make([]byte, 44+dataSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1)
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], uint16(bps))
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	copy(buf[44:], pcm)
	return buf
}

// computeRMS returns the root-mean-square energy of a 16-bit signed
// little-endian PCM buffer.
func computeRMS(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sample := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		v := float64(sample)
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}

// Compile-time assertion that Provider implements transcriber.Provider.
var _ transcriber.Provider = (*Provider)(nil)

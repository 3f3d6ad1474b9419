// Package mock provides test doubles for the synth.Provider and synth.Device
// interfaces.
package mock

import (
	"context"
	"errors"
	"sync"

	"github.com/solpercival/thoth/pkg/provider/synth"
)

// Provider is a mock implementation of synth.Provider.
type Provider struct {
	mu sync.Mutex

	// SynthesizeChunks is emitted, in order, on the channel returned by Synthesize.
	SynthesizeChunks [][]byte

	// SynthesizeErr, if non-nil, is returned instead of starting a stream.
	SynthesizeErr error

	// SynthesizeCalls records every text argument passed to Synthesize.
	SynthesizeCalls []string
}

// Synthesize implements synth.Provider.
func (p *Provider) Synthesize(ctx context.Context, text string) (<-chan []byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SynthesizeCalls = append(p.SynthesizeCalls, text)
	if p.SynthesizeErr != nil {
		return nil, p.SynthesizeErr
	}

	ch := make(chan []byte, len(p.SynthesizeChunks))
	go func() {
		defer close(ch)
		for _, chunk := range p.SynthesizeChunks {
			select {
			case ch <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// Reset clears all recorded calls.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SynthesizeCalls = nil
}

// Device is a mock implementation of synth.Device that records every chunk
// written to it.
type Device struct {
	mu        sync.Mutex
	WriteErr  error
	Written   [][]byte
	WriteCalls int
}

// Write implements synth.Device.
func (d *Device) Write(pcm []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.WriteCalls++
	if d.WriteErr != nil {
		return d.WriteErr
	}
	cp := make([]byte, len(pcm))
	copy(cp, pcm)
	d.Written = append(d.Written, cp)
	return nil
}

// ErrWrite is a convenience sentinel tests can assign to Device.WriteErr.
var ErrWrite = errors.New("mock: device write failed")

// Compile-time assertions.
var (
	_ synth.Provider = (*Provider)(nil)
	_ synth.Device   = (*Device)(nil)
)

// Package synth defines the Synthesizer driving the Audio I/O adapters: text
// goes in, and spoken audio comes out on a named output device. A Synthesizer
// wraps a text-to-speech Provider plus a set of named playback Devices and
// handles the "unknown device falls back to default" routing rule so callers
// never need to reason about device resolution themselves.
package synth

import (
	"context"
	"fmt"
	"log/slog"
)

// Provider converts text into a stream of raw 16-bit signed little-endian PCM
// audio chunks. Implementations must be safe for concurrent use.
type Provider interface {
	// Synthesize begins synthesising text and returns a channel of PCM
	// chunks. The channel is closed by the implementation when synthesis
	// completes or ctx is cancelled. Returns a non-nil error only if
	// synthesis could not be started; errors encountered mid-stream are
	// signalled by closing the channel early.
	Synthesize(ctx context.Context, text string) (<-chan []byte, error)
}

// Device is a named playback sink. Write blocks until pcm has been fully
// played (or queued for playback in a way that preserves ordering against
// subsequent Write calls).
type Device interface {
	Write(pcm []byte) error
}

// defaultDeviceName is the key every Devices map must carry; it is the
// fallback target when a requested device name is not registered.
const defaultDeviceName = "default"

// Synthesizer routes synthesized speech to a configured named output device,
// falling back to the default device (with a logged warning) when the
// configured name is not registered.
type Synthesizer struct {
	provider Provider
	device   Device
	name     string
	logger   *slog.Logger
}

// New builds a Synthesizer using provider for speech synthesis and devices as
// the catalogue of playback sinks. devices must contain a "default" entry.
// If deviceName is not present in devices, playback falls back to "default"
// and a warning is logged immediately.
func New(provider Provider, devices map[string]Device, deviceName string, logger *slog.Logger) (*Synthesizer, error) {
	def, ok := devices[defaultDeviceName]
	if !ok {
		return nil, fmt.Errorf("synth: devices must include a %q entry", defaultDeviceName)
	}
	if logger == nil {
		logger = slog.Default()
	}

	device, ok := devices[deviceName]
	if !ok {
		logger.Warn("output device not found, falling back to default", "requested_device", deviceName)
		device = def
		deviceName = defaultDeviceName
	}

	return &Synthesizer{provider: provider, device: device, name: deviceName, logger: logger}, nil
}

// Speak synthesizes text and blocks until it has been fully written to the
// configured device. There is no deadline on Speak itself; callers that need
// one should derive ctx with a timeout before calling.
func (s *Synthesizer) Speak(ctx context.Context, text string) error {
	chunks, err := s.provider.Synthesize(ctx, text)
	if err != nil {
		return fmt.Errorf("synth: %w", err)
	}
	for chunk := range chunks {
		if err := s.device.Write(chunk); err != nil {
			return fmt.Errorf("synth: write to device %q: %w", s.name, err)
		}
	}
	return ctx.Err()
}

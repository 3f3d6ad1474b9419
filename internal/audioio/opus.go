// Package audioio provides the codec and device plumbing behind the
// Synthesizer's named output devices: Opus encode/decode for telephony-rate
// audio, and concrete synth.Device sinks.
package audioio

import (
	"fmt"

	"layeh.com/gopus"
)

// Telephony audio is narrowband: 8 kHz mono, 20ms frames.
const (
	telephonySampleRate = 8000
	telephonyChannels   = 1
	opusFrameSizeMs     = 20
	// opusFrameSize is the number of samples per channel per 20ms frame.
	opusFrameSize = telephonySampleRate * opusFrameSizeMs / 1000 // 160
)

// OpusDecoder wraps a gopus Opus decoder for a single inbound call leg. Each
// session gets its own decoder to maintain decoder state correctly across
// consecutive frames.
type OpusDecoder struct {
	dec *gopus.Decoder
}

// NewOpusDecoder creates a new Opus decoder configured for telephony audio.
func NewOpusDecoder() (*OpusDecoder, error) {
	dec, err := gopus.NewDecoder(telephonySampleRate, telephonyChannels)
	if err != nil {
		return nil, fmt.Errorf("audioio: create opus decoder: %w", err)
	}
	return &OpusDecoder{dec: dec}, nil
}

// Decode decodes an Opus packet into interleaved 16-bit signed little-endian PCM.
func (d *OpusDecoder) Decode(opus []byte) ([]byte, error) {
	pcm, err := d.dec.Decode(opus, opusFrameSize, false)
	if err != nil {
		return nil, fmt.Errorf("audioio: opus decode: %w", err)
	}
	return int16sToBytes(pcm), nil
}

// OpusEncoder wraps a gopus Opus encoder for a single outbound call leg.
type OpusEncoder struct {
	enc *gopus.Encoder
}

// NewOpusEncoder creates a new Opus encoder configured for telephony audio.
func NewOpusEncoder() (*OpusEncoder, error) {
	enc, err := gopus.NewEncoder(telephonySampleRate, telephonyChannels, gopus.Audio)
	if err != nil {
		return nil, fmt.Errorf("audioio: create opus encoder: %w", err)
	}
	return &OpusEncoder{enc: enc}, nil
}

// Encode encodes interleaved 16-bit signed little-endian PCM into an Opus packet.
func (e *OpusEncoder) Encode(pcmBytes []byte) ([]byte, error) {
	pcm := bytesToInt16s(pcmBytes)
	opus, err := e.enc.Encode(pcm, opusFrameSize, len(pcmBytes))
	if err != nil {
		return nil, fmt.Errorf("audioio: opus encode: %w", err)
	}
	return opus, nil
}

func int16sToBytes(pcm []int16) []byte {
	b := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		b[i*2] = byte(s)
		b[i*2+1] = byte(s >> 8)
	}
	return b
}

func bytesToInt16s(b []byte) []int16 {
	pcm := make([]int16, len(b)/2)
	for i := range pcm {
		pcm[i] = int16(b[i*2]) | int16(b[i*2+1])<<8
	}
	return pcm
}

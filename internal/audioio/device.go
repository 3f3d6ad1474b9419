package audioio

import (
	"fmt"
	"io"
	"os"

	"github.com/solpercival/thoth/pkg/provider/synth"
)

// defaultDeviceName is the always-present fallback device.
const defaultDeviceName = "default"

// FileDevice is a synth.Device that Opus-encodes PCM frames and writes them
// to an underlying io.WriteCloser — a file, a named pipe, or (via the call
// leg's own plumbing) a live RTP sink. It stands in for a real hardware
// audio device, of which this system has none: the call leg is the only
// "speaker" that matters, so every named device ultimately resolves to one
// of these sinks.
type FileDevice struct {
	w   io.WriteCloser
	enc *OpusEncoder
}

// NewFileDevice wraps w as a synth.Device, encoding each Write call's PCM to
// Opus before writing it out.
func NewFileDevice(w io.WriteCloser) (*FileDevice, error) {
	enc, err := NewOpusEncoder()
	if err != nil {
		return nil, err
	}
	return &FileDevice{w: w, enc: enc}, nil
}

// Write implements synth.Device.
func (d *FileDevice) Write(pcm []byte) error {
	packet, err := d.enc.Encode(pcm)
	if err != nil {
		return fmt.Errorf("audioio: encode frame: %w", err)
	}
	if _, err := d.w.Write(packet); err != nil {
		return fmt.Errorf("audioio: write frame: %w", err)
	}
	return nil
}

// Close releases the underlying sink.
func (d *FileDevice) Close() error {
	return d.w.Close()
}

// BuildDevices constructs the named-device catalogue passed to synth.New.
// It always includes a "default" device backed by defaultPath, plus one
// entry for deviceName (if non-empty and different from "default") backed
// by a file of the same name inside dir. A deployment that configures an
// output device name unknown to this catalogue is exactly the case
// synth.New's unknown-device fallback handles; BuildDevices itself never
// fails for an unrecognised name; it fails only if the underlying sink
// cannot be opened.
func BuildDevices(dir, deviceName string) (map[string]synth.Device, error) {
	devices := make(map[string]synth.Device, 2)

	def, err := openNamedSink(dir, defaultDeviceName)
	if err != nil {
		return nil, fmt.Errorf("audioio: open default device: %w", err)
	}
	devices[defaultDeviceName] = def

	if deviceName != "" && deviceName != defaultDeviceName {
		dev, err := openNamedSink(dir, deviceName)
		if err != nil {
			return nil, fmt.Errorf("audioio: open device %q: %w", deviceName, err)
		}
		devices[deviceName] = dev
	}

	return devices, nil
}

func openNamedSink(dir, name string) (synth.Device, error) {
	f, err := os.OpenFile(dir+"/"+name+".opus", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return NewFileDevice(f)
}

// OpenCallAudioSource opens the inbound PCM stream for one call. Like
// FileDevice on the output side, this is a file standing in for the
// telephony leg, which the Session Manager never reaches into directly: a
// deployment's SIP/RTP bridge is expected to write each call's captured
// audio to dir/<callID>.pcm as it arrives, and this just reads it back.
// Suitable as a session.AudioSourceFactory once bound to a fixed dir.
func OpenCallAudioSource(dir, callID string) (io.ReadCloser, error) {
	f, err := os.Open(dir + "/" + callID + ".pcm")
	if err != nil {
		return nil, fmt.Errorf("audioio: open call audio source for %q: %w", callID, err)
	}
	return f, nil
}

// Compile-time assertion that FileDevice implements synth.Device.
var _ synth.Device = (*FileDevice)(nil)

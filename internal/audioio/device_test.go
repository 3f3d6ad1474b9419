package audioio

import (
	"testing"
)

func TestBuildDevices_IncludesDefaultAndNamed(t *testing.T) {
	dir := t.TempDir()

	devices, err := BuildDevices(dir, "front-desk")
	if err != nil {
		t.Fatalf("BuildDevices: %v", err)
	}
	if _, ok := devices["default"]; !ok {
		t.Fatal("expected a default device")
	}
	if _, ok := devices["front-desk"]; !ok {
		t.Fatal("expected the configured named device")
	}
}

func TestBuildDevices_EmptyNameOnlyCreatesDefault(t *testing.T) {
	dir := t.TempDir()

	devices, err := BuildDevices(dir, "")
	if err != nil {
		t.Fatalf("BuildDevices: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("len(devices) = %d, want 1", len(devices))
	}
	if _, ok := devices["default"]; !ok {
		t.Fatal("expected a default device")
	}
}

func TestFileDevice_WriteEncodesFrame(t *testing.T) {
	dir := t.TempDir()
	devices, err := BuildDevices(dir, "")
	if err != nil {
		t.Fatalf("BuildDevices: %v", err)
	}
	dev := devices["default"]

	// 160 samples of mono 16-bit silence, the expected 20ms telephony frame size.
	pcm := make([]byte, opusFrameSize*2)
	if err := dev.Write(pcm); err != nil {
		t.Fatalf("Write: %v", err)
	}
}

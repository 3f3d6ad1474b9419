package config

import (
	"strings"
	"testing"
)

const validYAML = `
server:
  listen_addr: ":8080"
  log_level: info
site:
  base_url: "https://shifts.example.com"
  username: admin
  password: secret
  totp_secret: JBSWY3DPEHPK3PXP
  cookie_dir: /var/lib/thoth/cookies
mail:
  host: smtp.example.com
  port: 587
  sender: noreply@example.com
  app_password: app-secret
  collector: shifts@example.com
chat:
  endpoint: https://api.openai.com/v1
  api_key: sk-test
  large_model: gpt-4o
  small_model: gpt-4o-mini
transcriber:
  backend: whisper
  server_url: http://localhost:8081
synth:
  backend: elevenlabs
  api_key: el-test
  voice_id: voice-1
audio:
  output_device: "softphone-out"
`

func TestLoadFromReader_Valid(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Site.BaseURL != "https://shifts.example.com" {
		t.Fatalf("site.base_url = %q", cfg.Site.BaseURL)
	}
	if cfg.Site.LoginTimeout == 0 {
		t.Fatal("expected login timeout default to be applied")
	}
	if cfg.Mail.SubjectOverride != "SHIFT CANCELLATION REQUEST" {
		t.Fatalf("mail.subject_override default = %q", cfg.Mail.SubjectOverride)
	}
	if cfg.Audio.SampleRate != 8000 {
		t.Fatalf("audio.sample_rate default = %d, want 8000", cfg.Audio.SampleRate)
	}
}

func TestLoadFromReader_MissingRequiredFields(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("server:\n  listen_addr: \":8080\"\n"))
	if err == nil {
		t.Fatal("expected validation error for missing required fields")
	}
	msg := err.Error()
	for _, want := range []string{"site.base_url", "mail.host", "chat.endpoint"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing expected substring %q", msg, want)
		}
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader(validYAML + "\nbogus_field: true\n"))
	if err == nil {
		t.Fatal("expected decode error for unknown field")
	}
}

func TestLoadFromReader_InvalidLogLevel(t *testing.T) {
	bad := strings.Replace(validYAML, "log_level: info", "log_level: verbose", 1)
	_, err := LoadFromReader(strings.NewReader(bad))
	if err == nil || !strings.Contains(err.Error(), "log_level") {
		t.Fatalf("err = %v, want log_level validation error", err)
	}
}

func TestLoadFromReader_InvalidTodayOverride(t *testing.T) {
	bad := validYAML + "\ntoday: \"30-07-2026\"\n"
	_, err := LoadFromReader(strings.NewReader(bad))
	if err == nil || !strings.Contains(err.Error(), "today") {
		t.Fatalf("err = %v, want today validation error", err)
	}
}

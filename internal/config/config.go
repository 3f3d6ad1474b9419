// Package config provides the configuration schema, YAML loader, and
// validation for the shift-call assistant.
package config

import "time"

// Config is the root configuration structure, loaded once at process start
// via [Load] or [LoadFromReader].
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Site        SiteConfig        `yaml:"site"`
	Mail        MailConfig        `yaml:"mail"`
	Chat        ChatConfig        `yaml:"chat"`
	Transcriber TranscriberConfig `yaml:"transcriber"`
	Synth       SynthConfig       `yaml:"synth"`
	Audio       AudioConfig       `yaml:"audio"`

	// Today, if set (format "2006-01-02"), overrides the system clock's
	// notion of "today" throughout the Date Reasoner. Intended for
	// deterministic testing, never for production use.
	Today string `yaml:"today"`
}

// ServerConfig holds network and logging settings for the webhook adapter.
type ServerConfig struct {
	// ListenAddr is the TCP address the webhook server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity. Valid values: "debug", "info", "warn", "error".
	LogLevel LogLevel `yaml:"log_level"`
}

// LogLevel is a validated logging verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// IsValid reports whether l is one of the known log levels.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError, "":
		return true
	default:
		return false
	}
}

// SiteConfig holds the shift-management website's admin credentials and the
// on-disk location of its cached login cookies.
type SiteConfig struct {
	// BaseURL is the root address of the shift-management website.
	BaseURL string `yaml:"base_url"`

	// Username is the admin account login name.
	Username string `yaml:"username"`

	// Password is the admin account password.
	Password string `yaml:"password"`

	// TOTPSecret is the shared secret used to generate the time-based
	// one-time-password challenge during login.
	TOTPSecret string `yaml:"totp_secret"`

	// CookieDir is the directory where the cached session cookie file is
	// read from and written to. The file inside it is guarded by an
	// advisory file lock to prevent concurrent writers from corrupting it.
	CookieDir string `yaml:"cookie_dir"`

	// LoginTimeout bounds a single login attempt (auth + TOTP challenge).
	// Defaults to 20s when zero.
	LoginTimeout time.Duration `yaml:"login_timeout"`

	// ActionTimeout bounds any single browser action (navigate, fill,
	// click, wait-for-selector). Defaults to 10s when zero.
	ActionTimeout time.Duration `yaml:"action_timeout"`
}

// MailConfig holds the outgoing mail transport used for cancellation
// notification emails.
type MailConfig struct {
	// Host is the SMTP relay hostname.
	Host string `yaml:"host"`

	// Port is the SMTP relay port (commonly 587 for STARTTLS).
	Port int `yaml:"port"`

	// Sender is the From address presented on outgoing mail.
	Sender string `yaml:"sender"`

	// AppPassword authenticates Sender to the SMTP relay.
	AppPassword string `yaml:"app_password"`

	// Collector is the recipient address for cancellation notifications.
	Collector string `yaml:"collector"`

	// SubjectOverride replaces the default subject line
	// "SHIFT CANCELLATION REQUEST" when non-empty.
	SubjectOverride string `yaml:"subject_override"`

	// SendTimeout bounds a single send attempt. Defaults to 15s when zero.
	SendTimeout time.Duration `yaml:"send_timeout"`
}

// ChatConfig holds the language model endpoint and the two named models: one
// for the Conversation Core ("large"), one for the Date Reasoner ("small").
type ChatConfig struct {
	// Endpoint is the base URL of the chat backend's API.
	Endpoint string `yaml:"endpoint"`

	// APIKey authenticates to Endpoint.
	APIKey string `yaml:"api_key"`

	// LargeModel is the model name driving the Conversation Core.
	LargeModel string `yaml:"large_model"`

	// SmallModel is the model name driving the Date Reasoner.
	SmallModel string `yaml:"small_model"`

	// RequestTimeout bounds a single chat call. Defaults to 30s when zero.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// TranscriberConfig holds the speech-to-text backend's connection details.
// This is a separate service from Chat: Backend picks which provider
// package handles it ("whisper" talks to a local whisper.cpp server),
// entirely independent of the language model endpoint in ChatConfig.
type TranscriberConfig struct {
	// Backend selects the registered transcriber provider (e.g. "whisper").
	Backend string `yaml:"backend"`

	// ServerURL is the base URL of the speech-to-text server.
	ServerURL string `yaml:"server_url"`

	// Language is the expected spoken language (e.g. "en"). Left to the
	// provider's own default when empty.
	Language string `yaml:"language"`
}

// SynthConfig holds the text-to-speech backend's connection details.
type SynthConfig struct {
	// Backend selects the registered synthesizer provider (e.g.
	// "elevenlabs", "coqui").
	Backend string `yaml:"backend"`

	// ServerURL is the base URL of a self-hosted synthesis server. Used by
	// backends such as "coqui"; ignored by hosted backends that use APIKey
	// instead.
	ServerURL string `yaml:"server_url"`

	// APIKey authenticates to a hosted synthesis backend such as
	// "elevenlabs". Ignored by self-hosted backends.
	APIKey string `yaml:"api_key"`

	// VoiceID selects the voice a hosted backend speaks replies with.
	VoiceID string `yaml:"voice_id"`
}

// AudioConfig names the output device the Synthesizer speaks replies to.
type AudioConfig struct {
	// OutputDevice is the named output device. If it does not exist at
	// runtime, the Synthesizer falls back to the default device and logs a
	// warning rather than failing the call.
	OutputDevice string `yaml:"output_device"`

	// Dir is the directory holding the file-backed stand-ins for the
	// telephony leg: outbound synthesized audio is appended to
	// dir/<device>.opus, and each call's inbound audio is read from
	// dir/<call_id>.pcm. Defaults to "./audio" when empty.
	Dir string `yaml:"dir"`

	// SampleRate is the PCM sample rate, in Hz, used for both inbound
	// transcription audio and outbound synthesized audio. Defaults to 8000
	// (standard telephony) when zero.
	SampleRate int `yaml:"sample_rate"`
}

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills in zero-valued timeout and sample-rate fields with the
// documented production defaults.
func applyDefaults(cfg *Config) {
	if cfg.Site.LoginTimeout == 0 {
		cfg.Site.LoginTimeout = 20 * time.Second
	}
	if cfg.Site.ActionTimeout == 0 {
		cfg.Site.ActionTimeout = 10 * time.Second
	}
	if cfg.Mail.SendTimeout == 0 {
		cfg.Mail.SendTimeout = 15 * time.Second
	}
	if cfg.Chat.RequestTimeout == 0 {
		cfg.Chat.RequestTimeout = 30 * time.Second
	}
	if cfg.Audio.SampleRate == 0 {
		cfg.Audio.SampleRate = 8000
	}
	if cfg.Audio.Dir == "" {
		cfg.Audio.Dir = "./audio"
	}
	if cfg.Mail.SubjectOverride == "" {
		cfg.Mail.SubjectOverride = "SHIFT CANCELLATION REQUEST"
	}
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing every validation failure found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.ListenAddr == "" {
		errs = append(errs, errors.New("server.listen_addr is required"))
	}
	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Site.BaseURL == "" {
		errs = append(errs, errors.New("site.base_url is required"))
	}
	if cfg.Site.Username == "" {
		errs = append(errs, errors.New("site.username is required"))
	}
	if cfg.Site.Password == "" {
		errs = append(errs, errors.New("site.password is required"))
	}
	if cfg.Site.TOTPSecret == "" {
		errs = append(errs, errors.New("site.totp_secret is required"))
	}
	if cfg.Site.CookieDir == "" {
		errs = append(errs, errors.New("site.cookie_dir is required"))
	}

	if cfg.Mail.Host == "" {
		errs = append(errs, errors.New("mail.host is required"))
	}
	if cfg.Mail.Port <= 0 {
		errs = append(errs, errors.New("mail.port must be positive"))
	}
	if cfg.Mail.Sender == "" {
		errs = append(errs, errors.New("mail.sender is required"))
	}
	if cfg.Mail.Collector == "" {
		errs = append(errs, errors.New("mail.collector is required"))
	}

	if cfg.Chat.Endpoint == "" {
		errs = append(errs, errors.New("chat.endpoint is required"))
	}
	if cfg.Chat.LargeModel == "" {
		errs = append(errs, errors.New("chat.large_model is required"))
	}
	if cfg.Chat.SmallModel == "" {
		errs = append(errs, errors.New("chat.small_model is required"))
	}

	if cfg.Transcriber.Backend == "" {
		errs = append(errs, errors.New("transcriber.backend is required"))
	}
	if cfg.Transcriber.ServerURL == "" {
		errs = append(errs, errors.New("transcriber.server_url is required"))
	}

	if cfg.Synth.Backend == "" {
		errs = append(errs, errors.New("synth.backend is required"))
	}

	if cfg.Today != "" {
		if _, err := time.Parse("2006-01-02", cfg.Today); err != nil {
			errs = append(errs, fmt.Errorf("today %q is not a YYYY-MM-DD date: %w", cfg.Today, err))
		}
	}

	return errors.Join(errs...)
}

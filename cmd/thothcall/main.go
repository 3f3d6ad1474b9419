// Command thothcall is the main entry point for the shift-call assistant.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/solpercival/thoth/internal/audioio"
	"github.com/solpercival/thoth/internal/config"
	"github.com/solpercival/thoth/internal/datereasoner"
	"github.com/solpercival/thoth/internal/health"
	"github.com/solpercival/thoth/internal/observe"
	"github.com/solpercival/thoth/internal/resilience"
	"github.com/solpercival/thoth/internal/session"
	"github.com/solpercival/thoth/internal/shiftworkflow"
	"github.com/solpercival/thoth/internal/webhook"
	"github.com/solpercival/thoth/pkg/provider/browser/chromedp"
	"github.com/solpercival/thoth/pkg/provider/chat"
	"github.com/solpercival/thoth/pkg/provider/chat/anyllm"
	"github.com/solpercival/thoth/pkg/provider/chat/openai"
	"github.com/solpercival/thoth/pkg/provider/mailer/smtp"
	"github.com/solpercival/thoth/pkg/provider/synth"
	"github.com/solpercival/thoth/pkg/provider/synth/coqui"
	"github.com/solpercival/thoth/pkg/provider/synth/elevenlabs"
	"github.com/solpercival/thoth/pkg/provider/transcriber"
	"github.com/solpercival/thoth/pkg/provider/transcriber/streaming"
	"github.com/solpercival/thoth/pkg/provider/transcriber/whisper"
)

// garbageCollectInterval is how often main sweeps the Session Manager for
// sessions stuck past session.ManagerConfig.MaxSessionAge.
const garbageCollectInterval = 10 * time.Minute

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "thothcall:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file %q not found — copy configs/example.yaml to get started", configPath)
		}
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)
	logger.Info("thothcall starting", "config", configPath, "listen_addr", cfg.Server.ListenAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "thothcall"})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	registry := buildRegistry()

	coreChatProvider, err := registry.CreateChat("large", cfg.Chat)
	if err != nil {
		return fmt.Errorf("build chat provider: %w", err)
	}
	reasonerChatProvider, err := registry.CreateChat("small", cfg.Chat)
	if err != nil {
		return fmt.Errorf("build date reasoner chat provider: %w", err)
	}
	transcriberProvider, err := registry.CreateTranscriber(cfg.Transcriber.Backend, cfg.Transcriber)
	if err != nil {
		return fmt.Errorf("build transcriber provider: %w", err)
	}
	synthProvider, err := registry.CreateSynth(cfg.Synth.Backend, cfg.Synth)
	if err != nil {
		return fmt.Errorf("build synth provider: %w", err)
	}

	fallbackCfg := resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{MaxFailures: 5, ResetTimeout: 30 * time.Second, HalfOpenMax: 3},
	}
	coreChat := resilience.NewChatFallback(coreChatProvider, "chat-large", fallbackCfg)
	reasonerChat := resilience.NewChatFallback(reasonerChatProvider, "chat-small", fallbackCfg)

	today := time.Now()
	if cfg.Today != "" {
		today, err = time.Parse("2006-01-02", cfg.Today)
		if err != nil {
			return fmt.Errorf("parse today override: %w", err)
		}
	}
	reasoner := datereasoner.New(reasonerChat, today, cfg.Chat.RequestTimeout, logger)

	browserProvider := chromedp.New(true, chromedp.WithActionTimeout(cfg.Site.ActionTimeout))

	smtpMailer, err := smtp.New(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Sender, cfg.Mail.AppPassword, smtp.WithTimeout(cfg.Mail.SendTimeout))
	if err != nil {
		return fmt.Errorf("build mailer: %w", err)
	}
	mailTransport := resilience.NewMailerFallback(smtpMailer, "smtp", fallbackCfg)

	workflow := shiftworkflow.New(browserProvider, mailTransport, reasoner, cfg.Site, cfg.Mail, logger)

	devices, err := audioio.BuildDevices(cfg.Audio.Dir, cfg.Audio.OutputDevice)
	if err != nil {
		return fmt.Errorf("build audio devices: %w", err)
	}
	synthesizer, err := synth.New(synthProvider, devices, cfg.Audio.OutputDevice, logger)
	if err != nil {
		return fmt.Errorf("build synthesizer: %w", err)
	}

	audioDir := cfg.Audio.Dir
	manager := session.NewManager(session.ManagerConfig{
		AudioSources: func(_ context.Context, callID string) (io.Reader, error) {
			return audioio.OpenCallAudioSource(audioDir, callID)
		},
		TranscriberProvider: transcriberProvider,
		ChatProvider:        coreChat,
		Workflow:            workflow,
		Synthesizer:         synthesizer,
		SampleRate:          cfg.Audio.SampleRate,
		Channels:            1,
		RequestTimeout:      cfg.Chat.RequestTimeout,
		Logger:              logger,
	})

	go runGarbageCollector(ctx, manager, garbageCollectInterval, logger)

	mux := http.NewServeMux()
	mux.Handle("/", webhook.New(manager).Handler())
	mux.Handle("GET /metrics", promhttp.Handler())
	health.New(health.Checker{
		Name:  "session-manager",
		Check: func(context.Context) error { return nil },
	}).Register(mux)

	httpServer := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: observe.Middleware(metrics)(mux),
	}

	serveErrs := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrs <- err
			return
		}
		serveErrs <- nil
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping…")
	case err := <-serveErrs:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
		return err
	}
	if err := manager.StopAll(); err != nil {
		logger.Error("session shutdown failed", "error", err)
	}
	logger.Info("goodbye")
	return nil
}

// buildRegistry registers every provider backend this deployment knows how
// to construct. Chat backends are registered twice, under the role names
// the Conversation Core and Date Reasoner each resolve ("large", "small"):
// the Core runs the richer, costlier model, while the Date Reasoner runs a
// cheaper one via the any-llm-go universal client.
func buildRegistry() *config.Registry {
	reg := config.NewRegistry()

	reg.RegisterChat("large", func(c config.ChatConfig) (chat.Provider, error) {
		return openai.New(c.APIKey, c.LargeModel, openai.WithBaseURL(c.Endpoint), openai.WithTimeout(c.RequestTimeout))
	})
	reg.RegisterChat("small", func(c config.ChatConfig) (chat.Provider, error) {
		return anyllm.NewOpenAI(c.SmallModel, anyllmlib.WithAPIKey(c.APIKey))
	})

	reg.RegisterTranscriber("whisper", func(c config.TranscriberConfig) (transcriber.Provider, error) {
		var opts []whisper.Option
		if c.Language != "" {
			opts = append(opts, whisper.WithLanguage(c.Language))
		}
		return whisper.New(c.ServerURL, opts...)
	})
	reg.RegisterTranscriber("streaming", func(c config.TranscriberConfig) (transcriber.Provider, error) {
		return streaming.New(c.ServerURL)
	})

	reg.RegisterSynth("elevenlabs", func(c config.SynthConfig) (synth.Provider, error) {
		return elevenlabs.New(c.APIKey, c.VoiceID)
	})
	reg.RegisterSynth("coqui", func(c config.SynthConfig) (synth.Provider, error) {
		return coqui.New(c.ServerURL)
	})

	return reg
}

// runGarbageCollector periodically sweeps manager for sessions whose
// Transcriber died without ever signalling termination, until ctx is done.
func runGarbageCollector(ctx context.Context, manager *session.Manager, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := manager.GarbageCollect(); err != nil {
				logger.Warn("session garbage collection failed", "error", err)
			}
		}
	}
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogLevelDebug:
		lvl = slog.LevelDebug
	case config.LogLevelWarn:
		lvl = slog.LevelWarn
	case config.LogLevelError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

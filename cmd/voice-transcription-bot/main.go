package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mgoltzsche/voice-transcription-bot/internal/bot"
	"github.com/mgoltzsche/voice-transcription-bot/internal/chat"
	"github.com/mgoltzsche/voice-transcription-bot/internal/cli"
	"github.com/mgoltzsche/voice-transcription-bot/internal/delivery"
	"github.com/mgoltzsche/voice-transcription-bot/internal/model"
	"github.com/mgoltzsche/voice-transcription-bot/internal/prompt"
	"github.com/mgoltzsche/voice-transcription-bot/internal/server"
	"github.com/mgoltzsche/voice-transcription-bot/internal/stt"
	"github.com/mgoltzsche/voice-transcription-bot/internal/telegram"
	"github.com/mgoltzsche/voice-transcription-bot/internal/tlsutils"
	"github.com/mgoltzsche/voice-transcription-bot/internal/transcript"
	"github.com/mgoltzsche/voice-transcription-bot/internal/transform"
	"github.com/mgoltzsche/voice-transcription-bot/pkg/config"
	"golang.org/x/sync/errgroup"
)

func main() {
	err := cli.LoadDotEnv()
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}

	var cfg config.Configuration

	configFlag, err := config.NewFlag("/etc/voice-transcription-bot/config.yaml", &cfg)
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}

	flag.Var(configFlag, cli.ConfigFlagName, "Path to the configuration file, must precede the flags that override its values")
	flag.StringVar(&cfg.ServerURL, "server-url", cfg.ServerURL, "URL pointing to the OpenAI-compatible API server")
	flag.StringVar(&cfg.APIKey, "api-key", cfg.APIKey, "API key of the OpenAI-compatible server, OPENAI_API_KEY if empty")
	flag.StringVar(&cfg.TelegramToken, "telegram-token", cfg.TelegramToken, "Telegram bot token, TELEGRAM_BOT_TOKEN if empty")
	flag.StringVar(&cfg.STTModel, "stt-model", cfg.STTModel, "Speech-to-text model")
	flag.StringVar(&cfg.STTLanguage, "stt-language", cfg.STTLanguage, "ISO-639-1 language of the voice messages, detected if empty")
	flag.StringVar(&cfg.ChatModel, "chat-model", cfg.ChatModel, "Chat model that transforms the transcripts")
	flag.Float64Var(&cfg.Temperature, "temperature", cfg.Temperature, "Sampling temperature of the chat model")
	flag.StringVar(&cfg.PromptDir, "prompt-dir", cfg.PromptDir, "Directory containing the prompt templates, built-in templates if empty")
	flag.StringVar(&cfg.TempDir, "temp-dir", cfg.TempDir, "Directory downloaded audio files are written to")
	flag.IntVar(&cfg.MaxMessageLength, "max-message-length", cfg.MaxMessageLength, "Maximum number of characters per message")
	flag.Var(&cfg.ChunkDelay, "chunk-delay", "Pause between the messages of a long text")
	flag.StringVar(&cfg.Webhook.URL, "webhook-url", cfg.Webhook.URL, "Public URL Telegram should send updates to, updates are polled if empty")
	flag.StringVar(&cfg.Webhook.Listen, "listen", cfg.Webhook.Listen, "Address the webhook server should listen on")
	flag.StringVar(&cfg.Webhook.Path, "webhook-path", cfg.Webhook.Path, "HTTP path of the webhook endpoint")
	flag.StringVar(&cfg.Webhook.TLSCert, "tls-cert", cfg.Webhook.TLSCert, "Path to the TLS certificate file")
	flag.StringVar(&cfg.Webhook.TLSKey, "tls-key", cfg.Webhook.TLSKey, "Path to the TLS key file")
	flag.StringVar(&cfg.Webhook.SecretToken, "webhook-secret-token", cfg.Webhook.SecretToken, "Token Telegram must send with webhook requests, generated if empty")
	flag.BoolVar(&cfg.Webhook.SelfSigned, "self-signed", cfg.Webhook.SelfSigned, "Serve the webhook using a self-signed certificate and upload it to Telegram")
	cli.ParseFlagsWithEnvVars(flag.CommandLine, "VTB_")

	if cfg.TelegramToken == "" {
		cfg.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = run(ctx, cfg)
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Configuration) error {
	httpClient := &http.Client{Timeout: 90 * time.Second}

	tg, err := telegram.New(cfg.TelegramToken, httpClient)
	if err != nil {
		return err
	}

	templates := prompt.DefaultTemplates()
	if cfg.PromptDir != "" {
		templates = os.DirFS(cfg.PromptDir)
	}

	transcripts := transcript.NewStore()
	dispatcher := &bot.Dispatcher{
		Transport: tg,
		Transcriber: &stt.Transcriber{
			Service: &stt.Client{
				URL:        cfg.ServerURL,
				APIKey:     cfg.APIKey,
				Model:      cfg.STTModel,
				Language:   cfg.STTLanguage,
				HTTPClient: httpClient,
			},
		},
		Transcripts: transcripts,
		Router: &transform.Router{
			Transcripts: transcripts,
			Prompts:     &prompt.Store{FS: templates},
			Generator: &chat.LLM{
				ServerURL:    cfg.ServerURL,
				APIKey:       cfg.APIKey,
				SystemPrompt: cfg.SystemPrompt,
				HTTPClient:   httpClient,
			},
			ModelConfig: chat.ModelConfig{
				Model:       cfg.ChatModel,
				Temperature: cfg.Temperature,
			},
		},
		Deliverer: &delivery.Deliverer{
			Sender:    tg,
			MaxLength: cfg.MaxMessageLength,
			Delay:     time.Duration(cfg.ChunkDelay),
		},
		Messages: cfg.Messages,
		TempDir:  cfg.TempDir,
	}

	g, ctx := errgroup.WithContext(ctx)

	var events <-chan model.Event

	if cfg.Webhook.URL != "" {
		ch := make(chan model.Event, 10)
		events = ch

		g.Go(func() error {
			defer close(ch)
			return serveWebhook(ctx, cfg.Webhook, tg, ch)
		})
	} else {
		events, err = tg.Poll(ctx)
		if err != nil {
			return err
		}
	}

	g.Go(func() error {
		dispatcher.Run(ctx, events)
		return nil
	})

	return g.Wait()
}

// serveWebhook registers the webhook and serves it until the context is done.
// It returns only after all webhook requests have finished.
func serveWebhook(ctx context.Context, cfg config.Webhook, tg *telegram.Client, events chan<- model.Event) error {
	mux := http.NewServeMux()
	srv := &http.Server{
		Addr:              cfg.Listen,
		BaseContext:       func(net.Listener) context.Context { return ctx },
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.SecretToken == "" {
		token, err := generateSecretToken()
		if err != nil {
			return err
		}

		cfg.SecretToken = token
	}

	server.AddRoutes(ctx, mux, cfg.Path, cfg.SecretToken, events)

	tlsCert := cfg.TLSCert
	tlsKey := cfg.TLSKey
	uploadCert := ""

	if cfg.SelfSigned {
		if tlsCert == "" && tlsKey == "" {
			u, err := url.Parse(cfg.URL)
			if err != nil {
				return fmt.Errorf("parse webhook url: %w", err)
			}

			slog.Info(fmt.Sprintf("generating self-signed TLS certificate for %s", u.Hostname()))

			var cleanup func()

			tlsCert, tlsKey, cleanup, err = tlsutils.GenerateSelfSignedTLSCertificate(u.Hostname())
			if err != nil {
				return fmt.Errorf("generating tls certificate: %w", err)
			}

			defer cleanup()
		}

		uploadCert = tlsCert
	}

	err := tg.SetWebhook(cfg.URL, uploadCert, cfg.SecretToken)
	if err != nil {
		return err
	}

	serveErr := make(chan error, 1)

	go func() {
		slog.Info(fmt.Sprintf("listening on %s", srv.Addr))

		if tlsCert != "" || tlsKey != "" {
			serveErr <- srv.ListenAndServeTLS(tlsCert, tlsKey)
		} else {
			serveErr <- srv.ListenAndServe()
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("terminating")
	case err = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	if e := srv.Shutdown(shutdownCtx); e != nil && err == nil {
		err = fmt.Errorf("shutdown webhook server: %w", e)
	}

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

func generateSecretToken() (string, error) {
	b := make([]byte, 32)

	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("generate webhook secret token: %w", err)
	}

	return hex.EncodeToString(b), nil
}

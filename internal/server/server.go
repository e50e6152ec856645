package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mgoltzsche/voice-transcription-bot/internal/model"
	"github.com/mgoltzsche/voice-transcription-bot/internal/telegram"
)

const (
	maxUpdateSize     = 1 << 20
	secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"
)

// AddRoutes registers the Telegram webhook endpoint and a health check.
// Requests without the secret token are rejected.
// Received updates are converted and pushed into the events channel.
func AddRoutes(ctx context.Context, mux *http.ServeMux, webhookPath, secretToken string, events chan<- model.Event) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("POST "+webhookPath, func(w http.ResponseWriter, req *http.Request) {
		defer req.Body.Close()

		if !validSecretToken(req.Header.Get(secretTokenHeader), secretToken) {
			slog.Warn(fmt.Sprintf("rejecting webhook request from %s with invalid secret token", req.RemoteAddr))
			http.Error(w, "invalid secret token", http.StatusUnauthorized)
			return
		}

		var update tgbotapi.Update

		err := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxUpdateSize)).Decode(&update)
		if err != nil {
			err = fmt.Errorf("decode telegram update: %w", err)
			slog.Warn(err.Error())
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		evt, ok := telegram.ToEvent(update)
		if !ok {
			slog.Debug(fmt.Sprintf("ignoring unsupported telegram update %d", update.UpdateID))
			w.WriteHeader(http.StatusOK)
			return
		}

		select {
		case events <- evt:
			w.WriteHeader(http.StatusOK)
		case <-ctx.Done():
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
		case <-req.Context().Done():
			slog.Warn("webhook request cancelled before the update was queued")
		}
	})
}

func validSecretToken(actual, expected string) bool {
	if expected == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(actual), []byte(expected)) == 1
}

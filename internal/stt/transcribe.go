package stt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

type Transcription struct {
	Text string
}

type Service interface {
	Transcribe(ctx context.Context, audioFile string) (Transcription, error)
}

type Transcriber struct {
	Service Service
}

// Transcribe converts the given audio file to text.
// It returns false when the service failed or did not recognize any speech.
func (t *Transcriber) Transcribe(ctx context.Context, audioFile string) (string, bool) {
	result, err := t.Service.Transcribe(ctx, audioFile)
	if err != nil {
		slog.Error(fmt.Sprintf("failed to transcribe: %s", err))
		return "", false
	}

	text := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(result.Text), "[BLANK_AUDIO]"))
	if text == "" {
		slog.Warn("transcription did not return any text")
		return "", false
	}

	slog.Debug(fmt.Sprintf("transcribed %d characters", len(text)))

	return text, true
}

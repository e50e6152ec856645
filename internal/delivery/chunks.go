package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf16"

	"github.com/mgoltzsche/voice-transcription-bot/internal/model"
)

// MaxMessageLength is the maximum length of a single chat message in UTF-16 code units.
const MaxMessageLength = 4096

type Sender interface {
	Send(ctx context.Context, id model.ConversationID, text string, controls []model.Control) (model.MessageRef, error)
}

// Deliverer sends arbitrarily long texts as a sequence of size-bounded messages.
type Deliverer struct {
	Sender    Sender
	MaxLength int
	// Delay is the pause between two consecutive chunks.
	Delay time.Duration
}

// Deliver sends the text in order, attaching the controls to the last chunk only.
// An empty text results in no message being sent.
func (d *Deliverer) Deliver(ctx context.Context, id model.ConversationID, text string, controls []model.Control) error {
	chunks := Split(text, d.MaxLength)

	for i, chunk := range chunks {
		if i > 0 && d.Delay > 0 {
			select {
			case <-time.After(d.Delay):
			case <-ctx.Done():
				return fmt.Errorf("send message chunk %d/%d: %w", i+1, len(chunks), ctx.Err())
			}
		}

		var chunkControls []model.Control
		if i == len(chunks)-1 {
			chunkControls = controls
		}

		_, err := d.Sender.Send(ctx, id, chunk, chunkControls)
		if err != nil {
			return fmt.Errorf("send message chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}

	if len(chunks) > 1 {
		slog.Debug(fmt.Sprintf("delivered text to conversation %s in %d chunks", id, len(chunks)))
	}

	return nil
}

// Split slices the text into contiguous chunks of at most maxLen UTF-16 code units each.
// Surrogate pairs are never split, invalid UTF-8 bytes count as one unit.
// It does not try to preserve word or sentence boundaries.
// A maxLen <= 0 falls back to MaxMessageLength.
func Split(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = MaxMessageLength
	}

	chunks := make([]string, 0, len(text)/maxLen+1)
	start := 0
	n := 0

	for i, r := range text {
		l := utf16.RuneLen(r)
		if l < 1 {
			l = 1
		}

		if n > 0 && n+l > maxLen {
			chunks = append(chunks, text[start:i])
			start = i
			n = 0
		}

		n += l
	}

	if start < len(text) {
		chunks = append(chunks, text[start:])
	}

	return chunks
}

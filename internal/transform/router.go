package transform

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mgoltzsche/voice-transcription-bot/internal/chat"
	"github.com/mgoltzsche/voice-transcription-bot/internal/model"
	"github.com/mgoltzsche/voice-transcription-bot/internal/prompt"
)

type State string

const (
	StateIdle       State = "idle"
	StateDispatched State = "dispatched"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

type FailureReason string

const (
	ReasonNoTranscript     FailureReason = "NoTranscript"
	ReasonTemplateNotFound FailureReason = "TemplateNotFound"
	ReasonGenerationFailed FailureReason = "GenerationFailed"
)

// Outcome is the terminal state of a dispatched action.
type Outcome struct {
	State  State
	Reason FailureReason
	Text   string
}

func (o Outcome) Succeeded() bool {
	return o.State == StateSucceeded
}

type TranscriptReader interface {
	Get(id model.ConversationID) (string, bool)
}

type PromptRenderer interface {
	Render(name, text string) (string, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt string, cfg chat.ModelConfig) (string, bool)
}

// Router applies an action to the cached transcript of a conversation.
type Router struct {
	Transcripts TranscriptReader
	Prompts     PromptRenderer
	Generator   Generator
	ModelConfig chat.ModelConfig
}

// Dispatch runs the action once. Every failure is terminal, there are no retries.
func (r *Router) Dispatch(ctx context.Context, id model.ConversationID, action Action) Outcome {
	transcript, ok := r.Transcripts.Get(id)
	if !ok {
		return r.fail(id, action, ReasonNoTranscript, nil)
	}

	slog.Debug(fmt.Sprintf("conversation %s: %s -> %s(%s)", id, StateIdle, StateDispatched, action))

	templateName := action.Template()
	if templateName == "" {
		return r.fail(id, action, ReasonTemplateNotFound, fmt.Errorf("%w: no template bound to action %d", prompt.ErrTemplateNotFound, action))
	}

	p, err := r.Prompts.Render(templateName, transcript)
	if err != nil {
		return r.fail(id, action, ReasonTemplateNotFound, err)
	}

	result, ok := r.Generator.Generate(ctx, p, r.ModelConfig)
	if !ok {
		return r.fail(id, action, ReasonGenerationFailed, nil)
	}

	slog.Debug(fmt.Sprintf("conversation %s: %s(%s) -> %s", id, StateDispatched, action, StateSucceeded))

	return Outcome{
		State: StateSucceeded,
		Text:  result,
	}
}

func (r *Router) fail(id model.ConversationID, action Action, reason FailureReason, err error) Outcome {
	attrs := []any{"conversation", id, "action", action, "reason", reason}
	if err != nil {
		attrs = append(attrs, "err", err)
	}

	if reason == ReasonNoTranscript {
		slog.Info("cannot apply action", attrs...)
	} else {
		slog.Error("failed to apply action", attrs...)
	}

	return Outcome{
		State:  StateFailed,
		Reason: reason,
	}
}

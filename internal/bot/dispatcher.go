package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mgoltzsche/voice-transcription-bot/internal/delivery"
	"github.com/mgoltzsche/voice-transcription-bot/internal/model"
	"github.com/mgoltzsche/voice-transcription-bot/internal/transform"
	"github.com/mgoltzsche/voice-transcription-bot/pkg/config"
)

type Transport interface {
	delivery.Sender
	Delete(ctx context.Context, ref model.MessageRef) error
	AnswerButton(ctx context.Context, callbackID string) error
	Download(ctx context.Context, fileID string, w io.Writer) error
}

type Transcriber interface {
	Transcribe(ctx context.Context, audioFile string) (string, bool)
}

type TranscriptWriter interface {
	Put(id model.ConversationID, text string)
}

type ActionRouter interface {
	Dispatch(ctx context.Context, id model.ConversationID, action transform.Action) transform.Outcome
}

type TextDeliverer interface {
	Deliver(ctx context.Context, id model.ConversationID, text string, controls []model.Control) error
}

// Dispatcher routes inbound chat events to their handlers.
type Dispatcher struct {
	Transport   Transport
	Transcriber Transcriber
	Transcripts TranscriptWriter
	Router      ActionRouter
	Deliverer   TextDeliverer
	Messages    config.Messages
	// TempDir is the directory downloaded audio files are written to, os.TempDir() if empty.
	TempDir string
}

// Run handles every event on its own goroutine until the channel is closed.
// It returns when all handlers have finished.
// Handlers are not cancelled when the context is done.
func (d *Dispatcher) Run(ctx context.Context, events <-chan model.Event) {
	ctx = context.WithoutCancel(ctx)

	var wg sync.WaitGroup

	for evt := range events {
		wg.Add(1)

		go func() {
			defer wg.Done()
			d.Handle(ctx, evt)
		}()
	}

	wg.Wait()
}

// Handle processes a single event.
// Unexpected errors are logged and answered with a generic failure message.
func (d *Dispatcher) Handle(ctx context.Context, evt model.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.fail(ctx, evt, fmt.Errorf("panic: %v", r))
		}
	}()

	var err error

	switch evt.Kind {
	case model.EventKindCommand:
		err = d.handleCommand(ctx, evt)
	case model.EventKindVoice, model.EventKindAudio:
		err = d.handleAudio(ctx, evt)
	case model.EventKindText:
		err = d.handleText(ctx, evt)
	case model.EventKindButton:
		err = d.handleButton(ctx, evt)
	default:
		slog.Debug(fmt.Sprintf("ignoring unsupported %q event", evt.Kind))
		return
	}

	if err != nil {
		d.fail(ctx, evt, err)
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, evt model.Event) error {
	switch evt.Command {
	case "start", "help":
		return d.reply(ctx, evt.ConversationID, d.Messages.Greeting)
	default:
		slog.Debug(fmt.Sprintf("ignoring unsupported command %q", evt.Command))
		return nil
	}
}

func (d *Dispatcher) handleAudio(ctx context.Context, evt model.Event) error {
	defer d.sendStatus(ctx, evt.ConversationID, d.Messages.Transcribing)()

	text, ok, err := d.transcribe(ctx, evt)
	if err != nil {
		return err
	}

	if !ok {
		return d.reply(ctx, evt.ConversationID, d.Messages.TranscriptionFailed)
	}

	d.Transcripts.Put(evt.ConversationID, text)

	err = d.Deliverer.Deliver(ctx, evt.ConversationID, text, transform.Controls())
	if err != nil {
		return fmt.Errorf("deliver transcript: %w", err)
	}

	return nil
}

// transcribe downloads the audio file of the event into a temporary file and transcribes it.
// The temporary file is removed before it returns.
func (d *Dispatcher) transcribe(ctx context.Context, evt model.Event) (string, bool, error) {
	file, err := os.CreateTemp(d.TempDir, "audio-*"+audioFileExtension(evt))
	if err != nil {
		return "", false, fmt.Errorf("create temp audio file: %w", err)
	}

	defer func() {
		if err := os.Remove(file.Name()); err != nil {
			slog.Warn(fmt.Sprintf("remove temp audio file: %s", err))
		}
	}()

	err = d.Transport.Download(ctx, evt.FileID, file)
	closeErr := file.Close()
	if err != nil {
		return "", false, fmt.Errorf("download audio: %w", err)
	}
	if closeErr != nil {
		return "", false, fmt.Errorf("write temp audio file: %w", closeErr)
	}

	text, ok := d.Transcriber.Transcribe(ctx, file.Name())

	return text, ok, nil
}

func (d *Dispatcher) handleText(ctx context.Context, evt model.Event) error {
	d.Transcripts.Put(evt.ConversationID, evt.Text)

	err := d.Deliverer.Deliver(ctx, evt.ConversationID, d.Messages.ChooseAction, transform.Controls())
	if err != nil {
		return fmt.Errorf("deliver action choice: %w", err)
	}

	return nil
}

func (d *Dispatcher) handleButton(ctx context.Context, evt model.Event) error {
	err := d.Transport.AnswerButton(ctx, evt.CallbackID)
	if err != nil {
		slog.Warn(err.Error())
	}

	action, ok := transform.ParseAction(evt.CallbackData)
	if !ok {
		slog.Warn(fmt.Sprintf("received unsupported action %q from conversation %s", evt.CallbackData, evt.ConversationID))
		return d.reply(ctx, evt.ConversationID, d.Messages.ProcessingFailed)
	}

	defer d.sendStatus(ctx, evt.ConversationID, d.Messages.Processing)()

	outcome := d.Router.Dispatch(ctx, evt.ConversationID, action)

	switch {
	case outcome.Succeeded():
		err = d.Deliverer.Deliver(ctx, evt.ConversationID, outcome.Text, nil)
		if err != nil {
			return fmt.Errorf("deliver %s result: %w", action, err)
		}

		return nil
	case outcome.Reason == transform.ReasonNoTranscript:
		return d.reply(ctx, evt.ConversationID, d.Messages.NoTranscript)
	default:
		return d.reply(ctx, evt.ConversationID, d.Messages.ProcessingFailed)
	}
}

// sendStatus sends a transient status message and returns a function that deletes it.
// Failing to send or delete a status message is not an error.
func (d *Dispatcher) sendStatus(ctx context.Context, id model.ConversationID, text string) func() {
	if text == "" {
		return func() {}
	}

	ref, err := d.Transport.Send(ctx, id, text, nil)
	if err != nil {
		slog.Warn(fmt.Sprintf("send status message: %s", err))
		return func() {}
	}

	return func() {
		if err := d.Transport.Delete(ctx, ref); err != nil {
			slog.Warn(fmt.Sprintf("delete status message: %s", err))
		}
	}
}

func (d *Dispatcher) reply(ctx context.Context, id model.ConversationID, text string) error {
	err := d.Deliverer.Deliver(ctx, id, text, nil)
	if err != nil {
		return fmt.Errorf("reply: %w", err)
	}

	return nil
}

func (d *Dispatcher) fail(ctx context.Context, evt model.Event, err error) {
	slog.Error(fmt.Sprintf("handle %s event of conversation %s: %s", evt.Kind, evt.ConversationID, err))

	if err := d.reply(ctx, evt.ConversationID, d.Messages.UnexpectedFailure); err != nil {
		slog.Error(fmt.Sprintf("send failure message to conversation %s: %s", evt.ConversationID, err))
	}
}

func audioFileExtension(evt model.Event) string {
	if evt.Kind == model.EventKindVoice {
		return ".ogg"
	}

	ext := strings.ToLower(filepath.Ext(evt.FileName))
	if len(ext) < 2 || strings.ContainsAny(ext, `*\`) {
		return ".mp3"
	}

	return ext
}

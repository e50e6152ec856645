package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mgoltzsche/voice-transcription-bot/internal/model"
)

// ToEvent converts a Telegram update into an event.
// It returns false for updates the bot does not handle.
func ToEvent(u tgbotapi.Update) (model.Event, bool) {
	if q := u.CallbackQuery; q != nil {
		if q.Message == nil || q.Message.Chat == nil {
			return model.Event{}, false
		}

		return model.Event{
			Kind:           model.EventKindButton,
			ConversationID: model.ConversationID(q.Message.Chat.ID),
			CallbackID:     q.ID,
			CallbackData:   q.Data,
		}, true
	}

	msg := u.Message
	if msg == nil || msg.Chat == nil {
		return model.Event{}, false
	}

	evt := model.Event{
		ConversationID: model.ConversationID(msg.Chat.ID),
	}

	switch {
	case msg.IsCommand():
		evt.Kind = model.EventKindCommand
		evt.Command = msg.Command()
	case msg.Voice != nil:
		evt.Kind = model.EventKindVoice
		evt.FileID = msg.Voice.FileID
	case msg.Audio != nil:
		evt.Kind = model.EventKindAudio
		evt.FileID = msg.Audio.FileID
		evt.FileName = msg.Audio.FileName
	case msg.Text != "":
		evt.Kind = model.EventKindText
		evt.Text = msg.Text
	default:
		return model.Event{}, false
	}

	return evt, true
}

// Poll receives updates via long polling until the context is done.
// The returned channel is closed afterwards.
func (c *Client) Poll(ctx context.Context) (<-chan model.Event, error) {
	_, err := c.bot.Request(tgbotapi.DeleteWebhookConfig{})
	if err != nil {
		return nil, fmt.Errorf("delete telegram webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)
	ch := make(chan model.Event, 10)

	go func() {
		defer close(ch)

		for {
			select {
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}

				if evt, ok := ToEvent(update); ok {
					ch <- evt
				} else {
					slog.Debug(fmt.Sprintf("ignoring unsupported telegram update %d", update.UpdateID))
				}
			}
		}
	}()

	slog.Info("polling telegram updates")

	return ch, nil
}

// SetWebhook makes Telegram push updates to the given URL.
// Telegram sends the secret token back with every request.
// When a certificate file is provided it is uploaded to allow self-signed certificates.
func (c *Client) SetWebhook(url, certFile, secretToken string) error {
	params := tgbotapi.Params{}
	params["url"] = url
	params.AddNonEmpty("secret_token", secretToken)

	var err error

	// tgbotapi.WebhookConfig does not support the secret token
	if certFile != "" {
		_, err = c.bot.UploadFiles("setWebhook", params, []tgbotapi.RequestFile{
			{Name: "certificate", Data: tgbotapi.FilePath(certFile)},
		})
	} else {
		_, err = c.bot.MakeRequest("setWebhook", params)
	}
	if err != nil {
		return fmt.Errorf("set telegram webhook: %w", err)
	}

	slog.Info(fmt.Sprintf("registered telegram webhook %s", url))

	return nil
}

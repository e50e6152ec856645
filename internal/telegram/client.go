package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mgoltzsche/voice-transcription-bot/internal/model"
)

// Client sends messages to and receives updates from the Telegram Bot API.
// The Bot API library does not support contexts, which is why contexts are only applied to file downloads.
type Client struct {
	bot        *tgbotapi.BotAPI
	httpClient *http.Client
}

func New(token string, httpClient *http.Client) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("no telegram bot token provided")
	}

	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}

	slog.Info(fmt.Sprintf("authorized as telegram bot @%s", bot.Self.UserName))

	return &Client{
		bot:        bot,
		httpClient: httpClient,
	}, nil
}

func (c *Client) Send(_ context.Context, id model.ConversationID, text string, controls []model.Control) (model.MessageRef, error) {
	msg := tgbotapi.NewMessage(int64(id), text)

	if len(controls) > 0 {
		msg.ReplyMarkup = inlineKeyboard(controls)
	}

	sent, err := c.bot.Send(msg)
	if err != nil {
		return model.MessageRef{}, fmt.Errorf("send telegram message: %w", err)
	}

	return model.MessageRef{
		ConversationID: id,
		MessageID:      sent.MessageID,
	}, nil
}

func (c *Client) Delete(_ context.Context, ref model.MessageRef) error {
	_, err := c.bot.Request(tgbotapi.NewDeleteMessage(int64(ref.ConversationID), ref.MessageID))
	if err != nil {
		return fmt.Errorf("delete telegram message: %w", err)
	}

	return nil
}

func (c *Client) AnswerButton(_ context.Context, callbackID string) error {
	_, err := c.bot.Request(tgbotapi.NewCallback(callbackID, ""))
	if err != nil {
		return fmt.Errorf("answer telegram callback query: %w", err)
	}

	return nil
}

// Download writes the content of the file with the given ID to w.
func (c *Client) Download(ctx context.Context, fileID string, w io.Writer) error {
	fileURL, err := c.bot.GetFileDirectURL(fileID)
	if err != nil {
		return fmt.Errorf("get telegram file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return fmt.Errorf("new file download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The URL contains the bot token
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}

		return fmt.Errorf("download telegram file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download telegram file: server responded with status code %d", resp.StatusCode)
	}

	_, err = io.Copy(w, resp.Body)
	if err != nil {
		return fmt.Errorf("download telegram file: %w", err)
	}

	return nil
}

func inlineKeyboard(controls []model.Control) tgbotapi.InlineKeyboardMarkup {
	buttons := make([]tgbotapi.InlineKeyboardButton, len(controls))

	for i, c := range controls {
		buttons[i] = tgbotapi.NewInlineKeyboardButtonData(c.Label, c.Tag)
	}

	return tgbotapi.NewInlineKeyboardMarkup(buttons)
}

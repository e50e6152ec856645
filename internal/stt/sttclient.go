package stt

import (
	"context"
	"fmt"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// Client transcribes audio files using an OpenAI-compatible transcription API.
type Client struct {
	URL        string
	APIKey     string
	Model      string
	Language   string
	HTTPClient openai.HTTPDoer

	client *openai.Client
	mutex  sync.Mutex
}

func (c *Client) Transcribe(ctx context.Context, audioFile string) (Transcription, error) {
	model := c.Model
	if model == "" {
		model = openai.Whisper1
	}

	resp, err := c.openAIClient().CreateTranscription(ctx, openai.AudioRequest{
		Model:    model,
		FilePath: audioFile,
		Language: c.Language,
	})
	if err != nil {
		return Transcription{}, fmt.Errorf("create transcription: %w", err)
	}

	return Transcription{
		Text: resp.Text,
	}, nil
}

func (c *Client) openAIClient() *openai.Client {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.client == nil {
		cfg := openai.DefaultConfig(c.APIKey)
		cfg.BaseURL = c.URL + "/v1"

		if c.HTTPClient != nil {
			cfg.HTTPClient = c.HTTPClient
		}

		c.client = openai.NewClientWithConfig(cfg)
	}

	return c.client
}

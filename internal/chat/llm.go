package chat

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const DefaultSystemPrompt = "You are a helpful assistant."

type ModelConfig struct {
	Model       string
	Temperature float64
}

type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// ContentGenerator is implemented by langchaingo models.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// LLM generates text using an OpenAI-compatible chat completion API.
type LLM struct {
	ServerURL    string
	APIKey       string
	SystemPrompt string
	HTTPClient   HTTPDoer
	// Client overrides the OpenAI client that is created from the fields above.
	Client ContentGenerator

	mutex sync.Mutex
}

// Generate returns the model's response to the prompt.
// Any failure is logged and reported as absent result.
func (c *LLM) Generate(ctx context.Context, prompt string, cfg ModelConfig) (string, bool) {
	client, err := c.client()
	if err != nil {
		slog.Error("failed to create chat completion client", "err", err)
		return "", false
	}

	systemPrompt := c.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	slog.Debug(fmt.Sprintf("requesting chat completion using model %s for prompt with %d characters", cfg.Model, len(prompt)))

	resp, err := client.GenerateContent(ctx, messages,
		llms.WithModel(cfg.Model),
		llms.WithTemperature(cfg.Temperature),
	)
	if err != nil {
		slog.Error("chat completion failed", "err", err)
		return "", false
	}

	if len(resp.Choices) == 0 {
		slog.Error("chat completion returned no choices")
		return "", false
	}

	text := resp.Choices[0].Content

	if strings.TrimSpace(text) == "" {
		slog.Error("chat completion returned empty content")
		return "", false
	}

	return text, true
}

func (c *LLM) client() (ContentGenerator, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.Client == nil {
		opts := []openai.Option{
			openai.WithBaseURL(c.ServerURL + "/v1"),
			openai.WithToken(c.APIKey),
		}

		if c.HTTPClient != nil {
			opts = append(opts, openai.WithHTTPClient(c.HTTPClient))
		}

		llm, err := openai.New(opts...)
		if err != nil {
			return nil, err
		}

		c.Client = llm
	}

	return c.Client, nil
}

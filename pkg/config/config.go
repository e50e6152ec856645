package config

import (
	"encoding/json"
	"fmt"
	"time"
)

type Configuration struct {
	ServerURL        string   `json:"serverURL"`
	APIKey           string   `json:"apiKey,omitempty"`
	TelegramToken    string   `json:"telegramToken,omitempty"`
	STTModel         string   `json:"sttModel,omitempty"`
	STTLanguage      string   `json:"sttLanguage,omitempty"`
	ChatModel        string   `json:"chatModel,omitempty"`
	Temperature      float64  `json:"temperature,omitempty"`
	SystemPrompt     string   `json:"systemPrompt,omitempty"`
	PromptDir        string   `json:"promptDir,omitempty"`
	TempDir          string   `json:"tempDir,omitempty"`
	MaxMessageLength int      `json:"maxMessageLength,omitempty"`
	ChunkDelay       Duration `json:"chunkDelay,omitempty"`
	Webhook          Webhook  `json:"webhook,omitempty"`
	Messages         Messages `json:"messages,omitempty"`
}

// Webhook configures Telegram to push updates to the bot.
// Updates are polled when no URL is set.
type Webhook struct {
	URL         string `json:"url,omitempty"`
	Listen      string `json:"listen,omitempty"`
	Path        string `json:"path,omitempty"`
	TLSCert     string `json:"tlsCert,omitempty"`
	TLSKey      string `json:"tlsKey,omitempty"`
	SelfSigned  bool   `json:"selfSigned,omitempty"`
	// SecretToken authenticates Telegram's webhook requests. A random token is generated if empty.
	SecretToken string `json:"secretToken,omitempty"`
}

// Messages contains the texts the bot sends to users.
// An empty status message (Transcribing, Processing) disables it.
type Messages struct {
	Greeting            string `json:"greeting,omitempty"`
	Transcribing        string `json:"transcribing,omitempty"`
	Processing          string `json:"processing,omitempty"`
	ChooseAction        string `json:"chooseAction,omitempty"`
	TranscriptionFailed string `json:"transcriptionFailed,omitempty"`
	NoTranscript        string `json:"noTranscript,omitempty"`
	ProcessingFailed    string `json:"processingFailed,omitempty"`
	UnexpectedFailure   string `json:"unexpectedFailure,omitempty"`
}

func Defaults() Configuration {
	return Configuration{
		ServerURL:        "https://api.openai.com",
		STTModel:         "whisper-1",
		ChatModel:        "gpt-4o",
		Temperature:      0.5,
		MaxMessageLength: 4096,
		ChunkDelay:       Duration(500 * time.Millisecond),
		Webhook: Webhook{
			Listen: ":8443",
			Path:   "/telegram/webhook",
		},
		Messages: DefaultMessages(),
	}
}

func DefaultMessages() Messages {
	return Messages{
		Greeting:            "👋 Hi! I'm a voice transcription bot. Send me a voice message and I'll convert it to text. Afterwards I can rewrite it, turn it into a task or proofread it for you.",
		Transcribing:        "🎵 Transcribing...",
		Processing:          "⏳ Processing...",
		ChooseAction:        "What should I do with this?",
		TranscriptionFailed: "❌ Sorry, I couldn't transcribe your message. Please try again.",
		NoTranscript:        "❌ Sorry, I couldn't find the original transcription. Please send your message again.",
		ProcessingFailed:    "❌ Sorry, something went wrong while processing the text.",
		UnexpectedFailure:   "❌ An error occurred while processing your message.",
	}
}

// Duration is a time.Duration that can be specified as Go duration string, e.g. "500ms".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any

	err := json.Unmarshal(b, &v)
	if err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("parse duration: %w", err)
		}

		*d = Duration(parsed)
	default:
		return fmt.Errorf("unsupported duration value %s", string(b))
	}

	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// Set implements flag.Value.
func (d *Duration) Set(s string) error {
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}

	*d = Duration(parsed)

	return nil
}

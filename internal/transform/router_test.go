package transform

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/mgoltzsche/voice-transcription-bot/internal/chat"
	"github.com/mgoltzsche/voice-transcription-bot/internal/model"
	"github.com/mgoltzsche/voice-transcription-bot/internal/prompt"
	"github.com/mgoltzsche/voice-transcription-bot/internal/transcript"
	"github.com/stretchr/testify/require"
)

func TestActions(t *testing.T) {
	for _, tc := range []struct {
		tag      string
		action   Action
		template string
	}{
		{tag: "edit_text", action: StyleEdit, template: "edit_text.md"},
		{tag: "make_task", action: MakeTask, template: "task.md"},
		{tag: "proofread", action: Proofread, template: "proofread.md"},
	} {
		t.Run(tc.tag, func(t *testing.T) {
			action, ok := ParseAction(tc.tag)

			require.True(t, ok, "parse tag")
			require.Equal(t, tc.action, action, "action")
			require.Equal(t, tc.tag, action.Tag(), "tag")
			require.Equal(t, tc.template, action.Template(), "template")
			require.NotEmpty(t, action.Label(), "label")
		})
	}

	for _, tag := range []string{"", "unknown", "EDIT_TEXT"} {
		_, ok := ParseAction(tag)
		require.False(t, ok, "parse unsupported tag %q", tag)
	}
}

func TestControls(t *testing.T) {
	controls := Controls()

	tags := make([]string, len(controls))
	for i, c := range controls {
		tags[i] = c.Tag
	}

	require.Equal(t, []string{"edit_text", "make_task", "proofread"}, tags)
}

func TestDispatch(t *testing.T) {
	templates := fstest.MapFS{
		"edit_text.md": {Data: []byte("edit: {{text}}")},
		"task.md":      {Data: []byte("task: {{text}}")},
		"proofread.md": {Data: []byte("proofread: {{text}}")},
	}

	for _, tc := range []struct {
		name             string
		transcript       *string
		action           Action
		templates        fstest.MapFS
		generatorResult  string
		generatorFails   bool
		expected         Outcome
		expectedPrompt   string
		expectGeneration bool
	}{
		{
			name:             "proofread",
			transcript:       ptr("teh cat sat"),
			action:           Proofread,
			templates:        templates,
			generatorResult:  "The cat sat.",
			expected:         Outcome{State: StateSucceeded, Text: "The cat sat."},
			expectedPrompt:   "proofread: teh cat sat",
			expectGeneration: true,
		},
		{
			name:             "make task",
			transcript:       ptr("buy milk"),
			action:           MakeTask,
			templates:        templates,
			generatorResult:  "- [ ] buy milk",
			expected:         Outcome{State: StateSucceeded, Text: "- [ ] buy milk"},
			expectedPrompt:   "task: buy milk",
			expectGeneration: true,
		},
		{
			name:      "no transcript",
			action:    MakeTask,
			templates: templates,
			expected:  Outcome{State: StateFailed, Reason: ReasonNoTranscript},
		},
		{
			name:       "template not found",
			transcript: ptr("hello world"),
			action:     StyleEdit,
			templates:  fstest.MapFS{},
			expected:   Outcome{State: StateFailed, Reason: ReasonTemplateNotFound},
		},
		{
			name:       "action outside of the supported set",
			transcript: ptr("hello world"),
			action:     Action(42),
			templates:  templates,
			expected:   Outcome{State: StateFailed, Reason: ReasonTemplateNotFound},
		},
		{
			name:             "generation failed",
			transcript:       ptr("hello world"),
			action:           StyleEdit,
			templates:        templates,
			generatorFails:   true,
			expected:         Outcome{State: StateFailed, Reason: ReasonGenerationFailed},
			expectedPrompt:   "edit: hello world",
			expectGeneration: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			transcripts := transcript.NewStore()
			if tc.transcript != nil {
				transcripts.Put(7, *tc.transcript)
			}

			generator := &fakeGenerator{result: tc.generatorResult, fail: tc.generatorFails}
			modelConfig := chat.ModelConfig{Model: "fake-model", Temperature: 0.5}
			testee := &Router{
				Transcripts: transcripts,
				Prompts:     &prompt.Store{FS: tc.templates},
				Generator:   generator,
				ModelConfig: modelConfig,
			}

			outcome := testee.Dispatch(context.Background(), 7, tc.action)

			require.Equal(t, tc.expected, outcome)

			if tc.expectGeneration {
				require.Equal(t, []string{tc.expectedPrompt}, generator.prompts, "generator prompts")
				require.Equal(t, modelConfig, generator.cfg, "model config")
			} else {
				require.Empty(t, generator.prompts, "generator should not be called")
			}
		})
	}
}

func TestDispatchUsesTranscriptOfConversation(t *testing.T) {
	transcripts := transcript.NewStore()
	transcripts.Put(1, "first")
	transcripts.Put(2, "second")
	generator := &fakeGenerator{result: "ok"}
	testee := &Router{
		Transcripts: transcripts,
		Prompts:     &prompt.Store{FS: fstest.MapFS{"task.md": {Data: []byte("{{text}}")}}},
		Generator:   generator,
	}

	outcome := testee.Dispatch(context.Background(), model.ConversationID(2), MakeTask)

	require.True(t, outcome.Succeeded())
	require.Equal(t, []string{"second"}, generator.prompts)

	text, _ := transcripts.Get(2)
	require.Equal(t, "second", text, "transcript should not be consumed")
}

type fakeGenerator struct {
	result  string
	fail    bool
	prompts []string
	cfg     chat.ModelConfig
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string, cfg chat.ModelConfig) (string, bool) {
	g.prompts = append(g.prompts, prompt)
	g.cfg = cfg

	if g.fail {
		return "", false
	}

	return g.result, true
}

func ptr(s string) *string {
	return &s
}

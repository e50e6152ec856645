package transform

import "github.com/mgoltzsche/voice-transcription-bot/internal/model"

// Action is a post-processing operation that can be applied to a transcript.
type Action int

const (
	StyleEdit Action = iota + 1
	MakeTask
	Proofread
)

// Actions lists all actions in the order they are presented to the user.
var Actions = []Action{StyleEdit, MakeTask, Proofread}

// ParseAction resolves a button tag to its action.
func ParseAction(tag string) (Action, bool) {
	for _, a := range Actions {
		if a.Tag() == tag {
			return a, true
		}
	}

	return 0, false
}

func (a Action) Tag() string {
	switch a {
	case StyleEdit:
		return "edit_text"
	case MakeTask:
		return "make_task"
	case Proofread:
		return "proofread"
	}

	return ""
}

func (a Action) Label() string {
	switch a {
	case StyleEdit:
		return "✍️ shima' style"
	case MakeTask:
		return "📋 make task"
	case Proofread:
		return "🔎 proofread"
	}

	return ""
}

// Template returns the name of the prompt template the action is bound to.
func (a Action) Template() string {
	switch a {
	case StyleEdit:
		return "edit_text.md"
	case MakeTask:
		return "task.md"
	case Proofread:
		return "proofread.md"
	}

	return ""
}

func (a Action) String() string {
	if tag := a.Tag(); tag != "" {
		return tag
	}

	return "unknown"
}

// Controls returns the control set offering all actions.
func Controls() []model.Control {
	controls := make([]model.Control, len(Actions))

	for i, a := range Actions {
		controls[i] = model.Control{
			Label: a.Label(),
			Tag:   a.Tag(),
		}
	}

	return controls
}

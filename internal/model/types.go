package model

import "strconv"

// ConversationID identifies a chat. It is the key of the transcript cache.
type ConversationID int64

func (id ConversationID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

type EventKind string

const (
	EventKindCommand EventKind = "command"
	EventKindVoice   EventKind = "voice"
	EventKindAudio   EventKind = "audio"
	EventKindText    EventKind = "text"
	EventKindButton  EventKind = "button"
)

// Event is an inbound chat event, independent of the transport that received it.
type Event struct {
	Kind           EventKind
	ConversationID ConversationID
	Command        string
	Text           string
	FileID         string
	FileName       string
	CallbackID     string
	CallbackData   string
}

// Control is a selectable action rendered alongside a message.
type Control struct {
	Label string
	Tag   string
}

// MessageRef points to a message that was sent to a conversation.
type MessageRef struct {
	ConversationID ConversationID
	MessageID      int
}

package transcript

import (
	"sync"

	"github.com/mgoltzsche/voice-transcription-bot/internal/model"
)

// Store holds the most recent transcript of each conversation.
// Concurrent writes for the same conversation are resolved by last write wins.
type Store struct {
	transcripts map[model.ConversationID]string
	mutex       sync.RWMutex
}

func NewStore() *Store {
	return &Store{
		transcripts: map[model.ConversationID]string{},
	}
}

func (s *Store) Put(id model.ConversationID, text string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.transcripts[id] = text
}

func (s *Store) Get(id model.ConversationID) (string, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	text, ok := s.transcripts[id]

	return text, ok
}

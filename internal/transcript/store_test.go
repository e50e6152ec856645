package transcript

import (
	"fmt"
	"sync"
	"testing"

	"github.com/mgoltzsche/voice-transcription-bot/internal/model"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	testee := NewStore()

	_, ok := testee.Get(1)
	require.False(t, ok, "transcript of unknown conversation should be absent")

	testee.Put(1, "hello world")
	testee.Put(1, "buy milk")
	testee.Put(2, "")

	text, ok := testee.Get(1)
	require.True(t, ok, "transcript present")
	require.Equal(t, "buy milk", text, "last write should win")

	text, ok = testee.Get(2)
	require.True(t, ok, "empty transcript should be present")
	require.Equal(t, "", text)

	_, ok = testee.Get(3)
	require.False(t, ok, "conversations should not share transcripts")
}

func TestStoreConcurrentAccess(t *testing.T) {
	testee := NewStore()
	wg := &sync.WaitGroup{}

	for i := 0; i < 20; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			id := model.ConversationID(i % 4)
			testee.Put(id, fmt.Sprintf("transcript %d", i))
			testee.Get(id)
		}()
	}

	wg.Wait()

	for id := model.ConversationID(0); id < 4; id++ {
		_, ok := testee.Get(id)
		require.True(t, ok, "transcript of conversation %d", id)
	}
}

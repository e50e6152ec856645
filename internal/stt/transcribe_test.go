package stt

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTranscriber(t *testing.T) {
	for _, tc := range []struct {
		name       string
		result     string
		err        error
		expected   string
		expectedOK bool
	}{
		{
			name:       "success",
			result:     "hello world",
			expected:   "hello world",
			expectedOK: true,
		},
		{
			name:       "trims whitespace",
			result:     "  hello world\n",
			expected:   "hello world",
			expectedOK: true,
		},
		{
			name:       "strips blank audio marker",
			result:     "hello [BLANK_AUDIO]",
			expected:   "hello",
			expectedOK: true,
		},
		{
			name:   "blank audio",
			result: " [BLANK_AUDIO]",
		},
		{
			name:   "empty result",
			result: "",
		},
		{
			name: "service error",
			err:  errors.New("fake service error"),
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			testee := &Transcriber{Service: &fakeService{text: tc.result, err: tc.err}}

			text, ok := testee.Transcribe(context.Background(), "fake.ogg")

			require.Equal(t, tc.expectedOK, ok, "ok")
			require.Equal(t, tc.expected, text)
		})
	}
}

func TestClient(t *testing.T) {
	var form struct {
		path     string
		model    string
		language string
		fileName string
		fileData string
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		err := req.ParseMultipartForm(1 << 20)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		form.path = req.URL.Path
		form.model = req.FormValue("model")
		form.language = req.FormValue("language")

		f, header, err := req.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()

		b, _ := io.ReadAll(f)
		form.fileName = header.Filename
		form.fileData = string(b)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "hello world"})
	}))
	defer srv.Close()

	audioFile := filepath.Join(t.TempDir(), "voice.ogg")
	err := os.WriteFile(audioFile, []byte("fake audio"), 0o600)
	require.NoError(t, err)

	testee := &Client{
		URL:        srv.URL,
		APIKey:     "fake-key",
		Language:   "de",
		HTTPClient: srv.Client(),
	}

	result, err := testee.Transcribe(context.Background(), audioFile)

	require.NoError(t, err)
	require.Equal(t, "hello world", result.Text)
	require.Equal(t, "/v1/audio/transcriptions", form.path, "request path")
	require.Equal(t, "whisper-1", form.model, "model")
	require.Equal(t, "de", form.language, "language")
	require.Equal(t, "voice.ogg", form.fileName, "file name")
	require.Equal(t, "fake audio", form.fileData, "file content")
}

func TestClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, `{"error":{"message":"fake error"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	audioFile := filepath.Join(t.TempDir(), "voice.ogg")
	err := os.WriteFile(audioFile, []byte("fake audio"), 0o600)
	require.NoError(t, err)

	testee := &Client{URL: srv.URL, HTTPClient: srv.Client()}

	_, err = testee.Transcribe(context.Background(), audioFile)

	require.Error(t, err)
}

type fakeService struct {
	text string
	err  error
}

func (s *fakeService) Transcribe(_ context.Context, _ string) (Transcription, error) {
	return Transcription{Text: s.text}, s.err
}

package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTTS(t *testing.T, handler http.HandlerFunc) *TTS {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tts, err := NewTTS(TTSOptions{APIKey: "test-key", APIBase: server.URL})
	require.NoError(t, err)
	return tts
}

func TestNewTTSRequiresAPIKey(t *testing.T) {
	_, err := NewTTS(TTSOptions{})
	assert.Error(t, err)
}

func TestResolveVoiceIDUsesExplicitID(t *testing.T) {
	called := false
	tts := newTestTTS(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	id, err := tts.ResolveVoiceID(context.Background(), "21m00Tcm4TlvDq8ikWAM")
	require.NoError(t, err)
	assert.Equal(t, "21m00Tcm4TlvDq8ikWAM", id)
	assert.False(t, called, "an explicit id should not hit the API")
}

func TestResolveVoiceIDMatchesName(t *testing.T) {
	tts := newTestTTS(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("xi-api-key"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"voices": []map[string]string{
				{"voice_id": "v-1", "name": "Bella"},
				{"voice_id": "v-2", "name": "George"},
			},
		})
	})

	id, err := tts.ResolveVoiceID(context.Background(), "george")
	require.NoError(t, err)
	assert.Equal(t, "v-2", id)
}

func TestResolveVoiceIDFallsBackToDefaults(t *testing.T) {
	tts := newTestTTS(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"voices": []map[string]string{
				{"voice_id": "v-9", "name": "Callum"},
				{"voice_id": "v-3", "name": "Rachel"},
			},
		})
	})

	id, err := tts.ResolveVoiceID(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "v-3", id)
}

func TestResolveVoiceIDFirstAvailable(t *testing.T) {
	tts := newTestTTS(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"voices": []map[string]string{
				{"voice_id": "v-9", "name": "Callum"},
			},
		})
	})

	id, err := tts.ResolveVoiceID(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, "v-9", id)
}

func TestSpeakSkipsEmptyText(t *testing.T) {
	called := false
	tts := newTestTTS(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	require.NoError(t, tts.Speak(context.Background(), "", "v-1"))
	assert.False(t, called)
}

func TestSpeakFetchesAudio(t *testing.T) {
	tts := newTestTTS(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/v1/text-to-speech/v-1")
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["text"])
		fmt.Fprint(w, "fake-mp3-bytes")
	})

	// No player configured: playback is skipped, not an error.
	require.NoError(t, tts.Speak(context.Background(), "hello", "v-1"))
}

func TestSpeakReportsVoiceNotFound(t *testing.T) {
	tts := newTestTTS(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"detail":{"status":"voice_not_found"}}`)
	})

	err := tts.Speak(context.Background(), "hello", "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "voice not found")
}

package providers

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

func newTestProvider(t *testing.T, handler http.HandlerFunc) *HTTPProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewHTTPProvider(HTTPProviderOptions{
		APIKey:      "test-key",
		APIBase:     server.URL,
		Model:       "test-model",
		Instruction: "You are a test assistant.",
	})
	require.NoError(t, err)
	return p
}

func chatResponse(content string) string {
	return fmt.Sprintf(`{"choices":[{"message":{"content":%q}}]}`, content)
}

func TestNewHTTPProviderRequiresAPIKey(t *testing.T) {
	_, err := NewHTTPProvider(HTTPProviderOptions{APIKey: "  "})
	assert.Error(t, err)
}

func TestSendReturnsReply(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		fmt.Fprint(w, chatResponse("  Hello there.  "))
	})

	reply, err := p.Send(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello there.", reply)
}

func TestSendKeepsSessionHistory(t *testing.T) {
	var lastMessages []Message
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []Message `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		lastMessages = body.Messages
		fmt.Fprint(w, chatResponse("ok"))
	})

	_, err := p.Send(context.Background(), "first")
	require.NoError(t, err)
	_, err = p.Send(context.Background(), "second")
	require.NoError(t, err)

	// system + first user + first assistant + second user
	require.Len(t, lastMessages, 4)
	assert.Equal(t, "system", lastMessages[0].Role)
	assert.Equal(t, "first", lastMessages[1].Content)
	assert.Equal(t, "ok", lastMessages[2].Content)
	assert.Equal(t, "second", lastMessages[3].Content)
}

func TestSendErrorRefreshesSession(t *testing.T) {
	fail := false
	var lastMessages []Message
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []Message `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		lastMessages = body.Messages
		if fail {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, chatResponse("recovered"))
	})

	_, err := p.Send(context.Background(), "first")
	require.NoError(t, err)

	fail = true
	reply, err := p.Send(context.Background(), "second")
	assert.Error(t, err)
	assert.Empty(t, reply)

	// History was cleared by the failure: only system + new user remain.
	fail = false
	_, err = p.Send(context.Background(), "third")
	require.NoError(t, err)
	require.Len(t, lastMessages, 2)
	assert.Equal(t, "third", lastMessages[1].Content)
}

func sseBody(chunks ...string) string {
	out := ""
	for _, c := range chunks {
		payload, _ := json.Marshal(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"delta": map[string]string{"content": c}},
			},
		})
		out += "data: " + string(payload) + "\n\n"
	}
	return out + "data: [DONE]\n\n"
}

func TestStreamYieldsChunks(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["stream"])

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseBody("Hel", "lo", "!"))
	})

	var got []string
	for chunk := range p.Stream(context.Background(), "hi") {
		got = append(got, chunk)
	}
	assert.Equal(t, []string{"Hel", "lo", "!"}, got)
}

func TestStreamFailureTruncatesSilently(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})

	var got []string
	for chunk := range p.Stream(context.Background(), "hi") {
		got = append(got, chunk)
	}
	// No chunks, no panic, channel simply closed.
	assert.Empty(t, got)
}

func TestStreamMalformedEventTruncates(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseBody("good")+"data: {broken json\n\n")
	})

	count := 0
	for range p.Stream(context.Background(), "hi") {
		count++
	}
	assert.Equal(t, 1, count)
}

func TestUpdateInstruction(t *testing.T) {
	var lastMessages []Message
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []Message `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		lastMessages = body.Messages
		fmt.Fprint(w, chatResponse("ok"))
	})

	_, err := p.Send(context.Background(), "one")
	require.NoError(t, err)

	p.UpdateInstruction("New persona.")
	_, err = p.Send(context.Background(), "two")
	require.NoError(t, err)

	// Session was reset and carries the new instruction.
	require.Len(t, lastMessages, 2)
	assert.Equal(t, "New persona.", lastMessages[0].Content)

	// Empty instruction keeps the existing prompt but still resets.
	p.UpdateInstruction("")
	_, err = p.Send(context.Background(), "three")
	require.NoError(t, err)
	assert.Equal(t, "New persona.", lastMessages[0].Content)
}

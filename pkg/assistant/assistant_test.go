package assistant

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposePrompt(t *testing.T) {
	assert.Equal(t, "hello", ComposePrompt("hello", "  "))
	assert.Equal(t, "Relevant information:\nfact\n\nUser said: hello", ComposePrompt("hello", "fact"))
}

func TestNewAssistantInput(t *testing.T) {
	msgs := NewAssistantInput(Options{SystemPrompt: "be brief"}, "hi", "")
	require.Len(t, msgs, 2)
	assert.Equal(t, SYSTEM, msgs[0].MsgRole)
	assert.Equal(t, USER, msgs[1].MsgRole)

	assert.Len(t, NewAssistantInput(Options{}, "hi", ""), 1)
}

func TestCleanReply(t *testing.T) {
	s, err := CleanReply("  ok then \n")
	require.NoError(t, err)
	assert.Equal(t, "ok then", s)

	_, err = CleanReply("   ")
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestOpenAIResponder(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":" Sure thing. "}}]}`))
	}))
	defer srv.Close()

	r := NewOpenAIResponder(Options{SystemPrompt: "persona"},
		option.WithBaseURL(srv.URL+"/v1/"), option.WithAPIKey("test"), option.WithMaxRetries(0))
	reply, err := r.Respond(context.Background(), "hi", "ctx")
	require.NoError(t, err)

	assert.Equal(t, "Sure thing.", reply)
	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.EqualValues(t, 150, body["max_completion_tokens"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 2)
}

func TestOpenAIResponderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"nope"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	r := NewOpenAIResponder(Options{}, option.WithBaseURL(srv.URL+"/v1/"), option.WithAPIKey("test"), option.WithMaxRetries(0))
	_, err := r.Respond(context.Background(), "hi", "")
	assert.Error(t, err)
}

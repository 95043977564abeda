package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xpanvictor/parley/pkg/assistant"
)

func TestRespond(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",
			"content":[{"type":"text","text":"Happy to help."}],
			"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":4}}`))
	}))
	defer srv.Close()

	p, err := New("key", assistant.Options{Model: "claude-test", SystemPrompt: "persona", MaxTokens: 120},
		option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	require.NoError(t, err)

	reply, err := p.Respond(context.Background(), "hello", "")
	require.NoError(t, err)
	assert.Equal(t, "Happy to help.", reply)
	assert.EqualValues(t, 120, body["max_tokens"])
	assert.Equal(t, "claude-test", body["model"])
}

func TestNewRequiresModel(t *testing.T) {
	_, err := New("key", assistant.Options{})
	assert.Error(t, err)
}

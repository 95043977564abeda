package openai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/audio/transcriptions"))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "en", r.FormValue("language"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"  turn on the lights "}`))
	}))
	defer srv.Close()

	tr := New("", "", option.WithBaseURL(srv.URL+"/v1/"), option.WithAPIKey("test"), option.WithMaxRetries(0))
	text, err := tr.Transcribe(context.Background(), []byte("RIFF...."), "wav")
	require.NoError(t, err)
	assert.Equal(t, "turn on the lights", text)
}

func TestTranscribeEmpty(t *testing.T) {
	tr := New("", "", option.WithAPIKey("test"))
	_, err := tr.Transcribe(context.Background(), nil, "wav")
	assert.Error(t, err)
}

package websocket

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xpanvictor/parley/pkg/io/tts"
)

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"type":"audio","data":[1,-2,32767,-32768]}`))
	require.NoError(t, err)
	assert.Equal(t, MessageTypeAudio, cmd.Type)
	assert.Equal(t, []int16{1, -2, 32767, -32768}, cmd.Samples)

	cmd, err = ParseCommand([]byte(`{"type":"start"}`))
	require.NoError(t, err)
	assert.Equal(t, MessageTypeStart, cmd.Type)

	cmd, err = ParseCommand([]byte(`{"type":"whatever","data":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, MessageType("whatever"), cmd.Type)
}

func TestParseCommandRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":        `hello`,
		"no type":         `{"data":[1]}`,
		"audio no data":   `{"type":"audio"}`,
		"audio overflow":  `{"type":"audio","data":[40000]}`,
		"audio fractions": `{"type":"audio","data":[0.5]}`,
		"setTTS no cfg":   `{"type":"setTTS"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCommand([]byte(raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrProtocol))
		})
	}
}

func TestParseSetTTSKeepsValidFields(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"type":"setTTS","config":{"service":"piper","voice":7,"speed":2,"model":"m"}}`))
	require.NoError(t, err)

	assert.Equal(t, tts.Config{Service: "piper", Model: "m"}, cmd.TTS)
	assert.ElementsMatch(t, []string{"voice", "speed"}, cmd.Ignored)
}

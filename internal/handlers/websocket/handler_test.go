package websocket

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xpanvictor/parley/internal/config"
	"github.com/xpanvictor/parley/internal/domains/sys_manager/pipeline"
	"github.com/xpanvictor/parley/pkg/Logger"
	"github.com/xpanvictor/parley/pkg/io/stt"
	"github.com/xpanvictor/parley/pkg/io/tts"
)

type fixedResponder struct{ reply string }

func (r fixedResponder) Respond(context.Context, string, string) (string, error) {
	return r.reply, nil
}

type recordingSynth struct {
	mu   sync.Mutex
	cfgs []tts.Config
}

func (s *recordingSynth) Synthesize(_ context.Context, text string, cfg tts.Config) (tts.Audio, error) {
	s.mu.Lock()
	s.cfgs = append(s.cfgs, cfg)
	s.mu.Unlock()
	return tts.Audio{Data: []byte("speech:" + text), Format: "mp3"}, nil
}

type testServer struct {
	srv     *httptest.Server
	handler *WebSocketHandler
	synth   *recordingSynth
}

func newTestServer(t *testing.T, sessionTimeout time.Duration) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	voice := config.DefaultVoiceConfig()
	voice.SilenceTimeout = 40 * time.Millisecond
	store := config.NewStore(&config.Settings{
		Server: config.ServerConfig{ReadBufferSize: 1024, WriteBufferSize: 1024, SessionTimeout: sessionTimeout},
		Voice:  voice,
		TTS:    config.TTSConfig{Default: config.TTSDefaults{Service: "fake", Voice: "v1"}},
	})

	synth := &recordingSynth{}
	router := tts.NewRouter()
	router.Register("fake", synth, tts.Config{Voice: "v1"})
	router.Register("other", synth, tts.Config{Voice: "o1", Model: "om"})

	transcriber := stt.TranscriberFunc(func(context.Context, []byte, string) (string, error) {
		return "hello there", nil
	})
	pipe := pipeline.New(pipeline.Deps{
		Transcriber: transcriber,
		Responder:   fixedResponder{reply: "hi, how can I help?"},
		Synthesizer: router,
	}, pipeline.DefaultConfig(), Logger.NewNop())

	h := NewWebSocketHandler(Logger.NewNop(), HandlerDeps{
		Store:   store,
		Runner:  pipe,
		Catalog: router,
	})
	engine := gin.New()
	h.RegisterRoutes(engine)

	srv := httptest.NewServer(engine)
	t.Cleanup(func() {
		_ = h.Close()
		srv.Close()
	})
	return &testServer{srv: srv, handler: h, synth: synth}
}

func (ts *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type outbound struct {
	Type      string     `json:"type"`
	State     string     `json:"state"`
	Text      string     `json:"text"`
	Final     bool       `json:"final"`
	Data      string     `json:"data"`
	Format    string     `json:"format"`
	Action    string     `json:"action"`
	Message   string     `json:"message"`
	TTSConfig tts.Config `json:"ttsConfig"`
}

func send(t *testing.T, conn *websocket.Conn, raw string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
}

func next(t *testing.T, conn *websocket.Conn) outbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var out outbound
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestVoiceTurnOverWebSocket(t *testing.T) {
	ts := newTestServer(t, time.Minute)
	conn := ts.dial(t)

	send(t, conn, `{"type":"start"}`)
	assert.Equal(t, outbound{Type: "state", State: "listening"}, next(t, conn))

	send(t, conn, `{"type":"audio","data":[10,-10,20,-20]}`)

	assert.Equal(t, "processing", next(t, conn).State)

	tr := next(t, conn)
	assert.Equal(t, "transcript", tr.Type)
	assert.Equal(t, "hello there", tr.Text)
	assert.True(t, tr.Final)

	resp := next(t, conn)
	assert.Equal(t, "response", resp.Type)
	assert.Equal(t, "hi, how can I help?", resp.Text)

	assert.Equal(t, "speaking", next(t, conn).State)

	audio := next(t, conn)
	require.Equal(t, "audio", audio.Type)
	assert.Equal(t, "mp3", audio.Format)
	decoded, err := base64.StdEncoding.DecodeString(audio.Data)
	require.NoError(t, err)
	assert.Equal(t, "speech:hi, how can I help?", string(decoded))

	assert.Equal(t, "listening", next(t, conn).State)
}

func TestMalformedAndUnknownMessagesAreIgnored(t *testing.T) {
	ts := newTestServer(t, time.Minute)
	conn := ts.dial(t)

	send(t, conn, `this is not json`)
	send(t, conn, `{"type":"dance"}`)
	send(t, conn, `{"type":"audio","data":"AAAA"}`)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3}))
	send(t, conn, `{"type":"start"}`)

	assert.Equal(t, outbound{Type: "state", State: "listening"}, next(t, conn))
}

func TestSetTTSOverWebSocket(t *testing.T) {
	ts := newTestServer(t, time.Minute)
	conn := ts.dial(t)

	send(t, conn, `{"type":"setTTS","config":{"service":"nope","voice":7,"model":"m2"}}`)
	got := next(t, conn)
	assert.Equal(t, "ttsConfigUpdated", got.Type)
	assert.Equal(t, tts.Config{Service: "fake", Voice: "v1", Model: "m2"}, got.TTSConfig)

	send(t, conn, `{"type":"setTTS","config":{"service":"other"}}`)
	got = next(t, conn)
	assert.Equal(t, tts.Config{Service: "other", Voice: "o1", Model: "om"}, got.TTSConfig)

	// the next turn synthesizes with the updated settings
	send(t, conn, `{"type":"start"}`)
	assert.Equal(t, "listening", next(t, conn).State)
	send(t, conn, `{"type":"audio","data":[1,2,3]}`)
	for {
		if msg := next(t, conn); msg.Type == "audio" {
			break
		}
	}
	ts.synth.mu.Lock()
	defer ts.synth.mu.Unlock()
	require.Len(t, ts.synth.cfgs, 1)
	assert.Equal(t, tts.Config{Service: "other", Voice: "o1", Model: "om"}, ts.synth.cfgs[0])
}

func TestStopAlwaysAnswersIdle(t *testing.T) {
	ts := newTestServer(t, time.Minute)
	conn := ts.dial(t)

	send(t, conn, `{"type":"stop"}`)
	assert.Equal(t, outbound{Type: "state", State: "idle"}, next(t, conn))

	send(t, conn, `{"type":"start"}`)
	assert.Equal(t, "listening", next(t, conn).State)
	send(t, conn, `{"type":"stop"}`)
	assert.Equal(t, "idle", next(t, conn).State)
}

func TestRegistryTracksConnections(t *testing.T) {
	ts := newTestServer(t, time.Minute)
	reg := ts.handler.Registry()

	a := ts.dial(t)
	ts.dial(t)
	require.Eventually(t, func() bool { return reg.Count() == 2 }, 2*time.Second, 5*time.Millisecond)

	resp, err := http.Get(ts.srv.URL + "/ws/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body struct {
		Status string        `json:"status"`
		Data   RegistryStats `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 2, body.Data.ActiveSessions)
	assert.Len(t, body.Data.Sessions, 2)

	require.NoError(t, a.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	a.Close()
	require.Eventually(t, func() bool { return reg.Count() == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestSweepClosesIdleSessions(t *testing.T) {
	ts := newTestServer(t, 30*time.Millisecond)
	reg := ts.handler.Registry()

	conn := ts.dial(t)
	require.Eventually(t, func() bool { return reg.Count() == 1 }, 2*time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, reg.Sweep())
	assert.Equal(t, 0, reg.Count())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestClosedRegistryRejectsSessions(t *testing.T) {
	ts := newTestServer(t, time.Minute)
	require.NoError(t, ts.handler.Registry().Close())

	conn := ts.dial(t)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, ts.handler.Registry().Count())
}

package websocket

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/xpanvictor/parley/internal/config"
	vss "github.com/xpanvictor/parley/internal/domains/sys_manager/voice_stream_system"
	"github.com/xpanvictor/parley/pkg/Logger"
	xio "github.com/xpanvictor/parley/pkg/io"
	"github.com/xpanvictor/parley/pkg/io/tts"
)

// HandlerDeps are the collaborators shared by every voice session.
type HandlerDeps struct {
	Store     *config.Store
	Runner    vss.Runner
	Catalog   vss.TTSCatalog
	Publisher xio.Publisher
	Registry  *ConnectionRegistry
}

// WebSocketHandler handles WebSocket connections and routes
type WebSocketHandler struct {
	logger   *Logger.Logger
	deps     HandlerDeps
	registry *ConnectionRegistry
	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(logger *Logger.Logger, deps HandlerDeps) *WebSocketHandler {
	settings := deps.Store.Get()
	if deps.Registry == nil {
		deps.Registry = NewConnectionRegistry(logger, settings.Server.SessionTimeout)
	}
	if deps.Publisher == nil {
		deps.Publisher = xio.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WebSocketHandler{
		logger:   logger,
		deps:     deps,
		registry: deps.Registry,
		ctx:      ctx,
		cancel:   cancel,
		upgrader: websocket.Upgrader{
			// the voice client is served from the same host, auth is out of scope
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  settings.Server.ReadBufferSize,
			WriteBufferSize: settings.Server.WriteBufferSize,
		},
	}
}

func (h *WebSocketHandler) Registry() *ConnectionRegistry { return h.registry }

// RegisterRoutes registers WebSocket routes
func (h *WebSocketHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/ws", h.HandleVoiceWebSocket)
	router.GET("/ws/stats", h.HandleStats)
}

// HandleVoiceWebSocket upgrades the request and runs one voice session until the peer leaves.
func (h *WebSocketHandler) HandleVoiceWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade failed: %v", err)
		return
	}

	session := NewSession(conn)
	logger := h.logger.With("session", session.ID())

	defaults := h.deps.Store.TTSDefaults()
	voice := vss.NewVSS(session.ID(), h.deps.Store.Voice(), tts.Config{
		Service: defaults.Service,
		Voice:   defaults.Voice,
		Model:   defaults.Model,
	}, vss.Deps{
		Runner:    h.deps.Runner,
		Catalog:   h.deps.Catalog,
		Sink:      session,
		Publisher: h.deps.Publisher,
		Logger:    logger,
	})
	session.Attach(voice)
	go voice.Run(h.ctx)

	if !h.registry.Register(session) {
		logger.Warnf("Registry closed, rejecting connection")
		_ = session.Close()
		return
	}
	defer h.registry.Unregister(session.ID())

	go session.keepAlive()
	h.handleConnection(session, logger)
}

// handleConnection reads until the socket fails. Every frame is handed to
// the session's state machine; nothing here blocks on the pipeline.
func (h *WebSocketHandler) handleConnection(session *Session, logger *Logger.Logger) {
	session.prepareRead()
	logger.Infof("Starting WebSocket connection handling")

	for {
		messageType, data, err := session.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				logger.Warnf("WebSocket read error: %v", err)
			} else {
				logger.Infof("WebSocket connection closed")
			}
			return
		}
		session.Touch()

		if messageType != websocket.TextMessage {
			logger.Debugf("Ignoring non-text frame (%d bytes)", len(data))
			continue
		}
		if err := h.dispatch(session, data, logger); err != nil {
			if errors.Is(err, vss.ErrClosed) {
				return
			}
			logger.Warnf("Dropped inbound message: %v", err)
		}
	}
}

func (h *WebSocketHandler) dispatch(session *Session, data []byte, logger *Logger.Logger) error {
	cmd, err := ParseCommand(data)
	if err != nil {
		return err
	}

	voice := session.Voice()
	switch cmd.Type {
	case MessageTypeStart:
		return voice.Start()
	case MessageTypeStop:
		return voice.Stop()
	case MessageTypeAudio:
		return voice.Audio(cmd.Samples)
	case MessageTypeSetTTS:
		if len(cmd.Ignored) > 0 {
			logger.Infof("setTTS: ignoring fields %v", cmd.Ignored)
		}
		return voice.SetTTS(cmd.TTS)
	default:
		logger.Warnf("Unknown message type: %s", cmd.Type)
		return nil
	}
}

// HandleStats provides connection statistics
func (h *WebSocketHandler) HandleStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"data":   h.registry.Stats(),
	})
}

// Close shuts down the WebSocket handler
func (h *WebSocketHandler) Close() error {
	err := h.registry.Close()
	h.cancel()
	return err
}

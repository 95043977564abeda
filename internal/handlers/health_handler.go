package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis"
	"github.com/xpanvictor/parley/internal/config"
	"github.com/xpanvictor/parley/pkg/Logger"
)

// SessionCounter is satisfied by the websocket ConnectionRegistry.
type SessionCounter interface {
	Count() int
}

// HealthHandler serves liveness and public configuration.
type HealthHandler struct {
	sessions SessionCounter
	ping     func() error
	store    *config.Store
	logger   *Logger.Logger
	now      func() time.Time
}

// NewHealthHandler creates a health handler. rc may be nil when redis is not configured.
func NewHealthHandler(sessions SessionCounter, rc *redis.Client, store *config.Store, logger *Logger.Logger) *HealthHandler {
	h := &HealthHandler{
		sessions: sessions,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
	if rc != nil {
		h.ping = func() error { return rc.Ping().Err() }
	}
	return h
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.Health)
	api := r.Group("/api")
	api.GET("/health", h.APIHealth)
	api.GET("/config", h.Config)
}

func (h *HealthHandler) basic() HealthResponse {
	return HealthResponse{
		Status:    "OK",
		Message:   "Voice session server is running",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	}
}

func (h *HealthHandler) APIHealth(c *gin.Context) {
	c.JSON(http.StatusOK, h.basic())
}

// Health reports redis as "disabled", "ok" or "unreachable". An unreachable
// cache does not fail the check since retrieval works without it.
func (h *HealthHandler) Health(c *gin.Context) {
	resp := ServiceHealthResponse{HealthResponse: h.basic(), Redis: "disabled"}
	if h.sessions != nil {
		resp.ActiveSessions = h.sessions.Count()
	}
	if h.ping != nil {
		if err := h.ping(); err != nil {
			h.logger.Warnf("health: redis ping failed: %v", err)
			resp.Redis = "unreachable"
		} else {
			resp.Redis = "ok"
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HealthHandler) Config(c *gin.Context) {
	a := h.store.Get().Assistant
	apiKey := "Not configured"
	if a.APIKey != "" {
		apiKey = "Configured"
	}
	c.JSON(http.StatusOK, ConfigResponse{
		AssistantID:  a.AssistantID,
		AssistantURL: a.URL(),
		APIKey:       apiKey,
	})
}

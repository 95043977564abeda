package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xpanvictor/parley/internal/config"
	"github.com/xpanvictor/parley/internal/handlers"
	"github.com/xpanvictor/parley/internal/handlers/websocket"
	"github.com/xpanvictor/parley/pkg/Logger"
)

// Dependencies are the handlers the HTTP surface is assembled from.
type Dependencies struct {
	Logger    *Logger.Logger
	WebSocket *websocket.WebSocketHandler
	Health    *handlers.HealthHandler
	Complaint *handlers.ComplaintHandler
	Knowledge *handlers.KnowledgeHandler
}

// NewEngine builds a gin engine with the shared middleware stack.
func NewEngine(cfg *config.Settings, logger *Logger.Logger) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		handlers.ErrorHandlerMiddleware(logger),
		handlers.RequestLoggerMiddleware(logger),
		handlers.CORSMiddleware(),
	)
	return r
}

func InitializeRoutes(cfg *config.Settings, r *gin.Engine, dep Dependencies) {
	staticDir := cfg.Server.StaticDir

	r.GET("/", func(c *gin.Context) {
		index := filepath.Join(staticDir, "index.html")
		if isFile(index) {
			c.File(index)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Voice session server is running", "websocket": "/ws"})
	})

	if dep.Health != nil {
		dep.Health.RegisterRoutes(r)
	}
	if dep.Complaint != nil {
		dep.Complaint.RegisterRoutes(r)
	}
	if dep.Knowledge != nil {
		dep.Knowledge.RegisterRoutes(r)
	}
	if dep.WebSocket != nil {
		dep.WebSocket.RegisterRoutes(r)
	}

	r.NoRoute(serveStatic(staticDir))
}

// serveStatic answers unmatched GETs from dir. A catch-all route at "/" would
// collide with the API paths in gin's tree.
func serveStatic(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if dir != "" && (c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead) {
			clean := path.Clean("/" + c.Request.URL.Path)
			file := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
			if isFile(file) {
				c.File(file)
				return
			}
		}
		c.JSON(http.StatusNotFound, handlers.ErrorResponse{Error: "Not found"})
	}
}

func isFile(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.Mode().IsRegular()
}

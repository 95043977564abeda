package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xpanvictor/parley/internal/config"
	"github.com/xpanvictor/parley/internal/handlers"
	"github.com/xpanvictor/parley/pkg/Logger"
)

func get(r http.Handler, p string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
	return w
}

func TestStaticAndBanner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "css"), 0o755))

	cfg := &config.Settings{Debug: true, Server: config.ServerConfig{StaticDir: dir}}
	r := NewEngine(cfg, Logger.NewNop())
	InitializeRoutes(cfg, r, Dependencies{
		Health: handlers.NewHealthHandler(nil, nil, config.NewStore(cfg), Logger.NewNop()),
	})

	w := get(r, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Voice session server is running")

	w = get(r, "/app.js")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "console.log(1)", w.Body.String())

	assert.Equal(t, http.StatusNotFound, get(r, "/css").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/../../etc/passwd").Code)
	assert.Equal(t, http.StatusOK, get(r, "/api/health").Code)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>hi</h1>"), 0o644))
	w = get(r, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<h1>hi</h1>")
}

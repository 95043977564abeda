package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xpanvictor/parley/internal/config"
	"github.com/xpanvictor/parley/internal/repository/complaint"
	"github.com/xpanvictor/parley/internal/repository/knowledge"
	"github.com/xpanvictor/parley/pkg/Logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixedCount int

func (f fixedCount) Count() int { return int(f) }

type memComplaints struct {
	saved []complaint.Complaint
	err   error
}

func (m *memComplaints) Create(_ context.Context, c complaint.Complaint) (*complaint.Complaint, error) {
	if m.err != nil {
		return nil, m.err
	}
	c.ID = uuid.New()
	if c.TicketNumber == "" {
		c.TicketNumber = "PKG-12345678"
	}
	m.saved = append(m.saved, c)
	return &c, nil
}

func (m *memComplaints) FindByTicket(_ context.Context, ticket string) (*complaint.Complaint, error) {
	for i := range m.saved {
		if m.saved[i].TicketNumber == ticket {
			return &m.saved[i], nil
		}
	}
	return nil, complaint.ErrNotFound
}

type stubKnowledge struct {
	lastK int
	err   error
}

func (s *stubKnowledge) Ingest(_ context.Context, title, content string) (*knowledge.Document, error) {
	if content == "   " {
		return nil, knowledge.ErrEmptyDocument
	}
	if s.err != nil {
		return nil, s.err
	}
	return &knowledge.Document{ID: uuid.New(), Title: title, Chunks: 2}, nil
}

func (s *stubKnowledge) Search(_ context.Context, q string, k int) ([]knowledge.Snippet, error) {
	s.lastK = k
	if s.err != nil {
		return nil, s.err
	}
	return []knowledge.Snippet{{Title: "hours", Content: "open 9 to 5", Score: 0.9}}, nil
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestHealthEndpoints(t *testing.T) {
	store := config.NewStore(&config.Settings{
		Assistant: config.AssistantConfig{AssistantID: "asst_1", AssistantURL: "https://example.test"},
	})
	h := NewHealthHandler(fixedCount(3), nil, store, Logger.NewNop())
	h.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	r := gin.New()
	h.RegisterRoutes(r)

	w := do(t, r, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	basic := decode[HealthResponse](t, w)
	assert.Equal(t, "OK", basic.Status)
	assert.Equal(t, "Voice session server is running", basic.Message)
	assert.Equal(t, "2024-06-01T12:00:00Z", basic.Timestamp)

	w = do(t, r, http.MethodGet, "/health", nil)
	full := decode[ServiceHealthResponse](t, w)
	assert.Equal(t, 3, full.ActiveSessions)
	assert.Equal(t, "disabled", full.Redis)

	h.ping = func() error { return errors.New("dial tcp: refused") }
	w = do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "unreachable", decode[ServiceHealthResponse](t, w).Redis)

	w = do(t, r, http.MethodGet, "/api/config", nil)
	cfg := decode[ConfigResponse](t, w)
	assert.Equal(t, ConfigResponse{AssistantID: "asst_1", AssistantURL: "https://example.test", APIKey: "Not configured"}, cfg)

	store = config.NewStore(&config.Settings{Assistant: config.AssistantConfig{AssistantID: "abc", APIKey: "secret"}})
	h.store = store
	w = do(t, r, http.MethodGet, "/api/config", nil)
	cfg = decode[ConfigResponse](t, w)
	assert.Equal(t, "Configured", cfg.APIKey)
	assert.Equal(t, "https://platform.upliftai.org/assistant/abc", cfg.AssistantURL)
	assert.NotContains(t, w.Body.String(), "secret")
}

func TestCreateComplaint(t *testing.T) {
	repo := &memComplaints{}
	r := gin.New()
	NewComplaintHandler(repo, Logger.NewNop()).RegisterRoutes(r)

	w := do(t, r, http.MethodPost, "/api/complaints", CreateComplaintRequest{
		Name: "Sara", Location: "Block 4", Department: "Water", Complaint: "No supply since Monday",
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[CreateComplaintResponse](t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "Complaint registered successfully", resp.Message)
	assert.Equal(t, "PKG-12345678", resp.TicketNumber)
	require.Len(t, repo.saved, 1)
	assert.Equal(t, "Water", repo.saved[0].Department)

	// partial bodies are accepted and a client ticket is echoed back
	w = do(t, r, http.MethodPost, "/api/complaints", map[string]string{"complaint": "water", "ticketNumber": "PKG-00000001"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PKG-00000001", decode[CreateComplaintResponse](t, w).TicketNumber)
	assert.Len(t, repo.saved, 2)

	req := httptest.NewRequest(http.MethodPost, "/api/complaints", http.NoBody)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, repo.saved, 3)

	req = httptest.NewRequest(http.MethodPost, "/api/complaints", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/api/complaints/PKG-00000001", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "water", decode[ComplaintResponse](t, w).Complaint.Complaint)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/complaints/PKG-404", nil).Code)

	repo.err = errors.New("db down")
	w = do(t, r, http.MethodPost, "/api/complaints", CreateComplaintRequest{Name: "a"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestKnowledgeEndpoints(t *testing.T) {
	svc := &stubKnowledge{}
	r := gin.New()
	NewKnowledgeHandler(svc, 3, Logger.NewNop()).RegisterRoutes(r)

	w := do(t, r, http.MethodPost, "/api/knowledge", IngestKnowledgeRequest{Title: " Hours ", Content: "We open at nine."})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Hours", decode[IngestKnowledgeResponse](t, w).Document.Title)

	w = do(t, r, http.MethodPost, "/api/knowledge", IngestKnowledgeRequest{Title: "blank", Content: "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/knowledge", map[string]string{"title": "no content"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/api/knowledge/search?q=when+open", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[SearchKnowledgeResponse](t, w)
	assert.Equal(t, "when open", res.Query)
	assert.Len(t, res.Snippets, 1)
	assert.Equal(t, 3, svc.lastK)

	do(t, r, http.MethodGet, "/api/knowledge/search?q=x&k=100", nil)
	assert.Equal(t, 20, svc.lastK)
	do(t, r, http.MethodGet, "/api/knowledge/search?q=x&k=abc", nil)
	assert.Equal(t, 3, svc.lastK)

	w = do(t, r, http.MethodGet, "/api/knowledge/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.err = errors.New("embedder down")
	w = do(t, r, http.MethodGet, "/api/knowledge/search?q=x", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestKnowledgeDisabled(t *testing.T) {
	r := gin.New()
	NewKnowledgeHandler(nil, 0, Logger.NewNop()).RegisterRoutes(r)

	w := do(t, r, http.MethodGet, "/api/knowledge/search?q=x", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandlerMiddleware(Logger.NewNop()), CORSMiddleware())
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := do(t, r, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decode[ErrorResponse](t, w).Error)

	w = do(t, r, http.MethodGet, "/ok", nil)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(t, r, http.MethodOptions, "/ok", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

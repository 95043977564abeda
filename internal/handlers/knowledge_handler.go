package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xpanvictor/parley/internal/repository/knowledge"
	"github.com/xpanvictor/parley/pkg/Logger"
)

// KnowledgeService is the subset of *knowledge.Service the HTTP layer needs.
type KnowledgeService interface {
	Ingest(ctx context.Context, title, content string) (*knowledge.Document, error)
	Search(ctx context.Context, query string, k int) ([]knowledge.Snippet, error)
}

// KnowledgeHandler feeds and inspects the retrieval store.
// A nil service means retrieval is disabled and every call answers 503.
type KnowledgeHandler struct {
	svc    KnowledgeService
	topK   int
	logger *Logger.Logger
}

func NewKnowledgeHandler(svc KnowledgeService, topK int, logger *Logger.Logger) *KnowledgeHandler {
	if topK <= 0 {
		topK = 3
	}
	return &KnowledgeHandler{svc: svc, topK: topK, logger: logger}
}

func (h *KnowledgeHandler) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/api/knowledge")
	g.POST("", h.Ingest)
	g.GET("/search", h.Search)
}

func (h *KnowledgeHandler) available(c *gin.Context) bool {
	if h.svc == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Knowledge base not configured"})
		return false
	}
	return true
}

func (h *KnowledgeHandler) Ingest(c *gin.Context) {
	if !h.available(c) {
		return
	}
	var req IngestKnowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request data",
			Details: err.Error(),
		})
		return
	}

	doc, err := h.svc.Ingest(c.Request.Context(), strings.TrimSpace(req.Title), req.Content)
	if err != nil {
		switch {
		case errors.Is(err, knowledge.ErrEmptyDocument):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Document has no content"})
		default:
			h.logger.Errorf("ingest knowledge error: %v", err)
			c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Failed to ingest document"})
		}
		return
	}

	c.JSON(http.StatusCreated, IngestKnowledgeResponse{
		Message:  "Document ingested successfully",
		Document: *doc,
	})
}

func (h *KnowledgeHandler) Search(c *gin.Context) {
	if !h.available(c) {
		return
	}
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Query parameter q is required"})
		return
	}
	k := QueryInt(c, "k", h.topK, 20)

	snippets, err := h.svc.Search(c.Request.Context(), q, k)
	if err != nil {
		h.logger.Errorf("search knowledge error: %v", err)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Search failed"})
		return
	}
	if snippets == nil {
		snippets = []knowledge.Snippet{}
	}
	c.JSON(http.StatusOK, SearchKnowledgeResponse{Query: q, Snippets: snippets})
}

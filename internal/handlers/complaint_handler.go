package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xpanvictor/parley/internal/repository/complaint"
	"github.com/xpanvictor/parley/pkg/Logger"
)

// ComplaintHandler files complaint tickets
type ComplaintHandler struct {
	repo   complaint.Repository
	logger *Logger.Logger
}

func NewComplaintHandler(repo complaint.Repository, logger *Logger.Logger) *ComplaintHandler {
	return &ComplaintHandler{repo: repo, logger: logger}
}

func (h *ComplaintHandler) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/api/complaints")
	g.POST("", h.CreateComplaint)
	g.GET("/:ticket", h.GetComplaint)
}

// CreateComplaint records whatever fields the client sent and answers with a ticket.
// An empty body is accepted; only malformed JSON is rejected.
func (h *ComplaintHandler) CreateComplaint(c *gin.Context) {
	var req CreateComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request data",
			Details: err.Error(),
		})
		return
	}

	created, err := h.repo.Create(c.Request.Context(), complaint.Complaint{
		Name:         req.Name,
		Location:     req.Location,
		Department:   req.Department,
		Complaint:    req.Complaint,
		TicketNumber: req.TicketNumber,
	})
	if err != nil {
		h.logger.Errorf("create complaint error: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}

	h.logger.Infow("New complaint received",
		"ticketNumber", created.TicketNumber,
		"name", created.Name,
		"location", created.Location,
		"department", created.Department,
	)
	c.JSON(http.StatusOK, CreateComplaintResponse{
		Success:      true,
		Message:      "Complaint registered successfully",
		TicketNumber: created.TicketNumber,
	})
}

// GetComplaint looks a ticket up for status checks.
func (h *ComplaintHandler) GetComplaint(c *gin.Context) {
	found, err := h.repo.FindByTicket(c.Request.Context(), c.Param("ticket"))
	if err != nil {
		switch {
		case errors.Is(err, complaint.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Complaint not found"})
		default:
			h.logger.Errorf("get complaint error: %v", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		}
		return
	}
	c.JSON(http.StatusOK, ComplaintResponse{Complaint: *found})
}

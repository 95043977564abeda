package handlers

import (
	"github.com/xpanvictor/parley/internal/repository/complaint"
	"github.com/xpanvictor/parley/internal/repository/knowledge"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HealthResponse is returned by /api/health.
type HealthResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// ServiceHealthResponse is the richer /health report.
type ServiceHealthResponse struct {
	HealthResponse
	ActiveSessions int    `json:"activeSessions"`
	Redis          string `json:"redis"`
}

// ConfigResponse never echoes the key itself, only whether one is set.
type ConfigResponse struct {
	AssistantID  string `json:"assistantId"`
	AssistantURL string `json:"assistantUrl"`
	APIKey       string `json:"apiKey"`
}

type CreateComplaintRequest struct {
	Name         string `json:"name"`
	Location     string `json:"location"`
	Department   string `json:"department"`
	Complaint    string `json:"complaint"`
	TicketNumber string `json:"ticketNumber"`
}

type CreateComplaintResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	TicketNumber string `json:"ticketNumber"`
}

type ComplaintResponse struct {
	Complaint complaint.Complaint `json:"complaint"`
}

type IngestKnowledgeRequest struct {
	Title   string `json:"title"`
	Content string `json:"content" binding:"required"`
}

type IngestKnowledgeResponse struct {
	Message  string             `json:"message"`
	Document knowledge.Document `json:"document"`
}

type SearchKnowledgeResponse struct {
	Query    string              `json:"query"`
	Snippets []knowledge.Snippet `json:"snippets"`
}

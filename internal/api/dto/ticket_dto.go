package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Description string `json:"description"`
}

// ChangeStatusRequest payload.
type ChangeStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// RecordSolutionRequest payload.
type RecordSolutionRequest struct {
	Solution string `json:"solution"`
}

// TicketResponse provides full ticket info.
type TicketResponse struct {
	ID                string              `json:"id"`
	ReporterID        string              `json:"reporter_id"`
	AssignedAgentID   *string             `json:"assigned_agent_id"`
	Description       string              `json:"description"`
	AdvisorSuggestion string              `json:"advisor_suggestion,omitempty"`
	FinalSolution     string              `json:"final_solution,omitempty"`
	Status            domain.TicketStatus `json:"status"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// NewTicketResponse maps a domain ticket into its response shape.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:                t.ID,
		ReporterID:        t.ReporterID,
		AssignedAgentID:   t.AssignedAgentID,
		Description:       t.Description,
		AdvisorSuggestion: t.AdvisorSuggestion,
		FinalSolution:     t.FinalSolution,
		Status:            t.Status,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

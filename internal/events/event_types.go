package events

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated          EventType = "ticket_created"
	EventTicketAssigned         EventType = "ticket_assigned"
	EventTicketStatusChanged    EventType = "ticket_status_changed"
	EventTicketSolutionRecorded EventType = "ticket_solution_recorded"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type    domain.SubjectType `json:"type"`
	UserID  *string            `json:"user_id,omitempty"`
	AgentID *string            `json:"agent_id,omitempty"`
}

// Event represents a domain event emitted by the workflow service.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ReporterID      string              `json:"reporter_id"`
	Status          domain.TicketStatus `json:"status"`
	AdvisorResolved bool                `json:"advisor_resolved"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AgentID  string `json:"agent_id"`
	PoolSize int    `json:"pool_size"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketSolutionRecordedPayload payload.
type TicketSolutionRecordedPayload struct {
	AgentID *string `json:"agent_id,omitempty"`
}

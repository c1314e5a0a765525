package domain

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen              TicketStatus = "OPEN"
	TicketStatusResolvedByAdvisor TicketStatus = "RESOLVED_BY_ADVISOR"
	TicketStatusAssignedToAgent   TicketStatus = "ASSIGNED_TO_AGENT"
	TicketStatusClosed            TicketStatus = "CLOSED"
)

// ValidTicketStatus reports whether s is a member of the closed enumeration.
func ValidTicketStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusOpen, TicketStatusResolvedByAdvisor, TicketStatusAssignedToAgent, TicketStatusClosed:
		return true
	}
	return false
}

// Ticket is the aggregate for one customer-reported issue.
type Ticket struct {
	Base
	ReporterID        string
	AssignedAgentID   *string
	Description       string
	AdvisorSuggestion string
	FinalSolution     string
	Status            TicketStatus
}

var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:              {TicketStatusResolvedByAdvisor, TicketStatusAssignedToAgent},
	TicketStatusResolvedByAdvisor: {TicketStatusAssignedToAgent, TicketStatusClosed},
	TicketStatusAssignedToAgent:   {TicketStatusClosed},
	TicketStatusClosed:            {},
}

// CanTransition reports whether current→next appears in the fixed
// transition table. Closed is terminal.
func CanTransition(current, next TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

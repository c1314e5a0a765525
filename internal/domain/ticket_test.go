package domain

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    TicketStatus
		to      TicketStatus
		allowed bool
	}{
		{"open to advisor resolved", TicketStatusOpen, TicketStatusResolvedByAdvisor, true},
		{"open to assigned", TicketStatusOpen, TicketStatusAssignedToAgent, true},
		{"advisor resolved to assigned", TicketStatusResolvedByAdvisor, TicketStatusAssignedToAgent, true},
		{"advisor resolved to closed", TicketStatusResolvedByAdvisor, TicketStatusClosed, true},
		{"assigned to closed", TicketStatusAssignedToAgent, TicketStatusClosed, true},
		{"open to closed", TicketStatusOpen, TicketStatusClosed, false},
		{"open to open", TicketStatusOpen, TicketStatusOpen, false},
		{"assigned to open", TicketStatusAssignedToAgent, TicketStatusOpen, false},
		{"assigned to advisor resolved", TicketStatusAssignedToAgent, TicketStatusResolvedByAdvisor, false},
		{"closed is terminal (open)", TicketStatusClosed, TicketStatusOpen, false},
		{"closed is terminal (assigned)", TicketStatusClosed, TicketStatusAssignedToAgent, false},
		{"closed is terminal (closed)", TicketStatusClosed, TicketStatusClosed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.allowed {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestValidTicketStatus(t *testing.T) {
	for _, status := range []TicketStatus{
		TicketStatusOpen, TicketStatusResolvedByAdvisor, TicketStatusAssignedToAgent, TicketStatusClosed,
	} {
		if !ValidTicketStatus(status) {
			t.Errorf("ValidTicketStatus(%s) = false, want true", status)
		}
	}
	if ValidTicketStatus("PENDING") {
		t.Error("ValidTicketStatus(PENDING) = true, want false")
	}
}

func TestAgentHasCapability(t *testing.T) {
	agent := &Agent{Capabilities: []string{CapabilitySupport, "Billing"}}
	if !agent.HasCapability(CapabilitySupport) {
		t.Error("expected Support capability")
	}
	if agent.HasCapability("Sales") {
		t.Error("unexpected Sales capability")
	}
}

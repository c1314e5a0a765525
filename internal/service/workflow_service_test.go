package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/advisor"
	"github.com/spec-kit/support-desk/internal/directory"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

type fixture struct {
	store    *repository.MemoryStore
	scopes   repository.ScopeFactory
	reporter *domain.User
}

func newFixture(t *testing.T, agentIDs ...string) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	scopes := repository.NewMemoryScopeFactory(store)

	scope := scopes.NewScope()
	ctx := context.Background()

	reporter := &domain.User{Name: "Ann", Email: "ann@example.com", Status: domain.UserStatusActive}
	if err := scope.Users.Add(ctx, reporter); err != nil {
		t.Fatalf("add reporter: %v", err)
	}
	for _, id := range agentIDs {
		agent := &domain.Agent{
			Base:         domain.Base{ID: id},
			IdentityID:   id,
			Name:         id,
			Capabilities: []string{domain.CapabilitySupport},
		}
		if err := scope.Agents.Add(ctx, agent); err != nil {
			t.Fatalf("add agent: %v", err)
		}
	}
	if _, err := scope.UnitOfWork.SaveChanges(ctx); err != nil {
		t.Fatalf("seed SaveChanges: %v", err)
	}
	return &fixture{store: store, scopes: scopes, reporter: reporter}
}

func (f *fixture) service(adv advisor.Advisor, pick func(int) int) *TicketWorkflowService {
	return NewTicketWorkflowService(WorkflowDependencies{
		Scopes:     f.scopes,
		Advisor:    adv,
		Directory:  directory.NewRepositoryDirectory(f.scopes),
		Dispatcher: events.NewInMemoryDispatcher(),
		Logger:     zap.NewNop(),
		Pick:       pick,
	})
}

func (f *fixture) reload(t *testing.T, ticketID string) *domain.Ticket {
	t.Helper()
	ticket, err := f.scopes.NewScope().Tickets.GetByID(context.Background(), ticketID)
	if err != nil {
		t.Fatalf("reload ticket: %v", err)
	}
	return ticket
}

func TestCreateWithAdvisorSuggestion(t *testing.T) {
	f := newFixture(t)
	svc := f.service(&advisor.Scripted{
		Responses: []advisor.ScriptedResponse{{Suggestion: "restart the router"}},
	}, nil)

	ticket, err := svc.Create(context.Background(), f.reporter.ID, "no internet")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ticket.Status != domain.TicketStatusResolvedByAdvisor {
		t.Fatalf("status = %s, want RESOLVED_BY_ADVISOR", ticket.Status)
	}
	if ticket.AdvisorSuggestion != "restart the router" {
		t.Fatalf("suggestion = %q", ticket.AdvisorSuggestion)
	}

	persisted := f.reload(t, ticket.ID)
	if persisted.Status != domain.TicketStatusResolvedByAdvisor {
		t.Fatalf("persisted status = %s", persisted.Status)
	}
}

func TestCreateFallsBackToOpenOnAdvisorFailure(t *testing.T) {
	f := newFixture(t)
	svc := f.service(&advisor.Scripted{
		Responses: []advisor.ScriptedResponse{{Err: advisor.ErrUnavailable}},
	}, nil)

	ticket, err := svc.Create(context.Background(), f.reporter.ID, "no internet")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ticket.Status != domain.TicketStatusOpen {
		t.Fatalf("status = %s, want OPEN", ticket.Status)
	}
	if ticket.AdvisorSuggestion != "" {
		t.Fatalf("suggestion = %q, want empty", ticket.AdvisorSuggestion)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	svc := f.service(advisor.Disabled{}, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, f.reporter.ID, "   "); apperrors.CodeOf(err) != "VALIDATION" {
		t.Fatalf("empty description err = %v, want VALIDATION", err)
	}
	if _, err := svc.Create(ctx, "ghost-user", "help"); apperrors.CodeOf(err) != "VALIDATION" {
		t.Fatalf("unknown reporter err = %v, want VALIDATION", err)
	}
}

func TestAssignToRandomAgent(t *testing.T) {
	f := newFixture(t, "a1", "a2", "a3")
	svc := f.service(advisor.Disabled{}, func(n int) int { return 1 })

	ticket, err := svc.Create(context.Background(), f.reporter.ID, "help")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	assigned, err := svc.AssignToRandomAgent(context.Background(), ticket.ID, UserActor(f.reporter.ID))
	if err != nil {
		t.Fatalf("AssignToRandomAgent: %v", err)
	}
	if assigned.Status != domain.TicketStatusAssignedToAgent {
		t.Fatalf("status = %s", assigned.Status)
	}
	if assigned.AssignedAgentID == nil {
		t.Fatal("no agent recorded")
	}
}

func TestAssignSecondTimeReportsAlreadyAssigned(t *testing.T) {
	f := newFixture(t, "a1", "a2")
	svc := f.service(advisor.Disabled{}, func(n int) int { return 0 })
	ctx := context.Background()

	ticket, err := svc.Create(ctx, f.reporter.ID, "help")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	first, err := svc.AssignToRandomAgent(ctx, ticket.ID, UserActor(f.reporter.ID))
	if err != nil {
		t.Fatalf("first assignment: %v", err)
	}

	_, err = svc.AssignToRandomAgent(ctx, ticket.ID, UserActor(f.reporter.ID))
	if apperrors.CodeOf(err) != "ALREADY_ASSIGNED" {
		t.Fatalf("second assignment err = %v, want ALREADY_ASSIGNED", err)
	}

	persisted := f.reload(t, ticket.ID)
	if persisted.AssignedAgentID == nil || *persisted.AssignedAgentID != *first.AssignedAgentID {
		t.Fatal("original assignment was disturbed")
	}
}

func TestAssignEmptyPoolLeavesTicketUntouched(t *testing.T) {
	f := newFixture(t)
	svc := f.service(advisor.Disabled{}, nil)
	ctx := context.Background()

	ticket, err := svc.Create(ctx, f.reporter.ID, "help")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = svc.AssignToRandomAgent(ctx, ticket.ID, UserActor(f.reporter.ID))
	if apperrors.CodeOf(err) != "NO_ELIGIBLE_AGENTS" {
		t.Fatalf("err = %v, want NO_ELIGIBLE_AGENTS", err)
	}

	persisted := f.reload(t, ticket.ID)
	if persisted.Status != domain.TicketStatusOpen || persisted.AssignedAgentID != nil {
		t.Fatalf("ticket mutated: status=%s agent=%v", persisted.Status, persisted.AssignedAgentID)
	}
}

func TestAssignMissingTicket(t *testing.T) {
	f := newFixture(t, "a1")
	svc := f.service(advisor.Disabled{}, nil)

	_, err := svc.AssignToRandomAgent(context.Background(), "no-such-ticket", UserActor(f.reporter.ID))
	if apperrors.CodeOf(err) != "NOT_FOUND" {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}

func TestAssignmentApproximatelyUniform(t *testing.T) {
	agents := []string{"a1", "a2", "a3", "a4"}
	f := newFixture(t, agents...)
	svc := f.service(advisor.Disabled{}, nil)
	ctx := context.Background()

	const rounds = 400
	counts := make(map[string]int)
	for i := 0; i < rounds; i++ {
		ticket, err := svc.Create(ctx, f.reporter.ID, "help")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		assigned, err := svc.AssignToRandomAgent(ctx, ticket.ID, UserActor(f.reporter.ID))
		if err != nil {
			t.Fatalf("assign: %v", err)
		}
		counts[*assigned.AssignedAgentID]++
	}

	expected := rounds / len(agents)
	for _, id := range agents {
		got := counts[id]
		if got < expected/2 || got > expected*2 {
			t.Fatalf("agent %s drew %d of %d assignments, expected near %d", id, got, rounds, expected)
		}
	}
}

func TestConcurrentAssignmentSingleWinner(t *testing.T) {
	f := newFixture(t, "a1", "a2", "a3")
	svc := f.service(advisor.Disabled{}, nil)
	ctx := context.Background()

	ticket, err := svc.Create(ctx, f.reporter.ID, "help")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	const workers = 16
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.AssignToRandomAgent(ctx, ticket.ID, UserActor(f.reporter.ID))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case apperrors.CodeOf(err) == "ALREADY_ASSIGNED":
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("winners = %d, want exactly 1", winners)
	}

	persisted := f.reload(t, ticket.ID)
	if persisted.AssignedAgentID == nil || persisted.Status != domain.TicketStatusAssignedToAgent {
		t.Fatal("ticket not assigned after the race")
	}
}

func TestChangeStatusTransitions(t *testing.T) {
	f := newFixture(t)
	svc := f.service(&advisor.Scripted{
		Responses: []advisor.ScriptedResponse{{Suggestion: "try again"}},
	}, nil)
	ctx := context.Background()

	ticket, err := svc.Create(ctx, f.reporter.ID, "help")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	closed, err := svc.ChangeStatus(ctx, ticket.ID, domain.TicketStatusClosed, UserActor(f.reporter.ID))
	if err != nil {
		t.Fatalf("self-confirm close: %v", err)
	}
	if closed.Status != domain.TicketStatusClosed {
		t.Fatalf("status = %s", closed.Status)
	}
	if closed.FinalSolution != "" {
		t.Fatalf("self-confirm close recorded a final solution %q", closed.FinalSolution)
	}

	// Closed is terminal.
	_, err = svc.ChangeStatus(ctx, ticket.ID, domain.TicketStatusOpen, UserActor(f.reporter.ID))
	if apperrors.CodeOf(err) != "INVALID_TRANSITION" {
		t.Fatalf("reopen err = %v, want INVALID_TRANSITION", err)
	}
}

func TestChangeStatusRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	svc := f.service(advisor.Disabled{}, nil)
	ctx := context.Background()

	ticket, err := svc.Create(ctx, f.reporter.ID, "help")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.ChangeStatus(ctx, ticket.ID, "LIMBO", UserActor(f.reporter.ID)); apperrors.CodeOf(err) != "VALIDATION" {
		t.Fatalf("unknown status err = %v, want VALIDATION", err)
	}
	if _, err := svc.ChangeStatus(ctx, ticket.ID, domain.TicketStatusAssignedToAgent, UserActor(f.reporter.ID)); apperrors.CodeOf(err) != "VALIDATION" {
		t.Fatalf("direct assignment err = %v, want VALIDATION", err)
	}
	if _, err := svc.ChangeStatus(ctx, ticket.ID, domain.TicketStatusClosed, UserActor(f.reporter.ID)); apperrors.CodeOf(err) != "INVALID_TRANSITION" {
		t.Fatalf("open→closed err = %v, want INVALID_TRANSITION", err)
	}
	if _, err := svc.ChangeStatus(ctx, "missing", domain.TicketStatusClosed, UserActor(f.reporter.ID)); apperrors.CodeOf(err) != "NOT_FOUND" {
		t.Fatalf("missing ticket err = %v, want NOT_FOUND", err)
	}
}

func TestRecordFinalSolution(t *testing.T) {
	f := newFixture(t, "a1")
	svc := f.service(advisor.Disabled{}, func(n int) int { return 0 })
	ctx := context.Background()

	ticket, err := svc.Create(ctx, f.reporter.ID, "help")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Not assigned yet.
	_, err = svc.RecordFinalSolution(ctx, ticket.ID, "replace the cable", "a1")
	if apperrors.CodeOf(err) != "INVALID_TRANSITION" {
		t.Fatalf("unassigned err = %v, want INVALID_TRANSITION", err)
	}

	if _, err := svc.AssignToRandomAgent(ctx, ticket.ID, UserActor(f.reporter.ID)); err != nil {
		t.Fatalf("assign: %v", err)
	}

	if _, err := svc.RecordFinalSolution(ctx, ticket.ID, "   ", "a1"); apperrors.CodeOf(err) != "VALIDATION" {
		t.Fatalf("empty solution err = %v, want VALIDATION", err)
	}
	if _, err := svc.RecordFinalSolution(ctx, ticket.ID, "fix", "a2"); apperrors.CodeOf(err) != "FORBIDDEN" {
		t.Fatalf("wrong agent err = %v, want FORBIDDEN", err)
	}

	closed, err := svc.RecordFinalSolution(ctx, ticket.ID, "replace the cable", "a1")
	if err != nil {
		t.Fatalf("RecordFinalSolution: %v", err)
	}
	if closed.Status != domain.TicketStatusClosed || closed.FinalSolution != "replace the cable" {
		t.Fatalf("closed=%s solution=%q", closed.Status, closed.FinalSolution)
	}

	// Closed is terminal; a second solution is rejected.
	_, err = svc.RecordFinalSolution(ctx, ticket.ID, "again", "a1")
	if apperrors.CodeOf(err) != "INVALID_TRANSITION" {
		t.Fatalf("second solution err = %v, want INVALID_TRANSITION", err)
	}
}

func TestRemoveTicketForReporter(t *testing.T) {
	f := newFixture(t)
	svc := f.service(advisor.Disabled{}, nil)
	ctx := context.Background()

	ticket, err := svc.Create(ctx, f.reporter.ID, "help")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.RemoveTicketForReporter(ctx, "someone-else", ticket.ID); apperrors.CodeOf(err) != "FORBIDDEN" {
		t.Fatalf("foreign delete err = %v, want FORBIDDEN", err)
	}
	if err := svc.RemoveTicketForReporter(ctx, f.reporter.ID, ticket.ID); err != nil {
		t.Fatalf("RemoveTicketForReporter: %v", err)
	}

	_, err = svc.GetTicketForReporter(ctx, f.reporter.ID, ticket.ID)
	if apperrors.CodeOf(err) != "NOT_FOUND" {
		t.Fatalf("tombstoned read err = %v, want NOT_FOUND", err)
	}
}

func TestDirectoryUnavailabilityPropagates(t *testing.T) {
	f := newFixture(t, "a1")
	svc := NewTicketWorkflowService(WorkflowDependencies{
		Scopes:     f.scopes,
		Advisor:    advisor.Disabled{},
		Directory:  failingDirectory{},
		Dispatcher: events.NewInMemoryDispatcher(),
		Logger:     zap.NewNop(),
	})
	ctx := context.Background()

	ticket, err := svc.Create(ctx, f.reporter.ID, "help")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err = svc.AssignToRandomAgent(ctx, ticket.ID, UserActor(f.reporter.ID))
	if apperrors.CodeOf(err) != "UNAVAILABLE" {
		t.Fatalf("err = %v, want UNAVAILABLE", err)
	}
}

type failingDirectory struct{}

func (failingDirectory) ListByCapability(ctx context.Context, capability string) ([]string, error) {
	return nil, apperrors.NewUnavailable("staff directory", errors.New("boom"))
}

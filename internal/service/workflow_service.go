package service

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/advisor"
	"github.com/spec-kit/support-desk/internal/directory"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// TicketWorkflowService coordinates the ticket lifecycle: creation with an
// advisor consultation, escalation to a randomly chosen agent, status moves
// along the fixed transition table, and closure with a final solution. Each
// operation runs in its own repository scope and commits through a single
// SaveChanges.
type TicketWorkflowService struct {
	scopes     repository.ScopeFactory
	advisor    advisor.Advisor
	directory  directory.StaffDirectory
	dispatcher events.Dispatcher
	logger     *zap.Logger
	pick       func(n int) int
}

// WorkflowDependencies bundles collaborators for the workflow service.
type WorkflowDependencies struct {
	Scopes     repository.ScopeFactory
	Advisor    advisor.Advisor
	Directory  directory.StaffDirectory
	Dispatcher events.Dispatcher
	Logger     *zap.Logger

	// Pick selects an index in [0,n). Defaults to a uniform random pick;
	// tests inject a deterministic one.
	Pick func(n int) int
}

// NewTicketWorkflowService constructs the service.
func NewTicketWorkflowService(deps WorkflowDependencies) *TicketWorkflowService {
	pick := deps.Pick
	if pick == nil {
		pick = rand.Intn
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	adv := deps.Advisor
	if adv == nil {
		adv = advisor.Disabled{}
	}
	return &TicketWorkflowService{
		scopes:     deps.Scopes,
		advisor:    adv,
		directory:  deps.Directory,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		pick:       pick,
	}
}

// Create files a ticket for the reporter. The advisor is consulted before
// anything is staged; a usable suggestion closes the first pass as
// ResolvedByAdvisor, any advisor failure falls back to Open. Advisor trouble
// never fails creation.
func (s *TicketWorkflowService) Create(ctx context.Context, reporterID, description string) (*domain.Ticket, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperrors.NewValidationError("description must not be empty", nil)
	}
	if reporterID == "" {
		return nil, apperrors.NewValidationError("reporter id required", nil)
	}

	scope := s.scopes.NewScope()
	if _, err := scope.Users.GetByID(ctx, reporterID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("reporter is not a live user",
				map[string]any{"reporter_id": reporterID})
		}
		return nil, apperrors.MapError(err)
	}

	ticket := &domain.Ticket{
		ReporterID:  reporterID,
		Description: description,
		Status:      domain.TicketStatusOpen,
	}

	suggestion, err := s.advisor.GetSuggestion(ctx, description)
	switch {
	case err != nil:
		s.logger.Warn("advisor unavailable, creating ticket open",
			zap.String("reporter_id", reporterID), zap.Error(err))
	case strings.TrimSpace(suggestion) == "":
		s.logger.Warn("advisor returned empty suggestion, creating ticket open",
			zap.String("reporter_id", reporterID))
	default:
		ticket.AdvisorSuggestion = suggestion
		ticket.Status = domain.TicketStatusResolvedByAdvisor
	}

	if err := scope.Tickets.Add(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if _, err := scope.UnitOfWork.SaveChanges(ctx); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    userActor(reporterID),
		Payload: events.TicketCreatedPayload{
			ReporterID:      reporterID,
			Status:          ticket.Status,
			AdvisorResolved: ticket.Status == domain.TicketStatusResolvedByAdvisor,
		},
	})
	return ticket, nil
}

// AssignToRandomAgent escalates the ticket to a uniformly chosen holder of
// the Support capability. The directory is queried outside the store write;
// the claim itself is a conditional update, so a ticket that gained an agent
// between the read and the commit surfaces ALREADY_ASSIGNED instead of being
// overwritten.
func (s *TicketWorkflowService) AssignToRandomAgent(ctx context.Context, ticketID string, actor events.Actor) (*domain.Ticket, error) {
	scope := s.scopes.NewScope()
	ticket, err := scope.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	if ticket.AssignedAgentID != nil {
		return nil, apperrors.NewAlreadyAssigned(ticket.ID)
	}
	if !domain.CanTransition(ticket.Status, domain.TicketStatusAssignedToAgent) {
		return nil, apperrors.NewInvalidTransition("ticket cannot be escalated in its current status",
			map[string]any{"status": ticket.Status})
	}

	pool, err := s.directory.ListByCapability(ctx, domain.CapabilitySupport)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(pool) == 0 {
		return nil, apperrors.NewNoEligibleAgents(domain.CapabilitySupport)
	}

	agentID := pool[s.pick(len(pool))]
	if err := scope.Tickets.ClaimForAgent(ctx, ticket, agentID); err != nil {
		return nil, apperrors.MapError(err)
	}
	if _, err := scope.UnitOfWork.SaveChanges(ctx); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketAssignedPayload{
			AgentID:  agentID,
			PoolSize: len(pool),
		},
	})
	return ticket, nil
}

// ChangeStatus moves the ticket along the fixed transition table. Escalation
// carries an agent choice, so ASSIGNED_TO_AGENT is reachable only through
// AssignToRandomAgent.
func (s *TicketWorkflowService) ChangeStatus(ctx context.Context, ticketID string, next domain.TicketStatus, actor events.Actor) (*domain.Ticket, error) {
	if !domain.ValidTicketStatus(next) {
		return nil, apperrors.NewValidationError("unknown ticket status",
			map[string]any{"status": next})
	}
	if next == domain.TicketStatusAssignedToAgent {
		return nil, apperrors.NewValidationError("agent assignment requires escalation", nil)
	}

	scope := s.scopes.NewScope()
	ticket, err := scope.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	if !domain.CanTransition(ticket.Status, next) {
		return nil, apperrors.NewInvalidTransition("status transition not allowed",
			map[string]any{"from": ticket.Status, "to": next})
	}

	oldStatus := ticket.Status
	ticket.Status = next
	if err := scope.Tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if _, err := scope.UnitOfWork.SaveChanges(ctx); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: next,
		},
	})
	return ticket, nil
}

// RecordFinalSolution writes the agent's resolution and closes the ticket in
// one commit. Only a ticket sitting with an agent is ready for a final
// solution.
func (s *TicketWorkflowService) RecordFinalSolution(ctx context.Context, ticketID, solution, agentID string) (*domain.Ticket, error) {
	solution = strings.TrimSpace(solution)
	if solution == "" {
		return nil, apperrors.NewValidationError("final solution must not be empty", nil)
	}

	scope := s.scopes.NewScope()
	ticket, err := scope.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	if ticket.Status != domain.TicketStatusAssignedToAgent {
		return nil, apperrors.NewInvalidTransition("ticket not ready for final solution",
			map[string]any{"status": ticket.Status})
	}
	if agentID != "" && (ticket.AssignedAgentID == nil || *ticket.AssignedAgentID != agentID) {
		return nil, apperrors.NewForbidden("ticket assigned to another agent")
	}

	ticket.FinalSolution = solution
	ticket.Status = domain.TicketStatusClosed
	if err := scope.Tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if _, err := scope.UnitOfWork.SaveChanges(ctx); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketSolutionRecorded,
		TicketID: ticket.ID,
		Actor:    agentActor(agentID),
		Payload: events.TicketSolutionRecordedPayload{
			AgentID: ticket.AssignedAgentID,
		},
	})
	return ticket, nil
}

// GetTicketForReporter fetches a ticket ensuring ownership.
func (s *TicketWorkflowService) GetTicketForReporter(ctx context.Context, reporterID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.ReporterID != reporterID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

// GetTicketForAgent fetches any live ticket for an authenticated agent.
func (s *TicketWorkflowService) GetTicketForAgent(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	return s.getTicket(ctx, ticketID)
}

// ListReporterTickets returns the reporter's live tickets.
func (s *TicketWorkflowService) ListReporterTickets(ctx context.Context, reporterID string) ([]*domain.Ticket, error) {
	scope := s.scopes.NewScope()
	tickets, err := scope.Tickets.ListByReporter(ctx, reporterID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// RemoveTicketForReporter tombstones the reporter's own ticket. The row stays
// in the store; it just stops appearing in reads.
func (s *TicketWorkflowService) RemoveTicketForReporter(ctx context.Context, reporterID, ticketID string) error {
	scope := s.scopes.NewScope()
	ticket, err := scope.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return apperrors.MapError(err)
	}
	if ticket.ReporterID != reporterID {
		return apperrors.NewForbidden("access denied")
	}
	if err := scope.Tickets.Remove(ctx, ticket); err != nil {
		return apperrors.MapError(err)
	}
	if _, err := scope.UnitOfWork.SaveChanges(ctx); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *TicketWorkflowService) getTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	scope := s.scopes.NewScope()
	ticket, err := scope.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketWorkflowService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func userActor(userID string) events.Actor {
	return events.Actor{Type: domain.SubjectTypeUser, UserID: &userID}
}

func agentActor(agentID string) events.Actor {
	if agentID == "" {
		return events.Actor{Type: domain.SubjectTypeAgent}
	}
	return events.Actor{Type: domain.SubjectTypeAgent, AgentID: &agentID}
}

// UserActor builds an end-user actor for event publication.
func UserActor(userID string) events.Actor { return userActor(userID) }

// AgentActor builds an agent actor for event publication.
func AgentActor(agentID string) events.Actor { return agentActor(agentID) }

package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/uow"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// TicketRepository extends the generic contract with ticket-specific queries
// and the conditional claim write used by assignment.
type TicketRepository interface {
	Repository[*domain.Ticket]

	// ListByReporter returns the reporter's live tickets.
	ListByReporter(ctx context.Context, reporterID string) ([]*domain.Ticket, error)

	// ClaimForAgent stages a conditional write that assigns the agent only
	// if the row still has no agent and the status is unchanged from the
	// value read into ticket. A losing racer surfaces ALREADY_ASSIGNED from
	// SaveChanges instead of overwriting.
	ClaimForAgent(ctx context.Context, ticket *domain.Ticket, agentID string) error
}

// ByReporter matches tickets filed by one reporter.
type ByReporter struct {
	ReporterID string
}

func (s ByReporter) IsSatisfiedBy(t *domain.Ticket) bool {
	return t.ReporterID == s.ReporterID
}

func (s ByReporter) Clause() (string, []any) {
	return "reporter_user_id = ?", []any{s.ReporterID}
}

// ByStatus matches tickets in one lifecycle state.
type ByStatus struct {
	Status domain.TicketStatus
}

func (s ByStatus) IsSatisfiedBy(t *domain.Ticket) bool {
	return t.Status == s.Status
}

func (s ByStatus) Clause() (string, []any) {
	return "status = ?", []any{s.Status}
}

type ticketRepository struct {
	*pgxRepository[*domain.Ticket]
	unit *uow.PgxUnitOfWork
}

// NewTicketRepository returns a Postgres-backed ticket repository bound to
// the scope's unit of work.
func NewTicketRepository(pool *pgxpool.Pool, unit *uow.PgxUnitOfWork) TicketRepository {
	return &ticketRepository{
		pgxRepository: newPgxRepository(pool, unit, ticketMapper()),
		unit:          unit,
	}
}

func ticketMapper() Mapper[*domain.Ticket] {
	return Mapper[*domain.Ticket]{
		Table: "tickets",
		Fields: []string{
			"reporter_user_id", "assigned_agent_id", "description",
			"advisor_suggestion", "final_solution", "status",
		},
		Values: func(t *domain.Ticket) []any {
			return []any{
				t.ReporterID,
				t.AssignedAgentID,
				t.Description,
				t.AdvisorSuggestion,
				t.FinalSolution,
				t.Status,
			}
		},
		Scan: func(row pgx.Row) (*domain.Ticket, error) {
			var t domain.Ticket
			if err := row.Scan(
				&t.ID,
				&t.ReporterID,
				&t.AssignedAgentID,
				&t.Description,
				&t.AdvisorSuggestion,
				&t.FinalSolution,
				&t.Status,
				&t.CreatedAt,
				&t.UpdatedAt,
				&t.DeletedAt,
			); err != nil {
				return nil, err
			}
			return &t, nil
		},
	}
}

func (r *ticketRepository) ListByReporter(ctx context.Context, reporterID string) ([]*domain.Ticket, error) {
	return r.Find(ctx, ByReporter{ReporterID: reporterID})
}

func (r *ticketRepository) ClaimForAgent(ctx context.Context, ticket *domain.Ticket, agentID string) error {
	const query = `
        UPDATE tickets SET assigned_agent_id=$1, status=$2, updated_at=$3
        WHERE id=$4 AND assigned_agent_id IS NULL AND status=$5 AND deleted_at IS NULL`

	observedStatus := ticket.Status
	now := time.Now().UTC()

	r.unit.Stage(func(ctx context.Context, tx pgx.Tx) (int64, error) {
		cmd, err := tx.Exec(ctx, query,
			agentID, domain.TicketStatusAssignedToAgent, now, ticket.ID, observedStatus)
		if err != nil {
			return 0, err
		}
		if cmd.RowsAffected() == 0 {
			return 0, apperrors.NewAlreadyAssigned(ticket.ID)
		}
		ticket.AssignedAgentID = &agentID
		ticket.Status = domain.TicketStatusAssignedToAgent
		ticket.UpdatedAt = now
		return cmd.RowsAffected(), nil
	})
	return nil
}

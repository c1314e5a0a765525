package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/uow"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// MemoryStore is the in-memory backend used by tests and local development.
// One mutex serializes all staged flushes, standing in for the database's
// row-level concurrency control.
type MemoryStore struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
	agents  map[string]*domain.Agent
	users   map[string]*domain.User
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tickets: make(map[string]*domain.Ticket),
		agents:  make(map[string]*domain.Agent),
		users:   make(map[string]*domain.User),
	}
}

type memoryScopeFactory struct {
	store *MemoryStore
}

// NewMemoryScopeFactory builds scopes backed by the shared in-memory store.
func NewMemoryScopeFactory(store *MemoryStore) ScopeFactory {
	return &memoryScopeFactory{store: store}
}

func (f *memoryScopeFactory) NewScope() *Scope {
	unit := uow.NewMemoryUnitOfWork(&f.store.mu)
	return &Scope{
		Tickets:    newMemoryTicketRepository(f.store, unit),
		Agents:     newMemoryAgentRepository(f.store, unit),
		Users:      newMemoryUserRepository(f.store, unit),
		UnitOfWork: unit,
	}
}

// memoryRepository implements the generic contract over one entity map.
// The get/put accessors assume the store lock is held; GetByID and Find take
// it themselves, staged mutations run under it during the flush.
type memoryRepository[T domain.Entity] struct {
	store *MemoryStore
	unit  *uow.MemoryUnitOfWork
	get   func(id string) (T, bool)
	put   func(entity T)
	all   func() []T
	clone func(entity T) T
}

func (r *memoryRepository[T]) GetByID(ctx context.Context, id string) (T, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var zero T
	entity, ok := r.get(id)
	if !ok || entity.Meta().Deleted() {
		return zero, ErrNotFound
	}
	return r.clone(entity), nil
}

func (r *memoryRepository[T]) Find(ctx context.Context, spec Specification[T]) ([]T, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var result []T
	for _, entity := range r.all() {
		if entity.Meta().Deleted() {
			continue
		}
		if spec.IsSatisfiedBy(entity) {
			result = append(result, r.clone(entity))
		}
	}
	return result, nil
}

func (r *memoryRepository[T]) Add(ctx context.Context, entity T) error {
	meta := entity.Meta()
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	meta.CreatedAt = now
	meta.UpdatedAt = now

	staged := r.clone(entity)
	r.unit.Stage(func(ctx context.Context) (int64, error) {
		r.put(staged)
		return 1, nil
	})
	return nil
}

func (r *memoryRepository[T]) Update(ctx context.Context, entity T) error {
	entity.Meta().UpdatedAt = time.Now().UTC()

	staged := r.clone(entity)
	r.unit.Stage(func(ctx context.Context) (int64, error) {
		existing, ok := r.get(staged.Meta().ID)
		if !ok || existing.Meta().Deleted() {
			return 0, ErrNotFound
		}
		r.put(staged)
		return 1, nil
	})
	return nil
}

func (r *memoryRepository[T]) Remove(ctx context.Context, entity T) error {
	meta := entity.Meta()
	now := time.Now().UTC()
	meta.DeletedAt = &now
	meta.UpdatedAt = now

	staged := r.clone(entity)
	r.unit.Stage(func(ctx context.Context) (int64, error) {
		existing, ok := r.get(staged.Meta().ID)
		if !ok || existing.Meta().Deleted() {
			return 0, ErrNotFound
		}
		r.put(staged)
		return 1, nil
	})
	return nil
}

type memoryTicketRepository struct {
	*memoryRepository[*domain.Ticket]
	store *MemoryStore
	unit  *uow.MemoryUnitOfWork
}

func newMemoryTicketRepository(store *MemoryStore, unit *uow.MemoryUnitOfWork) TicketRepository {
	return &memoryTicketRepository{
		memoryRepository: &memoryRepository[*domain.Ticket]{
			store: store,
			unit:  unit,
			get: func(id string) (*domain.Ticket, bool) {
				t, ok := store.tickets[id]
				return t, ok
			},
			put: func(t *domain.Ticket) { store.tickets[t.ID] = t },
			all: func() []*domain.Ticket {
				result := make([]*domain.Ticket, 0, len(store.tickets))
				for _, t := range store.tickets {
					result = append(result, t)
				}
				return result
			},
			clone: cloneTicket,
		},
		store: store,
		unit:  unit,
	}
}

func (r *memoryTicketRepository) ListByReporter(ctx context.Context, reporterID string) ([]*domain.Ticket, error) {
	return r.Find(ctx, ByReporter{ReporterID: reporterID})
}

func (r *memoryTicketRepository) ClaimForAgent(ctx context.Context, ticket *domain.Ticket, agentID string) error {
	observedStatus := ticket.Status
	now := time.Now().UTC()

	r.unit.Stage(func(ctx context.Context) (int64, error) {
		existing, ok := r.store.tickets[ticket.ID]
		if !ok || existing.Deleted() {
			return 0, ErrNotFound
		}
		if existing.AssignedAgentID != nil || existing.Status != observedStatus {
			return 0, apperrors.NewAlreadyAssigned(ticket.ID)
		}
		claimed := cloneTicket(existing)
		claimed.AssignedAgentID = &agentID
		claimed.Status = domain.TicketStatusAssignedToAgent
		claimed.UpdatedAt = now
		r.store.tickets[claimed.ID] = claimed

		ticket.AssignedAgentID = &agentID
		ticket.Status = domain.TicketStatusAssignedToAgent
		ticket.UpdatedAt = now
		return 1, nil
	})
	return nil
}

type memoryAgentRepository struct {
	*memoryRepository[*domain.Agent]
}

func newMemoryAgentRepository(store *MemoryStore, unit *uow.MemoryUnitOfWork) AgentRepository {
	return &memoryAgentRepository{
		memoryRepository: &memoryRepository[*domain.Agent]{
			store: store,
			unit:  unit,
			get: func(id string) (*domain.Agent, bool) {
				a, ok := store.agents[id]
				return a, ok
			},
			put: func(a *domain.Agent) { store.agents[a.ID] = a },
			all: func() []*domain.Agent {
				result := make([]*domain.Agent, 0, len(store.agents))
				for _, a := range store.agents {
					result = append(result, a)
				}
				return result
			},
			clone: cloneAgent,
		},
	}
}

func (r *memoryAgentRepository) ListByCapability(ctx context.Context, capability string) ([]*domain.Agent, error) {
	return r.Find(ctx, WithCapability{Name: capability})
}

type memoryUserRepository struct {
	*memoryRepository[*domain.User]
	store *MemoryStore
}

func newMemoryUserRepository(store *MemoryStore, unit *uow.MemoryUnitOfWork) UserRepository {
	return &memoryUserRepository{
		memoryRepository: &memoryRepository[*domain.User]{
			store: store,
			unit:  unit,
			get: func(id string) (*domain.User, bool) {
				u, ok := store.users[id]
				return u, ok
			},
			put: func(u *domain.User) { store.users[u.ID] = u },
			all: func() []*domain.User {
				result := make([]*domain.User, 0, len(store.users))
				for _, u := range store.users {
					result = append(result, u)
				}
				return result
			},
			clone: cloneUser,
		},
		store: store,
	}
}

func (r *memoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if u.Email == email && !u.Deleted() {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func cloneTicket(t *domain.Ticket) *domain.Ticket {
	c := *t
	if t.AssignedAgentID != nil {
		id := *t.AssignedAgentID
		c.AssignedAgentID = &id
	}
	if t.DeletedAt != nil {
		ts := *t.DeletedAt
		c.DeletedAt = &ts
	}
	return &c
}

func cloneAgent(a *domain.Agent) *domain.Agent {
	c := *a
	c.Capabilities = append([]string(nil), a.Capabilities...)
	if a.DeletedAt != nil {
		ts := *a.DeletedAt
		c.DeletedAt = &ts
	}
	return &c
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	if u.DeletedAt != nil {
		ts := *u.DeletedAt
		c.DeletedAt = &ts
	}
	return &c
}

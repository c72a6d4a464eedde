package leads

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/get-synced/Magnet/internal/discoveryctx"
)

// ListFilter narrows List results.
type ListFilter struct {
	Status string
	Limit  int
	Offset int
}

// Repository defines the interface for lead storage.
type Repository interface {
	Create(ctx context.Context, req *RegisterRequest) (*Lead, error)
	GetByID(ctx context.Context, id string) (*Lead, error)
	AttachDiscovery(ctx context.Context, id string, dctx discoveryctx.Context) (*Lead, error)
	UpdateStatus(ctx context.Context, id, status string) (*Lead, error)
	List(ctx context.Context, filter ListFilter) ([]*Lead, error)
}

// InMemoryRepository keeps leads in process memory. It is the default when
// no database is configured; durable storage is the Postgres repository.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]*Lead
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads: make(map[string]*Lead),
	}
}

// Create creates a new lead in memory
func (r *InMemoryRepository) Create(ctx context.Context, req *RegisterRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	lead := &Lead{
		ID:                  uuid.New().String(),
		Email:               strings.TrimSpace(req.Email),
		SubscribeNewsletter: req.SubscribeNewsletter,
		Status:              StatusNew,
		CreatedAt:           time.Now().UTC(),
	}

	r.mu.Lock()
	r.leads[lead.ID] = lead
	r.mu.Unlock()

	return cloneLead(lead), nil
}

// GetByID retrieves a lead by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	return cloneLead(lead), nil
}

// AttachDiscovery stores the questionnaire snapshot on the lead.
func (r *InMemoryRepository) AttachDiscovery(ctx context.Context, id string, dctx discoveryctx.Context) (*Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	now := time.Now().UTC()
	lead.Discovery = &dctx
	lead.DiscoveryAt = &now
	return cloneLead(lead), nil
}

// UpdateStatus moves the lead through the funnel.
func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id, status string) (*Lead, error) {
	if !ValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	lead.Status = status
	return cloneLead(lead), nil
}

// List returns leads sorted by creation time, newest first.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	r.mu.RLock()
	all := make([]*Lead, 0, len(r.leads))
	for _, lead := range r.leads {
		if filter.Status != "" && lead.Status != filter.Status {
			continue
		}
		all = append(all, cloneLead(lead))
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(all) {
			return []*Lead{}, nil
		}
		all = all[filter.Offset:]
	}
	if filter.Limit > 0 && len(all) > filter.Limit {
		all = all[:filter.Limit]
	}
	return all, nil
}

func cloneLead(l *Lead) *Lead {
	out := *l
	if l.Discovery != nil {
		d := *l.Discovery
		d.Challenges = append([]string(nil), l.Discovery.Challenges...)
		d.Tools = append([]string(nil), l.Discovery.Tools...)
		out.Discovery = &d
	}
	if l.DiscoveryAt != nil {
		ts := *l.DiscoveryAt
		out.DiscoveryAt = &ts
	}
	return &out
}

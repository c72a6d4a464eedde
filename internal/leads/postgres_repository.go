package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/get-synced/Magnet/internal/discoveryctx"
)

// PgxPool is the subset of pgxpool.Pool the repository needs. pgxmock
// satisfies it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	pool PgxPool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, req *RegisterRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO leads (id, email, subscribe_newsletter, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		id,
		req.Email,
		req.SubscribeNewsletter,
		StatusNew,
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}

	return &Lead{
		ID:                  id.String(),
		Email:               req.Email,
		SubscribeNewsletter: req.SubscribeNewsletter,
		Status:              StatusNew,
		CreatedAt:           createdAt,
	}, nil
}

// GetByID fetches a lead.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	query := `
		SELECT id, email, subscribe_newsletter, status, notes, discovery, discovery_at, created_at
		FROM leads
		WHERE id = $1
	`
	return scanLead(r.pool.QueryRow(ctx, query, id))
}

// AttachDiscovery stores the questionnaire snapshot as jsonb.
func (r *PostgresRepository) AttachDiscovery(ctx context.Context, id string, dctx discoveryctx.Context) (*Lead, error) {
	payload, err := json.Marshal(dctx)
	if err != nil {
		return nil, fmt.Errorf("leads: encode discovery: %w", err)
	}

	query := `
		UPDATE leads
		SET discovery = $2, discovery_at = now()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, payload)
	if err != nil {
		return nil, fmt.Errorf("leads: attach discovery failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrLeadNotFound
	}
	return r.GetByID(ctx, id)
}

// UpdateStatus moves the lead through the funnel.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id, status string) (*Lead, error) {
	if !ValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	tag, err := r.pool.Exec(ctx, `UPDATE leads SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return nil, fmt.Errorf("leads: update status failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrLeadNotFound
	}
	return r.GetByID(ctx, id)
}

// List returns leads, newest first.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, email, subscribe_newsletter, status, notes, discovery, discovery_at, created_at
		FROM leads
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, filter.Status, limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	out := make([]*Lead, 0, limit)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: list rows: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*Lead, error) {
	var (
		lead         Lead
		notes        *string
		discoveryRaw []byte
		discoveryAt  *time.Time
	)
	if err := row.Scan(
		&lead.ID,
		&lead.Email,
		&lead.SubscribeNewsletter,
		&lead.Status,
		&notes,
		&discoveryRaw,
		&discoveryAt,
		&lead.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: scan failed: %w", err)
	}
	if notes != nil {
		lead.Notes = *notes
	}
	if len(discoveryRaw) > 0 {
		var dctx discoveryctx.Context
		if err := json.Unmarshal(discoveryRaw, &dctx); err != nil {
			return nil, fmt.Errorf("leads: decode discovery: %w", err)
		}
		lead.Discovery = &dctx
	}
	lead.DiscoveryAt = discoveryAt
	return &lead, nil
}

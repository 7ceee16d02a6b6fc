package documents

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/enrollment/internal/platform/db"
)

type consentRepoPG struct {
	pool *pgxpool.Pool
}

func NewConsentRepo(pool *pgxpool.Pool) ConsentRepository {
	return &consentRepoPG{pool: pool}
}

func (r *consentRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const consentCols = `id, lead_id, category, status, created_at`

func (r *consentRepoPG) Create(ctx context.Context, c *Consent) error {
	c.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO consent (id, lead_id, category, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		c.ID, c.LeadID, c.Category, c.Status,
	).Scan(&c.CreatedAt)
	if err != nil {
		return fmt.Errorf("consent create: %w", err)
	}
	return nil
}

func (r *consentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Consent, error) {
	c, err := scanConsent(r.conn(ctx).QueryRow(ctx, `SELECT `+consentCols+` FROM consent WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

func (r *consentRepoPG) ListByLead(ctx context.Context, leadID uuid.UUID) ([]*Consent, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+consentCols+` FROM consent WHERE lead_id = $1 ORDER BY created_at`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var consents []*Consent
	for rows.Next() {
		c, err := scanConsent(rows)
		if err != nil {
			return nil, err
		}
		consents = append(consents, c)
	}
	return consents, rows.Err()
}

func (r *consentRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE consent SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanConsent(row pgx.Row) (*Consent, error) {
	var c Consent
	if err := row.Scan(&c.ID, &c.LeadID, &c.Category, &c.Status, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

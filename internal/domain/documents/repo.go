package documents

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("consent not found")

type ConsentRepository interface {
	Create(ctx context.Context, c *Consent) error
	GetByID(ctx context.Context, id uuid.UUID) (*Consent, error)
	ListByLead(ctx context.Context, leadID uuid.UUID) ([]*Consent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

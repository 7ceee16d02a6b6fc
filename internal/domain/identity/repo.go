package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repositories when no row matches.
var ErrNotFound = errors.New("not found")

type PractitionerRepository interface {
	Create(ctx context.Context, p *Practitioner) error
	GetByID(ctx context.Context, id uuid.UUID) (*Practitioner, error)
	List(ctx context.Context, limit, offset int) ([]*Practitioner, int, error)
	// ListActive returns every active practitioner, used to preload the
	// enrollment search.
	ListActive(ctx context.Context) ([]*Practitioner, error)
}

type AccessCodeRepository interface {
	GetByCode(ctx context.Context, code string) (*AccessCode, error)
}

type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) ([]*PatientAccount, error)
}

type LeadRepository interface {
	Create(ctx context.Context, l *Lead) error
	GetByID(ctx context.Context, id uuid.UUID) (*Lead, error)
}

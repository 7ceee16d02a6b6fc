package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalid wraps validation failures so handlers can map them to 400.
var ErrInvalid = errors.New("invalid")

type Service struct {
	practitioners PractitionerRepository
	codes         AccessCodeRepository
	accounts      AccountRepository
	leads         LeadRepository
	now           func() time.Time
}

func NewService(practitioners PractitionerRepository, codes AccessCodeRepository, accounts AccountRepository, leads LeadRepository) *Service {
	return &Service{
		practitioners: practitioners,
		codes:         codes,
		accounts:      accounts,
		leads:         leads,
		now:           time.Now,
	}
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalid, msg)
}

// -- Practitioner --

func (s *Service) CreatePractitioner(ctx context.Context, p *Practitioner) error {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	if p.FirstName == "" || p.LastName == "" {
		return invalid("first_name and last_name are required")
	}
	if Deref(p.Phone) == "" && Deref(p.Email) == "" {
		return invalid("phone or email is required")
	}
	if p.Source == "" {
		p.Source = SourceEnrollment
	}
	p.Active = true
	return s.practitioners.Create(ctx, p)
}

func (s *Service) GetPractitioner(ctx context.Context, id uuid.UUID) (*Practitioner, error) {
	return s.practitioners.GetByID(ctx, id)
}

func (s *Service) ListPractitioners(ctx context.Context, limit, offset int) ([]*Practitioner, int, error) {
	return s.practitioners.List(ctx, limit, offset)
}

func (s *Service) ActivePractitioners(ctx context.Context) ([]*Practitioner, error) {
	return s.practitioners.ListActive(ctx)
}

// -- Access Code --

// ResolveAccessCode returns the practitioner the code was issued for.
// Missing, inactive and expired codes all yield ErrNotFound.
func (s *Service) ResolveAccessCode(ctx context.Context, code string) (uuid.UUID, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return uuid.Nil, ErrNotFound
	}
	ac, err := s.codes.GetByCode(ctx, code)
	if err != nil {
		return uuid.Nil, err
	}
	if !ac.Usable(s.now()) {
		return uuid.Nil, ErrNotFound
	}
	return ac.PractitionerID, nil
}

// -- Account --

func (s *Service) FindAccounts(ctx context.Context, email string) ([]*PatientAccount, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil
	}
	return s.accounts.FindByEmail(ctx, email)
}

// -- Lead --

func (s *Service) CreateLead(ctx context.Context, l *Lead) error {
	if l.PractitionerID == uuid.Nil {
		return invalid("practitioner_id is required")
	}
	if l.FirstName == "" || l.LastName == "" {
		return invalid("first_name and last_name are required")
	}
	if l.Email == "" {
		return invalid("email is required")
	}
	if l.BirthDate.IsZero() {
		return invalid("birth_date is required")
	}
	if _, err := s.practitioners.GetByID(ctx, l.PractitionerID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return invalid("practitioner does not exist")
		}
		return fmt.Errorf("lookup practitioner: %w", err)
	}
	l.Status = LeadStatusNew
	return s.leads.Create(ctx, l)
}

func (s *Service) GetLead(ctx context.Context, id uuid.UUID) (*Lead, error) {
	return s.leads.GetByID(ctx, id)
}

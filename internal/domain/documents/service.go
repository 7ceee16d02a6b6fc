package documents

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	consents ConsentRepository
}

func NewService(consents ConsentRepository) *Service {
	return &Service{consents: consents}
}

func (s *Service) CreateConsent(ctx context.Context, c *Consent) error {
	if c.LeadID == uuid.Nil {
		return fmt.Errorf("lead_id is required")
	}
	if !ValidCategory(c.Category) {
		return fmt.Errorf("unknown consent category %q", c.Category)
	}
	c.Status = StatusActive
	return s.consents.Create(ctx, c)
}

func (s *Service) GetConsent(ctx context.Context, id uuid.UUID) (*Consent, error) {
	return s.consents.GetByID(ctx, id)
}

func (s *Service) ListConsentsByLead(ctx context.Context, leadID uuid.UUID) ([]*Consent, error) {
	return s.consents.ListByLead(ctx, leadID)
}

func (s *Service) RevokeConsent(ctx context.Context, id uuid.UUID) error {
	return s.consents.UpdateStatus(ctx, id, StatusRevoked)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ehr/enrollment/internal/domain/documents"
	"github.com/ehr/enrollment/internal/domain/enrollment"
	"github.com/ehr/enrollment/internal/domain/identity"
	"github.com/ehr/enrollment/internal/domain/terminology"
	"github.com/ehr/enrollment/internal/domain/validation"
	"github.com/ehr/enrollment/internal/platform/telemetry"
)

type identityService interface {
	FindAccounts(ctx context.Context, email string) ([]*identity.PatientAccount, error)
	ResolveAccessCode(ctx context.Context, code string) (uuid.UUID, error)
	ActivePractitioners(ctx context.Context) ([]*identity.Practitioner, error)
	CreatePractitioner(ctx context.Context, p *identity.Practitioner) error
	CreateLead(ctx context.Context, l *identity.Lead) error
}

type consentService interface {
	CreateConsent(ctx context.Context, c *documents.Consent) error
}

type locationService interface {
	ListCountries(ctx context.Context) ([]*terminology.Country, error)
	ListRegions(ctx context.Context, countryCode string) ([]*terminology.Region, error)
}

type callObserver interface {
	ObserveBackendCall(op string, start time.Time, err error)
}

// serviceBackend serves the wizard's remote operations from the local
// domain services.
type serviceBackend struct {
	identity  identityService
	consents  consentService
	locations locationService
	tracer    *telemetry.Tracer
	observer  callObserver
}

func newServiceBackend(ids identityService, consents consentService, locations locationService, tracer *telemetry.Tracer, observer callObserver) *serviceBackend {
	if tracer == nil {
		tracer = telemetry.NewTracer()
	}
	return &serviceBackend{identity: ids, consents: consents, locations: locations, tracer: tracer, observer: observer}
}

func (b *serviceBackend) observe(ctx context.Context, op string, fn func(ctx context.Context) error, attrs ...attribute.KeyValue) error {
	start := time.Now()
	ctx, end := b.tracer.Start(ctx, "backend."+op, attrs...)
	err := fn(ctx)
	end(err)
	if b.observer != nil {
		b.observer.ObserveBackendCall(op, start, err)
	}
	return err
}

func (b *serviceBackend) LookupExistingAccounts(ctx context.Context, email string) ([]enrollment.ExistingAccount, error) {
	var out []enrollment.ExistingAccount
	err := b.observe(ctx, "lookup_accounts", func(ctx context.Context) error {
		accounts, err := b.identity.FindAccounts(ctx, email)
		if err != nil {
			return err
		}
		for _, a := range accounts {
			out = append(out, enrollment.ExistingAccount{
				Email:       a.Email,
				FirstName:   a.FirstName,
				LastName:    a.LastName,
				DateOfBirth: a.BirthDate.Format(validation.DateLayout),
			})
		}
		return nil
	})
	return out, err
}

func (b *serviceBackend) ResolveAccessCode(ctx context.Context, code string) (string, error) {
	var id string
	err := b.observe(ctx, "resolve_access_code", func(ctx context.Context) error {
		practID, err := b.identity.ResolveAccessCode(ctx, code)
		if errors.Is(err, identity.ErrNotFound) {
			return enrollment.ErrNotFound
		}
		if err != nil {
			return err
		}
		id = practID.String()
		return nil
	})
	return id, err
}

func (b *serviceBackend) ListPractitioners(ctx context.Context) ([]enrollment.PractitionerEntry, error) {
	var out []enrollment.PractitionerEntry
	err := b.observe(ctx, "list_practitioners", func(ctx context.Context) error {
		practs, err := b.identity.ActivePractitioners(ctx)
		if err != nil {
			return err
		}
		out = make([]enrollment.PractitionerEntry, 0, len(practs))
		for _, p := range practs {
			out = append(out, enrollment.PractitionerEntry{
				ID:        p.ID.String(),
				Name:      p.DisplayName(),
				Specialty: identity.Deref(p.Specialty),
				City:      identity.Deref(p.City),
			})
		}
		return nil
	})
	return out, err
}

func (b *serviceBackend) CreateHCP(ctx context.Context, hcp enrollment.HCPData, detail enrollment.HCPDetail) (string, error) {
	p := &identity.Practitioner{
		FirstName:   hcp.FirstName,
		LastName:    hcp.LastName,
		Phone:       identity.OptionalString(hcp.Phone),
		Email:       identity.OptionalString(hcp.Email),
		AddressLine: identity.OptionalString(detail.AddressLine),
		Source:      identity.SourceEnrollment,
	}
	err := b.observe(ctx, "create_hcp", func(ctx context.Context) error {
		return b.identity.CreatePractitioner(ctx, p)
	})
	if err != nil {
		return "", err
	}
	return p.ID.String(), nil
}

func (b *serviceBackend) CreateLeadPatient(ctx context.Context, patient enrollment.PatientData, hcpID string) (string, error) {
	practID, err := uuid.Parse(hcpID)
	if err != nil {
		return "", fmt.Errorf("practitioner id %q: %w", hcpID, err)
	}
	dob, err := validation.ParseBirthDate(patient.DateOfBirth)
	if err != nil {
		return "", fmt.Errorf("date of birth: %w", err)
	}
	lead := &identity.Lead{
		PractitionerID:         practID,
		FirstName:              patient.FirstName,
		LastName:               patient.LastName,
		BirthDate:              dob,
		Gender:                 patient.Gender,
		Email:                  patient.Email,
		Phone:                  identity.OptionalString(patient.Phone),
		PreferredContactMethod: identity.OptionalString(patient.PreferredContactMethod),
		Country:                identity.OptionalString(patient.Country),
		State:                  identity.OptionalString(patient.State),
		City:                   identity.OptionalString(patient.City),
		Street:                 identity.OptionalString(patient.Street),
		PostalCode:             identity.OptionalString(patient.Zip),
		Registrant:             patient.Registrant,
		Minor:                  patient.Minor,
	}
	err = b.observe(ctx, "create_lead", func(ctx context.Context) error {
		return b.identity.CreateLead(ctx, lead)
	}, attribute.Bool("enrollment.minor", patient.Minor))
	if err != nil {
		return "", err
	}
	return lead.ID.String(), nil
}

func (b *serviceBackend) CreateConsent(ctx context.Context, category, leadID string) (string, error) {
	id, err := uuid.Parse(leadID)
	if err != nil {
		return "", fmt.Errorf("lead id %q: %w", leadID, err)
	}
	consent := &documents.Consent{LeadID: id, Category: category}
	err = b.observe(ctx, "create_consent", func(ctx context.Context) error {
		return b.consents.CreateConsent(ctx, consent)
	}, attribute.String("consent.category", category))
	if err != nil {
		return "", err
	}
	return consent.ID.String(), nil
}

func (b *serviceBackend) ListCountries(ctx context.Context) ([]enrollment.Option, error) {
	var out []enrollment.Option
	err := b.observe(ctx, "list_countries", func(ctx context.Context) error {
		countries, err := b.locations.ListCountries(ctx)
		if err != nil {
			return err
		}
		out = make([]enrollment.Option, 0, len(countries))
		for _, c := range countries {
			out = append(out, enrollment.Option{Label: c.Name, Value: c.Code})
		}
		return nil
	})
	return out, err
}

func (b *serviceBackend) ListStates(ctx context.Context, countryCode string) ([]enrollment.Option, error) {
	var out []enrollment.Option
	err := b.observe(ctx, "list_states", func(ctx context.Context) error {
		regions, err := b.locations.ListRegions(ctx, countryCode)
		if errors.Is(err, terminology.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		out = make([]enrollment.Option, 0, len(regions))
		for _, r := range regions {
			out = append(out, enrollment.Option{Label: r.Name, Value: r.Code})
		}
		return nil
	}, attribute.String("country", countryCode))
	return out, err
}

package enrollment

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/enrollment/internal/domain/validation"
	"github.com/ehr/enrollment/internal/platform/clientstore"
	"github.com/ehr/enrollment/internal/platform/events"
)

// SubmissionInput is a snapshot of everything the orchestrator writes.
type SubmissionInput struct {
	SessionID string
	HCPID     string
	HCP       HCPData
	HCPDetail HCPDetail
	Patient   PatientData
	Category  string
}

// SubmissionOutcome carries the identifiers created so far. On failure the
// ids of the steps that did succeed are still set.
type SubmissionOutcome struct {
	HCPID      string
	LeadID     string
	ConsentID  string
	Category   string
	Navigation Navigation
}

// Orchestrator performs the dependent writes of an enrollment in order:
// practitioner (when none was resolved), lead, consent, then client storage.
type Orchestrator struct {
	backend  Backend
	storage  clientstore.Store
	errors   ErrorSink
	landing  LandingLinker
	events   events.Publisher
	errorURL string
	logger   zerolog.Logger
	now      func() time.Time
}

func NewOrchestrator(deps Deps) *Orchestrator {
	return &Orchestrator{
		backend:  deps.Backend,
		storage:  deps.Storage,
		errors:   deps.Errors,
		landing:  deps.Landing,
		events:   deps.Events,
		errorURL: deps.ErrorURL,
		logger:   deps.Logger,
		now:      deps.now,
	}
}

// Submit runs the write sequence. Any failure stops the sequence, reports the
// message to the error sink and returns a navigation to the error page along
// with the error.
func (o *Orchestrator) Submit(ctx context.Context, in SubmissionInput) (SubmissionOutcome, error) {
	out := SubmissionOutcome{HCPID: in.HCPID, Category: in.Category}

	if out.HCPID == "" {
		id, err := o.backend.CreateHCP(ctx, in.HCP, in.HCPDetail)
		if err != nil {
			return o.fail(ctx, in.SessionID, out, fmt.Errorf("create practitioner: %w", err))
		}
		out.HCPID = id
	}

	leadID, err := o.backend.CreateLeadPatient(ctx, in.Patient, out.HCPID)
	if err != nil {
		return o.fail(ctx, in.SessionID, out, fmt.Errorf("create lead: %w", err))
	}
	out.LeadID = leadID

	consentID, err := o.backend.CreateConsent(ctx, in.Category, leadID)
	if err != nil {
		return o.fail(ctx, in.SessionID, out, fmt.Errorf("create consent: %w", err))
	}
	out.ConsentID = consentID

	if err := o.storage.Set(ctx, in.SessionID, clientstore.KeyRecordID, leadID); err != nil {
		return o.fail(ctx, in.SessionID, out, fmt.Errorf("persist record id: %w", err))
	}

	url, err := o.landing.LandingURL(leadID)
	if err != nil {
		return o.fail(ctx, in.SessionID, out, fmt.Errorf("build landing url: %w", err))
	}
	out.Navigation = Navigation{Kind: NavigateLanding, URL: url}

	evt := events.EnrollmentCompleted{
		SessionID:       in.SessionID,
		LeadID:          leadID,
		ConsentID:       consentID,
		PractitionerID:  out.HCPID,
		ConsentCategory: in.Category,
		Minor:           in.Patient.Minor,
		OccurredAt:      o.now().UTC(),
	}
	if err := o.events.PublishEnrollmentCompleted(ctx, evt); err != nil {
		o.logger.Warn().Err(err).Str("lead_id", leadID).Msg("publish enrollment event")
	}

	return out, nil
}

func (o *Orchestrator) fail(ctx context.Context, sessionID string, out SubmissionOutcome, err error) (SubmissionOutcome, error) {
	if rerr := o.errors.Report(ctx, sessionID, err.Error()); rerr != nil {
		o.logger.Error().Err(rerr).Str("session_id", sessionID).Msg("report submission failure")
	}
	out.Navigation = Navigation{Kind: NavigateError, URL: o.errorURL}
	return out, err
}

// consentCategory returns Caregiver for caregiver-registered minors and
// Patient otherwise.
func consentCategory(registrant validation.Registrant, minor bool) string {
	if minor && registrant == validation.RegistrantCaregiver {
		return CategoryCaregiver
	}
	return CategoryPatient
}

package enrollment

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Backend lookups that find nothing, such as an
// unknown access code.
var ErrNotFound = errors.New("not found")

// ExistingAccount is one record returned by the duplicate lookup.
type ExistingAccount struct {
	Email       string
	FirstName   string
	LastName    string
	DateOfBirth string
}

// PractitionerEntry is a practitioner offered in the search list.
type PractitionerEntry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty,omitempty"`
	City      string `json:"city,omitempty"`
}

// Option is a picklist entry.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// HCPData is the identity of a practitioner created during enrollment.
type HCPData struct {
	FirstName string
	LastName  string
	Phone     string
	Email     string
}

// HCPDetail carries the practitioner's practice location.
type HCPDetail struct {
	AddressLine string
}

// PatientData is the lead payload collected by the wizard.
type PatientData struct {
	FirstName              string
	LastName               string
	DateOfBirth            string
	Gender                 string
	Email                  string
	Phone                  string
	PreferredContactMethod string
	Country                string
	State                  string
	City                   string
	Street                 string
	Zip                    string
	Registrant             string
	Minor                  bool
}

// Backend is the set of remote operations the wizard depends on. Every call
// is awaited once; none is retried.
type Backend interface {
	LookupExistingAccounts(ctx context.Context, email string) ([]ExistingAccount, error)
	ResolveAccessCode(ctx context.Context, code string) (string, error)
	ListPractitioners(ctx context.Context) ([]PractitionerEntry, error)
	CreateHCP(ctx context.Context, hcp HCPData, detail HCPDetail) (string, error)
	CreateLeadPatient(ctx context.Context, patient PatientData, hcpID string) (string, error)
	CreateConsent(ctx context.Context, category, leadID string) (string, error)
	ListCountries(ctx context.Context) ([]Option, error)
	ListStates(ctx context.Context, countryCode string) ([]Option, error)
}

// LandingLinker builds the post-enrollment URL for a lead.
type LandingLinker interface {
	LandingURL(leadID string) (string, error)
}

// Observer receives wizard lifecycle notifications, typically for metrics.
type Observer interface {
	StepAdvanced(from, to string)
	TransitionBlocked(step, reason string)
	SessionFailed(step string)
	SubmissionCompleted(category string)
	SessionsActive(n int)
}

type nopObserver struct{}

func (nopObserver) StepAdvanced(string, string)      {}
func (nopObserver) TransitionBlocked(string, string) {}
func (nopObserver) SessionFailed(string)             {}
func (nopObserver) SubmissionCompleted(string)       {}
func (nopObserver) SessionsActive(int)               {}

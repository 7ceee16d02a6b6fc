package enrollment

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/enrollment/internal/domain/validation"
	"github.com/ehr/enrollment/internal/platform/clientstore"
)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

const testErrorURL = "https://portal.example.test/error"

// -- Mock Backend --

type leadCall struct {
	patient PatientData
	hcpID   string
}

type consentCall struct {
	category string
	leadID   string
}

type mockBackend struct {
	mu    sync.Mutex
	calls []string

	accounts    []ExistingAccount
	accountsErr error
	// With lookupGate set, the lookup signals lookupStarted and then waits
	// for the gate before returning.
	lookupGate    chan struct{}
	lookupStarted chan struct{}

	codes   map[string]string
	codeErr error

	practitioners    []PractitionerEntry
	practitionersErr error
	countries        []Option
	countriesErr     error
	states           map[string][]Option
	statesErr        error

	hcpErr     error
	leadErr    error
	consentErr error
	panicOn    string

	hcps     []HCPData
	leads    []leadCall
	consents []consentCall
}

func newMockBackend() *mockBackend {
	return &mockBackend{
		codes: map[string]string{"ABC123": "HCP-1"},
		practitioners: []PractitionerEntry{
			{ID: "HCP-2", Name: "dr. Zoe Adams", Specialty: "Rheumatology"},
			{ID: "HCP-1", Name: "Dr. Alan Brooks", Specialty: "Dermatology"},
			{ID: "HCP-3", Name: "Dr. Maria Lopez", Specialty: "Dermatology"},
		},
		countries: []Option{{Label: "United States", Value: "US"}, {Label: "Canada", Value: "CA"}},
		states: map[string][]Option{
			"US": {{Label: "Texas", Value: "TX"}, {Label: "Ohio", Value: "OH"}},
			"CA": {{Label: "Ontario", Value: "ON"}},
		},
	}
}

func (m *mockBackend) gateLookup() {
	m.lookupGate = make(chan struct{})
	m.lookupStarted = make(chan struct{}, 1)
}

func (m *mockBackend) record(call string) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	panicOn := m.panicOn
	m.mu.Unlock()
	if call == panicOn {
		panic("backend exploded in " + call)
	}
}

func (m *mockBackend) callLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockBackend) count(call string) int {
	n := 0
	for _, c := range m.callLog() {
		if c == call {
			n++
		}
	}
	return n
}

func (m *mockBackend) LookupExistingAccounts(_ context.Context, email string) ([]ExistingAccount, error) {
	m.record("LookupExistingAccounts")
	if m.lookupGate != nil {
		m.lookupStarted <- struct{}{}
		<-m.lookupGate
	}
	if m.accountsErr != nil {
		return nil, m.accountsErr
	}
	return m.accounts, nil
}

func (m *mockBackend) ResolveAccessCode(_ context.Context, code string) (string, error) {
	m.record("ResolveAccessCode")
	if m.codeErr != nil {
		return "", m.codeErr
	}
	id, ok := m.codes[code]
	if !ok {
		return "", ErrNotFound
	}
	return id, nil
}

func (m *mockBackend) ListPractitioners(context.Context) ([]PractitionerEntry, error) {
	m.record("ListPractitioners")
	return m.practitioners, m.practitionersErr
}

func (m *mockBackend) CreateHCP(_ context.Context, hcp HCPData, _ HCPDetail) (string, error) {
	m.record("CreateHCP")
	if m.hcpErr != nil {
		return "", m.hcpErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hcps = append(m.hcps, hcp)
	return fmt.Sprintf("HCP-NEW-%d", len(m.hcps)), nil
}

func (m *mockBackend) CreateLeadPatient(_ context.Context, patient PatientData, hcpID string) (string, error) {
	m.record("CreateLeadPatient")
	if m.leadErr != nil {
		return "", m.leadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leads = append(m.leads, leadCall{patient: patient, hcpID: hcpID})
	return fmt.Sprintf("LEAD-%d", len(m.leads)), nil
}

func (m *mockBackend) CreateConsent(_ context.Context, category, leadID string) (string, error) {
	m.record("CreateConsent")
	if m.consentErr != nil {
		return "", m.consentErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consents = append(m.consents, consentCall{category: category, leadID: leadID})
	return fmt.Sprintf("CONSENT-%d", len(m.consents)), nil
}

func (m *mockBackend) ListCountries(context.Context) ([]Option, error) {
	m.record("ListCountries")
	return m.countries, m.countriesErr
}

func (m *mockBackend) ListStates(_ context.Context, country string) ([]Option, error) {
	m.record("ListStates")
	if m.statesErr != nil {
		return nil, m.statesErr
	}
	return m.states[country], nil
}

// -- Stubs --

type stubLinker struct {
	err error
}

func (s stubLinker) LandingURL(leadID string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "https://portal.example.test/welcome?token=" + leadID, nil
}

type recordingObserver struct {
	mu        sync.Mutex
	advanced  []string
	blocked   []string
	failed    int
	completed []string
	active    int
}

func (o *recordingObserver) StepAdvanced(from, to string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.advanced = append(o.advanced, from+">"+to)
}

func (o *recordingObserver) TransitionBlocked(_, reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.blocked = append(o.blocked, reason)
}

func (o *recordingObserver) SessionFailed(string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed++
}

func (o *recordingObserver) SubmissionCompleted(category string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed = append(o.completed, category)
}

func (o *recordingObserver) SessionsActive(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.active = n
}

type failingStore struct {
	clientstore.Store
	err error
}

func (f failingStore) Set(context.Context, string, string, string) error {
	return f.err
}

// -- Helpers --

type fixture struct {
	backend  *mockBackend
	store    *clientstore.MemoryStore
	observer *recordingObserver
}

func newTestDeps(backend *mockBackend) (Deps, *fixture) {
	f := &fixture{
		backend:  backend,
		store:    clientstore.NewMemoryStore(),
		observer: &recordingObserver{},
	}
	return Deps{
		Backend:  backend,
		Storage:  f.store,
		Landing:  stubLinker{},
		Observer: f.observer,
		Logger:   zerolog.Nop(),
		ErrorURL: testErrorURL,
		Clock:    func() time.Time { return testNow },
	}, f
}

func newTestController(t *testing.T, registrant validation.Registrant) (*Controller, *fixture) {
	t.Helper()
	deps, f := newTestDeps(newMockBackend())
	dir := NewPractitionerDirectory(f.backend.practitioners)
	return NewController("session-1", registrant, dir, f.backend.countries, deps), f
}

func mustInput(t *testing.T, c *Controller, key validation.Key, value string) View {
	t.Helper()
	v, err := c.Input(context.Background(), key, value)
	if err != nil {
		t.Fatalf("input %s: %v", key, err)
	}
	return v
}

func fillPatient(t *testing.T, c *Controller) {
	t.Helper()
	mustInput(t, c, validation.FirstName, "jane")
	mustInput(t, c, validation.LastName, "Doe")
	mustInput(t, c, validation.DOB, "1990-05-01")
	mustInput(t, c, validation.Gender, "Female")
	mustInput(t, c, validation.Email, "jane@example.com")
}

func fillContact(t *testing.T, c *Controller) {
	t.Helper()
	mustInput(t, c, validation.PreferredContactMethod, "Email")
	mustInput(t, c, validation.Country, "US")
	mustInput(t, c, validation.State, "TX")
	mustInput(t, c, validation.City, "austin")
	mustInput(t, c, validation.Street, "1 Main St")
	mustInput(t, c, validation.Zip, "78701")
	mustInput(t, c, validation.ConsentCheckbox, "true")
}

func mustNext(t *testing.T, c *Controller) View {
	t.Helper()
	v, err := c.Next(context.Background())
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	return v
}

// toPhysician drives a fresh controller to the physician step.
func toPhysician(t *testing.T, c *Controller) {
	t.Helper()
	fillPatient(t, c)
	if v := mustNext(t, c); v.Step != StepPhysicianInfo.String() {
		t.Fatalf("expected physician step, got %s (outcome %s)", v.Step, v.Outcome)
	}
}

// toConfirmation drives a fresh controller through the access-code branch to
// the confirmation step.
func toConfirmation(t *testing.T, c *Controller) {
	t.Helper()
	toPhysician(t, c)
	if _, err := c.ChooseBranch(context.Background(), true); err != nil {
		t.Fatalf("choose branch: %v", err)
	}
	mustInput(t, c, validation.AccessCode, "ABC123")
	if v := mustNext(t, c); v.Step != StepContactInfo.String() {
		t.Fatalf("expected contact step, got %s (outcome %s)", v.Step, v.Outcome)
	}
	fillContact(t, c)
	if v := mustNext(t, c); v.Step != StepConfirmation.String() {
		t.Fatalf("expected confirmation step, got %s (outcome %s)", v.Step, v.Outcome)
	}
}

package enrollment

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"

	"github.com/ehr/enrollment/internal/domain/validation"
)

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeWizardScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

// wizardWorld holds state for a single scenario.
type wizardWorld struct {
	ctrl *Controller
	f    *fixture
	view View
}

func initializeWizardScenario(sc *godog.ScenarioContext) {
	w := &wizardWorld{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		*w = wizardWorld{}
		return ctx, nil
	})

	sc.Step(`^a new enrollment session for a "([^"]*)"$`, w.newSession)
	sc.Step(`^an existing account "([^"]*)" for "([^"]*)" "([^"]*)" born "([^"]*)"$`, w.existingAccount)
	sc.Step(`^practitioner creation fails with "([^"]*)"$`, w.practitionerCreationFails)
	sc.Step(`^the patient details are complete$`, w.patientDetailsComplete)
	sc.Step(`^the contact details are complete$`, w.contactDetailsComplete)
	sc.Step(`^I enter "([^"]*)" into "([^"]*)"$`, w.enter)
	sc.Step(`^I press next$`, w.pressNext)
	sc.Step(`^I go back$`, w.goBack)
	sc.Step(`^I answer that I have an access code$`, func() error { return w.chooseBranch(true) })
	sc.Step(`^I answer that I do not have an access code$`, func() error { return w.chooseBranch(false) })
	sc.Step(`^I open the new practitioner form$`, w.openNewPractitioner)
	sc.Step(`^I submit the enrollment$`, w.submit)

	sc.Step(`^the wizard is on step "([^"]*)"$`, w.onStep)
	sc.Step(`^the field "([^"]*)" has error "([^"]*)"$`, w.fieldHasError)
	sc.Step(`^the field "([^"]*)" has value "([^"]*)"$`, w.fieldHasValue)
	sc.Step(`^the account-exists modal is shown$`, func() error { return w.modalShown(true) })
	sc.Step(`^the account-exists modal is not shown$`, func() error { return w.modalShown(false) })
	sc.Step(`^the backend was not asked to "([^"]*)"$`, w.notCalled)
	sc.Step(`^the enrollment is completed$`, w.completed)
	sc.Step(`^the wizard routes to the error page$`, w.routedToError)
	sc.Step(`^a lead was created for practitioner "([^"]*)"$`, w.leadCreatedFor)
	sc.Step(`^a "([^"]*)" consent was created for that lead$`, w.consentCreated)
	sc.Step(`^client storage holds the lead under "([^"]*)"$`, w.storageHoldsLead)
	sc.Step(`^client storage holds "([^"]*)" under "([^"]*)"$`, w.storageHolds)
}

func (w *wizardWorld) newSession(registrant string) error {
	deps, f := newTestDeps(newMockBackend())
	w.f = f
	w.ctrl = NewController("scenario", validation.Registrant(registrant),
		NewPractitionerDirectory(f.backend.practitioners), f.backend.countries, deps)
	w.view = w.ctrl.View()
	return nil
}

func (w *wizardWorld) existingAccount(email, first, last, dob string) error {
	w.f.backend.accounts = append(w.f.backend.accounts, ExistingAccount{
		Email: email, FirstName: first, LastName: last, DateOfBirth: dob,
	})
	return nil
}

func (w *wizardWorld) practitionerCreationFails(msg string) error {
	w.f.backend.hcpErr = errors.New(msg)
	return nil
}

func (w *wizardWorld) enterAll(values [][2]string) error {
	for _, kv := range values {
		if err := w.enter(kv[1], kv[0]); err != nil {
			return err
		}
	}
	return nil
}

func (w *wizardWorld) patientDetailsComplete() error {
	return w.enterAll([][2]string{
		{"firstName", "Jane"},
		{"lastName", "Doe"},
		{"dob", "1990-05-01"},
		{"gender", "Female"},
		{"email", "jane@example.com"},
	})
}

func (w *wizardWorld) contactDetailsComplete() error {
	return w.enterAll([][2]string{
		{"preferredContactMethod", "Email"},
		{"country", "US"},
		{"state", "TX"},
		{"city", "Austin"},
		{"street", "1 Main St"},
		{"zip", "78701"},
		{"consentCheckbox", "true"},
	})
}

func (w *wizardWorld) enter(value, key string) error {
	v, err := w.ctrl.Input(context.Background(), validation.Key(key), value)
	if err != nil {
		return err
	}
	w.view = v
	return nil
}

func (w *wizardWorld) pressNext() error {
	v, err := w.ctrl.Next(context.Background())
	if err != nil {
		return err
	}
	w.view = v
	return nil
}

func (w *wizardWorld) goBack() error {
	v, err := w.ctrl.Back(context.Background(), 0)
	if err != nil {
		return err
	}
	w.view = v
	return nil
}

func (w *wizardWorld) chooseBranch(accessCode bool) error {
	v, err := w.ctrl.ChooseBranch(context.Background(), accessCode)
	if err != nil {
		return err
	}
	w.view = v
	return nil
}

func (w *wizardWorld) openNewPractitioner() error {
	v, err := w.ctrl.ToggleNewPractitioner(context.Background())
	if err != nil {
		return err
	}
	w.view = v
	return nil
}

func (w *wizardWorld) submit() error {
	v, err := w.ctrl.Submit(context.Background())
	if err != nil {
		return err
	}
	w.view = v
	return nil
}

func (w *wizardWorld) onStep(step string) error {
	if w.view.Step != step {
		return fmt.Errorf("expected step %s, got %s (outcome %s)", step, w.view.Step, w.view.Outcome)
	}
	return nil
}

func (w *wizardWorld) fieldHasError(key, kind string) error {
	got := w.view.Fields[validation.Key(key)].ErrorKind
	if string(got) != kind {
		return fmt.Errorf("expected %s error %q, got %q", key, kind, got)
	}
	return nil
}

func (w *wizardWorld) fieldHasValue(key, value string) error {
	got := w.view.Fields[validation.Key(key)].RawValue
	if got != value {
		return fmt.Errorf("expected %s value %q, got %q", key, value, got)
	}
	return nil
}

func (w *wizardWorld) modalShown(want bool) error {
	if w.view.UI.AccountExistsModal != want {
		return fmt.Errorf("expected modal %v, got %v", want, w.view.UI.AccountExistsModal)
	}
	return nil
}

func (w *wizardWorld) notCalled(call string) error {
	if n := w.f.backend.count(call); n != 0 {
		return fmt.Errorf("expected no %s call, got %d", call, n)
	}
	return nil
}

func (w *wizardWorld) completed() error {
	if !w.view.Completed || w.view.Navigation == nil || w.view.Navigation.Kind != NavigateLanding {
		return fmt.Errorf("expected completed enrollment, got outcome %s", w.view.Outcome)
	}
	return nil
}

func (w *wizardWorld) routedToError() error {
	if !w.view.Failed || w.view.Navigation == nil || w.view.Navigation.Kind != NavigateError {
		return fmt.Errorf("expected error navigation, got outcome %s", w.view.Outcome)
	}
	return nil
}

func (w *wizardWorld) leadCreatedFor(hcpID string) error {
	if len(w.f.backend.leads) != 1 {
		return fmt.Errorf("expected one lead, got %d", len(w.f.backend.leads))
	}
	if got := w.f.backend.leads[0].hcpID; got != hcpID {
		return fmt.Errorf("expected lead for %s, got %s", hcpID, got)
	}
	return nil
}

func (w *wizardWorld) consentCreated(category string) error {
	if len(w.f.backend.consents) != 1 {
		return fmt.Errorf("expected one consent, got %d", len(w.f.backend.consents))
	}
	got := w.f.backend.consents[0]
	if got.category != category || got.leadID != w.view.LeadID {
		return fmt.Errorf("unexpected consent %+v for lead %s", got, w.view.LeadID)
	}
	return nil
}

func (w *wizardWorld) storageHoldsLead(key string) error {
	return w.storageHolds(w.view.LeadID, key)
}

func (w *wizardWorld) storageHolds(value, key string) error {
	got, err := w.f.store.Get(context.Background(), "scenario", key)
	if err != nil {
		return err
	}
	if got != value {
		return fmt.Errorf("expected %q under %s, got %q", value, key, got)
	}
	return nil
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ehr/enrollment/internal/domain/enrollment"
	"github.com/ehr/enrollment/internal/domain/validation"
)

// API is the subset of the enrollment API the runner drives.
type API interface {
	Start(ctx context.Context, registrant validation.Registrant) (enrollment.View, error)
	Input(ctx context.Context, id string, key validation.Key, value string) (enrollment.View, error)
	ChooseBranch(ctx context.Context, id string, accessCode bool) (enrollment.View, error)
	Search(ctx context.Context, id, query string) (enrollment.View, error)
	SelectPractitioner(ctx context.Context, id, practitionerID string) (enrollment.View, error)
	ToggleNewPractitioner(ctx context.Context, id string) (enrollment.View, error)
	Next(ctx context.Context, id string) (enrollment.View, error)
	DismissModal(ctx context.Context, id string) (enrollment.View, error)
	Submit(ctx context.Context, id string) (enrollment.View, error)
}

// ErrEnrollmentFailed is returned when the server routed the session to the
// error page.
var ErrEnrollmentFailed = errors.New("enrollment failed")

var labels = map[validation.Key]string{
	validation.FirstName:              "First name",
	validation.LastName:               "Last name",
	validation.DOB:                    "Date of birth (YYYY-MM-DD)",
	validation.Gender:                 "Gender",
	validation.Email:                  "Email",
	validation.AccessCode:             "Access code",
	validation.HCPFirstName:           "Practitioner first name",
	validation.HCPLastName:            "Practitioner last name",
	validation.HCPPhone:               "Practitioner phone",
	validation.HCPEmail:               "Practitioner email",
	validation.AddressLine:            "Practice address",
	validation.PreferredContactMethod: "Preferred contact method",
	validation.Phone:                  "Phone",
	validation.Country:                "Country",
	validation.State:                  "State",
	validation.City:                   "City",
	validation.Street:                 "Street",
	validation.Zip:                    "ZIP code",
}

var choices = map[validation.Key][]string{
	validation.Gender:                 {"Female", "Male", "Other"},
	validation.PreferredContactMethod: {"Email", validation.ContactByPhone, validation.ContactBySMS},
}

const addNewOption = "Add a new practitioner"

// Runner walks a user through the wizard.
type Runner struct {
	api    API
	driver PromptDriver
}

func NewRunner(api API, driver PromptDriver) *Runner {
	return &Runner{api: api, driver: driver}
}

// Run completes one enrollment and returns the final view.
func (r *Runner) Run(ctx context.Context, registrant validation.Registrant) (enrollment.View, error) {
	v, err := r.api.Start(ctx, registrant)
	if err != nil {
		return v, err
	}

	for !v.Completed {
		if v.Failed {
			return v, r.failed(ctx, v)
		}
		switch v.Step {
		case enrollment.StepPatientInfo.String():
			v, err = r.patient(ctx, v)
		case enrollment.StepPhysicianInfo.String():
			v, err = r.physician(ctx, v)
		case enrollment.StepContactInfo.String():
			v, err = r.contact(ctx, v)
		case enrollment.StepConfirmation.String():
			v, err = r.confirm(ctx, v)
		default:
			err = fmt.Errorf("unexpected step %q", v.Step)
		}
		if err != nil {
			return v, err
		}
	}

	if v.Navigation != nil {
		r.driver.Info(ctx, "Enrollment complete: "+v.Navigation.URL)
	}
	return v, nil
}

func (r *Runner) failed(ctx context.Context, v enrollment.View) error {
	if v.Navigation != nil {
		r.driver.Info(ctx, "Enrollment could not be completed: "+v.Navigation.URL)
	}
	return ErrEnrollmentFailed
}

func (r *Runner) patient(ctx context.Context, v enrollment.View) (enrollment.View, error) {
	v, err := r.fill(ctx, v, validation.FirstName, validation.LastName, validation.DOB, validation.Gender, validation.Email)
	if err != nil {
		return v, err
	}
	v, err = r.api.Next(ctx, v.SessionID)
	if err != nil {
		return v, err
	}
	if v.UI.AccountExistsModal {
		r.driver.Info(ctx, "An account already exists for this person. Please sign in instead, or correct the details.")
		return r.api.DismissModal(ctx, v.SessionID)
	}
	r.reportErrors(ctx, v)
	return v, nil
}

func (r *Runner) physician(ctx context.Context, v enrollment.View) (enrollment.View, error) {
	var err error
	if v.Branch == enrollment.BranchUndecided {
		hasCode, err := r.driver.Confirm(ctx, ConfirmConfig{Message: "Do you have an access code?"})
		if err != nil {
			return v, err
		}
		if v, err = r.api.ChooseBranch(ctx, v.SessionID, hasCode); err != nil {
			return v, err
		}
	}

	if v.Branch == enrollment.BranchAccessCode {
		if v, err = r.fill(ctx, v, validation.AccessCode); err != nil {
			return v, err
		}
	} else if v, err = r.choosePractitioner(ctx, v); err != nil {
		return v, err
	}

	if v, err = r.api.Next(ctx, v.SessionID); err != nil {
		return v, err
	}
	r.reportErrors(ctx, v)
	return v, nil
}

func (r *Runner) choosePractitioner(ctx context.Context, v enrollment.View) (enrollment.View, error) {
	var err error
	switch v.Practitioner.Mode {
	case enrollment.PractitionerSelected:
		return v, nil
	case enrollment.PractitionerCreatingNew:
		return r.fill(ctx, v, validation.HCPFirstName, validation.HCPLastName, validation.HCPPhone, validation.HCPEmail, validation.AddressLine)
	}

	query, err := r.driver.Input(ctx, InputConfig{Message: "Search for your practitioner"})
	if err != nil {
		return v, err
	}
	if v, err = r.api.Search(ctx, v.SessionID, query); err != nil {
		return v, err
	}

	options := make([]string, 0, len(v.UI.SearchResults)+1)
	for _, p := range v.UI.SearchResults {
		label := p.Name
		if p.Specialty != "" {
			label += " (" + p.Specialty + ")"
		}
		options = append(options, label)
	}
	options = append(options, addNewOption)

	idx, err := r.driver.Select(ctx, SelectConfig{Message: "Select your practitioner", Options: options, PageSize: 10})
	if err != nil {
		return v, err
	}
	if idx >= 0 && idx < len(v.UI.SearchResults) {
		return r.api.SelectPractitioner(ctx, v.SessionID, v.UI.SearchResults[idx].ID)
	}
	if v, err = r.api.ToggleNewPractitioner(ctx, v.SessionID); err != nil {
		return v, err
	}
	return r.fill(ctx, v, validation.HCPFirstName, validation.HCPLastName, validation.HCPPhone, validation.HCPEmail, validation.AddressLine)
}

func (r *Runner) contact(ctx context.Context, v enrollment.View) (enrollment.View, error) {
	v, err := r.fill(ctx, v, validation.PreferredContactMethod, validation.Phone)
	if err != nil {
		return v, err
	}
	if v, err = r.pickOption(ctx, v, validation.Country, v.Countries); err != nil {
		return v, err
	}
	if v, err = r.pickOption(ctx, v, validation.State, v.States); err != nil {
		return v, err
	}
	if v, err = r.fill(ctx, v, validation.City, validation.Street, validation.Zip); err != nil {
		return v, err
	}

	agreed, err := r.driver.Confirm(ctx, ConfirmConfig{Message: "I agree to the terms of the program"})
	if err != nil {
		return v, err
	}
	if v, err = r.api.Input(ctx, v.SessionID, validation.ConsentCheckbox, fmt.Sprint(agreed)); err != nil {
		return v, err
	}

	if v, err = r.api.Next(ctx, v.SessionID); err != nil {
		return v, err
	}
	r.reportErrors(ctx, v)
	return v, nil
}

func (r *Runner) confirm(ctx context.Context, v enrollment.View) (enrollment.View, error) {
	r.driver.Info(ctx, summary(v))
	ok, err := r.driver.Confirm(ctx, ConfirmConfig{Message: "Submit enrollment?", Default: true})
	if err != nil {
		return v, err
	}
	if !ok {
		return v, ErrAborted
	}
	out, err := r.api.Submit(ctx, v.SessionID)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.View != nil {
		r.reportErrors(ctx, *apiErr.View)
	}
	return out, err
}

// fill prompts for each key, offering the current value as default.
func (r *Runner) fill(ctx context.Context, v enrollment.View, keys ...validation.Key) (enrollment.View, error) {
	for _, key := range keys {
		current := v.Fields[key].RawValue
		var value string
		if opts, ok := choices[key]; ok {
			idx, err := r.driver.Select(ctx, SelectConfig{Message: label(key), Options: opts, DefaultIndex: indexOf(opts, current)})
			if err != nil {
				return v, err
			}
			if idx >= 0 {
				value = opts[idx]
			}
		} else {
			var err error
			value, err = r.driver.Input(ctx, InputConfig{Message: label(key), Default: current})
			if err != nil {
				return v, err
			}
		}
		next, err := r.api.Input(ctx, v.SessionID, key, value)
		if err != nil {
			return v, err
		}
		v = next
	}
	return v, nil
}

func (r *Runner) pickOption(ctx context.Context, v enrollment.View, key validation.Key, opts []enrollment.Option) (enrollment.View, error) {
	if len(opts) == 0 {
		return r.fill(ctx, v, key)
	}
	names := make([]string, len(opts))
	def := -1
	for i, o := range opts {
		names[i] = o.Label
		if o.Value == v.Fields[key].RawValue {
			def = i
		}
	}
	idx, err := r.driver.Select(ctx, SelectConfig{Message: label(key), Options: names, DefaultIndex: def, PageSize: 10})
	if err != nil {
		return v, err
	}
	if idx < 0 {
		return v, fmt.Errorf("no %s selected", label(key))
	}
	return r.api.Input(ctx, v.SessionID, key, opts[idx].Value)
}

func (r *Runner) reportErrors(ctx context.Context, v enrollment.View) {
	if v.Outcome != enrollment.OutcomeBlocked {
		return
	}
	var lines []string
	for _, key := range validation.Keys() {
		if f := v.Fields[key]; f.ErrorKind != validation.None {
			lines = append(lines, fmt.Sprintf("  %s: %s", label(key), f.ErrorKind))
		}
	}
	if v.UI.SelectionRequired {
		lines = append(lines, "  Please select a practitioner from the list or add a new one.")
	}
	if len(lines) == 0 {
		return
	}
	r.driver.Info(ctx, "Please correct the following:\n"+strings.Join(lines, "\n"))
}

func label(key validation.Key) string {
	if l, ok := labels[key]; ok {
		return l
	}
	return string(key)
}

func summary(v enrollment.View) string {
	f := func(k validation.Key) string { return v.Fields[k].RawValue }
	var b strings.Builder
	fmt.Fprintf(&b, "Patient:  %s %s, born %s\n", f(validation.FirstName), f(validation.LastName), f(validation.DOB))
	fmt.Fprintf(&b, "Email:    %s\n", f(validation.Email))
	fmt.Fprintf(&b, "Address:  %s, %s %s %s, %s\n", f(validation.Street), f(validation.City), f(validation.State), f(validation.Zip), f(validation.Country))
	if v.Minor {
		b.WriteString("Enrolled as a minor by a caregiver\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

package enrollment

import (
	"github.com/ehr/enrollment/internal/domain/validation"
)

// Step is a wizard page. Steps are ordered; only the next step or an earlier
// one can be reached from the current one.
type Step int

const (
	StepPatientInfo Step = iota + 1
	StepPhysicianInfo
	StepContactInfo
	StepConfirmation
)

func (s Step) String() string {
	switch s {
	case StepPatientInfo:
		return "patient_info"
	case StepPhysicianInfo:
		return "physician_info"
	case StepContactInfo:
		return "contact_info"
	case StepConfirmation:
		return "confirmation"
	default:
		return "unknown"
	}
}

func (s Step) Valid() bool {
	return s >= StepPatientInfo && s <= StepConfirmation
}

// Branch is the answer to "do you have an access code".
type Branch string

const (
	BranchUndecided             Branch = ""
	BranchAccessCode            Branch = "access_code"
	BranchReferringPractitioner Branch = "referring_practitioner"
)

// PractitionerMode is the sub-state of the referring-practitioner branch.
type PractitionerMode string

const (
	PractitionerSearching   PractitionerMode = "searching"
	PractitionerSelected    PractitionerMode = "selected"
	PractitionerCreatingNew PractitionerMode = "creating_new"
)

// PractitionerChoice is the tagged variant Searching | Selected(id) |
// CreatingNew. ID is set only in the Selected mode.
type PractitionerChoice struct {
	Mode PractitionerMode `json:"mode"`
	ID   string           `json:"id,omitempty"`
}

type DedupResult string

const (
	DedupUnknown       DedupResult = "unknown"
	DedupNoMatch       DedupResult = "no_match"
	DedupIdentityMatch DedupResult = "email_and_identity_match"
	DedupEmailOnly     DedupResult = "email_only_match"
)

// Consent categories.
const (
	CategoryPatient   = "Patient"
	CategoryCaregiver = "Caregiver"
)

type NavigationKind string

const (
	NavigateLanding NavigationKind = "landing"
	NavigateError   NavigationKind = "error"
)

// Navigation tells the presentation layer to leave the wizard.
type Navigation struct {
	Kind NavigationKind `json:"kind"`
	URL  string         `json:"url"`
}

// Outcome describes what the last transition request did.
type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeAdvanced  Outcome = "advanced"
	OutcomeBlocked   Outcome = "blocked"
	OutcomeReturned  Outcome = "returned"
	OutcomeDiscarded Outcome = "discarded"
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
)

// UIState is presentation data only. It never influences submitted values.
type UIState struct {
	AccountExistsModal bool                `json:"account_exists_modal"`
	SelectionRequired  bool                `json:"selection_required"`
	SearchResultEmpty  bool                `json:"search_result_empty"`
	SearchQuery        string              `json:"search_query,omitempty"`
	SearchResults      []PractitionerEntry `json:"search_results,omitempty"`
	Pending            bool                `json:"pending"`
}

// WizardState is owned by one Controller and mutated only under its lock.
type WizardState struct {
	Step            Step
	Registrant      validation.Registrant
	Fields          map[validation.Key]validation.FieldState
	Branch          Branch
	Practitioner    PractitionerChoice
	Dedup           DedupResult
	ResolvedHCPID   string
	ConsentCategory string
	LeadID          string
	ConsentID       string
	Minor           bool
	UI              UIState
	States          []Option
	Navigation      *Navigation
	Outcome         Outcome
	Failed          bool
	Completed       bool
}

func newWizardState(registrant validation.Registrant) WizardState {
	if registrant == "" {
		registrant = validation.RegistrantPatient
	}
	fields := make(map[validation.Key]validation.FieldState)
	for _, key := range validation.Keys() {
		fields[key] = validation.FieldState{}
	}
	return WizardState{
		Step:         StepPatientInfo,
		Registrant:   registrant,
		Fields:       fields,
		Practitioner: PractitionerChoice{Mode: PractitionerSearching},
		Dedup:        DedupUnknown,
	}
}

func (s *WizardState) value(key validation.Key) string {
	return s.Fields[key].RawValue
}

// resetTransient clears banners, modal and search-empty state. With collapse
// set the new-practitioner accordion is closed too. Field states are left
// alone.
func (s *WizardState) resetTransient(collapse bool) {
	s.UI.AccountExistsModal = false
	s.UI.SelectionRequired = false
	s.UI.SearchResultEmpty = false
	s.UI.SearchResults = nil
	if collapse && s.Practitioner.Mode == PractitionerCreatingNew {
		s.Practitioner = PractitionerChoice{Mode: PractitionerSearching}
	}
}

// View is a read-only snapshot of a session.
type View struct {
	SessionID       string                                   `json:"session_id"`
	Step            string                                   `json:"step"`
	StepNumber      int                                      `json:"step_number"`
	Registrant      validation.Registrant                    `json:"registrant"`
	Fields          map[validation.Key]validation.FieldState `json:"fields"`
	Branch          Branch                                   `json:"branch"`
	Practitioner    PractitionerChoice                       `json:"practitioner"`
	Dedup           DedupResult                              `json:"dedup_result"`
	ResolvedHCPID   string                                   `json:"resolved_hcp_id,omitempty"`
	ConsentCategory string                                   `json:"consent_category,omitempty"`
	LeadID          string                                   `json:"lead_id,omitempty"`
	ConsentID       string                                   `json:"consent_id,omitempty"`
	Minor           bool                                     `json:"minor"`
	UI              UIState                                  `json:"ui"`
	AddNewDisabled  bool                                     `json:"add_new_practitioner_disabled"`
	Countries       []Option                                 `json:"countries,omitempty"`
	States          []Option                                 `json:"states,omitempty"`
	Navigation      *Navigation                              `json:"navigation,omitempty"`
	Outcome         Outcome                                  `json:"outcome,omitempty"`
	Failed          bool                                     `json:"failed"`
	Completed       bool                                     `json:"completed"`
}

func (s *WizardState) view(sessionID string, countries []Option) View {
	fields := make(map[validation.Key]validation.FieldState, len(s.Fields))
	for k, v := range s.Fields {
		fields[k] = v
	}
	ui := s.UI
	if s.UI.SearchResults != nil {
		ui.SearchResults = append([]PractitionerEntry(nil), s.UI.SearchResults...)
	}
	var nav *Navigation
	if s.Navigation != nil {
		n := *s.Navigation
		nav = &n
	}
	return View{
		SessionID:       sessionID,
		Step:            s.Step.String(),
		StepNumber:      int(s.Step),
		Registrant:      s.Registrant,
		Fields:          fields,
		Branch:          s.Branch,
		Practitioner:    s.Practitioner,
		Dedup:           s.Dedup,
		ResolvedHCPID:   s.ResolvedHCPID,
		ConsentCategory: s.ConsentCategory,
		LeadID:          s.LeadID,
		ConsentID:       s.ConsentID,
		Minor:           s.Minor,
		UI:              ui,
		AddNewDisabled:  s.Practitioner.Mode == PractitionerSelected,
		Countries:       countries,
		States:          append([]Option(nil), s.States...),
		Navigation:      nav,
		Outcome:         s.Outcome,
		Failed:          s.Failed,
		Completed:       s.Completed,
	}
}

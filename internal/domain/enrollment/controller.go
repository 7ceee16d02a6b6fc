package enrollment

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/enrollment/internal/domain/validation"
	"github.com/ehr/enrollment/internal/platform/clientstore"
	"github.com/ehr/enrollment/internal/platform/events"
)

// Deps are the collaborators shared by every session.
type Deps struct {
	Backend  Backend
	Storage  clientstore.Store
	Errors   ErrorSink
	Landing  LandingLinker
	Events   events.Publisher
	Observer Observer
	Logger   zerolog.Logger
	ErrorURL string
	Clock    func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Storage == nil {
		d.Storage = clientstore.NewMemoryStore()
	}
	if d.Errors == nil {
		d.Errors = StorageErrorSink{Store: d.Storage}
	}
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.Observer == nil {
		d.Observer = nopObserver{}
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return d
}

func (d Deps) now() time.Time {
	return d.Clock()
}

// Controller is the step state machine of one enrollment session. All state
// changes happen under mu; backend calls run with mu released and their
// results are applied only if the session generation has not moved on.
type Controller struct {
	id        string
	deps      Deps
	log       zerolog.Logger
	dedup     *DedupChecker
	codes     *AccessCodeResolver
	submitter *Orchestrator
	directory *PractitionerDirectory
	countries []Option

	mu         sync.Mutex
	state      WizardState
	generation uint64
	lastActive time.Time
}

// NewController creates a session at the patient step. directory and
// countries are the lookups loaded when the session started.
func NewController(id string, registrant validation.Registrant, directory *PractitionerDirectory, countries []Option, deps Deps) *Controller {
	deps = deps.withDefaults()
	if directory == nil {
		directory = NewPractitionerDirectory(nil)
	}
	return &Controller{
		id:         id,
		deps:       deps,
		log:        deps.Logger.With().Str("session_id", id).Logger(),
		dedup:      NewDedupChecker(deps.Backend),
		codes:      NewAccessCodeResolver(deps.Backend),
		submitter:  NewOrchestrator(deps),
		directory:  directory,
		countries:  countries,
		state:      newWizardState(registrant),
		lastActive: deps.now(),
	}
}

func (c *Controller) ID() string { return c.id }

// Practitioners returns the preloaded practitioner list in display order.
func (c *Controller) Practitioners() []PractitionerEntry {
	return c.directory.All()
}

// View returns a snapshot of the session.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.view(c.id, c.countries)
}

// expired reports whether the session has been idle longer than ttl. A
// session with a backend call in flight never expires.
func (c *Controller) expired(now time.Time, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.state.UI.Pending && now.Sub(c.lastActive) > ttl
}

func (c *Controller) withLock(fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn()
}

// run executes one wizard event. A panic is logged and turned into the fatal
// error route.
func (c *Controller) run(ctx context.Context, op string, fn func(context.Context) (View, error)) (v View, err error) {
	defer func() {
		if r := recover(); r != nil {
			var stack [4096]byte
			n := runtime.Stack(stack[:], false)
			c.log.Error().
				Str("op", op).
				Str("panic", fmt.Sprintf("%v", r)).
				Str("stack", string(stack[:n])).
				Msg("wizard event panicked")
			c.withLock(func() error {
				c.fatal(context.WithoutCancel(ctx), "An unexpected error occurred.")
				return nil
			})
			v, err = c.View(), nil
		}
	}()
	c.withLock(func() error {
		c.lastActive = c.deps.now()
		return nil
	})
	return fn(ctx)
}

func (c *Controller) checkActive() error {
	if c.state.Failed {
		return ErrSessionFailed
	}
	if c.state.Completed {
		return ErrSessionCompleted
	}
	return nil
}

func (c *Controller) vctx(key validation.Key) validation.Context {
	return validation.Context{
		Now:           c.deps.now(),
		Registrant:    c.state.Registrant,
		ContactMethod: c.state.value(validation.PreferredContactMethod),
		Counterpart:   counterpartValue(c.state.Fields, key),
	}
}

func (c *Controller) store(key validation.Key, res validation.Result) validation.FieldState {
	c.state.Fields[key] = res.State
	if key == validation.DOB {
		c.state.Minor = res.Minor
	}
	return res.State
}

// revalidate re-runs the rules of key against its stored value.
func (c *Controller) revalidate(key validation.Key) validation.FieldState {
	res, err := validation.Validate(key, c.state.value(key), c.vctx(key))
	if err != nil {
		panic(fmt.Sprintf("catalog field %s: %v", key, err))
	}
	return c.store(key, res)
}

// validateSection revalidates every field of a section (and group) and
// reports whether all of them are valid.
func (c *Controller) validateSection(section validation.Section, group string) bool {
	ok := true
	for _, spec := range validation.Fields(section, group) {
		if !c.revalidate(spec.Key).Valid() {
			ok = false
		}
	}
	return ok
}

func (c *Controller) setError(key validation.Key, kind validation.ErrorKind) {
	fs := c.state.Fields[key]
	fs.ErrorKind = kind
	fs.Touched = true
	c.state.Fields[key] = fs
}

func (c *Controller) clearErrors(section validation.Section, group string) {
	for _, spec := range validation.Fields(section, group) {
		fs := c.state.Fields[spec.Key]
		fs.ErrorKind = validation.None
		c.state.Fields[spec.Key] = fs
	}
}

func (c *Controller) advance(to Step) {
	from := c.state.Step
	c.state.Step = to
	c.generation++
	c.state.UI.AccountExistsModal = false
	c.state.UI.SelectionRequired = false
	c.state.Outcome = OutcomeAdvanced
	c.deps.Observer.StepAdvanced(from.String(), to.String())
	c.log.Debug().Str("from", from.String()).Str("to", to.String()).Msg("step advanced")
}

func (c *Controller) block(reason string) {
	c.state.Outcome = OutcomeBlocked
	c.deps.Observer.TransitionBlocked(c.state.Step.String(), reason)
}

// fatal routes the session to the error page and reports message to the
// error sink. Callers hold mu.
func (c *Controller) fatal(ctx context.Context, message string) {
	c.markFailed(Navigation{Kind: NavigateError, URL: c.deps.ErrorURL})
	if err := c.deps.Errors.Report(ctx, c.id, message); err != nil {
		c.log.Error().Err(err).Msg("report fatal error")
	}
}

func (c *Controller) markFailed(nav Navigation) {
	c.state.Failed = true
	c.state.UI.Pending = false
	c.state.Outcome = OutcomeFailed
	c.state.Navigation = &nav
	c.deps.Observer.SessionFailed(c.state.Step.String())
	c.log.Warn().Str("step", c.state.Step.String()).Msg("enrollment routed to error page")
}

// asyncStep performs a backend call without the lock and returns a function
// that applies the result under the lock. apply reports false when the
// result no longer matches the session and was dropped.
type asyncStep func(ctx context.Context) (apply func() bool)

// runAsync marks the session pending, runs step and applies its result if
// the generation is unchanged.
func (c *Controller) runAsync(ctx context.Context, gen uint64, step asyncStep) View {
	apply := step(context.WithoutCancel(ctx))

	c.mu.Lock()
	defer c.mu.Unlock()
	v := func(o Outcome) View {
		view := c.state.view(c.id, c.countries)
		if o != OutcomeNone {
			view.Outcome = o
		}
		return view
	}
	if gen != c.generation {
		return v(OutcomeDiscarded)
	}
	c.state.UI.Pending = false
	if !apply() {
		return v(OutcomeDiscarded)
	}
	return v(OutcomeNone)
}

// Input records a field value and revalidates it together with the fields
// whose rules depend on it.
func (c *Controller) Input(ctx context.Context, key validation.Key, raw string) (View, error) {
	if _, ok := validation.Lookup(key); !ok {
		return View{}, fmt.Errorf("%w: %s", validation.ErrUnknownField, key)
	}
	if key == validation.PhysicianSearch {
		return c.SearchPractitioners(ctx, raw)
	}
	return c.run(ctx, "input", func(ctx context.Context) (View, error) {
		var country string
		var gen uint64
		err := c.withLock(func() error {
			if err := c.checkActive(); err != nil {
				return err
			}
			previous := c.state.value(key)
			res, err := validation.Validate(key, raw, c.vctx(key))
			if err != nil {
				return err
			}
			st := c.store(key, res)

			switch key {
			case validation.PreferredContactMethod:
				if c.state.Fields[validation.Phone].Touched {
					c.revalidate(validation.Phone)
				}
			case validation.HCPPhone, validation.HCPEmail:
				spec, _ := validation.Lookup(key)
				if c.state.Fields[spec.Counterpart].Touched {
					c.revalidate(spec.Counterpart)
				}
			case validation.Email, validation.FirstName, validation.LastName, validation.DOB:
				c.state.Dedup = DedupUnknown
			case validation.AccessCode:
				// A resolved practitioner belongs to the code it was resolved from.
				if st.RawValue != previous && c.state.Branch == BranchAccessCode {
					c.state.ResolvedHCPID = ""
				}
			case validation.Country:
				if st.RawValue != previous {
					c.state.Fields[validation.State] = validation.FieldState{}
					c.state.States = nil
					if st.RawValue != "" {
						country = st.RawValue
						gen = c.generation
					}
				}
			}
			return nil
		})
		if err != nil || country == "" {
			return c.View(), err
		}
		return c.loadStates(ctx, gen, country), nil
	})
}

// loadStates fetches the state options after a country change.
func (c *Controller) loadStates(ctx context.Context, gen uint64, country string) View {
	states, err := c.deps.Backend.ListStates(context.WithoutCancel(ctx), country)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.generation && !c.state.Failed {
		switch {
		case err != nil:
			c.fatal(context.WithoutCancel(ctx), fmt.Sprintf("list states: %v", err))
		case c.state.value(validation.Country) == country:
			c.state.States = states
		}
	}
	return c.state.view(c.id, c.countries)
}

// ChooseBranch records the access-code answer of the physician step.
// Changing the answer drops the other branch's resolution and errors.
func (c *Controller) ChooseBranch(ctx context.Context, hasAccessCode bool) (View, error) {
	return c.run(ctx, "choose_branch", func(ctx context.Context) (View, error) {
		err := c.withLock(func() error {
			if err := c.checkActive(); err != nil {
				return err
			}
			if c.state.Step != StepPhysicianInfo {
				return ErrInvalidTransition
			}
			branch := BranchReferringPractitioner
			if hasAccessCode {
				branch = BranchAccessCode
			}
			if branch != c.state.Branch {
				c.state.Branch = branch
				c.state.ResolvedHCPID = ""
				c.state.Practitioner = PractitionerChoice{Mode: PractitionerSearching}
				c.resetSearch()
				c.clearErrors(validation.SectionPhysician, "")
			}
			c.state.UI.SelectionRequired = false
			return nil
		})
		return c.View(), err
	})
}

func (c *Controller) resetSearch() {
	c.state.UI.SearchQuery = ""
	c.state.UI.SearchResults = nil
	c.state.UI.SearchResultEmpty = false
	c.state.Fields[validation.PhysicianSearch] = validation.FieldState{}
}

// SearchPractitioners filters the preloaded list. A non-empty query without
// results blocks the physician step until a selection or a cleared search.
func (c *Controller) SearchPractitioners(ctx context.Context, query string) (View, error) {
	return c.run(ctx, "search_practitioners", func(ctx context.Context) (View, error) {
		err := c.withLock(func() error {
			if err := c.checkActive(); err != nil {
				return err
			}
			if c.state.Branch != BranchReferringPractitioner {
				return ErrBranchRequired
			}
			q := strings.TrimSpace(validation.Sanitize(query))
			if c.state.Practitioner.Mode != PractitionerSearching {
				c.state.Practitioner = PractitionerChoice{Mode: PractitionerSearching}
				c.state.ResolvedHCPID = ""
			}
			c.state.UI.SelectionRequired = false
			if q == "" {
				c.resetSearch()
				c.state.Fields[validation.PhysicianSearch] = validation.FieldState{Touched: true}
				return nil
			}
			results := c.directory.Search(q)
			c.state.UI.SearchQuery = q
			c.state.UI.SearchResults = results
			c.state.UI.SearchResultEmpty = len(results) == 0
			fs := validation.FieldState{RawValue: q, Touched: true}
			if len(results) == 0 {
				fs.ErrorKind = validation.Required
			}
			c.state.Fields[validation.PhysicianSearch] = fs
			return nil
		})
		return c.View(), err
	})
}

// SelectPractitioner picks a practitioner from the preloaded list.
func (c *Controller) SelectPractitioner(ctx context.Context, id string) (View, error) {
	return c.run(ctx, "select_practitioner", func(ctx context.Context) (View, error) {
		err := c.withLock(func() error {
			if err := c.checkActive(); err != nil {
				return err
			}
			if c.state.Branch != BranchReferringPractitioner {
				return ErrBranchRequired
			}
			entry, ok := c.directory.Lookup(id)
			if !ok {
				return ErrPractitionerNotFound
			}
			c.state.Practitioner = PractitionerChoice{Mode: PractitionerSelected, ID: entry.ID}
			c.state.ResolvedHCPID = entry.ID
			c.state.UI.SearchQuery = entry.Name
			c.state.UI.SearchResults = nil
			c.state.UI.SearchResultEmpty = false
			c.state.UI.SelectionRequired = false
			c.state.Fields[validation.PhysicianSearch] = validation.FieldState{RawValue: entry.Name, Touched: true}
			return nil
		})
		return c.View(), err
	})
}

// ClearPractitioner drops the selection and the search, re-enabling the
// add-new affordance.
func (c *Controller) ClearPractitioner(ctx context.Context) (View, error) {
	return c.run(ctx, "clear_practitioner", func(ctx context.Context) (View, error) {
		err := c.withLock(func() error {
			if err := c.checkActive(); err != nil {
				return err
			}
			if c.state.Branch != BranchReferringPractitioner {
				return ErrBranchRequired
			}
			if c.state.Practitioner.Mode == PractitionerSelected {
				c.state.ResolvedHCPID = ""
				c.state.Practitioner = PractitionerChoice{Mode: PractitionerSearching}
			}
			c.resetSearch()
			return nil
		})
		return c.View(), err
	})
}

// ToggleNewPractitioner opens or closes the new-practitioner accordion. The
// search state and the new-practitioner errors are cleared; values are kept.
func (c *Controller) ToggleNewPractitioner(ctx context.Context) (View, error) {
	return c.run(ctx, "toggle_new_practitioner", func(ctx context.Context) (View, error) {
		err := c.withLock(func() error {
			if err := c.checkActive(); err != nil {
				return err
			}
			if c.state.Branch != BranchReferringPractitioner {
				return ErrBranchRequired
			}
			switch c.state.Practitioner.Mode {
			case PractitionerSelected:
				return ErrAddNewDisabled
			case PractitionerCreatingNew:
				c.state.Practitioner = PractitionerChoice{Mode: PractitionerSearching}
			default:
				c.state.Practitioner = PractitionerChoice{Mode: PractitionerCreatingNew}
			}
			c.resetSearch()
			c.clearErrors(validation.SectionPhysician, validation.GroupNewPractitioner)
			c.state.UI.SelectionRequired = false
			return nil
		})
		return c.View(), err
	})
}

// Next evaluates the guard of the current step and advances when it passes.
// Guards that need the backend release the lock during the call.
func (c *Controller) Next(ctx context.Context) (View, error) {
	return c.run(ctx, "next", func(ctx context.Context) (View, error) {
		var step asyncStep
		var gen uint64
		err := c.withLock(func() error {
			if err := c.checkActive(); err != nil {
				return err
			}
			if c.state.UI.Pending {
				return ErrTransitionPending
			}
			c.state.Outcome = OutcomeNone
			switch c.state.Step {
			case StepPatientInfo:
				step = c.patientGuard()
			case StepPhysicianInfo:
				step = c.physicianGuard()
			case StepContactInfo:
				c.contactGuard()
			default:
				return ErrInvalidTransition
			}
			if step != nil {
				c.state.UI.Pending = true
				gen = c.generation
			}
			return nil
		})
		if err != nil || step == nil {
			return c.View(), err
		}
		return c.runAsync(ctx, gen, step), nil
	})
}

func (c *Controller) candidate() Candidate {
	return Candidate{
		Email:       c.state.value(validation.Email),
		FirstName:   c.state.value(validation.FirstName),
		LastName:    c.state.value(validation.LastName),
		DateOfBirth: c.state.value(validation.DOB),
	}
}

// patientGuard validates the patient fields and, when the email is usable,
// plans the duplicate check.
func (c *Controller) patientGuard() asyncStep {
	c.validateSection(validation.SectionPatient, "")
	if !c.state.Fields[validation.Email].Valid() {
		c.block("patient_fields")
		return nil
	}
	cand := c.candidate()
	return func(ctx context.Context) func() bool {
		outcome, err := c.dedup.Check(ctx, cand)
		return func() bool {
			if err != nil {
				c.fatal(ctx, err.Error())
				return true
			}
			if c.candidate() != cand {
				return false
			}
			c.applyDedup(outcome)
			return true
		}
	}
}

func (c *Controller) applyDedup(outcome DedupOutcome) {
	c.state.Dedup = outcome.Result()
	switch c.state.Dedup {
	case DedupIdentityMatch:
		c.setError(validation.Email, validation.DuplicateValue)
		c.state.UI.AccountExistsModal = true
		c.state.Step = StepPatientInfo
		c.block("account_exists")
	case DedupEmailOnly:
		c.setError(validation.Email, validation.DuplicateValue)
		c.block("email_in_use")
	default:
		if c.sectionValid(validation.SectionPatient, "") {
			c.advance(StepPhysicianInfo)
		} else {
			c.block("patient_fields")
		}
	}
}

func (c *Controller) sectionValid(section validation.Section, group string) bool {
	for _, spec := range validation.Fields(section, group) {
		if !c.state.Fields[spec.Key].Valid() {
			return false
		}
	}
	return true
}

func (c *Controller) physicianGuard() asyncStep {
	switch c.state.Branch {
	case BranchAccessCode:
		st := c.revalidate(validation.AccessCode)
		if !st.Valid() {
			c.block("access_code")
			return nil
		}
		code := st.RawValue
		return func(ctx context.Context) func() bool {
			id, err := c.codes.Resolve(ctx, code)
			return func() bool {
				if err != nil {
					c.fatal(ctx, err.Error())
					return true
				}
				if c.state.Branch != BranchAccessCode || c.state.value(validation.AccessCode) != code {
					return false
				}
				c.state.ResolvedHCPID = id
				c.setError(validation.AccessCode, validation.None)
				c.advance(StepContactInfo)
				return true
			}
		}

	case BranchReferringPractitioner:
		switch c.state.Practitioner.Mode {
		case PractitionerSelected:
			c.advance(StepContactInfo)
		case PractitionerCreatingNew:
			if c.validateSection(validation.SectionPhysician, validation.GroupNewPractitioner) {
				c.advance(StepContactInfo)
			} else {
				c.block("new_practitioner")
			}
		default:
			c.setError(validation.PhysicianSearch, validation.Required)
			c.block("practitioner_required")
		}
		return nil

	default:
		c.state.UI.SelectionRequired = true
		c.block("selection_required")
		return nil
	}
}

func (c *Controller) contactGuard() {
	if c.validateSection(validation.SectionContact, "") {
		c.advance(StepConfirmation)
		return
	}
	c.block("contact_fields")
}

// Back moves to the previous step, or to target when it is an earlier step.
// It is ignored while a transition call is pending. Field values and errors
// are never touched.
func (c *Controller) Back(ctx context.Context, target Step) (View, error) {
	return c.run(ctx, "back", func(ctx context.Context) (View, error) {
		err := c.withLock(func() error {
			if err := c.checkActive(); err != nil {
				return err
			}
			if c.state.UI.Pending {
				return nil
			}
			current := c.state.Step
			if target == 0 {
				target = current - 1
				if target < StepPatientInfo {
					target = StepPatientInfo
				}
			}
			if !target.Valid() || target > current {
				return ErrInvalidTransition
			}
			if target != current {
				c.state.Step = target
				c.generation++
			}
			c.state.resetTransient(target <= StepPhysicianInfo)
			c.state.Outcome = OutcomeReturned
			return nil
		})
		return c.View(), err
	})
}

// DismissModal closes the account-exists modal.
func (c *Controller) DismissModal(ctx context.Context) (View, error) {
	return c.run(ctx, "dismiss_modal", func(ctx context.Context) (View, error) {
		err := c.withLock(func() error {
			if err := c.checkActive(); err != nil {
				return err
			}
			c.state.UI.AccountExistsModal = false
			return nil
		})
		return c.View(), err
	})
}

// Restart replaces the state with a fresh one for the same registrant.
// In-flight results of the old state are discarded.
func (c *Controller) Restart(ctx context.Context) (View, error) {
	return c.run(ctx, "restart", func(ctx context.Context) (View, error) {
		c.withLock(func() error {
			c.generation++
			c.state = newWizardState(c.state.Registrant)
			return nil
		})
		if err := c.deps.Storage.Clear(ctx, c.id); err != nil {
			c.log.Warn().Err(err).Msg("clear client storage on restart")
		}
		return c.View(), nil
	})
}

// Submit re-validates the collected data and hands it to the orchestrator.
func (c *Controller) Submit(ctx context.Context) (View, error) {
	return c.run(ctx, "submit", func(ctx context.Context) (View, error) {
		var in SubmissionInput
		var gen uint64
		err := c.withLock(func() error {
			if err := c.checkActive(); err != nil {
				return err
			}
			if c.state.UI.Pending {
				return ErrTransitionPending
			}
			if c.state.Step != StepConfirmation {
				return ErrInvalidTransition
			}
			c.state.Outcome = OutcomeNone
			if !c.submittable() {
				c.block("submission_invalid")
				return ErrSubmissionInvalid
			}
			in = c.submissionInput()
			c.state.UI.Pending = true
			gen = c.generation
			return nil
		})
		if err != nil {
			return c.View(), err
		}
		return c.runAsync(ctx, gen, func(ctx context.Context) func() bool {
			out, err := c.submitter.Submit(ctx, in)
			return func() bool {
				c.applySubmission(out, err)
				return true
			}
		}), nil
	})
}

// submittable re-runs every rule that applies to the chosen path.
func (c *Controller) submittable() bool {
	ok := c.validateSection(validation.SectionPatient, "")
	ok = c.validateSection(validation.SectionContact, "") && ok
	switch c.state.Branch {
	case BranchAccessCode:
		ok = c.revalidate(validation.AccessCode).Valid() && c.state.ResolvedHCPID != "" && ok
	case BranchReferringPractitioner:
		switch c.state.Practitioner.Mode {
		case PractitionerSelected:
			ok = c.state.ResolvedHCPID != "" && ok
		case PractitionerCreatingNew:
			ok = c.validateSection(validation.SectionPhysician, validation.GroupNewPractitioner) && ok
		default:
			ok = false
		}
	default:
		ok = false
	}
	return ok && c.state.Dedup == DedupNoMatch
}

func (c *Controller) submissionInput() SubmissionInput {
	f := func(k validation.Key) string { return c.state.value(k) }
	in := SubmissionInput{
		SessionID: c.id,
		HCPID:     c.state.ResolvedHCPID,
		Patient: PatientData{
			FirstName:              f(validation.FirstName),
			LastName:               f(validation.LastName),
			DateOfBirth:            f(validation.DOB),
			Gender:                 f(validation.Gender),
			Email:                  f(validation.Email),
			Phone:                  f(validation.Phone),
			PreferredContactMethod: f(validation.PreferredContactMethod),
			Country:                f(validation.Country),
			State:                  f(validation.State),
			City:                   f(validation.City),
			Street:                 f(validation.Street),
			Zip:                    f(validation.Zip),
			Registrant:             string(c.state.Registrant),
			Minor:                  c.state.Minor,
		},
		Category: consentCategory(c.state.Registrant, c.state.Minor),
	}
	if in.HCPID == "" {
		in.HCP, in.HCPDetail = newPractitionerData(c.state.Fields)
	}
	return in
}

func (c *Controller) applySubmission(out SubmissionOutcome, err error) {
	if c.state.ResolvedHCPID == "" {
		c.state.ResolvedHCPID = out.HCPID
	}
	if out.LeadID != "" {
		c.state.LeadID = out.LeadID
	}
	if out.ConsentID != "" {
		c.state.ConsentID = out.ConsentID
		c.state.ConsentCategory = out.Category
	}
	if err != nil {
		c.log.Error().Err(err).Msg("submission failed")
		c.markFailed(out.Navigation)
		return
	}
	nav := out.Navigation
	c.state.Navigation = &nav
	c.state.Completed = true
	c.state.Outcome = OutcomeCompleted
	c.deps.Observer.SubmissionCompleted(out.Category)
	c.log.Info().Str("lead_id", out.LeadID).Str("consent_id", out.ConsentID).Msg("enrollment submitted")
}

// IsClientError reports whether err is caused by the request rather than the
// server.
func IsClientError(err error) bool {
	for _, target := range []error{
		ErrSessionFailed, ErrSessionCompleted, ErrTransitionPending, ErrInvalidTransition,
		ErrBranchRequired, ErrPractitionerNotFound, ErrAddNewDisabled, ErrSubmissionInvalid,
		validation.ErrUnknownField,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

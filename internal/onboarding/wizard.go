package onboarding

import (
	"context"
	"strings"
	"sync"

	"upgradify/internal/domain"
	"upgradify/internal/navigation"
	"upgradify/pkg/errors"
	"upgradify/pkg/logger"
)

// Step is a wizard state
type Step int

const (
	StepCredentials Step = iota
	StepProfileSurvey
	StepConfirmation
)

var stepTitles = map[Step]string{
	StepCredentials:   "Sign Up",
	StepProfileSurvey: "Profile Setup",
	StepConfirmation:  "Welcome",
}

var stepNames = map[Step]string{
	StepCredentials:   "credentials",
	StepProfileSurvey: "profile_survey",
	StepConfirmation:  "confirmation",
}

// Title is the heading shown for the step
func (s Step) Title() string {
	return stepTitles[s]
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "unknown"
}

// Submission outcomes reported to the Observer
const (
	OutcomeAdvanced = "advanced"
	OutcomeInvalid  = "invalid"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

// SessionStore is the part of the Session Store the wizard drives
type SessionStore interface {
	Signup(ctx context.Context, email, password string, extra domain.ProfileFields) (*domain.Identity, error)
	LoginWithFederatedProvider(ctx context.Context) (*domain.Identity, error)
	UpdateProfile(ctx context.Context, id string, fields domain.ProfileFields) error
}

// Observer receives submission outcomes per step
type Observer interface {
	WizardSubmission(step, outcome string)
}

type nopObserver struct{}

func (nopObserver) WizardSubmission(string, string) {}

// State is a rendering copy of the wizard
type State struct {
	Step        Step                   `json:"step"`
	Title       string                 `json:"title"`
	FieldValues map[string]interface{} `json:"field_values"`
	FieldErrors map[string]string      `json:"field_errors"`
	Submitting  bool                   `json:"submitting"`
	LastError   *string                `json:"last_error"`
	Finished    bool                   `json:"finished"`
}

// Wizard drives signup and the profile survey:
// credentials (0) -> profile survey (1) -> confirmation (2).
// Steps only move forward; a fresh Wizard is needed to start over.
type Wizard struct {
	store    SessionStore
	logger   *logger.Logger
	observer Observer

	mu          sync.Mutex
	step        Step
	values      map[string]interface{}
	fieldErrors map[string]string
	submitting  bool
	lastError   *string
	finished    bool
	identity    *domain.Identity
	interests   []string
}

// NewWizard mounts a wizard at the credentials step. observer may be nil.
func NewWizard(store SessionStore, log *logger.Logger, observer Observer) *Wizard {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Wizard{
		store:       store,
		logger:      log.Component("onboarding"),
		observer:    observer,
		step:        StepCredentials,
		values:      map[string]interface{}{},
		fieldErrors: map[string]string{},
	}
}

// SubmitCredentials validates the signup form and creates the account.
// Invalid input never reaches the Session Store.
func (w *Wizard) SubmitCredentials(ctx context.Context, c Credentials) error {
	w.mu.Lock()
	if err := w.checkLocked(StepCredentials); err != nil {
		w.mu.Unlock()
		return err
	}

	w.values["name"] = c.Name
	w.values["email"] = c.Email

	if fieldErrors := ValidateCredentials(c); len(fieldErrors) > 0 {
		w.fieldErrors = fieldErrors
		w.mu.Unlock()
		w.observer.WizardSubmission(StepCredentials.String(), OutcomeInvalid)
		return errors.NewFieldValidationError("Please correct the highlighted fields", fieldErrors)
	}
	w.beginLocked()
	w.mu.Unlock()

	name := strings.TrimSpace(c.Name)
	identity, err := w.store.Signup(ctx, strings.TrimSpace(c.Email), c.Password, domain.ProfileFields{Name: &name})
	return w.complete(StepCredentials, identity, err)
}

// SubmitFederated signs up through the federated provider, skipping form validation
func (w *Wizard) SubmitFederated(ctx context.Context) error {
	w.mu.Lock()
	if err := w.checkLocked(StepCredentials); err != nil {
		w.mu.Unlock()
		return err
	}
	w.fieldErrors = map[string]string{}
	w.beginLocked()
	w.mu.Unlock()

	identity, err := w.store.LoginWithFederatedProvider(ctx)
	return w.complete(StepCredentials, identity, err)
}

// ToggleInterest adds tag to the interest set, or removes it if present.
// The set keeps insertion order.
func (w *Wizard) ToggleInterest(tag string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.availableLocked(StepProfileSurvey); err != nil {
		return err
	}
	if !domain.IsInterestTag(tag) {
		return errors.NewFieldValidationError("Unknown interest", map[string]string{"interests": "Unknown interest"})
	}

	for i, existing := range w.interests {
		if existing == tag {
			w.interests = append(w.interests[:i:i], w.interests[i+1:]...)
			w.values["interests"] = append([]string{}, w.interests...)
			return nil
		}
	}
	w.interests = append(w.interests, tag)
	w.values["interests"] = append([]string{}, w.interests...)
	delete(w.fieldErrors, "interests")
	return nil
}

// SubmitSurvey validates the survey and saves the answers to the profile.
// Interests come from the toggled set.
func (w *Wizard) SubmitSurvey(ctx context.Context, s Survey) error {
	w.mu.Lock()
	if err := w.checkLocked(StepProfileSurvey); err != nil {
		w.mu.Unlock()
		return err
	}

	s.Interests = append([]string{}, w.interests...)
	w.values["age"] = s.Age
	w.values["grade"] = s.Grade
	w.values["career_goal"] = s.CareerGoal
	w.values["target_college"] = s.TargetCollege
	w.values["target_job"] = s.TargetJob

	if fieldErrors := ValidateSurvey(s); len(fieldErrors) > 0 {
		w.fieldErrors = fieldErrors
		w.mu.Unlock()
		w.observer.WizardSubmission(StepProfileSurvey.String(), OutcomeInvalid)
		return errors.NewFieldValidationError("Please correct the highlighted fields", fieldErrors)
	}
	identity := w.identity.Clone()
	w.beginLocked()
	w.mu.Unlock()

	err := w.store.UpdateProfile(ctx, identity.ID, surveyFields(s))
	return w.complete(StepProfileSurvey, identity, err)
}

// Finish leaves the confirmation step for the dashboard. The wizard accepts
// no further actions afterwards.
func (w *Wizard) Finish(router navigation.Router) error {
	w.mu.Lock()
	if err := w.checkLocked(StepConfirmation); err != nil {
		w.mu.Unlock()
		return err
	}
	w.finished = true
	w.mu.Unlock()

	w.logger.Debug("Onboarding finished")
	router.Navigate(navigation.PathDashboard)
	return nil
}

// State returns a copy of the wizard state
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	values := make(map[string]interface{}, len(w.values))
	for k, v := range w.values {
		if list, ok := v.([]string); ok {
			v = append([]string{}, list...)
		}
		values[k] = v
	}
	fieldErrors := make(map[string]string, len(w.fieldErrors))
	for k, v := range w.fieldErrors {
		fieldErrors[k] = v
	}
	var lastError *string
	if w.lastError != nil {
		msg := *w.lastError
		lastError = &msg
	}

	return State{
		Step:        w.step,
		Title:       w.step.Title(),
		FieldValues: values,
		FieldErrors: fieldErrors,
		Submitting:  w.submitting,
		LastError:   lastError,
		Finished:    w.finished,
	}
}

// checkLocked gates a submit action and records a rejection
func (w *Wizard) checkLocked(step Step) error {
	err := w.availableLocked(step)
	if err != nil {
		w.observer.WizardSubmission(step.String(), OutcomeRejected)
	}
	return err
}

func (w *Wizard) availableLocked(step Step) error {
	switch {
	case w.finished:
		return errors.NewConflictError("Onboarding is already finished")
	case w.submitting:
		return errors.NewConflictError("A submission is already in progress")
	case w.step != step:
		return errors.NewConflictError("This action is not available at the current step")
	}
	return nil
}

func (w *Wizard) beginLocked() {
	w.fieldErrors = map[string]string{}
	w.submitting = true
	w.lastError = nil
}

// complete ends an in-flight submission, advancing on success
func (w *Wizard) complete(step Step, identity *domain.Identity, err error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false

	if err != nil {
		msg := errors.Message(err)
		w.lastError = &msg
		w.observer.WizardSubmission(step.String(), OutcomeFailed)
		w.logger.WithError(err).WithField("step", step.String()).Warn("Onboarding step failed")
		return err
	}

	w.identity = identity.Clone()
	w.step = step + 1
	w.observer.WizardSubmission(step.String(), OutcomeAdvanced)
	w.logger.WithField("step", w.step.String()).Debug("Onboarding advanced")
	return nil
}

func surveyFields(s Survey) domain.ProfileFields {
	age, _ := parseAge(s.Age)
	grade := s.Grade
	careerGoal := s.CareerGoal
	fields := domain.ProfileFields{
		Age:        &age,
		Grade:      &grade,
		Interests:  append([]string{}, s.Interests...),
		CareerGoal: &careerGoal,
	}
	if college := sanitizeText(s.TargetCollege); college != "" {
		fields.TargetCollege = &college
	}
	if job := sanitizeText(s.TargetJob); job != "" {
		fields.TargetJob = &job
	}
	return fields
}

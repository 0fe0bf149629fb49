package handler

import (
	"fmt"
	"net/http"
	"sync"

	"upgradify/internal/middleware"
	"upgradify/internal/navigation"
	"upgradify/internal/onboarding"
	"upgradify/pkg/errors"
	"upgradify/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// OnboardingHandler hosts the single onboarding wizard of this process.
// POST /api/onboarding mounts a fresh one; the other routes act on it.
type OnboardingHandler struct {
	store    onboarding.SessionStore
	observer onboarding.Observer
	logger   *logger.Logger

	mu     sync.Mutex
	wizard *onboarding.Wizard
}

func NewOnboardingHandler(store onboarding.SessionStore, observer onboarding.Observer, log *logger.Logger) *OnboardingHandler {
	return &OnboardingHandler{
		store:    store,
		observer: observer,
		logger:   log,
	}
}

// OnboardingResponse carries the wizard state and, after finishing, the next view
type OnboardingResponse struct {
	Success  bool             `json:"success"`
	State    onboarding.State `json:"state"`
	Redirect string           `json:"redirect,omitempty"`
}

// surveyRequest accepts age as either a JSON number or a string. Interests
// are not part of the body; they come from the toggled set.
type surveyRequest struct {
	Age           interface{} `json:"age"`
	Grade         string      `json:"grade"`
	CareerGoal    string      `json:"career_goal"`
	TargetCollege string      `json:"target_college"`
	TargetJob     string      `json:"target_job"`
}

func (s surveyRequest) survey() onboarding.Survey {
	age := ""
	if s.Age != nil {
		age = fmt.Sprint(s.Age)
	}
	return onboarding.Survey{
		Age:           age,
		Grade:         s.Grade,
		CareerGoal:    s.CareerGoal,
		TargetCollege: s.TargetCollege,
		TargetJob:     s.TargetJob,
	}
}

// Start handles POST /api/onboarding
func (h *OnboardingHandler) Start(w http.ResponseWriter, r *http.Request) {
	wizard := onboarding.NewWizard(h.store, h.logger, h.observer)

	h.mu.Lock()
	h.wizard = wizard
	h.mu.Unlock()

	h.writeState(w, http.StatusCreated, wizard, "")
}

// Get handles GET /api/onboarding
func (h *OnboardingHandler) Get(w http.ResponseWriter, r *http.Request) {
	wizard, ok := h.current(w, r)
	if !ok {
		return
	}
	h.writeState(w, http.StatusOK, wizard, "")
}

// SubmitCredentials handles POST /api/onboarding/credentials
func (h *OnboardingHandler) SubmitCredentials(w http.ResponseWriter, r *http.Request) {
	wizard, ok := h.current(w, r)
	if !ok {
		return
	}

	var creds onboarding.Credentials
	if err := decodeJSON(r, &creds); err != nil {
		middleware.WriteError(w, r, h.logger, err)
		return
	}

	if err := wizard.SubmitCredentials(r.Context(), creds); err != nil {
		middleware.WriteError(w, r, h.logger, err)
		return
	}
	h.writeState(w, http.StatusOK, wizard, "")
}

// SubmitFederated handles POST /api/onboarding/federated
func (h *OnboardingHandler) SubmitFederated(w http.ResponseWriter, r *http.Request) {
	wizard, ok := h.current(w, r)
	if !ok {
		return
	}

	if err := wizard.SubmitFederated(r.Context()); err != nil {
		middleware.WriteError(w, r, h.logger, err)
		return
	}
	h.writeState(w, http.StatusOK, wizard, "")
}

// ToggleInterest handles POST /api/onboarding/interests/{tag}
func (h *OnboardingHandler) ToggleInterest(w http.ResponseWriter, r *http.Request) {
	wizard, ok := h.current(w, r)
	if !ok {
		return
	}

	if err := wizard.ToggleInterest(chi.URLParam(r, "tag")); err != nil {
		middleware.WriteError(w, r, h.logger, err)
		return
	}
	h.writeState(w, http.StatusOK, wizard, "")
}

// SubmitSurvey handles POST /api/onboarding/survey
func (h *OnboardingHandler) SubmitSurvey(w http.ResponseWriter, r *http.Request) {
	wizard, ok := h.current(w, r)
	if !ok {
		return
	}

	var req surveyRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, r, h.logger, err)
		return
	}

	if err := wizard.SubmitSurvey(r.Context(), req.survey()); err != nil {
		middleware.WriteError(w, r, h.logger, err)
		return
	}
	h.writeState(w, http.StatusOK, wizard, "")
}

// Finish handles POST /api/onboarding/finish
func (h *OnboardingHandler) Finish(w http.ResponseWriter, r *http.Request) {
	wizard, ok := h.current(w, r)
	if !ok {
		return
	}

	router := navigation.NewRecorder()
	if err := wizard.Finish(router); err != nil {
		middleware.WriteError(w, r, h.logger, err)
		return
	}
	h.writeState(w, http.StatusOK, wizard, router.Last())
}

func (h *OnboardingHandler) current(w http.ResponseWriter, r *http.Request) (*onboarding.Wizard, bool) {
	h.mu.Lock()
	wizard := h.wizard
	h.mu.Unlock()

	if wizard == nil {
		middleware.WriteError(w, r, h.logger, errors.NewNotFoundError("No onboarding in progress"))
		return nil, false
	}
	return wizard, true
}

func (h *OnboardingHandler) writeState(w http.ResponseWriter, status int, wizard *onboarding.Wizard, redirect string) {
	middleware.WriteJSON(w, h.logger, status, OnboardingResponse{
		Success:  true,
		State:    wizard.State(),
		Redirect: redirect,
	})
}

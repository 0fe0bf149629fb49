package dashboard

import (
	"fmt"
	"unicode/utf8"

	"upgradify/internal/domain"
	"upgradify/internal/navigation"
	"upgradify/pkg/errors"
)

// View is the dashboard as rendered for the current session
type View struct {
	Name                     string                  `json:"name"`
	Initial                  string                  `json:"initial"`
	Email                    string                  `json:"email"`
	Points                   int                     `json:"points"`
	DailyRecommendations     int                     `json:"daily_recommendations"`
	UsageLabel               string                  `json:"usage_label"`
	CanRequestRecommendation bool                    `json:"can_request_recommendation"`
	Menu                     []domain.MenuItem       `json:"menu"`
	Recommendations          []domain.Recommendation `json:"recommendations"`
	ActionPlans              []domain.ActionPlan     `json:"action_plans"`
	Badges                   []domain.Badge          `json:"badges"`
}

// BuildView combines the session with dashboard content. A session without a
// profile renders with defaults.
func BuildView(session domain.Session, content *Content) View {
	profile := session.Profile

	view := View{
		Name:                     "User",
		Initial:                  "U",
		CanRequestRecommendation: domain.CanRequestRecommendation(profile),
		Menu:                     content.Menu,
		Recommendations:          content.Recommendations,
		ActionPlans:              content.ActionPlans,
		Badges:                   content.Badges,
	}
	if session.Identity != nil {
		view.Email = session.Identity.Email
	}

	if profile != nil {
		if profile.Name != "" {
			view.Name = profile.Name
			r, _ := utf8.DecodeRuneInString(profile.Name)
			view.Initial = string(r)
		}
		if profile.Email != "" {
			view.Email = profile.Email
		}
		view.Points = profile.Points
		view.DailyRecommendations = profile.DailyRecommendations
	}

	view.UsageLabel = fmt.Sprintf("%d/%d used today", view.DailyRecommendations, domain.DailyRecommendationLimit)
	return view
}

// RequestRecommendation opens the recommendations view if today's allowance
// is not used up. The counter itself is not changed here.
func RequestRecommendation(profile *domain.Profile, router navigation.Router) error {
	if !domain.CanRequestRecommendation(profile) {
		return errors.NewConflictError("Daily recommendation limit reached")
	}
	router.Navigate(navigation.PathRecommendations)
	return nil
}

package domain

import (
	"testing"
)

func TestCanRequestRecommendation(t *testing.T) {
	tests := []struct {
		name     string
		profile  *Profile
		expected bool
	}{
		{name: "no profile", profile: nil, expected: true},
		{name: "unused", profile: &Profile{DailyRecommendations: 0}, expected: true},
		{name: "one below limit", profile: &Profile{DailyRecommendations: 2}, expected: true},
		{name: "at limit", profile: &Profile{DailyRecommendations: 3}, expected: false},
		{name: "above limit", profile: &Profile{DailyRecommendations: 4}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanRequestRecommendation(tt.profile); got != tt.expected {
				t.Errorf("CanRequestRecommendation() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestOnboardingOptions(t *testing.T) {
	if !IsInterestTag("Technology") || IsInterestTag("technology") {
		t.Error("interest tags must match exactly")
	}
	if !IsGradeOption("Working Professional") || IsGradeOption("") {
		t.Error("unexpected grade option result")
	}
	if !IsCareerGoal("Switch careers") || IsCareerGoal("Retire") {
		t.Error("unexpected career goal result")
	}
}

func TestSession_CloneAndSignedIn(t *testing.T) {
	s := Session{Identity: &Identity{ID: "u1"}, Profile: &Profile{ID: "u1", Points: 1}, Ready: true}

	c := s.Clone()
	c.Profile.Points = 99
	c.Identity.Email = "changed"

	if s.Profile.Points != 1 || s.Identity.Email != "" {
		t.Error("clone shares state with the original session")
	}
	if !s.SignedIn() || (Session{}).SignedIn() {
		t.Error("unexpected SignedIn result")
	}
	if !(*Identity)(nil).SameAs(nil) || (&Identity{ID: "a"}).SameAs(nil) || !(&Identity{ID: "a"}).SameAs(&Identity{ID: "a"}) {
		t.Error("unexpected SameAs result")
	}
}

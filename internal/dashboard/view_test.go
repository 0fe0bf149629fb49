package dashboard

import (
	"testing"

	"upgradify/internal/domain"
	"upgradify/internal/navigation"
	"upgradify/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildView(t *testing.T) {
	content := &Content{Menu: []domain.MenuItem{{Label: "Dashboard", Path: navigation.PathDashboard}}}

	t.Run("profile values", func(t *testing.T) {
		session := domain.Session{
			Identity: &domain.Identity{ID: "u-1", Email: "ann@example.com"},
			Profile:  &domain.Profile{ID: "u-1", Name: "Ann", Email: "ann@example.com", Points: 40, DailyRecommendations: 2},
			Ready:    true,
		}

		view := BuildView(session, content)
		assert.Equal(t, "Ann", view.Name)
		assert.Equal(t, "A", view.Initial)
		assert.Equal(t, 40, view.Points)
		assert.Equal(t, "2/3 used today", view.UsageLabel)
		assert.True(t, view.CanRequestRecommendation)
		assert.Equal(t, content.Menu, view.Menu)
	})

	t.Run("fallbacks without profile", func(t *testing.T) {
		session := domain.Session{Identity: &domain.Identity{ID: "u-1", Email: "ann@example.com"}, Ready: true}

		view := BuildView(session, content)
		assert.Equal(t, "User", view.Name)
		assert.Equal(t, "U", view.Initial)
		assert.Equal(t, "ann@example.com", view.Email)
		assert.Equal(t, "0/3 used today", view.UsageLabel)
		assert.True(t, view.CanRequestRecommendation)
	})

	t.Run("multibyte initial", func(t *testing.T) {
		session := domain.Session{Profile: &domain.Profile{Name: "Élodie"}}
		assert.Equal(t, "É", BuildView(session, content).Initial)
	})

	t.Run("limit reached", func(t *testing.T) {
		session := domain.Session{Profile: &domain.Profile{Name: "Ann", DailyRecommendations: 3}}
		view := BuildView(session, content)
		assert.False(t, view.CanRequestRecommendation)
		assert.Equal(t, "3/3 used today", view.UsageLabel)
	})
}

func TestRequestRecommendation(t *testing.T) {
	tests := []struct {
		name    string
		used    int
		allowed bool
	}{
		{"two used", 2, true},
		{"three used", 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := navigation.NewRecorder()
			profile := &domain.Profile{DailyRecommendations: tt.used}

			err := RequestRecommendation(profile, router)
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, navigation.PathRecommendations, router.Last())
			} else {
				assert.True(t, errors.IsType(err, errors.ErrorTypeConflict))
				assert.Empty(t, router.Targets())
			}
			assert.Equal(t, tt.used, profile.DailyRecommendations)
		})
	}
}

package domain

// DailyRecommendationLimit is the number of recommendations a user may request per day
const DailyRecommendationLimit = 3

// CanRequestRecommendation reports whether the daily counter is below the limit.
// A missing profile counts as zero usage.
func CanRequestRecommendation(p *Profile) bool {
	return dailyRecommendations(p) < DailyRecommendationLimit
}

func dailyRecommendations(p *Profile) int {
	if p == nil {
		return 0
	}
	return p.DailyRecommendations
}

// Recommendation is a suggested career path shown on the dashboard
type Recommendation struct {
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Match       int      `json:"match" yaml:"match"`
	Tags        []string `json:"tags" yaml:"tags"`
}

// ActionPlan tracks progress through a list of steps
type ActionPlan struct {
	Title          string   `json:"title" yaml:"title"`
	Progress       int      `json:"progress" yaml:"progress"`
	Steps          []string `json:"steps" yaml:"steps"`
	CompletedSteps int      `json:"completed_steps" yaml:"completed_steps"`
}

// Badge is an achievement a user can earn
type Badge struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Icon        string `json:"icon" yaml:"icon"`
}

// MenuItem is a dashboard navigation entry
type MenuItem struct {
	Label string `json:"label" yaml:"label"`
	Path  string `json:"path" yaml:"path"`
}

// Feature is a selling point shown on the landing page
type Feature struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// Landing is the marketing page content
type Landing struct {
	Headline     string    `json:"headline" yaml:"headline"`
	Tagline      string    `json:"tagline" yaml:"tagline"`
	Features     []Feature `json:"features" yaml:"features"`
	CallToAction MenuItem  `json:"call_to_action" yaml:"call_to_action"`
}

package navigation

import "sync"

// View paths
const (
	PathLanding         = "/"
	PathOnboarding      = "/onboarding"
	PathDashboard       = "/dashboard"
	PathRecommendations = "/recommendations"
	PathActionPlans     = "/action-plans"
	PathTemplates       = "/templates"
	PathLeaderboard     = "/leaderboard"
	PathProfile         = "/profile"
)

// Router moves the user between views
type Router interface {
	Navigate(path string)
}

// Recorder is a Router that remembers where it was sent. Handlers use one
// per request and return the last target as the redirect.
type Recorder struct {
	mu      sync.Mutex
	targets []string
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets = append(r.targets, path)
}

// Last returns the most recent target, or ""
func (r *Recorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.targets) == 0 {
		return ""
	}
	return r.targets[len(r.targets)-1]
}

// Targets returns every navigation in order
func (r *Recorder) Targets() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.targets...)
}

package dashboard

import (
	"context"
	_ "embed"
	"fmt"

	"upgradify/internal/domain"

	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var defaultContent []byte

// Content is everything the landing page and dashboard display besides the session
type Content struct {
	Landing         domain.Landing          `json:"landing" yaml:"landing"`
	Menu            []domain.MenuItem       `json:"menu" yaml:"menu"`
	Recommendations []domain.Recommendation `json:"recommendations" yaml:"recommendations"`
	ActionPlans     []domain.ActionPlan     `json:"action_plans" yaml:"action_plans"`
	Badges          []domain.Badge          `json:"badges" yaml:"badges"`
}

// ContentProvider supplies dashboard content. The static provider serves mock
// data; a recommendation engine can replace it without touching the session.
type ContentProvider interface {
	Content(ctx context.Context) (*Content, error)
}

// StaticProvider serves content parsed once from YAML
type StaticProvider struct {
	content Content
}

var _ ContentProvider = (*StaticProvider)(nil)

// NewStaticProvider loads the embedded mock content
func NewStaticProvider() (*StaticProvider, error) {
	return NewStaticProviderFromYAML(defaultContent)
}

// NewStaticProviderFromYAML parses content from data
func NewStaticProviderFromYAML(data []byte) (*StaticProvider, error) {
	var content Content
	if err := yaml.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("failed to parse dashboard content: %w", err)
	}

	for i := range content.ActionPlans {
		plan := &content.ActionPlans[i]
		if plan.Progress < 0 || plan.Progress > 100 {
			return nil, fmt.Errorf("action plan %q: progress %d out of range", plan.Title, plan.Progress)
		}
		plan.CompletedSteps = len(plan.Steps) * plan.Progress / 100
	}
	for _, rec := range content.Recommendations {
		if rec.Match < 0 || rec.Match > 100 {
			return nil, fmt.Errorf("recommendation %q: match %d out of range", rec.Title, rec.Match)
		}
	}

	return &StaticProvider{content: content}, nil
}

// Content returns a copy of the content
func (p *StaticProvider) Content(ctx context.Context) (*Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := p.content.clone()
	return &c, nil
}

func (c Content) clone() Content {
	out := Content{
		Landing: c.Landing,
		Menu:    append([]domain.MenuItem(nil), c.Menu...),
		Badges:  append([]domain.Badge(nil), c.Badges...),
	}
	out.Landing.Features = append([]domain.Feature(nil), c.Landing.Features...)

	out.Recommendations = make([]domain.Recommendation, len(c.Recommendations))
	for i, rec := range c.Recommendations {
		rec.Tags = append([]string(nil), rec.Tags...)
		out.Recommendations[i] = rec
	}
	out.ActionPlans = make([]domain.ActionPlan, len(c.ActionPlans))
	for i, plan := range c.ActionPlans {
		plan.Steps = append([]string(nil), plan.Steps...)
		out.ActionPlans[i] = plan
	}
	return out
}

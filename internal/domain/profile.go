package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Profile is the application-owned record of a user's accumulated state
type Profile struct {
	ID                     string     `json:"id"`
	Email                  string     `json:"email"`
	Name                   string     `json:"name"`
	CreatedAt              time.Time  `json:"created_at"`
	Points                 int        `json:"points"`
	Badges                 []string   `json:"badges"`
	DailyRecommendations   int        `json:"daily_recommendations"`
	LastRecommendationDate *time.Time `json:"last_recommendation_date"`

	// Survey answers collected during onboarding
	Age           *int     `json:"age,omitempty"`
	Grade         string   `json:"grade,omitempty"`
	Interests     []string `json:"interests,omitempty"`
	CareerGoal    string   `json:"career_goal,omitempty"`
	TargetCollege string   `json:"target_college,omitempty"`
	TargetJob     string   `json:"target_job,omitempty"`
}

// Document is the schemaless representation written to the profile store
type Document map[string]interface{}

// NewProfile returns the default profile shape for a freshly created identity
func NewProfile(identity *Identity, now time.Time) *Profile {
	return &Profile{
		ID:                     identity.ID,
		Email:                  identity.Email,
		Name:                   identity.DisplayName,
		CreatedAt:              now.UTC(),
		Points:                 0,
		Badges:                 []string{},
		DailyRecommendations:   0,
		LastRecommendationDate: nil,
	}
}

// Clone returns a deep copy of the profile, or nil
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	if p.Badges != nil {
		c.Badges = append([]string{}, p.Badges...)
	}
	if p.Interests != nil {
		c.Interests = append([]string{}, p.Interests...)
	}
	if p.Age != nil {
		age := *p.Age
		c.Age = &age
	}
	if p.LastRecommendationDate != nil {
		d := *p.LastRecommendationDate
		c.LastRecommendationDate = &d
	}
	return &c
}

// Document converts the full profile into a store document
func (p *Profile) Document() (Document, error) {
	return toDocument(p)
}

// ProfileFromDocument decodes a store document into a Profile
func ProfileFromDocument(doc Document) (*Profile, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile document: %w", err)
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode profile document: %w", err)
	}
	if p.Badges == nil {
		p.Badges = []string{}
	}
	return &p, nil
}

// ProfileFields is a partial profile. Nil fields are left untouched by a merge.
type ProfileFields struct {
	Email                  *string    `json:"email,omitempty"`
	Name                   *string    `json:"name,omitempty"`
	Points                 *int       `json:"points,omitempty"`
	Badges                 []string   `json:"badges,omitempty"`
	DailyRecommendations   *int       `json:"daily_recommendations,omitempty"`
	LastRecommendationDate *time.Time `json:"last_recommendation_date,omitempty"`
	Age                    *int       `json:"age,omitempty"`
	Grade                  *string    `json:"grade,omitempty"`
	Interests              []string   `json:"interests,omitempty"`
	CareerGoal             *string    `json:"career_goal,omitempty"`
	TargetCollege          *string    `json:"target_college,omitempty"`
	TargetJob              *string    `json:"target_job,omitempty"`
}

// IsEmpty reports whether no field is set
func (f ProfileFields) IsEmpty() bool {
	return f.Email == nil && f.Name == nil && f.Points == nil && f.Badges == nil &&
		f.DailyRecommendations == nil && f.LastRecommendationDate == nil && f.Age == nil &&
		f.Grade == nil && f.Interests == nil && f.CareerGoal == nil &&
		f.TargetCollege == nil && f.TargetJob == nil
}

// Validate checks the counters stay non-negative
func (f ProfileFields) Validate() map[string]string {
	violations := map[string]string{}
	if f.Points != nil && *f.Points < 0 {
		violations["points"] = "Points cannot be negative"
	}
	if f.DailyRecommendations != nil && *f.DailyRecommendations < 0 {
		violations["daily_recommendations"] = "Daily recommendations cannot be negative"
	}
	return violations
}

// ApplyTo merges the set fields into p, last write wins per field
func (f ProfileFields) ApplyTo(p *Profile) {
	if f.Email != nil {
		p.Email = *f.Email
	}
	if f.Name != nil {
		p.Name = *f.Name
	}
	if f.Points != nil {
		p.Points = *f.Points
	}
	if f.Badges != nil {
		p.Badges = append([]string{}, f.Badges...)
	}
	if f.DailyRecommendations != nil {
		p.DailyRecommendations = *f.DailyRecommendations
	}
	if f.LastRecommendationDate != nil {
		d := *f.LastRecommendationDate
		p.LastRecommendationDate = &d
	}
	if f.Age != nil {
		age := *f.Age
		p.Age = &age
	}
	if f.Grade != nil {
		p.Grade = *f.Grade
	}
	if f.Interests != nil {
		p.Interests = append([]string{}, f.Interests...)
	}
	if f.CareerGoal != nil {
		p.CareerGoal = *f.CareerGoal
	}
	if f.TargetCollege != nil {
		p.TargetCollege = *f.TargetCollege
	}
	if f.TargetJob != nil {
		p.TargetJob = *f.TargetJob
	}
}

// Document converts the set fields into a merge document. An empty but
// non-nil slice is kept so it can clear the stored list.
func (f ProfileFields) Document() Document {
	doc := Document{}
	setString := func(key string, v *string) {
		if v != nil {
			doc[key] = *v
		}
	}
	setInt := func(key string, v *int) {
		if v != nil {
			doc[key] = *v
		}
	}

	setString("email", f.Email)
	setString("name", f.Name)
	setInt("points", f.Points)
	if f.Badges != nil {
		doc["badges"] = append([]string{}, f.Badges...)
	}
	setInt("daily_recommendations", f.DailyRecommendations)
	if f.LastRecommendationDate != nil {
		doc["last_recommendation_date"] = f.LastRecommendationDate.UTC().Format(time.RFC3339Nano)
	}
	setInt("age", f.Age)
	setString("grade", f.Grade)
	if f.Interests != nil {
		doc["interests"] = append([]string{}, f.Interests...)
	}
	setString("career_goal", f.CareerGoal)
	setString("target_college", f.TargetCollege)
	setString("target_job", f.TargetJob)
	return doc
}

func toDocument(v interface{}) (Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile: %w", err)
	}
	doc := Document{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to build profile document: %w", err)
	}
	return doc, nil
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string { return &s }

// IntPtr returns a pointer to n
func IntPtr(n int) *int { return &n }

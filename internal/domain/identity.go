package domain

// Identity is the authenticated principal reported by the identity provider.
// The core treats it as read-only.
type Identity struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	DisplayName   string `json:"display_name"`
	Provider      string `json:"provider"`
	EmailVerified bool   `json:"email_verified"`
}

// Identity providers
const (
	ProviderEmail  = "email"
	ProviderGoogle = "google"
)

// Clone returns a copy of the identity, or nil
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

// SameAs reports whether both identities refer to the same principal
func (i *Identity) SameAs(other *Identity) bool {
	if i == nil || other == nil {
		return i == nil && other == nil
	}
	return i.ID == other.ID
}

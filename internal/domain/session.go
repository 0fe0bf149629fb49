package domain

// Session pairs the current identity with its profile. Ready turns true once
// the first identity notification has been resolved.
type Session struct {
	Identity *Identity `json:"identity"`
	Profile  *Profile  `json:"profile"`
	Ready    bool      `json:"ready"`
}

// Clone returns a deep copy safe to hand to readers
func (s Session) Clone() Session {
	return Session{
		Identity: s.Identity.Clone(),
		Profile:  s.Profile.Clone(),
		Ready:    s.Ready,
	}
}

// SignedIn reports whether an identity is present
func (s Session) SignedIn() bool {
	return s.Identity != nil
}

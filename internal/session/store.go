package session

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"upgradify/internal/domain"
	"upgradify/internal/repository"
	"upgradify/internal/service"
	"upgradify/pkg/errors"
	"upgradify/pkg/logger"
)

// DefaultOperationTimeout bounds every provider and profile store call
const DefaultOperationTimeout = 10 * time.Second

// Auth methods and outcomes reported to the Observer
const (
	MethodSignup    = "signup"
	MethodLogin     = "login"
	MethodFederated = "federated"
	MethodLogout    = "logout"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeTimeout = "timeout"
	OutcomeMissing = "missing"
	OutcomeStale   = "stale"
)

// Observer receives session events, typically a metrics collector
type Observer interface {
	AuthAttempt(method, outcome string)
	ProfileFetch(outcome string)
}

type nopObserver struct{}

func (nopObserver) AuthAttempt(string, string) {}
func (nopObserver) ProfileFetch(string)        {}

// Store owns the current identity and profile. It is the only component that
// talks to the identity provider and the profile store.
//
// The Session value is replaced, never mutated, so snapshots handed to
// readers stay consistent. A generation counter discards profile fetches
// that finish after a newer identity change or local write.
type Store struct {
	provider service.IdentityProvider
	profiles repository.ProfileRepository
	logger   *logger.Logger
	observer Observer
	timeout  time.Duration
	now      func() time.Time

	mu          sync.Mutex
	session     domain.Session
	generation  uint64
	initialized bool
	disposed    bool
	unsubscribe func()

	ready     chan struct{}
	readyOnce sync.Once

	fetchCtx    context.Context
	cancelFetch context.CancelFunc
	fetches     sync.WaitGroup
}

// Option customizes a Store
type Option func(*Store)

// WithOperationTimeout sets the per-operation deadline
func WithOperationTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithObserver reports auth attempts and profile fetches to o
func WithObserver(o Observer) Option {
	return func(s *Store) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithClock overrides the time source used for createdAt
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a Session Store. Call Init before use and Dispose when done.
func NewStore(provider service.IdentityProvider, profiles repository.ProfileRepository, log *logger.Logger, opts ...Option) *Store {
	fetchCtx, cancel := context.WithCancel(context.Background())
	s := &Store{
		provider:    provider,
		profiles:    profiles,
		logger:      log.Component("session"),
		observer:    nopObserver{},
		timeout:     DefaultOperationTimeout,
		now:         time.Now,
		ready:       make(chan struct{}),
		fetchCtx:    fetchCtx,
		cancelFetch: cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init subscribes to identity changes and asks the provider to resolve the
// initial identity. Calling it again is a no-op.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	if s.initialized || s.disposed {
		s.mu.Unlock()
		return nil
	}
	s.initialized = true
	s.mu.Unlock()

	unsubscribe := s.provider.Subscribe(s.onIdentityChange)

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		unsubscribe()
		return nil
	}
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	ctx, cancel := s.opContext(ctx)
	defer cancel()
	if err := s.provider.Restore(ctx); err != nil {
		s.logger.WithError(err).Error("Failed to resolve initial identity")
		return s.credentialError(ctx, err)
	}
	return nil
}

// Dispose unsubscribes, cancels in-flight profile fetches and waits for them.
// Calling it again is a no-op.
func (s *Store) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	s.cancelFetch()
	s.fetches.Wait()
	s.logger.Debug("Session store disposed")
}

// Snapshot returns a copy of the current Session
func (s *Store) Snapshot() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Clone()
}

// Ready is closed once the first identity notification has been resolved
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// WaitReady blocks until the Session is ready or ctx ends
func (s *Store) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Signup registers the account and creates its profile seeded with extra.
// The counters, badges and createdAt always start from their defaults.
// A profile write failure leaves the identity signed in without a profile;
// Login repairs that later.
func (s *Store) Signup(ctx context.Context, email, password string, extra domain.ProfileFields) (*domain.Identity, error) {
	if violations := extra.Validate(); len(violations) > 0 {
		return nil, errors.NewFieldValidationError("Invalid profile fields", violations)
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	displayName := ""
	if extra.Name != nil {
		displayName = *extra.Name
	}

	identity, err := s.provider.Register(ctx, email, password, displayName)
	if err != nil {
		err = s.credentialError(ctx, err)
		s.observeAuth(MethodSignup, err)
		return nil, err
	}

	// Creation defaults win over anything extra carries
	defaults := domain.NewProfile(identity, s.now())
	profile := defaults.Clone()
	extra.ApplyTo(profile)
	profile.ID = defaults.ID
	profile.CreatedAt = defaults.CreatedAt
	profile.Points = defaults.Points
	profile.Badges = defaults.Badges
	profile.DailyRecommendations = defaults.DailyRecommendations
	profile.LastRecommendationDate = defaults.LastRecommendationDate

	if err := s.writeProfile(ctx, profile); err != nil {
		s.logger.WithError(err).WithField("user_id", identity.ID).Error("Profile creation failed after signup")
		s.observeAuth(MethodSignup, err)
		return nil, err
	}

	s.adoptProfile(identity, profile)
	s.observeAuth(MethodSignup, nil)
	s.logger.WithField("user_id", identity.ID).Info("User signed up")
	return identity, nil
}

// Login signs in with email and password. If the account has no profile yet
// a default one is created; failing to do so is logged, not returned.
func (s *Store) Login(ctx context.Context, email, password string) (*domain.Identity, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	identity, err := s.provider.Authenticate(ctx, email, password)
	if err != nil {
		err = s.credentialError(ctx, err)
		s.observeAuth(MethodLogin, err)
		return nil, err
	}
	s.observeAuth(MethodLogin, nil)

	profile, err := s.profiles.Get(ctx, identity.ID)
	switch {
	case err != nil:
		s.logger.WithError(err).WithField("user_id", identity.ID).Warn("Could not check profile after login")
	case profile == nil:
		profile = domain.NewProfile(identity, s.now())
		if err := s.writeProfile(ctx, profile); err != nil {
			s.logger.WithError(err).WithField("user_id", identity.ID).Error("Failed to repair missing profile")
		} else {
			s.logger.WithField("user_id", identity.ID).Info("Created missing profile on login")
			s.adoptProfile(identity, profile)
		}
	}

	return identity, nil
}

// LoginWithFederatedProvider runs the federated sign-in and creates a
// default profile on first sign-in
func (s *Store) LoginWithFederatedProvider(ctx context.Context) (*domain.Identity, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	identity, err := s.provider.FederatedSignIn(ctx)
	if err != nil {
		err = s.credentialError(ctx, err)
		s.observeAuth(MethodFederated, err)
		return nil, err
	}

	profile, err := s.profiles.Get(ctx, identity.ID)
	if err != nil {
		err = s.storeError(ctx, err, "Failed to load profile")
		s.observeAuth(MethodFederated, err)
		return nil, err
	}

	if profile == nil {
		profile = domain.NewProfile(identity, s.now())
		if err := s.writeProfile(ctx, profile); err != nil {
			s.observeAuth(MethodFederated, err)
			return nil, err
		}
		s.logger.WithField("user_id", identity.ID).Info("Created profile for federated user")
	}

	s.adoptProfile(identity, profile)
	s.observeAuth(MethodFederated, nil)
	return identity, nil
}

// Logout signs out at the provider. Local state only changes once the
// provider confirms.
func (s *Store) Logout(ctx context.Context) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if err := s.provider.SignOut(ctx); err != nil {
		err = s.storeError(ctx, err, "Failed to sign out")
		s.observeAuth(MethodLogout, err)
		s.logger.WithError(err).Error("Logout failed")
		return err
	}

	// Providers normally emit nil themselves; this covers those that do not
	if s.Snapshot().Identity != nil {
		s.onIdentityChange(nil)
	}
	s.observeAuth(MethodLogout, nil)
	return nil
}

// UpdateProfile merges fields into the stored profile and mirrors them into
// the Session right away. The local copy is not rolled back if the write fails.
func (s *Store) UpdateProfile(ctx context.Context, id string, fields domain.ProfileFields) error {
	if violations := fields.Validate(); len(violations) > 0 {
		return errors.NewFieldValidationError("Invalid profile fields", violations)
	}
	if fields.IsEmpty() {
		return nil
	}

	s.mu.Lock()
	if s.session.Identity != nil && s.session.Identity.ID == id && s.session.Profile != nil {
		next := s.session.Clone()
		fields.ApplyTo(next.Profile)
		s.generation++
		s.session = next
	}
	s.mu.Unlock()

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if err := s.profiles.Put(ctx, id, fields.Document(), true); err != nil {
		err = s.storeError(ctx, err, "Failed to update profile")
		s.logger.WithError(err).WithField("user_id", id).Error("Profile update failed")
		return err
	}
	return nil
}

// GetProfile looks up a profile; nil means it does not exist
func (s *Store) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	profile, err := s.profiles.Get(ctx, id)
	if err != nil {
		return nil, s.storeError(ctx, err, "Failed to load profile")
	}
	return profile, nil
}

// onIdentityChange handles provider notifications
func (s *Store) onIdentityChange(identity *domain.Identity) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}

	s.generation++
	generation := s.generation

	next := s.session.Clone()
	if !next.Identity.SameAs(identity) {
		next.Profile = nil
	}
	next.Identity = identity.Clone()

	if identity == nil {
		next.Profile = nil
		next.Ready = true
		s.session = next
		s.mu.Unlock()
		s.markReady()
		s.logger.Debug("Identity cleared")
		return
	}

	s.session = next
	s.fetches.Add(1)
	s.mu.Unlock()

	s.logger.WithFields(map[string]interface{}{
		"user_id":    identity.ID,
		"generation": generation,
	}).Debug("Identity changed, fetching profile")
	go s.fetchProfile(identity.ID, generation)
}

// fetchProfile loads the profile for a notification. Failures leave the
// profile nil; results from an older generation are dropped.
func (s *Store) fetchProfile(id string, generation uint64) {
	defer s.fetches.Done()
	defer s.markReady()

	ctx, cancel := context.WithTimeout(s.fetchCtx, s.timeout)
	defer cancel()

	profile, err := s.profiles.Get(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.session.Clone()
	next.Ready = true

	if generation != s.generation {
		s.logger.WithFields(map[string]interface{}{
			"user_id":    id,
			"generation": generation,
			"current":    s.generation,
		}).Debug("Dropping stale profile fetch")
		s.observer.ProfileFetch(OutcomeStale)
		s.session = next
		return
	}

	switch {
	case err != nil:
		outcome := OutcomeFailure
		if errors.IsTimeout(err) {
			outcome = OutcomeTimeout
		}
		s.observer.ProfileFetch(outcome)
		s.logger.WithError(err).WithField("user_id", id).Warn("Profile fetch failed")
		next.Profile = nil
	case profile == nil:
		s.observer.ProfileFetch(OutcomeMissing)
		next.Profile = nil
	default:
		s.observer.ProfileFetch(OutcomeSuccess)
		next.Profile = profile.Clone()
	}
	s.session = next
}

// adoptProfile installs a profile the store itself just created or loaded,
// provided the identity is still current
func (s *Store) adoptProfile(identity *domain.Identity, profile *domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.Identity.SameAs(identity) {
		return
	}
	s.generation++
	next := s.session.Clone()
	next.Profile = profile.Clone()
	next.Ready = true
	s.session = next
	s.readyOnce.Do(func() { close(s.ready) })
}

func (s *Store) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

func (s *Store) writeProfile(ctx context.Context, profile *domain.Profile) error {
	doc, err := profile.Document()
	if err != nil {
		return errors.NewInternalError("Failed to encode profile", err)
	}
	if err := s.profiles.Put(ctx, profile.ID, doc, false); err != nil {
		return s.storeError(ctx, err, "Failed to create profile")
	}
	return nil
}

func (s *Store) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// credentialError maps an identity provider failure onto a CredentialError
func (s *Store) credentialError(ctx context.Context, err error) error {
	appErr, ok := errors.As(err)
	if ok && appErr.Type == errors.ErrorTypeCredential {
		return appErr
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.NewTimeoutError(errors.ErrorTypeCredential, "Identity provider timed out", err)
	}
	if stderrors.Is(err, context.Canceled) {
		return errors.NewCredentialError("Sign-in was cancelled", err)
	}
	if ok {
		return errors.NewCredentialError(appErr.Message, err)
	}
	return errors.NewCredentialError("Identity provider error", err)
}

// storeError maps a profile store or sign-out failure onto a StoreError
func (s *Store) storeError(ctx context.Context, err error, message string) error {
	if appErr, ok := errors.As(err); ok && appErr.Type == errors.ErrorTypeStore {
		return appErr
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) || errors.IsTimeout(err) {
		return errors.NewTimeoutError(errors.ErrorTypeStore, message+": timed out", err)
	}
	return errors.NewStoreError(message, err)
}

func (s *Store) observeAuth(method string, err error) {
	switch {
	case err == nil:
		s.observer.AuthAttempt(method, OutcomeSuccess)
	case errors.IsTimeout(err):
		s.observer.AuthAttempt(method, OutcomeTimeout)
	default:
		s.observer.AuthAttempt(method, OutcomeFailure)
	}
}

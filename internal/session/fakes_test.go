package session

import (
	"context"
	"sync"

	"upgradify/internal/domain"
	"upgradify/internal/repository"
	"upgradify/internal/service/auth"
)

// fakeProvider is a scriptable identity provider; tests drive notifications directly
type fakeProvider struct {
	*auth.Notifier

	mu         sync.Mutex
	identities map[string]*domain.Identity
	signOutErr error
	block      bool
	subscribes int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{Notifier: auth.NewNotifier(), identities: map[string]*domain.Identity{}}
}

func (p *fakeProvider) wait(ctx context.Context) error {
	p.mu.Lock()
	block := p.block
	p.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (p *fakeProvider) Register(ctx context.Context, email, password, displayName string) (*domain.Identity, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	identity := &domain.Identity{ID: "id-" + email, Email: email, DisplayName: displayName, Provider: domain.ProviderEmail}
	p.mu.Lock()
	p.identities[email] = identity
	p.mu.Unlock()
	p.Emit(identity)
	return identity.Clone(), nil
}

func (p *fakeProvider) Authenticate(ctx context.Context, email, password string) (*domain.Identity, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	p.mu.Lock()
	identity, ok := p.identities[email]
	p.mu.Unlock()
	if !ok {
		return nil, context.Canceled
	}
	p.Emit(identity)
	return identity.Clone(), nil
}

func (p *fakeProvider) FederatedSignIn(ctx context.Context) (*domain.Identity, error) {
	return nil, context.Canceled
}

func (p *fakeProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	err := p.signOutErr
	p.mu.Unlock()
	if err != nil {
		return err
	}
	p.Emit(nil)
	return nil
}

func (p *fakeProvider) Subscribe(fn func(*domain.Identity)) func() {
	p.mu.Lock()
	p.subscribes++
	p.mu.Unlock()
	return p.Notifier.Subscribe(fn)
}

func (p *fakeProvider) Restore(ctx context.Context) error {
	current, _ := p.Current()
	p.Emit(current)
	return nil
}

// blockingRepository holds every Get until release is closed
type blockingRepository struct {
	repository.ProfileRepository
	started chan string
	release chan struct{}
}

func newBlockingRepository(next repository.ProfileRepository) *blockingRepository {
	return &blockingRepository{
		ProfileRepository: next,
		started:           make(chan string, 16),
		release:           make(chan struct{}),
	}
}

func (r *blockingRepository) Get(ctx context.Context, id string) (*domain.Profile, error) {
	r.started <- id
	select {
	case <-r.release:
		return r.ProfileRepository.Get(ctx, id)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// failingRepository fails the configured operations
type failingRepository struct {
	repository.ProfileRepository
	getErr error
	putErr error
}

func (r *failingRepository) Get(ctx context.Context, id string) (*domain.Profile, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.ProfileRepository.Get(ctx, id)
}

func (r *failingRepository) Put(ctx context.Context, id string, fields domain.Document, merge bool) error {
	if r.putErr != nil {
		return r.putErr
	}
	return r.ProfileRepository.Put(ctx, id, fields, merge)
}

type federatorFunc func(ctx context.Context) (*auth.FederatedCredential, error)

func (f federatorFunc) SignIn(ctx context.Context) (*auth.FederatedCredential, error) {
	return f(ctx)
}

type recordingObserver struct {
	mu      sync.Mutex
	auth    []string
	fetches []string
}

func (o *recordingObserver) AuthAttempt(method, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.auth = append(o.auth, method+":"+outcome)
}

func (o *recordingObserver) ProfileFetch(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fetches = append(o.fetches, outcome)
}

func (o *recordingObserver) fetchOutcomes() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.fetches...)
}

func (o *recordingObserver) authOutcomes() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.auth...)
}

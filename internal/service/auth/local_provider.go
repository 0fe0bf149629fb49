package auth

import (
	"context"
	"net/mail"
	"strings"
	"sync"

	"upgradify/internal/domain"
	"upgradify/internal/service"
	"upgradify/pkg/errors"
	"upgradify/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type localAccount struct {
	identity     *domain.Identity
	passwordHash []byte
}

// LocalProvider is an in-process identity provider for development. Accounts
// live in memory and passwords are stored as bcrypt hashes.
type LocalProvider struct {
	federator Federator
	notifier  *Notifier
	logger    *logger.Logger
	cost      int

	mu        sync.Mutex
	byEmail   map[string]*localAccount
	bySubject map[string]*localAccount
	current   *domain.Identity
}

var _ service.IdentityProvider = (*LocalProvider)(nil)

// LocalOption customizes a LocalProvider
type LocalOption func(*LocalProvider)

// WithBcryptCost overrides the bcrypt work factor
func WithBcryptCost(cost int) LocalOption {
	return func(p *LocalProvider) {
		p.cost = cost
	}
}

// NewLocalProvider creates a local provider. federator may be nil.
func NewLocalProvider(federator Federator, log *logger.Logger, opts ...LocalOption) *LocalProvider {
	p := &LocalProvider{
		federator: federator,
		notifier:  NewNotifier(),
		logger:    log.Component("local_auth"),
		cost:      bcrypt.DefaultCost,
		byEmail:   make(map[string]*localAccount),
		bySubject: make(map[string]*localAccount),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Register creates an account and signs it in
func (p *LocalProvider) Register(ctx context.Context, email, password, displayName string) (*domain.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := normalizeEmail(email)
	if _, err := mail.ParseAddress(key); err != nil || !strings.Contains(key, "@") {
		return nil, errors.NewCredentialError("Invalid email address", err)
	}
	if len(password) < minPasswordLength {
		return nil, errors.NewCredentialError("Password should be at least 6 characters", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, errors.NewInternalError("Failed to hash password", err)
	}

	p.mu.Lock()
	if _, exists := p.byEmail[key]; exists {
		p.mu.Unlock()
		return nil, errors.NewCredentialError("Email already registered", nil)
	}
	identity := &domain.Identity{
		ID:          uuid.NewString(),
		Email:       key,
		DisplayName: displayName,
		Provider:    domain.ProviderEmail,
	}
	p.byEmail[key] = &localAccount{identity: identity, passwordHash: hash}
	p.current = identity.Clone()
	p.mu.Unlock()

	p.logger.WithField("user_id", identity.ID).Info("Local account registered")
	p.notifier.Emit(identity)
	return identity.Clone(), nil
}

// Authenticate checks the password against the stored hash
func (p *LocalProvider) Authenticate(ctx context.Context, email, password string) (*domain.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	account, ok := p.byEmail[normalizeEmail(email)]
	p.mu.Unlock()

	if !ok || account.passwordHash == nil {
		return nil, errors.NewCredentialError("Invalid login credentials", nil)
	}
	if err := bcrypt.CompareHashAndPassword(account.passwordHash, []byte(password)); err != nil {
		p.logger.WithField("user_id", account.identity.ID).Warn("Password mismatch")
		return nil, errors.NewCredentialError("Invalid login credentials", nil)
	}

	identity := account.identity.Clone()
	p.mu.Lock()
	p.current = identity.Clone()
	p.mu.Unlock()

	p.notifier.Emit(identity)
	return identity, nil
}

// FederatedSignIn maps a verified federated credential onto a local account,
// creating one on first sign-in
func (p *LocalProvider) FederatedSignIn(ctx context.Context) (*domain.Identity, error) {
	if p.federator == nil {
		return nil, errors.NewCredentialError("Federated sign-in is not configured", nil)
	}

	cred, err := p.federator.SignIn(ctx)
	if err != nil {
		return nil, err
	}

	subjectKey := cred.Provider + ":" + cred.Subject
	p.mu.Lock()
	account, ok := p.bySubject[subjectKey]
	if !ok {
		account = &localAccount{identity: &domain.Identity{
			ID:            uuid.NewString(),
			Email:         normalizeEmail(cred.Email),
			DisplayName:   cred.Name,
			Provider:      cred.Provider,
			EmailVerified: cred.EmailVerified,
		}}
		p.bySubject[subjectKey] = account
	}
	identity := account.identity.Clone()
	p.current = identity.Clone()
	p.mu.Unlock()

	p.logger.WithFields(map[string]interface{}{
		"user_id":     identity.ID,
		"provider":    identity.Provider,
		"new_account": !ok,
	}).Info("Federated sign-in mapped to local account")
	p.notifier.Emit(identity)
	return identity, nil
}

// SignOut clears the current identity
func (p *LocalProvider) SignOut(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()

	p.notifier.Emit(nil)
	return nil
}

func (p *LocalProvider) Subscribe(fn func(*domain.Identity)) func() {
	return p.notifier.Subscribe(fn)
}

// Restore resolves the initial state. Local sessions do not survive restarts.
func (p *LocalProvider) Restore(ctx context.Context) error {
	p.mu.Lock()
	current := p.current.Clone()
	p.mu.Unlock()

	p.notifier.Emit(current)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package auth

import (
	"context"
	"testing"

	"upgradify/internal/domain"
	"upgradify/pkg/errors"
	"upgradify/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type stubFederator struct {
	cred  *FederatedCredential
	err   error
	calls int
}

func (f *stubFederator) SignIn(ctx context.Context) (*FederatedCredential, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.cred, nil
}

func newTestLocalProvider(federator Federator) *LocalProvider {
	return NewLocalProvider(federator, logger.NewNop(), WithBcryptCost(bcrypt.MinCost))
}

func TestLocalProvider_RegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	p := newTestLocalProvider(nil)

	rec := &recorder{}
	defer p.Subscribe(rec.record)()

	registered, err := p.Register(ctx, "Ann@Example.com ", "secret1", "Ann")
	require.NoError(t, err)
	assert.NotEmpty(t, registered.ID)
	assert.Equal(t, "ann@example.com", registered.Email)
	assert.Equal(t, "Ann", registered.DisplayName)
	assert.Equal(t, domain.ProviderEmail, registered.Provider)

	require.NoError(t, p.SignOut(ctx))

	identity, err := p.Authenticate(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, identity.ID)

	assert.Equal(t, []string{registered.ID, "<nil>", registered.ID}, rec.ids())
}

func TestLocalProvider_RegisterRejections(t *testing.T) {
	ctx := context.Background()
	p := newTestLocalProvider(nil)
	_, err := p.Register(ctx, "ann@example.com", "secret1", "Ann")
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		message  string
	}{
		{"duplicate email", "ANN@example.com", "secret1", "Email already registered"},
		{"weak password", "bob@example.com", "12345", "Password should be at least 6 characters"},
		{"malformed email", "not-an-email", "secret1", "Invalid email address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Register(ctx, tt.email, tt.password, "X")
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeCredential))
			assert.Equal(t, tt.message, errors.Message(err))
		})
	}
}

func TestLocalProvider_WrongPasswordDoesNotNotify(t *testing.T) {
	ctx := context.Background()
	p := newTestLocalProvider(nil)
	_, err := p.Register(ctx, "ann@example.com", "secret1", "Ann")
	require.NoError(t, err)

	rec := &recorder{}
	defer p.Subscribe(rec.record)()
	before := len(rec.ids())

	_, err = p.Authenticate(ctx, "ann@example.com", "wrong-pass")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCredential))
	assert.Equal(t, "Invalid login credentials", errors.Message(err))

	_, err = p.Authenticate(ctx, "nobody@example.com", "secret1")
	assert.True(t, errors.IsType(err, errors.ErrorTypeCredential))

	assert.Len(t, rec.ids(), before)
}

func TestLocalProvider_FederatedSignInReusesAccount(t *testing.T) {
	ctx := context.Background()
	federator := &stubFederator{cred: &FederatedCredential{
		Provider:      domain.ProviderGoogle,
		Subject:       "google-sub-1",
		Email:         "ann@gmail.com",
		Name:          "Ann G",
		EmailVerified: true,
	}}
	p := newTestLocalProvider(federator)

	first, err := p.FederatedSignIn(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderGoogle, first.Provider)
	assert.Equal(t, "Ann G", first.DisplayName)
	assert.True(t, first.EmailVerified)

	second, err := p.FederatedSignIn(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, federator.calls)
}

func TestLocalProvider_FederatedSignInErrors(t *testing.T) {
	ctx := context.Background()

	_, err := newTestLocalProvider(nil).FederatedSignIn(ctx)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCredential))

	cancelled := errors.NewCredentialError("Google sign-in was cancelled", context.Canceled)
	_, err = newTestLocalProvider(&stubFederator{err: cancelled}).FederatedSignIn(ctx)
	assert.Equal(t, cancelled, err)
}

func TestLocalProvider_RestoreResolvesSignedOut(t *testing.T) {
	p := newTestLocalProvider(nil)
	rec := &recorder{}
	defer p.Subscribe(rec.record)()

	require.NoError(t, p.Restore(context.Background()))
	assert.Equal(t, []string{"<nil>"}, rec.ids())
}

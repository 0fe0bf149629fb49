package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"upgradify/internal/domain"
	"upgradify/pkg/errors"
	"upgradify/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/idtoken"
)

type fakeValidator struct {
	payload  *idtoken.Payload
	err      error
	audience string
	token    string
}

func (v *fakeValidator) Validate(ctx context.Context, idToken, audience string) (*idtoken.Payload, error) {
	v.token = idToken
	v.audience = audience
	return v.payload, v.err
}

func newTokenServer(t *testing.T, verifiers chan<- string) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.URL.Path != "/token" || r.PostForm.Get("code") != "auth-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		verifiers <- r.PostForm.Get("code_verifier")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","expires_in":3600,"id_token":"raw-id-token"}`))
	}))
	t.Cleanup(server.Close)
	return server
}

// newTestFederator wires the opener so the consent page "redirects" back with the given query
func newTestFederator(t *testing.T, tokenURL string, validator IDTokenValidator, respond func(state string) url.Values) *GoogleFederator {
	var f *GoogleFederator
	opener := func(authURL string) error {
		parsed, err := url.Parse(authURL)
		require.NoError(t, err)
		q := parsed.Query()
		assert.Equal(t, "S256", q.Get("code_challenge_method"))
		assert.NotEmpty(t, q.Get("code_challenge"))
		assert.Equal(t, "client-id", q.Get("client_id"))

		if respond == nil {
			return nil
		}
		values := respond(q.Get("state"))
		go func() {
			req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?"+values.Encode(), nil)
			f.HandleCallback(httptest.NewRecorder(), req)
		}()
		return nil
	}

	f = NewGoogleFederator(GoogleConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8080/auth/google/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://accounts.example.com/auth",
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		OpenURL:   opener,
		Validator: validator,
	}, logger.NewNop())
	return f
}

func TestGoogleFederator_SignIn(t *testing.T) {
	verifiers := make(chan string, 1)
	server := newTokenServer(t, verifiers)
	validator := &fakeValidator{payload: &idtoken.Payload{
		Subject: "google-sub-1",
		Claims: map[string]interface{}{
			"email":          "ann@gmail.com",
			"name":           "Ann G",
			"email_verified": true,
		},
	}}

	f := newTestFederator(t, server.URL+"/token", validator, func(state string) url.Values {
		return url.Values{"state": {state}, "code": {"auth-code"}}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cred, err := f.SignIn(ctx)
	require.NoError(t, err)
	assert.Equal(t, &FederatedCredential{
		Provider:      domain.ProviderGoogle,
		IDToken:       "raw-id-token",
		Subject:       "google-sub-1",
		Email:         "ann@gmail.com",
		Name:          "Ann G",
		EmailVerified: true,
	}, cred)
	assert.Equal(t, "client-id", validator.audience)
	assert.Equal(t, "raw-id-token", validator.token)
	assert.NotEmpty(t, <-verifiers)
}

func TestGoogleFederator_AccessDeniedIsCancellation(t *testing.T) {
	f := newTestFederator(t, "http://127.0.0.1:0/token", &fakeValidator{}, func(state string) url.Values {
		return url.Values{"state": {state}, "error": {"access_denied"}}
	})

	_, err := f.SignIn(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCredential))
	assert.Equal(t, "Google sign-in was cancelled", errors.Message(err))
}

func TestGoogleFederator_InvalidIDToken(t *testing.T) {
	verifiers := make(chan string, 1)
	server := newTokenServer(t, verifiers)
	validator := &fakeValidator{err: assert.AnError}

	f := newTestFederator(t, server.URL+"/token", validator, func(state string) url.Values {
		return url.Values{"state": {state}, "code": {"auth-code"}}
	})

	_, err := f.SignIn(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCredential))
	assert.Equal(t, "Invalid Google ID token", errors.Message(err))
}

func TestGoogleFederator_TimeoutWithoutCallback(t *testing.T) {
	f := newTestFederator(t, "http://127.0.0.1:0/token", &fakeValidator{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := f.SignIn(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsTimeout(err))
	assert.True(t, errors.IsType(err, errors.ErrorTypeCredential))
}

func TestGoogleFederator_CallbackWithUnknownState(t *testing.T) {
	f := newTestFederator(t, "http://127.0.0.1:0/token", &fakeValidator{}, nil)

	rec := httptest.NewRecorder()
	f.HandleCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=nope&code=x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"upgradify/internal/domain"
	"upgradify/internal/service"
	"upgradify/pkg/errors"
	"upgradify/pkg/logger"
)

// SupabaseConfig configures the GoTrue-backed identity provider
type SupabaseConfig struct {
	URL       string
	AnonKey   string
	JWTSecret string
}

// supabaseUser is the GoTrue user object
type supabaseUser struct {
	ID               string                 `json:"id"`
	Email            string                 `json:"email"`
	EmailConfirmedAt *time.Time             `json:"email_confirmed_at"`
	UserMetadata     map[string]interface{} `json:"user_metadata"`
	AppMetadata      map[string]interface{} `json:"app_metadata"`
}

// supabaseSession is the GoTrue token response. Signup without auto-confirm
// returns the bare user object instead, in which case User is empty and the
// top-level ID is set.
type supabaseSession struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int           `json:"expires_in"`
	User         *supabaseUser `json:"user"`
	supabaseUser
}

// supabaseErrorBody covers both the legacy and the current GoTrue error shapes
type supabaseErrorBody struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
	Error            string `json:"error"`
}

// SupabaseProvider implements service.IdentityProvider against Supabase Auth
type SupabaseProvider struct {
	config     SupabaseConfig
	httpClient *http.Client
	verifier   *AccessTokenVerifier
	federator  Federator
	tokens     TokenStore
	notifier   *Notifier
	logger     *logger.Logger

	mu          sync.Mutex
	accessToken string
	identity    *domain.Identity
}

var _ service.IdentityProvider = (*SupabaseProvider)(nil)

// NewSupabaseProvider creates a Supabase identity provider. federator may be
// nil when federated sign-in is not configured.
func NewSupabaseProvider(cfg SupabaseConfig, federator Federator, tokens TokenStore, log *logger.Logger) *SupabaseProvider {
	if tokens == nil {
		tokens = NewMemoryTokenStore()
	}
	return &SupabaseProvider{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		verifier:  NewAccessTokenVerifier(cfg.JWTSecret),
		federator: federator,
		tokens:    tokens,
		notifier:  NewNotifier(),
		logger:    log.Component("supabase_auth"),
	}
}

// Register creates an account. If the project auto-confirms signups the new
// session is adopted immediately; otherwise email confirmation is required.
func (p *SupabaseProvider) Register(ctx context.Context, email, password, displayName string) (*domain.Identity, error) {
	body := map[string]interface{}{
		"email":    email,
		"password": password,
		"data":     map[string]interface{}{"name": displayName},
	}

	var sess supabaseSession
	if err := p.call(ctx, "/auth/v1/signup", "", body, &sess); err != nil {
		return nil, err
	}

	if sess.AccessToken == "" {
		p.logger.WithField("user_id", sess.ID).Info("Signup requires email confirmation")
		return nil, errors.NewCredentialError("Check your email to confirm your account", nil)
	}
	return p.adopt(ctx, &sess)
}

// Authenticate signs in with email and password
func (p *SupabaseProvider) Authenticate(ctx context.Context, email, password string) (*domain.Identity, error) {
	body := map[string]interface{}{
		"email":    email,
		"password": password,
	}

	var sess supabaseSession
	if err := p.call(ctx, "/auth/v1/token?grant_type=password", "", body, &sess); err != nil {
		return nil, err
	}
	return p.adopt(ctx, &sess)
}

// FederatedSignIn runs the Google flow and exchanges the ID token for a Supabase session
func (p *SupabaseProvider) FederatedSignIn(ctx context.Context) (*domain.Identity, error) {
	if p.federator == nil {
		return nil, errors.NewCredentialError("Federated sign-in is not configured", nil)
	}

	cred, err := p.federator.SignIn(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"provider": cred.Provider,
		"id_token": cred.IDToken,
	}

	var sess supabaseSession
	if err := p.call(ctx, "/auth/v1/token?grant_type=id_token", "", body, &sess); err != nil {
		return nil, err
	}
	return p.adopt(ctx, &sess)
}

// SignOut revokes the session remotely and only then clears local state
func (p *SupabaseProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	accessToken := p.accessToken
	p.mu.Unlock()

	if accessToken != "" {
		if err := p.call(ctx, "/auth/v1/logout", accessToken, nil, nil); err != nil {
			p.logger.WithError(err).Error("Supabase logout failed")
			return err
		}
	}

	p.mu.Lock()
	p.accessToken = ""
	p.identity = nil
	p.mu.Unlock()

	if err := p.tokens.Clear(ctx); err != nil {
		p.logger.WithError(err).Warn("Failed to clear persisted refresh token")
	}

	p.notifier.Emit(nil)
	return nil
}

// Subscribe registers fn for identity changes
func (p *SupabaseProvider) Subscribe(fn func(*domain.Identity)) func() {
	return p.notifier.Subscribe(fn)
}

// Restore resumes the persisted session, or resolves to signed out
func (p *SupabaseProvider) Restore(ctx context.Context) error {
	refreshToken, err := p.tokens.Load(ctx)
	if err != nil {
		p.logger.WithError(err).Warn("Failed to load persisted refresh token")
	}
	if refreshToken == "" {
		p.notifier.Emit(nil)
		return nil
	}

	var sess supabaseSession
	err = p.call(ctx, "/auth/v1/token?grant_type=refresh_token", "", map[string]interface{}{
		"refresh_token": refreshToken,
	}, &sess)
	if err == nil {
		_, err = p.adopt(ctx, &sess)
	}
	if err != nil {
		p.logger.WithError(err).Warn("Could not resume previous session")
		if errors.IsType(err, errors.ErrorTypeCredential) {
			_ = p.tokens.Clear(ctx)
		}
		p.notifier.Emit(nil)
		return nil
	}

	p.logger.Info("Resumed previous session")
	return nil
}

// adopt installs a token response as the current session and notifies subscribers
func (p *SupabaseProvider) adopt(ctx context.Context, sess *supabaseSession) (*domain.Identity, error) {
	if sess.User == nil || sess.User.ID == "" {
		return nil, errors.NewExternalError("Supabase returned a session without a user", nil)
	}

	identity := identityFromUser(sess.User)
	if p.verifier != nil {
		claimed, err := p.verifier.Verify(sess.AccessToken)
		if err != nil {
			p.logger.WithError(err).Error("Supabase access token failed verification")
			return nil, err
		}
		if claimed.ID != identity.ID {
			return nil, errors.NewCredentialError("Access token does not match user", nil)
		}
	}

	p.mu.Lock()
	p.accessToken = sess.AccessToken
	p.identity = identity.Clone()
	p.mu.Unlock()

	if sess.RefreshToken != "" {
		if err := p.tokens.Save(ctx, sess.RefreshToken); err != nil {
			p.logger.WithError(err).Warn("Failed to persist refresh token")
		}
	}

	p.logger.WithField("user_id", identity.ID).Info("Supabase session established")
	p.notifier.Emit(identity)
	return identity, nil
}

func identityFromUser(u *supabaseUser) *domain.Identity {
	identity := &domain.Identity{
		ID:            u.ID,
		Email:         u.Email,
		DisplayName:   displayNameFrom(u.UserMetadata),
		Provider:      domain.ProviderEmail,
		EmailVerified: u.EmailConfirmedAt != nil,
	}
	if provider := getStringValue(u.AppMetadata, "provider"); provider != "" {
		identity.Provider = provider
	}
	return identity
}

// call performs a GoTrue request. bearer defaults to the anon key.
func (p *SupabaseProvider) call(ctx context.Context, path, bearer string, requestBody map[string]interface{}, out interface{}) error {
	var reader io.Reader
	if requestBody != nil {
		jsonBody, err := json.Marshal(requestBody)
		if err != nil {
			return errors.NewInternalError("Failed to marshal request body", err)
		}
		reader = bytes.NewBuffer(jsonBody)
	}

	url := strings.TrimRight(p.config.URL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, reader)
	if err != nil {
		return errors.NewInternalError("Failed to create request", err)
	}

	if bearer == "" {
		bearer = p.config.AnonKey
	}
	req.Header.Set("apikey", p.config.AnonKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", bearer))
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return errors.NewTimeoutError(errors.ErrorTypeCredential, "Identity provider timed out", err)
		}
		return errors.NewExternalError("Failed to reach identity provider", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewExternalError("Failed to read identity provider response", err)
	}

	if resp.StatusCode >= 400 {
		msg := supabaseErrorMessage(body)
		p.logger.WithFields(map[string]interface{}{
			"path":        strings.SplitN(path, "?", 2)[0],
			"status_code": resp.StatusCode,
			"message":     msg,
		}).Warn("Identity provider rejected request")

		cause := fmt.Errorf("supabase returned status %d", resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests {
			return errors.NewCredentialError("Too many attempts, try again later", cause)
		}
		if resp.StatusCode < 500 {
			return errors.NewCredentialError(msg, cause)
		}
		return errors.NewExternalError("Identity provider unavailable", cause)
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		p.logger.WithFields(map[string]interface{}{
			"status_code": resp.StatusCode,
		}).Error("Failed to parse Supabase response")
		return errors.NewExternalError("Failed to parse identity provider response", err)
	}

	// Signup without auto-confirm answers with the user at top level
	if sess, ok := out.(*supabaseSession); ok && sess.User == nil && sess.ID != "" {
		user := sess.supabaseUser
		sess.User = &user
	}
	return nil
}

func supabaseErrorMessage(body []byte) string {
	var e supabaseErrorBody
	if err := json.Unmarshal(body, &e); err == nil {
		for _, msg := range []string{e.Msg, e.ErrorDescription, e.Message, e.Error} {
			if msg != "" {
				return msg
			}
		}
	}
	return "Authentication failed"
}

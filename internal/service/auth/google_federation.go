package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"os/exec"
	"runtime"
	"sync"

	"upgradify/internal/domain"
	"upgradify/pkg/errors"
	"upgradify/pkg/logger"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

// FederatedCredential is the verified outcome of a third-party sign-in
type FederatedCredential struct {
	Provider      string
	IDToken       string
	Subject       string
	Email         string
	Name          string
	EmailVerified bool
}

// Federator runs a third-party sign-in flow
type Federator interface {
	SignIn(ctx context.Context) (*FederatedCredential, error)
}

// IDTokenValidator verifies a Google ID token for the given audience
type IDTokenValidator interface {
	Validate(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)
}

type googleIDTokenValidator struct{}

func (googleIDTokenValidator) Validate(ctx context.Context, idToken, audience string) (*idtoken.Payload, error) {
	return idtoken.Validate(ctx, idToken, audience)
}

// GoogleConfig configures the Google authorization-code flow
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Endpoint overrides google.Endpoint when set
	Endpoint oauth2.Endpoint

	// OpenURL shows the consent page to the user; defaults to OpenBrowser
	OpenURL func(url string) error

	Validator IDTokenValidator
}

type callbackResult struct {
	code string
	err  error
}

// GoogleFederator signs users in with Google using the authorization-code
// flow with PKCE. The redirect lands on HandleCallback.
type GoogleFederator struct {
	oauth     *oauth2.Config
	openURL   func(string) error
	validator IDTokenValidator
	logger    *logger.Logger

	mu      sync.Mutex
	pending map[string]chan callbackResult
}

var _ Federator = (*GoogleFederator)(nil)

// NewGoogleFederator creates a Google federator
func NewGoogleFederator(cfg GoogleConfig, log *logger.Logger) *GoogleFederator {
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = google.Endpoint
	}
	openURL := cfg.OpenURL
	if openURL == nil {
		openURL = OpenBrowser
	}
	validator := cfg.Validator
	if validator == nil {
		validator = googleIDTokenValidator{}
	}

	return &GoogleFederator{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoint,
		},
		openURL:   openURL,
		validator: validator,
		logger:    log.Component("google_federation"),
		pending:   make(map[string]chan callbackResult),
	}
}

// SignIn opens the consent page and blocks until the callback arrives or ctx ends
func (f *GoogleFederator) SignIn(ctx context.Context) (*FederatedCredential, error) {
	state, err := randomState()
	if err != nil {
		return nil, errors.NewInternalError("Failed to start Google sign-in", err)
	}
	verifier := oauth2.GenerateVerifier()

	results := make(chan callbackResult, 1)
	f.mu.Lock()
	f.pending[state] = results
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		delete(f.pending, state)
		f.mu.Unlock()
	}()

	authURL := f.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier))
	if err := f.openURL(authURL); err != nil {
		f.logger.WithError(err).WithField("url", authURL).Warn("Could not open browser, open the URL manually")
	}

	var result callbackResult
	select {
	case result = <-results:
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewTimeoutError(errors.ErrorTypeCredential, "Google sign-in timed out", ctx.Err())
		}
		return nil, errors.NewCredentialError("Google sign-in was cancelled", ctx.Err())
	}
	if result.err != nil {
		return nil, result.err
	}

	token, err := f.oauth.Exchange(ctx, result.code, oauth2.VerifierOption(verifier))
	if err != nil {
		f.logger.WithError(err).Error("Google code exchange failed")
		return nil, errors.NewCredentialError("Google sign-in failed", err)
	}

	rawIDToken, _ := token.Extra("id_token").(string)
	if rawIDToken == "" {
		return nil, errors.NewCredentialError("Google did not return an ID token", nil)
	}

	payload, err := f.validator.Validate(ctx, rawIDToken, f.oauth.ClientID)
	if err != nil {
		f.logger.WithError(err).Error("Google ID token rejected")
		return nil, errors.NewCredentialError("Invalid Google ID token", err)
	}

	cred := &FederatedCredential{
		Provider:      domain.ProviderGoogle,
		IDToken:       rawIDToken,
		Subject:       payload.Subject,
		Email:         getStringValue(payload.Claims, "email"),
		Name:          getStringValue(payload.Claims, "name"),
		EmailVerified: getBoolValue(payload.Claims, "email_verified"),
	}
	if cred.Subject == "" {
		return nil, errors.NewCredentialError("Invalid Google ID token: no subject", nil)
	}

	f.logger.WithFields(map[string]interface{}{
		"subject":        cred.Subject,
		"email_verified": cred.EmailVerified,
	}).Info("Google sign-in completed")
	return cred, nil
}

// HandleCallback receives the OAuth redirect and hands the code to the waiting SignIn
func (f *GoogleFederator) HandleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	state := query.Get("state")

	f.mu.Lock()
	results, ok := f.pending[state]
	if ok {
		delete(f.pending, state)
	}
	f.mu.Unlock()

	if !ok {
		http.Error(w, "Unknown or expired sign-in request", http.StatusBadRequest)
		return
	}

	if reason := query.Get("error"); reason != "" {
		msg := "Google sign-in failed"
		if reason == "access_denied" {
			msg = "Google sign-in was cancelled"
		}
		results <- callbackResult{err: errors.NewCredentialError(msg, fmt.Errorf("oauth error: %s", reason))}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><body><h1>Sign-in cancelled</h1><p>You can close this window.</p></body></html>")
		return
	}

	code := query.Get("code")
	if code == "" {
		results <- callbackResult{err: errors.NewCredentialError("Google sign-in failed", fmt.Errorf("callback without code"))}
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		return
	}

	results <- callbackResult{code: code}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<html><body><h1>Authentication successful!</h1><p>You can close this window and return to Upgradify.</p></body></html>")
}

// OpenBrowser opens url in the platform's default browser
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func randomState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

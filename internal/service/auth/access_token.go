package auth

import (
	"fmt"
	"time"

	"upgradify/internal/domain"
	"upgradify/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenVerifier checks Supabase-issued access tokens signed with the
// project's HMAC secret
type AccessTokenVerifier struct {
	secret []byte
	now    func() time.Time
}

// NewAccessTokenVerifier returns nil when secret is empty
func NewAccessTokenVerifier(secret string) *AccessTokenVerifier {
	if secret == "" {
		return nil
	}
	return &AccessTokenVerifier{secret: []byte(secret), now: time.Now}
}

// Verify validates the token signature and expiry and returns the identity it names
func (v *AccessTokenVerifier) Verify(tokenString string) (*domain.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.now))
	if err != nil || !token.Valid {
		return nil, errors.NewCredentialError("Invalid access token", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.NewCredentialError("Invalid access token", nil)
	}

	identity := &domain.Identity{
		ID:       getStringValue(claims, "sub"),
		Email:    getStringValue(claims, "email"),
		Provider: domain.ProviderEmail,
	}
	if userMeta, ok := claims["user_metadata"].(map[string]interface{}); ok {
		identity.DisplayName = displayNameFrom(userMeta)
		identity.EmailVerified = getBoolValue(userMeta, "email_verified")
	}
	if appMeta, ok := claims["app_metadata"].(map[string]interface{}); ok {
		if provider := getStringValue(appMeta, "provider"); provider != "" {
			identity.Provider = provider
		}
	}

	if identity.ID == "" {
		return nil, errors.NewCredentialError("Invalid access token: no user identifier", nil)
	}
	return identity, nil
}

func displayNameFrom(userMeta map[string]interface{}) string {
	if name := getStringValue(userMeta, "name"); name != "" {
		return name
	}
	return getStringValue(userMeta, "full_name")
}

// getStringValue safely extracts a string value from a map
func getStringValue(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}

// getBoolValue safely extracts a boolean value from a map
func getBoolValue(m map[string]interface{}, key string) bool {
	switch val := m[key].(type) {
	case bool:
		return val
	case string:
		return val == "true"
	}
	return false
}

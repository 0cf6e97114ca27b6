package auth

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// ErrNotConfigured is returned when no auth base URL was configured.
var ErrNotConfigured = errors.New("auth base URL is not set")

const defaultPlayerName = "Player"

// Validator checks EdDSA-signed JWTs against a JWKS endpoint.
// The JWKS client is created on first use and reused afterwards.
type Validator struct {
	issuer  string
	jwksURL string

	once    sync.Once
	keyfunc jwt.Keyfunc
	initErr error
}

// NewValidator returns a validator for tokens issued by baseURL (JWKS at baseURL/.well-known/jwks.json).
// An empty baseURL yields a validator that rejects every token with ErrNotConfigured.
func NewValidator(baseURL string) (*Validator, error) {
	if baseURL == "" {
		return &Validator{}, nil
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	return &Validator{
		issuer:  u.Scheme + "://" + u.Host,
		jwksURL: strings.TrimRight(baseURL, "/") + "/.well-known/jwks.json",
	}, nil
}

// NewStaticValidator returns a validator that resolves keys with kf instead of fetching a JWKS.
func NewStaticValidator(issuer string, kf jwt.Keyfunc) *Validator {
	v := &Validator{issuer: issuer, keyfunc: kf}
	v.once.Do(func() {})
	return v
}

// Enabled reports whether the validator can check tokens.
func (v *Validator) Enabled() bool {
	return v != nil && (v.jwksURL != "" || v.keyfunc != nil)
}

func (v *Validator) loadKeyfunc() (jwt.Keyfunc, error) {
	v.once.Do(func() {
		jwks, err := keyfunc.NewDefault([]string{v.jwksURL})
		if err != nil {
			v.initErr = err
			return
		}
		v.keyfunc = jwks.Keyfunc
	})
	return v.keyfunc, v.initErr
}

// Validate parses tokenString and returns its claims.
func (v *Validator) Validate(tokenString string) (jwt.MapClaims, error) {
	if !v.Enabled() {
		return nil, ErrNotConfigured
	}
	kf, err := v.loadKeyfunc()
	if err != nil {
		return nil, err
	}
	token, err := jwt.Parse(tokenString, kf,
		jwt.WithIssuer(v.issuer),
		jwt.WithValidMethods([]string{"EdDSA"}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header value.
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// FirstNameFromClaims returns the first word of the "name" claim, or a fallback.
func FirstNameFromClaims(claims jwt.MapClaims) string {
	name, _ := claims["name"].(string)
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return defaultPlayerName
	}
	return parts[0]
}

// UserIDFromClaims returns the user id from claims ("sub" or "id").
func UserIDFromClaims(claims jwt.MapClaims) string {
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub
	}
	if id, ok := claims["id"].(string); ok && id != "" {
		return id
	}
	return ""
}

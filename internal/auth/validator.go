package auth

import (
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/alpha-cen/auth-user-service/pkg/middleware"

	"github.com/alpha-cen/auth-user-service/internal/domain"
)

// Claims are the token claims issued by the user pool.
type Claims struct {
	jwt.RegisteredClaims
	Username string   `json:"cognito:username,omitempty"`
	Email    string   `json:"email,omitempty"`
	Groups   []string `json:"cognito:groups,omitempty"`
	TokenUse string   `json:"token_use,omitempty"`
}

// Validator verifies bearer tokens against the user pool's published JWK set.
type Validator struct {
	jwks    *keyfunc.JWKS
	issuer  string
	methods []string
}

// New fetches the JWK set from jwksURL and keeps it refreshed in the
// background. Unknown key IDs trigger a rate-limited refresh, so key
// rotation does not require a restart.
func New(jwksURL, issuer string) (*Validator, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch jwks from %s: %w", jwksURL, err)
	}
	return NewWithKeyfunc(jwks, issuer, "RS256"), nil
}

// NewWithKeyfunc builds a validator around an existing JWK set. Tests use it
// with a given key and a non-RS256 method.
func NewWithKeyfunc(jwks *keyfunc.JWKS, issuer string, methods ...string) *Validator {
	if len(methods) == 0 {
		methods = []string{"RS256"}
	}
	return &Validator{jwks: jwks, issuer: issuer, methods: methods}
}

// Validate parses and verifies a token, returning the principal it identifies.
func (v *Validator) Validate(tokenString string) (*middleware.Principal, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods(v.methods)}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.jwks.Keyfunc, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	username := claims.Username
	if username == "" {
		username = claims.Subject
	}

	return &middleware.Principal{
		Subject:  claims.Subject,
		Username: username,
		Email:    claims.Email,
		Role:     roleFromGroups(claims.Groups),
	}, nil
}

// Shutdown stops the background JWKS refresh.
func (v *Validator) Shutdown() {
	v.jwks.EndBackground()
}

// roleFromGroups maps the first provider group to a role. Users outside any
// group default to USER.
func roleFromGroups(groups []string) string {
	if len(groups) == 0 {
		return domain.RoleUser
	}
	role := domain.NormalizeRole(groups[0])
	if !domain.IsValidRole(role) {
		return domain.RoleUser
	}
	return role
}

package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTL constants. Services override these from config.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	DefaultAccessTokenTTL = 2 * time.Hour

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// TokenType distinguishes access tokens from refresh tokens so one can never
// be used in place of the other.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the token claims shared between the identity service and the
// gateway. Keep changes additive, both sides parse the same struct.
type Claims struct {
	jwt.RegisteredClaims

	/* Cross-service custom fields */

	// Phone number of the authenticated user
	Phone string `json:"phone,omitempty"`

	// Email of the authenticated user, if known
	Email string `json:"email,omitempty"`

	// AppID of the application the token was minted for
	AppID string `json:"appId,omitempty"`

	// Roles carried for downstream services. No policy is applied here.
	Roles []string `json:"roles,omitempty"`

	// Type is "access" or "refresh"
	Type TokenType `json:"typ"`
}

// AccessClaimsParams groups the inputs for NewAccessClaims.
type AccessClaimsParams struct {
	Subject string
	Phone   string
	Email   string
	AppID   string
	Roles   []string
	Issuer  string
	TTL     time.Duration
	Now     time.Time
}

// NewAccessClaims builds minimally-correct access token claims.
func NewAccessClaims(p AccessClaimsParams) Claims {
	return Claims{
		RegisteredClaims: registered(p.Subject, p.Issuer, p.TTL, p.Now),
		Phone:            p.Phone,
		Email:            p.Email,
		AppID:            p.AppID,
		Roles:            slices.Clone(p.Roles),
		Type:             TokenTypeAccess,
	}
}

// NewRefreshClaims builds refresh token claims. Refresh tokens only carry
// enough to find the owner, everything else is re-read on rotation.
func NewRefreshClaims(subject, phone, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: registered(subject, issuer, ttl, now),
		Phone:            phone,
		Type:             TokenTypeRefresh,
	}
}

func registered(subject, issuer string, ttl time.Duration, now time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        NewJTI(),
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateType checks the token is of the expected type.
func (c *Claims) ValidateType(expected TokenType) error {
	if c.Type != expected {
		return ErrTokenType
	}
	return nil
}

package gateway

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/aussiebroadwan/identity/internal/identity/service"
	"github.com/aussiebroadwan/identity/pkg/authsdk"
	"github.com/aussiebroadwan/identity/pkg/httpx"
	"github.com/aussiebroadwan/identity/pkg/jwtx"
	"github.com/aussiebroadwan/identity/pkg/slogx"
)

// Identity headers forwarded to upstreams. They are always present on
// authenticated requests, empty when the claim is absent.
const (
	HeaderUserID    = httpx.HeaderUserID
	HeaderUserEmail = "X-User-Email"
	HeaderAppID     = "X-App-Id"
	HeaderUserRoles = "X-User-Roles"
)

var identityHeaders = []string{HeaderUserID, HeaderUserEmail, HeaderAppID, HeaderUserRoles}

// DefaultPublicPaths are served without authentication.
var DefaultPublicPaths = []string{"/auth/", "/actuator/", "/livez", "/readyz"}

// AuthFilterOrder puts authentication ahead of every other filter.
const AuthFilterOrder = -100

// Filter is one stage of the gateway pipeline. Filters run in ascending
// Order, the lowest order is outermost.
type Filter interface {
	Order() int
	Wrap(next http.Handler) http.Handler
}

// Chain composes filters around h by ascending order. Filters with equal
// order keep their listed order.
func Chain(h http.Handler, filters ...Filter) http.Handler {
	sorted := slices.Clone(filters)
	slices.SortStableFunc(sorted, func(a, b Filter) int { return a.Order() - b.Order() })

	for i := len(sorted) - 1; i >= 0; i-- {
		h = sorted[i].Wrap(h)
	}
	return h
}

// AuthError is an authentication failure. Message is sent to the client.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return "gateway: " + e.Message }

var (
	ErrMissingCredentials = &AuthError{Message: "Missing or invalid authorization header"}
	ErrTokenExpired       = &AuthError{Message: "Token expired"}
	ErrInvalidToken       = &AuthError{Message: "Invalid token"}
	ErrAuthFailed         = &AuthError{Message: "Authentication failed"}
)

// TokenValidator validates a bearer token. Errors match
// service.ErrTokenExpired or service.ErrTokenInvalid.
type TokenValidator interface {
	Validate(token string) (jwtx.Claims, error)
}

// Identity is the authenticated caller. Public is set for requests on a
// public path, which carry no identity.
type Identity struct {
	Public bool
	UserID string
	Email  string
	AppID  string
	Roles  []string
}

// Authenticator decides whether a request may pass and who made it. It has
// no state beyond its configuration.
type Authenticator struct {
	Tokens      TokenValidator
	PublicPaths []string
}

// IsPublic reports whether path starts with a public prefix.
func (a *Authenticator) IsPublic(path string) bool {
	for _, prefix := range a.PublicPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Authenticate checks the Authorization header value for path.
func (a *Authenticator) Authenticate(path, authorization string) (Identity, error) {
	if a.IsPublic(path) {
		return Identity{Public: true}, nil
	}

	token, ok := httpx.BearerToken(authorization)
	if !ok {
		return Identity{}, ErrMissingCredentials
	}

	claims, err := a.Tokens.Validate(token)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrTokenExpired):
		return Identity{}, ErrTokenExpired
	case errors.Is(err, service.ErrTokenInvalid):
		return Identity{}, ErrInvalidToken
	default:
		return Identity{}, ErrAuthFailed
	}

	// Refresh tokens only buy new pairs, they never authorize a request.
	if claims.Type != jwtx.TokenTypeAccess {
		return Identity{}, ErrInvalidToken
	}

	return Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		AppID:  claims.AppID,
		Roles:  claims.Roles,
	}, nil
}

// AuthFilter adapts an Authenticator to HTTP. Client supplied identity
// headers are always dropped, so upstreams only ever see values set here.
type AuthFilter struct {
	Auth *Authenticator
}

func (f AuthFilter) Order() int { return AuthFilterOrder }

func (f AuthFilter) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, h := range identityHeaders {
			r.Header.Del(h)
		}

		id, err := f.Auth.Authenticate(r.URL.Path, r.Header.Get("Authorization"))
		if err != nil {
			msg := ErrAuthFailed.Message
			var ae *AuthError
			if errors.As(err, &ae) {
				msg = ae.Message
			}
			slogx.FromContext(r.Context()).Info("request rejected", "path", r.URL.Path, "reason", msg)
			writeError(w, http.StatusUnauthorized, msg)
			return
		}

		if !id.Public {
			r.Header.Set(HeaderUserID, id.UserID)
			r.Header.Set(HeaderUserEmail, id.Email)
			r.Header.Set(HeaderAppID, id.AppID)
			r.Header.Set(HeaderUserRoles, strings.Join(id.Roles, ","))
		}

		next.ServeHTTP(w, r)
	})
}

// RateLimitFilter limits requests per client IP.
type RateLimitFilter struct {
	Config httpx.RateLimitConfig
}

func (f RateLimitFilter) Order() int { return 0 }

func (f RateLimitFilter) Wrap(next http.Handler) http.Handler {
	return httpx.RateLimitMiddleware(f.Config, httpx.RemoteIPKeyExtractor, func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
	})(next)
}

// writeError writes the gateway failure body {"code","message","data":null}.
func writeError(w http.ResponseWriter, status int, msg string) {
	httpx.WriteJSON(w, status, authsdk.Response[any]{Code: status, Message: msg})
}

package httpx

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/identity/pkg/jwtx"
	"github.com/aussiebroadwan/identity/pkg/slogx"
)

// HeaderUserID is set by the gateway after it authenticated the caller.
const HeaderUserID = "X-User-Id"

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value. The scheme is case-insensitive, the token must be non-empty.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

// AuthnOptions controls how AuthnMiddleware resolves the caller.
type AuthnOptions struct {
	// Verify validates bearer tokens. Tokens that fail are ignored, the
	// request continues anonymously and RequireUser decides.
	Verify func(token string) (jwtx.Claims, error)

	// TrustGatewayHeader accepts X-User-Id when no bearer token is present.
	// Only enable this behind the gateway, it strips client supplied values.
	TrustGatewayHeader bool
}

// AuthnMiddleware resolves the caller's user id and stores it in the request
// context. It never rejects a request on its own.
func AuthnMiddleware(opts AuthnOptions) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if raw, ok := BearerToken(r.Header.Get("Authorization")); ok && opts.Verify != nil {
				claims, err := opts.Verify(raw)
				if err == nil && claims.Type == jwtx.TokenTypeAccess {
					ctx = WithUserID(ctx, claims.Subject)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
				if err != nil {
					slogx.FromContext(ctx).Debug("bearer token rejected", "err", err)
				}
			}

			if opts.TrustGatewayHeader {
				if id := strings.TrimSpace(r.Header.Get(HeaderUserID)); id != "" {
					ctx = WithUserID(ctx, id)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects requests without a resolved user id using reject.
func RequireUser(reject http.Handler) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := UserIDFromContext(r.Context()); !ok {
				reject.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

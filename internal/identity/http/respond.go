package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/aussiebroadwan/identity/internal/identity/service"
	"github.com/aussiebroadwan/identity/pkg/authsdk"
	"github.com/aussiebroadwan/identity/pkg/httpx"
	"github.com/aussiebroadwan/identity/pkg/slogx"
)

const messageSuccess = "success"

// writeData writes the success envelope around data.
func writeData(w http.ResponseWriter, data any) {
	httpx.WriteJSON(w, http.StatusOK, authsdk.Response[any]{
		Code:    http.StatusOK,
		Message: messageSuccess,
		Data:    data,
	})
}

// statusFor maps a service error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrAuthFailed),
		errors.Is(err, service.ErrTokenExpired),
		errors.Is(err, service.ErrTokenInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as {"code","message"}. Internal failures are logged
// with their cause and reported without it.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slogx.FromContext(r.Context()).Error("request failed", slog.Any("err", err))
	}
	authsdk.NewAPIError(status, service.Message(err)).WriteError(w)
}

// validatable is implemented by every authsdk request type.
type validatable interface {
	Validate() map[string]string
}

// decodeRequest decodes and validates the JSON body into T. On failure it
// writes the response and returns false.
func decodeRequest[T validatable](w http.ResponseWriter, r *http.Request) (T, bool) {
	var req T
	if err := httpx.DecodeJSON(r, &req); err != nil {
		authsdk.ErrBadJSON.WriteError(w)
		return req, false
	}

	if fields := req.Validate(); fields != nil {
		authsdk.NewValidationError(fields).WriteError(w)
		return req, false
	}

	return req, true
}

func toUserInfo(u domain.User) *authsdk.UserInfo {
	return &authsdk.UserInfo{
		ID:        u.ID,
		Phone:     u.Phone,
		Nickname:  u.Nickname,
		AvatarURL: u.Avatar,
		Email:     u.Email,
		Status:    string(u.Status),
		CreatedAt: u.CreatedAt,
	}
}

func toAuthResponse(res *service.AuthResult) authsdk.AuthResponse {
	return authsdk.AuthResponse{
		AccessToken:  res.Pair.AccessToken,
		RefreshToken: res.Pair.RefreshToken,
		ExpiresIn:    res.Pair.ExpiresIn,
		User:         toUserInfo(res.User),
	}
}

// unauthenticated rejects requests that reached a protected route without a
// resolved user.
var unauthenticated = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	authsdk.NewAPIError(http.StatusUnauthorized, "Authentication required").WriteError(w)
})

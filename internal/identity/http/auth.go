package http

import (
	"net/http"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/aussiebroadwan/identity/internal/identity/service"
	"github.com/aussiebroadwan/identity/pkg/authsdk"
	"github.com/aussiebroadwan/identity/pkg/httpx"
)

// AuthHandler serves the /auth endpoints.
type AuthHandler struct {
	Identity      *service.IdentityService
	Verifications *service.VerificationService
}

// HandleSendCode handles POST /auth/send-code.
//
//	@Summary		Send verification code
//	@Description	Sends a 6 digit code by SMS. At most 5 sends per phone per hour.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.SendCodeRequest	true	"Phone and code type"
//	@Success		200		{object}	authsdk.Response[any]
//	@Failure		400		{object}	authsdk.ErrorResponse	"Validation failed"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Too many code requests"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal Server Error"
//	@Router			/auth/send-code [post]
func (h *AuthHandler) HandleSendCode(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[authsdk.SendCodeRequest](w, r)
	if !ok {
		return
	}

	if err := h.Verifications.Send(r.Context(), req.Phone, domain.CodeType(req.Type)); err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, nil)
}

// HandleRegister handles POST /auth/register.
//
//	@Summary		Register
//	@Description	Creates an account with a password, a REGISTER verification code, or both.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.RegisterRequest	true	"New account"
//	@Success		200		{object}	authsdk.Response[authsdk.AuthResponse]
//	@Failure		400		{object}	authsdk.ErrorResponse	"Validation failed or bad code"
//	@Failure		409		{object}	authsdk.ErrorResponse	"Phone number already registered"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal Server Error"
//	@Router			/auth/register [post]
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[authsdk.RegisterRequest](w, r)
	if !ok {
		return
	}

	res, err := h.Identity.Register(r.Context(), service.RegisterInput{
		Phone:            req.Phone,
		Password:         req.Password,
		VerificationCode: req.VerificationCode,
		Nickname:         req.Nickname,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, toAuthResponse(res))
}

// HandleLogin handles POST /auth/login.
//
//	@Summary		Log in
//	@Description	Authenticates with exactly one of password or LOGIN verification code.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.Response[authsdk.AuthResponse]
//	@Failure		400		{object}	authsdk.ErrorResponse	"Validation failed"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Unauthorized"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal Server Error"
//	@Router			/auth/login [post]
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[authsdk.LoginRequest](w, r)
	if !ok {
		return
	}

	res, err := h.Identity.Login(r.Context(), service.LoginInput{
		Phone:            req.Phone,
		Password:         req.Password,
		VerificationCode: req.VerificationCode,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, toAuthResponse(res))
}

// HandleRefresh handles POST /auth/refresh.
//
//	@Summary		Refresh tokens
//	@Description	Exchanges a refresh token for a new pair. The presented token is consumed.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.RefreshRequest	true	"Refresh token"
//	@Success		200		{object}	authsdk.Response[authsdk.AuthResponse]
//	@Failure		400		{object}	authsdk.ErrorResponse	"Validation failed"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Unauthorized"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal Server Error"
//	@Router			/auth/refresh [post]
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[authsdk.RefreshRequest](w, r)
	if !ok {
		return
	}

	res, err := h.Identity.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, toAuthResponse(res))
}

// HandleLogout handles POST /auth/logout. Requires a resolved user.
//
//	@Summary		Log out
//	@Description	Revokes every refresh token of the caller.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	authsdk.Response[any]
//	@Failure		401	{object}	authsdk.ErrorResponse	"Unauthorized"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal Server Error"
//	@Security		BearerAuth
//	@Router			/auth/logout [post]
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	userID, _ := httpx.UserIDFromContext(r.Context())

	if err := h.Identity.Logout(r.Context(), userID); err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, nil)
}

// HandleMe handles GET /auth/me. Requires a resolved user.
//
//	@Summary		Current user
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	authsdk.Response[authsdk.UserInfo]
//	@Failure		401	{object}	authsdk.ErrorResponse	"Unauthorized"
//	@Failure		404	{object}	authsdk.ErrorResponse	"User not found"
//	@Security		BearerAuth
//	@Router			/auth/me [get]
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := httpx.UserIDFromContext(r.Context())

	user, err := h.Identity.GetCurrentUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, toUserInfo(user))
}

package authsdk_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/aussiebroadwan/identity/pkg/authsdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(authsdk.Response[any]{Code: 200, Message: "success", Data: data})
}

func TestClientLoginAndMe(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req authsdk.LoginRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "secret1" {
			authsdk.NewAPIError(http.StatusUnauthorized, "Invalid phone or password/verification code").WriteError(w)
			return
		}
		writeData(w, authsdk.AuthResponse{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			ExpiresIn:    7200,
			User:         &authsdk.UserInfo{ID: "u1", Phone: req.Phone, Status: "ACTIVE"},
		})
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		writeData(w, authsdk.UserInfo{ID: "u1", Phone: "13800000001", Status: "ACTIVE"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := authsdk.NewSDKClient(srv.URL + "/")

	_, err := client.LoginSession(t.Context(), authsdk.LoginRequest{Phone: "13800000001", Password: "wrong1"})
	var apiErr *authsdk.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, "Invalid phone or password/verification code", apiErr.Message)

	session, err := client.LoginSession(t.Context(), authsdk.LoginRequest{Phone: "13800000001", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, "u1", session.User().ID)

	me, err := session.Me(t.Context())
	require.NoError(t, err)
	require.Equal(t, "13800000001", me.Phone)
}

func TestClientValidationError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authsdk.NewValidationError(map[string]string{"phone": "required"}).WriteError(w)
	}))
	defer srv.Close()

	err := authsdk.NewSDKClient(srv.URL).SendCode(t.Context(), authsdk.SendCodeRequest{})
	var apiErr *authsdk.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, authsdk.MessageValidationFailed, apiErr.Message)
	require.Equal(t, map[string]string{"phone": "required"}, apiErr.Fields)
}

func TestClientNonJSONError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := authsdk.NewSDKClient(srv.URL).Refresh(t.Context(), "r")
	var apiErr *authsdk.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}

func TestSessionRefreshesExpiredToken(t *testing.T) {
	t.Parallel()

	var refreshes atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var req authsdk.RefreshRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "refresh-old", req.RefreshToken)
		refreshes.Add(1)
		writeData(w, authsdk.AuthResponse{AccessToken: "access-new", RefreshToken: "refresh-new", ExpiresIn: 7200})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-new", r.Header.Get("Authorization"))
		writeData(w, nil)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	// expiresIn 0 puts the token inside the refresh skew.
	session := authsdk.NewSDKClient(srv.URL).NewSessionFromTokens("access-old", "refresh-old", 0)

	require.NoError(t, session.Logout(t.Context()))
	require.Equal(t, int32(1), refreshes.Load())
	require.Equal(t, "access-new", session.AccessToken())
	require.Empty(t, session.RefreshToken())
}

func TestSessionWithoutRefreshToken(t *testing.T) {
	t.Parallel()

	session := authsdk.NewSDKClient("http://127.0.0.1:1").NewSessionFromTokens("a", "", 0)
	_, err := session.Me(t.Context())
	require.ErrorIs(t, err, authsdk.ErrNoRefreshToken)
}

func TestGetLiveness(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/livez", r.URL.Path)
		_ = json.NewEncoder(w).Encode(authsdk.HealthResponse{Status: "ok", Version: "test"})
	}))
	defer srv.Close()

	health, err := authsdk.NewSDKClient(srv.URL).GetLiveness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", health.Status)
}

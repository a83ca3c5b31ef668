package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the identity service, directly or through the
// gateway. It provides access to unauthenticated operations and can create
// authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new identity service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// LoginSession logs in and returns a session holding the issued tokens.
func (c *SDKClient) LoginSession(ctx context.Context, req LoginRequest) (*Session, error) {
	auth, err := c.Login(ctx, req)
	if err != nil {
		return nil, err
	}

	return newSession(c, auth), nil
}

// RegisterSession registers and returns a session holding the issued tokens.
func (c *SDKClient) RegisterSession(ctx context.Context, req RegisterRequest) (*Session, error) {
	auth, err := c.Register(ctx, req)
	if err != nil {
		return nil, err
	}

	return newSession(c, auth), nil
}

// NewSessionFromTokens creates an authenticated session from existing tokens.
// The session will still refresh when the access token expires.
func (c *SDKClient) NewSessionFromTokens(accessToken, refreshToken string, expiresIn int64) *Session {
	return newSession(c, &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
	})
}

package authsdk

import (
	"context"
	"net/http"
)

// SendCode asks the service to text a verification code to req.Phone.
func (c *SDKClient) SendCode(ctx context.Context, req SendCodeRequest) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/send-code", req, "")
	if err != nil {
		return err
	}

	return decodeEnvelope(resp, nil, http.StatusOK)
}

// Register creates an account and returns its first token pair.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	return c.requestTokens(ctx, "/auth/register", req)
}

// Login authenticates by password or verification code.
func (c *SDKClient) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	return c.requestTokens(ctx, "/auth/login", req)
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// consumed, reusing it fails.
func (c *SDKClient) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	return c.requestTokens(ctx, "/auth/refresh", RefreshRequest{RefreshToken: refreshToken})
}

// Logout revokes every refresh token of the user behind accessToken.
func (c *SDKClient) Logout(ctx context.Context, accessToken string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/logout", nil, accessToken)
	if err != nil {
		return err
	}

	return decodeEnvelope(resp, nil, http.StatusOK)
}

// Me returns the user behind accessToken.
func (c *SDKClient) Me(ctx context.Context, accessToken string) (*UserInfo, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/auth/me", nil, accessToken)
	if err != nil {
		return nil, err
	}

	var user UserInfo
	if err := decodeEnvelope(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}

	return &user, nil
}

func (c *SDKClient) requestTokens(ctx context.Context, path string, body any) (*AuthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, path, body, "")
	if err != nil {
		return nil, err
	}

	var auth AuthResponse
	if err := decodeEnvelope(resp, &auth, http.StatusOK); err != nil {
		return nil, err
	}

	return &auth, nil
}

package authsdk

import "time"

// Response is the envelope around every success body.
type Response[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// ErrorResponse is the body of a failed backend call. Data is only set for
// validation failures and maps field names to messages.
type ErrorResponse struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    map[string]string `json:"data,omitempty"`
}

// SendCodeRequest asks for a verification code to be sent to Phone.
type SendCodeRequest struct {
	Phone string `json:"phone"`
	Type  string `json:"type"` // REGISTER, LOGIN or RESET_PASSWORD
}

// RegisterRequest creates an account. At least one of Password and
// VerificationCode is required.
type RegisterRequest struct {
	Phone            string `json:"phone"`
	Password         string `json:"password,omitempty"`
	VerificationCode string `json:"verificationCode,omitempty"`
	Nickname         string `json:"nickname,omitempty"`
}

// LoginRequest authenticates by password or by verification code. Exactly
// one of them must be set.
type LoginRequest struct {
	Phone            string `json:"phone"`
	Password         string `json:"password,omitempty"`
	VerificationCode string `json:"verificationCode,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// AuthResponse is returned by register, login and refresh.
type AuthResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresIn    int64     `json:"expiresIn"` // access token lifetime in seconds
	User         *UserInfo `json:"user,omitempty"`
}

// UserInfo is the public view of a user.
type UserInfo struct {
	ID        string    `json:"id"`
	Phone     string    `json:"phone"`
	Nickname  string    `json:"nickname"`
	AvatarURL *string   `json:"avatarUrl"`
	Email     *string   `json:"email,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// HealthResponse is returned by the liveness and readiness probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the state of each dependency.
type HealthChecks struct {
	Database string `json:"database"`
	Cache    string `json:"cache,omitempty"`
}

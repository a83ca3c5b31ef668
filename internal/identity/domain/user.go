package domain

import "time"

// UserStatus gates whether a user may authenticate.
type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusDisabled UserStatus = "DISABLED"
)

// Valid reports whether s is a known status.
func (s UserStatus) Valid() bool {
	return s == UserStatusActive || s == UserStatusDisabled
}

type User struct {
	ID           string
	Phone        string  // unique, immutable after creation
	PasswordHash *string // argon2 encoded, nil for code-only accounts
	Nickname     string
	Avatar       *string
	Email        *string
	Roles        []string
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the user can log in with a password.
func (u User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// MaskPhone hides the middle of a phone number, 13800000001 becomes
// 138****0001. Numbers too short to mask are returned unchanged.
func MaskPhone(phone string) string {
	if len(phone) < 8 {
		return phone
	}
	return phone[:3] + "****" + phone[len(phone)-4:]
}

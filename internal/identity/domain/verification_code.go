package domain

import "time"

// CodeType is the purpose a verification code was issued for. A code only
// verifies against the type it was sent for.
type CodeType string

const (
	CodeTypeRegister      CodeType = "REGISTER"
	CodeTypeLogin         CodeType = "LOGIN"
	CodeTypeResetPassword CodeType = "RESET_PASSWORD"
)

// Valid reports whether t is a known code type.
func (t CodeType) Valid() bool {
	switch t {
	case CodeTypeRegister, CodeTypeLogin, CodeTypeResetPassword:
		return true
	}
	return false
}

type VerificationCode struct {
	ID        string
	Phone     string
	Code      string // 6 decimal digits, leading zeros allowed
	Type      CodeType
	ExpiresAt time.Time
	Verified  bool
	CreatedAt time.Time
}

// Expired reports whether the code is past its expiry at now.
func (c VerificationCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

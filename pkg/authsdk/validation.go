package authsdk

import (
	"regexp"
	"unicode/utf8"
)

const (
	requiredReason = "required"
	phoneReason    = "must be a valid mobile number"
	passwordReason = "must be 6-20 characters"
	codeReason     = "must be 6 digits"
	nicknameReason = "too long (max 50)"
	codeTypeReason = "must be one of REGISTER, LOGIN, RESET_PASSWORD"
	maxNicknameLen = 50
	minPasswordLen = 6
	maxPasswordLen = 20
)

var (
	rePhone = regexp.MustCompile(`^1[3-9]\d{9}$`)
	reCode  = regexp.MustCompile(`^\d{6}$`)
)

// Validate checks the send-code request. Returns a map of field names to
// error messages, or nil if all fields are valid.
func (r SendCodeRequest) Validate() map[string]string {
	errs := make(map[string]string)
	validatePhone(errs, r.Phone)

	switch r.Type {
	case "":
		errs["type"] = requiredReason
	case "REGISTER", "LOGIN", "RESET_PASSWORD":
	default:
		errs["type"] = codeTypeReason
	}

	return nilIfEmpty(errs)
}

// Validate checks the register request field by field. Whether a password
// or code is present at all is a business rule checked by the service.
func (r RegisterRequest) Validate() map[string]string {
	errs := make(map[string]string)
	validatePhone(errs, r.Phone)
	validatePassword(errs, r.Password)
	validateCode(errs, r.VerificationCode)

	if utf8.RuneCountInString(r.Nickname) > maxNicknameLen {
		errs["nickname"] = nicknameReason
	}

	return nilIfEmpty(errs)
}

// Validate checks the login request.
func (r LoginRequest) Validate() map[string]string {
	errs := make(map[string]string)
	validatePhone(errs, r.Phone)
	validatePassword(errs, r.Password)
	validateCode(errs, r.VerificationCode)
	return nilIfEmpty(errs)
}

// Validate checks the refresh request.
func (r RefreshRequest) Validate() map[string]string {
	if r.RefreshToken == "" {
		return map[string]string{"refreshToken": requiredReason}
	}
	return nil
}

func validatePhone(errs map[string]string, phone string) {
	switch {
	case phone == "":
		errs["phone"] = requiredReason
	case !rePhone.MatchString(phone):
		errs["phone"] = phoneReason
	}
}

func validatePassword(errs map[string]string, pw string) {
	if pw == "" {
		return
	}
	if n := utf8.RuneCountInString(pw); n < minPasswordLen || n > maxPasswordLen {
		errs["password"] = passwordReason
	}
}

func validateCode(errs map[string]string, code string) {
	if code != "" && !reCode.MatchString(code) {
		errs["verificationCode"] = codeReason
	}
}

func nilIfEmpty(errs map[string]string) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	return errs
}

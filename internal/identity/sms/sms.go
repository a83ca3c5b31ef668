// Package sms delivers verification codes.
package sms

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/aussiebroadwan/identity/pkg/slogx"
)

// Sender delivers one text message to a phone number.
type Sender interface {
	Send(ctx context.Context, phone, message string) error
}

// CodeMessage renders the text sent for a verification code.
func CodeMessage(code string, typ domain.CodeType) string {
	switch typ {
	case domain.CodeTypeRegister:
		return "Your registration code is " + code + ". It expires in 5 minutes."
	case domain.CodeTypeResetPassword:
		return "Your password reset code is " + code + ". It expires in 5 minutes."
	default:
		return "Your login code is " + code + ". It expires in 5 minutes."
	}
}

// LogSender writes messages to the log instead of delivering them. It is
// the mock mode for development and tests, never enable it in production.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(ctx context.Context, phone, message string) error {
	l := s.Logger
	if l == nil {
		l = slogx.FromContext(ctx)
	}
	l.Info("sms mock delivery", "phone", phone, "message", message)
	return nil
}

// ErrNoProvider is returned when mock mode is off and no provider is wired.
var ErrNoProvider = errors.New("sms: no delivery provider configured")

// UnconfiguredSender fails every delivery. Sends through it are reported as
// internal errors and never consume the caller's send budget.
type UnconfiguredSender struct{}

func (UnconfiguredSender) Send(context.Context, string, string) error {
	return ErrNoProvider
}

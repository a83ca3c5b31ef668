package sms_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/aussiebroadwan/identity/internal/identity/sms"
	"github.com/stretchr/testify/require"
)

func TestCodeMessage(t *testing.T) {
	require.Contains(t, sms.CodeMessage("012345", domain.CodeTypeRegister), "registration code is 012345")
	require.Contains(t, sms.CodeMessage("012345", domain.CodeTypeLogin), "login code is 012345")
	require.Contains(t, sms.CodeMessage("012345", domain.CodeTypeResetPassword), "reset code is 012345")
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	s := sms.LogSender{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	require.NoError(t, s.Send(t.Context(), "13800000001", "code 123456"))
	require.Contains(t, buf.String(), "13800000001")
	require.Contains(t, buf.String(), "code 123456")
}

func TestUnconfiguredSender(t *testing.T) {
	err := sms.UnconfiguredSender{}.Send(t.Context(), "13800000001", "hello")
	require.ErrorIs(t, err, sms.ErrNoProvider)
}

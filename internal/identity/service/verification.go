package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/aussiebroadwan/identity/internal/identity/ratewindow"
	"github.com/aussiebroadwan/identity/internal/identity/sms"
	"github.com/aussiebroadwan/identity/internal/identity/store"
	"github.com/aussiebroadwan/identity/pkg/cryptox"
	"github.com/aussiebroadwan/identity/pkg/idx"
	"github.com/aussiebroadwan/identity/pkg/slogx"
)

const (
	// DefaultCodeTTL is how long a sent code stays usable.
	DefaultCodeTTL = 5 * time.Minute

	// DefaultMaxSends is how many codes one phone may request per window.
	DefaultMaxSends = 5

	// DefaultSendWindow is the length of the fixed send window.
	DefaultSendWindow = time.Hour

	// DefaultRateKeyPrefix prefixes the per-phone counter key.
	DefaultRateKeyPrefix = "sms:rate:"

	codeDigits = 6
)

// VerificationService sends and checks one-time SMS codes.
type VerificationService struct {
	Store   store.Store
	Counter ratewindow.Counter
	Sender  sms.Sender

	TTL       time.Duration
	MaxSends  int64
	Window    time.Duration
	KeyPrefix string

	// Now is the clock. Nil means time.Now.
	Now func() time.Time
}

func (s *VerificationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *VerificationService) rateKey(phone string) string {
	prefix := s.KeyPrefix
	if prefix == "" {
		prefix = DefaultRateKeyPrefix
	}
	return prefix + phone
}

// Send issues a new code for (phone, typ) and hands it to the Sender.
//
// The send slot is reserved up front with a single atomic increment, so
// concurrent senders can never exceed the limit. A send that fails after the
// reservation gives the slot back, failed sends never consume the budget.
func (s *VerificationService) Send(ctx context.Context, phone string, typ domain.CodeType) error {
	l := slogx.FromContext(ctx)
	key := s.rateKey(phone)

	count, err := s.Counter.Increment(ctx, key, s.Window)
	if err != nil {
		return internal(err)
	}
	if count > s.MaxSends {
		s.release(ctx, key)
		l.Info("verification code rate limited", slog.String("phone", domain.MaskPhone(phone)))
		return newError(ErrRateLimited, "Too many code requests, please try again later")
	}

	code, err := cryptox.GenerateNumericCode(codeDigits)
	if err != nil {
		s.release(ctx, key)
		return internal(err)
	}

	now := s.now()
	vc := domain.VerificationCode{
		ID:        idx.NewAt(now).String(),
		Phone:     phone,
		Code:      code,
		Type:      typ,
		ExpiresAt: now.Add(s.TTL),
		CreatedAt: now,
	}
	if err := s.Store.VerificationCodes().CreateVerificationCode(ctx, vc); err != nil {
		s.release(ctx, key)
		return internal(err)
	}

	if err := s.Sender.Send(ctx, phone, sms.CodeMessage(code, typ)); err != nil {
		s.release(ctx, key)
		l.Error("verification code delivery failed", slog.String("phone", domain.MaskPhone(phone)), slog.Any("err", err))
		return internal(err)
	}

	l.Info("verification code sent", slog.String("phone", domain.MaskPhone(phone)), slog.String("type", string(typ)))
	return nil
}

func (s *VerificationService) release(ctx context.Context, key string) {
	if err := s.Counter.Decrement(ctx, key); err != nil {
		slogx.FromContext(ctx).Warn("failed to release send slot", slog.String("key", key), slog.Any("err", err))
	}
}

// Verify checks code against the latest unverified code for (phone, typ).
// A matching, unexpired code is marked verified and never matches again.
func (s *VerificationService) Verify(ctx context.Context, phone, code string, typ domain.CodeType) (bool, error) {
	vc, err := s.Store.VerificationCodes().GetLatestUnverified(ctx, phone, typ)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, internal(err)
	}

	if vc.Expired(s.now()) {
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(vc.Code), []byte(code)) != 1 {
		return false, nil
	}

	ok, err := s.Store.VerificationCodes().MarkVerified(ctx, vc.ID)
	if err != nil {
		return false, internal(err)
	}
	return ok, nil
}

// PurgeExpired deletes codes that expired before now.
func (s *VerificationService) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.Store.VerificationCodes().DeleteExpiredVerificationCodes(ctx, now)
	if err != nil {
		return 0, internal(err)
	}
	return n, nil
}

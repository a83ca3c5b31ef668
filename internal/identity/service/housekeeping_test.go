package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/aussiebroadwan/identity/internal/identity/service"
	"github.com/aussiebroadwan/identity/pkg/jwtx"
	"github.com/aussiebroadwan/identity/pkg/slogx"
	"github.com/stretchr/testify/require"
)

type failingPurger struct{ calls int }

func (p *failingPurger) PurgeExpired(context.Context, time.Time) (int64, error) {
	p.calls++
	return 0, errors.New("database is locked")
}

func TestHousekeepingCleanup(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	reg := f.register(t, phone, "secret1")
	require.NoError(t, f.codes.Send(t.Context(), phone, domain.CodeTypeLogin))

	hk := service.NewHousekeepingService(f.tokens, f.codes, slogx.Discard(), 0)
	require.Equal(t, time.Hour, hk.Interval)

	failing := &failingPurger{}
	hk.Purgers["broken"] = failing
	hk.Now = func() time.Time { return f.clock.Now().Add(jwtx.DefaultRefreshTokenTTL + time.Second) }

	hk.Cleanup(t.Context())
	require.Equal(t, 1, failing.calls)

	_, _, err := f.tokens.Rotate(t.Context(), reg.Pair.RefreshToken)
	requireKind(t, err, service.ErrAuthFailed)
	require.Equal(t, "Refresh token not found", service.Message(err))

	n, err := f.codes.PurgeExpired(t.Context(), hk.Now())
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestHousekeepingStartStop(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	hk := service.NewHousekeepingService(f.tokens, f.codes, slogx.Discard(), time.Millisecond)
	hk.Start()
	time.Sleep(5 * time.Millisecond)
	hk.Stop()
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/aussiebroadwan/identity/internal/identity/store"
	"github.com/aussiebroadwan/identity/pkg/cryptox"
	"github.com/aussiebroadwan/identity/pkg/idx"
	"github.com/aussiebroadwan/identity/pkg/jwtx"
	"github.com/aussiebroadwan/identity/pkg/slogx"
)

// TokenService issues, validates and rotates token pairs. Refresh tokens are
// single use: every successful rotation consumes the presented token.
type TokenService struct {
	Store      store.Store
	Signer     jwtx.Signer
	Verifier   jwtx.Verifier
	Issuer     string
	AppID      string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now is the clock. Nil means time.Now.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// IssuePair signs a fresh access/refresh pair for user and records the
// refresh token.
func (s *TokenService) IssuePair(ctx context.Context, user domain.User) (*domain.TokenPair, error) {
	pair, err := s.issuePair(ctx, s.Store, user, s.now())
	if err != nil {
		return nil, internal(err)
	}
	return pair, nil
}

// issuePair runs against st so rotation can issue inside its transaction.
func (s *TokenService) issuePair(ctx context.Context, st store.Store, user domain.User, now time.Time) (*domain.TokenPair, error) {
	var email string
	if user.Email != nil {
		email = *user.Email
	}

	access, err := s.Signer.Sign(jwtx.NewAccessClaims(jwtx.AccessClaimsParams{
		Subject: user.ID,
		Phone:   user.Phone,
		Email:   email,
		AppID:   s.AppID,
		Roles:   user.Roles,
		Issuer:  s.Issuer,
		TTL:     s.AccessTTL,
		Now:     now,
	}))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := s.Signer.Sign(jwtx.NewRefreshClaims(user.ID, user.Phone, s.Issuer, s.RefreshTTL, now))
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	rec := domain.RefreshToken{
		ID:        idx.NewAt(now).String(),
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken(refresh),
		ExpiresAt: now.Add(s.RefreshTTL),
		CreatedAt: now,
	}
	if err := st.RefreshTokens().CreateRefreshToken(ctx, rec); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.AccessTTL / time.Second),
	}, nil
}

// Validate checks the signature, issuer and expiry of token and returns its
// claims. It fails with ErrTokenExpired for a genuine token past its expiry
// and ErrTokenInvalid for everything else.
func (s *TokenService) Validate(token string) (jwtx.Claims, error) {
	claims, err := s.Verifier.Verify(token)
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwtx.ErrExpired):
		return jwtx.Claims{}, newError(ErrTokenExpired, "Token expired")
	default:
		return jwtx.Claims{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
}

// Rotate exchanges a refresh token for a new pair. The lookup, the delete
// and the new insert share one transaction, and the delete must remove
// exactly one row, so of two concurrent rotations only one can succeed.
func (s *TokenService) Rotate(ctx context.Context, refreshToken string) (*domain.TokenPair, domain.User, error) {
	l := slogx.FromContext(ctx)
	now := s.now()

	claims, err := s.Verifier.Verify(refreshToken)
	tokenExpired := errors.Is(err, jwtx.ErrExpired)
	if err != nil && !tokenExpired {
		return nil, domain.User{}, newError(ErrAuthFailed, "Invalid refresh token")
	}
	if err == nil && claims.ValidateType(jwtx.TokenTypeRefresh) != nil {
		return nil, domain.User{}, newError(ErrAuthFailed, "Invalid refresh token")
	}

	var (
		pair  *domain.TokenPair
		user  domain.User
		stale bool
	)

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		rec, err := tx.RefreshTokens().GetRefreshTokenByHash(ctx, cryptox.FingerprintToken(refreshToken))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return newError(ErrAuthFailed, "Refresh token not found")
			}
			return err
		}

		if tokenExpired || rec.Expired(now) {
			if _, err := tx.RefreshTokens().DeleteRefreshToken(ctx, rec.ID); err != nil {
				return err
			}
			// Commit the delete, the caller still fails.
			stale = true
			return nil
		}

		deleted, err := tx.RefreshTokens().DeleteRefreshToken(ctx, rec.ID)
		if err != nil {
			return err
		}
		if !deleted {
			return newError(ErrAuthFailed, "Refresh token not found")
		}

		user, err = tx.Users().GetUserByID(ctx, rec.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return newError(ErrAuthFailed, "User not found")
			}
			return err
		}
		if user.Status != domain.UserStatusActive {
			return newError(ErrAuthFailed, "Account is disabled")
		}

		pair, err = s.issuePair(ctx, tx, user, now)
		return err
	})
	if err != nil {
		var se *Error
		if errors.As(err, &se) {
			l.Info("refresh token rejected", slog.String("reason", se.Message))
			return nil, domain.User{}, err
		}
		return nil, domain.User{}, internal(err)
	}
	if stale {
		l.Info("refresh token rejected", slog.String("reason", "expired"))
		return nil, domain.User{}, newError(ErrAuthFailed, "Refresh token expired")
	}

	return pair, user, nil
}

// RevokeAll deletes every refresh token of userID. Revoking a user with no
// tokens succeeds.
func (s *TokenService) RevokeAll(ctx context.Context, userID string) error {
	n, err := s.Store.RefreshTokens().DeleteUserRefreshTokens(ctx, userID)
	if err != nil {
		return internal(err)
	}
	slogx.FromContext(ctx).Debug("refresh tokens revoked", slog.String("user_id", userID), slog.Int64("count", n))
	return nil
}

// PurgeExpired deletes refresh tokens that expired before now.
func (s *TokenService) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.Store.RefreshTokens().DeleteExpiredRefreshTokens(ctx, now)
	if err != nil {
		return 0, internal(err)
	}
	return n, nil
}

// internal marks an unexpected failure, keeping the cause for logs.
func internal(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInternal, err)
}

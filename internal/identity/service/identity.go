package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/aussiebroadwan/identity/internal/identity/store"
	"github.com/aussiebroadwan/identity/pkg/cryptox"
	"github.com/aussiebroadwan/identity/pkg/idx"
	"github.com/aussiebroadwan/identity/pkg/slogx"
)

// AuthResult is what register, login and refresh return.
type AuthResult struct {
	Pair domain.TokenPair
	User domain.User
}

type RegisterInput struct {
	Phone            string
	Password         string
	VerificationCode string
	Nickname         string
}

type LoginInput struct {
	Phone            string
	Password         string
	VerificationCode string
}

// IdentityService composes users, tokens and verification codes into the
// account flows.
type IdentityService struct {
	Store         store.Store
	Tokens        *TokenService
	Verifications *VerificationService
}

// Register creates an account. At least one of password or verification
// code is required, a supplied code must verify for REGISTER.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	l := slogx.FromContext(ctx)

	exists, err := s.Store.Users().ExistsByPhone(ctx, in.Phone)
	if err != nil {
		return nil, internal(err)
	}
	if exists {
		return nil, newError(ErrConflict, "Phone number already registered")
	}

	if in.Password == "" && in.VerificationCode == "" {
		return nil, newError(ErrBadRequest, "Password or verification code is required")
	}

	if in.VerificationCode != "" {
		ok, err := s.Verifications.Verify(ctx, in.Phone, in.VerificationCode, domain.CodeTypeRegister)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, newError(ErrBadRequest, "Invalid or expired verification code")
		}
	}

	now := s.Tokens.now()
	user := domain.User{
		ID:        idx.NewAt(now).String(),
		Phone:     in.Phone,
		Nickname:  in.Nickname,
		Status:    domain.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if user.Nickname == "" {
		user.Nickname = domain.MaskPhone(in.Phone)
	}
	if in.Password != "" {
		hash, err := cryptox.HashPassword(in.Password)
		if err != nil {
			return nil, internal(err)
		}
		user.PasswordHash = &hash
	}

	var pair *domain.TokenPair
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			return err
		}
		pair, err = s.Tokens.issuePair(ctx, tx, user, now)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// A concurrent registration won between ExistsByPhone and the
			// insert. The code is spent either way; the caller should log in.
			l.Warn("registration lost insert race",
				slog.String("phone", domain.MaskPhone(in.Phone)),
				slog.Bool("code_consumed", in.VerificationCode != ""),
			)
			return nil, newError(ErrConflict, "Phone number already registered")
		}
		return nil, internal(err)
	}

	l.Info("user registered", slog.String("user_id", user.ID))
	return &AuthResult{Pair: *pair, User: user}, nil
}

// Login authenticates by password or verification code. Exactly one of
// them must be supplied.
func (s *IdentityService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	l := slogx.FromContext(ctx)

	if (in.Password == "") == (in.VerificationCode == "") {
		return nil, newError(ErrAuthFailed, "Invalid phone or password/verification code")
	}

	user, err := s.Store.Users().GetUserByPhone(ctx, in.Phone)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(ErrAuthFailed, "Invalid phone or password")
		}
		return nil, internal(err)
	}

	if user.Status != domain.UserStatusActive {
		return nil, newError(ErrAuthFailed, "Account is disabled")
	}

	var authenticated bool
	switch {
	case in.Password != "":
		if !user.HasPassword() {
			return nil, newError(ErrAuthFailed, "Password not set for this account, log in with a verification code")
		}
		err := cryptox.VerifyPassword(in.Password, *user.PasswordHash)
		switch {
		case err == nil:
			authenticated = true
		case !errors.Is(err, cryptox.ErrPasswordMismatch):
			l.Error("stored password hash unusable", slog.String("user_id", user.ID), slog.Any("err", err))
		}
	case in.VerificationCode != "":
		authenticated, err = s.Verifications.Verify(ctx, in.Phone, in.VerificationCode, domain.CodeTypeLogin)
		if err != nil {
			return nil, err
		}
	}

	if !authenticated {
		l.Info("login failed", slog.String("user_id", user.ID))
		return nil, newError(ErrAuthFailed, "Invalid phone or password/verification code")
	}

	pair, err := s.Tokens.IssuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	l.Info("user logged in", slog.String("user_id", user.ID))
	return &AuthResult{Pair: *pair, User: user}, nil
}

// Refresh rotates refreshToken into a new pair.
func (s *IdentityService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	pair, user, err := s.Tokens.Rotate(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Pair: *pair, User: user}, nil
}

// Logout revokes every refresh token of userID.
func (s *IdentityService) Logout(ctx context.Context, userID string) error {
	if err := s.Tokens.RevokeAll(ctx, userID); err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("user logged out", slog.String("user_id", userID))
	return nil
}

// GetCurrentUser returns the user behind userID.
func (s *IdentityService) GetCurrentUser(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, newError(ErrNotFound, "User not found")
		}
		return domain.User{}, internal(err)
	}
	return user, nil
}

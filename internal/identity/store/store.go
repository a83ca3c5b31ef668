package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement this.
// Sub-repositories are methods so a Tx-scoped Store hands out repos bound to
// the same transaction, and nobody opens a transaction within a transaction.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens
	VerificationCodes() VerificationCodes

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByPhone is used by register and login.
	GetUserByPhone(ctx context.Context, phone string) (domain.User, error)

	// ExistsByPhone reports whether a user owns phone.
	ExistsByPhone(ctx context.Context, phone string) (bool, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the phone is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateStatus sets the status and bumps updated_at.
	UpdateStatus(ctx context.Context, userID string, status domain.UserStatus) error
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the token by its fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// DeleteRefreshToken removes a token by id. It reports whether a row was
	// deleted, rotation uses this to make sure only one caller consumes it.
	DeleteRefreshToken(ctx context.Context, id string) (bool, error)

	// DeleteUserRefreshTokens removes every token owned by userID.
	DeleteUserRefreshTokens(ctx context.Context, userID string) (int64, error)

	// DeleteExpiredRefreshTokens removes tokens that expired before now.
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}

type VerificationCodes interface {
	// CreateVerificationCode stores a freshly sent code.
	CreateVerificationCode(ctx context.Context, c domain.VerificationCode) error

	// GetLatestUnverified returns the most recently created code for the
	// phone and type that has not been verified yet, expired or not.
	GetLatestUnverified(ctx context.Context, phone string, typ domain.CodeType) (domain.VerificationCode, error)

	// MarkVerified flips verified=1 only if it was still 0. It reports
	// whether this call did the flip.
	MarkVerified(ctx context.Context, id string) (bool, error)

	// DeleteExpiredVerificationCodes removes codes that expired before now.
	DeleteExpiredVerificationCodes(ctx context.Context, now time.Time) (int64, error)
}

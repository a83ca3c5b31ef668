package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
)

type verificationCodesRepo struct {
	db dbtx
}

func (r *verificationCodesRepo) CreateVerificationCode(ctx context.Context, c domain.VerificationCode) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO verification_codes (id, phone, code, type, expires_at, verified, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Phone, c.Code, string(c.Type), toMillis(c.ExpiresAt), c.Verified, toMillis(c.CreatedAt),
	)
	if err != nil {
		return mapConstraint(err)
	}
	return nil
}

// GetLatestUnverified orders by id as well as created_at. IDs are monotonic
// ULIDs, so two codes sent in the same millisecond still have a latest one.
func (r *verificationCodesRepo) GetLatestUnverified(
	ctx context.Context,
	phone string,
	typ domain.CodeType,
) (domain.VerificationCode, error) {
	var (
		c                    domain.VerificationCode
		typeStr              string
		expiresAt, createdAt int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, phone, code, type, expires_at, verified, created_at
		FROM verification_codes
		WHERE phone = ? AND type = ? AND verified = 0
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, phone, string(typ),
	).Scan(&c.ID, &c.Phone, &c.Code, &typeStr, &expiresAt, &c.Verified, &createdAt)
	if err != nil {
		return domain.VerificationCode{}, mapNotFound(err)
	}

	c.Type = domain.CodeType(typeStr)
	c.ExpiresAt = fromMillis(expiresAt)
	c.CreatedAt = fromMillis(createdAt)
	return c, nil
}

func (r *verificationCodesRepo) MarkVerified(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE verification_codes SET verified = 1 WHERE id = ? AND verified = 0`, id)
	if err != nil {
		return false, err
	}
	n, err := rowsAffected(res)
	return n == 1, err
}

func (r *verificationCodesRepo) DeleteExpiredVerificationCodes(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM verification_codes WHERE expires_at < ?`, toMillis(now))
	if err != nil {
		return 0, err
	}
	return rowsAffected(res)
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/aussiebroadwan/identity/internal/identity/store"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, phone, password_hash, nickname, avatar, email, roles, status, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var (
		u                    domain.User
		passwordHash         sql.NullString
		avatar, email        sql.NullString
		roles, status        string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&u.ID, &u.Phone, &passwordHash, &u.Nickname, &avatar, &email, &roles, &status, &createdAt, &updatedAt); err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.PasswordHash = mapNullStringPtr(passwordHash)
	u.Avatar = mapNullStringPtr(avatar)
	u.Email = mapNullStringPtr(email)
	u.Roles = splitList(roles)
	u.Status = domain.UserStatus(status)
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *usersRepo) GetUserByPhone(ctx context.Context, phone string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE phone = ?`, phone))
}

func (r *usersRepo) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE phone = ?)`, phone).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists by phone: %w", err)
	}
	return exists, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	status := u.Status
	if status == "" {
		status = domain.UserStatusActive
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		u.Phone,
		mapOptionalString(u.PasswordHash),
		u.Nickname,
		mapOptionalString(u.Avatar),
		mapOptionalString(u.Email),
		joinList(u.Roles),
		string(status),
		toMillis(u.CreatedAt),
		toMillis(u.UpdatedAt),
	)
	if err != nil {
		return mapConstraint(err)
	}
	return nil
}

func (r *usersRepo) UpdateStatus(ctx context.Context, userID string, status domain.UserStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), toMillis(nowUTC()), userID)
	if err != nil {
		return err
	}

	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/field-report/internal/apperror"
	"github.com/sakif/field-report/internal/model"
	"github.com/sakif/field-report/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, username, password_hash, COALESCE(token_hash, ''), created_at, updated_at`

// Create inserts a new user, filling in ID and timestamps on success.
//
// ON CONFLICT(username) DO NOTHING turns a lost race between two first
// logins for the same username into "no row affected" instead of a driver
// error, which is reported as apperror.ErrConflict. The unique constraint is
// the only guard; there is no application-level locking.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	id := xid.New().String()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, token_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(username) DO NOTHING`,
		id,
		user.Username,
		user.PasswordHash,
		nullIfEmpty(user.TokenHash),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}
	if n == 0 {
		return apperror.Conflict("user", user.Username)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetByUsername retrieves a user by username.
// Returns apperror.ErrNotFound if no user exists with that username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlite: getting user %q: %w", username, err)
	}
	return u, nil
}

// GetByTokenHash retrieves the user currently holding the given token hash.
// Returns apperror.ErrNotFound if the hash matches no user.
func (db *DB) GetByTokenHash(ctx context.Context, tokenHash string) (*model.User, error) {
	if tokenHash == "" {
		return nil, apperror.NotFound("user", "token")
	}
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE token_hash = ?`, tokenHash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", "token")
		}
		return nil, fmt.Errorf("sqlite: getting user by token: %w", err)
	}
	return u, nil
}

// UpdateTokenHash replaces the user's token hash. The previous token stops
// resolving as soon as this returns.
func (db *DB) UpdateTokenHash(ctx context.Context, userID, tokenHash string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET token_hash = ?, updated_at = ? WHERE id = ?`,
		tokenHash, time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating token for user %s: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: updating token for user %s: %w", userID, err)
	}
	if n == 0 {
		return apperror.NotFound("user", userID)
	}
	return nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.TokenHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

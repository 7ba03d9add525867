package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/heyrat/heyrat-server/internal/domain"
	"github.com/heyrat/heyrat-server/internal/normalize"
	"github.com/heyrat/heyrat-server/internal/store"
)

// userColumns must match the scan order in scanUser.
const userColumns = `id, google_id, email, password_hash, display_name,
	created_at, updated_at, last_login_at`

func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var (
		u           domain.User
		googleID    sql.NullString
		email       sql.NullString
		passwordH   sql.NullString
		displayName sql.NullString
		createdAt   string
		updatedAt   string
		lastLoginAt sql.NullString
	)

	err := scanner.Scan(
		&u.ID,
		&googleID,
		&email,
		&passwordH,
		&displayName,
		&createdAt,
		&updatedAt,
		&lastLoginAt,
	)
	if err != nil {
		return nil, err
	}

	u.GoogleID = googleID.String
	u.Email = email.String
	u.PasswordHash = passwordH.String
	u.DisplayName = displayName.String

	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if u.LastLoginAt, err = parseNullableTime(lastLoginAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new user.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	var emailLower, nameKey sql.NullString
	if u.Email != "" {
		emailLower = nullString(normalize.Email(u.Email))
	}
	if u.DisplayName != "" {
		nameKey = nullString(normalize.FoldKey(u.DisplayName))
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO users (
		id, google_id, email, email_lower, password_hash,
		display_name, display_name_key, created_at, updated_at, last_login_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		nullString(u.GoogleID),
		nullString(u.Email),
		emailLower,
		nullString(u.PasswordHash),
		nullString(u.DisplayName),
		nameKey,
		formatTime(u.CreatedAt),
		formatTime(u.UpdatedAt),
		nullTimeString(u.LastLoginAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// GetUserByEmail retrieves a user by email, case-insensitively.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email_lower = ?`, normalize.Email(email))
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// FindUserByGoogleIDOrEmail returns the user with googleID or, failing that,
// the user with email.
func (s *Store) FindUserByGoogleIDOrEmail(ctx context.Context, googleID, email string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users
		WHERE google_id = ? OR email_lower = ?
		ORDER BY CASE WHEN google_id = ? THEN 0 ELSE 1 END
		LIMIT 1`,
		nullString(googleID), nullString(normalize.Email(email)), nullString(googleID))
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// LinkGoogleID attaches a Google account to a user without one and clears
// the password hash in the same statement.
func (s *Store) LinkGoogleID(ctx context.Context, userID, googleID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET google_id = ?, password_hash = NULL, updated_at = ?
		WHERE id = ? AND google_id IS NULL`,
		googleID, formatTime(at), userID)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("link google id: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		// Either the user is gone or already linked.
		u, err := s.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if u.GoogleID != googleID {
			return store.ErrAlreadyExists
		}
	}
	return nil
}

// SetDisplayName sets a display name on a user that has none.
func (s *Store) SetDisplayName(ctx context.Context, userID, name, key string, at time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var current sql.NullString
		err := tx.QueryRowContext(ctx, `SELECT display_name FROM users WHERE id = ?`, userID).Scan(&current)
		if err != nil {
			return notFound(err)
		}
		if current.Valid && current.String != "" {
			return store.ErrDisplayNameSet
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE users SET display_name = ?, display_name_key = ?, updated_at = ? WHERE id = ?`,
			name, key, formatTime(at), userID)
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		if err != nil {
			return fmt.Errorf("set display name: %w", err)
		}
		return nil
	})
}

// TouchLogin records a successful sign-in.
func (s *Store) TouchLogin(ctx context.Context, userID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = ?, updated_at = ? WHERE id = ?`,
		formatTime(at), formatTime(at), userID)
	if err != nil {
		return fmt.Errorf("touch login: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

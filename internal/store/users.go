package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alextreichler/shop2host/internal/models"
)

const userColumns = `id, name, phone, email, password, verification_token, verified, is_admin, created_at`

// CreateUser inserts u and fills in its ID. A taken email yields ErrConflict.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	query := s.DB.Rebind(`
		INSERT INTO users (name, phone, email, password, verification_token, verified, is_admin)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)
	err := s.DB.GetContext(ctx, &u.ID, query,
		u.Name, u.Phone, u.Email, u.Password, u.VerificationToken, u.Verified, u.IsAdmin)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	query := s.DB.Rebind(`SELECT ` + userColumns + ` FROM users WHERE email = ?`)
	if err := s.DB.GetContext(ctx, &u, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// GetVerifiedUserByEmail only matches users who confirmed their address.
func (s *Store) GetVerifiedUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	query := s.DB.Rebind(`SELECT ` + userColumns + ` FROM users WHERE email = ? AND verified = ?`)
	if err := s.DB.GetContext(ctx, &u, query, email, true); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get verified user: %w", err)
	}
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	query := s.DB.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	if err := s.DB.GetContext(ctx, &u, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// VerifyEmail marks the user verified and clears the token in one
// statement. It returns ErrNotFound when the (email, token) pair does not
// match, which includes a token that was already used.
func (s *Store) VerifyEmail(ctx context.Context, email, token string) error {
	query := s.DB.Rebind(`
		UPDATE users SET verified = ?, verification_token = NULL
		WHERE email = ? AND verification_token = ?`)
	res, err := s.DB.ExecContext(ctx, query, true, email, token)
	if err != nil {
		return fmt.Errorf("verify email: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("verify email: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id DESC`
	if err := s.DB.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// DeleteUser removes a user together with their stores and tickets.
// Orders are kept for bookkeeping with the user reference cleared.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.DB.ExecContext(ctx, s.DB.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// PromoteAdmin sets the admin and verified flags on an existing user.
func (s *Store) PromoteAdmin(ctx context.Context, email string) error {
	query := s.DB.Rebind(`UPDATE users SET is_admin = ?, verified = ? WHERE email = ?`)
	res, err := s.DB.ExecContext(ctx, query, true, true, email)
	if err != nil {
		return fmt.Errorf("promote admin: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

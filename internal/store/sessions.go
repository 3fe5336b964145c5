package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetSessionData returns the encoded payload of a live session record.
func (s *Store) GetSessionData(ctx context.Context, id string) (string, error) {
	var data string
	query := s.DB.Rebind(`SELECT data FROM sessions WHERE id = ? AND expires_at > ?`)
	if err := s.DB.GetContext(ctx, &data, query, id, time.Now().Unix()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get session: %w", err)
	}
	return data, nil
}

func (s *Store) SaveSessionData(ctx context.Context, id, data string, expiresAt time.Time) error {
	query := s.DB.Rebind(`
		INSERT INTO sessions (id, data, expires_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at`)
	if _, err := s.DB.ExecContext(ctx, query, id, data, expiresAt.Unix()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.DB.ExecContext(ctx, s.DB.Rebind(`DELETE FROM sessions WHERE id = ?`), id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions purges dead records and reports how many went.
func (s *Store) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := s.DB.ExecContext(ctx, s.DB.Rebind(`DELETE FROM sessions WHERE expires_at <= ?`), time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return res.RowsAffected()
}

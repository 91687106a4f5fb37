package store

import (
	"context"
	"fmt"
	"time"
)

// Cookie is one persisted cookie row.
//
// Expires is the zero time for session cookies.
type Cookie struct {
	Host     string
	Name     string
	Path     string
	Domain   string
	Value    string
	Expires  time.Time
	Secure   bool
	HTTPOnly bool
}

// PutCookie inserts or replaces the cookie keyed by (host, name, path).
func (s *Store) PutCookie(ctx context.Context, c Cookie) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cookies
		(host, name, path, domain, value, expires, secure, http_only, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(host, name, path) DO UPDATE SET
			domain = excluded.domain,
			value = excluded.value,
			expires = excluded.expires,
			secure = excluded.secure,
			http_only = excluded.http_only,
			updated_at = excluded.updated_at
	`,
		c.Host,
		c.Name,
		c.Path,
		c.Domain,
		c.Value,
		unixOrZero(c.Expires),
		c.Secure,
		c.HTTPOnly,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("put cookie %s: %w", c.Name, err)
	}
	return nil
}

// DeleteCookie removes the cookie keyed by (host, name, path), if present.
func (s *Store) DeleteCookie(ctx context.Context, host, name, path string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM cookies WHERE host = ? AND name = ? AND path = ?
	`, host, name, path)
	if err != nil {
		return fmt.Errorf("delete cookie %s: %w", name, err)
	}
	return nil
}

// DeleteExpired removes persistent cookies that expired before now.
// Returns the number of rows removed.
func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM cookies WHERE expires > 0 AND expires <= ?
	`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete expired cookies: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired cookies: rows affected: %w", err)
	}
	return n, nil
}

// ClearCookies removes every stored cookie.
func (s *Store) ClearCookies(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cookies`); err != nil {
		return fmt.Errorf("clear cookies: %w", err)
	}
	return nil
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

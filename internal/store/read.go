package store

import (
	"context"
	"fmt"
	"time"
)

// LoadCookies returns every stored cookie.
//
// Ordered by host, path, name for deterministic restore.
func (s *Store) LoadCookies(ctx context.Context) ([]Cookie, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT host, name, path, domain, value, expires, secure, http_only
		FROM cookies
		ORDER BY host ASC, path ASC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("load cookies: %w", err)
	}
	defer rows.Close()

	var cookies []Cookie
	for rows.Next() {
		var (
			c       Cookie
			expires int64
		)
		if err := rows.Scan(&c.Host, &c.Name, &c.Path, &c.Domain, &c.Value, &expires, &c.Secure, &c.HTTPOnly); err != nil {
			return nil, fmt.Errorf("load cookies: scan: %w", err)
		}
		if expires > 0 {
			c.Expires = time.Unix(expires, 0)
		}
		cookies = append(cookies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load cookies: %w", err)
	}
	return cookies, nil
}

// CountCookies returns the number of stored cookies.
func (s *Store) CountCookies(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cookies`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cookies: %w", err)
	}
	return n, nil
}

package store

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// persistTimeout bounds each write issued from SetCookies, which has no
// caller context.
const persistTimeout = 5 * time.Second

// Jar is an http.CookieJar whose cookies survive process restarts.
//
// Cookie matching is delegated to net/http/cookiejar; every accepted cookie
// is also written through to the Store.
//
// Thread-safety: Jar is safe for concurrent use.
type Jar struct {
	store  *Store
	logger *slog.Logger
	now    func() time.Time

	mu  sync.RWMutex
	mem *cookiejar.Jar
}

// OpenJar opens the store at path and restores its unexpired cookies.
func OpenJar(path string, logger *slog.Logger) (*Jar, error) {
	s, err := Open(path)
	if err != nil {
		return nil, err
	}
	j, err := NewJar(s, logger)
	if err != nil {
		s.Close()
		return nil, err
	}
	return j, nil
}

// NewJar wraps an open Store. The Jar takes ownership of s.
func NewJar(s *Store, logger *slog.Logger) (*Jar, error) {
	if logger == nil {
		logger = slog.Default()
	}
	mem, err := newMemoryJar()
	if err != nil {
		return nil, err
	}
	j := &Jar{store: s, logger: logger, now: time.Now, mem: mem}
	if err := j.restore(context.Background()); err != nil {
		return nil, err
	}
	return j, nil
}

func newMemoryJar() (*cookiejar.Jar, error) {
	mem, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return mem, nil
}

func (j *Jar) restore(ctx context.Context) error {
	if _, err := j.store.DeleteExpired(ctx, j.now()); err != nil {
		return err
	}
	rows, err := j.store.LoadCookies(ctx)
	if err != nil {
		return err
	}
	for _, c := range rows {
		scheme := "http"
		if c.Secure {
			scheme = "https"
		}
		u := &url.URL{Scheme: scheme, Host: c.Host, Path: c.Path}
		j.mem.SetCookies(u, []*http.Cookie{{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		}})
	}
	j.logger.Debug("restored cookies", "count", len(rows))
	return nil
}

// SetCookies implements http.CookieJar. Persistence failures are logged;
// the in-memory jar is still updated.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.RLock()
	j.mem.SetCookies(u, cookies)
	j.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	host := u.Hostname()
	now := j.now()
	for _, c := range cookies {
		path := c.Path
		if path == "" || path[0] != '/' {
			path = defaultPath(u.Path)
		}

		if c.MaxAge < 0 || (!c.Expires.IsZero() && !c.Expires.After(now)) {
			if err := j.store.DeleteCookie(ctx, host, c.Name, path); err != nil {
				j.logger.Warn("failed to forget cookie", "name", c.Name, "error", err)
			}
			continue
		}

		expires := c.Expires
		if c.MaxAge > 0 {
			expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		row := Cookie{
			Host:     host,
			Name:     c.Name,
			Path:     path,
			Domain:   c.Domain,
			Value:    c.Value,
			Expires:  expires,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
		}
		if err := j.store.PutCookie(ctx, row); err != nil {
			j.logger.Warn("failed to persist cookie", "name", c.Name, "error", err)
		}
	}
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.mem.Cookies(u)
}

// Clear forgets every cookie, in memory and on disk.
func (j *Jar) Clear() error {
	mem, err := newMemoryJar()
	if err != nil {
		return err
	}
	j.mu.Lock()
	j.mem = mem
	j.mu.Unlock()

	return j.store.ClearCookies(context.Background())
}

// Close closes the underlying store.
func (j *Jar) Close() error {
	return j.store.Close()
}

// defaultPath is the RFC 6265 section 5.1.4 default-path of a request path.
func defaultPath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}

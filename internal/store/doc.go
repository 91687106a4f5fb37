// Package store provides the SQLite-backed credential store.
//
// The store keeps the HTTP cookies the service issues so a session survives
// between CLI invocations. Jar implements http.CookieJar on top of it.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Cookies are keyed by (host, name, path), the same identity
// net/http/cookiejar uses. Session cookies are stored with expires = 0.
package store

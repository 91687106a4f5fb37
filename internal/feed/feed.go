// Package feed lists, creates and deletes posts for the logged-in user.
//
// The feed is never mutated locally: every successful write is followed by
// a fresh fetch, and the returned entries always reflect the server.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/kin/internal/model"
	"github.com/roach88/kin/internal/session"
)

var (
	// ErrEmptyContent is returned by Create for blank content.
	ErrEmptyContent = errors.New("post content is empty")

	// ErrNotOwner is returned by Delete for a post written by someone else.
	ErrNotOwner = errors.New("only the author can delete a post")

	// ErrPostNotFound is returned by Delete for an id not in the feed.
	ErrPostNotFound = errors.New("post not found")
)

// API is the posts side of the service.
// Implemented by *api.Client.
type API interface {
	ListPosts(ctx context.Context) ([]model.Post, error)
	CreatePost(ctx context.Context, content string) (model.Post, error)
	DeletePost(ctx context.Context, id int64) error
}

// Authenticator supplies the current user and absorbs auth failures.
// Implemented by *session.Shell.
type Authenticator interface {
	User() (model.User, error)
	Observe(err error) bool
}

// Entry is a post annotated for display.
type Entry struct {
	model.Post
	CanDelete bool `json:"can_delete"`
}

// CanDelete reports whether u may delete p.
func CanDelete(p model.Post, u model.User) bool {
	return !u.IsZero() && p.Author.ID == u.ID
}

// Feed reads and writes posts on behalf of the session user.
type Feed struct {
	api    API
	auth   Authenticator
	logger *slog.Logger
}

// New creates a Feed.
func New(a API, auth Authenticator, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{api: a, auth: auth, logger: logger}
}

// Load fetches the feed. A failed fetch yields an empty feed unless it was
// an authentication failure, which ends the session.
func (f *Feed) Load(ctx context.Context) ([]Entry, error) {
	me, err := f.auth.User()
	if err != nil {
		return nil, err
	}

	posts, err := f.api.ListPosts(ctx)
	if err != nil {
		if f.auth.Observe(err) {
			return nil, session.ErrNotAuthenticated
		}
		f.logger.Warn("feed unavailable", "error", err)
		return []Entry{}, nil
	}

	entries := make([]Entry, 0, len(posts))
	for _, p := range posts {
		entries = append(entries, Entry{Post: p, CanDelete: CanDelete(p, me)})
	}
	return entries, nil
}

// Create publishes content and returns the reloaded feed.
func (f *Feed) Create(ctx context.Context, content string) ([]Entry, error) {
	if _, err := f.auth.User(); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	p, err := f.api.CreatePost(ctx, content)
	if err != nil {
		return nil, f.writeFailed(err)
	}
	f.logger.Debug("post created", "post_id", p.ID)
	return f.Load(ctx)
}

// Delete removes the post with the given id and returns the reloaded feed.
// The post must be in the current feed and authored by the session user.
//
// Unlike Load, a failed listing is returned: an outage must not read as a
// missing post.
func (f *Feed) Delete(ctx context.Context, id int64) ([]Entry, error) {
	me, err := f.auth.User()
	if err != nil {
		return nil, err
	}
	posts, err := f.api.ListPosts(ctx)
	if err != nil {
		return nil, f.writeFailed(err)
	}

	var target *model.Post
	for i := range posts {
		if posts[i].ID == id {
			target = &posts[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%w: %d", ErrPostNotFound, id)
	}
	if !CanDelete(*target, me) {
		return nil, ErrNotOwner
	}

	if err := f.api.DeletePost(ctx, id); err != nil {
		return nil, f.writeFailed(err)
	}
	f.logger.Debug("post deleted", "post_id", id)
	return f.Load(ctx)
}

func (f *Feed) writeFailed(err error) error {
	if f.auth.Observe(err) {
		return session.ErrNotAuthenticated
	}
	return err
}

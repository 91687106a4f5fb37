package relationship

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/kin/internal/model"
)

// Source is the read side of the service the fetcher needs.
// Implemented by *api.Client.
type Source interface {
	ListFriends(ctx context.Context) ([]model.User, error)
	ListFriendRequests(ctx context.Context) ([]model.FriendRequest, error)
}

// Fetcher retrieves the relationship collections.
type Fetcher struct {
	src    Source
	logger *slog.Logger
}

// NewFetcher creates a Fetcher. A nil logger uses slog.Default().
func NewFetcher(src Source, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{src: src, logger: logger}
}

// Fetch issues the friends and requests queries concurrently and returns
// the resulting snapshot. The snapshot is always usable: a failed query
// leaves its collections empty and listed in Snapshot.Missing. err is the
// first query failure, so callers can react to an expired session.
//
// The request listing is split by direction: entries sent by
// currentUserID are outgoing, the rest incoming.
func (f *Fetcher) Fetch(ctx context.Context, currentUserID int64) (Snapshot, error) {
	var (
		friends    []model.User
		requests   []model.FriendRequest
		friendsErr error
		reqErr     error
	)

	// A plain Group: one failed query must not cancel the other.
	var g errgroup.Group
	g.Go(func() error {
		friends, friendsErr = f.src.ListFriends(ctx)
		return friendsErr
	})
	g.Go(func() error {
		requests, reqErr = f.src.ListFriendRequests(ctx)
		return reqErr
	})
	err := g.Wait()

	var missing []Collection
	if friendsErr != nil {
		f.logger.Warn("friends fetch failed, treating as empty", "error", friendsErr)
		friends = nil
		missing = append(missing, CollectionFriends)
	}
	if reqErr != nil {
		f.logger.Warn("friend requests fetch failed, treating as empty", "error", reqErr)
		requests = nil
		missing = append(missing, CollectionIncoming, CollectionOutgoing)
	}

	incoming, outgoing := Partition(requests, currentUserID)
	return NewSnapshot(friends, incoming, outgoing, missing...), err
}

// Refresh fetches and installs a new snapshot into ledger. installed is
// false if the result was discarded because the ledger changed meanwhile.
// err is the fetch error, reported whether or not the snapshot was
// installed.
func (f *Fetcher) Refresh(ctx context.Context, ledger *Ledger, currentUserID int64) (installed bool, err error) {
	token := ledger.Begin()
	snap, err := f.Fetch(ctx, currentUserID)
	if !ledger.Replace(token, snap) {
		f.logger.Debug("discarding stale relationship snapshot", "token", token)
		return false, err
	}
	return true, err
}

// Partition splits requests into incoming and outgoing relative to
// currentUserID.
func Partition(requests []model.FriendRequest, currentUserID int64) (incoming, outgoing []model.FriendRequest) {
	for _, r := range requests {
		if r.From.ID == currentUserID {
			outgoing = append(outgoing, r)
		} else {
			incoming = append(incoming, r)
		}
	}
	return incoming, outgoing
}

package relationship

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kin/internal/model"
)

// fakeSource lets tests control completion order and failures.
type fakeSource struct {
	friends    []model.User
	requests   []model.FriendRequest
	friendsErr error
	reqErr     error

	// friendsGate, when non-nil, blocks ListFriends until closed.
	friendsGate chan struct{}
	// requestsDone is closed when ListFriendRequests returns.
	requestsDone chan struct{}
}

func (f *fakeSource) ListFriends(ctx context.Context) ([]model.User, error) {
	if f.friendsGate != nil {
		select {
		case <-f.friendsGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.friends, f.friendsErr
}

func (f *fakeSource) ListFriendRequests(ctx context.Context) ([]model.FriendRequest, error) {
	if f.requestsDone != nil {
		defer close(f.requestsDone)
	}
	return f.requests, f.reqErr
}

func TestFetcher_PartitionsByDirection(t *testing.T) {
	src := &fakeSource{
		friends: []model.User{user(4)},
		requests: []model.FriendRequest{
			{ID: 1, From: user(5)},
			{ID: 2, From: user(me), To: user(6)},
		},
	}

	s, err := NewFetcher(src, nil).Fetch(context.Background(), me)
	require.NoError(t, err)

	assert.True(t, s.Complete())
	assert.Equal(t, []model.User{user(4)}, s.Friends)
	require.Len(t, s.Incoming, 1)
	assert.Equal(t, int64(1), s.Incoming[0].ID)
	require.Len(t, s.Outgoing, 1)
	assert.Equal(t, int64(2), s.Outgoing[0].ID)
}

func TestFetcher_ToleratesCompletionOrder(t *testing.T) {
	src := &fakeSource{
		friends:      []model.User{user(4)},
		requests:     []model.FriendRequest{{ID: 1, From: user(5)}},
		friendsGate:  make(chan struct{}),
		requestsDone: make(chan struct{}),
	}

	// Release friends only after requests has completed, the reverse of
	// issue order.
	go func() {
		<-src.requestsDone
		close(src.friendsGate)
	}()

	done := make(chan Snapshot, 1)
	go func() {
		s, _ := NewFetcher(src, nil).Fetch(context.Background(), me)
		done <- s
	}()

	select {
	case s := <-done:
		assert.True(t, s.IsFriend(4))
		assert.Len(t, s.Incoming, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not complete; calls are not concurrent")
	}
}

func TestFetcher_PartialFailureKeepsOtherCollections(t *testing.T) {
	t.Run("friends fail", func(t *testing.T) {
		boom := errors.New("boom")
		src := &fakeSource{
			friendsErr: boom,
			requests:   []model.FriendRequest{{ID: 1, From: user(5)}},
		}
		s, err := NewFetcher(src, nil).Fetch(context.Background(), me)

		assert.ErrorIs(t, err, boom)
		assert.False(t, s.Complete())
		assert.Equal(t, []Collection{CollectionFriends}, s.Missing)
		assert.Empty(t, s.Friends)
		assert.Len(t, s.Incoming, 1)
	})

	t.Run("requests fail", func(t *testing.T) {
		boom := errors.New("boom")
		src := &fakeSource{
			friends: []model.User{user(4)},
			reqErr:  boom,
		}
		s, err := NewFetcher(src, nil).Fetch(context.Background(), me)

		assert.ErrorIs(t, err, boom)
		assert.Equal(t, []Collection{CollectionIncoming, CollectionOutgoing}, s.Missing)
		assert.True(t, s.IsFriend(4))
		assert.Empty(t, s.Incoming)
		assert.Empty(t, s.Outgoing)
	})

	t.Run("both fail", func(t *testing.T) {
		src := &fakeSource{friendsErr: errors.New("a"), reqErr: errors.New("b")}
		s, err := NewFetcher(src, nil).Fetch(context.Background(), me)

		assert.Error(t, err)
		assert.Len(t, s.Missing, 3)
		assert.Equal(t, model.StatusStranger, Classify(s, me, candidate))
	})
}

func TestFetcher_RefreshInstallsSnapshot(t *testing.T) {
	l := NewLedger()
	src := &fakeSource{friends: []model.User{user(candidate)}}

	ok, err := NewFetcher(src, nil).Refresh(context.Background(), l, me)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, model.StatusFriend, Classify(l.Snapshot(), me, candidate))
}

func TestFetcher_RefreshDiscardsAfterLocalWrite(t *testing.T) {
	l := NewLedger()
	src := &fakeSource{friendsGate: make(chan struct{})}

	result := make(chan bool, 1)
	go func() {
		ok, _ := NewFetcher(src, nil).Refresh(context.Background(), l, me)
		result <- ok
	}()

	// Wait until the fetch has taken its token, then write locally.
	require.Eventually(t, func() bool { return l.Version() == 1 }, time.Second, time.Millisecond)
	l.AppendOutgoing(model.FriendRequest{ID: 3, From: user(me), To: user(candidate)})
	close(src.friendsGate)

	assert.False(t, <-result)
	assert.Equal(t, model.StatusRequestSent, Classify(l.Snapshot(), me, candidate))
}

func TestFetcher_RefreshReportsErrorWithPartialSnapshot(t *testing.T) {
	l := NewLedger()
	expired := errors.New("session expired")
	src := &fakeSource{
		friends: []model.User{user(candidate)},
		reqErr:  expired,
	}

	ok, err := NewFetcher(src, nil).Refresh(context.Background(), l, me)

	assert.True(t, ok)
	assert.ErrorIs(t, err, expired)
	assert.Equal(t, model.StatusFriend, Classify(l.Snapshot(), me, candidate))
	assert.False(t, l.Snapshot().Complete())
}

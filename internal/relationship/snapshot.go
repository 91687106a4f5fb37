package relationship

import (
	"sync"

	"github.com/roach88/kin/internal/model"
)

// Collection names one of the three relationship collections.
type Collection string

const (
	CollectionFriends  Collection = "friends"
	CollectionIncoming Collection = "incoming"
	CollectionOutgoing Collection = "outgoing"
)

// Snapshot is an immutable view of the relationship collections.
//
// Callers must treat the slices as read-only.
type Snapshot struct {
	Friends  []model.User
	Incoming []model.FriendRequest
	Outgoing []model.FriendRequest

	// Missing lists collections whose fetch failed this cycle. They are
	// present but empty, so classification may be incomplete.
	Missing []Collection
}

// NewSnapshot builds a snapshot, dropping duplicate friends and requests
// by id.
func NewSnapshot(friends []model.User, incoming, outgoing []model.FriendRequest, missing ...Collection) Snapshot {
	return Snapshot{
		Friends:  dedupeUsers(friends),
		Incoming: dedupeRequests(incoming),
		Outgoing: dedupeRequests(outgoing),
		Missing:  append([]Collection(nil), missing...),
	}
}

// Complete reports whether every collection was fetched successfully.
func (s Snapshot) Complete() bool {
	return len(s.Missing) == 0
}

// IsFriend reports whether userID is in the friends collection.
func (s Snapshot) IsFriend(userID int64) bool {
	for _, f := range s.Friends {
		if f.ID == userID {
			return true
		}
	}
	return false
}

// IncomingFrom returns the pending incoming request sent by userID.
func (s Snapshot) IncomingFrom(userID int64) (model.FriendRequest, bool) {
	for _, r := range s.Incoming {
		if r.From.ID == userID {
			return r, true
		}
	}
	return model.FriendRequest{}, false
}

// OutgoingTo returns the pending request currentUserID sent to userID.
func (s Snapshot) OutgoingTo(currentUserID, userID int64) (model.FriendRequest, bool) {
	for _, r := range s.Outgoing {
		if r.From.ID == currentUserID && r.To.ID == userID {
			return r, true
		}
	}
	return model.FriendRequest{}, false
}

func dedupeUsers(in []model.User) []model.User {
	out := make([]model.User, 0, len(in))
	seen := make(map[int64]bool, len(in))
	for _, u := range in {
		if seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		out = append(out, u)
	}
	return out
}

func dedupeRequests(in []model.FriendRequest) []model.FriendRequest {
	out := make([]model.FriendRequest, 0, len(in))
	seen := make(map[int64]bool, len(in))
	for _, r := range in {
		// Locally synthesized records may lack a server id; keep them all.
		if r.ID != 0 {
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
		}
		out = append(out, r)
	}
	return out
}

// Ledger owns the current relationship snapshot.
//
// Writers are the fetcher (Replace) and the request action handler
// (AppendOutgoing, RemoveIncoming). Everyone else only reads.
//
// Thread-safety: Ledger is safe for concurrent use.
type Ledger struct {
	mu      sync.RWMutex
	snap    Snapshot
	version uint64
}

// NewLedger creates a ledger holding an empty snapshot.
func NewLedger() *Ledger {
	return &Ledger{snap: NewSnapshot(nil, nil, nil)}
}

// Snapshot returns the current snapshot.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap
}

// Version returns the number of writes and fetch starts so far.
func (l *Ledger) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

// Begin starts a fetch cycle and returns its token. Starting a new cycle
// invalidates every earlier token.
func (l *Ledger) Begin() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.version++
	return l.version
}

// Replace installs s if token is still current. It returns false when a
// newer fetch started or a local mutation happened after Begin.
func (l *Ledger) Replace(token uint64, s Snapshot) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if token != l.version {
		return false
	}
	l.snap = s
	return true
}

// AppendOutgoing records a request the current user just sent.
func (l *Ledger) AppendOutgoing(r model.FriendRequest) {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.snap
	next.Outgoing = append(append(make([]model.FriendRequest, 0, len(l.snap.Outgoing)+1), l.snap.Outgoing...), r)
	l.snap = next
	l.version++
}

// RemoveIncoming drops the incoming request with the given id. It returns
// false, and leaves the ledger untouched, if no such request is held.
func (l *Ledger) RemoveIncoming(requestID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := make([]model.FriendRequest, 0, len(l.snap.Incoming))
	for _, r := range l.snap.Incoming {
		if r.ID != requestID {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(l.snap.Incoming) {
		return false
	}

	next := l.snap
	next.Incoming = kept
	l.snap = next
	l.version++
	return true
}

// Reset empties the ledger, e.g. on logout.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snap = NewSnapshot(nil, nil, nil)
	l.version++
}

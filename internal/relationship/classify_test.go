package relationship

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/kin/internal/model"
)

const (
	me        int64 = 1
	candidate int64 = 2
	other     int64 = 3
)

func user(id int64) model.User {
	return model.User{ID: id, Username: fmt.Sprintf("user%d", id)}
}

// buildSnapshot constructs a snapshot where the candidate is selectively a
// friend, has an outgoing request from me, and/or sent me a request. Noise
// entries about another user are always present.
func buildSnapshot(friend, outgoing, incoming bool) Snapshot {
	friends := []model.User{user(other)}
	out := []model.FriendRequest{{ID: 100, From: user(me), To: user(other)}}
	in := []model.FriendRequest{{ID: 200, From: user(other)}}

	if friend {
		friends = append(friends, user(candidate))
	}
	if outgoing {
		out = append(out, model.FriendRequest{ID: 101, From: user(me), To: user(candidate)})
	}
	if incoming {
		in = append(in, model.FriendRequest{ID: 201, From: user(candidate)})
	}
	return NewSnapshot(friends, in, out)
}

func TestClassify_TotalityAndPrecedence(t *testing.T) {
	for _, friend := range []bool{false, true} {
		for _, outgoing := range []bool{false, true} {
			for _, incoming := range []bool{false, true} {
				name := fmt.Sprintf("friend=%v/outgoing=%v/incoming=%v", friend, outgoing, incoming)
				t.Run(name, func(t *testing.T) {
					want := model.StatusStranger
					switch {
					case friend:
						want = model.StatusFriend
					case outgoing:
						want = model.StatusRequestSent
					case incoming:
						want = model.StatusRequestReceived
					}

					got := Classify(buildSnapshot(friend, outgoing, incoming), me, candidate)
					assert.Equal(t, want, got)
				})
			}
		}
	}
}

func TestClassify_FriendWinsOverBothDirections(t *testing.T) {
	s := buildSnapshot(true, true, true)
	assert.Equal(t, model.StatusFriend, Classify(s, me, candidate))
}

func TestClassify_OrderIndependent(t *testing.T) {
	s := buildSnapshot(false, true, true)
	reversed := Snapshot{
		Friends:  reverse(s.Friends),
		Incoming: reverse(s.Incoming),
		Outgoing: reverse(s.Outgoing),
	}

	assert.Equal(t, Classify(s, me, candidate), Classify(reversed, me, candidate))
	assert.Equal(t, model.StatusRequestSent, Classify(reversed, me, candidate))
}

func TestClassify_UsesCandidateNotCurrentUser(t *testing.T) {
	// Being friends with someone else must not mark every candidate a friend.
	s := NewSnapshot([]model.User{user(other)}, nil, []model.FriendRequest{{ID: 5, From: user(me), To: user(other)}})

	assert.Equal(t, model.StatusStranger, Classify(s, me, candidate))
	assert.Equal(t, model.StatusFriend, Classify(s, me, other))
}

func TestClassify_OutgoingRequiresCurrentUserAsSender(t *testing.T) {
	// A request from someone else to the candidate says nothing about me.
	s := NewSnapshot(nil, nil, []model.FriendRequest{{ID: 5, From: user(other), To: user(candidate)}})
	assert.Equal(t, model.StatusStranger, Classify(s, me, candidate))
}

func TestClassify_EmptySnapshot(t *testing.T) {
	assert.Equal(t, model.StatusStranger, Classify(Snapshot{}, me, candidate))
}

func TestClassifyAll(t *testing.T) {
	s := NewSnapshot(
		[]model.User{user(4)},
		[]model.FriendRequest{{ID: 77, From: user(5)}},
		[]model.FriendRequest{{ID: 78, From: user(me), To: user(6)}},
	)

	got := ClassifyAll(s, me, []model.User{user(4), user(5), user(6), user(7)})

	assert.Equal(t, []Candidate{
		{User: user(4), Status: model.StatusFriend},
		{User: user(5), Status: model.StatusRequestReceived, RequestID: 77},
		{User: user(6), Status: model.StatusRequestSent},
		{User: user(7), Status: model.StatusStranger},
	}, got)
}

func reverse[T any](in []T) []T {
	out := make([]T, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

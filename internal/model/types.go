package model

import (
	"fmt"
	"strings"
	"time"
)

// User is an account on the service. Identity is ID; Username is the
// display and search key.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// IsZero reports whether u carries no identity.
func (u User) IsZero() bool {
	return u.ID == 0
}

// Post is a feed entry owned by its author.
type Post struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Author    User      `json:"author"`
	Timestamp Timestamp `json:"timestamp"`
}

// FriendRequest is a directional request from one user to another.
//
// The server's request listing only carries From; To is the zero User
// unless the server includes it or the record was synthesized locally
// after a successful send.
type FriendRequest struct {
	ID   int64 `json:"id"`
	From User  `json:"from"`
	To   User  `json:"to"`
}

// Action is a response applied to an incoming friend request.
type Action string

const (
	ActionAccept Action = "accept"
	ActionReject Action = "reject"
)

// ParseAction converts user input into an Action.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("action must be %q or %q, got %q", ActionAccept, ActionReject, s)
	}
	return a, nil
}

// Valid reports whether a is accept or reject.
func (a Action) Valid() bool {
	return a == ActionAccept || a == ActionReject
}

// RelationshipStatus is the derived relationship between the current user
// and a candidate.
type RelationshipStatus string

const (
	StatusStranger        RelationshipStatus = "stranger"
	StatusRequestSent     RelationshipStatus = "request-sent"
	StatusRequestReceived RelationshipStatus = "request-received"
	StatusFriend          RelationshipStatus = "friend"
)

// Label is the affordance shown next to a candidate.
func (s RelationshipStatus) Label() string {
	switch s {
	case StatusFriend:
		return "Friends"
	case StatusRequestSent:
		return "Request Sent"
	case StatusRequestReceived:
		return "Respond to Request"
	default:
		return "Add Friend"
	}
}

// CanRequest reports whether a new friend request may be offered.
func (s RelationshipStatus) CanRequest() bool {
	return s == StatusStranger
}

// Timestamp decodes the server's ISO-8601 timestamps, which may omit the
// zone offset.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// UnmarshalJSON accepts RFC 3339 and zone-less ISO-8601 strings. Zone-less
// values are read as UTC.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

// MarshalJSON writes RFC 3339 with nanoseconds.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`null`), nil
	}
	return []byte(`"` + t.UTC().Format(time.RFC3339Nano) + `"`), nil
}

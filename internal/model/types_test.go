package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		in      string
		want    Action
		wantErr bool
	}{
		{in: "accept", want: ActionAccept},
		{in: " Reject ", want: ActionReject},
		{in: "ignore", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAction(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusAffordances(t *testing.T) {
	assert.True(t, StatusStranger.CanRequest())
	assert.False(t, StatusRequestSent.CanRequest())
	assert.False(t, StatusRequestReceived.CanRequest())
	assert.False(t, StatusFriend.CanRequest())

	assert.Equal(t, "Add Friend", StatusStranger.Label())
	assert.Equal(t, "Request Sent", StatusRequestSent.Label())
	assert.Equal(t, "Friends", StatusFriend.Label())
}

func TestPostDecodesZonelessTimestamp(t *testing.T) {
	raw := `{"id":7,"content":"hi","timestamp":"2024-03-01T12:30:45.123456","author":{"id":2,"username":"bob"}}`

	var p Post
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, "bob", p.Author.Username)
	want := time.Date(2024, 3, 1, 12, 30, 45, 123456000, time.UTC)
	assert.True(t, want.Equal(p.Timestamp.Time), "got %s", p.Timestamp.Time)
}

func TestTimestampRFC3339(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2024-03-01T12:30:45Z"`), &ts))
	assert.Equal(t, 2024, ts.Year())

	err := json.Unmarshal([]byte(`"yesterday"`), &ts)
	require.Error(t, err)
}

func TestFriendRequestWithoutRecipient(t *testing.T) {
	var r FriendRequest
	require.NoError(t, json.Unmarshal([]byte(`{"id":3,"from":{"id":9,"username":"carol"}}`), &r))

	assert.Equal(t, int64(9), r.From.ID)
	assert.True(t, r.To.IsZero())
}

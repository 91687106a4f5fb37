package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServiceClient(t *testing.T) (*FakeService, *httptest.Server, *http.Client) {
	t.Helper()
	svc := NewFakeService()
	srv := httptest.NewServer(svc)
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return svc, srv, &http.Client{Jar: jar}
}

func post(t *testing.T, c *http.Client, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := c.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestFakeService_LoginIssuesSession(t *testing.T) {
	svc, srv, c := newServiceClient(t)
	svc.AddUser("alice", "alice@example.com", "pw")

	resp, err := c.Get(srv.URL + "/me")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = post(t, c, srv.URL+"/login", map[string]string{"identifier": "alice@example.com", "password": "pw"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = c.Get(srv.URL + "/me")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFakeService_RequestsListOnlyIncoming(t *testing.T) {
	svc, srv, c := newServiceClient(t)
	alice := svc.AddUser("alice", "a@x", "pw")
	bob := svc.AddUser("bob", "b@x", "pw")
	carol := svc.AddUser("carol", "c@x", "pw")
	svc.AddRequest(bob.ID, alice.ID)
	svc.AddRequest(alice.ID, carol.ID)

	post(t, c, srv.URL+"/login", map[string]string{"identifier": "alice", "password": "pw"})
	resp, err := c.Get(srv.URL + "/friends/requests")
	require.NoError(t, err)
	defer resp.Body.Close()

	var got []struct {
		From struct {
			ID int64 `json:"id"`
		} `json:"from"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, bob.ID, got[0].From.ID)
	assert.Equal(t, 2, svc.PendingRequests())
}

func TestFakeService_Fail(t *testing.T) {
	svc, srv, c := newServiceClient(t)
	svc.Fail("GET /health", http.StatusServiceUnavailable)

	resp, err := c.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	svc.Heal("GET /health")
	resp, err = c.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFakeService_Friendship(t *testing.T) {
	svc := NewFakeService()
	a := svc.AddUser("a", "a@x", "pw")
	b := svc.AddUser("b", "b@x", "pw")

	assert.False(t, svc.Friends(a.ID, b.ID))
	svc.AddFriendship(a.ID, b.ID)
	assert.True(t, svc.Friends(b.ID, a.ID))
	assert.Equal(t, 0, svc.PendingRequests())
}

package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/roach88/kin/internal/model"
)

type healthResponse struct {
	Status string `json:"status"`
}

// Health returns the service's reported status ("ok" when healthy).
func (c *Client) Health(ctx context.Context) (string, error) {
	var resp healthResponse
	if err := c.do(ctx, "health", http.MethodGet, "/health", nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// Me returns the user owning the current session.
func (c *Client) Me(ctx context.Context) (model.User, error) {
	var u model.User
	err := c.do(ctx, "who am i", http.MethodGet, "/me", nil, nil, &u)
	return u, err
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// loginResponse accepts either a User or a {message} acknowledgement.
type loginResponse struct {
	model.User
	Message string `json:"message"`
}

// Login authenticates with a username or email. The returned User is zero
// when the server acknowledges without echoing the account; callers then
// probe Me.
func (c *Client) Login(ctx context.Context, identifier, password string) (model.User, error) {
	var resp loginResponse
	err := c.do(ctx, "login", http.MethodPost, "/login", nil,
		loginRequest{Identifier: identifier, Password: password}, &resp)
	return resp.User, err
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, username, email, password string) (model.User, error) {
	var u model.User
	err := c.do(ctx, "register", http.MethodPost, "/users", nil,
		registerRequest{Username: username, Email: email, Password: password}, &u)
	return u, err
}

// Logout ends the server session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, "logout", http.MethodPost, "/logout", nil, nil, nil)
}

// ListPosts returns the feed visible to the current user.
func (c *Client) ListPosts(ctx context.Context) ([]model.Post, error) {
	var posts []model.Post
	err := c.do(ctx, "list posts", http.MethodGet, "/posts", nil, nil, &posts)
	return posts, err
}

type createPostRequest struct {
	Content string `json:"content"`
}

// CreatePost publishes a post authored by the current user.
func (c *Client) CreatePost(ctx context.Context, content string) (model.Post, error) {
	var p model.Post
	err := c.do(ctx, "create post", http.MethodPost, "/posts", nil, createPostRequest{Content: content}, &p)
	return p, err
}

// DeletePost removes a post owned by the current user.
func (c *Client) DeletePost(ctx context.Context, id int64) error {
	return c.do(ctx, "delete post", http.MethodDelete, "/posts/"+strconv.FormatInt(id, 10), nil, nil, nil)
}

// ListFriends returns the current user's accepted friends.
func (c *Client) ListFriends(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := c.do(ctx, "list friends", http.MethodGet, "/friends", nil, nil, &users)
	return users, err
}

type sendRequestRequest struct {
	FriendID int64 `json:"friend_id"`
}

type sendRequestResponse struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

// SendFriendRequest asks friendID to become a friend. It returns the id the
// server assigned to the new request, or 0 if none was reported.
func (c *Client) SendFriendRequest(ctx context.Context, friendID int64) (int64, error) {
	var resp sendRequestResponse
	err := c.do(ctx, "send friend request", http.MethodPost, "/friends", nil,
		sendRequestRequest{FriendID: friendID}, &resp)
	return resp.ID, err
}

// ListFriendRequests returns pending requests involving the current user.
// Direction is disambiguated by From.
func (c *Client) ListFriendRequests(ctx context.Context) ([]model.FriendRequest, error) {
	var reqs []model.FriendRequest
	err := c.do(ctx, "list friend requests", http.MethodGet, "/friends/requests", nil, nil, &reqs)
	return reqs, err
}

type respondRequest struct {
	Action model.Action `json:"action"`
}

// RespondFriendRequest accepts or rejects an incoming request.
func (c *Client) RespondFriendRequest(ctx context.Context, requestID int64, action model.Action) error {
	return c.do(ctx, "respond to friend request", http.MethodPut, "/friends/"+strconv.FormatInt(requestID, 10), nil,
		respondRequest{Action: action}, nil)
}

// SearchUsers returns users whose username matches q.
func (c *Client) SearchUsers(ctx context.Context, q string) ([]model.User, error) {
	var users []model.User
	err := c.do(ctx, "search users", http.MethodGet, "/users/search", url.Values{"q": {q}}, nil, &users)
	return users, err
}

package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/roach88/kin/internal/model"
)

// SessionCookie is the cookie name FakeService issues on login.
const SessionCookie = "session"

// FakeService is an in-memory stand-in for the social network service.
// Mount it on an httptest.Server to drive the client end to end.
//
// Behavior mirrors the real service: friend request listings carry only
// incoming pending requests, login acknowledges with {message}, and every
// route but /health, /users (POST) and /login requires a session.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FakeService struct {
	mu       sync.Mutex
	mux      *http.ServeMux
	users    []fakeUser
	sessions map[string]int64
	posts    []fakePost
	requests []fakeRequest
	failures map[string]int
	searches []string
	epoch    time.Time
	nextID   int64
	nextSess int
}

type fakeUser struct {
	model.User
	password string
}

type fakePost struct {
	id        int64
	authorID  int64
	content   string
	timestamp time.Time
}

type fakeRequest struct {
	id       int64
	fromID   int64
	toID     int64
	accepted bool
}

// NewFakeService creates an empty service. Post timestamps start at
// 2024-05-01T12:00:00 and advance one minute per post.
func NewFakeService() *FakeService {
	s := &FakeService{
		sessions: make(map[string]int64),
		failures: make(map[string]int),
		epoch:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("POST /users", s.register)
	mux.HandleFunc("POST /login", s.login)
	mux.HandleFunc("POST /logout", s.authed(s.logout))
	mux.HandleFunc("GET /me", s.authed(s.me))
	mux.HandleFunc("GET /posts", s.authed(s.listPosts))
	mux.HandleFunc("POST /posts", s.authed(s.createPost))
	mux.HandleFunc("DELETE /posts/{id}", s.authed(s.deletePost))
	mux.HandleFunc("GET /friends", s.authed(s.listFriends))
	mux.HandleFunc("POST /friends", s.authed(s.sendRequest))
	mux.HandleFunc("GET /friends/requests", s.authed(s.listRequests))
	mux.HandleFunc("PUT /friends/{id}", s.authed(s.respond))
	mux.HandleFunc("GET /users/search", s.authed(s.search))
	s.mux = mux
	return s
}

// ServeHTTP implements http.Handler.
func (s *FakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	status, failing := s.failures[r.Method+" "+r.URL.Path]
	s.mu.Unlock()
	if failing {
		writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
		return
	}
	s.mux.ServeHTTP(w, r)
}

// AddUser registers an account directly and returns it.
func (s *FakeService) AddUser(username, email, password string) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(username, email, password)
}

func (s *FakeService) addUserLocked(username, email, password string) model.User {
	s.nextID++
	u := model.User{ID: s.nextID, Username: username, Email: email}
	s.users = append(s.users, fakeUser{User: u, password: password})
	return u
}

// AddPost stores a post by authorID and returns its id.
func (s *FakeService) AddPost(authorID int64, content string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addPostLocked(authorID, content).id
}

func (s *FakeService) addPostLocked(authorID int64, content string) fakePost {
	s.nextID++
	p := fakePost{
		id:        s.nextID,
		authorID:  authorID,
		content:   content,
		timestamp: s.epoch.Add(time.Duration(len(s.posts)) * time.Minute),
	}
	s.posts = append(s.posts, p)
	return p
}

// AddRequest stores a pending friend request and returns its id.
func (s *FakeService) AddRequest(fromID, toID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addRequestLocked(fromID, toID)
}

func (s *FakeService) addRequestLocked(fromID, toID int64) int64 {
	s.nextID++
	s.requests = append(s.requests, fakeRequest{id: s.nextID, fromID: fromID, toID: toID})
	return s.nextID
}

// AddFriendship stores an accepted friendship.
func (s *FakeService) AddFriendship(a, b int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addRequestLocked(a, b)
	s.requests[len(s.requests)-1].accepted = true
}

// Fail makes every request to "METHOD /path" answer with status until
// Heal is called.
func (s *FakeService) Fail(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = status
}

// Heal undoes Fail.
func (s *FakeService) Heal(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, route)
}

// Searches returns every query the search route received, in order.
func (s *FakeService) Searches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.searches...)
}

// ExpireSessions invalidates every issued session cookie.
func (s *FakeService) ExpireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]int64)
}

// Friends reports whether a and b have an accepted friendship.
func (s *FakeService) Friends(a, b int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.friendshipLocked(a, b)
	return ok && r.accepted
}

// PendingRequests returns the number of unanswered friend requests.
func (s *FakeService) PendingRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if !r.accepted {
			n++
		}
	}
	return n
}

func (s *FakeService) friendshipLocked(a, b int64) (fakeRequest, bool) {
	if i := s.indexOfPair(a, b); i >= 0 {
		return s.requests[i], true
	}
	return fakeRequest{}, false
}

func (s *FakeService) indexOfPair(a, b int64) int {
	for i, r := range s.requests {
		if (r.fromID == a && r.toID == b) || (r.fromID == b && r.toID == a) {
			return i
		}
	}
	return -1
}

func (s *FakeService) userLocked(id int64) (fakeUser, bool) {
	for _, u := range s.users {
		if u.ID == id {
			return u, true
		}
	}
	return fakeUser{}, false
}

type authedHandler func(w http.ResponseWriter, r *http.Request, me fakeUser)

func (s *FakeService) authed(h authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		c, err := r.Cookie(SessionCookie)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}
		id, ok := s.sessions[c.Value]
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}
		me, _ := s.userLocked(id)
		h(w, r, me)
	}
}

func (s *FakeService) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *FakeService) register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Username == "" || in.Email == "" || in.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required fields"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == in.Username || u.Email == in.Email {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "User already exists"})
			return
		}
	}
	writeJSON(w, http.StatusCreated, s.addUserLocked(in.Username, in.Email, in.Password))
}

func (s *FakeService) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Identifier == "" || in.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing credentials"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if (u.Username == in.Identifier || u.Email == in.Identifier) && u.password == in.Password {
			s.nextSess++
			token := "s-" + strconv.Itoa(s.nextSess)
			s.sessions[token] = u.ID
			http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: token, Path: "/", HttpOnly: true})
			writeJSON(w, http.StatusOK, map[string]string{"message": "Logged in"})
			return
		}
	}
	writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
}

func (s *FakeService) logout(w http.ResponseWriter, r *http.Request, me fakeUser) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		delete(s.sessions, c.Value)
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (s *FakeService) me(w http.ResponseWriter, r *http.Request, me fakeUser) {
	writeJSON(w, http.StatusOK, me.User)
}

type postJSON struct {
	ID        int64          `json:"id"`
	Content   string         `json:"content"`
	Timestamp string         `json:"timestamp"`
	Author    map[string]any `json:"author,omitempty"`
}

func isoformat(t time.Time) string {
	return t.Format("2006-01-02T15:04:05")
}

func (s *FakeService) listPosts(w http.ResponseWriter, r *http.Request, me fakeUser) {
	visible := map[int64]bool{me.ID: true}
	for _, fr := range s.requests {
		if !fr.accepted {
			continue
		}
		if fr.fromID == me.ID {
			visible[fr.toID] = true
		}
		if fr.toID == me.ID {
			visible[fr.fromID] = true
		}
	}

	var posts []fakePost
	for _, p := range s.posts {
		if visible[p.authorID] {
			posts = append(posts, p)
		}
	}
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].timestamp.After(posts[j].timestamp) })

	out := make([]postJSON, 0, len(posts))
	for _, p := range posts {
		author, _ := s.userLocked(p.authorID)
		out = append(out, postJSON{
			ID:        p.id,
			Content:   p.content,
			Timestamp: isoformat(p.timestamp),
			Author:    map[string]any{"id": author.ID, "username": author.Username},
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *FakeService) createPost(w http.ResponseWriter, r *http.Request, me fakeUser) {
	var in struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Content == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Content required"})
		return
	}
	p := s.addPostLocked(me.ID, in.Content)
	writeJSON(w, http.StatusCreated, postJSON{ID: p.id, Content: p.content, Timestamp: isoformat(p.timestamp)})
}

func (s *FakeService) deletePost(w http.ResponseWriter, r *http.Request, me fakeUser) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
		return
	}
	for i, p := range s.posts {
		if p.id != id {
			continue
		}
		if p.authorID != me.ID {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Unauthorized"})
			return
		}
		s.posts = append(s.posts[:i], s.posts[i+1:]...)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Post deleted"})
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
}

func (s *FakeService) listFriends(w http.ResponseWriter, r *http.Request, me fakeUser) {
	out := []model.User{}
	for _, fr := range s.requests {
		if !fr.accepted || (fr.fromID != me.ID && fr.toID != me.ID) {
			continue
		}
		other := fr.toID
		if fr.toID == me.ID {
			other = fr.fromID
		}
		if u, ok := s.userLocked(other); ok {
			out = append(out, u.User)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *FakeService) sendRequest(w http.ResponseWriter, r *http.Request, me fakeUser) {
	var in struct {
		FriendID int64 `json:"friend_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.FriendID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "friend_id required"})
		return
	}
	if in.FriendID == me.ID {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Cannot add yourself as a friend"})
		return
	}
	if _, ok := s.userLocked(in.FriendID); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
		return
	}
	if _, exists := s.friendshipLocked(me.ID, in.FriendID); exists {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "Friend request already exists or you are already friends"})
		return
	}
	id := s.addRequestLocked(me.ID, in.FriendID)
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "status": "pending"})
}

func (s *FakeService) listRequests(w http.ResponseWriter, r *http.Request, me fakeUser) {
	type from struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	}
	type entry struct {
		ID   int64 `json:"id"`
		From from  `json:"from"`
	}
	out := []entry{}
	for _, fr := range s.requests {
		if fr.accepted || fr.toID != me.ID {
			continue
		}
		sender, _ := s.userLocked(fr.fromID)
		out = append(out, entry{ID: fr.id, From: from{ID: sender.ID, Username: sender.Username}})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *FakeService) respond(w http.ResponseWriter, r *http.Request, me fakeUser) {
	var in struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || (in.Action != "accept" && in.Action != "reject") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Action must be accept or reject"})
		return
	}
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	for i, fr := range s.requests {
		if fr.id != id {
			continue
		}
		if fr.toID != me.ID {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Not authorized"})
			return
		}
		if in.Action == "accept" {
			s.requests[i].accepted = true
		} else {
			s.requests = append(s.requests[:i], s.requests[i+1:]...)
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Friend request %sed", in.Action)})
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
}

func (s *FakeService) search(w http.ResponseWriter, r *http.Request, me fakeUser) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	s.searches = append(s.searches, q)

	type hit struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	}
	out := []hit{}
	if q == "" {
		writeJSON(w, http.StatusOK, out)
		return
	}
	needle := strings.ToLower(q)
	for _, u := range s.users {
		if u.ID == me.ID || !strings.Contains(strings.ToLower(u.Username), needle) {
			continue
		}
		out = append(out, hit{ID: u.ID, Username: u.Username})
		if len(out) == 50 {
			break
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Package apitest runs an in-memory stand-in for the referendum REST API so
// the gateway, session and screens can be exercised without the real server.
package apitest

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/referenda/refclient/types"
)

const (
	signingSecret = "apitest-secret"
	tokenTTL      = 30 * time.Minute
)

// Call is one request observed by the fake API.
type Call struct {
	Method string
	Path   string
	Query  string
	Auth   string
}

func (c Call) String() string {
	if c.Query == "" {
		return c.Method + " " + c.Path
	}
	return c.Method + " " + c.Path + "?" + c.Query
}

type account struct {
	user     types.User
	password string
}

// Server is a fake referendum API backed by maps.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	nextID      int
	accounts    map[int]*account
	referendums map[int]types.Referendum
	votes       []types.Vote
	tags        map[int]types.Tag
	links       map[[2]int]bool
	calls       []Call

	failVotes      map[int]bool
	failTagRemoval map[int]bool
	voteDelay      time.Duration
}

// New starts a fake API and registers its shutdown with t.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		nextID:         1,
		accounts:       make(map[int]*account),
		referendums:    make(map[int]types.Referendum),
		tags:           make(map[int]types.Tag),
		links:          make(map[[2]int]bool),
		failVotes:      make(map[int]bool),
		failTagRemoval: make(map[int]bool),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Route("/users", func(r chi.Router) {
		r.Post("/token", s.issueToken)
		r.Get("/me", s.me)
		r.Get("/", s.listUsers)
		r.Post("/", s.createUser)
		r.Patch("/", s.updateUser)
		r.Delete("/", s.deleteUser)
	})
	r.Route("/referendums", func(r chi.Router) {
		r.Get("/", s.listReferendums)
		r.Post("/", s.createReferendum)
		r.Patch("/", s.updateReferendum)
		r.Delete("/", s.deleteReferendum)
	})
	r.Route("/votes", func(r chi.Router) {
		r.Get("/", s.listVotes)
		r.Post("/", s.castVote)
	})
	r.Route("/tags", func(r chi.Router) {
		r.Get("/", s.listTags)
		r.Post("/", s.createTag)
		r.Delete("/{tagID}", s.deleteTag)
		r.Get("/referendum/{referendumID}", s.referendumTags)
		r.Post("/referendum/", s.addLink)
		r.Delete("/referendum/", s.removeLink)
	})
	return r
}

// AddUser seeds an account and returns it.
func (s *Server) AddUser(username, password, role string) types.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(username, username+"@example.com", password, role)
}

func (s *Server) addUserLocked(username, email, password, role string) types.User {
	if role == "" {
		role = types.RoleUser
	}
	u := types.User{ID: s.id(), Username: username, Email: email, Role: role}
	s.accounts[u.ID] = &account{user: u, password: password}
	return u
}

// AddReferendum seeds a referendum and returns it with its id.
func (s *Server) AddReferendum(ref types.Referendum) types.Referendum {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref.ID = s.id()
	if ref.Status == "" {
		ref.Status = types.StatusPending
	}
	s.referendums[ref.ID] = ref
	return ref
}

// AddVote seeds a vote.
func (s *Server) AddVote(referendumID, userID int, value bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.votes = append(s.votes, types.Vote{ID: s.id(), ReferendumID: referendumID, UserID: userID, Value: value})
}

// AddTag seeds a tag.
func (s *Server) AddTag(name string) types.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	tag := types.Tag{ID: s.id(), Name: name}
	s.tags[tag.ID] = tag
	return tag
}

// Link attaches a tag to a referendum.
func (s *Server) Link(referendumID, tagID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links[[2]int{referendumID, tagID}] = true
}

// TagNames returns the sorted tag names attached to a referendum.
func (s *Server) TagNames(referendumID int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for link := range s.links {
		if link[0] == referendumID {
			names = append(names, s.tags[link[1]].Name)
		}
	}
	sort.Strings(names)
	return names
}

// Referendum returns the stored referendum.
func (s *Server) Referendum(id int) (types.Referendum, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref, ok := s.referendums[id]
	return ref, ok
}

// Referendums returns every stored referendum ordered by id.
func (s *Server) Referendums() []types.Referendum {
	s.mu.Lock()
	defer s.mu.Unlock()
	refs := make([]types.Referendum, 0, len(s.referendums))
	for _, ref := range s.referendums {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs
}

// User returns the stored user.
func (s *Server) User(id int) (types.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return types.User{}, false
	}
	return acc.user, true
}

// Tags returns every stored tag.
func (s *Server) Tags() []types.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedTagsLocked()
}

// FailVotes makes vote listing for referendumID answer 500.
func (s *Server) FailVotes(referendumID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failVotes[referendumID] = true
}

// FailTagRemoval makes detaching tagID from any referendum answer 500.
func (s *Server) FailTagRemoval(tagID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failTagRemoval[tagID] = true
}

// SlowVotes delays every vote listing by d.
func (s *Server) SlowVotes(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voteDelay = d
}

// Calls returns every request observed so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsTo returns requests whose path starts with prefix.
func (s *Server) CallsTo(prefix string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if strings.HasPrefix(c.Path, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// TokenFor issues a token for a seeded user without going through login.
func (s *Server) TokenFor(userID int) string {
	return issue(userID, time.Now().Add(tokenTTL))
}

// ExpiredTokenFor issues a token whose exp claim is in the past.
func (s *Server) ExpiredTokenFor(userID int) string {
	return issue(userID, time.Now().Add(-time.Minute))
}

func issue(userID int, exp time.Time) string {
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingSecret))
	if err != nil {
		panic(err)
	}
	return token
}

func (s *Server) id() int {
	id := s.nextID
	s.nextID++
	return id
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls = append(s.calls, Call{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// currentUser resolves the bearer token. The caller must not hold s.mu.
func (s *Server) currentUser(r *http.Request) (types.User, bool) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return types.User{}, false
	}
	claims := jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimPrefix(auth, "Bearer "), &claims, func(*jwt.Token) (any, error) {
		return []byte(signingSecret), nil
	})
	if err != nil {
		return types.User{}, false
	}
	id, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return types.User{}, false
	}
	return s.User(id)
}

func (s *Server) issueToken(w http.ResponseWriter, r *http.Request) {
	username, password, ok := basicAuth(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	s.mu.Lock()
	var found *account
	for _, acc := range s.accounts {
		if acc.user.Username == username && acc.password == password {
			found = acc
			break
		}
	}
	s.mu.Unlock()

	if found == nil {
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	writeJSON(w, http.StatusOK, types.Token{AccessToken: s.TokenFor(found.user.ID), TokenType: "bearer"})
}

func basicAuth(r *http.Request) (string, string, bool) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Basic ") {
		return "", "", false
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, "Basic "))
	if err != nil {
		return "", "", false
	}
	username, password, ok := strings.Cut(string(raw), ":")
	return username, password, ok
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id := queryInt(r, "user_id"); id > 0 {
		acc, ok := s.accounts[id]
		if !ok {
			writeDetail(w, http.StatusNotFound, "User not found")
			return
		}
		writeJSON(w, http.StatusOK, []types.User{acc.user})
		return
	}

	role := r.URL.Query().Get("role")
	users := make([]types.User, 0, len(s.accounts))
	for _, acc := range s.accounts {
		if role == "" || acc.user.Role == role {
			users = append(users, acc.user)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var in types.UserCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if acc.user.Username == in.Username {
			writeDetail(w, http.StatusBadRequest, "Username already registered")
			return
		}
	}
	writeJSON(w, http.StatusCreated, s.addUserLocked(in.Username, in.Email, in.Password, in.Role))
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	var patch types.UserPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[queryInt(r, "user_id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	if patch.Username != "" {
		acc.user.Username = patch.Username
	}
	if patch.Email != "" {
		acc.user.Email = patch.Email
	}
	if patch.Role != "" {
		acc.user.Role = patch.Role
	}
	if patch.Password != "" {
		acc.password = patch.Password
	}
	writeJSON(w, http.StatusOK, acc.user)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := queryInt(r, "user_id")
	acc, ok := s.accounts[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	delete(s.accounts, id)
	writeJSON(w, http.StatusOK, acc.user)
}

func (s *Server) listReferendums(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expand := r.URL.Query().Get("expand") == "creator"

	// Like the real API, an id filter answers with a bare object or null.
	if id := queryInt(r, "referendum_id"); id > 0 {
		ref, ok := s.referendums[id]
		if !ok {
			writeJSON(w, http.StatusOK, nil)
			return
		}
		writeJSON(w, http.StatusOK, s.expandLocked(ref, expand))
		return
	}

	userID := queryInt(r, "user_id")
	refs := make([]types.Referendum, 0, len(s.referendums))
	for _, ref := range s.referendums {
		if userID == 0 || ref.CreatorID == userID {
			refs = append(refs, s.expandLocked(ref, expand))
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	writeJSON(w, http.StatusOK, refs)
}

func (s *Server) expandLocked(ref types.Referendum, expand bool) types.Referendum {
	if !expand {
		return ref
	}
	if acc, ok := s.accounts[ref.CreatorID]; ok {
		ref.Creator = &types.Creator{ID: acc.user.ID, Username: acc.user.Username}
	}
	return ref
}

func (s *Server) createReferendum(w http.ResponseWriter, r *http.Request) {
	var in types.ReferendumCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	ref := s.AddReferendum(types.Referendum{
		Title:       in.Title,
		Description: in.Description,
		CreatorID:   in.CreatorID,
	})
	writeJSON(w, http.StatusCreated, ref)
}

func (s *Server) updateReferendum(w http.ResponseWriter, r *http.Request) {
	var patch types.ReferendumPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := queryInt(r, "referendum_id")
	ref, ok := s.referendums[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("Referendum with ID %d not found", id))
		return
	}
	if patch.Title != "" {
		ref.Title = patch.Title
	}
	if patch.Description != "" {
		ref.Description = patch.Description
	}
	if patch.Status != "" {
		ref.Status = patch.Status
	}
	if patch.StartDate != nil {
		ref.StartDate = patch.StartDate
	}
	if patch.EndDate != nil {
		ref.EndDate = patch.EndDate
	}
	s.referendums[id] = ref
	writeJSON(w, http.StatusOK, ref)
}

func (s *Server) deleteReferendum(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := queryInt(r, "referendum_id")
	ref, ok := s.referendums[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("Referendum with ID %d not found", id))
		return
	}
	delete(s.referendums, id)
	writeJSON(w, http.StatusOK, ref)
}

func (s *Server) listVotes(w http.ResponseWriter, r *http.Request) {
	referendumID := queryInt(r, "referendum_id")

	s.mu.Lock()
	delay := s.voteDelay
	fail := s.failVotes[referendumID]
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if fail {
		writeDetail(w, http.StatusInternalServerError, "database unavailable")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	userID := queryInt(r, "user_id")
	votes := []types.Vote{}
	for _, v := range s.votes {
		if referendumID > 0 && v.ReferendumID != referendumID {
			continue
		}
		if userID > 0 && v.UserID != userID {
			continue
		}
		votes = append(votes, v)
	}
	if referendumID > 0 && len(votes) == 0 {
		writeDetail(w, http.StatusNotFound, "Vote not found")
		return
	}
	writeJSON(w, http.StatusOK, votes)
}

func (s *Server) castVote(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	var in types.VoteCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.votes {
		if v.UserID == user.ID && v.ReferendumID == in.ReferendumID {
			writeDetail(w, http.StatusBadRequest, "You have already voted on this referendum")
			return
		}
	}
	vote := types.Vote{ID: s.id(), ReferendumID: in.ReferendumID, UserID: user.ID, Value: in.Value}
	s.votes = append(s.votes, vote)
	writeJSON(w, http.StatusCreated, vote)
}

func (s *Server) sortedTagsLocked() []types.Tag {
	tags := make([]types.Tag, 0, len(s.tags))
	for _, t := range s.tags {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].ID < tags[j].ID })
	return tags
}

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.sortedTagsLocked())
}

func (s *Server) createTag(w http.ResponseWriter, r *http.Request) {
	var in types.TagCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tags {
		if t.Name == in.Name {
			writeDetail(w, http.StatusBadRequest, "Tag with this name already exists")
			return
		}
	}
	tag := types.Tag{ID: s.id(), Name: in.Name}
	s.tags[tag.ID] = tag
	writeJSON(w, http.StatusCreated, tag)
}

func (s *Server) deleteTag(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "tagID"))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tags[id]; !ok {
		writeDetail(w, http.StatusNotFound, "Tag not found")
		return
	}
	for link := range s.links {
		if link[1] == id {
			writeDetail(w, http.StatusBadRequest, "Cannot delete tag - it's being used by one or more referendums")
			return
		}
	}
	delete(s.tags, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) referendumTags(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "referendumID"))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.referendums[id]; !ok {
		writeDetail(w, http.StatusNotFound, "Referendum not found")
		return
	}
	out := types.ReferendumTags{ReferendumID: id, Tags: []types.Tag{}}
	for _, t := range s.sortedTagsLocked() {
		if s.links[[2]int{id, t.ID}] {
			out.Tags = append(out.Tags, t)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) addLink(w http.ResponseWriter, r *http.Request) {
	var in types.ReferendumTag
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.referendums[in.ReferendumID]; !ok {
		writeDetail(w, http.StatusNotFound, "Referendum not found")
		return
	}
	tag, ok := s.tags[in.TagID]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Tag not found")
		return
	}
	key := [2]int{in.ReferendumID, in.TagID}
	if s.links[key] {
		writeDetail(w, http.StatusBadRequest, "Tag already assigned to this referendum")
		return
	}
	s.links[key] = true
	writeJSON(w, http.StatusCreated, tag)
}

func (s *Server) removeLink(w http.ResponseWriter, r *http.Request) {
	key := [2]int{queryInt(r, "referendum_id"), queryInt(r, "tag_id")}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failTagRemoval[key[1]] {
		writeDetail(w, http.StatusInternalServerError, "Error removing tag from referendum")
		return
	}
	if !s.links[key] {
		writeDetail(w, http.StatusNotFound, "Tag is not assigned to this referendum")
		return
	}
	delete(s.links, key)
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, key string) int {
	v, _ := strconv.Atoi(r.URL.Query().Get(key))
	return v
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

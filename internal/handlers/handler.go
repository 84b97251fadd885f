package handlers

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/referenda/refclient/internal/screens"
	"github.com/referenda/refclient/internal/session"
)

const (
	formFieldUsername    = "username"
	formFieldEmail       = "email"
	formFieldPassword    = "password"
	formFieldConfirm     = "confirm_password"
	formFieldTitle       = "title"
	formFieldDesc        = "description"
	formFieldTags        = "tags"
	formFieldStartDate   = "start_date"
	formFieldEndDate     = "end_date"
	formFieldStatus      = "status"
	formFieldName        = "name"
	formFieldVote        = "value"
	queryFieldSearch     = "q"
	queryFieldMine       = "mine"
	queryFieldRegistered = "registered"

	voteFor     = "for"
	voteAgainst = "against"
)

// Handler serves every client screen.
type Handler struct {
	views  *Views
	logger *slog.Logger
}

// New constructs a Handler.
func New(views *Views, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{views: views, logger: logger}
}

// Routes maps every route key of the route table to its handler.
func (h *Handler) Routes() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		"GET /":                       h.Home,
		"GET /login":                  h.LoginPage,
		"POST /login":                 h.Login,
		"POST /logout":                h.Logout,
		"GET /register":               h.RegisterPage,
		"POST /register":              h.Register,
		"GET /referendums":            h.Browse,
		"POST /referendums/{id}/vote": h.Vote,
		"GET /referendums/create":     h.CreatePage,
		"POST /referendums/create":    h.Create,
		"GET /referendums/edit/{id}":  h.EditReferendumPage,
		"POST /referendums/edit/{id}": h.EditReferendum,
		"GET /moderate":               h.Moderate,
		"POST /moderate/{id}/delete":  h.DeleteReferendum,
		"GET /users":                  h.Users,
		"POST /users/{id}/delete":     h.DeleteUser,
		"POST /users/{id}/role":       h.ToggleRole,
		"GET /users/edit/{id}":        h.EditUserPage,
		"POST /users/edit/{id}":       h.EditUser,
		"GET /tags":                   h.Tags,
		"POST /tags":                  h.CreateTag,
		"POST /tags/{id}/delete":      h.DeleteTag,
	}
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) env(r *http.Request) screens.Env {
	return screens.Env{Session: session.FromContext(r.Context()), Logger: h.logger}
}

// visit opens the screen scope for one request. Closing it cancels any
// request the screen still has in flight.
func visit(r *http.Request) *screens.Scope {
	return screens.NewScope(r.Context())
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name, title string, screen any) {
	if err := h.views.render(w, r, status, name, title, screen); err != nil {
		h.logger.Error("failed to render page", "page", name, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

// Home renders the greeting.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "home", "Home", screens.NewHome(h.env(r)))
}

// LoginPage renders the login form.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	l := screens.NewLogin(h.env(r), r.URL.Query().Get(queryFieldRegistered))
	h.render(w, r, http.StatusOK, "login", "Login", l)
}

// Login signs in and redirects home, or re-renders the form with the error.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}
	scope := visit(r)
	defer scope.Close()

	l := screens.NewLogin(h.env(r), "")
	l.Username = r.PostForm.Get(formFieldUsername)
	l.Password = r.PostForm.Get(formFieldPassword)
	if to := l.Submit(scope); to != "" {
		seeOther(w, r, to)
		return
	}
	h.render(w, r, http.StatusUnprocessableEntity, "login", "Login", l)
}

// Logout forgets the session and returns home.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if s := session.FromContext(r.Context()); s != nil {
		s.Logout()
	}
	seeOther(w, r, "/")
}

// RegisterPage renders the registration form.
func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register", "Register", screens.NewRegister(h.env(r)))
}

// Register creates the account and sends the visitor to the login form.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}
	scope := visit(r)
	defer scope.Close()

	reg := screens.NewRegister(h.env(r))
	reg.Username = r.PostForm.Get(formFieldUsername)
	reg.Email = r.PostForm.Get(formFieldEmail)
	reg.Password = r.PostForm.Get(formFieldPassword)
	reg.ConfirmPassword = r.PostForm.Get(formFieldConfirm)
	if to := reg.Submit(scope); to != "" {
		seeOther(w, r, to)
		return
	}
	h.render(w, r, http.StatusUnprocessableEntity, "register", "Register", reg)
}

// Browse renders the referendum list with votes and tags.
func (h *Handler) Browse(w http.ResponseWriter, r *http.Request) {
	scope := visit(r)
	defer scope.Close()

	b := screens.NewBrowse(h.env(r))
	b.Search = r.URL.Query().Get(queryFieldSearch)
	b.MineOnly = formBool(r, queryFieldMine)
	b.Load(scope)
	h.render(w, r, http.StatusOK, "browse", "Referendums", b)
}

// Vote casts a vote. On success the list is shown again with the same
// filters; on failure the server's reason is shown on the card.
func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "referendum not found")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}
	value := r.PostForm.Get(formFieldVote)
	if value != voteFor && value != voteAgainst {
		writeError(w, http.StatusBadRequest, "vote must be for or against")
		return
	}
	scope := visit(r)
	defer scope.Close()

	b := screens.NewBrowse(h.env(r))
	b.Search = r.PostForm.Get(queryFieldSearch)
	b.MineOnly = formBool(r, queryFieldMine)
	if err := b.Vote(scope, id, value == voteFor); err == nil {
		seeOther(w, r, browseURL(b.Search, b.MineOnly))
		return
	}
	b.Load(scope)
	h.render(w, r, http.StatusUnprocessableEntity, "browse", "Referendums", b)
}

func browseURL(search string, mine bool) string {
	q := url.Values{}
	if search != "" {
		q.Set(queryFieldSearch, search)
	}
	if mine {
		q.Set(queryFieldMine, "1")
	}
	if len(q) == 0 {
		return "/referendums"
	}
	return "/referendums?" + q.Encode()
}

// CreatePage renders the create form.
func (h *Handler) CreatePage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "create", "Create Referendum", screens.NewCreateReferendum(h.env(r)))
}

// Create proposes a referendum.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}
	scope := visit(r)
	defer scope.Close()

	c := screens.NewCreateReferendum(h.env(r))
	c.Title = r.PostForm.Get(formFieldTitle)
	c.Description = r.PostForm.Get(formFieldDesc)
	c.Tags = r.PostForm.Get(formFieldTags)
	if to := c.Submit(scope); to != "" {
		seeOther(w, r, to)
		return
	}
	h.render(w, r, http.StatusUnprocessableEntity, "create", "Create Referendum", c)
}

// EditReferendumPage renders the edit form filled from the server.
func (h *Handler) EditReferendumPage(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "referendum not found")
		return
	}
	scope := visit(r)
	defer scope.Close()

	e := screens.NewEditReferendum(h.env(r), id)
	e.Load(scope)
	h.render(w, r, http.StatusOK, "edit_referendum", "Edit Referendum", e)
}

// EditReferendum saves the referendum and its tag set.
func (h *Handler) EditReferendum(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "referendum not found")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}
	scope := visit(r)
	defer scope.Close()

	e := screens.NewEditReferendum(h.env(r), id)
	e.Title = r.PostForm.Get(formFieldTitle)
	e.Description = r.PostForm.Get(formFieldDesc)
	e.StartDate = r.PostForm.Get(formFieldStartDate)
	e.EndDate = r.PostForm.Get(formFieldEndDate)
	e.ReferendumStatus = r.PostForm.Get(formFieldStatus)
	e.Tags = r.PostForm.Get(formFieldTags)
	if to := e.Submit(scope); to != "" {
		seeOther(w, r, to)
		return
	}
	h.render(w, r, http.StatusUnprocessableEntity, "edit_referendum", "Edit Referendum", e)
}

// Moderate renders every referendum for the admin.
func (h *Handler) Moderate(w http.ResponseWriter, r *http.Request) {
	scope := visit(r)
	defer scope.Close()

	m := screens.NewModerate(h.env(r))
	m.Search = r.URL.Query().Get(queryFieldSearch)
	m.StatusFilter = r.URL.Query().Get(formFieldStatus)
	m.Load(scope)
	h.render(w, r, http.StatusOK, "moderate", "Moderate Referendums", m)
}

// DeleteReferendum removes a referendum and returns to the moderation list.
func (h *Handler) DeleteReferendum(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "referendum not found")
		return
	}
	scope := visit(r)
	defer scope.Close()

	m := screens.NewModerate(h.env(r))
	if m.Delete(scope, id) {
		seeOther(w, r, "/moderate")
		return
	}
	m.Load(scope)
	h.render(w, r, http.StatusUnprocessableEntity, "moderate", "Moderate Referendums", m)
}

// Users renders the account list.
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	scope := visit(r)
	defer scope.Close()

	u := screens.NewUsers(h.env(r))
	u.Search = r.URL.Query().Get(queryFieldSearch)
	u.Load(scope)
	h.render(w, r, http.StatusOK, "users", "Users", u)
}

// DeleteUser removes an account.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	h.userAction(w, r, (*screens.Users).Delete)
}

// ToggleRole flips an account between admin and user.
func (h *Handler) ToggleRole(w http.ResponseWriter, r *http.Request) {
	h.userAction(w, r, (*screens.Users).ToggleRole)
}

func (h *Handler) userAction(w http.ResponseWriter, r *http.Request, action func(*screens.Users, *screens.Scope, int) bool) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	scope := visit(r)
	defer scope.Close()

	u := screens.NewUsers(h.env(r))
	if action(u, scope, id) {
		seeOther(w, r, "/users")
		return
	}
	u.Load(scope)
	h.render(w, r, http.StatusUnprocessableEntity, "users", "Users", u)
}

// EditUserPage renders the account form.
func (h *Handler) EditUserPage(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	scope := visit(r)
	defer scope.Close()

	e := screens.NewEditUser(h.env(r), id)
	e.Load(scope)
	h.render(w, r, http.StatusOK, "edit_user", "Edit User", e)
}

// EditUser saves the account.
func (h *Handler) EditUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}
	scope := visit(r)
	defer scope.Close()

	e := screens.NewEditUser(h.env(r), id)
	e.Username = r.PostForm.Get(formFieldUsername)
	e.Email = r.PostForm.Get(formFieldEmail)
	e.Password = r.PostForm.Get(formFieldPassword)
	if to := e.Submit(scope); to != "" {
		seeOther(w, r, to)
		return
	}
	h.render(w, r, http.StatusUnprocessableEntity, "edit_user", "Edit User", e)
}

// Tags renders the tag list.
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	scope := visit(r)
	defer scope.Close()

	t := screens.NewTags(h.env(r))
	t.Search = r.URL.Query().Get(queryFieldSearch)
	t.Load(scope)
	h.render(w, r, http.StatusOK, "tags", "Tags", t)
}

// CreateTag adds a tag.
func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}
	scope := visit(r)
	defer scope.Close()

	t := screens.NewTags(h.env(r))
	t.NewName = r.PostForm.Get(formFieldName)
	if t.Create(scope) {
		seeOther(w, r, "/tags")
		return
	}
	h.tagFailure(w, r, scope, t)
}

// DeleteTag removes a tag. Tags in use are refused by the server.
func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "tag not found")
		return
	}
	scope := visit(r)
	defer scope.Close()

	t := screens.NewTags(h.env(r))
	if t.Delete(scope, id) {
		seeOther(w, r, "/tags")
		return
	}
	h.tagFailure(w, r, scope, t)
}

func (h *Handler) tagFailure(w http.ResponseWriter, r *http.Request, scope *screens.Scope, t *screens.Tags) {
	t.Load(scope)
	h.render(w, r, http.StatusUnprocessableEntity, "tags", "Tags", t)
}

// Package router is the table of client routes and the access level each
// one requires.
package router

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/referenda/refclient/internal/session"
)

// Access is the privilege a route asks of the session.
type Access int

const (
	Public Access = iota
	Authenticated
	Admin
)

func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case Authenticated:
		return "authenticated"
	case Admin:
		return "admin"
	default:
		return fmt.Sprintf("access(%d)", int(a))
	}
}

// Route is one entry of the route table.
type Route struct {
	Method  string
	Pattern string
	Access  Access
}

// Key identifies the handler serving the route.
func (r Route) Key() string {
	return r.Method + " " + r.Pattern
}

// Table lists every route. Screens are reached by GET; POST routes are the
// actions those screens offer.
var Table = []Route{
	{http.MethodGet, "/", Public},
	{http.MethodGet, "/login", Public},
	{http.MethodPost, "/login", Public},
	{http.MethodPost, "/logout", Public},
	{http.MethodGet, "/register", Public},
	{http.MethodPost, "/register", Public},
	{http.MethodGet, "/referendums", Public},
	{http.MethodPost, "/referendums/{id}/vote", Authenticated},
	{http.MethodGet, "/referendums/create", Authenticated},
	{http.MethodPost, "/referendums/create", Authenticated},
	{http.MethodGet, "/referendums/edit/{id}", Admin},
	{http.MethodPost, "/referendums/edit/{id}", Admin},
	{http.MethodGet, "/moderate", Admin},
	{http.MethodPost, "/moderate/{id}/delete", Admin},
	{http.MethodGet, "/users", Admin},
	{http.MethodPost, "/users/{id}/delete", Admin},
	{http.MethodPost, "/users/{id}/role", Admin},
	{http.MethodGet, "/users/edit/{id}", Admin},
	{http.MethodPost, "/users/edit/{id}", Admin},
	{http.MethodGet, "/tags", Admin},
	{http.MethodPost, "/tags", Admin},
	{http.MethodPost, "/tags/{id}/delete", Admin},
}

// Viewer is what the guard needs to know about a session.
type Viewer interface {
	Authenticated() bool
	IsAdmin() bool
}

// Check returns where to send v instead, or "" when v may proceed.
// The check is advisory; the API enforces authorization itself.
func Check(access Access, v Viewer) string {
	switch access {
	case Admin:
		if v == nil || !v.IsAdmin() {
			return "/"
		}
	case Authenticated:
		if v == nil || !v.Authenticated() {
			return "/login"
		}
	}
	return ""
}

// Guard redirects requests whose session lacks access before next runs.
func Guard(access Access) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if access == Public {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var v Viewer
			if s := session.FromContext(r.Context()); s != nil {
				v = s
			}
			if to := Check(access, v); to != "" {
				http.Redirect(w, r, to, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Mount registers every route of Table on r, each behind its guard.
// It fails if handlers lacks an entry for a route.
func Mount(r chi.Router, handlers map[string]http.HandlerFunc) error {
	for _, route := range Table {
		h, ok := handlers[route.Key()]
		if !ok {
			return fmt.Errorf("no handler for %s", route.Key())
		}
		r.With(Guard(route.Access)).Method(route.Method, route.Pattern, h)
	}
	return nil
}

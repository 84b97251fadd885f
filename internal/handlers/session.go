package handlers

import (
	"log/slog"
	"net/http"

	"github.com/referenda/refclient/internal/apiclient"
	"github.com/referenda/refclient/internal/session"
)

// SessionProvider yields the session a request runs under.
type SessionProvider interface {
	Open(w http.ResponseWriter, r *http.Request) *session.Session
}

// CookieProvider opens one session per browser request from the sealed
// token cookie the browser sends.
type CookieProvider struct {
	API     *apiclient.Client
	Sealer  *session.Sealer
	Options session.CookieOptions
	Logger  *slog.Logger
}

func (p *CookieProvider) Open(w http.ResponseWriter, r *http.Request) *session.Session {
	store := session.NewCookieStore(w, r, p.Sealer, p.Options)
	return session.Open(r.Context(), store, p.API, p.Logger)
}

// StaticProvider serves every request from one long-lived session, as the
// terminal frontend does.
type StaticProvider struct {
	Session *session.Session
}

func (p StaticProvider) Open(http.ResponseWriter, *http.Request) *session.Session {
	return p.Session
}

// SessionMiddleware puts the provider's session into the request context
// ahead of the route guards.
func SessionMiddleware(p SessionProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := p.Open(w, r)
			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), s)))
		})
	}
}

// Package cli drives the client routes from a terminal. Requests are served
// in-process by the same handlers the web frontend mounts, rendered as plain
// text, and the session token lives in local storage.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/referenda/refclient/internal/apiclient"
	"github.com/referenda/refclient/internal/handlers"
	"github.com/referenda/refclient/internal/router"
	"github.com/referenda/refclient/internal/session"
)

const maxRedirects = 10

// ErrTooManyRedirects is returned when a route keeps redirecting.
var ErrTooManyRedirects = errors.New("too many redirects")

// Page is the final response of a request after redirects.
type Page struct {
	Path   string
	Status int
	Body   string
}

// OK reports whether the page rendered without an error status.
func (p Page) OK() bool {
	return p.Status < http.StatusBadRequest
}

// Client is one terminal user's view of the application.
type Client struct {
	session *session.Session
	handler http.Handler
}

// Open resolves the session from the token in kv and mounts the routes.
func Open(ctx context.Context, api *apiclient.Client, kv session.KeyValue, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}

	sess := session.Open(ctx, session.NewStorageStore(kv, log), api, log)

	views, err := handlers.LoadViews()
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(handlers.SessionMiddleware(handlers.StaticProvider{Session: sess}))
	if err := router.Mount(r, handlers.New(views, log).Routes()); err != nil {
		return nil, err
	}

	return &Client{session: sess, handler: r}, nil
}

// Session returns the terminal's session.
func (c *Client) Session() *session.Session {
	return c.session
}

// Get renders the screen at path.
func (c *Client) Get(ctx context.Context, path string) (Page, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post submits form to path.
func (c *Client) Post(ctx context.Context, path string, form url.Values) (Page, error) {
	return c.Do(ctx, http.MethodPost, path, form)
}

// Do issues the request and follows redirects the way a browser does after
// a form post: the next hop is always a GET.
func (c *Client) Do(ctx context.Context, method, path string, form url.Values) (Page, error) {
	for range maxRedirects {
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}

		rec, err := c.serve(ctx, method, path, form)
		if err != nil {
			return Page{}, err
		}
		if loc := rec.Header().Get("Location"); isRedirect(rec.Code) && loc != "" {
			next, err := resolve(path, loc)
			if err != nil {
				return Page{}, err
			}
			method, path, form = http.MethodGet, next, nil
			continue
		}

		return Page{Path: path, Status: rec.Code, Body: rec.Body.String()}, nil
	}
	return Page{}, fmt.Errorf("%s %s: %w", method, path, ErrTooManyRedirects)
}

func (c *Client) serve(ctx context.Context, method, path string, form url.Values) (*httptest.ResponseRecorder, error) {
	req, err := http.NewRequestWithContext(ctx, method, "http://refclient"+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return rec, nil
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func resolve(from, location string) (string, error) {
	base, err := url.Parse(from)
	if err != nil {
		return "", fmt.Errorf("parse path %q: %w", from, err)
	}
	ref, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("parse redirect %q: %w", location, err)
	}
	next := base.ResolveReference(ref)
	if next.Host != "" {
		return "", fmt.Errorf("redirect leaves the application: %s", location)
	}
	return next.RequestURI(), nil
}

// ParseForm turns k=v pairs into form values. A pair without "=" sets an
// empty value.
func ParseForm(pairs []string) url.Values {
	form := url.Values{}
	for _, p := range pairs {
		k, v, _ := strings.Cut(p, "=")
		form.Add(strings.TrimSpace(k), v)
	}
	return form
}

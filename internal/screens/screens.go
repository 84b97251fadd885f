// Package screens holds the per-visit state of every client screen.
//
// A screen is built for one visit, loads what it shows through the
// session's API client and records where it is in the
// Idle -> Loading -> Ready | Failed cycle. All network work runs inside
// the visit's Scope, so closing the scope abandons whatever is in flight.
package screens

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/referenda/refclient/internal/apiclient"
	"github.com/referenda/refclient/internal/session"
)

// Status is where a screen is in its load cycle.
type Status int

const (
	Idle Status = iota
	Loading
	Ready
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is embedded by every screen.
type State struct {
	Status Status
	// Error is the message shown inline, empty when there is nothing to show.
	Error string
	// Notice is a non-error message such as a success confirmation.
	Notice string
}

func (s *State) begin() {
	s.Status = Loading
}

func (s *State) ready() {
	s.Status = Ready
}

func (s *State) fail(msg string) {
	s.Status = Failed
	s.Error = msg
}

// Scope is the lifetime of one screen visit. Requests issued through its
// context are cancelled by Close.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// NewScope starts a visit scope under parent.
func NewScope(parent context.Context) *Scope {
	ctx, cancel := context.WithCancel(parent)
	return &Scope{ctx: ctx, cancel: cancel}
}

// Context returns the visit's context.
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Close tears the visit down. It is safe to call more than once.
func (s *Scope) Close() {
	s.once.Do(s.cancel)
}

// Closed reports whether the visit has ended.
func (s *Scope) Closed() bool {
	return s.ctx.Err() != nil
}

// Env is what every screen is built from.
type Env struct {
	Session *session.Session
	Logger  *slog.Logger
}

func (e Env) api() *apiclient.Client {
	return e.Session.API()
}

func (e Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// matches reports whether any field contains query, ignoring case.
// An empty query matches everything.
func matches(query string, fields ...string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

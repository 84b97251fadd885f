package screens

import (
	"context"
	"testing"
	"time"

	"github.com/referenda/refclient/internal/apiclient"
	"github.com/referenda/refclient/internal/apitest"
	"github.com/referenda/refclient/internal/logger"
	"github.com/referenda/refclient/internal/session"
	"github.com/referenda/refclient/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newEnv opens a session against api, signed in as userID when non-zero.
func newEnv(t *testing.T, api *apitest.Server, userID int) Env {
	t.Helper()
	base, err := apiclient.New(apiclient.Options{BaseURL: api.URL, Timeout: 3 * time.Second})
	require.NoError(t, err)

	token := ""
	if userID != 0 {
		token = api.TokenFor(userID)
	}
	log := logger.Discard()
	sess := session.Open(context.Background(), session.NewMemoryStore(token), base, log)
	return Env{Session: sess, Logger: log}
}

func newScope(t *testing.T) *Scope {
	t.Helper()
	scope := NewScope(context.Background())
	t.Cleanup(scope.Close)
	return scope
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "failed", Failed.String())
}

func TestScope_Close(t *testing.T) {
	scope := NewScope(context.Background())
	assert.False(t, scope.Closed())

	scope.Close()
	scope.Close()

	assert.True(t, scope.Closed())
	assert.ErrorIs(t, scope.Context().Err(), context.Canceled)
}

func TestMatches(t *testing.T) {
	assert.True(t, matches("", "anything"))
	assert.True(t, matches("PARK", "More parks", "x"))
	assert.True(t, matches("road", "x", "Fix roads"))
	assert.False(t, matches("bridge", "More parks", "Fix roads"))
}

func TestHome(t *testing.T) {
	api := apitest.New(t)
	alice := api.AddUser("alice", "secret1", types.RoleUser)

	assert.Equal(t, "Welcome to Referendum App", NewHome(newEnv(t, api, 0)).Greeting())

	h := NewHome(newEnv(t, api, alice.ID))
	assert.Equal(t, "Welcome, alice!", h.Greeting())
	assert.Equal(t, Ready, h.Status)
}

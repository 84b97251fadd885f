package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/referenda/refclient/internal/logger"
	"github.com/referenda/refclient/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageStore(t *testing.T) {
	kv, err := store.OpenInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	ts := NewStorageStore(kv, logger.Discard())
	assert.Empty(t, ts.Token())

	require.NoError(t, ts.SetToken("abc"))
	assert.Equal(t, "abc", ts.Token())

	raw, err := kv.Get(TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "abc", raw)

	require.NoError(t, ts.ClearToken())
	assert.Empty(t, ts.Token())
}

func TestSealer(t *testing.T) {
	key := []byte(strings.Repeat("k", 32))
	s, err := NewSealer(key)
	require.NoError(t, err)

	sealed, err := s.Seal("token-value")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "token-value")

	plain, ok := s.Open(sealed)
	require.True(t, ok)
	assert.Equal(t, "token-value", plain)

	other, err := NewSealer(nil)
	require.NoError(t, err)
	_, ok = other.Open(sealed)
	assert.False(t, ok, "opened under another key")

	tampered := []byte(sealed)
	tampered[len(tampered)-1] ^= 1
	_, ok = s.Open(string(tampered))
	assert.False(t, ok)

	_, ok = s.Open("short")
	assert.False(t, ok)

	_, err = NewSealer([]byte("too short"))
	assert.Error(t, err)
}

func TestCookieStore(t *testing.T) {
	sealer, err := NewSealer(nil)
	require.NoError(t, err)
	opts := CookieOptions{Name: "refclient_token", MaxAge: time.Hour}

	// First request: no cookie, login stores one.
	rec := httptest.NewRecorder()
	cs := NewCookieStore(rec, httptest.NewRequest(http.MethodGet, "/", nil), sealer, opts)
	assert.Empty(t, cs.Token())
	require.NoError(t, cs.SetToken("abc"))
	assert.Equal(t, "abc", cs.Token())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "refclient_token", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.Equal(t, 3600, cookies[0].MaxAge)

	// Second request carries the cookie back.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	cs = NewCookieStore(rec, req, sealer, opts)
	assert.Equal(t, "abc", cs.Token())

	require.NoError(t, cs.ClearToken())
	assert.Empty(t, cs.Token())
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)
}

func TestCookieStore_ForgedCookie(t *testing.T) {
	sealer, err := NewSealer(nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "refclient_token", Value: "plain-token"})
	cs := NewCookieStore(httptest.NewRecorder(), req, sealer, CookieOptions{Name: "refclient_token"})

	assert.Empty(t, cs.Token())
}

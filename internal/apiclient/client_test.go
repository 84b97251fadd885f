package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL, Timeout: time.Second})
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{name: "valid", baseURL: "http://localhost:8000"},
		{name: "trailing slash", baseURL: "http://localhost:8000/"},
		{name: "empty", baseURL: "", wantErr: true},
		{name: "relative", baseURL: "/api", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(Options{BaseURL: tt.baseURL})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, defaultTimeout, c.http.Timeout)
		})
	}
}

func TestSend_AttachesBearerToken(t *testing.T) {
	var got string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	})

	_, err := c.WithTokenSource(TokenFunc(func() string { return "abc" })).
		send(context.Background(), request{method: http.MethodGet, path: "/users/me"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", got)
}

func TestSend_NoTokenSendsUnauthenticated(t *testing.T) {
	var got string
	var seen bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got, seen = r.Header.Get("Authorization"), true
		w.WriteHeader(http.StatusOK)
	})

	_, err := c.WithTokenSource(TokenFunc(func() string { return "" })).
		send(context.Background(), request{method: http.MethodGet, path: "/referendums/"})
	require.NoError(t, err)
	assert.True(t, seen)
	assert.Empty(t, got)

	_, err = c.send(context.Background(), request{method: http.MethodGet, path: "/referendums/"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSend_ExplicitAuthorizationWins(t *testing.T) {
	var got string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"access_token":"t","token_type":"bearer"}`))
	})

	authed := c.WithTokenSource(TokenFunc(func() string { return "stale" }))
	_, err := authed.IssueToken(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "Basic YWxpY2U6c2VjcmV0", got)
}

func TestSend_ReadsTokenPerRequest(t *testing.T) {
	var seen []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
	})

	token := "first"
	authed := c.WithTokenSource(TokenFunc(func() string { return token }))
	ctx := context.Background()

	_, err := authed.send(ctx, request{method: http.MethodGet, path: "/x"})
	require.NoError(t, err)
	token = ""
	_, err = authed.send(ctx, request{method: http.MethodGet, path: "/x"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Bearer first", ""}, seen)
}

func TestSend_JoinsBasePath(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
	}))
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL + "/api/"})
	require.NoError(t, err)

	_, err = c.send(context.Background(), request{method: http.MethodGet, path: "/tags/"})
	require.NoError(t, err)
	assert.Equal(t, "/api/tags/", path)
}

func TestSend_ErrorResponses(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
		wantFields int
		wantIs     error
	}{
		{
			name:       "string detail",
			status:     http.StatusBadRequest,
			body:       `{"detail":"You have already voted on this referendum"}`,
			wantDetail: "You have already voted on this referendum",
		},
		{
			name:       "validation detail",
			status:     http.StatusUnprocessableEntity,
			body:       `{"detail":[{"loc":["body","email"],"msg":"value is not a valid email address","type":"value_error"},{"loc":["body",0],"msg":"bad"}]}`,
			wantDetail: "body.email: value is not a valid email address; body.0: bad",
			wantFields: 2,
		},
		{
			name:       "error key",
			status:     http.StatusInternalServerError,
			body:       `{"error":"boom"}`,
			wantDetail: "boom",
		},
		{
			name:   "not json",
			status: http.StatusBadGateway,
			body:   `<html>bad gateway</html>`,
		},
		{
			name:       "not found",
			status:     http.StatusNotFound,
			body:       `{"detail":"Vote not found"}`,
			wantDetail: "Vote not found",
			wantIs:     ErrNotFound,
		},
		{
			name:       "unauthorized",
			status:     http.StatusUnauthorized,
			body:       `{"detail":"Could not validate credentials"}`,
			wantDetail: "Could not validate credentials",
			wantIs:     ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.send(context.Background(), request{method: http.MethodGet, path: "/"})
			require.Error(t, err)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantDetail, apiErr.Detail)
			assert.Len(t, apiErr.Fields, tt.wantFields)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
		})
	}
}

func TestSend_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.send(context.Background(), request{method: http.MethodGet, path: "/"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execute request")

	var apiErr *Error
	assert.False(t, errors.As(err, &apiErr))
}

func TestSend_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.send(context.Background(), request{method: http.MethodGet, path: "/"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execute request")
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "detail", err: &Error{StatusCode: 400, Detail: "Incorrect username or password"}, want: "Incorrect username or password"},
		{name: "wrapped detail", err: errors.Join(errors.New("ctx"), &Error{StatusCode: 400, Detail: "nope"}), want: "nope"},
		{name: "no detail", err: &Error{StatusCode: 500}, want: "Login failed"},
		{name: "transport", err: errors.New("execute request: dial tcp"), want: "Login failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Message(tt.err, "Login failed"))
		})
	}
}

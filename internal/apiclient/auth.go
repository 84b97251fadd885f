package apiclient

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/referenda/refclient/types"
)

// IssueToken exchanges credentials for a bearer token. Credentials travel as
// a Basic authorization header, which takes precedence over any bound token.
func (c *Client) IssueToken(ctx context.Context, username, password string) (types.Token, error) {
	basic := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))

	var token types.Token
	err := c.doJSON(ctx, request{
		method: http.MethodPost,
		path:   "/users/token",
		header: http.Header{"Authorization": []string{"Basic " + basic}},
	}, &token)
	if err != nil {
		return types.Token{}, err
	}
	if token.AccessToken == "" {
		return types.Token{}, ErrNoToken
	}
	return token, nil
}

// Me returns the user the bound token belongs to.
func (c *Client) Me(ctx context.Context) (types.User, error) {
	var user types.User
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: "/users/me"}, &user); err != nil {
		return types.User{}, err
	}
	return user, nil
}

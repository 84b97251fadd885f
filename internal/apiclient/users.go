package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/referenda/refclient/types"
)

// UserFilter narrows GET /users/. The server applies the first non-zero
// field in the order ID, Email, Role.
type UserFilter struct {
	ID    int
	Email string
	Role  string
}

func (f UserFilter) query() url.Values {
	q := url.Values{}
	if f.ID > 0 {
		q.Set("user_id", fmt.Sprint(f.ID))
	}
	if f.Email != "" {
		q.Set("email", f.Email)
	}
	if f.Role != "" {
		q.Set("role", f.Role)
	}
	return q
}

// ListUsers returns users matching filter.
func (c *Client) ListUsers(ctx context.Context, filter UserFilter) ([]types.User, error) {
	data, err := c.send(ctx, request{method: http.MethodGet, path: "/users/", query: filter.query()})
	if err != nil {
		return nil, err
	}
	listing, err := decodeListing[types.User](data)
	if err != nil {
		return nil, err
	}
	return listing.Items, nil
}

// GetUser fetches one user by id.
func (c *Client) GetUser(ctx context.Context, id int) (types.User, error) {
	users, err := c.ListUsers(ctx, UserFilter{ID: id})
	if err != nil {
		return types.User{}, err
	}
	if len(users) == 0 {
		return types.User{}, ErrNotFound
	}
	return users[0], nil
}

// CreateUser registers a new account.
func (c *Client) CreateUser(ctx context.Context, in types.UserCreate) (types.User, error) {
	var created types.User
	err := c.doJSON(ctx, request{method: http.MethodPost, path: "/users/", body: in}, &created)
	return created, err
}

// UpdateUser patches the user addressed by id.
func (c *Client) UpdateUser(ctx context.Context, id int, patch types.UserPatch) (types.User, error) {
	var updated types.User
	err := c.doJSON(ctx, request{
		method: http.MethodPatch,
		path:   "/users/",
		query:  idQuery("user_id", id),
		body:   patch,
	}, &updated)
	return updated, err
}

// DeleteUser removes the user addressed by id.
func (c *Client) DeleteUser(ctx context.Context, id int) error {
	return c.doJSON(ctx, request{
		method: http.MethodDelete,
		path:   "/users/",
		query:  idQuery("user_id", id),
	}, nil)
}

// ToggleRole flips user between admin and user. The new role is computed
// locally from the copy the caller holds.
func (c *Client) ToggleRole(ctx context.Context, user types.User) (types.User, error) {
	return c.UpdateUser(ctx, user.ID, types.UserPatch{Role: user.InvertedRole()})
}

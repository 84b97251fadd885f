package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/referenda/refclient/types"
)

// ReferendumFilter narrows GET /referendums/. Zero fields are not sent.
type ReferendumFilter struct {
	ID     int
	UserID int
	// Expand asks the server to embed related records, e.g. "creator".
	Expand string
}

func (f ReferendumFilter) query() url.Values {
	q := url.Values{}
	if f.ID > 0 {
		q.Set("referendum_id", fmt.Sprint(f.ID))
	}
	if f.UserID > 0 {
		q.Set("user_id", fmt.Sprint(f.UserID))
	}
	if f.Expand != "" {
		q.Set("expand", f.Expand)
	}
	return q
}

// ListReferendums returns referendums matching filter.
func (c *Client) ListReferendums(ctx context.Context, filter ReferendumFilter) (Listing[types.Referendum], error) {
	data, err := c.send(ctx, request{
		method: http.MethodGet,
		path:   "/referendums/",
		query:  filter.query(),
	})
	if err != nil {
		return Listing[types.Referendum]{}, err
	}
	return decodeListing[types.Referendum](data)
}

// GetReferendum fetches one referendum through the id filter of the list
// endpoint. It returns ErrNotFound when the server answers with nothing.
func (c *Client) GetReferendum(ctx context.Context, id int) (types.Referendum, error) {
	listing, err := c.ListReferendums(ctx, ReferendumFilter{ID: id, Expand: "creator"})
	if err != nil {
		return types.Referendum{}, err
	}
	ref, ok := listing.First()
	if !ok {
		return types.Referendum{}, ErrNotFound
	}
	return ref, nil
}

// CreateReferendum submits a new referendum.
func (c *Client) CreateReferendum(ctx context.Context, in types.ReferendumCreate) (types.Referendum, error) {
	var created types.Referendum
	err := c.doJSON(ctx, request{method: http.MethodPost, path: "/referendums/", body: in}, &created)
	return created, err
}

// UpdateReferendum patches the referendum addressed by id.
func (c *Client) UpdateReferendum(ctx context.Context, id int, patch types.ReferendumPatch) (types.Referendum, error) {
	var updated types.Referendum
	err := c.doJSON(ctx, request{
		method: http.MethodPatch,
		path:   "/referendums/",
		query:  idQuery("referendum_id", id),
		body:   patch,
	}, &updated)
	return updated, err
}

// DeleteReferendum removes the referendum addressed by id.
func (c *Client) DeleteReferendum(ctx context.Context, id int) error {
	return c.doJSON(ctx, request{
		method: http.MethodDelete,
		path:   "/referendums/",
		query:  idQuery("referendum_id", id),
	}, nil)
}

package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/referenda/refclient/types"
)

// ListTags returns every tag.
func (c *Client) ListTags(ctx context.Context) ([]types.Tag, error) {
	data, err := c.send(ctx, request{method: http.MethodGet, path: "/tags/"})
	if err != nil {
		return nil, err
	}
	listing, err := decodeListing[types.Tag](data)
	if err != nil {
		return nil, err
	}
	return listing.Items, nil
}

// CreateTag creates a tag named name.
func (c *Client) CreateTag(ctx context.Context, name string) (types.Tag, error) {
	var tag types.Tag
	err := c.doJSON(ctx, request{method: http.MethodPost, path: "/tags/", body: types.TagCreate{Name: name}}, &tag)
	return tag, err
}

// DeleteTag removes a tag. The server refuses while the tag is in use.
func (c *Client) DeleteTag(ctx context.Context, id int) error {
	return c.doJSON(ctx, request{method: http.MethodDelete, path: fmt.Sprintf("/tags/%d", id)}, nil)
}

// ReferendumTags returns the tags attached to a referendum.
func (c *Client) ReferendumTags(ctx context.Context, referendumID int) (types.ReferendumTags, error) {
	var out types.ReferendumTags
	err := c.doJSON(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf("/tags/referendum/%d", referendumID),
	}, &out)
	return out, err
}

// AddTagToReferendum attaches a tag to a referendum.
func (c *Client) AddTagToReferendum(ctx context.Context, referendumID, tagID int) error {
	return c.doJSON(ctx, request{
		method: http.MethodPost,
		path:   "/tags/referendum/",
		body:   types.ReferendumTag{ReferendumID: referendumID, TagID: tagID},
	}, nil)
}

// RemoveTagFromReferendum detaches a tag from a referendum.
func (c *Client) RemoveTagFromReferendum(ctx context.Context, referendumID, tagID int) error {
	q := url.Values{}
	q.Set("referendum_id", fmt.Sprint(referendumID))
	q.Set("tag_id", fmt.Sprint(tagID))
	return c.doJSON(ctx, request{method: http.MethodDelete, path: "/tags/referendum/", query: q}, nil)
}

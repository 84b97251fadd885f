package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/referenda/refclient/types"
)

// VoteFilter narrows GET /votes/. Zero fields are not sent.
type VoteFilter struct {
	ReferendumID int
	UserID       int
}

func (f VoteFilter) query() url.Values {
	q := url.Values{}
	if f.ReferendumID > 0 {
		q.Set("referendum_id", fmt.Sprint(f.ReferendumID))
	}
	if f.UserID > 0 {
		q.Set("user_id", fmt.Sprint(f.UserID))
	}
	return q
}

// ListVotes returns votes matching filter. Failures are logged and yield an
// empty list; the server answers 404 for a referendum nobody voted on yet.
func (c *Client) ListVotes(ctx context.Context, filter VoteFilter) []types.Vote {
	data, err := c.send(ctx, request{
		method: http.MethodGet,
		path:   "/votes/",
		query:  filter.query(),
	})
	if err != nil {
		c.logger.Warn("failed to fetch votes",
			"referendum_id", filter.ReferendumID,
			"user_id", filter.UserID,
			"error", err,
		)
		return []types.Vote{}
	}

	listing, err := decodeListing[types.Vote](data)
	if err != nil {
		c.logger.Warn("failed to decode votes", "referendum_id", filter.ReferendumID, "error", err)
		return []types.Vote{}
	}
	return listing.Items
}

// CastVote records the caller's vote on a referendum.
func (c *Client) CastVote(ctx context.Context, referendumID int, value bool) (types.Vote, error) {
	var vote types.Vote
	err := c.doJSON(ctx, request{
		method: http.MethodPost,
		path:   "/votes/",
		body:   types.VoteCreate{ReferendumID: referendumID, Value: value},
	}, &vote)
	return vote, err
}

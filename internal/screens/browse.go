package screens

import (
	"fmt"

	"github.com/referenda/refclient/internal/apiclient"
	"github.com/referenda/refclient/types"
	"golang.org/x/sync/errgroup"
)

// maxCardFetches bounds concurrent per-card requests.
const maxCardFetches = 8

// Card is one referendum on the browse screen with its votes and tags.
type Card struct {
	Referendum types.Referendum
	For        int
	Against    int
	Tags       []string
	// HasVoted is derived from the fetched votes; the server decides.
	HasVoted bool
	Error    string
}

// CreatorName is the creator's username, or a placeholder from the id.
func (c Card) CreatorName() string {
	return creatorName(c.Referendum)
}

// VotingPeriod is "start → end" in dates, or "" when no start is set.
func (c Card) VotingPeriod() string {
	if c.Referendum.StartDate == nil {
		return ""
	}
	return c.Referendum.StartDate.DateOnly() + " → " + c.Referendum.EndDate.DateOnly()
}

// Browse lists referendums for voting.
type Browse struct {
	State
	env Env

	Search   string
	MineOnly bool

	Cards []Card
	// voteErrors carries inline vote failures into the next Load.
	voteErrors map[int]string
}

// NewBrowse builds the browse screen.
func NewBrowse(env Env) *Browse {
	return &Browse{env: env, voteErrors: map[int]string{}}
}

// CanVote reports whether vote buttons are shown at all.
func (b *Browse) CanVote() bool {
	return b.env.Session.Authenticated()
}

// Load fetches the referendums, then every visible card's votes and tags
// concurrently, and only returns once all of them are in.
func (b *Browse) Load(scope *Scope) {
	b.begin()

	filter := apiclient.ReferendumFilter{Expand: "creator"}
	user, signedIn := b.env.Session.User()
	if b.MineOnly && signedIn {
		filter.UserID = user.ID
	}

	listing, err := b.env.api().ListReferendums(scope.Context(), filter)
	if err != nil {
		b.env.logger().Error("failed to fetch referendums", "error", err)
		b.fail(apiclient.Message(err, "Failed to load referendums."))
		return
	}

	cards := make([]Card, 0, len(listing.Items))
	for _, ref := range listing.Items {
		if matches(b.Search, ref.Title, ref.Description) {
			cards = append(cards, Card{Referendum: ref, Error: b.voteErrors[ref.ID]})
		}
	}

	g, ctx := errgroup.WithContext(scope.Context())
	g.SetLimit(maxCardFetches)
	for i := range cards {
		card := &cards[i]
		g.Go(func() error {
			votes := b.env.api().ListVotes(ctx, apiclient.VoteFilter{ReferendumID: card.Referendum.ID})
			card.For, card.Against = types.Tally(votes)
			if signedIn {
				card.HasVoted = types.HasVoted(votes, user.ID)
			}
			return nil
		})
		g.Go(func() error {
			tags, err := b.env.api().ReferendumTags(ctx, card.Referendum.ID)
			if err != nil {
				b.env.logger().Warn("failed to fetch tags", "referendum_id", card.Referendum.ID, "error", err)
				card.Tags = card.Referendum.Tags
				return nil
			}
			card.Tags = tags.Names()
			return nil
		})
	}
	_ = g.Wait()

	if scope.Closed() {
		return
	}
	b.Cards = cards
	b.ready()
}

// Vote casts the signed-in user's vote. On failure the reason is kept for
// the card and shown after the next Load; the has-voted hint is not
// touched.
func (b *Browse) Vote(scope *Scope, referendumID int, value bool) error {
	_, err := b.env.api().CastVote(scope.Context(), referendumID, value)
	if err != nil {
		b.env.logger().Info("vote rejected", "referendum_id", referendumID, "error", err)
		b.voteErrors[referendumID] = apiclient.Message(err, "Could not cast vote")
		return err
	}
	delete(b.voteErrors, referendumID)
	return nil
}

// Empty reports whether nothing matched.
func (b *Browse) Empty() bool {
	return b.Status == Ready && len(b.Cards) == 0
}

func creatorName(ref types.Referendum) string {
	if ref.Creator != nil && ref.Creator.Username != "" {
		return ref.Creator.Username
	}
	return fmt.Sprintf("User #%d", ref.CreatorID)
}

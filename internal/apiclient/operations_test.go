package apiclient_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/referenda/refclient/internal/apiclient"
	"github.com/referenda/refclient/internal/apitest"
	"github.com/referenda/refclient/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, api *apitest.Server, token string) *apiclient.Client {
	t.Helper()
	c, err := apiclient.New(apiclient.Options{BaseURL: api.URL, Timeout: 2 * time.Second})
	require.NoError(t, err)
	return c.WithTokenSource(apiclient.TokenFunc(func() string { return token }))
}

func TestIssueTokenAndMe(t *testing.T) {
	api := apitest.New(t)
	alice := api.AddUser("alice", "secret1", types.RoleUser)
	ctx := context.Background()

	token, err := newClient(t, api, "").IssueToken(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, token.AccessToken)
	assert.Equal(t, "bearer", token.TokenType)

	me, err := newClient(t, api, token.AccessToken).Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, alice, me)

	_, err = newClient(t, api, "").IssueToken(ctx, "alice", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Incorrect username or password", apiclient.Message(err, "Login failed"))

	_, err = newClient(t, api, "").Me(ctx)
	assert.ErrorIs(t, err, apiclient.ErrUnauthorized)
}

func TestReferendumOperations(t *testing.T) {
	api := apitest.New(t)
	alice := api.AddUser("alice", "secret1", types.RoleUser)
	bob := api.AddUser("bob", "secret2", types.RoleUser)
	c := newClient(t, api, api.TokenFor(alice.ID))
	ctx := context.Background()

	created, err := c.CreateReferendum(ctx, types.ReferendumCreate{Title: "Parks", Description: "More parks", CreatorID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, created.Status)
	api.AddReferendum(types.Referendum{Title: "Roads", CreatorID: bob.ID})

	all, err := c.ListReferendums(ctx, apiclient.ReferendumFilter{})
	require.NoError(t, err)
	assert.Equal(t, apiclient.ShapeList, all.Shape)
	assert.Len(t, all.Items, 2)

	mine, err := c.ListReferendums(ctx, apiclient.ReferendumFilter{UserID: alice.ID})
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, "Parks", mine.Items[0].Title)

	single, err := c.ListReferendums(ctx, apiclient.ReferendumFilter{ID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, apiclient.ShapeSingle, single.Shape)

	got, err := c.GetReferendum(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Creator)
	assert.Equal(t, "alice", got.Creator.Username)

	_, err = c.GetReferendum(ctx, 9999)
	assert.ErrorIs(t, err, apiclient.ErrNotFound)

	updated, err := c.UpdateReferendum(ctx, created.ID, types.ReferendumPatch{Status: types.StatusActive})
	require.NoError(t, err)
	assert.Equal(t, types.StatusActive, updated.Status)
	assert.Equal(t, "Parks", updated.Title)

	require.NoError(t, c.DeleteReferendum(ctx, created.ID))
	_, err = c.GetReferendum(ctx, created.ID)
	assert.ErrorIs(t, err, apiclient.ErrNotFound)

	err = c.DeleteReferendum(ctx, created.ID)
	assert.ErrorIs(t, err, apiclient.ErrNotFound)

	var sawExpand bool
	for _, call := range api.CallsTo("/referendums/") {
		if call.Query == "expand=creator&referendum_id="+itoa(created.ID) {
			sawExpand = true
		}
	}
	assert.True(t, sawExpand)
}

func TestVoteOperations(t *testing.T) {
	api := apitest.New(t)
	alice := api.AddUser("alice", "secret1", types.RoleUser)
	ref := api.AddReferendum(types.Referendum{Title: "Parks", CreatorID: alice.ID})
	c := newClient(t, api, api.TokenFor(alice.ID))
	ctx := context.Background()

	// Nobody voted yet: the server answers 404, the client an empty list.
	votes := c.ListVotes(ctx, apiclient.VoteFilter{ReferendumID: ref.ID})
	assert.NotNil(t, votes)
	assert.Empty(t, votes)

	vote, err := c.CastVote(ctx, ref.ID, true)
	require.NoError(t, err)
	assert.True(t, vote.Value)
	assert.Equal(t, alice.ID, vote.UserID)

	_, err = c.CastVote(ctx, ref.ID, false)
	require.Error(t, err)
	assert.Equal(t, "You have already voted on this referendum", apiclient.Message(err, "Could not cast vote"))

	votes = c.ListVotes(ctx, apiclient.VoteFilter{ReferendumID: ref.ID})
	require.Len(t, votes, 1)
	forCount, against := types.Tally(votes)
	assert.Equal(t, 1, forCount)
	assert.Equal(t, 0, against)

	api.FailVotes(ref.ID)
	assert.Empty(t, c.ListVotes(ctx, apiclient.VoteFilter{ReferendumID: ref.ID}))

	_, err = newClient(t, api, "").CastVote(ctx, ref.ID, true)
	assert.ErrorIs(t, err, apiclient.ErrUnauthorized)
}

func TestTagOperations(t *testing.T) {
	api := apitest.New(t)
	alice := api.AddUser("alice", "secret1", types.RoleAdmin)
	ref := api.AddReferendum(types.Referendum{Title: "Parks", CreatorID: alice.ID})
	c := newClient(t, api, api.TokenFor(alice.ID))
	ctx := context.Background()

	green, err := c.CreateTag(ctx, "green")
	require.NoError(t, err)
	city, err := c.CreateTag(ctx, "city")
	require.NoError(t, err)

	tags, err := c.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.Tag{green, city}, tags)

	require.NoError(t, c.AddTagToReferendum(ctx, ref.ID, green.ID))
	require.NoError(t, c.AddTagToReferendum(ctx, ref.ID, city.ID))

	attached, err := c.ReferendumTags(ctx, ref.ID)
	require.NoError(t, err)
	assert.Equal(t, ref.ID, attached.ReferendumID)
	assert.ElementsMatch(t, []string{"green", "city"}, attached.Names())

	err = c.DeleteTag(ctx, green.ID)
	require.Error(t, err)
	assert.Contains(t, apiclient.Message(err, ""), "being used")

	require.NoError(t, c.RemoveTagFromReferendum(ctx, ref.ID, green.ID))
	require.NoError(t, c.DeleteTag(ctx, green.ID))
	assert.Equal(t, []string{"city"}, api.TagNames(ref.ID))

	calls := api.CallsTo("/tags/referendum/")
	var sawDelete bool
	for _, call := range calls {
		if call.Method == "DELETE" {
			assert.Equal(t, "referendum_id="+itoa(ref.ID)+"&tag_id="+itoa(green.ID), call.Query)
			sawDelete = true
		}
	}
	assert.True(t, sawDelete)
}

func TestUserOperations(t *testing.T) {
	api := apitest.New(t)
	admin := api.AddUser("root", "secret1", types.RoleAdmin)
	c := newClient(t, api, api.TokenFor(admin.ID))
	ctx := context.Background()

	carol, err := c.CreateUser(ctx, types.UserCreate{Username: "carol", Email: "carol@example.com", Password: "hunter22", Role: types.RoleUser})
	require.NoError(t, err)

	_, err = c.CreateUser(ctx, types.UserCreate{Username: "carol", Email: "other@example.com", Password: "hunter22", Role: types.RoleUser})
	assert.Equal(t, "Username already registered", apiclient.Message(err, "Registration failed"))

	users, err := c.ListUsers(ctx, apiclient.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, users, 2)

	admins, err := c.ListUsers(ctx, apiclient.UserFilter{Role: types.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, []types.User{admin}, admins)

	got, err := c.GetUser(ctx, carol.ID)
	require.NoError(t, err)
	assert.Equal(t, carol, got)

	promoted, err := c.ToggleRole(ctx, carol)
	require.NoError(t, err)
	assert.Equal(t, types.RoleAdmin, promoted.Role)

	demoted, err := c.ToggleRole(ctx, promoted)
	require.NoError(t, err)
	assert.Equal(t, types.RoleUser, demoted.Role)

	renamed, err := c.UpdateUser(ctx, carol.ID, types.UserPatch{Username: "caroline"})
	require.NoError(t, err)
	assert.Equal(t, "caroline", renamed.Username)
	assert.Equal(t, "carol@example.com", renamed.Email)

	require.NoError(t, c.DeleteUser(ctx, carol.ID))
	_, err = c.GetUser(ctx, carol.ID)
	assert.ErrorIs(t, err, apiclient.ErrNotFound)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

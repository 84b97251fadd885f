package screens

import (
	"testing"
	"time"

	"github.com/referenda/refclient/internal/apitest"
	"github.com/referenda/refclient/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedBrowse(t *testing.T) (*apitest.Server, types.User, []types.Referendum) {
	t.Helper()
	api := apitest.New(t)
	alice := api.AddUser("alice", "secret1", types.RoleUser)
	bob := api.AddUser("bob", "secret2", types.RoleUser)

	refs := []types.Referendum{
		api.AddReferendum(types.Referendum{Title: "More parks", Description: "Green city", CreatorID: alice.ID}),
		api.AddReferendum(types.Referendum{Title: "Fix roads", Description: "Potholes", CreatorID: bob.ID}),
		api.AddReferendum(types.Referendum{Title: "Night buses", Description: "Transit", CreatorID: bob.ID}),
	}
	api.AddVote(refs[0].ID, alice.ID, true)
	api.AddVote(refs[0].ID, bob.ID, false)
	api.AddVote(refs[1].ID, bob.ID, true)
	tag := api.AddTag("city")
	api.Link(refs[0].ID, tag.ID)
	return api, alice, refs
}

func TestBrowse_LoadAnonymous(t *testing.T) {
	api, _, refs := seedBrowse(t)
	api.FailVotes(refs[1].ID)

	b := NewBrowse(newEnv(t, api, 0))
	assert.Equal(t, Idle, b.Status)
	b.Load(newScope(t))

	require.Equal(t, Ready, b.Status)
	require.Len(t, b.Cards, 3)
	assert.False(t, b.CanVote())

	assert.Equal(t, 1, b.Cards[0].For)
	assert.Equal(t, 1, b.Cards[0].Against)
	assert.Equal(t, []string{"city"}, b.Cards[0].Tags)
	assert.Equal(t, "alice", b.Cards[0].CreatorName())
	assert.False(t, b.Cards[0].HasVoted)

	// The failed vote fetch shows zero/zero and does not block the others.
	assert.Equal(t, 0, b.Cards[1].For)
	assert.Equal(t, 0, b.Cards[1].Against)

	assert.Equal(t, 0, b.Cards[2].For)
	assert.Empty(t, b.Cards[2].Tags)

	for _, call := range api.Calls() {
		assert.Empty(t, call.Auth)
	}
	assert.Len(t, api.CallsTo("/votes/"), 3)
}

func TestBrowse_SearchAndMine(t *testing.T) {
	api, alice, refs := seedBrowse(t)
	env := newEnv(t, api, alice.ID)

	b := NewBrowse(env)
	b.Search = "POTHOLE"
	b.Load(newScope(t))
	require.Len(t, b.Cards, 1)
	assert.Equal(t, refs[1].ID, b.Cards[0].Referendum.ID)
	assert.Len(t, api.CallsTo("/votes/"), 1, "votes are only fetched for visible cards")

	b = NewBrowse(env)
	b.MineOnly = true
	b.Load(newScope(t))
	require.Len(t, b.Cards, 1)
	assert.Equal(t, "More parks", b.Cards[0].Referendum.Title)
	assert.True(t, b.Cards[0].HasVoted)

	b = NewBrowse(env)
	b.Search = "nothing like this"
	b.Load(newScope(t))
	assert.True(t, b.Empty())
}

func TestBrowse_Vote(t *testing.T) {
	api, alice, refs := seedBrowse(t)
	b := NewBrowse(newEnv(t, api, alice.ID))
	scope := newScope(t)

	require.NoError(t, b.Vote(scope, refs[2].ID, true))
	b.Load(scope)
	assert.Equal(t, 1, b.Cards[2].For)
	assert.True(t, b.Cards[2].HasVoted)
	assert.Empty(t, b.Cards[2].Error)

	// Already voted: the server refuses and says why.
	err := b.Vote(scope, refs[0].ID, false)
	require.Error(t, err)
	b.Load(scope)
	assert.Equal(t, "You have already voted on this referendum", b.Cards[0].Error)
	assert.True(t, b.Cards[0].HasVoted)
	assert.Equal(t, 1, b.Cards[0].Against)
}

func TestBrowse_VoteFallbackMessage(t *testing.T) {
	api, alice, refs := seedBrowse(t)
	b := NewBrowse(newEnv(t, api, alice.ID))
	scope := newScope(t)
	api.Close()

	require.Error(t, b.Vote(scope, refs[2].ID, true))
	assert.Equal(t, "Could not cast vote", b.voteErrors[refs[2].ID])
}

func TestBrowse_CloseAbandonsLoad(t *testing.T) {
	api, _, _ := seedBrowse(t)
	api.SlowVotes(2 * time.Second)

	b := NewBrowse(newEnv(t, api, 0))
	scope := NewScope(t.Context())
	time.AfterFunc(100*time.Millisecond, scope.Close)

	start := time.Now()
	b.Load(scope)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, Loading, b.Status)
	assert.Nil(t, b.Cards)
}

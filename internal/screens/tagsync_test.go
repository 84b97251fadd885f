package screens

import (
	"testing"

	"github.com/referenda/refclient/internal/apitest"
	"github.com/referenda/refclient/internal/logger"
	"github.com/referenda/refclient/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{in: "", want: nil},
		{in: " , ,", want: nil},
		{in: "green", want: []string{"green"}},
		{in: " green , city,,transit ", want: []string{"green", "city", "transit"}},
		{in: "Green, green, GREEN, city", want: []string{"Green", "city"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTags(tt.in))
		})
	}
}

func TestReplaceTags(t *testing.T) {
	api := apitest.New(t)
	admin := api.AddUser("root", "secret1", types.RoleAdmin)
	ref := api.AddReferendum(types.Referendum{Title: "Parks", CreatorID: admin.ID})
	a := api.AddTag("A")
	b := api.AddTag("B")
	api.AddTag("c")
	api.Link(ref.ID, a.ID)
	api.Link(ref.ID, b.ID)
	env := newEnv(t, api, admin.ID)

	sync, err := ReplaceTags(newScope(t).Context(), env.api(), logger.Discard(), ref.ID, []string{"B", "C"})
	require.NoError(t, err)

	assert.Equal(t, []string{"B", "c"}, api.TagNames(ref.ID))
	assert.Equal(t, []string{"A"}, sync.Removed)
	assert.Equal(t, []string{"B"}, sync.Kept)
	assert.Equal(t, []string{"C"}, sync.Added)
	assert.Empty(t, sync.Skipped)
	assert.Len(t, api.Tags(), 3, "existing tag reused regardless of case")
}

func TestReplaceTags_CreatesMissingTag(t *testing.T) {
	api := apitest.New(t)
	admin := api.AddUser("root", "secret1", types.RoleAdmin)
	ref := api.AddReferendum(types.Referendum{Title: "Parks", CreatorID: admin.ID})
	env := newEnv(t, api, admin.ID)

	_, err := ReplaceTags(newScope(t).Context(), env.api(), logger.Discard(), ref.ID, []string{"fresh"})
	require.NoError(t, err)

	assert.Equal(t, []string{"fresh"}, api.TagNames(ref.ID))
	require.Len(t, api.Tags(), 1)
	assert.Equal(t, "fresh", api.Tags()[0].Name)
}

func TestReplaceTags_RemovalFailureContinues(t *testing.T) {
	api := apitest.New(t)
	admin := api.AddUser("root", "secret1", types.RoleAdmin)
	ref := api.AddReferendum(types.Referendum{Title: "Parks", CreatorID: admin.ID})
	a := api.AddTag("A")
	b := api.AddTag("B")
	d := api.AddTag("D")
	api.Link(ref.ID, a.ID)
	api.Link(ref.ID, b.ID)
	api.Link(ref.ID, d.ID)
	api.FailTagRemoval(a.ID)
	env := newEnv(t, api, admin.ID)

	sync, err := ReplaceTags(newScope(t).Context(), env.api(), logger.Discard(), ref.ID, []string{"B", "C"})
	require.NoError(t, err)

	require.Len(t, sync.Skipped, 1)
	assert.Contains(t, sync.Skipped[0].Error(), `"A"`)
	assert.Equal(t, []string{"D"}, sync.Removed)
	assert.Equal(t, []string{"C"}, sync.Added)
	assert.Equal(t, []string{"A", "B", "C"}, api.TagNames(ref.ID))
}

func TestReplaceTags_NoChangesSkipsTagList(t *testing.T) {
	api := apitest.New(t)
	admin := api.AddUser("root", "secret1", types.RoleAdmin)
	ref := api.AddReferendum(types.Referendum{Title: "Parks", CreatorID: admin.ID})
	a := api.AddTag("A")
	api.Link(ref.ID, a.ID)
	env := newEnv(t, api, admin.ID)

	sync, err := ReplaceTags(newScope(t).Context(), env.api(), logger.Discard(), ref.ID, []string{"a"})
	require.NoError(t, err)

	assert.Equal(t, []string{"A"}, sync.Kept)
	for _, call := range api.Calls() {
		assert.NotEqual(t, "GET /tags/", call.String())
	}
}

package screens

import (
	"testing"

	"github.com/referenda/refclient/internal/apitest"
	"github.com/referenda/refclient/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReferendum_Submit(t *testing.T) {
	api := apitest.New(t)
	alice := api.AddUser("alice", "secret1", types.RoleUser)
	api.AddTag("Green")

	c := NewCreateReferendum(newEnv(t, api, alice.ID))
	c.Title = "  More parks "
	c.Description = "Plant trees"
	c.Tags = "green, transit"
	path := c.Submit(newScope(t))

	require.Equal(t, "/referendums", path, c.Error)
	refs := api.CallsTo("/referendums/")
	require.Len(t, refs, 1)

	all := api.Referendums()
	require.Len(t, all, 1)
	created := all[0]
	assert.Equal(t, "More parks", created.Title)
	assert.Equal(t, alice.ID, created.CreatorID)
	assert.Equal(t, []string{"Green", "transit"}, api.TagNames(created.ID))
}

func TestCreateReferendum_Validation(t *testing.T) {
	api := apitest.New(t)
	alice := api.AddUser("alice", "secret1", types.RoleUser)

	c := NewCreateReferendum(newEnv(t, api, alice.ID))
	c.Title = "   "
	c.Description = "x"
	assert.Empty(t, c.Submit(newScope(t)))
	assert.Equal(t, "title is required", c.Error)
	assert.Empty(t, api.CallsTo("/referendums/"))
}

func TestCreateReferendum_SignedOut(t *testing.T) {
	api := apitest.New(t)

	c := NewCreateReferendum(newEnv(t, api, 0))
	c.Title, c.Description = "t", "d"
	assert.Empty(t, c.Submit(newScope(t)))
	assert.Equal(t, Failed, c.Status)
	assert.Empty(t, api.Calls())
}

func TestEditReferendum_LoadAndSubmit(t *testing.T) {
	api := apitest.New(t)
	admin := api.AddUser("root", "secret1", types.RoleAdmin)
	start, err := types.ParseTimestamp("2026-03-01T10:00:00")
	require.NoError(t, err)
	ref := api.AddReferendum(types.Referendum{
		Title:       "Parks",
		Description: "More parks",
		CreatorID:   admin.ID,
		StartDate:   &start,
	})
	a := api.AddTag("A")
	b := api.AddTag("B")
	api.Link(ref.ID, a.ID)
	api.Link(ref.ID, b.ID)
	env := newEnv(t, api, admin.ID)
	scope := newScope(t)

	e := NewEditReferendum(env, ref.ID)
	e.Load(scope)
	require.Equal(t, Ready, e.Status, e.Error)
	assert.Equal(t, "Parks", e.Title)
	assert.Equal(t, "2026-03-01", e.StartDate)
	assert.Empty(t, e.EndDate)
	assert.Equal(t, types.StatusPending, e.ReferendumStatus)
	assert.Equal(t, "A, B", e.Tags)

	e.Title = "Parks and trees"
	e.ReferendumStatus = types.StatusActive
	e.EndDate = "2026-04-01"
	e.Tags = "B, C"
	path := e.Submit(scope)
	require.Equal(t, "/moderate", path, e.Error)

	updated, ok := api.Referendum(ref.ID)
	require.True(t, ok)
	assert.Equal(t, "Parks and trees", updated.Title)
	assert.Equal(t, types.StatusActive, updated.Status)
	assert.Equal(t, "2026-04-01", updated.EndDate.DateOnly())
	assert.Equal(t, []string{"B", "C"}, api.TagNames(ref.ID))
	assert.Equal(t, []string{"A"}, e.Sync.Removed)
}

func TestEditReferendum_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(e *EditReferendum)
		error string
	}{
		{name: "bad status", edit: func(e *EditReferendum) { e.ReferendumStatus = "archived" }, error: "status must be one of: pending active closed cancelled"},
		{name: "bad date", edit: func(e *EditReferendum) { e.StartDate = "01/03/2026" }, error: "start date must be a date like 2006-01-02"},
		{name: "end before start", edit: func(e *EditReferendum) { e.StartDate, e.EndDate = "2026-05-01", "2026-04-01" }, error: "End date must not be before start date."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := apitest.New(t)
			admin := api.AddUser("root", "secret1", types.RoleAdmin)
			ref := api.AddReferendum(types.Referendum{Title: "Parks", Description: "d", CreatorID: admin.ID})

			e := NewEditReferendum(newEnv(t, api, admin.ID), ref.ID)
			e.Title, e.Description, e.ReferendumStatus = "Parks", "d", types.StatusPending
			tt.edit(e)

			assert.Empty(t, e.Submit(newScope(t)))
			assert.Equal(t, tt.error, e.Error)
			for _, call := range api.Calls() {
				assert.NotEqual(t, "PATCH", call.Method)
			}
		})
	}
}

func TestEditReferendum_NotFound(t *testing.T) {
	api := apitest.New(t)
	admin := api.AddUser("root", "secret1", types.RoleAdmin)

	e := NewEditReferendum(newEnv(t, api, admin.ID), 404)
	e.Load(newScope(t))

	assert.Equal(t, Failed, e.Status)
	assert.Equal(t, "We couldn't find referendum.", e.Error)
}

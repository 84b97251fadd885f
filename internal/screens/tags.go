package screens

import (
	"strings"

	"github.com/referenda/refclient/internal/apiclient"
	"github.com/referenda/refclient/types"
)

// Tags is the admin list of tags.
type Tags struct {
	State
	env Env

	Search  string
	NewName string
	Tags    []types.Tag
}

// NewTags builds the tag management screen.
func NewTags(env Env) *Tags {
	return &Tags{env: env}
}

// Load fetches all tags and applies the search filter.
func (t *Tags) Load(scope *Scope) {
	t.begin()

	tags, err := t.env.api().ListTags(scope.Context())
	if err != nil {
		t.env.logger().Error("failed to fetch tags", "error", err)
		t.fail("Failed to load tags list.")
		return
	}

	t.Tags = t.Tags[:0]
	for _, tag := range tags {
		if matches(t.Search, tag.Name) {
			t.Tags = append(t.Tags, tag)
		}
	}
	t.ready()
}

// Create adds a tag named NewName.
func (t *Tags) Create(scope *Scope) bool {
	name := strings.TrimSpace(t.NewName)
	if name == "" {
		t.Error = "Tag name cannot be empty"
		return false
	}
	if _, err := t.env.api().CreateTag(scope.Context(), name); err != nil {
		t.env.logger().Error("failed to create tag", "name", name, "error", err)
		t.Error = apiclient.Message(err, "An error occurred while creating the tag.")
		return false
	}
	t.NewName = ""
	return true
}

// Delete removes a tag. The server refuses tags still in use.
func (t *Tags) Delete(scope *Scope, id int) bool {
	if err := t.env.api().DeleteTag(scope.Context(), id); err != nil {
		t.env.logger().Error("failed to delete tag", "tag_id", id, "error", err)
		t.Error = apiclient.Message(err, "An error occurred while deleting the tag.")
		return false
	}
	return true
}

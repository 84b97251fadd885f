package screens

import (
	"github.com/referenda/refclient/internal/apiclient"
	"github.com/referenda/refclient/types"
)

// Moderate is the admin list of all referendums.
type Moderate struct {
	State
	env Env

	Search       string
	StatusFilter string

	Referendums []types.Referendum
}

// NewModerate builds the moderation screen.
func NewModerate(env Env) *Moderate {
	return &Moderate{env: env}
}

// Statuses lists the choices of the status filter.
func (m *Moderate) Statuses() []string {
	return types.Statuses
}

// CreatorName is the creator's username, or a placeholder from the id.
func (m *Moderate) CreatorName(ref types.Referendum) string {
	return creatorName(ref)
}

// Load fetches every referendum and applies the search and status filters.
func (m *Moderate) Load(scope *Scope) {
	m.begin()

	listing, err := m.env.api().ListReferendums(scope.Context(), apiclient.ReferendumFilter{Expand: "creator"})
	if err != nil {
		m.env.logger().Error("failed to fetch referendums", "error", err)
		m.fail("Failed to load referendums.")
		return
	}

	m.Referendums = m.Referendums[:0]
	for _, ref := range listing.Items {
		if !matches(m.Search, ref.Title, ref.Description) {
			continue
		}
		if m.StatusFilter != "" && ref.Status != m.StatusFilter {
			continue
		}
		m.Referendums = append(m.Referendums, ref)
	}
	m.ready()
}

// Delete removes a referendum. On failure Error is set and false returned.
func (m *Moderate) Delete(scope *Scope, id int) bool {
	if err := m.env.api().DeleteReferendum(scope.Context(), id); err != nil {
		m.env.logger().Error("failed to delete referendum", "referendum_id", id, "error", err)
		m.Error = apiclient.Message(err, "An error occurred while deleting.")
		return false
	}
	m.env.logger().Info("referendum deleted", "referendum_id", id)
	return true
}

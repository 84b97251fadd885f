package types

// Referendum lifecycle states.
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusClosed    = "closed"
	StatusCancelled = "cancelled"
)

// Statuses lists every referendum status in display order.
var Statuses = []string{StatusPending, StatusActive, StatusClosed, StatusCancelled}

// Referendum represents a votable proposal with a lifecycle status and an
// optional voting window.
type Referendum struct {
	// ID is the unique identifier of the referendum.
	ID int `json:"id"`

	// Title is the human-readable name of the referendum.
	Title string `json:"title"`

	// Description contains the full text of the proposal.
	Description string `json:"description"`

	// CreatorID references the user that created the referendum.
	CreatorID int `json:"creator_id"`

	// Creator is populated only when the list call asks for
	// expand=creator and the server honours it.
	Creator *Creator `json:"creator,omitempty"`

	// Status is one of pending, active, closed or cancelled.
	Status string `json:"status"`

	// StartDate opens the voting window. Nil when not scheduled.
	StartDate *Timestamp `json:"start_date,omitempty"`

	// EndDate closes the voting window. Nil when not scheduled.
	EndDate *Timestamp `json:"end_date,omitempty"`

	// Tags holds tag names. The API does not embed them; the client fills
	// this field from /tags/referendum/{id} when a screen needs them.
	Tags []string `json:"tags,omitempty"`
}

// Creator is the expanded creator reference of a referendum.
type Creator struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// ReferendumCreate is the payload for POST /referendums/.
type ReferendumCreate struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatorID   int    `json:"creator_id"`
}

// ReferendumPatch is the payload for PATCH /referendums/.
type ReferendumPatch struct {
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status,omitempty"`
	StartDate   *Timestamp `json:"start_date,omitempty"`
	EndDate     *Timestamp `json:"end_date,omitempty"`
}

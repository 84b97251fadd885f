package screens

import (
	"errors"
	"strings"

	"github.com/referenda/refclient/internal/apiclient"
	"github.com/referenda/refclient/types"
)

// CreateReferendum is the form for proposing a referendum.
type CreateReferendum struct {
	State
	env Env

	Title       string `form:"title" validate:"required"`
	Description string `form:"description" validate:"required"`
	Tags        string `form:"tags"`
}

// NewCreateReferendum builds the create form.
func NewCreateReferendum(env Env) *CreateReferendum {
	c := &CreateReferendum{env: env}
	c.ready()
	return c
}

// Submit creates the referendum owned by the signed-in user and attaches
// its tags. Tag failures after the referendum exists are logged; the
// referendum is not rolled back.
func (c *CreateReferendum) Submit(scope *Scope) string {
	c.Title = strings.TrimSpace(c.Title)
	c.Description = strings.TrimSpace(c.Description)
	if err := validate.Validate(c); err != nil {
		c.fail(validationMessage(err))
		return ""
	}

	user, ok := c.env.Session.User()
	if !ok {
		c.fail("You must be logged in to create a referendum.")
		return ""
	}

	c.begin()
	created, err := c.env.api().CreateReferendum(scope.Context(), types.ReferendumCreate{
		Title:       c.Title,
		Description: c.Description,
		CreatorID:   user.ID,
	})
	if err != nil {
		c.fail(apiclient.Message(err, "Creating referendum failed."))
		return ""
	}

	if names := ParseTags(c.Tags); len(names) > 0 {
		if _, err := ReplaceTags(scope.Context(), c.env.api(), c.env.logger(), created.ID, names); err != nil {
			c.env.logger().Warn("referendum created without all tags", "referendum_id", created.ID, "error", err)
		}
	}

	c.ready()
	return "/referendums"
}

// EditReferendum is the admin form for changing a referendum.
type EditReferendum struct {
	State
	env Env

	ID          int
	Title       string `form:"title" validate:"required"`
	Description string `form:"description" validate:"required"`
	StartDate   string `form:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate     string `form:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Tags        string `form:"tags"`

	// ReferendumStatus is the status field; State.Status is the screen's own.
	ReferendumStatus string `form:"status" validate:"required,oneof=pending active closed cancelled"`

	// Sync is what the last submit did to the tag set.
	Sync TagSync
}

// NewEditReferendum builds the edit form for referendum id.
func NewEditReferendum(env Env, id int) *EditReferendum {
	return &EditReferendum{env: env, ID: id, ReferendumStatus: types.StatusPending}
}

// Statuses lists the choices of the status field.
func (e *EditReferendum) Statuses() []string {
	return types.Statuses
}

// Load fills the form from the referendum and its current tags.
func (e *EditReferendum) Load(scope *Scope) {
	e.begin()

	ref, err := e.env.api().GetReferendum(scope.Context(), e.ID)
	if err != nil {
		if errors.Is(err, apiclient.ErrNotFound) {
			e.fail("We couldn't find referendum.")
			return
		}
		e.env.logger().Error("failed to load referendum", "referendum_id", e.ID, "error", err)
		e.fail("Failed loading data of referendum.")
		return
	}

	tags, err := e.env.api().ReferendumTags(scope.Context(), e.ID)
	if err != nil {
		e.env.logger().Error("failed to load referendum tags", "referendum_id", e.ID, "error", err)
		e.fail("Failed loading data of referendum.")
		return
	}

	e.Title = ref.Title
	e.Description = ref.Description
	e.StartDate = ref.StartDate.DateOnly()
	e.EndDate = ref.EndDate.DateOnly()
	if ref.Status != "" {
		e.ReferendumStatus = ref.Status
	}
	e.Tags = strings.Join(tags.Names(), ", ")
	e.ready()
}

// Submit saves the fields, then replaces the tag set exactly.
func (e *EditReferendum) Submit(scope *Scope) string {
	e.Title = strings.TrimSpace(e.Title)
	e.Description = strings.TrimSpace(e.Description)
	e.StartDate = strings.TrimSpace(e.StartDate)
	e.EndDate = strings.TrimSpace(e.EndDate)
	if err := validate.Validate(e); err != nil {
		e.fail(validationMessage(err))
		return ""
	}

	patch := types.ReferendumPatch{
		Title:       e.Title,
		Description: e.Description,
		Status:      e.ReferendumStatus,
	}
	if e.StartDate != "" {
		ts, err := types.ParseTimestamp(e.StartDate)
		if err != nil {
			e.fail("start date " + err.Error())
			return ""
		}
		patch.StartDate = &ts
	}
	if e.EndDate != "" {
		ts, err := types.ParseTimestamp(e.EndDate)
		if err != nil {
			e.fail("end date " + err.Error())
			return ""
		}
		patch.EndDate = &ts
	}
	if patch.StartDate != nil && patch.EndDate != nil && patch.EndDate.Before(patch.StartDate.Time) {
		e.fail("End date must not be before start date.")
		return ""
	}

	e.begin()
	if _, err := e.env.api().UpdateReferendum(scope.Context(), e.ID, patch); err != nil {
		e.env.logger().Error("failed to update referendum", "referendum_id", e.ID, "error", err)
		e.fail(apiclient.Message(err, "Updating referendum failed."))
		return ""
	}

	sync, err := ReplaceTags(scope.Context(), e.env.api(), e.env.logger(), e.ID, ParseTags(e.Tags))
	e.Sync = sync
	if err != nil {
		e.env.logger().Error("failed to update referendum tags", "referendum_id", e.ID, "error", err)
		e.fail(apiclient.Message(err, "Updating referendum failed."))
		return ""
	}

	e.ready()
	return "/moderate"
}

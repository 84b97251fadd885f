package screens

import (
	"errors"
	"strings"

	"github.com/referenda/refclient/internal/apiclient"
	"github.com/referenda/refclient/types"
)

// Users is the admin list of accounts.
type Users struct {
	State
	env Env

	Search string
	Users  []types.User
}

// NewUsers builds the user management screen.
func NewUsers(env Env) *Users {
	return &Users{env: env}
}

// Load fetches all users and applies the search filter.
func (u *Users) Load(scope *Scope) {
	u.begin()

	users, err := u.env.api().ListUsers(scope.Context(), apiclient.UserFilter{})
	if err != nil {
		u.env.logger().Error("failed to fetch users", "error", err)
		u.fail("Failed to load user list.")
		return
	}

	u.Users = u.Users[:0]
	for _, user := range users {
		if matches(u.Search, user.Username, user.Email) {
			u.Users = append(u.Users, user)
		}
	}
	u.ready()
}

// Delete removes an account.
func (u *Users) Delete(scope *Scope, id int) bool {
	if err := u.env.api().DeleteUser(scope.Context(), id); err != nil {
		u.env.logger().Error("failed to delete user", "user_id", id, "error", err)
		u.Error = apiclient.Message(err, "An error occurred while deleting the user.")
		return false
	}
	return true
}

// ToggleRole switches an account between admin and user, computing the new
// role from the account as currently stored.
func (u *Users) ToggleRole(scope *Scope, id int) bool {
	user, err := u.env.api().GetUser(scope.Context(), id)
	if err == nil {
		_, err = u.env.api().ToggleRole(scope.Context(), user)
	}
	if err != nil {
		u.env.logger().Error("failed to update user role", "user_id", id, "error", err)
		u.Error = apiclient.Message(err, "An error occurred while updating the user role.")
		return false
	}
	return true
}

// ToggleLabel is the caption of the role button for user.
func (u *Users) ToggleLabel(user types.User) string {
	if user.IsAdmin() {
		return "Make User"
	}
	return "Make Admin"
}

// EditUser is the admin form for an account.
type EditUser struct {
	State
	env Env

	ID       int
	Username string `form:"username" validate:"required"`
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"omitempty,min=6"`
}

// NewEditUser builds the edit form for user id.
func NewEditUser(env Env, id int) *EditUser {
	return &EditUser{env: env, ID: id}
}

// Load fills the form. The password field always starts empty.
func (e *EditUser) Load(scope *Scope) {
	e.begin()

	user, err := e.env.api().GetUser(scope.Context(), e.ID)
	if err != nil {
		e.env.logger().Error("failed to fetch user", "user_id", e.ID, "error", err)
		if errors.Is(err, apiclient.ErrNotFound) {
			e.fail("User not found.")
		} else {
			e.fail("Failed to load user.")
		}
		return
	}

	e.Username = user.Username
	e.Email = user.Email
	e.Password = ""
	e.ready()
}

// Submit saves the account. An empty password is left unchanged.
func (e *EditUser) Submit(scope *Scope) string {
	e.Username = strings.TrimSpace(e.Username)
	e.Email = strings.TrimSpace(e.Email)
	if err := validate.Validate(e); err != nil {
		e.fail(validationMessage(err))
		return ""
	}

	e.begin()
	_, err := e.env.api().UpdateUser(scope.Context(), e.ID, types.UserPatch{
		Username: e.Username,
		Email:    e.Email,
		Password: e.Password,
	})
	e.Password = ""
	if err != nil {
		e.env.logger().Error("failed to update user", "user_id", e.ID, "error", err)
		e.fail(apiclient.Message(err, "Failed to update user."))
		return ""
	}
	e.ready()
	return "/users"
}

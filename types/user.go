package types

import "strings"

// Role names understood by the remote API.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account as returned by the referendum API.
// It contains identity and authorization level only; credentials never
// leave the server except for the hashed_password field, which is ignored.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username"`

	// Email is the user's email address.
	Email string `json:"email"`

	// Role indicates the user's authorization level
	// within the system ("admin" or "user").
	Role string `json:"role"`
}

// IsAdmin reports whether the user carries the admin role.
func (u User) IsAdmin() bool {
	return strings.EqualFold(u.Role, RoleAdmin)
}

// InvertedRole returns the role a role toggle switches the user to.
func (u User) InvertedRole() string {
	if u.IsAdmin() {
		return RoleUser
	}
	return RoleAdmin
}

// UserCreate is the registration payload for POST /users/.
type UserCreate struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UserPatch is a partial update for PATCH /users/. Empty fields are omitted
// so the server leaves them untouched.
type UserPatch struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Token is the response of the token-issuing endpoint.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

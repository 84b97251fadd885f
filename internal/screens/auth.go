package screens

import (
	"errors"
	"net/url"
	"strings"

	"github.com/referenda/refclient/internal/apiclient"
	"github.com/referenda/refclient/internal/validation"
	"github.com/referenda/refclient/types"
)

var validate = validation.New()

// Login signs a user in.
type Login struct {
	State
	env Env

	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// NewLogin builds the login screen. registered is the username of an
// account that was just created, if any.
func NewLogin(env Env, registered string) *Login {
	l := &Login{env: env}
	if registered != "" {
		l.Username = registered
		l.Notice = "Registration successful. You can now log in as " + registered + "."
	}
	l.ready()
	return l
}

// Submit logs in and returns where to go next, or "" to stay with Error set.
func (l *Login) Submit(scope *Scope) string {
	l.Username = strings.TrimSpace(l.Username)
	if err := validate.Validate(l); err != nil {
		l.fail(validationMessage(err))
		return ""
	}

	l.begin()
	err := l.env.Session.Login(scope.Context(), l.Username, l.Password)
	l.Password = ""
	if err != nil {
		l.env.logger().Info("login failed", "username", l.Username, "error", err)
		l.fail(apiclient.Message(err, "Login failed"))
		return ""
	}
	l.ready()
	return "/"
}

// Register creates an account.
type Register struct {
	State
	env Env

	Username        string `form:"username" validate:"required"`
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"required,min=6"`
	ConfirmPassword string `form:"confirm_password" validate:"eqfield=Password"`
}

// NewRegister builds the registration screen.
func NewRegister(env Env) *Register {
	r := &Register{env: env}
	r.ready()
	return r
}

// Submit registers the account and returns the login screen path on
// success, or "" to stay with Error set.
func (r *Register) Submit(scope *Scope) string {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)

	if err := validate.Validate(r); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) && verr.Has("confirm_password", "eqfield") {
			r.fail("Passwords don't match")
		} else {
			r.fail(validationMessage(err))
		}
		return ""
	}

	r.begin()
	user, err := r.env.api().CreateUser(scope.Context(), types.UserCreate{
		Username: r.Username,
		Email:    r.Email,
		Password: r.Password,
		Role:     types.RoleUser,
	})
	r.Password, r.ConfirmPassword = "", ""
	if err != nil {
		r.fail(apiclient.Message(err, "Registration failed"))
		return ""
	}
	r.ready()
	return "/login?registered=" + url.QueryEscape(user.Username)
}

func validationMessage(err error) string {
	var verr *validation.Error
	if !errors.As(err, &verr) || len(verr.Fields) == 0 {
		return err.Error()
	}
	f := verr.Fields[0]
	return strings.ReplaceAll(f.Field, "_", " ") + " " + f.Message
}

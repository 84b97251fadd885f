package screens

// Home greets the visitor.
type Home struct {
	State
	Username string
	SignedIn bool
}

// NewHome builds the home screen. It needs no data beyond the session.
func NewHome(env Env) *Home {
	h := &Home{}
	if u, ok := env.Session.User(); ok {
		h.Username = u.Username
		h.SignedIn = true
	}
	h.ready()
	return h
}

// Greeting is the page heading.
func (h *Home) Greeting() string {
	if h.SignedIn {
		return "Welcome, " + h.Username + "!"
	}
	return "Welcome to Referendum App"
}

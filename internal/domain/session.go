package domain

// Session is the authenticated identity held by the client.
// Token and User are only meaningful together.
type Session struct {
	Token string
	User  User
}

// Valid reports whether both halves of the session are present.
func (s Session) Valid() bool {
	return s.Token != "" && s.User.ID != ""
}

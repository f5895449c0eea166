package nav

// Session is the part of the user session the panel reads.
type Session struct {
	Username string
	Token    string
}

func (s Session) Authenticated() bool {
	return s.Token != ""
}

package nav

type RegistrationMode string

const (
	RegistrationOpen   RegistrationMode = "open"
	RegistrationInvite RegistrationMode = "invite"
	RegistrationClosed RegistrationMode = "closed"
)

func (m RegistrationMode) AllowsRegistration() bool {
	return m == RegistrationOpen || m == RegistrationInvite
}

const (
	PoweredByLabel = "■ sqtracker"
	PoweredByURL   = "https://github.com/tdjsnelling/sqtracker"
)

// Theme holds the color and size tokens used by the panel markup.
type Theme struct {
	Primary   string
	Text      string
	Border    string
	Sidebar   string
	Grey      string
	BodyWidth string
}

func DefaultTheme() Theme {
	return Theme{
		Primary:   "#f45d48",
		Text:      "#202020",
		Border:    "#deddd8",
		Sidebar:   "#f8f8f6",
		Grey:      "#747474",
		BodyWidth: "1000px",
	}
}

// Site groups the server supplied values the panel depends on. They are
// immutable for the lifetime of a panel.
type Site struct {
	Name          string
	AllowRegister RegistrationMode
	Version       string
	Categories    []string
	Theme         Theme
}

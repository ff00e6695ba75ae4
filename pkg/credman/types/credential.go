// Package types holds the records handed to an import sink that do not
// belong to a single decoder package.
package types

import "fmt"

// Kind says where a Credential came from.
type Kind int

const (
	// KindForm is a saved web form.
	KindForm Kind = iota + 1
	// KindLogin is a saved HTTP authentication or FTP login.
	KindLogin
)

func (k Kind) String() string {
	switch k {
	case KindForm:
		return "form"
	case KindLogin:
		return "login"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Credential is one recovered login. Password is SENSITIVE and is redacted
// by String so it never ends up in log output by accident.
type Credential struct {
	Kind      Kind
	Profile   string
	URL       string
	ActionURL string

	UsernameField string
	Username      string
	PasswordField string
	Password      string
}

func (c Credential) String() string {
	pw := ""
	if c.Password != "" {
		pw = "<redacted>"
	}
	return fmt.Sprintf("%s %s user=%q password=%s", c.Kind, c.URL, c.Username, pw)
}

// HasPassword reports whether a password was recovered.
func (c Credential) HasPassword() bool {
	return c.Password != ""
}

package wand

import "github.com/warpdl/prestoimport/pkg/credman/types"

// Credentials flattens every saved form and login in v into import records.
// A form becomes one credential: the first changed text field is taken as
// the username (falling back to the first text field) and the first password
// field as the password. Forms without any password field are skipped.
func Credentials(v *Vault) []types.Credential {
	var out []types.Credential
	for _, p := range v.Profiles {
		out = appendForms(out, p)
	}
	out = appendForms(out, v.LogProfile)
	for _, l := range v.Logins {
		out = append(out, types.Credential{
			Kind:     types.KindLogin,
			URL:      l.URL,
			Username: l.Username,
			Password: l.Password,
		})
	}
	return out
}

func appendForms(out []types.Credential, p Profile) []types.Credential {
	for _, pg := range p.Pages {
		c, ok := formCredential(pg)
		if !ok {
			continue
		}
		c.Profile = p.Name
		out = append(out, c)
	}
	return out
}

func formCredential(pg Page) (types.Credential, bool) {
	c := types.Credential{Kind: types.KindForm, URL: pg.URL, ActionURL: pg.ActionURL}
	var user, firstText *Object
	havePassword := false
	for i := range pg.Objects {
		o := &pg.Objects[i]
		switch {
		case o.Password:
			if !havePassword {
				c.PasswordField, c.Password = o.Name, o.Value
				havePassword = true
			}
		case firstText == nil:
			firstText = o
			fallthrough
		default:
			if user == nil && o.Changed {
				user = o
			}
		}
	}
	if !havePassword {
		return c, false
	}
	if user == nil {
		user = firstText
	}
	if user != nil {
		c.UsernameField, c.Username = user.Name, user.Value
	}
	if c.URL == "" {
		c.URL = pg.TopDocURL
	}
	return c, true
}

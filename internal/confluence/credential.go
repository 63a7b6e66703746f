package confluence

import (
	"net/http"
	"strings"
)

// Credential authenticates outgoing requests. The set of implementations is
// closed: Basic and Bearer.
type Credential interface {
	// Apply sets the authorization on req.
	Apply(req *http.Request)
	// Kind names the mechanism for logs ("basic" or "bearer").
	Kind() string
	sealed()
}

// Basic is HTTP basic authentication.
type Basic struct {
	Username string
	Password string
}

func (b Basic) Apply(req *http.Request) { req.SetBasicAuth(b.Username, b.Password) }
func (Basic) Kind() string               { return "basic" }
func (Basic) sealed()                    {}

// Bearer is a personal access token sent as a bearer authorization header.
type Bearer struct {
	Token string
}

func (b Bearer) Apply(req *http.Request) { req.Header.Set("Authorization", "Bearer "+b.Token) }
func (Bearer) Kind() string               { return "bearer" }
func (Bearer) sealed()                    {}

// SelectCredential applies the precedence rule: a non-empty token wins,
// otherwise username and password are used. It returns nil when neither is
// usable.
func SelectCredential(username, password, token string) Credential {
	if token = strings.TrimSpace(token); token != "" {
		return Bearer{Token: token}
	}
	if strings.TrimSpace(username) == "" {
		return nil
	}
	return Basic{Username: username, Password: password}
}

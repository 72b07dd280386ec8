package flowcanvas

import "github.com/randalmurphal/flowcanvas/pkg/flowcanvas/catalog"

// Session is the read-only session and catalog provider the editor is built
// with. The editor never mutates it.
type Session interface {
	// Token is the credential forwarded to the persistence collaborator.
	Token() string

	// Catalog is the node catalog for the palette. Empty until loaded.
	Catalog() *catalog.Catalog
}

// StaticSession is a Session with a fixed token.
type StaticSession struct {
	token    string
	provider *catalog.Provider
}

// NewSession creates a session. provider may be nil for an empty catalog.
func NewSession(token string, provider *catalog.Provider) *StaticSession {
	return &StaticSession{token: token, provider: provider}
}

// Token implements Session.
func (s *StaticSession) Token() string {
	return s.token
}

// Catalog implements Session.
func (s *StaticSession) Catalog() *catalog.Catalog {
	if s.provider == nil {
		return catalog.Empty()
	}
	return s.provider.Catalog()
}

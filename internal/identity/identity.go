// Package identity resolves the user who owns a session. Session creation is
// gated on a resolved identity; everything after that runs on behalf of the
// session, not the user.
package identity

import (
	"context"
	"errors"
)

// ErrNoIdentity is returned when no user identity can be resolved.
var ErrNoIdentity = errors.New("identity: no authenticated user")

// Identity is a resolved user.
type Identity struct {
	// ID is the stable user identifier sessions are keyed on.
	ID string

	// DisplayName is informational and may be empty.
	DisplayName string
}

// Provider resolves the current user.
type Provider interface {
	// CurrentUser returns the identity owning new sessions, or
	// ErrNoIdentity when nobody is signed in.
	CurrentUser(ctx context.Context) (Identity, error)
}

// Static is a Provider that always returns one configured identity. An empty
// ID means nobody is signed in.
type Static struct {
	Identity Identity
}

// CurrentUser implements Provider.
func (s Static) CurrentUser(context.Context) (Identity, error) {
	if s.Identity.ID == "" {
		return Identity{}, ErrNoIdentity
	}
	return s.Identity, nil
}

// Compile-time interface check.
var _ Provider = Static{}

// Package rbac guards commands by the signed-in role. The backend is the
// authority; these checks only spare a round trip that would be refused.
package rbac

import "errors"

var (
	ErrSignedOut     = errors.New("rbac: not signed in")
	ErrForbidden     = errors.New("rbac: insufficient permission")
	ErrAuthenticated = errors.New("rbac: already signed in")
)

// Subject is whoever is signed in.
type Subject interface {
	Email() string
	Role() string
}

// HasRole allows a signed-in subject holding one of roles. With no roles
// any signed-in subject passes.
func HasRole(s Subject, roles ...string) error {
	if s.Email() == "" {
		return ErrSignedOut
	}
	if len(roles) == 0 {
		return nil
	}
	have := s.Role()
	for _, r := range roles {
		if r == have {
			return nil
		}
	}
	return ErrForbidden
}

// Guest allows only a signed-out subject.
func Guest(s Subject) error {
	if s.Email() != "" {
		return ErrAuthenticated
	}
	return nil
}

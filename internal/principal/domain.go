// Package principal resolves verified identities into full principals
// from the user store.
package principal

import (
	"errors"

	"github.com/atelier-works/atelier/internal/authz"
)

// Principal is the authenticated actor: identity plus role and
// role-specific attributes. It is immutable for the lifetime of a
// request; the attributes are opaque to the authorization core.
type Principal struct {
	ID         int64             `json:"id"`
	Email      string            `json:"email"`
	Name       string            `json:"name"`
	Role       authz.Role        `json:"role"`
	Attributes map[string]string `json:"attributes"`
}

// ErrNotFound indicates the identity no longer exists in the user
// store, e.g. the account was deleted or deactivated after the token
// was issued. Treated as unauthenticated, never as a server error.
var ErrNotFound = errors.New("principal: not found")

// ErrTimeout indicates the user-store read exceeded its deadline.
var ErrTimeout = errors.New("principal: lookup timed out")

// Clone returns an independent copy so shared lookup results can be
// handed to concurrent requests without aliasing the attributes map.
func (p *Principal) Clone() *Principal {
	if p == nil {
		return nil
	}
	out := *p
	if p.Attributes != nil {
		out.Attributes = make(map[string]string, len(p.Attributes))
		for k, v := range p.Attributes {
			out.Attributes[k] = v
		}
	}
	return &out
}

package gate

import (
	"context"

	"github.com/atelier-works/atelier/internal/principal"
)

type principalContextKey struct{}

// ContextWithPrincipal stores the resolved principal in context for
// the downstream handler's own use (ownership checks and the like).
func ContextWithPrincipal(ctx context.Context, p *principal.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context. Returns
// nil when the request never passed the authentication step.
func PrincipalFromContext(ctx context.Context) *principal.Principal {
	p, _ := ctx.Value(principalContextKey{}).(*principal.Principal)
	return p
}

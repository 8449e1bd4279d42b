package gaudit

import (
	"context"
)

// modifierKey is an unexported context key type.
type modifierKey struct{}
type skipKey struct{}

// ModifierResolver returns the identity of the principal performing the current operation.
type ModifierResolver func(ctx context.Context) (string, error)

// WithModifier attaches the acting modifier's identity to the context.
// Hosts set it once per request or operation; it is never stored globally.
func WithModifier(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, modifierKey{}, id)
}

// ModifierFromContext is the default ModifierResolver.
func ModifierFromContext(ctx context.Context) (string, error) {
	if v, ok := ctx.Value(modifierKey{}).(string); ok && v != "" {
		return v, nil
	}
	return "", ErrNoModifier
}

// WithSkip marks the context so the recorder bypasses auditing.
func WithSkip(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipKey{}, true)
}

// extractSkip extracts skip flag from context.
func extractSkip(ctx context.Context) bool {
	if v, ok := ctx.Value(skipKey{}).(bool); ok {
		return v
	}
	return false
}

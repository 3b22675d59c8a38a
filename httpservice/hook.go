package httpservice

import (
	"context"
)

// Hook runs before a call is packed, for example to inject an auth token.
// Hooks receive the caller's parameter and may modify it. A hook error
// fails the call with KindHook.
type Hook[P any] interface {
	Process(ctx context.Context, p P) error
}

// HookFunc adapts a function to Hook.
type HookFunc[P any] func(ctx context.Context, p P) error

// Process implements Hook.
func (f HookFunc[P]) Process(ctx context.Context, p P) error {
	return f(ctx, p)
}

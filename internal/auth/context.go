package auth

import (
	"context"

	"google.golang.org/grpc/metadata"
)

type ctxKey struct{}

const (
	ActorHeader   = "x-actor-id"
	AnonymousUser = "anonymous"
)

// WithActor stores the editing user's id, set by the transport middleware.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ctxKey{}, actor)
}

// GetActor returns the user performing the change, for logs and events.
func GetActor(ctx context.Context) string {
	if val, ok := ctx.Value(ctxKey{}).(string); ok && val != "" {
		return val
	}

	// Fallback to metadata
	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		if val := md.Get(ActorHeader); len(val) > 0 && val[0] != "" {
			return val[0]
		}
	}
	return AnonymousUser
}

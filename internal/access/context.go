package access

import (
	"context"

	"github.com/alphabot-ai/postboard/internal/model"
)

type contextKey string

const (
	contextKeyIdentity contextKey = "_identity_"
	contextKeyPost     contextKey = "_post_"
)

// ContextWithIdentity binds the authenticated user to ctx.
func ContextWithIdentity(ctx context.Context, u model.User) context.Context {
	return context.WithValue(ctx, contextKeyIdentity, u)
}

func IdentityFromContext(ctx context.Context) (model.User, bool) {
	u, ok := ctx.Value(contextKeyIdentity).(model.User)
	return u, ok
}

// ContextWithPost binds a post that already passed OwnerOrAdmin.
func ContextWithPost(ctx context.Context, p model.Post) context.Context {
	return context.WithValue(ctx, contextKeyPost, p)
}

func PostFromContext(ctx context.Context) (model.Post, bool) {
	p, ok := ctx.Value(contextKeyPost).(model.Post)
	return p, ok
}

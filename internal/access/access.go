/*
Package access gates requests: it authenticates the bearer token, checks
roles, and enforces that only a post's author or an admin may change it.

The checks are plain functions over the requesting user so they compose as
middleware and can be tested without HTTP.
*/
package access

import (
	"context"
	"errors"

	"github.com/alphabot-ai/postboard/internal/apperr"
	"github.com/alphabot-ai/postboard/internal/auth"
	"github.com/alphabot-ai/postboard/internal/logger"
	"github.com/alphabot-ai/postboard/internal/model"
	"github.com/alphabot-ai/postboard/internal/store"
)

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type UserLookup interface {
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
}

type PostLookup interface {
	GetPost(ctx context.Context, id int64) (model.Post, error)
}

type Engine struct {
	tokens TokenVerifier
	users  UserLookup
	posts  PostLookup
}

func NewEngine(tokens TokenVerifier, users UserLookup, posts PostLookup) *Engine {
	return &Engine{tokens: tokens, users: users, posts: posts}
}

// Authenticate resolves the Authorization header to a stored user. Every
// failure is Unauthenticated.
func (e *Engine) Authenticate(ctx context.Context, header string) (model.User, error) {
	token, ok := auth.BearerToken(header)
	if !ok {
		return model.User{}, apperr.Unauthenticatedf("No token provided")
	}
	claims, err := e.tokens.Verify(token)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Debug("token rejected")
		return model.User{}, apperr.Wrap(apperr.Unauthenticated, err, "Token validation failed")
	}
	u, err := e.users.GetUserByEmail(ctx, claims.Email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.FromContext(ctx).WithError(err).Error("user lookup during authentication")
		}
		return model.User{}, apperr.Wrap(apperr.Unauthenticated, err, "Invalid token")
	}
	return u, nil
}

// RequireRole succeeds when u holds one of roles.
func RequireRole(u model.User, roles ...model.Role) error {
	for _, r := range roles {
		if u.Role == r {
			return nil
		}
	}
	return apperr.Forbiddenf("You are not authorized to access this resource")
}

// CanModify reports whether u authored p or is an admin.
func CanModify(u model.User, p model.Post) bool {
	return (u.UID != "" && p.AuthorUID == u.UID) || u.IsAdmin()
}

// OwnerOrAdmin loads the post and checks CanModify. A missing post is
// NotFound, a foreign one Forbidden.
func (e *Engine) OwnerOrAdmin(ctx context.Context, u model.User, postID int64) (model.Post, error) {
	p, err := e.posts.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Post{}, apperr.NotFoundf("Post not found")
		}
		return model.Post{}, apperr.Wrap(apperr.Internal, err, err.Error())
	}
	if !CanModify(u, p) {
		return model.Post{}, apperr.Forbiddenf("You are not allowed to modify this post")
	}
	return p, nil
}

package store

import (
	"context"
	"errors"

	"github.com/alphabot-ai/postboard/internal/model"
	"github.com/alphabot-ai/postboard/internal/query"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

type Store interface {
	UserStore
	PostStore
	Ping(ctx context.Context) error
	Close() error
}

type UserStore interface {
	// CreateUser assigns UID, ID and CreatedAt on u.
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id int64) (model.User, error)
	GetUserByUID(ctx context.Context, uid string) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	ListUsers(ctx context.Context, w query.Window) ([]model.User, error)
	CountUsers(ctx context.Context) (int, error)
	UpdateUser(ctx context.Context, id int64, upd model.UserUpdate) (model.User, error)
	DeleteUser(ctx context.Context, id int64) error
	// UserNames maps user UIDs to display names. Unknown UIDs are absent.
	UserNames(ctx context.Context, uids []string) (map[string]string, error)
}

type PostStore interface {
	// CreatePost assigns UID, ID and timestamps on p.
	CreatePost(ctx context.Context, p *model.Post) error
	GetPost(ctx context.Context, id int64) (model.Post, error)
	FindPosts(ctx context.Context, q query.PostQuery) ([]model.Post, error)
	CountPosts(ctx context.Context, f query.Filter) (int, error)
	UpdatePost(ctx context.Context, id int64, upd model.PostUpdate) (model.Post, error)
	DeletePost(ctx context.Context, id int64) error
	AddComment(ctx context.Context, postID int64, c model.Comment) (model.Post, error)
}

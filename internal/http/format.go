package httpapp

import (
	"context"
	"time"

	"github.com/alphabot-ai/postboard/internal/model"
	"github.com/alphabot-ai/postboard/internal/query"
)

type postView struct {
	ID        int64         `json:"id"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	Author    *string       `json:"author"`
	Tags      []string      `json:"tags"`
	Comments  []commentView `json:"comments"`
	CreatedAt string        `json:"createdAt"`
	UpdatedAt string        `json:"updatedAt"`
}

type commentView struct {
	Text   string  `json:"text"`
	Author *string `json:"author"`
	Date   string  `json:"date"`
}

type userView struct {
	UID   string      `json:"uid"`
	ID    int64       `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  *model.Role `json:"role,omitempty"`
}

// viewUser never exposes the password hash; withRole controls the role.
func viewUser(u model.User, withRole bool) userView {
	v := userView{UID: u.UID, ID: u.ID, Name: u.Name, Email: u.Email}
	if withRole {
		role := u.Role
		v.Role = &role
	}
	return v
}

// viewPosts resolves every author reference to a display name in one
// lookup. Authors that no longer exist render as null.
func (s *Server) viewPosts(ctx context.Context, posts []model.Post) ([]postView, error) {
	seen := make(map[string]bool)
	var uids []string
	add := func(uid string) {
		if uid != "" && !seen[uid] {
			seen[uid] = true
			uids = append(uids, uid)
		}
	}
	for _, p := range posts {
		add(p.AuthorUID)
		for _, c := range p.Comments {
			add(c.AuthorUID)
		}
	}
	names, err := s.store.UserNames(ctx, uids)
	if err != nil {
		return nil, err
	}
	name := func(uid string) *string {
		if n, ok := names[uid]; ok {
			return &n
		}
		return nil
	}

	views := make([]postView, 0, len(posts))
	for _, p := range posts {
		v := postView{
			ID:        p.ID,
			Title:     p.Title,
			Content:   p.Content,
			Author:    name(p.AuthorUID),
			Tags:      p.Tags,
			Comments:  make([]commentView, 0, len(p.Comments)),
			CreatedAt: formatTime(p.CreatedAt),
			UpdatedAt: formatTime(p.UpdatedAt),
		}
		if v.Tags == nil {
			v.Tags = []string{}
		}
		for _, c := range p.Comments {
			v.Comments = append(v.Comments, commentView{
				Text:   c.Text,
				Author: name(c.AuthorUID),
				Date:   formatTime(c.Date),
			})
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *Server) viewPost(ctx context.Context, p model.Post) (postView, error) {
	views, err := s.viewPosts(ctx, []model.Post{p})
	if err != nil {
		return postView{}, err
	}
	return views[0], nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// page is the envelope of list and search responses. totalKey names the
// count field, totalPosts or totalUsers.
func page(totalKey string, data any, results int, p query.Pagination) map[string]any {
	return map[string]any{
		"status":      "success",
		"results":     results,
		totalKey:      p.Total,
		"currentPage": p.CurrentPage,
		"totalPages":  p.TotalPages,
		"data":        data,
	}
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alphabot-ai/postboard/internal/model"
	"github.com/alphabot-ai/postboard/internal/query"
	"github.com/alphabot-ai/postboard/internal/store"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const postColumns = `p.uid, p.id, p.title, p.content, p.author_uid, p.tags, p.comments, p.created_at, p.updated_at`

func (s *Store) CreatePost(ctx context.Context, p *model.Post) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Comments == nil {
		p.Comments = []model.Comment{}
	}
	tags, comments, err := encodeDocs(p.Tags, p.Comments)
	if err != nil {
		return err
	}
	uid := uuid.NewString()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		id, err := nextID(ctx, tx, "posts")
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO posts (uid, id, title, content, author_uid, tags, comments, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, uid, id, p.Title, p.Content, p.AuthorUID, tags, comments, toMillis(p.CreatedAt), toMillis(p.UpdatedAt))
		if err != nil {
			return err
		}
		p.UID = uid
		p.ID = id
		return nil
	})
}

func (s *Store) GetPost(ctx context.Context, id int64) (model.Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts p WHERE p.id = ?`, id)
	return scanPost(row)
}

func (s *Store) FindPosts(ctx context.Context, q query.PostQuery) ([]model.Post, error) {
	where, args := postWhere(q.Filter)
	args = append(args, q.Limit, q.Skip)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
SELECT %s
FROM posts p
%s
%s
LIMIT ? OFFSET ?
`, postColumns, where, postOrder(q.Sort)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *Store) CountPosts(ctx context.Context, f query.Filter) (int, error) {
	where, args := postWhere(f)
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts p `+where, args...).Scan(&n)
	return n, err
}

func (s *Store) UpdatePost(ctx context.Context, id int64, upd model.PostUpdate) (model.Post, error) {
	var updated model.Post
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		p, err := scanPost(tx.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts p WHERE p.id = ?`, id))
		if err != nil {
			return err
		}
		if upd.Title != nil {
			p.Title = *upd.Title
		}
		if upd.Content != nil {
			p.Content = *upd.Content
		}
		if upd.Tags != nil {
			p.Tags = upd.Tags
		}
		p.UpdatedAt = now()
		tags, _, err := encodeDocs(p.Tags, nil)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
UPDATE posts SET title = ?, content = ?, tags = ?, updated_at = ? WHERE id = ?
`, p.Title, p.Content, tags, toMillis(p.UpdatedAt), id)
		if err != nil {
			return err
		}
		updated = p
		return nil
	})
	return updated, err
}

func (s *Store) DeletePost(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// AddComment appends c to the post's comments. updatedAt is left alone.
func (s *Store) AddComment(ctx context.Context, postID int64, c model.Comment) (model.Post, error) {
	if c.Date.IsZero() {
		c.Date = now()
	}
	var updated model.Post
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		p, err := scanPost(tx.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts p WHERE p.id = ?`, postID))
		if err != nil {
			return err
		}
		p.Comments = append(p.Comments, c)
		_, comments, err := encodeDocs(nil, p.Comments)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE posts SET comments = ? WHERE id = ?`, comments, postID); err != nil {
			return err
		}
		updated = p
		return nil
	})
	return updated, err
}

func encodeDocs(tags []string, comments []model.Comment) (string, string, error) {
	var tagsRaw, commentsRaw []byte
	var err error
	if tags != nil {
		if tagsRaw, err = json.Marshal(tags); err != nil {
			return "", "", fmt.Errorf("encode tags: %w", err)
		}
	}
	if comments != nil {
		if commentsRaw, err = json.Marshal(comments); err != nil {
			return "", "", fmt.Errorf("encode comments: %w", err)
		}
	}
	return string(tagsRaw), string(commentsRaw), nil
}

func scanPost(scanner interface{ Scan(dest ...any) error }) (model.Post, error) {
	var p model.Post
	var tagsRaw, commentsRaw string
	var created, updated int64
	if err := scanner.Scan(&p.UID, &p.ID, &p.Title, &p.Content, &p.AuthorUID, &tagsRaw, &commentsRaw, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Post{}, store.ErrNotFound
		}
		return model.Post{}, err
	}
	if err := json.Unmarshal([]byte(tagsRaw), &p.Tags); err != nil {
		return model.Post{}, fmt.Errorf("decode tags of post %d: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(commentsRaw), &p.Comments); err != nil {
		return model.Post{}, fmt.Errorf("decode comments of post %d: %w", p.ID, err)
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Comments == nil {
		p.Comments = []model.Comment{}
	}
	p.CreatedAt = fromMillis(created)
	p.UpdatedAt = fromMillis(updated)
	return p, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/alphabot-ai/postboard/internal/model"
	"github.com/alphabot-ai/postboard/internal/query"
	"github.com/alphabot-ai/postboard/internal/store"
	"github.com/google/uuid"
)

const userColumns = `uid, id, name, email, password_hash, role, created_at`

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now()
	}
	uid := uuid.NewString()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		id, err := nextID(ctx, tx, "users")
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO users (uid, id, name, email, password_hash, role, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, uid, id, u.Name, u.Email, u.PasswordHash, string(u.Role), toMillis(u.CreatedAt))
		if err != nil {
			if isUniqueViolation(err) && strings.Contains(err.Error(), "email") {
				return store.ErrDuplicateEmail
			}
			return err
		}
		u.UID = uid
		u.ID = id
		return nil
	})
}

func (s *Store) GetUser(ctx context.Context, id int64) (model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (s *Store) GetUserByUID(ctx context.Context, uid string) (model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE uid = ?`, uid)
	return scanUser(row)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (s *Store) ListUsers(ctx context.Context, w query.Window) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+userColumns+`
FROM users
ORDER BY id ASC
LIMIT ? OFFSET ?
`, w.Limit, w.Skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (s *Store) UpdateUser(ctx context.Context, id int64, upd model.UserUpdate) (model.User, error) {
	var updated model.User
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		u, err := scanUser(tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
		if err != nil {
			return err
		}
		if upd.Name != nil {
			u.Name = *upd.Name
		}
		if upd.Email != nil {
			u.Email = *upd.Email
		}
		if upd.PasswordHash != nil {
			u.PasswordHash = *upd.PasswordHash
		}
		_, err = tx.ExecContext(ctx, `
UPDATE users SET name = ?, email = ?, password_hash = ? WHERE id = ?
`, u.Name, u.Email, u.PasswordHash, id)
		if err != nil {
			if isUniqueViolation(err) {
				return store.ErrDuplicateEmail
			}
			return err
		}
		updated = u
		return nil
	})
	return updated, err
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) UserNames(ctx context.Context, uids []string) (map[string]string, error) {
	names := make(map[string]string, len(uids))
	if len(uids) == 0 {
		return names, nil
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(uids)), ",")
	args := make([]any, len(uids))
	for i, uid := range uids {
		args[i] = uid
	}
	rows, err := s.db.QueryContext(ctx, `SELECT uid, name FROM users WHERE uid IN (`+marks+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var uid, name string
		if err := rows.Scan(&uid, &name); err != nil {
			return nil, err
		}
		names[uid] = name
	}
	return names, rows.Err()
}

func scanUser(scanner interface{ Scan(dest ...any) error }) (model.User, error) {
	var u model.User
	var role string
	var created int64
	if err := scanner.Scan(&u.UID, &u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, store.ErrNotFound
		}
		return model.User{}, err
	}
	u.Role = model.Role(role)
	u.CreatedAt = fromMillis(created)
	return u, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/alphabot-ai/postboard/internal/query"

	msqlite "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

var registerFuncs = sync.OnceValue(func() error {
	// sqlite's own lower() folds ASCII only.
	return msqlite.RegisterDeterministicScalarFunction("go_lower", 1, goLower)
})

func goLower(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

func Open(path string) (*Store, error) {
	if err := registerFuncs(); err != nil {
		return nil, fmt.Errorf("register sqlite functions: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps shared-cache memory databases free of table
	// locks and serializes writers on file databases.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{"PRAGMA foreign_keys = ON;", "PRAGMA busy_timeout = 5000;"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrations is an ordered list of SQL migrations.
// Each migration runs exactly once, tracked by schema_version table.
var migrations = []string{
	// Migration 1: users, posts with embedded tags and comments, id sequences
	`
CREATE TABLE IF NOT EXISTS users (
	uid TEXT PRIMARY KEY,
	id INTEGER NOT NULL UNIQUE,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'user',
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS posts (
	uid TEXT PRIMARY KEY,
	id INTEGER NOT NULL UNIQUE,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	author_uid TEXT NOT NULL,
	tags TEXT NOT NULL DEFAULT '[]',
	comments TEXT NOT NULL DEFAULT '[]',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC, id DESC);
CREATE INDEX IF NOT EXISTS idx_posts_author ON posts(author_uid);

CREATE TABLE IF NOT EXISTS sequences (
	name TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);
`,
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return err
	}

	var currentVersion int
	row := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`)
	if err := row.Scan(&currentVersion); err != nil {
		return err
	}

	for i := currentVersion; i < len(migrations); i++ {
		if _, err := db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, i+1); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", i+1, err)
		}
	}

	return nil
}

// nextID bumps the named counter inside tx. Counters start at 1 and never
// hand out a value twice, even after deletes.
func nextID(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `
INSERT INTO sequences (name, value) VALUES (?, 1)
ON CONFLICT(name) DO UPDATE SET value = value + 1
RETURNING value
`, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", name, err)
	}
	return id, nil
}

// withTx runs fn in a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// postWhere renders f as a WHERE clause over the posts table aliased p.
func postWhere(f query.Filter) (string, []any) {
	var conds []string
	var args []any
	if f.AuthorUID != "" {
		conds = append(conds, "p.author_uid = ?")
		args = append(args, f.AuthorUID)
	}
	if len(f.Tags) > 0 {
		marks := strings.TrimSuffix(strings.Repeat("?,", len(f.Tags)), ",")
		conds = append(conds, "EXISTS (SELECT 1 FROM json_each(p.tags) t WHERE t.value IN ("+marks+"))")
		for _, tag := range f.Tags {
			args = append(args, tag)
		}
	}
	if f.Keyword != "" {
		conds = append(conds, "(instr(go_lower(p.title), go_lower(?)) > 0 OR instr(go_lower(p.content), go_lower(?)) > 0)")
		args = append(args, f.Keyword, f.Keyword)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func postOrder(sort query.Sort) string {
	dir := "ASC"
	if sort.Desc {
		dir = "DESC"
	}
	// createdAt is the only sort field.
	return fmt.Sprintf("ORDER BY p.created_at %s, p.id %s", dir, dir)
}

// now is truncated to the stored precision so callers see what a reload returns.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}

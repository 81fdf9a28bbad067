// Package sqlitedir is a [directory.Directory] backed by SQLite through
// modernc.org/sqlite.
package sqlitedir

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/MrEthical07/credflow/directory"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id             TEXT PRIMARY KEY,
	username       TEXT NOT NULL UNIQUE,
	email          TEXT NOT NULL UNIQUE,
	password_hash  TEXT NOT NULL,
	role           TEXT NOT NULL,
	email_verified INTEGER NOT NULL DEFAULT 0,
	birth_year     INTEGER NOT NULL DEFAULT 0,
	created_at     INTEGER NOT NULL
);
`

const selectColumns = `SELECT id, username, email, password_hash, role, email_verified, birth_year, created_at FROM users`

// Store implements the user directory over a single SQLite file.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and ensures the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (directory.User, error) {
	return s.one(ctx, selectColumns+` WHERE email = ?`, email)
}

func (s *Store) FindByID(ctx context.Context, id string) (directory.User, error) {
	return s.one(ctx, selectColumns+` WHERE id = ?`, id)
}

func (s *Store) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM users WHERE email = ? LIMIT 1`, email)
}

func (s *Store) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM users WHERE username = ? LIMIT 1`, username)
}

func (s *Store) Save(ctx context.Context, u directory.User) (directory.User, error) {
	if u.ID == "" {
		now := s.now()
		u.ID = directory.NewID(now)
		if u.CreatedAt.IsZero() {
			u.CreatedAt = now.UTC()
		}
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO users (id, username, email, password_hash, role, email_verified, birth_year, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			u.ID, u.Username, u.Email, u.PasswordHash, u.Role, boolToInt(u.EmailVerified), u.BirthYear, toMillis(u.CreatedAt),
		)
		if err != nil {
			return directory.User{}, mapWriteErr(err)
		}
		return u, nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET username = ?, email = ?, password_hash = ?, role = ?, email_verified = ?, birth_year = ?
		 WHERE id = ?`,
		u.Username, u.Email, u.PasswordHash, u.Role, boolToInt(u.EmailVerified), u.BirthYear, u.ID,
	)
	if err != nil {
		return directory.User{}, mapWriteErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return directory.User{}, err
	}
	if n == 0 {
		return directory.User{}, directory.ErrNotFound
	}
	return u, nil
}

func (s *Store) MarkVerified(ctx context.Context, id string) (directory.User, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET email_verified = 1 WHERE id = ?`, id)
	if err != nil {
		return directory.User{}, err
	}
	if err := requireRow(res); err != nil {
		return directory.User{}, err
	}
	return s.FindByID(ctx, id)
}

func (s *Store) SetPasswordHash(ctx context.Context, id, expected, hash string) (directory.User, error) {
	var (
		res sql.Result
		err error
	)
	if expected == "" {
		res, err = s.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, hash, id)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE users SET password_hash = ? WHERE id = ? AND password_hash = ?`, hash, id, expected)
	}
	if err != nil {
		return directory.User{}, err
	}
	if err := requireRow(res); err != nil {
		if expected == "" {
			return directory.User{}, err
		}
		if _, findErr := s.FindByID(ctx, id); findErr != nil {
			return directory.User{}, findErr
		}
		return directory.User{}, directory.ErrStale
	}
	return s.FindByID(ctx, id)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return directory.ErrNotFound
	}
	return nil
}

func (s *Store) one(ctx context.Context, query string, arg any) (directory.User, error) {
	var (
		u         directory.User
		verified  int
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &verified, &u.BirthYear, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return directory.User{}, directory.ErrNotFound
		}
		return directory.User{}, err
	}
	u.EmailVerified = verified != 0
	u.CreatedAt = fromMillis(createdAt)
	return u, nil
}

func (s *Store) exists(ctx context.Context, query string, arg any) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func mapWriteErr(err error) error {
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", directory.ErrConflict, err)
	}
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

var _ directory.Directory = (*Store)(nil)

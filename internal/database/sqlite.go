package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avasile/snapvault/internal/model"
	_ "modernc.org/sqlite"
)

// SQLiteDB implements Database backed by SQLite.
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens (or creates) an SQLite database at dsn and runs
// migrations. For in-memory use pass "file::memory:?cache=shared".
func NewSQLiteDB(dsn string) (*SQLiteDB, error) {
	if !strings.Contains(dsn, "?") {
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	} else if !strings.Contains(dsn, "_journal_mode") {
		dsn += "&_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

func (s *SQLiteDB) CreateUser(u *model.User) error {
	_, err := s.db.Exec(`
		INSERT INTO users (id, name, email, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetUser(id string) (*model.User, error) {
	row := s.db.QueryRow(`
		SELECT id, name, email, password_hash, created_at
		FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (s *SQLiteDB) GetUserByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`
		SELECT id, name, email, password_hash, created_at
		FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// ---------------------------------------------------------------------------
// Images
// ---------------------------------------------------------------------------

func (s *SQLiteDB) CreateImage(img *model.Image) error {
	_, err := s.db.Exec(`
		INSERT INTO images (id, user_id, title, blob_key, content_type, size, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		img.ID, img.UserID, img.Title, img.BlobKey, img.ContentType, img.Size,
		img.CreatedAt.UTC().Format(time.RFC3339), img.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetImage(imageID, userID string) (*model.Image, error) {
	row := s.db.QueryRow(`
		SELECT id, user_id, title, blob_key, content_type, size, created_at, updated_at
		FROM images WHERE id = ? AND user_id = ?`,
		imageID, userID,
	)
	return scanImage(row)
}

func (s *SQLiteDB) ListImages(userID string, page, perPage int) ([]*model.Image, int, error) {
	var total int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM images WHERE user_id = ?`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count images: %w", err)
	}

	offset := (page - 1) * perPage
	rows, err := s.db.Query(`
		SELECT id, user_id, title, blob_key, content_type, size, created_at, updated_at
		FROM images WHERE user_id = ?
		ORDER BY created_at ASC, id ASC
		LIMIT ? OFFSET ?`,
		userID, perPage, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	var images []*model.Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, 0, err
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate images: %w", err)
	}
	return images, total, nil
}

func (s *SQLiteDB) UpdateImage(img *model.Image) error {
	// blob_key and user_id are immutable and deliberately excluded.
	res, err := s.db.Exec(`
		UPDATE images SET title = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		img.Title, img.UpdatedAt.UTC().Format(time.RFC3339),
		img.ID, img.UserID,
	)
	if err != nil {
		return fmt.Errorf("update image: %w", err)
	}
	return checkRowsAffected(res)
}

func (s *SQLiteDB) DeleteImage(imageID, userID string) error {
	res, err := s.db.Exec(`DELETE FROM images WHERE id = ? AND user_id = ?`, imageID, userID)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	return checkRowsAffected(res)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanUser(row scannable) (*model.User, error) {
	var u model.User
	var createdAt string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

func scanImage(row scannable) (*model.Image, error) {
	var img model.Image
	var createdAt, updatedAt string
	err := row.Scan(&img.ID, &img.UserID, &img.Title, &img.BlobKey,
		&img.ContentType, &img.Size, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan image: %w", err)
	}
	img.CreatedAt = parseTime(createdAt)
	img.UpdatedAt = parseTime(updatedAt)
	return &img, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func checkRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

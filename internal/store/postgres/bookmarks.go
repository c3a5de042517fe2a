// Package postgres is the record store: owner-scoped bookmark rows in
// PostgreSQL. Every statement filters on user_id.
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sweedalp/smart-bookmark-app/internal/domain"
	"github.com/sweedalp/smart-bookmark-app/internal/logger"
	"github.com/sweedalp/smart-bookmark-app/internal/metrics"
)

//go:embed schema.sql
var schemaSQL string

const (
	listQuery = `
		SELECT id::text, user_id, title, url, created_at
		FROM bookmarks
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`

	insertQuery = `
		INSERT INTO bookmarks (user_id, title, url)
		VALUES ($1, $2, $3)
		RETURNING id::text, user_id, title, url, created_at`

	deleteQuery = `
		DELETE FROM bookmarks
		WHERE id = $1 AND user_id = $2`
)

// Store reads and writes bookmark rows.
type Store struct {
	db  DatabaseIface
	log logger.Logger
}

// NewStore creates a bookmark store on db.
func NewStore(db DatabaseIface, log logger.Logger) *Store {
	return &Store{
		db:  db,
		log: log.With(logger.String("component", "bookmark_store")),
	}
}

// EnsureSchema creates the bookmarks table and index when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	s.log.Debug("bookmark schema ready")
	return nil
}

// List returns owner's bookmarks, newest first.
func (s *Store) List(ctx context.Context, owner string) (out []domain.Bookmark, err error) {
	defer func(start time.Time) { metrics.RecordStoreOp("list", err, start) }(time.Now())

	if owner == "" {
		return nil, domain.ErrUnauthenticated
	}

	rows, err := s.db.Query(ctx, listQuery, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	defer rows.Close()

	out = make([]domain.Bookmark, 0)
	for rows.Next() {
		var b domain.Bookmark
		if err := rows.Scan(&b.ID, &b.Owner, &b.Title, &b.URL, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookmarks: %w", err)
	}
	return out, nil
}

// Insert stores n and returns the row as the database assigned it.
// n must already be validated.
func (s *Store) Insert(ctx context.Context, n domain.NewBookmark) (b domain.Bookmark, err error) {
	defer func(start time.Time) { metrics.RecordStoreOp("insert", err, start) }(time.Now())

	if n.Owner == "" {
		return domain.Bookmark{}, domain.ErrUnauthenticated
	}

	err = s.db.QueryRow(ctx, insertQuery, n.Owner, n.Title, n.URL).
		Scan(&b.ID, &b.Owner, &b.Title, &b.URL, &b.CreatedAt)
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("failed to insert bookmark: %w", err)
	}

	s.log.Debug("bookmark inserted",
		logger.String("id", b.ID),
		logger.String("owner", b.Owner))
	return b, nil
}

// Delete removes owner's bookmark id. It reports whether a row was removed;
// deleting a row that is already gone is not an error.
func (s *Store) Delete(ctx context.Context, owner, id string) (removed bool, err error) {
	defer func(start time.Time) { metrics.RecordStoreOp("delete", err, start) }(time.Now())

	if owner == "" {
		return false, domain.ErrUnauthenticated
	}
	if _, perr := uuid.Parse(id); perr != nil {
		// Never a row id; nothing to delete.
		return false, nil
	}

	tag, err := s.db.Exec(ctx, deleteQuery, id, owner)
	if err != nil {
		return false, fmt.Errorf("failed to delete bookmark: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

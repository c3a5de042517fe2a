// Package bookmarks is the write path shared by form posts, live views and
// imports: validate, persist, then announce on the change feed.
package bookmarks

import (
	"context"
	"fmt"

	"github.com/sweedalp/smart-bookmark-app/internal/domain"
	"github.com/sweedalp/smart-bookmark-app/internal/feed"
	"github.com/sweedalp/smart-bookmark-app/internal/logger"
)

// Store is the record store as seen by the service.
type Store interface {
	List(ctx context.Context, owner string) ([]domain.Bookmark, error)
	Insert(ctx context.Context, n domain.NewBookmark) (domain.Bookmark, error)
	Delete(ctx context.Context, owner, id string) (bool, error)
}

// Publisher announces committed changes.
type Publisher interface {
	Publish(ctx context.Context, ev feed.Event) error
}

// Service applies bookmark operations for a signed-in identity.
type Service struct {
	store Store
	feed  Publisher
	log   logger.Logger
}

// NewService creates the bookmark service.
func NewService(store Store, pub Publisher, log logger.Logger) *Service {
	return &Service{
		store: store,
		feed:  pub,
		log:   log.With(logger.String("component", "bookmarks")),
	}
}

// List returns the identity's bookmarks, newest first.
func (s *Service) List(ctx context.Context, id domain.Identity) ([]domain.Bookmark, error) {
	if id.UserID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return s.store.List(ctx, id.UserID)
}

// Create validates and stores a bookmark. Validation failures return a
// *domain.ValidationError and never reach the store.
func (s *Service) Create(ctx context.Context, id domain.Identity, title, rawURL string) (domain.Bookmark, error) {
	if id.UserID == "" {
		return domain.Bookmark{}, domain.ErrUnauthenticated
	}

	input, err := domain.NewBookmark{Owner: id.UserID, Title: title, URL: rawURL}.Validate()
	if err != nil {
		return domain.Bookmark{}, err
	}

	b, err := s.store.Insert(ctx, input)
	if err != nil {
		return domain.Bookmark{}, err
	}

	s.publish(ctx, feed.InsertEvent(b))
	return b, nil
}

// Delete removes the identity's bookmark. Removing a bookmark that is already
// gone succeeds.
func (s *Service) Delete(ctx context.Context, id domain.Identity, bookmarkID string) error {
	if id.UserID == "" {
		return domain.ErrUnauthenticated
	}
	if bookmarkID == "" {
		return fmt.Errorf("%w: missing id", domain.ErrNotFound)
	}

	removed, err := s.store.Delete(ctx, id.UserID, bookmarkID)
	if err != nil {
		return err
	}
	if removed {
		s.publish(ctx, feed.DeleteEvent(id.UserID, bookmarkID))
	}
	return nil
}

// ImportResult summarizes an import.
type ImportResult struct {
	Created    int      `json:"created"`
	Duplicates int      `json:"duplicates"`
	Invalid    int      `json:"invalid"`
	Problems   []string `json:"problems,omitempty"`
}

// Import creates every valid entry whose URL the identity has not saved yet.
// Owners in items are ignored. A store failure stops the import; the result
// still counts what was created before it.
func (s *Service) Import(ctx context.Context, id domain.Identity, items []domain.NewBookmark) (ImportResult, error) {
	var res ImportResult
	if id.UserID == "" {
		return res, domain.ErrUnauthenticated
	}

	existing, err := s.store.List(ctx, id.UserID)
	if err != nil {
		return res, err
	}
	seen := make(map[string]struct{}, len(existing)+len(items))
	for _, b := range existing {
		seen[b.URL] = struct{}{}
	}

	for _, item := range items {
		item.Owner = id.UserID
		input, err := item.Validate()
		if err != nil {
			res.Invalid++
			res.Problems = append(res.Problems, fmt.Sprintf("%q: %v", item.Title, err))
			continue
		}
		if _, dup := seen[input.URL]; dup {
			res.Duplicates++
			continue
		}

		b, err := s.store.Insert(ctx, input)
		if err != nil {
			return res, err
		}
		seen[b.URL] = struct{}{}
		res.Created++
		s.publish(ctx, feed.InsertEvent(b))
	}

	s.log.Info("bookmarks imported",
		logger.String("owner", id.UserID),
		logger.Int("created", res.Created),
		logger.Int("duplicates", res.Duplicates),
		logger.Int("invalid", res.Invalid))
	return res, nil
}

// publish is best-effort; failures are logged and never returned.
func (s *Service) publish(ctx context.Context, ev feed.Event) {
	if s.feed == nil {
		return
	}
	if err := s.feed.Publish(ctx, ev); err != nil {
		s.log.Warn("failed to publish change",
			logger.String("type", string(ev.Type)),
			logger.String("owner", ev.Owner()),
			logger.Error(err))
	}
}

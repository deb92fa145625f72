// Package services wires the submit, reaction and stats pipelines on top
// of the repositories. Each call is handled independently; all shared
// state lives behind the key-value adapter.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/samber/lo"

	"github.com/UTSAV1434/AfterHours/domain"
	apperrors "github.com/UTSAV1434/AfterHours/errors"
	"github.com/UTSAV1434/AfterHours/moderation"
	"github.com/UTSAV1434/AfterHours/repositories"
	"github.com/UTSAV1434/AfterHours/search"
)

const searchLimit = 50

type PostService struct {
	posts         repositories.PostRepository
	timings       repositories.TimingsRepository
	moderator     moderation.Moderator
	index         *search.Index
	log           *slog.Logger
	enforceWindow bool
}

func NewPostService(
	posts repositories.PostRepository,
	timings repositories.TimingsRepository,
	moderator moderation.Moderator,
	index *search.Index,
	log *slog.Logger,
	enforceWindow bool,
) *PostService {
	return &PostService{
		posts:         posts,
		timings:       timings,
		moderator:     moderator,
		index:         index,
		log:           log,
		enforceWindow: enforceWindow,
	}
}

// Submit runs the full create pipeline: time-window gate, moderation,
// then persistence. The gate and the filter both run before any store
// mutation.
func (s *PostService) Submit(ctx context.Context, content, category string) (domain.Post, error) {
	if s.enforceWindow {
		timings, err := s.timings.Get(ctx)
		if err != nil {
			return domain.Post{}, err
		}
		if !timings.PostingAllowed(time.Now().Hour()) {
			return domain.Post{}, apperrors.ErrPostingClosed
		}
	}

	if s.moderator.ContainsBlockedContent(content) {
		return domain.Post{}, apperrors.NewModeration(
			"your thought contains words that aren't allowed here")
	}

	post, err := s.posts.Create(ctx, content, category)
	if err != nil {
		return domain.Post{}, err
	}

	// Language detection feeds the logs only; it never gates and is
	// never stored.
	info := whatlanggo.Detect(post.Content)
	s.log.Info("Thought accepted",
		"id", post.ID,
		"category", post.Category,
		"lang", info.Lang.Iso6391())

	if err := s.index.IndexPost(post); err != nil {
		// The post is already durable; a stale index only weakens search.
		s.log.Warn("Failed to index post", "id", post.ID, "err", err)
	}
	return post, nil
}

// List returns the retention-filtered feed, newest first.
func (s *PostService) List(ctx context.Context) ([]domain.Post, error) {
	return s.posts.ListRecent(ctx)
}

// Search resolves the query through the index, then re-checks every hit
// against the live feed so expired-but-unpurged posts never surface.
// Results keep feed order, newest first.
func (s *PostService) Search(ctx context.Context, query string) ([]domain.Post, error) {
	ids, err := s.index.Search(ctx, query, searchLimit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.Post{}, nil
	}

	recent, err := s.posts.ListRecent(ctx)
	if err != nil {
		return nil, err
	}
	matched := lo.KeyBy(ids, func(id string) string { return id })
	return lo.Filter(recent, func(post domain.Post, _ int) bool {
		_, ok := matched[post.ID]
		return ok
	}), nil
}

// Delete removes the post from the store and the index.
func (s *PostService) Delete(ctx context.Context, id string) error {
	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.index.Remove(id); err != nil {
		s.log.Warn("Failed to remove post from index", "id", id, "err", err)
	}
	return nil
}

// Purge removes everything past the retention boundary and returns how
// many posts went. Invoked on explicit external trigger only.
func (s *PostService) Purge(ctx context.Context) (int, error) {
	ids, err := s.posts.PurgeExpired(ctx)
	if err != nil {
		return 0, err
	}
	if len(ids) > 0 {
		if err := s.index.Remove(ids...); err != nil {
			s.log.Warn("Failed to remove purged posts from index", "err", err)
		}
	}
	return len(ids), nil
}

// Mode reports the gate's current verdicts.
func (s *PostService) Mode(ctx context.Context) (postingAllowed, nightMode bool, err error) {
	timings, err := s.timings.Get(ctx)
	if err != nil {
		return false, false, err
	}
	hour := time.Now().Hour()
	allowed := timings.PostingAllowed(hour)
	if !s.enforceWindow {
		allowed = true
	}
	return allowed, timings.NightMode(hour), nil
}

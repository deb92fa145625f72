package services

import (
	"context"
	"log/slog"

	"github.com/samber/lo"

	"github.com/UTSAV1434/AfterHours/domain"
	"github.com/UTSAV1434/AfterHours/repositories"
)

// Stats is the aggregate view over the retention window. TopPost is nil
// when the window is empty.
type Stats struct {
	TotalPosts     int          `json:"totalPosts"`
	TotalReactions int          `json:"totalReactions"`
	TopPost        *domain.Post `json:"topPost"`
}

// StatsService derives totals from the live post set on every call.
// Nothing is cached or persisted, so the numbers are exact at read time.
type StatsService struct {
	posts repositories.PostRepository
	log   *slog.Logger
}

func NewStatsService(posts repositories.PostRepository, log *slog.Logger) *StatsService {
	return &StatsService{posts: posts, log: log}
}

// Compute walks the feed newest-first and keeps a candidate only on a
// strictly greater reaction total, so ties deterministically go to the
// newest post.
func (s *StatsService) Compute(ctx context.Context) (Stats, error) {
	posts, err := s.posts.ListRecent(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		TotalPosts: len(posts),
		TotalReactions: lo.SumBy(posts, func(post domain.Post) int {
			return post.TotalReactions()
		}),
	}

	best := 0
	for i, post := range posts {
		if total := post.TotalReactions(); total > best {
			best = total
			stats.TopPost = &posts[i]
		}
	}
	return stats, nil
}

// Package repositories persists the feed through the key-value adapter.
// One key per post ("post:{id}"), one per reaction record ("react:{id}"),
// one for the timings configuration ("config:timings"); every value is
// the JSON shape the API serves.
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/UTSAV1434/AfterHours/domain"
	apperrors "github.com/UTSAV1434/AfterHours/errors"
	"github.com/UTSAV1434/AfterHours/storage"
)

const (
	postKeyPrefix  = "post:"
	reactKeyPrefix = "react:"
)

type PostRepository struct {
	kv  storage.KV
	log *slog.Logger
}

func NewPostRepository(kv storage.KV, log *slog.Logger) PostRepository {
	return PostRepository{kv: kv, log: log}
}

// newPostID builds a creation-millis timestamp plus a random suffix.
// Collision-resistant enough for a single low-traffic table; the suffix
// disambiguates two posts landing in the same millisecond.
func newPostID(at time.Time) string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("%d_%s", at.UnixMilli(), suffix)
}

// Create validates content, assigns id and timestamp, and persists the
// post with the full reaction alphabet at zero.
func (r PostRepository) Create(ctx context.Context, content, category string) (domain.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Post{}, apperrors.NewValidation("content", "must not be empty")
	}
	if domain.ContentLength(content) > domain.MaxContentLength {
		return domain.Post{}, apperrors.NewValidation("content",
			fmt.Sprintf("must be %d characters or less", domain.MaxContentLength))
	}
	if category == "" {
		category = "general"
	}

	now := time.Now()
	post := domain.Post{
		ID:        newPostID(now),
		Content:   content,
		Category:  category,
		Timestamp: now.UnixMilli(),
		Reactions: domain.NewReactionSet(),
	}
	if err := r.Save(ctx, post); err != nil {
		return domain.Post{}, err
	}
	r.log.Info("Post created", "id", post.ID, "category", post.Category)
	return post, nil
}

// Save re-persists the full post record. Reactions mutate posts through
// this path; there is no field-level update.
func (r PostRepository) Save(ctx context.Context, post domain.Post) error {
	value, err := json.Marshal(post)
	if err != nil {
		return err
	}
	if err := r.kv.Set(ctx, postKeyPrefix+post.ID, value); err != nil {
		return apperrors.NewStore("set", err)
	}
	return nil
}

// Get looks up a single post by id.
func (r PostRepository) Get(ctx context.Context, id string) (domain.Post, error) {
	value, err := r.kv.Get(ctx, postKeyPrefix+id)
	if err == storage.ErrKeyNotFound {
		return domain.Post{}, apperrors.ErrPostNotFound
	}
	if err != nil {
		return domain.Post{}, apperrors.NewStore("get", err)
	}
	var post domain.Post
	if err := json.Unmarshal(value, &post); err != nil {
		return domain.Post{}, apperrors.NewStore("decode", err)
	}
	return post, nil
}

// ListRecent scans every post, keeps the ones inside the retention
// window and sorts them newest first. The working set is recomputed on
// every call; reads never depend on a purge having run.
func (r PostRepository) ListRecent(ctx context.Context) ([]domain.Post, error) {
	posts, err := r.scanAll(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	recent := lo.Filter(posts, func(post domain.Post, _ int) bool {
		return !post.Expired(now)
	})
	sort.Slice(recent, func(i, j int) bool {
		return recent[i].Timestamp > recent[j].Timestamp
	})
	return recent, nil
}

// Delete removes the post and its reaction record. No ownership check at
// this layer; authorization is the caller's concern.
func (r PostRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	keys := []string{postKeyPrefix + id, reactKeyPrefix + id}
	if err := r.kv.DeleteMany(ctx, keys); err != nil {
		return apperrors.NewStore("delete", err)
	}
	r.log.Info("Post deleted", "id", id)
	return nil
}

// PurgeExpired removes every post at or past the retention boundary in a
// single multi-key delete and returns the removed ids. Maintenance only;
// reads filter regardless.
func (r PostRepository) PurgeExpired(ctx context.Context) ([]string, error) {
	posts, err := r.scanAll(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var ids []string
	var keys []string
	for _, post := range posts {
		if post.Expired(now) {
			ids = append(ids, post.ID)
			keys = append(keys, postKeyPrefix+post.ID, reactKeyPrefix+post.ID)
		}
	}
	if len(keys) == 0 {
		return nil, nil
	}
	if err := r.kv.DeleteMany(ctx, keys); err != nil {
		return nil, apperrors.NewStore("purge", err)
	}
	r.log.Info("Purged expired posts", "count", len(ids))
	return ids, nil
}

func (r PostRepository) scanAll(ctx context.Context) ([]domain.Post, error) {
	values, err := r.kv.ScanPrefix(ctx, postKeyPrefix)
	if err != nil {
		return nil, apperrors.NewStore("scan", err)
	}

	posts := make([]domain.Post, 0, len(values))
	for _, value := range values {
		var post domain.Post
		if err := json.Unmarshal(value, &post); err != nil {
			// One corrupt record must not take the whole feed down.
			r.log.Warn("Skipping undecodable post record", "err", err)
			continue
		}
		posts = append(posts, post)
	}
	return posts, nil
}

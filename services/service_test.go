package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"github.com/UTSAV1434/AfterHours/domain"
	apperrors "github.com/UTSAV1434/AfterHours/errors"
	"github.com/UTSAV1434/AfterHours/moderation"
	"github.com/UTSAV1434/AfterHours/repositories"
	"github.com/UTSAV1434/AfterHours/search"
	"github.com/UTSAV1434/AfterHours/storage"
)

type fixture struct {
	kv        *storage.BadgerKV
	posts     *PostService
	reactions *ReactionService
	stats     *StatsService
}

// newFixture builds the whole service stack on a throwaway badger store,
// an in-memory index, a tiny blocklist and a gate that is currently open.
func newFixture(t *testing.T) fixture {
	t.Helper()
	log := slog.Default()

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	kv := storage.NewBadgerKV(db, log)

	idx, err := search.OpenInMemory(log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	mod, err := moderation.NewModerator([]string{"stupid"}, moderation.FailClosed, log)
	require.NoError(t, err)

	postRepo := repositories.NewPostRepository(kv, log)
	reactRepo := repositories.NewReactionRepository(kv, log)
	timingsRepo := repositories.NewTimingsRepository(kv, log)

	// Open the posting window around the current hour so Submit passes
	// the gate deterministically.
	hour := time.Now().Hour()
	require.NoError(t, timingsRepo.Set(context.Background(), domain.Timings{
		PostingWindowStart: hour,
		PostingWindowEnd:   (hour + 1) % 24,
		NightModeStart:     hour,
		NightModeEnd:       (hour + 1) % 24,
	}))

	return fixture{
		kv:        kv,
		posts:     NewPostService(postRepo, timingsRepo, mod, idx, log, true),
		reactions: NewReactionService(postRepo, reactRepo, log),
		stats:     NewStatsService(postRepo, log),
	}
}

func Test_Submit_Accepts_Clean_Content(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	post, err := f.posts.Submit(context.Background(), "hello", "")
	req.NoError(err)
	req.Equal("hello", post.Content)

	posts, err := f.posts.List(context.Background())
	req.NoError(err)
	req.Len(posts, 1)
	req.Equal("hello", posts[0].Content)
}

func Test_Submit_Rejects_Blocked_Content(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	_, err := f.posts.Submit(context.Background(), "This is STUPID", "general")
	req.True(apperrors.IsModeration(err))

	// Rejection happened before any store mutation.
	posts, err := f.posts.List(context.Background())
	req.NoError(err)
	req.Empty(posts)
}

func Test_Submit_Rejects_Outside_Posting_Window(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	// Close the window by making it empty.
	timingsRepo := repositories.NewTimingsRepository(f.kv, slog.Default())
	req.NoError(timingsRepo.Set(ctx, domain.Timings{}))

	_, err := f.posts.Submit(ctx, "hello", "general")
	req.ErrorIs(err, apperrors.ErrPostingClosed)
}

func Test_Reaction_Full_Cycle(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	post, err := f.posts.Submit(ctx, "react to me", "general")
	req.NoError(err)

	// add
	updated, err := f.reactions.Apply(ctx, post.ID, "💙", "userA", "")
	req.NoError(err)
	req.Equal(1, updated.Reactions["💙"])

	// toggle off; the server knows userA's previous emoji on its own
	updated, err = f.reactions.Apply(ctx, post.ID, "💙", "userA", "")
	req.NoError(err)
	_, present := updated.Reactions["💙"]
	req.False(present)

	// add again, then switch
	_, err = f.reactions.Apply(ctx, post.ID, "💙", "userA", "")
	req.NoError(err)
	updated, err = f.reactions.Apply(ctx, post.ID, "🌙", "userA", "")
	req.NoError(err)
	_, present = updated.Reactions["💙"]
	req.False(present)
	req.Equal(1, updated.Reactions["🌙"])
}

func Test_Reaction_Ignores_Lying_Client(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	post, err := f.posts.Submit(ctx, "counts stay honest", "general")
	req.NoError(err)

	_, err = f.reactions.Apply(ctx, post.ID, "✨", "userA", "")
	req.NoError(err)

	// userA claims their previous emoji was 💙; the server record says ✨,
	// so this is a switch from ✨, not a fresh add next to a phantom 💙.
	updated, err := f.reactions.Apply(ctx, post.ID, "🌙", "userA", "💙")
	req.NoError(err)
	req.Equal(map[string]int{"🌙": 1}, updated.Reactions)
}

func Test_Reaction_Validation_And_NotFound(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.reactions.Apply(ctx, "any", "", "userA", "")
	req.True(apperrors.IsValidation(err))

	_, err = f.reactions.Apply(ctx, "any", "💙", "", "")
	req.True(apperrors.IsValidation(err))

	_, err = f.reactions.Apply(ctx, "any", "👍", "userA", "")
	req.True(apperrors.IsValidation(err), "emoji outside the alphabet")

	_, err = f.reactions.Apply(ctx, "missing-post", "💙", "userA", "")
	req.ErrorIs(err, apperrors.ErrPostNotFound)
}

func Test_Stats(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	empty, err := f.stats.Compute(ctx)
	req.NoError(err)
	req.Zero(empty.TotalPosts)
	req.Nil(empty.TopPost)

	first, err := f.posts.Submit(ctx, "hello", "general")
	req.NoError(err)
	_, err = f.posts.Submit(ctx, "second", "general")
	req.NoError(err)

	_, err = f.reactions.Apply(ctx, first.ID, "✨", "userA", "")
	req.NoError(err)

	stats, err := f.stats.Compute(ctx)
	req.NoError(err)
	req.Equal(2, stats.TotalPosts)
	req.Equal(1, stats.TotalReactions)
	req.NotNil(stats.TopPost)
	req.Equal("hello", stats.TopPost.Content)

	// Recomputing without mutation yields the same answer.
	again, err := f.stats.Compute(ctx)
	req.NoError(err)
	req.Equal(stats, again)
}

func Test_Search_Respects_Retention(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	post, err := f.posts.Submit(ctx, "the city sleeps tonight", "general")
	req.NoError(err)

	found, err := f.posts.Search(ctx, "sleeps")
	req.NoError(err)
	req.Len(found, 1)
	req.Equal(post.ID, found[0].ID)

	// Delete removes the post from index and store alike.
	req.NoError(f.posts.Delete(ctx, post.ID))
	found, err = f.posts.Search(ctx, "sleeps")
	req.NoError(err)
	req.Empty(found)
}

func Test_Purge_Counts_And_Clears(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.posts.Submit(ctx, "stays", "general")
	req.NoError(err)

	count, err := f.posts.Purge(ctx)
	req.NoError(err)
	req.Zero(count, "nothing is expired yet")

	posts, err := f.posts.List(ctx)
	req.NoError(err)
	req.Len(posts, 1)
}

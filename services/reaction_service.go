package services

import (
	"context"
	"log/slog"

	"github.com/UTSAV1434/AfterHours/domain"
	apperrors "github.com/UTSAV1434/AfterHours/errors"
	"github.com/UTSAV1434/AfterHours/repositories"
)

// ReactionService applies the toggle-and-switch transition and persists
// both the post and the per-post user->emoji record. The stored record is
// the source of truth for a user's previous emoji; the client-supplied
// value is only a fallback for posts that predate the record.
//
// The read-modify-write here is not guarded by compare-and-swap:
// concurrent reactions to one post can lose an update (last write wins).
// Accepted for this traffic profile; see DESIGN.md.
type ReactionService struct {
	posts     repositories.PostRepository
	reactions repositories.ReactionRepository
	log       *slog.Logger
}

func NewReactionService(
	posts repositories.PostRepository,
	reactions repositories.ReactionRepository,
	log *slog.Logger,
) *ReactionService {
	return &ReactionService{posts: posts, reactions: reactions, log: log}
}

// Apply runs one reaction request for (postID, userID). clientPrevious
// is what the caller believes their active emoji is; it is ignored
// whenever the server has its own record.
func (s *ReactionService) Apply(ctx context.Context, postID, emoji, userID, clientPrevious string) (domain.Post, error) {
	if emoji == "" {
		return domain.Post{}, apperrors.NewValidation("emoji", "is required")
	}
	if userID == "" {
		return domain.Post{}, apperrors.NewValidation("userId", "is required")
	}
	if !domain.IsAllowedEmoji(emoji) {
		return domain.Post{}, apperrors.NewValidation("emoji", "is not part of the reaction set")
	}

	post, err := s.posts.Get(ctx, postID)
	if err != nil {
		return domain.Post{}, err
	}

	users, err := s.reactions.Get(ctx, postID)
	if err != nil {
		return domain.Post{}, err
	}

	previous, tracked := users[userID]
	if !tracked && len(users) == 0 && domain.IsAllowedEmoji(clientPrevious) {
		// No server-side record yet for this post: trust the caller once.
		previous = clientPrevious
	}

	post.Reactions = domain.ApplyReaction(post.Reactions, emoji, previous)

	if previous == emoji {
		delete(users, userID)
	} else {
		users[userID] = emoji
	}

	if err := s.posts.Save(ctx, post); err != nil {
		return domain.Post{}, err
	}
	if err := s.reactions.Save(ctx, postID, users); err != nil {
		return domain.Post{}, err
	}

	s.log.Debug("Reaction applied",
		"post", postID, "emoji", emoji, "previous", previous)
	return post, nil
}

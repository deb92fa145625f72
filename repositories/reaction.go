package repositories

import (
	"context"
	"encoding/json"
	"log/slog"

	apperrors "github.com/UTSAV1434/AfterHours/errors"
	"github.com/UTSAV1434/AfterHours/storage"
)

// ReactionRepository persists, per post, which pseudo-user currently
// holds which emoji. This record makes the server authoritative about a
// user's previous reaction instead of trusting the request payload.
type ReactionRepository struct {
	kv  storage.KV
	log *slog.Logger
}

func NewReactionRepository(kv storage.KV, log *slog.Logger) ReactionRepository {
	return ReactionRepository{kv: kv, log: log}
}

// Get returns the user->emoji map for a post. A post nobody reacted to
// yet has no record; that is an empty map, not an error.
func (r ReactionRepository) Get(ctx context.Context, postID string) (map[string]string, error) {
	value, err := r.kv.Get(ctx, reactKeyPrefix+postID)
	if err == storage.ErrKeyNotFound {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, apperrors.NewStore("get", err)
	}
	var users map[string]string
	if err := json.Unmarshal(value, &users); err != nil {
		return nil, apperrors.NewStore("decode", err)
	}
	if users == nil {
		users = map[string]string{}
	}
	return users, nil
}

// Save writes the user->emoji map back. An empty map is deleted rather
// than stored, mirroring the zero-is-absent rule on counts.
func (r ReactionRepository) Save(ctx context.Context, postID string, users map[string]string) error {
	key := reactKeyPrefix + postID
	if len(users) == 0 {
		if err := r.kv.Delete(ctx, key); err != nil {
			return apperrors.NewStore("delete", err)
		}
		return nil
	}
	value, err := json.Marshal(users)
	if err != nil {
		return err
	}
	if err := r.kv.Set(ctx, key, value); err != nil {
		return apperrors.NewStore("set", err)
	}
	return nil
}

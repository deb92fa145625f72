package repositories

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/UTSAV1434/AfterHours/domain"
	apperrors "github.com/UTSAV1434/AfterHours/errors"
	"github.com/UTSAV1434/AfterHours/storage"
)

const timingsKey = "config:timings"

// TimingsRepository stores the single hour-of-day configuration record.
type TimingsRepository struct {
	kv  storage.KV
	log *slog.Logger
}

func NewTimingsRepository(kv storage.KV, log *slog.Logger) TimingsRepository {
	return TimingsRepository{kv: kv, log: log}
}

// Get returns the stored timings, or the defaults when nothing has been
// written yet.
func (r TimingsRepository) Get(ctx context.Context) (domain.Timings, error) {
	value, err := r.kv.Get(ctx, timingsKey)
	if err == storage.ErrKeyNotFound {
		return domain.DefaultTimings(), nil
	}
	if err != nil {
		return domain.Timings{}, apperrors.NewStore("get", err)
	}
	var timings domain.Timings
	if err := json.Unmarshal(value, &timings); err != nil {
		return domain.Timings{}, apperrors.NewStore("decode", err)
	}
	return timings, nil
}

// Set validates the hour range and persists the record.
func (r TimingsRepository) Set(ctx context.Context, timings domain.Timings) error {
	if !timings.Valid() {
		return apperrors.NewValidation("timings", "hours must be 0-23")
	}
	value, err := json.Marshal(timings)
	if err != nil {
		return err
	}
	if err := r.kv.Set(ctx, timingsKey, value); err != nil {
		return apperrors.NewStore("set", err)
	}
	r.log.Info("Timings updated",
		"postingWindowStart", timings.PostingWindowStart,
		"postingWindowEnd", timings.PostingWindowEnd)
	return nil
}

// Package search maintains a Bluge full-text index over the live post
// set. The index is an acceleration structure only: hits are re-checked
// against the retention-filtered feed, so it never resurrects an expired
// post and losing it costs nothing but a reindex.
package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/blugelabs/bluge"

	"github.com/UTSAV1434/AfterHours/domain"
)

type Index struct {
	writer *bluge.Writer
	log    *slog.Logger
}

// Open opens (or creates) the on-disk index at path.
func Open(path string, log *slog.Logger) (*Index, error) {
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(path))
	if err != nil {
		return nil, err
	}
	return &Index{writer: writer, log: log}, nil
}

// OpenInMemory backs the index with memory only. Used by tests.
func OpenInMemory(log *slog.Logger) (*Index, error) {
	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	if err != nil {
		return nil, err
	}
	return &Index{writer: writer, log: log}, nil
}

// IndexPost upserts the post's searchable fields.
func (i *Index) IndexPost(post domain.Post) error {
	doc := bluge.NewDocument(post.ID).
		AddField(bluge.NewTextField("content", post.Content)).
		AddField(bluge.NewTextField("category", post.Category)).
		AddField(bluge.NewDateTimeField("timestamp", time.UnixMilli(post.Timestamp)))
	return i.writer.Update(doc.ID(), doc)
}

// Remove drops the given post ids from the index.
func (i *Index) Remove(ids ...string) error {
	for _, id := range ids {
		doc := bluge.NewDocument(id)
		if err := i.writer.Delete(doc.ID()); err != nil {
			return err
		}
	}
	return nil
}

// Search returns the ids of posts matching the query over content or
// category, best first, capped at limit.
func (i *Index) Search(ctx context.Context, query string, limit int) ([]string, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			i.log.Warn("Error closing index reader", "err", err)
		}
	}()

	q := bluge.NewBooleanQuery().AddShould(
		bluge.NewMatchQuery(query).SetField("content"),
		bluge.NewMatchQuery(query).SetField("category"),
	)
	iter, err := reader.Search(ctx, bluge.NewTopNSearch(limit, q))
	if err != nil {
		return nil, err
	}

	var ids []string
	match, err := iter.Next()
	for err == nil && match != nil {
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				ids = append(ids, string(value))
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		match, err = iter.Next()
	}
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (i *Index) Close() error {
	i.log.Info("Closing search index...")
	return i.writer.Close()
}

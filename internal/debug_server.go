// Package internal hosts operator-facing plumbing that is not part of
// the public API surface: a loopback HTML view over the raw store.
package internal

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/UTSAV1434/AfterHours/domain"
)

//go:embed inspect.html
var templatesFS embed.FS

type InspectRow struct {
	Key       string
	Timestamp string
	Category  string
	Content   string
	Reactions string
}

type PageData struct {
	Prefix string
	Items  []InspectRow
	Stats  map[string]any
}

type StatsProvider func() map[string]any

// StartDebugServer serves a read-only view of the badger keyspace on a
// loopback port. Only wired up when debug logging is enabled; it bypasses
// the retention filter on purpose so expired-but-unpurged records stay
// visible to operators.
func StartDebugServer(db *badger.DB, port int, statsProvider StatsProvider, log *slog.Logger) {
	mux := http.NewServeMux()
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "post:"
		}

		data := PageData{Prefix: prefix, Stats: map[string]any{}}
		if statsProvider != nil {
			data.Stats = statsProvider()
		}

		_ = db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			prefixBytes := []byte(prefix)
			for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
				item := it.Item()
				_ = item.Value(func(value []byte) error {
					data.Items = append(data.Items, toRow(string(item.Key()), value))
					return nil
				})
			}
			return nil
		})

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})

	go func() {
		addr := fmt.Sprintf("127.0.0.1:%d", port)
		log.Info("Debug inspect server listening", "addr", addr, "endpoint", "/inspect")
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Warn("Debug server stopped", "err", err)
		}
	}()
}

func toRow(key string, value []byte) InspectRow {
	var post domain.Post
	if err := json.Unmarshal(value, &post); err != nil || post.ID == "" {
		// Non-post records (reaction maps, timings) show raw JSON.
		return InspectRow{Key: key, Content: string(value)}
	}
	return InspectRow{
		Key:       key,
		Timestamp: time.UnixMilli(post.Timestamp).UTC().Format(time.RFC3339),
		Category:  post.Category,
		Content:   post.Content,
		Reactions: fmt.Sprintf("%v", post.Reactions),
	}
}

// Command kv_inspect dumps the post table of a badger store for quick
// operator checks. The store must not be open elsewhere while this runs.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"

	"github.com/UTSAV1434/AfterHours/domain"
)

type inspectConfig struct {
	Colours bool `envconfig:"INSPECT_COLOURS" default:"true"`
}

func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	prefix := flag.String("prefix", "post:", "Prefix to scan")
	flag.Parse()

	var cfg inspectConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal("Error reading environment: ", err)
	}

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		log.Fatal("Error while opening badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Timestamp", "Category", "Content", "Reactions", "Total"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	rows := 0
	now := time.Now()
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(value []byte) error {
				var post domain.Post
				if err := json.Unmarshal(value, &post); err != nil {
					// Keep going; one bad record should not kill the dump.
					fmt.Printf("Error decoding key %s: %v\n", key, err)
					return nil
				}

				timestamp := time.UnixMilli(post.Timestamp).UTC().Format(time.RFC3339)
				if cfg.Colours && post.Expired(now) {
					timestamp = color.Gray.Sprintf("%s (expired)", timestamp)
				}
				table.Append([]string{
					key,
					timestamp,
					post.Category,
					post.Content,
					fmt.Sprintf("%v", post.Reactions),
					fmt.Sprintf("%d", post.TotalReactions()),
				})
				rows++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("Error while scanning: ", err)
	}

	table.Render()
	if cfg.Colours {
		color.Green.Printf("\n%d record(s) under prefix %q\n", rows, *prefix)
	} else {
		fmt.Printf("\n%d record(s) under prefix %q\n", rows, *prefix)
	}
}

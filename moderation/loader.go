package moderation

import (
	"bufio"
	"bytes"
	"embed"
	"io/fs"
	"strings"

	apperrors "github.com/UTSAV1434/AfterHours/errors"
)

//go:embed blocklist
var blocklistFS embed.FS

// LoadBlocklist reads every .txt file under the embedded blocklist
// directory into a deduplicated term list. Each raw entry is stripped of
// the record separator (the source list began life as a one-column CSV),
// trimmed, lower-cased, and dropped when empty. Happens once per process;
// the result is read-only afterwards.
func LoadBlocklist() ([]string, error) {
	return loadBlocklistFrom(blocklistFS, "blocklist")
}

func loadBlocklistFrom(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	unique := make(map[string]struct{})
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		data, err := fs.ReadFile(fsys, dir+"/"+entry.Name())
		if err != nil {
			return nil, err
		}

		// A scanner handles \n and \r\n alike; the historical list mixed
		// both and the stray \r used to corrupt entries.
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			term := strings.ReplaceAll(scanner.Text(), ",", "")
			term = strings.ToLower(strings.TrimSpace(term))
			if term != "" {
				unique[term] = struct{}{}
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	if len(unique) == 0 {
		return nil, apperrors.ErrEmptyWords
	}

	terms := make([]string, 0, len(unique))
	for term := range unique {
		terms = append(terms, term)
	}
	return terms, nil
}

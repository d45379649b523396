// Package ledger tracks URLs that have already been registered as records.
//
// The backing store is a flat text file with one URL per line. URLs are
// compared after trimming surrounding whitespace only; no case folding and
// no canonicalization, so two URLs differing by query string are distinct.
package ledger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Ledger is an append-only set of processed URLs backed by a file.
type Ledger struct {
	path string
	seen map[string]struct{}
}

// Load reads the ledger file at path. A missing file is not an error: the
// ledger starts empty and the file is created on the first Record call.
func Load(path string) (*Ledger, error) {
	l := &Ledger{
		path: path,
		seen: make(map[string]struct{}),
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}

		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		url := strings.TrimSpace(scanner.Text())
		if url == "" {
			continue
		}

		l.seen[url] = struct{}{}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	return l, nil
}

// Contains reports whether url was already registered.
func (l *Ledger) Contains(url string) bool {
	_, ok := l.seen[strings.TrimSpace(url)]

	return ok
}

// Len returns the number of known URLs.
func (l *Ledger) Len() int {
	return len(l.seen)
}

// Record appends url to the ledger file and the in-memory set. Callers must
// invoke it only after the corresponding record creation has been confirmed;
// recording first would mark an article seen with no record behind it.
func (l *Ledger) Record(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger for append: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(url + "\n"); err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}

	l.seen[url] = struct{}{}

	return nil
}

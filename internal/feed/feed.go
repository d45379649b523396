// Package feed fetches article candidates from RSS/Atom feeds.
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
)

// Item is one article candidate produced by a source. It is transient:
// consumed once by the registration pass and never persisted directly.
type Item struct {
	Title       string
	URL         string
	Summary     string
	PublishedAt time.Time
	Source      string
}

// Fetcher retrieves the latest items from RSS/Atom feeds.
type Fetcher struct {
	parser                *gofeed.Parser
	keepSubdomainSuffixes []string
	logger                *zerolog.Logger
}

func NewFetcher(keepSubdomainSuffixes []string, logger *zerolog.Logger) *Fetcher {
	return &Fetcher{
		parser:                gofeed.NewParser(),
		keepSubdomainSuffixes: keepSubdomainSuffixes,
		logger:                logger,
	}
}

// FetchItems returns up to maxItems of the newest entries of feedURL, in feed
// order. Descriptions are stripped of markup; the source name is the cleaned
// feed domain.
func (f *Fetcher) FetchItems(ctx context.Context, feedURL string, maxItems int) ([]Item, error) {
	parsed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	source := CleanDomain(feedURL, f.keepSubdomainSuffixes)

	entries := parsed.Items
	if maxItems > 0 && len(entries) > maxItems {
		entries = entries[:maxItems]
	}

	items := make([]Item, 0, len(entries))

	for _, entry := range entries {
		content := entry.Description
		if content == "" {
			content = entry.Content
		}

		items = append(items, Item{
			Title:       entry.Title,
			URL:         entry.Link,
			Summary:     StripMarkup(content),
			PublishedAt: entryPublished(entry),
			Source:      source,
		})
	}

	return items, nil
}

func entryPublished(entry *gofeed.Item) time.Time {
	if entry.PublishedParsed != nil {
		return *entry.PublishedParsed
	}

	if entry.UpdatedParsed != nil {
		return *entry.UpdatedParsed
	}

	if entry.Published != "" {
		if t, err := dateparse.ParseAny(entry.Published); err == nil {
			return t
		}
	}

	return time.Time{}
}

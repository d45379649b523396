// Package pipeline orchestrates the two passes of the article workflow:
// registration of fresh feed items and processing of records an editor has
// queued for full analysis.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yutaka-dev/newsnote/internal/blocks"
	"github.com/yutaka-dev/newsnote/internal/feed"
	"github.com/yutaka-dev/newsnote/internal/notion"
)

// RecordStore is the persistence surface the pipeline writes to.
type RecordStore interface {
	CreateRecord(ctx context.Context, fields notion.RecordFields) (*notion.Record, error)
	UpdateStatus(ctx context.Context, record *notion.Record, status notion.Status) error
	QueryByStatus(ctx context.Context, status notion.Status) ([]*notion.Record, error)
	AppendBlocks(ctx context.Context, record *notion.Record, content []blocks.Block) error
}

// FeedSource yields items from one RSS/Atom feed.
type FeedSource interface {
	FetchItems(ctx context.Context, feedURL string, maxItems int) ([]feed.Item, error)
}

// StorySource yields items from the HackerNews front page.
type StorySource interface {
	TopStories(ctx context.Context, maxItems int) ([]feed.Item, error)
}

// ContentFetcher retrieves the readable text of an article page.
type ContentFetcher interface {
	Content(ctx context.Context, rawURL string) (string, error)
}

// Synthesizer is the LLM-backed text generation surface.
type Synthesizer interface {
	Summarize(ctx context.Context, text string) (string, error)
	Categorize(ctx context.Context, title, summary string) string
	TransformTitle(ctx context.Context, title string) string
	ComposeArticleContent(ctx context.Context, content string) (string, error)
}

// URLLedger tracks which article URLs have already been registered.
type URLLedger interface {
	Contains(url string) bool
	Record(url string) error
}

type Config struct {
	Feeds           []string
	MaxItemsPerFeed int
	HackerNewsItems int
	ProcessDelay    time.Duration
	DryRun          bool
}

type Pipeline struct {
	cfg       Config
	store     RecordStore
	feeds     FeedSource
	stories   StorySource
	fetcher   ContentFetcher
	synth     Synthesizer
	ledger    URLLedger
	converter *blocks.Converter
	logger    *zerolog.Logger
}

func New(
	cfg Config,
	store RecordStore,
	feeds FeedSource,
	stories StorySource,
	fetcher ContentFetcher,
	synth Synthesizer,
	ledger URLLedger,
	converter *blocks.Converter,
	logger *zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		store:     store,
		feeds:     feeds,
		stories:   stories,
		fetcher:   fetcher,
		synth:     synth,
		ledger:    ledger,
		converter: converter,
		logger:    logger,
	}
}

type registerStats struct {
	checked    int
	registered int
	skipped    int
	failed     int
}

// RegisterNewArticles collects fresh items from every configured source,
// drops anything already in the ledger, and creates one record per new item.
// Each item is handled independently, so one bad feed or one failed LLM call
// never aborts the run.
func (p *Pipeline) RegisterNewArticles(ctx context.Context) error {
	runID := uuid.NewString()
	logger := p.logger.With().Str("run_id", runID).Logger()

	// Dry run stops here, before any feed, API or store call.
	if p.cfg.DryRun {
		logger.Info().Msg("dry run: registration pass skipped, no external calls made")
		return nil
	}

	logger.Info().Int("feeds", len(p.cfg.Feeds)).Msg("registering new articles")

	var stats registerStats

	for _, feedURL := range p.cfg.Feeds {
		items, err := p.feeds.FetchItems(ctx, feedURL, p.cfg.MaxItemsPerFeed)
		if err != nil {
			logger.Error().Err(err).Str("feed", feedURL).Msg("feed fetch failed")
			continue
		}

		for _, item := range items {
			p.registerItem(ctx, &logger, item, false, &stats)
		}
	}

	if p.stories != nil {
		items, err := p.stories.TopStories(ctx, p.cfg.HackerNewsItems)
		if err != nil {
			logger.Error().Err(err).Msg("hackernews fetch failed")
		} else {
			for _, item := range items {
				p.registerItem(ctx, &logger, item, true, &stats)
			}
		}
	}

	logger.Info().
		Int("checked", stats.checked).
		Int("registered", stats.registered).
		Int("skipped", stats.skipped).
		Int("failed", stats.failed).
		Msg("registration finished")

	return nil
}

// registerItem creates one record. HackerNews items carry no summarizable body,
// so they go straight to Processing for the full-content pass to pick up.
func (p *Pipeline) registerItem(ctx context.Context, logger *zerolog.Logger, item feed.Item, autoProcess bool, stats *registerStats) {
	stats.checked++

	itemLogger := logger.With().Str("url", item.URL).Str("source", item.Source).Logger()

	if item.URL == "" {
		itemLogger.Debug().Str("title", item.Title).Msg("item without url skipped")
		stats.skipped++

		return
	}

	if p.ledger.Contains(item.URL) {
		itemLogger.Debug().Msg("already registered")
		stats.skipped++

		return
	}

	if strings.TrimSpace(item.Summary) == "" {
		itemLogger.Debug().Msg("item without content skipped")
		stats.skipped++

		return
	}

	summary, err := p.synth.Summarize(ctx, item.Summary)
	if err != nil {
		itemLogger.Error().Err(err).Msg("summarization failed")
		stats.failed++

		return
	}

	title := p.synth.TransformTitle(ctx, item.Title)
	category := p.synth.Categorize(ctx, title, summary)

	record, err := p.store.CreateRecord(ctx, notion.RecordFields{
		Title:       title,
		URL:         item.URL,
		Summary:     summary,
		Category:    category,
		Source:      item.Source,
		PublishedAt: item.PublishedAt,
	})
	if err != nil {
		itemLogger.Error().Err(err).Msg("record creation failed")
		stats.failed++

		return
	}

	// Recorded only after the page exists, so a crash in between re-registers
	// the item instead of silently dropping it.
	if err = p.ledger.Record(item.URL); err != nil {
		itemLogger.Error().Err(err).Msg("ledger write failed")
	}

	if autoProcess {
		if err = p.store.UpdateStatus(ctx, record, notion.StatusProcessing); err != nil {
			itemLogger.Error().Err(err).Msg("auto-advance to processing failed")
		}
	}

	itemLogger.Info().Str("title", title).Str("category", category).Msg("registered")
	stats.registered++
}

// ProcessPendingArticles runs the full-content pass over every record at
// Processing: fetch the page, compose the analysis, convert it to blocks and
// append them. A record ends this pass at Completed or Error, never stuck at
// Processing.
func (p *Pipeline) ProcessPendingArticles(ctx context.Context) error {
	runID := uuid.NewString()
	logger := p.logger.With().Str("run_id", runID).Logger()

	if p.cfg.DryRun {
		logger.Info().Msg("dry run: processing pass skipped, no external calls made")
		return nil
	}

	records, err := p.store.QueryByStatus(ctx, notion.StatusProcessing)
	if err != nil {
		return err
	}

	logger.Info().Int("pending", len(records)).Msg("processing pending articles")

	var completed, failed int

	for i, record := range records {
		if i > 0 && p.cfg.ProcessDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.cfg.ProcessDelay):
			}
		}

		if p.processRecord(ctx, &logger, record) {
			completed++
		} else {
			failed++
		}
	}

	logger.Info().Int("completed", completed).Int("failed", failed).Msg("processing finished")

	return nil
}

func (p *Pipeline) processRecord(ctx context.Context, logger *zerolog.Logger, record *notion.Record) bool {
	recordLogger := logger.With().Str("record_id", record.ID).Str("url", record.URL).Logger()

	// Re-affirm the status before doing any work. The write is idempotent
	// and marks the record as picked up by this run.
	if err := p.store.UpdateStatus(ctx, record, notion.StatusProcessing); err != nil {
		recordLogger.Error().Err(err).Msg("processing status re-affirmation failed")
		return false
	}

	if record.URL == "" {
		recordLogger.Error().Msg("record has no url")
		p.markError(ctx, &recordLogger, record)

		return false
	}

	content, err := p.fetcher.Content(ctx, record.URL)
	if err != nil {
		recordLogger.Error().Err(err).Msg("content fetch failed")
		p.markError(ctx, &recordLogger, record)

		return false
	}

	composed, err := p.synth.ComposeArticleContent(ctx, content)
	if err != nil {
		recordLogger.Error().Err(err).Msg("content composition failed")
		p.markError(ctx, &recordLogger, record)

		return false
	}

	converted := p.converter.Convert(composed)

	if err = p.store.AppendBlocks(ctx, record, converted); err != nil {
		recordLogger.Error().Err(err).Msg("block append failed")
		p.markError(ctx, &recordLogger, record)

		return false
	}

	if err = p.store.UpdateStatus(ctx, record, notion.StatusCompleted); err != nil {
		recordLogger.Error().Err(err).Msg("status update failed")
		return false
	}

	recordLogger.Info().Int("blocks", len(converted)).Msg("processed")

	return true
}

func (p *Pipeline) markError(ctx context.Context, logger *zerolog.Logger, record *notion.Record) {
	if err := p.store.UpdateStatus(ctx, record, notion.StatusError); err != nil {
		logger.Error().Err(err).Msg("error status update failed")
	}
}

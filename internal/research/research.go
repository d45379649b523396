// Package research is an LLM research assistant: it sends a query to the
// Perplexity API, shapes the answer into sections and stores it as a
// completed record alongside the pipeline's articles.
package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/yutaka-dev/newsnote/internal/blocks"
	"github.com/yutaka-dev/newsnote/internal/llm"
	"github.com/yutaka-dev/newsnote/internal/notion"
)

const (
	researchMaxTokens   = 8000
	researchTemperature = 0.7

	retryAttempts = 3
	retryDelay    = time.Second

	// maxHistoryTurns bounds the conversation carried into follow-up queries.
	maxHistoryTurns = 10

	summaryMaxRunes = 300
	titleMaxRunes   = 80
)

const researchSourceName = "Perplexity API"

// Gateway is the completion surface the assistant talks to.
type Gateway interface {
	Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (*llm.Result, error)
}

// Categorizer assigns a category to the stored research record.
type Categorizer interface {
	Categorize(ctx context.Context, title, summary string) string
}

// RecordStore persists research results.
type RecordStore interface {
	CreateRecord(ctx context.Context, fields notion.RecordFields) (*notion.Record, error)
	UpdateStatus(ctx context.Context, record *notion.Record, status notion.Status) error
	AppendBlocks(ctx context.Context, record *notion.Record, content []blocks.Block) error
}

// Assistant runs research queries and saves the results. It keeps a bounded
// conversation history, so follow-up queries in interactive mode see the
// earlier exchanges.
type Assistant struct {
	gw          Gateway
	categorizer Categorizer
	store       RecordStore
	converter   *blocks.Converter
	logger      *zerolog.Logger

	history []llm.Message
	sleep   func(time.Duration)
}

func New(gw Gateway, categorizer Categorizer, store RecordStore, converter *blocks.Converter, logger *zerolog.Logger) *Assistant {
	return &Assistant{
		gw:          gw,
		categorizer: categorizer,
		store:       store,
		converter:   converter,
		logger:      logger,
		sleep:       time.Sleep,
	}
}

// Research answers the query and stores the result as a completed record.
func (a *Assistant) Research(ctx context.Context, query string) (*notion.Record, error) {
	a.logger.Info().Str("query", truncateRunes(query, titleMaxRunes)).Msg("running research query")

	answer, err := a.ask(ctx, query)
	if err != nil {
		return nil, err
	}

	a.remember(query, answer)

	sections := ExtractSections(answer)

	title := queryTitle(query)

	summary := sections.ExecutiveSummary
	if summary == "" {
		summary = firstParagraph(answer)
	}

	summary = truncateRunes(summary, summaryMaxRunes)

	category := a.categorizer.Categorize(ctx, title, summary)

	record, err := a.store.CreateRecord(ctx, notion.RecordFields{
		Title:       title,
		Summary:     summary,
		Category:    category,
		Source:      researchSourceName,
		PublishedAt: time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("store research result: %w", err)
	}

	if err = a.store.AppendBlocks(ctx, record, a.converter.Convert(answer)); err != nil {
		a.markError(ctx, record)
		return nil, fmt.Errorf("append research content: %w", err)
	}

	if err = a.store.UpdateStatus(ctx, record, notion.StatusCompleted); err != nil {
		return nil, fmt.Errorf("complete research record: %w", err)
	}

	a.logger.Info().Str("record_id", record.ID).Str("title", title).Msg("research saved")

	return record, nil
}

// ClearHistory drops the conversation carried between queries.
func (a *Assistant) ClearHistory() {
	a.history = nil
}

// ask runs the completion with retries. The delay doubles between attempts.
func (a *Assistant) ask(ctx context.Context, query string) (string, error) {
	messages := a.buildMessages(query)

	var lastErr error

	delay := retryDelay

	for attempt := 1; attempt <= retryAttempts; attempt++ {
		res, err := a.gw.Complete(ctx, messages, llm.Options{
			MaxTokens:   researchMaxTokens,
			Temperature: researchTemperature,
		})
		if err == nil {
			return PostProcess(res.Text), nil
		}

		lastErr = err

		if attempt < retryAttempts {
			a.logger.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("research call failed, retrying")
			a.sleep(delay)
			delay *= 2
		}
	}

	return "", fmt.Errorf("research query failed after %d attempts: %w", retryAttempts, lastErr)
}

func (a *Assistant) buildMessages(query string) []llm.Message {
	messages := make([]llm.Message, 0, len(a.history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: researchSystemPrompt})
	messages = append(messages, a.history...)
	messages = append(messages, llm.Message{
		Role:    llm.RoleUser,
		Content: fmt.Sprintf("対象クエリ: %s\n上記の指示に従い、調査計画及び分析結果を構築してください。", query),
	})

	return messages
}

func (a *Assistant) remember(query, answer string) {
	a.history = append(a.history,
		llm.Message{Role: llm.RoleUser, Content: query},
		llm.Message{Role: llm.RoleAssistant, Content: answer},
	)

	if len(a.history) > maxHistoryTurns {
		a.history = a.history[len(a.history)-maxHistoryTurns:]
	}
}

func (a *Assistant) markError(ctx context.Context, record *notion.Record) {
	if err := a.store.UpdateStatus(ctx, record, notion.StatusError); err != nil {
		a.logger.Error().Err(err).Str("record_id", record.ID).Msg("error status update failed")
	}
}

func queryTitle(query string) string {
	return "Perplexity Analysis: " + truncateRunes(query, titleMaxRunes)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit]) + "..."
}

func firstParagraph(text string) string {
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" || strings.HasPrefix(para, "#") {
			continue
		}

		if len([]rune(para)) > 10 {
			return para
		}
	}

	return ""
}

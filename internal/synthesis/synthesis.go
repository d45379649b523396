// Package synthesis turns article text into summaries, categories and
// multi-section analyses through the LLM gateway. All functions are
// stateless prompts over the gateway.
package synthesis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yutaka-dev/newsnote/internal/llm"
)

const (
	summaryMaxTokens  = 2000
	composeSumTokens  = 1000
	categoryMaxTokens = 10
	titleMaxTokens    = 40
	analysisMaxTokens = 4000
	insightsMaxTokens = 8000

	titleAttempts = 3

	// Inputs beyond this are cut before the detailed-analysis prompt; the
	// provider's own token budget would truncate mid-sentence otherwise.
	analysisInputLimit = 30000

	// CategoryOther is the open-vocabulary fallback label.
	CategoryOther = "Other"

	analysisPlaceholder = "詳細分析を生成できませんでした。"
	insightsPlaceholder = "技術的洞察を生成できませんでした。"
)

// ErrQualityRejected is the quality-gate failure sentinel. It marks degraded
// output, not a provider failure.
var ErrQualityRejected = errors.New("generated content rejected by quality gate")

// Gateway is the completion surface the synthesizer needs.
type Gateway interface {
	Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (*llm.Result, error)
	CompleteWithFallback(ctx context.Context, messages []llm.Message, opts llm.Options) (*llm.Result, error)
}

// Synthesizer owns the fixed prompt sequence of the pipeline.
type Synthesizer struct {
	gw            Gateway
	categories    []string
	sections      []string
	chunkMaxChars int
	logger        *zerolog.Logger
}

func New(gw Gateway, categories, sections []string, chunkMaxChars int, logger *zerolog.Logger) *Synthesizer {
	if chunkMaxChars <= 0 {
		chunkMaxChars = 4000
	}

	return &Synthesizer{
		gw:            gw,
		categories:    categories,
		sections:      sections,
		chunkMaxChars: chunkMaxChars,
		logger:        logger,
	}
}

// Summarize produces a ~200 character Japanese summary in a single call.
// Long inputs truncate implicitly via the provider token budget.
func (s *Synthesizer) Summarize(ctx context.Context, text string) (string, error) {
	return s.summarize(ctx, text, summaryMaxTokens)
}

func (s *Synthesizer) summarize(ctx context.Context, text string, maxTokens int) (string, error) {
	res, err := s.gw.CompleteWithFallback(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: summarySystemPrompt},
		{Role: llm.RoleUser, Content: summaryUserPrompt(text)},
	}, llm.Options{
		MaxTokens:        maxTokens,
		Temperature:      0.7,
		FrequencyPenalty: 0.2,
		PresencePenalty:  0.3,
	})
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}

	return res.Text, nil
}

// Categorize classifies the article against the closed vocabulary. Any label
// the model emits outside the vocabulary is coerced to Other, as is any
// provider failure. A quota error on the primary provider still tries the
// secondary before the coercion kicks in.
func (s *Synthesizer) Categorize(ctx context.Context, title, summary string) string {
	res, err := s.gw.CompleteWithFallback(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: categorySystemPrompt(s.categories)},
		{Role: llm.RoleUser, Content: categoryUserPrompt(title, summary)},
	}, llm.Options{
		MaxTokens:   categoryMaxTokens,
		Temperature: 0.1,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("title", title).Msg("categorization failed")

		return CategoryOther
	}

	label := strings.TrimSpace(res.Text)

	for _, known := range s.categories {
		if label == known {
			return label
		}
	}

	return CategoryOther
}

// TransformTitle rewrites title into a distinct, more impactful one. The
// model occasionally echoes its input; the call is retried up to three times
// for that case and degrades to the original title afterwards. The result is
// never empty.
func (s *Synthesizer) TransformTitle(ctx context.Context, title string) string {
	for attempt := 1; attempt <= titleAttempts; attempt++ {
		res, err := s.gw.CompleteWithFallback(ctx, []llm.Message{
			{Role: llm.RoleSystem, Content: titleSystemPrompt},
			{Role: llm.RoleUser, Content: "Article Title: " + title},
		}, llm.Options{
			MaxTokens:        titleMaxTokens,
			Temperature:      0.55,
			FrequencyPenalty: 0.1,
			PresencePenalty:  0.1,
		})
		if err != nil {
			s.logger.Warn().Err(err).Int("attempt", attempt).Msg("title transform failed")
			continue
		}

		transformed := strings.TrimSpace(res.Text)
		if transformed != "" && transformed != title {
			return transformed
		}

		s.logger.Debug().Int("attempt", attempt).Msg("transformed title identical to original, retrying")
	}

	return title
}

// DetailedAnalysis generates the multi-section Japanese report and runs the
// quality gate over it. On rejection it returns ErrQualityRejected together
// with empty content; callers decide whether to degrade or abort.
func (s *Synthesizer) DetailedAnalysis(ctx context.Context, text string) (string, error) {
	if len([]rune(text)) > analysisInputLimit {
		text = string([]rune(text)[:analysisInputLimit]) + "..."
	}

	res, err := s.gw.CompleteWithFallback(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: analysisSystemPrompt(s.sections)},
		{Role: llm.RoleUser, Content: analysisUserPrompt(text)},
	}, llm.Options{
		MaxTokens:        analysisMaxTokens,
		Temperature:      0.7,
		FrequencyPenalty: 0.1,
		PresencePenalty:  0.1,
	})
	if err != nil {
		return "", fmt.Errorf("detailed analysis: %w", err)
	}

	if verdict := s.ValidateQuality(res.Text); !verdict.OK {
		s.logger.Warn().Str("reason", verdict.Reason).Msg("detailed analysis rejected by quality gate")

		return "", ErrQualityRejected
	}

	return res.Text, nil
}

// Insights generates the insights/questions report. Inputs beyond the chunk
// threshold are split on paragraph boundaries and prompted chunk by chunk
// with a proportionally divided token budget; results concatenate in input
// order.
func (s *Synthesizer) Insights(ctx context.Context, text string) (string, error) {
	if len([]rune(text)) <= s.chunkMaxChars {
		return s.insightsCall(ctx, text, insightsMaxTokens)
	}

	chunks := ChunkText(text, s.chunkMaxChars)
	perChunk := insightsMaxTokens / len(chunks)

	parts := make([]string, 0, len(chunks))

	for i, chunk := range chunks {
		part, err := s.insightsCall(ctx, chunk, perChunk)
		if err != nil {
			return "", fmt.Errorf("insights chunk %d/%d: %w", i+1, len(chunks), err)
		}

		parts = append(parts, part)
	}

	return strings.Join(parts, "\n\n"), nil
}

func (s *Synthesizer) insightsCall(ctx context.Context, text string, maxTokens int) (string, error) {
	res, err := s.gw.CompleteWithFallback(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: insightsSystemPrompt},
		{Role: llm.RoleUser, Content: insightsUserPrompt(text)},
	}, llm.Options{
		MaxTokens:        maxTokens,
		Temperature:      0.7,
		FrequencyPenalty: 0.1,
		PresencePenalty:  0.2,
	})
	if err != nil {
		return "", err
	}

	return res.Text, nil
}

// ComposeArticleContent runs the full deep-analysis sequence over the
// article body and assembles the Markdown document to be appended to the
// record. Detailed-analysis and insights failures degrade to placeholder
// sections; a summary failure aborts.
func (s *Synthesizer) ComposeArticleContent(ctx context.Context, content string) (string, error) {
	summary, err := s.summarize(ctx, content, composeSumTokens)
	if err != nil {
		return "", fmt.Errorf("initial summary: %w", err)
	}

	analysis, err := s.DetailedAnalysis(ctx, content)
	if err != nil {
		s.logger.Warn().Err(err).Msg("continuing with placeholder detailed analysis")

		analysis = analysisPlaceholder
	}

	insights, err := s.Insights(ctx, content)
	if err != nil {
		s.logger.Warn().Err(err).Msg("continuing with placeholder insights")

		insights = insightsPlaceholder
	}

	var sb strings.Builder

	sb.WriteString("## Executive Summary\n")
	sb.WriteString(summary)
	sb.WriteString("\n\n## Detailed Analysis\n")
	sb.WriteString(analysis)
	sb.WriteString("\n\n## Technical Questions and Insights\n")
	sb.WriteString(insights)

	return sb.String(), nil
}

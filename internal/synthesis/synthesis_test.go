package synthesis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yutaka-dev/newsnote/internal/llm"
)

var (
	testCategories = []string{"Blockchain", "AI", "DeFi", "Other"}
	testSections   = []string{"背景と文脈", "技術的概要", "市場への影響", "展望と課題", "結論"}
)

// goodAnalysis passes the quality gate: long, structured, Japanese-heavy.
var goodAnalysis = "## 背景と文脈\n" + strings.Repeat("ブロックチェーン技術の背景について詳しく説明します。", 5) +
	"\n## 結論\n" + strings.Repeat("今後の展望は明るいと考えられます。", 5)

// fakeGateway replays queued responses in order.
type fakeGateway struct {
	responses   []string
	errs        []error
	calls       []llm.Options
	prompts     [][]llm.Message
	viaFallback []bool
}

func (f *fakeGateway) next() (*llm.Result, error) {
	i := len(f.calls) - 1

	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}

	if i < len(f.responses) {
		return &llm.Result{Text: f.responses[i]}, nil
	}

	return &llm.Result{Text: "default"}, nil
}

func (f *fakeGateway) record(messages []llm.Message, opts llm.Options, fallback bool) (*llm.Result, error) {
	f.calls = append(f.calls, opts)
	f.prompts = append(f.prompts, messages)
	f.viaFallback = append(f.viaFallback, fallback)

	return f.next()
}

func (f *fakeGateway) Complete(_ context.Context, messages []llm.Message, opts llm.Options) (*llm.Result, error) {
	return f.record(messages, opts, false)
}

func (f *fakeGateway) CompleteWithFallback(_ context.Context, messages []llm.Message, opts llm.Options) (*llm.Result, error) {
	return f.record(messages, opts, true)
}

func newSynthesizer(gw Gateway) *Synthesizer {
	logger := zerolog.Nop()

	return New(gw, testCategories, testSections, 4000, &logger)
}

func TestSummarize(t *testing.T) {
	gw := &fakeGateway{responses: []string{"短い要約です。"}}
	s := newSynthesizer(gw)

	got, err := s.Summarize(context.Background(), "article text")
	require.NoError(t, err)
	assert.Equal(t, "短い要約です。", got)

	require.Len(t, gw.calls, 1)
	assert.Equal(t, summaryMaxTokens, gw.calls[0].MaxTokens)
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		want     string
	}{
		{name: "known category", response: "DeFi", want: "DeFi"},
		{name: "known with whitespace", response: " AI \n", want: "AI"},
		{name: "unknown label coerced", response: "Quantum", want: CategoryOther},
		{name: "empty-ish response coerced", response: ".", want: CategoryOther},
		{name: "provider error coerced", err: errors.New("boom"), want: CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{responses: []string{tt.response}, errs: []error{tt.err}}
			s := newSynthesizer(gw)

			assert.Equal(t, tt.want, s.Categorize(context.Background(), "title", "summary"))
		})
	}
}

func TestCategorizeUsesFallbackPath(t *testing.T) {
	gw := &fakeGateway{responses: []string{"DeFi"}}
	s := newSynthesizer(gw)

	s.Categorize(context.Background(), "title", "summary")

	// Quota exhaustion on the primary must reach the secondary provider
	// before degrading to Other.
	require.Len(t, gw.viaFallback, 1)
	assert.True(t, gw.viaFallback[0])
}

func TestTransformTitleUsesFallbackPath(t *testing.T) {
	gw := &fakeGateway{responses: []string{"新しいタイトル"}}
	s := newSynthesizer(gw)

	s.TransformTitle(context.Background(), "古いタイトル")

	require.Len(t, gw.viaFallback, 1)
	assert.True(t, gw.viaFallback[0])
}

func TestTransformTitle(t *testing.T) {
	t.Run("distinct output on first attempt", func(t *testing.T) {
		gw := &fakeGateway{responses: []string{"新しいタイトル"}}
		s := newSynthesizer(gw)

		got := s.TransformTitle(context.Background(), "古いタイトル")
		assert.Equal(t, "新しいタイトル", got)
		assert.Len(t, gw.calls, 1)
	})

	t.Run("echoed input retried then distinct", func(t *testing.T) {
		gw := &fakeGateway{responses: []string{"same", "same", "different"}}
		s := newSynthesizer(gw)

		got := s.TransformTitle(context.Background(), "same")
		assert.Equal(t, "different", got)
		assert.Len(t, gw.calls, 3)
	})

	t.Run("all attempts echo, original returned", func(t *testing.T) {
		gw := &fakeGateway{responses: []string{"same", "same", "same"}}
		s := newSynthesizer(gw)

		got := s.TransformTitle(context.Background(), "same")
		assert.Equal(t, "same", got)
		assert.Len(t, gw.calls, titleAttempts)
	})

	t.Run("errors never produce empty title", func(t *testing.T) {
		boom := errors.New("boom")
		gw := &fakeGateway{errs: []error{boom, boom, boom}}
		s := newSynthesizer(gw)

		got := s.TransformTitle(context.Background(), "original")
		assert.Equal(t, "original", got)
	})
}

func TestDetailedAnalysis(t *testing.T) {
	t.Run("accepted output returned", func(t *testing.T) {
		gw := &fakeGateway{responses: []string{goodAnalysis}}
		s := newSynthesizer(gw)

		got, err := s.DetailedAnalysis(context.Background(), "article body")
		require.NoError(t, err)
		assert.Equal(t, goodAnalysis, got)
	})

	t.Run("flat output rejected by gate", func(t *testing.T) {
		gw := &fakeGateway{responses: []string{strings.Repeat("plain ascii text without any structure ", 10)}}
		s := newSynthesizer(gw)

		_, err := s.DetailedAnalysis(context.Background(), "article body")
		assert.True(t, errors.Is(err, ErrQualityRejected))
	})
}

func TestInsightsSingleCall(t *testing.T) {
	gw := &fakeGateway{responses: []string{"洞察と問い"}}
	s := newSynthesizer(gw)

	got, err := s.Insights(context.Background(), "short text")
	require.NoError(t, err)
	assert.Equal(t, "洞察と問い", got)

	require.Len(t, gw.calls, 1)
	assert.Equal(t, insightsMaxTokens, gw.calls[0].MaxTokens)
}

func TestInsightsChunked(t *testing.T) {
	para := strings.Repeat("あ", 3000)
	text := para + "\n\n" + para + "\n\n" + para

	gw := &fakeGateway{responses: []string{"洞察1", "洞察2", "洞察3"}}
	logger := zerolog.Nop()
	s := New(gw, testCategories, testSections, 4000, &logger)

	got, err := s.Insights(context.Background(), text)
	require.NoError(t, err)

	// Results concatenated in original chunk order.
	assert.Equal(t, "洞察1\n\n洞察2\n\n洞察3", got)
	require.Len(t, gw.calls, 3)

	// Token budget divided proportionally across chunks.
	for _, call := range gw.calls {
		assert.Equal(t, insightsMaxTokens/3, call.MaxTokens)
	}
}

func TestComposeArticleContent(t *testing.T) {
	t.Run("full success", func(t *testing.T) {
		gw := &fakeGateway{responses: []string{"要約文", goodAnalysis, "洞察文"}}
		s := newSynthesizer(gw)

		got, err := s.ComposeArticleContent(context.Background(), "body")
		require.NoError(t, err)

		assert.Contains(t, got, "## Executive Summary\n要約文")
		assert.Contains(t, got, "## Detailed Analysis\n"+goodAnalysis)
		assert.Contains(t, got, "## Technical Questions and Insights\n洞察文")
	})

	t.Run("rejected analysis degrades to placeholder", func(t *testing.T) {
		gw := &fakeGateway{responses: []string{"要約文", "too short", "洞察文"}}
		s := newSynthesizer(gw)

		got, err := s.ComposeArticleContent(context.Background(), "body")
		require.NoError(t, err)
		assert.Contains(t, got, analysisPlaceholder)
	})

	t.Run("summary failure aborts", func(t *testing.T) {
		gw := &fakeGateway{errs: []error{errors.New("boom")}}
		s := newSynthesizer(gw)

		_, err := s.ComposeArticleContent(context.Background(), "body")
		assert.Error(t, err)
	})
}

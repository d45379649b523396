package research

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yutaka-dev/newsnote/internal/blocks"
	"github.com/yutaka-dev/newsnote/internal/llm"
	"github.com/yutaka-dev/newsnote/internal/notion"
)

const sampleAnswer = "<think>考え中</think>## Executive Summary\nステーブルコイン市場は拡大しています。\n\n## Key Analysis Points\n- 発行残高の増加\n\n## References\n- https://example.com"

type fakeGateway struct {
	responses []string
	errs      []error
	requests  [][]llm.Message
	opts      []llm.Options
}

func (f *fakeGateway) Complete(_ context.Context, messages []llm.Message, opts llm.Options) (*llm.Result, error) {
	call := len(f.requests)
	f.requests = append(f.requests, messages)
	f.opts = append(f.opts, opts)

	if call < len(f.errs) && f.errs[call] != nil {
		return nil, f.errs[call]
	}

	return &llm.Result{Text: f.responses[call]}, nil
}

type fakeCategorizer struct{ category string }

func (f *fakeCategorizer) Categorize(_ context.Context, _, _ string) string { return f.category }

type fakeStore struct {
	created   []notion.RecordFields
	createErr error
	appended  map[string][]blocks.Block
	appendErr error
	statuses  map[string][]notion.Status
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		appended: make(map[string][]blocks.Block),
		statuses: make(map[string][]notion.Status),
	}
}

func (f *fakeStore) CreateRecord(_ context.Context, fields notion.RecordFields) (*notion.Record, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}

	f.created = append(f.created, fields)

	return &notion.Record{ID: "research-1", Title: fields.Title}, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, record *notion.Record, status notion.Status) error {
	f.statuses[record.ID] = append(f.statuses[record.ID], status)
	return nil
}

func (f *fakeStore) AppendBlocks(_ context.Context, record *notion.Record, content []blocks.Block) error {
	if f.appendErr != nil {
		return f.appendErr
	}

	f.appended[record.ID] = content

	return nil
}

func newAssistant(gw *fakeGateway, store *fakeStore) *Assistant {
	logger := zerolog.Nop()

	a := New(gw, &fakeCategorizer{category: "Market"}, store, blocks.NewConverter(&logger), &logger)
	a.sleep = func(time.Duration) {}

	return a
}

func TestResearchSavesCompletedRecord(t *testing.T) {
	gw := &fakeGateway{responses: []string{sampleAnswer}}
	store := newFakeStore()

	a := newAssistant(gw, store)

	record, err := a.Research(context.Background(), "ステーブルコイン市場の動向")
	require.NoError(t, err)

	require.Len(t, store.created, 1)
	got := store.created[0]
	assert.Equal(t, "Perplexity Analysis: ステーブルコイン市場の動向", got.Title)
	assert.Equal(t, "ステーブルコイン市場は拡大しています。", got.Summary)
	assert.Equal(t, "Market", got.Category)
	assert.Equal(t, "Perplexity API", got.Source)
	assert.Empty(t, got.URL)

	require.NotEmpty(t, store.appended[record.ID])
	assert.Equal(t, blocks.TypeHeading, store.appended[record.ID][0].Type)
	assert.Equal(t, []notion.Status{notion.StatusCompleted}, store.statuses[record.ID])

	// The thinking block never reaches storage.
	for _, b := range store.appended[record.ID] {
		assert.NotContains(t, b.PlainText(), "考え中")
	}
}

func TestResearchRetriesOnFailure(t *testing.T) {
	gw := &fakeGateway{
		responses: []string{"", "", sampleAnswer},
		errs:      []error{errors.New("timeout"), errors.New("timeout"), nil},
	}
	store := newFakeStore()

	a := newAssistant(gw, store)

	_, err := a.Research(context.Background(), "query")
	require.NoError(t, err)
	assert.Len(t, gw.requests, 3)
}

func TestResearchGivesUpAfterRetries(t *testing.T) {
	boom := errors.New("service unavailable")
	gw := &fakeGateway{
		responses: []string{"", "", ""},
		errs:      []error{boom, boom, boom},
	}
	store := newFakeStore()

	a := newAssistant(gw, store)

	_, err := a.Research(context.Background(), "query")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, gw.requests, 3)
	assert.Empty(t, store.created)
}

func TestResearchCarriesBoundedHistory(t *testing.T) {
	responses := make([]string, 8)
	for i := range responses {
		responses[i] = sampleAnswer
	}

	gw := &fakeGateway{responses: responses}
	store := newFakeStore()

	a := newAssistant(gw, store)

	for i := 0; i < 8; i++ {
		_, err := a.Research(context.Background(), "follow-up")
		require.NoError(t, err)
	}

	// system + bounded history + current user turn
	last := gw.requests[len(gw.requests)-1]
	assert.Len(t, last, 1+maxHistoryTurns+1)
	assert.Equal(t, llm.RoleSystem, last[0].Role)
	assert.Equal(t, llm.RoleUser, last[len(last)-1].Role)
}

func TestResearchAppendFailureMarksError(t *testing.T) {
	gw := &fakeGateway{responses: []string{sampleAnswer}}
	store := newFakeStore()
	store.appendErr = errors.New("notion 500")

	a := newAssistant(gw, store)

	_, err := a.Research(context.Background(), "query")
	require.Error(t, err)
	assert.Equal(t, []notion.Status{notion.StatusError}, store.statuses["research-1"])
}

func TestResearchTitleTruncation(t *testing.T) {
	long := make([]rune, 120)
	for i := range long {
		long[i] = 'あ'
	}

	title := queryTitle(string(long))
	assert.Equal(t, "Perplexity Analysis: "+string(long[:80])+"...", title)
}

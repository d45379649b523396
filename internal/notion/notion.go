// Package notion adapts the external Notion database as the record store of
// the pipeline: one page per article, with a status property driving the
// two-pass workflow.
package notion

import (
	"context"
	"fmt"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"

	"github.com/yutaka-dev/newsnote/internal/blocks"
)

// Database property names. These match the Notion database schema.
const (
	propTitle     = "Name"
	propURL       = "URL"
	propSummary   = "Summary"
	propCategory  = "Category"
	propSource    = "Source"
	propPublished = "Published Date"
	propStatus    = "AI Processing"
)

// RecordFields is the typed field set of a new record.
type RecordFields struct {
	Title       string
	URL         string
	Summary     string
	Category    string
	Source      string
	PublishedAt time.Time
}

// Record is a handle to one stored page.
type Record struct {
	ID    string
	Title string
	URL   string
}

// Store creates, updates and queries article records.
type Store struct {
	client     *notionapi.Client
	databaseID notionapi.DatabaseID
	logger     *zerolog.Logger
}

func NewStore(token, databaseID string, logger *zerolog.Logger) *Store {
	return &Store{
		client:     notionapi.NewClient(notionapi.Token(token)),
		databaseID: notionapi.DatabaseID(databaseID),
		logger:     logger,
	}
}

// CreateRecord creates a page for the article, always at NotStarted.
func (s *Store) CreateRecord(ctx context.Context, fields RecordFields) (*Record, error) {
	properties := notionapi.Properties{
		propTitle: notionapi.TitleProperty{
			Title: []notionapi.RichText{{Text: &notionapi.Text{Content: fields.Title}}},
		},
		propSummary: notionapi.RichTextProperty{
			RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: fields.Summary}}},
		},
		propCategory: notionapi.SelectProperty{Select: notionapi.Option{Name: fields.Category}},
		propSource:   notionapi.SelectProperty{Select: notionapi.Option{Name: fields.Source}},
		propStatus:   notionapi.SelectProperty{Select: notionapi.Option{Name: string(StatusNotStarted)}},
	}

	// Research records have no source URL.
	if fields.URL != "" {
		properties[propURL] = notionapi.URLProperty{URL: fields.URL}
	}

	if !fields.PublishedAt.IsZero() {
		start := notionapi.Date(fields.PublishedAt)
		properties[propPublished] = notionapi.DateProperty{Date: &notionapi.DateObject{Start: &start}}
	}

	page, err := s.client.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: s.databaseID,
		},
		Properties: properties,
	})
	if err != nil {
		return nil, fmt.Errorf("create record %q: %w", fields.Title, err)
	}

	return &Record{ID: string(page.ID), Title: fields.Title, URL: fields.URL}, nil
}

// UpdateStatus moves the record to status.
func (s *Store) UpdateStatus(ctx context.Context, record *Record, status Status) error {
	_, err := s.client.Page.Update(ctx, notionapi.PageID(record.ID), &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{
			propStatus: notionapi.SelectProperty{Select: notionapi.Option{Name: string(status)}},
		},
	})
	if err != nil {
		return fmt.Errorf("update status of %s to %s: %w", record.ID, status, err)
	}

	return nil
}

// QueryByStatus returns all records currently at status.
func (s *Store) QueryByStatus(ctx context.Context, status Status) ([]*Record, error) {
	var records []*Record

	var cursor notionapi.Cursor

	for {
		resp, err := s.client.Database.Query(ctx, s.databaseID, &notionapi.DatabaseQueryRequest{
			Filter: notionapi.PropertyFilter{
				Property: propStatus,
				Select:   &notionapi.SelectFilterCondition{Equals: string(status)},
			},
			StartCursor: cursor,
		})
		if err != nil {
			return nil, fmt.Errorf("query records by status %s: %w", status, err)
		}

		for i := range resp.Results {
			records = append(records, pageToRecord(&resp.Results[i]))
		}

		if !resp.HasMore {
			break
		}

		cursor = resp.NextCursor
	}

	return records, nil
}

// AppendBlocks appends converted content blocks to the record's page.
func (s *Store) AppendBlocks(ctx context.Context, record *Record, content []blocks.Block) error {
	if len(content) == 0 {
		return fmt.Errorf("no content blocks to append to %s", record.ID)
	}

	children := make([]notionapi.Block, 0, len(content))
	for _, b := range content {
		children = append(children, toNotionBlock(b))
	}

	_, err := s.client.Block.AppendChildren(ctx, notionapi.BlockID(record.ID), &notionapi.AppendBlockChildrenRequest{
		Children: children,
	})
	if err != nil {
		return fmt.Errorf("append %d blocks to %s: %w", len(children), record.ID, err)
	}

	s.logger.Debug().Str("record_id", record.ID).Int("blocks", len(children)).Msg("appended content blocks")

	return nil
}

func pageToRecord(page *notionapi.Page) *Record {
	record := &Record{ID: string(page.ID)}

	if prop, ok := page.Properties[propTitle].(*notionapi.TitleProperty); ok {
		for _, rt := range prop.Title {
			record.Title += rt.PlainText
		}
	}

	if prop, ok := page.Properties[propURL].(*notionapi.URLProperty); ok {
		record.URL = prop.URL
	}

	return record
}

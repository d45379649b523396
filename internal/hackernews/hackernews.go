// Package hackernews fetches top stories from the HackerNews Firebase API.
package hackernews

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/yutaka-dev/newsnote/internal/feed"
)

const (
	DefaultBaseURL = "https://hacker-news.firebaseio.com/v0"

	requestTimeout = 10 * time.Second

	// The API returns up to 500 ids; fetch extra so that items dropped for
	// missing fields still leave enough valid stories.
	overfetchFactor = 3
)

type story struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Text        string `json:"text"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	Time        int64  `json:"time"`
}

// Client reads top stories and their details.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zerolog.Logger
}

func NewClient(baseURL string, logger *zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}
}

// TopStories returns up to maxItems valid top stories as article candidates.
// Stories without a title are skipped; stories without an URL fall back to
// their news.ycombinator.com discussion page.
func (c *Client) TopStories(ctx context.Context, maxItems int) ([]feed.Item, error) {
	ids, err := c.topStoryIDs(ctx, maxItems*overfetchFactor)
	if err != nil {
		return nil, err
	}

	items := make([]feed.Item, 0, maxItems)

	for _, id := range ids {
		if len(items) >= maxItems {
			break
		}

		s, err := c.storyDetails(ctx, id)
		if err != nil {
			c.logger.Warn().Err(err).Int("story_id", id).Msg("failed to fetch story details")
			continue
		}

		if s.Title == "" {
			continue
		}

		items = append(items, storyToItem(s))
	}

	return items, nil
}

func (c *Client) topStoryIDs(ctx context.Context, limit int) ([]int, error) {
	var ids []int
	if err := c.getJSON(ctx, c.baseURL+"/topstories.json", &ids); err != nil {
		return nil, fmt.Errorf("fetch top stories: %w", err)
	}

	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	return ids, nil
}

func (c *Client) storyDetails(ctx context.Context, id int) (*story, error) {
	s := &story{}
	if err := c.getJSON(ctx, fmt.Sprintf("%s/item/%d.json", c.baseURL, id), s); err != nil {
		return nil, fmt.Errorf("fetch story %d: %w", id, err)
	}

	return s, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func storyToItem(s *story) feed.Item {
	storyURL := s.URL
	if storyURL == "" {
		storyURL = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", s.ID)
	}

	summary := strings.TrimSpace(feed.StripMarkup(s.Text))
	if summary == "" {
		// Ask HN / Show HN style items often carry no text at all.
		summary = fmt.Sprintf("HackerNews discussion with %d comments and %d points.", s.Descendants, s.Score)
	}

	var published time.Time
	if s.Time > 0 {
		published = time.Unix(s.Time, 0).UTC()
	}

	return feed.Item{
		Title:       s.Title,
		URL:         storyURL,
		Summary:     summary,
		PublishedAt: published,
		Source:      sourceDomain(storyURL),
	}
}

func sourceDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "Unknown"
	}

	return strings.TrimPrefix(u.Hostname(), "www.")
}

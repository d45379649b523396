// Package fetch retrieves the full text of an article page.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

const (
	maxBodyBytes    = 10 * 1024 * 1024
	maxRedirects    = 10
	truncationMark  = "...[truncated due to length]"
	defaultTimeout  = 10 * time.Second
	defaultMaxChars = 50000
)

var (
	errTooManyRedirects = errors.New("too many redirects")
	errHTTPStatus       = errors.New("unexpected HTTP status")

	// ErrNoContent means the page yielded no usable article text. The
	// processing pass treats it as a hard failure for the record.
	ErrNoContent = errors.New("no article content extracted")
)

// Fetcher downloads a page and extracts readable article text.
type Fetcher struct {
	httpClient *http.Client
	maxChars   int
	logger     *zerolog.Logger
}

func NewFetcher(timeout time.Duration, maxChars int, logger *zerolog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return errTooManyRedirects
				}

				return nil
			},
		},
		maxChars: maxChars,
		logger:   logger,
	}
}

// Content returns the readable text of the page at rawURL. Texts longer than
// the configured limit are cut with a truncation marker appended. Returns
// ErrNoContent when nothing extractable was found.
func (f *Fetcher) Content(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %d from %s", errHTTPStatus, resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	text := extractText(body, u)
	if text == "" {
		return "", ErrNoContent
	}

	return f.truncate(text), nil
}

// extractText runs readability and falls back to joining <p> elements when
// the reader-mode extraction finds nothing.
func extractText(body []byte, u *url.URL) string {
	article, err := readability.FromReader(strings.NewReader(string(body)), u)
	if err == nil {
		if text := strings.TrimSpace(article.TextContent); text != "" {
			return text
		}
	}

	return strings.TrimSpace(paragraphText(body))
}

func paragraphText(body []byte) string {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return ""
	}

	var paragraphs []string

	var traverse func(*html.Node)

	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "p" {
			if text := strings.TrimSpace(nodeText(n)); text != "" {
				paragraphs = append(paragraphs, text)
			}

			return
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}

	traverse(doc)

	return strings.Join(paragraphs, "\n")
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}

	var sb strings.Builder

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(nodeText(c))
	}

	return sb.String()
}

func (f *Fetcher) truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= f.maxChars {
		return text
	}

	f.logger.Info().Int("chars", len(runes)).Int("limit", f.maxChars).Msg("content too long, truncating")

	return string(runes[:f.maxChars]) + truncationMark
}

package feed

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// StripMarkup removes HTML tags from s and returns the remaining text in
// document order. Block structure is not reconstructed.
func StripMarkup(s string) string {
	if s == "" {
		return ""
	}

	var sb strings.Builder

	tokenizer := html.NewTokenizer(strings.NewReader(s))

	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}

		if tt == html.TextToken {
			sb.Write(tokenizer.Text())
		}
	}

	return strings.TrimSpace(sb.String())
}

// CleanDomain derives the source name from rawURL: the host with a leading
// "www." removed. Hosts ending in one of keepSuffixes keep their subdomain
// because it identifies the publisher (hosted-newsletter platforms).
func CleanDomain(rawURL string, keepSuffixes []string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "Unknown"
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")

	for _, suffix := range keepSuffixes {
		if strings.HasSuffix(host, suffix) {
			return host
		}
	}

	// Collapse to the bare registrable domain: keep the last two labels.
	labels := strings.Split(host, ".")
	if len(labels) > 2 {
		host = strings.Join(labels[len(labels)-2:], ".")
	}

	return host
}

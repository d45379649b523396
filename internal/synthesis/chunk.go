package synthesis

import "strings"

// ChunkText splits text into pieces of at most maxChars runes without ever
// splitting a paragraph (blank-line separated). Order is preserved, no
// paragraph is dropped or merged across a boundary. A single paragraph
// longer than maxChars becomes its own oversized chunk rather than being
// truncated.
func ChunkText(text string, maxChars int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []string

	var current strings.Builder

	currentLen := 0

	flush := func() {
		if currentLen == 0 {
			return
		}

		chunks = append(chunks, strings.TrimSpace(current.String()))
		current.Reset()
		currentLen = 0
	}

	for _, paragraph := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(paragraph) == "" {
			continue
		}

		paraLen := len([]rune(paragraph))

		// The joiner between paragraphs counts against the budget too.
		if currentLen > 0 && currentLen+2+paraLen > maxChars {
			flush()
		}

		if currentLen > 0 {
			currentLen += 2
		}

		current.WriteString(paragraph)
		current.WriteString("\n\n")
		currentLen += paraLen
	}

	flush()

	return chunks
}

package blocks

import (
	"strings"

	"github.com/rs/zerolog"
)

// lineKind classifies one input line.
type lineKind int

const (
	lineBlank lineKind = iota
	lineHeading
	lineBullet
	lineNumbered
	linePlain
)

// Converter turns Markdown text into blocks.
type Converter struct {
	logger *zerolog.Logger
}

func NewConverter(logger *zerolog.Logger) *Converter {
	return &Converter{logger: logger}
}

// Convert parses content line by line. Consecutive plain-text lines merge
// into a single paragraph joined by line breaks. Output is truncated at
// MaxBlocks with a logged warning; truncation is lossy but never an error.
func (c *Converter) Convert(content string) []Block {
	var out []Block

	var paragraph []string

	flushParagraph := func() {
		if len(paragraph) == 0 {
			return
		}

		text := strings.Join(paragraph, "\n")
		out = append(out, Block{Type: TypeParagraph, Spans: ParseSpans(text)})
		paragraph = nil
	}

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)

		switch classifyLine(line) {
		case lineBlank:
			flushParagraph()
		case lineHeading:
			flushParagraph()

			level, text := splitHeading(line)
			out = append(out, Heading(level, text))
		case lineBullet:
			flushParagraph()

			text := strings.TrimSpace(strings.TrimPrefix(line, "- "))
			out = append(out, Block{Type: TypeBulletItem, Spans: ParseSpans(text)})
		case lineNumbered:
			flushParagraph()

			_, text := splitNumbered(line)
			out = append(out, Block{Type: TypeNumberedItem, Spans: ParseSpans(text)})
		case linePlain:
			paragraph = append(paragraph, line)
		}
	}

	flushParagraph()

	if len(out) > MaxBlocks {
		c.logger.Warn().
			Int("blocks", len(out)).
			Int("cap", MaxBlocks).
			Msg("content exceeds block cap, truncating")

		out = out[:MaxBlocks]
	}

	return out
}

func classifyLine(line string) lineKind {
	switch {
	case line == "":
		return lineBlank
	case isHeadingLine(line):
		return lineHeading
	case strings.HasPrefix(line, "- "):
		return lineBullet
	case isNumberedLine(line):
		return lineNumbered
	default:
		return linePlain
	}
}

// isHeadingLine matches one or more leading '#' followed by a space.
func isHeadingLine(line string) bool {
	i := 0
	for i < len(line) && line[i] == '#' {
		i++
	}

	return i > 0 && i < len(line) && line[i] == ' '
}

// splitHeading returns the heading level (leading '#' count, capped at 3 by
// Heading) and the title text.
func splitHeading(line string) (int, string) {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}

	return level, strings.TrimSpace(line[level:])
}

// isNumberedLine matches a "digits, period, space" prefix.
func isNumberedLine(line string) bool {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}

	return i > 0 && i+1 < len(line) && line[i] == '.' && line[i+1] == ' '
}

func splitNumbered(line string) (string, string) {
	dot := strings.Index(line, ". ")

	return line[:dot], strings.TrimSpace(line[dot+2:])
}

package blocks

import "strings"

// inlineMatch is one recognized inline pattern occurrence.
type inlineMatch struct {
	start int // byte offset of the opening marker
	end   int // byte offset just past the closing marker
	span  Span
}

// ParseSpans scans text left to right for inline formatting. At each step
// the earliest-starting match among bold, italic, link and code wins; the
// shortest non-overlapping occurrence of each pattern is used. Plain runs
// between matches become unformatted spans.
func ParseSpans(text string) []Span {
	var spans []Span

	pos := 0

	for pos < len(text) {
		m := earliestMatch(text, pos)
		if m == nil {
			spans = append(spans, Span{Text: text[pos:]})
			break
		}

		if m.start > pos {
			spans = append(spans, Span{Text: text[pos:m.start]})
		}

		spans = append(spans, m.span)
		pos = m.end
	}

	if len(spans) == 0 && text != "" {
		spans = []Span{{Text: text}}
	}

	return spans
}

// finders in tie-break order: equal start positions resolve to the earlier
// entry, matching the pattern precedence bold, italic, link, code.
var finders = []func(string, int) *inlineMatch{
	findBold,
	findItalic,
	findLink,
	findCode,
}

func earliestMatch(text string, from int) *inlineMatch {
	var best *inlineMatch

	for _, find := range finders {
		m := find(text, from)
		if m == nil {
			continue
		}

		if best == nil || m.start < best.start {
			best = m
		}
	}

	return best
}

func findBold(text string, from int) *inlineMatch {
	return findDelimited(text, from, "**", func(inner string) Span {
		return Span{Text: inner, Bold: true}
	})
}

func findItalic(text string, from int) *inlineMatch {
	return findDelimited(text, from, "_", func(inner string) Span {
		return Span{Text: inner, Italic: true}
	})
}

func findCode(text string, from int) *inlineMatch {
	return findDelimited(text, from, "`", func(inner string) Span {
		return Span{Text: inner, Code: true}
	})
}

// findDelimited locates the next delim pair with non-empty content between,
// taking the closest closing marker so the match is the shortest possible.
func findDelimited(text string, from int, delim string, build func(string) Span) *inlineMatch {
	search := from

	for search < len(text) {
		open := strings.Index(text[search:], delim)
		if open < 0 {
			return nil
		}

		open += search
		innerStart := open + len(delim)

		closing := strings.Index(text[innerStart:], delim)
		if closing < 0 {
			return nil
		}

		if closing == 0 {
			// Empty content ("****"), keep scanning past the opener.
			search = innerStart
			continue
		}

		inner := text[innerStart : innerStart+closing]

		return &inlineMatch{
			start: open,
			end:   innerStart + closing + len(delim),
			span:  build(inner),
		}
	}

	return nil
}

// findLink matches [display](target). Display text and target URL stay in
// separate span fields.
func findLink(text string, from int) *inlineMatch {
	search := from

	for search < len(text) {
		open := strings.Index(text[search:], "[")
		if open < 0 {
			return nil
		}

		open += search

		closeBracket := strings.Index(text[open+1:], "]")
		if closeBracket < 0 {
			return nil
		}

		closeBracket += open + 1

		display := text[open+1 : closeBracket]
		if display == "" || closeBracket+1 >= len(text) || text[closeBracket+1] != '(' {
			search = open + 1
			continue
		}

		closeParen := strings.Index(text[closeBracket+2:], ")")
		if closeParen < 0 {
			search = open + 1
			continue
		}

		closeParen += closeBracket + 2

		target := text[closeBracket+2 : closeParen]
		if target == "" {
			search = open + 1
			continue
		}

		return &inlineMatch{
			start: open,
			end:   closeParen + 1,
			span:  Span{Text: display, LinkURL: target},
		}
	}

	return nil
}

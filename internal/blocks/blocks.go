// Package blocks converts a constrained Markdown dialect into an ordered
// tree of typed content blocks for the document store.
//
// Supported constructs: headings levels 1-3, bulleted and numbered list
// items, paragraphs, and the inline spans bold, italic, code and link.
package blocks

// Type tags a content block.
type Type string

const (
	TypeHeading      Type = "heading"
	TypeBulletItem   Type = "bullet_item"
	TypeNumberedItem Type = "numbered_item"
	TypeParagraph    Type = "paragraph"
)

// Span is a run of text with uniform inline formatting. LinkURL is kept
// separate from the display text, never concatenated into it.
type Span struct {
	Text    string
	Bold    bool
	Italic  bool
	Code    bool
	LinkURL string
}

// Block is one node of the converted document.
type Block struct {
	Type  Type
	Level int // headings only, 1-3
	Spans []Span
}

// MaxBlocks is the hard cap per append operation, a downstream storage
// constraint. Excess blocks are dropped with a warning, never silently.
const MaxBlocks = 100

// Heading builds a heading block. Levels outside 1-3 are clamped.
func Heading(level int, text string) Block {
	if level < 1 {
		level = 1
	}

	if level > 3 {
		level = 3
	}

	return Block{Type: TypeHeading, Level: level, Spans: []Span{{Text: text}}}
}

// PlainText joins the text of all spans, ignoring formatting.
func (b Block) PlainText() string {
	var out string
	for _, s := range b.Spans {
		out += s.Text
	}

	return out
}

package notion

import (
	"github.com/jomei/notionapi"

	"github.com/yutaka-dev/newsnote/internal/blocks"
)

func toNotionBlock(b blocks.Block) notionapi.Block {
	richText := toRichText(b.Spans)

	switch b.Type {
	case blocks.TypeHeading:
		return headingBlock(b.Level, richText)
	case blocks.TypeBulletItem:
		return notionapi.BulletedListItemBlock{
			BasicBlock: notionapi.BasicBlock{
				Object: notionapi.ObjectTypeBlock,
				Type:   notionapi.BlockTypeBulletedListItem,
			},
			BulletedListItem: notionapi.ListItem{RichText: richText},
		}
	case blocks.TypeNumberedItem:
		return notionapi.NumberedListItemBlock{
			BasicBlock: notionapi.BasicBlock{
				Object: notionapi.ObjectTypeBlock,
				Type:   notionapi.BlockTypeNumberedListItem,
			},
			NumberedListItem: notionapi.ListItem{RichText: richText},
		}
	default:
		return notionapi.ParagraphBlock{
			BasicBlock: notionapi.BasicBlock{
				Object: notionapi.ObjectTypeBlock,
				Type:   notionapi.BlockTypeParagraph,
			},
			Paragraph: notionapi.Paragraph{RichText: richText},
		}
	}
}

func headingBlock(level int, richText []notionapi.RichText) notionapi.Block {
	switch level {
	case 1:
		return notionapi.Heading1Block{
			BasicBlock: notionapi.BasicBlock{
				Object: notionapi.ObjectTypeBlock,
				Type:   notionapi.BlockTypeHeading1,
			},
			Heading1: notionapi.Heading{RichText: richText},
		}
	case 2:
		return notionapi.Heading2Block{
			BasicBlock: notionapi.BasicBlock{
				Object: notionapi.ObjectTypeBlock,
				Type:   notionapi.BlockTypeHeading2,
			},
			Heading2: notionapi.Heading{RichText: richText},
		}
	default:
		return notionapi.Heading3Block{
			BasicBlock: notionapi.BasicBlock{
				Object: notionapi.ObjectTypeBlock,
				Type:   notionapi.BlockTypeHeading3,
			},
			Heading3: notionapi.Heading{RichText: richText},
		}
	}
}

func toRichText(spans []blocks.Span) []notionapi.RichText {
	richText := make([]notionapi.RichText, 0, len(spans))

	for _, span := range spans {
		text := &notionapi.Text{Content: span.Text}
		if span.LinkURL != "" {
			text.Link = &notionapi.Link{Url: span.LinkURL}
		}

		rt := notionapi.RichText{Text: text}
		if span.Bold || span.Italic || span.Code {
			rt.Annotations = &notionapi.Annotations{
				Bold:   span.Bold,
				Italic: span.Italic,
				Code:   span.Code,
			}
		}

		richText = append(richText, rt)
	}

	return richText
}

package synthesis

import (
	"fmt"
	"strings"
)

const summarySystemPrompt = "あなたは優秀なプロのブロックチェーンリサーチャー兼テクニカルライターです。"

func summaryUserPrompt(text string) string {
	return "以下の文章を200文字程度の日本語で要約をしてください。\n\n文章:\n" + text
}

func categorySystemPrompt(categories []string) string {
	return "与えられた記事を既存のカテゴリーに分類してください。\n\n" +
		"【ルール】\n" +
		"1. 以下のカテゴリーのいずれかに75%以上の確信度で分類できる場合のみ、そのカテゴリーを選択\n" +
		"2. それ以外の場合は、必ず「Other」を返す\n" +
		"3. カテゴリー名のみを出力（説明等は一切付けない）\n\n" +
		"【有効なカテゴリー】\n" + strings.Join(categories, ", ")
}

func categoryUserPrompt(title, summary string) string {
	return fmt.Sprintf("タイトル: %s\n要約: %s", title, summary)
}

const titleSystemPrompt = "You are a skilled editor. Follow these rules to transform the article title:\n" +
	"1. Always transform the given article title into a new, more attractive, impressive, and concise title.\n" +
	"2. The output must contain only the transformed title, with no additional prefixes, descriptions, or the original title.\n" +
	"3. The transformed result must not be identical to the original title; generate a completely new title.\n" +
	"4. Even if the input title is already good, you must perform the transformation.\n" +
	"Please provide the output entirely in Japanese."

// analysisSystemPrompt builds the detailed-analysis instructions around the
// configured section headings. The headings are product configuration, not a
// fixed contract.
func analysisSystemPrompt(sections []string) string {
	var sb strings.Builder

	sb.WriteString("# Role and Expertise\n")
	sb.WriteString("You are an expert analyst specializing in blockchain, cryptocurrency, and AI technologies. Your analysis is known for:\n")
	sb.WriteString("- Exceptional depth and clarity when explaining complex technical concepts\n")
	sb.WriteString("- Identifying the most significant aspects of innovations and developments\n")
	sb.WriteString("- Connecting technological advancements to business implications and market trends\n")
	sb.WriteString("- Providing balanced perspectives on advantages, limitations, and future potentials\n\n")
	sb.WriteString("# Output Format\n")
	sb.WriteString("Your analysis must be in Japanese, structured with exactly the following sections, in order, each introduced by a level-2 Markdown heading:\n\n")

	for _, section := range sections {
		sb.WriteString("## " + section + "\n")
	}

	sb.WriteString("\nImportant: Your analysis should be informative, insightful, and nuanced - never promotional or superficial.")

	return sb.String()
}

func analysisUserPrompt(text string) string {
	return "Analyze the following article and create a comprehensive, structured summary according to the specified format. " +
		"Ensure your output is in Japanese, well-structured, and provides valuable insights for readers interested in blockchain, cryptocurrency, or AI technologies.\n\n" +
		"Article text:\n" + text +
		"\n\nRemember to maintain a balanced perspective, discussing both strengths and limitations, while providing context that helps readers understand the significance of the topic."
}

const insightsSystemPrompt = "You are an experienced analyst. Please extract insights from the article and generate thought-provoking questions. " +
	"Ensure that the output is entirely in Japanese."

func insightsUserPrompt(text string) string {
	return "Article Content:\n" + text
}

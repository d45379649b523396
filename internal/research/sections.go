package research

import (
	"strings"
)

const researchSystemPrompt = `あなたは市場分析の専門家です。ユーザーのクエリに対して徹底した調査タスクを実施し、調査計画と詳細な分析を行ってください。

次のステップを実施してください。
1. 問題の本質を分解し、重要な要素を整理する。
2. 適切な調査手法を選定し、根拠となるデータや文献を統合する。
3. 分析結果を以下の形式で出力してください：

## Executive Summary
（要約を500文字程度で記述）

## Key Analysis Points
（重要な分析ポイントを箇条書きで記述）

## Insights
（市場洞察や示唆を箇条書きで記述）

## References
（参考文献やURLを箇条書きで記述）

※各セクションは必ず見出し（##)から始めてください。
※思考プロセスは <think>タグで囲んでください。`

// Sections is the structured view of a research answer.
type Sections struct {
	ExecutiveSummary string
	KeyPoints        string
	Insights         string
	References       string
}

// PostProcess normalizes a raw research answer into clean Markdown: drops the
// model's thinking tags, rewrites setext headings and stray bullet markers
// into the forms the block converter understands, and collapses runs of blank
// lines.
func PostProcess(content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}

	content = stripTagged(content, "<think>", "</think>")
	content = stripTagged(content, "<s>", "</s>")

	lines := strings.Split(content, "\n")

	out := make([]string, 0, len(lines))
	blankRun := 0

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// Setext heading: underline promotes the previous line.
		if isUnderline(trimmed, '=') {
			if len(out) > 0 && strings.TrimSpace(out[len(out)-1]) != "" {
				out[len(out)-1] = "# " + strings.TrimSpace(out[len(out)-1])
			}

			continue
		}

		if isUnderline(trimmed, '-') {
			// Under a text line it is a setext heading, otherwise a
			// horizontal rule to drop.
			if len(out) > 0 && strings.TrimSpace(out[len(out)-1]) != "" {
				out[len(out)-1] = "## " + strings.TrimSpace(out[len(out)-1])
			}

			continue
		}

		if trimmed == "" {
			blankRun++
			if blankRun > 1 {
				continue
			}

			out = append(out, "")

			continue
		}

		blankRun = 0

		if strings.HasPrefix(trimmed, "* ") {
			trimmed = "- " + trimmed[2:]
		} else if strings.HasPrefix(trimmed, "• ") {
			trimmed = "- " + strings.TrimPrefix(trimmed, "• ")
		}

		out = append(out, trimmed)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

// ExtractSections splits a processed answer into its named sections. Heading
// names are matched loosely, including the misspellings the models actually
// produce. When no known heading is present the first paragraph stands in for
// the summary and the rest becomes the key points.
func ExtractSections(content string) Sections {
	var sections Sections

	assign := func(name, body string) {
		switch {
		case name == "executive summary":
			sections.ExecutiveSummary = body
		case strings.HasPrefix(name, "key analysis point"):
			sections.KeyPoints = body
		case name == "insights" || name == "insight" || name == "market insights" || name == "market insight":
			sections.Insights = body
		case name == "references" || name == "reference" || name == "refrence" || name == "参考文献":
			sections.References = body
		}
	}

	var currentName string

	var body []string

	flush := func() {
		if currentName != "" {
			assign(currentName, strings.TrimSpace(strings.Join(body, "\n")))
		}

		body = body[:0]
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "#") {
			flush()

			currentName = strings.ToLower(strings.TrimSpace(strings.TrimLeft(trimmed, "#")))

			continue
		}

		body = append(body, line)
	}

	flush()

	if sections == (Sections{}) {
		paragraphs := strings.SplitN(strings.TrimSpace(content), "\n\n", 2)
		sections.ExecutiveSummary = strings.TrimSpace(paragraphs[0])

		if len(paragraphs) > 1 {
			sections.KeyPoints = strings.TrimSpace(paragraphs[1])
		}
	}

	return sections
}

// stripTagged removes every open..close segment, including the tags. An
// unterminated open tag drops the rest of the text, the same way an
// unterminated thinking block is unusable.
func stripTagged(text, open, closing string) string {
	var b strings.Builder

	for {
		start := strings.Index(text, open)
		if start < 0 {
			b.WriteString(text)
			break
		}

		b.WriteString(text[:start])

		rest := text[start+len(open):]

		end := strings.Index(rest, closing)
		if end < 0 {
			break
		}

		text = rest[end+len(closing):]
	}

	return b.String()
}

func isUnderline(line string, ch byte) bool {
	if len(line) < 3 {
		return false
	}

	for i := 0; i < len(line); i++ {
		if line[i] != ch {
			return false
		}
	}

	return true
}

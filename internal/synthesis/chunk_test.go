package synthesis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkTextEmpty(t *testing.T) {
	assert.Nil(t, ChunkText("", 100))
	assert.Nil(t, ChunkText("   \n\n  ", 100))
}

func TestChunkTextSingleChunk(t *testing.T) {
	text := "para one\n\npara two"

	chunks := ChunkText(text, 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, "para one\n\npara two", chunks[0])
}

func TestChunkTextSplitsOnParagraphBoundaries(t *testing.T) {
	p1 := strings.Repeat("a", 60)
	p2 := strings.Repeat("b", 60)
	p3 := strings.Repeat("c", 60)

	chunks := ChunkText(p1+"\n\n"+p2+"\n\n"+p3, 100)
	require.Len(t, chunks, 3)
	assert.Equal(t, p1, chunks[0])
	assert.Equal(t, p2, chunks[1])
	assert.Equal(t, p3, chunks[2])
}

func TestChunkTextFidelity(t *testing.T) {
	paragraphs := []string{
		"最初の段落です。" + strings.Repeat("内容", 20),
		"二番目の段落。" + strings.Repeat("詳細", 30),
		"三番目。",
		strings.Repeat("四番目の長い段落。", 15),
		"最後の段落。",
	}

	chunks := ChunkText(strings.Join(paragraphs, "\n\n"), 80)
	require.NotEmpty(t, chunks)

	// Reassembling chunk paragraphs reconstructs the original sequence:
	// nothing dropped, reordered, or merged across a boundary.
	var got []string
	for _, chunk := range chunks {
		got = append(got, strings.Split(chunk, "\n\n")...)
	}

	assert.Equal(t, paragraphs, got)
}

func TestChunkTextOversizedParagraph(t *testing.T) {
	huge := strings.Repeat("x", 500)

	chunks := ChunkText("small\n\n"+huge+"\n\nother", 100)
	require.Len(t, chunks, 3)

	// The oversized paragraph is its own chunk, never truncated.
	assert.Equal(t, huge, chunks[1])
}

func TestChunkTextBudget(t *testing.T) {
	var paragraphs []string
	for i := 0; i < 20; i++ {
		paragraphs = append(paragraphs, strings.Repeat("y", 30))
	}

	for _, chunk := range ChunkText(strings.Join(paragraphs, "\n\n"), 100) {
		// The full chunk, separators included, stays within the budget.
		assert.LessOrEqual(t, len([]rune(chunk)), 100)
	}
}

func TestChunkTextBudgetCountsSeparators(t *testing.T) {
	// 49 + 2 (joiner) + 50 = 101 runes: one rune over budget, so the
	// paragraphs must land in separate chunks.
	text := strings.Repeat("a", 49) + "\n\n" + strings.Repeat("b", 50)

	chunks := ChunkText(text, 100)
	require.Len(t, chunks, 2)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), 100)
	}
}

package synthesis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateQuality(t *testing.T) {
	s := newSynthesizer(&fakeGateway{})

	tests := []struct {
		name    string
		content string
		wantOK  bool
	}{
		{
			name:    "empty",
			content: "",
			wantOK:  false,
		},
		{
			name:    "whitespace only",
			content: "  \n\t ",
			wantOK:  false,
		},
		{
			name:    "too short",
			content: "## 背景と文脈\n短い。",
			wantOK:  false,
		},
		{
			name:    "no structure",
			content: strings.Repeat("構造のない日本語の文章が続きます。", 20),
			wantOK:  false,
		},
		{
			name:    "ascii heavy",
			content: "## intro\n" + strings.Repeat("plain english filler text ", 20),
			wantOK:  false,
		},
		{
			name:    "well formed report",
			content: goodAnalysis,
			wantOK:  true,
		},
		{
			name:    "section anchor without heading marker",
			content: "背景と文脈: " + strings.Repeat("この記事は重要な技術動向を扱っています。", 10),
			wantOK:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := s.ValidateQuality(tt.content)
			assert.Equal(t, tt.wantOK, verdict.OK, verdict.Reason)

			if !tt.wantOK {
				assert.NotEmpty(t, verdict.Reason)
			}
		})
	}
}

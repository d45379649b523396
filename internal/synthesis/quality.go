package synthesis

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	minContentLength = 100

	// Generated output is Japanese-dominant; a low share of non-ASCII runes
	// is a proxy for encoding corruption or an English-only degenerate
	// answer.
	minNonASCIIRatio = 0.1
)

// Verdict is the quality-gate result. It is a returned value, not an error:
// rejection marks degraded output the caller may still choose to use.
type Verdict struct {
	OK     bool
	Reason string
}

func accept() Verdict {
	return Verdict{OK: true}
}

func reject(reason string) Verdict {
	return Verdict{OK: false, Reason: reason}
}

// ValidateQuality is a heuristic circuit breaker around unverifiable LLM
// output. It rejects empty, too-short, structurally flat, or suspiciously
// ASCII-heavy content.
func (s *Synthesizer) ValidateQuality(content string) Verdict {
	content = norm.NFC.String(content)

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return reject("empty content")
	}

	runes := []rune(trimmed)
	if len(runes) < minContentLength {
		return reject(fmt.Sprintf("content too short: %d runes (min %d)", len(runes), minContentLength))
	}

	if !s.hasStructure(trimmed) {
		return reject("content lacks structure: no headings or expected section anchors")
	}

	nonASCII := 0

	for _, r := range runes {
		if r > 127 {
			nonASCII++
		}
	}

	if float64(nonASCII) < float64(len(runes))*minNonASCIIRatio {
		return reject("content may have encoding issues: too few non-ASCII runes")
	}

	return accept()
}

func (s *Synthesizer) hasStructure(content string) bool {
	if strings.Contains(content, "##") {
		return true
	}

	for _, section := range s.sections {
		if strings.Contains(content, section) {
			return true
		}
	}

	return false
}

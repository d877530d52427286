// Package sanitize implements the prompt sanitizer (C3): the pipeline every
// document text fragment passes through before it enters an LLM template.
package sanitize

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Pattern is a pre-compiled injection-trigger pattern with its label.
type Pattern struct {
	Label string
	Regex *regexp.Regexp
}

// builtinPatterns mirrors the categories in spec.md §4.3: override
// imperatives, role hijacks, template-delimiter tokens, system-prompt
// exfiltration, environment/secret disclosure, code-injection keywords.
// Compiled once at package init, the same "compile eagerly, skip on error"
// discipline the masking service uses for its own pattern table.
var builtinPatterns = compilePatterns(map[string]string{
	"override_imperative":  `(?i)\b(ignore|disregard|forget)\s+(all\s+)?(previous|prior|above|earlier)\s+(instructions|prompts|rules)\b`,
	"role_hijack":          `(?i)\byou\s+are\s+now\s+(a|an)\b|\bact\s+as\s+(if\s+you\s+are\s+)?\b|\bsystem\s*:\s*you\s+are\b`,
	"template_delimiter":   `(\{\{.*?\}\}|\[\[.*?\]\]|<\|.*?\|>)`,
	"system_prompt_leak":   `(?i)\b(reveal|print|show|output|repeat)\s+(your|the)\s+(system\s+prompt|instructions)\b`,
	"secret_disclosure":    `(?i)\b(api[_ -]?key|secret|password|token|credential)s?\s*(=|:)\s*\S+`,
	"code_injection":       `(?i)\b(import\s+os|subprocess\.|eval\(|exec\(|os\.system)\b`,
})

func compilePatterns(raw map[string]string) []Pattern {
	patterns := make([]Pattern, 0, len(raw))
	for label, expr := range raw {
		compiled, err := regexp.Compile(expr)
		if err != nil {
			slog.Error("failed to compile sanitizer pattern, skipping", "pattern", label, "error", err)
			continue
		}
		patterns = append(patterns, Pattern{Label: label, Regex: compiled})
	}
	return patterns
}

const (
	// MaxTokenLength truncates any single whitespace-delimited token longer
	// than this, per spec.md §4.3.
	MaxTokenLength = 500
	// MaxTotalLength caps the cleaned text's total length.
	MaxTotalLength = 8000
)

var delimiterRunRe = regexp.MustCompile(`([-=_*#~\x60]{6,})`)

// Result is the sanitizer's output: {cleaned_text, was_modified,
// threats_found[], truncated} from spec.md §4.3.
type Result struct {
	CleanedText  string
	WasModified  bool
	ThreatsFound []string
	Truncated    bool
}

// Sanitizer runs the full pipeline against document text before it is
// interpolated into any LLM prompt template.
type Sanitizer struct {
	patterns []Pattern
}

func New() *Sanitizer {
	return &Sanitizer{patterns: builtinPatterns}
}

// Clean runs NFC normalization, strips zero-width/control characters,
// redacts injection patterns, collapses delimiter runs, truncates
// over-long tokens, and caps total length. sourceDocID is logged alongside
// any detected threat for traceability.
func (s *Sanitizer) Clean(text string, sourceDocID string) Result {
	original := text
	cleaned := norm.NFC.String(text)
	cleaned = stripZeroWidthAndControl(cleaned)

	var threats []string
	for _, p := range s.patterns {
		if p.Regex.MatchString(cleaned) {
			threats = append(threats, p.Label)
			cleaned = p.Regex.ReplaceAllString(cleaned, "[REDACTED:"+p.Label+"]")
		}
	}

	cleaned = delimiterRunRe.ReplaceAllString(cleaned, "[REDACTED:delimiter_run]")

	truncated := false
	cleaned, tokensTruncated := truncateLongTokens(cleaned, MaxTokenLength)
	truncated = truncated || tokensTruncated

	if len(cleaned) > MaxTotalLength {
		cleaned = cleaned[:MaxTotalLength]
		truncated = true
	}

	if len(threats) > 0 {
		slog.Warn("prompt sanitizer found threats", "document_id", sourceDocID, "threats", threats)
	}

	return Result{
		CleanedText:  cleaned,
		WasModified:  cleaned != original,
		ThreatsFound: threats,
		Truncated:    truncated,
	}
}

func stripZeroWidthAndControl(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '​', '‌', '‍', '﻿', '⁠':
			continue
		}
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func truncateLongTokens(s string, maxLen int) (string, bool) {
	fields := strings.Fields(s)
	truncated := false
	for i, f := range fields {
		if len(f) > maxLen {
			fields[i] = f[:maxLen] + "[TRUNCATED]"
			truncated = true
		}
	}
	return strings.Join(fields, " "), truncated
}

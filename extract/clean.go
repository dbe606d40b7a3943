// Package extract normalises raw document text before classification and
// field extraction. Broker statements are line-oriented: the extractors
// downstream reason about individual lines, so normalisation preserves
// newlines while stripping everything invisible.
package extract

import (
	"regexp"
	"strings"
)

// CleanText normalises extracted text. It removes zero-width and
// bidirectional-control characters, drops non-printing control characters,
// collapses horizontal whitespace inside each line, and trims every line.
// The result is stable: applying CleanText twice returns the same string.
func CleanText(text string) string {
	text = strings.Map(dropInvisible, text)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRunRe.ReplaceAllString(line, " "))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Lines splits normalised text into trimmed, non-empty lines.
func Lines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// StripInvisible removes the characters CleanText filters without touching
// layout. Filename sanitisation uses it so that a zero-width or RTL-override
// character can never survive into a generated name.
func StripInvisible(s string) string {
	return strings.Map(dropInvisible, s)
}

var spaceRunRe = regexp.MustCompile("[ \t ]+")

func dropInvisible(r rune) rune {
	switch r {
	// Zero-width space, non-joiner, joiner, BOM, soft hyphen.
	case '​', '‌', '‍', '﻿', '­':
		return -1
	case '\r':
		// CRLF and bare CR both reduce to the LF handling in CleanText.
		return -1
	}
	// Bidirectional embedding, override, and isolate marks.
	if (r >= '‪' && r <= '‮') || (r >= '⁦' && r <= '⁩') {
		return -1
	}
	if r < 0x20 && r != '\n' && r != '\t' {
		return -1
	}
	if r >= 0x7f && r <= 0x9f {
		return -1
	}
	return r
}

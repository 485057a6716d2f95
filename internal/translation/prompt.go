package translation

import (
	"strconv"
	"strings"
	"unicode"
)

// numberLines renders texts as "1. text" lines, numbering from 1 within the chunk.
func numberLines(texts []string) string {
	var b strings.Builder
	for i, text := range texts {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(text)
	}
	return b.String()
}

func primaryPrompt(languageName, numbered string) string {
	return "Translate the following subtitles into " + languageName + ".\n" +
		"Keep the original numbering, one line per subtitle, and output nothing else.\n" +
		"Ensure the translation is natural and contextually appropriate.\n\n" +
		numbered
}

func fallbackPrompt(languageName, numbered string) string {
	return "Translate these subtitles to " + languageName + ":\n" + numbered
}

// parseReply splits a model reply into non-blank trimmed lines and strips an
// echoed "N." prefix from each.
func parseReply(reply string) []string {
	raw := strings.Split(reply, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, stripNumbering(line))
	}
	return lines
}

// stripNumbering drops the first space-separated token when it is a number,
// optionally followed by dots ("3", "3.", "3.."). Only the first space is
// consumed, so "3.  text" keeps its extra leading space.
func stripNumbering(line string) string {
	first, rest, _ := strings.Cut(line, " ")
	if isDigits(strings.TrimRight(first, ".")) {
		return rest
	}
	return line
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

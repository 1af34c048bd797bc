// Package textstats computes simple counts over page text.
package textstats

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// CountWord returns how many times word occurs in text as a whole word,
// ignoring case. Word boundaries are only required at ends of word that
// are themselves word characters, so "c++" still matches in "c++ and".
// An empty word never matches.
func CountWord(text, word string) int {
	word = strings.TrimSpace(word)
	if word == "" {
		return 0
	}

	expr := `(?i)` + regexp.QuoteMeta(word)
	if isWordByte(word[0]) {
		expr = `(?i)\b` + regexp.QuoteMeta(word)
	}
	if isWordByte(word[len(word)-1]) {
		expr += `\b`
	}

	pattern := regexp.MustCompile(expr)
	return len(pattern.FindAllStringIndex(text, -1))
}

// isWordByte matches the ASCII word class used by \b.
func isWordByte(b byte) bool {
	return b == '_' ||
		('0' <= b && b <= '9') ||
		('a' <= b && b <= 'z') ||
		('A' <= b && b <= 'Z')
}

// CharCount returns the number of characters (runes) in text.
func CharCount(text string) int {
	return utf8.RuneCountInString(text)
}

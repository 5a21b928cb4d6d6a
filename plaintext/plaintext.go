// Package plaintext derives plain-text previews from serialized rich text.
package plaintext

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	openingTag = regexp.MustCompile(`<[A-Za-z][^>]*>`)
	anyTag     = regexp.MustCompile(`<[^>]*>`)
	whitespace = regexp.MustCompile(`\s+`)
)

// ContainsTags reports whether text contains an opening HTML tag.
func ContainsTags(text string) bool {
	return openingTag.MatchString(text)
}

// StripTags removes tags, collapses whitespace runs to a single space and trims.
// Text without an opening tag is returned unchanged.
func StripTags(text string) string {
	if !ContainsTags(text) {
		return text
	}
	out := anyTag.ReplaceAllString(text, "")
	out = whitespace.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// Preview strips tags and truncates to maxRunes runes, appending an ellipsis
// when shortened. maxRunes <= 0 disables truncation.
func Preview(text string, maxRunes int) string {
	out := StripTags(text)
	if maxRunes <= 0 || utf8.RuneCountInString(out) <= maxRunes {
		return out
	}
	runes := []rune(out)
	return strings.TrimRight(string(runes[:maxRunes]), " ") + "…"
}

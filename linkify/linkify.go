// Package linkify infers the URI scheme a user meant when typing a link.
package linkify

import "strings"

// Kind classifies user-entered link text.
type Kind string

const (
	// Empty means the text was blank after trimming.
	Empty Kind = "empty"
	// AlreadySchemed means the text already carried a scheme and is returned unchanged.
	AlreadySchemed Kind = "schemed"
	// Email means the text looked like an address and gained a mailto: prefix.
	Email Kind = "email"
	// Phone means the text looked like a phone number and gained a tel: prefix.
	Phone Kind = "phone"
	// URL means the text was treated as a web address and gained an https:// prefix.
	URL Kind = "url"
)

const (
	mailtoPrefix = "mailto:"
	telPrefix    = "tel:"
	httpPrefix   = "http://"
	httpsPrefix  = "https://"

	minPhoneDigits = 6
)

// Result is the classification of one input.
type Result struct {
	Kind  Kind
	Value string
}

// Classify infers the scheme for text and returns the normalized link.
// Rules apply in order and the first match wins: blank, already schemed,
// email, phone, then web URL.
func Classify(text string) Result {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Result{Kind: Empty}
	}
	if strings.Contains(trimmed, "://") ||
		strings.HasPrefix(trimmed, mailtoPrefix) ||
		strings.HasPrefix(trimmed, telPrefix) {
		return Result{Kind: AlreadySchemed, Value: trimmed}
	}
	if isEmail(trimmed) {
		return Result{Kind: Email, Value: mailtoPrefix + trimmed}
	}
	if isPhone(trimmed) {
		return Result{Kind: Phone, Value: telPrefix + trimmed}
	}
	if !strings.HasPrefix(trimmed, httpPrefix) && !strings.HasPrefix(trimmed, httpsPrefix) {
		return Result{Kind: URL, Value: httpsPrefix + trimmed}
	}
	return Result{Kind: AlreadySchemed, Value: trimmed}
}

// Normalize is Classify without the kind.
func Normalize(text string) string {
	return Classify(text).Value
}

func isEmail(text string) bool {
	at := strings.IndexByte(text, '@')
	if at < 0 {
		return false
	}
	return strings.IndexByte(text[at+1:], '.') >= 0
}

func isPhone(text string) bool {
	digits := 0
	for i, r := range text {
		if i == 0 && !(isDigit(r) || r == '+' || r == '(') {
			return false
		}
		switch {
		case isDigit(r):
			digits++
		case r == '+', r == '(', r == ')', r == '-', r == '.', r == ' ':
		default:
			return false
		}
	}
	return digits >= minPhoneDigits
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

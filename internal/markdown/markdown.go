// Package markdown imports a small markdown subset as editor HTML.
package markdown

import (
	"html"
	"strconv"
	"strings"

	"pkt.systems/inkbridge/linkify"
)

// Span is a run of inline text sharing one set of marks.
type Span struct {
	Text   string
	Bold   bool
	Italic bool
	Code   bool
	// Link is the normalized target when the span is a link label.
	Link string
}

// ParseInline splits input into styled spans. Supported markers are
// **bold**, *italic*, `code` and [label](target); a backslash escapes the
// next byte. Unclosed markers are kept as literal text.
func ParseInline(input string) []Span {
	if input == "" {
		return nil
	}
	var spans []Span
	var buf strings.Builder
	var bold, italic, code bool

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		spans = append(spans, Span{Text: buf.String(), Bold: bold, Italic: italic, Code: code})
		buf.Reset()
	}

	for i := 0; i < len(input); {
		ch := input[i]
		switch {
		case ch == '\\' && !code && i+1 < len(input):
			buf.WriteByte(input[i+1])
			i += 2
			continue
		case ch == '`':
			if code || strings.Contains(input[i+1:], "`") {
				flush()
				code = !code
				i++
				continue
			}
		case code:
		case strings.HasPrefix(input[i:], "**"):
			if bold || hasUnescaped(input[i+2:], "**") {
				flush()
				bold = !bold
				i += 2
				continue
			}
			buf.WriteString("**")
			i += 2
			continue
		case ch == '*':
			if italic || hasUnescaped(input[i+1:], "*") {
				flush()
				italic = !italic
				i++
				continue
			}
		case ch == '[':
			if label, target, n, ok := parseLink(input[i:]); ok {
				flush()
				spans = append(spans, Span{Text: label, Bold: bold, Italic: italic, Link: linkify.Normalize(target)})
				i += n
				continue
			}
		}
		buf.WriteByte(ch)
		i++
	}
	flush()
	return spans
}

// hasUnescaped reports whether marker occurs in s outside a backslash escape.
func hasUnescaped(s, marker string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if strings.HasPrefix(s[i:], marker) {
			return true
		}
	}
	return false
}

// parseLink matches [label](target) at the start of s and returns the
// number of bytes consumed.
func parseLink(s string) (label, target string, n int, ok bool) {
	closeLabel := strings.Index(s, "](")
	if closeLabel < 1 {
		return "", "", 0, false
	}
	label = s[1:closeLabel]
	if strings.ContainsAny(label, "[]\n") {
		return "", "", 0, false
	}
	rest := s[closeLabel+2:]
	closeTarget := strings.IndexByte(rest, ')')
	if closeTarget < 1 {
		return "", "", 0, false
	}
	target = strings.TrimSpace(rest[:closeTarget])
	if target == "" || strings.ContainsAny(target, " \n") {
		return "", "", 0, false
	}
	return label, target, closeLabel + 2 + closeTarget + 1, true
}

// InlineHTML renders inline markdown as escaped HTML.
func InlineHTML(input string) string {
	var b strings.Builder
	for _, span := range ParseInline(input) {
		writeSpan(&b, span)
	}
	return b.String()
}

func writeSpan(b *strings.Builder, span Span) {
	if span.Link != "" {
		b.WriteString(`<a href="`)
		b.WriteString(html.EscapeString(span.Link))
		b.WriteString(`">`)
	}
	if span.Bold {
		b.WriteString("<strong>")
	}
	if span.Italic {
		b.WriteString("<em>")
	}
	if span.Code {
		b.WriteString("<code>")
	}
	b.WriteString(html.EscapeString(span.Text))
	if span.Code {
		b.WriteString("</code>")
	}
	if span.Italic {
		b.WriteString("</em>")
	}
	if span.Bold {
		b.WriteString("</strong>")
	}
	if span.Link != "" {
		b.WriteString("</a>")
	}
}

type listKind int

const (
	noList listKind = iota
	bulletList
	orderedList
)

// ToHTML converts markdown into the block structure the editor produces:
// paragraphs, ATX headings, bullet and ordered lists, blockquotes, fenced
// code blocks and horizontal rules.
func ToHTML(src string) string {
	lines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")
	var b strings.Builder
	var para, quote []string
	list := noList

	flushPara := func() {
		if len(para) > 0 {
			b.WriteString("<p>")
			b.WriteString(InlineHTML(strings.Join(para, " ")))
			b.WriteString("</p>")
			para = nil
		}
	}
	flushQuote := func() {
		if len(quote) > 0 {
			b.WriteString("<blockquote><p>")
			b.WriteString(InlineHTML(strings.Join(quote, " ")))
			b.WriteString("</p></blockquote>")
			quote = nil
		}
	}
	closeList := func() {
		switch list {
		case bulletList:
			b.WriteString("</ul>")
		case orderedList:
			b.WriteString("</ol>")
		}
		list = noList
	}
	flushAll := func() {
		flushPara()
		flushQuote()
		closeList()
	}

	for i := 0; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], " \t")
		trimmed := strings.TrimLeft(line, " ")

		if strings.HasPrefix(trimmed, "```") {
			flushAll()
			var code []string
			for i++; i < len(lines); i++ {
				if strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
					break
				}
				code = append(code, lines[i])
			}
			b.WriteString("<pre><code>")
			b.WriteString(html.EscapeString(strings.Join(code, "\n")))
			b.WriteString("</code></pre>")
			continue
		}
		if trimmed == "" {
			flushAll()
			continue
		}
		if isRule(trimmed) {
			flushAll()
			b.WriteString("<hr>")
			continue
		}
		if level, text, ok := heading(trimmed); ok {
			flushAll()
			tag := "h" + strconv.Itoa(level)
			b.WriteString("<" + tag + ">")
			b.WriteString(InlineHTML(text))
			b.WriteString("</" + tag + ">")
			continue
		}
		if text, ok := strings.CutPrefix(trimmed, ">"); ok {
			flushPara()
			closeList()
			quote = append(quote, strings.TrimSpace(text))
			continue
		}
		if kind, text, ok := listItem(trimmed); ok {
			flushPara()
			flushQuote()
			if kind != list {
				closeList()
				if kind == bulletList {
					b.WriteString("<ul>")
				} else {
					b.WriteString("<ol>")
				}
				list = kind
			}
			b.WriteString("<li>")
			b.WriteString(InlineHTML(text))
			b.WriteString("</li>")
			continue
		}
		flushQuote()
		closeList()
		para = append(para, trimmed)
	}
	flushAll()
	return b.String()
}

func isRule(line string) bool {
	compact := strings.ReplaceAll(line, " ", "")
	if len(compact) < 3 {
		return false
	}
	marker := compact[0]
	if marker != '-' && marker != '*' && marker != '_' {
		return false
	}
	return strings.Count(compact, string(marker)) == len(compact)
}

func heading(line string) (int, string, bool) {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 6 || level == len(line) || line[level] != ' ' {
		return 0, "", false
	}
	return level, strings.TrimSpace(strings.TrimRight(line[level:], "#")), true
}

func listItem(line string) (listKind, string, bool) {
	if len(line) > 2 && (line[0] == '-' || line[0] == '*' || line[0] == '+') && line[1] == ' ' {
		return bulletList, strings.TrimSpace(line[2:]), true
	}
	digits := 0
	for digits < len(line) && line[digits] >= '0' && line[digits] <= '9' {
		digits++
	}
	if digits > 0 && digits+1 < len(line) && (line[digits] == '.' || line[digits] == ')') && line[digits+1] == ' ' {
		return orderedList, strings.TrimSpace(line[digits+2:]), true
	}
	return noList, "", false
}

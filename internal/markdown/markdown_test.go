package markdown

import (
	"reflect"
	"testing"
)

func TestParseInline(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Span
	}{
		{name: "empty", input: "", want: nil},
		{name: "plain", input: "hello", want: []Span{{Text: "hello"}}},
		{
			name:  "marks",
			input: "a **bold** and *ital* and `code`",
			want: []Span{
				{Text: "a "},
				{Text: "bold", Bold: true},
				{Text: " and "},
				{Text: "ital", Italic: true},
				{Text: " and "},
				{Text: "code", Code: true},
			},
		},
		{name: "escape", input: `\*not italic\*`, want: []Span{{Text: "*not italic*"}}},
		{name: "unclosed-bold", input: "a **b", want: []Span{{Text: "a **b"}}},
		{name: "lone-star", input: "2 * 3", want: []Span{{Text: "2 * 3"}}},
		{name: "escaped-closer", input: `*a \* b`, want: []Span{{Text: "*a * b"}}},
		{name: "escaped-bold-closer", input: `**a \*\* b`, want: []Span{{Text: "**a ** b"}}},
		{name: "closer-after-escape", input: `*a \* b*`, want: []Span{{Text: "a * b", Italic: true}}},
		{name: "code-keeps-markers", input: "`**raw**`", want: []Span{{Text: "**raw**", Code: true}}},
		{
			name:  "link",
			input: "see [docs](example.com/docs) now",
			want: []Span{
				{Text: "see "},
				{Text: "docs", Link: "https://example.com/docs"},
				{Text: " now"},
			},
		},
		{name: "mail-link", input: "[mail](me@example.com)", want: []Span{{Text: "mail", Link: "mailto:me@example.com"}}},
		{name: "bold-link", input: "**[x](https://a.b)**", want: []Span{{Text: "x", Bold: true, Link: "https://a.b"}}},
		{name: "not-link", input: "[x] (y)", want: []Span{{Text: "[x] (y)"}}},
	}
	for _, tc := range tests {
		got := ParseInline(tc.input)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: ParseInline(%q) = %#v, want %#v", tc.name, tc.input, got, tc.want)
		}
	}
}

func TestInlineHTMLEscapes(t *testing.T) {
	got := InlineHTML(`**<b>** & [q](https://x.y/?a=1&b="2")`)
	want := `<strong>&lt;b&gt;</strong> &amp; <a href="https://x.y/?a=1&amp;b=&#34;2&#34;">q</a>`
	if got != want {
		t.Fatalf("InlineHTML = %q, want %q", got, want)
	}
}

func TestToHTML(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "empty", src: "", want: ""},
		{name: "paragraphs", src: "one\ntwo\n\nthree", want: "<p>one two</p><p>three</p>"},
		{name: "heading", src: "## Title ##\nbody", want: "<h2>Title</h2><p>body</p>"},
		{name: "not-heading", src: "#tag", want: "<p>#tag</p>"},
		{name: "bullets", src: "- a\n- **b**\n\ntext", want: "<ul><li>a</li><li><strong>b</strong></li></ul><p>text</p>"},
		{name: "ordered", src: "1. a\n2) b", want: "<ol><li>a</li><li>b</li></ol>"},
		{name: "switch-list", src: "- a\n1. b", want: "<ul><li>a</li></ul><ol><li>b</li></ol>"},
		{name: "quote", src: "> a\n> b", want: "<blockquote><p>a b</p></blockquote>"},
		{name: "rule", src: "a\n\n---\nb", want: "<p>a</p><hr><p>b</p>"},
		{name: "fence", src: "```go\nx := <y>\n```\nafter", want: "<pre><code>x := &lt;y&gt;</code></pre><p>after</p>"},
		{name: "crlf", src: "a\r\nb", want: "<p>a b</p>"},
	}
	for _, tc := range tests {
		if got := ToHTML(tc.src); got != tc.want {
			t.Fatalf("%s: ToHTML(%q) = %q, want %q", tc.name, tc.src, got, tc.want)
		}
	}
}

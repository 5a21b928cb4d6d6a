package wire

import (
	"errors"
	"testing"

	"pkt.systems/inkbridge/schema"
)

func TestEscapeOrder(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "hello", want: "hello"},
		{name: "quote", in: "it's", want: `it\'s`},
		{name: "backslash", in: `a\b`, want: `a\\b`},
		{name: "escaped-quote-input", in: `\'`, want: `\\\'`},
		{name: "newline", in: "a\nb", want: `a\nb`},
		{name: "carriage-return", in: "a\r\nb", want: `a\r\nb`},
		{name: "literal-backslash-n", in: `a\nb`, want: `a\\nb`},
		{name: "html", in: `<p class="x">Hi</p>`, want: `<p class="x">Hi</p>`},
	}
	for _, tc := range tests {
		if got := Escape(tc.in); got != tc.want {
			t.Fatalf("%s: Escape(%q) = %q, want %q", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestEncode(t *testing.T) {
	link := "https://example.com/it's"
	empty := ""
	alt := "a\ncat"
	tests := []struct {
		name string
		cmd  schema.Command
		want string
	}{
		{name: "content", cmd: schema.SetContent("<p>it's</p>\n"), want: `window.inkbridge.setContent('<p>it\'s</p>\n');`},
		{name: "empty-content", cmd: schema.SetContent(""), want: `window.inkbridge.setContent('');`},
		{name: "theme", cmd: schema.SetTheme(schema.ThemeDark), want: `window.inkbridge.setTheme('dark');`},
		{name: "placeholder", cmd: schema.SetPlaceholder("Write…"), want: `window.inkbridge.setPlaceholder('Write…');`},
		{name: "editable", cmd: schema.SetEditable(false), want: `window.inkbridge.setEditable(false);`},
		{name: "focus", cmd: schema.Focus(), want: `window.inkbridge.focus();`},
		{name: "bold", cmd: schema.ToggleInline(schema.InlineBold), want: `window.inkbridge.toggleBold();`},
		{name: "italic", cmd: schema.ToggleInline(schema.InlineItalic), want: `window.inkbridge.toggleItalic();`},
		{name: "strike", cmd: schema.ToggleInline(schema.InlineStrike), want: `window.inkbridge.toggleStrike();`},
		{name: "underline", cmd: schema.ToggleInline(schema.InlineUnderline), want: `window.inkbridge.toggleUnderline();`},
		{name: "heading", cmd: schema.ToggleHeading(2), want: `window.inkbridge.toggleHeading(2);`},
		{name: "bullet", cmd: schema.ToggleList(schema.ListBullet), want: `window.inkbridge.toggleBulletList();`},
		{name: "ordered", cmd: schema.ToggleList(schema.ListOrdered), want: `window.inkbridge.toggleOrderedList();`},
		{name: "blockquote", cmd: schema.ToggleBlockquote(), want: `window.inkbridge.toggleBlockquote();`},
		{name: "code-block", cmd: schema.ToggleCodeBlock(), want: `window.inkbridge.toggleCodeBlock();`},
		{name: "rule", cmd: schema.SetHorizontalRule(), want: `window.inkbridge.setHorizontalRule();`},
		{name: "link", cmd: schema.SetLink(&link), want: `window.inkbridge.setLink('https://example.com/it\'s');`},
		{name: "link-empty", cmd: schema.SetLink(&empty), want: `window.inkbridge.setLink('');`},
		{name: "link-null", cmd: schema.SetLink(nil), want: `window.inkbridge.setLink(null);`},
		{name: "align", cmd: schema.SetTextAlign(schema.AlignCenter), want: `window.inkbridge.setTextAlign('center');`},
		{name: "image", cmd: schema.InsertImage("https://img.example/cat.png", &alt), want: `window.inkbridge.setImage('https://img.example/cat.png', 'a\ncat');`},
		{name: "image-null-alt", cmd: schema.InsertImage("cat.png", nil), want: `window.inkbridge.setImage('cat.png', null);`},
	}
	for _, tc := range tests {
		got, err := Encode(tc.cmd)
		if err != nil {
			t.Fatalf("%s: encode: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: Encode = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestEncodeRejectsInvalidCommands(t *testing.T) {
	tests := []struct {
		name string
		cmd  schema.Command
	}{
		{name: "unknown-kind", cmd: schema.Command{Kind: "explode"}},
		{name: "zero", cmd: schema.Command{}},
		{name: "heading-zero", cmd: schema.ToggleHeading(0)},
		{name: "heading-four", cmd: schema.ToggleHeading(4)},
		{name: "inline", cmd: schema.ToggleInline("blink")},
		{name: "list", cmd: schema.ToggleList("checklist")},
		{name: "align", cmd: schema.SetTextAlign("justify")},
		{name: "image-url", cmd: schema.InsertImage("  ", nil)},
		{name: "theme", cmd: schema.SetTheme("")},
	}
	for _, tc := range tests {
		if _, err := Encode(tc.cmd); !errors.Is(err, schema.ErrInvalidCommand) {
			t.Fatalf("%s: expected ErrInvalidCommand, got %v", tc.name, err)
		}
	}
}

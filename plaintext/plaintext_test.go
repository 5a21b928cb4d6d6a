package plaintext

import "testing"

func TestContainsTags(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{in: "<p>hi</p>", want: true},
		{in: `<a href="x">x</a>`, want: true},
		{in: "plain", want: false},
		{in: "1 < 2 > 0", want: false},
		{in: "</p>", want: false},
		{in: "<>", want: false},
		{in: "<br>", want: true},
	}
	for _, tc := range tests {
		if got := ContainsTags(tc.in); got != tc.want {
			t.Fatalf("ContainsTags(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestStripTags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "adjacent", in: "<h1>Title</h1><p>Some <em>formatted</em> text.</p>", want: "TitleSome formatted text."},
		{name: "spaced", in: "<h1>Title</h1> <p>Some text.</p>", want: "Title Some text."},
		{name: "plain", in: "plain", want: "plain"},
		{name: "plain-keeps-whitespace", in: "  two\n lines ", want: "  two\n lines "},
		{name: "newlines", in: "<p>one</p>\n\n<p>two\tthree</p>", want: "one two three"},
		{name: "closing-only-identity", in: "a </b> c", want: "a </b> c"},
		{name: "empty", in: "", want: ""},
	}
	for _, tc := range tests {
		if got := StripTags(tc.in); got != tc.want {
			t.Fatalf("%s: StripTags(%q) = %q, want %q", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestStripTagsIdempotent(t *testing.T) {
	inputs := []string{
		"<h1>Title</h1><p>Some <em>formatted</em> text.</p>",
		"<p>&lt;b&gt; escaped</p>",
		"<p>a <<b>b</b></p>",
		"<p>x</p> <i>y",
		"  spaced   out  ",
		"<div>\n  <p>nested</p>\n</div>",
	}
	for _, in := range inputs {
		once := StripTags(in)
		if twice := StripTags(once); twice != once {
			t.Fatalf("StripTags not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("<p>hello world</p>", 0); got != "hello world" {
		t.Fatalf("unexpected untruncated preview: %q", got)
	}
	if got := Preview("<p>hello world</p>", 5); got != "hello…" {
		t.Fatalf("unexpected truncated preview: %q", got)
	}
	if got := Preview("<p>hello world</p>", 6); got != "hello…" {
		t.Fatalf("expected trailing space trimmed before ellipsis, got %q", got)
	}
	if got := Preview("héllo", 10); got != "héllo" {
		t.Fatalf("unexpected short preview: %q", got)
	}
}

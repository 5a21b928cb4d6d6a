// Package wire converts bridge commands and events to and from the form the
// content surface exchanges with the host.
package wire

import (
	"fmt"
	"strconv"
	"strings"

	"pkt.systems/inkbridge/schema"
)

// Global is the object the surface page installs its command handlers on.
const Global = "window.inkbridge"

const nullLiteral = "null"

// payloadEscaper applies the escape rules in a fixed order: backslash first so
// later substitutions are not escaped twice.
var payloadEscaper = []struct{ from, to string }{
	{`\`, `\\`},
	{`'`, `\'`},
	{"\n", `\n`},
	{"\r", `\r`},
}

// Escape makes s safe to embed in a single-quoted script string literal.
func Escape(s string) string {
	for _, rule := range payloadEscaper {
		s = strings.ReplaceAll(s, rule.from, rule.to)
	}
	return s
}

// Encode returns the script text the surface evaluates for cmd.
func Encode(cmd schema.Command) (string, error) {
	method, args, err := methodFor(cmd)
	if err != nil {
		return "", err
	}
	return Global + "." + method + "(" + strings.Join(args, ", ") + ");", nil
}

func methodFor(cmd schema.Command) (string, []string, error) {
	switch cmd.Kind {
	case schema.CommandSetContent:
		return "setContent", []string{quote(cmd.Text)}, nil
	case schema.CommandSetTheme:
		if strings.TrimSpace(string(cmd.Theme)) == "" {
			return "", nil, fmt.Errorf("%w: empty theme", schema.ErrInvalidCommand)
		}
		return "setTheme", []string{quote(string(cmd.Theme))}, nil
	case schema.CommandSetPlaceholder:
		return "setPlaceholder", []string{quote(cmd.Text)}, nil
	case schema.CommandSetEditable:
		return "setEditable", []string{strconv.FormatBool(cmd.Editable)}, nil
	case schema.CommandFocus:
		return "focus", nil, nil
	case schema.CommandToggleInline:
		switch cmd.Inline {
		case schema.InlineBold:
			return "toggleBold", nil, nil
		case schema.InlineItalic:
			return "toggleItalic", nil, nil
		case schema.InlineStrike:
			return "toggleStrike", nil, nil
		case schema.InlineUnderline:
			return "toggleUnderline", nil, nil
		}
		return "", nil, fmt.Errorf("%w: inline %q", schema.ErrInvalidCommand, cmd.Inline)
	case schema.CommandToggleHeading:
		if cmd.Level < 1 || cmd.Level > 3 {
			return "", nil, fmt.Errorf("%w: heading level %d", schema.ErrInvalidCommand, cmd.Level)
		}
		return "toggleHeading", []string{strconv.Itoa(cmd.Level)}, nil
	case schema.CommandToggleList:
		switch cmd.List {
		case schema.ListBullet:
			return "toggleBulletList", nil, nil
		case schema.ListOrdered:
			return "toggleOrderedList", nil, nil
		}
		return "", nil, fmt.Errorf("%w: list %q", schema.ErrInvalidCommand, cmd.List)
	case schema.CommandToggleBlockquote:
		return "toggleBlockquote", nil, nil
	case schema.CommandToggleCodeBlock:
		return "toggleCodeBlock", nil, nil
	case schema.CommandSetHorizontalRule:
		return "setHorizontalRule", nil, nil
	case schema.CommandSetLink:
		return "setLink", []string{quoteOrNull(cmd.Link)}, nil
	case schema.CommandSetTextAlign:
		switch cmd.Align {
		case schema.AlignLeft, schema.AlignCenter, schema.AlignRight:
			return "setTextAlign", []string{quote(string(cmd.Align))}, nil
		}
		return "", nil, fmt.Errorf("%w: align %q", schema.ErrInvalidCommand, cmd.Align)
	case schema.CommandInsertImage:
		if strings.TrimSpace(cmd.URL) == "" {
			return "", nil, fmt.Errorf("%w: image url required", schema.ErrInvalidCommand)
		}
		return "setImage", []string{quote(cmd.URL), quoteOrNull(cmd.Alt)}, nil
	default:
		return "", nil, fmt.Errorf("%w: kind %q", schema.ErrInvalidCommand, cmd.Kind)
	}
}

func quote(s string) string {
	return "'" + Escape(s) + "'"
}

func quoteOrNull(s *string) string {
	if s == nil {
		return nullLiteral
	}
	return quote(*s)
}

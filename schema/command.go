package schema

// CommandKind tags an outbound surface command.
type CommandKind string

const (
	CommandSetContent        CommandKind = "set-content"
	CommandSetTheme          CommandKind = "set-theme"
	CommandSetPlaceholder    CommandKind = "set-placeholder"
	CommandSetEditable       CommandKind = "set-editable"
	CommandFocus             CommandKind = "focus"
	CommandToggleInline      CommandKind = "toggle-inline"
	CommandToggleHeading     CommandKind = "toggle-heading"
	CommandToggleList        CommandKind = "toggle-list"
	CommandToggleBlockquote  CommandKind = "toggle-blockquote"
	CommandToggleCodeBlock   CommandKind = "toggle-code-block"
	CommandSetHorizontalRule CommandKind = "set-horizontal-rule"
	CommandSetLink           CommandKind = "set-link"
	CommandSetTextAlign      CommandKind = "set-text-align"
	CommandInsertImage       CommandKind = "set-image"
)

// InlineKind selects an inline mark.
type InlineKind string

const (
	InlineBold      InlineKind = "bold"
	InlineItalic    InlineKind = "italic"
	InlineStrike    InlineKind = "strike"
	InlineUnderline InlineKind = "underline"
)

// ListKind selects a list style.
type ListKind string

const (
	ListBullet  ListKind = "bullet"
	ListOrdered ListKind = "ordered"
)

// TextAlign selects paragraph alignment.
type TextAlign string

const (
	AlignLeft   TextAlign = "left"
	AlignCenter TextAlign = "center"
	AlignRight  TextAlign = "right"
)

// Command is an outbound instruction for a content surface.
// Only the fields relevant to Kind are read.
type Command struct {
	Kind     CommandKind
	Text     string
	Theme    ThemeName
	Editable bool
	Inline   InlineKind
	Level    int
	List     ListKind
	Align    TextAlign
	// Link is the link target; nil removes the link.
	Link *string
	URL  string
	// Alt is the image alt text; nil is sent as null.
	Alt *string
}

// SetContent replaces the surface document.
func SetContent(text string) Command { return Command{Kind: CommandSetContent, Text: text} }

// SetTheme switches the surface theme.
func SetTheme(theme ThemeName) Command { return Command{Kind: CommandSetTheme, Theme: theme} }

// SetPlaceholder sets the empty-document placeholder text.
func SetPlaceholder(text string) Command { return Command{Kind: CommandSetPlaceholder, Text: text} }

// SetEditable toggles whether the surface accepts input.
func SetEditable(editable bool) Command {
	return Command{Kind: CommandSetEditable, Editable: editable}
}

// Focus moves input focus into the surface.
func Focus() Command { return Command{Kind: CommandFocus} }

// ToggleInline toggles an inline mark on the selection.
func ToggleInline(kind InlineKind) Command { return Command{Kind: CommandToggleInline, Inline: kind} }

// ToggleHeading toggles a heading of the given level (1-3).
func ToggleHeading(level int) Command { return Command{Kind: CommandToggleHeading, Level: level} }

// ToggleList toggles a bullet or ordered list.
func ToggleList(kind ListKind) Command { return Command{Kind: CommandToggleList, List: kind} }

// ToggleBlockquote toggles a blockquote.
func ToggleBlockquote() Command { return Command{Kind: CommandToggleBlockquote} }

// ToggleCodeBlock toggles a code block.
func ToggleCodeBlock() Command { return Command{Kind: CommandToggleCodeBlock} }

// SetHorizontalRule inserts a horizontal rule.
func SetHorizontalRule() Command { return Command{Kind: CommandSetHorizontalRule} }

// SetLink sets the link target on the selection; nil removes it.
func SetLink(target *string) Command { return Command{Kind: CommandSetLink, Link: target} }

// SetTextAlign aligns the current block.
func SetTextAlign(align TextAlign) Command { return Command{Kind: CommandSetTextAlign, Align: align} }

// InsertImage inserts an image; a nil alt is sent as null.
func InsertImage(url string, alt *string) Command {
	return Command{Kind: CommandInsertImage, URL: url, Alt: alt}
}

// IsTransient reports whether the command represents live-selection intent
// rather than synchronized state.
func (c Command) IsTransient() bool {
	switch c.Kind {
	case CommandSetContent, CommandSetTheme, CommandSetPlaceholder:
		return false
	default:
		return true
	}
}

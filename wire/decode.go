package wire

import (
	"encoding/json"
	"fmt"
	"strings"

	"pkt.systems/inkbridge/schema"
)

// eventEnvelope is the JSON shape posted by the surface page.
type eventEnvelope struct {
	Type   string   `json:"type"`
	Text   *string  `json:"text"`
	Height *float64 `json:"height"`
}

// DecodeEvent parses an inbound surface message. Unknown type names decode to
// schema.EventUnrecognized so callers can report them without failing.
func DecodeEvent(data []byte) (schema.SurfaceEvent, error) {
	var env eventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return schema.SurfaceEvent{}, fmt.Errorf("%w: %v", schema.ErrInvalidEvent, err)
	}
	event := schema.SurfaceEvent{Name: env.Type}
	switch schema.EventKind(env.Type) {
	case schema.EventContentChanged:
		if env.Text == nil {
			return schema.SurfaceEvent{}, fmt.Errorf("%w: content-changed without text", schema.ErrInvalidEvent)
		}
		event.Kind = schema.EventContentChanged
		event.Text = *env.Text
	case schema.EventReady:
		event.Kind = schema.EventReady
	case schema.EventHeightChanged:
		if env.Height == nil {
			return schema.SurfaceEvent{}, fmt.Errorf("%w: height-changed without height", schema.ErrInvalidEvent)
		}
		event.Kind = schema.EventHeightChanged
		event.Height = *env.Height
	default:
		event.Kind = schema.EventUnrecognized
	}
	return event, nil
}

// EncodeEvent is the inverse of DecodeEvent, used by test surfaces and tools.
func EncodeEvent(event schema.SurfaceEvent) ([]byte, error) {
	env := eventEnvelope{Type: string(event.Kind)}
	switch event.Kind {
	case schema.EventContentChanged:
		text := event.Text
		env.Text = &text
	case schema.EventHeightChanged:
		height := event.Height
		env.Height = &height
	case schema.EventUnrecognized:
		env.Type = event.Name
	}
	return json.Marshal(env)
}

// commandRequest is the host JSON form of a command.
type commandRequest struct {
	Type     string  `json:"type"`
	Text     string  `json:"text,omitempty"`
	Theme    string  `json:"theme,omitempty"`
	Editable *bool   `json:"editable,omitempty"`
	Level    int     `json:"level,omitempty"`
	Align    string  `json:"align,omitempty"`
	Link     *string `json:"link"`
	URL      string  `json:"url,omitempty"`
	Alt      *string `json:"alt"`
}

// DecodeCommand parses the host JSON form of a command, for example
// {"type":"toggle-heading","level":2} or {"type":"set-link","link":null}.
func DecodeCommand(data []byte) (schema.Command, error) {
	var req commandRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return schema.Command{}, fmt.Errorf("%w: %v", schema.ErrInvalidCommand, err)
	}
	name := strings.ToLower(strings.TrimSpace(req.Type))
	switch name {
	case "set-content":
		return schema.SetContent(req.Text), nil
	case "set-theme":
		theme, ok := schema.NormalizeThemeName(req.Theme)
		if !ok {
			return schema.Command{}, fmt.Errorf("%w: %q", schema.ErrInvalidTheme, req.Theme)
		}
		return schema.SetTheme(theme), nil
	case "set-placeholder":
		return schema.SetPlaceholder(req.Text), nil
	case "set-editable":
		if req.Editable == nil {
			return schema.Command{}, fmt.Errorf("%w: set-editable requires editable", schema.ErrInvalidCommand)
		}
		return schema.SetEditable(*req.Editable), nil
	case "focus":
		return schema.Focus(), nil
	case "toggle-bold":
		return schema.ToggleInline(schema.InlineBold), nil
	case "toggle-italic":
		return schema.ToggleInline(schema.InlineItalic), nil
	case "toggle-strike":
		return schema.ToggleInline(schema.InlineStrike), nil
	case "toggle-underline":
		return schema.ToggleInline(schema.InlineUnderline), nil
	case "toggle-heading":
		return schema.ToggleHeading(req.Level), nil
	case "toggle-bullet-list":
		return schema.ToggleList(schema.ListBullet), nil
	case "toggle-ordered-list":
		return schema.ToggleList(schema.ListOrdered), nil
	case "toggle-blockquote":
		return schema.ToggleBlockquote(), nil
	case "toggle-code-block":
		return schema.ToggleCodeBlock(), nil
	case "set-horizontal-rule":
		return schema.SetHorizontalRule(), nil
	case "set-link":
		return schema.SetLink(req.Link), nil
	case "set-text-align":
		return schema.SetTextAlign(schema.TextAlign(strings.ToLower(strings.TrimSpace(req.Align)))), nil
	case "set-image":
		return schema.InsertImage(req.URL, req.Alt), nil
	default:
		return schema.Command{}, fmt.Errorf("%w: unknown type %q", schema.ErrInvalidCommand, req.Type)
	}
}

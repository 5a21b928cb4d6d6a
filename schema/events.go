package schema

// EventKind identifies an inbound surface event.
type EventKind string

const (
	// EventContentChanged carries the serialized document produced by the surface.
	EventContentChanged EventKind = "content-changed"
	// EventReady is the surface's one-time readiness signal.
	EventReady EventKind = "ready"
	// EventHeightChanged carries the rendered content height.
	EventHeightChanged EventKind = "height-changed"
	// EventUnrecognized marks an event whose type name is not known.
	EventUnrecognized EventKind = "unrecognized"
)

// SurfaceEvent is a decoded inbound event from a content surface.
type SurfaceEvent struct {
	Kind   EventKind
	Text   string
	Height float64
	// Name is the raw type name as sent by the surface.
	Name string
}

// DocumentEventType describes a host-side document change.
type DocumentEventType string

const (
	// DocumentEventContent indicates the document content changed.
	DocumentEventContent DocumentEventType = "content"
	// DocumentEventTheme indicates the document theme changed.
	DocumentEventTheme DocumentEventType = "theme"
	// DocumentEventHeight indicates a surface reported a new height.
	DocumentEventHeight DocumentEventType = "height"
	// DocumentEventInteractive indicates a surface finished the readiness handshake.
	DocumentEventInteractive DocumentEventType = "interactive"
	// DocumentEventUnrecognized indicates a surface sent an unknown event.
	DocumentEventUnrecognized DocumentEventType = "unrecognized"
	// DocumentEventAttached indicates a surface attached.
	DocumentEventAttached DocumentEventType = "attached"
	// DocumentEventDetached indicates a surface detached.
	DocumentEventDetached DocumentEventType = "detached"
)

// DocumentEvent is published to host subscribers of a document.
type DocumentEvent struct {
	DocumentID DocumentID        `json:"document"`
	Type       DocumentEventType `json:"type"`
	SurfaceID  SurfaceID         `json:"surface,omitempty"`
	// Origin is set when the change was produced by a surface rather than the host.
	Origin  SurfaceID `json:"origin,omitempty"`
	Content string    `json:"content,omitempty"`
	Theme   ThemeName `json:"theme,omitempty"`
	Height  float64   `json:"height,omitempty"`
	Name    string    `json:"name,omitempty"`
}

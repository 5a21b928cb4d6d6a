package core

import (
	"context"

	"pkt.systems/inkbridge/schema"
	"pkt.systems/inkbridge/wire"
	"pkt.systems/pslog"
)

// Surface is the outbound side of a content surface. Dispatch must not block;
// scripts are delivered in call order, best effort and unacknowledged.
type Surface interface {
	Dispatch(script string)
}

// HostSink receives surface-originated changes for host state.
type HostSink interface {
	OnContentChanged(text string)
	OnHeightChanged(height float64)
	OnInteractive()
	OnUnrecognizedEvent(name string)
}

// ThemeSource reports the host's current theme. It is read when the surface
// becomes ready.
type ThemeSource func() schema.ThemeName

// SessionConfig captures the inputs of a bridge session.
type SessionConfig struct {
	ID             schema.SurfaceID
	Placeholder    string
	InitialContent string
	Theme          ThemeSource
	Sink           HostSink
	Logger         pslog.Logger
}

type trigger int

const (
	triggerAttach trigger = iota
	triggerReady
	triggerDetach
)

func (t trigger) String() string {
	switch t {
	case triggerAttach:
		return "attach"
	case triggerReady:
		return "ready"
	case triggerDetach:
		return "detach"
	default:
		return "unknown"
	}
}

// transitions holds every legal lifecycle move; a missing cell is a no-op.
var transitions = map[schema.Readiness]map[trigger]schema.Readiness{
	schema.Uninitialized: {
		triggerAttach: schema.Loading,
		triggerDetach: schema.Terminated,
	},
	schema.Loading: {
		triggerReady:  schema.Ready,
		triggerDetach: schema.Terminated,
	},
	schema.Ready: {
		triggerDetach: schema.Terminated,
	},
}

// Session bridges host state and one content surface.
// All methods must run on the same goroutine (see Loop).
type Session struct {
	id        schema.SurfaceID
	readiness schema.Readiness
	surface   Surface
	sink      HostSink
	theme     ThemeSource
	log       pslog.Logger

	lastContentFromSurface string
	pendingContent         string
	pendingPlaceholder     string
	placeholderFlushed     bool
	currentTheme           schema.ThemeName
	lastHeight             float64
}

// NewSession constructs an Uninitialized session.
func NewSession(cfg SessionConfig) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	if cfg.ID != "" {
		logger = logger.With("surface", cfg.ID)
	}
	theme := cfg.Theme
	if theme == nil {
		theme = func() schema.ThemeName { return schema.DefaultTheme }
	}
	return &Session{
		id:                 cfg.ID,
		readiness:          schema.Uninitialized,
		sink:               cfg.Sink,
		theme:              theme,
		log:                logger,
		pendingContent:     cfg.InitialContent,
		pendingPlaceholder: cfg.Placeholder,
	}
}

// Attach constructs a session for surface and moves it to Loading.
func Attach(cfg SessionConfig, surface Surface) *Session {
	s := NewSession(cfg)
	s.Attach(surface)
	return s
}

// ID returns the surface id.
func (s *Session) ID() schema.SurfaceID {
	return s.id
}

// Readiness returns the lifecycle state.
func (s *Session) Readiness() schema.Readiness {
	return s.readiness
}

// LastHeight returns the last height reported by the surface.
func (s *Session) LastHeight() float64 {
	return s.lastHeight
}

// CurrentTheme returns the last theme pushed to the surface.
func (s *Session) CurrentTheme() schema.ThemeName {
	return s.currentTheme
}

func (s *Session) fire(t trigger) bool {
	next, ok := transitions[s.readiness][t]
	if !ok {
		s.log.Debug("bridge transition ignored", "state", s.readiness, "trigger", t)
		return false
	}
	s.log.Trace("bridge transition", "from", s.readiness, "to", next, "trigger", t)
	s.readiness = next
	return true
}

// Attach binds the surface. Nothing is sent until the surface is ready.
func (s *Session) Attach(surface Surface) {
	if surface == nil || !s.fire(triggerAttach) {
		return
	}
	s.surface = surface
	s.log.Info("bridge attach", "pending_content", s.pendingContent != "")
}

// OnSurfaceReady handles the surface readiness handshake.
func (s *Session) OnSurfaceReady() {
	if !s.fire(triggerReady) {
		return
	}
	// Styling goes out before content so the surface never shows unstyled text.
	s.currentTheme = s.theme()
	s.send(schema.SetTheme(s.currentTheme))
	if !s.placeholderFlushed {
		s.placeholderFlushed = true
		if s.pendingPlaceholder != "" {
			s.send(schema.SetPlaceholder(s.pendingPlaceholder))
		}
		s.pendingPlaceholder = ""
	}
	if s.pendingContent != "" {
		s.send(schema.SetContent(s.pendingContent))
		s.pendingContent = ""
	}
	s.log.Info("bridge ready", "theme", s.currentTheme)
	if s.sink != nil {
		s.sink.OnInteractive()
	}
}

// OnSurfaceContentChanged records surface-originated content and forwards it
// to the host once.
func (s *Session) OnSurfaceContentChanged(text string) {
	if s.readiness != schema.Ready {
		s.log.Debug("bridge content event ignored", "state", s.readiness)
		return
	}
	s.lastContentFromSurface = text
	if s.sink != nil {
		s.sink.OnContentChanged(text)
	}
}

// OnSurfaceHeightChanged forwards the reported height to the host.
func (s *Session) OnSurfaceHeightChanged(height float64) {
	if s.readiness != schema.Loading && s.readiness != schema.Ready {
		s.log.Debug("bridge height event ignored", "state", s.readiness)
		return
	}
	s.lastHeight = height
	if s.sink != nil {
		s.sink.OnHeightChanged(height)
	}
}

// HandleEvent dispatches a decoded inbound event.
func (s *Session) HandleEvent(ev schema.SurfaceEvent) {
	if s.readiness == schema.Terminated {
		return
	}
	switch ev.Kind {
	case schema.EventReady:
		s.OnSurfaceReady()
	case schema.EventContentChanged:
		s.OnSurfaceContentChanged(ev.Text)
	case schema.EventHeightChanged:
		s.OnSurfaceHeightChanged(ev.Height)
	default:
		name := ev.Name
		if name == "" {
			name = string(ev.Kind)
		}
		s.log.Warn("bridge unrecognized event", "name", name)
		if s.sink != nil {
			s.sink.OnUnrecognizedEvent(name)
		}
	}
}

// SyncHostContent pushes host-owned content to the surface unless it is the
// surface's own latest content. Before Ready it replaces the pending content.
func (s *Session) SyncHostContent(text string) {
	switch s.readiness {
	case schema.Uninitialized, schema.Loading:
		s.pendingContent = text
	case schema.Ready:
		if text == s.lastContentFromSurface {
			s.log.Trace("bridge content echo suppressed")
			return
		}
		s.send(schema.SetContent(text))
	}
}

// SyncTheme pushes a theme change once the surface is ready.
func (s *Session) SyncTheme(theme schema.ThemeName) {
	if s.readiness != schema.Ready {
		return
	}
	if theme == s.currentTheme {
		return
	}
	s.currentTheme = theme
	s.send(schema.SetTheme(theme))
}

// IssueCommand sends a fire-and-forget command. Commands issued before Ready
// are dropped.
func (s *Session) IssueCommand(cmd schema.Command) {
	if s.readiness != schema.Ready {
		if s.readiness != schema.Terminated {
			s.log.Debug("bridge command dropped", "state", s.readiness, "command", cmd.Kind)
		}
		return
	}
	switch cmd.Kind {
	case schema.CommandSetContent:
		s.SyncHostContent(cmd.Text)
	case schema.CommandSetTheme:
		s.SyncTheme(cmd.Theme)
	default:
		s.send(cmd)
	}
}

// Detach terminates the session and releases the surface.
func (s *Session) Detach() {
	if !s.fire(triggerDetach) {
		return
	}
	s.surface = nil
	s.pendingContent = ""
	s.pendingPlaceholder = ""
	s.log.Info("bridge detach")
}

func (s *Session) send(cmd schema.Command) {
	if s.readiness != schema.Ready || s.surface == nil {
		s.log.Debug("bridge send dropped", "state", s.readiness, "command", cmd.Kind)
		return
	}
	script, err := wire.Encode(cmd)
	if err != nil {
		s.log.Warn("bridge encode failed", "command", cmd.Kind, "err", err)
		return
	}
	s.log.Trace("bridge send", "command", cmd.Kind)
	s.surface.Dispatch(script)
}

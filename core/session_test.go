package core

import (
	"strings"
	"testing"

	"pkt.systems/inkbridge/schema"
	"pkt.systems/inkbridge/wire"
)

type recordingSurface struct {
	scripts []string
}

func (s *recordingSurface) Dispatch(script string) {
	s.scripts = append(s.scripts, script)
}

func (s *recordingSurface) count(prefix string) int {
	n := 0
	for _, script := range s.scripts {
		if strings.HasPrefix(script, prefix) {
			n++
		}
	}
	return n
}

type recordingSink struct {
	contents     []string
	heights      []float64
	interactive  int
	unrecognized []string
	onContent    func(text string)
	onReady      func()
}

func (s *recordingSink) OnContentChanged(text string) {
	s.contents = append(s.contents, text)
	if s.onContent != nil {
		s.onContent(text)
	}
}

func (s *recordingSink) OnHeightChanged(height float64) {
	s.heights = append(s.heights, height)
}

func (s *recordingSink) OnInteractive() {
	s.interactive++
	if s.onReady != nil {
		s.onReady()
	}
}

func (s *recordingSink) OnUnrecognizedEvent(name string) {
	s.unrecognized = append(s.unrecognized, name)
}

const (
	setContentPrefix = wire.Global + ".setContent("
	setThemePrefix   = wire.Global + ".setTheme("
)

func mustEncode(t *testing.T, cmd schema.Command) string {
	t.Helper()
	script, err := wire.Encode(cmd)
	if err != nil {
		t.Fatalf("encode %s: %v", cmd.Kind, err)
	}
	return script
}

func newTestSession(cfg SessionConfig) (*Session, *recordingSurface, *recordingSink) {
	surface := &recordingSurface{}
	sink := &recordingSink{}
	if cfg.Sink == nil {
		cfg.Sink = sink
	}
	if cfg.ID == "" {
		cfg.ID = "s1"
	}
	return Attach(cfg, surface), surface, sink
}

func TestAttachMovesToLoadingWithoutSending(t *testing.T) {
	session, surface, _ := newTestSession(SessionConfig{InitialContent: "<p>hi</p>", Placeholder: "Write..."})
	if session.Readiness() != schema.Loading {
		t.Fatalf("expected loading, got %s", session.Readiness())
	}
	if len(surface.scripts) != 0 {
		t.Fatalf("expected no scripts before ready, got %v", surface.scripts)
	}
}

func TestNoOutboundBeforeReady(t *testing.T) {
	session, surface, _ := newTestSession(SessionConfig{})
	session.SyncHostContent("<p>a</p>")
	session.SyncTheme(schema.ThemeDark)
	session.IssueCommand(schema.ToggleInline(schema.InlineBold))
	session.IssueCommand(schema.Focus())
	session.IssueCommand(schema.SetContent("<p>b</p>"))
	if len(surface.scripts) != 0 {
		t.Fatalf("expected no scripts before ready, got %v", surface.scripts)
	}
}

func TestReadySendsThemePlaceholderThenContent(t *testing.T) {
	session, surface, sink := newTestSession(SessionConfig{
		InitialContent: "<p>hi</p>",
		Placeholder:    "Write...",
		Theme:          func() schema.ThemeName { return schema.ThemeDark },
	})
	session.OnSurfaceReady()

	want := []string{
		mustEncode(t, schema.SetTheme(schema.ThemeDark)),
		mustEncode(t, schema.SetPlaceholder("Write...")),
		mustEncode(t, schema.SetContent("<p>hi</p>")),
	}
	if len(surface.scripts) != len(want) {
		t.Fatalf("expected %d scripts, got %v", len(want), surface.scripts)
	}
	for i := range want {
		if surface.scripts[i] != want[i] {
			t.Fatalf("script %d = %q, want %q", i, surface.scripts[i], want[i])
		}
	}
	if session.Readiness() != schema.Ready {
		t.Fatalf("expected ready, got %s", session.Readiness())
	}
	if session.CurrentTheme() != schema.ThemeDark {
		t.Fatalf("expected current theme dark, got %q", session.CurrentTheme())
	}
	if sink.interactive != 1 {
		t.Fatalf("expected one interactive notification, got %d", sink.interactive)
	}
}

func TestThemeIsReadAtReadyTime(t *testing.T) {
	theme := schema.ThemeLight
	session, surface, _ := newTestSession(SessionConfig{Theme: func() schema.ThemeName { return theme }})
	theme = schema.ThemeDark
	session.OnSurfaceReady()
	if surface.scripts[0] != mustEncode(t, schema.SetTheme(schema.ThemeDark)) {
		t.Fatalf("expected theme computed at ready, got %q", surface.scripts[0])
	}
}

func TestReadyWithoutPendingContentSendsOnlyTheme(t *testing.T) {
	session, surface, _ := newTestSession(SessionConfig{})
	session.OnSurfaceReady()
	if len(surface.scripts) != 1 || surface.count(setThemePrefix) != 1 {
		t.Fatalf("expected a single theme push, got %v", surface.scripts)
	}
}

func TestReadyTwiceIsIdempotent(t *testing.T) {
	session, surface, sink := newTestSession(SessionConfig{InitialContent: "<p>hi</p>"})
	session.OnSurfaceReady()
	session.OnSurfaceReady()
	if surface.count(setThemePrefix) != 1 {
		t.Fatalf("expected one theme push, got %v", surface.scripts)
	}
	if surface.count(setContentPrefix) != 1 {
		t.Fatalf("expected one content flush, got %v", surface.scripts)
	}
	if sink.interactive != 1 {
		t.Fatalf("expected one interactive notification, got %d", sink.interactive)
	}
}

func TestPendingContentLastWriteWins(t *testing.T) {
	session, surface, _ := newTestSession(SessionConfig{InitialContent: "<p>initial</p>"})
	session.SyncHostContent("<p>A</p>")
	session.SyncHostContent("<p>B</p>")
	session.OnSurfaceReady()

	if surface.count(setContentPrefix) != 1 {
		t.Fatalf("expected exactly one content send, got %v", surface.scripts)
	}
	want := mustEncode(t, schema.SetContent("<p>B</p>"))
	if surface.scripts[len(surface.scripts)-1] != want {
		t.Fatalf("expected %q, got %v", want, surface.scripts)
	}
}

func TestPendingContentClearedToEmptySkipsFlush(t *testing.T) {
	session, surface, _ := newTestSession(SessionConfig{InitialContent: "<p>initial</p>"})
	session.SyncHostContent("")
	session.OnSurfaceReady()
	if surface.count(setContentPrefix) != 0 {
		t.Fatalf("expected no content flush for empty pending content, got %v", surface.scripts)
	}
}

func TestSyncBeforeAttachBuffersContent(t *testing.T) {
	sink := &recordingSink{}
	session := NewSession(SessionConfig{ID: "s1", Sink: sink})
	if session.Readiness() != schema.Uninitialized {
		t.Fatalf("expected uninitialized, got %s", session.Readiness())
	}
	session.SyncHostContent("<p>early</p>")
	surface := &recordingSurface{}
	session.Attach(surface)
	session.OnSurfaceReady()
	if surface.count(setContentPrefix) != 1 {
		t.Fatalf("expected buffered content flush, got %v", surface.scripts)
	}
}

func TestEchoSuppression(t *testing.T) {
	session, surface, sink := newTestSession(SessionConfig{})
	session.OnSurfaceReady()
	surface.scripts = nil

	session.OnSurfaceContentChanged("<p>X</p>")
	if len(sink.contents) != 1 || sink.contents[0] != "<p>X</p>" {
		t.Fatalf("expected content forwarded once, got %v", sink.contents)
	}
	session.SyncHostContent("<p>X</p>")
	if len(surface.scripts) != 0 {
		t.Fatalf("expected echo to be suppressed, got %v", surface.scripts)
	}
	session.SyncHostContent("<p>Y</p>")
	if len(surface.scripts) != 1 || surface.scripts[0] != mustEncode(t, schema.SetContent("<p>Y</p>")) {
		t.Fatalf("expected set-content(Y), got %v", surface.scripts)
	}
}

func TestOutboundSendDoesNotUpdateEchoKey(t *testing.T) {
	session, surface, _ := newTestSession(SessionConfig{})
	session.OnSurfaceReady()
	surface.scripts = nil

	session.SyncHostContent("<p>Y</p>")
	session.SyncHostContent("<p>Y</p>")
	if surface.count(setContentPrefix) != 2 {
		t.Fatalf("expected host sends to repeat, got %v", surface.scripts)
	}
}

func TestEchoSuppressionWhenHostReentersFromSink(t *testing.T) {
	surface := &recordingSurface{}
	sink := &recordingSink{}
	session := Attach(SessionConfig{ID: "s1", Sink: sink}, surface)
	sink.onContent = func(text string) { session.SyncHostContent(text) }
	session.OnSurfaceReady()
	surface.scripts = nil

	session.OnSurfaceContentChanged("<p>typed</p>")
	if len(surface.scripts) != 0 {
		t.Fatalf("expected no ping-pong, got %v", surface.scripts)
	}
}

func TestContentEventBeforeReadyIgnored(t *testing.T) {
	session, surface, sink := newTestSession(SessionConfig{})
	session.OnSurfaceContentChanged("<p>early</p>")
	if len(sink.contents) != 0 {
		t.Fatalf("expected pre-ready content to be ignored, got %v", sink.contents)
	}
	session.OnSurfaceReady()
	surface.scripts = nil
	session.SyncHostContent("<p>early</p>")
	if surface.count(setContentPrefix) != 1 {
		t.Fatalf("expected ignored event to leave echo key untouched, got %v", surface.scripts)
	}
}

func TestHeightForwarded(t *testing.T) {
	session, surface, sink := newTestSession(SessionConfig{})
	session.OnSurfaceHeightChanged(120)
	session.OnSurfaceReady()
	session.OnSurfaceHeightChanged(240.5)
	if len(sink.heights) != 2 || sink.heights[1] != 240.5 {
		t.Fatalf("unexpected heights: %v", sink.heights)
	}
	if session.LastHeight() != 240.5 {
		t.Fatalf("expected last height 240.5, got %v", session.LastHeight())
	}
	if surface.count(setContentPrefix) != 0 {
		t.Fatalf("height must not cause content sends: %v", surface.scripts)
	}
}

func TestSyncThemeOnlyOnChange(t *testing.T) {
	session, surface, _ := newTestSession(SessionConfig{})
	session.OnSurfaceReady()
	surface.scripts = nil

	session.SyncTheme(schema.ThemeLight)
	if len(surface.scripts) != 0 {
		t.Fatalf("expected unchanged theme to be skipped, got %v", surface.scripts)
	}
	session.SyncTheme(schema.ThemeDark)
	session.SyncTheme(schema.ThemeDark)
	if len(surface.scripts) != 1 || surface.scripts[0] != mustEncode(t, schema.SetTheme(schema.ThemeDark)) {
		t.Fatalf("expected a single dark theme push, got %v", surface.scripts)
	}
}

func TestIssueCommandAfterReady(t *testing.T) {
	session, surface, _ := newTestSession(SessionConfig{})
	session.OnSurfaceReady()
	surface.scripts = nil

	target := "https://example.com"
	cmds := []schema.Command{
		schema.ToggleInline(schema.InlineItalic),
		schema.ToggleHeading(2),
		schema.SetLink(&target),
		schema.SetLink(nil),
		schema.InsertImage("https://example.com/a.png", nil),
	}
	for _, cmd := range cmds {
		session.IssueCommand(cmd)
	}
	if len(surface.scripts) != len(cmds) {
		t.Fatalf("expected %d scripts, got %v", len(cmds), surface.scripts)
	}
	for i, cmd := range cmds {
		if surface.scripts[i] != mustEncode(t, cmd) {
			t.Fatalf("script %d = %q, want %q", i, surface.scripts[i], mustEncode(t, cmd))
		}
	}
}

func TestIssueCommandRoutesContentThroughEchoPolicy(t *testing.T) {
	session, surface, _ := newTestSession(SessionConfig{})
	session.OnSurfaceReady()
	session.OnSurfaceContentChanged("<p>X</p>")
	surface.scripts = nil

	session.IssueCommand(schema.SetContent("<p>X</p>"))
	session.IssueCommand(schema.SetTheme(schema.ThemeLight))
	if len(surface.scripts) != 0 {
		t.Fatalf("expected echo and theme policies to apply, got %v", surface.scripts)
	}
}

func TestIssueInvalidCommandIsDropped(t *testing.T) {
	session, surface, _ := newTestSession(SessionConfig{})
	session.OnSurfaceReady()
	surface.scripts = nil

	session.IssueCommand(schema.ToggleHeading(7))
	if len(surface.scripts) != 0 {
		t.Fatalf("expected invalid command to be dropped, got %v", surface.scripts)
	}
}

func TestHandleEventDispatch(t *testing.T) {
	session, surface, sink := newTestSession(SessionConfig{})
	session.HandleEvent(schema.SurfaceEvent{Kind: schema.EventReady})
	session.HandleEvent(schema.SurfaceEvent{Kind: schema.EventContentChanged, Text: "<p>x</p>"})
	session.HandleEvent(schema.SurfaceEvent{Kind: schema.EventHeightChanged, Height: 42})
	session.HandleEvent(schema.SurfaceEvent{Kind: schema.EventUnrecognized, Name: "selection-changed"})

	if session.Readiness() != schema.Ready {
		t.Fatalf("expected ready, got %s", session.Readiness())
	}
	if len(sink.contents) != 1 || len(sink.heights) != 1 {
		t.Fatalf("unexpected sink state: %+v", sink)
	}
	if len(sink.unrecognized) != 1 || sink.unrecognized[0] != "selection-changed" {
		t.Fatalf("expected unrecognized event report, got %v", sink.unrecognized)
	}
	if surface.count(setThemePrefix) != 1 {
		t.Fatalf("expected theme push on ready, got %v", surface.scripts)
	}
}

func TestReadyNotificationObservesReadyState(t *testing.T) {
	surface := &recordingSurface{}
	sink := &recordingSink{}
	session := Attach(SessionConfig{ID: "s1", Sink: sink}, surface)
	var seen schema.Readiness
	sink.onReady = func() {
		seen = session.Readiness()
		session.IssueCommand(schema.Focus())
	}
	session.OnSurfaceReady()
	if seen != schema.Ready {
		t.Fatalf("expected ready during notification, got %s", seen)
	}
	if surface.scripts[len(surface.scripts)-1] != mustEncode(t, schema.Focus()) {
		t.Fatalf("expected focus command from notification, got %v", surface.scripts)
	}
}

func TestDetachMakesEverythingNoop(t *testing.T) {
	for _, ready := range []bool{false, true} {
		session, surface, sink := newTestSession(SessionConfig{InitialContent: "<p>hi</p>"})
		if ready {
			session.OnSurfaceReady()
		}
		session.Detach()
		if session.Readiness() != schema.Terminated {
			t.Fatalf("expected terminated, got %s", session.Readiness())
		}
		before := len(surface.scripts)
		notified := sink.interactive

		session.SyncHostContent("<p>later</p>")
		session.SyncTheme(schema.ThemeDark)
		session.IssueCommand(schema.Focus())
		session.OnSurfaceReady()
		session.OnSurfaceContentChanged("<p>x</p>")
		session.OnSurfaceHeightChanged(10)
		session.HandleEvent(schema.SurfaceEvent{Kind: schema.EventUnrecognized, Name: "x"})
		session.Attach(surface)
		session.Detach()

		if len(surface.scripts) != before {
			t.Fatalf("expected no scripts after detach, got %v", surface.scripts[before:])
		}
		if sink.interactive != notified || len(sink.contents) != 0 || len(sink.heights) != 0 || len(sink.unrecognized) != 0 {
			t.Fatalf("expected no host notifications after detach, got %+v", sink)
		}
		if session.Readiness() != schema.Terminated {
			t.Fatalf("expected terminated to be absorbing, got %s", session.Readiness())
		}
	}
}

func TestDetachBeforeAttach(t *testing.T) {
	session := NewSession(SessionConfig{ID: "s1"})
	session.Detach()
	session.Attach(&recordingSurface{})
	if session.Readiness() != schema.Terminated {
		t.Fatalf("expected terminated, got %s", session.Readiness())
	}
}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from schema.Readiness
		trig trigger
		want schema.Readiness
		ok   bool
	}{
		{schema.Uninitialized, triggerAttach, schema.Loading, true},
		{schema.Uninitialized, triggerReady, schema.Uninitialized, false},
		{schema.Loading, triggerReady, schema.Ready, true},
		{schema.Loading, triggerAttach, schema.Loading, false},
		{schema.Ready, triggerReady, schema.Ready, false},
		{schema.Ready, triggerDetach, schema.Terminated, true},
		{schema.Terminated, triggerDetach, schema.Terminated, false},
		{schema.Terminated, triggerAttach, schema.Terminated, false},
	}
	for _, tc := range cases {
		s := NewSession(SessionConfig{})
		s.readiness = tc.from
		ok := s.fire(tc.trig)
		if ok != tc.ok || s.readiness != tc.want {
			t.Fatalf("%s --%s--> got %s (%v), want %s (%v)", tc.from, tc.trig, s.readiness, ok, tc.want, tc.ok)
		}
	}
}

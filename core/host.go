package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"pkt.systems/inkbridge/internal/persist"
	"pkt.systems/inkbridge/linkify"
	"pkt.systems/inkbridge/plaintext"
	"pkt.systems/inkbridge/schema"
	"pkt.systems/inkbridge/wire"
	"pkt.systems/pslog"
)

// Host owns document state and the sessions attached to it.
// Like Session it is loop-affine: every method must run on the Loop goroutine.
type Host struct {
	cfg      schema.HostConfig
	store    *persist.Store
	sink     EventSink
	log      pslog.Logger
	docs     map[schema.DocumentID]*document
	surfaces map[schema.SurfaceID]*attachment
}

type document struct {
	id       schema.DocumentID
	content  string
	theme    schema.ThemeName
	height   float64
	sessions []*Session
}

type attachment struct {
	doc     *document
	session *Session
}

// NewHost constructs a host with the given config.
func NewHost(cfg schema.HostConfig, deps HostDeps) (*Host, error) {
	normalized, err := schema.NormalizeHostConfig(cfg)
	if err != nil {
		return nil, err
	}
	cfg = normalized
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	store := deps.Store
	if store == nil {
		store, err = persist.NewStoreWithLogger(cfg.StateDir, logger)
		if err != nil {
			return nil, err
		}
	}
	return &Host{
		cfg:      cfg,
		store:    store,
		sink:     deps.EventSink,
		log:      logger,
		docs:     make(map[schema.DocumentID]*document),
		surfaces: make(map[schema.SurfaceID]*attachment),
	}, nil
}

// Config returns the normalized host config.
func (h *Host) Config() schema.HostConfig {
	return h.cfg
}

// AttachSurface creates a session for surface on the document and moves it to Loading.
func (h *Host) AttachSurface(docID schema.DocumentID, surfaceID schema.SurfaceID, surface Surface) (*Session, error) {
	if surfaceID == "" || surface == nil {
		return nil, fmt.Errorf("%w: surface is required", schema.ErrInvalidRequest)
	}
	if _, exists := h.surfaces[surfaceID]; exists {
		return nil, fmt.Errorf("%w: surface %s already attached", schema.ErrInvalidRequest, surfaceID)
	}
	doc, err := h.document(docID)
	if err != nil {
		return nil, err
	}
	session := Attach(SessionConfig{
		ID:             surfaceID,
		Placeholder:    h.cfg.Placeholder,
		InitialContent: doc.content,
		Theme:          func() schema.ThemeName { return doc.theme },
		Sink:           &sessionSink{host: h, doc: doc, surfaceID: surfaceID},
		Logger:         h.log.With("document", doc.id),
	}, surface)
	doc.sessions = append(doc.sessions, session)
	h.surfaces[surfaceID] = &attachment{doc: doc, session: session}
	h.log.Info("host surface attach", "document", doc.id, "surface", surfaceID, "surfaces", len(doc.sessions))
	h.publish(schema.DocumentEvent{DocumentID: doc.id, Type: schema.DocumentEventAttached, SurfaceID: surfaceID})
	return session, nil
}

// DetachSurface terminates the surface's session. It reports whether the surface was attached.
func (h *Host) DetachSurface(surfaceID schema.SurfaceID) bool {
	att, ok := h.surfaces[surfaceID]
	if !ok {
		return false
	}
	delete(h.surfaces, surfaceID)
	att.session.Detach()
	sessions := make([]*Session, 0, len(att.doc.sessions))
	for _, s := range att.doc.sessions {
		if s != att.session {
			sessions = append(sessions, s)
		}
	}
	att.doc.sessions = sessions
	h.log.Info("host surface detach", "document", att.doc.id, "surface", surfaceID, "surfaces", len(sessions))
	h.publish(schema.DocumentEvent{DocumentID: att.doc.id, Type: schema.DocumentEventDetached, SurfaceID: surfaceID})
	return true
}

// Session returns the session for an attached surface.
func (h *Host) Session(surfaceID schema.SurfaceID) (*Session, bool) {
	att, ok := h.surfaces[surfaceID]
	if !ok {
		return nil, false
	}
	return att.session, true
}

// DocumentOf returns the document a surface is attached to.
func (h *Host) DocumentOf(surfaceID schema.SurfaceID) (schema.DocumentID, bool) {
	att, ok := h.surfaces[surfaceID]
	if !ok {
		return "", false
	}
	return att.doc.id, true
}

// HandleSurfaceEvent routes an inbound event to the surface's session.
func (h *Host) HandleSurfaceEvent(surfaceID schema.SurfaceID, ev schema.SurfaceEvent) error {
	att, ok := h.surfaces[surfaceID]
	if !ok {
		return schema.ErrSurfaceNotFound
	}
	att.session.HandleEvent(ev)
	return nil
}

// SetContent replaces host-owned content and syncs every attached surface.
func (h *Host) SetContent(docID schema.DocumentID, text string) error {
	doc, err := h.document(docID)
	if err != nil {
		return err
	}
	doc.content = text
	h.save(doc)
	h.publish(schema.DocumentEvent{DocumentID: doc.id, Type: schema.DocumentEventContent, Content: text})
	for _, s := range doc.sessions {
		s.SyncHostContent(text)
	}
	return nil
}

// SetTheme changes the document theme and syncs every attached surface.
func (h *Host) SetTheme(docID schema.DocumentID, theme schema.ThemeName) error {
	normalized, ok := schema.NormalizeThemeName(string(theme))
	if !ok {
		return schema.ErrInvalidTheme
	}
	doc, err := h.document(docID)
	if err != nil {
		return err
	}
	if doc.theme != normalized {
		doc.theme = normalized
		h.save(doc)
		h.publish(schema.DocumentEvent{DocumentID: doc.id, Type: schema.DocumentEventTheme, Theme: normalized})
	}
	for _, s := range doc.sessions {
		s.SyncTheme(normalized)
	}
	return nil
}

// Issue sends cmd to every surface attached to the document.
func (h *Host) Issue(docID schema.DocumentID, cmd schema.Command) error {
	cmd, err := prepareCommand(cmd)
	if err != nil {
		return err
	}
	switch cmd.Kind {
	case schema.CommandSetContent:
		return h.SetContent(docID, cmd.Text)
	case schema.CommandSetTheme:
		return h.SetTheme(docID, cmd.Theme)
	}
	doc, err := h.document(docID)
	if err != nil {
		return err
	}
	for _, s := range doc.sessions {
		s.IssueCommand(cmd)
	}
	return nil
}

// IssueTo sends cmd to a single attached surface. Content and theme commands
// still update the document so other surfaces converge.
func (h *Host) IssueTo(surfaceID schema.SurfaceID, cmd schema.Command) error {
	att, ok := h.surfaces[surfaceID]
	if !ok {
		return schema.ErrSurfaceNotFound
	}
	cmd, err := prepareCommand(cmd)
	if err != nil {
		return err
	}
	switch cmd.Kind {
	case schema.CommandSetContent:
		return h.SetContent(att.doc.id, cmd.Text)
	case schema.CommandSetTheme:
		return h.SetTheme(att.doc.id, cmd.Theme)
	}
	att.session.IssueCommand(cmd)
	return nil
}

// Snapshot returns a read-only view of the document.
func (h *Host) Snapshot(docID schema.DocumentID) (schema.DocumentSnapshot, error) {
	doc, err := h.document(docID)
	if err != nil {
		return schema.DocumentSnapshot{}, err
	}
	surfaces := make([]schema.SurfaceSnapshot, 0, len(doc.sessions))
	for _, s := range doc.sessions {
		surfaces = append(surfaces, schema.SurfaceSnapshot{
			ID:        s.ID(),
			Readiness: s.Readiness().String(),
			Height:    s.LastHeight(),
		})
	}
	return schema.DocumentSnapshot{
		ID:       doc.id,
		Content:  doc.content,
		Preview:  plaintext.Preview(doc.content, h.cfg.PreviewRunes),
		Theme:    doc.theme,
		Height:   doc.height,
		Surfaces: surfaces,
	}, nil
}

// Documents lists documents known in memory or on disk.
func (h *Host) Documents() ([]schema.DocumentID, error) {
	seen := make(map[schema.DocumentID]struct{}, len(h.docs))
	for id := range h.docs {
		seen[id] = struct{}{}
	}
	stored, err := h.store.List()
	if err != nil {
		return nil, err
	}
	for _, id := range stored {
		seen[id] = struct{}{}
	}
	out := make([]schema.DocumentID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// DetachAll terminates every attached session.
func (h *Host) DetachAll() {
	for id := range h.surfaces {
		h.DetachSurface(id)
	}
}

func prepareCommand(cmd schema.Command) (schema.Command, error) {
	if cmd.Kind == schema.CommandSetLink && cmd.Link != nil {
		target := linkify.Normalize(*cmd.Link)
		cmd.Link = &target
	}
	if _, err := wire.Encode(cmd); err != nil {
		return schema.Command{}, err
	}
	return cmd, nil
}

func (h *Host) document(docID schema.DocumentID) (*document, error) {
	if docID == "" {
		docID = h.cfg.DefaultDocument
	}
	if doc, ok := h.docs[docID]; ok {
		return doc, nil
	}
	if err := schema.ValidateDocumentID(docID); err != nil {
		return nil, err
	}
	doc := &document{id: docID, theme: h.cfg.DefaultTheme}
	snapshot, ok, err := h.store.Load(docID)
	if err != nil {
		h.log.Warn("host document load failed", "document", docID, "err", err)
	} else if ok {
		doc.content = snapshot.Content
		if theme, valid := schema.NormalizeThemeName(string(snapshot.Theme)); valid {
			doc.theme = theme
		}
		h.log.Debug("host document loaded", "document", docID, "bytes", len(doc.content))
	}
	h.docs[docID] = doc
	return doc, nil
}

func (h *Host) save(doc *document) {
	err := h.store.Save(doc.id, persist.DocumentSnapshot{
		Content:   doc.content,
		Theme:     doc.theme,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		h.log.Warn("host document save failed", "document", doc.id, "err", err)
	}
}

func (h *Host) publish(event schema.DocumentEvent) {
	if h.sink != nil {
		h.sink.OnDocumentEvent(event)
	}
}

// sessionSink applies one session's surface-originated changes to host state.
type sessionSink struct {
	host      *Host
	doc       *document
	surfaceID schema.SurfaceID
}

func (s *sessionSink) OnContentChanged(text string) {
	// A surface acknowledging a host push reports what the host already holds.
	if text == s.doc.content {
		s.host.log.Trace("host content unchanged", "document", s.doc.id, "surface", s.surfaceID)
		return
	}
	s.doc.content = text
	s.host.save(s.doc)
	s.host.publish(schema.DocumentEvent{
		DocumentID: s.doc.id,
		Type:       schema.DocumentEventContent,
		Origin:     s.surfaceID,
		Content:    text,
	})
	// The origin session receives its own text back and suppresses it.
	for _, session := range s.doc.sessions {
		session.SyncHostContent(text)
	}
}

func (s *sessionSink) OnHeightChanged(height float64) {
	s.doc.height = height
	s.host.publish(schema.DocumentEvent{
		DocumentID: s.doc.id,
		Type:       schema.DocumentEventHeight,
		SurfaceID:  s.surfaceID,
		Height:     height,
	})
}

func (s *sessionSink) OnInteractive() {
	s.host.publish(schema.DocumentEvent{
		DocumentID: s.doc.id,
		Type:       schema.DocumentEventInteractive,
		SurfaceID:  s.surfaceID,
	})
}

func (s *sessionSink) OnUnrecognizedEvent(name string) {
	s.host.publish(schema.DocumentEvent{
		DocumentID: s.doc.id,
		Type:       schema.DocumentEventUnrecognized,
		SurfaceID:  s.surfaceID,
		Name:       name,
	})
}

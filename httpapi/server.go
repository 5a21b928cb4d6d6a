package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"pkt.systems/inkbridge/core"
	"pkt.systems/inkbridge/internal/eventbus"
	"pkt.systems/inkbridge/internal/logx"
	"pkt.systems/inkbridge/internal/markdown"
	"pkt.systems/inkbridge/linkify"
	"pkt.systems/inkbridge/plaintext"
	"pkt.systems/inkbridge/schema"
	"pkt.systems/inkbridge/wire"
)

const maxBodySize = 4 << 20

// Server serves the editor page, the surface transport and the host API.
type Server struct {
	cfg      Config
	loop     *core.Loop
	host     *core.Host
	bus      *eventbus.Bus
	hub      *Hub
	basePath string
	baseHref string

	exportPolicy *bluemonday.Policy
}

// NewServer constructs an HTTP server. Host state is only touched through loop.
func NewServer(cfg Config, loop *core.Loop, host *core.Host, bus *eventbus.Bus, hub *Hub) *Server {
	if hub == nil {
		hub = NewHub(cfg.OutboxHistory, cfg.StreamDepth)
	}
	if cfg.DefaultDocument == "" {
		cfg.DefaultDocument = schema.DefaultDocument
	}
	return &Server{
		cfg:      cfg,
		loop:     loop,
		host:     host,
		bus:      bus,
		hub:      hub,
		basePath: normalizeBasePath(cfg.BasePath),
		baseHref: buildBaseHref(cfg.BaseURL, cfg.BasePath),

		exportPolicy: bluemonday.UGCPolicy(),
	}
}

// Handler returns an http.Handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleIndex)
	mux.Handle("GET /assets/", http.StripPrefix("/assets/", http.FileServer(http.FS(assetsFS))))

	mux.HandleFunc("GET /api/surfaces/stream", s.handleSurfaceStream)
	mux.HandleFunc("POST /api/surfaces/{id}/events", s.handleSurfaceEvent)
	mux.HandleFunc("GET /api/surfaces/{id}/outbox", s.handleSurfaceOutbox)

	mux.HandleFunc("GET /api/documents", s.handleDocuments)
	mux.HandleFunc("GET /api/documents/{id}", s.handleDocument)
	mux.HandleFunc("PUT /api/documents/{id}/content", s.handleDocumentContent)
	mux.HandleFunc("PUT /api/documents/{id}/theme", s.handleDocumentTheme)
	mux.HandleFunc("POST /api/documents/{id}/commands", s.handleDocumentCommand)
	mux.HandleFunc("GET /api/documents/{id}/events", s.handleDocumentEvents)
	mux.HandleFunc("GET /api/documents/{id}/export", s.handleDocumentExport)

	mux.HandleFunc("POST /api/classify", s.handleClassify)
	mux.HandleFunc("POST /api/strip", s.handleStrip)

	return mountAt(s.basePath, withRequestLogging(mux))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data, err := fs.ReadFile(assetsFS, "index.html")
	if err != nil {
		http.Error(w, "index not found", http.StatusInternalServerError)
		return
	}
	stat, err := fs.Stat(assetsFS, "index.html")
	if err != nil {
		http.Error(w, "index not found", http.StatusInternalServerError)
		return
	}
	data = applyBaseHref(data, s.baseHref)
	data = applyDefaultDocument(data, s.cfg.DefaultDocument)
	http.ServeContent(w, r, "index.html", stat.ModTime(), bytes.NewReader(data))
}

const baseHrefPlaceholder = "<!-- BASE_HREF -->"
const defaultDocumentPlaceholder = "DEFAULT_DOCUMENT"

func applyBaseHref(data []byte, baseHref string) []byte {
	replacement := ""
	if strings.TrimSpace(baseHref) != "" {
		replacement = fmt.Sprintf(`<base href="%s" />`, html.EscapeString(baseHref))
	}
	return bytes.ReplaceAll(data, []byte(baseHrefPlaceholder), []byte(replacement))
}

func applyDefaultDocument(data []byte, docID schema.DocumentID) []byte {
	return bytes.ReplaceAll(data, []byte(defaultDocumentPlaceholder), []byte(html.EscapeString(string(docID))))
}

// handleSurfaceStream attaches a new surface for the page and streams the
// scripts the session sends it. Closing the stream detaches the surface.
func (s *Server) handleSurfaceStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("stream unsupported"))
		return
	}
	docID := s.documentParam(r.URL.Query().Get("doc"))
	if err := schema.ValidateDocumentID(docID); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	surfaceID := newSurfaceID()
	log := logx.WithDocumentSurface(r.Context(), docID, surfaceID)

	ch, release := s.hub.Open(surfaceID, docID)
	defer release()
	s.hub.publish(surfaceID, StreamEvent{Type: streamEventAttached, Document: docID, Timestamp: time.Now()})

	var attachErr error
	if err := s.loop.Call(r.Context(), func() {
		_, attachErr = s.host.AttachSurface(docID, surfaceID, s.hub.Surface(surfaceID))
	}); err != nil {
		attachErr = err
	}
	if attachErr != nil {
		log.Warn("http surface attach failed", "err", attachErr)
		writeError(w, statusFor(attachErr), attachErr)
		return
	}
	defer func() {
		if err := s.loop.Post(context.Background(), func() { s.host.DetachSurface(surfaceID) }); err != nil {
			log.Debug("http surface detach skipped", "err", err)
		}
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	notify := r.Context().Done()
	log.Info("http surface stream opened")
	for {
		select {
		case <-notify:
			log.Info("http surface stream closed")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			_ = writeSSEvent(w, event.Seq, event)
			flusher.Flush()
		}
	}
}

func (s *Server) handleSurfaceEvent(w http.ResponseWriter, r *http.Request) {
	surfaceID := schema.SurfaceID(r.PathValue("id"))
	docID, _ := s.hub.Document(surfaceID)
	log := logx.WithDocumentSurface(r.Context(), docID, surfaceID)
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	event, err := wire.DecodeEvent(body)
	if err != nil {
		log.Warn("http surface event rejected", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var handleErr error
	if err := s.loop.Call(r.Context(), func() {
		handleErr = s.host.HandleSurfaceEvent(surfaceID, event)
	}); err != nil {
		handleErr = err
	}
	if handleErr != nil {
		log.Debug("http surface event failed", "kind", event.Kind, "err", handleErr)
		writeError(w, statusFor(handleErr), handleErr)
		return
	}
	log.Trace("http surface event", "kind", event.Kind)
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

func (s *Server) handleSurfaceOutbox(w http.ResponseWriter, r *http.Request) {
	surfaceID := schema.SurfaceID(r.PathValue("id"))
	history, ok := s.hub.History(surfaceID)
	if !ok {
		writeError(w, http.StatusNotFound, schema.ErrSurfaceNotFound)
		return
	}
	after := parseUint(r.URL.Query().Get("after"))
	events := make([]StreamEvent, 0, len(history))
	for _, event := range history {
		if event.Seq > after {
			events = append(events, event)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"surface": surfaceID, "events": events})
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	var docs []schema.DocumentID
	var listErr error
	if err := s.loop.Call(r.Context(), func() { docs, listErr = s.host.Documents() }); err != nil {
		listErr = err
	}
	if listErr != nil {
		writeError(w, statusFor(listErr), listErr)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	docID := schema.DocumentID(r.PathValue("id"))
	var snapshot schema.DocumentSnapshot
	var snapErr error
	if err := s.loop.Call(r.Context(), func() { snapshot, snapErr = s.host.Snapshot(docID) }); err != nil {
		snapErr = err
	}
	if snapErr != nil {
		writeError(w, statusFor(snapErr), snapErr)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// handleDocumentExport serves the document as a standalone HTML page. Content
// comes from surfaces and is sanitized before it leaves the host.
func (s *Server) handleDocumentExport(w http.ResponseWriter, r *http.Request) {
	docID := schema.DocumentID(r.PathValue("id"))
	var snapshot schema.DocumentSnapshot
	var snapErr error
	if err := s.loop.Call(r.Context(), func() { snapshot, snapErr = s.host.Snapshot(docID) }); err != nil {
		snapErr = err
	}
	if snapErr != nil {
		writeError(w, statusFor(snapErr), snapErr)
		return
	}
	body := s.exportPolicy.Sanitize(snapshot.Content)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "<!doctype html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\" />\n<title>%s</title>\n</head>\n<body data-theme=\"%s\">\n%s\n</body>\n</html>\n",
		html.EscapeString(string(snapshot.ID)), html.EscapeString(string(snapshot.Theme)), body)
}

func (s *Server) handleDocumentContent(w http.ResponseWriter, r *http.Request) {
	docID := schema.DocumentID(r.PathValue("id"))
	log := logx.WithDocument(r.Context(), docID)
	var payload struct {
		Content string `json:"content"`
		Format  string `json:"format"`
	}
	if err := decodeJSON(http.MaxBytesReader(w, r.Body, maxBodySize), &payload); err != nil {
		log.Warn("http content decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	content := payload.Content
	switch strings.ToLower(strings.TrimSpace(payload.Format)) {
	case "", "html":
	case "markdown":
		content = markdown.ToHTML(payload.Content)
	default:
		err := fmt.Errorf("%w: unknown content format %q", schema.ErrInvalidRequest, payload.Format)
		log.Warn("http content rejected", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if s.respondAfter(w, r, func() error { return s.host.SetContent(docID, content) }) {
		log.Info("http content set", "bytes", len(content), "format", payload.Format)
	}
}

func (s *Server) handleDocumentTheme(w http.ResponseWriter, r *http.Request) {
	docID := schema.DocumentID(r.PathValue("id"))
	log := logx.WithDocument(r.Context(), docID)
	var payload struct {
		Theme string `json:"theme"`
	}
	if err := decodeJSON(http.MaxBytesReader(w, r.Body, maxBodySize), &payload); err != nil {
		log.Warn("http theme decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if s.respondAfter(w, r, func() error { return s.host.SetTheme(docID, schema.ThemeName(payload.Theme)) }) {
		log.Info("http theme set", "theme", payload.Theme)
	}
}

func (s *Server) handleDocumentCommand(w http.ResponseWriter, r *http.Request) {
	docID := schema.DocumentID(r.PathValue("id"))
	surfaceID := schema.SurfaceID(r.URL.Query().Get("surface"))
	log := logx.WithDocumentSurface(r.Context(), docID, surfaceID)
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	cmd, err := wire.DecodeCommand(body)
	if err != nil {
		log.Warn("http command decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ok := s.respondAfter(w, r, func() error {
		if surfaceID != "" {
			owner, ok := s.host.DocumentOf(surfaceID)
			if !ok || owner != docID {
				return schema.ErrSurfaceNotFound
			}
			return s.host.IssueTo(surfaceID, cmd)
		}
		return s.host.Issue(docID, cmd)
	})
	if ok {
		log.Debug("http command issued", "command", cmd.Kind)
	}
}

// handleDocumentEvents streams host document events as SSE.
func (s *Server) handleDocumentEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("stream unsupported"))
		return
	}
	docID := schema.DocumentID(r.PathValue("id"))
	if err := schema.ValidateDocumentID(docID); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	log := logx.WithDocument(r.Context(), docID)
	ch, unsubscribe := s.bus.Subscribe(docID)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var seq uint64
	notify := r.Context().Done()
	log.Info("http document stream opened")
	for {
		select {
		case <-notify:
			log.Info("http document stream closed")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			seq++
			_ = writeSSEvent(w, seq, event)
			flusher.Flush()
		}
	}
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(http.MaxBytesReader(w, r.Body, maxBodySize), &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	result := linkify.Classify(payload.Text)
	writeJSON(w, http.StatusOK, map[string]any{"kind": result.Kind, "value": result.Value})
}

func (s *Server) handleStrip(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text     string `json:"text"`
		MaxRunes int    `json:"max_runes"`
	}
	if err := decodeJSON(http.MaxBytesReader(w, r.Body, maxBodySize), &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"contains_tags": plaintext.ContainsTags(payload.Text),
		"text":          plaintext.StripTags(payload.Text),
		"preview":       plaintext.Preview(payload.Text, payload.MaxRunes),
	})
}

// respondAfter runs op on the loop and writes the JSON result.
func (s *Server) respondAfter(w http.ResponseWriter, r *http.Request, op func() error) bool {
	var opErr error
	if err := s.loop.Call(r.Context(), func() { opErr = op() }); err != nil {
		opErr = err
	}
	if opErr != nil {
		logx.Ctx(r.Context()).Debug("http operation failed", "path", r.URL.Path, "err", opErr)
		writeError(w, statusFor(opErr), opErr)
		return false
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	return true
}

func (s *Server) documentParam(value string) schema.DocumentID {
	if strings.TrimSpace(value) == "" {
		return s.cfg.DefaultDocument
	}
	return schema.DocumentID(value)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, schema.ErrInvalidRequest),
		errors.Is(err, schema.ErrInvalidCommand),
		errors.Is(err, schema.ErrInvalidEvent),
		errors.Is(err, schema.ErrInvalidTheme),
		errors.Is(err, schema.ErrInvalidDocument):
		return http.StatusBadRequest
	case errors.Is(err, schema.ErrSurfaceNotFound):
		return http.StatusNotFound
	case errors.Is(err, schema.ErrLoopStopped),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func newSurfaceID() schema.SurfaceID {
	return schema.SurfaceID(uuid.NewString())
}

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", schema.ErrInvalidRequest, maxBodySize)
	}
	return body, nil
}

func decodeJSON(body io.Reader, target any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("%w: %v", schema.ErrInvalidRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeSSEvent(w http.ResponseWriter, seq uint64, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if seq > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", seq)
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", strings.TrimSpace(string(data)))
	return nil
}

func parseUint(value string) uint64 {
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}

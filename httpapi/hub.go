package httpapi

import (
	"context"
	"sync"
	"time"

	"pkt.systems/inkbridge/internal/logx"
	"pkt.systems/inkbridge/schema"
)

// StreamEvent is sent to editor page SSE clients.
type StreamEvent struct {
	Seq       uint64            `json:"seq"`
	Type      string            `json:"type"`
	Surface   schema.SurfaceID  `json:"surface,omitempty"`
	Document  schema.DocumentID `json:"document,omitempty"`
	Script    string            `json:"script,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

const (
	streamEventAttached = "attached"
	streamEventScript   = "script"
)

// Hub holds the outbound script stream of every surface served over HTTP.
type Hub struct {
	mu          sync.Mutex
	surfaces    map[schema.SurfaceID]*surfaceHub
	historySize int
	depth       int
}

// NewHub constructs a hub with the given history size and subscriber depth.
func NewHub(historySize, depth int) *Hub {
	if historySize <= 0 {
		historySize = 200
	}
	if depth <= 0 {
		depth = 256
	}
	return &Hub{
		surfaces:    make(map[schema.SurfaceID]*surfaceHub),
		historySize: historySize,
		depth:       depth,
	}
}

// Open registers a surface and returns its stream and a release func.
func (h *Hub) Open(surfaceID schema.SurfaceID, docID schema.DocumentID) (<-chan StreamEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sh := &surfaceHub{
		document: docID,
		sub:      make(chan StreamEvent, h.depth),
	}
	h.surfaces[surfaceID] = sh
	log := logx.WithDocumentSurface(context.Background(), docID, surfaceID)
	log.Info("hub surface open", "surfaces", len(h.surfaces))
	var once sync.Once
	release := func() {
		once.Do(func() {
			h.mu.Lock()
			if h.surfaces[surfaceID] == sh {
				delete(h.surfaces, surfaceID)
			}
			close(sh.sub)
			sh.closed = true
			remaining := len(h.surfaces)
			h.mu.Unlock()
			log.Info("hub surface close", "surfaces", remaining)
		})
	}
	return sh.sub, release
}

// Surface returns the core.Surface that publishes scripts to surfaceID's stream.
func (h *Hub) Surface(surfaceID schema.SurfaceID) *HubSurface {
	return &HubSurface{hub: h, id: surfaceID}
}

// History returns recent events for the surface.
func (h *Hub) History(surfaceID schema.SurfaceID) ([]StreamEvent, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sh := h.surfaces[surfaceID]
	if sh == nil {
		return nil, false
	}
	return append([]StreamEvent(nil), sh.history...), true
}

// Document returns the document the surface stream was opened for.
func (h *Hub) Document(surfaceID schema.SurfaceID) (schema.DocumentID, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sh := h.surfaces[surfaceID]
	if sh == nil {
		return "", false
	}
	return sh.document, true
}

func (h *Hub) publish(surfaceID schema.SurfaceID, event StreamEvent) {
	h.mu.Lock()
	sh := h.surfaces[surfaceID]
	if sh == nil || sh.closed {
		h.mu.Unlock()
		logx.WithSurface(logx.Ctx(context.Background()), surfaceID).Debug("hub publish without stream", "type", event.Type)
		return
	}
	sh.seq++
	event.Seq = sh.seq
	event.Surface = surfaceID
	sh.history = append(sh.history, event)
	if len(sh.history) > h.historySize {
		sh.history = sh.history[len(sh.history)-h.historySize:]
	}
	dropped := false
	select {
	case sh.sub <- event:
	default:
		dropped = true
	}
	h.mu.Unlock()
	if dropped {
		logx.WithDocumentSurface(context.Background(), sh.document, surfaceID).Warn("hub event dropped", "type", event.Type, "seq", event.Seq)
	}
}

type surfaceHub struct {
	document schema.DocumentID
	seq      uint64
	history  []StreamEvent
	sub      chan StreamEvent
	closed   bool
}

// HubSurface implements core.Surface on top of a hub stream.
type HubSurface struct {
	hub *Hub
	id  schema.SurfaceID
}

// Dispatch publishes script without blocking.
func (s *HubSurface) Dispatch(script string) {
	s.hub.publish(s.id, StreamEvent{
		Type:      streamEventScript,
		Script:    script,
		Timestamp: time.Now(),
	})
}

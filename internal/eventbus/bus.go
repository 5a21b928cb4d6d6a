package eventbus

import (
	"context"
	"sync"

	"pkt.systems/inkbridge/schema"
	"pkt.systems/pslog"
)

// Bus fanouts document events to per-document subscribers.
type Bus struct {
	mu    sync.Mutex
	subs  map[schema.DocumentID]map[chan schema.DocumentEvent]struct{}
	log   pslog.Logger
	depth int
}

// New constructs a Bus.
func New(logger pslog.Logger) *Bus {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Bus{
		subs:  make(map[schema.DocumentID]map[chan schema.DocumentEvent]struct{}),
		log:   logger,
		depth: 256,
	}
}

// Subscribe registers a subscriber for the document and returns a channel + cancel.
func (b *Bus) Subscribe(docID schema.DocumentID) (<-chan schema.DocumentEvent, func()) {
	if b == nil {
		return nil, func() {}
	}
	ch := make(chan schema.DocumentEvent, b.depth)
	b.mu.Lock()
	docSubs := b.subs[docID]
	if docSubs == nil {
		docSubs = make(map[chan schema.DocumentEvent]struct{})
		b.subs[docID] = docSubs
	}
	docSubs[ch] = struct{}{}
	count := len(docSubs)
	b.mu.Unlock()
	if b.log != nil {
		b.log.With("document", docID).Debug("eventbus subscribe", "subs", count)
	}
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			if subs := b.subs[docID]; subs != nil {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(b.subs, docID)
				}
			}
			b.mu.Unlock()
			close(ch)
			if b.log != nil {
				b.log.With("document", docID).Debug("eventbus unsubscribe")
			}
		})
	}
}

// OnDocumentEvent implements core.EventSink.
func (b *Bus) OnDocumentEvent(event schema.DocumentEvent) {
	b.publish(event.DocumentID, event)
}

func (b *Bus) publish(docID schema.DocumentID, event schema.DocumentEvent) {
	if b == nil {
		return
	}
	b.mu.Lock()
	docSubs := b.subs[docID]
	subs := make([]chan schema.DocumentEvent, 0, len(docSubs))
	for sub := range docSubs {
		subs = append(subs, sub)
	}
	// Sends happen under the lock so a concurrent cancel cannot close a channel mid-send.
	dropped := 0
	for _, sub := range subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	b.mu.Unlock()
	if dropped > 0 && b.log != nil {
		b.log.With("document", docID).Trace("eventbus dropped", "type", event.Type, "count", dropped)
	}
}

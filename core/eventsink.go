package core

import "pkt.systems/inkbridge/schema"

// EventSink receives document events from the host.
type EventSink interface {
	OnDocumentEvent(event schema.DocumentEvent)
}

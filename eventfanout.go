package inkbridge

import (
	"pkt.systems/inkbridge/core"
	"pkt.systems/inkbridge/schema"
)

type eventFanout struct {
	sinks []core.EventSink
}

func (f eventFanout) OnDocumentEvent(event schema.DocumentEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnDocumentEvent(event)
	}
}

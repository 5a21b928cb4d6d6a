package core

import (
	"pkt.systems/inkbridge/internal/persist"
	"pkt.systems/pslog"
)

// HostDeps captures optional dependencies for the host.
type HostDeps struct {
	// Store overrides the store derived from HostConfig.StateDir.
	Store     *persist.Store
	EventSink EventSink
	Logger    pslog.Logger
}

package schema

// DocumentID identifies a host-owned document.
type DocumentID string

// SurfaceID identifies one attached content surface instance.
type SurfaceID string

// ThemeName identifies a surface theme.
type ThemeName string

// Readiness is the lifecycle state of a bridge session.
type Readiness uint8

const (
	// Uninitialized is the state of a session that has not been attached.
	Uninitialized Readiness = iota
	// Loading means the surface is loading and cannot receive commands yet.
	Loading
	// Ready means the surface signalled readiness and accepts commands.
	Ready
	// Terminated is absorbing; every call is a no-op.
	Terminated
)

func (r Readiness) String() string {
	switch r {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

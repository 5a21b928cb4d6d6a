package schema

// SurfaceSnapshot is a read-only view of one attached surface.
type SurfaceSnapshot struct {
	ID        SurfaceID `json:"id"`
	Readiness string    `json:"readiness"`
	Height    float64   `json:"height"`
}

// DocumentSnapshot is a read-only view of host document state for transports.
type DocumentSnapshot struct {
	ID       DocumentID        `json:"id"`
	Content  string            `json:"content"`
	Preview  string            `json:"preview"`
	Theme    ThemeName         `json:"theme"`
	Height   float64           `json:"height"`
	Surfaces []SurfaceSnapshot `json:"surfaces"`
}

package httpapi

import "pkt.systems/inkbridge/schema"

// Config defines HTTP API and editor page settings.
type Config struct {
	Addr            string
	BaseURL         string
	BasePath        string
	OutboxHistory   int
	StreamDepth     int
	DefaultDocument schema.DocumentID
}

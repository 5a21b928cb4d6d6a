package logx

import (
	"context"

	"pkt.systems/inkbridge/schema"
	"pkt.systems/pslog"
)

type contextKey int

const (
	documentKey contextKey = iota
	surfaceKey
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithDocument annotates the logger with the document id if present.
func WithDocument(ctx context.Context, docID schema.DocumentID) pslog.Logger {
	log := pslog.Ctx(ctx)
	if docID != "" {
		if current, ok := ctx.Value(documentKey).(schema.DocumentID); ok && current == docID {
			return log
		}
		log = log.With("document", docID)
	}
	return log
}

// WithDocumentSurface annotates the logger with document and surface identifiers.
func WithDocumentSurface(ctx context.Context, docID schema.DocumentID, surfaceID schema.SurfaceID) pslog.Logger {
	log := WithDocument(ctx, docID)
	if surfaceID != "" {
		if current, ok := ctx.Value(surfaceKey).(schema.SurfaceID); ok && current == surfaceID {
			return log
		}
		log = log.With("surface", surfaceID)
	}
	return log
}

// WithSurface annotates an existing logger with a surface id when available.
func WithSurface(log pslog.Logger, surfaceID schema.SurfaceID) pslog.Logger {
	if surfaceID != "" {
		log = log.With("surface", surfaceID)
	}
	return log
}

// ContextWithDocument stores the document marker on the context for log de-duplication.
func ContextWithDocument(ctx context.Context, docID schema.DocumentID) context.Context {
	if ctx == nil || docID == "" {
		return ctx
	}
	return context.WithValue(ctx, documentKey, docID)
}

// ContextWithSurface stores the surface marker on the context for log de-duplication.
func ContextWithSurface(ctx context.Context, surfaceID schema.SurfaceID) context.Context {
	if ctx == nil || surfaceID == "" {
		return ctx
	}
	return context.WithValue(ctx, surfaceKey, surfaceID)
}

// ContextWithDocumentSurfaceLogger attaches the logger and document/surface markers to the context.
func ContextWithDocumentSurfaceLogger(ctx context.Context, log pslog.Logger, docID schema.DocumentID, surfaceID schema.SurfaceID) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	return ContextWithSurface(ContextWithDocument(ctx, docID), surfaceID)
}

package shared

import (
	"context"

	"github.com/meridian-cms/meridian-cms/internal/authz"
)

type recordContextKey struct{}

// ContextWithRecord stores the resolved authorization record in context.
func ContextWithRecord(ctx context.Context, rec *authz.Record) context.Context {
	return context.WithValue(ctx, recordContextKey{}, rec)
}

// RecordFromContext extracts the authorization record from context. Returns
// nil when the request was not authenticated.
func RecordFromContext(ctx context.Context) *authz.Record {
	rec, _ := ctx.Value(recordContextKey{}).(*authz.Record)
	return rec
}

package middleware

import (
	"context"
	"net/http"

	"github.com/rpattn/stockhist/internal/enrichment"
	"github.com/rpattn/stockhist/internal/partloader"
)

type ctxKey string

const partLoaderKey ctxKey = "partLoader"

// DataLoaderMiddleware attaches a fresh part loader to every request so all
// catalog resolutions issued while serving it share one batched call.
func DataLoaderMiddleware(catalog enrichment.CatalogLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loader := partloader.NewPartLoader(catalog)

			ctx := context.WithValue(r.Context(), partLoaderKey, loader)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PartLoaderFromContext retrieves the request's part loader, if any.
func PartLoaderFromContext(ctx context.Context) *partloader.PartLoader {
	if l, ok := ctx.Value(partLoaderKey).(*partloader.PartLoader); ok {
		return l
	}
	return nil
}

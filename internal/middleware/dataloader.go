package middleware

import (
	"context"
	"net/http"

	"github.com/rpattn/dimstore/internal/recordloader"
	"github.com/rpattn/dimstore/internal/repository"
)

type ctxKey string

const recordLoaderKey ctxKey = "recordLoaders"

// DataLoaderMiddleware attaches a fresh per-dimension record loader to
// each request context so batched lookups never leak across requests.
func DataLoaderMiddleware(repos map[string]repository.RecordRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loaders := make(map[string]*recordloader.RecordLoader, len(repos))
			for name, repo := range repos {
				loaders[name] = recordloader.NewRecordLoader(repo)
			}

			ctx := context.WithValue(r.Context(), recordLoaderKey, loaders)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RecordLoaderFromContext retrieves the loader for a dimension from the
// request context.
func RecordLoaderFromContext(ctx context.Context, dimension string) *recordloader.RecordLoader {
	if loaders, ok := ctx.Value(recordLoaderKey).(map[string]*recordloader.RecordLoader); ok {
		return loaders[dimension]
	}
	return nil
}

package resolver

import (
	"net/http"
	"strings"

	"estatehub/pkg/platform/httputil"
	"estatehub/pkg/requestcontext"
)

// Middleware resolves the tenant for every request outside the bypass prefixes
// and attaches it to the request context. Unresolvable requests are rejected.
func (r *Resolver) Middleware(bypassPrefixes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			for _, prefix := range bypassPrefixes {
				if req.URL.Path == prefix || strings.HasPrefix(req.URL.Path, prefix+"/") {
					next.ServeHTTP(w, req)
					return
				}
			}

			ctx := req.Context()
			tenant, err := r.Resolve(ctx, req)
			if err != nil {
				r.logger.WarnContext(ctx, "tenant resolution failed",
					"error", err,
					"host", req.Host,
					"path", req.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, req.WithContext(WithTenant(ctx, tenant)))
		})
	}
}

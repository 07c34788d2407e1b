package request

import (
	"net/http"
)

// BodyLimit rejects requests whose declared Content-Length exceeds maxBytes
// with 413, and caps undeclared or chunked bodies with http.MaxBytesReader so
// decoding fails once the limit is crossed.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeError(w, http.StatusRequestEntityTooLarge, "request_too_large", "request body exceeds the allowed size")
				return
			}
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

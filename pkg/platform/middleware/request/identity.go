// Package request holds the router-wide middleware that runs before tenant
// resolution: identification, logging, recovery and request guards.
package request

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/google/uuid"

	"estatehub/pkg/requestcontext"
)

const (
	HeaderRequestID = "X-Request-ID"

	// MaxRequestIDLength bounds client-supplied request IDs.
	MaxRequestIDLength = 128
)

// RequestID propagates a safe client X-Request-ID or mints a UUID, and
// echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get(HeaderRequestID)
		if !isValidRequestID(rid) {
			rid = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, rid)
		next.ServeHTTP(w, r.WithContext(requestcontext.WithRequestID(r.Context(), rid)))
	})
}

// isValidRequestID accepts 1..MaxRequestIDLength bytes of [A-Za-z0-9._-] so
// the value can be logged and echoed verbatim.
func isValidRequestID(rid string) bool {
	if rid == "" || len(rid) > MaxRequestIDLength {
		return false
	}
	for i := 0; i < len(rid); i++ {
		switch c := rid[i]; {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '.', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}

// ClientIP records the caller address and pins the request clock. The first
// X-Forwarded-For hop is used only when trustProxy is set.
func ClientIP(trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := peerAddr(r.RemoteAddr)
			if trustProxy {
				if fwd := forwardedFor(r.Header.Get("X-Forwarded-For")); fwd != "" {
					ip = fwd
				}
			}
			ctx := requestcontext.WithClientIP(r.Context(), ip)
			ctx = requestcontext.WithNow(ctx, time.Now())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func forwardedFor(header string) string {
	first, _, _ := strings.Cut(header, ",")
	addr, err := netip.ParseAddr(strings.TrimSpace(first))
	if err != nil {
		return ""
	}
	return addr.Unmap().String()
}

func peerAddr(remote string) string {
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		return remote
	}
	return host
}

package request

import (
	"encoding/json"
	"mime"
	"net/http"
	"time"
)

const timeoutBody = `{"success":false,"error":"timeout","error_description":"request timed out"}`

// Timeout answers 503 with the error envelope once timeout elapses.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, timeoutBody)
	}
}

// ContentTypeJSON rejects bodies on POST, PUT and PATCH that declare a media
// type other than application/json. An absent header is allowed.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if ct := r.Header.Get("Content-Type"); ct != "" {
				mediaType, _, err := mime.ParseMediaType(ct)
				if err != nil || mediaType != "application/json" {
					writeError(w, http.StatusUnsupportedMediaType, "invalid_content_type", "Content-Type must be application/json")
					return
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// writeError writes the API error envelope for failures raised before a
// handler runs.
func writeError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct { //nolint:errcheck // status already sent
		Success          bool   `json:"success"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}{Error: code, ErrorDescription: description})
}

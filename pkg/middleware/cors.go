package middleware

import (
	"net/http"
	"slices"
	"strings"
)

// Everything the feed serves is read only. EventSource reconnects send
// Last-Event-ID, so it has to survive preflight.
var (
	corsMethods = []string{http.MethodGet, http.MethodHead}
	corsHeaders = []string{"accept", "cache-control", "last-event-id", strings.ToLower(HeaderRequestID)}
)

const corsMaxAge = "600"

// CORS lets browser pages on origins read the feed. With no origins any
// page may; the answer is then "*" and carries no Vary. Preflights from
// an unknown origin or for a method other than GET and HEAD are refused.
func CORS(origins ...string) func(http.Handler) http.Handler {
	anyOrigin := len(origins) == 0
	allowMethods := strings.Join(corsMethods, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			known := anyOrigin || slices.Contains(origins, origin)
			if !anyOrigin {
				h.Add("Vary", "Origin")
			}

			wanted := r.Header.Get("Access-Control-Request-Method")
			if r.Method == http.MethodOptions && wanted != "" {
				switch {
				case !known:
					w.WriteHeader(http.StatusForbidden)
				case !slices.Contains(corsMethods, wanted):
					h.Set("Allow", allowMethods)
					w.WriteHeader(http.StatusMethodNotAllowed)
				default:
					allowOrigin(h, anyOrigin, origin)
					h.Set("Access-Control-Allow-Methods", allowMethods)
					if hdrs := requestedHeaders(r); hdrs != "" {
						h.Set("Access-Control-Allow-Headers", hdrs)
					}
					h.Set("Access-Control-Max-Age", corsMaxAge)
					w.WriteHeader(http.StatusNoContent)
				}
				return
			}

			if known {
				allowOrigin(h, anyOrigin, origin)
				h.Set("Access-Control-Expose-Headers", HeaderRequestID)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func allowOrigin(h http.Header, anyOrigin bool, origin string) {
	if anyOrigin {
		h.Set("Access-Control-Allow-Origin", "*")
		return
	}
	h.Set("Access-Control-Allow-Origin", origin)
}

// requestedHeaders echoes the preflight's requested headers the feed
// accepts and silently leaves out the rest.
func requestedHeaders(r *http.Request) string {
	var ok []string
	for _, name := range strings.Split(r.Header.Get("Access-Control-Request-Headers"), ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" && slices.Contains(corsHeaders, name) {
			ok = append(ok, name)
		}
	}
	return strings.Join(ok, ", ")
}

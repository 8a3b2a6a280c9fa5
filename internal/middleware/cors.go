package middleware

import (
	"net/http"
	"strings"
)

const (
	corsAllowHeaders = "Content-Type, Authorization"
	// POST /graphql carries every operation; GET serves /health and /metrics.
	corsAllowMethods = "GET, POST, OPTIONS"
	corsMaxAge       = "600"
)

// corsPolicy is the cross-origin policy of the browser back office calling POST /graphql.
type corsPolicy struct {
	wildcard bool
	origins  map[string]struct{}
}

func newCORSPolicy(allowedOrigins []string) corsPolicy {
	p := corsPolicy{origins: make(map[string]struct{}, len(allowedOrigins))}
	for _, origin := range allowedOrigins {
		origin = strings.ToLower(strings.TrimSpace(origin))
		switch origin {
		case "":
		case "*":
			p.wildcard = true
		default:
			p.origins[origin] = struct{}{}
		}
	}
	return p
}

// grant returns the Access-Control-Allow-Origin value for origin. Credentials are only
// granted to origins listed by name, never to the wildcard.
func (p corsPolicy) grant(origin string) (allowOrigin string, credentials, ok bool) {
	if _, listed := p.origins[strings.ToLower(origin)]; listed {
		return origin, true, true
	}
	if p.wildcard {
		return "*", false, true
	}
	return "", false, false
}

// CORS lets the configured browser origins reach /graphql with a bearer token and answers
// their preflight requests without touching the API.
func CORS(allowedOrigins []string, next http.Handler) http.Handler {
	policy := newCORSPolicy(allowedOrigins)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Add("Vary", "Origin")
		if origin := r.Header.Get("Origin"); origin != "" {
			if allowOrigin, credentials, ok := policy.grant(origin); ok {
				h.Set("Access-Control-Allow-Origin", allowOrigin)
				if credentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Max-Age", corsMaxAge)
			}
		}

		if isPreflight(r) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
}

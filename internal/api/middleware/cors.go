package middleware

import (
	"net/http"
	"strconv"

	"github.com/go-chi/cors"
)

const (
	corsAllowMethods = "GET, POST, PUT, DELETE, PATCH, OPTIONS, HEAD"
	corsAllowHeaders = "Content-Type, Authorization, X-Requested-With, Accept, Origin, X-Request-ID, ngrok-skip-browser-warning"
	corsMaxAge       = 86400
)

// Preflight answers every OPTIONS request itself so that tunnels and proxies
// in front of the service never see the request reach a route. Downstream
// handlers are not invoked for preflights.
func Preflight(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		h := w.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Methods", corsAllowMethods)
		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		h.Set("Access-Control-Max-Age", strconv.Itoa(corsMaxAge))
		h.Set("Access-Control-Allow-Credentials", "false")
		h.Add("Vary", "Origin")
		w.WriteHeader(http.StatusOK)
	})
}

// CORS adds access-control headers to non-preflight responses for the
// allowed origins.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete,
			http.MethodPatch, http.MethodOptions, http.MethodHead,
		},
		AllowedHeaders: []string{
			"Content-Type", "Authorization", "X-Requested-With", "Accept",
			"Origin", "X-Request-ID", "ngrok-skip-browser-warning",
		},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           corsMaxAge,
	})
}

package middleware

import (
	"net/http"
	"strings"
)

// SecurityConfig configures SecurityHeaders. Enabled is normally set from
// the production flag.
type SecurityConfig struct {
	Enabled     bool
	AppURL      string
	FrontendURL string
}

// strippedHeaders identify the server software and are removed from every response.
var strippedHeaders = []string{"Server", "X-Powered-By"}

// SecurityHeaders adds the browser hardening headers to every response and
// strips server identification. The headers are applied when the response
// header is written, after the route handler has set its own.
func SecurityHeaders(cfg SecurityConfig) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler { return next }
	}

	csp := contentSecurityPolicy(cfg.AppURL, cfg.FrontendURL)
	permissions := permissionsPolicy(cfg.FrontendURL)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			secure := IsSecure(r)
			sw := &headerWriter{
				ResponseWriter: w,
				apply: func(h http.Header) {
					h.Set("X-Frame-Options", "SAMEORIGIN")
					h.Set("X-Content-Type-Options", "nosniff")
					h.Set("X-XSS-Protection", "1; mode=block")
					h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
					h.Set("Permissions-Policy", permissions)
					h.Set("Content-Security-Policy", csp)
					if secure {
						h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
					}
					for _, name := range strippedHeaders {
						h.Del(name)
					}
				},
			}
			next.ServeHTTP(sw, r)
			sw.ensureApplied()
		})
	}
}

func contentSecurityPolicy(appURL, frontendURL string) string {
	directives := []string{
		directive("default-src", "'self'"),
		directive("script-src", "'self'", "'unsafe-inline'"),
		directive("style-src", "'self'", "'unsafe-inline'"),
		directive("img-src", "'self'", "data:", "blob:", appURL, frontendURL),
		directive("font-src", "'self'", "data:"),
		directive("connect-src", "'self'", appURL, frontendURL),
		directive("frame-src", "'self'", "blob:", appURL, frontendURL),
		directive("frame-ancestors", "'self'", frontendURL),
		directive("object-src", "'none'"),
	}
	return strings.Join(directives, "; ")
}

func permissionsPolicy(frontendURL string) string {
	fullscreen := "self"
	if frontendURL != "" {
		fullscreen += ` "` + frontendURL + `"`
	}
	return "camera=(), microphone=(), geolocation=(), fullscreen=(" + fullscreen + ")"
}

func directive(name string, sources ...string) string {
	parts := []string{name}
	for _, s := range sources {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// headerWriter runs apply once, right before the header is sent.
type headerWriter struct {
	http.ResponseWriter
	apply   func(http.Header)
	applied bool
}

func (w *headerWriter) ensureApplied() {
	if !w.applied {
		w.applied = true
		w.apply(w.ResponseWriter.Header())
	}
}

func (w *headerWriter) WriteHeader(code int) {
	w.ensureApplied()
	w.ResponseWriter.WriteHeader(code)
}

func (w *headerWriter) Write(b []byte) (int, error) {
	w.ensureApplied()
	return w.ResponseWriter.Write(b)
}

func (w *headerWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

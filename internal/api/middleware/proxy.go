package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

const clientInfoKey contextKey = "clientInfo"

// ClientInfo is the transport view of a request after forwarded headers
// have been applied.
type ClientInfo struct {
	IP     string
	Scheme string
	Host   string
}

// ProxyHeaders trusts every proxy hop and derives the client IP, scheme and
// host from X-Forwarded-For, X-Forwarded-Proto, X-Forwarded-Host and
// X-Forwarded-Port. It must run before anything that inspects the client
// address or scheme.
func ProxyHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := resolveClient(r)

		r.RemoteAddr = info.IP
		r.Host = info.Host
		r.URL.Scheme = info.Scheme
		r.URL.Host = info.Host

		ctx := context.WithValue(r.Context(), clientInfoKey, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func resolveClient(r *http.Request) ClientInfo {
	info := ClientInfo{
		IP:     forwardedIP(r),
		Scheme: forwardedScheme(r),
		Host:   r.Host,
	}

	if host := firstValue(r.Header.Get("X-Forwarded-Host")); host != "" {
		info.Host = host
	}

	if port := firstValue(r.Header.Get("X-Forwarded-Port")); port != "" && !hasPort(info.Host) && !defaultPort(info.Scheme, port) {
		info.Host = net.JoinHostPort(info.Host, port)
	}

	return info
}

func forwardedIP(r *http.Request) string {
	for _, candidate := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := parseIP(candidate); ip != "" {
			return ip
		}
	}
	if ip := parseIP(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if ip := parseIP(r.RemoteAddr); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func forwardedScheme(r *http.Request) string {
	switch strings.ToLower(firstValue(r.Header.Get("X-Forwarded-Proto"))) {
	case "https":
		return "https"
	case "http":
		return "http"
	}
	if firstValue(r.Header.Get("X-Forwarded-Port")) == "443" {
		return "https"
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

// parseIP accepts a bare address or host:port and returns the canonical IP.
func parseIP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	s = strings.Trim(s, "[]")
	if ip := net.ParseIP(s); ip != nil {
		return ip.String()
	}
	return ""
}

func firstValue(header string) string {
	v, _, _ := strings.Cut(header, ",")
	return strings.TrimSpace(v)
}

func hasPort(host string) bool {
	_, _, err := net.SplitHostPort(host)
	return err == nil
}

func defaultPort(scheme, port string) bool {
	return (scheme == "http" && port == "80") || (scheme == "https" && port == "443")
}

// GetClientInfo returns the resolved client info, if ProxyHeaders ran.
func GetClientInfo(ctx context.Context) (ClientInfo, bool) {
	info, ok := ctx.Value(clientInfoKey).(ClientInfo)
	return info, ok
}

// ClientIP returns the apparent client address of r.
func ClientIP(r *http.Request) string {
	if info, ok := GetClientInfo(r.Context()); ok {
		return info.IP
	}
	if ip := parseIP(r.RemoteAddr); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// IsSecure reports whether the client reached the service over HTTPS.
func IsSecure(r *http.Request) bool {
	if info, ok := GetClientInfo(r.Context()); ok {
		return info.Scheme == "https"
	}
	return r.TLS != nil
}

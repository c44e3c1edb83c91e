package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

const (
	compressMinSize = 1024
	compressLevel   = 6
)

// Compress gzips JSON and text responses larger than 1 KiB for clients that
// accept gzip. The compressed body is only used when it is strictly smaller
// than the uncompressed body. The whole response is buffered, so it is not suitable
// for streaming endpoints.
func Compress(enabled bool) func(http.Handler) http.Handler {
	if !enabled {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead || !acceptsGzip(r) {
				next.ServeHTTP(w, r)
				return
			}

			bw := &bufferedWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(bw, r)
			bw.flushCompressed()
		})
	}
}

func acceptsGzip(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		coding, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(coding), "gzip") {
			continue
		}
		return strings.ReplaceAll(strings.TrimSpace(params), " ", "") != "q=0"
	}
	return false
}

func compressible(h http.Header, status, size int) bool {
	if size <= compressMinSize || h.Get("Content-Encoding") != "" {
		return false
	}
	if status < http.StatusOK || status == http.StatusNoContent || status == http.StatusNotModified {
		return false
	}
	ct := strings.ToLower(h.Get("Content-Type"))
	return strings.HasPrefix(ct, "application/json") ||
		strings.Contains(ct, "+json") ||
		strings.HasPrefix(ct, "text/")
}

func gzipBytes(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, compressLevel)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(body); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// bufferedWriter holds the status and body until the handler returns.
type bufferedWriter struct {
	http.ResponseWriter
	buf         bytes.Buffer
	status      int
	wroteHeader bool
}

func (w *bufferedWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = code
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.buf.Write(b)
}

func (w *bufferedWriter) flushCompressed() {
	body := w.buf.Bytes()
	h := w.ResponseWriter.Header()

	if compressible(h, w.status, len(body)) {
		compressed, err := gzipBytes(body)
		if err == nil && len(compressed) < len(body) {
			body = compressed
			h.Set("Content-Encoding", "gzip")
			h.Set("Content-Length", strconv.Itoa(len(body)))
			h.Add("Vary", "Accept-Encoding")
		}
	}

	w.ResponseWriter.WriteHeader(w.status)
	if len(body) > 0 {
		if _, err := w.ResponseWriter.Write(body); err != nil {
			slog.Debug("writing compressed response body", "error", err)
		}
	}
}

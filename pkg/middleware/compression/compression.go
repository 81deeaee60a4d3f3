// Package compression negotiates brotli or gzip response encoding.
package compression

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/nimburion/bookshelf/pkg/server/router"
)

const (
	encodingBrotli = "br"
	encodingGzip   = "gzip"
)

// Config controls response compression behavior.
type Config struct {
	Enabled      bool
	EnableGzip   bool
	EnableBrotli bool
	GzipLevel    int
	BrotliLevel  int
	// MinSize is the smallest body, in bytes, worth compressing. Smaller
	// bodies are sent as-is.
	MinSize                  int
	CompressibleContentTypes []string
	ExcludedPathPrefixes     []string
}

func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		EnableGzip:   true,
		EnableBrotli: true,
		GzipLevel:    gzip.DefaultCompression,
		BrotliLevel:  4,
		MinSize:      1024,
		CompressibleContentTypes: []string{
			"application/json",
			"text/",
		},
	}
}

// Middleware compresses responses with brotli or gzip, whichever the
// client's Accept-Encoding prefers. Responses are buffered until MinSize
// bytes are written or the handler returns, then sent compressed or plain.
func Middleware(cfg Config) router.MiddlewareFunc {
	cfg = normalizeConfig(cfg)

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			req := c.Request()
			if !cfg.Enabled || req.Method == http.MethodHead || excluded(req.URL.Path, cfg.ExcludedPathPrefixes) {
				return next(c)
			}

			encoding := negotiateEncoding(req.Header.Get("Accept-Encoding"), cfg)
			if encoding == "" {
				return next(c)
			}

			appendVary(c.Response().Header(), "Accept-Encoding")

			wrapped := newCompressResponseWriter(c.Response(), encoding, cfg)
			c.SetResponse(wrapped)

			err := next(c)
			if closeErr := wrapped.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
			return err
		}
	}
}

func normalizeConfig(cfg Config) Config {
	def := DefaultConfig()
	if cfg.GzipLevel == 0 {
		cfg.GzipLevel = def.GzipLevel
	}
	if cfg.BrotliLevel <= 0 {
		cfg.BrotliLevel = def.BrotliLevel
	}
	if cfg.MinSize < 0 {
		cfg.MinSize = 0
	}
	if len(cfg.CompressibleContentTypes) == 0 {
		cfg.CompressibleContentTypes = def.CompressibleContentTypes
	}
	return cfg
}

func excluded(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// negotiateEncoding picks brotli unless gzip has a strictly higher q-value.
// A wildcard covers whichever encoding is not listed explicitly.
func negotiateEncoding(acceptEncoding string, cfg Config) string {
	if acceptEncoding == "" {
		return ""
	}

	qBr, hasBr := qualityForEncoding(acceptEncoding, encodingBrotli)
	qGzip, hasGzip := qualityForEncoding(acceptEncoding, encodingGzip)
	qAny, hasAny := qualityForEncoding(acceptEncoding, "*")

	if !hasBr && hasAny {
		qBr, hasBr = qAny, true
	}
	if !hasGzip && hasAny {
		qGzip, hasGzip = qAny, true
	}

	best := ""
	bestQ := float64(0)
	if cfg.EnableBrotli && hasBr && qBr > 0 {
		best, bestQ = encodingBrotli, qBr
	}
	if cfg.EnableGzip && hasGzip && qGzip > bestQ {
		best = encodingGzip
	}
	return best
}

func qualityForEncoding(acceptEncoding, encoding string) (float64, bool) {
	for _, part := range strings.Split(acceptEncoding, ",") {
		sections := strings.Split(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(sections[0]), encoding) {
			continue
		}

		q := 1.0
		for _, section := range sections[1:] {
			kv := strings.SplitN(strings.TrimSpace(section), "=", 2)
			if len(kv) != 2 || !strings.EqualFold(kv[0], "q") {
				continue
			}
			if parsed, err := strconv.ParseFloat(kv[1], 64); err == nil {
				q = parsed
			}
		}
		return q, true
	}
	return 0, false
}

type compressResponseWriter struct {
	base          router.ResponseWriter
	encoding      string
	cfg           Config
	statusCode    int
	headerWritten bool
	decided       bool
	compress      bool
	encoder       io.WriteCloser
	buffer        bytes.Buffer
}

func newCompressResponseWriter(base router.ResponseWriter, encoding string, cfg Config) *compressResponseWriter {
	return &compressResponseWriter{base: base, encoding: encoding, cfg: cfg}
}

func (w *compressResponseWriter) Header() http.Header {
	return w.base.Header()
}

// WriteHeader records the status. It reaches the client once the
// compression decision is made, except for statuses that carry no body.
func (w *compressResponseWriter) WriteHeader(code int) {
	if w.headerWritten {
		return
	}
	w.statusCode = code
	w.headerWritten = true
	if noBodyStatus(code) {
		w.decided = true
		w.base.WriteHeader(code)
	}
}

func (w *compressResponseWriter) Write(p []byte) (int, error) {
	if !w.headerWritten {
		w.WriteHeader(http.StatusOK)
	}

	if w.decided {
		if w.compress {
			if _, err := w.encoder.Write(p); err != nil {
				return 0, err
			}
			return len(p), nil
		}
		return w.base.Write(p)
	}

	w.buffer.Write(p)
	if w.buffer.Len() < w.cfg.MinSize {
		return len(p), nil
	}
	if err := w.decide(); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *compressResponseWriter) decide() error {
	w.decided = true

	contentType := strings.ToLower(w.Header().Get("Content-Type"))
	if w.Header().Get("Content-Encoding") != "" ||
		w.buffer.Len() < w.cfg.MinSize ||
		!isCompressible(contentType, w.cfg.CompressibleContentTypes) {
		return w.flushPlain()
	}

	w.compress = true
	w.Header().Del("Content-Length")
	w.Header().Set("Content-Encoding", w.encoding)
	w.base.WriteHeader(w.statusOrOK())

	switch w.encoding {
	case encodingBrotli:
		w.encoder = brotli.NewWriterLevel(w.base, w.cfg.BrotliLevel)
	default:
		gz, err := gzip.NewWriterLevel(w.base, w.cfg.GzipLevel)
		if err != nil {
			return fmt.Errorf("create gzip writer: %w", err)
		}
		w.encoder = gz
	}

	_, err := w.encoder.Write(w.buffer.Bytes())
	w.buffer.Reset()
	return err
}

func (w *compressResponseWriter) flushPlain() error {
	w.base.WriteHeader(w.statusOrOK())
	if w.buffer.Len() == 0 {
		return nil
	}
	_, err := w.base.Write(w.buffer.Bytes())
	w.buffer.Reset()
	return err
}

// Close flushes the buffered body and finishes the encoder. A handler that
// wrote nothing leaves the base writer untouched so the router can still
// render its error response.
func (w *compressResponseWriter) Close() error {
	if !w.headerWritten {
		return nil
	}
	if !w.decided {
		if err := w.decide(); err != nil {
			return err
		}
	}
	if w.encoder != nil {
		return w.encoder.Close()
	}
	return nil
}

func (w *compressResponseWriter) statusOrOK() int {
	if w.statusCode == 0 {
		return http.StatusOK
	}
	return w.statusCode
}

func (w *compressResponseWriter) Status() int {
	if w.base.Written() {
		return w.base.Status()
	}
	return w.statusOrOK()
}

func (w *compressResponseWriter) Written() bool {
	return w.headerWritten || w.base.Written()
}

func (w *compressResponseWriter) Flush() {
	if flusher, ok := w.encoder.(interface{ Flush() error }); ok {
		_ = flusher.Flush()
	}
	if f, ok := w.base.(http.Flusher); ok {
		f.Flush()
	}
}

func noBodyStatus(code int) bool {
	return code == http.StatusNoContent || code == http.StatusNotModified || (code >= 100 && code < 200)
}

func isCompressible(contentType string, allow []string) bool {
	if contentType == "" {
		return true
	}
	for _, prefix := range allow {
		if strings.HasPrefix(contentType, strings.ToLower(prefix)) {
			return true
		}
	}
	return false
}

func appendVary(header http.Header, value string) {
	current := header.Get("Vary")
	if current == "" {
		header.Set("Vary", value)
		return
	}
	for _, part := range strings.Split(current, ",") {
		if strings.EqualFold(strings.TrimSpace(part), value) {
			return
		}
	}
	header.Set("Vary", current+", "+value)
}

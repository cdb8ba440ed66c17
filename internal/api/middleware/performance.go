package middleware

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"sync"
)

const (
	streamPrefix = "/api/stream/"
	blobPrefix   = "/blobs/"

	liveCachePolicy = "private, no-cache, must-revalidate"
)

// Public lookups may be cached by browsers; everything else changes live
var cachePolicies = []struct {
	prefix string
	value  string
}{
	{"/api/geocode", "public, max-age=3600"},
	{"/api/reverse-geocode", "public, max-age=3600"},
	{"/api/places/", "public, max-age=300"},
	{blobPrefix, "public, max-age=300"},
}

func isStream(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, streamPrefix)
}

var gzipPool = sync.Pool{
	New: func() interface{} {
		gz, _ := gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
		return gz
	},
}

// Compression gzips JSON responses for clients that accept it. Streams are
// left alone so events flush immediately, and blobs are already compressed.
func Compression(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		skip := isStream(r) || strings.HasPrefix(r.URL.Path, blobPrefix)
		if skip || !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		gz := gzipPool.Get().(*gzip.Writer)
		gz.Reset(w)
		defer func() {
			gz.Close()
			gzipPool.Put(gz)
		}()

		h := w.Header()
		h.Set("Content-Encoding", "gzip")
		h.Add("Vary", "Accept-Encoding")
		h.Del("Content-Length")

		next.ServeHTTP(gzipWriter{ResponseWriter: w, gz: gz}, r)
	})
}

type gzipWriter struct {
	http.ResponseWriter
	gz *gzip.Writer
}

func (w gzipWriter) Write(p []byte) (int, error) {
	return w.gz.Write(p)
}

// ETag buffers successful GET and HEAD responses, tags them with a content
// hash and answers a matching If-None-Match with 304.
func ETag(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if (r.Method != http.MethodGet && r.Method != http.MethodHead) || isStream(r) {
			next.ServeHTTP(w, r)
			return
		}

		buf := &bufferedResponse{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(buf, r)

		if buf.status == http.StatusOK {
			sum := sha256.Sum256(buf.body.Bytes())
			tag := `"` + hex.EncodeToString(sum[:16]) + `"`
			w.Header().Set("ETag", tag)
			if etagMatches(r.Header.Get("If-None-Match"), tag) {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}

		w.WriteHeader(buf.status)
		w.Write(buf.body.Bytes())
	})
}

// etagMatches accepts "*", a single tag or a comma separated list, and
// compares weak tags by their opaque value
func etagMatches(header, tag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == tag {
			return true
		}
	}
	return false
}

type bufferedResponse struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	return b.body.Write(p)
}

func (b *bufferedResponse) WriteHeader(status int) {
	b.status = status
}

// CacheControl sets the browser caching policy for the request path
func CacheControl(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isStream(r) {
			w.Header().Set("Cache-Control", cachePolicyFor(r.URL.Path))
		}
		next.ServeHTTP(w, r)
	})
}

func cachePolicyFor(path string) string {
	for _, p := range cachePolicies {
		if strings.HasPrefix(path, p.prefix) {
			return p.value
		}
	}
	return liveCachePolicy
}

// ResponseOptimization combines cache control, ETag and compression
func ResponseOptimization(next http.Handler) http.Handler {
	return CacheControl(ETag(Compression(next)))
}

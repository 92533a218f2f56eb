package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// CacheHeader reports whether a response came from the cache.
const CacheHeader = "X-Cache"

type snapshotResponse struct {
	status  int
	headers http.Header
	body    []byte
}

func (s snapshotResponse) replay(w gin.ResponseWriter) {
	for k, vals := range s.headers {
		w.Header()[k] = vals
	}
	w.Header().Set(CacheHeader, "HIT")
	w.WriteHeader(s.status)
	_, _ = w.Write(s.body)
}

// teeWriter copies everything the handler writes into buf.
type teeWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *teeWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *teeWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Cache serves repeated GET requests for the same URI from memory for ttl.
// Only 2xx responses are stored.
func Cache(store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if v, ok := store.Get(key); ok {
			v.(snapshotResponse).replay(c.Writer)
			c.Abort()
			return
		}

		c.Writer.Header().Set(CacheHeader, "MISS")
		tee := &teeWriter{ResponseWriter: c.Writer}
		c.Writer = tee
		c.Next()

		status := tee.Status()
		if status < 200 || status >= 300 {
			return
		}
		headers := tee.Header().Clone()
		headers.Del(CacheHeader)
		store.Set(key, snapshotResponse{status: status, headers: headers, body: tee.buf.Bytes()}, ttl)
	}
}

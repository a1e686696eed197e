package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

type cacheEntry struct {
	status      int
	contentType string
	body        []byte
}

// teeWriter mirrors everything written to the response into a buffer so a
// successful reply can be replayed for later identical requests.
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

// Cache serves repeated GET requests from an in-memory store, keyed by
// request URI. Only 2xx responses are retained, and only until ttl elapses.
func Cache(store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if hit, ok := store.Get(key); ok {
			entry := hit.(cacheEntry)
			c.Header("X-Cache", "HIT")
			c.Data(entry.status, entry.contentType, entry.body)
			c.Abort()
			return
		}

		tw := &teeWriter{ResponseWriter: c.Writer}
		c.Writer = tw
		c.Next()

		if status := tw.Status(); status >= 200 && status < 300 {
			store.Set(key, cacheEntry{
				status:      status,
				contentType: tw.Header().Get("Content-Type"),
				body:        tw.buf.Bytes(),
			}, ttl)
		}
	}
}

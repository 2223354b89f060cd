package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// CacheHeader is set to "HIT" on responses served from the cache.
const CacheHeader = "X-Cache"

type cacheEntry struct {
	status int
	header http.Header
	body   []byte
}

// recordingWriter tees the response body into buf.
type recordingWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// cacheKey normalizes the query so that ?a=1&b=2 and ?b=2&a=1 share an entry.
func cacheKey(r *http.Request) string {
	q := r.URL.Query().Encode()
	if q == "" {
		return r.URL.Path
	}
	return r.URL.Path + "?" + q
}

// Cache serves repeated GET requests for reference data from memory. Only
// 2xx responses are stored.
func Cache(store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := cacheKey(c.Request)
		if v, found := store.Get(key); found {
			entry := v.(*cacheEntry)
			h := c.Writer.Header()
			for k, vals := range entry.header {
				if k == RequestIDHeader {
					continue
				}
				h[k] = vals
			}
			h.Set(CacheHeader, "HIT")
			c.Writer.WriteHeader(entry.status)
			_, _ = c.Writer.Write(entry.body)
			c.Abort()
			return
		}

		rec := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		if status := rec.Status(); status >= 200 && status < 300 {
			store.Set(key, &cacheEntry{
				status: status,
				header: rec.Header().Clone(),
				body:   rec.buf.Bytes(),
			}, ttl)
		}
	}
}

// FlushOnWrite empties the cache after any successful mutating request.
func FlushOnWrite(store *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			return
		}
		if status := c.Writer.Status(); status >= 200 && status < 300 {
			store.Flush()
		}
	}
}

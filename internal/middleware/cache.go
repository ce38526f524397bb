// Package middleware contains http middlewares shared by API handlers.
package middleware

import (
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const cacheSize = 128

type cachedResponse struct {
	code   int
	header http.Header
	body   []byte
}

// Cached caches successful responses by request URI for ttl.
func Cached(ttl time.Duration, handler http.HandlerFunc) http.HandlerFunc {
	storage := expirable.NewLRU[string, cachedResponse](cacheSize, nil, ttl)

	return func(w http.ResponseWriter, r *http.Request) {
		resp, ok := storage.Get(r.RequestURI)
		if !ok {
			c := httptest.NewRecorder()
			handler(c, r)

			resp = cachedResponse{
				code:   c.Code,
				header: c.Header().Clone(),
				body:   c.Body.Bytes(),
			}

			if resp.code == http.StatusOK {
				storage.Add(r.RequestURI, resp)
			}
		}

		for k, v := range resp.header {
			w.Header()[k] = v
		}

		w.WriteHeader(resp.code)
		_, _ = w.Write(resp.body)
	}
}

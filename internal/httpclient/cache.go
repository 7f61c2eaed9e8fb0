// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

package httpclient

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
)

// maxCacheEntrySize is the default largest response body kept in the cache.
const maxCacheEntrySize = 10 << 20

// CacheTransport is a wrapper around [Transport] that adds a cache layer.
// Successful responses to the requests accepted by its check function
// are kept in memory for the lifetime of the transport.
//
// No more than maxSize+1 bytes of a response are read before handing it
// over. A larger body is never cached.
type CacheTransport struct {
	*Transport
	sync.RWMutex

	entries   map[string]*cacheResource
	checkFunc func(*http.Request) bool
	maxSize   int64
}

type cacheResource struct {
	header http.Header
	body   []byte
}

// RoundTrip implements [http.RoundTripper].
// When an entry is found in the cache, it sends a response made out of it. Otherwise,
// it calls the wrapped RoundTrip method and stores the response.
func (t *CacheTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.accepts(req) {
		return t.Transport.RoundTrip(req)
	}

	if entry := t.getEntry(req); entry != nil {
		t.Log().Debug("cache hit", slog.String("url", req.URL.String()))

		rsp := &http.Response{
			Status:        http.StatusText(http.StatusOK),
			StatusCode:    http.StatusOK,
			Header:        entry.header.Clone(),
			Request:       req,
			ContentLength: 0,
			Body:          http.NoBody,
		}
		if req.Method == http.MethodGet {
			b := bytes.NewReader(entry.body)
			rsp.Body = io.NopCloser(b)
			rsp.ContentLength = b.Size()
		}

		return rsp, nil
	}

	rsp, err := t.Transport.RoundTrip(req)
	if err != nil || req.Method != http.MethodGet || rsp.StatusCode != http.StatusOK {
		return rsp, err
	}

	maxSize := t.maxSize
	if maxSize <= 0 {
		maxSize = maxCacheEntrySize
	}

	body, err := io.ReadAll(io.LimitReader(rsp.Body, maxSize+1))
	if err != nil {
		rsp.Body.Close() //nolint:errcheck
		return nil, err
	}

	if int64(len(body)) > maxSize {
		t.Log().Debug("response too large for cache",
			slog.String("url", req.URL.String()),
			slog.Int64("max_size", maxSize),
		)
		// Too big, hand over the rest of the stream.
		rsp.Body = struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(body), rsp.Body), rsp.Body}
		return rsp, nil
	}

	rsp.Body.Close() //nolint:errcheck
	t.addEntry(req.URL.String(), rsp.Header.Clone(), body)
	rsp.Body = io.NopCloser(bytes.NewReader(body))
	rsp.ContentLength = int64(len(body))

	return rsp, nil
}

func (t *CacheTransport) accepts(req *http.Request) bool {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return false
	}
	return t.checkFunc == nil || t.checkFunc(req)
}

// addEntry adds an entry into the cache.
func (t *CacheTransport) addEntry(url string, header http.Header, body []byte) {
	t.Lock()
	defer t.Unlock()

	t.entries[url] = &cacheResource{
		header: header,
		body:   body,
	}
}

// hasEntry returns true when the given url exists in the cache.
func (t *CacheTransport) hasEntry(url string) bool {
	t.RLock()
	defer t.RUnlock()

	_, ok := t.entries[url]
	return ok
}

// getEntry returns a [cacheResource] when it exists.
func (t *CacheTransport) getEntry(req *http.Request) *cacheResource {
	t.RLock()
	defer t.RUnlock()

	return t.entries[req.URL.String()]
}

// NewCacheClient returns a new [http.Client] with a [CacheTransport] round tripper.
// The "check" function, when not null, selects the requests that
// go through the cache. maxSize is the largest cached body, a value
// of zero or less uses a 10MiB limit.
func NewCacheClient(check func(*http.Request) bool, maxSize int64) *http.Client {
	client := New()
	client.Transport = &CacheTransport{
		Transport: client.Transport.(*Transport),
		entries:   map[string]*cacheResource{},
		checkFunc: check,
		maxSize:   maxSize,
	}

	return client
}

// IsImageRequest returns true when the request only accepts images.
// It can be passed to [NewCacheClient].
func IsImageRequest(req *http.Request) bool {
	return strings.HasPrefix(req.Header.Get("Accept"), "image/")
}

// AddToCache adds a URL, headers and body to an [http.Client] cache.
// If the client's transport is not a [CacheTransport] instance, it does nothing.
func AddToCache(client *http.Client, url string, headers http.Header, body []byte) {
	if t, ok := client.Transport.(*CacheTransport); ok {
		t.addEntry(url, headers, body)
	}
}

// IsInCache returns true if a URL exists in an [http.Client] cache.
// If the client's transport is not a [CacheTransport] instance, it does nothing.
func IsInCache(client *http.Client, url string) bool {
	if t, ok := client.Transport.(*CacheTransport); ok {
		return t.hasEntry(url)
	}
	return false
}

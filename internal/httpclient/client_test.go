// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

package httpclient_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"

	"codeberg.org/readeck/html2jsonld/configs"
	"codeberg.org/readeck/html2jsonld/internal/httpclient"
	"codeberg.org/readeck/html2jsonld/pkg/jsonld"
)

type echoResponse struct {
	URL    string
	Method string
	Header http.Header
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// countingReader counts the bytes read from the underlying reader.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func transportOf(client *http.Client) *httpclient.Transport {
	switch t := client.Transport.(type) {
	case *httpclient.CacheTransport:
		return t.Transport
	case *httpclient.Transport:
		return t
	}
	panic("unknown transport")
}

func mockResponder(client *http.Client) *httpmock.MockTransport {
	mt := httpmock.NewMockTransport()

	mt.RegisterResponder("GET", `=~.*`,
		func(req *http.Request) (*http.Response, error) {
			return httpmock.NewJsonResponse(200, echoResponse{
				URL:    req.URL.String(),
				Method: req.Method,
				Header: req.Header,
			})
		})

	transportOf(client).RoundTripper = mt
	return mt
}

func getEcho(t *testing.T, client *http.Client, req *http.Request) echoResponse {
	t.Helper()
	rsp, err := client.Do(req)
	require.NoError(t, err)
	defer rsp.Body.Close() //nolint:errcheck

	var data echoResponse
	require.NoError(t, json.NewDecoder(rsp.Body).Decode(&data))
	return data
}

func TestClient(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		t.Run("request", func(t *testing.T) {
			assert := require.New(t)

			client := httpclient.New()
			mockResponder(client)

			req, _ := http.NewRequest(http.MethodGet, "https://example.net/", nil)
			data := getEcho(t, client, req)

			assert.Equal("https://example.net/", data.URL)
			assert.Equal("GET", data.Method)
			assert.Contains(data.Header, "User-Agent")
			assert.Equal("none", data.Header.Get("Sec-Fetch-Site"))
			assert.Contains(data.Header.Get("Accept"), "text/html")
		})

		t.Run("request headers win", func(t *testing.T) {
			client := httpclient.New()
			mockResponder(client)

			req, _ := http.NewRequest(http.MethodGet, "https://example.net/", nil)
			req.Header.Set("Accept", "image/png")
			data := getEcho(t, client, req)

			require.Equal(t, "image/png", data.Header.Get("Accept"))
		})

		t.Run("SetHeader", func(t *testing.T) {
			client := httpclient.New()
			mockResponder(client)

			transportOf(client).SetHeader(func(h http.Header) {
				h.Set("x-test", "abc")
			})

			req, _ := http.NewRequest(http.MethodGet, "https://example.net/", nil)
			data := getEcho(t, client, req)
			require.Equal(t, "abc", data.Header.Get("x-test"))
		})

		t.Run("user agent", func(t *testing.T) {
			ua := configs.Config.Extractor.UserAgent
			configs.Config.Extractor.UserAgent = "html2jsonld/test"
			defer func() {
				configs.Config.Extractor.UserAgent = ua
			}()

			client := httpclient.New()
			mockResponder(client)

			req, _ := http.NewRequest(http.MethodGet, "https://example.net/", nil)
			data := getEcho(t, client, req)
			require.Equal(t, "html2jsonld/test", data.Header.Get("User-Agent"))
		})
	})

	t.Run("denied IPs", func(t *testing.T) {
		denied := configs.Config.Extractor.DeniedIPs
		_, cidr, _ := net.ParseCIDR("127.0.0.0/8")
		configs.Config.Extractor.DeniedIPs = []configs.IPNet{{IPNet: cidr}}
		defer func() {
			configs.Config.Extractor.DeniedIPs = denied
		}()

		client := httpclient.New()
		mt := mockResponder(client)

		_, err := client.Get("http://127.0.0.1/")
		require.Error(t, err)
		require.ErrorContains(t, err, "ip 127.0.0.1 is blocked by rule 127.0.0.0/8")

		req, _ := http.NewRequest(http.MethodGet, "http://192.0.2.1/", nil)
		data := getEcho(t, client, req)
		require.Equal(t, "http://192.0.2.1/", data.URL)
		require.Equal(t, 1, mt.GetTotalCallCount())
	})
}

func TestCacheClient(t *testing.T) {
	t.Run("images", func(t *testing.T) {
		assert := require.New(t)

		client := httpclient.NewCacheClient(httpclient.IsImageRequest, 0)
		mt := httpmock.NewMockTransport()
		mt.RegisterResponder("GET", "https://example.net/a.png",
			httpmock.NewBytesResponder(200, []byte("png")).HeaderSet(http.Header{
				"Content-Type": {"image/png"},
			}))
		mt.RegisterResponder("GET", "https://example.net/missing.png",
			httpmock.NewStringResponder(404, "not found"))
		mt.RegisterResponder("GET", "https://example.net/",
			httpmock.NewStringResponder(200, "<html></html>"))
		transportOf(client).RoundTripper = mt

		get := func(src, accept string) (int, string) {
			req, _ := http.NewRequest(http.MethodGet, src, nil)
			req.Header.Set("Accept", accept)
			rsp, err := client.Do(req)
			assert.NoError(err)
			defer rsp.Body.Close() //nolint:errcheck
			body, err := io.ReadAll(rsp.Body)
			assert.NoError(err)
			return rsp.StatusCode, string(body)
		}

		for range 3 {
			status, body := get("https://example.net/a.png", "image/png")
			assert.Equal(200, status)
			assert.Equal("png", body)
		}
		assert.Equal(1, mt.GetCallCountInfo()["GET https://example.net/a.png"])
		assert.True(httpclient.IsInCache(client, "https://example.net/a.png"))

		for range 2 {
			status, _ := get("https://example.net/missing.png", "image/png")
			assert.Equal(404, status)
		}
		assert.Equal(2, mt.GetCallCountInfo()["GET https://example.net/missing.png"])
		assert.False(httpclient.IsInCache(client, "https://example.net/missing.png"))

		for range 2 {
			status, _ := get("https://example.net/", "text/html")
			assert.Equal(200, status)
		}
		assert.Equal(2, mt.GetCallCountInfo()["GET https://example.net/"])
		assert.False(httpclient.IsInCache(client, "https://example.net/"))
	})

	t.Run("AddToCache", func(t *testing.T) {
		assert := require.New(t)

		client := httpclient.NewCacheClient(nil, 0)
		mt := mockResponder(client)

		httpclient.AddToCache(client, "https://example.net/page", http.Header{"X-Test": {"1"}}, []byte("cached"))

		rsp, err := client.Get("https://example.net/page")
		assert.NoError(err)
		defer rsp.Body.Close() //nolint:errcheck
		body, _ := io.ReadAll(rsp.Body)

		assert.Equal("cached", string(body))
		assert.Equal("1", rsp.Header.Get("X-Test"))
		assert.Equal(0, mt.GetTotalCallCount())

		assert.False(httpclient.IsInCache(httpclient.New(), "https://example.net/page"))
	})

	t.Run("size limit", func(t *testing.T) {
		assert := require.New(t)

		const limit = 500000
		png := []byte("\x89PNG\r\n\x1a\n")
		images := map[string][]byte{
			"https://example.net/large.png": append(png, make([]byte, 5<<20)...),
			"https://example.net/small.png": append(png, make([]byte, 100)...),
		}

		read := map[string]*countingReader{}
		calls := map[string]int{}
		client := httpclient.NewCacheClient(httpclient.IsImageRequest, limit)
		transportOf(client).RoundTripper = roundTripFunc(func(req *http.Request) (*http.Response, error) {
			src := req.URL.String()
			body := &countingReader{r: bytes.NewReader(images[src])}
			read[src] = body
			calls[src]++
			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     http.Header{"Content-Type": {"image/png"}},
				Body:       io.NopCloser(body),
				Request:    req,
			}, nil
		})

		inliner := jsonld.NewImageInliner(client, nil, 0, limit)

		for range 2 {
			res, ok := inliner.FetchAndEncode(context.Background(), "https://example.net/large.png")
			assert.True(ok)
			assert.Contains(res, "data:image/png;base64,")
			assert.LessOrEqual(read["https://example.net/large.png"].n, int64(limit+1))
		}
		assert.Equal(2, calls["https://example.net/large.png"])
		assert.False(httpclient.IsInCache(client, "https://example.net/large.png"))

		for range 2 {
			_, ok := inliner.FetchAndEncode(context.Background(), "https://example.net/small.png")
			assert.True(ok)
		}
		assert.Equal(1, calls["https://example.net/small.png"])
		assert.Equal(int64(108), read["https://example.net/small.png"].n)
		assert.True(httpclient.IsInCache(client, "https://example.net/small.png"))
	})
}

// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package httpclient provides the HTTP client used to retrieve
// pages and images.
// Its [http.RoundTripper] sends browser-like headers, logs every request
// and refuses to connect to denied IP ranges.
package httpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"maps"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/textproto"
	"time"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"

	"codeberg.org/readeck/html2jsonld/configs"
)

const uaString = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.3"

var defaultDialer = net.Dialer{
	Timeout:   15 * time.Second,
	KeepAlive: 30 * time.Second,
}

var defaultTransport = &http.Transport{
	DialContext: defaultDialer.DialContext,
	Proxy:       http.ProxyFromEnvironment,
	TLSClientConfig: &tls.Config{
		MinVersion: tls.VersionTLS12,
	},
	ForceAttemptHTTP2:     true,
	MaxIdleConns:          50,
	MaxIdleConnsPerHost:   2,
	IdleConnTimeout:       30 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
}

// defaultHeaders are sent with every request, unless the request
// already carries them.
var defaultHeaders = http.Header{
	"User-Agent":      []string{uaString},
	"Accept":          []string{"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
	"Accept-Language": []string{"en-US,en;q=0.8"},
	"Cache-Control":   []string{"max-age=0"},
	"Sec-Fetch-Site":  []string{"none"},
}

// Transport wraps an [http.RoundTripper].
type Transport struct {
	http.RoundTripper
	header http.Header
	logger *slog.Logger
}

// RoundTrip implements [http.RoundTripper].
// It checks if the destination IP is allowed, adds default headers and
// logs (debug-10 level) every request.
func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	if err := t.checkDestIP(r); err != nil {
		return nil, err
	}

	// Only headers change, a shallow copy is enough.
	req := new(http.Request)
	*req = *r
	req.Header = req.Header.Clone()

	for k, values := range t.header {
		if _, ok := r.Header[textproto.CanonicalMIMEHeaderKey(k)]; !ok {
			req.Header[k] = values
		}
	}

	attrs := []slog.Attr{
		slog.Group("request",
			slog.String("url", req.URL.String()),
			slog.String("method", req.Method),
			slog.Any("headers", req.Header),
		),
	}

	now := time.Now()
	rsp, err := t.RoundTripper.RoundTrip(req)

	if err != nil {
		attrs = append(attrs, slog.Group("response",
			slog.Any("err", err),
		))
	} else {
		attrs = append(attrs, slog.Group("response",
			slog.Int("status", rsp.StatusCode),
			slog.Any("headers", rsp.Header),
		))
	}
	attrs = append(attrs, slog.Duration("time", time.Since(now)))
	t.Log().LogAttrs(context.Background(), slog.LevelDebug-10, "request", attrs...)

	return rsp, err
}

func (t *Transport) checkDestIP(r *http.Request) error {
	if len(configs.Config.Extractor.DeniedIPs) == 0 {
		// An empty list disables the IP check.
		return nil
	}

	hostname := r.URL.Hostname()
	host, err := idna.ToASCII(hostname)
	if err != nil {
		return fmt.Errorf("invalid hostname %s", hostname)
	}

	ips, err := net.LookupIP(host)
	if err != nil {
		return fmt.Errorf("cannot resolve %s", host)
	}

	for _, cidr := range configs.Config.Extractor.DeniedIPs {
		for _, ip := range ips {
			if cidr.Contains(ip) {
				return fmt.Errorf("ip %s is blocked by rule %s", ip, cidr)
			}
		}
	}

	return nil
}

// Log returns the transport's logger.
func (t *Transport) Log() *slog.Logger {
	return t.logger
}

// SetLogger sets the transport's logger.
func (t *Transport) SetLogger(l *slog.Logger) {
	t.logger = l
}

// SetHeader receives a function that can manipulate the
// transport's default headers.
func (t *Transport) SetHeader(fn func(h http.Header)) {
	fn(t.header)
}

// New returns a new client with an empty cookie storage and a [Transport] instance.
// The User-Agent header comes from the configuration when set.
func New() *http.Client {
	cookies, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})

	header := maps.Clone(defaultHeaders)
	if ua := configs.Config.Extractor.UserAgent; ua != "" {
		header.Set("User-Agent", ua)
	}

	return &http.Client{
		Transport: &Transport{
			RoundTripper: defaultTransport.Clone(),
			header:       header,
			logger:       slog.Default(),
		},
		Timeout: 10 * time.Second,
		Jar:     cookies,
	}
}

// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

package jsonld

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultFetchTimeout is the default time limit of an image download.
	DefaultFetchTimeout = 5 * time.Second

	// DefaultFetchSizeLimit is the default maximum number of bytes read
	// from an image.
	DefaultFetchSizeLimit int64 = 500000

	imageObjectType = "ImageObject"
)

// imageSignatures maps the start of base64 encoded images to
// their mime type.
var imageSignatures = []struct {
	prefix string
	mime   string
}{
	{"iVBORw0KGgo", "image/png"},
	{"/9j/", "image/jpeg"},
	{"R0lGODdh", "image/gif"},
	{"R0lGODlh", "image/gif"},
}

// ImageInliner replaces image URLs with base64 data URLs.
// It never fails: any error leaves the value untouched.
type ImageInliner struct {
	client  *http.Client
	logger  Logger
	timeout time.Duration
	limit   int64
}

// NewImageInliner returns an [ImageInliner]. A nil client uses
// [http.DefaultClient], a nil logger discards messages and zero
// values for timeout and limit use the defaults.
func NewImageInliner(client *http.Client, logger Logger, timeout time.Duration, limit int64) *ImageInliner {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = discardLogger
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if limit <= 0 {
		limit = DefaultFetchSizeLimit
	}

	return &ImageInliner{
		client:  client,
		logger:  logger,
		timeout: timeout,
		limit:   limit,
	}
}

// Inline returns the value with its image URL(s) replaced by data URLs.
//
// A string is fetched directly. An ImageObject node gets its "contentUrl"
// (or "url") replaced. A node with another type is left untouched. For a
// list, only the first element is processed.
func (p *ImageInliner) Inline(ctx context.Context, value any) any {
	switch v := value.(type) {
	case string:
		if s, ok := p.FetchAndEncode(ctx, v); ok {
			return s
		}
		return v
	case *Node:
		p.inlineNode(ctx, v)
		return v
	case []any:
		// Only the first image of a list is processed.
		if len(v) > 0 {
			v[0] = p.Inline(ctx, v[0])
		}
		return v
	}

	return value
}

func (p *ImageInliner) inlineNode(ctx context.Context, n *Node) {
	if n == nil {
		return
	}

	t, hasType := n.Get(KeywordType)
	if !hasType || t == nil {
		return
	}

	name, ok := t.(string)
	if !ok {
		p.logger.Warn("unsupported image type", slog.Any("type", t))
		return
	}
	if local, ok := LocalNameOf(name); name != imageObjectType && (!ok || local != imageObjectType) {
		if name != "" {
			p.logger.Warn("unsupported image type", slog.String("type", name))
		}
		return
	}

	key, ok := lookupKey(n, "contentUrl")
	if !ok {
		if key, ok = lookupKey(n, "url"); !ok {
			return
		}
	}

	v, _ := n.Get(key)
	switch src := v.(type) {
	case string:
		if s, ok := p.FetchAndEncode(ctx, src); ok {
			n.Set(key, s)
		}
	case []any:
		for i, x := range src {
			if s, ok := x.(string); ok {
				if data, ok := p.FetchAndEncode(ctx, s); ok {
					src[i] = data
				}
			}
		}
	case []string:
		for i, s := range src {
			if data, ok := p.FetchAndEncode(ctx, s); ok {
				src[i] = data
			}
		}
	}
}

// FetchAndEncode downloads an image and returns it as a data URL.
// It returns false when the URL is not valid, the download fails or
// the content is not a PNG, JPEG or GIF image.
func (p *ImageInliner) FetchAndEncode(ctx context.Context, src string) (string, bool) {
	u, err := url.Parse(src)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}

	data, err := p.fetch(ctx, u.String())
	if err != nil || len(data) == 0 {
		return "", false
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	for _, sig := range imageSignatures {
		if strings.HasPrefix(encoded, sig.prefix) {
			return "data:" + sig.mime + ";base64," + encoded, true
		}
	}

	return "", false
}

func (p *ImageInliner) fetch(ctx context.Context, src string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/png,image/jpeg,image/gif,image/*;q=0.8")

	rsp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer rsp.Body.Close() //nolint:errcheck

	if rsp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("invalid response status (%d)", rsp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(rsp.Body, p.limit))
}

// lookupKey returns the node's key matching name, either as is
// or by its local name when the key is a URL.
func lookupKey(n *Node, name string) (string, bool) {
	if _, ok := n.Get(name); ok {
		return name, true
	}
	for _, k := range n.Keys() {
		if _, ok := ContextOf(k); !ok {
			continue
		}
		if local, ok := LocalNameOf(k); ok && local == name {
			return k, true
		}
	}
	return "", false
}

// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// FromURL retrieves an HTML page and returns its JSON-LD representation.
// The final URL, after redirects, is the document's base URL.
func (e *Extractor) FromURL(ctx context.Context, src string) (string, error) {
	root, baseURL, err := e.fetchDocument(ctx, src)
	if err != nil {
		return "", err
	}

	return e.FromDocument(ctx, root, baseURL)
}

// fetchDocument performs a GET request, checks that the response
// is an HTML document and parses it.
func (e *Extractor) fetchDocument(ctx context.Context, src string) (*html.Node, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, "", err
	}

	rsp, err := e.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer rsp.Body.Close() //nolint:errcheck

	if rsp.StatusCode/100 != 2 {
		return nil, "", fmt.Errorf("%w (%d)", ErrStatus, rsp.StatusCode)
	}

	buf := new(bytes.Buffer)
	mtype, err := mimetype.DetectReader(io.TeeReader(rsp.Body, buf))
	if err != nil {
		return nil, "", err
	}
	if !mtype.Is("text/html") && !mtype.Is("application/xhtml+xml") {
		return nil, "", fmt.Errorf("%w (%s)", ErrNotHTML, mtype.String())
	}

	body, err := charset.NewReader(io.MultiReader(buf, rsp.Body), rsp.Header.Get("Content-Type"))
	if err != nil {
		return nil, "", err
	}

	root, err := html.Parse(body)
	if err != nil {
		return nil, "", fmt.Errorf("cannot parse document: %w", err)
	}

	baseURL := req.URL.String()
	if rsp.Request != nil {
		baseURL = rsp.Request.URL.String()
	}

	e.logger.Debug("document loaded",
		slog.String("url", baseURL),
		slog.String("type", mtype.String()),
	)
	return root, baseURL, nil
}

// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package extract reads the structured data of an HTML document and
returns it as JSON-LD.

The document is read by a chain of readers (JSON-LD scripts, Microdata
and RDFa Lite by default). Every item is then written on its own by
a [jsonld.Writer] and the results are joined in a JSON array when
there is more than one.
*/
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/go-shiori/dom"
	"golang.org/x/net/html"

	"codeberg.org/readeck/html2jsonld/pkg/extract/microdata"
	"codeberg.org/readeck/html2jsonld/pkg/extract/rdfa"
	"codeberg.org/readeck/html2jsonld/pkg/jsonld"
	"codeberg.org/readeck/html2jsonld/pkg/structured"
)

var (
	// ErrNotHTML is returned when a remote resource is not an HTML document.
	ErrNotHTML = errors.New("resource is not HTML")
	// ErrStatus is returned when a remote resource responds with
	// a non 2xx status.
	ErrStatus = errors.New("invalid response status")
)

type logSetter interface {
	SetLogger(*slog.Logger)
}

// Extractor turns HTML documents into JSON-LD.
type Extractor struct {
	client        *http.Client
	logger        *slog.Logger
	readers       structured.ReaderChain
	writerOptions []func(w *jsonld.Writer)
	writer        *jsonld.Writer
}

// New returns an [Extractor] instance. Without options, it uses
// [http.DefaultClient], the default slog logger and reads
// JSON-LD, Microdata and RDFa Lite, in this order.
func New(options ...func(e *Extractor)) *Extractor {
	e := &Extractor{}

	for _, fn := range options {
		if fn != nil {
			fn(e)
		}
	}

	if e.client == nil {
		e.client = http.DefaultClient
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.readers == nil {
		e.readers = DefaultReaders()
	}

	if t, ok := e.client.Transport.(logSetter); ok {
		t.SetLogger(e.logger)
	}

	e.writer = jsonld.NewWriter(append([]func(w *jsonld.Writer){
		jsonld.WithClient(e.client),
		jsonld.WithLogger(e.logger),
	}, e.writerOptions...)...)

	return e
}

// DefaultReaders returns the default reader chain.
func DefaultReaders() structured.ReaderChain {
	return structured.NewReaderChain(
		microdata.NewJSONLDReader(),
		microdata.NewReader(),
		rdfa.NewReader(),
	)
}

// WithClient sets the extractor HTTP client. It is used for pages
// and image downloads.
func WithClient(client *http.Client) func(e *Extractor) {
	return func(e *Extractor) {
		e.client = client
	}
}

// WithLogger sets the extractor logger.
func WithLogger(logger *slog.Logger) func(e *Extractor) {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// WithWriterOptions adds options to the extractor's [jsonld.Writer].
// They're applied after the extractor's client and logger.
func WithWriterOptions(options ...func(w *jsonld.Writer)) func(e *Extractor) {
	return func(e *Extractor) {
		e.writerOptions = append(e.writerOptions, options...)
	}
}

// WithReaders replaces the extractor's reader chain.
func WithReaders(readers ...structured.Reader) func(e *Extractor) {
	return func(e *Extractor) {
		e.readers = structured.NewReaderChain(readers...)
	}
}

// Client returns the extractor's HTTP client.
func (e *Extractor) Client() *http.Client {
	return e.client
}

// Log returns the extractor's logger.
func (e *Extractor) Log() *slog.Logger {
	return e.logger
}

// Items returns the structured data items of a document.
// A "base" element in the document takes precedence over baseURL.
func (e *Extractor) Items(root *html.Node, baseURL string) ([]*structured.Item, error) {
	baseURL = documentBase(root, baseURL)
	items, err := e.readers.Read(root, baseURL)
	if err != nil {
		return nil, fmt.Errorf("cannot read structured data: %w", err)
	}

	e.logger.Debug("structured data",
		slog.String("base", baseURL),
		slog.Int("items", len(items)),
	)
	return items, nil
}

// FromDocument returns the JSON-LD representation of a parsed document.
// It returns an empty string when the document has no structured data.
func (e *Extractor) FromDocument(ctx context.Context, root *html.Node, baseURL string) (string, error) {
	items, err := e.Items(root, baseURL)
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(items))
	for _, item := range items {
		s, err := e.writer.Write(ctx, item)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}

	return Join(parts), nil
}

// FromHTML parses an HTML document and returns its JSON-LD representation.
func (e *Extractor) FromHTML(ctx context.Context, src []byte, baseURL string) (string, error) {
	root, err := html.Parse(bytes.NewReader(src))
	if err != nil {
		return "", fmt.Errorf("cannot parse document: %w", err)
	}

	return e.FromDocument(ctx, root, baseURL)
}

// FromFile reads an HTML file and returns its JSON-LD representation.
func (e *Extractor) FromFile(ctx context.Context, name string, baseURL string) (string, error) {
	src, err := os.ReadFile(name)
	if err != nil {
		return "", err
	}

	return e.FromHTML(ctx, src, baseURL)
}

// Join assembles the JSON-LD representations of several items.
// Two items or more are wrapped in a JSON array.
func Join(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}

	return "[\n" + strings.Join(parts, ",\n") + "\n]"
}

// documentBase returns the document's base URL. It's the "href"
// attribute of the first "base" element, resolved against baseURL.
func documentBase(root *html.Node, baseURL string) string {
	node := dom.QuerySelector(root, "base[href]")
	if node == nil {
		return baseURL
	}

	href := strings.TrimSpace(dom.GetAttribute(node, "href"))
	if href == "" {
		return baseURL
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return baseURL
	}
	u, err := base.Parse(href)
	if err != nil || !u.IsAbs() {
		return baseURL
	}
	return u.String()
}

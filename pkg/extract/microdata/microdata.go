// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package microdata provides HTML microdata and JSON-LD readers.
// Both readers return [structured.Item] trees whose types and property names
// are expanded to absolute URLs whenever a vocabulary is known.
//
// The JSON-LD reader is naive: it only understands compact documents and
// uses the "@context" as a vocabulary, never as a remote document.
package microdata

import (
	"golang.org/x/net/html"

	"codeberg.org/readeck/html2jsonld/pkg/structured"
)

// Reader is the HTML microdata reader.
type Reader struct{}

// NewReader returns a microdata [Reader].
func NewReader() *Reader {
	return &Reader{}
}

// Read implements [structured.Reader].
func (r *Reader) Read(root *html.Node, baseURL string) ([]*structured.Item, error) {
	p, err := newParser(root, baseURL)
	if err != nil {
		return nil, err
	}

	return p.readMicrodata(), nil
}

// JSONLDReader reads the JSON-LD scripts of a document.
type JSONLDReader struct{}

// NewJSONLDReader returns a JSON-LD [JSONLDReader].
func NewJSONLDReader() *JSONLDReader {
	return &JSONLDReader{}
}

// Read implements [structured.Reader].
// Scripts that cannot be decoded are ignored.
func (r *JSONLDReader) Read(root *html.Node, baseURL string) ([]*structured.Item, error) {
	p, err := newParser(root, baseURL)
	if err != nil {
		return nil, err
	}

	return p.readJSONLD(), nil
}

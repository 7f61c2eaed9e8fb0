// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package rdfa provides an RDFa Lite reader.
// It understands the vocab, typeof, property, resource and prefix
// attributes and nothing else.
package rdfa

import (
	"net/url"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"codeberg.org/readeck/html2jsonld/pkg/structured"
)

// initialPrefixes are the prefixes available without declaration.
var initialPrefixes = map[string]string{
	"schema": "http://schema.org/",
	"og":     "http://ogp.me/ns#",
	"dc":     "http://purl.org/dc/terms/",
	"foaf":   "http://xmlns.com/foaf/0.1/",
}

// Reader is the RDFa Lite reader.
type Reader struct{}

// NewReader returns an RDFa Lite [Reader].
func NewReader() *Reader {
	return &Reader{}
}

// Read implements [structured.Reader].
func (r *Reader) Read(root *html.Node, baseURL string) ([]*structured.Item, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	nodes, err := htmlquery.QueryAll(root, "//*[@typeof][not(@property)]")
	if err != nil {
		return nil, err
	}

	p := &reader{base: base, scopes: map[*html.Node]bool{}}
	items := []*structured.Item{}
	for _, n := range nodes {
		items = append(items, p.readItem(n))
	}

	return items, nil
}

type reader struct {
	base   *url.URL
	scopes map[*html.Node]bool
}

func (r *reader) readItem(n *html.Node) *structured.Item {
	item := structured.NewItem()
	r.scopes[n] = true
	defer delete(r.scopes, n)

	ctx := newContext(n)
	for t := range strings.FieldsSeq(htmlquery.SelectAttr(n, "typeof")) {
		item.AddType(ctx.expand(t))
	}

	if s := htmlquery.SelectAttr(n, "resource"); s != "" {
		item.ID = r.resolveURL(s)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.readProperties(item, c)
	}

	return item
}

func (r *reader) readProperties(item *structured.Item, n *html.Node) {
	if n.Type != html.ElementNode {
		return
	}

	props := htmlquery.SelectAttr(n, "property")
	hasProp := htmlquery.ExistsAttr(n, "property")
	hasType := htmlquery.ExistsAttr(n, "typeof")

	switch {
	case hasProp && hasType:
		if r.scopes[n] {
			return
		}
		ctx := newContext(n)
		sub := r.readItem(n)
		for prop := range strings.FieldsSeq(props) {
			item.AddItem(ctx.expand(prop), sub)
		}
		return
	case hasType:
		// A new top level item
		return
	case hasProp:
		ctx := newContext(n)
		if s := r.getValue(n); s != "" {
			for prop := range strings.FieldsSeq(props) {
				item.AddLiteral(ctx.expand(prop), s)
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.readProperties(item, c)
	}
}

func (r *reader) resolveURL(value string) string {
	if u, err := r.base.Parse(value); err == nil {
		return u.String()
	}
	return value
}

func (r *reader) getValue(n *html.Node) string {
	if htmlquery.ExistsAttr(n, "content") {
		return strings.TrimSpace(htmlquery.SelectAttr(n, "content"))
	}

	switch n.DataAtom {
	case atom.A, atom.Area, atom.Link:
		if htmlquery.ExistsAttr(n, "href") {
			return r.resolveURL(htmlquery.SelectAttr(n, "href"))
		}
	case atom.Img, atom.Audio, atom.Embed, atom.Iframe, atom.Source, atom.Track, atom.Video:
		if htmlquery.ExistsAttr(n, "src") {
			return r.resolveURL(htmlquery.SelectAttr(n, "src"))
		}
	case atom.Time:
		if htmlquery.ExistsAttr(n, "datetime") {
			return strings.TrimSpace(htmlquery.SelectAttr(n, "datetime"))
		}
	}

	if htmlquery.ExistsAttr(n, "resource") {
		return r.resolveURL(htmlquery.SelectAttr(n, "resource"))
	}

	return strings.Join(strings.Fields(dom.TextContent(n)), " ")
}

// termContext holds the vocabulary and prefixes in scope for a node.
type termContext struct {
	vocab    string
	prefixes map[string]string
}

// newContext collects the vocab and prefix attributes of a node and
// its ancestors. The closest declaration wins.
func newContext(n *html.Node) *termContext {
	ctx := &termContext{prefixes: map[string]string{}}
	vocabFound := false

	for x := n; x != nil; x = x.Parent {
		if x.Type != html.ElementNode {
			continue
		}
		if !vocabFound && htmlquery.ExistsAttr(x, "vocab") {
			ctx.vocab = strings.TrimSpace(htmlquery.SelectAttr(x, "vocab"))
			vocabFound = true
		}
		if htmlquery.ExistsAttr(x, "prefix") {
			fields := strings.Fields(htmlquery.SelectAttr(x, "prefix"))
			for i := 0; i+1 < len(fields); i += 2 {
				name, ok := strings.CutSuffix(fields[i], ":")
				if !ok {
					continue
				}
				if _, exists := ctx.prefixes[name]; !exists {
					ctx.prefixes[name] = fields[i+1]
				}
			}
		}
	}

	for k, v := range initialPrefixes {
		if _, exists := ctx.prefixes[k]; !exists {
			ctx.prefixes[k] = v
		}
	}

	return ctx
}

// expand returns the absolute URL of a term, a compact URL
// (prefix:name) or an absolute URL.
func (c *termContext) expand(term string) string {
	if prefix, name, ok := strings.Cut(term, ":"); ok {
		if ns, exists := c.prefixes[prefix]; exists && !strings.HasPrefix(name, "//") {
			return ns + name
		}
		if u, err := url.Parse(term); err == nil && u.IsAbs() {
			return term
		}
	}

	if c.vocab == "" {
		return term
	}
	return c.vocab + term
}

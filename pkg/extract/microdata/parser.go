// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

package microdata

import (
	"iter"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"codeberg.org/readeck/html2jsonld/pkg/structured"
)

type parser struct {
	root            *html.Node
	baseURL         *url.URL
	identifiedNodes map[string]*html.Node
	scopes          map[*html.Node]bool
}

func newParser(root *html.Node, baseURL string) (*parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	return &parser{
		root:            root,
		baseURL:         u,
		identifiedNodes: map[string]*html.Node{},
		scopes:          map[*html.Node]bool{},
	}, nil
}

func (p *parser) readMicrodata() []*structured.Item {
	topLevelNodes := []*html.Node{}

	for n := range iterNodes(p.root) {
		// Collect microdata nodes
		if hasAttr(n, "itemscope") && !hasAttr(n, "itemprop") {
			topLevelNodes = append(topLevelNodes, n)
		}

		if id, _ := getAttr(n, "id"); id != "" {
			p.identifiedNodes[id] = n
		}
	}

	items := []*structured.Item{}
	for _, n := range topLevelNodes {
		items = append(items, p.readItem(n))
	}

	return items
}

// readItem reads an itemscope element.
func (p *parser) readItem(n *html.Node) *structured.Item {
	item := structured.NewItem()
	p.scopes[n] = true
	defer delete(p.scopes, n)

	if s, ok := getAttr(n, "itemtype"); ok {
		for itemtype := range strings.FieldsSeq(s) {
			item.AddType(itemtype)
		}
	}

	if s, ok := getAttr(n, "itemid"); ok && s != "" {
		if u, err := p.baseURL.Parse(s); err == nil {
			item.ID = u.String()
		}
	}

	vocab := ""
	if len(item.Types) > 0 {
		vocab = vocabulary(item.Types[0])
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.readSchemaNode(item, vocab, c)
	}

	if s, ok := getAttr(n, "itemref"); ok {
		for itemref := range strings.FieldsSeq(s) {
			if ref, ok := p.identifiedNodes[itemref]; ok && !p.scopes[ref] {
				p.readSchemaNode(item, vocab, ref)
			}
		}
	}

	return item
}

// readSchemaNode reads the properties found in a node and its children.
func (p *parser) readSchemaNode(item *structured.Item, vocab string, n *html.Node) {
	if n.Type != html.ElementNode {
		return
	}

	itemprops, hasProp := getAttr(n, "itemprop")
	hasScope := hasAttr(n, "itemscope")

	switch {
	case hasScope && hasProp:
		if p.scopes[n] {
			return
		}
		sub := p.readItem(n)
		for prop := range strings.FieldsSeq(itemprops) {
			item.AddItem(expandName(prop, vocab), sub)
		}
		return
	case hasScope:
		// A new top level item
		return
	case hasProp:
		if s := p.getSchemaValue(n); len(s) > 0 {
			for prop := range strings.FieldsSeq(itemprops) {
				item.AddLiteral(expandName(prop, vocab), s)
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.readSchemaNode(item, vocab, c)
	}
}

func (p *parser) resolveURL(value string) string {
	if u, err := p.baseURL.Parse(value); err == nil {
		return u.String()
	}
	return ""
}

func (p *parser) getSchemaValue(node *html.Node) string {
	var propValue string

	switch node.DataAtom {
	case atom.Meta:
		if value, ok := getAttr(node, "content"); ok {
			propValue = value
		}
	case atom.Audio, atom.Embed, atom.Iframe, atom.Source, atom.Track, atom.Video:
		if value, ok := getAttr(node, "src"); ok {
			propValue = p.resolveURL(value)
		}
	case atom.Img:
		value, ok := getAttr(node, "data-sr")
		if !ok {
			value, ok = getAttr(node, "src")
		}

		if ok {
			propValue = p.resolveURL(value)
		}
	case atom.A, atom.Area, atom.Link:
		if value, ok := getAttr(node, "href"); ok {
			propValue = p.resolveURL(value)
		}
	case atom.Object:
		if value, ok := getAttr(node, "data"); ok {
			propValue = p.resolveURL(value)
		}
	case atom.Data, atom.Meter:
		if value, ok := getAttr(node, "value"); ok {
			propValue = value
		}
	case atom.Time:
		if value, ok := getAttr(node, "datetime"); ok {
			propValue = value
			break
		}
		propValue = textContent(node)
	default:
		// The "content" attribute can be found on other tags besides the meta tag.
		if value, ok := getAttr(node, "content"); ok {
			propValue = value
			break
		}

		propValue = textContent(node)
	}

	return strings.TrimSpace(propValue)
}

// vocabulary returns the vocabulary of an item type; that is the
// type URL up to its last "/" or "#".
func vocabulary(itemtype string) string {
	u, err := url.Parse(itemtype)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return ""
	}

	if i := strings.LastIndexAny(itemtype, "/#"); i > len(u.Scheme)+2 {
		return itemtype[:i+1]
	}
	return strings.TrimRight(itemtype, "/") + "/"
}

// expandName returns an absolute property name using the vocabulary.
// Names that are already absolute URLs are left untouched.
func expandName(name, vocab string) string {
	if vocab == "" || isAbsoluteURL(name) {
		return name
	}
	return vocab + name
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.IsAbs()
}

// textContent returns the text of a node and its children, with
// collapsed white spaces.
func textContent(node *html.Node) string {
	buf := new(strings.Builder)
	for n := range iterNodes(node) {
		if n.Type == html.TextNode {
			for s := range strings.FieldsSeq(n.Data) {
				buf.WriteString(s + " ")
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func iterNodes(n *html.Node) iter.Seq[*html.Node] {
	return func(yield func(*html.Node) bool) {
		walkNodes(n, yield)
	}
}

func walkNodes(n *html.Node, yield func(*html.Node) bool) bool {
	if n == nil {
		return true
	}
	if !yield(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walkNodes(c, yield) {
			return false
		}
	}
	return true
}

func getAttr(node *html.Node, name string) (string, bool) {
	for _, attr := range node.Attr {
		if name == attr.Key {
			return attr.Val, true
		}
	}
	return "", false
}

func hasAttr(node *html.Node, name string) bool {
	_, ok := getAttr(node, name)
	return ok
}

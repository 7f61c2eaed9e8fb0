// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

package microdata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"codeberg.org/readeck/html2jsonld/pkg/structured"
)

// object is a decoded JSON object that keeps its key order.
type object struct {
	keys   []string
	values map[string]any
}

func (o *object) get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

func (p *parser) readJSONLD() []*structured.Item {
	items := []*structured.Item{}

	for n := range iterNodes(p.root) {
		if n.FirstChild == nil || n.DataAtom != atom.Script {
			continue
		}
		if a, _ := getAttr(n, "type"); strings.TrimSpace(strings.ToLower(a)) != "application/ld+json" {
			continue
		}

		v, err := p.decodeJSONLD([]byte(n.FirstChild.Data))
		if err != nil {
			continue
		}

		items = append(items, p.jsonLDTopLevel(v, "")...)
	}

	return items
}

// jsonLDTopLevel returns the items of a top level JSON-LD value.
// A list or a "@graph" gives several items.
func (p *parser) jsonLDTopLevel(v any, vocab string) []*structured.Item {
	res := []*structured.Item{}

	switch t := v.(type) {
	case []any:
		for _, x := range t {
			res = append(res, p.jsonLDTopLevel(x, vocab)...)
		}
	case *object:
		if g, ok := t.get("@graph"); ok {
			if c, ok := t.get("@context"); ok {
				vocab = contextVocabulary(c, vocab)
			}
			return p.jsonLDTopLevel(g, vocab)
		}
		res = append(res, p.jsonLDItem(t, vocab))
	}

	return res
}

// jsonLDItem converts a JSON-LD object to an [structured.Item].
func (p *parser) jsonLDItem(o *object, vocab string) *structured.Item {
	if c, ok := o.get("@context"); ok {
		vocab = contextVocabulary(c, vocab)
	}

	item := structured.NewItem()

	switch t := o.values["@type"].(type) {
	case string:
		item.AddType(expandName(t, vocab))
	case []any:
		for _, x := range t {
			if s, ok := x.(string); ok {
				item.AddType(expandName(s, vocab))
			}
		}
	}

	if id, ok := o.values["@id"].(string); ok && id != "" {
		if u, err := p.baseURL.Parse(id); err == nil {
			item.ID = u.String()
		} else {
			item.ID = id
		}
	}

	for _, k := range o.keys {
		if strings.HasPrefix(k, "@") {
			continue
		}
		values := p.jsonLDValues(o.values[k], vocab)
		if len(values) > 0 {
			item.Add(expandName(k, vocab), values...)
		}
	}

	return item
}

// jsonLDValues converts a JSON-LD value to a list of [structured.Value].
func (p *parser) jsonLDValues(v any, vocab string) []structured.Value {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return []structured.Value{structured.Literal(t)}
	case json.Number:
		return []structured.Value{structured.Literal(t.String())}
	case bool:
		return []structured.Value{structured.Literal(strconv.FormatBool(t))}
	case []any:
		res := []structured.Value{}
		for _, x := range t {
			res = append(res, p.jsonLDValues(x, vocab)...)
		}
		return res
	case *object:
		if value, ok := t.get("@value"); ok {
			return p.jsonLDValues(value, vocab)
		}
		if list, ok := t.get("@list"); ok {
			return p.jsonLDValues(list, vocab)
		}
		return []structured.Value{structured.Nested(p.jsonLDItem(t, vocab))}
	}

	return nil
}

// contextVocabulary returns the vocabulary defined by a "@context" value.
// A string context is used as a vocabulary, an object context gives its
// "@vocab" entry.
func contextVocabulary(c any, current string) string {
	switch t := c.(type) {
	case nil:
		return ""
	case string:
		if t == "" {
			return current
		}
		if !strings.HasSuffix(t, "/") && !strings.HasSuffix(t, "#") {
			t += "/"
		}
		return t
	case *object:
		if v, ok := t.values["@vocab"].(string); ok {
			return v
		}
	case []any:
		for _, x := range t {
			current = contextVocabulary(x, current)
		}
	}
	return current
}

// decodeJSONLD decodes a JSON-LD script content. Comments and
// trailing commas are allowed.
func (p *parser) decodeJSONLD(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("invalid JSON-LD: trailing data")
	}
	return v, nil
}

// decodeValue reads the next JSON value, keeping object key order.
// Strings are HTML unescaped.
func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			o := &object{values: map[string]any{}}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				k, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("invalid object key %v", kt)
				}
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				if _, exists := o.values[k]; !exists {
					o.keys = append(o.keys, k)
				}
				o.values[k] = v
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return o, nil
		case '[':
			list := []any{}
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return list, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %s", t)
	case string:
		return html.UnescapeString(t), nil
	default:
		return t, nil
	}
}

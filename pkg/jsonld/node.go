// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

package jsonld

import (
	"bytes"
	"iter"
	"slices"
)

// JSON-LD keywords used by the writer.
const (
	KeywordContext = "@context"
	KeywordID      = "@id"
	KeywordType    = "@type"
)

// Node is a serialized JSON-LD object. Its keys keep their insertion order.
//
// Values are one of: nil, string, []string, []any or *Node.
type Node struct {
	keys   []string
	values map[string]any
}

// NewNode returns an empty [Node].
func NewNode() *Node {
	return &Node{values: map[string]any{}}
}

// Set sets a key's value. An existing key keeps its position.
func (n *Node) Set(key string, value any) {
	if n.values == nil {
		n.values = map[string]any{}
	}
	if _, ok := n.values[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.values[key] = value
}

// Prepend sets a key's value and moves the key in first position.
func (n *Node) Prepend(key string, value any) {
	n.Delete(key)
	if n.values == nil {
		n.values = map[string]any{}
	}
	n.keys = slices.Insert(n.keys, 0, key)
	n.values[key] = value
}

// Delete removes a key.
func (n *Node) Delete(key string) {
	if _, ok := n.values[key]; !ok {
		return
	}
	delete(n.values, key)
	n.keys = slices.DeleteFunc(n.keys, func(k string) bool {
		return k == key
	})
}

// Get returns a key's value.
func (n *Node) Get(key string) (any, bool) {
	v, ok := n.values[key]
	return v, ok
}

// Keys returns the node's keys, in order.
func (n *Node) Keys() []string {
	return slices.Clone(n.keys)
}

// Len returns the number of keys.
func (n *Node) Len() int {
	return len(n.keys)
}

// All returns an iterator over the node's keys and values.
func (n *Node) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, k := range n.keys {
			if !yield(k, n.values[k]) {
				return
			}
		}
	}
}

// Type returns the node's "@type" value when it's a single string.
func (n *Node) Type() (string, bool) {
	t, ok := n.values[KeywordType].(string)
	return t, ok
}

// MarshalJSON implements [json.Marshaler]. The output is compact.
func (n *Node) MarshalJSON() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := newEncoder(buf, "").encode(n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

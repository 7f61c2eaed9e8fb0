// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package structured provides the item model shared by the markup readers
// and the JSON-LD writer.
// An [Item] is a typed node with an optional identifier and ordered,
// multi-valued properties. A property value is either a literal string or
// a nested [Item].
package structured

import (
	"iter"
	"slices"
)

// Item is a typed node extracted from markup.
type Item struct {
	Types      []string
	ID         string
	Properties *Properties
}

// NewItem returns an [Item] with the given types and empty properties.
func NewItem(types ...string) *Item {
	return &Item{
		Types:      types,
		Properties: NewProperties(),
	}
}

// AddType appends a type when it's not already present.
func (item *Item) AddType(t string) {
	if t == "" || slices.Contains(item.Types, t) {
		return
	}
	item.Types = append(item.Types, t)
}

// Add appends one or more values to the named property.
func (item *Item) Add(name string, values ...Value) {
	if item.Properties == nil {
		item.Properties = NewProperties()
	}
	item.Properties.Add(name, values...)
}

// AddLiteral appends a literal value to the named property.
func (item *Item) AddLiteral(name, s string) {
	item.Add(name, Literal(s))
}

// AddItem appends a nested item to the named property.
func (item *Item) AddItem(name string, sub *Item) {
	item.Add(name, Nested(sub))
}

// Get returns the values of a property.
func (item *Item) Get(name string) []Value {
	if item.Properties == nil {
		return nil
	}
	return item.Properties.Get(name)
}

// Properties is an insertion ordered mapping of property names
// to their values.
type Properties struct {
	names  []string
	values map[string][]Value
}

// NewProperties returns an empty [Properties].
func NewProperties() *Properties {
	return &Properties{values: map[string][]Value{}}
}

// Add appends values to a property. A new property is placed after
// the existing ones; an existing property keeps its position.
func (p *Properties) Add(name string, values ...Value) {
	if p.values == nil {
		p.values = map[string][]Value{}
	}
	if _, ok := p.values[name]; !ok {
		p.names = append(p.names, name)
	}
	p.values[name] = append(p.values[name], values...)
}

// Get returns the values of a property, or nil.
func (p *Properties) Get(name string) []Value {
	if p == nil {
		return nil
	}
	return p.values[name]
}

// Names returns the property names, in insertion order.
func (p *Properties) Names() []string {
	if p == nil {
		return nil
	}
	return slices.Clone(p.names)
}

// Len returns the number of properties.
func (p *Properties) Len() int {
	if p == nil {
		return 0
	}
	return len(p.names)
}

// All returns an iterator over the properties, in insertion order.
func (p *Properties) All() iter.Seq2[string, []Value] {
	return func(yield func(string, []Value) bool) {
		if p == nil {
			return
		}
		for _, name := range p.names {
			if !yield(name, p.values[name]) {
				return
			}
		}
	}
}

// Value is a property value. It holds either a literal string
// or a nested [Item], never both.
type Value struct {
	literal string
	item    *Item
}

// Literal returns a literal [Value].
func Literal(s string) Value {
	return Value{literal: s}
}

// Nested returns a [Value] holding a nested item.
func Nested(item *Item) Value {
	return Value{item: item}
}

// Item returns the nested item and true when the value holds one.
func (v Value) Item() (*Item, bool) {
	return v.item, v.item != nil
}

// IsItem returns true when the value holds a nested item.
func (v Value) IsItem() bool {
	return v.item != nil
}

// String returns the literal value. It is empty for nested items.
func (v Value) String() string {
	return v.literal
}

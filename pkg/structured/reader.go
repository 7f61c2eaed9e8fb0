// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

package structured

import (
	"golang.org/x/net/html"
)

// Reader reads items from a parsed HTML document.
// baseURL is used to resolve relative URLs found in the markup.
type Reader interface {
	Read(root *html.Node, baseURL string) ([]*Item, error)
}

// ReaderFunc is a function implementing [Reader].
type ReaderFunc func(root *html.Node, baseURL string) ([]*Item, error)

// Read implements [Reader].
func (f ReaderFunc) Read(root *html.Node, baseURL string) ([]*Item, error) {
	return f(root, baseURL)
}

// ReaderChain runs several readers in order and concatenates their items.
type ReaderChain []Reader

// NewReaderChain returns a [ReaderChain].
func NewReaderChain(readers ...Reader) ReaderChain {
	return ReaderChain(readers)
}

// Read implements [Reader]. It stops on the first reader error.
func (c ReaderChain) Read(root *html.Node, baseURL string) ([]*Item, error) {
	res := []*Item{}
	for _, r := range c {
		if r == nil {
			continue
		}
		items, err := r.Read(root, baseURL)
		if err != nil {
			return nil, err
		}
		res = append(res, items...)
	}
	return res, nil
}

// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

package jsonld

import (
	"net/url"
	"strings"

	"codeberg.org/readeck/html2jsonld/pkg/structured"
)

// ContextOf returns the scheme and host of a URL, to be used as a
// JSON-LD context (ie. "https://schema.org" for "https://schema.org/Thing").
// A value that cannot be parsed is returned as is. It returns false when
// the URL has no scheme or no host.
func ContextOf(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return raw, true
	}

	if u.Scheme == "" || u.Host == "" {
		return "", false
	}

	host := u.Host
	if port := u.Port(); port != "" {
		host = strings.TrimSuffix(host, ":"+port)
	}

	return u.Scheme + "://" + host, true
}

// LocalNameOf returns the path of a URL, without any "/".
// A value that cannot be parsed is returned as is. It returns false
// when the URL has no path.
//
// Note that "/a/b/c" gives "abc", not "c".
func LocalNameOf(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return raw, true
	}

	p := u.Path
	if u.Opaque != "" {
		p = u.Opaque
	}
	if p == "" {
		return "", false
	}

	return strings.ReplaceAll(p, "/", ""), true
}

type contextState uint8

const (
	contextUnresolved contextState = iota
	contextResolved
	contextNone
)

// resolvedContext is the context computed for one write call.
type resolvedContext struct {
	state contextState
	value string
}

// active returns true when names and types must be shortened
// and a "@context" added.
func (c resolvedContext) active() bool {
	return c.state == contextResolved && c.value != ""
}

// resolveContext finds a context shared by all the items.
// Any item without exactly one type prevents a shared context, as
// does a context that differs from a previous one. Items whose type
// gives no context are ignored.
func resolveContext(items []*structured.Item) resolvedContext {
	res := resolvedContext{state: contextUnresolved}

	for _, item := range items {
		if item == nil {
			continue
		}
		if len(item.Types) != 1 {
			return resolvedContext{state: contextNone}
		}

		c, ok := ContextOf(item.Types[0])
		if !ok || c == "" {
			continue
		}

		switch {
		case res.state == contextUnresolved:
			res = resolvedContext{state: contextResolved, value: c}
		case res.value != c:
			return resolvedContext{state: contextNone}
		}
	}

	return res
}

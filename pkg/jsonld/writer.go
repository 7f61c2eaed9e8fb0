// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package jsonld writes structured items as JSON-LD.
//
// When all the items share a type vocabulary (the scheme and host of their
// type), it is set as "@context" and every type and property name is
// shortened to its local name. Images found in "image" and "thumbnail"
// properties can be downloaded and embedded as data URLs.
package jsonld

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"codeberg.org/readeck/html2jsonld/pkg/structured"
)

// DefaultMaxDepth is the default item nesting limit.
const DefaultMaxDepth = 64

// Logger receives the writer's diagnostic messages.
// A [*slog.Logger] satisfies this interface.
type Logger interface {
	Warn(msg string, args ...any)
}

var discardLogger Logger = slog.New(slog.DiscardHandler)

// Writer converts items to JSON-LD. It holds no state between
// two calls to [Writer.Write].
type Writer struct {
	images    bool
	timeout   time.Duration
	sizeLimit int64
	maxDepth  int
	client    *http.Client
	logger    Logger
	indent    string
}

// NewWriter returns a new [Writer]. By default, images are embedded.
func NewWriter(options ...func(w *Writer)) *Writer {
	w := &Writer{
		images:    true,
		timeout:   DefaultFetchTimeout,
		sizeLimit: DefaultFetchSizeLimit,
		maxDepth:  DefaultMaxDepth,
		indent:    defaultIndent,
	}

	for _, fn := range options {
		if fn != nil {
			fn(w)
		}
	}

	if w.logger == nil {
		w.logger = discardLogger
	}
	if w.client == nil {
		w.client = http.DefaultClient
	}

	return w
}

// WithImages enables or disables image embedding.
func WithImages(enabled bool) func(w *Writer) {
	return func(w *Writer) {
		w.images = enabled
	}
}

// WithFetchTimeout sets the time limit of each image download.
func WithFetchTimeout(d time.Duration) func(w *Writer) {
	return func(w *Writer) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithFetchSizeLimit sets the maximum number of bytes read from each image.
func WithFetchSizeLimit(n int64) func(w *Writer) {
	return func(w *Writer) {
		if n > 0 {
			w.sizeLimit = n
		}
	}
}

// WithClient sets the HTTP client used to download images.
func WithClient(client *http.Client) func(w *Writer) {
	return func(w *Writer) {
		w.client = client
	}
}

// WithLogger sets the writer's logger.
func WithLogger(logger Logger) func(w *Writer) {
	return func(w *Writer) {
		w.logger = logger
	}
}

// WithMaxDepth sets the item nesting limit.
func WithMaxDepth(depth int) func(w *Writer) {
	return func(w *Writer) {
		if depth > 0 {
			w.maxDepth = depth
		}
	}
}

// WithIndent sets the indentation unit. An empty string gives a compact output.
func WithIndent(indent string) func(w *Writer) {
	return func(w *Writer) {
		w.indent = indent
	}
}

// conversion holds the state of one write call.
type conversion struct {
	ctx     context.Context
	w       *Writer
	context resolvedContext
	images  *ImageInliner
	visited map[*structured.Item]struct{}
}

// Write returns the JSON-LD representation of the items.
// A single item gives a JSON object, anything else a JSON array.
func (w *Writer) Write(ctx context.Context, items ...*structured.Item) (string, error) {
	nodes := w.Convert(ctx, items...)

	var v any = nodes
	if len(nodes) == 1 {
		v = nodes[0]
	}

	buf := new(bytes.Buffer)
	if err := newEncoder(buf, w.indent).encode(v); err != nil {
		return "", fmt.Errorf("cannot encode JSON-LD: %w", err)
	}

	return buf.String(), nil
}

// Convert returns the serialized nodes of the items, in order.
func (w *Writer) Convert(ctx context.Context, items ...*structured.Item) []*Node {
	if ctx == nil {
		ctx = context.Background()
	}

	c := &conversion{
		ctx:     ctx,
		w:       w,
		context: resolveContext(items),
		visited: map[*structured.Item]struct{}{},
	}
	if w.images {
		c.images = NewImageInliner(w.client, w.logger, w.timeout, w.sizeLimit)
	}

	nodes := make([]*Node, len(items))
	for i, item := range items {
		nodes[i] = c.convertItem(item, 0)
		if c.context.active() {
			nodes[i].Prepend(KeywordContext, c.context.value)
		}
	}

	return nodes
}

// convertItem converts an item and its nested items.
func (c *conversion) convertItem(item *structured.Item, depth int) *Node {
	res := NewNode()
	if item == nil {
		return res
	}

	c.visited[item] = struct{}{}
	defer delete(c.visited, item)

	switch len(item.Types) {
	case 0:
	case 1:
		var t any = item.Types[0]
		if c.context.active() {
			t = localNameOrNil(item.Types[0])
		}
		res.Set(KeywordType, t)
	default:
		res.Set(KeywordType, append([]string{}, item.Types...))
	}

	if item.ID != "" {
		res.Set(KeywordID, item.ID)
	}

	for name, values := range item.Properties.All() {
		key := name
		if c.context.active() {
			key, _ = LocalNameOf(name)
		}

		list := make([]any, len(values))
		for i, v := range values {
			list[i] = c.convertValue(v, depth)
		}

		value := flatten(list)
		if c.images != nil && isImageProperty(name) {
			value = c.images.Inline(c.ctx, value)
		}

		res.Set(key, value)
	}

	return res
}

func (c *conversion) convertValue(v structured.Value, depth int) any {
	sub, ok := v.Item()
	if !ok {
		return v.String()
	}

	_, seen := c.visited[sub]
	if seen || depth+1 >= c.w.maxDepth {
		c.w.logger.Warn("item skipped",
			slog.String("id", sub.ID),
			slog.Bool("cycle", seen),
			slog.Int("depth", depth+1),
		)
		if sub.ID != "" {
			return sub.ID
		}
		return nil
	}

	return c.convertItem(sub, depth+1)
}

// localNameOrNil returns the local name of a type or property URL, or nil
// when there is none.
func localNameOrNil(s string) any {
	if name, ok := LocalNameOf(s); ok {
		return name
	}
	return nil
}

// flatten returns the only element of a list, or the list itself.
func flatten(values []any) any {
	if len(values) == 1 {
		return values[0]
	}
	return values
}

// isImageProperty returns true for "image" and "thumbnail" properties,
// in their short or URL form.
func isImageProperty(name string) bool {
	switch name {
	case "image", "thumbnail":
		return true
	}

	if _, ok := ContextOf(name); !ok {
		return false
	}
	local, _ := LocalNameOf(name)
	return local == "image" || local == "thumbnail"
}

// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

package jsonld

import (
	"bytes"
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// defaultIndent is the indentation unit of the pretty printed output.
const defaultIndent = "    "

// encoder writes nodes, lists and scalars as JSON, keeping the
// node key order. With an empty indentation unit, the output is compact.
// Slashes and HTML characters are never escaped.
type encoder struct {
	w    io.Writer
	unit string
}

func newEncoder(w io.Writer, unit string) *encoder {
	return &encoder{w: w, unit: unit}
}

func (e *encoder) write(s string) error {
	_, err := io.WriteString(e.w, s)
	return err
}

func (e *encoder) newline(indent string) error {
	if e.unit == "" {
		return nil
	}
	return e.write("\n" + indent)
}

func (e *encoder) encodeScalar(v any) error {
	buf := new(bytes.Buffer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return err
	}
	_, err := e.w.Write(bytes.TrimRight(buf.Bytes(), "\n"))
	return err
}

func (e *encoder) encodeList(values []any, indent string) error {
	if len(values) == 0 {
		return e.write("[]")
	}

	inner := indent + e.unit
	if err := e.write("["); err != nil {
		return err
	}
	for i, v := range values {
		if i > 0 {
			if err := e.write(","); err != nil {
				return err
			}
		}
		if err := e.newline(inner); err != nil {
			return err
		}
		if err := e.encodeValue(v, inner); err != nil {
			return err
		}
	}
	if err := e.newline(indent); err != nil {
		return err
	}
	return e.write("]")
}

func (e *encoder) encodeNode(n *Node, indent string) error {
	if n == nil {
		return e.write("null")
	}
	if n.Len() == 0 {
		return e.write("{}")
	}

	sep := ":"
	if e.unit != "" {
		sep = ": "
	}

	inner := indent + e.unit
	if err := e.write("{"); err != nil {
		return err
	}
	i := 0
	for k, v := range n.All() {
		if i > 0 {
			if err := e.write(","); err != nil {
				return err
			}
		}
		i++
		if err := e.newline(inner); err != nil {
			return err
		}
		if err := e.encodeScalar(k); err != nil {
			return err
		}
		if err := e.write(sep); err != nil {
			return err
		}
		if err := e.encodeValue(v, inner); err != nil {
			return err
		}
	}
	if err := e.newline(indent); err != nil {
		return err
	}
	return e.write("}")
}

func (e *encoder) encodeValue(v any, indent string) error {
	switch t := v.(type) {
	case nil:
		return e.write("null")
	case *Node:
		return e.encodeNode(t, indent)
	case []any:
		return e.encodeList(t, indent)
	case []*Node:
		values := make([]any, len(t))
		for i := range t {
			values[i] = t[i]
		}
		return e.encodeList(values, indent)
	case []string:
		values := make([]any, len(t))
		for i := range t {
			values[i] = t[i]
		}
		return e.encodeList(values, indent)
	case string, bool, int, int64, float64:
		return e.encodeScalar(t)
	default:
		return fmt.Errorf("cannot encode value of type %T", v)
	}
}

func (e *encoder) encode(v any) error {
	return e.encodeValue(v, "")
}

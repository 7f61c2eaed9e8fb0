// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

package jsonld_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"codeberg.org/readeck/html2jsonld/pkg/jsonld"
)

func TestNode(t *testing.T) {
	t.Run("order", func(t *testing.T) {
		assert := require.New(t)

		n := jsonld.NewNode()
		n.Set("b", "1")
		n.Set("a", "2")
		n.Set("b", "3")
		assert.Equal([]string{"b", "a"}, n.Keys())

		n.Prepend("@context", "http://schema.org")
		assert.Equal([]string{"@context", "b", "a"}, n.Keys())

		n.Prepend("a", "4")
		assert.Equal([]string{"a", "@context", "b"}, n.Keys())
		assert.Equal(3, n.Len())

		n.Delete("@context")
		n.Delete("nope")
		assert.Equal([]string{"a", "b"}, n.Keys())

		v, ok := n.Get("b")
		assert.True(ok)
		assert.Equal("3", v)
	})

	t.Run("type", func(t *testing.T) {
		n := &jsonld.Node{}
		_, ok := n.Type()
		require.False(t, ok)

		n.Set("@type", []string{"A", "B"})
		_, ok = n.Type()
		require.False(t, ok)

		n.Set("@type", "A")
		v, ok := n.Type()
		require.True(t, ok)
		require.Equal(t, "A", v)
	})

	t.Run("MarshalJSON", func(t *testing.T) {
		sub := jsonld.NewNode()
		sub.Set("@type", "Person")
		sub.Set("name", "<Ada & co>")

		n := jsonld.NewNode()
		n.Set("z", "https://example.net/a/b")
		n.Set("a", []any{sub, "x", nil})
		n.Set("t", []string{"A", "B"})
		n.Set("e", []any{})
		n.Set("o", jsonld.NewNode())

		data, err := n.MarshalJSON()
		require.NoError(t, err)
		require.Equal(t,
			`{"z":"https://example.net/a/b","a":[{"@type":"Person","name":"<Ada & co>"},"x",null],"t":["A","B"],"e":[],"o":{}}`,
			string(data),
		)
	})

	t.Run("unsupported value", func(t *testing.T) {
		n := jsonld.NewNode()
		n.Set("ch", make(chan int))
		_, err := n.MarshalJSON()
		require.EqualError(t, err, "cannot encode value of type chan int")
	})
}

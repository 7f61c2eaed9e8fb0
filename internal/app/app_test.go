// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

package app

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"codeberg.org/readeck/html2jsonld/configs"
)

const productHTML = `<!DOCTYPE html>
<html><body>
<div itemscope itemtype="https://schema.org/Product">
	<span itemprop="name">Kettle</span>
	<img itemprop="image" src="/kettle.png">
</div>
</body></html>`

const productJSONLD = `{
    "@context": "https://schema.org",
    "@type": "Product",
    "name": "Kettle",
    "image": "https://example.org/kettle.png"
}
`

func runApp(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()

	out := new(bytes.Buffer)
	stdin, stdout, stderr = strings.NewReader(input), out, new(bytes.Buffer)
	t.Cleanup(func() {
		stdin, stdout, stderr = os.Stdin, os.Stdout, os.Stderr
		slog.SetDefault(slog.New(slog.DiscardHandler))
		require.NoError(t, configs.Load(""))
	})

	err := Run(context.Background(), args)
	return out.String(), err
}

func TestCommands(t *testing.T) {
	t.Run("html", func(t *testing.T) {
		out, err := runApp(t, productHTML, "html", "-no-images", "-url", "https://example.org/shop/")
		require.NoError(t, err)
		require.Equal(t, productJSONLD, out)
	})

	t.Run("html no data", func(t *testing.T) {
		out, err := runApp(t, "<p>nothing</p>", "html", "-url", "https://example.org/")
		require.NoError(t, err)
		require.Empty(t, out)
	})

	t.Run("file", func(t *testing.T) {
		name := filepath.Join(t.TempDir(), "product.html")
		require.NoError(t, os.WriteFile(name, []byte(productHTML), 0o600))

		out, err := runApp(t, "", "file", "-no-images", "-url", "https://example.org/", name)
		require.NoError(t, err)
		require.Equal(t, productJSONLD, out)
	})

	t.Run("flags", func(t *testing.T) {
		assert := require.New(t)
		_, err := runApp(t, "<p></p>", "html",
			"-log-level", "debug",
			"-timeout", "2s",
			"-size-limit", "1000",
		)
		assert.NoError(err)
		assert.Equal(slog.LevelDebug, configs.Config.Main.LogLevel)
		assert.True(configs.Config.Extractor.DownloadImages)
		assert.Equal(configs.Duration(2*time.Second), configs.Config.Extractor.FetchTimeout)
		assert.Equal(int64(1000), configs.Config.Extractor.FetchSizeLimit)
	})

	t.Run("config file", func(t *testing.T) {
		name := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(name, []byte("[extractor]\ndownload_images = false\n"), 0o600))

		out, err := runApp(t, productHTML, "html", "-config", name, "-url", "https://example.org/")
		require.NoError(t, err)
		require.Equal(t, productJSONLD, out)
		require.False(t, configs.Config.Extractor.DownloadImages)
	})

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			args []string
			msg  string
		}{
			{[]string{"url"}, "URL is required"},
			{[]string{"file", "-url", "https://example.org/"}, "input file is required"},
			{[]string{"file", filepath.Join(t.TempDir(), "missing.html")}, "no such file"},
			{[]string{"html", "-log-level", "loud"}, "loud"},
			{[]string{"html", "-config", filepath.Join(t.TempDir(), "missing.toml")}, "cannot load configuration"},
			{[]string{"url", "-no-images", "http://[::1/"}, "missing ']' in host"},
		}

		for _, test := range tests {
			t.Run(strings.Join(test.args, " "), func(t *testing.T) {
				_, err := runApp(t, "", test.args...)
				require.Error(t, err)
				require.ErrorContains(t, err, test.msg)
			})
		}
	})
}

// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/cristalhq/acmd"
)

func init() {
	commands = append(commands,
		acmd.Command{
			Name:        "url",
			Description: "Extract the structured data of a web page",
			ExecFunc:    runURL,
		},
		acmd.Command{
			Name:        "file",
			Description: "Extract the structured data of an HTML file",
			ExecFunc:    runFile,
		},
		acmd.Command{
			Name:        "html",
			Description: "Extract the structured data of an HTML document read from stdin",
			ExecFunc:    runHTML,
		},
	)
}

func runURL(ctx context.Context, args []string) error {
	var flags appFlags
	fs := flags.Flags()
	// nolint: errcheck
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: url [arguments...] URL")
		fmt.Fprintln(fs.Output(), "  URL")
		fmt.Fprintln(fs.Output(), "    \tpage address")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	src := strings.TrimSpace(fs.Arg(0))
	if src == "" {
		return errors.New("URL is required")
	}

	if err := appPreRun(&flags); err != nil {
		return err
	}

	res, err := newExtractor().FromURL(ctx, src)
	if err != nil {
		return err
	}
	return writeResult(res)
}

func runFile(ctx context.Context, args []string) error {
	var baseURL string

	var flags appFlags
	fs := flags.Flags()
	// nolint: errcheck
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: file [arguments...] FILE")
		fmt.Fprintln(fs.Output(), "  FILE")
		fmt.Fprintln(fs.Output(), "    \tHTML file")
		fs.PrintDefaults()
	}
	fs.StringVar(&baseURL, "url", "", "document base URL")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	name := strings.TrimSpace(fs.Arg(0))
	if name == "" {
		return errors.New("input file is required")
	}

	if err := appPreRun(&flags); err != nil {
		return err
	}

	res, err := newExtractor().FromFile(ctx, name, baseURL)
	if err != nil {
		return err
	}
	return writeResult(res)
}

func runHTML(ctx context.Context, args []string) error {
	var baseURL string

	var flags appFlags
	fs := flags.Flags()
	// nolint: errcheck
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: html [arguments...] < FILE")
		fs.PrintDefaults()
	}
	fs.StringVar(&baseURL, "url", "", "document base URL")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if err := appPreRun(&flags); err != nil {
		return err
	}

	src, err := io.ReadAll(stdin)
	if err != nil {
		return err
	}

	res, err := newExtractor().FromHTML(ctx, src, baseURL)
	if err != nil {
		return err
	}
	return writeResult(res)
}

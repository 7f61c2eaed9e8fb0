// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

// html2jsonld extracts the structured data of HTML documents
// and writes it as JSON-LD.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"codeberg.org/readeck/html2jsonld/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err) //nolint:errcheck
		stop()
		os.Exit(1) //nolint:gocritic
	}
}

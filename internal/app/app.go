// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package app is the html2jsonld command line application.
package app

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/cristalhq/acmd"

	"codeberg.org/readeck/html2jsonld/configs"
	"codeberg.org/readeck/html2jsonld/internal/httpclient"
	"codeberg.org/readeck/html2jsonld/pkg/extract"
	"codeberg.org/readeck/html2jsonld/pkg/jsonld"
)

// Version is the application version. It's set at build time.
var Version = "dev"

var commands = []acmd.Command{}

var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// appFlags are the flags shared by every command.
type appFlags struct {
	ConfigFile string
	LogLevel   string
	NoImages   bool
	Timeout    time.Duration
	SizeLimit  int64
}

// Flags returns a new [flag.FlagSet] bound to the flags.
func (f *appFlags) Flags() *flag.FlagSet {
	fs := flag.NewFlagSet("", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.ConfigFile, "config", "", "configuration file path")
	fs.StringVar(&f.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.BoolVar(&f.NoImages, "no-images", false, "do not embed images")
	fs.DurationVar(&f.Timeout, "timeout", 0, "image download timeout")
	fs.Int64Var(&f.SizeLimit, "size-limit", 0, "maximum image size, in bytes")

	return fs
}

// appPreRun loads the configuration, applies the flags on top of it
// and sets the default logger.
func appPreRun(flags *appFlags) error {
	if err := configs.Load(flags.ConfigFile); err != nil {
		return fmt.Errorf("cannot load configuration: %w", err)
	}

	if flags.LogLevel != "" {
		if err := configs.Config.Main.LogLevel.UnmarshalText([]byte(flags.LogLevel)); err != nil {
			return err
		}
	}
	if flags.NoImages {
		configs.Config.Extractor.DownloadImages = false
	}
	if flags.Timeout > 0 {
		configs.Config.Extractor.FetchTimeout = configs.Duration(flags.Timeout)
	}
	if flags.SizeLimit > 0 {
		configs.Config.Extractor.FetchSizeLimit = flags.SizeLimit
	}

	slog.SetDefault(newLogger(stderr, configs.Config.Main.LogLevel, configs.Config.Main.DevMode))
	return nil
}

// newExtractor returns an [extract.Extractor] configured from [configs.Config].
// Its client caches images for the duration of the command.
func newExtractor() *extract.Extractor {
	cfg := configs.Config.Extractor

	return extract.New(
		extract.WithClient(httpclient.NewCacheClient(httpclient.IsImageRequest, cfg.FetchSizeLimit)),
		extract.WithLogger(slog.Default()),
		extract.WithWriterOptions(
			jsonld.WithImages(cfg.DownloadImages),
			jsonld.WithFetchTimeout(time.Duration(cfg.FetchTimeout)),
			jsonld.WithFetchSizeLimit(cfg.FetchSizeLimit),
			jsonld.WithMaxDepth(cfg.MaxDepth),
		),
	)
}

// writeResult prints a JSON-LD result, if any.
func writeResult(s string) error {
	if s == "" {
		return nil
	}
	_, err := fmt.Fprintln(stdout, s)
	return err
}

// Run starts the command line application with the given arguments,
// without the program name.
func Run(ctx context.Context, args []string) error {
	r := acmd.RunnerOf(commands, acmd.Config{
		AppName:        "html2jsonld",
		AppDescription: "Extracts the structured data of HTML documents as JSON-LD.",
		Version:        Version,
		Args:           append([]string{"html2jsonld"}, args...),
		Context:        ctx,
		Output:         stderr,
	})

	return r.Run()
}

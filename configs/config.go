// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package configs contains the application configuration.
// It is read from a TOML file and can be overridden by
// environment variables prefixed with "HTML2JSONLD_".
package configs

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/komkom/toml"
)

const envPrefix = "HTML2JSONLD_"

type config struct {
	Main      configMain      `json:"main" envPrefix:"MAIN_"`
	Extractor configExtractor `json:"extractor" envPrefix:"EXTRACTOR_"`
}

type configMain struct {
	LogLevel slog.Level `json:"log_level" env:"LOG_LEVEL"`
	DevMode  bool       `json:"dev_mode" env:"DEV_MODE"`
}

type configExtractor struct {
	DownloadImages bool     `json:"download_images" env:"DOWNLOAD_IMAGES"`
	FetchTimeout   Duration `json:"fetch_timeout" env:"FETCH_TIMEOUT"`
	FetchSizeLimit int64    `json:"fetch_size_limit" env:"FETCH_SIZE_LIMIT"`
	MaxDepth       int      `json:"max_depth" env:"MAX_DEPTH"`
	DeniedIPs      []IPNet  `json:"denied_ips" env:"DENIED_IPS"`
	UserAgent      string   `json:"user_agent" env:"USER_AGENT"`
}

// Config holds the configuration data from configuration files
// or flags.
//
// This variable has some default values that might be overridden
// by [Load].
var Config = newConfig()

func newConfig() config {
	return config{
		Main: configMain{
			LogLevel: slog.LevelInfo,
		},
		Extractor: configExtractor{
			DownloadImages: true,
			FetchTimeout:   Duration(5 * time.Second),
			FetchSizeLimit: 500000,
			MaxDepth:       64,
			DeniedIPs:      []IPNet{},
		},
	}
}

// Load resets [Config] to its default values, then loads the given
// configuration file, if any, and finally the environment variables.
func Load(filename string) error {
	cfg := newConfig()

	if filename != "" {
		fd, err := os.Open(filename)
		if err != nil {
			return err
		}
		defer fd.Close() //nolint:errcheck

		if err := decodeTOML(fd, &cfg); err != nil {
			return fmt.Errorf("cannot read %s: %w", filename, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return err
	}

	Config = cfg
	return nil
}

func decodeTOML(r io.Reader, cfg *config) error {
	dec := json.NewDecoder(toml.New(r))
	return dec.Decode(cfg)
}

// Duration is a [time.Duration] that reads its value from
// a string like "1m30s".
type Duration time.Duration

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// IPNet is an [net.IPNet] that reads its value from
// a CIDR notation string.
type IPNet struct {
	*net.IPNet
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (n *IPNet) UnmarshalText(text []byte) error {
	_, v, err := net.ParseCIDR(string(text))
	if err != nil {
		return err
	}
	n.IPNet = v
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (n IPNet) MarshalText() ([]byte, error) {
	if n.IPNet == nil {
		return []byte{}, nil
	}
	return []byte(n.String()), nil
}

// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

package app

import (
	"io"
	"log/slog"
	"time"

	. "github.com/phsym/console-slog" //nolint:revive,staticcheck
)

type consoleTheme struct {
	timestamp      ANSIMod
	source         ANSIMod
	message        ANSIMod
	messageDebug   ANSIMod
	attrKey        ANSIMod
	attrValue      ANSIMod
	attrValueError ANSIMod
	levels         [4]ANSIMod // error, warn, info, debug
}

func (t consoleTheme) Name() string            { return "" }
func (t consoleTheme) Timestamp() ANSIMod      { return t.timestamp }
func (t consoleTheme) Source() ANSIMod         { return t.source }
func (t consoleTheme) Message() ANSIMod        { return t.message }
func (t consoleTheme) MessageDebug() ANSIMod   { return t.messageDebug }
func (t consoleTheme) AttrKey() ANSIMod        { return t.attrKey }
func (t consoleTheme) AttrValue() ANSIMod      { return t.attrValue }
func (t consoleTheme) AttrValueError() ANSIMod { return t.attrValueError }
func (t consoleTheme) LevelError() ANSIMod     { return t.levels[0] }
func (t consoleTheme) LevelWarn() ANSIMod      { return t.levels[1] }
func (t consoleTheme) LevelInfo() ANSIMod      { return t.levels[2] }
func (t consoleTheme) LevelDebug() ANSIMod     { return t.levels[3] }
func (t consoleTheme) Level(level slog.Level) ANSIMod {
	switch {
	case level >= slog.LevelError:
		return t.LevelError()
	case level >= slog.LevelWarn:
		return t.LevelWarn()
	case level >= slog.LevelInfo:
		return t.LevelInfo()
	default:
		return t.LevelDebug()
	}
}

// plainTheme only highlights warnings and errors.
var plainTheme = consoleTheme{
	levels: [4]ANSIMod{
		ToANSICode(Bold, Red),
		ToANSICode(Bold, Yellow),
	},
}

var devTheme = consoleTheme{
	timestamp:      ToANSICode(BrightBlack),
	source:         ToANSICode(Bold, BrightBlack),
	message:        ToANSICode(Bold),
	messageDebug:   ToANSICode(),
	attrKey:        ToANSICode(Cyan),
	attrValue:      ToANSICode(Faint),
	attrValueError: ToANSICode(Bold, Red),
	levels: [4]ANSIMod{
		ToANSICode(Bold, Red),
		ToANSICode(Bold, Yellow),
		ToANSICode(Bold, Green),
		ToANSICode(Bold, BrightMagenta),
	},
}

// newLogger returns a console logger writing to w. Logs only go to
// stderr, stdout is kept for the JSON-LD output.
func newLogger(w io.Writer, level slog.Level, dev bool) *slog.Logger {
	opts := &HandlerOptions{
		Level:      level,
		TimeFormat: time.TimeOnly,
		Theme:      plainTheme,
	}
	if dev {
		opts.Theme = devTheme
		opts.TimeFormat = time.StampMilli
	}

	return slog.New(NewHandler(w, opts))
}

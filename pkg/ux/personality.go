// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// OutputMode controls how much styling CLI output carries.
type OutputMode string

const (
	// ModeRich uses colors, icons and boxes.
	ModeRich OutputMode = "rich"

	// ModePlain uses icons but no colors or boxes.
	ModePlain OutputMode = "plain"

	// ModeMachine prints tab-separated lines for scripts.
	ModeMachine OutputMode = "machine"
)

var (
	currentMode = ModeRich
	modeMu      sync.RWMutex
)

// Mode returns the current output mode.
func Mode() OutputMode {
	modeMu.RLock()
	defer modeMu.RUnlock()
	return currentMode
}

// SetMode sets the output mode.
func SetMode(m OutputMode) {
	modeMu.Lock()
	defer modeMu.Unlock()
	currentMode = m
}

// ParseMode maps a flag value to a mode. Unknown values give ModeRich.
func ParseMode(s string) OutputMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "machine", "m", "quiet":
		return ModeMachine
	case "plain", "p", "minimal":
		return ModePlain
	default:
		return ModeRich
	}
}

// InitMode picks the output mode from flag, then STOREFRONT_OUTPUT, then
// whether stdout is a terminal.
func InitMode(flag string) {
	switch {
	case flag != "":
		SetMode(ParseMode(flag))
	case os.Getenv("STOREFRONT_OUTPUT") != "":
		SetMode(ParseMode(os.Getenv("STOREFRONT_OUTPUT")))
	case !StdoutIsTerminal():
		SetMode(ModeMachine)
	default:
		SetMode(ModeRich)
	}
}

// StdoutIsTerminal reports whether stdout is a terminal.
func StdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// StdinIsTerminal reports whether stdin is a terminal.
func StdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// IsInteractive reports whether prompts and forms may be shown.
func IsInteractive() bool {
	return Mode() != ModeMachine && StdinIsTerminal() && StdoutIsTerminal()
}

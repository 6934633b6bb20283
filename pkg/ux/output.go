// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal styling for the storefront CLI and dashboard.
package ux

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Storefront palette.
var (
	ColorAccent  = lipgloss.Color("#F2994A") // amber, titles and selection
	ColorPrimary = lipgloss.Color("#2D9CDB") // blue, links and badges
	ColorSurface = lipgloss.Color("#1F2A36")
	ColorSlate   = lipgloss.Color("#6B7B8C")

	ColorSuccess = lipgloss.Color("#27AE60")
	ColorWarning = lipgloss.Color("#F2C94C")
	ColorError   = lipgloss.Color("#EB5757")
)

// Styles provides pre-configured lipgloss styles.
var Styles = struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style

	Price lipgloss.Style
	Badge lipgloss.Style

	Box      lipgloss.Style
	ErrorBox lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorAccent),
	Subtitle:  lipgloss.NewStyle().Foreground(ColorPrimary),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorSlate),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorAccent).Bold(true),

	Price: lipgloss.NewStyle().Bold(true).Foreground(ColorSuccess),
	Badge: lipgloss.NewStyle().Foreground(ColorPrimary).Background(ColorSurface).Padding(0, 1),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(0, 1),
	ErrorBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorError).
		Padding(0, 1),
}

// Icon is a status glyph.
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconBullet  Icon = "•"
	IconArrow   Icon = "→"
)

// Render returns the icon styled for its meaning.
func (i Icon) Render() string {
	if Mode() != ModeRich {
		return string(i)
	}
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	default:
		return string(i)
	}
}

// style applies s only in rich mode.
func style(s lipgloss.Style, text string) string {
	if Mode() != ModeRich {
		return text
	}
	return s.Render(text)
}

// Title prints a heading. Suppressed in machine mode.
func Title(w io.Writer, text string) {
	if Mode() == ModeMachine {
		return
	}
	fmt.Fprintln(w, style(Styles.Title, text))
}

// Success prints a success line.
func Success(w io.Writer, text string) {
	if Mode() == ModeMachine {
		fmt.Fprintf(w, "OK: %s\n", text)
		return
	}
	fmt.Fprintf(w, "%s %s\n", IconSuccess.Render(), style(Styles.Success, text))
}

// Warning prints a warning line.
func Warning(w io.Writer, text string) {
	if Mode() == ModeMachine {
		fmt.Fprintf(w, "WARN: %s\n", text)
		return
	}
	fmt.Fprintf(w, "%s %s\n", IconWarning.Render(), style(Styles.Warning, text))
}

// Error prints an error line.
func Error(w io.Writer, text string) {
	if Mode() == ModeMachine {
		fmt.Fprintf(w, "ERROR: %s\n", text)
		return
	}
	fmt.Fprintf(w, "%s %s\n", IconError.Render(), style(Styles.Error, text))
}

// Info prints an informational line.
func Info(w io.Writer, text string) {
	if Mode() == ModeMachine {
		fmt.Fprintln(w, text)
		return
	}
	fmt.Fprintf(w, "%s %s\n", style(Styles.Muted, "│"), text)
}

// Muted prints secondary text. Suppressed in machine mode.
func Muted(w io.Writer, text string) {
	if Mode() == ModeMachine {
		return
	}
	fmt.Fprintln(w, style(Styles.Muted, text))
}

// Box prints content under a title inside a rounded border.
func Box(w io.Writer, title, content string) {
	if Mode() != ModeRich {
		fmt.Fprintf(w, "%s: %s\n", title, content)
		return
	}
	fmt.Fprintln(w, Styles.Box.Width(60).Render(Styles.Title.Render(title)+"\n"+content))
}

// ErrorBox prints a failure with its remediation.
func ErrorBox(w io.Writer, title, content string) {
	if Mode() != ModeRich {
		fmt.Fprintf(w, "ERROR %s: %s\n", title, content)
		return
	}
	fmt.Fprintln(w, Styles.ErrorBox.Width(60).Render(Styles.Error.Bold(true).Render(title)+"\n"+content))
}

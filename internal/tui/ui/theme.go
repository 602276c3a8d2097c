// Package ui holds shared TUI styling.
package ui

import "github.com/gdamore/tcell/v2"

// Theme holds color constants for the TUI.
type Theme struct {
	BgColor        tcell.Color
	FgColor        tcell.Color
	MutedColor     tcell.Color
	BorderColor    tcell.Color
	TableHeaderFg  tcell.Color
	TableHeaderBg  tcell.Color
	TableCursorFg  tcell.Color
	TableCursorBg  tcell.Color
	TitleColor     tcell.Color
	StatusBg       tcell.Color
	FlashInfoColor tcell.Color
	FlashWarnColor tcell.Color
}

// DefaultTheme returns a k9s-inspired dark theme.
func DefaultTheme() *Theme {
	return &Theme{
		BgColor:        tcell.ColorBlack,
		FgColor:        tcell.ColorCadetBlue,
		MutedColor:     tcell.ColorGray,
		BorderColor:    tcell.ColorDodgerBlue,
		TableHeaderFg:  tcell.ColorWhite,
		TableHeaderBg:  tcell.ColorBlack,
		TableCursorFg:  tcell.ColorBlack,
		TableCursorBg:  tcell.ColorAqua,
		TitleColor:     tcell.ColorFuchsia,
		StatusBg:       tcell.ColorNavy,
		FlashInfoColor: tcell.ColorNavajoWhite,
		FlashWarnColor: tcell.ColorOrange,
	}
}

// StateColor picks the status bar color for a daemon state name.
func StateColor(state string) string {
	switch state {
	case "READY":
		return "green"
	case "DEGRADED", "BOOTING":
		return "yellow"
	case "ERROR":
		return "red"
	default:
		return "white"
	}
}

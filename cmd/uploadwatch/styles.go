package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	red       = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	green     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	yellow    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	cyan      = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	gray      = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	lightGray = lipgloss.NewStyle().Foreground(lipgloss.Color("248"))
)

// formatTimeLeft renders an ETA the way the progress view shows it
func formatTimeLeft(seconds int64) string {
	switch {
	case seconds <= 0:
		return "calculating..."
	case seconds < 60:
		return fmt.Sprintf("%d sec", seconds)
	default:
		return fmt.Sprintf("%d min %d sec", seconds/60, seconds%60)
	}
}

package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

type eventKind string

const (
	eventClicked  eventKind = "clicked"
	eventTimedOut eventKind = "timed out"
)

var (
	clickedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#9ece6a"))
	timedOutStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e0af68"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
	accentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7aa2f7"))
)

// renderEvent formats one clicked or timed-out event for the listen command.
func renderEvent(kind eventKind, userContext string, at time.Time) string {
	style := timedOutStyle
	if kind == eventClicked {
		style = clickedStyle
	}

	ctx := mutedStyle.Render("(no context)")
	if userContext != "" {
		ctx = fmt.Sprintf("context=%q", userContext)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		mutedStyle.Render(at.Format("15:04:05")), " ",
		style.Width(10).Render(string(kind)), " ",
		ctx,
	)
}

func renderHeader(app, eventName string) string {
	return fmt.Sprintf("%s %s %s",
		accentStyle.Render("listening as"),
		app,
		mutedStyle.Render("("+eventName+")"),
	)
}

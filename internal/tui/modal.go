package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	warningColor = lipgloss.Color("214")
	dimColor     = lipgloss.Color("241")
)

// confirmState is the approval modal shown while a tool call awaits a decision.
type confirmState struct {
	tool    string
	summary string
	reply   chan<- bool
}

// renderConfirmModal draws the approval prompt centered in the given area.
func renderConfirmModal(state *confirmState, width, height int) string {
	modalWidth := 64
	if width < modalWidth+10 {
		modalWidth = max(width-10, 20)
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(warningColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render("Confirm tool: " + state.tool)

	body := lipgloss.NewStyle().
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Width(modalWidth).
		Padding(1, 1).
		Render(state.summary)

	footer := lipgloss.NewStyle().
		Foreground(dimColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render("y: yes | n: no")

	content := strings.Join([]string{title, body, footer}, "\n")
	if width <= 0 || height <= 0 {
		return content
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

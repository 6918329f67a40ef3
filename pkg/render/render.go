// Package render draws chat content for the terminal: code cells with
// their execution outputs, weather cards, and a generic structured-data
// fallback for unrecognized tools.
package render

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/yeti-teti/Caesarion/pkg/invocation"
)

var (
	userStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("2"))

	assistantStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("5"))

	statusOKStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	statusErrStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("9"))

	statusBusyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	gutterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	stderrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// UserPrefix returns the styled prompt prefix for user input.
func UserPrefix() string {
	return userStyle.Render("you>") + " "
}

// AssistantPrefix returns the styled prefix for assistant output.
func AssistantPrefix() string {
	return assistantStyle.Render("caesarion>") + " "
}

// SessionLine renders the session indicator: short session id plus the
// current sandbox state.
func SessionLine(shortID string, sandboxState string) string {
	var state string
	switch sandboxState {
	case "ready":
		state = statusOKStyle.Render("● sandbox ready")
	case "failed":
		state = statusErrStyle.Render("● sandbox failed")
	case "initializing":
		state = statusBusyStyle.Render("● sandbox initializing")
	default:
		state = dimStyle.Render("● sandbox unknown")
	}
	return dimStyle.Render(fmt.Sprintf("session %s", shortID)) + "  " + state
}

// StatusLine renders the execution status indicator for a tool invocation
// outcome.
func StatusLine(outcome invocation.Outcome, toolName string) string {
	switch outcome {
	case invocation.OutcomeExecuting:
		if toolName == "python_interpreter" {
			return statusBusyStyle.Render("⟳ Executing code in sandbox...")
		}
		return statusBusyStyle.Render("⟳ Processing...")
	case invocation.OutcomeError:
		return statusErrStyle.Render("⚠ Execution failed")
	default:
		return statusOKStyle.Render("✔ Execution completed")
	}
}

// Warning renders a user-facing warning message.
func Warning(msg string) string {
	return statusErrStyle.Render("! " + msg)
}

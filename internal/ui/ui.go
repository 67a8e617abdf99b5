package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	stepStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("81")) // Sky Blue/Cyan

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42")) // Green

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208")) // Orange

	failStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")) // Red

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // Grey
)

// Stepf announces a pipeline stage.
func Stepf(format string, a ...any) {
	fmt.Println(stepStyle.Render("==> " + fmt.Sprintf(format, a...)))
}

// Infof prints a plain progress line under the current stage.
func Infof(format string, a ...any) {
	fmt.Println("    " + fmt.Sprintf(format, a...))
}

// Dimf prints low-signal detail (resolved paths, skipped work).
func Dimf(format string, a ...any) {
	fmt.Println(dimStyle.Render("    " + fmt.Sprintf(format, a...)))
}

// Successf marks a completed step or the final result.
func Successf(format string, a ...any) {
	fmt.Println(okStyle.Render("    ✓ " + fmt.Sprintf(format, a...)))
}

// Warnf reports a degraded-but-continuing condition on stderr.
func Warnf(format string, a ...any) {
	fmt.Fprintln(os.Stderr, warnStyle.Render("    [warn] "+fmt.Sprintf(format, a...)))
}

// Failf reports a fatal condition on stderr. The caller decides the exit.
func Failf(format string, a ...any) {
	fmt.Fprintln(os.Stderr, failStyle.Render("✗ "+fmt.Sprintf(format, a...)))
}

// Package styles provides the colour theme and lipgloss styles for
// command output.
package styles

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
)

// Theme defines the colour palette.
type Theme struct {
	Primary lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Info    lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Border  lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary: lipgloss.Color("#7C3AED"), // Purple
		Muted:   lipgloss.Color("#6C7086"), // Medium gray
		Success: lipgloss.Color("#A6E3A1"), // Green
		Info:    lipgloss.Color("#89B4FA"), // Blue
		Warning: lipgloss.Color("#F9E2AF"), // Yellow
		Error:   lipgloss.Color("#F38BA8"), // Red
		Border:  lipgloss.Color("#45475A"), // Border gray
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	// Title style for headers.
	Title lipgloss.Style

	// Label style for key names in key/value output.
	Label lipgloss.Style

	// Muted style for ids and other secondary text.
	Muted lipgloss.Style

	Success lipgloss.Style
	Info    lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	// Box frames the batch summary.
	Box lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		Label: lipgloss.NewStyle().
			Bold(true),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Success: lipgloss.NewStyle().
			Foreground(theme.Success),

		Info: lipgloss.NewStyle().
			Foreground(theme.Info),

		Warning: lipgloss.NewStyle().
			Foreground(theme.Warning),

		Error: lipgloss.NewStyle().
			Foreground(theme.Error),

		Box: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// Action renders an import action in its colour, padded to a fixed width.
func (s *Styles) Action(action domain.Action) string {
	label := fmt.Sprintf("%-7s", action)
	switch action {
	case domain.ActionCreated:
		return s.Success.Render(label)
	case domain.ActionUpdated:
		return s.Info.Render(label)
	case domain.ActionSkipped:
		return s.Muted.Render(label)
	default:
		return s.Error.Render(label)
	}
}

// Summary renders batch counts inside a box.
func (s *Styles) Summary(sum domain.BatchSummary) string {
	line := fmt.Sprintf("%d items: %s created, %s updated, %s skipped, %s failed",
		sum.Total,
		s.Success.Render(fmt.Sprint(sum.Created)),
		s.Info.Render(fmt.Sprint(sum.Updated)),
		s.Muted.Render(fmt.Sprint(sum.Skipped)),
		s.failed(sum.Failed),
	)
	return s.Box.Render(line)
}

func (s *Styles) failed(n int) string {
	if n == 0 {
		return fmt.Sprint(n)
	}
	return s.Error.Render(fmt.Sprint(n))
}

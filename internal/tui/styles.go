package tui

import "github.com/charmbracelet/lipgloss"

type Styles struct {
	Header lipgloss.Style
	Muted  lipgloss.Style
	Status lipgloss.Style
	Error  lipgloss.Style
	Dialog lipgloss.Style
	Label  lipgloss.Style
	Active lipgloss.Style
}

func DefaultStyles() Styles {
	primary := lipgloss.AdaptiveColor{Light: "#5A4FCF", Dark: "#9D8CFF"}
	muted := lipgloss.AdaptiveColor{Light: "#777777", Dark: "#8A8A8A"}
	danger := lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#FF6B6B"}
	success := lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#7BD88F"}

	return Styles{
		Header: lipgloss.NewStyle().Bold(true).Foreground(primary).Padding(0, 1),
		Muted:  lipgloss.NewStyle().Foreground(muted),
		Status: lipgloss.NewStyle().Foreground(success),
		Error:  lipgloss.NewStyle().Foreground(danger).Bold(true),
		Dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primary).
			Padding(0, 1),
		Label:  lipgloss.NewStyle().Width(24).Foreground(muted),
		Active: lipgloss.NewStyle().Foreground(primary).Bold(true).Underline(true),
	}
}

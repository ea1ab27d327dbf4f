// Package styles provides Lip Gloss styling for the TUI.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	Primary     = lipgloss.Color("#7C3AED") // Purple
	Secondary   = lipgloss.Color("#10B981") // Green
	Accent      = lipgloss.Color("#F59E0B") // Amber
	Error       = lipgloss.Color("#EF4444") // Red
	Surface     = lipgloss.Color("#374151") // Lighter dark gray
	TextPrimary = lipgloss.Color("#F9FAFB") // Almost white
	TextMuted   = lipgloss.Color("#9CA3AF") // Light gray

	// Header
	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		Padding(0, 1).
		MarginBottom(1)

	// Title
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextPrimary)

	// Subtitle
	Subtitle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Italic(true)

	// Story body
	StoryText = lipgloss.NewStyle().
			Foreground(TextPrimary).
			PaddingLeft(2)

	// Candidate preview
	CandidateBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Accent).
			Padding(0, 1)

	// Input area
	InputPrompt = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	// Status bar
	StatusBar = lipgloss.NewStyle().
			Background(Surface).
			Foreground(TextMuted).
			Padding(0, 1)

	// Error and info messages
	ErrorText = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	InfoText = lipgloss.NewStyle().
			Foreground(Accent)

	SuccessText = lipgloss.NewStyle().
			Foreground(Secondary)

	// Help
	HelpKey = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	HelpDesc = lipgloss.NewStyle().
			Foreground(TextMuted)

	// List items
	ListItem = lipgloss.NewStyle().
			PaddingLeft(2)

	SelectedItem = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true).
			PaddingLeft(2)

	// Spinner
	Spinner = lipgloss.NewStyle().
		Foreground(Primary)

	// Token counter
	TokenCounter = lipgloss.NewStyle().
			Foreground(TextMuted).
			Italic(true)

	// Muted text style (for using TextMuted color as a style)
	MutedText = lipgloss.NewStyle().
			Foreground(TextMuted)
)

// Width returns the available width for content.
func Width(termWidth int) int {
	return termWidth - 4 // Account for padding
}

package tui

import "github.com/charmbracelet/lipgloss"

var (
	// titleStyle is the style for the application title in the header
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginLeft(2)

	// statusStyle is the style for the connection status indicator
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginLeft(2)

	// statusDownStyle is the status style while the channel is down
	statusDownStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			MarginLeft(2)

	// statusDeadStyle is the status style once reconnects are exhausted
	statusDeadStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true).
			MarginLeft(2)

	// authorStyle is the style for item author names
	authorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true)

	// timeStyle is the style for item timestamps
	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// replyStyle is the style for replies nested under an item
	replyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			MarginLeft(4)

	// idStyle is the style for the short item id shown for admin commands
	idStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// emptyStyle is the style for the empty-board indicator
	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			MarginLeft(2)

	// typingStyle is the style for the typing indicator line
	typingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true).
			MarginLeft(2)

	// rosterStyle is the style for the online-users line
	rosterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			MarginLeft(2)

	// maintenanceStyle is the banner shown while maintenance is active
	maintenanceStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196")).
				Bold(true).
				Border(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("196")).
				Padding(0, 1).
				MarginLeft(2)

	// noticeStyle is the style for transient notices (errors, joins, kicks)
	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			MarginLeft(2)

	// adminStyle marks the admin badge when a credential is held
	adminStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("84")).
			Bold(true)
)

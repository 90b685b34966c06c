package tui

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/wordwrap"

	"github.com/codefionn/boardsync/internal/transport"
	"github.com/codefionn/boardsync/internal/wire"
)

func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var sb strings.Builder
	sb.WriteString(m.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")
	sb.WriteString(m.renderFooter())
	return sb.String()
}

// renderHeader renders the title line with room, connection status and the
// admin badge.
func (m *Model) renderHeader() string {
	title := "boardsync"
	if room := m.session.Room(); room != "" {
		title += " · " + room
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(title))
	if m.session.Gateway().HasCredential() {
		sb.WriteString(" ")
		sb.WriteString(adminStyle.Render("[admin]"))
	}
	sb.WriteString(m.renderStatus())
	sb.WriteString("\n")
	return sb.String()
}

func (m *Model) renderStatus() string {
	switch m.status {
	case transport.StatusConnected:
		return statusStyle.Render("● connected")
	case transport.StatusConnecting:
		return statusDownStyle.Render("◌ connecting...")
	case transport.StatusDisconnected:
		return statusDownStyle.Render("◌ reconnecting...")
	case transport.StatusExhausted:
		return statusDeadStyle.Render("✗ connection lost — restart to retry")
	default:
		return statusStyle.Render("○ offline")
	}
}

// updateViewport rebuilds the timeline content from the store.
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}

	shouldScroll := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderBoard())
	if shouldScroll {
		m.viewport.GotoBottom()
	}
}

// renderBoard renders every item with its replies, newest first, the same
// order the store keeps them in.
func (m *Model) renderBoard() string {
	store := m.session.Store()

	if maint := store.Maintenance(); maint.Status {
		banner := "⚠ maintenance in progress"
		if maint.Message != "" {
			banner += ": " + maint.Message
		}
		if maint.Until != nil {
			banner += fmt.Sprintf(" (until %s)", maint.Until.Format("15:04"))
		}
		return maintenanceStyle.Render(banner)
	}

	items := store.Items()
	if len(items) == 0 {
		return emptyStyle.Render("No questions yet. Be the first to ask!")
	}

	wrapWidth := m.width - 6
	if wrapWidth < 20 {
		wrapWidth = 20
	}

	var sb strings.Builder
	for i, item := range items {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(m.renderItem(item, wrapWidth))
	}
	return sb.String()
}

func (m *Model) renderItem(item wire.Item, wrapWidth int) string {
	var sb strings.Builder

	author := item.User
	if author == "" {
		author = "anonymous"
	}
	sb.WriteString("  ")
	sb.WriteString(authorStyle.Render(author))
	if !item.CreatedAt.IsZero() {
		sb.WriteString(" ")
		sb.WriteString(timeStyle.Render(item.CreatedAt.Format("15:04")))
	}
	sb.WriteString(" ")
	sb.WriteString(idStyle.Render("#" + shortID(item.ID)))
	sb.WriteString("\n")
	sb.WriteString("  ")
	sb.WriteString(strings.ReplaceAll(wordwrap.String(item.Text, wrapWidth), "\n", "\n  "))

	for _, reply := range item.Replies {
		sb.WriteString("\n")
		line := reply.User + ": " + reply.Text + " " + "#" + shortID(reply.ID)
		sb.WriteString(replyStyle.Render("↳ " + wordwrap.String(line, wrapWidth-4)))
	}

	if who, ok := m.session.Typing().Typist(item.ID); ok {
		sb.WriteString("\n")
		sb.WriteString(replyStyle.Render(typingStyle.Render(who + " is typing...")))
	}
	return sb.String()
}

// renderFooter renders the typing line, the roster, the transient notice
// and the composer.
func (m *Model) renderFooter() string {
	var sb strings.Builder

	if who, ok := m.session.Typing().Typist(wire.GlobalKey); ok {
		sb.WriteString(typingStyle.Render(who + " is typing..."))
	}
	sb.WriteString("\n")

	if users := m.session.Store().Participants(); len(users) > 0 {
		names := make([]string, 0, len(users))
		for _, u := range users {
			name := u.Username
			if u.IsAdmin {
				name += "*"
			}
			names = append(names, name)
		}
		sb.WriteString(rosterStyle.Render(fmt.Sprintf("online (%d): %s", len(names), strings.Join(names, ", "))))
	}
	sb.WriteString("\n")

	if m.notice != "" {
		sb.WriteString(noticeStyle.Render(m.notice))
	}
	sb.WriteString("\n")

	if m.composerLocked() {
		sb.WriteString(emptyStyle.Render("input disabled during maintenance"))
	} else {
		sb.WriteString(m.input.View())
	}
	return sb.String()
}

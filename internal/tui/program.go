package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/codefionn/boardsync/internal/client"
	"github.com/codefionn/boardsync/internal/transport"
)

// Run wires the session's hooks into a bubbletea program and blocks until
// the UI exits. The hooks only push messages; all state reads happen in
// the update loop.
func Run(session *client.Session) error {
	m := New(session)
	p := tea.NewProgram(m, tea.WithAltScreen())

	session.Store().OnChange(func() {
		p.Send(refreshMsg{})
	})
	session.Typing().OnChange(func(string) {
		p.Send(refreshMsg{})
	})
	session.OnStatus(func(st transport.Status) {
		p.Send(statusChangedMsg{status: st})
	})
	session.OnNotice(func(text string) {
		p.Send(noticeMsg{text: text})
	})
	session.OnKicked(func(string) {
		p.Send(kickedMsg{})
	})
	session.Gateway().OnRevoked(func() {
		p.Send(noticeMsg{text: "admin credential revoked"})
	})

	_, err := p.Run()
	return err
}

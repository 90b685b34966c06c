package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/codefionn/boardsync/internal/api"
)

const helpText = "/reply <id> · /login <password> · /logout · /delete <id> · /delreply <id> <rid> · " +
	"/clear · /maint [message] · /maint off · /members · /kick <user> · /lock · /ai · /quit"

// runCommand parses and executes one slash command.
func (m *Model) runCommand(text string) tea.Cmd {
	name, args := splitCommand(text)

	switch name {
	case "help":
		return m.showNotice(helpText)

	case "quit", "exit":
		return tea.Quit

	case "reply":
		if len(args) != 1 {
			return m.showNotice("usage: /reply <id>")
		}
		item, ok := m.findItem(args[0])
		if !ok {
			return m.showNotice("no item matching " + args[0])
		}
		m.enterReplyMode(item)
		return nil

	case "login":
		if len(args) != 1 {
			return m.showNotice("usage: /login <password>")
		}
		password := args[0]
		return m.do(func() error {
			return m.session.Gateway().Login(m.session.Context(), "admin", password)
		}, "admin mode enabled")

	case "logout":
		m.session.Gateway().Logout()
		return m.showNotice("admin mode disabled")

	case "delete":
		if len(args) != 1 {
			return m.showNotice("usage: /delete <id>")
		}
		item, ok := m.findItem(args[0])
		if !ok {
			return m.showNotice("no item matching " + args[0])
		}
		return m.do(func() error {
			return m.session.DeleteQuestion(m.session.Context(), item)
		}, "deleted")

	case "delreply":
		if len(args) != 2 {
			return m.showNotice("usage: /delreply <id> <reply-id>")
		}
		item, ok := m.findItem(args[0])
		if !ok {
			return m.showNotice("no item matching " + args[0])
		}
		return m.do(func() error {
			return m.session.DeleteReply(m.session.Context(), item, args[1])
		}, "reply deleted")

	case "clear":
		return m.do(func() error {
			return m.session.ClearAll(m.session.Context())
		}, "board cleared")

	case "maint":
		return m.maintCommand(args)

	case "members":
		return func() tea.Msg {
			sum, err := m.session.Gateway().Members(m.session.Context())
			if err != nil {
				return actionDoneMsg{err: err}
			}
			return actionDoneMsg{notice: fmt.Sprintf("%d connected", sum.Count)}
		}

	case "kick":
		if len(args) != 1 {
			return m.showNotice("usage: /kick <user-id>")
		}
		return m.do(func() error {
			return m.session.Gateway().KickUser(args[0])
		}, "kick requested")

	case "lock":
		return m.do(func() error {
			return m.session.Gateway().LockRoom()
		}, "lock requested")

	case "ai":
		m.session.SetAIAssist(!m.session.AIAssist())
		if m.session.AIAssist() {
			return m.showNotice("ai assist on")
		}
		return m.showNotice("ai assist off")

	default:
		return m.showNotice("unknown command /" + name + " — /help lists commands")
	}
}

// maintCommand turns maintenance on with an optional message, or off.
func (m *Model) maintCommand(args []string) tea.Cmd {
	req := api.MaintenanceRequest{Status: true}
	if len(args) == 1 && args[0] == "off" {
		req.Status = false
	} else if len(args) > 0 {
		req.Message = strings.Join(args, " ")
	}
	return m.do(func() error {
		return m.session.SetMaintenance(m.session.Context(), req)
	}, "maintenance updated")
}

// splitCommand separates "/name arg arg" into name and args.
func splitCommand(text string) (string, []string) {
	fields := strings.Fields(strings.TrimPrefix(text, "/"))
	if len(fields) == 0 {
		return "", nil
	}
	return strings.ToLower(fields[0]), fields[1:]
}

// findItem resolves a full or abbreviated item id against the store.
func (m *Model) findItem(id string) (string, bool) {
	for _, item := range m.session.Store().Items() {
		if item.ID == id || strings.HasPrefix(item.ID, id) {
			return item.ID, true
		}
	}
	return "", false
}

// Package tui renders the board in the terminal. It is a pure projection
// of the session's components: every view is recomputed from the store,
// the presence tracker and the gateway, never tracked as separate state.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/codefionn/boardsync/internal/client"
	"github.com/codefionn/boardsync/internal/transport"
)

const (
	headerHeight = 2
	footerHeight = 4

	noticeDisplayDuration = 5 * time.Second
)

const defaultPlaceholder = "Type a question... (/help for commands)"

// Messages pushed into the program by the session's hooks.

// refreshMsg signals that a session component changed and views must be
// recomputed.
type refreshMsg struct{}

type statusChangedMsg struct {
	status transport.Status
}

type noticeMsg struct {
	text string
}

type clearNoticeMsg struct {
	token int
}

// kickedMsg means the server removed this session; the UI shuts down.
type kickedMsg struct{}

// actionDoneMsg carries the outcome of a command or post.
type actionDoneMsg struct {
	err    error
	notice string
}

// Model is the bubbletea model for the board UI.
type Model struct {
	session *client.Session

	viewport viewport.Model
	input    textinput.Model
	ready    bool
	width    int
	height   int

	status transport.Status
	// replyTo holds the item id while composing a threaded reply.
	replyTo     string
	notice      string
	noticeToken int
	kicked      bool
}

// New creates the model for a started session.
func New(session *client.Session) *Model {
	input := textinput.New()
	input.Placeholder = defaultPlaceholder
	input.Prompt = "> "
	input.CharLimit = 2000
	input.Focus()

	return &Model{
		session: session,
		input:   input,
		status:  session.Status(),
	}
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := msg.Height - headerHeight - footerHeight
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.input.Width = msg.Width - 4
		m.updateViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case refreshMsg:
		m.updateViewport()
		return m, nil

	case statusChangedMsg:
		m.status = msg.status
		return m, nil

	case noticeMsg:
		return m, m.showNotice(msg.text)

	case clearNoticeMsg:
		if msg.token == m.noticeToken {
			m.notice = ""
		}
		return m, nil

	case kickedMsg:
		m.kicked = true
		return m, tea.Quit

	case actionDoneMsg:
		if msg.err != nil {
			return m, m.showNotice(msg.err.Error())
		}
		if msg.notice != "" {
			return m, m.showNotice(msg.notice)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyEsc:
		if m.replyTo != "" {
			m.exitReplyMode()
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEnter:
		return m, m.submit()

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.composerLocked() {
		// Maintenance disables every input; keystrokes are dropped rather
		// than buffered for later.
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	// Plain text keystrokes signal typing; commands do not.
	if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
		if !strings.HasPrefix(m.input.Value(), "/") {
			m.emitTyping()
		}
	}
	return m, cmd
}

// composerLocked reports whether keystrokes are swallowed. An admin keeps
// the composer during maintenance, otherwise /maint off could never be
// issued.
func (m *Model) composerLocked() bool {
	return m.session.Store().InputsDisabled() && !m.session.Gateway().HasCredential()
}

func (m *Model) emitTyping() {
	if m.replyTo != "" {
		id := m.replyTo
		m.session.EmitTyping(&id)
		return
	}
	m.session.EmitTyping(nil)
}

// submit sends the composer content: a slash command, a reply when reply
// mode is active, or a new top-level item.
func (m *Model) submit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return nil
	}

	if strings.HasPrefix(text, "/") {
		m.input.SetValue("")
		return m.runCommand(text)
	}

	if m.session.Store().InputsDisabled() {
		return m.showNotice("inputs are disabled during maintenance")
	}

	m.input.SetValue("")
	if m.replyTo != "" {
		id := m.replyTo
		m.exitReplyMode()
		return m.do(func() error {
			return m.session.PostReply(m.session.Context(), id, text)
		}, "")
	}
	return m.do(func() error {
		return m.session.PostQuestion(m.session.Context(), text)
	}, "")
}

// do runs a session call off the update loop and reports its outcome.
func (m *Model) do(fn func() error, notice string) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: fn(), notice: notice}
	}
}

func (m *Model) showNotice(text string) tea.Cmd {
	m.notice = text
	m.noticeToken++
	token := m.noticeToken
	return tea.Tick(noticeDisplayDuration, func(time.Time) tea.Msg {
		return clearNoticeMsg{token: token}
	})
}

func (m *Model) enterReplyMode(itemID string) {
	m.replyTo = itemID
	m.input.Placeholder = fmt.Sprintf("Replying to %s... (Esc to cancel)", shortID(itemID))
}

func (m *Model) exitReplyMode() {
	m.replyTo = ""
	m.input.Placeholder = defaultPlaceholder
}

// shortID abbreviates server identifiers for display next to items.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

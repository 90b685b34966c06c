package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codefionn/boardsync/internal/client"
	"github.com/codefionn/boardsync/internal/wire"
)

// newTestModel builds a model over an unstarted session; nothing here
// touches the network.
func newTestModel(t *testing.T) *Model {
	t.Helper()
	session, err := client.New(client.Options{
		BackendURL: "http://127.0.0.1:1",
		Nickname:   "alice",
	})
	require.NoError(t, err)
	t.Cleanup(session.Stop)

	m := New(session)
	model, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return model.(*Model)
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		input string
		name  string
		args  []string
	}{
		{"/help", "help", nil},
		{"/Login  s3cret", "login", []string{"s3cret"}},
		{"/maint back at noon", "maint", []string{"back", "at", "noon"}},
		{"/", "", nil},
	}
	for _, tt := range tests {
		name, args := splitCommand(tt.input)
		assert.Equal(t, tt.name, name, tt.input)
		assert.Equal(t, tt.args, args, tt.input)
	}
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "12345678", shortID("123456789abc"))
	assert.Equal(t, "q1", shortID("q1"))
}

func TestFindItemByPrefix(t *testing.T) {
	m := newTestModel(t)
	m.session.Store().ReplaceAll([]wire.Item{
		{ID: "abcdef123456", Text: "first"},
		{ID: "zzz999", Text: "second"},
	})

	id, ok := m.findItem("abcdef12")
	require.True(t, ok)
	assert.Equal(t, "abcdef123456", id)

	id, ok = m.findItem("zzz999")
	require.True(t, ok)
	assert.Equal(t, "zzz999", id)

	_, ok = m.findItem("nope")
	assert.False(t, ok)
}

func TestUnknownCommandShowsNotice(t *testing.T) {
	m := newTestModel(t)
	_ = m.runCommand("/frobnicate")
	assert.Contains(t, m.notice, "unknown command /frobnicate")
}

func TestReplyModeLifecycle(t *testing.T) {
	m := newTestModel(t)
	m.session.Store().ReplaceAll([]wire.Item{{ID: "q1234567890", Text: "hi"}})

	_ = m.runCommand("/reply q1234")
	assert.Equal(t, "q1234567890", m.replyTo)
	assert.Contains(t, m.input.Placeholder, "q1234567")

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = model.(*Model)
	assert.Empty(t, m.replyTo)
	assert.Equal(t, defaultPlaceholder, m.input.Placeholder)
}

func TestMaintenanceDisablesComposer(t *testing.T) {
	m := newTestModel(t)
	m.session.Store().SetMaintenance(wire.MaintenanceState{Status: true, Message: "back soon"})
	m.updateViewport()

	view := m.View()
	assert.Contains(t, view, "input disabled during maintenance")
	assert.Contains(t, m.viewport.View(), "back soon")

	// Keystrokes are dropped while disabled.
	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	m = model.(*Model)
	assert.Empty(t, m.input.Value())
}

func TestEmptyBoardIndicator(t *testing.T) {
	m := newTestModel(t)
	m.updateViewport()
	assert.Contains(t, m.viewport.View(), "No questions yet")
}

func TestBoardRendersItemsAndReplies(t *testing.T) {
	m := newTestModel(t)
	m.session.Store().ReplaceAll([]wire.Item{
		{ID: "q1", User: "bob", Text: "what is the plan?", Replies: []wire.Reply{
			{ID: "r1", User: "carol", Text: "ship it"},
		}},
	})
	m.updateViewport()

	view := m.viewport.View()
	assert.Contains(t, view, "bob")
	assert.Contains(t, view, "what is the plan?")
	assert.Contains(t, view, "ship it")
}

func TestKickedQuits(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(kickedMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestNoticeClearsOnlyForMatchingToken(t *testing.T) {
	m := newTestModel(t)
	_ = m.showNotice("first")
	token := m.noticeToken
	_ = m.showNotice("second")

	model, _ := m.Update(clearNoticeMsg{token: token})
	m = model.(*Model)
	assert.Equal(t, "second", m.notice, "a stale clear must not blank a newer notice")

	model, _ = m.Update(clearNoticeMsg{token: m.noticeToken})
	m = model.(*Model)
	assert.Empty(t, m.notice)
}

func TestAIToggleCommand(t *testing.T) {
	m := newTestModel(t)
	require.False(t, m.session.AIAssist())

	_ = m.runCommand("/ai")
	assert.True(t, m.session.AIAssist())
	assert.Contains(t, m.notice, "ai assist on")

	_ = m.runCommand("/ai")
	assert.False(t, m.session.AIAssist())
}

func TestHeaderShowsAdminBadgeOnlyWithCredential(t *testing.T) {
	m := newTestModel(t)
	header := m.renderHeader()
	assert.NotContains(t, header, "[admin]")
}

func TestViewSurvivesNarrowWindow(t *testing.T) {
	m := newTestModel(t)
	model, _ := m.Update(tea.WindowSizeMsg{Width: 10, Height: 4})
	m = model.(*Model)
	assert.NotPanics(t, func() { _ = m.View() })
	assert.True(t, strings.Contains(m.View(), ">") || m.session.Store().InputsDisabled())
}

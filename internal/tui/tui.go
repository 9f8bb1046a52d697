// Package tui renders a frontend.App in the terminal.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jaekwang-park/todolist/internal/frontend"
	"github.com/jaekwang-park/todolist/internal/model"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	doneStyle    = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("241"))
	activeFilter = lipgloss.NewStyle().Underline(true).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

type inputMode int

const (
	modeList inputMode = iota
	modeAdd
	modeUsername
	modePassword
	modePasswordConfirm
)

var prompts = map[inputMode]string{
	modeAdd:             "New task: ",
	modeUsername:        "New username: ",
	modePassword:        "New password: ",
	modePasswordConfirm: "Confirm password: ",
}

// opDoneMsg reports a finished API call.
type opDoneMsg struct {
	notice string
	err    error
}

// authChangedMsg means the app's auth state changed outside the UI.
type authChangedMsg struct{}

type Model struct {
	ctx     context.Context
	app     *frontend.App
	changes chan struct{}

	cursor  int
	mode    inputMode
	input   string
	pending string // first password entry while confirming
	busy    bool
	notice  string
	errMsg  string

	signedOut bool
}

// New wires m to app's change notifications. app must already be initialized.
func New(ctx context.Context, app *frontend.App) *Model {
	m := &Model{ctx: ctx, app: app, changes: make(chan struct{}, 1)}
	app.OnChange(func() {
		select {
		case m.changes <- struct{}{}:
		default:
		}
	})
	return m
}

// Run starts the program and blocks until it quits. It returns
// frontend.ErrSignedOut when the session ended while it was running.
func Run(ctx context.Context, app *frontend.App) error {
	m := New(ctx, app)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := program.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(*Model); ok && fm.signedOut {
		return frontend.ErrSignedOut
	}
	return nil
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return authChangedMsg{}
	}
}

func (m *Model) run(op func(ctx context.Context) (string, error)) tea.Cmd {
	m.busy = true
	m.errMsg = ""
	m.notice = ""
	ctx := m.ctx
	return func() tea.Msg {
		notice, err := op(ctx)
		return opDoneMsg{notice: notice, err: err}
	}
}

func (m *Model) Init() tea.Cmd {
	return waitForChange(m.changes)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case authChangedMsg:
		if m.app.State() == frontend.StateSignedOut {
			m.signedOut = true
			return m, tea.Quit
		}
		return m, waitForChange(m.changes)
	case opDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
		} else {
			m.notice = msg.notice
		}
		m.clampCursor()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.mode != modeList {
			return m.updateInput(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m *Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := m.app.View().Visible

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(visible)-1 {
			m.cursor++
		}
	case "1":
		m.app.SetFilter(model.FilterAll)
		m.clampCursor()
	case "2":
		m.app.SetFilter(model.FilterActive)
		m.clampCursor()
	case "3":
		m.app.SetFilter(model.FilterCompleted)
		m.clampCursor()
	case "a":
		m.startInput(modeAdd)
	case "u":
		m.startInput(modeUsername)
		m.input = m.app.Username()
	case "p":
		m.startInput(modePassword)
	}

	if m.busy {
		return m, nil
	}

	switch msg.String() {
	case " ", "enter", "x":
		if id, ok := m.selected(visible); ok {
			return m, m.run(func(ctx context.Context) (string, error) { return "", m.app.Toggle(ctx, id) })
		}
	case "d":
		if id, ok := m.selected(visible); ok {
			return m, m.run(func(ctx context.Context) (string, error) { return "", m.app.Delete(ctx, id) })
		}
	case "c":
		return m, m.run(func(ctx context.Context) (string, error) { return "", m.app.ClearCompleted(ctx) })
	case "L":
		return m, m.run(func(ctx context.Context) (string, error) { return "", m.app.SignOut(ctx) })
	}
	return m, nil
}

func (m *Model) startInput(mode inputMode) {
	m.mode = mode
	m.input = ""
	m.pending = ""
	m.errMsg = ""
	m.notice = ""
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeList
		m.input, m.pending = "", ""
		return m, nil
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
		return m, nil
	case tea.KeySpace:
		m.input += " "
		return m, nil
	case tea.KeyRunes:
		m.input += string(msg.Runes)
		return m, nil
	case tea.KeyEnter:
		return m.submitInput()
	}
	return m, nil
}

func (m *Model) submitInput() (tea.Model, tea.Cmd) {
	value := m.input
	m.input = ""

	switch m.mode {
	case modeAdd:
		// The line is cleared before the request completes.
		m.mode = modeList
		return m, m.run(func(ctx context.Context) (string, error) { return "", m.app.Add(ctx, value) })
	case modeUsername:
		m.mode = modeList
		return m, m.run(func(ctx context.Context) (string, error) { return m.app.UpdateUsername(ctx, value) })
	case modePassword:
		m.pending = value
		m.mode = modePasswordConfirm
		return m, nil
	case modePasswordConfirm:
		first := m.pending
		m.pending = ""
		m.mode = modeList
		return m, m.run(func(ctx context.Context) (string, error) { return m.app.ChangePassword(ctx, first, value) })
	}
	m.mode = modeList
	return m, nil
}

func (m *Model) selected(visible []model.Todo) (string, bool) {
	if m.cursor < 0 || m.cursor >= len(visible) {
		return "", false
	}
	return visible[m.cursor].ID, true
}

func (m *Model) clampCursor() {
	n := len(m.app.View().Visible)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) View() string {
	if m.signedOut {
		return "Signed out.\n"
	}
	v := m.app.View()

	var b strings.Builder
	b.WriteString(titleStyle.Render("todos"))
	b.WriteString("  ")
	b.WriteString(headerStyle.Render(v.Header))
	b.WriteString("\n\n")

	if v.Empty {
		b.WriteString(mutedStyle.Render("  Nothing here."))
		b.WriteString("\n")
	}
	for i, t := range v.Visible {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		box, text := "[ ]", t.Text
		if t.Completed {
			box, text = "[x]", doneStyle.Render(t.Text)
		}
		fmt.Fprintf(&b, "%s%s %s\n", cursor, box, text)
	}

	b.WriteString("\n")
	b.WriteString(v.ItemsLeft)
	b.WriteString("   ")
	b.WriteString(renderFilters(v.Filter))
	b.WriteString("\n")

	if prompt, ok := prompts[m.mode]; ok {
		shown := m.input
		if m.mode == modePassword || m.mode == modePasswordConfirm {
			shown = strings.Repeat("*", len([]rune(m.input)))
		}
		b.WriteString("\n" + prompt + shown + "█\n")
	}

	switch {
	case m.busy:
		b.WriteString("\n" + mutedStyle.Render("working…") + "\n")
	case m.errMsg != "":
		b.WriteString("\n" + errorStyle.Render(m.errMsg) + "\n")
	case m.notice != "":
		b.WriteString("\n" + noticeStyle.Render(m.notice) + "\n")
	}

	b.WriteString("\n" + mutedStyle.Render(helpLine(m.mode)) + "\n")
	return b.String()
}

func renderFilters(current model.Filter) string {
	labels := []struct {
		key string
		f   model.Filter
	}{{"1", model.FilterAll}, {"2", model.FilterActive}, {"3", model.FilterCompleted}}

	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		label := l.key + " " + string(l.f)
		if l.f == current {
			label = activeFilter.Render(label)
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, "  ")
}

func helpLine(mode inputMode) string {
	if mode != modeList {
		return "enter submit • esc cancel"
	}
	return "a add • space toggle • d delete • c clear done • u username • p password • L sign out • q quit"
}

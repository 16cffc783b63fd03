package main

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hostilefork/ren-go/engine"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#007B5E")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const historyLimit = 200

type consoleEntry struct {
	src   string
	out   string
	isErr bool
}

type consoleModel struct {
	eng     *engine.Engine
	backend string
	input   textinput.Model
	entries []consoleEntry
}

func newConsoleModel(eng *engine.Engine, backend string) *consoleModel {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(">> ")
	ti.Placeholder = `1 + 2`
	ti.Width = 72
	ti.Focus()

	return &consoleModel{
		eng:     eng,
		backend: backend,
		input:   ti,
	}
}

func (m *consoleModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "ctrl+d":
			return m, tea.Quit

		case "enter":
			src := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if src == "" {
				return m, nil
			}
			if src == "quit" || src == "exit" {
				return m, tea.Quit
			}
			m.push(m.evaluate(src))
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *consoleModel) push(e consoleEntry) {
	m.entries = append(m.entries, e)
	if len(m.entries) > historyLimit {
		m.entries = m.entries[len(m.entries)-historyLimit:]
	}
}

func (m *consoleModel) evaluate(src string) consoleEntry {
	code, err := engine.NewText(src)
	if err != nil {
		return consoleEntry{src: src, out: err.Error(), isErr: true}
	}

	v, err := m.eng.Value1(code)
	if err != nil {
		var scriptErr *engine.ScriptError
		if stderrors.As(err, &scriptErr) {
			return consoleEntry{
				src:   src,
				out:   fmt.Sprintf("** %s error (%s): %s", scriptErr.Type, scriptErr.ID, scriptErr.Message),
				isErr: true,
			}
		}
		return consoleEntry{src: src, out: err.Error(), isErr: true}
	}
	defer v.Release()

	out, err := v.UnboxStringQ()
	if err != nil {
		return consoleEntry{src: src, out: err.Error(), isErr: true}
	}
	return consoleEntry{src: src, out: out}
}

func (m *consoleModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Ren Console"))
	b.WriteString(" ")
	b.WriteString(helpStyle.Render(m.backend))
	b.WriteString("\n\n")

	for _, e := range m.entries {
		b.WriteString(promptStyle.Render(">> "))
		b.WriteString(e.src)
		b.WriteString("\n")
		if e.out != "" {
			if e.isErr {
				b.WriteString(errorStyle.Render(e.out))
			} else {
				b.WriteString(resultStyle.Render("== " + e.out))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render(fmt.Sprintf("tick %d • enter evaluate • ctrl+c quit", m.eng.Tick())))

	return b.String()
}

func runConsole(eng *engine.Engine, backend string) error {
	p := tea.NewProgram(newConsoleModel(eng, backend), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

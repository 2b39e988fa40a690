package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/hostbind/descriptor"
	"github.com/wippyai/hostbind/gen"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	tagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err      error
	manifest string
	pkg      string
	fns      []*descriptor.Function
	view     viewport.Model
	selected int
	width    int
	height   int
	state    modelState
}

type modelState int

const (
	stateSelectFunc modelState = iota
	stateShowSource
)

func newInteractiveModel(manifest, pkg string) *interactiveModel {
	return &interactiveModel{
		manifest: manifest,
		pkg:      pkg,
		state:    stateSelectFunc,
	}
}

type loadedMsg struct {
	err error
	fns []*descriptor.Function
}

type generatedMsg struct {
	err    error
	source string
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadManifest
}

func (m *interactiveModel) loadManifest() tea.Msg {
	fns, err := descriptor.LoadFile(m.manifest)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{fns: fns}
}

func (m *interactiveModel) generateSelected() tea.Msg {
	u, err := gen.NewGenerator(m.pkg).Generate(m.fns[m.selected])
	if err != nil {
		return generatedMsg{err: err}
	}
	return generatedMsg{source: string(u.Source)}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.view = viewport.New(msg.Width, msg.Height-4)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectFunc && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectFunc && m.selected < len(m.fns)-1 {
				m.selected++
			}

		case "enter":
			if m.state == stateSelectFunc && len(m.fns) > 0 {
				return m, m.generateSelected
			}

		case "esc":
			if m.state == stateShowSource {
				m.state = stateSelectFunc
				m.err = nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.fns = msg.fns

	case generatedMsg:
		m.err = msg.err
		m.view.SetContent(msg.source)
		m.view.GotoTop()
		m.state = stateShowSource
	}

	if m.state == stateShowSource {
		var cmd tea.Cmd
		m.view, cmd = m.view.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowSource {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if len(m.fns) == 0 {
		return "Loading manifest..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("hostbind"))
	b.WriteString(" ")
	b.WriteString(m.manifest)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectFunc:
		b.WriteString("Select a function to preview its binding:\n\n")
		for i, fn := range m.fns {
			line := m.formatFunc(fn)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter preview • q quit"))

	case stateShowSource:
		fn := m.fns[m.selected]
		b.WriteString(fmt.Sprintf("Binding for %s\n\n", funcStyle.Render(fn.Signature())))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(m.view.View())
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ scroll • esc back • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) formatFunc(fn *descriptor.Function) string {
	line := funcStyle.Render(fn.Signature())
	if tags := tagString(fn); tags != "" {
		line += tagStyle.Render(tags)
	}
	return line
}

func runInteractive(manifest, pkg string) error {
	p := tea.NewProgram(newInteractiveModel(manifest, pkg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

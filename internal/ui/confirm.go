package ui

import (
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ConfirmTTY runs a Bubble Tea yes/no prompt on in/out. y and n answer
// directly; enter picks the highlighted choice, which starts at def. Esc and
// ctrl+c decline.
func ConfirmTTY(in io.Reader, out io.Writer, title, message, yes, no string, def bool) (bool, error) {
	m := newConfirmModel(title, message, yes, no, def)
	p := tea.NewProgram(m, tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return false, err
	}
	return final.(confirmModel).answer, nil
}

type confirmKeys struct {
	Yes    key.Binding
	No     key.Binding
	Toggle key.Binding
	Submit key.Binding
	Cancel key.Binding
}

var defaultConfirmKeys = confirmKeys{
	Yes:    key.NewBinding(key.WithKeys("y", "Y")),
	No:     key.NewBinding(key.WithKeys("n", "N")),
	Toggle: key.NewBinding(key.WithKeys("left", "right", "h", "l", "tab")),
	Submit: key.NewBinding(key.WithKeys("enter")),
	Cancel: key.NewBinding(key.WithKeys("esc", "ctrl+c")),
}

var (
	styleChoice   = lipgloss.NewStyle().Padding(0, 1)
	styleSelected = lipgloss.NewStyle().Padding(0, 1).Bold(true).Reverse(true)
)

type confirmModel struct {
	keys     confirmKeys
	title    string
	message  string
	yes, no  string
	selected bool
	answer   bool
	done     bool
}

func newConfirmModel(title, message, yes, no string, def bool) confirmModel {
	if yes == "" {
		yes = "Yes"
	}
	if no == "" {
		no = "No"
	}
	return confirmModel{keys: defaultConfirmKeys, title: title, message: message, yes: yes, no: no, selected: def}
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(km, m.keys.Yes):
		m.answer, m.done = true, true
		return m, tea.Quit
	case key.Matches(km, m.keys.No), key.Matches(km, m.keys.Cancel):
		m.answer, m.done = false, true
		return m, tea.Quit
	case key.Matches(km, m.keys.Submit):
		m.answer, m.done = m.selected, true
		return m, tea.Quit
	case key.Matches(km, m.keys.Toggle):
		m.selected = !m.selected
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done {
		return ""
	}
	yes, no := styleChoice.Render(m.yes), styleChoice.Render(m.no)
	if m.selected {
		yes = styleSelected.Render(m.yes)
	} else {
		no = styleSelected.Render(m.no)
	}
	var b strings.Builder
	if m.title != "" {
		b.WriteString(styleSectionTitle.Render(m.title))
		b.WriteString("\n")
	}
	if m.message != "" {
		b.WriteString(m.message)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(yes + " " + no)
	b.WriteString("\n")
	return b.String()
}

package viz

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var presetInfo = map[string]string{
	"sandbox": "flat ground, nothing moving",
	"rain":    "water falling on sand",
	"lava":    "magma pouring over terrain",
	"bench":   "busy terrain for timing",
}

var (
	cyan = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	dim  = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

// Picker is a menu over preset names. Choice is empty when the user quit.
type Picker struct {
	options []string
	cursor  int
	choice  string
}

func NewPicker(options []string) Picker {
	return Picker{options: options}
}

func (p Picker) Choice() string { return p.choice }

func (p Picker) Init() tea.Cmd { return nil }

func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.options)-1 {
			p.cursor++
		}
	case "enter", " ":
		if len(p.options) > 0 {
			p.choice = p.options[p.cursor]
			return p, tea.Quit
		}
	}
	return p, nil
}

func (p Picker) View() string {
	var b strings.Builder
	b.WriteString(header(Themes[0], "choose a world") + "\n\n")
	for i, name := range p.options {
		line := "  " + name
		if i == p.cursor {
			line = cyan.Render("> " + name)
		}
		if info, ok := presetInfo[name]; ok {
			line += dim.Render("  " + info)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n" + hintStyle.Render("enter select  q quit"))
	return b.String()
}

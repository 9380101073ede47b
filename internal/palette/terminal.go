package palette

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	filterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("241"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// terminalBackend shows the palette inside the current terminal. It is the
// fallback when no graphical launcher is installed.
type terminalBackend struct{}

func (terminalBackend) Show(prompt string, items []Item) (Item, error) {
	final, err := tea.NewProgram(newPicker(prompt, items), tea.WithAltScreen()).Run()
	if err != nil {
		return Item{}, fmt.Errorf("terminal palette: %w", err)
	}
	return final.(picker).result()
}

// picker is a filterable single-choice list. Headers are shown while the
// filter is empty and are never selectable.
type picker struct {
	prompt string
	items  []Item
	filter string

	visible   []int // indexes into items of selectable matches
	cursor    int
	chosen    int
	cancelled bool
}

func newPicker(prompt string, items []Item) picker {
	p := picker{prompt: prompt, items: items, chosen: -1}
	p.refilter()
	for i, idx := range p.visible {
		if items[idx].IsActive {
			p.cursor = i
			break
		}
	}
	return p
}

func (p *picker) refilter() {
	p.visible = p.visible[:0]
	needle := strings.ToLower(p.filter)
	for i, it := range p.items {
		if it.IsHeader {
			continue
		}
		hay := strings.ToLower(it.Label + " " + it.Meta)
		if needle == "" || strings.Contains(hay, needle) {
			p.visible = append(p.visible, i)
		}
	}
	if p.cursor >= len(p.visible) {
		p.cursor = max(len(p.visible)-1, 0)
	}
}

func (p picker) result() (Item, error) {
	if p.cancelled || p.chosen < 0 {
		return Item{}, ErrCancelled
	}
	return p.items[p.chosen], nil
}

// Init implements tea.Model.
func (p picker) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (p picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}

	switch km.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		p.cancelled = true
		return p, tea.Quit
	case tea.KeyEnter:
		if len(p.visible) == 0 {
			return p, nil
		}
		p.chosen = p.visible[p.cursor]
		return p, tea.Quit
	case tea.KeyUp, tea.KeyCtrlP, tea.KeyShiftTab:
		if p.cursor > 0 {
			p.cursor--
		}
	case tea.KeyDown, tea.KeyCtrlN, tea.KeyTab:
		if p.cursor < len(p.visible)-1 {
			p.cursor++
		}
	case tea.KeyBackspace:
		if r := []rune(p.filter); len(r) > 0 {
			p.filter = string(r[:len(r)-1])
			p.refilter()
		}
	case tea.KeyRunes, tea.KeySpace:
		if km.Type == tea.KeySpace {
			p.filter += " "
		} else {
			p.filter += string(km.Runes)
		}
		p.cursor = 0
		p.refilter()
	}
	return p, nil
}

// View implements tea.Model.
func (p picker) View() string {
	var b strings.Builder
	b.WriteString(promptStyle.Render(p.prompt+":") + " " + filterStyle.Render(p.filter) + "\n\n")

	if len(p.visible) == 0 {
		b.WriteString(helpStyle.Render("no matches") + "\n")
	}

	selected := -1
	if len(p.visible) > 0 {
		selected = p.visible[p.cursor]
	}
	match := make(map[int]bool, len(p.visible))
	for _, idx := range p.visible {
		match[idx] = true
	}

	for i, it := range p.items {
		switch {
		case it.IsHeader:
			if p.filter == "" {
				b.WriteString(headerStyle.Render(it.Label) + "\n")
			}
		case !match[i]:
		case i == selected:
			b.WriteString(cursorStyle.Render("> "+it.Label) + "\n")
		case it.IsActive:
			b.WriteString("  " + activeStyle.Render(it.Label) + "\n")
		default:
			b.WriteString("  " + it.Label + "\n")
		}
	}

	b.WriteString("\n" + helpStyle.Render("type to filter · ↑/↓ move · enter select · esc cancel"))
	return b.String()
}

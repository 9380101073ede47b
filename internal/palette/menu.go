package palette

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MenuItem is an entry in a menu hierarchy. Items with a Submenu open it
// instead of returning an action.
type MenuItem struct {
	Label    string
	Action   string
	Icon     string
	Meta     string
	IsHeader bool
	IsActive bool
	Submenu  []MenuItem
}

// IsParent reports whether the item opens a submenu.
func (m MenuItem) IsParent() bool {
	return len(m.Submenu) > 0
}

const (
	backAction    = "__back__"
	submenuPrefix = "__submenu__:"
)

// Menu walks a MenuItem hierarchy with a Backend.
type Menu struct {
	backend Backend
	root    []MenuItem
	prompt  string
}

// NewMenu creates a menu over items.
func NewMenu(backend Backend, items []MenuItem) *Menu {
	return &Menu{backend: backend, root: items, prompt: "tilewm"}
}

// Show returns the action of the chosen leaf, or ErrCancelled. Cancelling a
// submenu returns to its parent.
func (m *Menu) Show() (string, error) {
	return m.level(m.root, m.prompt, false)
}

func (m *Menu) level(items []MenuItem, prompt string, nested bool) (string, error) {
	if len(items) == 0 {
		return "", fmt.Errorf("menu: no items to show")
	}

	rows := make([]Item, 0, len(items)+1)
	if nested {
		rows = append(rows, Item{Label: "← Back", Action: backAction, Icon: "go-previous"})
	}
	for i, it := range items {
		row := Item{Label: it.Label, Action: it.Action, Icon: it.Icon, Meta: it.Meta, IsHeader: it.IsHeader, IsActive: it.IsActive}
		if it.IsParent() {
			row.Label += " →"
			row.Action = submenuPrefix + strconv.Itoa(i)
		}
		rows = append(rows, row)
	}

	for {
		chosen, err := m.backend.Show(prompt, rows)
		if err != nil {
			return "", err
		}
		switch {
		case chosen.IsHeader || chosen.Action == "":
			// Launchers without non-selectable rows let headers through.
			continue
		case chosen.Action == backAction:
			return "", ErrCancelled
		case strings.HasPrefix(chosen.Action, submenuPrefix):
			idx, err := strconv.Atoi(strings.TrimPrefix(chosen.Action, submenuPrefix))
			if err != nil || idx < 0 || idx >= len(items) {
				continue
			}
			action, err := m.level(items[idx].Submenu, items[idx].Label, true)
			if errors.Is(err, ErrCancelled) {
				continue
			}
			return action, err
		default:
			return chosen.Action, nil
		}
	}
}

// Package palette shows tilewm commands in a dmenu-style launcher (rofi,
// fuzzel, wofi or dmenu), or inside the terminal when none is installed, and
// returns the chosen action.
package palette

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"
)

// ErrCancelled is returned when the user closes the palette without selecting an item.
var ErrCancelled = errors.New("palette cancelled")

// Item is a single selectable entry in a palette menu.
type Item struct {
	Label    string
	Action   string
	Icon     string // icon name, shown by rofi -show-icons
	Meta     string // hidden search keywords
	IsHeader bool   // non-selectable section header
	IsActive bool   // highlighted as current
}

// Backend shows a palette to the user and returns the selected item.
type Backend interface {
	Show(prompt string, items []Item) (Item, error)
}

// backendOrder is the auto-detection priority.
var backendOrder = []string{"rofi", "fuzzel", "wofi", "dmenu"}

// terminalName selects the in-terminal picker.
const terminalName = "terminal"

// DetectBackend returns the first available launcher found in PATH, falling
// back to the terminal picker when stdin is a terminal.
func DetectBackend() (string, error) {
	for _, name := range backendOrder {
		if _, err := exec.LookPath(name); err == nil {
			return name, nil
		}
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return terminalName, nil
	}
	return "", fmt.Errorf("no palette backend found in PATH (looked for: %s)", strings.Join(backendOrder, ", "))
}

// NewBackend creates a backend by name: auto, rofi, fuzzel, wofi, dmenu or
// terminal.
func NewBackend(name string) (Backend, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "auto" {
		detected, err := DetectBackend()
		if err != nil {
			return nil, err
		}
		name = detected
	}
	if name == terminalName {
		return terminalBackend{}, nil
	}

	l, ok := newLauncher(name)
	if !ok {
		return nil, fmt.Errorf("unknown palette backend: %q (expected: auto, %s, %s)", name, strings.Join(backendOrder, ", "), terminalName)
	}
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("palette backend %q not found in PATH", name)
	}
	return l, nil
}

package palette

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os/exec"
	"strconv"
	"strings"
)

// runFunc executes a launcher with input on stdin and returns its trimmed
// stdout and exit code.
type runFunc func(command string, args []string, input string) (string, int, error)

// launcher drives any dmenu-compatible program. rofi and fuzzel print the
// selected row index; wofi and dmenu print the label, so labels are made
// unique for them.
type launcher struct {
	command string
	index   bool // prints the selected row index
	rofi    bool // supports markup and row properties
	run     runFunc
}

func newLauncher(name string) (*launcher, bool) {
	l := &launcher{command: name, run: runCommand}
	switch name {
	case "rofi":
		l.index, l.rofi = true, true
	case "fuzzel":
		l.index = true
	case "wofi", "dmenu":
	default:
		return nil, false
	}
	return l, true
}

func runCommand(command string, args []string, input string) (string, int, error) {
	cmd := exec.Command(command, args...)
	cmd.Stdin = strings.NewReader(input)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	selection := strings.TrimSpace(string(out))
	if err == nil {
		return selection, 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return selection, exitErr.ExitCode(), nil
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return "", -1, fmt.Errorf("%s failed: %s", command, msg)
	}
	return "", -1, fmt.Errorf("%s failed: %w", command, err)
}

func (l *launcher) Show(prompt string, items []Item) (Item, error) {
	if len(items) == 0 {
		return Item{}, fmt.Errorf("palette: no items to show")
	}

	shown := make([]Item, len(items))
	copy(shown, items)
	if !l.index {
		uniqueLabels(shown)
	}

	selection, code, err := l.run(l.command, l.args(prompt, shown), l.input(shown))
	if err != nil {
		return Item{}, err
	}
	// 1 is "no selection" and 130 is Ctrl+C for every supported launcher.
	if selection == "" || code == 1 || code == 130 {
		return Item{}, ErrCancelled
	}
	if code != 0 {
		return Item{}, fmt.Errorf("%s exited with status %d", l.command, code)
	}
	return l.parse(selection, shown)
}

func (l *launcher) args(prompt string, items []Item) []string {
	var args []string
	switch l.command {
	case "rofi":
		args = []string{"-dmenu", "-i", "-p", prompt, "-format", "i", "-no-custom", "-markup-rows", "-show-icons"}
		var active []string
		selected := -1
		for i, it := range items {
			if it.IsHeader {
				continue
			}
			if selected < 0 {
				selected = i
			}
			if it.IsActive {
				active = append(active, strconv.Itoa(i))
			}
		}
		if len(active) > 0 {
			args = append(args, "-a", strings.Join(active, ","))
		}
		if selected >= 0 {
			args = append(args, "-selected-row", strconv.Itoa(selected))
		}
	case "fuzzel":
		args = []string{"--dmenu", "--prompt", prompt + " ", "--index"}
	case "wofi":
		args = []string{"--dmenu", "--prompt", prompt}
	default:
		args = []string{"-i", "-p", prompt}
	}
	return args
}

func (l *launcher) input(items []Item) string {
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = l.row(it)
	}
	return strings.Join(lines, "\n")
}

// row renders one entry. rofi reads properties after a single NUL as
// key\x1fvalue pairs.
func (l *launcher) row(it Item) string {
	label := cleanField(it.Label)
	if !l.rofi {
		return label
	}

	label = html.EscapeString(label)
	if it.IsHeader {
		label = "<b>" + label + "</b>"
	}
	var props []string
	if it.IsHeader {
		props = append(props, "nonselectable", "true")
	}
	if it.Icon != "" {
		props = append(props, "icon", cleanField(it.Icon))
	}
	if it.Meta != "" {
		props = append(props, "meta", cleanField(it.Meta))
	}
	if len(props) == 0 {
		return label
	}
	return label + "\x00" + strings.Join(props, "\x1f")
}

func (l *launcher) parse(selection string, items []Item) (Item, error) {
	if l.index {
		if idx, err := strconv.Atoi(selection); err == nil {
			if idx < 0 || idx >= len(items) {
				return Item{}, fmt.Errorf("palette: index %d out of range", idx)
			}
			return items[idx], nil
		}
	}
	for _, it := range items {
		if cleanField(it.Label) == selection {
			return it, nil
		}
	}
	return Item{}, fmt.Errorf("palette: unknown selection %q", selection)
}

func uniqueLabels(items []Item) {
	seen := make(map[string]int)
	for i := range items {
		key := cleanField(items[i].Label)
		if items[i].IsHeader || key == "" {
			continue
		}
		if n := seen[key]; n > 0 {
			items[i].Label = fmt.Sprintf("%s (%d)", key, n+1)
		}
		seen[key]++
	}
}

// cleanField strips the separators the launchers treat specially.
func cleanField(s string) string {
	return strings.TrimSpace(strings.NewReplacer("\x00", " ", "\x1f", " ", "\r", " ", "\n", " ").Replace(s))
}

package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/wm"
)

// clientFlags registers the --socket flag shared by every client command.
func clientFlags(fs *flag.FlagSet) *string {
	return fs.String("socket", "", "Daemon socket path (default: $XDG_RUNTIME_DIR/tilewm.sock)")
}

func parse(fs *flag.FlagSet, args []string) (ok bool, code int) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return false, 0
		}
		return false, 2
	}
	return true, 0
}

func runSimple(name, help string, args []string, call func(*ipc.Client) error) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := clientFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tilewm %s\n\n%s\n", name, help)
	}
	if ok, code := parse(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "%s takes no arguments\n", name)
		fs.Usage()
		return 2
	}

	if err := call(ipc.NewClient(*socket)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := clientFlags(fs)
	asJSON := fs.Bool("json", false, "Print JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tilewm status [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if ok, code := parse(fs, args); !ok {
		return code
	}

	status, err := ipc.NewClient(*socket).Status()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if wantJSON(*asJSON) {
		return printJSON(os.Stdout, status)
	}
	fmt.Printf("uptime_seconds:   %d\n", status.UptimeSeconds)
	fmt.Printf("outputs:          %d\n", status.Outputs)
	fmt.Printf("workspaces:       %d\n", status.Workspaces)
	fmt.Printf("windows:          %d\n", status.Windows)
	fmt.Printf("focused_output:   %s\n", status.FocusedOutput)
	fmt.Printf("focused_window:   %d\n", status.FocusedWindow)
	fmt.Printf("active_workspace: %d (%s)\n", status.ActiveNumber, status.ActiveMode)
	fmt.Printf("transactions:     %d (pending: %v)\n", status.Transactions, status.Pending)
	return 0
}

func listFlags(name, help string, args []string) (socket string, asJSON bool, ok bool, code int) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	s := clientFlags(fs)
	j := fs.Bool("json", false, "Print JSON (default when stdout is not a terminal)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tilewm %s [--json]\n\n%s\n", name, help)
	}
	if ok, code := parse(fs, args); !ok {
		return "", false, false, code
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "%s takes no arguments\n", name)
		fs.Usage()
		return "", false, false, 2
	}
	return *s, wantJSON(*j), true, 0
}

func runWindows(args []string) int {
	socket, asJSON, ok, code := listFlags("windows", "List managed windows.", args)
	if !ok {
		return code
	}
	windows, err := ipc.NewClient(socket).Windows()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if asJSON {
		return printJSON(os.Stdout, windows)
	}
	printWindows(os.Stdout, windows, titleWidth())
	return 0
}

func runWorkspaces(args []string) int {
	socket, asJSON, ok, code := listFlags("workspaces", "List workspaces on every output.", args)
	if !ok {
		return code
	}
	workspaces, err := ipc.NewClient(socket).Workspaces()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if asJSON {
		return printJSON(os.Stdout, workspaces)
	}
	printWorkspaces(os.Stdout, workspaces)
	return 0
}

func runOutputs(args []string) int {
	socket, asJSON, ok, code := listFlags("outputs", "List outputs.", args)
	if !ok {
		return code
	}
	outputs, err := ipc.NewClient(socket).Outputs()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if asJSON {
		return printJSON(os.Stdout, outputs)
	}
	printOutputs(os.Stdout, outputs)
	return 0
}

func runSetWorkspace(args []string) int {
	fs := flag.NewFlagSet("workspace", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := clientFlags(fs)
	output := fs.String("output", "", "Output name (default: focused output)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tilewm workspace [--output NAME] <n>")
	}
	if ok, code := parse(fs, args); !ok {
		return code
	}
	n, ok := numberArg(fs)
	if !ok {
		return 2
	}
	if err := ipc.NewClient(*socket).SetWorkspace(*output, n); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runMove(args []string) int {
	fs := flag.NewFlagSet("move", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := clientFlags(fs)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tilewm move <n>")
	}
	if ok, code := parse(fs, args); !ok {
		return code
	}
	n, ok := numberArg(fs)
	if !ok {
		return 2
	}
	if err := ipc.NewClient(*socket).MoveToWorkspace(n); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runMode(args []string) int {
	return runWordCommand("mode", "<grid|master|dwindle|bsp>", args, (*ipc.Client).SetTilingMode)
}

func runFocus(args []string) int {
	return runWordCommand("focus", "<left|right|up|down>", args, (*ipc.Client).FocusDirection)
}

func runWordCommand(name, usage string, args []string, call func(*ipc.Client, string) error) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := clientFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tilewm %s %s\n", name, usage)
	}
	if ok, code := parse(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	if err := call(ipc.NewClient(*socket), fs.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func numberArg(fs *flag.FlagSet) (int, bool) {
	if fs.NArg() != 1 {
		fs.Usage()
		return 0, false
	}
	n, err := strconv.Atoi(fs.Arg(0))
	if err != nil || n < 1 {
		fmt.Fprintf(os.Stderr, "invalid workspace number: %s\n", fs.Arg(0))
		return 0, false
	}
	return n, true
}

// wantJSON prints JSON when asked or when stdout is piped.
func wantJSON(flagged bool) bool {
	return flagged || !term.IsTerminal(int(os.Stdout.Fd()))
}

// titleWidth leaves room for the fixed window columns on the terminal.
func titleWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 0
	}
	return max(width-60, 16)
}

func printJSON(w io.Writer, v any) int {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}

func flags(w wm.WindowInfo) string {
	out := ""
	for _, f := range []struct {
		on bool
		c  string
	}{
		{w.Focused, "*"}, {w.Hidden, "h"}, {w.Maximized, "m"}, {w.Fullscreen, "f"}, {w.Pinned, "p"},
	} {
		if f.on {
			out += f.c
		}
	}
	if out == "" {
		return "-"
	}
	return out
}

func printWindows(w io.Writer, windows []wm.WindowInfo, width int) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tOUTPUT\tWS\tGEOMETRY\tFLAGS\tTITLE")
	for _, win := range windows {
		output := win.Output
		if output == "" {
			output = "-"
		}
		fmt.Fprintf(tw, "0x%x\t%s\t%d\t%dx%d+%d+%d\t%s\t%s\n",
			win.ID, output, win.Workspace, win.Width, win.Height, win.X, win.Y, flags(win), truncate(win.Title, width))
	}
	tw.Flush()
}

func printWorkspaces(w io.Writer, workspaces []wm.WorkspaceInfo) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "OUTPUT\tNUMBER\tACTIVE\tWINDOWS\tMODE\tAUTO_TILE")
	for _, ws := range workspaces {
		fmt.Fprintf(tw, "%s\t%d\t%v\t%d\t%s\t%v\n",
			ws.Output, ws.Number, ws.Number == ws.Active, ws.Toplevels, ws.Mode, ws.AutoTile)
	}
	tw.Flush()
}

func printOutputs(w io.Writer, outputs []wm.OutputInfo) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLAYOUT\tUSABLE\tWORKSPACE\tFOCUSED")
	for _, o := range outputs {
		fmt.Fprintf(tw, "%s\t%dx%d+%d+%d\t%dx%d+%d+%d\t%d\t%v\n",
			o.Name, o.Width, o.Height, o.X, o.Y,
			o.Usable.Width, o.Usable.Height, o.Usable.X, o.Usable.Y,
			o.ActiveWorkspace, o.Focused)
	}
	tw.Flush()
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/hotkeys"
	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/palette"
)

func runPalette(args []string) int {
	fs := flag.NewFlagSet("palette", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := clientFlags(fs)
	backendName := fs.String("backend", "auto", "Launcher: auto, rofi, fuzzel, wofi, dmenu, terminal")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tilewm palette [--backend NAME]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Pick a command from a launcher menu and send it to the daemon.")
	}
	if ok, code := parse(fs, args); !ok {
		return code
	}

	backend, err := palette.NewBackend(*backendName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	client := ipc.NewClient(*socket)
	status, err := client.Status()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	workspaces, err := client.Workspaces()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	maxWorkspaces := config.DefaultMaxWorkspaces
	if cfg, err := config.Load(); err == nil {
		maxWorkspaces = cfg.Workspaces.Max
	}

	action, err := palette.NewMenu(backend, palette.Commands(status, workspaces, maxWorkspaces)).Show()
	if errors.Is(err, palette.ErrCancelled) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	req, err := hotkeys.ParseAction(action)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := client.Send(req); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

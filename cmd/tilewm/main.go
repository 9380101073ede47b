package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/daemon"
	"github.com/1broseidon/tilewm/internal/hotkeys"
	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/runtimepath"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	args := os.Args[2:]
	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(args))
	case "status":
		os.Exit(runStatus(args))
	case "windows":
		os.Exit(runWindows(args))
	case "workspaces":
		os.Exit(runWorkspaces(args))
	case "outputs":
		os.Exit(runOutputs(args))
	case "workspace":
		os.Exit(runSetWorkspace(args))
	case "move":
		os.Exit(runMove(args))
	case "mode":
		os.Exit(runMode(args))
	case "focus":
		os.Exit(runFocus(args))
	case "retile":
		os.Exit(runSimple("retile", "Re-run the layout on every visible workspace.", args, (*ipc.Client).Retile))
	case "reload":
		os.Exit(runSimple("reload", "Reload the daemon configuration.", args, (*ipc.Client).Reload))
	case "close":
		os.Exit(runSimple("close", "Ask the focused window to close.", args, (*ipc.Client).CloseWindow))
	case "fullscreen":
		os.Exit(runSimple("fullscreen", "Toggle fullscreen on the focused window.", args, (*ipc.Client).ToggleFullscreen))
	case "maximize":
		os.Exit(runSimple("maximize", "Toggle maximize on the focused window.", args, (*ipc.Client).ToggleMaximize))
	case "pin":
		os.Exit(runSimple("pin", "Pin the focused window to its output across workspace switches.", args, (*ipc.Client).TogglePin))
	case "config":
		os.Exit(runConfig(args))
	case "palette":
		os.Exit(runPalette(args))
	case "mcp":
		os.Exit(runMCP(args))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tilewm <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the window manager (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  windows             List managed windows")
	fmt.Fprintln(w, "  workspaces          List workspaces on every output")
	fmt.Fprintln(w, "  outputs             List outputs")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  workspace <n>       Switch to workspace n")
	fmt.Fprintln(w, "  move <n>            Move the focused window to workspace n")
	fmt.Fprintln(w, "  mode <mode>         Set the tiling mode (grid, master, dwindle, bsp)")
	fmt.Fprintln(w, "  focus <direction>   Focus the nearest window (left, right, up, down)")
	fmt.Fprintln(w, "  retile              Re-run the layout")
	fmt.Fprintln(w, "  reload              Reload configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  close               Close the focused window")
	fmt.Fprintln(w, "  fullscreen          Toggle fullscreen")
	fmt.Fprintln(w, "  maximize            Toggle maximize")
	fmt.Fprintln(w, "  pin                 Toggle pin")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  palette             Pick a command from a launcher menu")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'tilewm <command> --help' for command-specific options.")
}

// loadConfig reads path, or the default config path when empty, and returns
// the result together with the path that was used.
func loadConfig(path string) (*config.LoadResult, string, error) {
	if path == "" {
		var err error
		path, err = config.DefaultConfigPath()
		if err != nil {
			return nil, "", err
		}
	}
	res, err := config.LoadFromPath(path)
	return res, path, err
}

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path (default: ~/.config/tilewm/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tilewm daemon [--config PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Manage the X11 display in the foreground. SIGHUP reloads the config.")
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return 2
	}

	res, path, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	cfg := res.Config

	out, closeLog, err := daemon.OpenLogOutput(cfg.Logging.File)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeLog()
	logger, err := daemon.NewLogger(out, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	socket, err := runtimepath.SocketPath(cfg.IPC.Socket)
	if err != nil {
		logger.Error("failed to resolve socket path", "error", err)
		return 1
	}

	backend, err := platform.NewLinuxBackendFromDisplay(cfg.Display, logger.With("component", "x11"))
	if err != nil {
		logger.Error("failed to connect to display", "error", err)
		return 1
	}
	defer backend.Disconnect()

	d, err := daemon.New(daemon.Options{
		Config:     cfg,
		ConfigPath: path,
		SocketPath: socket,
		Actor:      backend,
		Shell:      backend,
		Displays:   backend,
		Events:     backend,
		Keys:       hotkeys.NewHandler(backend.Connection(), logger.With("component", "keys")),
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to create daemon", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				logger.Info("received SIGHUP, reloading config")
				if err := d.Dispatch(ctx, ipc.Request{Command: ipc.CommandReload}); err != nil {
					logger.Warn("config reload failed", "error", err)
				}
			}
		}
	}()

	if err := d.Run(ctx); err != nil {
		logger.Error("daemon exited", "error", err)
		return 1
	}
	return 0
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  tilewm config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  tilewm config print [--path PATH] [--defaults]")
		fmt.Fprintln(os.Stderr, "  tilewm config explain [--path PATH] <yaml.path>")
		return 2
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/tilewm/config.yaml)")
	printDefaults := false
	if args[0] == "print" {
		fs.BoolVar(&printDefaults, "defaults", false, "Print built-in defaults (no files)")
	}
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	switch args[0] {
	case "validate":
		res, _, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("config: ok (%d file(s))\n", len(res.Files))
		return 0

	case "print":
		cfg := config.DefaultConfig()
		if !printDefaults {
			res, _, err := loadConfig(*path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			cfg = res.Config
		}
		data, err := cfg.Marshal()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	case "explain":
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "explain requires <yaml.path>")
			fmt.Fprintf(os.Stderr, "known paths: %v\n", config.ExplainPaths())
			return 2
		}
		res, _, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		value, src, err := config.Explain(res, fs.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("path: %s\n", fs.Arg(0))
		fmt.Printf("source: %s\n", src)
		fmt.Printf("value: %v\n", value)
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/tilewm/internal/tiling"
)

const (
	DefaultTilingMode        = "grid"
	DefaultInitialWorkspaces = 1
	DefaultMaxWorkspaces     = 10
	DefaultReconcileInterval = 2 * time.Second
	DefaultLogLevel          = "info"

	// MaxWorkspacesLimit bounds workspaces.max.
	MaxWorkspacesLimit = 99
)

// TilingConfig selects the layout algorithm for new workspaces.
type TilingConfig struct {
	// Mode is one of grid, master, dwindle, bsp.
	Mode string `yaml:"mode"`
	// AutoTile retiles a workspace whenever its membership or area changes.
	AutoTile bool `yaml:"auto_tile"`
}

// WorkspacesConfig controls workspace numbering per output.
type WorkspacesConfig struct {
	Initial int `yaml:"initial"`
	Max     int `yaml:"max"`
}

// TransactionsConfig tunes the atomic geometry protocol.
type TransactionsConfig struct {
	// StrictSerials only accepts an acknowledgment carrying the serial of the
	// resize request it answers.
	StrictSerials bool `yaml:"strict_serials"`
}

// LoggingConfig configures the daemon log.
type LoggingConfig struct {
	// Level controls verbosity: debug, info, warn, error.
	Level string `yaml:"level"`
	// File is an optional log file path. Empty logs to stderr.
	File string `yaml:"file,omitempty"`
}

// IPCConfig configures the control socket.
type IPCConfig struct {
	// Socket overrides the default $XDG_RUNTIME_DIR/tilewm.sock.
	Socket string `yaml:"socket,omitempty"`
}

// OutputsConfig controls output discovery.
type OutputsConfig struct {
	// ReconcileInterval is how often connected displays are re-read.
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
}

// Config is the effective daemon configuration.
type Config struct {
	Display      string             `yaml:"display,omitempty"`
	Tiling       TilingConfig       `yaml:"tiling"`
	Workspaces   WorkspacesConfig   `yaml:"workspaces"`
	Transactions TransactionsConfig `yaml:"transactions"`
	Logging      LoggingConfig      `yaml:"logging"`
	IPC          IPCConfig          `yaml:"ipc"`
	Outputs      OutputsConfig      `yaml:"outputs"`
	// Keybindings maps an X key sequence such as "Mod4-1" to an action such
	// as "workspace 1".
	Keybindings  map[string]string  `yaml:"keybindings,omitempty"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Tiling: TilingConfig{
			Mode:     DefaultTilingMode,
			AutoTile: true,
		},
		Workspaces: WorkspacesConfig{
			Initial: DefaultInitialWorkspaces,
			Max:     DefaultMaxWorkspaces,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
		Outputs: OutputsConfig{
			ReconcileInterval: DefaultReconcileInterval,
		},
	}
}

// ValidationError reports an invalid value at a YAML path, with the file
// location that set it when known.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if _, err := tiling.ParseMode(c.Tiling.Mode); err != nil {
		return &ValidationError{Path: "tiling.mode", Err: fmt.Errorf("mode must be one of: grid, master, dwindle, bsp")}
	}
	if c.Workspaces.Max < 1 || c.Workspaces.Max > MaxWorkspacesLimit {
		return &ValidationError{Path: "workspaces.max", Err: fmt.Errorf("max must be between 1 and %d", MaxWorkspacesLimit)}
	}
	if c.Workspaces.Initial < 1 {
		return &ValidationError{Path: "workspaces.initial", Err: fmt.Errorf("initial must be >= 1")}
	}
	if c.Workspaces.Initial > c.Workspaces.Max {
		return &ValidationError{Path: "workspaces.initial", Err: fmt.Errorf("initial must not exceed workspaces.max (%d)", c.Workspaces.Max)}
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return &ValidationError{Path: "logging.level", Err: err}
	}
	if c.Outputs.ReconcileInterval < 100*time.Millisecond {
		return &ValidationError{Path: "outputs.reconcile_interval", Err: fmt.Errorf("reconcile_interval must be at least 100ms")}
	}
	for key, action := range c.Keybindings {
		if strings.TrimSpace(key) == "" {
			return &ValidationError{Path: "keybindings", Err: fmt.Errorf("key sequence must not be empty")}
		}
		if strings.TrimSpace(action) == "" {
			return &ValidationError{Path: "keybindings." + key, Err: fmt.Errorf("action must not be empty")}
		}
	}
	return nil
}

// TilingMode returns the parsed tiling mode. Validate guarantees it parses.
func (c *Config) TilingMode() tiling.Mode {
	mode, _ := tiling.ParseMode(c.Tiling.Mode)
	return mode
}

// ParseLevel converts a logging.level value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("level must be one of: debug, info, warn, error")
	}
}

// Marshal renders the effective configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return out, nil
}

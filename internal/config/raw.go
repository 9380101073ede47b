package config

import (
	"fmt"
	"maps"
	"time"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawTiling struct {
	Mode     *string `yaml:"mode"`
	AutoTile *bool   `yaml:"auto_tile"`
}

type RawWorkspaces struct {
	Initial *int `yaml:"initial"`
	Max     *int `yaml:"max"`
}

type RawTransactions struct {
	StrictSerials *bool `yaml:"strict_serials"`
}

type RawLogging struct {
	Level *string `yaml:"level"`
	File  *string `yaml:"file"`
}

type RawIPC struct {
	Socket *string `yaml:"socket"`
}

type RawOutputs struct {
	ReconcileInterval *time.Duration `yaml:"reconcile_interval"`
}

// RawConfig is one file as written. Nil fields were not set and fall back to
// earlier files or the defaults.
type RawConfig struct {
	Include      IncludeList       `yaml:"include"`
	Display      *string           `yaml:"display"`
	Tiling       *RawTiling        `yaml:"tiling"`
	Workspaces   *RawWorkspaces    `yaml:"workspaces"`
	Transactions *RawTransactions  `yaml:"transactions"`
	Logging      *RawLogging       `yaml:"logging"`
	IPC          *RawIPC           `yaml:"ipc"`
	Outputs      *RawOutputs       `yaml:"outputs"`
	Keybindings  map[string]string `yaml:"keybindings"`
}

// merge returns c with every field set in overlay replaced.
func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c
	out.Include = nil

	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.Tiling != nil {
		out.Tiling = mergePtr(out.Tiling, overlay.Tiling, func(b, o *RawTiling) {
			setIf(&b.Mode, o.Mode)
			setIf(&b.AutoTile, o.AutoTile)
		})
	}
	if overlay.Workspaces != nil {
		out.Workspaces = mergePtr(out.Workspaces, overlay.Workspaces, func(b, o *RawWorkspaces) {
			setIf(&b.Initial, o.Initial)
			setIf(&b.Max, o.Max)
		})
	}
	if overlay.Transactions != nil {
		out.Transactions = mergePtr(out.Transactions, overlay.Transactions, func(b, o *RawTransactions) {
			setIf(&b.StrictSerials, o.StrictSerials)
		})
	}
	if overlay.Logging != nil {
		out.Logging = mergePtr(out.Logging, overlay.Logging, func(b, o *RawLogging) {
			setIf(&b.Level, o.Level)
			setIf(&b.File, o.File)
		})
	}
	if overlay.IPC != nil {
		out.IPC = mergePtr(out.IPC, overlay.IPC, func(b, o *RawIPC) {
			setIf(&b.Socket, o.Socket)
		})
	}
	if overlay.Outputs != nil {
		out.Outputs = mergePtr(out.Outputs, overlay.Outputs, func(b, o *RawOutputs) {
			setIf(&b.ReconcileInterval, o.ReconcileInterval)
		})
	}
	if len(overlay.Keybindings) > 0 {
		merged := make(map[string]string, len(out.Keybindings)+len(overlay.Keybindings))
		maps.Copy(merged, out.Keybindings)
		maps.Copy(merged, overlay.Keybindings)
		out.Keybindings = merged
	}
	return out
}

// mergePtr copies base (or starts empty) and applies overlay with fn.
func mergePtr[T any](base, overlay *T, fn func(b, o *T)) *T {
	var out T
	if base != nil {
		out = *base
	}
	fn(&out, overlay)
	return &out
}

func setIf[T any](dst **T, v *T) {
	if v != nil {
		*dst = v
	}
}

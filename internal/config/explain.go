package config

import (
	"fmt"
	"sort"
)

// Explain returns the effective value at the given YAML path and the file
// location that set it, or a default source.
//
// Supported paths:
//
//	display
//	tiling.mode
//	tiling.auto_tile
//	workspaces.initial
//	workspaces.max
//	transactions.strict_serials
//	logging.level
//	logging.file
//	ipc.socket
//	outputs.reconcile_interval
//	keybindings
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	lookup, ok := explainPaths[path]
	if !ok {
		return nil, Source{}, fmt.Errorf("unknown path: %s", path)
	}
	value := lookup(res.Config)

	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault}, nil
}

// ExplainPaths lists the paths Explain accepts.
func ExplainPaths() []string {
	out := make([]string, 0, len(explainPaths))
	for p := range explainPaths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

var explainPaths = map[string]func(*Config) any{
	"display":                     func(c *Config) any { return c.Display },
	"tiling.mode":                 func(c *Config) any { return c.Tiling.Mode },
	"tiling.auto_tile":            func(c *Config) any { return c.Tiling.AutoTile },
	"workspaces.initial":          func(c *Config) any { return c.Workspaces.Initial },
	"workspaces.max":              func(c *Config) any { return c.Workspaces.Max },
	"transactions.strict_serials": func(c *Config) any { return c.Transactions.StrictSerials },
	"logging.level":               func(c *Config) any { return c.Logging.Level },
	"logging.file":                func(c *Config) any { return c.Logging.File },
	"ipc.socket":                  func(c *Config) any { return c.IPC.Socket },
	"outputs.reconcile_interval":  func(c *Config) any { return c.Outputs.ReconcileInterval },
	"keybindings":                 func(c *Config) any { return c.Keybindings },
}

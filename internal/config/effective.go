package config

import "maps"

// BuildEffectiveConfig applies the set fields of raw on top of the defaults.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if t := raw.Tiling; t != nil {
		cfg.Tiling.Mode = deref(t.Mode, cfg.Tiling.Mode)
		cfg.Tiling.AutoTile = deref(t.AutoTile, cfg.Tiling.AutoTile)
	}
	if w := raw.Workspaces; w != nil {
		cfg.Workspaces.Initial = deref(w.Initial, cfg.Workspaces.Initial)
		cfg.Workspaces.Max = deref(w.Max, cfg.Workspaces.Max)
	}
	if t := raw.Transactions; t != nil {
		cfg.Transactions.StrictSerials = deref(t.StrictSerials, cfg.Transactions.StrictSerials)
	}
	if l := raw.Logging; l != nil {
		cfg.Logging.Level = deref(l.Level, cfg.Logging.Level)
		cfg.Logging.File = deref(l.File, cfg.Logging.File)
	}
	if i := raw.IPC; i != nil {
		cfg.IPC.Socket = deref(i.Socket, cfg.IPC.Socket)
	}
	if o := raw.Outputs; o != nil {
		cfg.Outputs.ReconcileInterval = deref(o.ReconcileInterval, cfg.Outputs.ReconcileInterval)
	}
	if len(raw.Keybindings) > 0 {
		cfg.Keybindings = maps.Clone(raw.Keybindings)
	}
	return cfg
}

func deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

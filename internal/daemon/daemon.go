// Package daemon wires the layout core to its collaborators: one event loop
// owns the window manager state, display and X events are posted to it, and
// the control socket reads a snapshot published after every change.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/events"
	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/loop"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/txn"
	"github.com/1broseidon/tilewm/internal/wm"
)

// EventSource pumps window events into h until ctx is cancelled.
type EventSource interface {
	Start(ctx context.Context, h platform.EventHandler) error
}

// KeyBinder grabs global key sequences. Bind replaces every earlier binding.
type KeyBinder interface {
	Bind(bindings map[string]string, dispatch func(ipc.Request)) error
}

// Options configures a Daemon. Actor and Displays are required.
type Options struct {
	Config *config.Config
	// ConfigPath is watched for changes and re-read on RELOAD. Empty
	// disables both.
	ConfigPath string
	// SocketPath is where the control socket listens. Empty disables it.
	SocketPath string

	Actor    platform.WindowActor
	Shell    platform.Shell
	Displays platform.DisplayLister
	Events   EventSource
	Keys     KeyBinder
	Logger   *slog.Logger
}

// Daemon runs the window manager.
type Daemon struct {
	opts   Options
	logger *slog.Logger

	loop       *loop.Loop
	bus        *events.Bus
	txns       *txn.Manager
	srv        *wm.Server
	outputs    *OutputSynchronizer
	reconciler *Reconciler

	// cfg is owned by the loop goroutine.
	cfg      *config.Config
	snapshot atomic.Pointer[wm.Snapshot]
}

var _ ipc.Controller = (*Daemon)(nil)

// New builds a daemon from opts. Nothing runs until Run.
func New(opts Options) (*Daemon, error) {
	if opts.Actor == nil {
		return nil, errors.New("daemon: window actor is required")
	}
	if opts.Displays == nil {
		return nil, errors.New("daemon: display lister is required")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("daemon: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	d := &Daemon{
		opts:   opts,
		logger: logger,
		cfg:    cfg,
		loop:   loop.New(logger.With("component", "loop"), 256),
		bus:    events.NewBus(),
	}

	d.txns = txn.NewManager(opts.Actor, d.loop,
		txn.WithLogger(logger.With("component", "txn")),
		txn.WithSink(d.bus),
		txn.WithStrictSerials(cfg.Transactions.StrictSerials),
	)
	d.srv = wm.NewServer(opts.Actor, opts.Shell, d.txns,
		wm.WithLogger(logger.With("component", "wm")),
		wm.WithSink(d.bus),
		wm.WithDefaults(defaultsFromConfig(cfg)),
	)
	d.bus.Subscribe(func(events.Change) { d.publish() })

	d.outputs = NewOutputSynchronizer(d.srv, logger.With("component", "outputs"))
	d.reconciler = NewReconciler(ReconcilerConfig{
		Interval: cfg.Outputs.ReconcileInterval,
		Logger:   logger.With("component", "reconciler"),
	}, opts.Displays, d.applyDisplays)

	d.snapshot.Store(d.srv.Snapshot())
	return d, nil
}

func defaultsFromConfig(cfg *config.Config) wm.Defaults {
	return wm.Defaults{
		Mode:              cfg.TilingMode(),
		AutoTile:          cfg.Tiling.AutoTile,
		InitialWorkspaces: cfg.Workspaces.Initial,
		MaxWorkspaces:     cfg.Workspaces.Max,
	}
}

// Run starts the event loop, the output reconciler, the control socket, the
// config watcher and the event source, and blocks until ctx is cancelled or
// a component fails to start.
func (d *Daemon) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		d.loop.Run(ctx)
	}()

	if d.opts.SocketPath != "" {
		server := ipc.NewServer(d.opts.SocketPath, d, d.logger.With("component", "ipc"))
		if err := server.Start(); err != nil {
			return err
		}
		defer server.Stop()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		d.reconciler.Run(ctx)
	}()

	if d.opts.ConfigPath != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := config.Watch(ctx, d.opts.ConfigPath, d.logger.With("component", "config"), func(res *config.LoadResult) {
				d.loop.Post(func() { d.applyConfig(res.Config) })
			})
			if err != nil {
				d.logger.Warn("config watcher disabled", "error", err)
			}
		}()
	}

	if d.opts.Keys != nil {
		d.loop.Post(func() { d.bindKeys(d.cfg.Keybindings) })
	}

	errc := make(chan error, 1)
	if d.opts.Events != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.opts.Events.Start(ctx, d.Handler()); err != nil {
				errc <- fmt.Errorf("event source: %w", err)
			}
		}()
	}

	d.logger.Info("daemon started", "socket", d.opts.SocketPath, "config", d.opts.ConfigPath)

	select {
	case <-ctx.Done():
		d.logger.Info("daemon stopping")
		return nil
	case err := <-errc:
		return err
	}
}

// Snapshot returns the last published state. Safe from any goroutine.
func (d *Daemon) Snapshot() *wm.Snapshot {
	return d.snapshot.Load()
}

// publish must run on the loop goroutine.
func (d *Daemon) publish() {
	d.snapshot.Store(d.srv.Snapshot())
}

// post runs fn on the loop and publishes afterwards.
func (d *Daemon) post(fn func()) {
	d.loop.Post(func() {
		fn()
		d.publish()
	})
}

func (d *Daemon) applyDisplays(ctx context.Context, displays []platform.Display) error {
	return d.loop.Do(ctx, func() error {
		d.outputs.Sync(displays)
		d.publish()
		return nil
	})
}

// applyConfig must run on the loop goroutine.
func (d *Daemon) applyConfig(cfg *config.Config) {
	prev := d.cfg
	d.cfg = cfg

	d.txns.SetStrictSerials(cfg.Transactions.StrictSerials)
	d.srv.SetDefaults(defaultsFromConfig(cfg))
	if prev.Outputs.ReconcileInterval != cfg.Outputs.ReconcileInterval {
		d.logger.Info("outputs.reconcile_interval takes effect after restart")
	}
	if d.opts.Keys != nil && !maps.Equal(prev.Keybindings, cfg.Keybindings) {
		d.bindKeys(cfg.Keybindings)
	}
	if prev.IPC.Socket != cfg.IPC.Socket {
		d.logger.Info("ipc.socket takes effect after restart")
	}
	d.publish()
	d.logger.Info("configuration applied", "mode", cfg.Tiling.Mode, "auto_tile", cfg.Tiling.AutoTile)
}

func (d *Daemon) bindKeys(bindings map[string]string) {
	if err := d.opts.Keys.Bind(bindings, d.submit); err != nil {
		d.logger.Warn("some keybindings were not registered", "error", err)
	}
}

// submit queues req without waiting for it, for callers such as key presses
// that run on the X event goroutine.
func (d *Daemon) submit(req ipc.Request) {
	if req.Command == ipc.CommandReload {
		go func() {
			if err := d.reload(context.Background()); err != nil {
				d.logger.Warn("config reload failed", "error", err)
			}
		}()
		return
	}
	d.post(func() {
		if err := d.apply(req); err != nil {
			d.logger.Debug("command not applied", "command", req.Command, "error", err)
		}
	})
}

// Handler returns the platform event handler feeding this daemon.
func (d *Daemon) Handler() platform.EventHandler {
	return windowEvents{d: d}
}

type windowEvents struct {
	d *Daemon
}

func (h windowEvents) WindowMapped(id platform.WindowID, title string) {
	h.d.post(func() { h.d.srv.MapWindow(id, title) })
}

func (h windowEvents) WindowUnmapped(id platform.WindowID) {
	h.d.post(func() { h.d.srv.UnmapWindow(id) })
}

func (h windowEvents) WindowConfigured(id platform.WindowID, serial uint32) {
	h.d.post(func() { h.d.srv.HandleCommit(id, serial) })
}

func (h windowEvents) WindowTitleChanged(id platform.WindowID, title string) {
	h.d.post(func() { h.d.srv.SetTitle(id, title) })
}

package daemon

import (
	"fmt"
	"log/slog"

	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/wm"
)

// SyncResult lists the output names touched by one OutputSynchronizer pass.
type SyncResult struct {
	Added   []string
	Removed []string
	Updated []string
}

// Changed reports whether the pass touched anything.
func (r SyncResult) Changed() bool {
	return len(r.Added)+len(r.Removed)+len(r.Updated) > 0
}

// OutputSynchronizer brings the window manager's outputs in line with the
// connected displays. It must run on the event-loop goroutine.
type OutputSynchronizer struct {
	srv    *wm.Server
	logger *slog.Logger
}

// NewOutputSynchronizer creates a synchronizer for srv.
func NewOutputSynchronizer(srv *wm.Server, logger *slog.Logger) *OutputSynchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &OutputSynchronizer{srv: srv, logger: logger}
}

// DisplayName is the output name for d. Unnamed displays are named after
// their index.
func DisplayName(d platform.Display) string {
	if d.Name != "" {
		return d.Name
	}
	return fmt.Sprintf("display-%d", d.ID)
}

// Sync adds new displays, updates moved or resized ones and removes outputs
// whose display is gone. An empty display list is treated as a transient
// read failure and leaves every output in place.
func (s *OutputSynchronizer) Sync(displays []platform.Display) SyncResult {
	var res SyncResult
	if len(displays) == 0 {
		s.logger.Debug("no displays reported; keeping outputs")
		return res
	}

	mgr := s.srv.Outputs()
	seen := make(map[string]bool, len(displays))
	for _, d := range displays {
		name := DisplayName(d)
		if seen[name] {
			continue
		}
		seen[name] = true

		usable := d.Usable
		if usable.Empty() {
			usable = d.Bounds
		}

		existing := mgr.Output(name)
		switch {
		case existing == nil:
			mgr.AddOutput(name, d.Bounds, usable)
			res.Added = append(res.Added, name)
		case existing.Layout() != d.Bounds || existing.Usable() != usable:
			mgr.AddOutput(name, d.Bounds, usable)
			res.Updated = append(res.Updated, name)
		}
	}

	for _, o := range mgr.Outputs() {
		if seen[o.Name()] {
			continue
		}
		if mgr.RemoveOutput(o.Name()) {
			res.Removed = append(res.Removed, o.Name())
		}
	}

	if res.Changed() {
		s.logger.Info("outputs synchronized",
			"added", res.Added,
			"removed", res.Removed,
			"updated", res.Updated)
	}
	return res
}

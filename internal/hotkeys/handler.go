// Package hotkeys grabs global key sequences on the X root window and turns
// them into control requests for the daemon.
package hotkeys

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/x11"
)

// Handler manages global keyboard shortcuts.
type Handler struct {
	xu     *xgbutil.XUtil
	root   xproto.Window
	logger *slog.Logger

	mu    sync.Mutex
	bound int
}

var initOnce sync.Once

// NewHandler prepares key grabbing on conn's root window.
func NewHandler(conn *x11.Connection, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	initOnce.Do(func() {
		keybind.Initialize(conn.XUtil)
		configureIgnoreMods(conn.XUtil)
	})
	return &Handler{
		xu:     conn.XUtil,
		root:   conn.Root,
		logger: logger,
	}
}

// Bind replaces every grab with bindings, which map key sequences to
// actions. Each press hands the parsed request to dispatch on the X event
// goroutine, so dispatch must not block. Bindings that fail to parse or grab
// are skipped and reported together.
func (h *Handler) Bind(bindings map[string]string, dispatch func(ipc.Request)) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	keybind.Detach(h.xu, h.root)
	h.bound = 0

	keys := make([]string, 0, len(bindings))
	for k := range bindings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, seq := range keys {
		req, err := ParseAction(bindings[seq])
		if err != nil {
			errs = append(errs, fmt.Errorf("keybinding %s: %w", seq, err))
			continue
		}
		err = keybind.KeyPressFun(func(*xgbutil.XUtil, xevent.KeyPressEvent) {
			h.logger.Debug("keybinding pressed", "keys", seq, "command", req.Command)
			dispatch(req)
		}).Connect(h.xu, h.root, seq, true)
		if err != nil {
			errs = append(errs, fmt.Errorf("keybinding %s: %w", seq, err))
			continue
		}
		h.bound++
	}

	h.logger.Info("keybindings registered", "count", h.bound, "failed", len(errs))
	return errors.Join(errs...)
}

// Bound returns how many sequences are currently grabbed.
func (h *Handler) Bound() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bound
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	unique := make(map[uint16]struct{})
	add := func(mask uint16) {
		unique[mask] = struct{}{}
	}

	add(0)
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		add(mask)
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}

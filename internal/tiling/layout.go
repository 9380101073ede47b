package tiling

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/1broseidon/tilewm/internal/platform"
)

// Mode selects the layout algorithm used by a workspace.
type Mode int

const (
	ModeGrid Mode = iota
	ModeMaster
	ModeDwindle
	ModeBSP
)

func (m Mode) String() string {
	switch m {
	case ModeGrid:
		return "grid"
	case ModeMaster:
		return "master"
	case ModeDwindle:
		return "dwindle"
	case ModeBSP:
		return "bsp"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode converts a config name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "grid", "":
		return ModeGrid, nil
	case "master", "master_stack", "master-stack":
		return ModeMaster, nil
	case "dwindle":
		return ModeDwindle, nil
	case "bsp":
		return ModeBSP, nil
	default:
		return ModeGrid, fmt.Errorf("unsupported tiling mode: %q", s)
	}
}

// Tile is one window to place. Current is only used to derive a stable
// visual order, never as layout input.
type Tile struct {
	ID      platform.WindowID
	Current platform.Rect
}

// Placement is the target rectangle computed for a window.
type Placement struct {
	ID   platform.WindowID
	Rect platform.Rect
}

// Layout dispatches to the engine for mode. BSP layouts are stateful and live
// on the workspace, so ModeBSP is rejected here.
func Layout(mode Mode, area platform.Rect, tiles []Tile) ([]Placement, error) {
	switch mode {
	case ModeGrid:
		return Grid(area, tiles), nil
	case ModeMaster:
		return Master(area, tiles), nil
	case ModeDwindle:
		return Dwindle(area, tiles), nil
	default:
		return nil, fmt.Errorf("no stateless engine for mode %s", mode)
	}
}

// GridDimensions returns rows = round(sqrt(n)) and cols = ceil(n/rows).
func GridDimensions(n int) (rows, cols int) {
	if n <= 0 {
		return 0, 0
	}
	rows = int(math.Round(math.Sqrt(float64(n))))
	if rows < 1 {
		rows = 1
	}
	cols = (n + rows - 1) / rows
	return rows, cols
}

// Grid places windows in a rows x cols grid. Windows are ordered by the cell
// their current position falls in so re-tiles keep them visually in place.
// The last cell stretches across the unused cells of the final row and takes
// the horizontal rounding remainder.
func Grid(area platform.Rect, tiles []Tile) []Placement {
	n := len(tiles)
	if n == 0 {
		return nil
	}
	if n == 1 {
		return []Placement{{ID: tiles[0].ID, Rect: area}}
	}

	rows, cols := GridDimensions(n)
	cellWidth := area.Width / cols
	cellHeight := area.Height / rows

	ordered := make([]Tile, n)
	copy(ordered, tiles)
	if cellWidth > 0 && cellHeight > 0 {
		sort.SliceStable(ordered, func(i, j int) bool {
			ri, ci := gridCell(ordered[i].Current, area, cellWidth, cellHeight)
			rj, cj := gridCell(ordered[j].Current, area, cellWidth, cellHeight)
			if ri != rj {
				return ri < rj
			}
			return ci < cj
		})
	}

	positions := make([]Placement, n)
	for i, t := range ordered {
		row := i / cols
		col := i % cols

		rect := platform.Rect{
			X:      area.X + col*cellWidth,
			Y:      area.Y + row*cellHeight,
			Width:  cellWidth,
			Height: cellHeight,
		}
		// The last window spans the cols*rows-n empty cells after it, which
		// always ends at the right edge.
		if i == n-1 {
			rect.Width = area.Width - col*cellWidth
		}
		positions[i] = Placement{ID: t.ID, Rect: rect}
	}
	return positions
}

func gridCell(r, area platform.Rect, cellWidth, cellHeight int) (row, col int) {
	return (r.Y - area.Y) / cellHeight, (r.X - area.X) / cellWidth
}

// Master gives the window closest to the origin the left half and stacks the
// rest in the right half ordered top to bottom.
func Master(area platform.Rect, tiles []Tile) []Placement {
	n := len(tiles)
	if n == 0 {
		return nil
	}
	if n == 1 {
		return []Placement{{ID: tiles[0].ID, Rect: area}}
	}

	master := 0
	for i, t := range tiles {
		if t.Current.X+t.Current.Y < tiles[master].Current.X+tiles[master].Current.Y {
			master = i
		}
	}

	stack := make([]Tile, 0, n-1)
	for i, t := range tiles {
		if i != master {
			stack = append(stack, t)
		}
	}
	sort.SliceStable(stack, func(i, j int) bool {
		return stack[i].Current.Y < stack[j].Current.Y
	})

	masterWidth := area.Width / 2
	stackHeight := area.Height / len(stack)

	positions := make([]Placement, 0, n)
	positions = append(positions, Placement{
		ID: tiles[master].ID,
		Rect: platform.Rect{
			X:      area.X,
			Y:      area.Y,
			Width:  masterWidth,
			Height: area.Height,
		},
	})

	for i, t := range stack {
		rect := platform.Rect{
			X:      area.X + masterWidth,
			Y:      area.Y + i*stackHeight,
			Width:  area.Width - masterWidth,
			Height: stackHeight,
		}
		// Last stack window absorbs the rounding remainder.
		if i == len(stack)-1 {
			rect.Height = area.Height - i*stackHeight
		}
		positions = append(positions, Placement{ID: t.ID, Rect: rect})
	}
	return positions
}

// Dwindle halves the remaining area for each window, alternating between
// width and height. The final window takes whatever is left.
func Dwindle(area platform.Rect, tiles []Tile) []Placement {
	n := len(tiles)
	if n == 0 {
		return nil
	}

	ordered := make([]Tile, n)
	copy(ordered, tiles)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Current.X+ordered[i].Current.Y < ordered[j].Current.X+ordered[j].Current.Y
	})

	positions := make([]Placement, 0, n)
	remaining := area
	for i, t := range ordered {
		if i == n-1 {
			positions = append(positions, Placement{ID: t.ID, Rect: remaining})
			break
		}

		slot := remaining
		if i%2 == 0 {
			slot.Width = remaining.Width / 2
			remaining.X += slot.Width
			remaining.Width -= slot.Width
		} else {
			slot.Height = remaining.Height / 2
			remaining.Y += slot.Height
			remaining.Height -= slot.Height
		}
		positions = append(positions, Placement{ID: t.ID, Rect: slot})
	}
	return positions
}

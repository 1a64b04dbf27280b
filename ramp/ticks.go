package ramp

import (
	"fmt"
	"math"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// Placement tells on which side(s) of the bar tick labels go.
type Placement uint8

const (
	Single    Placement = iota // all labels on one side
	Alternate                  // every other label on the opposite side
	BothSides                  // all labels on both sides
)

func (p Placement) String() string {
	switch p {
	case Single:
		return "single"
	case Alternate:
		return "alternate"
	case BothSides:
		return "both"
	default:
		return fmt.Sprintf("<unknown Placement %d>", uint8(p))
	}
}

// ParsePlacement is the inverse of Placement.String.
func ParsePlacement(s string) (Placement, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "single":
		return Single, nil
	case "alternate":
		return Alternate, nil
	case "both", "bothsides", "both_sides":
		return BothSides, nil
	}
	return 0, fmt.Errorf("unknown tick placement %q", s)
}

// EndMode decides what happens to the last boundary when
// the stride skips it.
type EndMode uint8

const (
	// EndAuto adds the last boundary when the last interval is
	// wider than the previous one.
	EndAuto EndMode = iota
	// EndReplace moves the last selected tick to the last boundary.
	EndReplace
	// EndAppend always adds the last boundary.
	EndAppend
)

func (e EndMode) String() string {
	switch e {
	case EndAuto:
		return "auto"
	case EndReplace:
		return "replace"
	case EndAppend:
		return "append"
	default:
		return fmt.Sprintf("<unknown EndMode %d>", uint8(e))
	}
}

// ParseEndMode is the inverse of EndMode.String.
func ParseEndMode(s string) (EndMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return EndAuto, nil
	case "replace":
		return EndReplace, nil
	case "append", "add":
		return EndAppend, nil
	}
	return 0, fmt.Errorf("unknown tick end mode %q", s)
}

// Auto strides, picking a fixed number of ticks.
const (
	AutoStride = -1 // stride 1, or 4 past 5 boundaries
	AutoThree  = -3
	AutoFive   = -5 // five ticks, three on short ramps
)

// TickConfig selects which boundaries get a labelled tick.
type TickConfig struct {
	Step      int     // stride, or one of the Auto constants
	Offset    float64 // shifts the stride, linear ramps only
	Placement Placement
	End       EndMode
}

// DefaultTickConfig labels every boundary.
func DefaultTickConfig() TickConfig { return TickConfig{Step: 1} }

// Validate checks the stride and offset.
func (c TickConfig) Validate() error {
	switch {
	case c.Step == 0 || (c.Step < 0 && c.Step != AutoStride && c.Step != AutoThree && c.Step != AutoFive):
		return fmt.Errorf("invalid tick step %d", c.Step)
	case c.Offset < -100 || c.Offset > 100:
		return fmt.Errorf("tick offset %g out of [-100, 100]", c.Offset)
	}
	return nil
}

// Tick is a labelled boundary.
type Tick struct {
	Index    int // in ColorRamp.Boundaries
	Position float64
	Label    string
}

// TickSet holds the selected ticks, split by side of the bar.
type TickSet struct {
	All       []Tick
	Primary   []Tick
	Secondary []Tick // empty unless Placement is Alternate or BothSides
}

// SelectTicks chooses the labelled boundaries of r. The result is
// never empty.
func SelectTicks(r *ColorRamp, cfg TickConfig) (TickSet, error) {
	if err := cfg.Validate(); err != nil {
		return TickSet{}, err
	}
	n := len(r.Anchors)
	if n == 0 {
		return TickSet{}, fmt.Errorf("ramp has no boundaries")
	}
	mask := selectMask(r, cfg)
	if mask.None() {
		mask.Set(0).Set(uint(n - 1))
	}

	var ts TickSet
	for i, ok := mask.NextSet(0); ok; i, ok = mask.NextSet(i + 1) {
		ts.All = append(ts.All, Tick{Index: int(i), Position: r.Anchors[i], Label: r.Boundaries[i].Label})
	}
	switch cfg.Placement {
	case Alternate:
		for k, t := range ts.All {
			if k%2 == 0 {
				ts.Primary = append(ts.Primary, t)
			} else {
				ts.Secondary = append(ts.Secondary, t)
			}
		}
	case BothSides:
		ts.Primary = ts.All
		ts.Secondary = ts.All
	default:
		ts.Primary = ts.All
	}
	return ts, nil
}

func selectMask(r *ColorRamp, cfg TickConfig) *bitset.BitSet {
	n := len(r.Anchors)
	mask := bitset.New(uint(n))
	last := uint(n - 1)
	switch cfg.Step {
	case AutoThree:
		return mask.Set(0).Set(uint(n / 2)).Set(last)
	case AutoFive:
		if n <= 7 {
			return mask.Set(0).Set(uint(n / 2)).Set(last)
		}
		return mask.Set(0).Set(uint(n / 4)).Set(uint(n / 2)).Set(uint(3 * n / 4)).Set(last)
	}

	step := cfg.Step
	if step == AutoStride {
		step = 1
		if n > 5 {
			step = 4
		}
	}
	offset := 0.
	if r.Kind == Linear {
		offset = cfg.Offset
	}
	fs := float64(step)
	for i := 0; i < n; i++ {
		m := math.Abs(math.Mod(offset+float64(i), fs))
		if m < 1e-9 || fs-m < 1e-9 {
			mask.Set(uint(i))
		}
	}
	if mask.Test(last) {
		return mask
	}
	switch cfg.End {
	case EndAppend:
		mask.Set(last)
	case EndReplace:
		if mask.Any() {
			var prev uint
			for i, ok := mask.NextSet(0); ok; i, ok = mask.NextSet(i + 1) {
				prev = i
			}
			mask.Clear(prev)
		}
		mask.Set(last)
	default:
		a := r.Anchors
		if n >= 3 && a[n-1]-a[n-2] > a[n-2]-a[n-3] {
			mask.Set(last)
		}
	}
	return mask
}

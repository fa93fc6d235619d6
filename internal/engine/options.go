package engine

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Options configures an Engine. Zero fields are replaced by their defaults
// in NewEngine, so persisted or partially filled options are always usable.
type Options struct {
	TableSlots  int         `json:"table_slots"`  // transposition table slots
	VerifyKeys  bool        `json:"verify_keys"`  // reject table hits whose fingerprint differs
	TableLayout TableLayout `json:"table_layout"` // positional table decoding

	MaxDepth              int `json:"max_depth"`               // iterations run while depth < MaxDepth
	AspirationWindow      int `json:"aspiration_window"`       // half-width of the aspiration window
	CheckExtensionCeiling int `json:"check_extension_ceiling"` // no check extension at or above this depth

	MoveTimeFraction   float64       `json:"move_time_fraction"`
	MaxMoveTime        time.Duration `json:"max_move_time"`
	LowTimeThreshold   time.Duration `json:"low_time_threshold"`
	LowTimeFraction    float64       `json:"low_time_fraction"`
	LowTimeMaxMoveTime time.Duration `json:"low_time_max_move_time"`

	Logger zerolog.Logger `json:"-"`
}

// DefaultOptions returns the reference configuration.
func DefaultOptions() Options {
	return Options{
		TableSlots:            DefaultTableSlots,
		TableLayout:           LayoutPacked,
		MaxDepth:              10,
		AspirationWindow:      30,
		CheckExtensionCeiling: 20,
		MoveTimeFraction:      0.1,
		MaxMoveTime:           3 * time.Second,
		LowTimeThreshold:      10 * time.Second,
		LowTimeFraction:       0.3,
		LowTimeMaxMoveTime:    time.Second,
		Logger:                zerolog.Nop(),
	}
}

// Normalize fills zero fields with defaults.
func (o Options) Normalize() Options {
	d := DefaultOptions()
	if o.TableSlots <= 0 {
		o.TableSlots = d.TableSlots
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = d.MaxDepth
	}
	if o.AspirationWindow <= 0 {
		o.AspirationWindow = d.AspirationWindow
	}
	if o.CheckExtensionCeiling <= 0 {
		o.CheckExtensionCeiling = d.CheckExtensionCeiling
	}
	if o.MoveTimeFraction <= 0 || o.MoveTimeFraction > 1 {
		o.MoveTimeFraction = d.MoveTimeFraction
	}
	if o.MaxMoveTime <= 0 {
		o.MaxMoveTime = d.MaxMoveTime
	}
	if o.LowTimeThreshold <= 0 {
		o.LowTimeThreshold = d.LowTimeThreshold
	}
	if o.LowTimeFraction <= 0 || o.LowTimeFraction > 1 {
		o.LowTimeFraction = d.LowTimeFraction
	}
	if o.LowTimeMaxMoveTime <= 0 {
		o.LowTimeMaxMoveTime = d.LowTimeMaxMoveTime
	}
	return o
}

// Difficulty represents the engine strength preset.
type Difficulty int

const (
	Easy   Difficulty = iota // ~3 ply, 500ms
	Medium                   // ~6 ply, 2s
	Hard                     // full depth, 3s
)

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	}
	return "unknown"
}

// ParseDifficulty returns the preset with the given name.
func ParseDifficulty(name string) (Difficulty, error) {
	for _, d := range []Difficulty{Easy, Medium, Hard} {
		if d.String() == name {
			return d, nil
		}
	}
	return Medium, errors.Errorf("unknown difficulty %q", name)
}

// Apply returns opts with the preset's depth and time limits.
func (d Difficulty) Apply(opts Options) Options {
	switch d {
	case Easy:
		opts.MaxDepth = 4
		opts.MaxMoveTime = 500 * time.Millisecond
		opts.LowTimeMaxMoveTime = 250 * time.Millisecond
	case Medium:
		opts.MaxDepth = 7
		opts.MaxMoveTime = 2 * time.Second
	case Hard:
		opts.MaxDepth = 10
		opts.MaxMoveTime = 3 * time.Second
	}
	return opts
}

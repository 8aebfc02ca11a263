package effects

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies one of the six effects. The numeric values are the
// identifiers persisted in presets and must never change.
type Kind int

const (
	LowPassCutoff Kind = iota
	RingModulation
	ClipAndDecay
	BitCrush
	Drive
	Saturation
)

// NumKinds is the number of effects in a chain.
const NumKinds = 6

const (
	MinLevel = 0
	MaxLevel = 100
)

// ErrUnknownKind is returned for identifiers or names outside the six kinds.
var ErrUnknownKind = errors.New("unknown effect kind")

type descriptor struct {
	name    string
	label   string
	process func(buf []float64, level int, sampleRate float64)
}

// descriptors is indexed by Kind.
var descriptors = [NumKinds]descriptor{
	LowPassCutoff: {
		name:  "lowpass",
		label: "Low-pass cutoff",
		process: func(buf []float64, level int, sampleRate float64) {
			LowPass(buf, CutoffHz(level), sampleRate)
		},
	},
	RingModulation: {
		name:  "ringmod",
		label: "Ring modulation",
		process: func(buf []float64, level int, sampleRate float64) {
			RingModulate(buf, ModulationHz(level), sampleRate)
		},
	},
	ClipAndDecay: {
		name:  "clipdecay",
		label: "Clip and decay",
		process: func(buf []float64, level int, sampleRate float64) {
			ClipDecay(buf, ClipThreshold(level), DecaySeconds(level), sampleRate)
		},
	},
	BitCrush: {
		name:  "bitcrush",
		label: "Bit crush",
		process: func(buf []float64, level int, _ float64) {
			Crush(buf, EffectiveBits(level))
		},
	},
	Drive: {
		name:  "drive",
		label: "Drive",
		process: func(buf []float64, level int, _ float64) {
			Gain(buf, DriveGain(level))
		},
	},
	Saturation: {
		name:  "saturation",
		label: "Saturation",
		process: func(buf []float64, level int, _ float64) {
			Saturate(buf, SaturationAmount(level))
		},
	},
}

// Kinds returns every kind in identifier order.
func Kinds() []Kind {
	return []Kind{LowPassCutoff, RingModulation, ClipAndDecay, BitCrush, Drive, Saturation}
}

// Valid reports whether k is one of the six kinds.
func (k Kind) Valid() bool {
	return k >= 0 && k < NumKinds
}

// String returns the stable short name, e.g. "bitcrush".
func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}

	return descriptors[k].name
}

// Label returns a human readable name.
func (k Kind) Label() string {
	if !k.Valid() {
		return k.String()
	}

	return descriptors[k].label
}

// Process applies the effect at the given level to buf in place. Levels are
// clamped to [0, 100]; unknown kinds leave buf untouched.
func (k Kind) Process(buf []float64, level int, sampleRate float64) {
	if !k.Valid() {
		return
	}

	descriptors[k].process(buf, ClampLevel(level), sampleRate)
}

// ParseKind accepts a short name (case-insensitive) or a numeric identifier.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)

	if id, err := strconv.Atoi(s); err == nil {
		if k := Kind(id); k.Valid() {
			return k, nil
		}

		return 0, fmt.Errorf("%w: %d", ErrUnknownKind, id)
	}

	for i, d := range descriptors {
		if strings.EqualFold(s, d.name) {
			return Kind(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// ClampLevel limits a user level to [0, 100].
func ClampLevel(level int) int {
	return min(max(level, MinLevel), MaxLevel)
}

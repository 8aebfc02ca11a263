// Package effectchain holds the ordered six-step effect chain and applies it
// to sample buffers.
//
// A Chain is a plain value: the order of the six kinds plus one parameter
// and one mix level per kind. Levels are stored by kind, so they follow an
// effect when it is moved.
package effectchain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cwbudde/wavfx/effects"
)

var (
	// ErrIndexOutOfRange is returned by Move for positions outside [0, 5].
	ErrIndexOutOfRange = errors.New("chain position out of range")
	// ErrInvalidLevel is returned for parameter or mix levels outside [0, 100].
	ErrInvalidLevel = errors.New("level out of range")
	// ErrInvalidPreset is returned when preset tables are malformed.
	ErrInvalidPreset = errors.New("invalid chain preset")
)

// Step is one stage of the chain as it will be applied.
type Step struct {
	Kind  effects.Kind
	Param int
	Mix   int
}

// Chain is an ordered permutation of the six effect kinds with per-kind
// parameter and mix levels. The zero value is not a valid permutation; use
// Default.
type Chain struct {
	order  [effects.NumKinds]effects.Kind
	params [effects.NumKinds]int
	mixes  [effects.NumKinds]int
}

// Default returns the chain in identifier order with every level at 0.
func Default() Chain {
	var c Chain
	for i := range c.order {
		c.order[i] = effects.Kind(i)
	}

	return c
}

// Move removes the step at position from and reinserts it at position to,
// shifting the steps in between.
func (c *Chain) Move(from, to int) error {
	if from < 0 || from >= effects.NumKinds {
		return fmt.Errorf("%w: from=%d", ErrIndexOutOfRange, from)
	}

	if to < 0 || to >= effects.NumKinds {
		return fmt.Errorf("%w: to=%d", ErrIndexOutOfRange, to)
	}

	k := c.order[from]

	switch {
	case from < to:
		copy(c.order[from:to], c.order[from+1:to+1])
	case from > to:
		copy(c.order[to+1:from+1], c.order[to:from])
	}

	c.order[to] = k

	return nil
}

// SetOrder replaces the order with a permutation of the six kinds.
func (c *Chain) SetOrder(order []effects.Kind) error {
	ids := make([]int, len(order))
	for i, k := range order {
		ids[i] = int(k)
	}

	next, err := parseOrderIDs(ids)
	if err != nil {
		return err
	}

	c.order = next

	return nil
}

// SetParam sets the parameter level of kind.
func (c *Chain) SetParam(kind effects.Kind, level int) error {
	if err := checkLevel(kind, level); err != nil {
		return err
	}

	c.params[kind] = level

	return nil
}

// SetMix sets the dry/wet mix level of kind; 0 bypasses the effect and 100
// replaces the signal with the processed one.
func (c *Chain) SetMix(kind effects.Kind, level int) error {
	if err := checkLevel(kind, level); err != nil {
		return err
	}

	c.mixes[kind] = level

	return nil
}

func checkLevel(kind effects.Kind, level int) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %d", effects.ErrUnknownKind, int(kind))
	}

	if level < effects.MinLevel || level > effects.MaxLevel {
		return fmt.Errorf("%w: %s level %d", ErrInvalidLevel, kind, level)
	}

	return nil
}

// Param returns the parameter level of kind.
func (c Chain) Param(kind effects.Kind) int {
	if !kind.Valid() {
		return 0
	}

	return c.params[kind]
}

// Mix returns the mix level of kind.
func (c Chain) Mix(kind effects.Kind) int {
	if !kind.Valid() {
		return 0
	}

	return c.mixes[kind]
}

// Order returns the kinds in processing order.
func (c Chain) Order() []effects.Kind {
	return append([]effects.Kind(nil), c.order[:]...)
}

// Steps returns the chain in processing order with each kind's levels.
func (c Chain) Steps() []Step {
	steps := make([]Step, len(c.order))
	for i, k := range c.order {
		steps[i] = Step{Kind: k, Param: c.params[k], Mix: c.mixes[k]}
	}

	return steps
}

// Preset returns the persisted form: identifiers in order, then parameter
// and mix levels indexed by identifier.
func (c Chain) Preset() (order, params, mixes []int) {
	order = make([]int, len(c.order))
	for i, k := range c.order {
		order[i] = int(k)
	}

	return order, append([]int(nil), c.params[:]...), append([]int(nil), c.mixes[:]...)
}

// LoadPreset replaces the whole chain. On error the chain is left unchanged.
func (c *Chain) LoadPreset(order, params, mixes []int) error {
	next, err := parseOrderIDs(order)
	if err != nil {
		return err
	}

	p, err := levelTable("param", params)
	if err != nil {
		return err
	}

	m, err := levelTable("mix", mixes)
	if err != nil {
		return err
	}

	c.order, c.params, c.mixes = next, p, m

	return nil
}

func parseOrderIDs(ids []int) ([effects.NumKinds]effects.Kind, error) {
	var (
		order [effects.NumKinds]effects.Kind
		seen  [effects.NumKinds]bool
	)

	if len(ids) != effects.NumKinds {
		return order, fmt.Errorf("%w: order has %d entries, want %d", ErrInvalidPreset, len(ids), effects.NumKinds)
	}

	for i, id := range ids {
		k := effects.Kind(id)
		if !k.Valid() {
			return order, fmt.Errorf("%w: unknown identifier %d", ErrInvalidPreset, id)
		}

		if seen[k] {
			return order, fmt.Errorf("%w: duplicate identifier %d", ErrInvalidPreset, id)
		}

		seen[k] = true
		order[i] = k
	}

	return order, nil
}

func levelTable(what string, levels []int) ([effects.NumKinds]int, error) {
	var out [effects.NumKinds]int

	if len(levels) != effects.NumKinds {
		return out, fmt.Errorf("%w: %s table has %d entries, want %d", ErrInvalidPreset, what, len(levels), effects.NumKinds)
	}

	for i, v := range levels {
		if v < effects.MinLevel || v > effects.MaxLevel {
			return out, fmt.Errorf("%w: %s level %d of %s", ErrInvalidPreset, what, v, effects.Kind(i))
		}

		out[i] = v
	}

	return out, nil
}

// ParseOrder parses a comma separated permutation of kind names or numeric
// identifiers, e.g. "drive,saturation,0,1,2,3".
func ParseOrder(s string) ([]effects.Kind, error) {
	fields := strings.Split(s, ",")
	ids := make([]int, 0, len(fields))

	for _, f := range fields {
		k, err := effects.ParseKind(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPreset, err)
		}

		ids = append(ids, int(k))
	}

	order, err := parseOrderIDs(ids)
	if err != nil {
		return nil, err
	}

	return order[:], nil
}

// String returns the order as dash separated identifiers, e.g. "0-1-2-3-4-5".
func (c Chain) String() string {
	parts := make([]string, len(c.order))
	for i, k := range c.order {
		parts[i] = strconv.Itoa(int(k))
	}

	return strings.Join(parts, "-")
}

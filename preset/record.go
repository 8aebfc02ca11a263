// Package preset persists effect chains as flat string records.
//
// A record holds three keys per preset name: <name>_ORDER, <name>_PARAM and
// <name>_MIX, each a comma-joined list of integers. Several presets can share
// one backing document or hash because every key carries its name.
package preset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cwbudde/wavfx/effectchain"
)

// DefaultName is the single preset slot used by the processor.
const DefaultName = "DefaultChainPreset"

const (
	orderSuffix = "_ORDER"
	paramSuffix = "_PARAM"
	mixSuffix   = "_MIX"
)

var (
	// ErrNotFound is returned when a store has no record for a name.
	ErrNotFound = errors.New("preset not found")
	// ErrInvalidPreset is returned for records that don't describe a chain.
	ErrInvalidPreset = errors.New("invalid preset record")
	// ErrInvalidName is returned for empty preset names.
	ErrInvalidName = errors.New("invalid preset name")
)

// Record is the flat key/value form of one or more presets.
type Record map[string]string

// Keys returns the order, param and mix keys of name.
func Keys(name string) (order, param, mix string) {
	return name + orderSuffix, name + paramSuffix, name + mixSuffix
}

// Encode converts c into the record of name.
func Encode(name string, c effectchain.Chain) Record {
	order, params, mixes := c.Preset()
	orderKey, paramKey, mixKey := Keys(name)

	return Record{
		orderKey: joinInts(order),
		paramKey: joinInts(params),
		mixKey:   joinInts(mixes),
	}
}

// Apply loads the preset name from r into c. On error c is unchanged.
func Apply(name string, r Record, c *effectchain.Chain) error {
	orderKey, paramKey, mixKey := Keys(name)

	order, err := field(r, orderKey)
	if err != nil {
		return err
	}

	params, err := field(r, paramKey)
	if err != nil {
		return err
	}

	mixes, err := field(r, mixKey)
	if err != nil {
		return err
	}

	if err := c.LoadPreset(order, params, mixes); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidPreset, name, err)
	}

	return nil
}

// Decode returns the chain stored under name, starting from the default
// chain.
func Decode(name string, r Record) (effectchain.Chain, error) {
	c := effectchain.Default()

	if err := Apply(name, r, &c); err != nil {
		return effectchain.Chain{}, err
	}

	return c, nil
}

// Has reports whether r contains any key of name.
func (r Record) Has(name string) bool {
	orderKey, paramKey, mixKey := Keys(name)

	for _, k := range []string{orderKey, paramKey, mixKey} {
		if _, ok := r[k]; ok {
			return true
		}
	}

	return false
}

// Select returns the subset of r belonging to name.
func (r Record) Select(name string) Record {
	out := Record{}

	orderKey, paramKey, mixKey := Keys(name)
	for _, k := range []string{orderKey, paramKey, mixKey} {
		if v, ok := r[k]; ok {
			out[k] = v
		}
	}

	return out
}

func field(r Record, key string) ([]int, error) {
	v, ok := r[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidPreset, key)
	}

	ints, err := splitInts(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidPreset, key, err)
	}

	return ints, nil
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}

	return strings.Join(parts, ",")
}

func splitInts(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	out := make([]int, len(parts))

	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}

		out[i] = v
	}

	return out, nil
}

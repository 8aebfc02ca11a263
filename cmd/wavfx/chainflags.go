package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cwbudde/wavfx/effectchain"
	"github.com/cwbudde/wavfx/effects"
	"github.com/cwbudde/wavfx/preset"
)

// chainFlags describes a chain as a stored preset plus edits.
type chainFlags struct {
	preset string
	order  string
	params []string
	mixes  []string
	moves  []string
}

func (f *chainFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.preset, "preset", "", "preset to start from (default from config)")
	fs.StringVar(&f.order, "order", "", "comma separated processing order, names or identifiers")
	fs.StringArrayVar(&f.params, "param", nil, "parameter level as kind=level, repeatable")
	fs.StringArrayVar(&f.mixes, "mix", nil, "mix level as kind=level, repeatable")
	fs.StringArrayVar(&f.moves, "move", nil, "move a chain position as from:to, repeatable")
}

func (f *chainFlags) name(a *app) string {
	if f.preset != "" {
		return f.preset
	}

	return a.cfg.Preset.Name
}

// resolve loads the preset, falling back to the default chain when it was
// never saved, and applies the edits in flag order: order, moves, levels.
func (f *chainFlags) resolve(ctx context.Context, a *app) (effectchain.Chain, error) {
	name := f.name(a)

	c, err := preset.LoadChain(ctx, a.store, name)
	switch {
	case errors.Is(err, preset.ErrNotFound):
		a.logger.Debug("preset not saved yet, using default chain", "preset", name)
		c = effectchain.Default()
	case err != nil:
		return effectchain.Chain{}, err
	}

	if f.order != "" {
		order, err := effectchain.ParseOrder(f.order)
		if err != nil {
			return effectchain.Chain{}, err
		}

		if err := c.SetOrder(order); err != nil {
			return effectchain.Chain{}, err
		}
	}

	for _, m := range f.moves {
		from, to, ok := strings.Cut(m, ":")
		if !ok {
			return effectchain.Chain{}, fmt.Errorf("invalid move %q, want from:to", m)
		}

		fi, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil {
			return effectchain.Chain{}, fmt.Errorf("invalid move %q: %w", m, err)
		}

		ti, err := strconv.Atoi(strings.TrimSpace(to))
		if err != nil {
			return effectchain.Chain{}, fmt.Errorf("invalid move %q: %w", m, err)
		}

		if err := c.Move(fi, ti); err != nil {
			return effectchain.Chain{}, err
		}
	}

	if err := setLevels(f.params, c.SetParam); err != nil {
		return effectchain.Chain{}, err
	}

	if err := setLevels(f.mixes, c.SetMix); err != nil {
		return effectchain.Chain{}, err
	}

	return c, nil
}

func setLevels(assignments []string, set func(effects.Kind, int) error) error {
	for _, s := range assignments {
		name, value, ok := strings.Cut(s, "=")
		if !ok {
			return fmt.Errorf("invalid level %q, want kind=level", s)
		}

		kind, err := effects.ParseKind(name)
		if err != nil {
			return err
		}

		level, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid level %q: %w", s, err)
		}

		if err := set(kind, level); err != nil {
			return err
		}
	}

	return nil
}

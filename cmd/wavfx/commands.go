package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/wavfx/effectchain"
	"github.com/cwbudde/wavfx/pipeline"
	"github.com/cwbudde/wavfx/preset"
	"github.com/cwbudde/wavfx/wav"
)

func newInfoCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>...",
		Short: "Print the header of WAVE files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			for _, path := range args {
				if err := printInfo(opts.stdout, path); err != nil {
					return err
				}
			}

			return nil
		},
	}
}

func printInfo(out io.Writer, path string) error {
	d, err := wav.OpenFile(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer d.Close()

	h := d.Header()

	fmt.Fprintf(out, "%s\n", path)
	fmt.Fprintf(out, "  channels:         %d\n", h.NumChans)
	fmt.Fprintf(out, "  frames:           %d\n", h.NumFrames)
	fmt.Fprintf(out, "  sample rate:      %d Hz\n", h.SampleRate)
	fmt.Fprintf(out, "  valid bits:       %d\n", h.ValidBits)
	fmt.Fprintf(out, "  bytes per sample: %d\n", h.BytesPerSample())
	fmt.Fprintf(out, "  block align:      %d\n", h.BlockAlign())
	fmt.Fprintf(out, "  duration:         %s\n", h.Duration())

	for _, w := range d.Warnings() {
		fmt.Fprintf(out, "  warning:          %v\n", w)
	}

	return nil
}

func newChainCmd(opts *rootOptions) *cobra.Command {
	flags := &chainFlags{}

	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Show the effect chain that preview and apply would run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := flags.resolve(cmd.Context(), opts.app)
			if err != nil {
				return err
			}

			return printChain(opts.stdout, c)
		},
	}

	flags.register(cmd)

	return cmd
}

func printChain(out io.Writer, c effectchain.Chain) error {
	fmt.Fprintf(out, "order: %s\n", c)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "POS\tID\tEFFECT\tPARAM\tMIX")

	for i, s := range c.Steps() {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%d\t%d\n", i, int(s.Kind), s.Kind.Label(), s.Param, s.Mix)
	}

	return tw.Flush()
}

func newPreviewCmd(opts *rootOptions) *cobra.Command {
	flags := &chainFlags{}

	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Render the chain into a scratch file and print its path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := runJob(cmd.Context(), opts.app, flags, pipeline.OpPreview, args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(opts.stdout, res.Path)

			return nil
		},
	}

	flags.register(cmd)

	return cmd
}

func newApplyCmd(opts *rootOptions) *cobra.Command {
	flags := &chainFlags{}

	cmd := &cobra.Command{
		Use:   "apply <file>",
		Short: "Run the chain and overwrite the file with the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := runJob(cmd.Context(), opts.app, flags, pipeline.OpApply, args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(opts.stdout, "%s: peak %.3f, clipped %d\n", res.Path, res.Stats.Peak, res.Stats.Clipped)

			return nil
		},
	}

	flags.register(cmd)

	return cmd
}

// runJob resolves the chain and runs one job on a background worker, so an
// interrupt abandons the job and discards its result.
func runJob(ctx context.Context, a *app, flags *chainFlags, op pipeline.Op, path string) (pipeline.Result, error) {
	c, err := flags.resolve(ctx, a)
	if err != nil {
		return pipeline.Result{}, err
	}

	w := pipeline.NewWorker(a.processor, 1)
	defer w.Close()

	w.Submit(ctx, pipeline.Job{Op: op, Source: path, Chain: c})

	o := <-w.Results()
	if o.Err != nil {
		return pipeline.Result{}, fmt.Errorf("%s: %w", path, o.Err)
	}

	return o.Result, nil
}

func newPresetCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Save or show stored chains",
	}

	saveFlags := &chainFlags{}
	save := &cobra.Command{
		Use:   "save",
		Short: "Store the chain built from the flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := saveFlags.resolve(cmd.Context(), opts.app)
			if err != nil {
				return err
			}

			name := saveFlags.name(opts.app)
			if err := preset.SaveChain(cmd.Context(), opts.app.store, name, c); err != nil {
				return err
			}

			fmt.Fprintf(opts.stdout, "saved %s: %s\n", name, c)

			return nil
		},
	}
	saveFlags.register(save)

	var showName string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the stored record of a preset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name := showName
			if name == "" {
				name = opts.app.cfg.Preset.Name
			}

			r, err := opts.app.store.Load(cmd.Context(), name)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}

			orderKey, paramKey, mixKey := preset.Keys(name)
			for _, k := range []string{orderKey, paramKey, mixKey} {
				fmt.Fprintf(opts.stdout, "%s=%s\n", k, r[k])
			}

			return nil
		},
	}
	show.Flags().StringVar(&showName, "preset", "", "preset to show (default from config)")

	cmd.AddCommand(save, show)

	return cmd
}

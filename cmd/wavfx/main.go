// wavfx runs the distortion effect chain over PCM WAVE files.
//
//	wavfx info take.wav
//	wavfx preview --param drive=50 --mix drive=100 take.wav
//	wavfx apply --preset live take.wav
//	wavfx preset save --order drive,saturation,lowpass,ringmod,clipdecay,bitcrush
//	wavfx songs --sort name
//	wavfx refs "My Song"
package main

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)

	stop()

	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts := &rootOptions{stdout: stdout, stderr: stderr}

	cmd := newRootCmd(opts)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)

	// Failed jobs are recorded too, so the app is closed on every path.
	if cerr := opts.app.Close(); err == nil {
		err = cerr
	}

	return err
}

type rootOptions struct {
	configPath  string
	logLevel    string
	metricsFile string
	stdout      io.Writer
	stderr      io.Writer
	app         *app
}

func newRootCmd(opts *rootOptions) *cobra.Command {

	cmd := &cobra.Command{
		Use:           "wavfx",
		Short:         "Distortion effect chain for PCM WAVE files",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}

			opts.app = a

			return nil
		},
	}

	cmd.SetOut(opts.stdout)
	cmd.SetErr(opts.stderr)

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "configuration file (default $WAVFX_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level")
	cmd.PersistentFlags().StringVar(&opts.metricsFile, "metrics-file", "", "write job metrics in Prometheus text format on exit")

	cmd.AddCommand(
		newInfoCmd(opts),
		newChainCmd(opts),
		newPreviewCmd(opts),
		newApplyCmd(opts),
		newPresetCmd(opts),
		newSongsCmd(opts),
		newRefsCmd(opts),
	)

	return cmd
}

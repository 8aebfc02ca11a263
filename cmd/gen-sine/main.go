// gen-sine writes a sine test signal as a PCM WAVE file.
package main

import (
	"fmt"
	"log"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/wavfx/wav"
)

func main() {
	err := run(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
}

type sineOptions struct {
	output    string
	frequency float64
	length    float64
	amplitude float64
	rate      uint32
	bits      uint16
	channels  uint16
}

func run(args []string) error {
	opts := sineOptions{}

	cmd := &cobra.Command{
		Use:           "gen-sine",
		Short:         "Generate a sine wave WAVE file",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(*cobra.Command, []string) error {
			return generate(opts)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&opts.output, "output", "output.wav", "filename to write to")
	fs.Float64Var(&opts.frequency, "frequency", 440, "frequency in hertz to generate")
	fs.Float64Var(&opts.length, "length", 5, "length in seconds of output file")
	fs.Float64Var(&opts.amplitude, "amplitude", 1, "peak amplitude, 0 to 1")
	fs.Uint32Var(&opts.rate, "rate", 48000, "sample rate in hertz")
	fs.Uint16Var(&opts.bits, "bits", 16, "valid bits per sample, 2 to 64")
	fs.Uint16Var(&opts.channels, "channels", 1, "number of channels, all carrying the same signal")

	cmd.SetArgs(args)

	return cmd.Execute()
}

func generate(opts sineOptions) error {
	log.Printf("generating a %f sec sine wav at %f hz", opts.length, opts.frequency)

	h := wav.Header{
		NumChans:   opts.channels,
		SampleRate: opts.rate,
		ValidBits:  opts.bits,
		NumFrames:  int64(float64(opts.rate) * opts.length),
	}

	enc, err := wav.CreateFile(opts.output, h)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", opts.output, err)
	}

	chans := int(opts.channels)
	frame := make([]float64, chans)
	rate := float64(opts.rate)

	for i := range h.NumFrames {
		v := opts.amplitude * math.Sin(float64(i)/rate*opts.frequency*2*math.Pi)
		for c := range frame {
			frame[c] = v
		}

		if _, err := enc.WriteFrames(frame, 1); err != nil {
			enc.Close()
			return err
		}
	}

	return enc.Close()
}

// This tool prints the stream header of the passed wav files. Without a
// path, or with "-", the file is read from stdin.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/wavfx/wav"
)

func main() {
	err := run(os.Args[1:], os.Stdin, os.Stdout)
	if err != nil {
		log.Fatal(err)
	}
}

func run(args []string, in io.Reader, out io.Writer) error {
	cmd := &cobra.Command{
		Use:           "wavinfo [file]...",
		Short:         "Print the header of PCM WAVE files",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, paths []string) error {
			if len(paths) == 0 {
				paths = []string{"-"}
			}

			for _, path := range paths {
				if err := describe(path, in, out); err != nil {
					return err
				}
			}

			return nil
		},
	}

	cmd.SetArgs(args)
	cmd.SetOut(out)

	return cmd.Execute()
}

func describe(path string, in io.Reader, out io.Writer) error {
	var d *wav.Decoder

	if path == "-" {
		d = wav.NewDecoder(in)
		if err := d.ReadHeader(); err != nil {
			return fmt.Errorf("stdin: %w", err)
		}
	} else {
		var err error

		d, err = wav.OpenFile(path)
		if err != nil {
			return err
		}
	}
	defer d.Close()

	h := d.Header()

	fmt.Fprintf(out, "File: %s\n", path)
	fmt.Fprintf(out, "Channels: %d\n", h.NumChans)
	fmt.Fprintf(out, "Frames: %d\n", h.NumFrames)
	fmt.Fprintf(out, "SampleRate: %d\n", h.SampleRate)
	fmt.Fprintf(out, "ValidBits: %d\n", h.ValidBits)
	fmt.Fprintf(out, "BytesPerSample: %d\n", h.BytesPerSample())
	fmt.Fprintf(out, "BlockAlign: %d\n", h.BlockAlign())
	fmt.Fprintf(out, "AvgBytesPerSec: %d\n", h.AvgBytesPerSec())
	fmt.Fprintf(out, "RiffSize: %d\n", d.RiffSize())
	fmt.Fprintf(out, "Duration: %s\n", h.Duration())
	fmt.Fprintf(out, "State: %s\n", d)

	for _, w := range d.Warnings() {
		fmt.Fprintf(out, "Warning: %v\n", w)
	}

	return nil
}

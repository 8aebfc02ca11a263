// This tool converts a wav file into an aiff file stored next to the source,
// optionally running a saved effect chain over it first.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/spf13/cobra"

	"github.com/cwbudde/wavfx/effectchain"
	"github.com/cwbudde/wavfx/preset"
	"github.com/cwbudde/wavfx/wav"
)

var errMissingPath = errors.New("you must set the --path flag")

func main() {
	out, err := run(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Wav file converted to %s\n", out)
}

type convertOptions struct {
	path       string
	output     string
	presetFile string
	presetName string
}

func run(args []string) (string, error) {
	opts := convertOptions{}

	var outPath string

	cmd := &cobra.Command{
		Use:           "wavtoaiff",
		Short:         "Convert a PCM WAVE file to AIFF",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			outPath, err = convert(cmd.Context(), opts)

			return err
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&opts.path, "path", "", "the path to the wav file to convert to aiff")
	fs.StringVar(&opts.output, "output", "", "destination (default: source with .aif extension)")
	fs.StringVar(&opts.presetFile, "presets", "", "preset file holding the chain to apply before converting")
	fs.StringVar(&opts.presetName, "preset", preset.DefaultName, "preset name within --presets")

	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		return "", err
	}

	return outPath, nil
}

func convert(ctx context.Context, opts convertOptions) (string, error) {
	if opts.path == "" {
		return "", errMissingPath
	}

	sourcePath, err := expandHome(opts.path)
	if err != nil {
		return "", err
	}

	h, buf, err := wav.DecodeFile(sourcePath)
	if err != nil {
		return "", fmt.Errorf("invalid WAV file %s: %w", sourcePath, err)
	}

	if opts.presetFile != "" {
		c, err := preset.LoadChain(ctx, preset.NewFileStore(opts.presetFile), opts.presetName)
		if err != nil {
			return "", fmt.Errorf("failed to load preset %s: %w", opts.presetName, err)
		}

		buf = effectchain.ApplyBuffer(buf, c)
	}

	outPath := opts.output
	if outPath == "" {
		outPath = sourcePath[:len(sourcePath)-len(filepath.Ext(sourcePath))] + ".aif"
	}

	outFile, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", outPath, err)
	}
	defer outFile.Close()

	bitDepth := aiffBitDepth(int(h.ValidBits))
	encoder := aiff.NewEncoder(outFile, int(h.SampleRate), bitDepth, int(h.NumChans))

	if err := encoder.Write(floatToIntBuffer(buf.Data, buf.Format, bitDepth)); err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", outPath, err)
	}

	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("failed to finish %s: %w", outPath, err)
	}

	return outPath, nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	usr, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("failed to get the user home directory: %w", err)
	}

	return filepath.Join(usr.HomeDir, path[2:]), nil
}

// aiffBitDepth maps a WAVE sample width onto the nearest AIFF container
// width that holds it.
func aiffBitDepth(validBits int) int {
	switch {
	case validBits <= 8:
		return 8
	case validBits <= 16:
		return 16
	case validBits <= 24:
		return 24
	default:
		return 32
	}
}

func floatToIntBuffer(data []float64, format *audio.Format, bitDepth int) *audio.IntBuffer {
	intBuf := &audio.IntBuffer{
		Format:         format,
		SourceBitDepth: bitDepth,
		Data:           make([]int, len(data)),
	}
	for i, v := range data {
		intBuf.Data[i] = floatToPCMInt(v, bitDepth)
	}

	return intBuf
}

// floatToPCMInt converts a normalised sample into a signed AIFF sample. AIFF
// stores 8-bit samples signed as well.
func floatToPCMInt(value float64, bitDepth int) int {
	if math.IsNaN(value) {
		return 0
	}

	value = clampFloat(value, -1, 1)

	scale := math.Ldexp(1, bitDepth-1)
	maxValue := int64(scale) - 1

	sample := min(int64(math.Round(value*scale)), maxValue)

	return int(max(sample, -int64(scale)))
}

func clampFloat(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}

	if value > hi {
		return hi
	}

	return value
}

package effectchain

import (
	vecmath "github.com/cwbudde/algo-vecmath"
	"github.com/go-audio/audio"

	"github.com/cwbudde/wavfx/effects"
)

// ApplyChain runs samples through every step of c and returns a new slice;
// samples is not modified. Steps with mix 0 are skipped, mix 100 replaces
// the signal with the processed one and anything between blends
// wet*mix/100 with dry*(1-mix/100). Each step consumes the previous output.
func ApplyChain(samples []float64, c Chain, sampleRate int) []float64 {
	current := append([]float64(nil), samples...)
	if len(current) == 0 {
		return current
	}

	wet := make([]float64, len(current))
	dry := make([]float64, len(current))

	for _, step := range c.Steps() {
		if step.Mix <= 0 {
			continue
		}

		copy(wet, current)
		step.Kind.Process(wet, step.Param, float64(sampleRate))

		if step.Mix < effects.MaxLevel {
			blend(wet, current, dry, step.Mix)
		}

		current, wet = wet, current
	}

	return current
}

// blend mixes the dry signal into wet in place; scratch has the length of
// wet.
func blend(wet, dry, scratch []float64, mix int) {
	w := float64(mix) / effects.MaxLevel

	vecmath.ScaleBlockInPlace(wet, w)
	vecmath.ScaleBlock(scratch, dry, 1-w)
	vecmath.AddBlockInPlace(wet, scratch)
}

// ApplyBuffer is ApplyChain on a sample buffer. The result is a new buffer
// with a copy of the input format.
func ApplyBuffer(buf *audio.FloatBuffer, c Chain) *audio.FloatBuffer {
	if buf == nil {
		return nil
	}

	out := &audio.FloatBuffer{}

	sampleRate := 0
	if buf.Format != nil {
		format := *buf.Format
		out.Format = &format
		sampleRate = format.SampleRate
	}

	out.Data = ApplyChain(buf.Data, c, sampleRate)

	return out
}

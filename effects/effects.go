package effects

import (
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"
)

// LowPass runs a one-pole RC low-pass filter over buf. The filter starts
// from a zero output.
func LowPass(buf []float64, cutoffHz, sampleRate float64) {
	rc := 1 / (cutoffHz * 2 * math.Pi)
	alpha := 1 / (rc*sampleRate + 1)

	var last float64
	for i, x := range buf {
		last = alpha*x + (1-alpha)*last
		buf[i] = last
	}
}

// RingModulate multiplies buf with a sine carrier starting at phase 0.
func RingModulate(buf []float64, freqHz, sampleRate float64) {
	const twoPi = 2 * math.Pi

	inc := twoPi * freqHz / sampleRate

	var phase float64
	for i := range buf {
		buf[i] *= math.Sin(phase)

		phase += inc
		if phase >= twoPi {
			phase -= twoPi
		}
	}
}

// ClipDecay hard clips buf at ±threshold, then shapes it with an envelope:
// a 50 ms linear attack, a linear decay over decaySeconds starting at
// min(attack, len/4), and a 0.05 floor afterwards.
func ClipDecay(buf []float64, threshold, decaySeconds, sampleRate float64) {
	for i, x := range buf {
		switch {
		case x > threshold:
			buf[i] = threshold
		case x < -threshold:
			buf[i] = -threshold
		}
	}

	attack := int(attackSeconds * sampleRate)
	decay := int(decaySeconds * sampleRate)
	start := min(attack, len(buf)/4)

	for i := range buf {
		var env float64

		switch {
		case i < attack:
			env = float64(i) / float64(attack)
		case i < start+decay:
			env = 1 - float64(i-start)/float64(decay)
		default:
			env = 0.05
		}

		buf[i] *= max(env, 0)
	}
}

// Crush quantizes buf to 2^bits-1 levels per unit, rounding half up.
func Crush(buf []float64, bits int) {
	levels := math.Pow(2, float64(bits)) - 1

	for i, x := range buf {
		buf[i] = math.Floor(x*levels+0.5) / levels
	}
}

// Gain scales buf by a linear factor.
func Gain(buf []float64, gain float64) {
	vecmath.ScaleBlockInPlace(buf, gain)
}

// Saturate soft clips buf with tanh(x*amount).
func Saturate(buf []float64, amount float64) {
	for i, x := range buf {
		buf[i] = math.Tanh(x * amount)
	}
}

// Package effects implements the six distortion algorithms of the chain.
//
// Every algorithm works in place on a flat, channel-interleaved []float64
// and is deterministic. LowPass and ClipDecay carry state across the whole
// slice and run strictly in index order, so interleaved channels share that
// state.
//
// Each Kind owns the mapping from a user level in [0, 100] to the physical
// parameters of its algorithm; Kind.Process combines both steps.
package effects

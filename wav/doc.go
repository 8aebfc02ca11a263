// Package wav reads and writes uncompressed PCM WAVE files.
//
// The codec streams frames through a fixed-size staging buffer, so a
// Decoder works on any io.Reader (pipes, network bodies, content providers)
// and an Encoder on any io.Writer: the RIFF header is computed up front from
// a validated Header and never patched afterwards.
//
// Samples are exchanged as channel-interleaved float64 values normalised to
// [-1, 1]. Valid bit depths from 2 to 64 are supported; depths of 8 bits and
// below are stored unsigned, wider depths as signed little-endian integers.
//
// Only the "fmt " and "data" chunks are interpreted. Other chunks in front of
// the data are skipped and nothing after the data chunk is consulted.
package wav

package wav

import (
	"encoding/binary"
	"math"

	"github.com/go-audio/audio"
)

// sampleCodec converts between stored integers and normalised floats for one
// valid bit depth.
//
// Depths above 8 bits are signed with a full scale of 2^(bits-1). Depths of 8
// bits and below are unsigned around a midpoint: decoding divides by
// 0.5*(2^bits-1) and subtracts 1, encoding adds the 1 back before scaling,
// so the two offsets cancel and a decode/encode round trip is lossless.
type sampleCodec struct {
	bytesPerSample int
	scale          float64
	offset         float64
	min, max       int64
}

func newSampleCodec(validBits int) sampleCodec {
	c := sampleCodec{bytesPerSample: bytesPerSample(validBits)}

	if validBits > 8 {
		c.scale = math.Ldexp(1, validBits-1)
		c.max = int64(uint64(1)<<(validBits-1) - 1)
		c.min = -c.max - 1

		return c
	}

	c.offset = -1
	c.scale = 0.5 * float64(int64(1)<<validBits-1)
	c.max = int64(1)<<validBits - 1

	return c
}

func (c sampleCodec) toFloat(raw int64) float64 {
	return c.offset + float64(raw)/c.scale
}

// toInt rounds to the nearest code and clamps to the representable range.
// NaN maps to the zero-amplitude code.
func (c sampleCodec) toInt(value float64) int64 {
	if math.IsNaN(value) {
		value = 0
	}

	scaled := math.Round(c.scale * (value - c.offset))
	if scaled >= float64(c.max) {
		return c.max
	}

	if scaled <= float64(c.min) {
		return c.min
	}

	return int64(scaled)
}

// sampleDecodeFunc returns a function converting one little-endian stored
// sample into an integer. Note that 1-byte samples are unsigned, all wider
// samples are signed.
func sampleDecodeFunc(bytesPerSample int) func([]byte) int64 {
	switch bytesPerSample {
	case 1:
		return func(b []byte) int64 { return int64(b[0]) }
	case 2:
		return func(b []byte) int64 { return int64(int16(binary.LittleEndian.Uint16(b))) }
	case 3:
		return func(b []byte) int64 { return int64(audio.Int24LETo32(b)) }
	case 4:
		return func(b []byte) int64 { return int64(int32(binary.LittleEndian.Uint32(b))) }
	case 8:
		return func(b []byte) int64 { return int64(binary.LittleEndian.Uint64(b)) }
	default:
		return decodeSignedLE
	}
}

// sampleEncodeFunc is the inverse of sampleDecodeFunc; values are expected
// to be clamped already.
func sampleEncodeFunc(bytesPerSample int) func([]byte, int64) {
	switch bytesPerSample {
	case 1:
		return func(b []byte, v int64) { b[0] = byte(v) }
	case 2:
		return func(b []byte, v int64) { binary.LittleEndian.PutUint16(b, uint16(v)) }
	case 4:
		return func(b []byte, v int64) { binary.LittleEndian.PutUint32(b, uint32(v)) }
	case 8:
		return func(b []byte, v int64) { binary.LittleEndian.PutUint64(b, uint64(v)) }
	default:
		return encodeLE
	}
}

func decodeSignedLE(b []byte) int64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}

	shift := 64 - 8*uint(len(b))

	return int64(v<<shift) >> shift
}

func encodeLE(b []byte, v int64) {
	for i := range b {
		b[i] = byte(v)
		v >>= 8
	}
}

package wav

import (
	"fmt"

	"github.com/go-audio/riff"
)

// FmtChunk stores the parsed PCM fmt chunk.
type FmtChunk struct {
	FormatTag      uint16
	NumChannels    uint16
	SampleRate     uint32
	AvgBytesPerSec uint32
	BlockAlign     uint16
	BitsPerSample  uint16
}

func newFmtChunk(h Header) FmtChunk {
	return FmtChunk{
		FormatTag:      wavFormatPCM,
		NumChannels:    h.NumChans,
		SampleRate:     h.SampleRate,
		AvgBytesPerSec: uint32(h.AvgBytesPerSec()),
		BlockAlign:     uint16(h.BlockAlign()),
		BitsPerSample:  h.ValidBits,
	}
}

// decodeFmtChunk reads the 16-byte PCM descriptor and discards any extension
// bytes that follow it. size is the declared, unpadded chunk size.
func decodeFmtChunk(chunk *riff.Chunk, size uint32) (FmtChunk, error) {
	var f FmtChunk

	if size < pcmFmtChunkSize {
		return f, fmt.Errorf("%w: fmt chunk too small: %d bytes", ErrFormat, size)
	}

	if err := chunk.ReadLE(&f); err != nil {
		return f, readErr("fmt chunk", err)
	}

	chunk.Drain()

	return f, f.validate()
}

func (f FmtChunk) validate() error {
	if f.FormatTag != wavFormatPCM {
		return fmt.Errorf("%w: %d", ErrUnsupportedFormat, f.FormatTag)
	}

	if f.NumChannels == 0 {
		return fmt.Errorf("%w: zero channels", ErrFormat)
	}

	if f.BlockAlign == 0 {
		return fmt.Errorf("%w: zero block align", ErrFormat)
	}

	if f.BitsPerSample < minValidBits || f.BitsPerSample > maxValidBits {
		return fmt.Errorf("%w: valid bits out of range: %d", ErrFormat, f.BitsPerSample)
	}

	if want := bytesPerSample(int(f.BitsPerSample)) * int(f.NumChannels); want != int(f.BlockAlign) {
		return fmt.Errorf("%w: block align %d does not match %d channel(s) of %d bits",
			ErrFormat, f.BlockAlign, f.NumChannels, f.BitsPerSample)
	}

	return nil
}

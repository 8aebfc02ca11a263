package wav

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"
)

const (
	wavFormatPCM      = 1
	pcmFmtChunkSize   = 16
	stagingBufferSize = 4096
	minValidBits      = 2
	maxValidBits      = 64
	// RIFF type + fmt chunk header and body + data chunk header.
	riffOverhead = 4 + 8 + pcmFmtChunkSize + 8
)

var (
	// ErrFormat indicates a malformed container: bad magic tags, inconsistent
	// chunk sizes, missing chunks or truncated sample data.
	ErrFormat = errors.New("malformed wav container")
	// ErrUnsupportedFormat is returned for any compression code other than
	// uncompressed PCM. It wraps ErrFormat.
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported compression code", ErrFormat)
	// ErrClosed is returned by any read or write after Close.
	ErrClosed = errors.New("wav stream is closed")
	// ErrInvalidHeader is returned when header fields are out of range.
	ErrInvalidHeader = errors.New("invalid wav header")
	// ErrIO wraps failures of the underlying byte source or sink.
	ErrIO = errors.New("wav i/o failure")
	// ErrSizeMismatch is reported as a warning, never returned, when the RIFF
	// size of a file does not match its length on disk.
	ErrSizeMismatch = errors.New("riff size does not match file length")

	errNilBuffer = errors.New("can't write a nil buffer")
	errNilWriter = errors.New("can't write to a nil writer")
)

// Header describes a PCM stream. It is created once, when a Decoder has
// parsed the fmt and data chunks or when an Encoder is constructed, and does
// not change while frames are streamed.
type Header struct {
	NumChans   uint16
	SampleRate uint32
	// ValidBits is the declared bit depth of one sample, 2 to 64.
	ValidBits uint16
	NumFrames int64
}

// BytesPerSample returns the storage width of one sample.
func (h Header) BytesPerSample() int {
	return bytesPerSample(int(h.ValidBits))
}

// BlockAlign returns the number of bytes consumed by one frame.
func (h Header) BlockAlign() int {
	return h.BytesPerSample() * int(h.NumChans)
}

// DataSize returns the size of the data chunk payload, without padding.
func (h Header) DataSize() int64 {
	return int64(h.BlockAlign()) * h.NumFrames
}

// NeedsPadding reports whether a zero byte follows the data for word
// alignment.
func (h Header) NeedsPadding() bool {
	return h.DataSize()%2 == 1
}

// RiffSize returns the value of the RIFF chunk size field.
func (h Header) RiffSize() int64 {
	size := riffOverhead + h.DataSize()
	if h.NeedsPadding() {
		size++
	}

	return size
}

// AvgBytesPerSec returns the fmt chunk byte rate.
func (h Header) AvgBytesPerSec() int64 {
	return int64(h.SampleRate) * int64(h.BlockAlign())
}

// Duration returns the playing time of the stream.
func (h Header) Duration() time.Duration {
	if h.SampleRate == 0 {
		return 0
	}

	return time.Duration(float64(h.NumFrames) / float64(h.SampleRate) * float64(time.Second))
}

// Validate checks the header bounds required to encode a stream.
func (h Header) Validate() error {
	if h.NumChans < 1 {
		return fmt.Errorf("%w: channel count must be in [1, 65535]: %d", ErrInvalidHeader, h.NumChans)
	}

	if h.SampleRate == 0 {
		return fmt.Errorf("%w: sample rate must be positive", ErrInvalidHeader)
	}

	if h.ValidBits < minValidBits || h.ValidBits > maxValidBits {
		return fmt.Errorf("%w: valid bits must be in [%d, %d]: %d",
			ErrInvalidHeader, minValidBits, maxValidBits, h.ValidBits)
	}

	if h.BlockAlign() > math.MaxUint16 {
		return fmt.Errorf("%w: block align %d does not fit 16 bits", ErrInvalidHeader, h.BlockAlign())
	}

	if h.NumFrames < 0 {
		return fmt.Errorf("%w: frame count must not be negative: %d", ErrInvalidHeader, h.NumFrames)
	}

	if h.NumFrames > (math.MaxUint32-riffOverhead)/int64(h.BlockAlign()) {
		return fmt.Errorf("%w: %d frames exceed the 32-bit riff size", ErrInvalidHeader, h.NumFrames)
	}

	if h.AvgBytesPerSec() > math.MaxUint32 {
		return fmt.Errorf("%w: byte rate overflows: %d", ErrInvalidHeader, h.AvgBytesPerSec())
	}

	return nil
}

// String implements the Stringer interface.
func (h Header) String() string {
	return fmt.Sprintf("%d channel(s), %d frames @ %d Hz / %d bits, duration: %s",
		h.NumChans, h.NumFrames, h.SampleRate, h.ValidBits, h.Duration())
}

func bytesPerSample(bitDepth int) int {
	return (bitDepth-1)/8 + 1
}

// readErr classifies a failed read: running out of bytes means the
// container is malformed, anything else is a source failure.
func readErr(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated %s", ErrFormat, what)
	}

	return fmt.Errorf("%w: reading %s: %w", ErrIO, what, err)
}

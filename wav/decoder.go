package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/riff"
)

type ioState int

const (
	stateUnopened ioState = iota
	stateReading
	stateWriting
	stateClosed
)

func (s ioState) String() string {
	switch s {
	case stateUnopened:
		return "unopened"
	case stateReading:
		return "reading"
	case stateWriting:
		return "writing"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// maxEmptyReads bounds how often a source may return no bytes and no error
// before the decoder gives up.
const maxEmptyReads = 100

// Decoder streams PCM frames out of a WAVE container.
// Note that the reader is consumed strictly forward, so any io.Reader works.
type Decoder struct {
	r      io.Reader
	closer io.Closer
	parser *riff.Parser

	// FmtChunk is the descriptor found by ReadHeader.
	FmtChunk FmtChunk

	state      ioState
	err        error
	header     Header
	codec      sampleCodec
	decodeF    func([]byte) int64
	data       io.Reader
	buf        []byte
	bufPos     int
	bufLen     int
	framesRead int64
	warnings   []error
}

// NewDecoder creates a decoder reading from r. The header is parsed lazily on
// the first ReadHeader or ReadFrames call.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:      r,
		parser: riff.New(r),
	}
}

// OpenFile opens a WAVE file and parses its header. The RIFF size is checked
// against the file length; a difference is recorded in Warnings, not
// returned.
func OpenFile(path string) (*Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %w", ErrIO, path, err)
	}

	d := NewDecoder(f)
	d.closer = f

	if err := d.ReadHeader(); err != nil {
		f.Close()
		return nil, err
	}

	if info, err := f.Stat(); err == nil {
		if want := d.RiffSize() + 8; want != info.Size() {
			d.warnings = append(d.warnings, fmt.Errorf("%w: header declares %d bytes, file has %d",
				ErrSizeMismatch, want, info.Size()))
		}
	}

	return d, nil
}

// ReadHeader parses the RIFF header and scans chunks up to the start of the
// sample data. It is safe to call multiple times.
func (d *Decoder) ReadHeader() error {
	switch {
	case d.state == stateClosed:
		return ErrClosed
	case d.state == stateReading:
		return nil
	case d.err != nil:
		return d.err
	}

	d.err = d.readHeader()
	if d.err != nil {
		return d.err
	}

	d.state = stateReading

	return nil
}

func (d *Decoder) readHeader() error {
	id, size, err := d.parser.IDnSize()
	if err != nil {
		return readErr("riff header", err)
	}

	if id != riff.RiffID {
		return fmt.Errorf("%w: expected RIFF tag, got %q", ErrFormat, id[:])
	}

	var format [4]byte
	if _, err := io.ReadFull(d.r, format[:]); err != nil {
		return readErr("riff type", err)
	}

	if format != riff.WavFormatID {
		return fmt.Errorf("%w: expected WAVE type, got %q", ErrFormat, format[:])
	}

	d.parser.ID = id
	d.parser.Size = size
	d.parser.Format = format

	fmtSeen := false

	for {
		id, size, err := d.readChunkHeader()
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: reached end of stream before data chunk", ErrFormat)
		}

		if err != nil {
			return readErr("chunk header", err)
		}

		switch id {
		case riff.FmtID:
			f, err := decodeFmtChunk(d.newChunk(id, size), size)
			if err != nil {
				return err
			}

			d.FmtChunk = f
			fmtSeen = true
		case riff.DataFormatID:
			if !fmtSeen {
				return fmt.Errorf("%w: data chunk before fmt chunk", ErrFormat)
			}

			return d.startData(size)
		default:
			d.newChunk(id, size).Drain()
		}
	}
}

// readChunkHeader reads an 8-byte chunk ID and size pair. A clean end of
// stream is reported as io.EOF.
func (d *Decoder) readChunkHeader() ([4]byte, uint32, error) {
	var (
		hdr [8]byte
		id  [4]byte
	)

	if _, err := io.ReadFull(d.r, hdr[:]); err != nil {
		return id, 0, err
	}

	copy(id[:], hdr[:4])

	return id, binary.LittleEndian.Uint32(hdr[4:]), nil
}

// newChunk wraps the next size bytes of the stream, including the alignment
// byte of odd-sized chunks.
func (d *Decoder) newChunk(id [4]byte, size uint32) *riff.Chunk {
	padded := int64(size) + int64(size%2)

	return &riff.Chunk{
		ID:   id,
		Size: int(padded),
		R:    io.LimitReader(d.r, padded),
	}
}

func (d *Decoder) startData(size uint32) error {
	f := d.FmtChunk
	if size%uint32(f.BlockAlign) != 0 {
		return fmt.Errorf("%w: data size %d is not a multiple of block align %d",
			ErrFormat, size, f.BlockAlign)
	}

	d.header = Header{
		NumChans:   f.NumChannels,
		SampleRate: f.SampleRate,
		ValidBits:  f.BitsPerSample,
		NumFrames:  int64(size / uint32(f.BlockAlign)),
	}
	d.parser.NumChannels = f.NumChannels
	d.parser.SampleRate = f.SampleRate
	d.parser.AvgBytesPerSec = f.AvgBytesPerSec
	d.parser.BlockAlign = f.BlockAlign
	d.parser.BitsPerSample = f.BitsPerSample
	d.parser.WavAudioFormat = f.FormatTag

	d.codec = newSampleCodec(int(f.BitsPerSample))
	d.decodeF = sampleDecodeFunc(d.codec.bytesPerSample)
	d.data = io.LimitReader(d.r, int64(size))
	d.buf = make([]byte, stagingBufferSize)

	return nil
}

// ReadFrames decodes up to n frames into dst, which is filled interleaved
// and must hold n*NumChans values; n is reduced to fit. It returns the number
// of frames read, 0 once every declared frame has been consumed.
func (d *Decoder) ReadFrames(dst []float64, n int) (int, error) {
	if err := d.ReadHeader(); err != nil {
		return 0, err
	}

	chans := int(d.header.NumChans)
	n = min(n, len(dst)/chans)

	if rem := d.FramesRemaining(); int64(n) > rem {
		n = int(rem)
	}

	bps := d.codec.bytesPerSample

	for frame := 0; frame < n; frame++ {
		for c := range chans {
			if err := d.fill(bps); err != nil {
				return frame, err
			}

			raw := d.decodeF(d.buf[d.bufPos : d.bufPos+bps])
			d.bufPos += bps
			dst[frame*chans+c] = d.codec.toFloat(raw)
		}

		d.framesRead++
	}

	return max(n, 0), nil
}

// fill makes sure at least need bytes are staged. Samples may straddle two
// refills, so leftover bytes are moved to the front first.
func (d *Decoder) fill(need int) error {
	if d.bufLen-d.bufPos >= need {
		return nil
	}

	d.bufLen = copy(d.buf, d.buf[d.bufPos:d.bufLen])
	d.bufPos = 0

	empty := 0

	for d.bufLen < need {
		n, err := d.data.Read(d.buf[d.bufLen:])
		d.bufLen += n

		if d.bufLen >= need {
			return nil
		}

		if err != nil {
			return readErr("sample data", err)
		}

		if n == 0 {
			empty++
			if empty >= maxEmptyReads {
				return readErr("sample data", io.ErrNoProgress)
			}
		}
	}

	return nil
}

// FullBuffer reads every remaining frame into a single buffer. No partial
// buffer is returned on failure.
func (d *Decoder) FullBuffer() (*audio.FloatBuffer, error) {
	if err := d.ReadHeader(); err != nil {
		return nil, err
	}

	chans := int(d.header.NumChans)

	// One block holds about a staging buffer's worth of frames, at least one.
	blockFrames := int(min(int64(stagingBufferSize/d.header.BlockAlign()), d.FramesRemaining()))
	blockFrames = max(blockFrames, 1)
	block := make([]float64, blockFrames*chans)

	buf := &audio.FloatBuffer{
		Format: d.Format(),
		Data:   make([]float64, 0, min(d.FramesRemaining(), int64(blockFrames)*16)*int64(chans)),
	}

	for {
		n, err := d.ReadFrames(block, blockFrames)
		if err != nil {
			return nil, err
		}

		if n == 0 {
			break
		}

		buf.Data = append(buf.Data, block[:n*chans]...)
	}

	return buf, nil
}

// FramesRemaining returns the number of declared frames not read yet.
func (d *Decoder) FramesRemaining() int64 {
	if d == nil || d.state != stateReading {
		return 0
	}

	return d.header.NumFrames - d.framesRead
}

// Header returns the stream header. It is the zero value until ReadHeader
// succeeded.
func (d *Decoder) Header() Header {
	return d.header
}

// Format returns the audio format of the decoded content.
func (d *Decoder) Format() *audio.Format {
	if d == nil {
		return nil
	}

	return &audio.Format{
		NumChannels: int(d.header.NumChans),
		SampleRate:  int(d.header.SampleRate),
	}
}

// RiffSize returns the size declared in the RIFF header.
func (d *Decoder) RiffSize() int64 {
	return int64(d.parser.Size)
}

// Warnings returns the non-fatal problems found while opening the stream.
func (d *Decoder) Warnings() []error {
	return d.warnings
}

// Close releases the underlying file, if the decoder owns one. Closing twice
// is a no-op.
func (d *Decoder) Close() error {
	if d.state == stateClosed {
		return nil
	}

	d.state = stateClosed

	if d.closer != nil {
		if err := d.closer.Close(); err != nil {
			return fmt.Errorf("%w: failed to close: %w", ErrIO, err)
		}
	}

	return nil
}

// String implements the Stringer interface.
func (d *Decoder) String() string {
	return fmt.Sprintf("state: %s, %s, block align: %d, bytes per sample: %d, frames remaining: %d",
		d.state, d.header, d.header.BlockAlign(), d.header.BytesPerSample(), d.FramesRemaining())
}

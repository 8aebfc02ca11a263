package wav

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/riff"
)

// Encoder writes PCM frames into a WAVE container. Every header field is
// derived from the Header given at construction and written before the first
// sample, so the writer never needs to seek.
type Encoder struct {
	w      io.Writer
	closer io.Closer

	// FmtChunk is the descriptor written to the stream.
	FmtChunk FmtChunk

	WrittenBytes int

	state         ioState
	header        Header
	codec         sampleCodec
	encodeF       func([]byte, int64)
	buf           []byte
	bufPos        int
	framesWritten int64
}

// NewEncoder validates h and writes the RIFF, fmt and data chunk headers
// to w.
func NewEncoder(w io.Writer, h Header) (*Encoder, error) {
	if w == nil {
		return nil, errNilWriter
	}

	if err := h.Validate(); err != nil {
		return nil, err
	}

	codec := newSampleCodec(int(h.ValidBits))
	e := &Encoder{
		w:        w,
		FmtChunk: newFmtChunk(h),
		header:   h,
		codec:    codec,
		encodeF:  sampleEncodeFunc(codec.bytesPerSample),
		buf:      make([]byte, stagingBufferSize),
	}

	if err := e.writeHeader(); err != nil {
		return nil, err
	}

	e.state = stateWriting

	return e, nil
}

// CreateFile creates (or truncates) path and returns an encoder owning the
// file. The file is removed again if the header can't be written.
func CreateFile(path string, h Header) (*Encoder, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create %s: %w", ErrIO, path, err)
	}

	e, err := NewEncoder(f, h)
	if err != nil {
		f.Close()
		os.Remove(path)

		return nil, err
	}

	e.closer = f

	return e, nil
}

// AddLE serializes and adds the passed value using little endian.
func (e *Encoder) AddLE(src any) error {
	e.WrittenBytes += binary.Size(src)

	err := binary.Write(e.w, binary.LittleEndian, src)
	if err != nil {
		return fmt.Errorf("%w: failed to write little endian: %w", ErrIO, err)
	}

	return nil
}

func (e *Encoder) writeHeader() error {
	err := e.AddLE(riff.RiffID)
	if err != nil {
		return err
	}

	err = e.AddLE(uint32(e.header.RiffSize()))
	if err != nil {
		return fmt.Errorf("error encoding the riff size - %w", err)
	}

	err = e.AddLE(riff.WavFormatID)
	if err != nil {
		return err
	}

	err = e.AddLE(riff.FmtID)
	if err != nil {
		return err
	}

	err = e.AddLE(uint32(pcmFmtChunkSize))
	if err != nil {
		return err
	}

	err = e.AddLE(e.FmtChunk)
	if err != nil {
		return fmt.Errorf("error encoding the fmt chunk - %w", err)
	}

	err = e.AddLE(riff.DataFormatID)
	if err != nil {
		return fmt.Errorf("error encoding sound header %w", err)
	}

	err = e.AddLE(uint32(e.header.DataSize()))
	if err != nil {
		return fmt.Errorf("%w when writing wav data chunk size header", err)
	}

	return nil
}

// WriteFrames encodes up to n interleaved frames from src. Values outside
// [-1, 1] are clamped. Writing stops silently once the declared frame count
// is reached; the number of frames accepted is returned.
func (e *Encoder) WriteFrames(src []float64, n int) (int, error) {
	if e.state == stateClosed {
		return 0, ErrClosed
	}

	chans := int(e.header.NumChans)
	n = min(n, len(src)/chans)

	if rem := e.FramesRemaining(); int64(n) > rem {
		n = int(rem)
	}

	bps := e.codec.bytesPerSample

	for frame := 0; frame < n; frame++ {
		for c := range chans {
			if e.bufPos+bps > len(e.buf) {
				if err := e.flush(); err != nil {
					return frame, err
				}
			}

			e.encodeF(e.buf[e.bufPos:e.bufPos+bps], e.codec.toInt(src[frame*chans+c]))
			e.bufPos += bps
		}

		e.framesWritten++
	}

	return max(n, 0), nil
}

// Write encodes a whole buffer. The buffer's channel count must match the
// header.
func (e *Encoder) Write(buf *audio.FloatBuffer) error {
	if buf == nil {
		return errNilBuffer
	}

	if buf.Format != nil && buf.Format.NumChannels != int(e.header.NumChans) {
		return fmt.Errorf("%w: buffer has %d channel(s), stream has %d",
			ErrInvalidHeader, buf.Format.NumChannels, e.header.NumChans)
	}

	_, err := e.WriteFrames(buf.Data, len(buf.Data)/int(e.header.NumChans))

	return err
}

// FramesRemaining returns how many frames may still be written.
func (e *Encoder) FramesRemaining() int64 {
	return e.header.NumFrames - e.framesWritten
}

// Header returns the header the encoder was created with.
func (e *Encoder) Header() Header {
	return e.header
}

func (e *Encoder) flush() error {
	if e.bufPos == 0 {
		return nil
	}

	n, err := e.w.Write(e.buf[:e.bufPos])
	e.WrittenBytes += n
	e.bufPos = 0

	if err != nil {
		return fmt.Errorf("%w: failed to write buffer: %w", ErrIO, err)
	}

	return nil
}

// Close flushes staged samples, writes the alignment byte when the data size
// is odd and closes the file if the encoder owns one. Closing twice is a
// no-op.
func (e *Encoder) Close() error {
	if e == nil || e.state == stateClosed {
		return nil
	}

	e.state = stateClosed

	err := e.flush()
	if err == nil && e.header.NeedsPadding() {
		err = e.AddLE(uint8(0))
	}

	if e.closer == nil {
		return err
	}

	if f, ok := e.closer.(*os.File); ok && err == nil {
		if syncErr := f.Sync(); syncErr != nil {
			err = fmt.Errorf("%w: failed to sync: %w", ErrIO, syncErr)
		}
	}

	if closeErr := e.closer.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("%w: failed to close: %w", ErrIO, closeErr)
	}

	return err
}

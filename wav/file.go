package wav

import (
	"fmt"
	"io"

	"github.com/go-audio/audio"
)

// Decode reads a whole WAVE stream.
func Decode(r io.Reader) (Header, *audio.FloatBuffer, error) {
	d := NewDecoder(r)

	buf, err := d.FullBuffer()
	if err != nil {
		return Header{}, nil, err
	}

	return d.Header(), buf, nil
}

// DecodeFile reads a whole WAVE file.
func DecodeFile(path string) (Header, *audio.FloatBuffer, error) {
	d, err := OpenFile(path)
	if err != nil {
		return Header{}, nil, err
	}
	defer d.Close()

	buf, err := d.FullBuffer()
	if err != nil {
		return Header{}, nil, err
	}

	return d.Header(), buf, nil
}

// Encode writes buf as a WAVE stream. NumFrames is taken from the buffer;
// the remaining fields come from h.
func Encode(w io.Writer, h Header, buf *audio.FloatBuffer) error {
	if buf == nil {
		return errNilBuffer
	}

	if h.NumChans > 0 {
		h.NumFrames = int64(len(buf.Data) / int(h.NumChans))
	}

	e, err := NewEncoder(w, h)
	if err != nil {
		return err
	}

	if err := e.Write(buf); err != nil {
		return err
	}

	return e.Close()
}

// EncodeFile writes buf to path. See Encode.
func EncodeFile(path string, h Header, buf *audio.FloatBuffer) error {
	if buf == nil {
		return errNilBuffer
	}

	if h.NumChans > 0 {
		h.NumFrames = int64(len(buf.Data) / int(h.NumChans))
	}

	e, err := CreateFile(path, h)
	if err != nil {
		return err
	}

	if err := e.Write(buf); err != nil {
		e.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	return e.Close()
}

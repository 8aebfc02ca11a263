package wav

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"testing"
)

// buildWAV assembles a container by hand so decoder tests don't depend on
// the encoder. extra chunks are inserted between fmt and data.
func buildWAV(formatTag, chans uint16, rate uint32, bits uint16, data []byte, extra ...testChunk) []byte {
	bps := bytesPerSample(int(bits))
	blockAlign := uint16(bps * int(chans))

	var body bytes.Buffer

	body.WriteString("WAVE")
	body.WriteString("fmt ")
	binary.Write(&body, binary.LittleEndian, uint32(16))
	binary.Write(&body, binary.LittleEndian, formatTag)
	binary.Write(&body, binary.LittleEndian, chans)
	binary.Write(&body, binary.LittleEndian, rate)
	binary.Write(&body, binary.LittleEndian, rate*uint32(blockAlign))
	binary.Write(&body, binary.LittleEndian, blockAlign)
	binary.Write(&body, binary.LittleEndian, bits)

	for _, c := range extra {
		writeTestChunk(&body, c)
	}

	writeTestChunk(&body, testChunk{id: "data", size: uint32(len(data)), data: data})

	var out bytes.Buffer

	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())

	return out.Bytes()
}

func writeTestChunk(buf *bytes.Buffer, c testChunk) {
	buf.WriteString(c.id)
	binary.Write(buf, binary.LittleEndian, c.size)
	buf.Write(c.data)

	if c.size%2 == 1 {
		buf.WriteByte(0)
	}
}

type testChunk struct {
	id   string
	size uint32
	data []byte
}

// rawSamples produces a deterministic sequence of valid stored integers
// for the given bit depth, including both extremes.
func rawSamples(bits, count int) []int64 {
	var lo, hi int64
	if bits > 8 {
		hi = int64(uint64(1)<<(bits-1) - 1)
		lo = -hi - 1
	} else {
		hi = int64(1)<<bits - 1
	}

	out := make([]int64, count)
	state := uint64(0x9E3779B97F4A7C15)

	for i := range out {
		state = state*6364136223846793005 + 1442695040888963407

		switch i {
		case 0:
			out[i] = lo
		case 1:
			out[i] = hi
		default:
			span := uint64(hi - lo)
			if span == math.MaxUint64 {
				out[i] = int64(state)
			} else {
				out[i] = lo + int64(state%(span+1))
			}
		}
	}

	return out
}

func packSamples(bits int, samples []int64) []byte {
	bps := bytesPerSample(bits)
	out := make([]byte, len(samples)*bps)

	for i, v := range samples {
		encodeLE(out[i*bps:(i+1)*bps], v)
	}

	return out
}

func float64ApproxEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

// trickleReader hands out at most one byte per call and reports an empty
// read every other call, like a slow pipe.
type trickleReader struct {
	data  []byte
	calls int
}

func (r *trickleReader) Read(p []byte) (int, error) {
	r.calls++
	if r.calls%2 == 0 {
		return 0, nil
	}

	if len(r.data) == 0 {
		return 0, io.EOF
	}

	if len(p) == 0 {
		return 0, nil
	}

	p[0] = r.data[0]
	r.data = r.data[1:]

	return 1, nil
}

func mustDecode(t *testing.T, data []byte) (Header, []float64) {
	t.Helper()

	h, buf, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	return h, buf.Data
}

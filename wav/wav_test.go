package wav

import (
	"errors"
	"testing"
	"time"
)

func TestHeaderDerivedSizes(t *testing.T) {
	tests := []struct {
		name           string
		header         Header
		blockAlign     int
		dataSize       int64
		padding        bool
		riffSize       int64
		avgBytesPerSec int64
	}{
		{"mono 16bit", Header{1, 8000, 16, 4}, 2, 8, false, 44, 16000},
		{"mono 8bit odd", Header{1, 8000, 8, 3}, 1, 3, true, 40, 8000},
		{"stereo 24bit", Header{2, 48000, 24, 10}, 6, 60, false, 96, 288000},
		{"stereo 12bit", Header{2, 44100, 12, 1}, 4, 4, false, 40, 176400},
		{"mono 64bit empty", Header{1, 1000, 64, 0}, 8, 0, false, 36, 8000},
		{"3 channel 7bit odd", Header{3, 100, 7, 1}, 3, 3, true, 40, 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := tt.header
			if got := h.BlockAlign(); got != tt.blockAlign {
				t.Fatalf("BlockAlign()=%d, want %d", got, tt.blockAlign)
			}

			if got := h.DataSize(); got != tt.dataSize {
				t.Fatalf("DataSize()=%d, want %d", got, tt.dataSize)
			}

			if got := h.NeedsPadding(); got != tt.padding {
				t.Fatalf("NeedsPadding()=%t, want %t", got, tt.padding)
			}

			if got := h.RiffSize(); got != tt.riffSize {
				t.Fatalf("RiffSize()=%d, want %d", got, tt.riffSize)
			}

			if got := h.AvgBytesPerSec(); got != tt.avgBytesPerSec {
				t.Fatalf("AvgBytesPerSec()=%d, want %d", got, tt.avgBytesPerSec)
			}
		})
	}
}

func TestHeaderDuration(t *testing.T) {
	h := Header{NumChans: 2, SampleRate: 8000, ValidBits: 16, NumFrames: 4000}
	if got := h.Duration(); got != 500*time.Millisecond {
		t.Fatalf("Duration()=%s, want 500ms", got)
	}

	if got := (Header{}).Duration(); got != 0 {
		t.Fatalf("zero header Duration()=%s, want 0", got)
	}
}

func TestHeaderValidate(t *testing.T) {
	tests := []struct {
		name    string
		header  Header
		wantErr bool
	}{
		{"valid", Header{1, 8000, 16, 4}, false},
		{"min bits", Header{1, 8000, 2, 4}, false},
		{"max bits", Header{1, 8000, 64, 0}, false},
		{"max channels", Header{65535, 8000, 8, 0}, false},
		{"widest 64-bit frame", Header{8191, 8000, 64, 0}, false},
		{"zero channels", Header{0, 8000, 16, 4}, true},
		{"zero sample rate", Header{1, 0, 16, 4}, true},
		{"one bit", Header{1, 8000, 1, 4}, true},
		{"65 bits", Header{1, 8000, 65, 4}, true},
		{"negative frames", Header{1, 8000, 16, -1}, true},
		{"riff size overflow", Header{2, 8000, 16, 1 << 30}, true},
		{"byte rate overflow", Header{8191, 4000000000, 64, 0}, true},
		{"block align overflow", Header{40000, 8000, 16, 0}, true},
		{"block align overflow at 64 bits", Header{8192, 8000, 64, 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.header.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidHeader) {
				t.Fatalf("Validate()=%v, want ErrInvalidHeader", err)
			}

			if !tt.wantErr && err != nil {
				t.Fatalf("Validate()=%v, want nil", err)
			}
		})
	}
}

func TestUnsupportedFormatIsFormatError(t *testing.T) {
	if !errors.Is(ErrUnsupportedFormat, ErrFormat) {
		t.Fatal("ErrUnsupportedFormat should wrap ErrFormat")
	}
}

package pipeline

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/wavfx/effectchain"
	"github.com/cwbudde/wavfx/effects"
	"github.com/cwbudde/wavfx/relocate"
	"github.com/cwbudde/wavfx/wav"
)

var toneHeader = wav.Header{NumChans: 1, SampleRate: 8000, ValidBits: 16}

func tone(frames int, amp float64) *audio.FloatBuffer {
	data := make([]float64, frames)
	for i := range data {
		data[i] = amp * math.Sin(2*math.Pi*440*float64(i)/8000)
	}

	return &audio.FloatBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: 8000},
		Data:   data,
	}
}

func writeTone(t *testing.T, path string, amp float64) []byte {
	t.Helper()

	require.NoError(t, wav.EncodeFile(path, toneHeader, tone(800, amp)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return data
}

func doubling(t *testing.T) effectchain.Chain {
	t.Helper()

	c := effectchain.Default()
	require.NoError(t, c.SetParam(effects.Drive, 50))
	require.NoError(t, c.SetMix(effects.Drive, 100))

	return c
}

func newProcessor(t *testing.T, cfg Config) *Processor {
	t.Helper()

	if cfg.ScratchDir == "" {
		cfg.ScratchDir = filepath.Join(t.TempDir(), "scratch")
	}

	p, err := New(cfg)
	require.NoError(t, err)

	return p
}

func scratchFiles(t *testing.T, p *Processor) []string {
	t.Helper()

	entries, err := os.ReadDir(p.ScratchDir())
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}

	return names
}

func TestProcessStream(t *testing.T) {
	var in bytes.Buffer
	require.NoError(t, wav.Encode(&in, toneHeader, tone(800, 0.25)))

	p := newProcessor(t, Config{})

	var out bytes.Buffer
	res, err := p.Process(context.Background(), &in, &out, doubling(t))
	require.NoError(t, err)

	assert.Equal(t, int64(800), res.Header.NumFrames)
	assert.InDelta(t, 0.5, res.Stats.Peak, 1e-3)
	assert.Zero(t, res.Stats.Clipped)

	h, buf, err := wav.Decode(&out)
	require.NoError(t, err)
	assert.Equal(t, toneHeader.SampleRate, h.SampleRate)
	assert.Equal(t, int64(800), h.NumFrames)

	want := tone(800, 0.5).Data
	for i := range want {
		require.InDelta(t, want[i], buf.Data[i], 2.0/32768)
	}
}

func TestProcessRejectsMalformedInput(t *testing.T) {
	p := newProcessor(t, Config{})

	var out bytes.Buffer
	_, err := p.Process(context.Background(), strings.NewReader("RIFX"), &out, effectchain.Default())
	require.ErrorIs(t, err, wav.ErrFormat)
	assert.Zero(t, out.Len())
}

func TestProcessCancelled(t *testing.T) {
	var in bytes.Buffer
	require.NoError(t, wav.Encode(&in, toneHeader, tone(10, 0.1)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	_, err := newProcessor(t, Config{}).Process(ctx, &in, &out, effectchain.Default())
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, out.Len())
}

func TestPreview(t *testing.T) {
	src := filepath.Join(t.TempDir(), "take.wav")
	orig := writeTone(t, src, 0.25)

	p := newProcessor(t, Config{})

	res, err := p.Preview(context.Background(), src, doubling(t))
	require.NoError(t, err)

	assert.Equal(t, p.ScratchDir(), filepath.Dir(res.Path))
	assert.True(t, strings.HasPrefix(filepath.Base(res.Path), "temp_preview_"))

	_, buf, err := wav.DecodeFile(res.Path)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, res.Stats.Peak, 1e-3)
	assert.Len(t, buf.Data, 800)

	current, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, orig, current)
}

func TestApply(t *testing.T) {
	src := filepath.Join(t.TempDir(), "take.wav")
	writeTone(t, src, 0.25)

	p := newProcessor(t, Config{})

	res, err := p.Apply(context.Background(), src, doubling(t))
	require.NoError(t, err)
	assert.Equal(t, src, res.Path)

	_, buf, err := wav.DecodeFile(src)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, peakOf(buf.Data), 1e-3)

	assert.Empty(t, scratchFiles(t, p))
}

func peakOf(data []float64) float64 {
	peak := 0.0
	for _, x := range data {
		peak = math.Max(peak, math.Abs(x))
	}

	return peak
}

func TestApplyMalformedSourceIsUntouched(t *testing.T) {
	src := filepath.Join(t.TempDir(), "broken.wav")
	garbage := []byte("RIFF\x04\x00\x00\x00WAVE")
	require.NoError(t, os.WriteFile(src, garbage, 0o644))

	p := newProcessor(t, Config{})

	_, err := p.Apply(context.Background(), src, doubling(t))
	require.ErrorIs(t, err, wav.ErrFormat)

	current, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, garbage, current)
	assert.Empty(t, scratchFiles(t, p))
}

type failingRelocator struct {
	relocate.Local
}

func (failingRelocator) MoveOut(context.Context, string, string) relocate.Status {
	return relocate.Failure("Command failed with code 1")
}

func TestApplyRelocationFailure(t *testing.T) {
	src := filepath.Join(t.TempDir(), "take.wav")
	orig := writeTone(t, src, 0.25)

	p := newProcessor(t, Config{Relocator: failingRelocator{}})

	_, err := p.Apply(context.Background(), src, doubling(t))
	require.ErrorIs(t, err, ErrRelocation)

	current, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, orig, current)
	assert.Empty(t, scratchFiles(t, p))
}

type recordingRelocator struct {
	mu    sync.Mutex
	calls []string
	relocate.Local
}

func (r *recordingRelocator) CopyIn(ctx context.Context, src, dst string) relocate.Status {
	r.record("copy " + filepath.Base(src))
	return r.Local.CopyIn(ctx, src, dst)
}

func (r *recordingRelocator) MoveOut(ctx context.Context, src, dst string) relocate.Status {
	r.record("move " + filepath.Base(dst))
	return r.Local.MoveOut(ctx, src, dst)
}

func (r *recordingRelocator) record(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, call)
}

func TestApplyWithCopyIn(t *testing.T) {
	src := filepath.Join(t.TempDir(), "take.wav")
	writeTone(t, src, 0.25)

	rec := &recordingRelocator{}
	p := newProcessor(t, Config{Relocator: rec, CopyIn: true})

	_, err := p.Apply(context.Background(), src, doubling(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"copy take.wav", "move take.wav"}, rec.calls)
	assert.Empty(t, scratchFiles(t, p))
}

func TestCopyInFailure(t *testing.T) {
	p := newProcessor(t, Config{CopyIn: true})

	_, err := p.Preview(context.Background(), filepath.Join(t.TempDir(), "missing.wav"), doubling(t))
	require.ErrorIs(t, err, ErrRelocation)
	assert.Empty(t, scratchFiles(t, p))
}

func TestNewRejectsNegativeConcurrency(t *testing.T) {
	_, err := New(Config{ScratchDir: t.TempDir(), MaxConcurrent: -1})
	require.Error(t, err)
}

func TestMaxConcurrentLimitsJobs(t *testing.T) {
	src := filepath.Join(t.TempDir(), "take.wav")
	input := writeTone(t, src, 0.25)

	gate := newGatedRelocator()
	p := newProcessor(t, Config{Relocator: gate, MaxConcurrent: 1})

	c := doubling(t)
	applied := make(chan error, 1)
	go func() {
		_, err := p.Apply(context.Background(), src, c)
		applied <- err
	}()
	<-gate.entered

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.Process(ctx, bytes.NewReader(input), &bytes.Buffer{}, c)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(gate.release)
	require.NoError(t, <-applied)

	_, err = p.Process(context.Background(), bytes.NewReader(input), &bytes.Buffer{}, c)
	require.NoError(t, err)
}

func TestMeasure(t *testing.T) {
	s := measure([]float64{0.5, -1.5, 1, 2})
	assert.Equal(t, Stats{Peak: 2, Clipped: 2}, s)
	assert.Equal(t, Stats{}, measure(nil))
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "take.wav")
	writeTone(t, src, 0.25)

	p := newProcessor(t, Config{Metrics: m})

	_, err = p.Apply(context.Background(), src, doubling(t))
	require.NoError(t, err)

	_, err = p.Apply(context.Background(), filepath.Join(t.TempDir(), "missing.wav"), doubling(t))
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobsTotal.WithLabelValues("apply", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobsTotal.WithLabelValues("apply", "error")))
	assert.Equal(t, 800.0, testutil.ToFloat64(m.framesProcessed))
	assert.Equal(t, 1, testutil.CollectAndCount(m.jobDuration))

	_, err = NewMetrics(reg)
	require.Error(t, err, "duplicate registration")
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.observe(OpApply, time.Now(), 10, nil) })
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "process", OpProcess.String())
	assert.Equal(t, "preview", OpPreview.String())
	assert.Equal(t, "apply", OpApply.String())
	assert.Equal(t, "Op(9)", Op(9).String())
}

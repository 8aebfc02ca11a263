// Package pipeline runs effect chains over WAVE files and streams.
//
// A Processor decodes the whole input, applies a chain and encodes the
// result with the input's format. Preview leaves the result in the scratch
// directory; Apply relocates it over the source once it was written
// completely, so a failed job never touches the source file.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	vecmath "github.com/cwbudde/algo-vecmath"
	"github.com/go-audio/audio"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/cwbudde/wavfx/effectchain"
	"github.com/cwbudde/wavfx/relocate"
	"github.com/cwbudde/wavfx/wav"
)

const (
	previewPrefix = "temp_preview"
	appliedPrefix = "applied"
	sourcePrefix  = "source"

	timestampLayout = "20060102_150405"

	defaultMaxConcurrent = 4
)

// ErrRelocation is returned when the result could not be moved over the
// source or the source could not be copied in.
var ErrRelocation = relocate.ErrRelocation

// Op names a processing operation.
type Op int

const (
	OpProcess Op = iota
	OpPreview
	OpApply
)

func (o Op) String() string {
	switch o {
	case OpProcess:
		return "process"
	case OpPreview:
		return "preview"
	case OpApply:
		return "apply"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// Config configures a Processor.
type Config struct {
	// ScratchDir receives previews and intermediate files. Empty means
	// os.TempDir().
	ScratchDir string
	// Relocator moves applied results over the source. Nil means
	// relocate.Local.
	Relocator relocate.Relocator
	// CopyIn copies the source into the scratch directory through the
	// Relocator before decoding it.
	CopyIn bool
	// MaxConcurrent limits how many jobs decode, process and encode at the
	// same time. Zero means 4.
	MaxConcurrent int
	Logger        *slog.Logger
	Metrics       *Metrics
}

// Stats summarises the processed samples.
type Stats struct {
	Peak    float64
	Clipped int
}

// Result describes a finished job.
type Result struct {
	Header wav.Header
	Stats  Stats
	// Path is the written file: the preview for Preview, the source for
	// Apply, empty for Process.
	Path string
}

// Processor runs chains. It is safe for concurrent use; every call works
// on its own buffers and scratch files.
type Processor struct {
	scratchDir string
	relocator  relocate.Relocator
	copyIn     bool
	logger     *slog.Logger
	metrics    *Metrics
	sem        *semaphore.Weighted
	now        func() time.Time
}

// New creates a Processor and makes sure the scratch directory exists.
func New(cfg Config) (*Processor, error) {
	if cfg.MaxConcurrent < 0 {
		return nil, fmt.Errorf("invalid processor config: MaxConcurrent must be non-negative, got %d", cfg.MaxConcurrent)
	}

	if cfg.MaxConcurrent == 0 {
		cfg.MaxConcurrent = defaultMaxConcurrent
	}

	p := &Processor{
		scratchDir: cfg.ScratchDir,
		relocator:  cfg.Relocator,
		copyIn:     cfg.CopyIn,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		sem:        semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		now:        time.Now,
	}

	if p.scratchDir == "" {
		p.scratchDir = os.TempDir()
	}

	if p.relocator == nil {
		p.relocator = relocate.Local{}
	}

	if p.logger == nil {
		p.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if err := os.MkdirAll(p.scratchDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}

	return p, nil
}

// ScratchDir returns the directory used for intermediate files.
func (p *Processor) ScratchDir() string {
	return p.scratchDir
}

// Process decodes r, applies c and encodes the result to w.
func (p *Processor) Process(ctx context.Context, r io.Reader, w io.Writer, c effectchain.Chain) (res Result, err error) {
	start := p.now()
	defer func() { p.finish(OpProcess, start, res, err) }()

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return Result{}, err
	}
	defer p.sem.Release(1)

	h, in, err := wav.Decode(r)
	if err != nil {
		return Result{}, err
	}

	out, stats, err := p.run(ctx, in, c)
	if err != nil {
		return Result{}, err
	}

	if err := wav.Encode(w, h, out); err != nil {
		return Result{}, err
	}

	return Result{Header: h, Stats: stats}, nil
}

// Preview processes src into a new file in the scratch directory and
// returns its path. The caller owns the file.
func (p *Processor) Preview(ctx context.Context, src string, c effectchain.Chain) (res Result, err error) {
	start := p.now()
	defer func() { p.finish(OpPreview, start, res, err) }()

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return Result{}, err
	}
	defer p.sem.Release(1)

	dst := p.scratchPath(previewPrefix)

	res, err = p.processFile(ctx, src, dst, c)
	if err != nil {
		removeQuietly(dst)
		return Result{}, err
	}

	res.Path = dst

	return res, nil
}

// Apply processes src and replaces it with the result.
func (p *Processor) Apply(ctx context.Context, src string, c effectchain.Chain) (res Result, err error) {
	start := p.now()
	defer func() { p.finish(OpApply, start, res, err) }()

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return Result{}, err
	}
	defer p.sem.Release(1)

	tmp := p.scratchPath(appliedPrefix)
	defer removeQuietly(tmp)

	res, err = p.processFile(ctx, src, tmp, c)
	if err != nil {
		return Result{}, err
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	if err := p.relocator.MoveOut(ctx, tmp, src).Err(); err != nil {
		p.logger.Error("failed to replace source", "source", src, "error", err)
		return Result{}, err
	}

	res.Path = src

	return res, nil
}

func (p *Processor) processFile(ctx context.Context, src, dst string, c effectchain.Chain) (Result, error) {
	h, in, err := p.decodeSource(ctx, src)
	if err != nil {
		return Result{}, err
	}

	out, stats, err := p.run(ctx, in, c)
	if err != nil {
		return Result{}, err
	}

	if err := wav.EncodeFile(dst, h, out); err != nil {
		return Result{}, err
	}

	return Result{Header: h, Stats: stats}, nil
}

func (p *Processor) decodeSource(ctx context.Context, src string) (wav.Header, *audio.FloatBuffer, error) {
	path := src

	if p.copyIn {
		path = p.scratchPath(sourcePrefix)
		defer removeQuietly(path)

		if err := p.relocator.CopyIn(ctx, src, path).Err(); err != nil {
			p.logger.Error("failed to copy source", "source", src, "error", err)
			return wav.Header{}, nil, err
		}
	}

	d, err := wav.OpenFile(path)
	if err != nil {
		return wav.Header{}, nil, err
	}
	defer d.Close()

	for _, w := range d.Warnings() {
		p.logger.Warn("source header", "source", src, "warning", w)
	}

	buf, err := d.FullBuffer()
	if err != nil {
		return wav.Header{}, nil, err
	}

	return d.Header(), buf, nil
}

func (p *Processor) run(ctx context.Context, in *audio.FloatBuffer, c effectchain.Chain) (*audio.FloatBuffer, Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, Stats{}, err
	}

	p.logger.Debug("applying chain", "order", c.String(), "samples", len(in.Data))

	out := effectchain.ApplyBuffer(in, c)

	if err := ctx.Err(); err != nil {
		return nil, Stats{}, err
	}

	return out, measure(out.Data), nil
}

func (p *Processor) finish(op Op, start time.Time, res Result, err error) {
	p.metrics.observe(op, start, res.Header.NumFrames, err)

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			p.logger.Error("job failed", "op", op, "error", err)
		}

		return
	}

	p.logger.Info("job finished",
		"op", op,
		"path", res.Path,
		"frames", res.Header.NumFrames,
		"peak", res.Stats.Peak,
		"clipped", res.Stats.Clipped,
		"elapsed", time.Since(start),
	)
}

func (p *Processor) scratchPath(prefix string) string {
	name := fmt.Sprintf("%s_%s_%s.wav", prefix, p.now().Format(timestampLayout), uuid.NewString())
	return filepath.Join(p.scratchDir, name)
}

// measure returns the peak magnitude and the number of samples the encoder
// will clamp.
func measure(samples []float64) Stats {
	if len(samples) == 0 {
		return Stats{}
	}

	s := Stats{Peak: vecmath.MaxAbs(samples)}

	for _, x := range samples {
		if math.Abs(x) > 1 {
			s.Clipped++
		}
	}

	return s
}

func removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Debug("failed to remove scratch file", "path", path, "error", err)
	}
}

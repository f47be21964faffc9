package tiles

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrInvalidLevels = errors.New("resolution levels must be a non-empty list of positive sizes")

// Recorder receives generation counters. The metrics package implements it.
type Recorder interface {
	TileWritten(level int)
	TileSkipped(level int)
	GenerationFinished(d time.Duration, err error)
}

type Options struct {
	TileSize int
	Quality  int
	// Workers > 1 encodes tiles concurrently.
	Workers int
}

func DefaultOptions() Options {
	return Options{TileSize: 512, Quality: 80, Workers: 1}
}

// Generator slices panoramas into cube tile pyramids.
type Generator struct {
	codec    ImageCodec
	opts     Options
	logger   *zap.Logger
	recorder Recorder
}

func NewGenerator(codec ImageCodec, opts Options, logger *zap.Logger) *Generator {
	if opts.TileSize <= 0 {
		opts.TileSize = 512
	}
	if opts.Quality <= 0 {
		opts.Quality = 80
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{codec: codec, opts: opts, logger: logger}
}

// WithRecorder attaches a metrics recorder.
func (g *Generator) WithRecorder(r Recorder) *Generator {
	g.recorder = r
	return g
}

type tileJob struct {
	level, n int
	face     Face
	row, col int
}

func (j tileJob) String() string {
	return fmt.Sprintf("%d/%s/%d/%d", j.level, j.face, j.row, j.col)
}

// Generate writes every tile of every level under outputDir, then the
// descriptor. Tiles already on disk are left untouched, so a failed run can
// simply be repeated.
func (g *Generator) Generate(ctx context.Context, sourcePath, outputDir string, levels []int) (*PyramidDescriptor, error) {
	if err := ValidateLevels(levels); err != nil {
		return nil, err
	}
	start := time.Now()
	desc, err := g.generate(ctx, sourcePath, outputDir, levels)
	if g.recorder != nil {
		g.recorder.GenerationFinished(time.Since(start), err)
	}
	return desc, err
}

func (g *Generator) generate(ctx context.Context, sourcePath, outputDir string, levels []int) (*PyramidDescriptor, error) {
	if err := os.MkdirAll(filepath.Join(outputDir, "levels"), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create output directory")
	}

	src, err := g.codec.Decode(sourcePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read panorama %s", sourcePath)
	}
	g.logger.Info("generating tile pyramid",
		zap.String("source", sourcePath),
		zap.String("output", outputDir),
		zap.Int("width", src.Width()),
		zap.Int("height", src.Height()),
		zap.Ints("levels", levels))

	var jobs []tileJob
	for level, resolution := range levels {
		n := TileCount(resolution, g.opts.TileSize)
		for _, face := range Faces {
			for row := 0; row < n; row++ {
				for col := 0; col < n; col++ {
					jobs = append(jobs, tileJob{level: level, n: n, face: face, row: row, col: col})
				}
			}
		}
	}

	if g.opts.Workers <= 1 {
		for _, job := range jobs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := g.renderTile(src, outputDir, job); err != nil {
				return nil, err
			}
		}
	} else {
		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(g.opts.Workers)
		for _, job := range jobs {
			if egCtx.Err() != nil {
				break
			}
			eg.Go(func() error {
				if err := egCtx.Err(); err != nil {
					return err
				}
				return g.renderTile(src, outputDir, job)
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	desc := NewDescriptor(levels, g.opts.TileSize)
	if err := WriteDescriptor(outputDir, desc); err != nil {
		return nil, errors.Wrap(err, "failed to write pyramid descriptor")
	}
	g.logger.Info("tile pyramid ready", zap.String("output", outputDir), zap.Int("tiles", len(jobs)))
	return desc, nil
}

func (g *Generator) renderTile(src Raster, outputDir string, job tileJob) error {
	path := TilePath(outputDir, job.level, job.face, job.row, job.col)
	if _, err := os.Stat(path); err == nil {
		if g.recorder != nil {
			g.recorder.TileSkipped(job.level)
		}
		return nil
	}

	rect, ok := CropRect(job.row, job.col, job.n, src.Width(), src.Height())
	if !ok {
		g.logger.Debug("tile outside source, skipped", zap.Stringer("tile", job))
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory for tile %s", job)
	}
	data, err := g.codec.Encode(src, rect, g.opts.TileSize, g.opts.Quality)
	if err != nil {
		return errors.Wrapf(err, "failed to encode tile %s", job)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return errors.Wrapf(err, "failed to write tile %s", job)
	}
	if g.recorder != nil {
		g.recorder.TileWritten(job.level)
	}
	return nil
}

// ValidateLevels rejects empty or non-positive level lists.
func ValidateLevels(levels []int) error {
	if len(levels) == 0 {
		return ErrInvalidLevels
	}
	for _, l := range levels {
		if l <= 0 {
			return errors.Wrapf(ErrInvalidLevels, "level %d", l)
		}
	}
	return nil
}

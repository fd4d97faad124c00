package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/chrissnell/stickplot/internal/erddap"
	"github.com/chrissnell/stickplot/internal/render"
	"github.com/chrissnell/stickplot/internal/vectorfield"
	"go.uber.org/zap"
)

// DataSource fetches raw samples for a query. *erddap.Client implements it.
type DataSource interface {
	Fetch(ctx context.Context, q erddap.Query) (*erddap.Response, error)
}

// Result describes a completed job.
type Result struct {
	Name     string
	Output   string
	Vectors  int
	Depths   int
	Summary  vectorfield.Summary
	Duration time.Duration
}

// Pipeline fetches, prepares and renders plot jobs.
type Pipeline struct {
	source DataSource
	logger *zap.SugaredLogger
}

// New creates a pipeline reading from source.
func New(source DataSource, logger *zap.SugaredLogger) *Pipeline {
	return &Pipeline{
		source: source,
		logger: logger,
	}
}

// Prepare fetches the job's data and transforms it into a renderable field. It returns
// vectorfield.ErrNoData when nothing in range survives filtering.
func (p *Pipeline) Prepare(ctx context.Context, job *Job) (*vectorfield.Field, error) {
	resp, err := p.source.Fetch(ctx, job.Query)
	if err != nil {
		return nil, err
	}

	factor := job.UnitFactor
	if factor == 0 {
		factor, err = erddap.SpeedFactor(resp.SpeedUnits)
		if err != nil {
			return nil, &erddap.FormatError{URL: resp.URL, Reason: "set speed_units to override", Err: err}
		}
	}
	p.logger.Debugf("[%s] %d rows, speed units %q, dividing by %g", job.Name, len(resp.Samples), resp.SpeedUnits, factor)

	preparer := vectorfield.Preparer{
		UnitFactor: factor,
		Range:      job.Range,
		Scheme:     job.Scheme,
		Order:      job.Order,
	}
	return preparer.Prepare(resp.Samples)
}

// Render prepares the job and writes it to w in format. An empty format uses the
// job's configured one.
func (p *Pipeline) Render(ctx context.Context, job *Job, w io.Writer, format string) (*vectorfield.Field, error) {
	renderer, err := render.New(job.View)
	if err != nil {
		return nil, err
	}

	opts := job.Render
	if format != "" {
		opts.Format = format
	}
	if !render.Supports(renderer, opts.Format) {
		return nil, fmt.Errorf("the %s view cannot write %s", job.View, opts.Format)
	}

	field, err := p.Prepare(ctx, job)
	if err != nil {
		return nil, err
	}
	if err := renderer.Render(w, field, opts); err != nil {
		return nil, err
	}
	return field, nil
}

// Run renders the job to its output file. The file is written to a temporary name and
// renamed into place, so a failed or empty run never leaves a partial artifact.
func (p *Pipeline) Run(ctx context.Context, job *Job) (*Result, error) {
	start := time.Now()

	dir := filepath.Dir(job.OutputFilename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(job.OutputFilename)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("creating temporary output: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("setting output permissions: %w", err)
	}

	field, err := p.Render(ctx, job, tmp, "")
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing output: %w", cerr)
	}
	if err != nil {
		return nil, err
	}

	if err := os.Rename(tmp.Name(), job.OutputFilename); err != nil {
		return nil, fmt.Errorf("moving output into place: %w", err)
	}

	return &Result{
		Name:     job.Name,
		Output:   job.OutputFilename,
		Vectors:  len(field.Vectors),
		Depths:   len(field.Groups),
		Summary:  field.Summary,
		Duration: time.Since(start),
	}, nil
}

// IsNoData reports whether err means the job had nothing to plot.
func IsNoData(err error) bool {
	return errors.Is(err, vectorfield.ErrNoData)
}

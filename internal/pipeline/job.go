// Package pipeline turns plot configurations into rendered stick plots.
package pipeline

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/chrissnell/stickplot/internal/erddap"
	"github.com/chrissnell/stickplot/internal/render"
	"github.com/chrissnell/stickplot/internal/vectorfield"
	"github.com/chrissnell/stickplot/pkg/colors"
	"github.com/chrissnell/stickplot/pkg/config"
)

const (
	schemeDiscrete   = "discrete"
	schemeContinuous = "continuous"

	defaultHeightPerPlot = 1.0
)

// Accepted layouts for start_date, end_date and snapshot_time. Times without a zone are UTC.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Job is the validated form of one plot configuration.
type Job struct {
	Name    string
	Dataset string
	Query   erddap.Query
	Range   vectorfield.Range
	// UnitFactor converts fetched speeds to m/s. Zero means derive it from the
	// units the server reports.
	UnitFactor     float64
	Scheme         vectorfield.ColorScheme
	Order          vectorfield.Order
	View           render.View
	Render         render.Options
	OutputFilename string
}

// JobFromConfig validates p and builds the job it describes.
func JobFromConfig(p config.PlotData) (*Job, error) {
	job, err := jobFromConfig(p)
	if err != nil {
		return nil, fmt.Errorf("plot %s: %w", p.Name, err)
	}
	return job, nil
}

func jobFromConfig(p config.PlotData) (*Job, error) {
	if len(p.DepthRange) != 2 {
		return nil, fmt.Errorf("depth_range must be [min, max], got %v", p.DepthRange)
	}
	depthMin, depthMax := p.DepthRange[0], p.DepthRange[1]

	start, err := ParseTime("start_date", p.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := ParseTime("end_date", p.EndDate)
	if err != nil {
		return nil, err
	}

	view := render.View(strings.ToLower(p.View))
	if view == "" {
		view = render.View2D
	}
	renderer, err := render.New(view)
	if err != nil {
		return nil, err
	}

	rng := vectorfield.Range{DepthMin: depthMin, DepthMax: depthMax, TimeMin: start, TimeMax: end}
	if view == render.View3DSnapshot {
		if p.SnapshotTime == "" {
			return nil, fmt.Errorf("snapshot_time is required for the %s view", view)
		}
		at, err := ParseTime("snapshot_time", p.SnapshotTime)
		if err != nil {
			return nil, err
		}
		if (!start.IsZero() && at.Before(start)) || (!end.IsZero() && at.After(end)) {
			return nil, fmt.Errorf("snapshot_time %s is outside the configured time window", p.SnapshotTime)
		}
		rng.TimeMin, rng.TimeMax = at, at
		start, end = at, at
	}
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	var timeout time.Duration
	if p.Timeout != "" {
		if timeout, err = time.ParseDuration(p.Timeout); err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", p.Timeout, err)
		}
	}

	query := erddap.Query{
		ServerURL:         p.ServerURL,
		DatasetID:         p.DatasetID,
		Instrument:        p.Instrument,
		Start:             start,
		End:               end,
		DepthMin:          depthMin,
		DepthMax:          depthMax,
		ConstrainDepth:    true,
		Format:            strings.ToLower(p.ResponseFormat),
		SpeedVariable:     p.SpeedVariable,
		DirectionVariable: p.DirectionVariable,
		Timeout:           timeout,
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}

	var factor float64
	if p.SpeedUnits != "" {
		if factor, err = erddap.SpeedFactor(p.SpeedUnits); err != nil {
			return nil, err
		}
	}

	scheme, err := schemeFromConfig(p, view)
	if err != nil {
		return nil, err
	}

	order, err := vectorfield.ParseOrder(p.DepthOrder)
	if err != nil {
		return nil, err
	}

	output := p.OutputFilename
	if output == "" {
		output = p.Name + "." + defaultFormat(view)
	}
	format, err := render.FormatFromFilename(output)
	if err != nil {
		return nil, err
	}
	if !render.Supports(renderer, format) {
		return nil, fmt.Errorf("the %s view cannot write %s files", view, format)
	}

	height := p.HeightPerPlot
	if height < 0 {
		return nil, fmt.Errorf("height_per_plot must be positive, got %g", height)
	}
	if height == 0 {
		height = defaultHeightPerPlot
	}

	return &Job{
		Name:       p.Name,
		Dataset:    p.DatasetID,
		Query:      query,
		Range:      rng,
		UnitFactor: factor,
		Scheme:     scheme,
		Order:      order,
		View:       view,
		Render: render.Options{
			Title:         titleFor(p, view, rng),
			Format:        format,
			ArrowHead:     p.ArrowHead,
			HeightPerPlot: height,
			Units:         "m/s",
		},
		OutputFilename: output,
	}, nil
}

// ErrSnapshotWindow is returned when a time window override is applied to a snapshot
// job, which always renders its single configured instant.
var ErrSnapshotWindow = errors.New("the 3d-snapshot view renders a single instant and takes no start/end override")

// WithWindow returns a copy of j restricted to [start, end]. Zero times keep the
// configured bound.
func (j *Job) WithWindow(start, end time.Time) (*Job, error) {
	if j.View == render.View3DSnapshot {
		return nil, ErrSnapshotWindow
	}
	c := *j
	if !start.IsZero() {
		c.Query.Start = start
		c.Range.TimeMin = start
	}
	if !end.IsZero() {
		c.Query.End = end
		c.Range.TimeMax = end
	}
	if err := c.Range.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// DepthLabel describes the job's depth range for log messages.
func (j *Job) DepthLabel() string {
	return fmt.Sprintf("between %g m and %g m", j.Range.DepthMin, j.Range.DepthMax)
}

func schemeFromConfig(p config.PlotData, view render.View) (vectorfield.ColorScheme, error) {
	kind := strings.ToLower(p.ColorScheme)
	if kind == "" {
		kind = schemeDiscrete
		if view == render.View3DSnapshot {
			kind = schemeContinuous
		}
	}

	switch kind {
	case schemeDiscrete:
		names := p.ColorPalette
		if len(names) == 0 {
			names = colors.DefaultPalette
		}
		palette, err := colors.ParsePalette(names, len(vectorfield.DefaultSpeedBounds))
		if err != nil {
			return nil, err
		}

		bounds := vectorfield.DefaultSpeedBounds
		if len(p.SpeedBounds) > 0 {
			if len(p.SpeedBounds) != len(vectorfield.DefaultSpeedBounds)-1 {
				return nil, fmt.Errorf("speed_bounds needs %d values, got %d", len(vectorfield.DefaultSpeedBounds)-1, len(p.SpeedBounds))
			}
			for _, b := range p.SpeedBounds {
				if math.IsNaN(b) || math.IsInf(b, 0) {
					return nil, fmt.Errorf("speed_bounds must be finite, got %v", p.SpeedBounds)
				}
			}
			bounds = append(append([]float64{}, p.SpeedBounds...), math.Inf(1))
		}
		if len(palette) != len(bounds) {
			return nil, fmt.Errorf("color_palette needs exactly %d colors, got %d", len(bounds), len(palette))
		}
		scheme, err := vectorfield.NewDiscreteScheme(bounds, palette)
		if err != nil {
			return nil, err
		}
		return scheme, nil

	case schemeContinuous:
		name := p.Colormap
		if name == "" {
			name = colors.DefaultColormap
		}
		cmap, err := colors.Colormap(name)
		if err != nil {
			return nil, err
		}
		scheme, err := vectorfield.NewContinuousScheme(cmap)
		if err != nil {
			return nil, err
		}
		switch {
		case p.ColorMin != nil && p.ColorMax != nil:
			if err := scheme.Pin(*p.ColorMin, *p.ColorMax); err != nil {
				return nil, err
			}
		case p.ColorMin != nil || p.ColorMax != nil:
			return nil, fmt.Errorf("color_min and color_max must be set together")
		}
		return scheme, nil

	default:
		return nil, fmt.Errorf("unknown color_scheme %q (use discrete or continuous)", p.ColorScheme)
	}
}

// ParseTime parses an ISO 8601 time for the named setting. An empty string is the zero time.
func ParseTime(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid %s %q: expected an ISO 8601 time", field, s)
}

func defaultFormat(view render.View) string {
	if view == render.View2D {
		return "png"
	}
	return "html"
}

func titleFor(p config.PlotData, view render.View, rng vectorfield.Range) string {
	if p.Title != "" {
		return p.Title
	}
	switch view {
	case render.View3DCurtain:
		return "Sea Water Speed 3D Stick Plot for " + p.DatasetID
	case render.View3DSnapshot:
		return fmt.Sprintf("Sea Water Velocity Profile at %s for %s", rng.TimeMin.Format(time.RFC3339), p.DatasetID)
	default:
		return fmt.Sprintf("Stick Plot for Depths from %g m to %g m for %s", rng.DepthMin, rng.DepthMax, p.DatasetID)
	}
}

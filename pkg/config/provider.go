package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ConfigProvider defines the interface for plot configuration sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	GetPlots() ([]PlotData, error)
	GetPlot(name string) (*PlotData, error)

	IsReadOnly() bool
	Close() error
}

// ErrPlotNotFound is returned by GetPlot for an unknown name.
var ErrPlotNotFound = errors.New("plot not found")

// ErrPlotExists is returned when adding a plot whose name is taken.
var ErrPlotExists = errors.New("plot already exists")

// PlotStore is a ConfigProvider whose plots can be edited.
type PlotStore interface {
	ConfigProvider
	AddPlot(plot *PlotData) error
	UpdatePlot(name string, plot *PlotData) error
	DeletePlot(name string) error
}

// Open returns the provider for backend ("yaml" or "sqlite").
func Open(backend, path string) (ConfigProvider, error) {
	switch strings.ToLower(backend) {
	case "", "yaml", "yml":
		return NewYAMLProvider(path), nil
	case "sqlite":
		return NewSQLiteProvider(path)
	default:
		return nil, fmt.Errorf("unknown config backend %q (use yaml or sqlite)", backend)
	}
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Plots []PlotData `json:"plots"`
}

// PlotData holds the settings for one plot job. Values are kept in their configured
// textual form; the pipeline parses and validates them.
type PlotData struct {
	Name              string    `json:"name"`
	ServerURL         string    `json:"server_url"`
	DatasetID         string    `json:"dataset_id"`
	StartDate         string    `json:"start_date"`
	EndDate           string    `json:"end_date"`
	DepthRange        []float64 `json:"depth_range"`
	Instrument        string    `json:"instrument"`
	SpeedVariable     string    `json:"speed_variable,omitempty"`
	DirectionVariable string    `json:"direction_variable,omitempty"`
	ResponseFormat    string    `json:"response_format,omitempty"`
	SpeedUnits        string    `json:"speed_units,omitempty"`
	View              string    `json:"view,omitempty"`
	SnapshotTime      string    `json:"snapshot_time,omitempty"`
	ColorScheme       string    `json:"color_scheme,omitempty"`
	ColorPalette      []string  `json:"color_palette,omitempty"`
	SpeedBounds       []float64 `json:"speed_bounds,omitempty"`
	Colormap          string    `json:"colormap,omitempty"`
	ColorMin          *float64  `json:"color_min,omitempty"`
	ColorMax          *float64  `json:"color_max,omitempty"`
	DepthOrder        string    `json:"depth_order,omitempty"`
	ArrowHead         bool      `json:"arrow_head"`
	HeightPerPlot     float64   `json:"height_per_plot,omitempty"`
	OutputFilename    string    `json:"output_filename,omitempty"`
	Title             string    `json:"title,omitempty"`
	Timeout           string    `json:"timeout,omitempty"`
}

// Validate checks that plots are named uniquely and carry the fields every job needs.
func (c *ConfigData) Validate() error {
	if len(c.Plots) == 0 {
		return fmt.Errorf("no plots configured")
	}
	seen := make(map[string]bool, len(c.Plots))
	for i, p := range c.Plots {
		if p.Name == "" {
			return fmt.Errorf("plot %d has no name", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate plot name %q", p.Name)
		}
		seen[p.Name] = true

		if p.ServerURL == "" || p.DatasetID == "" {
			return fmt.Errorf("plot %q: server_url and dataset_id are required", p.Name)
		}
		if len(p.DepthRange) != 2 {
			return fmt.Errorf("plot %q: depth_range must be [min, max]", p.Name)
		}
	}
	return nil
}

// Plot returns the named plot from c.
func (c *ConfigData) Plot(name string) (*PlotData, error) {
	for i := range c.Plots {
		if c.Plots[i].Name == name {
			return &c.Plots[i], nil
		}
	}
	return nil, fmt.Errorf("%q: %w", name, ErrPlotNotFound)
}

// defaultName names an unnamed plot after its output file, falling back to its position.
func defaultName(p PlotData, i int) string {
	if p.OutputFilename != "" {
		base := filepath.Base(p.OutputFilename)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return fmt.Sprintf("plot-%d", i+1)
}

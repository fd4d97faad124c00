package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files. A file holds
// either a single plot at the top level or a list of plots under "plots".
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	config, err := ParseYAML(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", y.filename, err)
	}

	y.config = config
	return config, nil
}

// ParseYAML decodes a plot configuration document.
func ParseYAML(data []byte) (*ConfigData, error) {
	var doc struct {
		PlotYAML `yaml:",inline"`
		Plots    []PlotYAML `yaml:"plots,omitempty"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	plots := doc.Plots
	if len(plots) == 0 && !doc.PlotYAML.empty() {
		plots = []PlotYAML{doc.PlotYAML}
	}

	config := &ConfigData{Plots: make([]PlotData, len(plots))}
	for i, p := range plots {
		config.Plots[i] = p.toData()
		if config.Plots[i].Name == "" {
			config.Plots[i].Name = defaultName(config.Plots[i], i)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// GetPlots returns plot configurations
func (y *YAMLProvider) GetPlots() ([]PlotData, error) {
	if y.config == nil {
		if _, err := y.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return y.config.Plots, nil
}

// GetPlot returns the named plot
func (y *YAMLProvider) GetPlot(name string) (*PlotData, error) {
	if y.config == nil {
		if _, err := y.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return y.config.Plot(name)
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// PlotYAML mirrors PlotData with YAML tags. The misspelled color_pallete key is still
// read from older files.
type PlotYAML struct {
	Name              string    `yaml:"name,omitempty"`
	ServerURL         string    `yaml:"server_url,omitempty"`
	DatasetID         string    `yaml:"dataset_id,omitempty"`
	StartDate         string    `yaml:"start_date,omitempty"`
	EndDate           string    `yaml:"end_date,omitempty"`
	DepthRange        []float64 `yaml:"depth_range,omitempty"`
	Instrument        string    `yaml:"instrument,omitempty"`
	SpeedVariable     string    `yaml:"speed_variable,omitempty"`
	DirectionVariable string    `yaml:"direction_variable,omitempty"`
	ResponseFormat    string    `yaml:"response_format,omitempty"`
	SpeedUnits        string    `yaml:"speed_units,omitempty"`
	View              string    `yaml:"view,omitempty"`
	SnapshotTime      string    `yaml:"snapshot_time,omitempty"`
	ColorScheme       string    `yaml:"color_scheme,omitempty"`
	ColorPalette      []string  `yaml:"color_palette,omitempty"`
	ColorPallete      []string  `yaml:"color_pallete,omitempty"`
	SpeedBounds       []float64 `yaml:"speed_bounds,omitempty"`
	Colormap          string    `yaml:"colormap,omitempty"`
	ColorMin          *float64  `yaml:"color_min,omitempty"`
	ColorMax          *float64  `yaml:"color_max,omitempty"`
	DepthOrder        string    `yaml:"depth_order,omitempty"`
	ArrowHead         bool      `yaml:"arrow_head,omitempty"`
	HeightPerPlot     float64   `yaml:"height_per_plot,omitempty"`
	OutputFilename    string    `yaml:"output_filename,omitempty"`
	Title             string    `yaml:"title,omitempty"`
	Timeout           string    `yaml:"timeout,omitempty"`
}

func (p PlotYAML) empty() bool {
	return p.ServerURL == "" && p.DatasetID == "" && p.Name == ""
}

func (p PlotYAML) toData() PlotData {
	palette := p.ColorPalette
	if len(palette) == 0 {
		palette = p.ColorPallete
	}
	return PlotData{
		Name:              p.Name,
		ServerURL:         p.ServerURL,
		DatasetID:         p.DatasetID,
		StartDate:         p.StartDate,
		EndDate:           p.EndDate,
		DepthRange:        p.DepthRange,
		Instrument:        p.Instrument,
		SpeedVariable:     p.SpeedVariable,
		DirectionVariable: p.DirectionVariable,
		ResponseFormat:    p.ResponseFormat,
		SpeedUnits:        p.SpeedUnits,
		View:              p.View,
		SnapshotTime:      p.SnapshotTime,
		ColorScheme:       p.ColorScheme,
		ColorPalette:      palette,
		SpeedBounds:       p.SpeedBounds,
		Colormap:          p.Colormap,
		ColorMin:          p.ColorMin,
		ColorMax:          p.ColorMax,
		DepthOrder:        p.DepthOrder,
		ArrowHead:         p.ArrowHead,
		HeightPerPlot:     p.HeightPerPlot,
		OutputFilename:    p.OutputFilename,
		Title:             p.Title,
		Timeout:           p.Timeout,
	}
}

// FromData converts a PlotData back into its YAML form.
func FromData(p PlotData) PlotYAML {
	return PlotYAML{
		Name:              p.Name,
		ServerURL:         p.ServerURL,
		DatasetID:         p.DatasetID,
		StartDate:         p.StartDate,
		EndDate:           p.EndDate,
		DepthRange:        p.DepthRange,
		Instrument:        p.Instrument,
		SpeedVariable:     p.SpeedVariable,
		DirectionVariable: p.DirectionVariable,
		ResponseFormat:    p.ResponseFormat,
		SpeedUnits:        p.SpeedUnits,
		View:              p.View,
		SnapshotTime:      p.SnapshotTime,
		ColorScheme:       p.ColorScheme,
		ColorPalette:      p.ColorPalette,
		SpeedBounds:       p.SpeedBounds,
		Colormap:          p.Colormap,
		ColorMin:          p.ColorMin,
		ColorMax:          p.ColorMax,
		DepthOrder:        p.DepthOrder,
		ArrowHead:         p.ArrowHead,
		HeightPerPlot:     p.HeightPerPlot,
		OutputFilename:    p.OutputFilename,
		Title:             p.Title,
		Timeout:           p.Timeout,
	}
}

// MarshalYAML encodes c with every plot under "plots".
func MarshalYAML(c *ConfigData) ([]byte, error) {
	doc := struct {
		Plots []PlotYAML `yaml:"plots"`
	}{Plots: make([]PlotYAML, len(c.Plots))}
	for i, p := range c.Plots {
		doc.Plots[i] = FromData(p)
	}
	return yaml.Marshal(doc)
}

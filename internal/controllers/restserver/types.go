package restserver

import "github.com/chrissnell/stickplot/internal/vectorfield"

// PlotInfo describes a configured plot in the /plots listing.
type PlotInfo struct {
	Name       string     `json:"name"`
	Dataset    string     `json:"dataset"`
	Instrument string     `json:"instrument,omitempty"`
	View       string     `json:"view"`
	Format     string     `json:"format"`
	DepthRange [2]float64 `json:"depth_range"`
	Start      string     `json:"start,omitempty"`
	End        string     `json:"end,omitempty"`
	Title      string     `json:"title"`
}

// VectorsResponse is the prepared vector field of one plot.
type VectorsResponse struct {
	Name    string              `json:"name"`
	Dataset string              `json:"dataset"`
	Units   string              `json:"units"`
	Start   int64               `json:"start"`
	End     int64               `json:"end"`
	Summary vectorfield.Summary `json:"summary"`
	Legend  []LegendItem        `json:"legend"`
	Depths  []DepthVectors      `json:"depths"`
}

// LegendItem is one color scale entry.
type LegendItem struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// DepthVectors holds the vectors of one depth level.
type DepthVectors struct {
	Depth   float64             `json:"depth"`
	Summary vectorfield.Summary `json:"summary"`
	Vectors []Vector            `json:"vectors"`
}

// Vector is a single stick. Timestamps are unix seconds, speeds in m/s.
type Vector struct {
	Timestamp int64   `json:"ts"`
	Speed     float64 `json:"speed"`
	Direction float64 `json:"direction"`
	U         float64 `json:"u"`
	V         float64 `json:"v"`
	Color     string  `json:"color"`
	Bin       int     `json:"bin"`
}

// Package vectorfield turns raw current observations (speed and compass direction at depth)
// into renderable stick-plot vectors: unit conversion, filtering, u/v decomposition, speed
// coloring and depth grouping. Everything here is a pure function over its inputs.
package vectorfield

import (
	"math"
	"time"
)

// Sample is a single current observation as delivered by a data source.
// A NaN Speed or Direction marks a missing value; those rows survive until FilterValid.
type Sample struct {
	Time       time.Time
	Depth      float64 // meters, positive down
	Speed      float64 // source units until ConvertUnits is applied
	Direction  float64 // compass degrees the current flows toward
	Instrument string
}

// NewSample builds a Sample and rejects values that are present but out of domain.
// Missing (NaN) speed or direction is accepted.
func NewSample(t time.Time, depth, speed, direction float64, instrument string) (Sample, error) {
	s := Sample{
		Time:       t,
		Depth:      depth,
		Speed:      speed,
		Direction:  direction,
		Instrument: instrument,
	}
	if err := s.Validate(); err != nil {
		return Sample{}, err
	}
	return s, nil
}

// Missing reports whether speed or direction is absent.
func (s Sample) Missing() bool {
	return math.IsNaN(s.Speed) || math.IsNaN(s.Direction)
}

// Validate checks the Sample invariants. NaN speed/direction are treated as missing, not invalid.
func (s Sample) Validate() error {
	if math.IsNaN(s.Depth) || math.IsInf(s.Depth, 0) {
		return &ComputationError{Field: "depth", Value: s.Depth, Reason: "must be a finite number"}
	}
	if !math.IsNaN(s.Speed) {
		if math.IsInf(s.Speed, 0) {
			return &ComputationError{Field: "speed", Value: s.Speed, Reason: "must be finite"}
		}
		if s.Speed < 0 {
			return &ComputationError{Field: "speed", Value: s.Speed, Reason: "must not be negative"}
		}
	}
	if !math.IsNaN(s.Direction) {
		if s.Direction < 0 || s.Direction >= 360 || math.IsInf(s.Direction, 0) {
			return &ComputationError{Field: "direction", Value: s.Direction, Reason: "must be in [0, 360)"}
		}
	}
	return nil
}

// VectorSample is a Sample decomposed into eastward (U) and northward (V) components,
// with the color assigned by a ColorScheme.
type VectorSample struct {
	Sample
	U     float64
	V     float64
	Color Color
}

// DepthGroup holds all vectors observed at one exact depth, in their original time order.
type DepthGroup struct {
	Depth   float64
	Vectors []VectorSample
	Summary Summary
}

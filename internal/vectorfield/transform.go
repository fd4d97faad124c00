package vectorfield

import (
	"math"
	"time"
)

// ConvertUnits returns a copy of samples with every speed divided by factor.
// Use 100.0 to go from cm/s to m/s. The input slice is left untouched.
func ConvertUnits(samples []Sample, factor float64) ([]Sample, error) {
	if factor == 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return nil, &ComputationError{Field: "unit factor", Value: factor, Reason: "must be a finite, non-zero divisor"}
	}

	converted := make([]Sample, len(samples))
	for i, s := range samples {
		s.Speed = s.Speed / factor
		converted[i] = s
	}
	return converted, nil
}

// FilterValid drops samples with a missing speed or direction.
// An empty result is not an error here; Preparer turns it into ErrNoData.
func FilterValid(samples []Sample) []Sample {
	valid := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if s.Missing() {
			continue
		}
		valid = append(valid, s)
	}
	return valid
}

// Range bounds the samples that are in scope for a plot. Depth bounds are inclusive.
// A zero TimeMin or TimeMax leaves that side of the time window open.
type Range struct {
	DepthMin float64
	DepthMax float64
	TimeMin  time.Time
	TimeMax  time.Time
}

// Validate checks that the bounds are ordered.
func (r Range) Validate() error {
	if math.IsNaN(r.DepthMin) || math.IsNaN(r.DepthMax) {
		return &ComputationError{Field: "depth range", Value: math.NaN(), Reason: "bounds must be numbers"}
	}
	if r.DepthMin > r.DepthMax {
		return &ComputationError{Field: "depth range", Value: r.DepthMin, Reason: "minimum exceeds maximum"}
	}
	if !r.TimeMin.IsZero() && !r.TimeMax.IsZero() && r.TimeMin.After(r.TimeMax) {
		return &ComputationError{Field: "time range", Value: float64(r.TimeMin.Unix()), Reason: "start is after end"}
	}
	return nil
}

// Contains reports whether s falls inside the range.
func (r Range) Contains(s Sample) bool {
	if !(s.Depth >= r.DepthMin && s.Depth <= r.DepthMax) {
		return false
	}
	if !r.TimeMin.IsZero() && s.Time.Before(r.TimeMin) {
		return false
	}
	if !r.TimeMax.IsZero() && s.Time.After(r.TimeMax) {
		return false
	}
	return true
}

// FilterRange keeps the samples inside r. Times are compared as instants, so callers
// must already agree with the data source on which instant a bound denotes.
func FilterRange(samples []Sample, r Range) ([]Sample, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	kept := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if r.Contains(s) {
			kept = append(kept, s)
		}
	}
	return kept, nil
}

// ToVector decomposes a sample into eastward and northward components.
// Direction is a compass bearing, measured clockwise from north:
// 0° gives (0, speed) and 90° gives (speed, 0).
func ToVector(s Sample) (VectorSample, error) {
	if math.IsNaN(s.Speed) || math.IsInf(s.Speed, 0) || s.Speed < 0 {
		return VectorSample{}, &ComputationError{Field: "speed", Value: s.Speed, Reason: "must be a finite, non-negative number"}
	}
	if math.IsNaN(s.Direction) || s.Direction < 0 || s.Direction >= 360 {
		return VectorSample{}, &ComputationError{Field: "direction", Value: s.Direction, Reason: "must be in [0, 360)"}
	}

	rad := s.Direction * math.Pi / 180
	return VectorSample{
		Sample: s,
		U:      s.Speed * math.Sin(rad),
		V:      s.Speed * math.Cos(rad),
	}, nil
}

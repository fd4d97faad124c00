package vectorfield

import (
	"fmt"
	"time"
)

// Field is the ready-to-render result of one preparation run.
type Field struct {
	Vectors []VectorSample
	Groups  []DepthGroup
	Scheme  ColorScheme
	Summary Summary
	// TimeMin and TimeMax span the vectors actually kept.
	TimeMin time.Time
	TimeMax time.Time
}

// Preparer runs the full transform: filter missing values, convert units, restrict to the
// range, decompose into vectors, color and group them.
type Preparer struct {
	// UnitFactor divides every speed; 100 converts cm/s to m/s. Zero means 1.
	UnitFactor float64
	Range      Range
	Scheme     ColorScheme
	Order      Order
}

// Prepare transforms samples into a Field. It returns ErrNoData when no sample survives
// filtering; that is the signal to skip rendering, not a failure.
func (p *Preparer) Prepare(samples []Sample) (*Field, error) {
	factor := p.UnitFactor
	if factor == 0 {
		factor = 1
	}

	valid := FilterValid(samples)

	converted, err := ConvertUnits(valid, factor)
	if err != nil {
		return nil, err
	}

	inScope, err := FilterRange(converted, p.Range)
	if err != nil {
		return nil, err
	}

	if len(inScope) == 0 {
		return nil, ErrNoData
	}

	scheme := p.Scheme
	if f, ok := scheme.(Fitter); ok {
		speeds := make([]float64, len(inScope))
		for i, s := range inScope {
			speeds[i] = s.Speed
		}
		scheme, err = f.Fit(speeds)
		if err != nil {
			return nil, fmt.Errorf("fitting color scale: %w", err)
		}
	}

	field := &Field{
		Vectors: make([]VectorSample, 0, len(inScope)),
		Scheme:  scheme,
		TimeMin: inScope[0].Time,
		TimeMax: inScope[0].Time,
	}

	for _, s := range inScope {
		v, err := ToVector(s)
		if err != nil {
			return nil, err
		}
		v.Color, err = ClassifyColor(v.Speed, scheme)
		if err != nil {
			return nil, err
		}
		field.Vectors = append(field.Vectors, v)

		if s.Time.Before(field.TimeMin) {
			field.TimeMin = s.Time
		}
		if s.Time.After(field.TimeMax) {
			field.TimeMax = s.Time
		}
	}

	field.Groups = GroupByDepth(field.Vectors, p.Order)
	field.Summary = Summarize(field.Vectors)

	return field, nil
}

package vectorfield

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Order controls how depth groups are sorted.
type Order int

const (
	// Descending puts the deepest level first.
	Descending Order = iota
	// Ascending puts the shallowest level first.
	Ascending
)

// ParseOrder maps a config value to an Order. Empty means Descending.
func ParseOrder(s string) (Order, error) {
	switch s {
	case "", "descending", "desc":
		return Descending, nil
	case "ascending", "asc":
		return Ascending, nil
	default:
		return Descending, fmt.Errorf("unknown depth order %q (use descending or ascending)", s)
	}
}

func (o Order) String() string {
	if o == Ascending {
		return "ascending"
	}
	return "descending"
}

// Summary holds speed statistics for a set of vectors.
type Summary struct {
	Count     int     `json:"count"`
	MeanSpeed float64 `json:"mean_speed"`
	MaxSpeed  float64 `json:"max_speed"`
	MinSpeed  float64 `json:"min_speed"`
}

// Summarize computes speed statistics over vs.
func Summarize(vs []VectorSample) Summary {
	if len(vs) == 0 {
		return Summary{}
	}
	speeds := speedsOf(vs)
	return Summary{
		Count:     len(vs),
		MeanSpeed: stat.Mean(speeds, nil),
		MaxSpeed:  floats.Max(speeds),
		MinSpeed:  floats.Min(speeds),
	}
}

// GroupByDepth partitions vectors by exact depth value. Groups are sorted by depth in the
// requested order; vectors inside a group keep their input order. Vectors whose depth is
// NaN have no row to go in and are dropped.
func GroupByDepth(vs []VectorSample, order Order) []DepthGroup {
	index := make(map[float64]int)
	var groups []DepthGroup

	for _, v := range vs {
		if math.IsNaN(v.Depth) {
			continue
		}
		i, ok := index[v.Depth]
		if !ok {
			i = len(groups)
			index[v.Depth] = i
			groups = append(groups, DepthGroup{Depth: v.Depth})
		}
		groups[i].Vectors = append(groups[i].Vectors, v)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if order == Ascending {
			return groups[i].Depth < groups[j].Depth
		}
		return groups[i].Depth > groups[j].Depth
	})

	for i := range groups {
		groups[i].Summary = Summarize(groups[i].Vectors)
	}
	return groups
}

func speedsOf(vs []VectorSample) []float64 {
	speeds := make([]float64, len(vs))
	for i, v := range vs {
		speeds[i] = v.Speed
	}
	return speeds
}

package erddap

import (
	"fmt"
	"strings"
)

// speedDivisors converts a speed in the keyed unit to m/s by division.
var speedDivisors = map[string]float64{
	"cms-1":  100,
	"cm/s":   100,
	"cm.s-1": 100,
	"mms-1":  1000,
	"mm/s":   1000,
	"ms-1":   1,
	"m/s":    1,
	"m.s-1":  1,
	"knots":  1.943844,
	"knot":   1.943844,
	"kt":     1.943844,
	"km/h":   3.6,
	"kmh-1":  3.6,
}

// SpeedFactor returns the divisor that converts speeds in units to m/s.
func SpeedFactor(units string) (float64, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(units), " ", ""))
	if f, ok := speedDivisors[key]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("unrecognized speed units %q", units)
}

package vectorfield

import (
	"errors"
	"image/color"
	"math"
	"testing"
	"time"

	"gonum.org/v1/plot/palette/moreland"
)

var t0 = time.Date(2024, 4, 8, 0, 0, 0, 0, time.UTC)

var testPalette = []color.RGBA{
	{R: 255, G: 192, B: 203, A: 255},
	{R: 135, G: 206, B: 235, A: 255},
	{R: 0, G: 128, B: 0, A: 255},
	{R: 255, G: 255, B: 0, A: 255},
	{R: 255, G: 165, B: 0, A: 255},
	{R: 255, G: 0, B: 0, A: 255},
}

func mustDiscrete(t *testing.T, bounds []float64) *DiscreteScheme {
	t.Helper()
	s, err := NewDiscreteScheme(bounds, testPalette)
	if err != nil {
		t.Fatalf("NewDiscreteScheme: %v", err)
	}
	return s
}

func TestToVectorCompassConvention(t *testing.T) {
	tests := []struct {
		name      string
		speed     float64
		direction float64
		wantU     float64
		wantV     float64
	}{
		{name: "due north", speed: 2, direction: 0, wantU: 0, wantV: 2},
		{name: "due east", speed: 2, direction: 90, wantU: 2, wantV: 0},
		{name: "due south", speed: 2, direction: 180, wantU: 0, wantV: -2},
		{name: "due west", speed: 2, direction: 270, wantU: -2, wantV: 0},
		{name: "north east", speed: math.Sqrt2, direction: 45, wantU: 1, wantV: 1},
		{name: "zero speed", speed: 0, direction: 123, wantU: 0, wantV: 0},
	}

	const epsilon = 1e-9
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ToVector(Sample{Time: t0, Depth: 10, Speed: tt.speed, Direction: tt.direction})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(v.U-tt.wantU) > epsilon || math.Abs(v.V-tt.wantV) > epsilon {
				t.Errorf("got (%v, %v), want (%v, %v)", v.U, v.V, tt.wantU, tt.wantV)
			}
		})
	}
}

func TestToVectorMagnitudePreserved(t *testing.T) {
	for _, speed := range []float64{0, 0.01, 0.5, 3, 125} {
		for dir := 0.0; dir < 360; dir += 0.5 {
			v, err := ToVector(Sample{Speed: speed, Direction: dir})
			if err != nil {
				t.Fatalf("speed %v dir %v: %v", speed, dir, err)
			}
			if got := math.Hypot(v.U, v.V); math.Abs(got-speed) > 1e-9*math.Max(1, speed) {
				t.Fatalf("speed %v dir %v: magnitude %v", speed, dir, got)
			}
		}
	}
}

func TestToVectorRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		s    Sample
	}{
		{name: "negative speed", s: Sample{Speed: -1, Direction: 10}},
		{name: "NaN speed", s: Sample{Speed: math.NaN(), Direction: 10}},
		{name: "infinite speed", s: Sample{Speed: math.Inf(1), Direction: 10}},
		{name: "direction 360", s: Sample{Speed: 1, Direction: 360}},
		{name: "negative direction", s: Sample{Speed: 1, Direction: -5}},
		{name: "NaN direction", s: Sample{Speed: 1, Direction: math.NaN()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToVector(tt.s)
			var cerr *ComputationError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected ComputationError, got %v", err)
			}
		})
	}
}

func TestNewSampleValidation(t *testing.T) {
	if _, err := NewSample(t0, 10, math.NaN(), math.NaN(), "1"); err != nil {
		t.Errorf("missing values should be accepted: %v", err)
	}
	if _, err := NewSample(t0, 10, -0.2, 10, "1"); err == nil {
		t.Error("negative speed should be rejected")
	}
	if _, err := NewSample(t0, 10, 0.2, 400, "1"); err == nil {
		t.Error("direction outside [0, 360) should be rejected")
	}
	if _, err := NewSample(t0, math.NaN(), 0.2, 10, "1"); err == nil {
		t.Error("NaN depth should be rejected")
	}
}

func TestConvertUnitsRoundTrip(t *testing.T) {
	in := []Sample{
		{Time: t0, Depth: 10, Speed: 45, Direction: 90},
		{Time: t0, Depth: 20, Speed: 3.3, Direction: 180},
		{Time: t0, Depth: 30, Speed: math.NaN(), Direction: 0},
	}

	ms, err := ConvertUnits(in, 100.0)
	if err != nil {
		t.Fatal(err)
	}
	if in[0].Speed != 45 {
		t.Fatalf("input was mutated: %v", in[0].Speed)
	}
	if math.Abs(ms[0].Speed-0.45) > 1e-12 {
		t.Errorf("got %v, want 0.45", ms[0].Speed)
	}

	back, err := ConvertUnits(ms, 1/100.0)
	if err != nil {
		t.Fatal(err)
	}
	for i := range in {
		if math.IsNaN(in[i].Speed) {
			if !math.IsNaN(back[i].Speed) {
				t.Errorf("sample %d: NaN not preserved", i)
			}
			continue
		}
		if math.Abs(back[i].Speed-in[i].Speed) > 1e-9 {
			t.Errorf("sample %d: got %v, want %v", i, back[i].Speed, in[i].Speed)
		}
	}
}

func TestConvertUnitsRejectsBadFactor(t *testing.T) {
	for _, f := range []float64{0, math.NaN(), math.Inf(1)} {
		if _, err := ConvertUnits([]Sample{{Speed: 1}}, f); err == nil {
			t.Errorf("factor %v should be rejected", f)
		}
	}
}

func TestFilterValid(t *testing.T) {
	in := []Sample{
		{Speed: 1, Direction: 10},
		{Speed: math.NaN(), Direction: 10},
		{Speed: 1, Direction: math.NaN()},
		{Speed: 0, Direction: 0},
	}
	out := FilterValid(in)
	if len(out) != 2 {
		t.Fatalf("got %d samples, want 2", len(out))
	}
	if len(out) > len(in) {
		t.Fatal("filter grew the sample count")
	}
	for _, s := range out {
		if math.IsNaN(s.Speed) || math.IsNaN(s.Direction) {
			t.Errorf("NaN leaked through: %+v", s)
		}
	}

	allMissing := []Sample{{Speed: math.NaN(), Direction: 1}, {Speed: 2, Direction: math.NaN()}}
	if got := FilterValid(allMissing); len(got) != 0 {
		t.Errorf("expected empty result, got %d", len(got))
	}
}

func TestFilterRange(t *testing.T) {
	in := []Sample{
		{Time: t0, Depth: 5},
		{Time: t0.Add(time.Hour), Depth: 10},
		{Time: t0.Add(2 * time.Hour), Depth: 20},
		{Time: t0.Add(3 * time.Hour), Depth: 30},
	}

	tests := []struct {
		name      string
		r         Range
		wantCount int
	}{
		{name: "depth only, inclusive", r: Range{DepthMin: 10, DepthMax: 20}, wantCount: 2},
		{name: "time window", r: Range{DepthMin: 0, DepthMax: 100, TimeMin: t0.Add(time.Hour), TimeMax: t0.Add(2 * time.Hour)}, wantCount: 2},
		{name: "open end", r: Range{DepthMin: 0, DepthMax: 100, TimeMin: t0.Add(3 * time.Hour)}, wantCount: 1},
		{name: "single instant", r: Range{DepthMin: 0, DepthMax: 100, TimeMin: t0, TimeMax: t0}, wantCount: 1},
		{name: "nothing in range", r: Range{DepthMin: 500, DepthMax: 600}, wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FilterRange(in, tt.r)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.wantCount {
				t.Errorf("got %d samples, want %d", len(got), tt.wantCount)
			}
		})
	}

	if _, err := FilterRange(in, Range{DepthMin: 50, DepthMax: 10}); err == nil {
		t.Error("inverted depth range should be rejected")
	}
}

func TestFilterRangeDropsNaNDepth(t *testing.T) {
	in := []Sample{
		{Time: t0, Depth: math.NaN()},
		{Time: t0, Depth: math.NaN()},
		{Time: t0, Depth: 10},
	}
	got, err := FilterRange(in, Range{DepthMin: 0, DepthMax: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %d samples, want 0", len(got))
	}

	got, err = FilterRange(in, Range{DepthMin: 0, DepthMax: 50})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Depth != 10 {
		t.Errorf("only the depth 10 sample should remain, got %+v", got)
	}
}

func TestFilterRangeComparesInstants(t *testing.T) {
	cdt := time.FixedZone("CDT", -5*3600)
	in := []Sample{{Time: t0, Depth: 1}}
	got, err := FilterRange(in, Range{DepthMin: 0, DepthMax: 2, TimeMin: t0.In(cdt), TimeMax: t0.In(cdt)})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("the same instant in another zone should match")
	}
}

func TestDiscreteClassify(t *testing.T) {
	scheme := mustDiscrete(t, DefaultSpeedBounds)

	tests := []struct {
		speed   float64
		wantBin int
	}{
		{0, 0},
		{0.05, 0},
		{0.10, 0},
		{0.1000001, 1},
		{0.20, 1},
		{0.25, 2},
		{0.40, 3},
		{0.45, 4},
		{0.50, 4},
		{0.51, 5},
		{12, 5},
	}
	for _, tt := range tests {
		c, err := ClassifyColor(tt.speed, scheme)
		if err != nil {
			t.Fatalf("speed %v: %v", tt.speed, err)
		}
		if c.Bin != tt.wantBin {
			t.Errorf("speed %v: got bin %d, want %d", tt.speed, c.Bin, tt.wantBin)
		}
		if c.RGBA != testPalette[tt.wantBin] {
			t.Errorf("speed %v: got color %v, want %v", tt.speed, c.RGBA, testPalette[tt.wantBin])
		}
	}
}

func TestDiscreteClassifyMonotonic(t *testing.T) {
	scheme := mustDiscrete(t, DefaultSpeedBounds)
	prev := -1
	for speed := 0.0; speed < 1.5; speed += 0.001 {
		c, err := scheme.Classify(speed)
		if err != nil {
			t.Fatal(err)
		}
		if c.Bin < prev {
			t.Fatalf("bin went backwards at speed %v: %d after %d", speed, c.Bin, prev)
		}
		prev = c.Bin
	}
}

func TestDiscreteCatchAllWithFiniteLastBound(t *testing.T) {
	scheme := mustDiscrete(t, []float64{10, 20, 30, 40, 50, 60})
	c, err := scheme.Classify(1000)
	if err != nil {
		t.Fatal(err)
	}
	if c.Bin != 5 {
		t.Errorf("got bin %d, want catch-all 5", c.Bin)
	}
}

func TestNewDiscreteSchemeValidation(t *testing.T) {
	if _, err := NewDiscreteScheme([]float64{0.1, 0.2}, testPalette); err == nil {
		t.Error("mismatched bounds and colors should be rejected")
	}
	if _, err := NewDiscreteScheme([]float64{0.1, 0.3, 0.2, 0.4, 0.5, math.Inf(1)}, testPalette); err == nil {
		t.Error("unsorted bounds should be rejected")
	}
}

func TestDiscreteLegend(t *testing.T) {
	scheme := mustDiscrete(t, DefaultSpeedBounds)
	legend := scheme.Legend("m/s")
	if len(legend) != 6 {
		t.Fatalf("got %d entries", len(legend))
	}
	if legend[0].Label != "<= 0.10 m/s" {
		t.Errorf("first label %q", legend[0].Label)
	}
	if legend[5].Label != "> 0.50 m/s" {
		t.Errorf("last label %q", legend[5].Label)
	}
}

func TestContinuousScheme(t *testing.T) {
	base, err := NewContinuousScheme(moreland.SmoothBlueRed())
	if err != nil {
		t.Fatal(err)
	}

	fitted, err := base.Fit([]float64{0.2, 0.6, 1.0})
	if err != nil {
		t.Fatal(err)
	}
	cs := fitted.(*ContinuousScheme)
	if cs.Min != 0.2 || cs.Max != 1.0 {
		t.Fatalf("got scale [%v, %v]", cs.Min, cs.Max)
	}
	if base.Min != 0 || base.Max != 0 {
		t.Errorf("fitting mutated the base scheme")
	}

	tests := []struct {
		speed    float64
		wantNorm float64
	}{
		{0.2, 0},
		{0.6, 0.5},
		{1.0, 1},
		{5.0, 1},
		{0.0, 0},
	}
	for _, tt := range tests {
		c, err := cs.Classify(tt.speed)
		if err != nil {
			t.Fatalf("speed %v: %v", tt.speed, err)
		}
		if c.Bin != -1 {
			t.Errorf("continuous color should have bin -1, got %d", c.Bin)
		}
		if math.Abs(c.Norm-tt.wantNorm) > 1e-9 {
			t.Errorf("speed %v: norm %v, want %v", tt.speed, c.Norm, tt.wantNorm)
		}
	}

	low, _ := cs.Classify(0.2)
	high, _ := cs.Classify(1.0)
	if low.RGBA == high.RGBA {
		t.Error("ends of the colormap should differ")
	}
}

func TestContinuousSchemeDegenerateAndPinned(t *testing.T) {
	base, err := NewContinuousScheme(moreland.Kindlmann())
	if err != nil {
		t.Fatal(err)
	}
	fitted, err := base.Fit([]float64{0.3, 0.3})
	if err != nil {
		t.Fatal(err)
	}
	c, err := fitted.Classify(0.3)
	if err != nil {
		t.Fatal(err)
	}
	if c.Norm != 0 {
		t.Errorf("degenerate range should normalize to 0, got %v", c.Norm)
	}

	if err := base.Pin(0, 2); err != nil {
		t.Fatal(err)
	}
	pinned, err := base.Fit([]float64{0.3, 0.5})
	if err != nil {
		t.Fatal(err)
	}
	c, err = pinned.Classify(1)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(c.Norm-0.5) > 1e-9 {
		t.Errorf("pinned scale ignored: norm %v", c.Norm)
	}

	if _, err := base.Fit(nil); err != nil {
		t.Errorf("pinned scheme should not need data: %v", err)
	}
}

func TestGroupByDepth(t *testing.T) {
	vs := []VectorSample{
		{Sample: Sample{Time: t0, Depth: 50, Speed: 1}},
		{Sample: Sample{Time: t0, Depth: 10, Speed: 2}},
		{Sample: Sample{Time: t0.Add(time.Hour), Depth: 50, Speed: 3}},
		{Sample: Sample{Time: t0, Depth: 30, Speed: 4}},
		{Sample: Sample{Time: t0.Add(2 * time.Hour), Depth: 10, Speed: 5}},
		{Sample: Sample{Time: t0.Add(-time.Hour), Depth: 50, Speed: 6}},
	}

	groups := GroupByDepth(vs, Descending)
	wantDepths := []float64{50, 30, 10}
	if len(groups) != len(wantDepths) {
		t.Fatalf("got %d groups", len(groups))
	}
	for i, d := range wantDepths {
		if groups[i].Depth != d {
			t.Errorf("group %d: depth %v, want %v", i, groups[i].Depth, d)
		}
	}

	// In-group order follows the input, not time or speed.
	wantSpeeds50 := []float64{1, 3, 6}
	for i, s := range wantSpeeds50 {
		if groups[0].Vectors[i].Speed != s {
			t.Errorf("depth 50 position %d: speed %v, want %v", i, groups[0].Vectors[i].Speed, s)
		}
	}

	total := 0
	for _, g := range groups {
		total += len(g.Vectors)
		for _, v := range g.Vectors {
			if v.Depth != g.Depth {
				t.Errorf("vector at %v placed in group %v", v.Depth, g.Depth)
			}
		}
	}
	if total != len(vs) {
		t.Errorf("partition lost or duplicated vectors: %d of %d", total, len(vs))
	}

	if groups[0].Summary.Count != 3 || groups[0].Summary.MaxSpeed != 6 {
		t.Errorf("unexpected summary %+v", groups[0].Summary)
	}

	asc := GroupByDepth(vs, Ascending)
	if asc[0].Depth != 10 || asc[2].Depth != 50 {
		t.Errorf("ascending order wrong: %v, %v", asc[0].Depth, asc[2].Depth)
	}
}

func TestGroupByDepthExactValues(t *testing.T) {
	vs := []VectorSample{
		{Sample: Sample{Depth: 10}},
		{Sample: Sample{Depth: 10.0000001}},
	}
	if got := GroupByDepth(vs, Descending); len(got) != 2 {
		t.Errorf("depths must not be rounded together, got %d groups", len(got))
	}
}

func TestGroupByDepthSkipsNaN(t *testing.T) {
	vs := []VectorSample{
		{Sample: Sample{Depth: math.NaN()}},
		{Sample: Sample{Depth: 10}},
		{Sample: Sample{Depth: math.NaN()}},
	}
	got := GroupByDepth(vs, Descending)
	if len(got) != 1 {
		t.Fatalf("got %d groups, want 1", len(got))
	}
	if got[0].Depth != 10 || len(got[0].Vectors) != 1 {
		t.Errorf("unexpected group %+v", got[0])
	}
}

func TestParseOrder(t *testing.T) {
	if o, err := ParseOrder(""); err != nil || o != Descending {
		t.Errorf("default should be descending")
	}
	if o, err := ParseOrder("ascending"); err != nil || o != Ascending {
		t.Errorf("ascending not parsed")
	}
	if _, err := ParseOrder("sideways"); err == nil {
		t.Error("unknown order should be rejected")
	}
}

func TestPrepareEndToEnd(t *testing.T) {
	samples := []Sample{
		{Time: t0, Depth: 10, Speed: 5, Direction: 0},
		{Time: t0, Depth: 10, Speed: 45, Direction: 90},
	}
	p := &Preparer{
		UnitFactor: 1,
		Range:      Range{DepthMin: 0, DepthMax: 100},
		Scheme:     mustDiscrete(t, []float64{10, 20, 30, 40, 50, math.Inf(1)}),
	}

	field, err := p.Prepare(samples)
	if err != nil {
		t.Fatal(err)
	}
	if len(field.Vectors) != 2 {
		t.Fatalf("got %d vectors", len(field.Vectors))
	}

	wantBins := []int{0, 4}
	wantUV := [][2]float64{{0, 5}, {45, 0}}
	for i, v := range field.Vectors {
		if v.Color.Bin != wantBins[i] {
			t.Errorf("vector %d: bin %d, want %d", i, v.Color.Bin, wantBins[i])
		}
		if math.Abs(v.U-wantUV[i][0]) > 1e-9 || math.Abs(v.V-wantUV[i][1]) > 1e-9 {
			t.Errorf("vector %d: (%v, %v), want %v", i, v.U, v.V, wantUV[i])
		}
	}
	if len(field.Groups) != 1 || field.Groups[0].Depth != 10 {
		t.Errorf("unexpected groups %+v", field.Groups)
	}
}

func TestPrepareAllMissingIsNoData(t *testing.T) {
	samples := []Sample{
		{Time: t0, Depth: 10, Speed: math.NaN(), Direction: math.NaN()},
		{Time: t0, Depth: 20, Speed: math.NaN(), Direction: 45},
	}
	p := &Preparer{UnitFactor: 100, Range: Range{DepthMin: 0, DepthMax: 100}, Scheme: mustDiscrete(t, DefaultSpeedBounds)}

	field, err := p.Prepare(samples)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if field != nil {
		t.Error("no field should be produced")
	}
}

func TestPrepareDescendingDepthOrder(t *testing.T) {
	samples := []Sample{
		{Time: t0, Depth: 50, Speed: 10, Direction: 10},
		{Time: t0, Depth: 10, Speed: 10, Direction: 10},
		{Time: t0, Depth: 30, Speed: 10, Direction: 10},
	}
	p := &Preparer{UnitFactor: 100, Range: Range{DepthMin: 0, DepthMax: 100}, Scheme: mustDiscrete(t, DefaultSpeedBounds)}
	field, err := p.Prepare(samples)
	if err != nil {
		t.Fatal(err)
	}
	got := []float64{field.Groups[0].Depth, field.Groups[1].Depth, field.Groups[2].Depth}
	want := []float64{50, 30, 10}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestPrepareConvertsBeforeColoring(t *testing.T) {
	// 45 cm/s is 0.45 m/s, bin 4 with the default bounds.
	samples := []Sample{{Time: t0, Depth: 10, Speed: 45, Direction: 90}}
	p := &Preparer{UnitFactor: 100, Range: Range{DepthMin: 0, DepthMax: 100}, Scheme: mustDiscrete(t, DefaultSpeedBounds)}
	field, err := p.Prepare(samples)
	if err != nil {
		t.Fatal(err)
	}
	if field.Vectors[0].Color.Bin != 4 {
		t.Errorf("got bin %d, want 4", field.Vectors[0].Color.Bin)
	}
	if math.Abs(field.Vectors[0].U-0.45) > 1e-12 {
		t.Errorf("u %v, want 0.45", field.Vectors[0].U)
	}
}

func TestPrepareFitsContinuousScalePerRun(t *testing.T) {
	scheme, err := NewContinuousScheme(moreland.SmoothBlueRed())
	if err != nil {
		t.Fatal(err)
	}
	samples := []Sample{
		{Time: t0, Depth: 10, Speed: 0.1, Direction: 0},
		{Time: t0.Add(time.Hour), Depth: 10, Speed: 0.3, Direction: 0},
		{Time: t0.Add(2 * time.Hour), Depth: 500, Speed: 9.9, Direction: 0},
	}

	p := &Preparer{UnitFactor: 1, Range: Range{DepthMin: 0, DepthMax: 100}, Scheme: scheme}
	field, err := p.Prepare(samples)
	if err != nil {
		t.Fatal(err)
	}
	cs := field.Scheme.(*ContinuousScheme)
	if cs.Min != 0.1 || cs.Max != 0.3 {
		t.Errorf("scale should cover only in-scope samples, got [%v, %v]", cs.Min, cs.Max)
	}
	if math.Abs(field.Vectors[1].Color.Norm-1) > 1e-9 {
		t.Errorf("fastest in-scope sample should normalize to 1, got %v", field.Vectors[1].Color.Norm)
	}
	if !field.TimeMax.Equal(t0.Add(time.Hour)) {
		t.Errorf("time span not tracked: %v", field.TimeMax)
	}
}

func TestColorFormatting(t *testing.T) {
	c := Color{RGBA: color.RGBA{R: 255, G: 165, B: 0, A: 255}}
	if c.Hex() != "#ffa500" {
		t.Errorf("hex %q", c.Hex())
	}
	if c.CSS() != "rgba(255,165,0,1.000)" {
		t.Errorf("css %q", c.CSS())
	}
}

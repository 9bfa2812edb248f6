// Package binning describes how a material grid's axes are discretized.
//
// A Utility holds zero, one or two independent axes (Data). Each axis has a
// value kind (the spatial or angular quantity it bins), an edge layout
// (equidistant or arbitrary) and a boundary behaviour. An optional Transform
// maps global positions into the binning frame before lookup.
package binning

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	ErrUnknownValue  = errors.New("binning: unknown axis kind")
	ErrUnknownOption = errors.New("binning: unknown boundary option")
	ErrUnknownType   = errors.New("binning: unknown edge layout")
	ErrInvalidEdges  = errors.New("binning: invalid edges")
	ErrTooManyAxes   = errors.New("binning: too many axes")
)

// MaxAxes is the number of axes a Utility may carry.
const MaxAxes = 2

// Value is the quantity an axis bins.
type Value int

const (
	BinX Value = iota
	BinY
	BinZ
	BinR
	BinPhi
	BinRPhi
	BinH
	BinEta
	BinMag
)

var valueNames = [...]string{"binX", "binY", "binZ", "binR", "binPhi", "binRPhi", "binH", "binEta", "binMag"}

func (v Value) String() string {
	if v < BinX || v > BinMag {
		return "unknown"
	}
	return valueNames[v]
}

// ParseValue maps a stable token such as "binR" to its Value.
func ParseValue(s string) (Value, error) {
	for i, name := range valueNames {
		if name == s {
			return Value(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownValue, s)
}

// Option is the boundary behaviour of an axis.
type Option int

const (
	// Open clamps out-of-range positions into the first or last bin.
	Open Option = iota
	// Closed reports no bin for out-of-range positions.
	Closed
	// Circular wraps out-of-range positions around the axis.
	Circular
)

var optionNames = [...]string{"open", "closed", "circular"}

func (o Option) String() string {
	if o < Open || o > Circular {
		return "unknown"
	}
	return optionNames[o]
}

func ParseOption(s string) (Option, error) {
	for i, name := range optionNames {
		if name == s {
			return Option(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOption, s)
}

// Type is the edge layout of an axis.
type Type int

const (
	Equidistant Type = iota
	Arbitrary
)

var typeNames = [...]string{"equidistant", "arbitrary"}

func (t Type) String() string {
	if t < Equidistant || t > Arbitrary {
		return "unknown"
	}
	return typeNames[t]
}

func ParseType(s string) (Type, error) {
	for i, name := range typeNames {
		if name == s {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// Data is a single binned axis.
//
// For Equidistant axes Edges is nil and the edges are derived from Min, Max
// and Bins. For Arbitrary axes Edges holds Bins+1 strictly increasing values
// and Min/Max mirror its first and last element.
type Data struct {
	Value  Value
	Option Option
	Type   Type
	Bins   int
	Min    float64
	Max    float64
	Edges  []float64
}

// NewEquidistant builds an axis of bins equal-width bins over [lo, hi].
func NewEquidistant(v Value, opt Option, bins int, lo, hi float64) (Data, error) {
	d := Data{Value: v, Option: opt, Type: Equidistant, Bins: bins, Min: lo, Max: hi}
	if err := d.Validate(); err != nil {
		return Data{}, err
	}
	return d, nil
}

// NewArbitrary builds an axis from explicit edges. The slice is copied.
func NewArbitrary(v Value, opt Option, edges []float64) (Data, error) {
	if len(edges) < 2 {
		return Data{}, fmt.Errorf("%w: need at least 2 edges, got %d", ErrInvalidEdges, len(edges))
	}
	d := Data{
		Value:  v,
		Option: opt,
		Type:   Arbitrary,
		Bins:   len(edges) - 1,
		Min:    edges[0],
		Max:    edges[len(edges)-1],
		Edges:  append([]float64(nil), edges...),
	}
	if err := d.Validate(); err != nil {
		return Data{}, err
	}
	return d, nil
}

// Validate checks the axis invariants.
func (d Data) Validate() error {
	if d.Value < BinX || d.Value > BinMag {
		return fmt.Errorf("%w: %d", ErrUnknownValue, d.Value)
	}
	if d.Option < Open || d.Option > Circular {
		return fmt.Errorf("%w: %d", ErrUnknownOption, d.Option)
	}
	if d.Bins < 1 {
		return fmt.Errorf("%w: bin count %d < 1", ErrInvalidEdges, d.Bins)
	}
	switch d.Type {
	case Equidistant:
		if math.IsNaN(d.Min) || math.IsNaN(d.Max) || !(d.Min < d.Max) {
			return fmt.Errorf("%w: range [%g, %g] is empty", ErrInvalidEdges, d.Min, d.Max)
		}
		if d.Edges != nil {
			return fmt.Errorf("%w: equidistant axis carries explicit edges", ErrInvalidEdges)
		}
	case Arbitrary:
		if len(d.Edges) != d.Bins+1 {
			return fmt.Errorf("%w: %d bins need %d edges, got %d", ErrInvalidEdges, d.Bins, d.Bins+1, len(d.Edges))
		}
		for i := 1; i < len(d.Edges); i++ {
			if !(d.Edges[i-1] < d.Edges[i]) {
				return fmt.Errorf("%w: edges not strictly increasing at %d", ErrInvalidEdges, i)
			}
		}
		if d.Min != d.Edges[0] || d.Max != d.Edges[len(d.Edges)-1] {
			return fmt.Errorf("%w: min/max disagree with edges", ErrInvalidEdges)
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownType, d.Type)
	}
	return nil
}

// Boundaries returns the Bins+1 bin edges.
func (d Data) Boundaries() []float64 {
	if d.Type == Arbitrary {
		return append([]float64(nil), d.Edges...)
	}
	return floats.Span(make([]float64, d.Bins+1), d.Min, d.Max)
}

// Search returns the bin containing x. ok is false only for Closed axes when
// x falls outside the range.
func (d Data) Search(x float64) (bin int, ok bool) {
	if d.Bins < 1 || math.IsNaN(x) {
		return 0, false
	}
	if d.Option == Circular {
		width := d.Max - d.Min
		x = d.Min + math.Mod(math.Mod(x-d.Min, width)+width, width)
	}
	if x < d.Min || x > d.Max {
		switch d.Option {
		case Closed:
			return 0, false
		case Open:
			if x < d.Min {
				return 0, true
			}
			return d.Bins - 1, true
		}
	}
	switch d.Type {
	case Equidistant:
		bin = int((x - d.Min) / (d.Max - d.Min) * float64(d.Bins))
	default:
		// Edges[bin] <= x < Edges[bin+1]
		bin = sort.SearchFloat64s(d.Edges, x)
		if bin < len(d.Edges) && d.Edges[bin] == x {
			bin++
		}
		bin--
	}
	if bin < 0 {
		bin = 0
	}
	if bin > d.Bins-1 {
		bin = d.Bins - 1
	}
	return bin, true
}

// Transform maps a global position into the binning frame:
// local = Rotation * global + Translation. Rotation is stored row by row.
type Transform struct {
	Rotation    [3]r3.Vec
	Translation r3.Vec
}

// Identity returns the transform that leaves positions unchanged.
func Identity() Transform {
	return Transform{Rotation: [3]r3.Vec{{X: 1}, {Y: 1}, {Z: 1}}}
}

// Apply maps a global position into the local frame.
func (t Transform) Apply(global r3.Vec) r3.Vec {
	return r3.Add(r3.Vec{
		X: r3.Dot(t.Rotation[0], global),
		Y: r3.Dot(t.Rotation[1], global),
		Z: r3.Dot(t.Rotation[2], global),
	}, t.Translation)
}

// Values flattens the transform into 12 numbers: the rotation row-major, then the translation.
func (t Transform) Values() []float64 {
	out := make([]float64, 0, 12)
	for _, row := range t.Rotation {
		out = append(out, row.X, row.Y, row.Z)
	}
	return append(out, t.Translation.X, t.Translation.Y, t.Translation.Z)
}

// TransformFromValues is the inverse of Transform.Values.
func TransformFromValues(v []float64) (Transform, error) {
	if len(v) != 12 {
		return Transform{}, fmt.Errorf("binning: transform needs 12 values, got %d", len(v))
	}
	var t Transform
	for i := range t.Rotation {
		t.Rotation[i] = r3.Vec{X: v[3*i], Y: v[3*i+1], Z: v[3*i+2]}
	}
	t.Translation = r3.Vec{X: v[9], Y: v[10], Z: v[11]}
	return t, nil
}

// Utility is a binning scheme of up to two axes.
type Utility struct {
	Axes      []Data
	Transform *Transform
}

// NewUtility validates and assembles a scheme.
func NewUtility(transform *Transform, axes ...Data) (Utility, error) {
	u := Utility{Axes: axes, Transform: transform}
	if err := u.Validate(); err != nil {
		return Utility{}, err
	}
	return u, nil
}

func (u Utility) Validate() error {
	if len(u.Axes) > MaxAxes {
		return fmt.Errorf("%w: %d > %d", ErrTooManyAxes, len(u.Axes), MaxAxes)
	}
	for i, d := range u.Axes {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("axis %d: %w", i, err)
		}
	}
	return nil
}

// Dims returns the number of axes.
func (u Utility) Dims() int {
	return len(u.Axes)
}

// Bins returns the bin count of axis i, or 1 if the axis is absent.
func (u Utility) Bins(i int) int {
	if i < 0 || i >= len(u.Axes) {
		return 1
	}
	return u.Axes[i].Bins
}

// Lookup locates the bins of a global position. Missing axes report bin 0.
func (u Utility) Lookup(global r3.Vec) (bin0, bin1 int, ok bool) {
	pos := global
	if u.Transform != nil {
		pos = u.Transform.Apply(global)
	}
	bins := [MaxAxes]int{}
	for i, d := range u.Axes {
		b, found := d.Search(d.Value.Project(pos))
		if !found {
			return 0, 0, false
		}
		bins[i] = b
	}
	return bins[0], bins[1], true
}

// Project extracts the quantity v from a local position.
func (v Value) Project(p r3.Vec) float64 {
	r := math.Hypot(p.X, p.Y)
	switch v {
	case BinX:
		return p.X
	case BinY:
		return p.Y
	case BinZ:
		return p.Z
	case BinR:
		return r
	case BinPhi:
		return math.Atan2(p.Y, p.X)
	case BinRPhi:
		return r * math.Atan2(p.Y, p.X)
	case BinH:
		return math.Atan2(r, p.Z)
	case BinEta:
		theta := math.Atan2(r, p.Z)
		return -math.Log(math.Tan(theta / 2))
	case BinMag:
		return r3.Norm(p)
	}
	return math.NaN()
}

// Package material holds material property tuples, the proto/homogeneous/binned
// grid variant that describes material attached to a surface or volume, and the
// native material objects built from grids.
package material

import (
	"errors"
	"fmt"

	"github.com/logicossoftware/go-matjson/binning"
	"github.com/logicossoftware/go-matjson/geoid"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	ErrDimensionMismatch = errors.New("material: grid dimensions do not match binning")
	ErrInvalidProperties = errors.New("material: invalid property tuple")
	ErrUnknownKind       = errors.New("material: unknown grid kind")
)

// NumProperties is the length of a non-vacuum property tuple.
const NumProperties = 6

// Properties describes a slab of material.
//
// The zero value is a real (if degenerate) all-zero material. Absence of
// material is represented only by Vacuum().
type Properties struct {
	Thickness float64
	X0        float64 // radiation length
	L0        float64 // nuclear interaction length
	A         float64
	Z         float64
	Rho       float64

	vacuum bool
}

// Vacuum returns the sentinel for "no material".
func Vacuum() Properties {
	return Properties{vacuum: true}
}

func (p Properties) IsVacuum() bool {
	return p.vacuum
}

// Values returns the tuple in document order, or nil for vacuum.
func (p Properties) Values() []float64 {
	if p.vacuum {
		return nil
	}
	return []float64{p.Thickness, p.X0, p.L0, p.A, p.Z, p.Rho}
}

// PropertiesFromValues is the inverse of Properties.Values: an empty slice is vacuum.
func PropertiesFromValues(v []float64) (Properties, error) {
	switch len(v) {
	case 0:
		return Vacuum(), nil
	case NumProperties:
		return Properties{Thickness: v[0], X0: v[1], L0: v[2], A: v[3], Z: v[4], Rho: v[5]}, nil
	}
	return Properties{}, fmt.Errorf("%w: want 0 or %d values, got %d", ErrInvalidProperties, NumProperties, len(v))
}

// Kind discriminates the Grid variant.
type Kind int

const (
	KindProto Kind = iota
	KindHomogeneous
	KindBinned
)

var kindNames = [...]string{"proto", "homogeneous", "binned"}

func (k Kind) String() string {
	if k < KindProto || k > KindBinned {
		return "unknown"
	}
	return kindNames[k]
}

func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Grid is material attached to a surface or volume.
//
//   - KindProto: Binning only, no values.
//   - KindHomogeneous: Data is 1x1, no binning.
//   - KindBinned: Binning plus Data with len(Data) == Bins(1) and
//     len(Data[i]) == Bins(0). A 1x1 binned grid stays KindBinned.
type Grid struct {
	Kind    Kind
	Binning binning.Utility
	Data    [][]Properties
}

// ProtoGrid returns a skeleton grid over u.
func ProtoGrid(u binning.Utility) Grid {
	return Grid{Kind: KindProto, Binning: u}
}

// HomogeneousGrid returns a grid applying p uniformly.
func HomogeneousGrid(p Properties) Grid {
	return Grid{Kind: KindHomogeneous, Data: [][]Properties{{p}}}
}

// BinnedGrid returns a binned grid after checking data against u.
func BinnedGrid(u binning.Utility, data [][]Properties) (Grid, error) {
	g := Grid{Kind: KindBinned, Binning: u, Data: data}
	if err := g.Validate(); err != nil {
		return Grid{}, err
	}
	return g, nil
}

// Properties returns the uniform tuple of a homogeneous grid, or vacuum otherwise.
func (g Grid) Properties() Properties {
	if g.Kind != KindHomogeneous || len(g.Data) == 0 || len(g.Data[0]) == 0 {
		return Vacuum()
	}
	return g.Data[0][0]
}

// Validate checks the variant's invariants.
func (g Grid) Validate() error {
	switch g.Kind {
	case KindProto:
		if g.Data != nil {
			return fmt.Errorf("%w: proto grid carries values", ErrInvalidProperties)
		}
		return g.Binning.Validate()
	case KindHomogeneous:
		if len(g.Data) != 1 || len(g.Data[0]) != 1 {
			return fmt.Errorf("%w: homogeneous grid must be 1x1", ErrDimensionMismatch)
		}
		return nil
	case KindBinned:
		if err := g.Binning.Validate(); err != nil {
			return err
		}
		return CheckDimensions(g.Binning, g.Data)
	}
	return fmt.Errorf("%w: %d", ErrUnknownKind, g.Kind)
}

// CheckDimensions verifies len(data) == u.Bins(1) and every row has u.Bins(0) entries.
func CheckDimensions(u binning.Utility, data [][]Properties) error {
	if len(data) != u.Bins(1) {
		return fmt.Errorf("%w: %d rows, binning expects %d", ErrDimensionMismatch, len(data), u.Bins(1))
	}
	for i, row := range data {
		if len(row) != u.Bins(0) {
			return fmt.Errorf("%w: row %d has %d columns, binning expects %d", ErrDimensionMismatch, i, len(row), u.Bins(0))
		}
	}
	return nil
}

// Material is a native material object attached to a surface or volume.
type Material interface {
	// Grid returns the grid form of the material.
	Grid() Grid
	// PropertiesAt returns the material at a global position.
	PropertiesAt(pos r3.Vec) Properties
}

// Homogeneous applies one tuple everywhere.
type Homogeneous struct {
	Properties Properties
}

func (h *Homogeneous) Grid() Grid                     { return HomogeneousGrid(h.Properties) }
func (h *Homogeneous) PropertiesAt(r3.Vec) Properties { return h.Properties }

// Binned looks material up through its binning.
type Binned struct {
	Binning binning.Utility
	Matrix  [][]Properties
}

func (b *Binned) Grid() Grid {
	return Grid{Kind: KindBinned, Binning: b.Binning, Data: b.Matrix}
}

func (b *Binned) PropertiesAt(pos r3.Vec) Properties {
	b0, b1, ok := b.Binning.Lookup(pos)
	if !ok || b1 >= len(b.Matrix) || b0 >= len(b.Matrix[b1]) {
		return Vacuum()
	}
	return b.Matrix[b1][b0]
}

// Proto marks where material is expected without carrying values.
type Proto struct {
	Binning binning.Utility
}

func (p *Proto) Grid() Grid                     { return ProtoGrid(p.Binning) }
func (p *Proto) PropertiesAt(r3.Vec) Properties { return Vacuum() }

// FromGrid materializes a native object for g. The returned object is newly
// allocated and shares no slices with g.
func FromGrid(g Grid) (Material, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	switch g.Kind {
	case KindHomogeneous:
		return &Homogeneous{Properties: g.Properties()}, nil
	case KindBinned:
		matrix := make([][]Properties, len(g.Data))
		for i, row := range g.Data {
			matrix[i] = append([]Properties(nil), row...)
		}
		return &Binned{Binning: cloneUtility(g.Binning), Matrix: matrix}, nil
	default:
		return &Proto{Binning: cloneUtility(g.Binning)}, nil
	}
}

func cloneUtility(u binning.Utility) binning.Utility {
	out := binning.Utility{}
	if u.Axes != nil {
		out.Axes = make([]binning.Data, len(u.Axes))
		for i, d := range u.Axes {
			if d.Edges != nil {
				d.Edges = append([]float64(nil), d.Edges...)
			}
			out.Axes[i] = d
		}
	}
	if u.Transform != nil {
		t := *u.Transform
		out.Transform = &t
	}
	return out
}

// SurfaceMap holds surface material keyed by surface identifier.
type SurfaceMap map[geoid.ID]Material

// VolumeMap holds volume material keyed by volume identifier.
type VolumeMap map[geoid.ID]Material

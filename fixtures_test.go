package matjson

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/logicossoftware/go-matjson/binning"
	"github.com/logicossoftware/go-matjson/geoid"
	"github.com/logicossoftware/go-matjson/geometry"
	"github.com/logicossoftware/go-matjson/material"
)

func silicon() material.Properties {
	return material.Properties{Thickness: 0.8, X0: 352.8, L0: 407.0, A: 28.03, Z: 14.0, Rho: 0.0023}
}

func beryllium() material.Properties {
	return material.Properties{Thickness: 1.2, X0: 352.8, L0: 421.0, A: 9.012, Z: 4.0, Rho: 0.00185}
}

func id(f geoid.Fields) geoid.ID {
	return geoid.MustEncode(f)
}

// grid2x3 is binned over x in [0,10] (2 bins) and y in [-5,5] (3 bins); the
// thickness of cell (row i, column j) is 10*i+j.
func grid2x3(t *testing.T) material.Grid {
	t.Helper()
	a0, err := binning.NewEquidistant(binning.BinX, binning.Open, 2, 0, 10)
	require.NoError(t, err)
	a1, err := binning.NewEquidistant(binning.BinY, binning.Open, 3, -5, 5)
	require.NoError(t, err)
	u, err := binning.NewUtility(nil, a0, a1)
	require.NoError(t, err)
	data := make([][]material.Properties, 3)
	for i := range data {
		data[i] = make([]material.Properties, 2)
		for j := range data[i] {
			p := silicon()
			p.Thickness = float64(10*i + j)
			data[i][j] = p
		}
	}
	g, err := material.BinnedGrid(u, data)
	require.NoError(t, err)
	return g
}

func native(t *testing.T, g material.Grid) material.Material {
	t.Helper()
	m, err := material.FromGrid(g)
	require.NoError(t, err)
	return m
}

// beampipe is a single volume with one homogeneous boundary.
func beampipe(t *testing.T) *geometry.StaticVolume {
	t.Helper()
	return &geometry.StaticVolume{
		VolumeID:   id(geoid.Fields{Volume: 1}),
		VolumeName: "Beampipe",
		Boundaries: []geometry.Surface{
			&geometry.StaticSurface{
				SurfaceID:       id(geoid.Fields{Volume: 1, Boundary: 2}),
				SurfaceMaterial: &material.Homogeneous{Properties: silicon()},
			},
		},
	}
}

// detector is a world volume confining a pixel volume that carries every
// material category.
func detector(t *testing.T) *geometry.StaticVolume {
	t.Helper()
	phi, err := binning.NewArbitrary(binning.BinPhi, binning.Circular, []float64{-3.2, -1, 0, 1, 3.2})
	require.NoError(t, err)
	tr := binning.Identity()
	tr.Translation.Z = -250
	u, err := binning.NewUtility(&tr, phi)
	require.NoError(t, err)

	vacuumCell := grid2x3(t)
	vacuumCell.Data[1][0] = material.Vacuum()

	layer := &geometry.StaticLayer{
		LayerID: id(geoid.Fields{Volume: 2, Layer: 2}),
		Sensitives: []geometry.Surface{
			&geometry.StaticSurface{SurfaceID: id(geoid.Fields{Volume: 2, Layer: 2, Sensitive: 1}), SurfaceMaterial: native(t, grid2x3(t))},
			&geometry.StaticSurface{SurfaceID: id(geoid.Fields{Volume: 2, Layer: 2, Sensitive: 2}), SurfaceMaterial: native(t, vacuumCell)},
			&geometry.StaticSurface{SurfaceID: id(geoid.Fields{Volume: 2, Layer: 2, Sensitive: 3})},
		},
		Approaches: []geometry.Surface{
			&geometry.StaticSurface{SurfaceID: id(geoid.Fields{Volume: 2, Layer: 2, Approach: 1}), SurfaceMaterial: &material.Homogeneous{Properties: beryllium()}},
		},
		Representing: &geometry.StaticSurface{
			SurfaceID:       id(geoid.Fields{Volume: 2, Layer: 2}),
			SurfaceMaterial: &material.Proto{Binning: u},
		},
	}
	empty := &geometry.StaticLayer{LayerID: id(geoid.Fields{Volume: 2, Layer: 4})}

	pixel := &geometry.StaticVolume{
		VolumeID:   id(geoid.Fields{Volume: 2}),
		VolumeName: "Pixel",
		Layers:     []geometry.Layer{layer, empty},
		Boundaries: []geometry.Surface{
			&geometry.StaticSurface{SurfaceID: id(geoid.Fields{Volume: 2, Boundary: 3}), SurfaceMaterial: &material.Homogeneous{Properties: beryllium()}},
			&geometry.StaticSurface{SurfaceID: id(geoid.Fields{Volume: 2, Boundary: 4})},
		},
		VolumeMaterial: &material.Homogeneous{Properties: material.Properties{X0: 30390, L0: 74780, A: 39.95, Z: 18, Rho: 0.0017}},
	}
	return &geometry.StaticVolume{
		VolumeID:   id(geoid.Fields{Volume: 1}),
		VolumeName: "World",
		Volumes:    []geometry.Volume{pixel},
	}
}

func newConverter(t *testing.T, cfg Config, opts ...Option) *Converter {
	t.Helper()
	c, err := New(cfg, opts...)
	require.NoError(t, err)
	return c
}

// throughJSON serializes doc and parses it back.
func throughJSON(t *testing.T, doc Document) Document {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WriteDocument(&buf, doc))
	out, err := ReadDocument(&buf)
	require.NoError(t, err)
	return out
}

// obj walks nested objects of doc by key.
func obj(t *testing.T, doc map[string]any, keys ...string) map[string]any {
	t.Helper()
	cur := doc
	for _, k := range keys {
		next, ok := cur[k].(map[string]any)
		require.Truef(t, ok, "key %q is not an object", k)
		cur = next
	}
	return cur
}

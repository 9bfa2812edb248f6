package matjson

import (
	"fmt"

	"github.com/logicossoftware/go-matjson/geoid"
	"github.com/logicossoftware/go-matjson/material"
)

// encodeGrid renders g as a material leaf tagged with id. Without writeData
// the leaf keeps its type tag and binning but carries no values.
func (c Config) encodeGrid(g material.Grid, id geoid.ID, writeData bool) map[string]any {
	leaf := map[string]any{
		c.TypeKey:  g.Kind.String(),
		c.GeoIDKey: uint64(id),
	}
	switch g.Kind {
	case material.KindHomogeneous:
		if writeData {
			leaf[c.DataKey] = tupleValue(g.Properties())
		}
	case material.KindBinned:
		c.encodeBinning(leaf, g.Binning)
		if writeData {
			rows := make([]any, len(g.Data))
			for i, row := range g.Data {
				cells := make([]any, len(row))
				for j, p := range row {
					cells[j] = tupleValue(p)
				}
				rows[i] = cells
			}
			leaf[c.DataKey] = rows
		}
	default:
		c.encodeBinning(leaf, g.Binning)
	}
	return leaf
}

// tupleValue renders p; vacuum is the empty array.
func tupleValue(p material.Properties) []any {
	return floatsValue(p.Values())
}

// decodeGrid parses a material leaf. A homogeneous or binned leaf without
// data is a skeleton and decodes to a proto grid.
func (c Config) decodeGrid(leaf map[string]any, maxBins int) (material.Grid, error) {
	raw, err := field(leaf, c.TypeKey)
	if err != nil {
		return material.Grid{}, err
	}
	tag, err := asString(raw)
	if err != nil {
		return material.Grid{}, &PathError{Path: []string{c.TypeKey}, Err: err}
	}
	kind, err := material.ParseKind(tag)
	if err != nil {
		return material.Grid{}, &PathError{Path: []string{c.TypeKey}, Err: fmt.Errorf("%w: %w", ErrMalformedDocument, err)}
	}

	u, err := c.decodeBinning(leaf, maxBins)
	if err != nil {
		return material.Grid{}, err
	}
	data, hasData := leaf[c.DataKey]
	if kind == material.KindProto || !hasData {
		g := material.ProtoGrid(u)
		if err := g.Validate(); err != nil {
			return material.Grid{}, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
		}
		return g, nil
	}

	if kind == material.KindHomogeneous {
		p, err := decodeTuple(unwrapSingle(data))
		if err != nil {
			return material.Grid{}, &PathError{Path: []string{c.DataKey}, Err: err}
		}
		return material.HomogeneousGrid(p), nil
	}

	matrix, err := decodeMatrix(data, u.Bins(0), u.Bins(1))
	if err != nil {
		return material.Grid{}, &PathError{Path: []string{c.DataKey}, Err: err}
	}
	g, err := material.BinnedGrid(u, matrix)
	if err != nil {
		return material.Grid{}, err
	}
	return g, nil
}

// decodeMatrix checks the shape against the binning before parsing any tuple:
// bins1 rows of bins0 cells.
func decodeMatrix(v any, bins0, bins1 int) ([][]material.Properties, error) {
	rows, err := asArray(v)
	if err != nil {
		return nil, err
	}
	if len(rows) != bins1 {
		return nil, fmt.Errorf("%w: %d rows, binning expects %d", ErrDimensionMismatch, len(rows), bins1)
	}
	matrix := make([][]material.Properties, len(rows))
	for i, r := range rows {
		cells, err := asArray(r)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if len(cells) != bins0 {
			return nil, fmt.Errorf("%w: row %d has %d columns, binning expects %d", ErrDimensionMismatch, i, len(cells), bins0)
		}
		matrix[i] = make([]material.Properties, len(cells))
		for j, cell := range cells {
			if matrix[i][j], err = decodeTuple(cell); err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", i, j, err)
			}
		}
	}
	return matrix, nil
}

func decodeTuple(v any) (material.Properties, error) {
	vals, err := asFloats(v)
	if err != nil {
		return material.Properties{}, err
	}
	p, err := material.PropertiesFromValues(vals)
	if err != nil {
		return material.Properties{}, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	return p, nil
}

// unwrapSingle accepts a homogeneous tuple written as a 1x1 matrix.
func unwrapSingle(v any) any {
	for {
		arr, ok := v.([]any)
		if !ok || len(arr) != 1 {
			return v
		}
		if _, nested := arr[0].([]any); !nested {
			return v
		}
		v = arr[0]
	}
}

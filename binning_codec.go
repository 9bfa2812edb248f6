package matjson

import (
	"fmt"

	"github.com/logicossoftware/go-matjson/binning"
)

// Axis object keys. These are part of the leaf format, not of Config.
const (
	axisValueKey  = "value"
	axisOptionKey = "option"
	axisTypeKey   = "type"
	axisBinsKey   = "bins"
	axisMinKey    = "min"
	axisMaxKey    = "max"
	axisEdgesKey  = "edges"
)

// encodeAxis renders one axis in object form.
func encodeAxis(d binning.Data) map[string]any {
	out := map[string]any{
		axisValueKey:  d.Value.String(),
		axisOptionKey: d.Option.String(),
		axisTypeKey:   d.Type.String(),
		axisBinsKey:   d.Bins,
	}
	if d.Type == binning.Arbitrary {
		out[axisEdgesKey] = floatsValue(d.Edges)
	} else {
		out[axisMinKey] = d.Min
		out[axisMaxKey] = d.Max
	}
	return out
}

// decodeAxis accepts the object form and the positional form
// [value, option, bins, [min, max] | [edges...]].
// Only an unknown value token is ErrUnknownAxisKind; unknown option or type
// tokens are ErrMalformedDocument.
func decodeAxis(v any, maxBins int) (binning.Data, error) {
	if arr, ok := v.([]any); ok {
		return decodeAxisArray(arr, maxBins)
	}
	obj, err := asObject(v)
	if err != nil {
		return binning.Data{}, err
	}
	value, option, err := axisKind(obj[axisValueKey], obj[axisOptionKey])
	if err != nil {
		return binning.Data{}, err
	}
	bins, err := axisBins(obj, maxBins)
	if err != nil {
		return binning.Data{}, err
	}

	layout := binning.Equidistant
	if raw, ok := obj[axisTypeKey]; ok {
		s, err := asString(raw)
		if err != nil {
			return binning.Data{}, fmt.Errorf("%s: %w", axisTypeKey, err)
		}
		if layout, err = binning.ParseType(s); err != nil {
			return binning.Data{}, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
		}
	} else if _, ok := obj[axisEdgesKey]; ok {
		layout = binning.Arbitrary
	}

	if layout == binning.Arbitrary {
		raw, err := field(obj, axisEdgesKey)
		if err != nil {
			return binning.Data{}, err
		}
		edges, err := asFloats(raw)
		if err != nil {
			return binning.Data{}, fmt.Errorf("%s: %w", axisEdgesKey, err)
		}
		return arbitraryAxis(value, option, bins, edges)
	}

	lo, err := numberField(obj, axisMinKey)
	if err != nil {
		return binning.Data{}, err
	}
	hi, err := numberField(obj, axisMaxKey)
	if err != nil {
		return binning.Data{}, err
	}
	return equidistantAxis(value, option, bins, lo, hi)
}

func decodeAxisArray(arr []any, maxBins int) (binning.Data, error) {
	if len(arr) != 4 {
		return binning.Data{}, fmt.Errorf("%w: positional axis needs 4 elements, got %d", ErrMalformedDocument, len(arr))
	}
	value, option, err := axisKind(arr[0], arr[1])
	if err != nil {
		return binning.Data{}, err
	}
	bins, err := asInt(arr[2])
	if err != nil {
		return binning.Data{}, err
	}
	if err := checkBins(bins, maxBins); err != nil {
		return binning.Data{}, err
	}
	edges, err := asFloats(arr[3])
	if err != nil {
		return binning.Data{}, err
	}
	// Two values are a range unless they are the edges of a single bin,
	// which describes the same axis either way.
	if len(edges) == 2 {
		return equidistantAxis(value, option, bins, edges[0], edges[1])
	}
	return arbitraryAxis(value, option, bins, edges)
}

func axisKind(rawValue, rawOption any) (binning.Value, binning.Option, error) {
	vs, err := asString(rawValue)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", axisValueKey, err)
	}
	value, err := binning.ParseValue(vs)
	if err != nil {
		return 0, 0, err
	}
	option := binning.Open
	if rawOption != nil {
		name, err := asString(rawOption)
		if err != nil {
			return 0, 0, fmt.Errorf("%s: %w", axisOptionKey, err)
		}
		if option, err = binning.ParseOption(name); err != nil {
			return 0, 0, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
		}
	}
	return value, option, nil
}

func axisBins(obj map[string]any, maxBins int) (int, error) {
	raw, err := field(obj, axisBinsKey)
	if err != nil {
		return 0, err
	}
	bins, err := asInt(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", axisBinsKey, err)
	}
	return bins, checkBins(bins, maxBins)
}

func checkBins(bins, maxBins int) error {
	if bins < 1 {
		return fmt.Errorf("%w: bin count %d < 1", ErrMalformedDocument, bins)
	}
	if bins > maxBins {
		return fmt.Errorf("%w: %d bins exceed %d per axis", ErrLimitExceeded, bins, maxBins)
	}
	return nil
}

func numberField(obj map[string]any, key string) (float64, error) {
	raw, err := field(obj, key)
	if err != nil {
		return 0, err
	}
	f, err := asFloat(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func equidistantAxis(v binning.Value, opt binning.Option, bins int, lo, hi float64) (binning.Data, error) {
	d, err := binning.NewEquidistant(v, opt, bins, lo, hi)
	if err != nil {
		return binning.Data{}, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	return d, nil
}

func arbitraryAxis(v binning.Value, opt binning.Option, bins int, edges []float64) (binning.Data, error) {
	if len(edges) != bins+1 {
		return binning.Data{}, fmt.Errorf("%w: %d bins need %d edges, got %d", ErrMalformedDocument, bins, bins+1, len(edges))
	}
	d, err := binning.NewArbitrary(v, opt, edges)
	if err != nil {
		return binning.Data{}, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	return d, nil
}

// encodeBinning writes the axes under bin0/bin1 and the transform, if any, into leaf.
func (c Config) encodeBinning(leaf map[string]any, u binning.Utility) {
	keys := [binning.MaxAxes]string{c.Bin0Key, c.Bin1Key}
	for i, d := range u.Axes {
		if i >= len(keys) {
			break
		}
		leaf[keys[i]] = encodeAxis(d)
	}
	if u.Transform != nil {
		leaf[c.TransformKey] = floatsValue(u.Transform.Values())
	}
}

// decodeBinning reads bin0, bin1 and the transform from leaf. bin1 without
// bin0 is malformed.
func (c Config) decodeBinning(leaf map[string]any, maxBins int) (binning.Utility, error) {
	var u binning.Utility
	raw0, has0 := leaf[c.Bin0Key]
	raw1, has1 := leaf[c.Bin1Key]
	if has1 && !has0 {
		return binning.Utility{}, fmt.Errorf("%w: %q without %q", ErrMalformedDocument, c.Bin1Key, c.Bin0Key)
	}
	if has0 {
		d, err := decodeAxis(raw0, maxBins)
		if err != nil {
			return binning.Utility{}, &PathError{Path: []string{c.Bin0Key}, Err: err}
		}
		u.Axes = append(u.Axes, d)
	}
	if has1 {
		d, err := decodeAxis(raw1, maxBins)
		if err != nil {
			return binning.Utility{}, &PathError{Path: []string{c.Bin1Key}, Err: err}
		}
		u.Axes = append(u.Axes, d)
	}
	if raw, ok := leaf[c.TransformKey]; ok {
		vals, err := asFloats(raw)
		if err != nil {
			return binning.Utility{}, &PathError{Path: []string{c.TransformKey}, Err: err}
		}
		t, err := binning.TransformFromValues(vals)
		if err != nil {
			return binning.Utility{}, &PathError{Path: []string{c.TransformKey}, Err: fmt.Errorf("%w: %v", ErrMalformedDocument, err)}
		}
		u.Transform = &t
	}
	return u, nil
}

package matjson

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Accessors over the generic value tree. Every failure is ErrMalformedDocument;
// callers attach the key path.

func asObject(v any) (map[string]any, error) {
	switch o := v.(type) {
	case map[string]any:
		return o, nil
	case Document:
		return o, nil
	}
	return nil, fmt.Errorf("%w: expected object, got %s", ErrMalformedDocument, kindOf(v))
}

func asArray(v any) ([]any, error) {
	switch a := v.(type) {
	case []any:
		return a, nil
	case []float64:
		out := make([]any, len(a))
		for i, f := range a {
			out[i] = f
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: expected array, got %s", ErrMalformedDocument, kindOf(v))
}

func asString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected string, got %s", ErrMalformedDocument, kindOf(v))
	}
	return s, nil
}

func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		return f, nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	}
	return 0, fmt.Errorf("%w: expected number, got %s", ErrMalformedDocument, kindOf(v))
}

// asUint64 reads a non-negative integer. json.Number is parsed exactly, so
// identifiers above 2^53 survive.
func asUint64(v any) (uint64, error) {
	switch n := v.(type) {
	case json.Number:
		u, err := strconv.ParseUint(n.String(), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: expected unsigned integer, got %s", ErrMalformedDocument, n)
		}
		return u, nil
	case uint64:
		return n, nil
	case int:
		if n >= 0 {
			return uint64(n), nil
		}
	case int64:
		if n >= 0 {
			return uint64(n), nil
		}
	case float64:
		if n >= 0 && n <= 1<<53 && n == math.Trunc(n) {
			return uint64(n), nil
		}
	case string:
		return 0, fmt.Errorf("%w: expected unsigned integer, got string", ErrMalformedDocument)
	}
	return 0, fmt.Errorf("%w: expected unsigned integer, got %v", ErrMalformedDocument, v)
}

func asInt(v any) (int, error) {
	u, err := asUint64(v)
	if err != nil {
		return 0, err
	}
	if u > math.MaxInt32 {
		return 0, fmt.Errorf("%w: integer %d out of range", ErrMalformedDocument, u)
	}
	return int(u), nil
}

func asFloats(v any) ([]float64, error) {
	arr, err := asArray(v)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(arr))
	for i, e := range arr {
		if out[i], err = asFloat(e); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// field fetches a required key.
func field(obj map[string]any, key string) (any, error) {
	v, ok := obj[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrMalformedDocument, key)
	}
	return v, nil
}

func floatsValue(fs []float64) []any {
	out := make([]any, len(fs))
	for i, f := range fs {
		out[i] = f
	}
	return out
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any, Document:
		return "object"
	case []any, []float64:
		return "array"
	case string:
		return "string"
	case bool:
		return "bool"
	case json.Number, float64, float32, int, int64, uint64:
		return "number"
	}
	return fmt.Sprintf("%T", v)
}

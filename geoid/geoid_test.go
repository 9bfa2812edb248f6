package geoid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeBijection(t *testing.T) {
	samples := []Fields{
		{},
		{Volume: 1},
		{Volume: 1, Boundary: 3},
		{Volume: 2, Layer: 4, Sensitive: 17},
		{Volume: 7, Layer: 2, Approach: 1},
		{Volume: 255, Boundary: 255, Layer: 4095, Approach: 255, Sensitive: 1<<28 - 1},
	}
	for _, f := range samples {
		id, err := Encode(f)
		require.NoError(t, err)
		assert.Equal(t, f, Decode(id), "fields %+v", f)
	}

	// Exhaust each field's range at a few strides.
	for _, mask := range []ID{VolumeMask, BoundaryMask, LayerMask, ApproachMask, SensitiveMask} {
		hi := MaxValue(mask)
		step := hi/97 + 1
		for v := uint64(0); v <= hi; v += step {
			id, err := ID(0).With(mask, v)
			require.NoError(t, err)
			assert.Equal(t, v, id.Value(mask))
		}
	}
}

func TestEncodeOverflow(t *testing.T) {
	cases := []Fields{
		{Volume: 256},
		{Boundary: 256},
		{Layer: 4096},
		{Approach: 256},
		{Sensitive: 1 << 28},
	}
	for _, f := range cases {
		_, err := Encode(f)
		assert.ErrorIs(t, err, ErrOverflow, "fields %+v", f)
	}
	assert.Panics(t, func() { MustEncode(Fields{Layer: 1 << 20}) })
}

func TestFieldLayout(t *testing.T) {
	id := MustEncode(Fields{Volume: 1})
	assert.Equal(t, ID(0x0100000000000000), id)
	id = MustEncode(Fields{Volume: 1, Layer: 2, Sensitive: 3})
	assert.Equal(t, ID(0x0100002000000003), id)
	assert.Equal(t, uint64(1), id.Volume())
	assert.Equal(t, uint64(2), id.Layer())
	assert.Equal(t, uint64(3), id.Sensitive())
	assert.Zero(t, id.Boundary())
	assert.Zero(t, id.Approach())
}

func TestOrderingFollowsHierarchy(t *testing.T) {
	a := MustEncode(Fields{Volume: 1, Layer: 9, Sensitive: 1000})
	b := MustEncode(Fields{Volume: 2})
	c := MustEncode(Fields{Volume: 2, Boundary: 1})
	d := MustEncode(Fields{Volume: 2, Layer: 1})
	assert.Less(t, uint64(a), uint64(b))
	assert.Less(t, uint64(b), uint64(c))
	assert.Less(t, uint64(c), uint64(d))
}

func TestTruncateAndWithin(t *testing.T) {
	sen := MustEncode(Fields{Volume: 3, Layer: 4, Sensitive: 12})
	layer := MustEncode(Fields{Volume: 3, Layer: 4})
	vol := MustEncode(Fields{Volume: 3})

	assert.Equal(t, vol, sen.Truncate(LevelVolume))
	assert.Equal(t, layer, sen.Truncate(LevelApproach))
	assert.True(t, sen.Within(layer, LevelLayer))
	assert.True(t, sen.Within(vol, LevelVolume))
	assert.False(t, sen.Within(MustEncode(Fields{Volume: 3, Layer: 5}), LevelLayer))
}

func TestWithReplacesField(t *testing.T) {
	id := MustEncode(Fields{Volume: 1, Layer: 2})
	id, err := id.With(LayerMask, 7)
	require.NoError(t, err)
	assert.Equal(t, Fields{Volume: 1, Layer: 7}, Decode(id))

	unchanged, err := id.With(LayerMask, 4096)
	assert.ErrorIs(t, err, ErrOverflow)
	assert.Equal(t, id, unchanged)
}

func TestString(t *testing.T) {
	id := MustEncode(Fields{Volume: 1, Boundary: 2, Layer: 3, Approach: 4, Sensitive: 5})
	assert.Equal(t, "vol=1|bnd=2|lay=3|app=4|sen=5", id.String())
	assert.Equal(t, SensitiveMask, LevelSensitive.Mask())
	assert.Equal(t, ID(0), Level(9).Mask())
}

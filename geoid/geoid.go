// Package geoid packs and unpacks 64-bit geometry identifiers.
//
// An ID encodes the position of a detector element in the
// volume -> boundary -> layer -> approach -> sensitive hierarchy. Fields are
// laid out from the most significant bits down, so numeric order of IDs is
// the hierarchical order of their fields.
package geoid

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// ErrOverflow is returned when a field value does not fit its bit width.
var ErrOverflow = errors.New("geoid: field overflow")

// ID is a packed geometry identifier.
type ID uint64

// Field masks, most significant first.
const (
	VolumeMask    ID = 0xff00000000000000 // 255 volumes
	BoundaryMask  ID = 0x00ff000000000000 // 255 boundaries
	LayerMask     ID = 0x0000fff000000000 // 4095 layers
	ApproachMask  ID = 0x0000000ff0000000 // 255 approach surfaces
	SensitiveMask ID = 0x000000000fffffff // 2^28-1 sensitive surfaces
)

// Level names a depth in the hierarchy. Each level includes all levels above it.
type Level int

const (
	LevelVolume Level = iota
	LevelBoundary
	LevelLayer
	LevelApproach
	LevelSensitive
)

var levelMasks = [...]ID{VolumeMask, BoundaryMask, LayerMask, ApproachMask, SensitiveMask}

var levelNames = [...]string{"vol", "bnd", "lay", "app", "sen"}

// Mask returns the field mask of the level.
func (l Level) Mask() ID {
	if l < LevelVolume || l > LevelSensitive {
		return 0
	}
	return levelMasks[l]
}

// Fields is the unpacked form of an ID.
type Fields struct {
	Volume    uint64
	Boundary  uint64
	Layer     uint64
	Approach  uint64
	Sensitive uint64
}

func (f Fields) values() [5]uint64 {
	return [5]uint64{f.Volume, f.Boundary, f.Layer, f.Approach, f.Sensitive}
}

// Encode packs f. It fails with ErrOverflow instead of truncating.
func Encode(f Fields) (ID, error) {
	var id ID
	var err error
	for i, v := range f.values() {
		id, err = id.With(levelMasks[i], v)
		if err != nil {
			return 0, err
		}
	}
	return id, nil
}

// MustEncode is like Encode but panics on overflow. Intended for literals in tests and setup code.
func MustEncode(f Fields) ID {
	id, err := Encode(f)
	if err != nil {
		panic(err)
	}
	return id
}

// Decode unpacks id.
func Decode(id ID) Fields {
	return Fields{
		Volume:    id.Value(VolumeMask),
		Boundary:  id.Value(BoundaryMask),
		Layer:     id.Value(LayerMask),
		Approach:  id.Value(ApproachMask),
		Sensitive: id.Value(SensitiveMask),
	}
}

// MaxValue returns the largest value a field under mask can hold.
func MaxValue(mask ID) uint64 {
	if mask == 0 {
		return 0
	}
	return uint64(mask) >> bits.TrailingZeros64(uint64(mask))
}

// Value extracts the field under mask.
func (id ID) Value(mask ID) uint64 {
	if mask == 0 {
		return 0
	}
	return uint64(id&mask) >> bits.TrailingZeros64(uint64(mask))
}

// With returns id with the field under mask replaced by v.
func (id ID) With(mask ID, v uint64) (ID, error) {
	if mask == 0 {
		return id, nil
	}
	if v > MaxValue(mask) {
		return id, fmt.Errorf("%w: value %d exceeds %d for mask %#016x", ErrOverflow, v, MaxValue(mask), uint64(mask))
	}
	shifted := ID(v << bits.TrailingZeros64(uint64(mask)))
	return (id &^ mask) | shifted, nil
}

func (id ID) Volume() uint64    { return id.Value(VolumeMask) }
func (id ID) Boundary() uint64  { return id.Value(BoundaryMask) }
func (id ID) Layer() uint64     { return id.Value(LayerMask) }
func (id ID) Approach() uint64  { return id.Value(ApproachMask) }
func (id ID) Sensitive() uint64 { return id.Value(SensitiveMask) }

// Truncate clears every field below level l.
func (id ID) Truncate(l Level) ID {
	var keep ID
	for i := LevelVolume; i <= l && i <= LevelSensitive; i++ {
		keep |= levelMasks[i]
	}
	return id & keep
}

// Within reports whether id and other agree on all fields down to and including level l.
func (id ID) Within(other ID, l Level) bool {
	return id.Truncate(l) == other.Truncate(l)
}

// String renders the fields as "vol=1|bnd=0|lay=2|app=0|sen=3".
func (id ID) String() string {
	vals := Decode(id).values()
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = levelNames[i] + "=" + strconv.FormatUint(v, 10)
	}
	return strings.Join(parts, "|")
}

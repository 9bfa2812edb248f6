package matjson

import (
	"fmt"

	"github.com/logicossoftware/go-matjson/geoid"
	"github.com/logicossoftware/go-matjson/material"
)

// Document is a material document as a generic JSON value tree. Nested objects
// are map[string]any, arrays are []any, numbers are json.Number or float64.
type Document map[string]any

// Maps are the material maps exchanged with a document.
type Maps struct {
	Surfaces material.SurfaceMap
	Volumes  material.VolumeMap
}

// Len returns the total number of entries.
func (m Maps) Len() int {
	return len(m.Surfaces) + len(m.Volumes)
}

// Tree is the detector tree between geometry (or maps) and a document.
// Volumes are keyed by volume index.
type Tree struct {
	Volumes map[uint64]*VolumeNode
}

// VolumeNode collects the material found in one volume.
type VolumeNode struct {
	ID         geoid.ID
	Name       string
	Layers     map[uint64]*LayerNode
	Boundaries map[geoid.ID]material.Grid
	Material   *material.Grid
}

// LayerNode collects the material found in one layer.
type LayerNode struct {
	ID           geoid.ID
	Sensitives   map[geoid.ID]material.Grid
	Approaches   map[geoid.ID]material.Grid
	Representing *material.Grid
}

func newTree() *Tree {
	return &Tree{Volumes: make(map[uint64]*VolumeNode)}
}

func newVolumeNode(id geoid.ID, name string) *VolumeNode {
	return &VolumeNode{
		ID:         id,
		Name:       name,
		Layers:     make(map[uint64]*LayerNode),
		Boundaries: make(map[geoid.ID]material.Grid),
	}
}

func newLayerNode(id geoid.ID) *LayerNode {
	return &LayerNode{
		ID:         id,
		Sensitives: make(map[geoid.ID]material.Grid),
		Approaches: make(map[geoid.ID]material.Grid),
	}
}

// Empty reports whether the layer carries no material.
func (l *LayerNode) Empty() bool {
	return len(l.Sensitives) == 0 && len(l.Approaches) == 0 && l.Representing == nil
}

// Empty reports whether the volume carries no material in any layer, boundary or itself.
func (v *VolumeNode) Empty() bool {
	if len(v.Boundaries) > 0 || v.Material != nil {
		return false
	}
	for _, l := range v.Layers {
		if !l.Empty() {
			return false
		}
	}
	return true
}

// volume returns the node for the volume of id, creating it when missing.
func (t *Tree) volume(id geoid.ID, name string) *VolumeNode {
	key := id.Volume()
	v, ok := t.Volumes[key]
	if !ok {
		v = newVolumeNode(id.Truncate(geoid.LevelVolume), name)
		t.Volumes[key] = v
	} else if v.Name == "" {
		v.Name = name
	}
	return v
}

// layer returns the node for the layer of id, creating it when missing.
func (v *VolumeNode) layer(id geoid.ID) *LayerNode {
	key := id.Layer()
	l, ok := v.Layers[key]
	if !ok {
		l = newLayerNode(id.Truncate(geoid.LevelLayer))
		v.Layers[key] = l
	}
	return l
}

// prune drops empty layers and volumes.
func (t *Tree) prune() {
	for vk, v := range t.Volumes {
		for lk, l := range v.Layers {
			if l.Empty() {
				delete(v.Layers, lk)
			}
		}
		if v.Empty() {
			delete(t.Volumes, vk)
		}
	}
}

// Counts returns the number of surface grids and volume grids in the tree.
func (t *Tree) Counts() (surfaces, volumes int) {
	for _, v := range t.Volumes {
		surfaces += len(v.Boundaries)
		if v.Material != nil {
			volumes++
		}
		for _, l := range v.Layers {
			surfaces += len(l.Sensitives) + len(l.Approaches)
			if l.Representing != nil {
				surfaces++
			}
		}
	}
	return surfaces, volumes
}

// Container format constants.
const (
	VersionV1 uint16 = 1

	containerHeaderSize = 24
)

// Magic is the 8-byte container signature.
var Magic = [8]byte{'M', 'A', 'T', 'J', 'S', 'O', 'N', 0x1A}

// Compression selects the container payload codec.
type Compression uint16

const (
	CompNone Compression = 0x0
	CompZIP  Compression = 0x1
	CompZSTD Compression = 0x2
	CompLZ4  Compression = 0x3
	CompBR   Compression = 0x4
)

var compressionNames = map[Compression]string{
	CompNone: "none",
	CompZIP:  "zip",
	CompZSTD: "zstd",
	CompLZ4:  "lz4",
	CompBR:   "brotli",
}

func (c Compression) String() string {
	if name, ok := compressionNames[c]; ok {
		return name
	}
	return "unknown"
}

// ParseCompression accepts the names printed by Compression.String.
func ParseCompression(s string) (Compression, error) {
	for c, name := range compressionNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown compression %q", ErrInvalidContainer, s)
}

const (
	flagCompressionMask    uint16 = 0x000F
	flagHasUncompressedLen uint16 = 0x0010
)

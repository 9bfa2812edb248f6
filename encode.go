package matjson

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/logicossoftware/go-matjson/geoid"
	"github.com/logicossoftware/go-matjson/material"
)

// Function variables for testing injection.
var (
	jsonMarshal = func(doc Document) ([]byte, error) { return json.Marshal(doc) }
)

// encodeTree renders tree under the configured keys. Maps are keyed by the
// decimal index of the entry at its own level.
func (c Config) encodeTree(tree *Tree, writeData bool) Document {
	volumes := make(map[string]any, len(tree.Volumes))
	for vid, v := range tree.Volumes {
		volumes[index(vid)] = c.encodeVolume(v, writeData)
	}
	return Document{
		c.DetectorKey: map[string]any{c.VolumesKey: volumes},
		versionKey:    c.GeoVersion,
	}
}

func (c Config) encodeVolume(v *VolumeNode, writeData bool) map[string]any {
	obj := map[string]any{
		c.NameKey:  v.Name,
		c.GeoIDKey: uint64(v.ID),
	}
	if v.Material != nil {
		obj[c.MaterialKey] = c.encodeGrid(*v.Material, v.ID, writeData)
	}
	if len(v.Boundaries) > 0 {
		obj[c.BoundariesKey] = c.encodeLeaves(v.Boundaries, geoid.BoundaryMask, writeData)
	}
	if len(v.Layers) > 0 {
		layers := make(map[string]any, len(v.Layers))
		for lid, l := range v.Layers {
			lobj := map[string]any{c.GeoIDKey: uint64(l.ID)}
			if l.Representing != nil {
				lobj[c.RepresentingKey] = c.encodeGrid(*l.Representing, l.ID, writeData)
			}
			if len(l.Sensitives) > 0 {
				lobj[c.SensitiveKey] = c.encodeLeaves(l.Sensitives, geoid.SensitiveMask, writeData)
			}
			if len(l.Approaches) > 0 {
				lobj[c.ApproachKey] = c.encodeLeaves(l.Approaches, geoid.ApproachMask, writeData)
			}
			layers[index(lid)] = lobj
		}
		obj[c.LayersKey] = layers
	}
	return obj
}

func (c Config) encodeLeaves(grids map[geoid.ID]material.Grid, mask geoid.ID, writeData bool) map[string]any {
	out := make(map[string]any, len(grids))
	for id, g := range grids {
		out[index(id.Value(mask))] = c.encodeGrid(g, id, writeData)
	}
	return out
}

func index(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// WriteDocument writes doc as indented JSON. Object keys are sorted, so equal
// documents produce equal bytes.
func WriteDocument(w io.Writer, doc Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrMalformedDocument)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteContainer writes doc to w in the compressed container format.
//
// By default the payload is compressed with Zstandard (CompZSTD).
// Use WriteOption functions to customize this behavior:
//   - WithCompression(comp): change the payload codec
//   - WithWriteLimits(l): set custom size limits
func WriteContainer(w io.Writer, doc Document, opts ...WriteOption) error {
	cfg := writeConfig{limits: defaultLimits(), compression: CompZSTD}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.limits = cfg.limits.withDefaults()
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrMalformedDocument)
	}

	raw, err := jsonMarshal(doc)
	if err != nil {
		return err
	}
	if uint64(len(raw)) > cfg.limits.MaxUncompressedLen {
		return fmt.Errorf("%w: document of %d bytes", ErrLimitExceeded, len(raw))
	}

	flags, payload, err := compressPayload(cfg.compression, raw)
	if err != nil {
		return err
	}
	h := containerHeader{
		Magic:      Magic,
		Version:    VersionV1,
		Flags:      flags,
		Reserved:   0,
		PayloadLen: uint64(len(payload)),
	}
	if err := writeHeader(w, h); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

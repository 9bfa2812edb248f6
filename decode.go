package matjson

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"

	"github.com/logicossoftware/go-matjson/geoid"
	"github.com/logicossoftware/go-matjson/material"
)

// Function variables for testing injection.
var (
	readAllDocument = io.ReadAll
)

// ReadDocument parses a JSON document from r. Numbers are kept as json.Number
// so 64-bit identifiers are not rounded.
func ReadDocument(r io.Reader, opts ...ReadOption) (Document, error) {
	cfg := readConfig{limits: defaultLimits()}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.limits = cfg.limits.withDefaults()

	raw, err := readAllDocument(io.LimitReader(r, int64(cfg.limits.MaxDocumentLen)+1))
	if err != nil {
		return nil, err
	}
	if uint64(len(raw)) > cfg.limits.MaxDocumentLen {
		return nil, fmt.Errorf("%w: document exceeds %d bytes", ErrLimitExceeded, cfg.limits.MaxDocumentLen)
	}
	return parseDocument(raw)
}

func parseDocument(raw []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document must be a JSON object", ErrMalformedDocument)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after document", ErrMalformedDocument)
	}
	return doc, nil
}

// ReadContainer reads a document written by WriteContainer.
//
// ReadContainer returns ErrInvalidMagic if r does not start with Magic,
// ErrUnsupportedVersion if the version is not 1, ErrLimitExceeded if
// any size limit is exceeded, or ErrInvalidContainer for a damaged payload.
func ReadContainer(r io.Reader, opts ...ReadOption) (Document, error) {
	cfg := readConfig{limits: defaultLimits()}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.limits = cfg.limits.withDefaults()

	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	if err := validateHeader(h, cfg.limits); err != nil {
		return nil, err
	}
	payload := make([]byte, h.PayloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	raw, err := decompressPayload(h.compression(), h.Flags, payload, cfg.limits.MaxUncompressedLen)
	if err != nil {
		return nil, err
	}
	return parseDocument(raw)
}

// ReadAny reads either a container or a plain JSON document, depending on
// whether r starts with Magic.
func ReadAny(r io.Reader, opts ...ReadOption) (Document, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(Magic))
	if err == nil && bytes.Equal(head, Magic[:]) {
		return ReadContainer(br, opts...)
	}
	return ReadDocument(br, opts...)
}

// decoder turns a document into a Tree, applying the error policy per entry.
type decoder struct {
	ctx     context.Context
	cfg     Config
	limits  Limits
	policy  ErrorPolicy
	log     *slog.Logger
	tree    *Tree
	entries int
	seen    map[geoid.ID]struct{}
	errs    []error
	abort   error
}

// fail applies the error policy to an entry error. It returns a non-nil error
// when the import must stop; once stopped it keeps returning that error.
func (d *decoder) fail(path []string, err error) error {
	if d.abort != nil {
		return d.abort
	}
	err = pathError(path, err)
	if d.policy == FailFast || errors.Is(err, ErrLimitExceeded) {
		d.abort = err
		return err
	}
	d.log.WarnContext(d.ctx, "skipping entry", slog.Any("error", err))
	d.errs = append(d.errs, err)
	return nil
}

func (d *decoder) decode(doc Document) (*Tree, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", ErrMalformedDocument)
	}
	if raw, ok := doc[versionKey]; ok {
		if v, err := asString(raw); err == nil {
			d.log.InfoContext(d.ctx, "reading material document", slog.String("geoversion", v))
		}
	}
	rawDet, err := field(doc, d.cfg.DetectorKey)
	if err != nil {
		return nil, err
	}
	det, err := asObject(rawDet)
	if err != nil {
		return nil, pathError([]string{d.cfg.DetectorKey}, err)
	}
	rawVols, err := field(det, d.cfg.VolumesKey)
	if err != nil {
		return nil, pathError([]string{d.cfg.DetectorKey}, err)
	}
	vols, err := asObject(rawVols)
	if err != nil {
		return nil, pathError([]string{d.cfg.DetectorKey, d.cfg.VolumesKey}, err)
	}

	for _, key := range sortedKeys(vols) {
		path := []string{d.cfg.DetectorKey, d.cfg.VolumesKey, key}
		if err := d.volume(path, key, vols[key]); err != nil {
			if err := d.fail(path, err); err != nil {
				return nil, err
			}
		}
	}
	d.tree.prune()
	if len(d.errs) > 0 {
		return d.tree, &EntryErrors{Errs: d.errs}
	}
	return d.tree, nil
}

// volume decodes one volume object. Errors returned from here drop the whole
// volume; leaf errors are handled in place.
func (d *decoder) volume(path []string, key string, raw any) error {
	obj, err := asObject(raw)
	if err != nil {
		return err
	}
	vid, err := d.resolve(obj, key, 0, geoid.LevelVolume)
	if err != nil {
		return err
	}
	if _, dup := d.tree.Volumes[vid.Volume()]; dup {
		return fmt.Errorf("%w: volume %d appears twice", ErrMalformedDocument, vid.Volume())
	}
	var name string
	if rawName, ok := obj[d.cfg.NameKey]; ok {
		if name, err = asString(rawName); err != nil {
			return pathError([]string{d.cfg.NameKey}, err)
		}
	}
	d.log.DebugContext(d.ctx, "volume found", slog.String("name", name), slog.Uint64("volume", vid.Volume()))
	vnode := newVolumeNode(vid, name)

	if rawMat, ok := obj[d.cfg.MaterialKey]; ok && d.cfg.ProcessVolumes {
		mpath := append(slices.Clone(path), d.cfg.MaterialKey)
		g, _, err := d.keylessLeaf(rawMat, vid)
		if err != nil {
			if err := d.fail(mpath, err); err != nil {
				return err
			}
		} else {
			vnode.Material = &g
		}
	}

	if rawBnd, ok := obj[d.cfg.BoundariesKey]; ok && d.cfg.ProcessBoundaries {
		bpath := append(slices.Clone(path), d.cfg.BoundariesKey)
		if err := d.leaves(bpath, rawBnd, vid, geoid.LevelBoundary, vnode.Boundaries); err != nil {
			return err
		}
	}

	if rawLayers, ok := obj[d.cfg.LayersKey]; ok {
		lpath := append(slices.Clone(path), d.cfg.LayersKey)
		layers, err := asObject(rawLayers)
		if err != nil {
			if err := d.fail(lpath, err); err != nil {
				return err
			}
		} else {
			for _, lkey := range sortedKeys(layers) {
				p := append(slices.Clone(lpath), lkey)
				if err := d.layer(p, lkey, layers[lkey], vnode); err != nil {
					if err := d.fail(p, err); err != nil {
						return err
					}
				}
			}
		}
	}
	d.tree.Volumes[vid.Volume()] = vnode
	return nil
}

func (d *decoder) layer(path []string, key string, raw any, vnode *VolumeNode) error {
	obj, err := asObject(raw)
	if err != nil {
		return err
	}
	lid, err := d.resolve(obj, key, vnode.ID, geoid.LevelLayer)
	if err != nil {
		return err
	}
	if _, dup := vnode.Layers[lid.Layer()]; dup {
		return fmt.Errorf("%w: layer %d appears twice", ErrMalformedDocument, lid.Layer())
	}
	d.log.DebugContext(d.ctx, "layer found", slog.Uint64("layer", lid.Layer()))
	lnode := newLayerNode(lid)

	if rawRep, ok := obj[d.cfg.RepresentingKey]; ok && d.cfg.ProcessRepresenting {
		g, id, err := d.keylessLeaf(rawRep, lid)
		if err == nil {
			err = d.claim(id)
		}
		if err != nil {
			if err := d.fail(append(slices.Clone(path), d.cfg.RepresentingKey), err); err != nil {
				return err
			}
		} else {
			lnode.Representing = &g
		}
	}
	if rawSen, ok := obj[d.cfg.SensitiveKey]; ok && d.cfg.ProcessSensitives {
		spath := append(slices.Clone(path), d.cfg.SensitiveKey)
		if err := d.leaves(spath, rawSen, lid, geoid.LevelSensitive, lnode.Sensitives); err != nil {
			return err
		}
	}
	if rawApp, ok := obj[d.cfg.ApproachKey]; ok && d.cfg.ProcessApproaches {
		apath := append(slices.Clone(path), d.cfg.ApproachKey)
		if err := d.leaves(apath, rawApp, lid, geoid.LevelApproach, lnode.Approaches); err != nil {
			return err
		}
	}
	vnode.Layers[lid.Layer()] = lnode
	return nil
}

// leaves decodes a keyed map of material leaves below parent into dst.
func (d *decoder) leaves(path []string, raw any, parent geoid.ID, level geoid.Level, dst map[geoid.ID]material.Grid) error {
	obj, err := asObject(raw)
	if err != nil {
		return d.fail(path, err)
	}
	for _, key := range sortedKeys(obj) {
		p := append(slices.Clone(path), key)
		g, id, err := d.keyedLeaf(obj[key], key, parent, level)
		if err == nil {
			err = d.claim(id)
		}
		if err != nil {
			if err := d.fail(p, err); err != nil {
				return err
			}
			continue
		}
		dst[id] = g
	}
	return nil
}

func (d *decoder) keyedLeaf(raw any, key string, parent geoid.ID, level geoid.Level) (material.Grid, geoid.ID, error) {
	obj, err := asObject(raw)
	if err != nil {
		return material.Grid{}, 0, err
	}
	id, err := d.resolve(obj, key, parent, level)
	if err != nil {
		return material.Grid{}, 0, err
	}
	g, err := d.grid(obj)
	return g, id, err
}

// keylessLeaf decodes a leaf whose identifier is the enclosing entry's own
// (volume material, representing layer material).
func (d *decoder) keylessLeaf(raw any, expected geoid.ID) (material.Grid, geoid.ID, error) {
	obj, err := asObject(raw)
	if err != nil {
		return material.Grid{}, 0, err
	}
	if rawID, ok := obj[d.cfg.GeoIDKey]; ok {
		explicit, err := asUint64(rawID)
		if err != nil {
			return material.Grid{}, 0, pathError([]string{d.cfg.GeoIDKey}, err)
		}
		if geoid.ID(explicit) != expected {
			return material.Grid{}, 0, fmt.Errorf("%w: geoid %s disagrees with enclosing %s", ErrMalformedDocument, geoid.ID(explicit), expected)
		}
	}
	g, err := d.grid(obj)
	return g, expected, err
}

func (d *decoder) grid(obj map[string]any) (material.Grid, error) {
	d.entries++
	if d.entries > d.limits.MaxEntries {
		return material.Grid{}, fmt.Errorf("%w: more than %d material entries", ErrLimitExceeded, d.limits.MaxEntries)
	}
	return d.cfg.decodeGrid(obj, d.limits.MaxBinsPerAxis)
}

// claim registers a surface identifier, rejecting a second leaf with the same one.
func (d *decoder) claim(id geoid.ID) error {
	if _, dup := d.seen[id]; dup {
		return fmt.Errorf("%w: geoid %s appears twice", ErrMalformedDocument, id)
	}
	d.seen[id] = struct{}{}
	return nil
}

// resolve determines the identifier of the entry stored under key below
// parent. A numeric key gives the positional identifier; an explicit geoid
// field must agree with it. Without a numeric key the explicit geoid is used
// as long as it lies below parent.
func (d *decoder) resolve(obj map[string]any, key string, parent geoid.ID, level geoid.Level) (geoid.ID, error) {
	var positional geoid.ID
	n, perr := strconv.ParseUint(key, 10, 64)
	hasPos := perr == nil
	if hasPos {
		var err error
		if positional, err = parent.With(level.Mask(), n); err != nil {
			return 0, err
		}
	}

	rawID, hasExplicit := obj[d.cfg.GeoIDKey]
	if !hasExplicit {
		if !hasPos {
			return 0, fmt.Errorf("%w: key %q is not an index and %q is missing", ErrUnresolvableIdentifier, key, d.cfg.GeoIDKey)
		}
		return positional, nil
	}
	u, err := asUint64(rawID)
	if err != nil {
		return 0, pathError([]string{d.cfg.GeoIDKey}, err)
	}
	explicit := geoid.ID(u)
	if hasPos && explicit != positional {
		return 0, fmt.Errorf("%w: geoid %s disagrees with position %s", ErrMalformedDocument, explicit, positional)
	}
	if level > geoid.LevelVolume && !explicit.Within(parent, level-1) {
		return 0, fmt.Errorf("%w: geoid %s is not below %s", ErrMalformedDocument, explicit, parent)
	}
	if explicit.Truncate(level) != explicit {
		return 0, fmt.Errorf("%w: geoid %s is deeper than its entry", ErrMalformedDocument, explicit)
	}
	return explicit, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys)
	return keys
}

// compareKeys orders numeric keys by value, before any other key.
func compareKeys(a, b string) int {
	na, ea := strconv.ParseUint(a, 10, 64)
	nb, eb := strconv.ParseUint(b, 10, 64)
	switch {
	case ea == nil && eb == nil:
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	case ea == nil:
		return -1
	case eb == nil:
		return 1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

package matjson

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strconv"

	"github.com/logicossoftware/go-matjson/geoid"
	"github.com/logicossoftware/go-matjson/geometry"
	"github.com/logicossoftware/go-matjson/material"
)

// treeFromGeometry walks world depth-first: confined volumes first, then the
// volume's layers, boundaries and own material. Every surface is filed under
// the node its own identifier names, whichever volume lists it.
func (c *Converter) treeFromGeometry(ctx context.Context, world geometry.Volume) (*Tree, error) {
	if world == nil {
		return nil, fmt.Errorf("%w: world volume is nil", ErrMalformedDocument)
	}
	tree := newTree()
	visited := make(map[geometry.Volume]struct{})
	if err := c.walkVolume(ctx, tree, world, visited); err != nil {
		return nil, err
	}
	tree.prune()
	return tree, nil
}

func (c *Converter) walkVolume(ctx context.Context, tree *Tree, vol geometry.Volume, visited map[geometry.Volume]struct{}) error {
	id := vol.ID()
	// Volumes of a non-comparable type cannot be recognised when seen again.
	if reflect.TypeOf(vol).Comparable() {
		if _, ok := visited[vol]; ok {
			c.log.WarnContext(ctx, "volume visited twice, skipping", slog.String("volume", vol.Name()), slog.Uint64("geoid", uint64(id)))
			return nil
		}
		visited[vol] = struct{}{}
	}

	for _, sub := range vol.ConfinedVolumes() {
		if sub == nil {
			continue
		}
		if err := c.walkVolume(ctx, tree, sub, visited); err != nil {
			return err
		}
	}

	c.log.DebugContext(ctx, "volume found", slog.String("name", vol.Name()), slog.Uint64("volume", id.Volume()))
	node := tree.volume(id, vol.Name())
	path := []string{"volume " + vol.Name()}

	for _, layer := range vol.ConfinedLayers() {
		if layer == nil {
			continue
		}
		if err := c.walkLayer(ctx, tree, layer, path); err != nil {
			return err
		}
	}

	if c.cfg.ProcessBoundaries {
		for _, s := range vol.BoundarySurfaces() {
			if s == nil || s.Material() == nil {
				continue
			}
			g, err := surfaceGrid(s)
			if err != nil {
				return pathError(append(path, "boundary "+strconv.FormatUint(s.ID().Boundary(), 10)), err)
			}
			if c.placeSurface(ctx, tree, s.ID(), categoryBoundary, g) {
				c.log.DebugContext(ctx, "boundary material found", slog.Uint64("boundary", s.ID().Boundary()))
			}
		}
	}

	if c.cfg.ProcessVolumes {
		if m := vol.Material(); m != nil {
			g := m.Grid()
			if err := g.Validate(); err != nil {
				return pathError(append(path, "material"), err)
			}
			c.log.DebugContext(ctx, "volume material found", slog.String("name", vol.Name()))
			node.Material = &g
		}
	}
	return nil
}

func (c *Converter) walkLayer(ctx context.Context, tree *Tree, layer geometry.Layer, path []string) error {
	id := layer.ID()
	path = append(path, "layer "+strconv.FormatUint(id.Layer(), 10))
	c.log.DebugContext(ctx, "layer found", slog.Uint64("layer", id.Layer()))

	if c.cfg.ProcessSensitives {
		for _, s := range layer.SensitiveSurfaces() {
			if s == nil || s.Material() == nil {
				continue
			}
			g, err := surfaceGrid(s)
			if err != nil {
				return pathError(append(path, "sensitive "+strconv.FormatUint(s.ID().Sensitive(), 10)), err)
			}
			c.placeSurface(ctx, tree, s.ID(), categorySensitive, g)
		}
	}
	if c.cfg.ProcessApproaches {
		for _, s := range layer.ApproachSurfaces() {
			if s == nil || s.Material() == nil {
				continue
			}
			g, err := surfaceGrid(s)
			if err != nil {
				return pathError(append(path, "approach "+strconv.FormatUint(s.ID().Approach(), 10)), err)
			}
			c.placeSurface(ctx, tree, s.ID(), categoryApproach, g)
		}
	}
	if c.cfg.ProcessRepresenting {
		if s := layer.Representation(); s != nil && s.Material() != nil {
			g, err := surfaceGrid(s)
			if err != nil {
				return pathError(append(path, "representing"), err)
			}
			c.placeSurface(ctx, tree, s.ID(), categoryRepresenting, g)
		}
	}
	return nil
}

func surfaceGrid(s geometry.Surface) (material.Grid, error) {
	g := s.Material().Grid()
	if err := g.Validate(); err != nil {
		return material.Grid{}, err
	}
	return g, nil
}

// placeSurface files g under the node that id names and reports whether it
// did. role is the category the surface was listed under, or empty to take
// the category from id alone. Identifiers that name no single surface, or
// that contradict role, are logged and skipped. A surface already placed is
// kept as it is; glued volumes list their shared boundaries more than once.
func (c *Converter) placeSurface(ctx context.Context, tree *Tree, id geoid.ID, role string, g material.Grid) bool {
	category, reason := surfaceCategory(id)
	if category == "" {
		c.log.WarnContext(ctx, "surface identifier names no single surface, skipping",
			slog.String("geoid", id.String()), slog.String("reason", reason))
		return false
	}
	if role != "" && role != category {
		c.log.WarnContext(ctx, "surface identifier does not match its role, skipping",
			slog.String("geoid", id.String()), slog.String("role", role), slog.String("category", category))
		return false
	}

	vnode := tree.volume(id, "")
	placed := true
	switch category {
	case categoryBoundary:
		placed = putGrid(vnode.Boundaries, id, g)
	case categoryRepresenting:
		l := vnode.layer(id)
		if placed = l.Representing == nil; placed {
			l.Representing = &g
		}
	case categorySensitive:
		placed = putGrid(vnode.layer(id).Sensitives, id, g)
	case categoryApproach:
		placed = putGrid(vnode.layer(id).Approaches, id, g)
	}
	if !placed {
		c.log.DebugContext(ctx, "surface already placed", slog.String("category", category), slog.String("geoid", id.String()))
		return false
	}
	c.log.DebugContext(ctx, "surface material placed", slog.String("category", category), slog.String("geoid", id.String()))
	return true
}

func putGrid(m map[geoid.ID]material.Grid, id geoid.ID, g material.Grid) bool {
	if _, ok := m[id]; ok {
		return false
	}
	m[id] = g
	return true
}

// treeFromMaps places every entry by the fields of its identifier:
// a layer field selects sensitive, approach or representing material in
// that order, otherwise a boundary field selects boundary material.
// Identifiers that name no single surface or volume are logged and skipped.
func (c *Converter) treeFromMaps(ctx context.Context, maps Maps) (*Tree, error) {
	if err := ValidateMaps(maps); err != nil {
		return nil, err
	}
	tree := newTree()
	for _, id := range sortedIDs(maps.Surfaces) {
		m := maps.Surfaces[id]
		if m == nil {
			c.log.WarnContext(ctx, "surface entry without material, skipping", slog.String("geoid", id.String()))
			continue
		}
		if category, _ := surfaceCategory(id); category != "" && !c.processes(category) {
			continue
		}
		c.placeSurface(ctx, tree, id, "", m.Grid())
	}

	if c.cfg.ProcessVolumes {
		for _, id := range sortedIDs(maps.Volumes) {
			m := maps.Volumes[id]
			if m == nil {
				c.log.WarnContext(ctx, "volume entry without material, skipping", slog.String("geoid", id.String()))
				continue
			}
			if id != id.Truncate(geoid.LevelVolume) {
				c.log.WarnContext(ctx, "volume identifier has surface fields, skipping", slog.String("geoid", id.String()))
				continue
			}
			g := m.Grid()
			tree.volume(id, "").Material = &g
		}
	}
	tree.prune()
	return tree, nil
}

// surfaceCategory returns the category of a surface identifier, or an empty
// category and the reason the identifier names no single surface.
func surfaceCategory(id geoid.ID) (category, reason string) {
	bnd, lay := id.Boundary() > 0, id.Layer() > 0
	app, sen := id.Approach() > 0, id.Sensitive() > 0
	switch {
	case app && sen:
		return "", "both approach and sensitive set"
	case bnd && (lay || app || sen):
		return "", "boundary set together with layer fields"
	case lay && sen:
		return categorySensitive, ""
	case lay && app:
		return categoryApproach, ""
	case lay:
		return categoryRepresenting, ""
	case bnd:
		return categoryBoundary, ""
	}
	return "", "neither layer nor boundary"
}

// processes reports whether category is enabled.
func (c *Converter) processes(category string) bool {
	switch category {
	case categorySensitive:
		return c.cfg.ProcessSensitives
	case categoryApproach:
		return c.cfg.ProcessApproaches
	case categoryRepresenting:
		return c.cfg.ProcessRepresenting
	case categoryBoundary:
		return c.cfg.ProcessBoundaries
	case categoryVolume:
		return c.cfg.ProcessVolumes
	}
	return true
}

// treeToMaps materializes every non-proto grid of tree.
func treeToMaps(tree *Tree) (Maps, error) {
	maps := Maps{Surfaces: material.SurfaceMap{}, Volumes: material.VolumeMap{}}
	add := func(dst map[geoid.ID]material.Material, id geoid.ID, g material.Grid) error {
		if g.Kind == material.KindProto {
			return nil
		}
		m, err := material.FromGrid(g)
		if err != nil {
			return pathError([]string{id.String()}, err)
		}
		dst[id] = m
		return nil
	}
	for _, v := range tree.Volumes {
		if v.Material != nil {
			if err := add(maps.Volumes, v.ID, *v.Material); err != nil {
				return Maps{}, err
			}
		}
		for id, g := range v.Boundaries {
			if err := add(maps.Surfaces, id, g); err != nil {
				return Maps{}, err
			}
		}
		for _, l := range v.Layers {
			if l.Representing != nil {
				if err := add(maps.Surfaces, l.ID, *l.Representing); err != nil {
					return Maps{}, err
				}
			}
			for id, g := range l.Sensitives {
				if err := add(maps.Surfaces, id, g); err != nil {
					return Maps{}, err
				}
			}
			for id, g := range l.Approaches {
				if err := add(maps.Surfaces, id, g); err != nil {
					return Maps{}, err
				}
			}
		}
	}
	return maps, nil
}

func sortedIDs[M ~map[geoid.ID]V, V any](m M) []geoid.ID {
	ids := make([]geoid.ID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

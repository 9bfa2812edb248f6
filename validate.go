package matjson

import (
	"context"
	"errors"
	"fmt"

	"github.com/logicossoftware/go-matjson/geoid"
	"github.com/logicossoftware/go-matjson/material"
)

// ValidateMaps checks that every entry of maps has a well-formed grid, in
// ascending identifier order. Grids whose data disagree with their binning
// fail with ErrDimensionMismatch.
func ValidateMaps(maps Maps) error {
	if err := validateEntries("surface", maps.Surfaces); err != nil {
		return err
	}
	return validateEntries("volume", maps.Volumes)
}

func validateEntries[M ~map[geoid.ID]material.Material](kind string, m M) error {
	for _, id := range sortedIDs(m) {
		if m[id] == nil {
			continue
		}
		if err := m[id].Grid().Validate(); err != nil {
			return pathError([]string{kind + " " + id.String()}, err)
		}
	}
	return nil
}

// ValidateDocument decodes doc without stopping at the first bad entry and
// returns every problem found, or nil for a clean document. The converter's
// error policy does not apply.
func (c *Converter) ValidateDocument(ctx context.Context, doc Document) []error {
	best := *c
	best.policy = BestEffort
	_, err := best.DocumentToTree(ctx, doc)
	if err == nil {
		return nil
	}
	var entries *EntryErrors
	if errors.As(err, &entries) {
		return entries.Errs
	}
	return []error{err}
}

// Summary counts the material entries of a document by category.
type Summary struct {
	GeoVersion   string
	Volumes      int
	Layers       int
	Sensitive    int
	Approach     int
	Representing int
	Boundary     int
	Volume       int
	Proto        int
}

// Summarize decodes doc and counts what it holds.
func (c *Converter) Summarize(ctx context.Context, doc Document) (Summary, error) {
	tree, err := c.DocumentToTree(ctx, doc)
	if tree == nil {
		return Summary{}, err
	}
	var s Summary
	if raw, ok := doc[versionKey]; ok {
		if v, verr := asString(raw); verr == nil {
			s.GeoVersion = v
		}
	}
	proto := func(g material.Grid) {
		if g.Kind == material.KindProto {
			s.Proto++
		}
	}
	s.Volumes = len(tree.Volumes)
	for _, v := range tree.Volumes {
		s.Layers += len(v.Layers)
		s.Boundary += len(v.Boundaries)
		for _, g := range v.Boundaries {
			proto(g)
		}
		if v.Material != nil {
			s.Volume++
			proto(*v.Material)
		}
		for _, l := range v.Layers {
			s.Sensitive += len(l.Sensitives)
			s.Approach += len(l.Approaches)
			for _, g := range l.Sensitives {
				proto(g)
			}
			for _, g := range l.Approaches {
				proto(g)
			}
			if l.Representing != nil {
				s.Representing++
				proto(*l.Representing)
			}
		}
	}
	return s, err
}

// Entries returns the number of material leaves counted in s.
func (s Summary) Entries() int {
	return s.Sensitive + s.Approach + s.Representing + s.Boundary + s.Volume
}

func (s Summary) String() string {
	return fmt.Sprintf("%d volumes, %d layers, %d entries (%d proto)", s.Volumes, s.Layers, s.Entries(), s.Proto)
}

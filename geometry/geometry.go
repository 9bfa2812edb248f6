// Package geometry declares the read-only view of a detector geometry that the
// converter walks, and a static in-memory implementation of it.
//
// The converter never owns geometry: it only calls the accessors below.
package geometry

import (
	"github.com/logicossoftware/go-matjson/geoid"
	"github.com/logicossoftware/go-matjson/material"
)

// Surface is a geometry surface that may carry material.
type Surface interface {
	ID() geoid.ID
	// Material returns the attached material, or nil.
	Material() material.Material
}

// Layer groups sensitive and approach surfaces around a representing surface.
type Layer interface {
	ID() geoid.ID
	SensitiveSurfaces() []Surface
	ApproachSurfaces() []Surface
	// Representation returns the layer's own surface, or nil.
	Representation() Surface
}

// Volume is a tracking volume. Confined volumes are visited recursively.
type Volume interface {
	ID() geoid.ID
	Name() string
	ConfinedVolumes() []Volume
	ConfinedLayers() []Layer
	BoundarySurfaces() []Surface
	// Material returns the volume material, or nil.
	Material() material.Material
}

// StaticSurface is a Surface backed by plain fields.
type StaticSurface struct {
	SurfaceID       geoid.ID
	SurfaceMaterial material.Material
}

func (s *StaticSurface) ID() geoid.ID                { return s.SurfaceID }
func (s *StaticSurface) Material() material.Material { return s.SurfaceMaterial }

// StaticLayer is a Layer backed by plain fields.
type StaticLayer struct {
	LayerID      geoid.ID
	Sensitives   []Surface
	Approaches   []Surface
	Representing Surface
}

func (l *StaticLayer) ID() geoid.ID                 { return l.LayerID }
func (l *StaticLayer) SensitiveSurfaces() []Surface { return l.Sensitives }
func (l *StaticLayer) ApproachSurfaces() []Surface  { return l.Approaches }
func (l *StaticLayer) Representation() Surface      { return l.Representing }

// StaticVolume is a Volume backed by plain fields.
type StaticVolume struct {
	VolumeID       geoid.ID
	VolumeName     string
	Volumes        []Volume
	Layers         []Layer
	Boundaries     []Surface
	VolumeMaterial material.Material
}

func (v *StaticVolume) ID() geoid.ID                { return v.VolumeID }
func (v *StaticVolume) Name() string                { return v.VolumeName }
func (v *StaticVolume) ConfinedVolumes() []Volume   { return v.Volumes }
func (v *StaticVolume) ConfinedLayers() []Layer     { return v.Layers }
func (v *StaticVolume) BoundarySurfaces() []Surface { return v.Boundaries }
func (v *StaticVolume) Material() material.Material { return v.VolumeMaterial }

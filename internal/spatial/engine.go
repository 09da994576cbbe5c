package spatial

import (
	"math"

	"github.com/paulmach/orb"
)

// Engine is the contract over the geospatial store's predicates. All distance
// arguments and results are in degrees; callers convert from meters with
// MetersToDegrees. Supported geometry types are orb.Point, orb.LineString,
// orb.Bound and orb.Ring.
type Engine interface {
	// Contains reports whether the polygon contains the point.
	Contains(polygon orb.Ring, p orb.Point) bool
	// Intersects reports whether two geometries share any point.
	Intersects(a, b orb.Geometry) bool
	// Distance returns the minimum distance between two geometries in degrees.
	Distance(a, b orb.Geometry) float64
	// WithinDistance reports whether two geometries lie within the given
	// degree distance of each other.
	WithinDistance(a, b orb.Geometry, degrees float64) bool
	// Buffer returns the bounding region of a geometry padded by the given
	// degree distance.
	Buffer(g orb.Geometry, degrees float64) orb.Bound
	// MergeLines joins line strings whose endpoints coincide within the
	// tolerance into maximal connected line strings. Lines that cannot be
	// chained to anything are returned unchanged.
	MergeLines(lines []orb.LineString, tolerance float64) []orb.LineString
}

// PlanarEngine implements Engine with planar geometry over lon/lat degree
// coordinates. Adequate at road-network scale where the meters/111320
// approximation already flattens the sphere.
type PlanarEngine struct{}

// NewPlanarEngine creates a planar geometry engine.
func NewPlanarEngine() *PlanarEngine {
	return &PlanarEngine{}
}

// Contains reports whether the polygon ring contains the point (ray casting).
func (e *PlanarEngine) Contains(polygon orb.Ring, p orb.Point) bool {
	return pointInRing(p, polygon)
}

// Intersects reports whether two geometries share any point.
func (e *PlanarEngine) Intersects(a, b orb.Geometry) bool {
	if a == nil || b == nil {
		return false
	}
	switch ga := a.(type) {
	case orb.Point:
		return e.geometryCoversPoint(b, ga)
	case orb.Bound:
		switch gb := b.(type) {
		case orb.Point:
			return ga.Contains(gb)
		case orb.Bound:
			return ga.Intersects(gb)
		case orb.LineString:
			return lineIntersectsBound(gb, ga)
		case orb.Ring:
			return lineIntersectsBound(orb.LineString(gb), ga)
		}
	case orb.LineString:
		switch gb := b.(type) {
		case orb.Point:
			return e.geometryCoversPoint(a, gb)
		case orb.Bound:
			return lineIntersectsBound(ga, gb)
		case orb.LineString:
			return linesIntersect(ga, gb)
		case orb.Ring:
			return linesIntersect(ga, orb.LineString(gb)) || pointInRing(ga[0], gb)
		}
	case orb.Ring:
		switch gb := b.(type) {
		case orb.Point:
			return pointInRing(gb, ga)
		case orb.Bound:
			return lineIntersectsBound(orb.LineString(ga), gb)
		case orb.LineString:
			return linesIntersect(orb.LineString(ga), gb) || pointInRing(gb[0], ga)
		case orb.Ring:
			return linesIntersect(orb.LineString(ga), orb.LineString(gb)) ||
				pointInRing(ga[0], gb) || pointInRing(gb[0], ga)
		}
	}
	return false
}

func (e *PlanarEngine) geometryCoversPoint(g orb.Geometry, p orb.Point) bool {
	switch gg := g.(type) {
	case orb.Point:
		return gg == p
	case orb.Bound:
		return gg.Contains(p)
	case orb.LineString:
		return pointLineDistance(p, gg) == 0
	case orb.Ring:
		return pointInRing(p, gg)
	}
	return false
}

// Distance returns the minimum planar distance between two geometries in
// degrees. Intersecting geometries have distance zero.
func (e *PlanarEngine) Distance(a, b orb.Geometry) float64 {
	if a == nil || b == nil {
		return math.Inf(1)
	}
	la, ok := asLine(a)
	if !ok {
		return math.Inf(1)
	}
	lb, ok := asLine(b)
	if !ok {
		return math.Inf(1)
	}
	if len(la) == 1 && len(lb) == 1 {
		return pointDistance(la[0], lb[0])
	}
	if e.Intersects(a, b) {
		return 0
	}
	min := math.Inf(1)
	for _, p := range la {
		if d := pointLineDistance(p, lb); d < min {
			min = d
		}
	}
	for _, p := range lb {
		if d := pointLineDistance(p, la); d < min {
			min = d
		}
	}
	return min
}

// WithinDistance reports whether two geometries lie within degrees of each other.
func (e *PlanarEngine) WithinDistance(a, b orb.Geometry, degrees float64) bool {
	return e.Distance(a, b) <= degrees
}

// Buffer returns the geometry's bounding box padded by degrees on every side.
func (e *PlanarEngine) Buffer(g orb.Geometry, degrees float64) orb.Bound {
	bound := g.Bound()
	return orb.Bound{
		Min: orb.Point{bound.Min.Lon() - degrees, bound.Min.Lat() - degrees},
		Max: orb.Point{bound.Max.Lon() + degrees, bound.Max.Lat() + degrees},
	}
}

// MergeLines joins chainable line strings into maximal connected lines.
func (e *PlanarEngine) MergeLines(lines []orb.LineString, tolerance float64) []orb.LineString {
	merged := make([]orb.LineString, 0, len(lines))
	for _, l := range lines {
		if len(l) >= 2 {
			merged = append(merged, l)
		}
	}

	for changed := true; changed; {
		changed = false
	scan:
		for i := 0; i < len(merged); i++ {
			for j := i + 1; j < len(merged); j++ {
				joined, ok := joinLines(merged[i], merged[j], tolerance)
				if !ok {
					continue
				}
				merged[i] = joined
				merged = append(merged[:j], merged[j+1:]...)
				changed = true
				break scan
			}
		}
	}
	return merged
}

// asLine views a geometry as its vertex sequence. Bounds become their corner
// ring so distance works uniformly.
func asLine(g orb.Geometry) (orb.LineString, bool) {
	switch gg := g.(type) {
	case orb.Point:
		return orb.LineString{gg}, true
	case orb.LineString:
		if len(gg) == 0 {
			return nil, false
		}
		return gg, true
	case orb.Ring:
		if len(gg) == 0 {
			return nil, false
		}
		return orb.LineString(gg), true
	case orb.Bound:
		return orb.LineString{
			gg.Min,
			orb.Point{gg.Max.Lon(), gg.Min.Lat()},
			gg.Max,
			orb.Point{gg.Min.Lon(), gg.Max.Lat()},
			gg.Min,
		}, true
	}
	return nil, false
}

// joinLines chains two lines whose endpoints coincide within the tolerance.
// The second line is reversed when its far endpoint is the one that touches.
func joinLines(a, b orb.LineString, tolerance float64) (orb.LineString, bool) {
	switch {
	case pointDistance(a[len(a)-1], b[0]) <= tolerance:
		return appendLine(a, b), true
	case pointDistance(a[len(a)-1], b[len(b)-1]) <= tolerance:
		return appendLine(a, reverseLine(b)), true
	case pointDistance(a[0], b[len(b)-1]) <= tolerance:
		return appendLine(b, a), true
	case pointDistance(a[0], b[0]) <= tolerance:
		return appendLine(reverseLine(b), a), true
	}
	return nil, false
}

func appendLine(a, b orb.LineString) orb.LineString {
	out := make(orb.LineString, 0, len(a)+len(b))
	out = append(out, a...)
	// drop the duplicated joint vertex when the lines touch exactly
	if a[len(a)-1] == b[0] {
		out = append(out, b[1:]...)
	} else {
		out = append(out, b...)
	}
	return out
}

func reverseLine(l orb.LineString) orb.LineString {
	out := make(orb.LineString, len(l))
	for i, p := range l {
		out[len(l)-1-i] = p
	}
	return out
}

package spatial

import (
	"math"

	"github.com/paulmach/orb"
)

// Planar primitives over lon/lat degree coordinates.

// pointDistance returns the euclidean distance between two points in degrees.
func pointDistance(a, b orb.Point) float64 {
	dx := a.Lon() - b.Lon()
	dy := a.Lat() - b.Lat()
	return math.Sqrt(dx*dx + dy*dy)
}

// pointSegmentDistance returns the distance from p to the segment [a,b] in degrees.
func pointSegmentDistance(p, a, b orb.Point) float64 {
	dx := b.Lon() - a.Lon()
	dy := b.Lat() - a.Lat()
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return pointDistance(p, a)
	}

	// Projection parameter of p onto the segment, clamped to [0,1].
	t := ((p.Lon()-a.Lon())*dx + (p.Lat()-a.Lat())*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	closest := orb.Point{a.Lon() + t*dx, a.Lat() + t*dy}
	return pointDistance(p, closest)
}

// pointLineDistance returns the minimum distance from p to a line string in degrees.
func pointLineDistance(p orb.Point, line orb.LineString) float64 {
	if len(line) == 0 {
		return math.Inf(1)
	}
	if len(line) == 1 {
		return pointDistance(p, line[0])
	}
	min := math.Inf(1)
	for i := 1; i < len(line); i++ {
		if d := pointSegmentDistance(p, line[i-1], line[i]); d < min {
			min = d
		}
	}
	return min
}

// pointInRing checks if a point is inside a polygon ring using ray casting
func pointInRing(p orb.Point, ring orb.Ring) bool {
	if len(ring) < 3 {
		return false
	}

	inside := false
	j := len(ring) - 1

	for i := 0; i < len(ring); i++ {
		if ((ring[i].Lat() > p.Lat()) != (ring[j].Lat() > p.Lat())) &&
			(p.Lon() < (ring[j].Lon()-ring[i].Lon())*(p.Lat()-ring[i].Lat())/(ring[j].Lat()-ring[i].Lat())+ring[i].Lon()) {
			inside = !inside
		}
		j = i
	}

	return inside
}

// orientation returns the signed area sign of the triangle (a, b, c):
// 0 collinear, 1 clockwise, 2 counter-clockwise.
func orientation(a, b, c orb.Point) int {
	v := (b.Lat()-a.Lat())*(c.Lon()-b.Lon()) - (b.Lon()-a.Lon())*(c.Lat()-b.Lat())
	if v == 0 {
		return 0
	}
	if v > 0 {
		return 1
	}
	return 2
}

// onSegment reports whether collinear point q lies on segment [a,b].
func onSegment(a, q, b orb.Point) bool {
	return q.Lon() <= math.Max(a.Lon(), b.Lon()) && q.Lon() >= math.Min(a.Lon(), b.Lon()) &&
		q.Lat() <= math.Max(a.Lat(), b.Lat()) && q.Lat() >= math.Min(a.Lat(), b.Lat())
}

// segmentsIntersect reports whether segments [p1,p2] and [q1,q2] share a point.
func segmentsIntersect(p1, p2, q1, q2 orb.Point) bool {
	o1 := orientation(p1, p2, q1)
	o2 := orientation(p1, p2, q2)
	o3 := orientation(q1, q2, p1)
	o4 := orientation(q1, q2, p2)

	if o1 != o2 && o3 != o4 {
		return true
	}

	// collinear touch cases
	if o1 == 0 && onSegment(p1, q1, p2) {
		return true
	}
	if o2 == 0 && onSegment(p1, q2, p2) {
		return true
	}
	if o3 == 0 && onSegment(q1, p1, q2) {
		return true
	}
	if o4 == 0 && onSegment(q1, p2, q2) {
		return true
	}

	return false
}

// linesIntersect reports whether any segment of a crosses any segment of b.
func linesIntersect(a, b orb.LineString) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	if len(a) == 1 {
		return pointLineDistance(a[0], b) == 0
	}
	if len(b) == 1 {
		return pointLineDistance(b[0], a) == 0
	}

	// bbox rejection before the quadratic scan
	if !a.Bound().Intersects(b.Bound()) {
		return false
	}

	for i := 1; i < len(a); i++ {
		segBound := orb.MultiPoint{a[i-1], a[i]}.Bound()
		if !segBound.Intersects(b.Bound()) {
			continue
		}
		for j := 1; j < len(b); j++ {
			if segmentsIntersect(a[i-1], a[i], b[j-1], b[j]) {
				return true
			}
		}
	}
	return false
}

// lineIntersectsBound reports whether a line string touches a bounding box.
func lineIntersectsBound(line orb.LineString, bound orb.Bound) bool {
	if len(line) == 0 {
		return false
	}
	for _, p := range line {
		if bound.Contains(p) {
			return true
		}
	}
	// The line may cross a corner without any vertex falling inside.
	edges, _ := asLine(bound)
	return linesIntersect(line, edges)
}

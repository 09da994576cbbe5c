package service

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"

	"github.com/jengzang/tolls-backend-go/internal/models"
	"github.com/jengzang/tolls-backend-go/internal/spatial"
)

// RoadStore loads road geometry by region.
type RoadStore interface {
	GetAllRoads() ([]models.Road, error)
	RoadsIntersectingBound(bound orb.Bound) ([]models.Road, error)
}

// RoadNetService reconstructs connected roads from independently-sourced
// fragments and answers which roads a route geometry touches.
type RoadNetService struct {
	roads  RoadStore
	engine spatial.Engine

	// Endpoint snap tolerance for fragment adjacency, meters.
	toleranceMeters float64
}

// Merged fragments can become adjacent to other merged fragments that their
// original pieces never touched, so merging iterates to a fixed point. The
// pass cap is a safety valve against pathological adjacency cycles.
const maxMergePasses = 8

// NewRoadNetService creates a new road network service
func NewRoadNetService(roads RoadStore, engine spatial.Engine, toleranceMeters float64) *RoadNetService {
	if toleranceMeters <= 0 {
		toleranceMeters = 30
	}
	return &RoadNetService{roads: roads, engine: engine, toleranceMeters: toleranceMeters}
}

// MergeFragments reconstructs connected roads from fragments sharing a route
// reference. Fragments without a reference or without geometry pass through
// untouched. The result is a fixed point: merging it again changes nothing.
func (s *RoadNetService) MergeFragments(fragments []models.Road) []models.Road {
	tolerance := spatial.MetersToDegrees(s.toleranceMeters)

	current := make([]models.Road, len(fragments))
	copy(current, fragments)

	for pass := 0; pass < maxMergePasses; pass++ {
		merged := s.mergePass(current, tolerance)
		done := len(merged) == len(current)
		current = merged
		if done {
			break
		}
	}
	return current
}

// mergePass runs one grouping+merging sweep over the fragment set.
func (s *RoadNetService) mergePass(roads []models.Road, tolerance float64) []models.Road {
	// Stable order by identity so identical input always merges identically.
	sorted := make([]models.Road, len(roads))
	copy(sorted, roads)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var output []models.Road
	var groupRefs []string
	groups := make(map[string][]int)

	for i := range sorted {
		if sorted[i].RouteRef == "" || !sorted[i].HasGeometry() {
			// no reference to group by: singleton, never merged
			output = append(output, sorted[i])
			continue
		}
		ref := sorted[i].RouteRef
		if _, ok := groups[ref]; !ok {
			groupRefs = append(groupRefs, ref)
		}
		groups[ref] = append(groups[ref], i)
	}

	for _, ref := range groupRefs {
		members := groups[ref]
		for _, component := range s.connectedComponents(sorted, members, tolerance) {
			if len(component) == 1 {
				output = append(output, sorted[component[0]])
				continue
			}
			output = append(output, s.mergeComponent(sorted, component, ref, tolerance)...)
		}
	}

	return output
}

// connectedComponents partitions group members into components connected by
// endpoint proximity, via breadth-first traversal with an explicit queue.
func (s *RoadNetService) connectedComponents(roads []models.Road, members []int, tolerance float64) [][]int {
	visited := make(map[int]bool, len(members))
	var components [][]int

	for _, start := range members {
		if visited[start] {
			continue
		}
		visited[start] = true
		component := []int{start}
		queue := []int{start}

		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, cand := range members {
				if visited[cand] {
					continue
				}
				if s.endpointsAdjacent(roads[cur].Geometry, roads[cand].Geometry, tolerance) {
					visited[cand] = true
					component = append(component, cand)
					queue = append(queue, cand)
				}
			}
		}
		components = append(components, component)
	}
	return components
}

// endpointsAdjacent reports whether any endpoint pair of two fragments lies
// within the tolerance.
func (s *RoadNetService) endpointsAdjacent(a, b orb.LineString, tolerance float64) bool {
	ends := func(l orb.LineString) [2]orb.Point {
		return [2]orb.Point{l[0], l[len(l)-1]}
	}
	for _, pa := range ends(a) {
		for _, pb := range ends(b) {
			if s.engine.WithinDistance(pa, pb, tolerance) {
				return true
			}
		}
	}
	return false
}

// mergeComponent merges one connected component's geometries. The engine can
// yield several disjoint results for one component; each becomes its own road.
func (s *RoadNetService) mergeComponent(roads []models.Road, component []int, ref string, tolerance float64) []models.Road {
	lines := make([]orb.LineString, 0, len(component))
	name, highway := "", ""
	isToll := false
	for _, idx := range component {
		lines = append(lines, roads[idx].Geometry)
		if name == "" {
			name = roads[idx].Name
		}
		if highway == "" {
			highway = roads[idx].Highway
		}
		if roads[idx].IsToll {
			isToll = true
		}
	}

	mergedLines := s.engine.MergeLines(lines, tolerance)

	out := make([]models.Road, 0, len(mergedLines))
	for _, line := range mergedLines {
		out = append(out, models.Road{
			Name:     name,
			RouteRef: ref,
			Highway:  highway,
			IsToll:   isToll,
			Geometry: line,
		})
	}
	return out
}

// MergeStoredRoads merges every stored fragment and reports the resulting
// roads plus the IDs of fragments consumed by a merge. Persistence is the
// caller's transaction.
func (s *RoadNetService) MergeStoredRoads() (merged []models.Road, removedIDs []int64, err error) {
	fragments, err := s.roads.GetAllRoads()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load roads: %w", err)
	}

	merged = s.MergeFragments(fragments)

	survived := make(map[int64]bool, len(merged))
	for _, r := range merged {
		if r.ID > 0 {
			survived[r.ID] = true
		}
	}
	for _, f := range fragments {
		if f.ID > 0 && !survived[f.ID] {
			removedIDs = append(removedIDs, f.ID)
		}
	}
	return merged, removedIDs, nil
}

// ExpandIntersecting returns every road the route polyline touches, plus the
// transitive closure of roads touching those roads within the bounding box.
// The closure recovers connecting ramps and spurs that meet the route's roads
// without crossing the polyline itself.
func (s *RoadNetService) ExpandIntersecting(polyline orb.LineString, bbox orb.Bound) ([]models.Road, error) {
	candidates, err := s.roads.RoadsIntersectingBound(bbox)
	if err != nil {
		return nil, fmt.Errorf("failed to load roads in bound: %w", err)
	}

	// Arena of candidates: geometry-carrying, deduplicated, precise bbox hit.
	var pool []models.Road
	seen := make(map[int64]bool)
	for _, r := range candidates {
		if !r.HasGeometry() {
			continue
		}
		if r.ID > 0 {
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
		}
		if !s.engine.Intersects(r.Geometry, bbox) {
			continue
		}
		pool = append(pool, r)
	}

	accepted := make([]bool, len(pool))
	var queue []int
	for i := range pool {
		if s.engine.Intersects(pool[i].Geometry, polyline) {
			accepted[i] = true
			queue = append(queue, i)
		}
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for i := range pool {
			if accepted[i] {
				continue
			}
			if s.engine.Intersects(pool[i].Geometry, pool[cur].Geometry) {
				accepted[i] = true
				queue = append(queue, i)
			}
		}
	}

	var result []models.Road
	for i := range pool {
		if accepted[i] {
			result = append(result, pool[i])
		}
	}
	return result, nil
}

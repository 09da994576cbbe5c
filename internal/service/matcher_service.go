package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/paulmach/orb"

	"github.com/jengzang/tolls-backend-go/internal/models"
	"github.com/jengzang/tolls-backend-go/internal/spatial"
)

// TollStore loads toll facilities by geographic region.
type TollStore interface {
	TollsWithinBound(bound orb.Bound) ([]models.Toll, error)
}

// MatcherService resolves free-text facility names/codes to persisted toll
// records within a geographic region.
type MatcherService struct {
	tolls  TollStore
	engine spatial.Engine

	// Graduated search radii for proximity lookups, meters, ascending.
	radiiMeters []float64
}

// DefaultProximityRadii is the graduated radius ladder for nearby lookups.
// Toll points are sometimes offset from the true facility location by import
// noise; a single large radius would admit unrelated facilities, so the
// search widens step by step and stops at the first radius that answers.
var DefaultProximityRadii = []float64{50, 100, 200, 400, 800}

// NewMatcherService creates a new matcher service
func NewMatcherService(tolls TollStore, engine spatial.Engine, radiiMeters []float64) *MatcherService {
	if len(radiiMeters) == 0 {
		radiiMeters = DefaultProximityRadii
	}
	return &MatcherService{tolls: tolls, engine: engine, radiiMeters: radiiMeters}
}

// MatchResult carries per-name candidates plus the names nothing matched.
// A name matching several tolls is not an error; all candidates are returned
// and the caller decides.
type MatchResult struct {
	Matches  map[string][]models.Toll `json:"matches"`
	NotFound []string                 `json:"not_found,omitempty"`
}

// MatchFacilities resolves each input name against the tolls whose point lies
// within the region. Matching is read-only; returned records are live and the
// caller may back-fill fields on them. Bad inputs never abort the batch.
func (s *MatcherService) MatchFacilities(ctx context.Context, names []string, region orb.Bound) (MatchResult, error) {
	result := MatchResult{Matches: make(map[string][]models.Toll, len(names))}

	candidates, err := s.tolls.TollsWithinBound(region)
	if err != nil {
		return result, fmt.Errorf("failed to load tolls in region: %w", err)
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		matched := MatchName(name, candidates)
		if len(matched) == 0 {
			result.NotFound = append(result.NotFound, name)
			continue
		}
		result.Matches[name] = matched
	}

	return result, nil
}

// MatchName resolves one free-text name against a candidate set: exact
// case-insensitive match on name/key/number first, bidirectional substring
// containment only when exact yields nothing.
func MatchName(name string, candidates []models.Toll) []models.Toll {
	name = strings.TrimSpace(name)
	if name == "" || isPlaceholder(name) {
		return nil
	}

	var exact []models.Toll
	for _, c := range candidates {
		if !usableCandidate(&c) {
			continue
		}
		if strings.EqualFold(c.Name, name) || strings.EqualFold(c.Key, name) || strings.EqualFold(c.Number, name) {
			exact = append(exact, c)
		}
	}
	if len(exact) > 0 {
		return exact
	}

	normalized := normalizeForMatch(name)
	var fuzzy []models.Toll
	for _, c := range candidates {
		if !usableCandidate(&c) {
			continue
		}
		if containsEitherWay(normalized, c.Name) || containsEitherWay(normalized, c.Key) || containsEitherWay(normalized, c.Number) {
			fuzzy = append(fuzzy, c)
		}
	}
	return fuzzy
}

// usableCandidate rejects tolls whose identifying fields are all empty or
// placeholder junk; substring matching against those produces noise.
func usableCandidate(t *models.Toll) bool {
	return !(isPlaceholder(t.Name) && isPlaceholder(t.Key) && isPlaceholder(t.Number))
}

func isPlaceholder(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	return strings.Trim(s, "_-. ") == ""
}

// normalizeForMatch lowercases and strips punctuation so "Main St Plaza"
// still finds "Main St. Plaza (EB)". Operator publications disagree on
// punctuation and directional suffixes for the same facility.
func normalizeForMatch(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func containsEitherWay(normalizedName, candidate string) bool {
	candidate = normalizeForMatch(candidate)
	if candidate == "" {
		return false
	}
	return strings.Contains(candidate, normalizedName) || strings.Contains(normalizedName, candidate)
}

// FindNearby returns the closest limit tolls found at the smallest radius of
// the graduated ladder that yields any result. Larger radii are never queried
// once a smaller one has answered.
func (s *MatcherService) FindNearby(point orb.Point, limit int) ([]models.Toll, error) {
	if limit < 1 {
		limit = 5
	}

	for _, radiusMeters := range s.radiiMeters {
		radius := spatial.MetersToDegrees(radiusMeters)
		bound := s.engine.Buffer(point, radius)

		candidates, err := s.tolls.TollsWithinBound(bound)
		if err != nil {
			return nil, fmt.Errorf("failed to load tolls near point: %w", err)
		}

		type scored struct {
			toll models.Toll
			dist float64
		}
		var hits []scored
		for _, c := range candidates {
			pt, ok := c.Point()
			if !ok {
				continue
			}
			// The bound query is square; cut it down to the circle.
			if d := s.engine.Distance(point, pt); d <= radius {
				hits = append(hits, scored{toll: c, dist: d})
			}
		}
		if len(hits) == 0 {
			continue
		}

		sort.Slice(hits, func(i, j int) bool {
			if hits[i].dist != hits[j].dist {
				return hits[i].dist < hits[j].dist
			}
			return hits[i].toll.ID < hits[j].toll.ID
		})
		if len(hits) > limit {
			hits = hits[:limit]
		}

		tolls := make([]models.Toll, len(hits))
		for i, h := range hits {
			tolls[i] = h.toll
		}
		return tolls, nil
	}

	return nil, nil
}

package service

import (
	"context"
	"testing"

	"github.com/paulmach/orb"

	"github.com/jengzang/tolls-backend-go/internal/models"
	"github.com/jengzang/tolls-backend-go/internal/spatial"
)

type fakeTollStore struct {
	tolls   []models.Toll
	queries int
}

func (f *fakeTollStore) TollsWithinBound(bound orb.Bound) ([]models.Toll, error) {
	f.queries++
	var out []models.Toll
	for _, t := range f.tolls {
		pt, ok := t.Point()
		if !ok {
			out = append(out, t)
			continue
		}
		if bound.Contains(pt) {
			out = append(out, t)
		}
	}
	return out, nil
}

func pointToll(id int64, name string, lat, lon float64) models.Toll {
	return models.Toll{ID: id, Name: name, Lat: f64(lat), Lon: f64(lon)}
}

func TestMatchNameExactBeforeFuzzy(t *testing.T) {
	candidates := []models.Toll{
		{ID: 1, Name: "Main St. Plaza (EB)"},
		{ID: 2, Name: "Main St. Plaza (WB)"},
		{ID: 3, Name: "Main St. Plaza"},
	}

	got := MatchName("Main St. Plaza", candidates)
	if len(got) != 1 || got[0].ID != 3 {
		t.Fatalf("exact match must win alone, got %v", got)
	}
}

func TestMatchNameFuzzyFallback(t *testing.T) {
	candidates := []models.Toll{
		{ID: 1, Name: "Main St. Plaza (EB)"},
		{ID: 2, Name: "Main St. Plaza (WB)"},
		{ID: 3, Name: "River Bridge"},
	}

	got := MatchName("Main St Plaza", candidates)
	if len(got) != 2 {
		t.Fatalf("expected both directional plazas, got %d: %v", len(got), got)
	}
	for _, m := range got {
		if m.ID != 1 && m.ID != 2 {
			t.Errorf("unexpected match %d %q", m.ID, m.Name)
		}
	}
}

func TestMatchNameKeyAndNumber(t *testing.T) {
	candidates := []models.Toll{
		{ID: 1, Name: "Plaza 14", Key: "plz-14", Number: "14"},
	}

	if got := MatchName("PLZ-14", candidates); len(got) != 1 {
		t.Errorf("key must match case-insensitively, got %v", got)
	}
	if got := MatchName("14", candidates); len(got) != 1 {
		t.Errorf("number must match, got %v", got)
	}
}

func TestMatchNameRejectsPlaceholders(t *testing.T) {
	candidates := []models.Toll{
		{ID: 1, Name: "---"},
		{ID: 2, Name: "_"},
		{ID: 3, Name: "Real Plaza"},
	}

	if got := MatchName("  ", candidates); got != nil {
		t.Errorf("blank query must match nothing, got %v", got)
	}
	if got := MatchName("---", candidates); got != nil {
		t.Errorf("placeholder query must match nothing, got %v", got)
	}
	if got := MatchName("real", candidates); len(got) != 1 || got[0].ID != 3 {
		t.Errorf("placeholder candidates must never match, got %v", got)
	}
}

func TestMatchFacilitiesRegionAndNotFound(t *testing.T) {
	store := &fakeTollStore{tolls: []models.Toll{
		pointToll(1, "North Plaza", 10.0, 10.0),
		pointToll(2, "South Plaza", -10.0, -10.0),
	}}
	m := NewMatcherService(store, spatial.NewPlanarEngine(), nil)

	region := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{20, 20}}
	result, err := m.MatchFacilities(context.Background(), []string{"North Plaza", "South Plaza", "Ghost Road"}, region)
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Matches["North Plaza"]) != 1 {
		t.Errorf("North Plaza must match inside the region, got %v", result.Matches["North Plaza"])
	}
	if len(result.Matches["South Plaza"]) != 0 {
		t.Errorf("South Plaza lies outside the region and must not match")
	}
	if len(result.NotFound) != 2 {
		t.Errorf("not_found = %v, want the 2 unresolved names", result.NotFound)
	}
	if store.queries != 1 {
		t.Errorf("region must be queried once per batch, got %d queries", store.queries)
	}
}

func TestFindNearbyGraduatedRadii(t *testing.T) {
	// 80m and 95m north of the origin: beyond the 50m ring, inside 100m.
	store := &fakeTollStore{tolls: []models.Toll{
		pointToll(1, "Near", 80.0/spatial.MetersPerDegree, 0),
		pointToll(2, "AlsoNear", 95.0/spatial.MetersPerDegree, 0),
		pointToll(3, "Far", 700.0/spatial.MetersPerDegree, 0),
	}}
	m := NewMatcherService(store, spatial.NewPlanarEngine(), []float64{50, 100, 200, 400, 800})

	got, err := m.FindNearby(orb.Point{0, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}

	if len(got) != 2 {
		t.Fatalf("expected the 2 tolls inside the 100m ring, got %d", len(got))
	}
	if got[0].Name != "Near" || got[1].Name != "AlsoNear" {
		t.Errorf("results must be ordered by distance, got %q, %q", got[0].Name, got[1].Name)
	}
	if store.queries != 2 {
		t.Errorf("search must stop at the first answering radius, got %d queries", store.queries)
	}
}

func TestFindNearbyLimit(t *testing.T) {
	store := &fakeTollStore{tolls: []models.Toll{
		pointToll(1, "A", 10.0/spatial.MetersPerDegree, 0),
		pointToll(2, "B", 20.0/spatial.MetersPerDegree, 0),
		pointToll(3, "C", 30.0/spatial.MetersPerDegree, 0),
	}}
	m := NewMatcherService(store, spatial.NewPlanarEngine(), nil)

	got, err := m.FindNearby(orb.Point{0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("limit must cap results, got %d", len(got))
	}
	if got[0].Name != "A" || got[1].Name != "B" {
		t.Errorf("closest tolls must survive the cut, got %q, %q", got[0].Name, got[1].Name)
	}
}

func TestFindNearbyNothingAnywhere(t *testing.T) {
	store := &fakeTollStore{}
	m := NewMatcherService(store, spatial.NewPlanarEngine(), nil)

	got, err := m.FindNearby(orb.Point{0, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("empty store must yield nil, got %v", got)
	}
	if store.queries != len(DefaultProximityRadii) {
		t.Errorf("every radius must be tried before giving up, got %d queries", store.queries)
	}
}

package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/paulmach/orb"

	"github.com/jengzang/tolls-backend-go/internal/database"
	"github.com/jengzang/tolls-backend-go/internal/models"
)

type testEnv struct {
	db          *sql.DB
	tolls       *TollRepository
	roads       *RoadRepository
	calculators *CalculatorRepository
	prices      *PriceRepository
}

func openTestDB(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.NewMigrationManager(db).RunMigrations(); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return &testEnv{
		db:          db,
		tolls:       NewTollRepository(db),
		roads:       NewRoadRepository(db),
		calculators: NewCalculatorRepository(db),
		prices:      NewPriceRepository(db),
	}
}

func fptr(v float64) *float64 { return &v }

func seedToll(t *testing.T, env *testEnv, name string, lat, lon float64) *models.Toll {
	t.Helper()
	toll := &models.Toll{Name: name, Lat: fptr(lat), Lon: fptr(lon)}
	if err := env.tolls.CreateToll(toll); err != nil {
		t.Fatalf("failed to seed toll %q: %v", name, err)
	}
	return toll
}

func TestTollRoundTrip(t *testing.T) {
	env := openTestDB(t)

	created := &models.Toll{
		Name:           "Main St. Plaza (EB)",
		Key:            "main-eb",
		Number:         "12",
		Lat:            fptr(41.5),
		Lon:            fptr(-87.9),
		PaymentMethods: []models.PaymentType{models.PaymentCash, models.PaymentTransponder},
		Cash:           fptr(1.50),
	}
	if err := env.tolls.CreateToll(created); err != nil {
		t.Fatal(err)
	}
	if created.ID == 0 {
		t.Fatal("created toll must receive an ID")
	}

	got, err := env.tolls.GetTollByID(created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("created toll not found")
	}
	if got.Name != created.Name || got.Key != created.Key || got.Number != created.Number {
		t.Errorf("identity fields did not survive the round trip: %+v", got)
	}
	if len(got.PaymentMethods) != 2 {
		t.Errorf("payment methods = %v, want 2 entries", got.PaymentMethods)
	}
	if got.Cash == nil || *got.Cash != 1.50 {
		t.Errorf("cash = %v, want 1.50", got.Cash)
	}

	missing, err := env.tolls.GetTollByID(99999)
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Error("missing toll must come back nil without error")
	}
}

func TestTollsWithinBound(t *testing.T) {
	env := openTestDB(t)

	seedToll(t, env, "Inside", 10.0, 10.0)
	seedToll(t, env, "Outside", 50.0, 50.0)
	if err := env.tolls.CreateToll(&models.Toll{Name: "NoPoint"}); err != nil {
		t.Fatal(err)
	}

	bound := orb.Bound{Min: orb.Point{5, 5}, Max: orb.Point{15, 15}}
	got, err := env.tolls.TollsWithinBound(bound)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "Inside" {
		t.Errorf("bound query = %v, want only Inside", got)
	}
}

func TestGetTollsFilters(t *testing.T) {
	env := openTestDB(t)

	calc, err := env.calculators.GetOrCreateByCode("IL", "Illinois")
	if err != nil {
		t.Fatal(err)
	}

	plaza := seedToll(t, env, "Cermak Plaza", 41.8, -87.8)
	plaza.StateCalculatorID = &calc.ID
	if err := env.tolls.UpdateToll(plaza); err != nil {
		t.Fatal(err)
	}
	seedToll(t, env, "River Bridge", 40.0, -80.0)

	byName, total, err := env.tolls.GetTolls(models.TollFilter{Name: "Cermak"})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(byName) != 1 {
		t.Errorf("name filter matched %d tolls, want 1", total)
	}

	byCalc, total, err := env.tolls.GetTolls(models.TollFilter{CalculatorID: calc.ID})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(byCalc) != 1 || byCalc[0].ID != plaza.ID {
		t.Errorf("calculator filter = %v (total %d), want only the plaza", byCalc, total)
	}
}

func TestRoadRoundTripAndBound(t *testing.T) {
	env := openTestDB(t)

	road := &models.Road{
		Name:     "Tri-State Tollway",
		RouteRef: "I-294",
		Highway:  "motorway",
		IsToll:   true,
		Geometry: orb.LineString{{-87.9, 41.5}, {-87.9, 41.6}, {-87.8, 41.7}},
	}
	if err := env.roads.CreateRoad(road); err != nil {
		t.Fatal(err)
	}

	got, err := env.roads.GetRoadByID(road.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("created road not found")
	}
	if len(got.Geometry) != 3 {
		t.Fatalf("geometry has %d points after round trip, want 3", len(got.Geometry))
	}
	if got.Geometry[0] != (orb.Point{-87.9, 41.5}) {
		t.Errorf("first point = %v, want (-87.9, 41.5)", got.Geometry[0])
	}
	if !got.IsToll {
		t.Error("is_toll flag lost in round trip")
	}

	hit, err := env.roads.RoadsIntersectingBound(orb.Bound{Min: orb.Point{-88, 41.4}, Max: orb.Point{-87.85, 41.55}})
	if err != nil {
		t.Fatal(err)
	}
	if len(hit) != 1 {
		t.Errorf("overlapping bound must find the road, got %d", len(hit))
	}

	miss, err := env.roads.RoadsIntersectingBound(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}})
	if err != nil {
		t.Fatal(err)
	}
	if len(miss) != 0 {
		t.Errorf("distant bound must find nothing, got %d", len(miss))
	}
}

func TestDeleteRoadsTx(t *testing.T) {
	env := openTestDB(t)

	a := &models.Road{Name: "A", Geometry: orb.LineString{{0, 0}, {1, 0}}}
	b := &models.Road{Name: "B", Geometry: orb.LineString{{0, 1}, {1, 1}}}
	for _, r := range []*models.Road{a, b} {
		if err := env.roads.CreateRoad(r); err != nil {
			t.Fatal(err)
		}
	}

	err := database.WithTx(env.db, func(tx *sql.Tx) error {
		return env.roads.DeleteRoadsTx(tx, []int64{a.ID})
	})
	if err != nil {
		t.Fatal(err)
	}

	remaining, err := env.roads.GetAllRoads()
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 1 || remaining[0].ID != b.ID {
		t.Errorf("expected only road B to remain, got %v", remaining)
	}
}

func TestGetOrCreateByCodeIsStable(t *testing.T) {
	env := openTestDB(t)

	first, err := env.calculators.GetOrCreateByCode("IL", "Illinois")
	if err != nil {
		t.Fatal(err)
	}
	second, err := env.calculators.GetOrCreateByCode("IL", "Illinois Tollway")
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Errorf("repeated get-or-create returned different IDs: %d then %d", first.ID, second.ID)
	}
	if second.Name != "Illinois" {
		t.Errorf("existing calculator must not be renamed, got %q", second.Name)
	}
}

func TestGetOrCreateCalculatePrice(t *testing.T) {
	env := openTestDB(t)

	calc, err := env.calculators.GetOrCreateByCode("IL", "Illinois")
	if err != nil {
		t.Fatal(err)
	}
	from := seedToll(t, env, "Entry", 41.0, -88.0)
	to := seedToll(t, env, "Exit", 41.2, -88.0)

	var firstID, secondID int64
	err = database.WithTx(env.db, func(tx *sql.Tx) error {
		cp, err := env.calculators.GetOrCreateCalculatePriceTx(tx, calc.ID, from.ID, to.ID)
		if err != nil {
			return err
		}
		firstID = cp.ID

		cp, err = env.calculators.GetOrCreateCalculatePriceTx(tx, calc.ID, from.ID, to.ID)
		if err != nil {
			return err
		}
		secondID = cp.ID
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if firstID != secondID {
		t.Errorf("repeated get-or-create returned different corridor records: %d then %d", firstID, secondID)
	}

	err = database.WithTx(env.db, func(tx *sql.Tx) error {
		_, err := env.calculators.GetOrCreateCalculatePriceTx(tx, calc.ID, from.ID, from.ID)
		return err
	})
	if err == nil {
		t.Error("a corridor pair with identical endpoints must be rejected")
	}
}

func TestPriceUpsertIdempotent(t *testing.T) {
	env := openTestDB(t)

	toll := seedToll(t, env, "Bridge", 40.0, -80.0)
	owner := models.DirectOwner(toll.ID)

	fact := models.PriceFact{
		Amount:      2.50,
		PaymentType: models.PaymentCash,
		AxelType:    models.AxelL2,
	}
	if err := env.prices.Upsert(owner, fact); err != nil {
		t.Fatal(err)
	}
	if err := env.prices.Upsert(owner, fact); err != nil {
		t.Fatal(err)
	}

	all, err := env.prices.PricesForOwner(owner)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("identical upserts must collapse to one row, got %d", len(all))
	}

	// same key, new amount: update in place
	fact.Amount = 3.00
	if err := env.prices.Upsert(owner, fact); err != nil {
		t.Fatal(err)
	}
	all, err = env.prices.PricesForOwner(owner)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("amount change must not add a row, got %d", len(all))
	}
	if all[0].Amount != 3.00 {
		t.Errorf("amount = %f, want 3.00", all[0].Amount)
	}

	// a different key is a second row
	fact.AxelType = models.AxelL3
	if err := env.prices.Upsert(owner, fact); err != nil {
		t.Fatal(err)
	}
	if all, _ = env.prices.PricesForOwner(owner); len(all) != 2 {
		t.Errorf("distinct key must create a second row, got %d", len(all))
	}
}

func TestGetPriceByKey(t *testing.T) {
	env := openTestDB(t)

	toll := seedToll(t, env, "Bridge", 40.0, -80.0)
	owner := models.DirectOwner(toll.ID)

	fact := models.PriceFact{
		Amount:        1.25,
		PaymentType:   models.PaymentTransponder,
		DayOfWeekFrom: models.DaySaturday,
		DayOfWeekTo:   models.DaySunday,
		TimeOfDay:     models.TimeNight,
	}
	if err := env.prices.Upsert(owner, fact); err != nil {
		t.Fatal(err)
	}

	key := models.PriceKey{
		PaymentType:   models.PaymentTransponder,
		DayOfWeekFrom: models.DaySaturday,
		DayOfWeekTo:   models.DaySunday,
		TimeOfDay:     models.TimeNight,
	}
	got, err := env.prices.GetPrice(owner, key)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Amount != 1.25 {
		t.Fatalf("keyed lookup = %v, want amount 1.25", got)
	}

	key.TimeOfDay = models.TimeDay
	miss, err := env.prices.GetPrice(owner, key)
	if err != nil {
		t.Fatal(err)
	}
	if miss != nil {
		t.Error("lookup under a different key must come back nil")
	}
}

func TestPriceOwnerValidation(t *testing.T) {
	env := openTestDB(t)

	if err := env.prices.Upsert(models.PriceOwner{}, models.PriceFact{Amount: 1}); err == nil {
		t.Error("ownerless upsert must fail")
	}

	tollID := int64(1)
	cpID := int64(2)
	both := models.PriceOwner{TollID: &tollID, CalculatePriceID: &cpID}
	if err := both.Validate(); err == nil {
		t.Error("dual-owner price must fail validation")
	}
}

func TestCalculatePricesForCalculatorAttachesPrices(t *testing.T) {
	env := openTestDB(t)

	calc, err := env.calculators.GetOrCreateByCode("IL", "Illinois")
	if err != nil {
		t.Fatal(err)
	}
	from := seedToll(t, env, "Entry", 41.0, -88.0)
	to := seedToll(t, env, "Exit", 41.2, -88.0)

	var cpID int64
	err = database.WithTx(env.db, func(tx *sql.Tx) error {
		cp, err := env.calculators.GetOrCreateCalculatePriceTx(tx, calc.ID, from.ID, to.ID)
		if err != nil {
			return err
		}
		cpID = cp.ID
		return env.prices.UpsertTx(tx, models.CorridorOwner(cp.ID), models.PriceFact{
			Amount:      4.75,
			PaymentType: models.PaymentCash,
		})
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := env.calculators.CalculatePricesForCalculator(context.Background(), calc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 corridor record, got %d", len(got))
	}
	if got[0].ID != cpID {
		t.Errorf("corridor record ID = %d, want %d", got[0].ID, cpID)
	}
	if len(got[0].Prices) != 1 || got[0].Prices[0].Amount != 4.75 {
		t.Errorf("attached prices = %v, want one record of 4.75", got[0].Prices)
	}
}

package service

import (
	"testing"

	"github.com/jengzang/tolls-backend-go/internal/database"
	"github.com/jengzang/tolls-backend-go/internal/models"
	"github.com/jengzang/tolls-backend-go/internal/repository"
)

type ledgerEnv struct {
	ledger      *LedgerService
	tolls       *repository.TollRepository
	calculators *repository.CalculatorRepository
	prices      *repository.PriceRepository
}

func openLedgerEnv(t *testing.T) *ledgerEnv {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.NewMigrationManager(db).RunMigrations(); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	tolls := repository.NewTollRepository(db)
	calculators := repository.NewCalculatorRepository(db)
	prices := repository.NewPriceRepository(db)
	return &ledgerEnv{
		ledger:      NewLedgerService(db, prices, calculators, tolls),
		tolls:       tolls,
		calculators: calculators,
		prices:      prices,
	}
}

func (e *ledgerEnv) seedToll(t *testing.T, name string) *models.Toll {
	t.Helper()
	toll := &models.Toll{Name: name, Lat: f64(41.0), Lon: f64(-88.0)}
	if err := e.tolls.CreateToll(toll); err != nil {
		t.Fatalf("failed to seed toll %q: %v", name, err)
	}
	return toll
}

func TestLedgerUpsertPriceRejectsBadOwner(t *testing.T) {
	env := openLedgerEnv(t)

	err := env.ledger.UpsertPrice(models.PriceOwner{}, models.PriceFact{Amount: 1})
	if err == nil {
		t.Error("ownerless upsert must fail validation")
	}
}

func TestLedgerBatchUpsertCorridor(t *testing.T) {
	env := openLedgerEnv(t)

	calc, err := env.calculators.GetOrCreateByCode("IL", "Illinois")
	if err != nil {
		t.Fatal(err)
	}
	from := env.seedToll(t, "Entry")
	to := env.seedToll(t, "Exit")

	group := models.CorridorFactGroup{
		StateCalculatorID: calc.ID,
		FromTollID:        from.ID,
		ToTollID:          to.ID,
		Facts: []models.PriceFact{
			{Amount: 2.50, PaymentType: models.PaymentCash},
			{Amount: 1.90, PaymentType: models.PaymentTransponder},
		},
	}

	result, err := env.ledger.BatchUpsert([]models.CorridorFactGroup{group}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Applied != 2 {
		t.Errorf("applied = %d, want 2", result.Applied)
	}
	if len(result.Failures) != 0 {
		t.Errorf("unexpected failures: %v", result.Failures)
	}

	cp, err := env.calculators.GetCalculatePrice(calc.ID, from.ID, to.ID)
	if err != nil {
		t.Fatal(err)
	}
	if cp == nil {
		t.Fatal("corridor record must be created by the batch")
	}
	stored, err := env.prices.PricesForOwner(models.CorridorOwner(cp.ID))
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 2 {
		t.Errorf("stored %d corridor prices, want 2", len(stored))
	}
}

func TestLedgerBatchUpsertReusesCorridorRecord(t *testing.T) {
	env := openLedgerEnv(t)

	calc, err := env.calculators.GetOrCreateByCode("IL", "Illinois")
	if err != nil {
		t.Fatal(err)
	}
	from := env.seedToll(t, "Entry")
	to := env.seedToll(t, "Exit")

	group := models.CorridorFactGroup{
		StateCalculatorID: calc.ID,
		FromTollID:        from.ID,
		ToTollID:          to.ID,
		Facts:             []models.PriceFact{{Amount: 2.50, PaymentType: models.PaymentCash}},
	}

	if _, err := env.ledger.BatchUpsert([]models.CorridorFactGroup{group}, nil); err != nil {
		t.Fatal(err)
	}
	group.Facts[0].Amount = 2.75
	if _, err := env.ledger.BatchUpsert([]models.CorridorFactGroup{group}, nil); err != nil {
		t.Fatal(err)
	}

	cp, err := env.calculators.GetCalculatePrice(calc.ID, from.ID, to.ID)
	if err != nil {
		t.Fatal(err)
	}
	stored, err := env.prices.PricesForOwner(models.CorridorOwner(cp.ID))
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 {
		t.Fatalf("re-running the batch must not duplicate rows, got %d", len(stored))
	}
	if stored[0].Amount != 2.75 {
		t.Errorf("amount = %f, want the later batch to win with 2.75", stored[0].Amount)
	}
}

func TestLedgerBatchUpsertContinuesPastFailure(t *testing.T) {
	env := openLedgerEnv(t)

	calc, err := env.calculators.GetOrCreateByCode("IL", "Illinois")
	if err != nil {
		t.Fatal(err)
	}
	from := env.seedToll(t, "Entry")
	to := env.seedToll(t, "Exit")

	bad := models.CorridorFactGroup{
		StateCalculatorID: calc.ID,
		FromTollID:        from.ID,
		ToTollID:          from.ID, // degenerate pair
		Facts:             []models.PriceFact{{Amount: 9.99, PaymentType: models.PaymentCash}},
	}
	good := models.CorridorFactGroup{
		StateCalculatorID: calc.ID,
		FromTollID:        from.ID,
		ToTollID:          to.ID,
		Facts:             []models.PriceFact{{Amount: 2.50, PaymentType: models.PaymentCash}},
	}

	result, err := env.ledger.BatchUpsert([]models.CorridorFactGroup{bad, good}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Applied != 1 {
		t.Errorf("applied = %d, want the good group's single fact", result.Applied)
	}
	if len(result.Failures) != 1 {
		t.Errorf("failures = %v, want exactly the degenerate group", result.Failures)
	}
}

func TestLedgerBatchUpsertDirect(t *testing.T) {
	env := openLedgerEnv(t)

	toll := env.seedToll(t, "Bridge")

	group := models.DirectFactGroup{
		TollID: toll.ID,
		Facts: []models.PriceFact{
			{Amount: 1.50, PaymentType: models.PaymentCash},
			{Amount: 1.25, PaymentType: models.PaymentTransponder},
		},
	}
	result, err := env.ledger.BatchUpsert(nil, []models.DirectFactGroup{group})
	if err != nil {
		t.Fatal(err)
	}
	if result.Applied != 2 {
		t.Errorf("applied = %d, want 2", result.Applied)
	}

	stored, err := env.prices.PricesForOwner(models.DirectOwner(toll.ID))
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 2 {
		t.Errorf("stored %d direct prices, want 2", len(stored))
	}
}

func TestLedgerAmountForFineGrainedAndFallback(t *testing.T) {
	env := openLedgerEnv(t)

	toll := env.seedToll(t, "Bridge")
	toll.Cash = f64(1.00)
	toll.IPass = f64(0.80)
	if err := env.tolls.UpdateToll(toll); err != nil {
		t.Fatal(err)
	}

	owner := models.DirectOwner(toll.ID)

	// no fine-grained rows yet: legacy scalar answers
	got, err := env.ledger.AmountFor(owner, CashKey())
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || *got != 1.00 {
		t.Errorf("legacy cash fallback = %v, want 1.00", got)
	}
	got, err = env.ledger.AmountFor(owner, models.PriceKey{PaymentType: models.PaymentEZPass})
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || *got != 0.80 {
		t.Errorf("transponder-class fallback = %v, want 0.80", got)
	}

	// a fine-grained row beats the scalar
	if err := env.ledger.UpsertPrice(owner, models.PriceFact{Amount: 1.35, PaymentType: models.PaymentCash}); err != nil {
		t.Fatal(err)
	}
	got, err = env.ledger.AmountFor(owner, CashKey())
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || *got != 1.35 {
		t.Errorf("fine-grained price = %v, want 1.35", got)
	}
}

func TestLedgerAmountForMissingToll(t *testing.T) {
	env := openLedgerEnv(t)

	if _, err := env.ledger.AmountFor(models.DirectOwner(99999), CashKey()); err == nil {
		t.Error("lookup for a missing toll must fail")
	}
}

package services

import (
	"context"
	"testing"
	"time"

	"genlayer-market/internal/database"
	"genlayer-market/internal/models"
	"genlayer-market/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		panic("failed to connect database")
	}

	if err := database.Migrate(db); err != nil {
		panic("failed to migrate database")
	}
	return db
}

func newTestMarket(db *gorm.DB, t *testing.T) *models.Market {
	t.Helper()

	market := &models.Market{
		ID:              uuid.New(),
		Question:        "Will it rain tomorrow?",
		Category:        "Science",
		CreatorAddress:  "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		Status:          models.MarketStatusOpen,
		ResolutionState: models.ResolutionUndecided,
		Probability:     50,
		Volume:          decimal.Zero,
		YesPool:         decimal.Zero,
		NoPool:          decimal.Zero,
		ResolvedOutcome: models.OutcomeUndefined,
		EndTime:         time.Now().Add(time.Hour),
	}
	if err := db.Create(market).Error; err != nil {
		t.Fatalf("failed to create market: %v", err)
	}
	return market
}

const testUser = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

func TestRecordBuyCreatesPosition(t *testing.T) {
	db := setupTestDB()
	repo := repository.NewRepository(db)
	ledger := NewLedgerService(repo, 18)
	ctx := context.Background()

	market := newTestMarket(db, t)

	trade, err := ledger.RecordBuy(ctx, market, testUser, models.OutcomeYes, decimal.NewFromInt(1000), nil)
	if err != nil {
		t.Fatalf("RecordBuy failed: %v", err)
	}

	// 50% probability prices YES at 0.5, so 1000 buys 2000 shares.
	if !trade.Shares.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("trade shares = %s, want 2000", trade.Shares)
	}

	position, err := repo.GetPosition(ctx, market.ID, testUser, models.OutcomeYes)
	if err != nil || position == nil {
		t.Fatalf("position missing: %v", err)
	}
	if !position.Shares.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("position shares = %s, want 2000", position.Shares)
	}
	if !position.Invested.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("invested = %s, want 1000", position.Invested)
	}

	if !market.YesPool.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("yes pool = %s, want 1000", market.YesPool)
	}
	if !market.Volume.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("volume = %s, want 1000", market.Volume)
	}
	if market.Probability != 100 {
		t.Errorf("probability = %v, want 100 after an all-YES book", market.Probability)
	}
}

func TestRecordBuyWeightedAverage(t *testing.T) {
	db := setupTestDB()
	repo := repository.NewRepository(db)
	ledger := NewLedgerService(repo, 18)
	ctx := context.Background()

	market := newTestMarket(db, t)

	// First lot at 0.5, second at the clamped 0.99 (probability hit 100).
	if _, err := ledger.RecordBuy(ctx, market, testUser, models.OutcomeYes, decimal.NewFromInt(1000), nil); err != nil {
		t.Fatalf("first RecordBuy failed: %v", err)
	}
	if _, err := ledger.RecordBuy(ctx, market, testUser, models.OutcomeYes, decimal.NewFromInt(990), nil); err != nil {
		t.Fatalf("second RecordBuy failed: %v", err)
	}

	position, err := repo.GetPosition(ctx, market.ID, testUser, models.OutcomeYes)
	if err != nil || position == nil {
		t.Fatalf("position missing: %v", err)
	}

	// 2000 shares at 0.5 plus 1000 shares at 0.99.
	if !position.Shares.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("shares = %s, want 3000", position.Shares)
	}
	if !position.Invested.Equal(decimal.NewFromInt(1990)) {
		t.Errorf("invested = %s, want 1990", position.Invested)
	}

	wantAvg := decimal.RequireFromString("0.663333")
	if !position.AvgPrice.Equal(wantAvg) {
		t.Errorf("avg price = %s, want %s", position.AvgPrice, wantAvg)
	}

	var count int64
	db.Model(&models.Position{}).Where("market_id = ?", market.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected a single upserted position row, got %d", count)
	}
}

func TestRecordBuyRejectsNonPositiveAmount(t *testing.T) {
	db := setupTestDB()
	repo := repository.NewRepository(db)
	ledger := NewLedgerService(repo, 18)

	market := newTestMarket(db, t)

	if _, err := ledger.RecordBuy(context.Background(), market, testUser, models.OutcomeYes, decimal.Zero, nil); err == nil {
		t.Error("expected error for zero amount")
	}
	if _, err := ledger.RecordBuy(context.Background(), market, testUser, models.OutcomeYes, decimal.NewFromInt(-5), nil); err == nil {
		t.Error("expected error for negative amount")
	}
}

func TestRecordSellReducesPosition(t *testing.T) {
	db := setupTestDB()
	repo := repository.NewRepository(db)
	ledger := NewLedgerService(repo, 18)
	ctx := context.Background()

	market := newTestMarket(db, t)

	if _, err := ledger.RecordBuy(ctx, market, testUser, models.OutcomeYes, decimal.NewFromInt(1000), nil); err != nil {
		t.Fatalf("RecordBuy failed: %v", err)
	}

	if _, err := ledger.RecordSell(ctx, market, testUser, models.OutcomeYes, decimal.NewFromInt(500), nil); err != nil {
		t.Fatalf("RecordSell failed: %v", err)
	}

	position, err := repo.GetPosition(ctx, market.ID, testUser, models.OutcomeYes)
	if err != nil || position == nil {
		t.Fatalf("position missing: %v", err)
	}
	if !position.Shares.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("shares = %s, want 1500 after selling 500 of 2000", position.Shares)
	}
	if !position.Invested.Equal(decimal.NewFromInt(750)) {
		t.Errorf("invested = %s, want 750 after a quarter sold", position.Invested)
	}
}

func TestRecordSellRejectsOversell(t *testing.T) {
	db := setupTestDB()
	repo := repository.NewRepository(db)
	ledger := NewLedgerService(repo, 18)
	ctx := context.Background()

	market := newTestMarket(db, t)

	if _, err := ledger.RecordSell(ctx, market, testUser, models.OutcomeYes, decimal.NewFromInt(1), nil); err == nil {
		t.Error("expected error selling with no position")
	}

	if _, err := ledger.RecordBuy(ctx, market, testUser, models.OutcomeYes, decimal.NewFromInt(100), nil); err != nil {
		t.Fatalf("RecordBuy failed: %v", err)
	}
	if _, err := ledger.RecordSell(ctx, market, testUser, models.OutcomeYes, decimal.NewFromInt(10000), nil); err == nil {
		t.Error("expected error selling more shares than held")
	}
}

func TestEntitlementSplitsPoolByShares(t *testing.T) {
	db := setupTestDB()
	repo := repository.NewRepository(db)
	ledger := NewLedgerService(repo, 18)
	ctx := context.Background()

	market := newTestMarket(db, t)
	market.Status = models.MarketStatusResolved
	market.ResolvedOutcome = models.OutcomeYes
	market.YesPool = decimal.NewFromInt(600)
	market.NoPool = decimal.NewFromInt(400)

	positions := []*models.Position{
		{ID: uuid.New(), MarketID: market.ID, UserAddress: testUser, Side: models.OutcomeYes,
			Shares: decimal.NewFromInt(10), AvgPrice: decimal.RequireFromString("0.5"), Invested: decimal.NewFromInt(5)},
		{ID: uuid.New(), MarketID: market.ID, UserAddress: "0xcccccccccccccccccccccccccccccccccccccccc", Side: models.OutcomeYes,
			Shares: decimal.NewFromInt(90), AvgPrice: decimal.RequireFromString("0.5"), Invested: decimal.NewFromInt(45)},
		{ID: uuid.New(), MarketID: market.ID, UserAddress: "0xdddddddddddddddddddddddddddddddddddddddd", Side: models.OutcomeNo,
			Shares: decimal.NewFromInt(40), AvgPrice: decimal.RequireFromString("0.5"), Invested: decimal.NewFromInt(20)},
	}
	for _, p := range positions {
		if err := repo.SavePosition(ctx, p); err != nil {
			t.Fatalf("failed to seed position: %v", err)
		}
	}

	// 10 of 100 winning shares over the full 1000 pool.
	amount, err := ledger.Entitlement(ctx, market, positions[0])
	if err != nil {
		t.Fatalf("Entitlement failed: %v", err)
	}
	if !amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("entitlement = %s, want 100", amount)
	}

	// Losing side gets nothing, without error.
	amount, err = ledger.Entitlement(ctx, market, positions[2])
	if err != nil {
		t.Fatalf("Entitlement for losing side failed: %v", err)
	}
	if !amount.IsZero() {
		t.Errorf("losing-side entitlement = %s, want 0", amount)
	}
}

func TestEntitlementRequiresResolvedMarket(t *testing.T) {
	db := setupTestDB()
	repo := repository.NewRepository(db)
	ledger := NewLedgerService(repo, 18)

	market := newTestMarket(db, t)
	position := &models.Position{
		ID: uuid.New(), MarketID: market.ID, UserAddress: testUser, Side: models.OutcomeYes,
		Shares: decimal.NewFromInt(10), AvgPrice: decimal.RequireFromString("0.5"), Invested: decimal.NewFromInt(5),
	}

	if _, err := ledger.Entitlement(context.Background(), market, position); err == nil {
		t.Error("expected error for unresolved market")
	}
}

func TestDisplayAmount(t *testing.T) {
	ledger := NewLedgerService(nil, 18)

	wei := decimal.RequireFromString("1500000000000000000")
	if got := ledger.DisplayAmount(wei); !got.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("DisplayAmount = %s, want 1.5", got)
	}
}

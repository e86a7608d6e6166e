package repository

import (
	"context"
	"time"

	"genlayer-market/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository is the keyed ledger store: single-row get, filtered list and
// upsert over the off-chain tables. No cross-table transactions are assumed.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateMarket creates a new market row
func (r *Repository) CreateMarket(ctx context.Context, market *models.Market) error {
	return r.db.WithContext(ctx).Create(market).Error
}

// GetMarketByID retrieves a market by ID
func (r *Repository) GetMarketByID(ctx context.Context, marketID uuid.UUID) (*models.Market, error) {
	var market models.Market
	err := r.db.WithContext(ctx).Where("id = ?", marketID).First(&market).Error
	if err != nil {
		return nil, err
	}
	return &market, nil
}

// ListMarkets retrieves markets with optional status/category/tag filters
func (r *Repository) ListMarkets(ctx context.Context, status, category, tag string, limit, offset int) ([]*models.Market, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Market{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if tag != "" {
		// Tags are stored as a pq array literal, so a substring match suffices.
		query = query.Where("tags LIKE ?", "%"+tag+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var markets []*models.Market
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&markets).Error
	if err != nil {
		return nil, 0, err
	}

	return markets, total, nil
}

// UpdateMarket persists a full market row
func (r *Repository) UpdateMarket(ctx context.Context, market *models.Market) error {
	return r.db.WithContext(ctx).Save(market).Error
}

// ListEndableMarkets retrieves open markets whose advertised end time passed
func (r *Repository) ListEndableMarkets(ctx context.Context, now time.Time) ([]*models.Market, error) {
	var markets []*models.Market
	err := r.db.WithContext(ctx).
		Where("status = ? AND end_time < ?", models.MarketStatusOpen, now).
		Find(&markets).Error
	if err != nil {
		return nil, err
	}
	return markets, nil
}

// GetPosition retrieves one (market, user, side) position; nil when absent
func (r *Repository) GetPosition(ctx context.Context, marketID uuid.UUID, userAddress string, side models.Outcome) (*models.Position, error) {
	var position models.Position
	err := r.db.WithContext(ctx).
		Where("market_id = ? AND user_address = ? AND side = ?", marketID, userAddress, side).
		First(&position).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &position, nil
}

// SavePosition creates or updates a position row
func (r *Repository) SavePosition(ctx context.Context, position *models.Position) error {
	return r.db.WithContext(ctx).Save(position).Error
}

// ListUserPositions retrieves all positions for a user, newest first
func (r *Repository) ListUserPositions(ctx context.Context, userAddress string) ([]*models.Position, error) {
	var positions []*models.Position
	err := r.db.WithContext(ctx).
		Where("user_address = ?", userAddress).
		Order("created_at DESC").
		Find(&positions).Error
	if err != nil {
		return nil, err
	}
	return positions, nil
}

// ListMarketPositions retrieves positions for a market, optionally one side
func (r *Repository) ListMarketPositions(ctx context.Context, marketID uuid.UUID, side *models.Outcome) ([]*models.Position, error) {
	query := r.db.WithContext(ctx).Where("market_id = ?", marketID)
	if side != nil {
		query = query.Where("side = ?", *side)
	}

	var positions []*models.Position
	if err := query.Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}

// CreateTrade appends one immutable trade journal row
func (r *Repository) CreateTrade(ctx context.Context, trade *models.Trade) error {
	return r.db.WithContext(ctx).Create(trade).Error
}

// ListMarketTrades retrieves the trade journal for a market, newest first
func (r *Repository) ListMarketTrades(ctx context.Context, marketID uuid.UUID, limit, offset int) ([]*models.Trade, error) {
	var trades []*models.Trade
	err := r.db.WithContext(ctx).
		Where("market_id = ?", marketID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&trades).Error
	if err != nil {
		return nil, err
	}
	return trades, nil
}

// CreateResolution creates the market's single resolution record
func (r *Repository) CreateResolution(ctx context.Context, record *models.ResolutionRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// GetResolutionByMarket retrieves a market's resolution record; nil when absent
func (r *Repository) GetResolutionByMarket(ctx context.Context, marketID uuid.UUID) (*models.ResolutionRecord, error) {
	var record models.ResolutionRecord
	err := r.db.WithContext(ctx).Where("market_id = ?", marketID).First(&record).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetOrCreateUser finds a user by wallet address, creating on first login
func (r *Repository) GetOrCreateUser(ctx context.Context, walletAddress string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("wallet_address = ?", walletAddress).First(&user).Error

	if err == gorm.ErrRecordNotFound {
		user = models.User{
			WalletAddress: walletAddress,
			LastSeenAt:    time.Now(),
		}
		if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
	if err != nil {
		return nil, err
	}

	r.db.WithContext(ctx).Model(&user).Update("last_seen_at", time.Now())
	return &user, nil
}

package services

import (
	"context"
	"fmt"
	"time"

	"genlayer-market/internal/blockchain"
	"genlayer-market/internal/models"
	"genlayer-market/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerService is the shadow accounting layer: the position/trade journal
// for markets with no escrow contract, and the display cache for markets
// that have one. Amounts are integer-valued decimals in the chain's smallest
// unit.
type LedgerService struct {
	repo            *repository.Repository
	displayDecimals int
}

// NewLedgerService creates a ledger service
func NewLedgerService(repo *repository.Repository, displayDecimals int) *LedgerService {
	return &LedgerService{repo: repo, displayDecimals: displayDecimals}
}

// priceFor derives the side's pool price from the market's probability
// estimate, clamped away from 0 and 1 so share math stays finite.
func priceFor(market *models.Market, side models.Outcome) decimal.Decimal {
	p := market.Probability / 100
	if side == models.OutcomeNo {
		p = 1 - p
	}
	if p < 0.01 {
		p = 0.01
	}
	if p > 0.99 {
		p = 0.99
	}
	return decimal.NewFromFloat(p)
}

// RecordBuy journals a buy: upserts the (market, user, side) position with a
// weighted-average entry price, appends an immutable Trade row and bumps the
// market's volume, pools and probability estimate.
func (s *LedgerService) RecordBuy(ctx context.Context, market *models.Market, userAddress string, side models.Outcome, amount decimal.Decimal, txHash *string) (*models.Trade, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("trade amount must be positive")
	}

	price := priceFor(market, side)
	shares := amount.Div(price).Truncate(0)
	if !shares.IsPositive() {
		return nil, fmt.Errorf("trade amount too small for one share")
	}

	position, err := s.repo.GetPosition(ctx, market.ID, userAddress, side)
	if err != nil {
		return nil, fmt.Errorf("failed to load position: %w", err)
	}

	if position == nil {
		position = &models.Position{
			ID:            uuid.New(),
			MarketID:      market.ID,
			UserAddress:   userAddress,
			Side:          side,
			Shares:        shares,
			AvgPrice:      price,
			Invested:      amount,
			ClaimedAmount: decimal.Zero,
		}
	} else {
		// Weighted-average entry price across the old and new lots.
		totalShares := position.Shares.Add(shares)
		weighted := position.Shares.Mul(position.AvgPrice).Add(shares.Mul(price))
		position.AvgPrice = weighted.Div(totalShares).Round(6)
		position.Shares = totalShares
		position.Invested = position.Invested.Add(amount)
	}

	if err := s.repo.SavePosition(ctx, position); err != nil {
		return nil, fmt.Errorf("failed to save position: %w", err)
	}

	trade := &models.Trade{
		ID:          uuid.New(),
		MarketID:    market.ID,
		UserAddress: userAddress,
		Side:        side,
		Action:      models.TradeActionBuy,
		Shares:      shares,
		Price:       price,
		Amount:      amount,
		TxHash:      txHash,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.CreateTrade(ctx, trade); err != nil {
		return nil, fmt.Errorf("failed to journal trade: %w", err)
	}

	if side == models.OutcomeYes {
		market.YesPool = market.YesPool.Add(amount)
	} else {
		market.NoPool = market.NoPool.Add(amount)
	}
	market.Volume = market.Volume.Add(amount)
	s.refreshProbability(market)

	if err := s.repo.UpdateMarket(ctx, market); err != nil {
		return nil, fmt.Errorf("failed to update market: %w", err)
	}

	return trade, nil
}

// RecordSell journals a sell against an existing position. Only reachable for
// legacy-interface markets; the coordinator rejects sells everywhere else.
func (s *LedgerService) RecordSell(ctx context.Context, market *models.Market, userAddress string, side models.Outcome, shares decimal.Decimal, txHash *string) (*models.Trade, error) {
	if !shares.IsPositive() {
		return nil, fmt.Errorf("share count must be positive")
	}

	position, err := s.repo.GetPosition(ctx, market.ID, userAddress, side)
	if err != nil {
		return nil, fmt.Errorf("failed to load position: %w", err)
	}
	if position == nil || position.Shares.LessThan(shares) {
		return nil, fmt.Errorf("position holds fewer shares than requested")
	}

	price := priceFor(market, side)
	amount := shares.Mul(price).Truncate(0)

	// Reduce the cost basis proportionally; avg price is unchanged by a sell.
	fraction := shares.Div(position.Shares)
	position.Invested = position.Invested.Sub(position.Invested.Mul(fraction)).Truncate(0)
	position.Shares = position.Shares.Sub(shares)

	if err := s.repo.SavePosition(ctx, position); err != nil {
		return nil, fmt.Errorf("failed to save position: %w", err)
	}

	trade := &models.Trade{
		ID:          uuid.New(),
		MarketID:    market.ID,
		UserAddress: userAddress,
		Side:        side,
		Action:      models.TradeActionSell,
		Shares:      shares,
		Price:       price,
		Amount:      amount,
		TxHash:      txHash,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.CreateTrade(ctx, trade); err != nil {
		return nil, fmt.Errorf("failed to journal trade: %w", err)
	}

	if side == models.OutcomeYes {
		market.YesPool = market.YesPool.Sub(amount)
	} else {
		market.NoPool = market.NoPool.Sub(amount)
	}
	market.Volume = market.Volume.Add(amount)
	s.refreshProbability(market)

	if err := s.repo.UpdateMarket(ctx, market); err != nil {
		return nil, fmt.Errorf("failed to update market: %w", err)
	}

	return trade, nil
}

// refreshProbability re-derives the YES probability estimate from the side
// pools.
func (s *LedgerService) refreshProbability(market *models.Market) {
	total := market.YesPool.Add(market.NoPool)
	if !total.IsPositive() {
		return
	}
	probability, _ := market.YesPool.Div(total).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	market.Probability = probability
}

// Entitlement re-derives what a position is owed on a resolved market from
// stored shares and the resolved outcome, using the same integer payout
// formula the escrow contract applies.
func (s *LedgerService) Entitlement(ctx context.Context, market *models.Market, position *models.Position) (decimal.Decimal, error) {
	if market.Status != models.MarketStatusResolved || market.ResolvedOutcome == models.OutcomeUndefined {
		return decimal.Zero, fmt.Errorf("market %s is not resolved", market.ID)
	}
	if position.Side != market.ResolvedOutcome {
		return decimal.Zero, nil
	}

	totalWinning, err := s.totalWinningShares(ctx, market)
	if err != nil {
		return decimal.Zero, err
	}

	totalPool := market.YesPool.Add(market.NoPool)
	payout := blockchain.Payout(position.Shares.BigInt(), totalPool.BigInt(), totalWinning.BigInt())
	return decimal.NewFromBigInt(payout, 0), nil
}

func (s *LedgerService) totalWinningShares(ctx context.Context, market *models.Market) (decimal.Decimal, error) {
	side := market.ResolvedOutcome
	positions, err := s.repo.ListMarketPositions(ctx, market.ID, &side)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to list winning positions: %w", err)
	}

	total := decimal.Zero
	for _, position := range positions {
		total = total.Add(position.Shares)
	}
	return total, nil
}

// DisplayAmount converts a smallest-unit amount to the display currency.
func (s *LedgerService) DisplayAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Shift(int32(-s.displayDecimals))
}
